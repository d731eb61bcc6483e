package app

import (
	"context"
	"path/filepath"
	"sync"
	"testing"
	"time"

	tgbotapi "github.com/go-telegram-bot-api/telegram-bot-api/v5"
	"go.uber.org/zap"

	"github.com/ykvlv/reminder-bot/internal/config"
	"github.com/ykvlv/reminder-bot/internal/conversation"
	"github.com/ykvlv/reminder-bot/internal/store"
)

type recordingBot struct {
	mu   sync.Mutex
	sent []string
}

func (b *recordingBot) Send(c tgbotapi.Chattable) (tgbotapi.Message, error) {
	b.mu.Lock()
	defer b.mu.Unlock()
	if m, ok := c.(tgbotapi.MessageConfig); ok {
		b.sent = append(b.sent, m.Text)
	}
	return tgbotapi.Message{}, nil
}

func (b *recordingBot) texts() []string {
	b.mu.Lock()
	defer b.mu.Unlock()
	return append([]string(nil), b.sent...)
}

func testConfig() config.Config {
	return config.Config{
		BotToken:        "x",
		StoreDriver:     config.StoreMemory,
		DefaultTZ:       "UTC",
		DeliveryTimeout: time.Second,
	}
}

func TestOpenRepo(t *testing.T) {
	ctx := context.Background()

	cfg := testConfig()
	repo, err := openRepo(ctx, cfg)
	if err != nil {
		t.Fatalf("memory: %v", err)
	}
	if _, ok := repo.(*store.MemoryRepo); !ok {
		t.Fatalf("want MemoryRepo, got %T", repo)
	}

	cfg.StoreDriver = config.StoreSQLite
	cfg.DBPath = filepath.Join(t.TempDir(), "app.db")
	repo, err = openRepo(ctx, cfg)
	if err != nil {
		t.Fatalf("sqlite: %v", err)
	}
	defer repo.Close()
	if _, ok := repo.(*store.SQLiteRepo); !ok {
		t.Fatalf("want SQLiteRepo, got %T", repo)
	}
}

func TestWire_RecoveryAndScheduledDelivery(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	repo := store.NewMemory()
	// Stored before "startup": due shortly, so recovery re-arms it.
	if _, err := repo.Create(ctx, "stand up", 7, time.Now().Add(200*time.Millisecond)); err != nil {
		t.Fatalf("seed: %v", err)
	}

	bot := &recordingBot{}
	a := &App{cfg: testConfig(), log: zap.NewNop()}
	a.wire(repo, bot)

	done := make(chan struct{})
	go func() { a.sched.Run(ctx); close(done) }()
	defer func() { cancel(); <-done }()

	stats, err := a.svc.Recover(ctx)
	if err != nil {
		t.Fatalf("recover: %v", err)
	}
	if stats.Rearmed != 1 {
		t.Fatalf("unexpected stats %+v", stats)
	}

	deadline := time.Now().Add(2 * time.Second)
	for len(bot.texts()) == 0 {
		if time.Now().After(deadline) {
			t.Fatal("re-armed reminder never delivered")
		}
		time.Sleep(5 * time.Millisecond)
	}
	if got := bot.texts()[0]; got != "🔔 Reminder: stand up" {
		t.Fatalf("unexpected delivery %q", got)
	}
}

func TestWire_RouterDrivesEngine(t *testing.T) {
	bot := &recordingBot{}
	a := &App{cfg: testConfig(), log: zap.NewNop()}
	a.wire(store.NewMemory(), bot)

	a.router.HandleUpdate(context.Background(), tgbotapi.Update{
		Message: &tgbotapi.Message{Chat: &tgbotapi.Chat{ID: 1}, Text: conversation.CreateCommand},
	})
	if len(bot.texts()) != 1 {
		t.Fatalf("want one prompt, got %v", bot.texts())
	}
}
