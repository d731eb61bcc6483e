package telegram

import (
	"context"
	"strings"
	"sync"
	"testing"
	"time"

	tgbotapi "github.com/go-telegram-bot-api/telegram-bot-api/v5"
	"go.uber.org/zap"

	"github.com/ykvlv/reminder-bot/internal/conversation"
	"github.com/ykvlv/reminder-bot/internal/reminder"
	"github.com/ykvlv/reminder-bot/internal/scheduler"
	"github.com/ykvlv/reminder-bot/internal/store"
)

type fakeBot struct {
	mu   sync.Mutex
	sent []tgbotapi.MessageConfig
}

func (b *fakeBot) Send(c tgbotapi.Chattable) (tgbotapi.Message, error) {
	b.mu.Lock()
	defer b.mu.Unlock()
	if m, ok := c.(tgbotapi.MessageConfig); ok {
		b.sent = append(b.sent, m)
	}
	return tgbotapi.Message{}, nil
}

func (b *fakeBot) last(t *testing.T) tgbotapi.MessageConfig {
	t.Helper()
	b.mu.Lock()
	defer b.mu.Unlock()
	if len(b.sent) == 0 {
		t.Fatal("no message sent")
	}
	return b.sent[len(b.sent)-1]
}

type clock struct {
	mu sync.Mutex
	t  time.Time
}

func (c *clock) Now() time.Time {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.t
}

func (c *clock) Set(t time.Time) {
	c.mu.Lock()
	c.t = t
	c.mu.Unlock()
}

type harness struct {
	bot    *fakeBot
	clock  *clock
	repo   *store.MemoryRepo
	sched  *scheduler.Scheduler
	svc    *reminder.Service
	router *Router
}

// newHarness wires the real engine, service and scheduler; the scheduler loop
// is not started so deliveries are driven by hand.
func newHarness(t *testing.T) *harness {
	t.Helper()
	log := zap.NewNop()
	clk := &clock{t: time.Date(2029, time.December, 1, 10, 0, 0, 0, time.UTC)}
	bot := &fakeBot{}
	repo := store.NewMemory(store.WithClock(clk.Now))

	svc := reminder.New(repo, NewNotifier(bot), log, reminder.WithClock(clk.Now))
	sched := scheduler.New(svc.Deliver, log, scheduler.WithClock(clk.Now))
	svc.UseScheduler(sched)

	engine := conversation.NewEngine(svc, time.UTC, log, conversation.WithClock(clk.Now))
	return &harness{
		bot:    bot,
		clock:  clk,
		repo:   repo,
		sched:  sched,
		svc:    svc,
		router: NewRouter(bot, log, engine, svc, time.UTC),
	}
}

func (h *harness) say(text string) {
	h.router.HandleUpdate(context.Background(), tgbotapi.Update{
		Message: &tgbotapi.Message{Chat: &tgbotapi.Chat{ID: 100}, Text: text},
	})
}

func TestRouter_Start(t *testing.T) {
	h := newHarness(t)
	h.say("/start")

	msg := h.bot.last(t)
	if msg.Text != startText {
		t.Fatalf("unexpected text %q", msg.Text)
	}
	kb, ok := msg.ReplyMarkup.(tgbotapi.ReplyKeyboardMarkup)
	if !ok || kb.Keyboard[0][0].Text != conversation.CreateCommand {
		t.Fatalf("start must offer the create button, got %#v", msg.ReplyMarkup)
	}
}

func TestRouter_EndToEnd(t *testing.T) {
	h := newHarness(t)
	ctx := context.Background()

	h.say(conversation.CreateCommand)
	if h.bot.last(t).Text != askTextText {
		t.Fatalf("want text prompt, got %q", h.bot.last(t).Text)
	}
	h.say("Buy milk")
	if h.bot.last(t).Text != askDateText {
		t.Fatalf("want date prompt, got %q", h.bot.last(t).Text)
	}
	h.say("01.01.2030")
	if h.bot.last(t).Text != askTimeText {
		t.Fatalf("want time prompt, got %q", h.bot.last(t).Text)
	}
	h.say("09:00")
	if !strings.HasPrefix(h.bot.last(t).Text, "✅ Reminder set for 01.01.2030 at 09:00") {
		t.Fatalf("unexpected confirmation %q", h.bot.last(t).Text)
	}

	all, _ := h.repo.All(ctx)
	if len(all) != 1 {
		t.Fatalf("want one notification, got %d", len(all))
	}
	n := all[0]
	due := time.Date(2030, time.January, 1, 9, 0, 0, 0, time.UTC)
	if n.Text != "Buy milk" || !n.ScheduledAt.Equal(due) {
		t.Fatalf("unexpected notification %+v", n)
	}

	// The trigger fires: the scheduler pops it and calls the service.
	delivered := due.Add(30 * time.Second)
	h.clock.Set(delivered)
	h.sched.Cancel(n.ID)
	if err := h.svc.Deliver(ctx, 100, n.ID); err != nil {
		t.Fatalf("deliver: %v", err)
	}
	msg := h.bot.last(t)
	if msg.Text != "🔔 Reminder: Buy milk" {
		t.Fatalf("unexpected delivery %q", msg.Text)
	}
	if _, ok := msg.ReplyMarkup.(tgbotapi.ReplyKeyboardMarkup); !ok {
		t.Fatal("delivery must carry the postpone keyboard")
	}

	h.say("Postpone for 15 minutes")
	if !strings.HasPrefix(h.bot.last(t).Text, "⏳ Reminder postponed by 15 minutes.") {
		t.Fatalf("unexpected postpone reply %q", h.bot.last(t).Text)
	}
	want := delivered.Add(15 * time.Minute)
	got, _ := h.repo.Get(ctx, n.ID)
	if !got.ScheduledAt.Equal(want) {
		t.Fatalf("want %v, got %v", want, got.ScheduledAt)
	}
	if h.sched.Len() != 1 {
		t.Fatalf("want exactly one trigger, got %d", h.sched.Len())
	}
	if at, ok := h.sched.Pending(n.ID); !ok || !at.Equal(want) {
		t.Fatalf("trigger at %v (%v), want %v", at, ok, want)
	}
}

func TestRouter_InputErrors(t *testing.T) {
	h := newHarness(t)
	h.say(conversation.CreateCommand)
	h.say("text")

	h.say("tomorrow")
	if h.bot.last(t).Text != invalidDateText {
		t.Fatalf("want invalid date reply, got %q", h.bot.last(t).Text)
	}
	h.say("01.12.2029")
	h.say("9am")
	if h.bot.last(t).Text != invalidTimeText {
		t.Fatalf("want invalid time reply, got %q", h.bot.last(t).Text)
	}
	h.say("09:00")
	if h.bot.last(t).Text != pastTimeText {
		t.Fatalf("want past time reply, got %q", h.bot.last(t).Text)
	}
}

func TestRouter_PostponeErrors(t *testing.T) {
	h := newHarness(t)

	h.say("Postpone for 5 minutes")
	if !strings.HasPrefix(h.bot.last(t).Text, noActiveText) {
		t.Fatalf("unexpected reply %q", h.bot.last(t).Text)
	}

	h.say("Postpone forever")
	if h.bot.last(t).Text != postponeUsageText {
		t.Fatalf("unexpected reply %q", h.bot.last(t).Text)
	}
	if h.sched.Len() != 0 {
		t.Fatal("malformed postpone must not arm anything")
	}
}

func TestRouter_PostponeTextDuringDialogIsReminderText(t *testing.T) {
	h := newHarness(t)
	h.say(conversation.CreateCommand)
	h.say("Postpone for 5 minutes")
	if h.bot.last(t).Text != askDateText {
		t.Fatalf("dialog must consume the turn, got %q", h.bot.last(t).Text)
	}
}

func TestRouter_IgnoresNonMessages(t *testing.T) {
	h := newHarness(t)
	h.router.HandleUpdate(context.Background(), tgbotapi.Update{})
	h.say("random chatter")
	if len(h.bot.sent) != 0 {
		t.Fatalf("nothing should be sent, got %d messages", len(h.bot.sent))
	}
}
