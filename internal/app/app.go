package app

import (
	"context"
	"errors"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	tgbotapi "github.com/go-telegram-bot-api/telegram-bot-api/v5"
	"go.uber.org/zap"

	"github.com/ykvlv/reminder-bot/internal/config"
	"github.com/ykvlv/reminder-bot/internal/conversation"
	"github.com/ykvlv/reminder-bot/internal/reminder"
	"github.com/ykvlv/reminder-bot/internal/scheduler"
	"github.com/ykvlv/reminder-bot/internal/store"
	"github.com/ykvlv/reminder-bot/internal/telegram"
)

type App struct {
	cfg     config.Config
	log     *zap.Logger
	bot     *tgbotapi.BotAPI
	httpSrv *http.Server
	repo    store.Repo
	sched   *scheduler.Scheduler
	svc     *reminder.Service
	router  *telegram.Router
}

func New(cfg config.Config, log *zap.Logger) (*App, error) {
	bot, err := tgbotapi.NewBotAPI(cfg.BotToken)
	if err != nil {
		return nil, err
	}
	bot.Debug = false

	mux := http.NewServeMux()
	mux.HandleFunc("/healthz", func(w http.ResponseWriter, _ *http.Request) { w.WriteHeader(http.StatusOK) })
	srv := &http.Server{
		Addr:         cfg.HTTPAddr,
		Handler:      mux,
		ReadTimeout:  3 * time.Second,
		WriteTimeout: 3 * time.Second,
	}

	return &App{cfg: cfg, log: log, bot: bot, httpSrv: srv}, nil
}

// openRepo picks the notification store from STORE_DRIVER.
func openRepo(ctx context.Context, cfg config.Config) (store.Repo, error) {
	if cfg.StoreDriver == config.StoreMemory {
		return store.NewMemory(), nil
	}
	return store.OpenSQLite(ctx, cfg.DBPath)
}

// wire builds the reminder core around repo and the given bot.
func (a *App) wire(repo store.Repo, bot telegram.Bot) {
	loc := a.cfg.Location()

	a.repo = repo
	a.svc = reminder.New(repo, telegram.NewNotifier(bot), a.log,
		reminder.WithRecoveryMaxAge(a.cfg.RecoveryMaxAge),
	)
	a.sched = scheduler.New(a.svc.Deliver, a.log.Named("scheduler"),
		scheduler.WithDeliveryTimeout(a.cfg.DeliveryTimeout),
		scheduler.WithErrorSink(func(err error) {
			if errors.Is(err, scheduler.ErrDuplicateTrigger) {
				a.log.Error("trigger invariant violated", zap.Error(err))
				return
			}
			a.log.Error("delivery failed", zap.Error(err))
		}),
	)
	a.svc.UseScheduler(a.sched)

	engine := conversation.NewEngine(a.svc, loc, a.log.Named("conversation"))
	a.router = telegram.NewRouter(bot, a.log.Named("telegram"), engine, a.svc, loc)
}

func (a *App) Run(ctx context.Context) error {
	a.log.Info("starting reminder-bot")

	repo, err := openRepo(ctx, a.cfg)
	if err != nil {
		a.log.Error("open store failed", zap.Error(err))
		return err
	}
	a.log.Info("store ready")
	a.wire(repo, a.bot)

	ctx, stop := signal.NotifyContext(ctx, os.Interrupt, syscall.SIGTERM)
	defer stop()

	schedCtx, stopSched := context.WithCancel(ctx)
	defer stopSched()
	schedDone := make(chan struct{})
	go func() {
		defer close(schedDone)
		a.sched.Run(schedCtx)
	}()

	// Recovery runs once the scheduler loop is up so re-armed triggers fire normally.
	if _, err := a.svc.Recover(ctx); err != nil {
		a.log.Error("recovery failed", zap.Error(err))
	}

	go func() {
		if err := a.httpSrv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			a.log.Error("http server error", zap.Error(err))
		}
	}()

	u := tgbotapi.NewUpdate(0)
	u.Timeout = 30
	updCh := a.bot.GetUpdatesChan(u)

	for {
		select {
		case <-ctx.Done():
			a.log.Info("shutdown signal received")
			a.bot.StopReceivingUpdates()

			stopSched()
			<-schedDone

			shCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
			err := a.httpSrv.Shutdown(shCtx)
			cancel()
			if err != nil {
				a.log.Warn("http server shutdown error", zap.Error(err))
			}

			if err := a.repo.Close(); err != nil {
				a.log.Warn("store close error", zap.Error(err))
			}
			return nil

		case upd := <-updCh:
			a.router.HandleUpdate(ctx, upd)
		}
	}
}
