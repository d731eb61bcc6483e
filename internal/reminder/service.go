// Package reminder ties the notification store to the trigger scheduler.
//
// Every mutation of the store and of the scheduler's trigger set goes through
// Service, which serializes them behind one mutex.
package reminder

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	"go.uber.org/zap"

	"github.com/ykvlv/reminder-bot/internal/domain"
	"github.com/ykvlv/reminder-bot/internal/store"
)

// Sender delivers a due notification to its user.
// It may be called more than once for the same notification.
type Sender interface {
	Deliver(ctx context.Context, n domain.Notification) error
}

// Scheduler is the subset of scheduler.Scheduler the service drives.
type Scheduler interface {
	Arm(dueAt time.Time, userID int64, notificationID string) error
	Reschedule(dueAt time.Time, userID int64, notificationID string)
}

// Option configures a Service.
type Option func(*Service)

// WithClock overrides time.Now.
func WithClock(now func() time.Time) Option {
	return func(s *Service) { s.now = now }
}

// WithRecoveryMaxAge makes Recover skip reminders overdue by more than d. Zero means no limit.
func WithRecoveryMaxAge(d time.Duration) Option {
	return func(s *Service) { s.recoveryMaxAge = d }
}

// Service creates, delivers, postpones and recovers reminders.
type Service struct {
	repo   store.Repo
	sender Sender
	log    *zap.Logger

	now            func() time.Time
	recoveryMaxAge time.Duration

	mu    sync.Mutex
	sched Scheduler
}

// New creates a Service. UseScheduler must be called before Create, Postpone or Recover.
func New(repo store.Repo, sender Sender, log *zap.Logger, opts ...Option) *Service {
	s := &Service{
		repo:   repo,
		sender: sender,
		log:    log,
		now:    time.Now,
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// UseScheduler attaches the scheduler whose delivery callback is s.Deliver.
func (s *Service) UseScheduler(sched Scheduler) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.sched = sched
}

// Create stores a reminder and arms its trigger.
func (s *Service) Create(ctx context.Context, userID int64, text string, at time.Time) (*domain.Notification, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	id, err := s.repo.Create(ctx, text, userID, at)
	if err != nil {
		return nil, err
	}
	if err := s.sched.Arm(at, userID, id); err != nil {
		s.log.Error("reminder stored without trigger, next recovery will pick it up",
			zap.String("notification_id", id),
			zap.Int64("user_id", userID),
			zap.Time("scheduled_at", at),
			zap.Error(err),
		)
		return nil, fmt.Errorf("arm notification %s: %w", id, err)
	}

	s.log.Info("reminder created",
		zap.String("notification_id", id),
		zap.Int64("user_id", userID),
		zap.Time("scheduled_at", at),
	)
	return &domain.Notification{
		ID:                  id,
		UserID:              userID,
		Text:                text,
		ScheduledAt:         at,
		OriginalScheduledAt: at,
	}, nil
}

// Deliver sends the notification and, on success, marks it as the user's last active one.
// A notification that no longer exists is skipped.
func (s *Service) Deliver(ctx context.Context, userID int64, notificationID string) error {
	s.mu.Lock()
	n, err := s.repo.Get(ctx, notificationID)
	s.mu.Unlock()
	if errors.Is(err, store.ErrNotFound) {
		s.log.Warn("delivery skipped, notification gone",
			zap.String("notification_id", notificationID),
			zap.Int64("user_id", userID),
		)
		return nil
	}
	if err != nil {
		return err
	}

	if err := s.sender.Deliver(ctx, *n); err != nil {
		return fmt.Errorf("send: %w", err)
	}

	s.mu.Lock()
	err = s.repo.SetLastActive(ctx, userID, notificationID)
	s.mu.Unlock()
	if err != nil {
		return fmt.Errorf("set last active: %w", err)
	}

	s.log.Info("reminder delivered",
		zap.String("notification_id", notificationID),
		zap.Int64("user_id", userID),
	)
	return nil
}
