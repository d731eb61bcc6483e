package reminder

import (
	"context"
	"errors"
	"fmt"
	"time"

	"go.uber.org/zap"

	"github.com/ykvlv/reminder-bot/internal/domain"
	"github.com/ykvlv/reminder-bot/internal/store"
)

// Postpone moves the user's last delivered reminder to now + the offset in command
// and returns the new due time. The last-active entry is left pointing at it.
func (s *Service) Postpone(ctx context.Context, userID int64, command string) (time.Time, error) {
	offset, err := domain.ParseOffset(command)
	if err != nil {
		return time.Time{}, err
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	id, err := s.repo.GetLastActive(ctx, userID)
	if errors.Is(err, store.ErrNotFound) {
		return time.Time{}, domain.ErrNoActiveNotification
	}
	if err != nil {
		return time.Time{}, err
	}

	if _, err := s.repo.Get(ctx, id); errors.Is(err, store.ErrNotFound) {
		return time.Time{}, fmt.Errorf("%w: %s", domain.ErrNotificationGone, id)
	} else if err != nil {
		return time.Time{}, err
	}

	// Store first: a failed write leaves both the row and the live trigger untouched.
	next := s.now().Add(offset)
	if err := s.repo.UpdateSchedule(ctx, id, next); err != nil {
		return time.Time{}, fmt.Errorf("update schedule: %w", err)
	}
	s.sched.Reschedule(next, userID, id)

	s.log.Info("reminder postponed",
		zap.String("notification_id", id),
		zap.Int64("user_id", userID),
		zap.Duration("offset", offset),
		zap.Time("scheduled_at", next),
	)
	return next, nil
}
