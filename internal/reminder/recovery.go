package reminder

import (
	"context"
	"fmt"

	"go.uber.org/zap"
)

// RecoveryStats summarizes one Recover pass.
type RecoveryStats struct {
	Delivered int
	Failed    int
	Skipped   int // overdue beyond the configured max age
	Rearmed   int
}

// Recover runs once at startup, after the scheduler loop is running.
// Overdue reminders are delivered immediately; future ones get their trigger back.
func (s *Service) Recover(ctx context.Context) (RecoveryStats, error) {
	var stats RecoveryStats

	s.mu.Lock()
	all, err := s.repo.All(ctx)
	s.mu.Unlock()
	if err != nil {
		return stats, fmt.Errorf("list notifications: %w", err)
	}

	now := s.now()
	for _, n := range all {
		if n.ScheduledAt.After(now) {
			s.mu.Lock()
			err := s.sched.Arm(n.ScheduledAt, n.UserID, n.ID)
			s.mu.Unlock()
			if err != nil {
				s.log.Error("recovery re-arm failed", zap.String("notification_id", n.ID), zap.Error(err))
				continue
			}
			stats.Rearmed++
			continue
		}

		if s.recoveryMaxAge > 0 && now.Sub(n.ScheduledAt) > s.recoveryMaxAge {
			stats.Skipped++
			continue
		}
		if err := s.Deliver(ctx, n.UserID, n.ID); err != nil {
			stats.Failed++
			s.log.Error("recovery delivery failed",
				zap.String("notification_id", n.ID),
				zap.Int64("user_id", n.UserID),
				zap.Error(err),
			)
			continue
		}
		stats.Delivered++
	}

	s.log.Info("recovery finished",
		zap.Int("delivered", stats.Delivered),
		zap.Int("failed", stats.Failed),
		zap.Int("skipped", stats.Skipped),
		zap.Int("rearmed", stats.Rearmed),
	)
	return stats, nil
}
