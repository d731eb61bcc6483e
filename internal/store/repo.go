package store

import (
	"context"
	"errors"
	"time"

	"github.com/ykvlv/reminder-bot/internal/domain"
)

// ErrNotFound is returned when a notification or last-active entry is absent.
var ErrNotFound = errors.New("not found")

// Repo owns notifications and the per-user last-active index.
type Repo interface {
	// Create stores a new notification and returns its generated id.
	// scheduledAt must be strictly after the current time.
	Create(ctx context.Context, text string, userID int64, scheduledAt time.Time) (string, error)
	Get(ctx context.Context, id string) (*domain.Notification, error)
	UpdateSchedule(ctx context.Context, id string, next time.Time) error
	SetLastActive(ctx context.Context, userID int64, id string) error
	GetLastActive(ctx context.Context, userID int64) (string, error)
	// All returns every notification ordered by scheduled time.
	All(ctx context.Context) ([]domain.Notification, error)
	Close() error
}
