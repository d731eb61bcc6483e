package store

import (
	"context"
	"fmt"
	"sort"
	"sync"
	"time"

	"github.com/ykvlv/reminder-bot/internal/domain"
)

// MemoryRepo implements Repo in process memory.
type MemoryRepo struct {
	mu         sync.RWMutex
	opts       options
	items      map[string]*domain.Notification
	lastActive map[int64]string
}

// NewMemory creates an empty in-memory repository.
func NewMemory(opts ...Option) *MemoryRepo {
	return &MemoryRepo{
		opts:       buildOptions(opts),
		items:      make(map[string]*domain.Notification),
		lastActive: make(map[int64]string),
	}
}

func (r *MemoryRepo) Create(_ context.Context, text string, userID int64, scheduledAt time.Time) (string, error) {
	if !scheduledAt.After(r.opts.now()) {
		return "", fmt.Errorf("%w: %s is not in the future", domain.ErrInvalidSchedule, scheduledAt)
	}

	r.mu.Lock()
	defer r.mu.Unlock()

	id := r.opts.newID()
	if _, exists := r.items[id]; exists {
		return "", fmt.Errorf("duplicate notification id %q", id)
	}
	r.items[id] = &domain.Notification{
		ID:                  id,
		UserID:              userID,
		Text:                text,
		ScheduledAt:         scheduledAt,
		OriginalScheduledAt: scheduledAt,
	}
	return id, nil
}

func (r *MemoryRepo) Get(_ context.Context, id string) (*domain.Notification, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	n, ok := r.items[id]
	if !ok {
		return nil, fmt.Errorf("notification %q: %w", id, ErrNotFound)
	}
	cp := *n
	return &cp, nil
}

func (r *MemoryRepo) UpdateSchedule(_ context.Context, id string, next time.Time) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	n, ok := r.items[id]
	if !ok {
		return fmt.Errorf("notification %q: %w", id, ErrNotFound)
	}
	n.ScheduledAt = next
	return nil
}

func (r *MemoryRepo) SetLastActive(_ context.Context, userID int64, id string) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.lastActive[userID] = id
	return nil
}

func (r *MemoryRepo) GetLastActive(_ context.Context, userID int64) (string, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	id, ok := r.lastActive[userID]
	if !ok {
		return "", fmt.Errorf("last active for user %d: %w", userID, ErrNotFound)
	}
	return id, nil
}

func (r *MemoryRepo) All(_ context.Context) ([]domain.Notification, error) {
	r.mu.RLock()
	res := make([]domain.Notification, 0, len(r.items))
	for _, n := range r.items {
		res = append(res, *n)
	}
	r.mu.RUnlock()

	sort.Slice(res, func(i, j int) bool { return res[i].ScheduledAt.Before(res[j].ScheduledAt) })
	return res, nil
}

// Close is a no-op for the in-memory repository.
func (r *MemoryRepo) Close() error { return nil }
