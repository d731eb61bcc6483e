package scheduler

import (
	"container/heap"
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	"go.uber.org/zap"
)

// ErrDuplicateTrigger means a caller armed a notification that already has a live trigger.
var ErrDuplicateTrigger = errors.New("duplicate trigger")

// DeliverFunc delivers one notification. It is called from the scheduler loop
// without the scheduler lock held, so it may arm or cancel triggers.
type DeliverFunc func(ctx context.Context, userID int64, notificationID string) error

// Option configures a Scheduler.
type Option func(*Scheduler)

// WithClock overrides time.Now.
func WithClock(now func() time.Time) Option {
	return func(s *Scheduler) { s.now = now }
}

// WithErrorSink sets the function receiving delivery failures and duplicate-arm defects.
func WithErrorSink(sink func(error)) Option {
	return func(s *Scheduler) { s.onError = sink }
}

// WithDeliveryTimeout bounds each DeliverFunc call. Zero disables the deadline.
func WithDeliveryTimeout(d time.Duration) Option {
	return func(s *Scheduler) { s.deliveryTimeout = d }
}

// Scheduler keeps pending triggers in a min-heap and fires each one once at or after its due time.
// At most one live trigger exists per notification id.
type Scheduler struct {
	log             *zap.Logger
	deliver         DeliverFunc
	onError         func(error)
	now             func() time.Time
	deliveryTimeout time.Duration

	mu    sync.Mutex
	queue triggerHeap
	byID  map[string]*trigger
	seq   uint64

	// wake nudges Run to recompute its next wake time after arm/cancel.
	wake chan struct{}
}

// New creates a Scheduler. Call Run to start firing triggers.
func New(deliver DeliverFunc, log *zap.Logger, opts ...Option) *Scheduler {
	s := &Scheduler{
		log:     log,
		deliver: deliver,
		now:     time.Now,
		byID:    make(map[string]*trigger),
		wake:    make(chan struct{}, 1),
	}
	s.onError = func(err error) { s.log.Error("scheduler error", zap.Error(err)) }
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// Arm registers a trigger for notificationID at dueAt.
// A second live trigger for the same id is rejected with ErrDuplicateTrigger.
func (s *Scheduler) Arm(dueAt time.Time, userID int64, notificationID string) error {
	s.mu.Lock()
	if _, exists := s.byID[notificationID]; exists {
		s.mu.Unlock()
		err := fmt.Errorf("%w: notification %s", ErrDuplicateTrigger, notificationID)
		s.onError(err)
		return err
	}
	s.push(dueAt, userID, notificationID)
	s.mu.Unlock()

	s.log.Debug("trigger armed",
		zap.String("notification_id", notificationID),
		zap.Int64("user_id", userID),
		zap.Time("due_at", dueAt),
	)
	s.notify()
	return nil
}

// Cancel removes the live trigger for notificationID, if any.
func (s *Scheduler) Cancel(notificationID string) {
	s.mu.Lock()
	removed := s.remove(notificationID)
	s.mu.Unlock()

	if removed {
		s.log.Debug("trigger cancelled", zap.String("notification_id", notificationID))
		s.notify()
	}
}

// Reschedule cancels any live trigger for notificationID and arms a new one at dueAt
// in a single critical section, so no observer sees zero or two triggers for the id.
func (s *Scheduler) Reschedule(dueAt time.Time, userID int64, notificationID string) {
	s.mu.Lock()
	s.remove(notificationID)
	s.push(dueAt, userID, notificationID)
	s.mu.Unlock()

	s.log.Debug("trigger rescheduled",
		zap.String("notification_id", notificationID),
		zap.Time("due_at", dueAt),
	)
	s.notify()
}

// Pending returns the due time of the live trigger for notificationID.
func (s *Scheduler) Pending(notificationID string) (time.Time, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	t, ok := s.byID[notificationID]
	if !ok {
		return time.Time{}, false
	}
	return t.dueAt, true
}

// Len returns the number of live triggers.
func (s *Scheduler) Len() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.queue)
}

// Run fires due triggers until ctx is canceled. With no triggers it idles until the next Arm.
func (s *Scheduler) Run(ctx context.Context) {
	s.log.Info("scheduler started")
	for {
		t, wait, idle := s.next()
		if t != nil {
			s.fire(ctx, t)
			continue
		}

		var timer *time.Timer
		var timerC <-chan time.Time
		if !idle {
			timer = time.NewTimer(wait)
			timerC = timer.C
		}

		select {
		case <-ctx.Done():
			if timer != nil {
				timer.Stop()
			}
			s.log.Info("scheduler stopping", zap.Int("pending", s.Len()))
			return
		case <-s.wake:
		case <-timerC:
		}
		if timer != nil {
			timer.Stop()
		}
	}
}

// next pops the earliest trigger if it is due; otherwise it reports how long to wait.
func (s *Scheduler) next() (t *trigger, wait time.Duration, idle bool) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if len(s.queue) == 0 {
		return nil, 0, true
	}
	head := s.queue[0]
	wait = head.dueAt.Sub(s.now())
	if wait > 0 {
		return nil, wait, false
	}
	heap.Pop(&s.queue)
	delete(s.byID, head.notificationID)
	return head, 0, false
}

func (s *Scheduler) fire(ctx context.Context, t *trigger) {
	dctx := ctx
	if s.deliveryTimeout > 0 {
		var cancel context.CancelFunc
		dctx, cancel = context.WithTimeout(ctx, s.deliveryTimeout)
		defer cancel()
	}

	s.log.Debug("trigger fired",
		zap.String("notification_id", t.notificationID),
		zap.Int64("user_id", t.userID),
	)
	if err := s.deliver(dctx, t.userID, t.notificationID); err != nil {
		s.onError(fmt.Errorf("deliver notification %s to user %d: %w", t.notificationID, t.userID, err))
	}
}

// push and remove require s.mu.
func (s *Scheduler) push(dueAt time.Time, userID int64, notificationID string) {
	s.seq++
	t := &trigger{
		dueAt:          dueAt,
		userID:         userID,
		notificationID: notificationID,
		seq:            s.seq,
	}
	heap.Push(&s.queue, t)
	s.byID[notificationID] = t
}

func (s *Scheduler) remove(notificationID string) bool {
	t, ok := s.byID[notificationID]
	if !ok {
		return false
	}
	heap.Remove(&s.queue, t.index)
	delete(s.byID, notificationID)
	return true
}

func (s *Scheduler) notify() {
	select {
	case s.wake <- struct{}{}:
	default:
	}
}
