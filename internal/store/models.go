package store

import (
	"time"

	"github.com/google/uuid"
)

// Option configures a repository.
type Option func(*options)

type options struct {
	now   func() time.Time
	newID func() string
}

// WithClock overrides the clock used to validate new schedules.
func WithClock(now func() time.Time) Option {
	return func(o *options) { o.now = now }
}

// WithIDGenerator overrides notification id generation.
func WithIDGenerator(gen func() string) Option {
	return func(o *options) { o.newID = gen }
}

func buildOptions(opts []Option) options {
	o := options{now: time.Now, newID: uuid.NewString}
	for _, opt := range opts {
		opt(&o)
	}
	return o
}

// Schedules are stored as unix seconds plus a nanosecond remainder: exact for
// postponed times and valid for any year, unlike a single UnixNano column.
func splitTime(t time.Time) (sec, nsec int64) {
	return t.Unix(), int64(t.Nanosecond())
}

func joinTime(sec, nsec int64) time.Time {
	return time.Unix(sec, nsec).UTC()
}
