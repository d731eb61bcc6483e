package domain

import (
	"errors"
	"time"
)

// Notification is a single user reminder.
type Notification struct {
	ID                  string
	UserID              int64
	Text                string
	ScheduledAt         time.Time // mutable, moved by postponement
	OriginalScheduledAt time.Time // set once at creation
}

// User input errors: recoverable, the conversation stays where it is.
var (
	ErrInvalidDate     = errors.New("invalid date")
	ErrInvalidTime     = errors.New("invalid time")
	ErrPastSchedule    = errors.New("schedule is not in the future")
	ErrInvalidSchedule = errors.New("invalid schedule")
)

// Postpone errors.
var (
	ErrMalformedOffset      = errors.New("malformed postpone offset")
	ErrNoActiveNotification = errors.New("no active notification")
	ErrNotificationGone     = errors.New("notification no longer exists")
)
