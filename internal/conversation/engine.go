// Package conversation implements the per-user dialog that collects a reminder's
// text, date and time over separate turns.
package conversation

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"sync"
	"time"

	"go.uber.org/zap"

	"github.com/ykvlv/reminder-bot/internal/domain"
)

// CreateCommand starts a new reminder from Idle.
const CreateCommand = "Create reminder"

// State is a user's position in the dialog.
type State int

const (
	Idle State = iota
	AwaitingText
	AwaitingDate
	AwaitingTime
)

func (s State) String() string {
	switch s {
	case Idle:
		return "idle"
	case AwaitingText:
		return "awaiting_text"
	case AwaitingDate:
		return "awaiting_date"
	case AwaitingTime:
		return "awaiting_time"
	default:
		return fmt.Sprintf("state(%d)", int(s))
	}
}

// Step tells the transport what to say after a turn.
type Step int

const (
	StepIgnored Step = iota // turn was not relevant
	StepAskText
	StepAskDate
	StepAskTime
	StepCreated // reminder committed, back to Idle
	StepAborted // terminal failure, back to Idle
)

// Result is the outcome of one turn.
type Result struct {
	Step         Step
	Notification *domain.Notification // set for StepCreated
}

// Creator commits a finished reminder.
type Creator interface {
	Create(ctx context.Context, userID int64, text string, at time.Time) (*domain.Notification, error)
}

type session struct {
	state State
	text  string
	date  time.Time
}

// Engine holds one dialog state per user. A user without an entry is Idle.
type Engine struct {
	creator Creator
	log     *zap.Logger
	loc     *time.Location
	now     func() time.Time

	mu       sync.Mutex
	sessions map[int64]*session
}

// Option configures an Engine.
type Option func(*Engine)

// WithClock overrides time.Now.
func WithClock(now func() time.Time) Option {
	return func(e *Engine) { e.now = now }
}

// NewEngine creates an Engine that interprets dates and times in loc.
func NewEngine(creator Creator, loc *time.Location, log *zap.Logger, opts ...Option) *Engine {
	e := &Engine{
		creator:  creator,
		log:      log,
		loc:      loc,
		now:      time.Now,
		sessions: make(map[int64]*session),
	}
	for _, opt := range opts {
		opt(e)
	}
	return e
}

// State returns the user's current dialog state.
func (e *Engine) State(userID int64) State {
	e.mu.Lock()
	defer e.mu.Unlock()
	if s, ok := e.sessions[userID]; ok {
		return s.state
	}
	return Idle
}

// Handle advances the user's dialog with one inbound text.
// Input errors (domain.ErrInvalidDate, ErrInvalidTime, ErrPastSchedule) leave the state unchanged
// and come back with the step to re-prompt. Any other error is terminal and resets the user to Idle.
func (e *Engine) Handle(ctx context.Context, userID int64, input string) (Result, error) {
	e.mu.Lock()
	defer e.mu.Unlock()

	input = strings.TrimSpace(input)
	s, ok := e.sessions[userID]
	if !ok {
		if input != CreateCommand {
			return Result{Step: StepIgnored}, nil
		}
		e.sessions[userID] = &session{state: AwaitingText}
		return Result{Step: StepAskText}, nil
	}

	switch s.state {
	case AwaitingText:
		if input == "" {
			return Result{Step: StepAskText}, nil
		}
		s.text = input
		s.state = AwaitingDate
		return Result{Step: StepAskDate}, nil

	case AwaitingDate:
		d, err := domain.ParseDate(input, e.loc)
		if err != nil {
			return Result{Step: StepAskDate}, err
		}
		s.date = d
		s.state = AwaitingTime
		return Result{Step: StepAskTime}, nil

	case AwaitingTime:
		return e.commit(ctx, userID, s, input)

	default:
		// Unknown state: drop it rather than wedge the user.
		delete(e.sessions, userID)
		return Result{Step: StepAborted}, fmt.Errorf("user %d in unexpected state %s", userID, s.state)
	}
}

// commit requires e.mu.
func (e *Engine) commit(ctx context.Context, userID int64, s *session, input string) (Result, error) {
	h, m, err := domain.ParseClock(input)
	if err != nil {
		return Result{Step: StepAskTime}, err
	}
	at := domain.Combine(s.date, h, m)
	if !at.After(e.now()) {
		return Result{Step: StepAskTime}, fmt.Errorf("%w: %s", domain.ErrPastSchedule, at.Format(domain.DisplayLayout))
	}

	n, err := e.creator.Create(ctx, userID, s.text, at)
	if errors.Is(err, domain.ErrInvalidSchedule) {
		// The clock moved past the due time between our check and the store's.
		return Result{Step: StepAskTime}, fmt.Errorf("%w: %v", domain.ErrPastSchedule, err)
	}
	delete(e.sessions, userID)
	if err != nil {
		e.log.Error("create reminder failed", zap.Int64("user_id", userID), zap.Error(err))
		return Result{Step: StepAborted}, fmt.Errorf("create reminder: %w", err)
	}
	return Result{Step: StepCreated, Notification: n}, nil
}
