package session

import (
	"context"
	"errors"
	"sync"
	"time"

	"github.com/google/uuid"
)

// DefaultTimeout is the idle period after which a session is replaced.
const DefaultTimeout = time.Hour

// ErrReleased is returned when a handle is released twice.
var ErrReleased = errors.New("session: handle already released")

// Store resolves a session id into an exclusively held session.
// Absent, unknown, and expired ids yield a freshly allocated session.
type Store interface {
	Resolve(ctx context.Context, id string) (*Handle, error)
}

// Handle is exclusive access to one session for the duration of a request.
// Callers mutate Session in place and must call Release exactly once.
type Handle struct {
	Session *Session
	// Created is true when the session was allocated by this resolve.
	Created bool

	once    sync.Once
	release func(ctx context.Context, s *Session) error
}

// Release persists the session and gives up exclusive access.
func (h *Handle) Release(ctx context.Context) error {
	err := ErrReleased
	h.once.Do(func() {
		err = nil
		if h.release != nil {
			err = h.release(ctx, h.Session)
		}
	})
	return err
}

// Option configures a store.
type Option func(*options)

type options struct {
	timeout time.Duration
	now     func() time.Time
	newID   func() string
}

func defaultOptions() options {
	return options{
		timeout: DefaultTimeout,
		now:     time.Now,
		newID:   uuid.NewString,
	}
}

// WithTimeout sets the idle timeout. Non-positive values are ignored.
func WithTimeout(d time.Duration) Option {
	return func(o *options) {
		if d > 0 {
			o.timeout = d
		}
	}
}

// WithClock replaces time.Now.
func WithClock(now func() time.Time) Option {
	return func(o *options) {
		if now != nil {
			o.now = now
		}
	}
}

// WithIDGenerator replaces the uuid based id generator.
func WithIDGenerator(gen func() string) Option {
	return func(o *options) {
		if gen != nil {
			o.newID = gen
		}
	}
}
