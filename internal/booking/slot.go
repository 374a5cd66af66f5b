// Package booking proposes appointment start times. Real scheduling
// providers are tried in rank order; a synthetic generator always answers last.
package booking

import (
	"context"
	"time"
)

const (
	// DefaultLimit is how many slots a booking offer carries.
	DefaultLimit = 3
	// MaxLimit bounds slot lists exposed for UI selection.
	MaxLimit = 12
)

// Slot is a single proposed appointment start.
type Slot struct {
	Start         time.Time `json:"start"`
	SchedulingURL string    `json:"schedulingUrl,omitempty"`
}

// Result is the tagged outcome of asking one provider for slots.
type Result struct {
	Slots  []Slot
	Reason string
	ok     bool
}

// OK wraps a successful lookup.
func OK(slots []Slot) Result {
	return Result{Slots: slots, ok: true}
}

// Unavailable records why a provider produced nothing.
func Unavailable(reason string) Result {
	return Result{Reason: reason}
}

// Available reports whether the provider produced at least one slot.
func (r Result) Available() bool {
	return r.ok && len(r.Slots) > 0
}

// Provider is a source of appointment slots. Implementations never return
// errors; failures are reported as Unavailable.
type Provider interface {
	Name() string
	Slots(ctx context.Context, limit int) Result
}

// ClampLimit maps a requested slot count onto [1, MaxLimit], defaulting to DefaultLimit.
func ClampLimit(limit int) int {
	switch {
	case limit <= 0:
		return DefaultLimit
	case limit > MaxLimit:
		return MaxLimit
	default:
		return limit
	}
}
