package booking

import (
	"context"
	"fmt"
	"math/rand/v2"
	"strings"
	"sync"
	"time"

	"github.com/rickar/cal/v2"
)

const (
	syntheticName = "synthetic"

	defaultStartHour = 10
	defaultEndHour   = 16

	// maxWalkDays stops the walk if the holiday list swallows every weekday.
	maxWalkDays = 3660
)

// SyntheticProvider fabricates plausible slots: one per business day starting
// tomorrow, at a random half hour inside [startHour, endHour).
type SyntheticProvider struct {
	loc       *time.Location
	startHour int
	endHour   int
	now       func() time.Time
	calendar  *cal.BusinessCalendar

	mu  sync.Mutex
	rnd *rand.Rand
}

// SyntheticOption configures a SyntheticProvider.
type SyntheticOption func(*SyntheticProvider)

// WithLocation sets the reference timezone. Defaults to UTC.
func WithLocation(loc *time.Location) SyntheticOption {
	return func(p *SyntheticProvider) {
		if loc != nil {
			p.loc = loc
		}
	}
}

// WithHours sets the business-hour range; end is exclusive.
func WithHours(start, end int) SyntheticOption {
	return func(p *SyntheticProvider) {
		if start < 0 || start > 23 || end <= start || end > 24 {
			return
		}
		p.startHour, p.endHour = start, end
	}
}

func WithClock(now func() time.Time) SyntheticOption {
	return func(p *SyntheticProvider) {
		if now != nil {
			p.now = now
		}
	}
}

// WithRand injects the random source used for hour and minute selection.
func WithRand(r *rand.Rand) SyntheticOption {
	return func(p *SyntheticProvider) {
		if r != nil {
			p.rnd = r
		}
	}
}

// WithHolidays marks specific dates as non-working.
func WithHolidays(dates ...time.Time) SyntheticOption {
	return func(p *SyntheticProvider) {
		for _, d := range dates {
			p.calendar.AddHoliday(&cal.Holiday{
				Name:      d.Format(time.DateOnly),
				Type:      cal.ObservancePublic,
				Month:     d.Month(),
				Day:       d.Day(),
				StartYear: d.Year(),
				EndYear:   d.Year(),
				Func:      cal.CalcDayOfMonth,
			})
		}
	}
}

func NewSyntheticProvider(opts ...SyntheticOption) *SyntheticProvider {
	p := &SyntheticProvider{
		loc:       time.UTC,
		startHour: defaultStartHour,
		endHour:   defaultEndHour,
		now:       time.Now,
		calendar:  cal.NewBusinessCalendar(),
		rnd:       rand.New(rand.NewPCG(rand.Uint64(), rand.Uint64())),
	}
	for _, opt := range opts {
		opt(p)
	}
	return p
}

func (p *SyntheticProvider) Name() string { return syntheticName }

// Slots always succeeds with exactly limit slots (after clamping).
func (p *SyntheticProvider) Slots(_ context.Context, limit int) Result {
	return OK(p.Generate(ClampLimit(limit)))
}

// Generate returns n slots on consecutive business days after today.
func (p *SyntheticProvider) Generate(n int) []Slot {
	today := p.now().In(p.loc)
	day := time.Date(today.Year(), today.Month(), today.Day()+1, 0, 0, 0, 0, p.loc)

	p.mu.Lock()
	defer p.mu.Unlock()

	slots := make([]Slot, 0, n)
	for i := 0; len(slots) < n && i < maxWalkDays; i++ {
		if p.calendar.IsWorkday(day) {
			hour := p.startHour + p.rnd.IntN(p.endHour-p.startHour)
			minute := p.rnd.IntN(2) * 30
			slots = append(slots, Slot{
				Start: time.Date(day.Year(), day.Month(), day.Day(), hour, minute, 0, 0, p.loc),
			})
		}
		day = time.Date(day.Year(), day.Month(), day.Day()+1, 0, 0, 0, 0, p.loc)
	}
	return slots
}

// ParseHolidays parses YYYY-MM-DD dates in loc.
func ParseHolidays(values []string, loc *time.Location) ([]time.Time, error) {
	if loc == nil {
		loc = time.UTC
	}
	out := make([]time.Time, 0, len(values))
	for _, v := range values {
		v = strings.TrimSpace(v)
		if v == "" {
			continue
		}
		d, err := time.ParseInLocation(time.DateOnly, v, loc)
		if err != nil {
			return nil, fmt.Errorf("booking: holiday %q: %w", v, err)
		}
		out = append(out, d)
	}
	return out, nil
}
