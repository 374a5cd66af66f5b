package calendly

import (
	"context"
	"sort"
	"strings"
	"sync"
	"time"

	"github.com/howtosavemytime-sys/chatbot-backend/internal/booking"
	"github.com/howtosavemytime-sys/chatbot-backend/pkg/logging"
)

const (
	providerName = "calendly"
	lookahead    = 7 * 24 * time.Hour
	// Calendly refuses a start_time in the past; leave a little headroom.
	startSkew = time.Minute
)

// Adapter exposes Calendly availability as a booking.Provider.
type Adapter struct {
	client *Client
	loc    *time.Location
	now    func() time.Time
	logger *logging.Logger

	mu           sync.Mutex
	eventTypeURI string
}

// NewAdapter wires a client to the slot chain. When eventTypeURI is empty the
// first active event type of the token owner is discovered and remembered.
func NewAdapter(client *Client, eventTypeURI string, loc *time.Location, logger *logging.Logger) *Adapter {
	if loc == nil {
		loc = time.UTC
	}
	if logger == nil {
		logger = logging.Default()
	}
	return &Adapter{
		client:       client,
		loc:          loc,
		now:          time.Now,
		logger:       logger,
		eventTypeURI: strings.TrimSpace(eventTypeURI),
	}
}

func (a *Adapter) Name() string { return providerName }

// Slots implements booking.Provider.
func (a *Adapter) Slots(ctx context.Context, limit int) booking.Result {
	if a.client == nil || strings.TrimSpace(a.client.token) == "" {
		return booking.Unavailable("calendly not configured")
	}
	eventType, err := a.resolveEventType(ctx)
	if err != nil {
		a.logger.Warn("calendly event type lookup failed", "error", err)
		return booking.Unavailable(err.Error())
	}

	start := a.now().Add(startSkew)
	times, err := a.client.AvailableTimes(ctx, eventType, start, start.Add(lookahead))
	if err != nil {
		a.logger.Warn("calendly availability lookup failed", "error", err, "event_type", eventType)
		return booking.Unavailable(err.Error())
	}

	open := make([]AvailableTime, 0, len(times))
	for _, t := range times {
		if t.StartTime.IsZero() || (t.Status != "" && t.Status != "available") {
			continue
		}
		open = append(open, t)
	}
	if len(open) == 0 {
		return booking.Unavailable("no availability in the next 7 days")
	}
	sort.SliceStable(open, func(i, j int) bool { return open[i].StartTime.Before(open[j].StartTime) })

	limit = booking.ClampLimit(limit)
	if len(open) > limit {
		open = open[:limit]
	}
	slots := make([]booking.Slot, 0, len(open))
	for _, t := range open {
		slots = append(slots, booking.Slot{Start: t.StartTime.In(a.loc), SchedulingURL: t.SchedulingURL})
	}
	return booking.OK(slots)
}

func (a *Adapter) resolveEventType(ctx context.Context) (string, error) {
	a.mu.Lock()
	uri := a.eventTypeURI
	a.mu.Unlock()
	if uri != "" {
		return uri, nil
	}

	user, err := a.client.CurrentUser(ctx)
	if err != nil {
		return "", err
	}
	types, err := a.client.ListEventTypes(ctx, user.URI)
	if err != nil {
		return "", err
	}
	for _, et := range types {
		if et.Active && et.URI != "" {
			a.mu.Lock()
			a.eventTypeURI = et.URI
			a.mu.Unlock()
			a.logger.Info("calendly event type discovered", "event_type", et.URI, "name", et.Name)
			return et.URI, nil
		}
	}
	return "", errNoEventType
}
