package booking

import (
	"context"
	"time"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"

	"github.com/howtosavemytime-sys/chatbot-backend/pkg/logging"
)

var tracer = otel.Tracer("chatbot-backend/internal/booking")

const defaultProviderTimeout = 10 * time.Second

// Chain asks each ranked provider in turn and falls back to the synthetic
// generator when none of them produce slots.
type Chain struct {
	providers []Provider
	fallback  *SyntheticProvider
	timeout   time.Duration
	logger    *logging.Logger
}

// NewChain builds a chain. The synthetic fallback is always consulted last.
func NewChain(fallback *SyntheticProvider, timeout time.Duration, logger *logging.Logger, providers ...Provider) *Chain {
	if fallback == nil {
		fallback = NewSyntheticProvider()
	}
	if timeout <= 0 {
		timeout = defaultProviderTimeout
	}
	if logger == nil {
		logger = logging.Default()
	}
	ranked := make([]Provider, 0, len(providers))
	for _, p := range providers {
		if p != nil {
			ranked = append(ranked, p)
		}
	}
	return &Chain{providers: ranked, fallback: fallback, timeout: timeout, logger: logger}
}

// Lookup returns up to limit slots and the name of the provider that
// answered. It never fails.
func (c *Chain) Lookup(ctx context.Context, limit int) ([]Slot, string) {
	limit = ClampLimit(limit)
	ctx, span := tracer.Start(ctx, "booking.slots")
	defer span.End()

	for _, p := range c.providers {
		res := c.try(ctx, p, limit)
		if res.Available() {
			slots := res.Slots
			if len(slots) > limit {
				slots = slots[:limit]
			}
			span.SetAttributes(attribute.String("booking.source", p.Name()), attribute.Int("booking.slots", len(slots)))
			return slots, p.Name()
		}
		c.logger.Warn("slot provider unavailable, trying next",
			"capability", "scheduling",
			"provider", p.Name(),
			"reason", res.Reason,
		)
	}

	slots := c.fallback.Slots(ctx, limit).Slots
	span.SetAttributes(attribute.String("booking.source", c.fallback.Name()), attribute.Int("booking.slots", len(slots)))
	return slots, c.fallback.Name()
}

func (c *Chain) try(ctx context.Context, p Provider, limit int) Result {
	ctx, cancel := context.WithTimeout(ctx, c.timeout)
	defer cancel()
	return p.Slots(ctx, limit)
}
