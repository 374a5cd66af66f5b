package bootstrap

import (
	"fmt"
	"strings"
	"time"

	"github.com/howtosavemytime-sys/chatbot-backend/internal/booking"
	"github.com/howtosavemytime-sys/chatbot-backend/internal/calendly"
	appconfig "github.com/howtosavemytime-sys/chatbot-backend/internal/config"
	"github.com/howtosavemytime-sys/chatbot-backend/pkg/logging"
)

// BuildSlotChain ranks Calendly (when CALENDLY_TOKEN is set) ahead of the
// synthetic business-hours generator.
func BuildSlotChain(cfg *appconfig.Config, logger *logging.Logger) (*booking.Chain, error) {
	if cfg == nil {
		return nil, fmt.Errorf("bootstrap: config is required")
	}
	if logger == nil {
		logger = logging.Default()
	}

	loc, err := time.LoadLocation(cfg.BookingTimezone)
	if err != nil {
		return nil, fmt.Errorf("bootstrap: BOOKING_TIMEZONE %q: %w", cfg.BookingTimezone, err)
	}
	holidays, err := booking.ParseHolidays(cfg.BookingHolidays, loc)
	if err != nil {
		return nil, fmt.Errorf("bootstrap: %w", err)
	}
	synthetic := booking.NewSyntheticProvider(
		booking.WithLocation(loc),
		booking.WithHours(cfg.BookingStartHour, cfg.BookingEndHour),
		booking.WithHolidays(holidays...),
	)

	var providers []booking.Provider
	if strings.TrimSpace(cfg.CalendlyToken) != "" {
		client := calendly.NewClient(cfg.CalendlyToken, cfg.CalendlyTimeout, logger)
		providers = append(providers, calendly.NewAdapter(client, cfg.CalendlyEventTypeURI, loc, logger))
		logger.Info("calendly slot provider enabled", "event_type_configured", cfg.CalendlyEventTypeURI != "")
	} else {
		logger.Info("no CALENDLY_TOKEN; offering synthetic slots only", "timezone", loc.String())
	}

	return booking.NewChain(synthetic, cfg.CalendlyTimeout, logger, providers...), nil
}
