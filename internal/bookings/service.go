// Package bookings takes discovery-call requests from the widget, records the
// visitor's consent decision, and tells the operator.
package bookings

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"

	"github.com/howtosavemytime-sys/chatbot-backend/internal/consent"
	"github.com/howtosavemytime-sys/chatbot-backend/internal/notify"
	"github.com/howtosavemytime-sys/chatbot-backend/internal/observability/metrics"
	"github.com/howtosavemytime-sys/chatbot-backend/pkg/logging"
)

var bookingsTracer = otel.Tracer("chatbot-backend/internal/bookings")

const defaultNotifyTimeout = 15 * time.Second

// Notifier delivers the operator notification for a booking request.
type Notifier interface {
	NotifyBookingRequest(ctx context.Context, req notify.BookingRequest) error
}

// Request is a visitor's request for a discovery call.
type Request struct {
	StartTime        string `json:"startTime"`
	Name             string `json:"userName"`
	Email            string `json:"userEmail"`
	MarketingConsent *bool  `json:"marketingConsent,omitempty"`
}

// ValidationError lists the required fields a request is missing.
type ValidationError struct {
	Fields []string
}

func (e *ValidationError) Error() string {
	return "bookings: missing " + strings.Join(e.Fields, ", ")
}

// Validate reports missing required fields as a *ValidationError.
func (r Request) Validate() error {
	var missing []string
	if strings.TrimSpace(r.Name) == "" {
		missing = append(missing, "userName")
	}
	if strings.TrimSpace(r.Email) == "" {
		missing = append(missing, "userEmail")
	}
	if strings.TrimSpace(r.StartTime) == "" {
		missing = append(missing, "startTime")
	}
	if len(missing) > 0 {
		return &ValidationError{Fields: missing}
	}
	return nil
}

// Confirmation is returned to the visitor once a request is accepted.
type Confirmation struct {
	Message string
	// Notified is false when the operator email could not be sent.
	Notified bool
	// Recorded is false when the consent record could not be stored.
	Recorded bool
}

// Service accepts booking requests. Consent logging and operator mail are
// best effort: their failures are logged and never change the visitor's answer.
type Service struct {
	consents      consent.Log
	notifier      Notifier
	timezone      string
	notifyTimeout time.Duration
	now           func() time.Time
	metrics       *metrics.ChatMetrics
	logger        *logging.Logger
}

// NewService builds the intake service. timezone labels requested times in
// operator mail.
func NewService(consents consent.Log, notifier Notifier, timezone string, m *metrics.ChatMetrics, logger *logging.Logger) *Service {
	if logger == nil {
		logger = logging.Default()
	}
	return &Service{
		consents:      consents,
		notifier:      notifier,
		timezone:      timezone,
		notifyTimeout: defaultNotifyTimeout,
		now:           time.Now,
		metrics:       m,
		logger:        logger,
	}
}

// Submit validates req, records consent, and notifies the operator.
func (s *Service) Submit(ctx context.Context, req Request) (*Confirmation, error) {
	ctx, span := bookingsTracer.Start(ctx, "bookings.submit")
	defer span.End()

	if err := req.Validate(); err != nil {
		span.SetStatus(codes.Error, "validation")
		s.metrics.ObserveBookingSubmission("invalid")
		return nil, err
	}

	name := strings.TrimSpace(req.Name)
	email := strings.TrimSpace(req.Email)
	startTime := strings.TrimSpace(req.StartTime)
	agreed := req.MarketingConsent != nil && *req.MarketingConsent
	span.SetAttributes(attribute.Bool("booking.marketing_consent", agreed))

	conf := &Confirmation{
		Message: fmt.Sprintf("Thanks %s! Someone from our team will contact you shortly to confirm the appointment.", name),
	}

	if s.consents != nil {
		err := s.consents.Append(ctx, consent.Record{
			Timestamp:        s.now().UTC(),
			Name:             name,
			Email:            email,
			MarketingConsent: agreed,
			RequestedTime:    startTime,
		})
		if err != nil {
			span.RecordError(err)
			s.logger.Error("consent log append failed", "capability", "consent_log", "error", err)
		} else {
			conf.Recorded = true
		}
	}

	if s.notifier != nil {
		notifyCtx, cancel := context.WithTimeout(ctx, s.notifyTimeout)
		err := s.notifier.NotifyBookingRequest(notifyCtx, notify.BookingRequest{
			Name:             name,
			Email:            email,
			MarketingConsent: agreed,
			RequestedTime:    startTime,
			Timezone:         s.timezone,
		})
		cancel()
		switch {
		case err == nil:
			conf.Notified = true
		case errors.Is(err, notify.ErrNoRecipient):
			s.logger.Warn("booking notification skipped", "capability", "mail", "error", err)
		default:
			span.RecordError(err)
			s.metrics.ObserveUpstreamError("mail")
			s.logger.Error("booking notification failed", "capability", "mail", "error", err)
		}
	}

	status := "accepted"
	if !conf.Notified {
		status = "accepted_unnotified"
	}
	s.metrics.ObserveBookingSubmission(status)
	s.logger.Info("booking request accepted", "recorded", conf.Recorded, "notified", conf.Notified)
	return conf, nil
}
