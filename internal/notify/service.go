package notify

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/howtosavemytime-sys/chatbot-backend/pkg/logging"
)

const bookingSubject = "New Discovery Call Booking"

// ErrNoRecipient is returned when no operator address is configured.
var ErrNoRecipient = errors.New("notify: operator email not configured")

// BookingRequest is what the operator needs to confirm a requested call.
type BookingRequest struct {
	Name             string
	Email            string
	MarketingConsent bool
	RequestedTime    string
	// Timezone labels RequestedTime in the email, e.g. "CET".
	Timezone string
}

// Service sends operator notifications.
type Service struct {
	email      EmailSender
	adminEmail string
	logger     *logging.Logger
}

func NewService(email EmailSender, adminEmail string, logger *logging.Logger) *Service {
	if logger == nil {
		logger = logging.Default()
	}
	if email == nil {
		email = NewStubEmailSender(logger)
	}
	return &Service{email: email, adminEmail: strings.TrimSpace(adminEmail), logger: logger}
}

// NotifyBookingRequest emails the operator about a requested discovery call.
func (s *Service) NotifyBookingRequest(ctx context.Context, req BookingRequest) error {
	if s.adminEmail == "" {
		return ErrNoRecipient
	}
	msg := EmailMessage{
		To:      s.adminEmail,
		Subject: bookingSubject,
		Body:    BookingRequestBody(req),
	}
	if err := s.email.Send(ctx, msg); err != nil {
		return fmt.Errorf("notify: booking request: %w", err)
	}
	return nil
}

// BookingRequestBody renders the plain-text operator email.
func BookingRequestBody(req BookingRequest) string {
	consent := "Declined"
	if req.MarketingConsent {
		consent = "Agreed"
	}
	requested := strings.TrimSpace(req.RequestedTime)
	if tz := strings.TrimSpace(req.Timezone); tz != "" {
		requested += " " + tz
	}

	var b strings.Builder
	b.WriteString("New Discovery Call Booking Request:\n\n")
	fmt.Fprintf(&b, "Name: %s\n", req.Name)
	fmt.Fprintf(&b, "Email: %s\n", req.Email)
	fmt.Fprintf(&b, "Marketing Consent: %s\n", consent)
	fmt.Fprintf(&b, "Requested Time: %s\n", requested)
	return b.String()
}
