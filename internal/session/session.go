// Package session holds per-visitor chat state and the stores that resolve it.
package session

import (
	"strings"
	"time"

	"github.com/howtosavemytime-sys/chatbot-backend/internal/tenant"
)

const (
	RoleUser      = "user"
	RoleAssistant = "assistant"
)

// OfferTurnThreshold is the number of user turns after which a booking may be offered.
const OfferTurnThreshold = 3

// OfferState is the booking-offer position of a session.
type OfferState int

const (
	OfferNotEligible OfferState = iota
	OfferEligible
	OfferOffered
)

func (s OfferState) String() string {
	switch s {
	case OfferEligible:
		return "eligible"
	case OfferOffered:
		return "offered"
	default:
		return "not_eligible"
	}
}

// Message is one entry of the conversation history.
type Message struct {
	Role    string `json:"role"`
	Content string `json:"content"`
}

// Profile is what the visitor has told us about themselves.
type Profile struct {
	Name             string `json:"name,omitempty"`
	Email            string `json:"email,omitempty"`
	Phone            string `json:"phone,omitempty"`
	MarketingConsent *bool  `json:"marketingConsent,omitempty"`
}

// Merge applies hint: non-empty strings overwrite, a non-nil consent overwrites.
func (p *Profile) Merge(hint Profile) {
	if v := strings.TrimSpace(hint.Name); v != "" {
		p.Name = v
	}
	if v := strings.TrimSpace(hint.Email); v != "" {
		p.Email = v
	}
	if v := strings.TrimSpace(hint.Phone); v != "" {
		p.Phone = v
	}
	if hint.MarketingConsent != nil {
		consent := *hint.MarketingConsent
		p.MarketingConsent = &consent
	}
}

// Identified reports whether both name and email are known.
func (p Profile) Identified() bool {
	return p.Name != "" && p.Email != ""
}

// Session is the server-held state of one chat widget instance.
type Session struct {
	ID             string         `json:"id"`
	CreatedAt      time.Time      `json:"createdAt"`
	LastActiveAt   time.Time      `json:"lastActiveAt"`
	Messages       []Message      `json:"messages"`
	Profile        Profile        `json:"profile"`
	TurnCount      int            `json:"turnCount"`
	BookingOffered bool           `json:"bookingOffered"`
	Tenant         tenant.Profile `json:"tenant"`
}

func newSession(id string, now time.Time) *Session {
	return &Session{ID: id, CreatedAt: now, LastActiveAt: now}
}

// AppendMessage adds a message and keeps only the most recent limit entries.
// A non-positive limit keeps everything.
func (s *Session) AppendMessage(role, content string, limit int) {
	s.Messages = append(s.Messages, Message{Role: role, Content: content})
	if limit > 0 && len(s.Messages) > limit {
		trimmed := make([]Message, limit)
		copy(trimmed, s.Messages[len(s.Messages)-limit:])
		s.Messages = trimmed
	}
}

// OfferState derives the booking-offer state from turn count and profile.
func (s *Session) OfferState() OfferState {
	if s.BookingOffered {
		return OfferOffered
	}
	if s.TurnCount >= OfferTurnThreshold && s.Profile.Identified() {
		return OfferEligible
	}
	return OfferNotEligible
}

func (s *Session) expired(now time.Time, timeout time.Duration) bool {
	return timeout > 0 && now.Sub(s.LastActiveAt) > timeout
}
