// Package consent keeps the append-only log of marketing-consent decisions
// captured at booking time.
package consent

import (
	"context"
	"time"
)

// Record is one consent decision. Records are never updated or deleted.
type Record struct {
	Timestamp        time.Time `json:"ts"`
	Name             string    `json:"name"`
	Email            string    `json:"email"`
	MarketingConsent bool      `json:"marketingConsent"`
	RequestedTime    string    `json:"requestedTime"`
}

// Log is durable storage for consent records.
type Log interface {
	Append(ctx context.Context, rec Record) error
	// List returns every record, most recent first.
	List(ctx context.Context) ([]Record, error)
}
