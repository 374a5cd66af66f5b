package calendly

import "time"

const defaultBaseURL = "https://api.calendly.com"

// User is the owner of the access token.
type User struct {
	URI           string `json:"uri"`
	Name          string `json:"name"`
	SchedulingURL string `json:"scheduling_url"`
	Timezone      string `json:"timezone"`
}

// EventType is a bookable offering such as "30 Minute Discovery Call".
type EventType struct {
	URI           string `json:"uri"`
	Name          string `json:"name"`
	Active        bool   `json:"active"`
	Duration      int    `json:"duration"`
	SchedulingURL string `json:"scheduling_url"`
}

// AvailableTime is one open start time for an event type.
type AvailableTime struct {
	Status            string    `json:"status"`
	InviteesRemaining int       `json:"invitees_remaining"`
	StartTime         time.Time `json:"start_time"`
	SchedulingURL     string    `json:"scheduling_url"`
}

type userResponse struct {
	Resource User `json:"resource"`
}

type eventTypesResponse struct {
	Collection []EventType `json:"collection"`
}

type availableTimesResponse struct {
	Collection []AvailableTime `json:"collection"`
}
