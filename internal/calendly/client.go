// Package calendly is a read-only client for Calendly availability.
package calendly

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/howtosavemytime-sys/chatbot-backend/pkg/logging"
)

const defaultTimeout = 10 * time.Second

// Client calls the Calendly v2 REST API with a personal access token.
type Client struct {
	baseURL    string
	httpClient *http.Client
	token      string
	logger     *logging.Logger
}

// NewClient creates a Calendly client. A non-positive timeout uses the default.
func NewClient(token string, timeout time.Duration, logger *logging.Logger) *Client {
	if logger == nil {
		logger = logging.Default()
	}
	if timeout <= 0 {
		timeout = defaultTimeout
	}
	return &Client{
		baseURL:    defaultBaseURL,
		httpClient: &http.Client{Timeout: timeout},
		token:      token,
		logger:     logger,
	}
}

// CurrentUser returns the user the token belongs to.
func (c *Client) CurrentUser(ctx context.Context) (*User, error) {
	var out userResponse
	if err := c.get(ctx, "/users/me", nil, &out); err != nil {
		return nil, err
	}
	if out.Resource.URI == "" {
		return nil, fmt.Errorf("calendly: users/me returned no uri")
	}
	return &out.Resource, nil
}

// ListEventTypes returns the active event types owned by userURI.
func (c *Client) ListEventTypes(ctx context.Context, userURI string) ([]EventType, error) {
	q := url.Values{}
	q.Set("user", userURI)
	q.Set("active", "true")
	var out eventTypesResponse
	if err := c.get(ctx, "/event_types", q, &out); err != nil {
		return nil, err
	}
	return out.Collection, nil
}

// AvailableTimes lists open start times for an event type between start and end.
// Calendly rejects windows longer than seven days.
func (c *Client) AvailableTimes(ctx context.Context, eventTypeURI string, start, end time.Time) ([]AvailableTime, error) {
	q := url.Values{}
	q.Set("event_type", eventTypeURI)
	q.Set("start_time", start.UTC().Format(time.RFC3339))
	q.Set("end_time", end.UTC().Format(time.RFC3339))
	var out availableTimesResponse
	if err := c.get(ctx, "/event_type_available_times", q, &out); err != nil {
		return nil, err
	}
	return out.Collection, nil
}

func (c *Client) get(ctx context.Context, path string, query url.Values, out interface{}) error {
	if strings.TrimSpace(c.token) == "" {
		return fmt.Errorf("calendly: missing access token")
	}

	endpoint := strings.TrimRight(c.baseURL, "/") + path
	if len(query) > 0 {
		endpoint += "?" + query.Encode()
	}
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, endpoint, nil)
	if err != nil {
		return fmt.Errorf("calendly: create request: %w", err)
	}
	req.Header.Set("Accept", "application/json")
	req.Header.Set("Authorization", "Bearer "+c.token)

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return fmt.Errorf("calendly: http request: %w", err)
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return fmt.Errorf("calendly: read response: %w", err)
	}
	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		msg := string(body)
		if len(msg) > 300 {
			msg = msg[:300]
		}
		return fmt.Errorf("calendly: %s status %d: %s", path, resp.StatusCode, msg)
	}
	if err := json.Unmarshal(body, out); err != nil {
		return fmt.Errorf("calendly: unmarshal %s: %w", path, err)
	}
	return nil
}
