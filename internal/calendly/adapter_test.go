package calendly

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func calendlyServer(t *testing.T, availability []map[string]any, discoveryCalls *int32) *httptest.Server {
	t.Helper()
	ts := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		switch r.URL.Path {
		case "/users/me":
			atomic.AddInt32(discoveryCalls, 1)
			_ = json.NewEncoder(w).Encode(map[string]any{"resource": map[string]any{"uri": "U1"}})
		case "/event_types":
			assert.Equal(t, "U1", r.URL.Query().Get("user"))
			_ = json.NewEncoder(w).Encode(map[string]any{"collection": []map[string]any{
				{"uri": "E0", "active": false},
				{"uri": "E1", "active": true, "name": "Discovery"},
			}})
		case "/event_type_available_times":
			assert.Equal(t, "E1", r.URL.Query().Get("event_type"))
			_ = json.NewEncoder(w).Encode(map[string]any{"collection": availability})
		default:
			http.NotFound(w, r)
		}
	}))
	t.Cleanup(ts.Close)
	return ts
}

func newTestAdapter(ts *httptest.Server, eventType string, loc *time.Location) *Adapter {
	c := NewClient("tok", time.Second, nil)
	c.baseURL = ts.URL
	a := NewAdapter(c, eventType, loc, nil)
	a.now = func() time.Time { return time.Date(2025, 3, 3, 9, 0, 0, 0, time.UTC) }
	return a
}

func TestAdapterDiscoversEventTypeAndSortsSlots(t *testing.T) {
	var discovery int32
	ts := calendlyServer(t, []map[string]any{
		{"status": "available", "start_time": "2025-03-05T13:00:00Z", "scheduling_url": "c"},
		{"status": "available", "start_time": "2025-03-04T09:30:00Z", "scheduling_url": "a"},
		{"status": "unavailable", "start_time": "2025-03-04T08:00:00Z"},
		{"status": "available", "start_time": "2025-03-04T15:00:00Z", "scheduling_url": "b"},
		{"status": "available", "start_time": "2025-03-06T10:00:00Z", "scheduling_url": "d"},
	}, &discovery)
	cet := time.FixedZone("CET", 3600)
	a := newTestAdapter(ts, "", cet)

	res := a.Slots(context.Background(), 3)
	require.True(t, res.Available())
	require.Len(t, res.Slots, 3)
	assert.Equal(t, []string{"a", "b", "c"}, []string{res.Slots[0].SchedulingURL, res.Slots[1].SchedulingURL, res.Slots[2].SchedulingURL})
	assert.Equal(t, 10, res.Slots[0].Start.Hour(), "converted to display timezone")
	assert.Equal(t, cet, res.Slots[0].Start.Location())

	// discovery result is reused
	_ = a.Slots(context.Background(), 3)
	assert.Equal(t, int32(1), atomic.LoadInt32(&discovery))
}

func TestAdapterUsesConfiguredEventType(t *testing.T) {
	var discovery int32
	ts := calendlyServer(t, []map[string]any{
		{"status": "available", "start_time": "2025-03-04T09:30:00Z"},
	}, &discovery)
	a := newTestAdapter(ts, "E1", nil)

	res := a.Slots(context.Background(), 3)
	require.True(t, res.Available())
	assert.Len(t, res.Slots, 1)
	assert.Zero(t, atomic.LoadInt32(&discovery))
}

func TestAdapterUnavailable(t *testing.T) {
	var discovery int32
	empty := calendlyServer(t, nil, &discovery)
	res := newTestAdapter(empty, "E1", nil).Slots(context.Background(), 3)
	assert.False(t, res.Available())
	assert.NotEmpty(t, res.Reason)

	failing := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusInternalServerError)
	}))
	defer failing.Close()
	res = newTestAdapter(failing, "", nil).Slots(context.Background(), 3)
	assert.False(t, res.Available())

	res = NewAdapter(NewClient("", 0, nil), "E1", nil, nil).Slots(context.Background(), 3)
	assert.Equal(t, "calendly not configured", res.Reason)

	res = NewAdapter(nil, "", nil, nil).Slots(context.Background(), 3)
	assert.False(t, res.Available())
}

func TestAdapterNoActiveEventTypes(t *testing.T) {
	ts := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		switch r.URL.Path {
		case "/users/me":
			_ = json.NewEncoder(w).Encode(map[string]any{"resource": map[string]any{"uri": "U1"}})
		default:
			_ = json.NewEncoder(w).Encode(map[string]any{"collection": []any{}})
		}
	}))
	defer ts.Close()

	res := newTestAdapter(ts, "", nil).Slots(context.Background(), 3)
	assert.False(t, res.Available())
	assert.Equal(t, errNoEventType.Error(), res.Reason)
}
