package router

import (
	"bytes"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"path/filepath"
	"testing"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/howtosavemytime-sys/chatbot-backend/internal/booking"
	"github.com/howtosavemytime-sys/chatbot-backend/internal/bookings"
	"github.com/howtosavemytime-sys/chatbot-backend/internal/consent"
	"github.com/howtosavemytime-sys/chatbot-backend/internal/conversation"
	"github.com/howtosavemytime-sys/chatbot-backend/internal/license"
	"github.com/howtosavemytime-sys/chatbot-backend/internal/notify"
	"github.com/howtosavemytime-sys/chatbot-backend/internal/observability/metrics"
	"github.com/howtosavemytime-sys/chatbot-backend/internal/session"
	"github.com/howtosavemytime-sys/chatbot-backend/pkg/logging"
)

func newTestRouter(t *testing.T, adminToken string) http.Handler {
	t.Helper()

	logger := logging.Default()
	reg := prometheus.NewRegistry()
	m := metrics.NewChatMetrics(reg)

	slots := booking.NewChain(booking.NewSyntheticProvider(), 0, logger)
	engine := conversation.NewEngine(conversation.StubLLMClient{}, slots, conversation.EngineConfig{Metrics: m}, logger)
	chat := conversation.NewHandler(engine, session.NewMemoryStore(), slots, license.NewChecker(false, nil), logger)

	consents := consent.NewFileLog(filepath.Join(t.TempDir(), "consents.ndjson"), logger)
	notifier := notify.NewService(notify.NewStubEmailSender(logger), "ops@example.com", logger)
	book := bookings.NewHandler(bookings.NewService(consents, notifier, "Europe/Berlin", m, logger), logger)

	return New(&Config{
		Logger:              logger,
		ConversationHandler: chat,
		BookingsHandler:     book,
		ConsentHandler:      consent.NewHandler(consents, logger),
		MetricsHandler:      promhttp.HandlerFor(reg, promhttp.HandlerOpts{}),
		CORSAllowedOrigins:  []string{"*"},
		AdminToken:          adminToken,
	})
}

func doJSON(t *testing.T, h http.Handler, method, path string, body any) *httptest.ResponseRecorder {
	t.Helper()
	var buf bytes.Buffer
	if body != nil {
		if err := json.NewEncoder(&buf).Encode(body); err != nil {
			t.Fatalf("encode: %v", err)
		}
	}
	req := httptest.NewRequest(method, path, &buf)
	rr := httptest.NewRecorder()
	h.ServeHTTP(rr, req)
	return rr
}

func TestRouterHealthEndpoint(t *testing.T) {
	router := newTestRouter(t, "")

	rr := doJSON(t, router, http.MethodGet, "/health", nil)
	if rr.Code != http.StatusOK {
		t.Fatalf("expected status %d, got %d", http.StatusOK, rr.Code)
	}

	var resp map[string]string
	if err := json.NewDecoder(rr.Body).Decode(&resp); err != nil {
		t.Fatalf("failed to decode health response: %v", err)
	}
	if resp["status"] != "ok" {
		t.Errorf("expected status 'ok', got %q", resp["status"])
	}
}

func TestRouterChatEndpoint(t *testing.T) {
	router := newTestRouter(t, "")

	rr := doJSON(t, router, http.MethodPost, "/chat", map[string]any{"message": "Hi"})
	if rr.Code != http.StatusOK {
		t.Fatalf("expected status %d, got %d", http.StatusOK, rr.Code)
	}
	var resp conversation.ChatResponse
	if err := json.NewDecoder(rr.Body).Decode(&resp); err != nil {
		t.Fatalf("decode: %v", err)
	}
	if resp.SessionID == "" || resp.Reply == "" {
		t.Fatalf("unexpected chat response %#v", resp)
	}
}

func TestRouterBookThenListConsents(t *testing.T) {
	router := newTestRouter(t, "s3cret")

	rr := doJSON(t, router, http.MethodPost, "/book", map[string]any{
		"startTime":        "2026-03-02T10:00:00+01:00",
		"userName":         "Ann",
		"userEmail":        "ann@x.com",
		"marketingConsent": true,
	})
	if rr.Code != http.StatusOK {
		t.Fatalf("expected status %d, got %d: %s", http.StatusOK, rr.Code, rr.Body.String())
	}

	rr = doJSON(t, router, http.MethodGet, "/consents", nil)
	if rr.Code != http.StatusForbidden {
		t.Fatalf("expected 403 without token, got %d", rr.Code)
	}

	rr = doJSON(t, router, http.MethodGet, "/consents?token=s3cret", nil)
	if rr.Code != http.StatusOK {
		t.Fatalf("expected 200 with token, got %d", rr.Code)
	}
	var records []consent.Record
	if err := json.NewDecoder(rr.Body).Decode(&records); err != nil {
		t.Fatalf("decode: %v", err)
	}
	if len(records) != 1 || records[0].Email != "ann@x.com" {
		t.Fatalf("unexpected consent records %#v", records)
	}
}

func TestRouterBookValidation(t *testing.T) {
	router := newTestRouter(t, "")

	rr := doJSON(t, router, http.MethodPost, "/book", map[string]any{"userName": "Ann"})
	if rr.Code != http.StatusBadRequest {
		t.Fatalf("expected 400, got %d", rr.Code)
	}
}

func TestRouterConsentsNotMountedWithoutToken(t *testing.T) {
	router := newTestRouter(t, "")

	rr := doJSON(t, router, http.MethodGet, "/consents?token=", nil)
	if rr.Code != http.StatusNotFound {
		t.Fatalf("expected 404 when admin token unset, got %d", rr.Code)
	}
}

func TestRouterSlotsAndMetrics(t *testing.T) {
	router := newTestRouter(t, "")

	rr := doJSON(t, router, http.MethodGet, "/slots", nil)
	if rr.Code != http.StatusOK {
		t.Fatalf("expected 200 from /slots, got %d", rr.Code)
	}
	var resp struct {
		Slots  []booking.Slot `json:"slots"`
		Source string         `json:"source"`
	}
	if err := json.NewDecoder(rr.Body).Decode(&resp); err != nil {
		t.Fatalf("decode: %v", err)
	}
	if len(resp.Slots) != booking.DefaultLimit || resp.Source != "synthetic" {
		t.Fatalf("expected 3 synthetic slots, got %d from %q", len(resp.Slots), resp.Source)
	}

	doJSON(t, router, http.MethodPost, "/chat", map[string]any{"message": "Hi"})
	rr = doJSON(t, router, http.MethodGet, "/metrics", nil)
	if rr.Code != http.StatusOK || !bytes.Contains(rr.Body.Bytes(), []byte("chatbot_chat_turns_total")) {
		t.Fatalf("expected chat metrics to be exported, got %d", rr.Code)
	}
}

func TestRouterCORSPreflight(t *testing.T) {
	router := newTestRouter(t, "")

	req := httptest.NewRequest(http.MethodOptions, "/chat", nil)
	req.Header.Set("Origin", "https://customer.example")
	req.Header.Set("Access-Control-Request-Method", http.MethodPost)
	rr := httptest.NewRecorder()
	router.ServeHTTP(rr, req)

	if rr.Code != http.StatusNoContent {
		t.Fatalf("expected 204 preflight, got %d", rr.Code)
	}
	if rr.Header().Get("Access-Control-Allow-Origin") != "https://customer.example" {
		t.Fatalf("expected origin echoed")
	}
}
