package conversation

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/gorilla/websocket"

	"github.com/howtosavemytime-sys/chatbot-backend/internal/booking"
	httpmiddleware "github.com/howtosavemytime-sys/chatbot-backend/internal/http/middleware"
	"github.com/howtosavemytime-sys/chatbot-backend/internal/license"
	"github.com/howtosavemytime-sys/chatbot-backend/internal/session"
	"github.com/howtosavemytime-sys/chatbot-backend/internal/tenant"
	"github.com/howtosavemytime-sys/chatbot-backend/pkg/logging"
)

const (
	maxChatBodyBytes = 8 << 20
	maxAttachments   = 4
	socketWriteWait  = 10 * time.Second
)

var errMessageRequired = errors.New("message is required")

// Attachment is an inline image sent by the widget as a data URL.
type Attachment struct {
	Name    string `json:"name,omitempty"`
	DataURL string `json:"dataUrl"`
}

// ChatRequest is the POST /chat body. Tenant fields sit at the top level.
type ChatRequest struct {
	tenant.Profile

	Message          string       `json:"message"`
	SessionID        string       `json:"sessionId,omitempty"`
	UserName         string       `json:"userName,omitempty"`
	UserEmail        string       `json:"userEmail,omitempty"`
	UserPhone        string       `json:"userPhone,omitempty"`
	MarketingConsent *bool        `json:"marketingConsent,omitempty"`
	LicenseKey       string       `json:"licenseKey,omitempty"`
	Attachments      []Attachment `json:"attachments,omitempty"`
}

type ChatResponse struct {
	Reply        string         `json:"reply"`
	SessionID    string         `json:"sessionId"`
	BookingSlots []booking.Slot `json:"bookingSlots,omitempty"`
}

type slotsResponse struct {
	Slots  []booking.Slot `json:"slots"`
	Source string         `json:"source"`
}

type errorResponse struct {
	Error string `json:"error"`
}

// Handler serves the chat endpoints.
type Handler struct {
	engine   *Engine
	store    session.Store
	slots    SlotSource
	licenses *license.Checker
	logger   *logging.Logger
	upgrader websocket.Upgrader
}

func NewHandler(engine *Engine, store session.Store, slots SlotSource, licenses *license.Checker, logger *logging.Logger) *Handler {
	if logger == nil {
		logger = logging.Default()
	}
	return &Handler{
		engine:   engine,
		store:    store,
		slots:    slots,
		licenses: licenses,
		logger:   logger,
		// Widgets are embedded on arbitrary customer sites, so any origin may
		// open a socket.
		upgrader: websocket.Upgrader{
			HandshakeTimeout: socketWriteWait,
			ReadBufferSize:   4096,
			WriteBufferSize:  4096,
			CheckOrigin:      func(*http.Request) bool { return true },
		},
	}
}

// Chat handles POST /chat.
func (h *Handler) Chat(w http.ResponseWriter, r *http.Request) {
	var req ChatRequest
	if err := json.NewDecoder(http.MaxBytesReader(w, r.Body, maxChatBodyBytes)).Decode(&req); err != nil {
		h.writeJSON(w, http.StatusBadRequest, errorResponse{Error: "Invalid request body"})
		return
	}

	resp, status, err := h.respond(r.Context(), req, license.KeyFromRequest(r, req.LicenseKey))
	if err != nil {
		h.writeJSON(w, status, errorResponse{Error: err.Error()})
		return
	}
	h.writeJSON(w, http.StatusOK, resp)
}

// ChatSocket handles GET /chat/ws. Each inbound frame is a ChatRequest and
// each reply a ChatResponse; the session id sticks to the connection once
// assigned.
func (h *Handler) ChatSocket(w http.ResponseWriter, r *http.Request) {
	conn, err := h.upgrader.Upgrade(w, r, nil)
	if err != nil {
		h.logger.Warn("chat socket upgrade failed", "error", err)
		return
	}
	defer conn.Close()
	conn.SetReadLimit(maxChatBodyBytes)
	// The server's read timeout must not apply to a long-lived socket.
	_ = conn.SetReadDeadline(time.Time{})

	sessionID := strings.TrimSpace(r.URL.Query().Get("sessionId"))
	h.logger.Debug("chat socket opened", "session_id", sessionID)

	for {
		var req ChatRequest
		if err := conn.ReadJSON(&req); err != nil {
			if websocket.IsUnexpectedCloseError(err, websocket.CloseNormalClosure, websocket.CloseGoingAway) {
				h.logger.Warn("chat socket read failed", "session_id", sessionID, "error", err)
			}
			return
		}
		if req.SessionID == "" {
			req.SessionID = sessionID
		}

		if !httpmiddleware.RateLimitAllow(r.Context()) {
			h.logger.Warn("chat socket frame rate limited", "session_id", sessionID)
			if !h.writeFrame(conn, errorResponse{Error: "rate limit exceeded"}, sessionID) {
				return
			}
			continue
		}

		var payload any
		resp, status, err := h.respond(r.Context(), req, license.KeyFromRequest(r, req.LicenseKey))
		switch {
		case err != nil:
			payload = errorResponse{Error: err.Error()}
			if status == http.StatusPaymentRequired {
				_ = conn.SetWriteDeadline(time.Now().Add(socketWriteWait))
				_ = conn.WriteJSON(payload)
				_ = conn.WriteMessage(websocket.CloseMessage,
					websocket.FormatCloseMessage(websocket.ClosePolicyViolation, "license"))
				return
			}
		default:
			sessionID = resp.SessionID
			payload = resp
		}

		if !h.writeFrame(conn, payload, sessionID) {
			return
		}
	}
}

func (h *Handler) writeFrame(conn *websocket.Conn, payload any, sessionID string) bool {
	_ = conn.SetWriteDeadline(time.Now().Add(socketWriteWait))
	if err := conn.WriteJSON(payload); err != nil {
		h.logger.Warn("chat socket write failed", "session_id", sessionID, "error", err)
		return false
	}
	return true
}

// Slots handles GET /slots?limit=N for widgets that render a picker.
func (h *Handler) Slots(w http.ResponseWriter, r *http.Request) {
	limit := booking.DefaultLimit
	if raw := r.URL.Query().Get("limit"); raw != "" {
		n, err := strconv.Atoi(raw)
		if err != nil || n <= 0 {
			h.writeJSON(w, http.StatusBadRequest, errorResponse{Error: "limit must be a positive integer"})
			return
		}
		limit = n
	}
	slots, source := h.slots.Lookup(r.Context(), booking.ClampLimit(limit))
	h.writeJSON(w, http.StatusOK, slotsResponse{Slots: slots, Source: source})
}

// respond runs one turn and returns either a response or an HTTP status and
// a client-safe error.
func (h *Handler) respond(ctx context.Context, req ChatRequest, licenseKey string) (*ChatResponse, int, error) {
	message := strings.TrimSpace(req.Message)
	if message == "" {
		return nil, http.StatusBadRequest, errMessageRequired
	}
	if err := h.licenses.Check(licenseKey); err != nil {
		h.logger.Warn("chat rejected by license check", "error", err)
		return nil, http.StatusPaymentRequired, err
	}

	handle, err := h.store.Resolve(ctx, strings.TrimSpace(req.SessionID))
	if err != nil {
		h.logger.Error("session store unavailable", "capability", "session_store", "error", err)
		return nil, http.StatusServiceUnavailable, errors.New("session store unavailable")
	}
	if handle.Created {
		h.logger.Info("session started", "session_id", handle.Session.ID)
	}

	result := h.engine.HandleTurn(ctx, handle.Session, Turn{
		Message: message,
		Hints: session.Profile{
			Name:             strings.TrimSpace(req.UserName),
			Email:            strings.TrimSpace(req.UserEmail),
			Phone:            strings.TrimSpace(req.UserPhone),
			MarketingConsent: req.MarketingConsent,
		},
		Tenant: req.Profile.Sanitized(),
		Images: h.images(handle.Session.ID, req.Attachments),
	})

	// Release before responding so the next request for this session sees
	// the stored turn.
	if err := handle.Release(ctx); err != nil {
		h.logger.Error("failed to persist session", "session_id", handle.Session.ID, "error", err)
	}

	return &ChatResponse{
		Reply:        result.Reply,
		SessionID:    handle.Session.ID,
		BookingSlots: result.Slots,
	}, http.StatusOK, nil
}

func (h *Handler) images(sessionID string, attachments []Attachment) []ImageAttachment {
	if len(attachments) == 0 {
		return nil
	}
	out := make([]ImageAttachment, 0, len(attachments))
	for _, a := range attachments {
		if len(out) == maxAttachments {
			h.logger.Warn("dropping extra attachments", "session_id", sessionID, "received", len(attachments))
			break
		}
		img, err := ParseDataURL(a.Name, a.DataURL)
		if err != nil {
			h.logger.Warn("ignoring attachment", "session_id", sessionID, "name", a.Name, "error", err)
			continue
		}
		out = append(out, img)
	}
	return out
}

func (h *Handler) writeJSON(w http.ResponseWriter, status int, payload any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(payload); err != nil {
		h.logger.Error("failed to write JSON response", "error", err)
	}
}
