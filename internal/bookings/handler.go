package bookings

import (
	"encoding/json"
	"errors"
	"net/http"

	"github.com/howtosavemytime-sys/chatbot-backend/pkg/logging"
)

const maxBodyBytes = 64 << 10

type bookResponse struct {
	Success bool   `json:"success"`
	Message string `json:"message"`
}

// Handler serves POST /book.
type Handler struct {
	service *Service
	logger  *logging.Logger
}

func NewHandler(service *Service, logger *logging.Logger) *Handler {
	if logger == nil {
		logger = logging.Default()
	}
	return &Handler{service: service, logger: logger}
}

// Book handles POST /book requests.
func (h *Handler) Book(w http.ResponseWriter, r *http.Request) {
	var req Request
	if err := json.NewDecoder(http.MaxBytesReader(w, r.Body, maxBodyBytes)).Decode(&req); err != nil {
		writeJSON(w, http.StatusBadRequest, bookResponse{Message: "Invalid request body"})
		return
	}

	conf, err := h.service.Submit(r.Context(), req)
	if err != nil {
		var verr *ValidationError
		if errors.As(err, &verr) {
			writeJSON(w, http.StatusBadRequest, bookResponse{Message: "Missing booking info"})
			return
		}
		h.logger.Error("booking submission failed", "error", err)
		writeJSON(w, http.StatusInternalServerError, bookResponse{Message: "Failed to send booking info. Try again later."})
		return
	}

	writeJSON(w, http.StatusOK, bookResponse{Success: true, Message: conf.Message})
}

func writeJSON(w http.ResponseWriter, status int, payload any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(payload)
}
