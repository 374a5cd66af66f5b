package consent

import (
	"encoding/json"
	"net/http"

	httpmiddleware "github.com/howtosavemytime-sys/chatbot-backend/internal/http/middleware"
	"github.com/howtosavemytime-sys/chatbot-backend/pkg/logging"
)

// Handler exposes the consent log to operators. Access control is applied by
// the router's admin middleware.
type Handler struct {
	log    Log
	logger *logging.Logger
}

func NewHandler(log Log, logger *logging.Logger) *Handler {
	if logger == nil {
		logger = logging.Default()
	}
	return &Handler{log: log, logger: logger}
}

// List handles GET /consents.
func (h *Handler) List(w http.ResponseWriter, r *http.Request) {
	records, err := h.log.List(r.Context())
	if err != nil {
		h.logger.Error("failed to read consent log", "error", err)
		http.Error(w, "Failed to read consents", http.StatusInternalServerError)
		return
	}
	admin := "shared-token"
	if claims, ok := httpmiddleware.AdminClaimsFromContext(r.Context()); ok && claims.Subject != "" {
		admin = claims.Subject
	}
	h.logger.Info("consent log exported", "admin", admin, "records", len(records))

	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(http.StatusOK)
	_ = json.NewEncoder(w).Encode(records)
}
