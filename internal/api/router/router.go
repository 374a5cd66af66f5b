package router

import (
	"encoding/json"
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"

	"github.com/howtosavemytime-sys/chatbot-backend/internal/bookings"
	"github.com/howtosavemytime-sys/chatbot-backend/internal/consent"
	"github.com/howtosavemytime-sys/chatbot-backend/internal/conversation"
	httpmiddleware "github.com/howtosavemytime-sys/chatbot-backend/internal/http/middleware"
	"github.com/howtosavemytime-sys/chatbot-backend/pkg/logging"
)

// Config holds router configuration
type Config struct {
	Logger              *logging.Logger
	ConversationHandler *conversation.Handler
	BookingsHandler     *bookings.Handler
	ConsentHandler      *consent.Handler
	MetricsHandler      http.Handler
	CORSAllowedOrigins  []string

	// AdminToken gates /consents. The route is not mounted when empty.
	AdminToken string

	RateLimitRPS   float64
	RateLimitBurst int
	// Shutdown stops background work owned by the router when closed.
	Shutdown <-chan struct{}
}

// New creates a new Chi router with all routes configured
func New(cfg *Config) http.Handler {
	r := chi.NewRouter()

	r.Use(middleware.RequestID)
	r.Use(middleware.RealIP)
	r.Use(middleware.Recoverer)
	if len(cfg.CORSAllowedOrigins) > 0 {
		r.Use(httpmiddleware.CORS(cfg.CORSAllowedOrigins))
	}
	r.Use(httpmiddleware.RequestLogger(cfg.Logger))

	r.Get("/health", health)
	if cfg.MetricsHandler != nil {
		r.Handle("/metrics", cfg.MetricsHandler)
	}

	r.Group(func(widget chi.Router) {
		widget.Use(httpmiddleware.RateLimit(cfg.RateLimitRPS, cfg.RateLimitBurst, cfg.Shutdown))
		if cfg.ConversationHandler != nil {
			widget.Post("/chat", cfg.ConversationHandler.Chat)
			widget.Get("/chat/ws", cfg.ConversationHandler.ChatSocket)
			widget.Get("/slots", cfg.ConversationHandler.Slots)
		}
		if cfg.BookingsHandler != nil {
			widget.Post("/book", cfg.BookingsHandler.Book)
		}
	})

	if cfg.AdminToken != "" && cfg.ConsentHandler != nil {
		r.With(httpmiddleware.AdminAuth(cfg.AdminToken)).Get("/consents", cfg.ConsentHandler.List)
	}

	return r
}

func health(w http.ResponseWriter, _ *http.Request) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(http.StatusOK)
	_ = json.NewEncoder(w).Encode(map[string]string{"status": "ok"})
}
