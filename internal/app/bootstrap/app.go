package bootstrap

import (
	"context"
	"fmt"
	"net/http"
	"strings"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/howtosavemytime-sys/chatbot-backend/internal/api/router"
	"github.com/howtosavemytime-sys/chatbot-backend/internal/bookings"
	appconfig "github.com/howtosavemytime-sys/chatbot-backend/internal/config"
	"github.com/howtosavemytime-sys/chatbot-backend/internal/consent"
	"github.com/howtosavemytime-sys/chatbot-backend/internal/conversation"
	"github.com/howtosavemytime-sys/chatbot-backend/internal/license"
	"github.com/howtosavemytime-sys/chatbot-backend/internal/notify"
	"github.com/howtosavemytime-sys/chatbot-backend/internal/observability/metrics"
	"github.com/howtosavemytime-sys/chatbot-backend/internal/session"
	"github.com/howtosavemytime-sys/chatbot-backend/internal/tenant"
	"github.com/howtosavemytime-sys/chatbot-backend/pkg/logging"
)

// App is a fully wired chatbot backend. Both the HTTP server and the Lambda
// entrypoint serve Handler.
type App struct {
	Handler http.Handler
	Store   session.Store

	sweeper  *session.Sweeper
	shutdown chan struct{}
	closers  []func()
}

// Start launches background jobs such as the session sweeper.
func (a *App) Start() {
	if a.sweeper != nil {
		a.sweeper.Start()
	}
}

// Close stops background jobs and releases connections in reverse order of
// acquisition. It is safe to call once.
func (a *App) Close() {
	if a.sweeper != nil {
		a.sweeper.Stop()
	}
	close(a.shutdown)
	for i := len(a.closers) - 1; i >= 0; i-- {
		a.closers[i]()
	}
}

// BuildApp wires every component from configuration.
func BuildApp(ctx context.Context, cfg *appconfig.Config, loadAWS AWSLoader, logger *logging.Logger) (*App, error) {
	if cfg == nil {
		return nil, fmt.Errorf("bootstrap: config is required")
	}
	if logger == nil {
		logger = logging.Default()
	}

	defaults := tenant.Default()
	if path := strings.TrimSpace(cfg.TenantConfigFile); path != "" {
		loaded, err := tenant.LoadFile(path)
		if err != nil {
			return nil, fmt.Errorf("bootstrap: %w", err)
		}
		defaults = loaded
		logger.Info("tenant defaults loaded", "path", path, "company", defaults.CompanyName)
	}

	app := &App{shutdown: make(chan struct{})}
	ok := false
	defer func() {
		if !ok {
			app.Close()
		}
	}()

	registry := prometheus.NewRegistry()
	registry.MustRegister(collectors.NewGoCollector(), collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}))
	chatMetrics := metrics.NewChatMetrics(registry)

	llm, err := BuildLLMClient(ctx, cfg, loadAWS, logger)
	if err != nil {
		return nil, err
	}
	app.closers = append(app.closers, llmCloser(llm, logger))

	store, sweeper, err := BuildSessionStore(ctx, cfg, logger)
	if err != nil {
		return nil, err
	}
	app.Store = store
	app.sweeper = sweeper

	slots, err := BuildSlotChain(cfg, logger)
	if err != nil {
		return nil, err
	}

	sender, mailProvider, err := BuildEmailSender(ctx, cfg, loadAWS, logger)
	if err != nil {
		return nil, err
	}
	if strings.TrimSpace(cfg.AdminEmail) == "" {
		logger.Warn("ADMIN_EMAIL not set; booking requests will not be mailed", "mail_provider", mailProvider)
	}
	notifier := notify.NewService(sender, cfg.AdminEmail, logger)

	consents, closeConsents, err := BuildConsentLog(ctx, cfg, logger)
	if err != nil {
		return nil, err
	}
	app.closers = append(app.closers, closeConsents)

	engine := conversation.NewEngine(llm, slots, conversation.EngineConfig{
		Defaults:          defaults,
		HistoryLimit:      cfg.HistoryLimit,
		CompletionTimeout: cfg.CompletionTimeout,
		Metrics:           chatMetrics,
	}, logger)
	licenses := license.NewChecker(cfg.LicenseEnforce, cfg.LicenseKeys)
	if licenses.Enforced() {
		logger.Info("license enforcement enabled", "keys", len(cfg.LicenseKeys))
	}

	app.Handler = router.New(&router.Config{
		Logger:              logger,
		ConversationHandler: conversation.NewHandler(engine, store, slots, licenses, logger),
		BookingsHandler:     bookings.NewHandler(bookings.NewService(consents, notifier, cfg.BookingTimezone, chatMetrics, logger), logger),
		ConsentHandler:      consent.NewHandler(consents, logger),
		MetricsHandler:      promhttp.HandlerFor(registry, promhttp.HandlerOpts{Registry: registry}),
		CORSAllowedOrigins:  cfg.CORSAllowedOrigins,
		AdminToken:          cfg.AdminToken,
		RateLimitRPS:        cfg.RateLimitRPS,
		RateLimitBurst:      cfg.RateLimitBurst,
		Shutdown:            app.shutdown,
	})
	if cfg.AdminToken == "" {
		logger.Warn("ADMIN_TOKEN not set; /consents is disabled")
	}

	ok = true
	return app, nil
}
