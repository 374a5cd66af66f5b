package bootstrap

import (
	"context"
	"fmt"
	"strings"

	"github.com/jackc/pgx/v5/pgxpool"

	appconfig "github.com/howtosavemytime-sys/chatbot-backend/internal/config"
	"github.com/howtosavemytime-sys/chatbot-backend/internal/consent"
	"github.com/howtosavemytime-sys/chatbot-backend/pkg/logging"
)

// BuildConsentLog opens the consent log named by CONSENT_STORE. The returned
// close function is never nil.
func BuildConsentLog(ctx context.Context, cfg *appconfig.Config, logger *logging.Logger) (consent.Log, func(), error) {
	noop := func() {}
	if cfg == nil {
		return nil, noop, fmt.Errorf("bootstrap: config is required")
	}
	if logger == nil {
		logger = logging.Default()
	}

	switch cfg.ConsentStore {
	case "", "file":
		logger.Info("using file consent log", "path", cfg.ConsentsFile)
		return consent.NewFileLog(cfg.ConsentsFile, logger), noop, nil
	case "postgres":
		if strings.TrimSpace(cfg.DatabaseURL) == "" {
			return nil, noop, fmt.Errorf("bootstrap: CONSENT_STORE=postgres requires DATABASE_URL")
		}
		pool, err := pgxpool.New(ctx, cfg.DatabaseURL)
		if err != nil {
			return nil, noop, fmt.Errorf("bootstrap: connect postgres: %w", err)
		}
		if err := pool.Ping(ctx); err != nil {
			pool.Close()
			return nil, noop, fmt.Errorf("bootstrap: ping postgres: %w", err)
		}
		logger.Info("using postgres consent log")
		return consent.NewPostgresLog(pool), pool.Close, nil
	default:
		return nil, noop, fmt.Errorf("bootstrap: unknown CONSENT_STORE %q", cfg.ConsentStore)
	}
}
