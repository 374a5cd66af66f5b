package bootstrap

import (
	"context"
	"crypto/tls"
	"fmt"
	"strings"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/redis/go-redis/v9"

	appconfig "github.com/howtosavemytime-sys/chatbot-backend/internal/config"
	"github.com/howtosavemytime-sys/chatbot-backend/internal/session"
	"github.com/howtosavemytime-sys/chatbot-backend/pkg/logging"
)

// AWSLoader resolves the shared AWS SDK configuration. It is only called when
// a configured provider (Bedrock, SES) needs it.
type AWSLoader func(ctx context.Context) (aws.Config, error)

// BuildRedisClient returns a configured Redis client or nil when disabled.
// When verify is true, a ping is issued and failures return nil.
func BuildRedisClient(ctx context.Context, cfg *appconfig.Config, logger *logging.Logger, verify bool) *redis.Client {
	if cfg == nil || strings.TrimSpace(cfg.RedisAddr) == "" {
		return nil
	}
	if logger == nil {
		logger = logging.Default()
	}
	if ctx == nil {
		ctx = context.Background()
	}

	redisOptions := &redis.Options{
		Addr:     cfg.RedisAddr,
		Password: cfg.RedisPassword,
	}
	if cfg.RedisTLS {
		redisOptions.TLSConfig = &tls.Config{MinVersion: tls.VersionTLS12}
	}
	client := redis.NewClient(redisOptions)
	if !verify {
		return client
	}
	if err := client.Ping(ctx).Err(); err != nil {
		logger.Warn("redis not available", "error", err)
		_ = client.Close()
		return nil
	}
	return client
}

// BuildSessionStore picks the session backend from SESSION_STORE. The
// returned sweeper is nil for Redis (keys expire by TTL) or when no sweep
// schedule is configured; callers start and stop it.
func BuildSessionStore(ctx context.Context, cfg *appconfig.Config, logger *logging.Logger) (session.Store, *session.Sweeper, error) {
	if cfg == nil {
		return nil, nil, fmt.Errorf("bootstrap: config is required")
	}
	if logger == nil {
		logger = logging.Default()
	}
	opts := []session.Option{session.WithTimeout(cfg.SessionTimeout)}

	switch cfg.SessionStore {
	case "redis":
		client := BuildRedisClient(ctx, cfg, logger, true)
		if client == nil {
			return nil, nil, fmt.Errorf("bootstrap: SESSION_STORE=redis but redis at %q is unreachable", cfg.RedisAddr)
		}
		logger.Info("using redis session store", "addr", cfg.RedisAddr, "timeout", cfg.SessionTimeout.String())
		return session.NewRedisStore(client, opts...), nil, nil
	case "", "memory":
		store := session.NewMemoryStore(opts...)
		logger.Info("using in-memory session store", "timeout", cfg.SessionTimeout.String())
		if strings.TrimSpace(cfg.SessionSweepSchedule) == "" {
			return store, nil, nil
		}
		sweeper, err := session.NewSweeper(store, cfg.SessionSweepSchedule, logger)
		if err != nil {
			return nil, nil, fmt.Errorf("bootstrap: %w", err)
		}
		return store, sweeper, nil
	default:
		return nil, nil, fmt.Errorf("bootstrap: unknown SESSION_STORE %q", cfg.SessionStore)
	}
}
