package config

import (
	"testing"
	"time"
)

func TestLoadDefaults(t *testing.T) {
	t.Setenv("PORT", "")
	t.Setenv("ENV", "")
	t.Setenv("SESSION_TIMEOUT", "")
	t.Setenv("LLM_PROVIDER", "")
	t.Setenv("CORS_ALLOWED_ORIGINS", "")
	t.Setenv("LICENSE_KEYS", "")
	cfg := Load()
	if cfg.Port != "3000" {
		t.Fatalf("expected default port, got %s", cfg.Port)
	}
	if cfg.Env != "development" {
		t.Fatalf("expected default env, got %s", cfg.Env)
	}
	if cfg.SessionTimeout != time.Hour {
		t.Fatalf("expected one hour session timeout, got %s", cfg.SessionTimeout)
	}
	if cfg.LLMProvider != "openai" {
		t.Fatalf("expected openai provider by default, got %s", cfg.LLMProvider)
	}
	if cfg.BookingStartHour != 10 || cfg.BookingEndHour != 16 {
		t.Fatalf("unexpected booking hours %d-%d", cfg.BookingStartHour, cfg.BookingEndHour)
	}
	if len(cfg.CORSAllowedOrigins) != 1 || cfg.CORSAllowedOrigins[0] != "*" {
		t.Fatalf("expected wildcard CORS default, got %v", cfg.CORSAllowedOrigins)
	}
	if cfg.LicenseEnforce {
		t.Fatalf("expected license enforcement disabled by default")
	}
	if len(cfg.LicenseKeys) != 0 {
		t.Fatalf("expected no license keys, got %v", cfg.LicenseKeys)
	}
}

func TestLoadOverrides(t *testing.T) {
	t.Setenv("PORT", "9090")
	t.Setenv("SESSION_STORE", "REDIS")
	t.Setenv("SESSION_TIMEOUT", "45m")
	t.Setenv("HISTORY_LIMIT", "8")
	t.Setenv("LICENSE_ENFORCE", "true")
	t.Setenv("LICENSE_KEYS", "key-a, ,key-b")
	t.Setenv("MAIL_USER", "bot@example.com")
	t.Setenv("MAIL_FROM", "")
	t.Setenv("RATE_LIMIT_RPS", "0.5")
	cfg := Load()
	if cfg.Port != "9090" {
		t.Fatalf("expected override port, got %s", cfg.Port)
	}
	if cfg.SessionStore != "redis" {
		t.Fatalf("expected lower-cased session store, got %s", cfg.SessionStore)
	}
	if cfg.SessionTimeout != 45*time.Minute {
		t.Fatalf("expected session timeout override, got %s", cfg.SessionTimeout)
	}
	if cfg.HistoryLimit != 8 {
		t.Fatalf("expected history limit override, got %d", cfg.HistoryLimit)
	}
	if !cfg.LicenseEnforce {
		t.Fatalf("expected license enforcement enabled")
	}
	if len(cfg.LicenseKeys) != 2 || cfg.LicenseKeys[0] != "key-a" || cfg.LicenseKeys[1] != "key-b" {
		t.Fatalf("unexpected license keys %v", cfg.LicenseKeys)
	}
	if cfg.MailFrom != "bot@example.com" {
		t.Fatalf("expected mail sender to default to MAIL_USER, got %s", cfg.MailFrom)
	}
	if cfg.RateLimitRPS != 0.5 {
		t.Fatalf("expected rate override, got %v", cfg.RateLimitRPS)
	}
}

func TestInvalidNumbersFallBack(t *testing.T) {
	t.Setenv("HISTORY_LIMIT", "lots")
	t.Setenv("COMPLETION_TIMEOUT", "soon")
	cfg := Load()
	if cfg.HistoryLimit != 20 {
		t.Fatalf("expected default history limit, got %d", cfg.HistoryLimit)
	}
	if cfg.CompletionTimeout != 20*time.Second {
		t.Fatalf("expected default completion timeout, got %s", cfg.CompletionTimeout)
	}
}
