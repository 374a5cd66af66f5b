package config

import (
	"os"
	"strconv"
	"strings"
	"time"
)

// Config holds application configuration
type Config struct {
	Port               string
	Env                string
	LogLevel           string
	CORSAllowedOrigins []string
	RateLimitRPS       float64
	RateLimitBurst     int

	// Session store
	SessionStore         string
	SessionTimeout       time.Duration
	SessionSweepSchedule string
	HistoryLimit         int
	RedisAddr            string
	RedisPassword        string
	RedisTLS             bool

	// Completion providers
	LLMProvider         string
	LLMFallbackProvider string
	OpenAIAPIKey        string
	OpenAIModel         string
	OpenAIBaseURL       string
	BedrockModelID      string
	GeminiAPIKey        string
	GeminiModel         string
	CompletionTimeout   time.Duration

	// AWS (Bedrock, SES)
	AWSRegion           string
	AWSAccessKeyID      string
	AWSSecretAccessKey  string
	AWSEndpointOverride string

	// Mail relay
	MailProvider   string
	MailHost       string
	MailPort       int
	MailUser       string
	MailPassword   string
	MailFrom       string
	MailFromName   string
	MailStartTLS   bool
	AdminEmail     string
	SendGridAPIKey string

	// Scheduling provider and fallback slots
	CalendlyToken        string
	CalendlyEventTypeURI string
	CalendlyTimeout      time.Duration
	BookingTimezone      string
	BookingStartHour     int
	BookingEndHour       int
	BookingHolidays      []string

	// Consent log
	ConsentStore string
	ConsentsFile string
	DatabaseURL  string

	// Access control
	AdminToken     string
	LicenseEnforce bool
	LicenseKeys    []string

	TenantConfigFile string
}

// Load reads configuration from environment variables
func Load() *Config {
	return &Config{
		Port:               getEnv("PORT", "3000"),
		Env:                getEnv("ENV", "development"),
		LogLevel:           getEnv("LOG_LEVEL", "info"),
		CORSAllowedOrigins: getEnvAsList("CORS_ALLOWED_ORIGINS", []string{"*"}),
		RateLimitRPS:       getEnvAsFloat("RATE_LIMIT_RPS", 2),
		RateLimitBurst:     getEnvAsInt("RATE_LIMIT_BURST", 10),

		SessionStore:         strings.ToLower(getEnv("SESSION_STORE", "memory")),
		SessionTimeout:       getEnvAsDuration("SESSION_TIMEOUT", time.Hour),
		SessionSweepSchedule: getEnv("SESSION_SWEEP_SCHEDULE", "@every 10m"),
		HistoryLimit:         getEnvAsInt("HISTORY_LIMIT", 20),
		RedisAddr:            getEnv("REDIS_ADDR", "localhost:6379"),
		RedisPassword:        getEnv("REDIS_PASSWORD", ""),
		RedisTLS:             getEnvAsBool("REDIS_TLS", false),

		LLMProvider:         strings.ToLower(getEnv("LLM_PROVIDER", "openai")),
		LLMFallbackProvider: strings.ToLower(getEnv("LLM_FALLBACK_PROVIDER", "")),
		OpenAIAPIKey:        getEnv("OPENAI_API_KEY", ""),
		OpenAIModel:         getEnv("OPENAI_MODEL", "gpt-4o-mini"),
		OpenAIBaseURL:       getEnv("OPENAI_BASE_URL", ""),
		BedrockModelID:      getEnv("BEDROCK_MODEL_ID", ""),
		GeminiAPIKey:        getEnv("GEMINI_API_KEY", ""),
		GeminiModel:         getEnv("GEMINI_MODEL", "gemini-2.5-flash"),
		CompletionTimeout:   getEnvAsDuration("COMPLETION_TIMEOUT", 20*time.Second),

		AWSRegion:           getEnv("AWS_REGION", "eu-central-1"),
		AWSAccessKeyID:      getEnv("AWS_ACCESS_KEY_ID", ""),
		AWSSecretAccessKey:  getEnv("AWS_SECRET_ACCESS_KEY", ""),
		AWSEndpointOverride: getEnv("AWS_ENDPOINT_OVERRIDE", ""),

		MailProvider:   strings.ToLower(getEnv("MAIL_PROVIDER", "auto")),
		MailHost:       getEnv("MAIL_HOST", ""),
		MailPort:       getEnvAsInt("MAIL_PORT", 587),
		MailUser:       getEnv("MAIL_USER", ""),
		MailPassword:   getEnv("MAIL_PASS", ""),
		MailFrom:       getEnv("MAIL_FROM", getEnv("MAIL_USER", "")),
		MailFromName:   getEnv("MAIL_FROM_NAME", "MadeToAutomate Bot"),
		MailStartTLS:   getEnvAsBool("MAIL_STARTTLS", true),
		AdminEmail:     getEnv("ADMIN_EMAIL", ""),
		SendGridAPIKey: getEnv("SENDGRID_API_KEY", ""),

		CalendlyToken:        getEnv("CALENDLY_TOKEN", ""),
		CalendlyEventTypeURI: getEnv("CALENDLY_EVENT_TYPE_URI", ""),
		CalendlyTimeout:      getEnvAsDuration("CALENDLY_TIMEOUT", 10*time.Second),
		BookingTimezone:      getEnv("BOOKING_TIMEZONE", "Europe/Berlin"),
		BookingStartHour:     getEnvAsInt("BOOKING_START_HOUR", 10),
		BookingEndHour:       getEnvAsInt("BOOKING_END_HOUR", 16),
		BookingHolidays:      getEnvAsList("BOOKING_HOLIDAYS", nil),

		ConsentStore: strings.ToLower(getEnv("CONSENT_STORE", "file")),
		ConsentsFile: getEnv("CONSENTS_FILE", "consents.ndjson"),
		DatabaseURL:  getEnv("DATABASE_URL", ""),

		AdminToken:     getEnv("ADMIN_TOKEN", ""),
		LicenseEnforce: getEnvAsBool("LICENSE_ENFORCE", false),
		LicenseKeys:    getEnvAsList("LICENSE_KEYS", nil),

		TenantConfigFile: getEnv("TENANT_CONFIG_FILE", ""),
	}
}

// getEnv retrieves an environment variable or returns a default value
func getEnv(key, defaultValue string) string {
	if value := strings.TrimSpace(os.Getenv(key)); value != "" {
		return value
	}
	return defaultValue
}

// getEnvAsInt retrieves an environment variable as an integer or returns a default value
func getEnvAsInt(key string, defaultValue int) int {
	valueStr := getEnv(key, "")
	if value, err := strconv.Atoi(valueStr); err == nil {
		return value
	}
	return defaultValue
}

func getEnvAsFloat(key string, defaultValue float64) float64 {
	valueStr := getEnv(key, "")
	if value, err := strconv.ParseFloat(valueStr, 64); err == nil {
		return value
	}
	return defaultValue
}

// getEnvAsBool retrieves an environment variable as a boolean or returns a default value
func getEnvAsBool(key string, defaultValue bool) bool {
	valueStr := getEnv(key, "")
	if value, err := strconv.ParseBool(valueStr); err == nil {
		return value
	}
	return defaultValue
}

func getEnvAsDuration(key string, defaultValue time.Duration) time.Duration {
	valueStr := getEnv(key, "")
	if valueStr == "" {
		return defaultValue
	}
	if value, err := time.ParseDuration(valueStr); err == nil {
		return value
	}
	return defaultValue
}

// getEnvAsList splits a comma separated variable, dropping blank entries.
func getEnvAsList(key string, defaultValue []string) []string {
	valueStr := getEnv(key, "")
	if valueStr == "" {
		return defaultValue
	}
	var out []string
	for _, part := range strings.Split(valueStr, ",") {
		if part = strings.TrimSpace(part); part != "" {
			out = append(out, part)
		}
	}
	if len(out) == 0 {
		return defaultValue
	}
	return out
}
