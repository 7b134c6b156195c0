// Package config loads and validates app config from env and an optional .env file using Viper.
package config

import (
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/spf13/viper"
)

// Config holds application configuration loaded from the environment.
type Config struct {
	// GRPCAddr is the address the gRPC server listens on (e.g. :8080).
	GRPCAddr string `mapstructure:"GRPC_ADDR"`
	// HTTPAddr serves /ws and /healthz.
	HTTPAddr string `mapstructure:"HTTP_ADDR"`
	// DatabaseURL is the Postgres DSN.
	DatabaseURL string `mapstructure:"DATABASE_URL"`
	// Env is the application environment (e.g. "development", "production").
	Env      string `mapstructure:"APP_ENV"`
	LogLevel string `mapstructure:"LOG_LEVEL"`
	// LogFormat is "text" or "json"; empty picks text in development and json otherwise.
	LogFormat string `mapstructure:"LOG_FORMAT"`

	// JWTPrivateKey is the PEM-encoded private key or path to file. Only cmd/seed needs it; the
	// server verifies with JWT_PUBLIC_KEY alone.
	JWTPrivateKey string `mapstructure:"JWT_PRIVATE_KEY"`
	// JWTPublicKey is the PEM-encoded public key (RSA or ECDSA) or path to file.
	JWTPublicKey string        `mapstructure:"JWT_PUBLIC_KEY"`
	JWTIssuer    string        `mapstructure:"JWT_ISSUER"`
	JWTAudience  string        `mapstructure:"JWT_AUDIENCE"`
	JWTAccessTTL time.Duration `mapstructure:"JWT_ACCESS_TTL"`

	// Session lifecycle.
	ReconnectDelay  time.Duration `mapstructure:"RECONNECT_DELAY"`
	StoreTimeout    time.Duration `mapstructure:"STORE_TIMEOUT"`
	RestoreSessions bool          `mapstructure:"RESTORE_SESSIONS"`
	// ProtocolDriver names the registered messaging library binding; empty disables sessions.
	ProtocolDriver string `mapstructure:"PROTOCOL_DRIVER"`
	// ShutdownDrain is how long in-flight work may finish after the servers stop.
	ShutdownDrain time.Duration `mapstructure:"SHUTDOWN_DRAIN"`

	// Message ingest.
	MediaTimeout       time.Duration `mapstructure:"MEDIA_TIMEOUT"`
	ReplyTimeout       time.Duration `mapstructure:"REPLY_TIMEOUT"`
	MediaDir           string        `mapstructure:"MEDIA_DIR"`
	TypingEnabled      bool          `mapstructure:"TYPING_ENABLED"`
	TypingPerChar      time.Duration `mapstructure:"TYPING_PER_CHAR"`
	TypingMax          time.Duration `mapstructure:"TYPING_MAX"`
	DefaultCountryCode string        `mapstructure:"DEFAULT_COUNTRY_CODE"`
	// InboundPolicyFile optionally replaces the built-in Rego inbound policy.
	InboundPolicyFile string `mapstructure:"INBOUND_POLICY_FILE"`

	// Conversation collaborator (Gemini).
	GeminiAPIKey     string        `mapstructure:"GEMINI_API_KEY"`
	GeminiModel      string        `mapstructure:"GEMINI_MODEL"`
	SystemPromptFile string        `mapstructure:"SYSTEM_PROMPT_FILE"`
	HistoryRetention time.Duration `mapstructure:"HISTORY_RETENTION"`

	// Telemetry (optional). When Kafka brokers are set, events are also produced to Kafka.
	// TelemetryKafkaBrokers is a comma-separated list of Kafka broker addresses (e.g. "localhost:9092").
	TelemetryKafkaBrokers string `mapstructure:"KAFKA_BROKERS"`
	TelemetryKafkaTopic   string `mapstructure:"TELEMETRY_KAFKA_TOPIC"`
	// Worker-only: Loki URL and consumer group.
	LokiURL      string `mapstructure:"LOKI_URL"`
	KafkaGroupID string `mapstructure:"KAFKA_GROUP_ID"`

	OTelEndpoint    string `mapstructure:"OTEL_EXPORTER_OTLP_ENDPOINT"`
	OTelInsecure    bool   `mapstructure:"OTEL_EXPORTER_OTLP_INSECURE"`
	OTelServiceName string `mapstructure:"OTEL_SERVICE_NAME"`
}

var defaults = map[string]any{
	"GRPC_ADDR":                   ":8080",
	"HTTP_ADDR":                   ":8081",
	"DATABASE_URL":                "",
	"APP_ENV":                     "",
	"LOG_LEVEL":                   "info",
	"LOG_FORMAT":                  "",
	"JWT_PRIVATE_KEY":             "",
	"JWT_PUBLIC_KEY":              "",
	"JWT_ISSUER":                  "salesbot-auth",
	"JWT_AUDIENCE":                "salesbot-api",
	"JWT_ACCESS_TTL":              "15m",
	"RECONNECT_DELAY":             "3s",
	"STORE_TIMEOUT":               "10s",
	"RESTORE_SESSIONS":            true,
	"PROTOCOL_DRIVER":             "",
	"SHUTDOWN_DRAIN":              "5s",
	"MEDIA_TIMEOUT":               "30s",
	"REPLY_TIMEOUT":               "60s",
	"MEDIA_DIR":                   "./temp",
	"TYPING_ENABLED":              true,
	"TYPING_PER_CHAR":             "50ms",
	"TYPING_MAX":                  "5s",
	"DEFAULT_COUNTRY_CODE":        "55",
	"INBOUND_POLICY_FILE":         "",
	"GEMINI_API_KEY":              "",
	"GEMINI_MODEL":                "gemini-2.5-flash",
	"SYSTEM_PROMPT_FILE":          "",
	"HISTORY_RETENTION":           "168h",
	"KAFKA_BROKERS":               "",
	"TELEMETRY_KAFKA_TOPIC":       "salesbot-telemetry",
	"LOKI_URL":                    "",
	"KAFKA_GROUP_ID":              "salesbot-telemetry-worker",
	"OTEL_EXPORTER_OTLP_ENDPOINT": "",
	"OTEL_EXPORTER_OTLP_INSECURE": false,
	"OTEL_SERVICE_NAME":           "salesbot",
}

// Load reads .env (if present), then builds and validates Config from the environment via Viper.
// Missing .env is ignored (e.g. in CI). Env vars override .env.
func Load() (*Config, error) {
	v := viper.New()

	v.SetConfigFile(".env")
	v.SetConfigType("env")
	_ = v.ReadInConfig() // ignore ErrConfigFileNotFound

	v.AutomaticEnv()
	for k, d := range defaults {
		v.SetDefault(k, d)
	}

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, fmt.Errorf("config: %w", err)
	}
	if err := cfg.validate(); err != nil {
		return nil, err
	}
	return &cfg, nil
}

func (c *Config) validate() error {
	if c.GRPCAddr == "" {
		return errors.New("config: GRPC_ADDR must be set")
	}
	if c.HTTPAddr == "" {
		return errors.New("config: HTTP_ADDR must be set")
	}
	for name, d := range map[string]time.Duration{
		"JWT_ACCESS_TTL":  c.JWTAccessTTL,
		"RECONNECT_DELAY": c.ReconnectDelay,
		"STORE_TIMEOUT":   c.StoreTimeout,
		"MEDIA_TIMEOUT":   c.MediaTimeout,
		"REPLY_TIMEOUT":   c.ReplyTimeout,
		"TYPING_MAX":      c.TypingMax,
	} {
		if d <= 0 {
			return fmt.Errorf("config: %s must be positive", name)
		}
	}
	if c.TypingPerChar < 0 {
		return errors.New("config: TYPING_PER_CHAR must not be negative")
	}
	if c.DefaultCountryCode != "" && strings.Trim(c.DefaultCountryCode, "0123456789") != "" {
		return errors.New("config: DEFAULT_COUNTRY_CODE must be digits")
	}
	if c.IsProduction() && c.JWTPublicKey == "" {
		return errors.New("config: JWT_PUBLIC_KEY must be set when APP_ENV=production")
	}
	return nil
}

// IsProduction reports whether APP_ENV is production.
func (c *Config) IsProduction() bool {
	return strings.EqualFold(c.Env, "production")
}

// TelemetryKafkaBrokersList returns Kafka broker addresses from the comma-separated config.
// An empty list disables the Kafka producer.
func (c *Config) TelemetryKafkaBrokersList() []string {
	if c == nil || c.TelemetryKafkaBrokers == "" {
		return nil
	}
	parts := strings.Split(c.TelemetryKafkaBrokers, ",")
	out := make([]string, 0, len(parts))
	for _, p := range parts {
		if s := strings.TrimSpace(p); s != "" {
			out = append(out, s)
		}
	}
	return out
}
