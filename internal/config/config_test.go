package config

import (
	"strings"
	"testing"
	"time"
)

func TestLoad_Defaults(t *testing.T) {
	t.Chdir(t.TempDir())
	cfg, err := Load()
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	checks := []struct {
		name      string
		got, want any
	}{
		{"GRPCAddr", cfg.GRPCAddr, ":8080"},
		{"HTTPAddr", cfg.HTTPAddr, ":8081"},
		{"JWTIssuer", cfg.JWTIssuer, "salesbot-auth"},
		{"JWTAudience", cfg.JWTAudience, "salesbot-api"},
		{"JWTAccessTTL", cfg.JWTAccessTTL, 15 * time.Minute},
		{"ReconnectDelay", cfg.ReconnectDelay, 3 * time.Second},
		{"StoreTimeout", cfg.StoreTimeout, 10 * time.Second},
		{"MediaTimeout", cfg.MediaTimeout, 30 * time.Second},
		{"ReplyTimeout", cfg.ReplyTimeout, 60 * time.Second},
		{"MediaDir", cfg.MediaDir, "./temp"},
		{"TypingEnabled", cfg.TypingEnabled, true},
		{"TypingPerChar", cfg.TypingPerChar, 50 * time.Millisecond},
		{"TypingMax", cfg.TypingMax, 5 * time.Second},
		{"RestoreSessions", cfg.RestoreSessions, true},
		{"ProtocolDriver", cfg.ProtocolDriver, ""},
		{"ShutdownDrain", cfg.ShutdownDrain, 5 * time.Second},
		{"DefaultCountryCode", cfg.DefaultCountryCode, "55"},
		{"GeminiModel", cfg.GeminiModel, "gemini-2.5-flash"},
		{"HistoryRetention", cfg.HistoryRetention, 168 * time.Hour},
		{"TelemetryKafkaTopic", cfg.TelemetryKafkaTopic, "salesbot-telemetry"},
		{"KafkaGroupID", cfg.KafkaGroupID, "salesbot-telemetry-worker"},
		{"OTelServiceName", cfg.OTelServiceName, "salesbot"},
	}
	for _, c := range checks {
		if c.got != c.want {
			t.Errorf("%s = %v, want %v", c.name, c.got, c.want)
		}
	}
}

func TestLoad_EnvOverride(t *testing.T) {
	t.Chdir(t.TempDir())
	t.Setenv("GRPC_ADDR", ":9090")
	t.Setenv("RECONNECT_DELAY", "250ms")
	t.Setenv("TYPING_ENABLED", "false")
	t.Setenv("JWT_PUBLIC_KEY", "/keys/pub.pem")
	cfg, err := Load()
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	if cfg.GRPCAddr != ":9090" || cfg.ReconnectDelay != 250*time.Millisecond || cfg.TypingEnabled {
		t.Errorf("cfg = %+v", cfg)
	}
	if cfg.JWTPublicKey != "/keys/pub.pem" {
		t.Errorf("JWTPublicKey = %q", cfg.JWTPublicKey)
	}
}

func TestLoad_Validation(t *testing.T) {
	tests := []struct {
		name string
		env  map[string]string
		want string
	}{
		{"negative typing per char", map[string]string{"TYPING_PER_CHAR": "-1s"}, "TYPING_PER_CHAR"},
		{"zero reconnect delay", map[string]string{"RECONNECT_DELAY": "0s"}, "RECONNECT_DELAY"},
		{"bad country code", map[string]string{"DEFAULT_COUNTRY_CODE": "+55"}, "DEFAULT_COUNTRY_CODE"},
		{"production without key", map[string]string{"APP_ENV": "production"}, "JWT_PUBLIC_KEY"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Chdir(t.TempDir())
			for k, v := range tt.env {
				t.Setenv(k, v)
			}
			_, err := Load()
			if err == nil || !strings.Contains(err.Error(), tt.want) {
				t.Errorf("err = %v, want mention of %s", err, tt.want)
			}
		})
	}
}

func TestTelemetryKafkaBrokersList(t *testing.T) {
	tests := []struct {
		in   string
		want []string
	}{
		{"", nil},
		{"a:9092", []string{"a:9092"}},
		{" a:9092 , ,b:9092", []string{"a:9092", "b:9092"}},
	}
	for _, tt := range tests {
		got := (&Config{TelemetryKafkaBrokers: tt.in}).TelemetryKafkaBrokersList()
		if strings.Join(got, ",") != strings.Join(tt.want, ",") {
			t.Errorf("%q -> %v, want %v", tt.in, got, tt.want)
		}
	}
	var nilCfg *Config
	if nilCfg.TelemetryKafkaBrokersList() != nil {
		t.Error("nil config should have no brokers")
	}
}
