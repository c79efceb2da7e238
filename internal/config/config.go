package config

import (
	"errors"
	"fmt"
	"os"
	"strings"
	"time"
)

// Config holds all console settings, populated from environment variables.
type Config struct {
	BackendURL      string
	RequestTimeout  time.Duration
	ProbeInterval   time.Duration
	ProbeTimeout    time.Duration
	HTTPAddr        string
	LogLevel        string
	LogFormat       string
	ShutdownTimeout time.Duration
	CORSOrigins     []string

	// Operation event publishing (feature-flagged via KAFKA_BROKERS / EVENTS_ENABLED).
	KafkaBrokers     []string
	KafkaEventsTopic string
	EventsEnabled    bool

	// Error tracking (enabled when a DSN is set).
	SentryDSN string
}

// Load reads configuration from environment variables, applying defaults where unset.
func Load() (*Config, error) {
	requestTimeout, err := parsePositiveDuration("REQUEST_TIMEOUT", "5m")
	if err != nil {
		return nil, err
	}
	probeInterval, err := parsePositiveDuration("PROBE_INTERVAL", "30s")
	if err != nil {
		return nil, err
	}
	probeTimeout, err := parsePositiveDuration("PROBE_TIMEOUT", "5s")
	if err != nil {
		return nil, err
	}
	shutdownTimeout, err := parsePositiveDuration("SHUTDOWN_TIMEOUT", "10s")
	if err != nil {
		return nil, err
	}

	brokers := splitList(os.Getenv("KAFKA_BROKERS"))
	eventsEnabled := len(brokers) > 0
	if v := os.Getenv("EVENTS_ENABLED"); v != "" {
		eventsEnabled = v == "true"
	}

	cfg := &Config{
		BackendURL:      envOrDefault("BACKEND_URL", "http://localhost:8000"),
		RequestTimeout:  requestTimeout,
		ProbeInterval:   probeInterval,
		ProbeTimeout:    probeTimeout,
		HTTPAddr:        envOrDefault("HTTP_ADDR", ":8080"),
		LogLevel:        envOrDefault("LOG_LEVEL", "info"),
		LogFormat:       envOrDefault("LOG_FORMAT", "json"),
		ShutdownTimeout: shutdownTimeout,
		CORSOrigins:     splitList(envOrDefault("CORS_ORIGINS", "*")),

		KafkaBrokers:     brokers,
		KafkaEventsTopic: envOrDefault("KAFKA_EVENTS_TOPIC", "flood-operation-events"),
		EventsEnabled:    eventsEnabled,

		SentryDSN: os.Getenv("SENTRY_DSN"),
	}

	if cfg.BackendURL == "" {
		return nil, errors.New("BACKEND_URL is required")
	}
	if cfg.EventsEnabled && len(cfg.KafkaBrokers) == 0 {
		return nil, errors.New("EVENTS_ENABLED is true but KAFKA_BROKERS is not set")
	}
	if cfg.EventsEnabled && cfg.KafkaEventsTopic == "" {
		return nil, errors.New("KAFKA_EVENTS_TOPIC is required when events are enabled")
	}

	return cfg, nil
}

func envOrDefault(key, def string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return def
}

func parsePositiveDuration(key, def string) (time.Duration, error) {
	d, err := time.ParseDuration(envOrDefault(key, def))
	if err != nil || d <= 0 {
		return 0, fmt.Errorf("invalid %s", key)
	}
	return d, nil
}

func splitList(s string) []string {
	var out []string
	for _, part := range strings.Split(s, ",") {
		if part = strings.TrimSpace(part); part != "" {
			out = append(out, part)
		}
	}
	return out
}
