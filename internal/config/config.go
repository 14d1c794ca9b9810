package config

import (
	"errors"
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"
)

const (
	defaultMaxUploadBytes = 200 << 20 // 200 MiB, matches the largest distributor exports seen
	defaultSessionTTL     = 30 * time.Minute
	defaultSweepInterval  = time.Minute
)

// Config holds all service settings, populated from environment variables.
type Config struct {
	HTTPAddr        string
	LogLevel        string
	LogFormat       string
	ShutdownTimeout time.Duration

	MaxUploadBytes int64
	SessionTTL     time.Duration
	SweepInterval  time.Duration

	// Disambiguation of duplicate group labels in ranked views.
	DisambiguateMode    string
	DisambiguateTailLen int

	// Kafka canonical-record sink configuration.
	KafkaBrokers   []string
	KafkaSinkTopic string
	SinkEnabled    bool
}

// Load reads configuration from environment variables, applying defaults where unset.
func Load() (*Config, error) {
	shutdownTimeout, err := parseDuration("SHUTDOWN_TIMEOUT", "10s")
	if err != nil {
		return nil, err
	}

	sessionTTL, err := parseDuration("SESSION_TTL", defaultSessionTTL.String())
	if err != nil {
		return nil, err
	}

	sweepInterval, err := parseDuration("SESSION_SWEEP_INTERVAL", defaultSweepInterval.String())
	if err != nil {
		return nil, err
	}

	maxUpload, err := parseMaxUploadBytes()
	if err != nil {
		return nil, err
	}

	tailLen, err := parseTailLen()
	if err != nil {
		return nil, err
	}

	sinkTopic := os.Getenv("KAFKA_SINK_TOPIC")
	sinkEnabled := sinkTopic != ""
	if v := os.Getenv("KAFKA_SINK_ENABLED"); v != "" {
		sinkEnabled = v == "true"
	}

	cfg := &Config{
		HTTPAddr:        envOrDefault("HTTP_ADDR", ":8080"),
		LogLevel:        envOrDefault("LOG_LEVEL", "info"),
		LogFormat:       envOrDefault("LOG_FORMAT", "json"),
		ShutdownTimeout: shutdownTimeout,

		MaxUploadBytes: maxUpload,
		SessionTTL:     sessionTTL,
		SweepInterval:  sweepInterval,

		DisambiguateMode:    envOrDefault("DISAMBIGUATE_MODE", "full"),
		DisambiguateTailLen: tailLen,

		KafkaBrokers:   parseBrokers(envOrDefault("KAFKA_BROKERS", "localhost:9092")),
		KafkaSinkTopic: sinkTopic,
		SinkEnabled:    sinkEnabled,
	}

	if cfg.DisambiguateMode != "full" && cfg.DisambiguateMode != "tail" {
		return nil, errors.New("DISAMBIGUATE_MODE must be full or tail")
	}
	if cfg.SinkEnabled && cfg.KafkaSinkTopic == "" {
		return nil, errors.New("KAFKA_SINK_ENABLED is true but KAFKA_SINK_TOPIC is not set")
	}
	if cfg.SinkEnabled && len(cfg.KafkaBrokers) == 0 {
		return nil, errors.New("KAFKA_BROKERS is required when the sink is enabled")
	}

	return cfg, nil
}

func envOrDefault(key, fallback string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return fallback
}

func parseDuration(key, fallback string) (time.Duration, error) {
	d, err := time.ParseDuration(envOrDefault(key, fallback))
	if err != nil || d <= 0 {
		return 0, fmt.Errorf("invalid %s", key)
	}
	return d, nil
}

func parseBrokers(s string) []string {
	var brokers []string
	for _, b := range strings.Split(s, ",") {
		if b = strings.TrimSpace(b); b != "" {
			brokers = append(brokers, b)
		}
	}
	return brokers
}

func parseMaxUploadBytes() (int64, error) {
	s := os.Getenv("MAX_UPLOAD_BYTES")
	if s == "" {
		return defaultMaxUploadBytes, nil
	}
	n, err := strconv.ParseInt(s, 10, 64)
	if err != nil || n <= 0 {
		return 0, errors.New("invalid MAX_UPLOAD_BYTES")
	}
	return n, nil
}

func parseTailLen() (int, error) {
	s := os.Getenv("DISAMBIGUATE_TAIL_LEN")
	if s == "" {
		return 6, nil
	}
	n, err := strconv.Atoi(s)
	if err != nil || n <= 0 {
		return 0, errors.New("invalid DISAMBIGUATE_TAIL_LEN")
	}
	return n, nil
}
