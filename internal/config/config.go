package config

import (
	"errors"
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"
)

// Config holds all pipeline settings, populated from environment variables.
// The core consumes this object; it never reads the environment itself.
type Config struct {
	InputPaths []string
	OutputDir  string
	AliasFile  string

	MaxArchiveDepth          int
	MaxExtractedBytes        int64
	InvalidFractionThreshold float64
	GeoGridResolution        float64
	RunDeadline              time.Duration // 0 disables the deadline
	StrictMode               bool
	Workers                  int

	LogLevel        string
	LogFormat       string
	MetricsAddr     string // empty disables the metrics HTTP server
	ShutdownTimeout time.Duration

	// Optional post-run publishing of canonical records.
	KafkaPublish bool
	KafkaBrokers []string
	KafkaTopic   string
}

// Load reads configuration from environment variables, applying defaults
// where unset.
func Load() (*Config, error) {
	maxDepth, err := parseIntInRange("MAX_ARCHIVE_DEPTH", 3, 1, 10)
	if err != nil {
		return nil, err
	}

	maxBytes, err := parseBytes("MAX_EXTRACTED_BYTES", 500<<20)
	if err != nil {
		return nil, err
	}

	threshold, err := parseFraction("INVALID_FRACTION_THRESHOLD", 0.20)
	if err != nil {
		return nil, err
	}

	resolution, err := parsePositiveFloat("GEO_GRID_RESOLUTION", 1.0)
	if err != nil {
		return nil, err
	}

	deadline, err := parseDuration("RUN_DEADLINE", 0)
	if err != nil {
		return nil, err
	}

	workers, err := parseIntInRange("WORKERS", 4, 1, 64)
	if err != nil {
		return nil, err
	}

	shutdownTimeout, err := parseDuration("SHUTDOWN_TIMEOUT", 10*time.Second)
	if err != nil {
		return nil, err
	}

	cfg := &Config{
		InputPaths: splitList(os.Getenv("INPUT_PATHS")),
		OutputDir:  envOrDefault("OUTPUT_DIR", "out"),
		AliasFile:  os.Getenv("ALIAS_FILE"),

		MaxArchiveDepth:          maxDepth,
		MaxExtractedBytes:        maxBytes,
		InvalidFractionThreshold: threshold,
		GeoGridResolution:        resolution,
		RunDeadline:              deadline,
		StrictMode:               os.Getenv("STRICT_MODE") == "true",
		Workers:                  workers,

		LogLevel:        envOrDefault("LOG_LEVEL", "info"),
		LogFormat:       envOrDefault("LOG_FORMAT", "json"),
		MetricsAddr:     os.Getenv("METRICS_ADDR"),
		ShutdownTimeout: shutdownTimeout,

		KafkaPublish: os.Getenv("KAFKA_PUBLISH") == "true",
		KafkaBrokers: splitList(envOrDefault("KAFKA_BROKERS", "localhost:9092")),
		KafkaTopic:   envOrDefault("KAFKA_TOPIC", "canonical-accident-records"),
	}

	if cfg.OutputDir == "" {
		return nil, errors.New("OUTPUT_DIR is required")
	}
	if cfg.KafkaPublish && len(cfg.KafkaBrokers) == 0 {
		return nil, errors.New("KAFKA_PUBLISH is true but KAFKA_BROKERS is not set")
	}
	if cfg.KafkaPublish && cfg.KafkaTopic == "" {
		return nil, errors.New("KAFKA_PUBLISH is true but KAFKA_TOPIC is not set")
	}

	return cfg, nil
}

func envOrDefault(key, def string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return def
}

func splitList(s string) []string {
	var out []string
	for _, part := range strings.Split(s, ",") {
		if p := strings.TrimSpace(part); p != "" {
			out = append(out, p)
		}
	}
	return out
}

func parseIntInRange(key string, def, minVal, maxVal int) (int, error) {
	s := os.Getenv(key)
	if s == "" {
		return def, nil
	}
	n, err := strconv.Atoi(s)
	if err != nil || n < minVal || n > maxVal {
		return 0, fmt.Errorf("invalid %s: must be an integer in [%d,%d]", key, minVal, maxVal)
	}
	return n, nil
}

func parseBytes(key string, def int64) (int64, error) {
	s := os.Getenv(key)
	if s == "" {
		return def, nil
	}
	n, err := strconv.ParseInt(s, 10, 64)
	if err != nil || n <= 0 {
		return 0, fmt.Errorf("invalid %s: must be a positive byte count", key)
	}
	return n, nil
}

func parseFraction(key string, def float64) (float64, error) {
	s := os.Getenv(key)
	if s == "" {
		return def, nil
	}
	f, err := strconv.ParseFloat(s, 64)
	if err != nil || f < 0 || f > 1 {
		return 0, fmt.Errorf("invalid %s: must be a fraction in [0,1]", key)
	}
	return f, nil
}

func parsePositiveFloat(key string, def float64) (float64, error) {
	s := os.Getenv(key)
	if s == "" {
		return def, nil
	}
	f, err := strconv.ParseFloat(s, 64)
	if err != nil || f <= 0 {
		return 0, fmt.Errorf("invalid %s: must be a positive number", key)
	}
	return f, nil
}

func parseDuration(key string, def time.Duration) (time.Duration, error) {
	s := os.Getenv(key)
	if s == "" {
		return def, nil
	}
	d, err := time.ParseDuration(s)
	if err != nil || d < 0 {
		return 0, fmt.Errorf("invalid %s: must be a non-negative duration", key)
	}
	return d, nil
}
