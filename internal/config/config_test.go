package config

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLoad_Defaults(t *testing.T) {
	cfg, err := Load()
	require.NoError(t, err)

	assert.Empty(t, cfg.InputPaths)
	assert.Equal(t, "out", cfg.OutputDir)
	assert.Empty(t, cfg.AliasFile)
	assert.Equal(t, 3, cfg.MaxArchiveDepth)
	assert.Equal(t, int64(500<<20), cfg.MaxExtractedBytes)
	assert.InDelta(t, 0.20, cfg.InvalidFractionThreshold, 1e-9)
	assert.InDelta(t, 1.0, cfg.GeoGridResolution, 1e-9)
	assert.Equal(t, time.Duration(0), cfg.RunDeadline)
	assert.False(t, cfg.StrictMode)
	assert.Equal(t, 4, cfg.Workers)
	assert.Equal(t, "info", cfg.LogLevel)
	assert.Equal(t, "json", cfg.LogFormat)
	assert.Empty(t, cfg.MetricsAddr)
	assert.Equal(t, 10*time.Second, cfg.ShutdownTimeout)
	assert.False(t, cfg.KafkaPublish)
	assert.Equal(t, []string{"localhost:9092"}, cfg.KafkaBrokers)
	assert.Equal(t, "canonical-accident-records", cfg.KafkaTopic)
}

func TestLoad_CustomEnv(t *testing.T) {
	t.Setenv("INPUT_PATHS", "/data/a, /data/b.zip")
	t.Setenv("OUTPUT_DIR", "/tmp/dataset")
	t.Setenv("ALIAS_FILE", "aliases.yaml")
	t.Setenv("MAX_ARCHIVE_DEPTH", "5")
	t.Setenv("MAX_EXTRACTED_BYTES", "1048576")
	t.Setenv("INVALID_FRACTION_THRESHOLD", "0.5")
	t.Setenv("GEO_GRID_RESOLUTION", "0.25")
	t.Setenv("RUN_DEADLINE", "2m")
	t.Setenv("STRICT_MODE", "true")
	t.Setenv("WORKERS", "8")
	t.Setenv("LOG_LEVEL", "debug")
	t.Setenv("LOG_FORMAT", "text")
	t.Setenv("METRICS_ADDR", ":9090")
	t.Setenv("SHUTDOWN_TIMEOUT", "30s")
	t.Setenv("KAFKA_PUBLISH", "true")
	t.Setenv("KAFKA_BROKERS", "broker1:9092,broker2:9092")
	t.Setenv("KAFKA_TOPIC", "records-out")

	cfg, err := Load()
	require.NoError(t, err)

	assert.Equal(t, []string{"/data/a", "/data/b.zip"}, cfg.InputPaths)
	assert.Equal(t, "/tmp/dataset", cfg.OutputDir)
	assert.Equal(t, "aliases.yaml", cfg.AliasFile)
	assert.Equal(t, 5, cfg.MaxArchiveDepth)
	assert.Equal(t, int64(1048576), cfg.MaxExtractedBytes)
	assert.InDelta(t, 0.5, cfg.InvalidFractionThreshold, 1e-9)
	assert.InDelta(t, 0.25, cfg.GeoGridResolution, 1e-9)
	assert.Equal(t, 2*time.Minute, cfg.RunDeadline)
	assert.True(t, cfg.StrictMode)
	assert.Equal(t, 8, cfg.Workers)
	assert.Equal(t, "debug", cfg.LogLevel)
	assert.Equal(t, "text", cfg.LogFormat)
	assert.Equal(t, ":9090", cfg.MetricsAddr)
	assert.Equal(t, 30*time.Second, cfg.ShutdownTimeout)
	assert.True(t, cfg.KafkaPublish)
	assert.Equal(t, []string{"broker1:9092", "broker2:9092"}, cfg.KafkaBrokers)
	assert.Equal(t, "records-out", cfg.KafkaTopic)
}

func TestLoad_InvalidValues(t *testing.T) {
	tests := []struct {
		name  string
		key   string
		value string
	}{
		{"depth not a number", "MAX_ARCHIVE_DEPTH", "three"},
		{"depth zero", "MAX_ARCHIVE_DEPTH", "0"},
		{"depth too large", "MAX_ARCHIVE_DEPTH", "100"},
		{"size negative", "MAX_EXTRACTED_BYTES", "-1"},
		{"threshold above one", "INVALID_FRACTION_THRESHOLD", "1.5"},
		{"resolution zero", "GEO_GRID_RESOLUTION", "0"},
		{"deadline not a duration", "RUN_DEADLINE", "fast"},
		{"negative deadline", "RUN_DEADLINE", "-1s"},
		{"workers zero", "WORKERS", "0"},
		{"shutdown not a duration", "SHUTDOWN_TIMEOUT", "soon"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Setenv(tt.key, tt.value)
			_, err := Load()
			require.Error(t, err)
			assert.Contains(t, err.Error(), tt.key)
		})
	}
}

func TestLoad_KafkaPublishRequiresBrokers(t *testing.T) {
	t.Setenv("KAFKA_PUBLISH", "true")
	t.Setenv("KAFKA_BROKERS", " , ")
	_, err := Load()
	require.Error(t, err)
	assert.Contains(t, err.Error(), "KAFKA_BROKERS")
}
