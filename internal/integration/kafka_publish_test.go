//go:build integration

package integration_test

import (
	"context"
	"encoding/json"
	"io"
	"log/slog"
	"net"
	"os"
	"path/filepath"
	"strconv"
	"testing"
	"time"

	kafkago "github.com/segmentio/kafka-go"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/testcontainers/testcontainers-go"
	tckafka "github.com/testcontainers/testcontainers-go/modules/kafka"

	kafkaadapter "github.com/Karthi-M72/Flight-Crash-Analysis/internal/adapter/kafka"
	"github.com/Karthi-M72/Flight-Crash-Analysis/internal/domain"
	"github.com/Karthi-M72/Flight-Crash-Analysis/internal/normalizer"
	"github.com/Karthi-M72/Flight-Crash-Analysis/internal/observability"
	"github.com/Karthi-M72/Flight-Crash-Analysis/internal/pipeline"
	"github.com/Karthi-M72/Flight-Crash-Analysis/internal/scanner"
	"github.com/Karthi-M72/Flight-Crash-Analysis/internal/writer"
)

const testTopic = "canonical-accident-records-it"

// startKafka launches a single-broker Kafka container and returns its
// bootstrap address.
func startKafka(ctx context.Context, t *testing.T) string {
	t.Helper()

	container, err := tckafka.Run(ctx, "confluentinc/confluent-local:7.5.0",
		tckafka.WithClusterID("integration-cluster"))
	testcontainers.CleanupContainer(t, container)
	require.NoError(t, err, "start kafka container")

	brokers, err := container.Brokers(ctx)
	require.NoError(t, err, "resolve broker address")
	require.NotEmpty(t, brokers)
	return brokers[0]
}

func createTopic(t *testing.T, broker, topic string) {
	t.Helper()

	conn, err := kafkago.Dial("tcp", broker)
	require.NoError(t, err, "dial broker")
	defer conn.Close()

	controller, err := conn.Controller()
	require.NoError(t, err, "resolve controller")

	cc, err := kafkago.Dial("tcp", net.JoinHostPort(controller.Host, strconv.Itoa(controller.Port)))
	require.NoError(t, err, "dial controller")
	defer cc.Close()

	require.NoError(t, cc.CreateTopics(kafkago.TopicConfig{
		Topic:             topic,
		NumPartitions:     1,
		ReplicationFactor: 1,
	}))
}

func TestPipelinePublishesToKafka(t *testing.T) {
	ctx, cancel := context.WithTimeout(context.Background(), 3*time.Minute)
	defer cancel()

	broker := startKafka(ctx, t)
	createTopic(t, broker, testTopic)

	in, out := t.TempDir(), t.TempDir()
	csv := "date,operator,type,fatalities,damage,location\n" +
		"2020-01-05,Acme Air,B737,2,substantial,New York\n" +
		"2021-06-10,Gamma Jet,C208,0,minor,Anchorage\n"
	require.NoError(t, os.WriteFile(filepath.Join(in, "crashes.csv"), []byte(csv), 0o644))

	logger := slog.New(slog.NewTextHandler(io.Discard, nil))
	metrics := observability.NewMetricsForTesting()

	pub := kafkaadapter.NewPublisher([]string{broker}, testTopic, logger)
	defer pub.Close()

	p := pipeline.New(
		pipeline.Options{
			InputPaths:       []string{in},
			Workers:          2,
			GridResolution:   1.0,
			InvalidThreshold: 0.20,
		},
		scanner.New(3, 1<<20, logger, metrics),
		normalizer.New(nil, logger, metrics),
		writer.New(out, logger),
		pub,
		logger,
		metrics,
	)

	report, err := p.Run(ctx)
	require.NoError(t, err)
	require.Equal(t, 2, report.Valid)

	consumer := kafkago.NewReader(kafkago.ReaderConfig{
		Brokers:     []string{broker},
		Topic:       testTopic,
		GroupID:     "integration-" + report.RunID,
		StartOffset: kafkago.FirstOffset,
		MinBytes:    1,
		MaxBytes:    10 << 20,
	})
	defer consumer.Close()

	seen := map[string]domain.CanonicalRecord{}
	for len(seen) < 2 {
		msg, err := consumer.ReadMessage(ctx)
		require.NoError(t, err)

		var rec domain.CanonicalRecord
		require.NoError(t, json.Unmarshal(msg.Value, &rec))
		seen[string(msg.Key)] = rec

		headers := map[string]string{}
		for _, h := range msg.Headers {
			headers[h.Key] = string(h.Value)
		}
		assert.Equal(t, string(rec.Damage), headers["damage_level"])
	}

	rec, ok := seen["2020-01-05|acme air|b737|new york"]
	require.True(t, ok, "expected the Acme Air record keyed by its dedup key")
	assert.Equal(t, 2, rec.Fatalities)
	assert.Equal(t, domain.DamageSubstantial, rec.Damage)
}
