//go:build integration

package integration_test

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"net"
	"strconv"
	"testing"
	"time"

	kafkago "github.com/segmentio/kafka-go"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/testcontainers/testcontainers-go"
	tckafka "github.com/testcontainers/testcontainers-go/modules/kafka"

	kafkaadapter "github.com/couchcryptid/insar-sim/internal/adapter/kafka"
	"github.com/couchcryptid/insar-sim/internal/anomaly"
	"github.com/couchcryptid/insar-sim/internal/config"
	"github.com/couchcryptid/insar-sim/internal/domain"
	"github.com/couchcryptid/insar-sim/internal/features"
	"github.com/couchcryptid/insar-sim/internal/model"
	"github.com/couchcryptid/insar-sim/internal/observability"
	"github.com/couchcryptid/insar-sim/internal/pipeline"
	"github.com/couchcryptid/insar-sim/internal/synth"
)

const testSinkTopic = "test-deformation-records"

func discardLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

// startKafka launches a single-node Kafka container and returns its broker address.
func startKafka(ctx context.Context, t *testing.T) string {
	t.Helper()

	container, err := tckafka.Run(ctx,
		"confluentinc/confluent-local:7.5.0",
		tckafka.WithClusterID("insar-sim-test"),
	)
	testcontainers.CleanupContainer(t, container)
	require.NoError(t, err)

	brokers, err := container.Brokers(ctx)
	require.NoError(t, err)
	require.NotEmpty(t, brokers)
	return brokers[0]
}

// createTopic creates a single-partition topic via the cluster controller.
func createTopic(t *testing.T, broker, topic string) {
	t.Helper()

	conn, err := kafkago.Dial("tcp", broker)
	require.NoError(t, err)
	t.Cleanup(func() { _ = conn.Close() })

	controller, err := conn.Controller()
	require.NoError(t, err)

	controllerConn, err := kafkago.Dial("tcp",
		net.JoinHostPort(controller.Host, strconv.Itoa(controller.Port)))
	require.NoError(t, err)
	t.Cleanup(func() { _ = controllerConn.Close() })

	require.NoError(t, controllerConn.CreateTopics(kafkago.TopicConfig{
		Topic:             topic,
		NumPartitions:     1,
		ReplicationFactor: 1,
	}))
}

// TestPublishRecords runs the full pipeline against real Kafka and verifies
// that every final record arrives on the sink topic with the expected
// columns and headers.
func TestPublishRecords(t *testing.T) {
	ctx, cancel := context.WithTimeout(context.Background(), 2*time.Minute)
	defer cancel()

	broker := startKafka(ctx, t)
	createTopic(t, broker, testSinkTopic)

	cfg := &config.Config{
		KafkaBrokers:   []string{broker},
		KafkaSinkTopic: testSinkTopic,
	}

	p := pipeline.New(
		synth.New(50, 2, 0.05, 42),
		features.NewBuilder(),
		model.NewTrainer(42),
		anomaly.NewDetector(0.05),
		discardLogger(),
		observability.NewMetricsForTesting(),
	)

	set, result, err := p.Run(ctx)
	require.NoError(t, err)
	require.Equal(t, 100, set.Len())

	writer := kafkaadapter.NewWriter(cfg, discardLogger())
	t.Cleanup(func() { _ = writer.Close() })

	runID := fmt.Sprintf("run-%d", result.StartedAt.UnixNano())
	require.NoError(t, writer.PublishRecords(ctx, runID, set))

	consumer := kafkago.NewReader(kafkago.ReaderConfig{
		Brokers:     []string{broker},
		Topic:       testSinkTopic,
		GroupID:     fmt.Sprintf("test-consumer-%d", time.Now().UnixNano()),
		StartOffset: kafkago.FirstOffset,
	})
	t.Cleanup(func() { _ = consumer.Close() })

	received := make([]domain.Measurement, 0, set.Len())
	for len(received) < set.Len() {
		readCtx, readCancel := context.WithTimeout(ctx, 30*time.Second)
		msg, err := consumer.ReadMessage(readCtx)
		readCancel()
		require.NoError(t, err, "read from sink topic")

		headers := map[string]string{}
		for _, h := range msg.Headers {
			headers[h.Key] = string(h.Value)
		}
		assert.Equal(t, runID, headers["run_id"])
		assert.Contains(t, headers, "time_step")
		assert.Contains(t, headers, "is_anomaly")

		var rec domain.Measurement
		require.NoError(t, json.Unmarshal(msg.Value, &rec))
		received = append(received, rec)
	}

	require.Len(t, received, set.Len())
	for i, rec := range received {
		assert.Equal(t, set.Records[i].X, rec.X, "record %d", i)
		assert.Equal(t, set.Records[i].Time, rec.Time, "record %d", i)
		assert.Equal(t, set.Records[i].Phase, rec.Phase, "record %d", i)
		assert.Equal(t, set.Records[i].IsAnomaly, rec.IsAnomaly, "record %d", i)
	}
}
