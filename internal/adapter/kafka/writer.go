// Package kafka publishes the final augmented record table to a sink topic
// for downstream export and visualization consumers.
package kafka

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"strconv"

	kafkago "github.com/segmentio/kafka-go"

	"github.com/couchcryptid/insar-sim/internal/config"
	"github.com/couchcryptid/insar-sim/internal/domain"
)

// publishChunkSize bounds the number of messages per WriteMessages call so
// one pipeline run does not produce a single oversized batch.
const publishChunkSize = 500

// Writer produces final measurement records to a Kafka topic.
type Writer struct {
	writer *kafkago.Writer
	logger *slog.Logger
}

// NewWriter creates a Kafka producer for the configured sink topic.
func NewWriter(cfg *config.Config, logger *slog.Logger) *Writer {
	w := &kafkago.Writer{
		Addr:         kafkago.TCP(cfg.KafkaBrokers...),
		Topic:        cfg.KafkaSinkTopic,
		Balancer:     &kafkago.LeastBytes{},
		RequiredAcks: kafkago.RequireAll,
	}
	return &Writer{writer: w, logger: logger}
}

// PublishRecords serializes every record of a completed run to the sink
// topic. Records are keyed by run ID and record index, so replaying a run
// produces identical keys.
func (w *Writer) PublishRecords(ctx context.Context, runID string, set *domain.RecordSet) error {
	msgs := make([]kafkago.Message, set.Len())
	for i := range set.Records {
		msg, err := serializeRecord(runID, i, &set.Records[i])
		if err != nil {
			return err
		}
		msgs[i] = msg
	}

	for start := 0; start < len(msgs); start += publishChunkSize {
		end := min(start+publishChunkSize, len(msgs))
		if err := w.writer.WriteMessages(ctx, msgs[start:end]...); err != nil {
			return fmt.Errorf("publish records %d-%d: %w", start, end-1, err)
		}
	}

	w.logger.Info("records published", "count", len(msgs), "run_id", runID)
	return nil
}

func (w *Writer) Close() error {
	return w.writer.Close()
}

// serializeRecord marshals one measurement into a Kafka message.
func serializeRecord(runID string, index int, rec *domain.Measurement) (kafkago.Message, error) {
	data, err := json.Marshal(rec)
	if err != nil {
		return kafkago.Message{}, fmt.Errorf("serialize record %d: %w", index, err)
	}
	return kafkago.Message{
		Key:   []byte(fmt.Sprintf("%s-%d", runID, index)),
		Value: data,
		Headers: []kafkago.Header{
			{Key: "run_id", Value: []byte(runID)},
			{Key: "time_step", Value: []byte(strconv.Itoa(rec.Time))},
			{Key: "is_anomaly", Value: []byte(strconv.FormatBool(rec.IsAnomaly))},
		},
	}, nil
}
