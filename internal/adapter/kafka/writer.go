package kafka

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"time"

	"github.com/couchcryptid/surge-forecast-service/internal/config"
	"github.com/couchcryptid/surge-forecast-service/internal/domain"
	kafkago "github.com/segmentio/kafka-go"
	"github.com/sony/gobreaker/v2"
)

// messageWriter is the subset of *kafkago.Writer used by Writer.
type messageWriter interface {
	WriteMessages(ctx context.Context, msgs ...kafkago.Message) error
	Close() error
}

// Writer produces surge reports to a Kafka topic behind a circuit breaker.
// It implements pipeline.BatchLoader.
type Writer struct {
	writer  messageWriter
	breaker *gobreaker.CircuitBreaker[struct{}]
	logger  *slog.Logger
}

// NewWriter creates a Kafka producer for the configured sink topic.
func NewWriter(cfg *config.Config, logger *slog.Logger) *Writer {
	w := &kafkago.Writer{
		Addr:         kafkago.TCP(cfg.KafkaBrokers...),
		Topic:        cfg.KafkaSinkTopic,
		Balancer:     &kafkago.Hash{},
		RequiredAcks: kafkago.RequireAll,
	}
	return newWriter(w, cfg.SinkBreakerFailures, cfg.SinkBreakerTimeout, logger)
}

func newWriter(w messageWriter, failures uint32, timeout time.Duration, logger *slog.Logger) *Writer {
	breaker := gobreaker.NewCircuitBreaker[struct{}](gobreaker.Settings{
		Name:        "kafka-sink",
		MaxRequests: 1,
		Timeout:     timeout,
		ReadyToTrip: func(counts gobreaker.Counts) bool {
			return counts.ConsecutiveFailures >= failures
		},
		OnStateChange: func(name string, from, to gobreaker.State) {
			logger.Warn("circuit breaker state changed", "breaker", name, "from", from.String(), "to", to.String())
		},
	})
	return &Writer{writer: w, breaker: breaker, logger: logger}
}

// LoadBatch serializes and publishes multiple surge reports to the sink Kafka
// topic in a single WriteMessages call. While the breaker is open writes fail
// fast with gobreaker.ErrOpenState.
func (w *Writer) LoadBatch(ctx context.Context, reports []domain.SurgeReport) error {
	if len(reports) == 0 {
		return nil
	}
	msgs := make([]kafkago.Message, len(reports))
	for i := range reports {
		msg, err := serializeToMessage(reports[i])
		if err != nil {
			return err
		}
		msgs[i] = msg
	}
	_, err := w.breaker.Execute(func() (struct{}, error) {
		return struct{}{}, w.writer.WriteMessages(ctx, msgs...)
	})
	if err != nil {
		return fmt.Errorf("write surge reports: %w", err)
	}
	return nil
}

// Close flushes pending writes and closes the producer.
func (w *Writer) Close() error {
	return w.writer.Close()
}

// serializeToMessage marshals a SurgeReport into a Kafka message keyed by hospital.
func serializeToMessage(report domain.SurgeReport) (kafkago.Message, error) {
	data, err := json.Marshal(report)
	if err != nil {
		return kafkago.Message{}, fmt.Errorf("serialize surge report: %w", err)
	}
	return kafkago.Message{
		Key:   []byte(report.HospitalID),
		Value: data,
		Headers: []kafkago.Header{
			{Key: "risk_level", Value: []byte(report.Risk.Level)},
			{Key: "generated_at", Value: []byte(report.GeneratedAt.Format(time.RFC3339))},
		},
	}, nil
}
