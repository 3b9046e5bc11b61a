//go:build integration

package integration_test

import (
	"context"
	"encoding/json"
	"fmt"
	"testing"
	"time"

	"github.com/couchcryptid/surge-forecast-service/internal/adapter/kafka"
	"github.com/couchcryptid/surge-forecast-service/internal/config"
	"github.com/couchcryptid/surge-forecast-service/internal/domain"
	"github.com/couchcryptid/surge-forecast-service/internal/observability"
	"github.com/couchcryptid/surge-forecast-service/internal/pipeline"
	"github.com/jonboulle/clockwork"
	kafkago "github.com/segmentio/kafka-go"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const (
	testSourceTopic = "test-prediction-contexts"
	testSinkTopic   = "test-surge-reports"
)

var observedAt = time.Date(2025, time.October, 20, 9, 30, 0, 0, time.UTC)

// reportMessage holds a deserialized message read from the sink topic.
type reportMessage struct {
	Report  domain.SurgeReport
	Key     string
	Headers map[string]string
}

// readReport reads a single message from the sink consumer and deserializes it.
func readReport(ctx context.Context, t *testing.T, consumer *kafkago.Reader) reportMessage {
	t.Helper()
	readCtx, cancel := context.WithTimeout(ctx, 30*time.Second)
	defer cancel()

	msg, err := consumer.ReadMessage(readCtx)
	require.NoError(t, err, "read from sink topic")

	headers := make(map[string]string, len(msg.Headers))
	for _, h := range msg.Headers {
		headers[h.Key] = string(h.Value)
	}
	var report domain.SurgeReport
	require.NoError(t, json.Unmarshal(msg.Value, &report), "unmarshal sink message")

	return reportMessage{Report: report, Key: string(msg.Key), Headers: headers}
}

func testConfig(broker, group string) *config.Config {
	return &config.Config{
		KafkaBrokers:        []string{broker},
		KafkaSourceTopic:    testSourceTopic,
		KafkaSinkTopic:      testSinkTopic,
		KafkaGroupID:        fmt.Sprintf("%s-%d", group, time.Now().UnixNano()),
		BatchFlushInterval:  5 * time.Second,
		SinkBreakerFailures: 5,
		SinkBreakerTimeout:  30 * time.Second,
	}
}

func testEngine() *pipeline.Engine {
	return pipeline.NewEngine(domain.DefaultParams(), pipeline.WithClock(clockwork.NewFakeClockAt(observedAt)))
}

func requestPayload(t *testing.T, hospital string, aqi int) []byte {
	t.Helper()
	pc := domain.DefaultContext()
	pc.ObservedAt = observedAt
	pc.AQI = aqi
	data, err := json.Marshal(domain.SurgeRequest{HospitalID: hospital, Context: pc, ForecastDays: 3})
	require.NoError(t, err)
	return data
}

func newSinkConsumer(broker string) *kafkago.Reader {
	return kafkago.NewReader(kafkago.ReaderConfig{
		Brokers:     []string{broker},
		Topic:       testSinkTopic,
		GroupID:     fmt.Sprintf("test-sink-%d", time.Now().UnixNano()),
		StartOffset: kafkago.FirstOffset,
	})
}

// TestKafkaReaderWriter verifies the adapter layer: kafka.Reader (Extractor) and
// kafka.Writer (Loader) correctly round-trip a request and its report through Kafka.
func TestKafkaReaderWriter(t *testing.T) {
	ctx, cancel := context.WithTimeout(context.Background(), 90*time.Second)
	defer cancel()

	broker := startKafka(ctx, t)
	createTopic(t, broker, testSourceTopic)
	createTopic(t, broker, testSinkTopic)
	cfg := testConfig(broker, "test-reader")

	payload := requestPayload(t, "city-general", 350)
	producer := &kafkago.Writer{Addr: kafkago.TCP(broker), Topic: testSourceTopic}
	t.Cleanup(func() { _ = producer.Close() })
	require.NoError(t, producer.WriteMessages(ctx, kafkago.Message{Key: []byte("city-general"), Value: payload}))

	// Retry because the consumer group may need time to rebalance before
	// partitions are assigned and messages become available.
	reader := kafka.NewReader(cfg, discardLogger())
	t.Cleanup(func() { _ = reader.Close() })

	var batch []domain.RawEvent
	for {
		var err error
		batch, err = reader.ExtractBatch(ctx, 1)
		require.NoError(t, err)
		if len(batch) > 0 {
			break
		}
		if ctx.Err() != nil {
			t.Fatal("timed out waiting for message from source topic")
		}
	}
	require.Len(t, batch, 1)
	raw := batch[0]
	assert.Equal(t, []byte("city-general"), raw.Key)
	assert.Equal(t, payload, raw.Value)
	assert.Equal(t, testSourceTopic, raw.Topic)
	require.NotNil(t, raw.Commit, "commit callback should be set")
	require.NoError(t, raw.Commit(ctx))

	report, err := pipeline.NewTransformer(testEngine(), discardLogger()).Transform(ctx, raw)
	require.NoError(t, err)

	writer := kafka.NewWriter(cfg, discardLogger())
	t.Cleanup(func() { _ = writer.Close() })
	require.NoError(t, writer.LoadBatch(ctx, []domain.SurgeReport{report}))

	consumer := newSinkConsumer(broker)
	t.Cleanup(func() { _ = consumer.Close() })

	rm := readReport(ctx, t, consumer)
	assert.Equal(t, "city-general", rm.Key)
	assert.Equal(t, "LOW", rm.Headers["risk_level"])
	_, err = time.Parse(time.RFC3339, rm.Headers["generated_at"])
	assert.NoError(t, err, "generated_at should be valid RFC3339")

	assert.Equal(t, report.ID, rm.Report.ID)
	assert.Equal(t, 29, rm.Report.Risk.Index)
	assert.Len(t, rm.Report.Forecast, 3)
}

// TestPipelineEndToEnd wires the full pipeline (Reader → Transformer → Writer)
// with real Kafka and verifies one report per request.
func TestPipelineEndToEnd(t *testing.T) {
	ctx, cancel := context.WithTimeout(context.Background(), 2*time.Minute)
	defer cancel()

	broker := startKafka(ctx, t)
	createTopic(t, broker, testSourceTopic)
	createTopic(t, broker, testSinkTopic)
	cfg := testConfig(broker, "test-pipeline")

	aqis := map[string]int{"north": 80, "south": 180, "east": 260, "west": 420}
	producer := &kafkago.Writer{Addr: kafkago.TCP(broker), Topic: testSourceTopic}
	t.Cleanup(func() { _ = producer.Close() })

	msgs := make([]kafkago.Message, 0, len(aqis))
	for hospital, aqi := range aqis {
		msgs = append(msgs, kafkago.Message{Key: []byte(hospital), Value: requestPayload(t, hospital, aqi)})
	}
	require.NoError(t, producer.WriteMessages(ctx, msgs...))

	reader := kafka.NewReader(cfg, discardLogger())
	t.Cleanup(func() { _ = reader.Close() })
	writer := kafka.NewWriter(cfg, discardLogger())
	t.Cleanup(func() { _ = writer.Close() })

	metrics := observability.NewMetricsForTesting()
	p := pipeline.New(reader, pipeline.NewTransformer(testEngine(), discardLogger()), writer, discardLogger(), metrics, 50)

	pipelineCtx, pipelineCancel := context.WithCancel(ctx)
	errCh := make(chan error, 1)
	go func() { errCh <- p.Run(pipelineCtx) }()

	consumer := newSinkConsumer(broker)
	t.Cleanup(func() { _ = consumer.Close() })

	received := map[string]reportMessage{}
	for len(received) < len(aqis) {
		rm := readReport(ctx, t, consumer)
		received[rm.Key] = rm
	}

	pipelineCancel()
	require.NoError(t, <-errCh)
	assert.True(t, p.Ready())

	for hospital, aqi := range aqis {
		rm, ok := received[hospital]
		require.True(t, ok, "missing report for %s", hospital)
		assert.Equal(t, hospital, rm.Report.HospitalID)
		assert.Equal(t, string(rm.Report.Risk.Level), rm.Headers["risk_level"])

		hasPollution := false
		for _, a := range rm.Report.Alerts {
			hasPollution = hasPollution || a.Type == domain.AlertPollutionWarning
		}
		assert.Equal(t, aqi > 200, hasPollution, "pollution alert for %s", hospital)
	}
}

// TestPipelineTransformError verifies that an invalid message (poison pill) is
// skipped and the pipeline continues processing valid messages.
func TestPipelineTransformError(t *testing.T) {
	ctx, cancel := context.WithTimeout(context.Background(), 90*time.Second)
	defer cancel()

	broker := startKafka(ctx, t)
	createTopic(t, broker, testSourceTopic)
	createTopic(t, broker, testSinkTopic)
	cfg := testConfig(broker, "test-poison")

	producer := &kafkago.Writer{Addr: kafkago.TCP(broker), Topic: testSourceTopic}
	t.Cleanup(func() { _ = producer.Close() })
	require.NoError(t, producer.WriteMessages(ctx,
		kafkago.Message{Key: []byte("bad"), Value: []byte("not-json{{{")},
		kafkago.Message{Key: []byte("good"), Value: requestPayload(t, "good", 120)},
	))

	reader := kafka.NewReader(cfg, discardLogger())
	t.Cleanup(func() { _ = reader.Close() })
	writer := kafka.NewWriter(cfg, discardLogger())
	t.Cleanup(func() { _ = writer.Close() })

	metrics := observability.NewMetricsForTesting()
	p := pipeline.New(reader, pipeline.NewTransformer(testEngine(), discardLogger()), writer, discardLogger(), metrics, 50)

	pipelineCtx, pipelineCancel := context.WithCancel(ctx)
	errCh := make(chan error, 1)
	go func() { errCh <- p.Run(pipelineCtx) }()

	consumer := newSinkConsumer(broker)
	t.Cleanup(func() { _ = consumer.Close() })

	rm := readReport(ctx, t, consumer)
	assert.Equal(t, "good", rm.Report.HospitalID)

	// Verify no second message arrives (the poison pill was skipped).
	readCtx, readCancel := context.WithTimeout(ctx, 5*time.Second)
	_, err := consumer.ReadMessage(readCtx)
	readCancel()
	assert.Error(t, err, "expected no second message on sink topic")

	pipelineCancel()
	require.NoError(t, <-errCh)
}
