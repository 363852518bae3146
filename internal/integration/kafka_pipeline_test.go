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

	"github.com/couchcryptid/radar-transform-service/internal/adapter/kafka"
	"github.com/couchcryptid/radar-transform-service/internal/catalog"
	"github.com/couchcryptid/radar-transform-service/internal/config"
	"github.com/couchcryptid/radar-transform-service/internal/domain"
	"github.com/couchcryptid/radar-transform-service/internal/observability"
	"github.com/couchcryptid/radar-transform-service/internal/pipeline"
	"github.com/couchcryptid/radar-transform-service/internal/projection"
	"github.com/couchcryptid/radar-transform-service/internal/transform"
	kafkago "github.com/segmentio/kafka-go"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/testcontainers/testcontainers-go"
	tckafka "github.com/testcontainers/testcontainers-go/modules/kafka"
)

const (
	testSourceTopic = "test-product-requests"
	testSinkTopic   = "test-products"
	catalogPath     = "../../config/catalog.yaml"
)

// publishedProduct holds a deserialized message read from the sink topic.
type publishedProduct struct {
	Product domain.Product
	Key     string
	Headers map[string]string
}

func discardLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

func startKafka(ctx context.Context, t *testing.T) string {
	t.Helper()
	container, err := tckafka.Run(ctx, "confluentinc/confluent-local:7.5.0",
		tckafka.WithClusterID("radar-transform-test"))
	require.NoError(t, err, "start kafka container")
	t.Cleanup(func() {
		if err := testcontainers.TerminateContainer(container); err != nil {
			t.Logf("terminate kafka container: %v", err)
		}
	})

	brokers, err := container.Brokers(ctx)
	require.NoError(t, err)
	require.NotEmpty(t, brokers)
	return brokers[0]
}

func createTopic(t *testing.T, broker, topic string) {
	t.Helper()
	conn, err := kafkago.Dial("tcp", broker)
	require.NoError(t, err)
	defer conn.Close()

	controller, err := conn.Controller()
	require.NoError(t, err)
	ctrl, err := kafkago.Dial("tcp", net.JoinHostPort(controller.Host, strconv.Itoa(controller.Port)))
	require.NoError(t, err)
	defer ctrl.Close()

	require.NoError(t, ctrl.CreateTopics(kafkago.TopicConfig{
		Topic:             topic,
		NumPartitions:     1,
		ReplicationFactor: 1,
	}))
}

func testConfig(broker, group string) *config.Config {
	return &config.Config{
		KafkaBrokers:       []string{broker},
		KafkaSourceTopic:   testSourceTopic,
		KafkaSinkTopic:     testSinkTopic,
		KafkaGroupID:       fmt.Sprintf("%s-%d", group, time.Now().UnixNano()),
		BatchFlushInterval: 5 * time.Second,
	}
}

func newTransformer(t *testing.T) *pipeline.ProductTransformer {
	t.Helper()
	cat, err := catalog.Load(catalogPath)
	require.NoError(t, err)
	cache := projection.NewCachedTransformer(projection.Proj4{}, 8, nil)
	engine := transform.NewEngine(cache, discardLogger())
	return pipeline.NewTransformer(cat, engine, discardLogger(), observability.NewMetricsForTesting())
}

// ppiRequest is a three bin sweep at lon/lat 0/0 of raw 100, for the
// test-merc-10 area of the shipped catalog.
func ppiRequest(t *testing.T, id string) []byte {
	t.Helper()
	rows := make([][]float64, 36)
	for i := range rows {
		rows[i] = []float64{100, 100, 100}
	}
	req := domain.ProductRequest{
		ID:      id,
		Product: domain.ProductPPI,
		Area:    "test-merc-10",
		Sweep: &domain.SweepPayload{
			Elangle: 0.5,
			RScale:  1000,
			Time:    time.Date(2024, time.May, 1, 12, 0, 0, 0, time.UTC),
			Params: []domain.ParamPayload{{
				Quantity: "DBZH",
				Type:     "uint8",
				Gain:     0.5,
				Offset:   -32,
				Nodata:   255,
				Data:     rows,
			}},
		},
	}
	data, err := json.Marshal(req)
	require.NoError(t, err)
	return data
}

func readProduct(ctx context.Context, t *testing.T, consumer *kafkago.Reader) publishedProduct {
	t.Helper()
	readCtx, cancel := context.WithTimeout(ctx, 30*time.Second)
	defer cancel()

	msg, err := consumer.ReadMessage(readCtx)
	require.NoError(t, err, "read from sink topic")

	headers := make(map[string]string, len(msg.Headers))
	for _, h := range msg.Headers {
		headers[h.Key] = string(h.Value)
	}
	var product domain.Product
	require.NoError(t, json.Unmarshal(msg.Value, &product), "unmarshal sink message")
	return publishedProduct{Product: product, Key: string(msg.Key), Headers: headers}
}

func sinkConsumer(t *testing.T, broker string) *kafkago.Reader {
	t.Helper()
	consumer := kafkago.NewReader(kafkago.ReaderConfig{
		Brokers:     []string{broker},
		Topic:       testSinkTopic,
		GroupID:     fmt.Sprintf("test-sink-%d", time.Now().UnixNano()),
		StartOffset: kafkago.FirstOffset,
	})
	t.Cleanup(func() { _ = consumer.Close() })
	return consumer
}

// TestKafkaReaderWriter round-trips a request through the Reader, the
// transformer and the Writer.
func TestKafkaReaderWriter(t *testing.T) {
	ctx, cancel := context.WithTimeout(context.Background(), 90*time.Second)
	defer cancel()

	broker := startKafka(ctx, t)
	createTopic(t, broker, testSourceTopic)
	createTopic(t, broker, testSinkTopic)
	cfg := testConfig(broker, "test-reader")

	payload := ppiRequest(t, "req-1")
	producer := &kafkago.Writer{Addr: kafkago.TCP(broker), Topic: testSourceTopic}
	t.Cleanup(func() { _ = producer.Close() })
	require.NoError(t, producer.WriteMessages(ctx, kafkago.Message{Key: []byte("req-1"), Value: payload}))

	// The consumer group may need time to rebalance before messages arrive.
	reader := kafka.NewReader(cfg, discardLogger())
	t.Cleanup(func() { _ = reader.Close() })

	var batch []domain.RawEvent
	for len(batch) == 0 {
		var err error
		batch, err = reader.ExtractBatch(ctx, 1)
		require.NoError(t, err)
		if ctx.Err() != nil {
			t.Fatal("timed out waiting for message from source topic")
		}
	}
	require.Len(t, batch, 1)
	raw := batch[0]
	assert.Equal(t, []byte("req-1"), raw.Key)
	assert.Equal(t, payload, raw.Value)
	assert.Equal(t, testSourceTopic, raw.Topic)
	require.NotNil(t, raw.Commit, "commit callback should be set")
	require.NoError(t, raw.Commit(ctx))

	out, err := newTransformer(t).Transform(ctx, raw)
	require.NoError(t, err)

	writer := kafka.NewWriter(cfg, discardLogger())
	t.Cleanup(func() { _ = writer.Close() })
	require.NoError(t, writer.LoadBatch(ctx, []domain.OutputEvent{out}))

	pp := readProduct(ctx, t, sinkConsumer(t, broker))
	assert.Equal(t, pp.Product.ID, pp.Key)
	assert.Equal(t, "ppi", pp.Headers["product"])
	assert.Equal(t, "DBZH", pp.Headers["quantity"])
	_, err = time.Parse(time.RFC3339, pp.Headers["generated_at"])
	assert.NoError(t, err, "generated_at should be valid RFC3339")

	assert.Equal(t, "req-1", pp.Product.RequestID)
	require.NotNil(t, pp.Product.Grid)
	assert.Equal(t, 100, pp.Product.Stats.Cells)
	assert.Equal(t, 32, pp.Product.Stats.Data)
}

// TestPipelineEndToEnd runs the full pipeline against Kafka and checks that
// every request yields one product and that poison pills are skipped.
func TestPipelineEndToEnd(t *testing.T) {
	ctx, cancel := context.WithTimeout(context.Background(), 2*time.Minute)
	defer cancel()

	broker := startKafka(ctx, t)
	createTopic(t, broker, testSourceTopic)
	createTopic(t, broker, testSinkTopic)
	cfg := testConfig(broker, "test-pipeline")

	const requests = 5
	msgs := []kafkago.Message{
		{Key: []byte("bad-json"), Value: []byte("not-json{{{")},
		{Key: []byte("bad-area"), Value: []byte(`{"product":"ppi","area":"nowhere","sweep":{"rscale":1000,"params":[{"quantity":"DBZH","data":[[1]]}]}}`)},
	}
	for i := 0; i < requests; i++ {
		id := "req-" + strconv.Itoa(i)
		msgs = append(msgs, kafkago.Message{Key: []byte(id), Value: ppiRequest(t, id)})
	}
	producer := &kafkago.Writer{Addr: kafkago.TCP(broker), Topic: testSourceTopic}
	t.Cleanup(func() { _ = producer.Close() })
	require.NoError(t, producer.WriteMessages(ctx, msgs...))

	reader := kafka.NewReader(cfg, discardLogger())
	t.Cleanup(func() { _ = reader.Close() })
	writer := kafka.NewWriter(cfg, discardLogger())
	t.Cleanup(func() { _ = writer.Close() })

	metrics := observability.NewMetricsForTesting()
	p := pipeline.New(reader, newTransformer(t), writer, discardLogger(), metrics, 50)

	pipelineCtx, pipelineCancel := context.WithCancel(ctx)
	errCh := make(chan error, 1)
	go func() { errCh <- p.Run(pipelineCtx) }()

	consumer := sinkConsumer(t, broker)
	seen := map[string]bool{}
	for len(seen) < requests {
		pp := readProduct(ctx, t, consumer)
		assert.Equal(t, "ppi", pp.Headers["product"])
		assert.Equal(t, 32, pp.Product.Stats.Data)
		seen[pp.Product.RequestID] = true
	}

	// Nothing further: the two bad requests were skipped.
	readCtx, readCancel := context.WithTimeout(ctx, 5*time.Second)
	_, err := consumer.ReadMessage(readCtx)
	readCancel()
	assert.Error(t, err, "expected no further messages on sink topic")

	pipelineCancel()
	require.NoError(t, <-errCh)
	assert.NoError(t, p.CheckReadiness(ctx))
}
