package sink

import (
	"context"
	"time"

	"github.com/segmentio/kafka-go"

	"github.com/rzzdr/options-risk-engine/pkg/models"
	"github.com/rzzdr/options-risk-engine/pkg/utils/circuit"
	"github.com/rzzdr/options-risk-engine/pkg/utils/errors"
	"github.com/rzzdr/options-risk-engine/pkg/utils/logger"
)

// KafkaConfig configures the Kafka record stream
type KafkaConfig struct {
	Brokers      []string
	Topic        string
	BatchTimeout time.Duration
}

// KafkaSink publishes every cycle record to a Kafka topic, keyed by
// scope and symbol so per-contract history lands in one partition. Writes go
// through a circuit breaker: when the brokers are down, cycles keep flowing
// to the other sinks instead of blocking on retries.
type KafkaSink struct {
	writer  *kafka.Writer
	breaker *circuit.Breaker
	log     *logger.Logger
}

// NewKafka creates a Kafka sink for the given brokers and topic
func NewKafka(cfg KafkaConfig) (*KafkaSink, error) {
	if len(cfg.Brokers) == 0 {
		return nil, errors.InvalidArgument("kafka sink requires at least one broker")
	}
	if cfg.Topic == "" {
		return nil, errors.InvalidArgument("kafka sink requires a topic")
	}
	if cfg.BatchTimeout <= 0 {
		cfg.BatchTimeout = 50 * time.Millisecond
	}

	writer := &kafka.Writer{
		Addr:         kafka.TCP(cfg.Brokers...),
		Topic:        cfg.Topic,
		Balancer:     &kafka.Hash{},
		RequiredAcks: kafka.RequireAll,
		BatchTimeout: cfg.BatchTimeout,
	}

	return &KafkaSink{
		writer:  writer,
		breaker: circuit.NewBreaker("kafka-sink", circuit.DefaultConfig()),
		log:     logger.GetLogger("sink.kafka").With("topic", cfg.Topic),
	}, nil
}

// Name identifies this sink
func (s *KafkaSink) Name() string {
	return "kafka"
}

// Emit publishes one message per record
func (s *KafkaSink) Emit(ctx context.Context, res *models.CycleResult) error {
	records, err := Encode(res)
	if err != nil {
		return errors.Wrap(err, "failed to encode cycle records")
	}

	messages := make([]kafka.Message, len(records))
	for i, rec := range records {
		messages[i] = kafka.Message{
			Key:   []byte(rec.Scope + ":" + rec.Key),
			Value: rec.Data,
		}
	}

	return s.breaker.Do(func() error {
		if err := s.writer.WriteMessages(ctx, messages...); err != nil {
			return errors.Wrap(err, "failed to publish cycle records")
		}
		return nil
	})
}

// Close closes the underlying writer
func (s *KafkaSink) Close() error {
	return s.writer.Close()
}
