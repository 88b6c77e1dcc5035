package feed

import (
	"context"
	"encoding/json"
	"time"

	"github.com/segmentio/kafka-go"

	"github.com/rzzdr/options-risk-engine/pkg/models"
	"github.com/rzzdr/options-risk-engine/pkg/utils/errors"
	"github.com/rzzdr/options-risk-engine/pkg/utils/logger"
)

// KafkaConfig configures the snapshot consumer
type KafkaConfig struct {
	Brokers []string
	Topic   string
	GroupID string
}

// KafkaSource consumes position/quote snapshots published by the brokerage
// gateway. Each message is one complete snapshot; malformed messages are
// logged and skipped rather than stalling the cycle loop.
type KafkaSource struct {
	reader *kafka.Reader
	log    *logger.Logger
}

// NewKafka creates a Kafka-backed snapshot source
func NewKafka(cfg KafkaConfig) (*KafkaSource, error) {
	if len(cfg.Brokers) == 0 {
		return nil, errors.InvalidArgument("kafka source requires at least one broker")
	}
	if cfg.Topic == "" {
		return nil, errors.InvalidArgument("kafka source requires a topic")
	}
	if cfg.GroupID == "" {
		cfg.GroupID = "risk-engine"
	}

	reader := kafka.NewReader(kafka.ReaderConfig{
		Brokers:  cfg.Brokers,
		Topic:    cfg.Topic,
		GroupID:  cfg.GroupID,
		MinBytes: 1,
		MaxBytes: 10e6,
		MaxWait:  500 * time.Millisecond,
	})

	return &KafkaSource{
		reader: reader,
		log:    logger.GetLogger("feed.kafka").With("topic", cfg.Topic),
	}, nil
}

// Next blocks until a decodable snapshot arrives
func (s *KafkaSource) Next(ctx context.Context) (*models.Snapshot, error) {
	for {
		msg, err := s.reader.ReadMessage(ctx)
		if err != nil {
			return nil, errors.Wrap(err, "failed to read snapshot message")
		}
		var snap models.Snapshot
		if err := json.Unmarshal(msg.Value, &snap); err != nil {
			s.log.Warnf("Skipping malformed snapshot at offset %d: %v", msg.Offset, err)
			continue
		}
		if snap.Time.IsZero() {
			snap.Time = msg.Time.UTC()
		}
		return &snap, nil
	}
}

// Close closes the underlying reader
func (s *KafkaSource) Close() error {
	return s.reader.Close()
}
