package consumer

import (
	"time"

	"github.com/segmentio/kafka-go"
)

// ReaderConfig describes a consumer-group reader for one topic.
type ReaderConfig struct {
	Brokers []string
	GroupID string
	Topic   string
	// FromLatest starts a group without committed offsets at the end of the
	// topic instead of replaying it.
	FromLatest bool
}

// NewKafkaReader builds a kafka.Reader that commits explicitly through the Processor.
func NewKafkaReader(cfg ReaderConfig) *kafka.Reader {
	start := kafka.FirstOffset
	if cfg.FromLatest {
		start = kafka.LastOffset
	}
	return kafka.NewReader(kafka.ReaderConfig{
		Brokers:        cfg.Brokers,
		GroupID:        cfg.GroupID,
		Topic:          cfg.Topic,
		MinBytes:       1,
		MaxBytes:       10e6,
		MaxWait:        500 * time.Millisecond,
		CommitInterval: 0,
		StartOffset:    start,
	})
}
