package audit

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"

	"github.com/twmb/franz-go/pkg/kgo"
)

// KafkaSink streams audit entries to a topic for downstream compliance
// consumers. Delivery is asynchronous; failures are logged and dropped because
// the store already holds the authoritative copy.
type KafkaSink struct {
	client *kgo.Client
	topic  string
	logger *slog.Logger
}

func NewKafkaSink(brokers []string, topic string, logger *slog.Logger) (*KafkaSink, error) {
	client, err := kgo.NewClient(
		kgo.SeedBrokers(brokers...),
		kgo.DefaultProduceTopic(topic),
		kgo.ProducerBatchCompression(kgo.SnappyCompression()),
	)
	if err != nil {
		return nil, fmt.Errorf("create kafka client: %w", err)
	}
	return &KafkaSink{client: client, topic: topic, logger: logger}, nil
}

func (s *KafkaSink) Publish(ctx context.Context, entry Entry) {
	payload, err := json.Marshal(entry)
	if err != nil {
		s.logger.ErrorContext(ctx, "marshal audit entry for kafka", "error", err)
		return
	}
	record := &kgo.Record{
		Topic: s.topic,
		Key:   []byte(entry.TargetModel + "/" + entry.TargetID),
		Value: payload,
	}
	s.client.Produce(context.WithoutCancel(ctx), record, func(_ *kgo.Record, err error) {
		if err != nil {
			s.logger.Error("audit kafka publish failed",
				"error", err,
				"target", entry.TargetModel+"/"+entry.TargetID,
			)
		}
	})
}

// Close flushes pending records and releases the client.
func (s *KafkaSink) Close(ctx context.Context) error {
	if err := s.client.Flush(ctx); err != nil {
		return err
	}
	s.client.Close()
	return nil
}
