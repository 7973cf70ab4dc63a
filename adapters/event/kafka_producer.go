package event

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/segmentio/kafka-go"

	"github.com/khoahotran/blog-search/internal/config"
	"github.com/khoahotran/blog-search/internal/domain/search"
	"github.com/khoahotran/blog-search/pkg/logger"
)

const (
	TopicPostEvents   = "post.events"
	TopicSearchEvents = "search.events"
)

type KafkaProducerClient struct {
	SearchEventsWriter *kafka.Writer
	instanceID         string
	logger             logger.Logger
}

// NewKafkaProducerClient builds the search.events writer. instanceID is
// stamped on every index event as its source.
func NewKafkaProducerClient(cfg config.Config, instanceID string, log logger.Logger) (*KafkaProducerClient, error) {
	brokers := cfg.Kafka.Brokers
	if len(brokers) == 0 {
		return nil, fmt.Errorf("config Kafka brokers not found")
	}

	// writer 'search.events'
	searchWriter := &kafka.Writer{
		Addr:         kafka.TCP(brokers...),
		Topic:        TopicSearchEvents,
		Balancer:     &kafka.LeastBytes{},
		BatchTimeout: 10 * time.Millisecond,
	}

	log.Info("Initialize Kafka Producer successfully.")

	return &KafkaProducerClient{
		SearchEventsWriter: searchWriter,
		instanceID:         instanceID,
		logger:             log,
	}, nil
}

func (c *KafkaProducerClient) PublishIndexEvent(ctx context.Context, e search.IndexEvent) error {
	payload := NewIndexEventPayload(e, c.instanceID)
	value, err := json.Marshal(payload)
	if err != nil {
		return fmt.Errorf("failed to marshal index event: %w", err)
	}
	return c.SearchEventsWriter.WriteMessages(ctx, kafka.Message{
		Key:   []byte(payload.EventID.String()),
		Value: value,
	})
}

func (c *KafkaProducerClient) Close() {
	if c.SearchEventsWriter != nil {
		c.SearchEventsWriter.Close()
	}
	c.logger.Info("Closed Kafka Producer")
}

// NoopPublisher drops index events. Used when no brokers are configured.
type NoopPublisher struct{}

func (NoopPublisher) PublishIndexEvent(context.Context, search.IndexEvent) error { return nil }

func NewIndexEventPayload(e search.IndexEvent, source string) IndexEventPayload {
	if e.Source != "" {
		source = e.Source
	}
	return IndexEventPayload{
		EventID:    uuid.New(),
		EventType:  e.Type,
		DocumentID: e.DocumentID,
		Indexed:    e.Indexed,
		Source:     source,
		OccurredAt: time.Now().UTC(),
	}
}
