package notifications

import (
	"context"
	"fmt"
	"time"

	"ticketcore/internal/shared/config"
	"ticketcore/pkg/logger"

	"github.com/IBM/sarama"
)

// Publisher delivers settlement events to downstream consumers.
// Publishing happens after commit, so a failure never rolls back a ledger write.
//
// TODO: move to a transactional outbox table so events survive a crash between commit and publish.
type Publisher interface {
	Publish(ctx context.Context, event *SettlementEvent) error
	Close() error
}

type KafkaProducerConfig struct {
	Brokers          []string
	Topic            string
	RetryMax         int
	Timeout          time.Duration
	RequiredAcks     sarama.RequiredAcks
	CompressionType  sarama.CompressionCodec
	IdempotentWrites bool
}

func ProducerConfigFrom(cfg config.KafkaConfig) *KafkaProducerConfig {
	return &KafkaProducerConfig{
		Brokers:          cfg.Brokers,
		Topic:            cfg.Topic,
		RetryMax:         cfg.RetryMax,
		Timeout:          cfg.Timeout,
		RequiredAcks:     sarama.WaitForAll,
		CompressionType:  sarama.CompressionSnappy,
		IdempotentWrites: true,
	}
}

// KafkaPublisher writes settlement events to a single topic keyed by order id
type KafkaPublisher struct {
	producer sarama.SyncProducer
	topic    string
	log      *logger.Logger
}

func NewKafkaPublisher(cfg *KafkaProducerConfig, log *logger.Logger) (*KafkaPublisher, error) {
	saramaConfig := sarama.NewConfig()
	saramaConfig.Producer.Return.Successes = true
	saramaConfig.Producer.Return.Errors = true
	saramaConfig.Producer.RequiredAcks = cfg.RequiredAcks
	saramaConfig.Producer.Compression = cfg.CompressionType
	saramaConfig.Producer.Retry.Max = cfg.RetryMax
	saramaConfig.Producer.Timeout = cfg.Timeout
	saramaConfig.Producer.Idempotent = cfg.IdempotentWrites
	if cfg.IdempotentWrites {
		saramaConfig.Net.MaxOpenRequests = 1
	}
	saramaConfig.Producer.Partitioner = sarama.NewHashPartitioner

	producer, err := sarama.NewSyncProducer(cfg.Brokers, saramaConfig)
	if err != nil {
		return nil, fmt.Errorf("failed to create Kafka producer: %w", err)
	}
	return NewKafkaPublisherWithProducer(producer, cfg.Topic, log), nil
}

func NewKafkaPublisherWithProducer(producer sarama.SyncProducer, topic string, log *logger.Logger) *KafkaPublisher {
	return &KafkaPublisher{producer: producer, topic: topic, log: log}
}

func (p *KafkaPublisher) Publish(ctx context.Context, event *SettlementEvent) error {
	payload, err := event.ToJSON()
	if err != nil {
		return fmt.Errorf("failed to marshal settlement event: %w", err)
	}

	message := &sarama.ProducerMessage{
		Topic:     p.topic,
		Key:       sarama.StringEncoder(event.PartitionKey()),
		Value:     sarama.ByteEncoder(payload),
		Headers:   headersFor(event),
		Timestamp: event.OccurredAt,
	}

	partition, offset, err := p.producer.SendMessage(message)
	if err != nil {
		return fmt.Errorf("failed to send settlement event to Kafka: %w", err)
	}

	p.log.DebugContext(ctx, "Settlement Event Published",
		"type", string(event.Type),
		"partition", partition,
		"offset", offset,
	)
	return nil
}

func headersFor(event *SettlementEvent) []sarama.RecordHeader {
	headers := []sarama.RecordHeader{
		{Key: []byte("event_id"), Value: []byte(event.ID.String())},
		{Key: []byte("event_type"), Value: []byte(event.Type)},
		{Key: []byte("producer"), Value: []byte("ticketcore-settlement")},
		{Key: []byte("occurred_at"), Value: []byte(event.OccurredAt.Format(time.RFC3339))},
	}
	if event.OrderID != nil {
		headers = append(headers, sarama.RecordHeader{Key: []byte("order_id"), Value: []byte(event.OrderID.String())})
	}
	return headers
}

func (p *KafkaPublisher) Close() error {
	if p.producer == nil {
		return nil
	}
	if err := p.producer.Close(); err != nil {
		return fmt.Errorf("failed to close Kafka producer: %w", err)
	}
	return nil
}

// NopPublisher drops events; used when Kafka is disabled
type NopPublisher struct{}

func (NopPublisher) Publish(context.Context, *SettlementEvent) error { return nil }
func (NopPublisher) Close() error                                    { return nil }

// PublishAsync sends event on a detached goroutine and logs failures.
func PublishAsync(ctx context.Context, publisher Publisher, log *logger.Logger, event *SettlementEvent) {
	if publisher == nil {
		return
	}
	ctx = context.WithoutCancel(ctx)
	go func() {
		if err := publisher.Publish(ctx, event); err != nil {
			log.ErrorWithContext(ctx, "Settlement event publish failed", err, map[string]interface{}{
				"type": string(event.Type),
			})
		}
	}()
}
