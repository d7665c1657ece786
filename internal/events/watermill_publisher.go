package events

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"time"

	"github.com/ThreeDotsLabs/watermill"
	"github.com/ThreeDotsLabs/watermill-kafka/v2/pkg/kafka"
	"github.com/ThreeDotsLabs/watermill/message"
	"github.com/ThreeDotsLabs/watermill/pubsub/gochannel"
)

type PublisherConfig struct {
	KafkaBrokers []string
	TopicPrefix  string
}

// WatermillPublisher sends JSON events to "<prefix><event type>" topics.
type WatermillPublisher struct {
	publisher   message.Publisher
	topicPrefix string
	logger      *slog.Logger
}

// NewPublisher uses Kafka when brokers are configured and an in-process
// go channel otherwise.
func NewPublisher(cfg PublisherConfig, logger *slog.Logger) (*WatermillPublisher, error) {
	wmLogger := watermill.NewSlogLogger(logger)

	var publisher message.Publisher
	if len(cfg.KafkaBrokers) > 0 {
		kp, err := kafka.NewPublisher(kafka.PublisherConfig{
			Brokers:   cfg.KafkaBrokers,
			Marshaler: kafka.DefaultMarshaler{},
		}, wmLogger)
		if err != nil {
			return nil, fmt.Errorf("failed to create kafka publisher: %w", err)
		}
		publisher = kp
		logger.Info("Event publisher using kafka", "brokers", cfg.KafkaBrokers)
	} else {
		publisher = gochannel.NewGoChannel(gochannel.Config{}, wmLogger)
		logger.Info("Event publisher using in-process channel")
	}

	return NewWatermillPublisher(publisher, cfg.TopicPrefix, logger), nil
}

func NewWatermillPublisher(publisher message.Publisher, topicPrefix string, logger *slog.Logger) *WatermillPublisher {
	return &WatermillPublisher{
		publisher:   publisher,
		topicPrefix: topicPrefix,
		logger:      logger,
	}
}

func (p *WatermillPublisher) Topic(t EventType) string {
	return p.topicPrefix + string(t)
}

func (p *WatermillPublisher) Publish(ctx context.Context, event Event) error {
	if event.ID == "" {
		event.ID = watermill.NewUUID()
	}
	if event.OccurredAt.IsZero() {
		event.OccurredAt = time.Now().UTC()
	}

	payload, err := json.Marshal(event)
	if err != nil {
		return fmt.Errorf("failed to marshal event: %w", err)
	}

	msg := message.NewMessage(event.ID, payload)
	msg.Metadata.Set("event_type", string(event.Type))
	msg.SetContext(ctx)

	if err := p.publisher.Publish(p.Topic(event.Type), msg); err != nil {
		return fmt.Errorf("failed to publish %s: %w", event.Type, err)
	}

	p.logger.Debug("Event published", "event_id", event.ID, "event_type", event.Type)
	return nil
}

func (p *WatermillPublisher) Close() error {
	return p.publisher.Close()
}

// PublishSafe logs publish failures. The error is returned for metrics only;
// callers never fail a committed write because of it.
func PublishSafe(ctx context.Context, publisher EventPublisher, logger *slog.Logger, eventType EventType, payload interface{}) error {
	if publisher == nil {
		return nil
	}
	event := Event{Type: eventType, Payload: payload}
	if err := publisher.Publish(ctx, event); err != nil {
		logger.Warn("Failed to publish event", "event_type", eventType, "error", err)
		return err
	}
	return nil
}
