// Package kafka provides the Kafka transport for the notification bus.
package kafka

import (
	"fmt"

	"github.com/IBM/sarama"
	"github.com/ThreeDotsLabs/watermill"
	wkafka "github.com/ThreeDotsLabs/watermill-kafka/v3/pkg/kafka"

	"github.com/egannguyen/kiosk-ordering/internal/messaging"
)

const clientID = "kiosk-ordering"

type Config struct {
	Brokers       []string
	ConsumerGroup string
}

func publisherConfig() *sarama.Config {
	cfg := wkafka.DefaultSaramaSyncPublisherConfig()
	cfg.ClientID = clientID
	cfg.Producer.RequiredAcks = sarama.WaitForLocal
	return cfg
}

func subscriberConfig() *sarama.Config {
	cfg := wkafka.DefaultSaramaSubscriberConfig()
	cfg.ClientID = clientID
	// Notifications are only interesting while they are fresh.
	cfg.Consumer.Offsets.Initial = sarama.OffsetNewest
	return cfg
}

// NewBus connects a watermill publisher and a consumer-group subscriber to the brokers.
func NewBus(cfg Config, logger watermill.LoggerAdapter) (messaging.Bus, error) {
	if len(cfg.Brokers) == 0 {
		return messaging.Bus{}, fmt.Errorf("no kafka brokers configured")
	}

	pub, err := wkafka.NewPublisher(wkafka.PublisherConfig{
		Brokers:               cfg.Brokers,
		Marshaler:             wkafka.DefaultMarshaler{},
		OverwriteSaramaConfig: publisherConfig(),
	}, logger)
	if err != nil {
		return messaging.Bus{}, fmt.Errorf("failed to create kafka publisher: %w", err)
	}

	sub, err := wkafka.NewSubscriber(wkafka.SubscriberConfig{
		Brokers:               cfg.Brokers,
		Unmarshaler:           wkafka.DefaultMarshaler{},
		OverwriteSaramaConfig: subscriberConfig(),
		ConsumerGroup:         cfg.ConsumerGroup,
	}, logger)
	if err != nil {
		_ = pub.Close()
		return messaging.Bus{}, fmt.Errorf("failed to create kafka subscriber: %w", err)
	}

	return messaging.Bus{Publisher: pub, Subscriber: sub}, nil
}
