// Package messaging carries notifications over a watermill bus. Services
// publish through Notifier; the Relay router consumes both topics and hands
// each notification to the live-connection hub.
package messaging

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/ThreeDotsLabs/watermill"
	"github.com/ThreeDotsLabs/watermill/message"
	"github.com/ThreeDotsLabs/watermill/message/router/middleware"
	"github.com/ThreeDotsLabs/watermill/pubsub/gochannel"
	"github.com/google/uuid"

	"github.com/egannguyen/kiosk-ordering/internal/entity"
)

const (
	TopicOrderEvents   = "kiosk.orders.events"
	TopicProductEvents = "kiosk.products.events"

	metadataType = "type"
)

// TopicFor maps a hub channel to its bus topic.
func TopicFor(ch entity.Channel) string {
	if ch == entity.ChannelProducts {
		return TopicProductEvents
	}
	return TopicOrderEvents
}

// Bus pairs the publisher and subscriber of one transport.
type Bus struct {
	Publisher  message.Publisher
	Subscriber message.Subscriber
}

func (b Bus) Close() error {
	return errors.Join(b.Publisher.Close(), b.Subscriber.Close())
}

// NewGoChannelBus is the in-process transport used when no brokers are configured.
func NewGoChannelBus(logger watermill.LoggerAdapter) Bus {
	ch := gochannel.NewGoChannel(gochannel.Config{OutputChannelBuffer: 256}, logger)
	return Bus{Publisher: ch, Subscriber: ch}
}

// Notifier publishes notifications as JSON messages, one topic per channel.
type Notifier struct {
	pub message.Publisher
}

func NewNotifier(pub message.Publisher) *Notifier {
	return &Notifier{pub: pub}
}

func (n *Notifier) Notify(ctx context.Context, note entity.Notification) error {
	payload, err := json.Marshal(note)
	if err != nil {
		return fmt.Errorf("failed to marshal notification: %w", err)
	}

	msg := message.NewMessage(uuid.New().String(), payload)
	msg.Metadata.Set(metadataType, string(note.Type))
	msg.SetContext(ctx)

	if err := n.pub.Publish(TopicFor(note.Channel), msg); err != nil {
		return entity.TransportFailure("failed to publish notification", err)
	}
	return nil
}

// Broadcaster is where relayed notifications end up.
type Broadcaster interface {
	Notify(ctx context.Context, n entity.Notification) error
}

// NewRelay builds a router that feeds both notification topics from sub into b.
// Run it with router.Run and stop it with router.Close.
func NewRelay(sub message.Subscriber, b Broadcaster, logger watermill.LoggerAdapter) (*message.Router, error) {
	router, err := message.NewRouter(message.RouterConfig{CloseTimeout: 10 * time.Second}, logger)
	if err != nil {
		return nil, fmt.Errorf("failed to create router: %w", err)
	}

	router.AddMiddleware(
		middleware.Recoverer,
		middleware.Retry{
			MaxRetries:      3,
			InitialInterval: 100 * time.Millisecond,
			Logger:          logger,
		}.Middleware,
	)

	handle := relayHandler(b)
	router.AddNoPublisherHandler("OrderEventsRelay", TopicOrderEvents, sub, handle)
	router.AddNoPublisherHandler("ProductEventsRelay", TopicProductEvents, sub, handle)
	return router, nil
}

func relayHandler(b Broadcaster) message.NoPublishHandlerFunc {
	return func(msg *message.Message) error {
		var note entity.Notification
		if err := json.Unmarshal(msg.Payload, &note); err != nil {
			// a payload we cannot read will never succeed; ack it
			slog.Error("Dropping malformed notification", "message_uuid", msg.UUID, "err", err)
			return nil
		}
		if _, err := entity.ParseChannel(string(note.Channel)); err != nil {
			slog.Error("Dropping notification for unknown channel", "message_uuid", msg.UUID, "channel", note.Channel)
			return nil
		}

		slog.Debug("Relaying notification", "type", msg.Metadata.Get(metadataType), "channel", note.Channel)
		return b.Notify(msg.Context(), note)
	}
}
