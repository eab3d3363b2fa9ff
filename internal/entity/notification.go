package entity

import (
	"fmt"
	"time"
)

// Channel is a broadcast group of live connections.
type Channel string

const (
	ChannelOrders   Channel = "orders"
	ChannelProducts Channel = "products"
)

// ParseChannel accepts the two known channel names.
func ParseChannel(s string) (Channel, error) {
	switch Channel(s) {
	case ChannelOrders, ChannelProducts:
		return Channel(s), nil
	default:
		return "", ValidationFailed("unknown channel %q", s)
	}
}

// NotificationType names what happened.
type NotificationType string

const (
	OrderPlaced    NotificationType = "OrderPlaced"
	OrderUpdated   NotificationType = "OrderUpdated"
	ProductAdded   NotificationType = "ProductAdded"
	ProductUpdated NotificationType = "ProductUpdated"
	ProductDeleted NotificationType = "ProductDeleted"
)

// Notification is what the core emits after a state change. Text is the frame
// sent to live connections; the rest is carried for downstream consumers of
// the event bus.
type Notification struct {
	Type       NotificationType `json:"type"`
	Channel    Channel          `json:"channel"`
	Text       string           `json:"text"`
	OrderID    int64            `json:"order_id,omitempty"`
	ProductID  int64            `json:"product_id,omitempty"`
	Status     OrderStatus      `json:"status,omitempty"`
	OccurredAt time.Time        `json:"occurred_at"`
}

func NewOrderPlaced(o *Order) Notification {
	return Notification{
		Type:       OrderPlaced,
		Channel:    ChannelOrders,
		Text:       fmt.Sprintf("New order placed: %d", o.ID),
		OrderID:    o.ID,
		Status:     o.Status,
		OccurredAt: o.PlacedAt,
	}
}

func NewOrderUpdated(o *Order) Notification {
	return Notification{
		Type:       OrderUpdated,
		Channel:    ChannelOrders,
		Text:       fmt.Sprintf("Order %d updated to %s", o.ID, o.Status),
		OrderID:    o.ID,
		Status:     o.Status,
		OccurredAt: o.Date,
	}
}

func NewProductAdded(p *Product, now time.Time) Notification {
	return Notification{
		Type:       ProductAdded,
		Channel:    ChannelProducts,
		Text:       fmt.Sprintf("New item added: %d", p.ID),
		ProductID:  p.ID,
		OccurredAt: now,
	}
}

func NewProductUpdated(id int64, now time.Time) Notification {
	return Notification{
		Type:       ProductUpdated,
		Channel:    ChannelProducts,
		Text:       fmt.Sprintf("Product with ID %d updated", id),
		ProductID:  id,
		OccurredAt: now,
	}
}

func NewProductDeleted(id int64, now time.Time) Notification {
	return Notification{
		Type:       ProductDeleted,
		Channel:    ChannelProducts,
		Text:       fmt.Sprintf("Product with ID %d deleted", id),
		ProductID:  id,
		OccurredAt: now,
	}
}
