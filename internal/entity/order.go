package entity

import (
	"strings"
	"time"

	"github.com/shopspring/decimal"
)

// OrderStatus is the label staff give an order. It is deliberately open:
// any non-empty label is stored as given, and Phase maps the well-known ones
// onto the lifecycle PLACED -> IN_PROGRESS -> COMPLETED / CANCELLED.
type OrderStatus string

const (
	StatusPlaced     OrderStatus = "PLACED"
	StatusInProgress OrderStatus = "IN_PROGRESS"
	StatusCompleted  OrderStatus = "COMPLETED"
	StatusCancelled  OrderStatus = "CANCELLED"
)

// Phase is the closed part of the status space.
type Phase int

const (
	PhaseOther Phase = iota
	PhasePlaced
	PhaseInProgress
	PhaseCompleted
	PhaseCancelled
)

func (p Phase) String() string {
	switch p {
	case PhasePlaced:
		return "placed"
	case PhaseInProgress:
		return "in_progress"
	case PhaseCompleted:
		return "completed"
	case PhaseCancelled:
		return "cancelled"
	default:
		return "other"
	}
}

// Phase maps the label onto the lifecycle; unknown labels are PhaseOther.
func (s OrderStatus) Phase() Phase {
	switch strings.ToUpper(strings.TrimSpace(string(s))) {
	case "PLACED", "PENDING":
		return PhasePlaced
	case "IN_PROGRESS", "IN PROGRESS", "PROCESSING":
		return PhaseInProgress
	case "COMPLETED":
		return PhaseCompleted
	case "CANCELLED", "CANCELED":
		return PhaseCancelled
	default:
		return PhaseOther
	}
}

// ParseStatus trims the label and rejects empty ones.
func ParseStatus(label string) (OrderStatus, error) {
	label = strings.TrimSpace(label)
	if label == "" {
		return "", ValidationFailed("Order status is mandatory")
	}
	return OrderStatus(label), nil
}

// Order is the immutable result of converting a cart. TotalCost is fixed at
// placement from the claimed lines' snapshotted prices.
type Order struct {
	ID        int64           `json:"id"`
	UserID    string          `json:"user_id"`
	Status    OrderStatus     `json:"status"`
	PlacedAt  time.Time       `json:"placed_at"`
	Date      time.Time       `json:"date"`
	TotalCost decimal.Decimal `json:"total_cost"`
	Lines     []CartLine      `json:"lines,omitempty"`
}

// NewOrder builds an unsaved order for lines at now.
func NewOrder(userID string, lines []CartLine, now time.Time) *Order {
	return &Order{
		UserID:    userID,
		Status:    StatusPlaced,
		PlacedAt:  now,
		Date:      now,
		TotalCost: Total(lines),
	}
}
