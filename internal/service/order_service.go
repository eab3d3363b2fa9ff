package service

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"maps"
	"slices"
	"time"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/metric"

	"github.com/egannguyen/kiosk-ordering/internal/entity"
	"github.com/egannguyen/kiosk-ordering/internal/ledger"
	"github.com/egannguyen/kiosk-ordering/internal/repository"
)

const orderUnavailable = "Unable to place order, please try again later"

// OrderService turns carts into orders and lets staff move orders along.
type OrderService struct {
	store    repository.Store
	ledger   ledger.Ledger
	notifier Notifier
	now      func() time.Time

	placed metric.Int64Counter
}

func NewOrderService(store repository.Store, l ledger.Ledger, notifier Notifier) *OrderService {
	if notifier == nil {
		notifier = NopNotifier{}
	}
	placed, _ := otel.Meter("github.com/egannguyen/kiosk-ordering/internal/service").
		Int64Counter("orders.placed", metric.WithDescription("Orders committed"))
	return &OrderService{
		store:    store,
		ledger:   l,
		notifier: notifier,
		now:      time.Now,
		placed:   placed,
	}
}

// PlaceOrder converts the user's unordered lines into an order. Draining the
// cart, creating the order, claiming the lines and reserving stock commit
// together or not at all. The notification goes out after the commit.
func (s *OrderService) PlaceOrder(ctx context.Context, userID string) (order *entity.Order, err error) {
	ctx, span := tracer.Start(ctx, "OrderService.PlaceOrder")
	defer func() { endSpan(span, err) }()
	span.SetAttributes(attribute.String("user.id", userID))

	slog.Info("Service: Placing order", "user_id", userID)

	if err := checkUser(userID); err != nil {
		return nil, err
	}

	err = s.store.WithinTx(ctx, func(ctx context.Context, r repository.Repositories) error {
		lines, err := r.Carts.DrainUnordered(ctx, userID)
		if err != nil {
			return fmt.Errorf("failed to drain cart: %w", err)
		}
		if len(lines) == 0 {
			return entity.EmptyCart("Cart is empty")
		}

		order = entity.NewOrder(userID, lines, s.now())
		if err := r.Orders.Create(ctx, order); err != nil {
			return fmt.Errorf("failed to create order: %w", err)
		}

		ids := make([]int64, len(lines))
		for i, l := range lines {
			ids[i] = l.ID
		}
		if err := r.Carts.Claim(ctx, ids, order.ID); err != nil {
			return fmt.Errorf("failed to claim cart lines for order %d: %w", order.ID, err)
		}

		for _, res := range reservations(lines) {
			remaining, err := s.ledger.Reserve(ctx, r.Stock, res.productID, res.quantity)
			if err != nil {
				return err
			}
			slog.Debug("Stock reserved", "product_id", res.productID, "quantity", res.quantity, "remaining", remaining)
		}

		oid := order.ID
		for i := range lines {
			lines[i].Ordered = true
			lines[i].OrderID = &oid
		}
		order.Lines = lines
		return nil
	})
	if err != nil {
		if errors.Is(err, entity.ErrEmptyCart) || errors.Is(err, entity.ErrOutOfStock) {
			return nil, err
		}
		slog.Error("Failed to place order", "user_id", userID, "err", err)
		return nil, internalErr(orderUnavailable, err)
	}

	s.placed.Add(ctx, 1)
	span.SetAttributes(attribute.Int64("order.id", order.ID))
	slog.Info("Order placed", "order_id", order.ID, "user_id", userID, "lines", len(order.Lines), "total", order.TotalCost.StringFixed(2))

	notify(ctx, s.notifier, entity.NewOrderPlaced(order))
	return order, nil
}

// UpdateStatus stores any non-empty staff label and refreshes the order date.
func (s *OrderService) UpdateStatus(ctx context.Context, orderID int64, label string) (order *entity.Order, err error) {
	ctx, span := tracer.Start(ctx, "OrderService.UpdateStatus")
	defer func() { endSpan(span, err) }()
	span.SetAttributes(attribute.Int64("order.id", orderID))

	status, err := entity.ParseStatus(label)
	if err != nil {
		return nil, err
	}

	orders := s.store.Repositories().Orders
	order, err = orders.FindByID(ctx, orderID)
	if err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return nil, entity.NotFound("Order not found")
		}
		return nil, internalErr("Unable to update order, please try again later", err)
	}

	date := s.now()
	if date.Before(order.PlacedAt) {
		date = order.PlacedAt
	}
	if err := orders.UpdateStatus(ctx, orderID, status, date); err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return nil, entity.NotFound("Order not found")
		}
		return nil, internalErr("Unable to update order, please try again later", err)
	}
	order.Status = status
	order.Date = date

	slog.Info("Order status updated", "order_id", orderID, "status", status, "phase", status.Phase())
	notify(ctx, s.notifier, entity.NewOrderUpdated(order))
	return order, nil
}

// OrdersForUser returns the user's orders, newest first, with their lines.
func (s *OrderService) OrdersForUser(ctx context.Context, userID string) ([]entity.Order, error) {
	if err := checkUser(userID); err != nil {
		return nil, err
	}
	orders, err := s.store.Repositories().Orders.FindByUser(ctx, userID)
	if err != nil {
		return nil, internalErr("Unable to load orders, please try again later", err)
	}
	return orders, nil
}

// ListOrders returns every order for staff.
func (s *OrderService) ListOrders(ctx context.Context) ([]entity.Order, error) {
	orders, err := s.store.Repositories().Orders.FindAll(ctx)
	if err != nil {
		return nil, internalErr("Unable to load orders, please try again later", err)
	}
	return orders, nil
}

type reservation struct {
	productID int64
	quantity  int
}

// reservations sums line quantities per product, in ascending product id.
// Every placement locks product rows in the same order, so two placements
// touching the same products queue behind each other instead of deadlocking.
func reservations(lines []entity.CartLine) []reservation {
	totals := make(map[int64]int, len(lines))
	for _, l := range lines {
		totals[l.ProductID] += l.Quantity
	}
	out := make([]reservation, 0, len(totals))
	for _, id := range slices.Sorted(maps.Keys(totals)) {
		out = append(out, reservation{productID: id, quantity: totals[id]})
	}
	return out
}
