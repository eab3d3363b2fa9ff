// Package ledger tracks per-product stock. Reserve is the only way stock goes
// down and it never leaves a product below zero.
package ledger

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"

	"github.com/egannguyen/kiosk-ordering/internal/entity"
	"github.com/egannguyen/kiosk-ordering/internal/repository"
)

// Policy selects how Reserve treats a request larger than the stock on hand.
type Policy string

const (
	// PolicyLenient clamps the remaining quantity at zero and lets the
	// reservation through, so concurrent orders can oversell.
	PolicyLenient Policy = "lenient"
	// PolicyStrict fails with OutOfStock and leaves the row untouched.
	PolicyStrict Policy = "strict"
)

// Ledger reserves stock through the StockRepository it is handed, so the same
// ledger works against the plain store or inside a transaction.
type Ledger interface {
	Reserve(ctx context.Context, stock repository.StockRepository, productID int64, quantity int) (int, error)
	IsAvailable(ctx context.Context, stock repository.StockRepository, productID int64) (bool, error)
	Policy() Policy
}

// ForPolicy returns the ledger for name. An empty name means PolicyLenient.
func ForPolicy(name string) (Ledger, error) {
	switch Policy(strings.ToLower(strings.TrimSpace(name))) {
	case "", PolicyLenient:
		return NewLenient(), nil
	case PolicyStrict:
		return NewStrict(), nil
	default:
		return nil, fmt.Errorf("unknown stock policy %q", name)
	}
}

type base struct{}

func (base) IsAvailable(ctx context.Context, stock repository.StockRepository, productID int64) (bool, error) {
	qty, err := stock.Quantity(ctx, productID)
	if err != nil {
		return false, mapErr(productID, err)
	}
	return qty > 0, nil
}

func checkQuantity(quantity int) error {
	if quantity <= 0 {
		return entity.ValidationFailed("Quantity must be positive")
	}
	return nil
}

func mapErr(productID int64, err error) error {
	if errors.Is(err, repository.ErrNotFound) {
		return entity.NotFound("Product %d not found", productID)
	}
	return fmt.Errorf("failed to read stock for product %d: %w", productID, err)
}

type lenient struct{ base }

func NewLenient() Ledger {
	return lenient{}
}

func (lenient) Policy() Policy {
	return PolicyLenient
}

func (lenient) Reserve(ctx context.Context, stock repository.StockRepository, productID int64, quantity int) (int, error) {
	if err := checkQuantity(quantity); err != nil {
		return 0, err
	}

	before, err := stock.Quantity(ctx, productID)
	if err != nil {
		return 0, mapErr(productID, err)
	}

	remaining, err := stock.DecrementClamped(ctx, productID, quantity)
	if err != nil {
		return 0, mapErr(productID, err)
	}

	if before < quantity {
		slog.Warn("Stock clamped at zero", "product_id", productID, "requested", quantity, "available", before)
	}
	return remaining, nil
}

type strict struct{ base }

func NewStrict() Ledger {
	return strict{}
}

func (strict) Policy() Policy {
	return PolicyStrict
}

func (strict) Reserve(ctx context.Context, stock repository.StockRepository, productID int64, quantity int) (int, error) {
	if err := checkQuantity(quantity); err != nil {
		return 0, err
	}

	remaining, ok, err := stock.DecrementIfAvailable(ctx, productID, quantity)
	if err != nil {
		return 0, mapErr(productID, err)
	}
	if !ok {
		return remaining, entity.OutOfStock("Only %d left of product %d, requested %d", remaining, productID, quantity)
	}
	return remaining, nil
}
