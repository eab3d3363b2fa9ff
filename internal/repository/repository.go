package repository

import (
	"context"
	"errors"
	"time"

	"github.com/egannguyen/kiosk-ordering/internal/entity"
)

var (
	// ErrNotFound is returned when a row does not exist.
	ErrNotFound = errors.New("record not found")
	// ErrAlreadyClaimed is returned by Claim when a line was ordered by someone else.
	ErrAlreadyClaimed = errors.New("cart line already claimed")
)

// ProductRepository handles persistence for Products. Implementations call
// Product.Normalize before every write.
type ProductRepository interface {
	FindAll(ctx context.Context) ([]entity.Product, error)
	FindByID(ctx context.Context, id int64) (*entity.Product, error)
	FindByCategory(ctx context.Context, category string) ([]entity.Product, error)
	// Create assigns p.ID.
	Create(ctx context.Context, p *entity.Product) error
	Update(ctx context.Context, p *entity.Product) error
	Delete(ctx context.Context, id int64) error
	// Seed inserts initial products if none exist.
	Seed(ctx context.Context, products []entity.Product) error
}

// StockRepository exposes the per-row atomic stock primitives the ledger is
// built on. Each call is a single read-modify-write on one product row.
type StockRepository interface {
	Quantity(ctx context.Context, productID int64) (int, error)
	// DecrementClamped sets quantity to max(0, quantity-n) and returns the result.
	DecrementClamped(ctx context.Context, productID int64, n int) (int, error)
	// DecrementIfAvailable subtracts n only when quantity >= n. ok is false
	// and the row untouched otherwise.
	DecrementIfAvailable(ctx context.Context, productID int64, n int) (remaining int, ok bool, err error)
}

// CartRepository handles persistence for cart lines. Every mutation of an
// existing line is guarded by "not ordered" so a claimed line stays immutable
// even when a write races with order placement.
type CartRepository interface {
	FindByID(ctx context.Context, id int64) (*entity.CartLine, error)
	FindUnordered(ctx context.Context, userID string, productID int64, size string) (*entity.CartLine, error)
	// Insert assigns l.ID. When the user already has an unordered line for the
	// same product and size, l.Quantity is added to it instead and l is
	// refreshed from the stored line.
	Insert(ctx context.Context, l *entity.CartLine) error
	// IncrementUnordered adds delta to an unordered line. It reports false when
	// the line no longer exists or has been ordered.
	IncrementUnordered(ctx context.Context, id int64, delta int) (bool, error)
	// UpdateUnordered writes quantity, size and price of an unordered line.
	UpdateUnordered(ctx context.Context, l *entity.CartLine) (bool, error)
	DeleteUnordered(ctx context.Context, id int64, userID string) (bool, error)
	ListByUser(ctx context.Context, userID string, unorderedOnly bool) ([]entity.CartLine, error)
	ListByOrder(ctx context.Context, orderID int64) ([]entity.CartLine, error)
	// DrainUnordered returns the user's unordered lines and, inside a
	// transaction, locks them so no concurrent drain can return them too.
	DrainUnordered(ctx context.Context, userID string) ([]entity.CartLine, error)
	// Claim marks lines as ordered by orderID. It fails with ErrAlreadyClaimed
	// unless every line was still unordered.
	Claim(ctx context.Context, lineIDs []int64, orderID int64) error
}

// OrderRepository handles persistence for Orders. Reads include the claimed lines.
type OrderRepository interface {
	// Create assigns o.ID.
	Create(ctx context.Context, o *entity.Order) error
	FindByID(ctx context.Context, id int64) (*entity.Order, error)
	FindByUser(ctx context.Context, userID string) ([]entity.Order, error)
	FindAll(ctx context.Context) ([]entity.Order, error)
	UpdateStatus(ctx context.Context, id int64, status entity.OrderStatus, date time.Time) error
}

// Repositories groups the stores that share one consistency scope.
type Repositories struct {
	Products ProductRepository
	Stock    StockRepository
	Carts    CartRepository
	Orders   OrderRepository
}

// Store is the single consistent store behind the core.
type Store interface {
	Repositories() Repositories
	// WithinTx runs fn as one atomic unit: either every write made through the
	// Repositories handed to fn is committed, or none is.
	WithinTx(ctx context.Context, fn func(ctx context.Context, r Repositories) error) error
	Close() error
}
