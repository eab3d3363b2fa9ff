package service

import (
	"context"
	"errors"
	"sync"
	"testing"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"

	"github.com/egannguyen/kiosk-ordering/internal/entity"
	"github.com/egannguyen/kiosk-ordering/internal/ledger"
	"github.com/egannguyen/kiosk-ordering/internal/repository/memory"
)

// recordingNotifier keeps every notification it is handed.
type recordingNotifier struct {
	mu    sync.Mutex
	notes []entity.Notification
}

func (r *recordingNotifier) Notify(_ context.Context, n entity.Notification) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.notes = append(r.notes, n)
	return nil
}

func (r *recordingNotifier) texts() []string {
	r.mu.Lock()
	defer r.mu.Unlock()
	out := make([]string, len(r.notes))
	for i, n := range r.notes {
		out[i] = n.Text
	}
	return out
}

// MockNotifier lets a test script notifier failures.
type MockNotifier struct {
	mock.Mock
}

func (m *MockNotifier) Notify(ctx context.Context, n entity.Notification) error {
	args := m.Called(ctx, n)
	return args.Error(0)
}

type fixture struct {
	store    *memory.Store
	notifier *recordingNotifier
	carts    *CartService
	orders   *OrderService
	products *ProductService
}

func newFixture(t *testing.T, l ledger.Ledger) *fixture {
	t.Helper()
	store := memory.NewStore()
	n := &recordingNotifier{}
	return &fixture{
		store:    store,
		notifier: n,
		carts:    NewCartService(store),
		orders:   NewOrderService(store, l, n),
		products: NewProductService(store, l, n),
	}
}

func (f *fixture) addProduct(t *testing.T, name, price string, qty int, sizes ...entity.Variant) *entity.Product {
	t.Helper()
	p := &entity.Product{
		Name:        name,
		Description: name + " from the kiosk",
		Category:    "Snacks",
		Price:       decimal.RequireFromString(price),
		Variants:    sizes,
		Quantity:    qty,
	}
	require.NoError(t, f.products.Add(context.Background(), p))
	return p
}

var errNotifier = errors.New("bus down")
