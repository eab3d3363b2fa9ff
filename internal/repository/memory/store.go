// Package memory is an in-process repository.Store. One mutex guards all
// tables, so every single call is atomic and WithinTx serializes whole units
// of work, restoring a snapshot when the unit fails.
package memory

import (
	"context"
	"maps"
	"sync"

	"github.com/egannguyen/kiosk-ordering/internal/entity"
	"github.com/egannguyen/kiosk-ordering/internal/repository"
)

type tables struct {
	products map[int64]entity.Product
	lines    map[int64]entity.CartLine
	orders   map[int64]entity.Order

	nextProduct int64
	nextLine    int64
	nextOrder   int64
}

func (t *tables) clone() *tables {
	c := *t
	c.products = maps.Clone(t.products)
	c.lines = maps.Clone(t.lines)
	c.orders = maps.Clone(t.orders)
	return &c
}

// Store implements repository.Store in memory.
type Store struct {
	mu sync.Mutex
	t  *tables
}

var _ repository.Store = (*Store)(nil)

func NewStore() *Store {
	return &Store{t: &tables{
		products: make(map[int64]entity.Product),
		lines:    make(map[int64]entity.CartLine),
		orders:   make(map[int64]entity.Order),
	}}
}

// view is the handle every repository uses to reach the tables. Outside a
// transaction each call takes the store lock; inside one the lock is already
// held by WithinTx.
type view struct {
	s    *Store
	inTx bool
}

func (v view) lock() func() {
	if v.inTx {
		return func() {}
	}
	v.s.mu.Lock()
	return v.s.mu.Unlock
}

func (v view) tables() *tables {
	return v.s.t
}

func (s *Store) repos(inTx bool) repository.Repositories {
	v := view{s: s, inTx: inTx}
	products := &productRepository{v}
	return repository.Repositories{
		Products: products,
		Stock:    products,
		Carts:    &cartRepository{v},
		Orders:   &orderRepository{v},
	}
}

func (s *Store) Repositories() repository.Repositories {
	return s.repos(false)
}

func (s *Store) WithinTx(ctx context.Context, fn func(ctx context.Context, r repository.Repositories) error) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	snapshot := s.t.clone()
	if err := fn(ctx, s.repos(true)); err != nil {
		s.t = snapshot
		return err
	}
	if err := ctx.Err(); err != nil {
		s.t = snapshot
		return err
	}
	return nil
}

func (s *Store) Close() error {
	return nil
}
