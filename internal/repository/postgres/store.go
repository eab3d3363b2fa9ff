package postgres

import (
	"context"
	"database/sql"
	"fmt"

	"github.com/egannguyen/kiosk-ordering/internal/repository"
)

type store struct {
	db *sql.DB
}

// NewStore creates a repository.Store over db. Transactions run at READ
// COMMITTED; row locks taken by DrainUnordered and the guarded UPDATEs give
// the per-row serialization the core relies on.
func NewStore(db *sql.DB) repository.Store {
	return &store{db: db}
}

func reposFor(q querier) repository.Repositories {
	products := &productRepository{db: q}
	return repository.Repositories{
		Products: products,
		Stock:    products,
		Carts:    &cartRepository{db: q},
		Orders:   &orderRepository{db: q},
	}
}

func (s *store) Repositories() repository.Repositories {
	return reposFor(s.db)
}

func (s *store) WithinTx(ctx context.Context, fn func(ctx context.Context, r repository.Repositories) error) error {
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer tx.Rollback()

	if err := fn(ctx, reposFor(tx)); err != nil {
		return err
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("failed to commit transaction: %w", err)
	}
	return nil
}

func (s *store) Close() error {
	return s.db.Close()
}
