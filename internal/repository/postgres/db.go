package postgres

import (
	"context"
	"database/sql"
	"fmt"
	"log/slog"

	_ "github.com/lib/pq"
)

func InitDB(dsn string) (*sql.DB, error) {
	db, err := sql.Open("postgres", dsn)
	if err != nil {
		return nil, fmt.Errorf("failed to connect to database: %w", err)
	}
	if err := db.Ping(); err != nil {
		return nil, fmt.Errorf("failed to ping database: %w", err)
	}

	if err := migrateDB(db); err != nil {
		return nil, fmt.Errorf("failed to migrate database: %w", err)
	}

	slog.Info("Database connected and migrated")
	return db, nil
}

func migrateDB(db *sql.DB) error {
	_, err := db.Exec(`
		CREATE TABLE IF NOT EXISTS products (
			id BIGSERIAL PRIMARY KEY,
			name TEXT NOT NULL,
			description TEXT NOT NULL DEFAULT '',
			category TEXT NOT NULL DEFAULT '',
			image_url TEXT NOT NULL DEFAULT '',
			price NUMERIC(12,2) NOT NULL DEFAULT 0,
			variants JSONB NOT NULL DEFAULT '[]',
			quantity INT NOT NULL DEFAULT 0 CHECK (quantity >= 0),
			available BOOLEAN NOT NULL DEFAULT FALSE
		);

		CREATE INDEX IF NOT EXISTS idx_products_category ON products (category);

		CREATE TABLE IF NOT EXISTS orders (
			id BIGSERIAL PRIMARY KEY,
			user_id TEXT NOT NULL,
			status TEXT NOT NULL DEFAULT 'PLACED',
			placed_at TIMESTAMPTZ NOT NULL DEFAULT NOW(),
			order_date TIMESTAMPTZ NOT NULL DEFAULT NOW(),
			total_cost NUMERIC(12,2) NOT NULL DEFAULT 0 CHECK (total_cost >= 0)
		);

		CREATE INDEX IF NOT EXISTS idx_orders_user ON orders (user_id);

		CREATE TABLE IF NOT EXISTS cart_lines (
			id BIGSERIAL PRIMARY KEY,
			user_id TEXT NOT NULL,
			product_id BIGINT NOT NULL,
			product_name TEXT NOT NULL DEFAULT '',
			product_category TEXT NOT NULL DEFAULT '',
			size TEXT NOT NULL DEFAULT '',
			quantity INT NOT NULL CHECK (quantity > 0),
			price NUMERIC(12,2) NOT NULL DEFAULT 0,
			date_added TIMESTAMPTZ NOT NULL DEFAULT NOW(),
			is_ordered BOOLEAN NOT NULL DEFAULT FALSE,
			order_id BIGINT NULL REFERENCES orders(id)
		);

		CREATE INDEX IF NOT EXISTS idx_cart_lines_user ON cart_lines (user_id, is_ordered);
		CREATE INDEX IF NOT EXISTS idx_cart_lines_order ON cart_lines (order_id);

		-- at most one unordered line per user, product and size
		CREATE UNIQUE INDEX IF NOT EXISTS idx_cart_lines_unordered_key
			ON cart_lines (user_id, product_id, size) WHERE NOT is_ordered;
	`)
	return err
}

// querier is satisfied by both *sql.DB and *sql.Tx.
type querier interface {
	ExecContext(ctx context.Context, query string, args ...any) (sql.Result, error)
	QueryContext(ctx context.Context, query string, args ...any) (*sql.Rows, error)
	QueryRowContext(ctx context.Context, query string, args ...any) *sql.Row
}
