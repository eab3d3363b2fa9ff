package postgres

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/egannguyen/kiosk-ordering/internal/entity"
	"github.com/egannguyen/kiosk-ordering/internal/repository"
)

const orderColumns = "id, user_id, status, placed_at, order_date, total_cost"

type orderRepository struct {
	db querier
}

func scanOrder(row rowScanner) (entity.Order, error) {
	var (
		o      entity.Order
		status string
	)
	err := row.Scan(&o.ID, &o.UserID, &status, &o.PlacedAt, &o.Date, &o.TotalCost)
	o.Status = entity.OrderStatus(status)
	return o, err
}

func (r *orderRepository) Create(ctx context.Context, o *entity.Order) error {
	err := r.db.QueryRowContext(ctx,
		"INSERT INTO orders (user_id, status, placed_at, order_date, total_cost) VALUES ($1, $2, $3, $4, $5) RETURNING id",
		o.UserID, string(o.Status), o.PlacedAt, o.Date, o.TotalCost,
	).Scan(&o.ID)
	if err != nil {
		return fmt.Errorf("failed to insert order: %w", err)
	}
	return nil
}

func (r *orderRepository) FindByID(ctx context.Context, id int64) (*entity.Order, error) {
	o, err := scanOrder(r.db.QueryRowContext(ctx, "SELECT "+orderColumns+" FROM orders WHERE id = $1", id))
	if errors.Is(err, sql.ErrNoRows) {
		return nil, repository.ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get order %d: %w", id, err)
	}

	o.Lines, err = queryCartLines(ctx, r.db, "SELECT "+cartColumns+" FROM cart_lines WHERE order_id = $1 ORDER BY id", o.ID)
	if err != nil {
		return nil, fmt.Errorf("failed to query order lines: %w", err)
	}
	return &o, nil
}

func (r *orderRepository) FindByUser(ctx context.Context, userID string) ([]entity.Order, error) {
	return r.query(ctx, "SELECT "+orderColumns+" FROM orders WHERE user_id = $1 ORDER BY placed_at DESC, id DESC", userID)
}

func (r *orderRepository) FindAll(ctx context.Context) ([]entity.Order, error) {
	return r.query(ctx, "SELECT "+orderColumns+" FROM orders ORDER BY placed_at DESC, id DESC")
}

func (r *orderRepository) UpdateStatus(ctx context.Context, id int64, status entity.OrderStatus, date time.Time) error {
	res, err := r.db.ExecContext(ctx,
		"UPDATE orders SET status = $1, order_date = $2 WHERE id = $3",
		string(status), date, id,
	)
	if err != nil {
		return fmt.Errorf("failed to update order status: %w", err)
	}
	return expectRow(res)
}

func (r *orderRepository) query(ctx context.Context, q string, args ...any) ([]entity.Order, error) {
	rows, err := r.db.QueryContext(ctx, q, args...)
	if err != nil {
		return nil, fmt.Errorf("failed to query orders: %w", err)
	}
	defer rows.Close()

	var orders []entity.Order
	for rows.Next() {
		o, err := scanOrder(rows)
		if err != nil {
			return nil, fmt.Errorf("failed to scan order: %w", err)
		}
		orders = append(orders, o)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating order rows: %w", err)
	}

	// Fetch lines for each order
	for i := range orders {
		orders[i].Lines, err = queryCartLines(ctx, r.db,
			"SELECT "+cartColumns+" FROM cart_lines WHERE order_id = $1 ORDER BY id",
			orders[i].ID,
		)
		if err != nil {
			return nil, fmt.Errorf("failed to query order lines: %w", err)
		}
	}

	return orders, nil
}
