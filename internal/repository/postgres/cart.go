package postgres

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/lib/pq"

	"github.com/egannguyen/kiosk-ordering/internal/entity"
	"github.com/egannguyen/kiosk-ordering/internal/repository"
)

const cartColumns = "id, user_id, product_id, product_name, product_category, size, quantity, price, date_added, is_ordered, order_id"

type cartRepository struct {
	db querier
}

func scanCartLine(row rowScanner) (entity.CartLine, error) {
	var (
		l       entity.CartLine
		orderID sql.NullInt64
	)
	err := row.Scan(&l.ID, &l.UserID, &l.ProductID, &l.ProductName, &l.ProductCategory, &l.Size,
		&l.Quantity, &l.Price, &l.DateAdded, &l.Ordered, &orderID)
	if err != nil {
		return l, err
	}
	if orderID.Valid {
		id := orderID.Int64
		l.OrderID = &id
	}
	return l, nil
}

func queryCartLines(ctx context.Context, db querier, q string, args ...any) ([]entity.CartLine, error) {
	rows, err := db.QueryContext(ctx, q, args...)
	if err != nil {
		return nil, fmt.Errorf("failed to query cart lines: %w", err)
	}
	defer rows.Close()

	var lines []entity.CartLine
	for rows.Next() {
		l, err := scanCartLine(rows)
		if err != nil {
			return nil, fmt.Errorf("failed to scan cart line: %w", err)
		}
		lines = append(lines, l)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating cart rows: %w", err)
	}
	return lines, nil
}

func (r *cartRepository) FindByID(ctx context.Context, id int64) (*entity.CartLine, error) {
	l, err := scanCartLine(r.db.QueryRowContext(ctx, "SELECT "+cartColumns+" FROM cart_lines WHERE id = $1", id))
	if errors.Is(err, sql.ErrNoRows) {
		return nil, repository.ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get cart line %d: %w", id, err)
	}
	return &l, nil
}

func (r *cartRepository) FindUnordered(ctx context.Context, userID string, productID int64, size string) (*entity.CartLine, error) {
	l, err := scanCartLine(r.db.QueryRowContext(ctx,
		"SELECT "+cartColumns+` FROM cart_lines
		 WHERE user_id = $1 AND product_id = $2 AND size = $3 AND NOT is_ordered
		 ORDER BY id LIMIT 1`,
		userID, productID, size,
	))
	if errors.Is(err, sql.ErrNoRows) {
		return nil, repository.ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("failed to find cart line: %w", err)
	}
	return &l, nil
}

func (r *cartRepository) Insert(ctx context.Context, l *entity.CartLine) error {
	err := r.db.QueryRowContext(ctx,
		`INSERT INTO cart_lines (user_id, product_id, product_name, product_category, size, quantity, price, date_added)
		 VALUES ($1, $2, $3, $4, $5, $6, $7, $8)
		 ON CONFLICT (user_id, product_id, size) WHERE NOT is_ordered
		 DO UPDATE SET quantity = cart_lines.quantity + EXCLUDED.quantity
		 RETURNING id, quantity, price, date_added`,
		l.UserID, l.ProductID, l.ProductName, l.ProductCategory, l.Size, l.Quantity, l.Price, l.DateAdded,
	).Scan(&l.ID, &l.Quantity, &l.Price, &l.DateAdded)
	if err != nil {
		return fmt.Errorf("failed to insert cart line: %w", err)
	}
	return nil
}

func (r *cartRepository) IncrementUnordered(ctx context.Context, id int64, delta int) (bool, error) {
	res, err := r.db.ExecContext(ctx,
		"UPDATE cart_lines SET quantity = quantity + $1 WHERE id = $2 AND NOT is_ordered",
		delta, id,
	)
	if err != nil {
		return false, fmt.Errorf("failed to merge cart line %d: %w", id, err)
	}
	return affected(res)
}

func (r *cartRepository) UpdateUnordered(ctx context.Context, l *entity.CartLine) (bool, error) {
	res, err := r.db.ExecContext(ctx,
		"UPDATE cart_lines SET quantity = $1, size = $2, price = $3 WHERE id = $4 AND NOT is_ordered",
		l.Quantity, l.Size, l.Price, l.ID,
	)
	if err != nil {
		return false, fmt.Errorf("failed to update cart line %d: %w", l.ID, err)
	}
	return affected(res)
}

func (r *cartRepository) DeleteUnordered(ctx context.Context, id int64, userID string) (bool, error) {
	res, err := r.db.ExecContext(ctx,
		"DELETE FROM cart_lines WHERE id = $1 AND user_id = $2 AND NOT is_ordered",
		id, userID,
	)
	if err != nil {
		return false, fmt.Errorf("failed to delete cart line %d: %w", id, err)
	}
	return affected(res)
}

func (r *cartRepository) ListByUser(ctx context.Context, userID string, unorderedOnly bool) ([]entity.CartLine, error) {
	if unorderedOnly {
		return queryCartLines(ctx, r.db, "SELECT "+cartColumns+" FROM cart_lines WHERE user_id = $1 AND NOT is_ordered ORDER BY id", userID)
	}
	return queryCartLines(ctx, r.db, "SELECT "+cartColumns+" FROM cart_lines WHERE user_id = $1 ORDER BY id", userID)
}

func (r *cartRepository) ListByOrder(ctx context.Context, orderID int64) ([]entity.CartLine, error) {
	return queryCartLines(ctx, r.db, "SELECT "+cartColumns+" FROM cart_lines WHERE order_id = $1 ORDER BY id", orderID)
}

// DrainUnordered locks the returned rows until the surrounding transaction
// ends. A concurrent drain blocks on the lock and, once the first commits,
// re-checks NOT is_ordered and skips the claimed rows.
func (r *cartRepository) DrainUnordered(ctx context.Context, userID string) ([]entity.CartLine, error) {
	return queryCartLines(ctx, r.db,
		"SELECT "+cartColumns+" FROM cart_lines WHERE user_id = $1 AND NOT is_ordered ORDER BY id FOR UPDATE",
		userID,
	)
}

func (r *cartRepository) Claim(ctx context.Context, lineIDs []int64, orderID int64) error {
	if len(lineIDs) == 0 {
		return nil
	}
	res, err := r.db.ExecContext(ctx,
		"UPDATE cart_lines SET is_ordered = TRUE, order_id = $1 WHERE id = ANY($2) AND NOT is_ordered",
		orderID, pq.Array(lineIDs),
	)
	if err != nil {
		return fmt.Errorf("failed to claim cart lines: %w", err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("failed to read affected rows: %w", err)
	}
	if n != int64(len(lineIDs)) {
		return repository.ErrAlreadyClaimed
	}
	return nil
}

func affected(res sql.Result) (bool, error) {
	n, err := res.RowsAffected()
	if err != nil {
		return false, fmt.Errorf("failed to read affected rows: %w", err)
	}
	return n > 0, nil
}
