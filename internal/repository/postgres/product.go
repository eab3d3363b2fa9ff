package postgres

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"

	"github.com/egannguyen/kiosk-ordering/internal/entity"
	"github.com/egannguyen/kiosk-ordering/internal/repository"
)

const productColumns = "id, name, description, category, image_url, price, variants, quantity, available"

type productRepository struct {
	db querier
}

type rowScanner interface {
	Scan(dest ...any) error
}

func scanProduct(row rowScanner) (entity.Product, error) {
	var (
		p        entity.Product
		variants []byte
	)
	if err := row.Scan(&p.ID, &p.Name, &p.Description, &p.Category, &p.ImageURL, &p.Price, &variants, &p.Quantity, &p.Available); err != nil {
		return p, err
	}
	if len(variants) > 0 {
		if err := json.Unmarshal(variants, &p.Variants); err != nil {
			return p, fmt.Errorf("failed to decode variants of product %d: %w", p.ID, err)
		}
	}
	return p, nil
}

func encodeVariants(p *entity.Product) ([]byte, error) {
	if p.Variants == nil {
		return []byte("[]"), nil
	}
	return json.Marshal(p.Variants)
}

func (r *productRepository) query(ctx context.Context, q string, args ...any) ([]entity.Product, error) {
	rows, err := r.db.QueryContext(ctx, q, args...)
	if err != nil {
		return nil, fmt.Errorf("failed to query products: %w", err)
	}
	defer rows.Close()

	var products []entity.Product
	for rows.Next() {
		p, err := scanProduct(rows)
		if err != nil {
			return nil, fmt.Errorf("failed to scan product: %w", err)
		}
		products = append(products, p)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating product rows: %w", err)
	}
	return products, nil
}

func (r *productRepository) FindAll(ctx context.Context) ([]entity.Product, error) {
	return r.query(ctx, "SELECT "+productColumns+" FROM products ORDER BY name")
}

func (r *productRepository) FindByCategory(ctx context.Context, category string) ([]entity.Product, error) {
	return r.query(ctx, "SELECT "+productColumns+" FROM products WHERE category = $1 ORDER BY name", category)
}

func (r *productRepository) FindByID(ctx context.Context, id int64) (*entity.Product, error) {
	p, err := scanProduct(r.db.QueryRowContext(ctx, "SELECT "+productColumns+" FROM products WHERE id = $1", id))
	if errors.Is(err, sql.ErrNoRows) {
		return nil, repository.ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get product %d: %w", id, err)
	}
	return &p, nil
}

func (r *productRepository) Create(ctx context.Context, p *entity.Product) error {
	p.Normalize()
	variants, err := encodeVariants(p)
	if err != nil {
		return fmt.Errorf("failed to encode variants: %w", err)
	}

	err = r.db.QueryRowContext(ctx,
		`INSERT INTO products (name, description, category, image_url, price, variants, quantity, available)
		 VALUES ($1, $2, $3, $4, $5, $6, $7, $8) RETURNING id`,
		p.Name, p.Description, p.Category, p.ImageURL, p.Price, variants, p.Quantity, p.Available,
	).Scan(&p.ID)
	if err != nil {
		return fmt.Errorf("failed to insert product: %w", err)
	}
	return nil
}

func (r *productRepository) Update(ctx context.Context, p *entity.Product) error {
	p.Normalize()
	variants, err := encodeVariants(p)
	if err != nil {
		return fmt.Errorf("failed to encode variants: %w", err)
	}

	res, err := r.db.ExecContext(ctx,
		`UPDATE products SET name = $1, description = $2, category = $3, image_url = $4,
		 price = $5, variants = $6, quantity = $7, available = $8 WHERE id = $9`,
		p.Name, p.Description, p.Category, p.ImageURL, p.Price, variants, p.Quantity, p.Available, p.ID,
	)
	if err != nil {
		return fmt.Errorf("failed to update product %d: %w", p.ID, err)
	}
	return expectRow(res)
}

func (r *productRepository) Delete(ctx context.Context, id int64) error {
	res, err := r.db.ExecContext(ctx, "DELETE FROM products WHERE id = $1", id)
	if err != nil {
		return fmt.Errorf("failed to delete product %d: %w", id, err)
	}
	return expectRow(res)
}

func (r *productRepository) Seed(ctx context.Context, products []entity.Product) error {
	var count int
	err := r.db.QueryRowContext(ctx, "SELECT COUNT(*) FROM products").Scan(&count)
	if err != nil {
		return err
	}
	if count > 0 {
		return nil // already seeded
	}

	for i := range products {
		p := products[i]
		if err := r.Create(ctx, &p); err != nil {
			return fmt.Errorf("failed to seed product %s: %w", p.Name, err)
		}
	}
	return nil
}

// Stock primitives share the products table.

func (r *productRepository) Quantity(ctx context.Context, productID int64) (int, error) {
	var q int
	err := r.db.QueryRowContext(ctx, "SELECT quantity FROM products WHERE id = $1", productID).Scan(&q)
	if errors.Is(err, sql.ErrNoRows) {
		return 0, repository.ErrNotFound
	}
	if err != nil {
		return 0, fmt.Errorf("failed to read stock of product %d: %w", productID, err)
	}
	return q, nil
}

func (r *productRepository) DecrementClamped(ctx context.Context, productID int64, n int) (int, error) {
	var q int
	err := r.db.QueryRowContext(ctx,
		`UPDATE products SET quantity = GREATEST(quantity - $1, 0),
		 available = GREATEST(quantity - $1, 0) > 0
		 WHERE id = $2 RETURNING quantity`,
		n, productID,
	).Scan(&q)
	if errors.Is(err, sql.ErrNoRows) {
		return 0, repository.ErrNotFound
	}
	if err != nil {
		return 0, fmt.Errorf("failed to update product stock: %w", err)
	}
	return q, nil
}

func (r *productRepository) DecrementIfAvailable(ctx context.Context, productID int64, n int) (int, bool, error) {
	var q int
	err := r.db.QueryRowContext(ctx,
		`UPDATE products SET quantity = quantity - $1, available = quantity - $1 > 0
		 WHERE id = $2 AND quantity >= $1 RETURNING quantity`,
		n, productID,
	).Scan(&q)
	if errors.Is(err, sql.ErrNoRows) {
		// Either the product is gone or stock is short; tell them apart.
		current, qerr := r.Quantity(ctx, productID)
		if qerr != nil {
			return 0, false, qerr
		}
		return current, false, nil
	}
	if err != nil {
		return 0, false, fmt.Errorf("failed to update product stock: %w", err)
	}
	return q, true, nil
}

func expectRow(res sql.Result) error {
	n, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("failed to read affected rows: %w", err)
	}
	if n == 0 {
		return repository.ErrNotFound
	}
	return nil
}
