package memory

import (
	"cmp"
	"context"
	"slices"

	"github.com/egannguyen/kiosk-ordering/internal/entity"
	"github.com/egannguyen/kiosk-ordering/internal/repository"
)

type productRepository struct {
	v view
}

func copyProduct(p entity.Product) entity.Product {
	p.Variants = slices.Clone(p.Variants)
	return p
}

func (r *productRepository) list(match func(entity.Product) bool) []entity.Product {
	var out []entity.Product
	for _, p := range r.v.tables().products {
		if match(p) {
			out = append(out, copyProduct(p))
		}
	}
	slices.SortFunc(out, func(a, b entity.Product) int {
		if c := cmp.Compare(a.Name, b.Name); c != 0 {
			return c
		}
		return cmp.Compare(a.ID, b.ID)
	})
	return out
}

func (r *productRepository) FindAll(ctx context.Context) ([]entity.Product, error) {
	defer r.v.lock()()
	return r.list(func(entity.Product) bool { return true }), nil
}

func (r *productRepository) FindByCategory(ctx context.Context, category string) ([]entity.Product, error) {
	defer r.v.lock()()
	return r.list(func(p entity.Product) bool { return p.Category == category }), nil
}

func (r *productRepository) FindByID(ctx context.Context, id int64) (*entity.Product, error) {
	defer r.v.lock()()
	p, ok := r.v.tables().products[id]
	if !ok {
		return nil, repository.ErrNotFound
	}
	p = copyProduct(p)
	return &p, nil
}

func (r *productRepository) Create(ctx context.Context, p *entity.Product) error {
	defer r.v.lock()()
	t := r.v.tables()
	p.Normalize()
	t.nextProduct++
	p.ID = t.nextProduct
	t.products[p.ID] = copyProduct(*p)
	return nil
}

func (r *productRepository) Update(ctx context.Context, p *entity.Product) error {
	defer r.v.lock()()
	t := r.v.tables()
	if _, ok := t.products[p.ID]; !ok {
		return repository.ErrNotFound
	}
	p.Normalize()
	t.products[p.ID] = copyProduct(*p)
	return nil
}

func (r *productRepository) Delete(ctx context.Context, id int64) error {
	defer r.v.lock()()
	t := r.v.tables()
	if _, ok := t.products[id]; !ok {
		return repository.ErrNotFound
	}
	delete(t.products, id)
	return nil
}

func (r *productRepository) Seed(ctx context.Context, products []entity.Product) error {
	defer r.v.lock()()
	t := r.v.tables()
	if len(t.products) > 0 {
		return nil
	}
	for _, p := range products {
		p = copyProduct(p)
		p.Normalize()
		t.nextProduct++
		p.ID = t.nextProduct
		t.products[p.ID] = p
	}
	return nil
}

func (r *productRepository) Quantity(ctx context.Context, productID int64) (int, error) {
	defer r.v.lock()()
	p, ok := r.v.tables().products[productID]
	if !ok {
		return 0, repository.ErrNotFound
	}
	return p.Quantity, nil
}

func (r *productRepository) DecrementClamped(ctx context.Context, productID int64, n int) (int, error) {
	defer r.v.lock()()
	t := r.v.tables()
	p, ok := t.products[productID]
	if !ok {
		return 0, repository.ErrNotFound
	}
	p.Quantity = max(0, p.Quantity-n)
	p.Normalize()
	t.products[productID] = p
	return p.Quantity, nil
}

func (r *productRepository) DecrementIfAvailable(ctx context.Context, productID int64, n int) (int, bool, error) {
	defer r.v.lock()()
	t := r.v.tables()
	p, ok := t.products[productID]
	if !ok {
		return 0, false, repository.ErrNotFound
	}
	if p.Quantity < n {
		return p.Quantity, false, nil
	}
	p.Quantity -= n
	p.Normalize()
	t.products[productID] = p
	return p.Quantity, true, nil
}
