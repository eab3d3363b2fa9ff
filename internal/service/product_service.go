package service

import (
	"context"
	"errors"
	"log/slog"
	"strings"
	"time"

	"github.com/egannguyen/kiosk-ordering/internal/entity"
	"github.com/egannguyen/kiosk-ordering/internal/ledger"
	"github.com/egannguyen/kiosk-ordering/internal/repository"
)

const productUnavailable = "Unable to save product, please try again later"

// ProductService manages the kiosk catalogue and announces changes on the
// product channel.
type ProductService struct {
	store    repository.Store
	ledger   ledger.Ledger
	notifier Notifier
	now      func() time.Time
}

func NewProductService(store repository.Store, l ledger.Ledger, notifier Notifier) *ProductService {
	if notifier == nil {
		notifier = NopNotifier{}
	}
	return &ProductService{store: store, ledger: l, notifier: notifier, now: time.Now}
}

func (s *ProductService) List(ctx context.Context) ([]entity.Product, error) {
	products, err := s.store.Repositories().Products.FindAll(ctx)
	if err != nil {
		return nil, internalErr("Unable to load products, please try again later", err)
	}
	return products, nil
}

func (s *ProductService) ByCategory(ctx context.Context, category string) ([]entity.Product, error) {
	products, err := s.store.Repositories().Products.FindByCategory(ctx, category)
	if err != nil {
		return nil, internalErr("Unable to load products, please try again later", err)
	}
	return products, nil
}

func (s *ProductService) Get(ctx context.Context, id int64) (*entity.Product, error) {
	p, err := s.store.Repositories().Products.FindByID(ctx, id)
	if err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return nil, entity.NotFound("Product not found")
		}
		return nil, internalErr("Unable to load product, please try again later", err)
	}
	return p, nil
}

// Availability reports whether the stock ledger has any units of the product left.
func (s *ProductService) Availability(ctx context.Context, id int64) (bool, error) {
	ok, err := s.ledger.IsAvailable(ctx, s.store.Repositories().Stock, id)
	if err != nil {
		return false, internalErr("Unable to load product, please try again later", err)
	}
	return ok, nil
}

// Add validates and stores a new product.
func (s *ProductService) Add(ctx context.Context, p *entity.Product) (err error) {
	ctx, span := tracer.Start(ctx, "ProductService.Add")
	defer func() { endSpan(span, err) }()

	if err := p.Validate(); err != nil {
		return err
	}
	p.ID = 0
	if err := s.store.Repositories().Products.Create(ctx, p); err != nil {
		return internalErr(productUnavailable, err)
	}

	slog.Info("Product added", "product_id", p.ID, "name", p.Name)
	notify(ctx, s.notifier, entity.NewProductAdded(p, s.now()))
	return nil
}

// Update replaces the product with p.ID. An empty ImageURL keeps the stored image.
func (s *ProductService) Update(ctx context.Context, p *entity.Product) (err error) {
	ctx, span := tracer.Start(ctx, "ProductService.Update")
	defer func() { endSpan(span, err) }()

	if err := p.Validate(); err != nil {
		return err
	}
	if strings.TrimSpace(p.ImageURL) == "" {
		existing, err := s.Get(ctx, p.ID)
		if err != nil {
			return err
		}
		p.ImageURL = existing.ImageURL
	}
	if err := s.store.Repositories().Products.Update(ctx, p); err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return entity.NotFound("Product not found")
		}
		return internalErr(productUnavailable, err)
	}

	slog.Info("Product updated", "product_id", p.ID)
	notify(ctx, s.notifier, entity.NewProductUpdated(p.ID, s.now()))
	return nil
}

func (s *ProductService) Delete(ctx context.Context, id int64) (err error) {
	ctx, span := tracer.Start(ctx, "ProductService.Delete")
	defer func() { endSpan(span, err) }()

	if err := s.store.Repositories().Products.Delete(ctx, id); err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return entity.NotFound("Product not found")
		}
		return internalErr("Unable to delete product, please try again later", err)
	}

	slog.Info("Product deleted", "product_id", id)
	notify(ctx, s.notifier, entity.NewProductDeleted(id, s.now()))
	return nil
}

// Seed loads the initial catalogue into an empty store.
func (s *ProductService) Seed(ctx context.Context, products []entity.Product) error {
	for i := range products {
		if err := products[i].Validate(); err != nil {
			return err
		}
	}
	if err := s.store.Repositories().Products.Seed(ctx, products); err != nil {
		return internalErr(productUnavailable, err)
	}
	return nil
}
