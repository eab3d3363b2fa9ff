package service

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"go.opentelemetry.io/otel/attribute"

	"github.com/egannguyen/kiosk-ordering/internal/entity"
	"github.com/egannguyen/kiosk-ordering/internal/repository"
)

const cartUnavailable = "Unable to update cart, please try again later"

// CartService owns the rules for a user's unordered cart lines.
type CartService struct {
	store repository.Store
	now   func() time.Time
}

func NewCartService(store repository.Store) *CartService {
	return &CartService{store: store, now: time.Now}
}

// AddToCart puts a product in the cart, merging into the existing unordered
// line for the same product and size.
func (s *CartService) AddToCart(ctx context.Context, req entity.AddToCart) (line *entity.CartLine, err error) {
	ctx, span := tracer.Start(ctx, "CartService.AddToCart")
	defer func() { endSpan(span, err) }()
	span.SetAttributes(attribute.String("user.id", req.UserID), attribute.Int64("product.id", req.ProductID))

	slog.Info("Service: Adding item to cart", "user_id", req.UserID, "product_id", req.ProductID, "quantity", req.Quantity)

	if err := checkUser(req.UserID); err != nil {
		return nil, err
	}
	if req.Quantity < 1 {
		return nil, entity.ValidationFailed("Quantity must be at least 1")
	}
	if req.Price.IsNegative() {
		return nil, entity.ValidationFailed("Price must not be negative")
	}

	product, err := s.store.Repositories().Products.FindByID(ctx, req.ProductID)
	if err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return nil, entity.NotFound("Product not found")
		}
		return nil, internalErr(cartUnavailable, err)
	}

	size := strings.ToUpper(strings.TrimSpace(req.Size))
	price, ok := product.VariantPrice(size)
	if !ok {
		if size == "" {
			return nil, entity.InvalidVariant("A size is required for %s", product.Name)
		}
		return nil, entity.InvalidVariant("Size %s is not available for %s", size, product.Name)
	}
	if req.Price.IsPositive() {
		price = req.Price
	}

	err = s.store.WithinTx(ctx, func(ctx context.Context, r repository.Repositories) error {
		existing, err := r.Carts.FindUnordered(ctx, req.UserID, product.ID, size)
		switch {
		case err == nil:
			merged, err := r.Carts.IncrementUnordered(ctx, existing.ID, req.Quantity)
			if err != nil {
				return fmt.Errorf("failed to merge cart line %d: %w", existing.ID, err)
			}
			if merged {
				line, err = r.Carts.FindByID(ctx, existing.ID)
				return err
			}
			// claimed by a concurrent order; start a fresh line
		case !errors.Is(err, repository.ErrNotFound):
			return err
		}

		line = &entity.CartLine{
			UserID:          req.UserID,
			ProductID:       product.ID,
			ProductName:     product.Name,
			ProductCategory: product.Category,
			Size:            size,
			Quantity:        req.Quantity,
			Price:           price,
			DateAdded:       s.now(),
		}
		return r.Carts.Insert(ctx, line)
	})
	if err != nil {
		return nil, internalErr(cartUnavailable, err)
	}
	return line, nil
}

// UpdateQuantity sets the quantity of one of the user's unordered lines. A
// non-empty Size moves the line to that size and re-snapshots its price. If
// the user already has an unordered line for that size, the quantity is
// merged into it and the moved line is removed.
func (s *CartService) UpdateQuantity(ctx context.Context, req entity.UpdateCartLine) (line *entity.CartLine, err error) {
	ctx, span := tracer.Start(ctx, "CartService.UpdateQuantity")
	defer func() { endSpan(span, err) }()
	span.SetAttributes(attribute.String("user.id", req.UserID), attribute.Int64("cart_line.id", req.LineID))

	if err := checkUser(req.UserID); err != nil {
		return nil, err
	}
	if req.Quantity < 1 {
		return nil, entity.ValidationFailed("Quantity must be at least 1")
	}

	err = s.store.WithinTx(ctx, func(ctx context.Context, r repository.Repositories) error {
		current, err := s.ownedLine(ctx, r, req.LineID, req.UserID)
		if err != nil {
			return err
		}

		current.Quantity = req.Quantity
		if size := strings.ToUpper(strings.TrimSpace(req.Size)); size != "" && size != current.Size {
			product, err := r.Products.FindByID(ctx, current.ProductID)
			if err != nil {
				if errors.Is(err, repository.ErrNotFound) {
					return entity.NotFound("Product not found")
				}
				return err
			}
			price, ok := product.VariantPrice(size)
			if !ok {
				return entity.InvalidVariant("Size %s is not available for %s", size, product.Name)
			}

			target, err := r.Carts.FindUnordered(ctx, req.UserID, current.ProductID, size)
			switch {
			case err == nil && target.ID != current.ID:
				line, err = s.mergeInto(ctx, r, current, target.ID)
				return err
			case err != nil && !errors.Is(err, repository.ErrNotFound):
				return err
			}

			current.Size = size
			current.Price = price
		}

		updated, err := r.Carts.UpdateUnordered(ctx, current)
		if err != nil {
			return err
		}
		if !updated {
			return entity.Forbidden("Cart item already belongs to an order")
		}
		line = current
		return nil
	})
	if err != nil {
		return nil, internalErr(cartUnavailable, err)
	}

	slog.Info("Service: Cart line updated", "user_id", req.UserID, "line_id", line.ID, "size", line.Size, "quantity", line.Quantity)
	return line, nil
}

// mergeInto adds src's quantity to the unordered line targetID and deletes
// src. The target keeps its own price snapshot.
func (s *CartService) mergeInto(ctx context.Context, r repository.Repositories, src *entity.CartLine, targetID int64) (*entity.CartLine, error) {
	merged, err := r.Carts.IncrementUnordered(ctx, targetID, src.Quantity)
	if err != nil {
		return nil, fmt.Errorf("failed to merge cart line %d into %d: %w", src.ID, targetID, err)
	}
	if !merged {
		return nil, entity.Forbidden("Cart item already belongs to an order")
	}
	deleted, err := r.Carts.DeleteUnordered(ctx, src.ID, src.UserID)
	if err != nil {
		return nil, fmt.Errorf("failed to remove merged cart line %d: %w", src.ID, err)
	}
	if !deleted {
		return nil, entity.Forbidden("Cart item already belongs to an order")
	}
	slog.Info("Service: Cart lines merged", "user_id", src.UserID, "from_line_id", src.ID, "into_line_id", targetID)
	return r.Carts.FindByID(ctx, targetID)
}

// Remove deletes one of the user's unordered lines. Removing a line that no
// longer exists is a no-op.
func (s *CartService) Remove(ctx context.Context, userID string, lineID int64) (err error) {
	ctx, span := tracer.Start(ctx, "CartService.Remove")
	defer func() { endSpan(span, err) }()

	if err := checkUser(userID); err != nil {
		return err
	}

	repos := s.store.Repositories()
	if _, err := s.ownedLine(ctx, repos, lineID, userID); err != nil {
		if errors.Is(err, entity.ErrNotFound) {
			return nil
		}
		return err
	}

	deleted, err := repos.Carts.DeleteUnordered(ctx, lineID, userID)
	if err != nil {
		return internalErr(cartUnavailable, err)
	}
	if !deleted {
		return entity.Forbidden("Cart item already belongs to an order")
	}

	slog.Info("Service: Cart line removed", "user_id", userID, "line_id", lineID)
	return nil
}

// ListUnordered returns the user's current cart.
func (s *CartService) ListUnordered(ctx context.Context, userID string) ([]entity.CartLine, error) {
	return s.list(ctx, userID, true)
}

// ListAll returns every line the user ever added, ordered ones included.
func (s *CartService) ListAll(ctx context.Context, userID string) ([]entity.CartLine, error) {
	return s.list(ctx, userID, false)
}

func (s *CartService) list(ctx context.Context, userID string, unorderedOnly bool) ([]entity.CartLine, error) {
	if err := checkUser(userID); err != nil {
		return nil, err
	}
	lines, err := s.store.Repositories().Carts.ListByUser(ctx, userID, unorderedOnly)
	if err != nil {
		return nil, internalErr("Unable to load cart, please try again later", err)
	}
	return lines, nil
}

func (s *CartService) ownedLine(ctx context.Context, repos repository.Repositories, lineID int64, userID string) (*entity.CartLine, error) {
	line, err := repos.Carts.FindByID(ctx, lineID)
	if err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return nil, entity.NotFound("Cart item not found")
		}
		return nil, internalErr(cartUnavailable, err)
	}
	if line.UserID != userID {
		return nil, entity.Forbidden("Cart item does not belong to you")
	}
	if line.Ordered {
		return nil, entity.Forbidden("Cart item already belongs to an order")
	}
	return line, nil
}

func checkUser(userID string) error {
	if strings.TrimSpace(userID) == "" {
		return entity.Forbidden("User identity is required")
	}
	return nil
}
