package memory

import (
	"context"
	"slices"
	"time"

	"github.com/egannguyen/kiosk-ordering/internal/entity"
	"github.com/egannguyen/kiosk-ordering/internal/repository"
)

type orderRepository struct {
	v view
}

func (r *orderRepository) withLines(o entity.Order) entity.Order {
	o.Lines = r.v.tables().linesByOrder(o.ID)
	return o
}

func (r *orderRepository) Create(ctx context.Context, o *entity.Order) error {
	defer r.v.lock()()
	t := r.v.tables()
	t.nextOrder++
	o.ID = t.nextOrder
	stored := *o
	stored.Lines = nil
	t.orders[o.ID] = stored
	return nil
}

func (r *orderRepository) FindByID(ctx context.Context, id int64) (*entity.Order, error) {
	defer r.v.lock()()
	o, ok := r.v.tables().orders[id]
	if !ok {
		return nil, repository.ErrNotFound
	}
	o = r.withLines(o)
	return &o, nil
}

func (r *orderRepository) list(match func(entity.Order) bool) []entity.Order {
	var out []entity.Order
	for _, o := range r.v.tables().orders {
		if match(o) {
			out = append(out, r.withLines(o))
		}
	}
	// newest first, like the postgres ORDER BY placed_at DESC, id DESC
	slices.SortFunc(out, func(a, b entity.Order) int {
		if c := b.PlacedAt.Compare(a.PlacedAt); c != 0 {
			return c
		}
		switch {
		case a.ID > b.ID:
			return -1
		case a.ID < b.ID:
			return 1
		}
		return 0
	})
	return out
}

func (r *orderRepository) FindByUser(ctx context.Context, userID string) ([]entity.Order, error) {
	defer r.v.lock()()
	return r.list(func(o entity.Order) bool { return o.UserID == userID }), nil
}

func (r *orderRepository) FindAll(ctx context.Context) ([]entity.Order, error) {
	defer r.v.lock()()
	return r.list(func(entity.Order) bool { return true }), nil
}

func (r *orderRepository) UpdateStatus(ctx context.Context, id int64, status entity.OrderStatus, date time.Time) error {
	defer r.v.lock()()
	t := r.v.tables()
	o, ok := t.orders[id]
	if !ok {
		return repository.ErrNotFound
	}
	o.Status = status
	o.Date = date
	t.orders[id] = o
	return nil
}
