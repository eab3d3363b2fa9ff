package memory

import (
	"cmp"
	"context"
	"slices"

	"github.com/egannguyen/kiosk-ordering/internal/entity"
	"github.com/egannguyen/kiosk-ordering/internal/repository"
)

type cartRepository struct {
	v view
}

func copyLine(l entity.CartLine) entity.CartLine {
	if l.OrderID != nil {
		id := *l.OrderID
		l.OrderID = &id
	}
	return l
}

func (t *tables) linesWhere(match func(entity.CartLine) bool) []entity.CartLine {
	var out []entity.CartLine
	for _, l := range t.lines {
		if match(l) {
			out = append(out, copyLine(l))
		}
	}
	slices.SortFunc(out, func(a, b entity.CartLine) int { return cmp.Compare(a.ID, b.ID) })
	return out
}

func (r *cartRepository) FindByID(ctx context.Context, id int64) (*entity.CartLine, error) {
	defer r.v.lock()()
	l, ok := r.v.tables().lines[id]
	if !ok {
		return nil, repository.ErrNotFound
	}
	l = copyLine(l)
	return &l, nil
}

func (r *cartRepository) FindUnordered(ctx context.Context, userID string, productID int64, size string) (*entity.CartLine, error) {
	defer r.v.lock()()
	found := r.v.tables().linesWhere(func(l entity.CartLine) bool {
		return !l.Ordered && l.UserID == userID && l.ProductID == productID && l.Size == size
	})
	if len(found) == 0 {
		return nil, repository.ErrNotFound
	}
	return &found[0], nil
}

func (r *cartRepository) Insert(ctx context.Context, l *entity.CartLine) error {
	defer r.v.lock()()
	t := r.v.tables()
	for id, existing := range t.lines {
		if !existing.Ordered && existing.UserID == l.UserID && existing.ProductID == l.ProductID && existing.Size == l.Size {
			existing.Quantity += l.Quantity
			t.lines[id] = existing
			*l = copyLine(existing)
			return nil
		}
	}
	t.nextLine++
	l.ID = t.nextLine
	t.lines[l.ID] = copyLine(*l)
	return nil
}

func (r *cartRepository) IncrementUnordered(ctx context.Context, id int64, delta int) (bool, error) {
	defer r.v.lock()()
	t := r.v.tables()
	l, ok := t.lines[id]
	if !ok || l.Ordered {
		return false, nil
	}
	l.Quantity += delta
	t.lines[id] = l
	return true, nil
}

func (r *cartRepository) UpdateUnordered(ctx context.Context, upd *entity.CartLine) (bool, error) {
	defer r.v.lock()()
	t := r.v.tables()
	l, ok := t.lines[upd.ID]
	if !ok || l.Ordered {
		return false, nil
	}
	l.Quantity = upd.Quantity
	l.Size = upd.Size
	l.Price = upd.Price
	t.lines[l.ID] = l
	return true, nil
}

func (r *cartRepository) DeleteUnordered(ctx context.Context, id int64, userID string) (bool, error) {
	defer r.v.lock()()
	t := r.v.tables()
	l, ok := t.lines[id]
	if !ok || l.Ordered || l.UserID != userID {
		return false, nil
	}
	delete(t.lines, id)
	return true, nil
}

func (r *cartRepository) ListByUser(ctx context.Context, userID string, unorderedOnly bool) ([]entity.CartLine, error) {
	defer r.v.lock()()
	return r.v.tables().linesWhere(func(l entity.CartLine) bool {
		return l.UserID == userID && (!unorderedOnly || !l.Ordered)
	}), nil
}

func (r *cartRepository) ListByOrder(ctx context.Context, orderID int64) ([]entity.CartLine, error) {
	defer r.v.lock()()
	return r.v.tables().linesByOrder(orderID), nil
}

func (t *tables) linesByOrder(orderID int64) []entity.CartLine {
	return t.linesWhere(func(l entity.CartLine) bool {
		return l.OrderID != nil && *l.OrderID == orderID
	})
}

func (r *cartRepository) DrainUnordered(ctx context.Context, userID string) ([]entity.CartLine, error) {
	defer r.v.lock()()
	return r.v.tables().linesWhere(func(l entity.CartLine) bool {
		return l.UserID == userID && !l.Ordered
	}), nil
}

func (r *cartRepository) Claim(ctx context.Context, lineIDs []int64, orderID int64) error {
	defer r.v.lock()()
	t := r.v.tables()
	for _, id := range lineIDs {
		if l, ok := t.lines[id]; !ok || l.Ordered {
			return repository.ErrAlreadyClaimed
		}
	}
	for _, id := range lineIDs {
		l := t.lines[id]
		l.Ordered = true
		oid := orderID
		l.OrderID = &oid
		t.lines[id] = l
	}
	return nil
}
