package memory

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/egannguyen/kiosk-ordering/internal/entity"
	"github.com/egannguyen/kiosk-ordering/internal/repository"
)

func seedLatte(t *testing.T, s *Store, qty int) *entity.Product {
	t.Helper()
	p := &entity.Product{
		Name:        "Latte",
		Description: "Espresso with steamed milk",
		Category:    "Coffee",
		Price:       decimal.RequireFromString("3.50"),
		Variants: []entity.Variant{
			{Size: "s", Price: decimal.RequireFromString("3.50")},
			{Size: "l", Price: decimal.RequireFromString("4.50")},
		},
		Quantity: qty,
	}
	require.NoError(t, s.Repositories().Products.Create(context.Background(), p))
	return p
}

func TestProductRepository_CreateNormalizes(t *testing.T) {
	s := NewStore()
	p := seedLatte(t, s, -3)

	got, err := s.Repositories().Products.FindByID(context.Background(), p.ID)
	require.NoError(t, err)
	assert.Equal(t, 0, got.Quantity)
	assert.False(t, got.Available)
	assert.Equal(t, "S", got.Variants[0].Size)
	assert.Equal(t, "L", got.Variants[1].Size)
}

func TestProductRepository_ReadsAreCopies(t *testing.T) {
	s := NewStore()
	p := seedLatte(t, s, 5)
	ctx := context.Background()

	got, err := s.Repositories().Products.FindByID(ctx, p.ID)
	require.NoError(t, err)
	got.Variants[0].Size = "XL"
	got.Quantity = 99

	again, err := s.Repositories().Products.FindByID(ctx, p.ID)
	require.NoError(t, err)
	assert.Equal(t, "S", again.Variants[0].Size)
	assert.Equal(t, 5, again.Quantity)
}

func TestProductRepository_SeedOnlyWhenEmpty(t *testing.T) {
	s := NewStore()
	ctx := context.Background()
	products := s.Repositories().Products

	seed := []entity.Product{
		{Name: "Bagel", Description: "Plain", Category: "Bakery", Price: decimal.NewFromInt(2), Quantity: 10},
		{Name: "Apple", Description: "Red", Category: "Fruit", Price: decimal.NewFromInt(1), Quantity: 20},
	}
	require.NoError(t, products.Seed(ctx, seed))
	require.NoError(t, products.Seed(ctx, seed))

	all, err := products.FindAll(ctx)
	require.NoError(t, err)
	require.Len(t, all, 2)
	assert.Equal(t, "Apple", all[0].Name)
	assert.Equal(t, "Bagel", all[1].Name)

	bakery, err := products.FindByCategory(ctx, "Bakery")
	require.NoError(t, err)
	require.Len(t, bakery, 1)
	assert.Equal(t, "Bagel", bakery[0].Name)
}

func TestProductRepository_NotFound(t *testing.T) {
	s := NewStore()
	ctx := context.Background()
	r := s.Repositories()

	_, err := r.Products.FindByID(ctx, 42)
	assert.ErrorIs(t, err, repository.ErrNotFound)
	assert.ErrorIs(t, r.Products.Update(ctx, &entity.Product{ID: 42}), repository.ErrNotFound)
	assert.ErrorIs(t, r.Products.Delete(ctx, 42), repository.ErrNotFound)
	_, err = r.Stock.Quantity(ctx, 42)
	assert.ErrorIs(t, err, repository.ErrNotFound)
}

func TestStockRepository_Decrements(t *testing.T) {
	s := NewStore()
	p := seedLatte(t, s, 3)
	ctx := context.Background()
	stock := s.Repositories().Stock

	remaining, ok, err := stock.DecrementIfAvailable(ctx, p.ID, 5)
	require.NoError(t, err)
	assert.False(t, ok)
	assert.Equal(t, 3, remaining)

	remaining, ok, err = stock.DecrementIfAvailable(ctx, p.ID, 2)
	require.NoError(t, err)
	assert.True(t, ok)
	assert.Equal(t, 1, remaining)

	remaining, err = stock.DecrementClamped(ctx, p.ID, 10)
	require.NoError(t, err)
	assert.Equal(t, 0, remaining)

	got, err := s.Repositories().Products.FindByID(ctx, p.ID)
	require.NoError(t, err)
	assert.False(t, got.Available)
}

func TestCartRepository_GuardedWrites(t *testing.T) {
	s := NewStore()
	ctx := context.Background()
	carts := s.Repositories().Carts

	line := &entity.CartLine{UserID: "u1", ProductID: 1, Size: "L", Quantity: 1, Price: decimal.NewFromInt(4), DateAdded: time.Now()}
	require.NoError(t, carts.Insert(ctx, line))

	found, err := carts.FindUnordered(ctx, "u1", 1, "L")
	require.NoError(t, err)
	assert.Equal(t, line.ID, found.ID)

	ok, err := carts.IncrementUnordered(ctx, line.ID, 2)
	require.NoError(t, err)
	assert.True(t, ok)

	require.NoError(t, carts.Claim(ctx, []int64{line.ID}, 7))

	ok, err = carts.IncrementUnordered(ctx, line.ID, 1)
	require.NoError(t, err)
	assert.False(t, ok)

	ok, err = carts.UpdateUnordered(ctx, &entity.CartLine{ID: line.ID, Quantity: 9})
	require.NoError(t, err)
	assert.False(t, ok)

	ok, err = carts.DeleteUnordered(ctx, line.ID, "u1")
	require.NoError(t, err)
	assert.False(t, ok)

	assert.ErrorIs(t, carts.Claim(ctx, []int64{line.ID}, 8), repository.ErrAlreadyClaimed)

	got, err := carts.FindByID(ctx, line.ID)
	require.NoError(t, err)
	assert.Equal(t, 3, got.Quantity)
	assert.True(t, got.Ordered)
	require.NotNil(t, got.OrderID)
	assert.Equal(t, int64(7), *got.OrderID)

	_, err = carts.FindUnordered(ctx, "u1", 1, "L")
	assert.ErrorIs(t, err, repository.ErrNotFound)
}

func TestCartRepository_InsertMergesUnorderedKey(t *testing.T) {
	s := NewStore()
	ctx := context.Background()
	carts := s.Repositories().Carts

	first := &entity.CartLine{UserID: "u1", ProductID: 1, Size: "M", Quantity: 1, Price: decimal.NewFromInt(40)}
	require.NoError(t, carts.Insert(ctx, first))
	dup := &entity.CartLine{UserID: "u1", ProductID: 1, Size: "M", Quantity: 2, Price: decimal.NewFromInt(99)}
	require.NoError(t, carts.Insert(ctx, dup))

	assert.Equal(t, first.ID, dup.ID)
	assert.Equal(t, 3, dup.Quantity)
	assert.True(t, decimal.NewFromInt(40).Equal(dup.Price))

	require.NoError(t, carts.Claim(ctx, []int64{first.ID}, 1))
	fresh := &entity.CartLine{UserID: "u1", ProductID: 1, Size: "M", Quantity: 1}
	require.NoError(t, carts.Insert(ctx, fresh))
	assert.NotEqual(t, first.ID, fresh.ID)

	unordered, err := carts.ListByUser(ctx, "u1", true)
	require.NoError(t, err)
	require.Len(t, unordered, 1)
	assert.Equal(t, fresh.ID, unordered[0].ID)
}

func TestCartRepository_ListByUser(t *testing.T) {
	s := NewStore()
	ctx := context.Background()
	carts := s.Repositories().Carts

	a := &entity.CartLine{UserID: "u1", ProductID: 1, Quantity: 1}
	b := &entity.CartLine{UserID: "u1", ProductID: 2, Quantity: 1}
	c := &entity.CartLine{UserID: "u2", ProductID: 1, Quantity: 1}
	for _, l := range []*entity.CartLine{a, b, c} {
		require.NoError(t, carts.Insert(ctx, l))
	}
	require.NoError(t, carts.Claim(ctx, []int64{a.ID}, 1))

	unordered, err := carts.ListByUser(ctx, "u1", true)
	require.NoError(t, err)
	require.Len(t, unordered, 1)
	assert.Equal(t, b.ID, unordered[0].ID)

	all, err := carts.ListByUser(ctx, "u1", false)
	require.NoError(t, err)
	assert.Len(t, all, 2)

	byOrder, err := carts.ListByOrder(ctx, 1)
	require.NoError(t, err)
	require.Len(t, byOrder, 1)
	assert.Equal(t, a.ID, byOrder[0].ID)
}

func TestOrderRepository_ReadsIncludeLines(t *testing.T) {
	s := NewStore()
	ctx := context.Background()
	r := s.Repositories()

	l := &entity.CartLine{UserID: "u1", ProductID: 1, Quantity: 2, Price: decimal.NewFromInt(5)}
	require.NoError(t, r.Carts.Insert(ctx, l))

	now := time.Now()
	o := entity.NewOrder("u1", []entity.CartLine{*l}, now)
	require.NoError(t, r.Orders.Create(ctx, o))
	require.NoError(t, r.Carts.Claim(ctx, []int64{l.ID}, o.ID))

	got, err := r.Orders.FindByID(ctx, o.ID)
	require.NoError(t, err)
	assert.True(t, decimal.NewFromInt(10).Equal(got.TotalCost))
	require.Len(t, got.Lines, 1)
	assert.Equal(t, l.ID, got.Lines[0].ID)

	later := now.Add(time.Minute)
	require.NoError(t, r.Orders.UpdateStatus(ctx, o.ID, entity.StatusCompleted, later))
	mine, err := r.Orders.FindByUser(ctx, "u1")
	require.NoError(t, err)
	require.Len(t, mine, 1)
	assert.Equal(t, entity.StatusCompleted, mine[0].Status)
	assert.True(t, mine[0].Date.Equal(later))

	assert.ErrorIs(t, r.Orders.UpdateStatus(ctx, 99, entity.StatusCompleted, later), repository.ErrNotFound)
}

func TestOrderRepository_FindAllNewestFirst(t *testing.T) {
	s := NewStore()
	ctx := context.Background()
	orders := s.Repositories().Orders

	base := time.Date(2026, 1, 1, 12, 0, 0, 0, time.UTC)
	first := entity.NewOrder("u1", nil, base)
	second := entity.NewOrder("u2", nil, base.Add(time.Minute))
	require.NoError(t, orders.Create(ctx, first))
	require.NoError(t, orders.Create(ctx, second))

	all, err := orders.FindAll(ctx)
	require.NoError(t, err)
	require.Len(t, all, 2)
	assert.Equal(t, second.ID, all[0].ID)
	assert.Equal(t, first.ID, all[1].ID)
}

func TestStore_WithinTxRollsBackOnError(t *testing.T) {
	s := NewStore()
	p := seedLatte(t, s, 5)
	ctx := context.Background()
	boom := errors.New("boom")

	err := s.WithinTx(ctx, func(ctx context.Context, r repository.Repositories) error {
		o := entity.NewOrder("u1", nil, time.Now())
		if err := r.Orders.Create(ctx, o); err != nil {
			return err
		}
		if _, err := r.Stock.DecrementClamped(ctx, p.ID, 2); err != nil {
			return err
		}
		return boom
	})
	require.ErrorIs(t, err, boom)

	qty, err := s.Repositories().Stock.Quantity(ctx, p.ID)
	require.NoError(t, err)
	assert.Equal(t, 5, qty)

	all, err := s.Repositories().Orders.FindAll(ctx)
	require.NoError(t, err)
	assert.Empty(t, all)
}

func TestStore_WithinTxCommits(t *testing.T) {
	s := NewStore()
	p := seedLatte(t, s, 5)
	ctx := context.Background()

	err := s.WithinTx(ctx, func(ctx context.Context, r repository.Repositories) error {
		_, err := r.Stock.DecrementClamped(ctx, p.ID, 2)
		return err
	})
	require.NoError(t, err)

	qty, err := s.Repositories().Stock.Quantity(ctx, p.ID)
	require.NoError(t, err)
	assert.Equal(t, 3, qty)
}
