package service

import (
	"context"
	"fmt"
	"testing"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/egannguyen/kiosk-ordering/internal/entity"
	"github.com/egannguyen/kiosk-ordering/internal/ledger"
)

func TestProductService_LifecycleNotifies(t *testing.T) {
	f := newFixture(t, ledger.NewLenient())
	ctx := context.Background()

	p := f.addProduct(t, "Bagel", "2.25", 12)
	p.Quantity = 6
	require.NoError(t, f.products.Update(ctx, p))
	require.NoError(t, f.products.Delete(ctx, p.ID))

	assert.Equal(t, []string{
		fmt.Sprintf("New item added: %d", p.ID),
		fmt.Sprintf("Product with ID %d updated", p.ID),
		fmt.Sprintf("Product with ID %d deleted", p.ID),
	}, f.notifier.texts())
	for _, n := range f.notifier.notes {
		assert.Equal(t, entity.ChannelProducts, n.Channel)
	}

	_, err := f.products.Get(ctx, p.ID)
	assert.ErrorIs(t, err, entity.ErrNotFound)
}

func TestProductService_Validation(t *testing.T) {
	f := newFixture(t, ledger.NewLenient())
	ctx := context.Background()

	tests := []struct {
		name string
		p    entity.Product
	}{
		{"no name", entity.Product{Description: "d", Category: "c", Price: decimal.NewFromInt(1)}},
		{"no category", entity.Product{Name: "n", Description: "d", Price: decimal.NewFromInt(1)}},
		{"zero price", entity.Product{Name: "n", Description: "d", Category: "c"}},
		{"negative quantity", entity.Product{Name: "n", Description: "d", Category: "c", Price: decimal.NewFromInt(1), Quantity: -1}},
		{"duplicate size", entity.Product{Name: "n", Description: "d", Category: "c", Variants: []entity.Variant{
			{Size: "m", Price: decimal.NewFromInt(1)}, {Size: "M", Price: decimal.NewFromInt(2)},
		}}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			p := tt.p
			assert.ErrorIs(t, f.products.Add(ctx, &p), entity.ErrValidationFailed)
		})
	}
	assert.Empty(t, f.notifier.texts())
}

func TestProductService_UpdateAndDeleteMissing(t *testing.T) {
	f := newFixture(t, ledger.NewLenient())
	ctx := context.Background()

	p := &entity.Product{ID: 77, Name: "n", Description: "d", Category: "c", Price: decimal.NewFromInt(1)}
	assert.ErrorIs(t, f.products.Update(ctx, p), entity.ErrNotFound)
	assert.ErrorIs(t, f.products.Delete(ctx, 77), entity.ErrNotFound)
}

func TestProductService_UpdateKeepsImageWhenOmitted(t *testing.T) {
	f := newFixture(t, ledger.NewLenient())
	ctx := context.Background()

	p := &entity.Product{Name: "Hoodie", Description: "Fleece", Category: "Apparel", Price: decimal.NewFromInt(45), Quantity: 3, ImageURL: "https://img.example/hoodie.png"}
	require.NoError(t, f.products.Add(ctx, p))

	update := &entity.Product{ID: p.ID, Name: "Hoodie", Description: "Heavy fleece", Category: "Apparel", Price: decimal.NewFromInt(40), Quantity: 3}
	require.NoError(t, f.products.Update(ctx, update))
	got, err := f.products.Get(ctx, p.ID)
	require.NoError(t, err)
	assert.Equal(t, "https://img.example/hoodie.png", got.ImageURL)
	assert.Equal(t, "Heavy fleece", got.Description)

	update.ImageURL = "https://img.example/hoodie-v2.png"
	require.NoError(t, f.products.Update(ctx, update))
	got, err = f.products.Get(ctx, p.ID)
	require.NoError(t, err)
	assert.Equal(t, "https://img.example/hoodie-v2.png", got.ImageURL)
}

func TestProductService_AvailabilityFollowsStock(t *testing.T) {
	f := newFixture(t, ledger.NewLenient())
	ctx := context.Background()

	p := f.addProduct(t, "Muffin", "3.25", 1)
	ok, err := f.products.Availability(ctx, p.ID)
	require.NoError(t, err)
	assert.True(t, ok)

	_, err = f.carts.AddToCart(ctx, entity.AddToCart{UserID: "u1", ProductID: p.ID, Quantity: 1})
	require.NoError(t, err)
	_, err = f.orders.PlaceOrder(ctx, "u1")
	require.NoError(t, err)

	ok, err = f.products.Availability(ctx, p.ID)
	require.NoError(t, err)
	assert.False(t, ok)

	_, err = f.products.Availability(ctx, p.ID+100)
	assert.ErrorIs(t, err, entity.ErrNotFound)
}

func TestProductService_ByCategoryAndSeed(t *testing.T) {
	f := newFixture(t, ledger.NewLenient())
	ctx := context.Background()

	require.NoError(t, f.products.Seed(ctx, []entity.Product{
		{Name: "Latte", Description: "Milk coffee", Category: "Coffee", Price: decimal.NewFromInt(4), Quantity: 50},
		{Name: "Apple", Description: "Fresh", Category: "Fruit", Price: decimal.NewFromInt(1), Quantity: 30},
	}))

	coffee, err := f.products.ByCategory(ctx, "Coffee")
	require.NoError(t, err)
	require.Len(t, coffee, 1)
	assert.Equal(t, "Latte", coffee[0].Name)
	assert.True(t, coffee[0].Available)

	all, err := f.products.List(ctx)
	require.NoError(t, err)
	assert.Len(t, all, 2)
}
