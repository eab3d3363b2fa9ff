package entity

import (
	"errors"
	"fmt"
	"testing"
	"time"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func d(s string) decimal.Decimal { return decimal.RequireFromString(s) }

func TestProduct_Normalize(t *testing.T) {
	p := &Product{Quantity: -4, Variants: []Variant{{Size: " m ", Price: d("3")}}}
	p.Normalize()

	assert.Equal(t, 0, p.Quantity)
	assert.False(t, p.Available)
	assert.Equal(t, "M", p.Variants[0].Size)

	p.Quantity = 2
	p.Normalize()
	assert.True(t, p.Available)
}

func TestProduct_VariantPrice(t *testing.T) {
	plain := &Product{Price: d("2.50")}
	price, ok := plain.VariantPrice("")
	assert.True(t, ok)
	assert.True(t, price.Equal(d("2.50")))
	_, ok = plain.VariantPrice("M")
	assert.False(t, ok)

	sized := &Product{Price: d("3.00"), Variants: []Variant{{Size: "S", Price: d("3.00")}, {Size: "L", Price: d("4.25")}}}
	price, ok = sized.VariantPrice("l")
	assert.True(t, ok)
	assert.True(t, price.Equal(d("4.25")))
	_, ok = sized.VariantPrice("")
	assert.False(t, ok)
	_, ok = sized.VariantPrice("XL")
	assert.False(t, ok)
}

func TestProduct_Validate(t *testing.T) {
	valid := func() *Product {
		return &Product{Name: "Muffin", Description: "Blueberry", Category: "Snacks", Price: d("3.25"), Quantity: 1}
	}
	require.NoError(t, valid().Validate())

	tests := []struct {
		name   string
		mutate func(p *Product)
	}{
		{"missing name", func(p *Product) { p.Name = " " }},
		{"missing description", func(p *Product) { p.Description = "" }},
		{"missing category", func(p *Product) { p.Category = "" }},
		{"negative quantity", func(p *Product) { p.Quantity = -1 }},
		{"zero price", func(p *Product) { p.Price = decimal.Zero }},
		{"blank size", func(p *Product) { p.Variants = []Variant{{Size: "", Price: d("1")}} }},
		{"duplicate size", func(p *Product) { p.Variants = []Variant{{Size: "m", Price: d("1")}, {Size: "M", Price: d("1")}} }},
		{"zero variant price", func(p *Product) { p.Variants = []Variant{{Size: "M", Price: decimal.Zero}} }},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			p := valid()
			tt.mutate(p)
			assert.ErrorIs(t, p.Validate(), ErrValidationFailed)
		})
	}

	sized := valid()
	sized.Price = decimal.Zero
	sized.Variants = []Variant{{Size: "M", Price: d("5")}}
	assert.NoError(t, sized.Validate())
}

func TestTotal(t *testing.T) {
	lines := []CartLine{
		{Quantity: 2, Price: d("20.00")},
		{Quantity: 1, Price: d("150.00")},
	}
	assert.Equal(t, "190.00", Total(lines).StringFixed(2))
	assert.True(t, Total(nil).IsZero())

	o := NewOrder("u1", lines, time.Unix(100, 0))
	assert.Equal(t, StatusPlaced, o.Status)
	assert.Equal(t, o.PlacedAt, o.Date)
	assert.True(t, o.TotalCost.Equal(d("190")))
}

func TestOrderStatus_Phase(t *testing.T) {
	tests := map[OrderStatus]Phase{
		"PLACED":      PhasePlaced,
		"Pending":     PhasePlaced,
		"in_progress": PhaseInProgress,
		"Completed":   PhaseCompleted,
		"canceled":    PhaseCancelled,
		"Ready at 3":  PhaseOther,
	}
	for status, want := range tests {
		assert.Equal(t, want, status.Phase(), status)
	}
}

func TestParseStatus(t *testing.T) {
	s, err := ParseStatus("  Ready for pickup ")
	require.NoError(t, err)
	assert.Equal(t, OrderStatus("Ready for pickup"), s)

	_, err = ParseStatus("   ")
	assert.ErrorIs(t, err, ErrValidationFailed)
}

func TestError_KindMatching(t *testing.T) {
	cause := errors.New("connection refused")
	err := fmt.Errorf("placing order: %w", Internal("Unable to place order, please try again later", cause))

	assert.ErrorIs(t, err, ErrInternal)
	assert.NotErrorIs(t, err, ErrNotFound)
	assert.ErrorIs(t, err, cause)
	assert.Equal(t, KindInternal, KindOf(err))
	assert.Equal(t, KindNotFound, KindOf(NotFound("order %d not found", 3)))
	assert.Equal(t, KindInternal, KindOf(cause))
	assert.Equal(t, "EMPTY_CART", KindEmptyCart.String())
	assert.Equal(t, "OUT_OF_STOCK", (&Error{Kind: KindOutOfStock}).Error())
}

func TestParseChannel(t *testing.T) {
	ch, err := ParseChannel("orders")
	require.NoError(t, err)
	assert.Equal(t, ChannelOrders, ch)

	_, err = ParseChannel("payments")
	assert.Error(t, err)
}

func TestNotificationTexts(t *testing.T) {
	now := time.Now()
	o := &Order{ID: 12, Status: "Completed"}
	assert.Equal(t, "New order placed: 12", NewOrderPlaced(o).Text)
	assert.Equal(t, "Order 12 updated to Completed", NewOrderUpdated(o).Text)
	assert.Equal(t, "New item added: 4", NewProductAdded(&Product{ID: 4}, now).Text)
	assert.Equal(t, "Product with ID 4 updated", NewProductUpdated(4, now).Text)
	n := NewProductDeleted(4, now)
	assert.Equal(t, "Product with ID 4 deleted", n.Text)
	assert.Equal(t, ChannelProducts, n.Channel)
}
