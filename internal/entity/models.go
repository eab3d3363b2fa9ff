package entity

import (
	"strings"

	"github.com/shopspring/decimal"
)

// Variant is a sized version of a product with its own price.
type Variant struct {
	Size  string          `json:"size"`
	Price decimal.Decimal `json:"price"`
}

// Product represents a product sold at the kiosk.
type Product struct {
	ID          int64           `json:"id"`
	Name        string          `json:"name"`
	Description string          `json:"description"`
	Category    string          `json:"category"`
	ImageURL    string          `json:"image_url"`
	Price       decimal.Decimal `json:"price"`
	Variants    []Variant       `json:"variants,omitempty"`
	Quantity    int             `json:"quantity"`
	Available   bool            `json:"available"`
}

// Normalize enforces the stored form of a product: quantity never below zero,
// upper-cased sizes, and Available derived from quantity. Every store calls it
// before persisting.
func (p *Product) Normalize() {
	if p.Quantity < 0 {
		p.Quantity = 0
	}
	for i := range p.Variants {
		p.Variants[i].Size = strings.ToUpper(strings.TrimSpace(p.Variants[i].Size))
	}
	p.Available = p.Quantity > 0
}

// HasVariants reports whether the product is sold by size.
func (p *Product) HasVariants() bool {
	return len(p.Variants) > 0
}

// VariantPrice returns the price for size. An empty size is valid only for
// products without variants, in which case the base price is returned.
func (p *Product) VariantPrice(size string) (decimal.Decimal, bool) {
	size = strings.ToUpper(strings.TrimSpace(size))
	if size == "" {
		return p.Price, !p.HasVariants()
	}
	for _, v := range p.Variants {
		if v.Size == size {
			return v.Price, true
		}
	}
	return decimal.Zero, false
}

// Validate checks the fields staff must supply when saving a product.
func (p *Product) Validate() error {
	switch {
	case strings.TrimSpace(p.Name) == "":
		return ValidationFailed("Product name is mandatory")
	case strings.TrimSpace(p.Description) == "":
		return ValidationFailed("Description is mandatory")
	case strings.TrimSpace(p.Category) == "":
		return ValidationFailed("Category is mandatory")
	case p.Quantity < 0:
		return ValidationFailed("Quantity must be zero or positive")
	}

	if !p.HasVariants() {
		if !p.Price.IsPositive() {
			return ValidationFailed("Price must be positive")
		}
		return nil
	}

	seen := make(map[string]bool, len(p.Variants))
	for _, v := range p.Variants {
		size := strings.ToUpper(strings.TrimSpace(v.Size))
		if size == "" {
			return ValidationFailed("Variant size is mandatory")
		}
		if seen[size] {
			return ValidationFailed("Duplicate variant size %s", size)
		}
		seen[size] = true
		if !v.Price.IsPositive() {
			return ValidationFailed("Price for size %s must be positive", size)
		}
	}
	return nil
}
