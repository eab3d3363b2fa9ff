package main

import (
	"github.com/shopspring/decimal"

	"github.com/egannguyen/kiosk-ordering/internal/entity"
)

func price(s string) decimal.Decimal {
	return decimal.RequireFromString(s)
}

// seedCatalog is loaded into an empty catalog when SEED_PRODUCTS is set.
func seedCatalog() []entity.Product {
	return []entity.Product{
		{
			Name: "Drip Coffee", Description: "Freshly brewed house blend.", Category: "Coffee",
			Price:    price("2.50"),
			Variants: []entity.Variant{{Size: "S", Price: price("2.50")}, {Size: "M", Price: price("3.00")}, {Size: "L", Price: price("3.50")}},
			Quantity: 200,
		},
		{
			Name: "Blueberry Muffin", Description: "Baked every morning on campus.", Category: "Snacks",
			Price: price("3.25"), Quantity: 40,
		},
		{
			Name: "Granola Bar", Description: "Oats, honey and almonds.", Category: "Snacks",
			Price: price("1.75"), Quantity: 120,
		},
		{
			Name: "Intro to Algorithms", Description: "Course textbook, fourth edition.", Category: "Books",
			Price: price("89.99"), Quantity: 15,
		},
		{
			Name: "Graphing Calculator", Description: "Approved for all math exams.", Category: "Supplies",
			Price: price("119.00"), Quantity: 10,
		},
		{
			Name: "Campus Hoodie", Description: "Heavyweight fleece with the university crest.", Category: "Apparel",
			Price:    price("45.00"),
			Variants: []entity.Variant{{Size: "S", Price: price("45.00")}, {Size: "M", Price: price("45.00")}, {Size: "L", Price: price("48.00")}, {Size: "XL", Price: price("48.00")}},
			Quantity: 60,
			ImageURL: "https://images.unsplash.com/photo-1556821840-3a63f95609a7?w=400",
		},
	}
}
