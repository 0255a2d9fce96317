package domain

import "time"

// SweetCategory organizes products in the shop.
type SweetCategory string

const (
	CategoryChocolate   SweetCategory = "chocolate"
	CategoryCandy       SweetCategory = "candy"
	CategoryCake        SweetCategory = "cake"
	CategoryCookie      SweetCategory = "cookie"
	CategoryIceCream    SweetCategory = "ice_cream"
	CategoryPastry      SweetCategory = "pastry"
	CategoryTraditional SweetCategory = "traditional"
	CategoryOther       SweetCategory = "other"
)

// KnownCategory reports whether the supplied value is a recognized category.
func KnownCategory(value string) bool {
	switch SweetCategory(value) {
	case CategoryChocolate, CategoryCandy, CategoryCake, CategoryCookie,
		CategoryIceCream, CategoryPastry, CategoryTraditional, CategoryOther:
		return true
	}
	return false
}

// Sweet represents a product with tracked inventory. Price is stored in
// minor units (cents) to avoid floating point drift.
type Sweet struct {
	ID          string
	Name        string
	Category    SweetCategory
	PriceCents  int64
	Quantity    int
	Description string
	ImageURL    string
	CreatedAt   time.Time
	UpdatedAt   time.Time
}

// SweetFilter narrows catalog searches.
type SweetFilter struct {
	Name          string
	Category      *SweetCategory
	MinPriceCents *int64
	MaxPriceCents *int64
}

// Page describes pagination boundaries for catalog listings.
type Page struct {
	Number int
	Size   int
}

// Offset returns the row offset for the page.
func (p Page) Offset() int {
	if p.Number <= 0 || p.Size <= 0 {
		return 0
	}
	return (p.Number - 1) * p.Size
}
