package models

import (
	"fmt"
	"strings"
)

type Brand string

const (
	BrandEloforte Brand = "Eloforte"
	BrandPioneiro Brand = "Pioneiro"
	BrandHeliar   Brand = "Heliar"
	BrandMoura    Brand = "Moura"
	BrandOutros   Brand = "Outros"
)

// SupportedBrands is the closed brand set, in catalog order
var SupportedBrands = []Brand{BrandEloforte, BrandPioneiro, BrandHeliar, BrandMoura, BrandOutros}

// CommonAmperages lists the ratings offered by the add form. Other values are accepted.
var CommonAmperages = []int{40, 45, 48, 50, 60, 70, 75, 80, 90, 100, 150, 180}

func (b Brand) IsValid() bool {
	for _, known := range SupportedBrands {
		if b == known {
			return true
		}
	}
	return false
}

// ParseBrand matches a brand name case-insensitively
func ParseBrand(raw string) (Brand, bool) {
	for _, known := range SupportedBrands {
		if strings.EqualFold(string(known), strings.TrimSpace(raw)) {
			return known, true
		}
	}
	return "", false
}

// Battery is one inventory line, identified by brand and amperage rating.
// JSON field names match the browser storage format so old exports load as-is.
type Battery struct {
	ID           string   `json:"id"`
	Brand        Brand    `json:"brand"`
	Amperage     int      `json:"amperage"`
	Quantity     int      `json:"quantity"`
	MinStock     int      `json:"minStock"`
	Price        *float64 `json:"price,omitempty"`
	AlertEnabled bool     `json:"alertEnabled"`
}

// Label renders the battery the way receipts and reports name it, e.g. "Moura 60Ah"
func (b *Battery) Label() string {
	return fmt.Sprintf("%s %dAh", b.Brand, b.Amperage)
}

// UnitPrice returns the sale price, treating an unset price as zero
func (b *Battery) UnitPrice() float64 {
	if b.Price == nil {
		return 0
	}
	return *b.Price
}

// IsLowStock reports whether the battery counts toward the low stock alert.
// The threshold is inclusive.
func (b *Battery) IsLowStock() bool {
	return b.AlertEnabled && b.Quantity <= b.MinStock
}

func (b *Battery) IsInStock() bool {
	return b.Quantity > 0
}

// StockValue is quantity times unit price
func (b *Battery) StockValue() float64 {
	return float64(b.Quantity) * b.UnitPrice()
}

// Clone returns a copy that does not share the price pointer
func (b Battery) Clone() Battery {
	if b.Price != nil {
		price := *b.Price
		b.Price = &price
	}
	return b
}

func Float(v float64) *float64 {
	return &v
}
