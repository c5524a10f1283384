package models

import "github.com/shopspring/decimal"

// ScrapState holds the accumulated scrap weight (kg) and the current buying rate
type ScrapState struct {
	Weight     float64 `json:"weight"`
	PricePerKg float64 `json:"pricePerKg"`
}

// Value is weight times the current rate. It is never stored.
func (s ScrapState) Value() float64 {
	return s.Weight * s.PricePerKg
}

// Quote suggests a purchase cost for the given weight at the current rate,
// rounded to cents
func (s ScrapState) Quote(weight float64) float64 {
	return decimal.NewFromFloat(weight).
		Mul(decimal.NewFromFloat(s.PricePerKg)).
		Round(2).
		InexactFloat64()
}
