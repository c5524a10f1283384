package models

import "math"

// API payloads. Numeric fields are clamped by the ledger, not rejected here.

type AddBatteryRequest struct {
	Brand        Brand    `json:"brand" binding:"required,brand"`
	Amperage     int      `json:"amperage" binding:"required,gt=0"`
	Quantity     int      `json:"quantity"`
	MinStock     int      `json:"minStock"`
	Price        *float64 `json:"price"`
	AlertEnabled *bool    `json:"alertEnabled"`
}

// AlertOrDefault treats an omitted alert flag as enabled
func (req *AddBatteryRequest) AlertOrDefault() bool {
	if req.AlertEnabled == nil {
		return true
	}
	return *req.AlertEnabled
}

type AdjustQuantityRequest struct {
	Delta int `json:"delta"`
}

type SellBatteryRequest struct {
	Price    *float64 `json:"price"`
	Discount float64  `json:"discount"`
	Quantity int      `json:"quantity" binding:"gte=0"`
}

// FinalPrice is the amount charged for the whole sale: the asked price, or
// the list price times the units sold, less the discount and never below zero
func (req *SellBatteryRequest) FinalPrice(listPrice float64) float64 {
	price := listPrice * float64(req.Units())
	if req.Price != nil {
		price = *req.Price
	}
	return math.Max(0, price-req.Discount)
}

// Units defaults to a single battery
func (req *SellBatteryRequest) Units() int {
	if req.Quantity == 0 {
		return 1
	}
	return req.Quantity
}

type BuyScrapRequest struct {
	Cost        *float64 `json:"cost"`
	Weight      float64  `json:"weight" binding:"required"`
	Description string   `json:"description"`
}

type ScrapAdjustRequest struct {
	WeightDelta float64 `json:"weightDelta" binding:"required"`
	Description string  `json:"description"`
}

type ScrapPriceRequest struct {
	PricePerKg *float64 `json:"pricePerKg" binding:"required"`
}

const (
	DefaultScrapPurchaseDescription = "Compra de Sucata"
	ScrapAdjustInDescription        = "Ajuste Manual (Entrada)"
	ScrapAdjustOutDescription       = "Ajuste Manual (Saída)"
)

// DescriptionOrDefault mirrors the cash screen defaults
func (req *ScrapAdjustRequest) DescriptionOrDefault() string {
	if req.Description != "" {
		return req.Description
	}
	if req.WeightDelta < 0 {
		return ScrapAdjustOutDescription
	}
	return ScrapAdjustInDescription
}

func (req *BuyScrapRequest) DescriptionOrDefault() string {
	if req.Description != "" {
		return req.Description
	}
	return DefaultScrapPurchaseDescription
}

// AdvisoryRow is the inventory slice sent to the advisory service
type AdvisoryRow struct {
	Brand    Brand `json:"brand"`
	Amperage int   `json:"amperage"`
	Quantity int   `json:"quantity"`
	MinStock int   `json:"minStock"`
}
