package ledger

import (
	"sort"
	"strconv"
	"strings"

	"baterysul.com.br/ledger/pkg/models"
)

type Stats struct {
	BatteryCount    int     `json:"batteryCount"`
	TotalUnits      int     `json:"totalUnits"`
	LowStockCount   int     `json:"lowStockCount"`
	InventoryValue  float64 `json:"inventoryValue"`
	ScrapWeight     float64 `json:"scrapWeight"`
	ScrapPricePerKg float64 `json:"scrapPricePerKg"`
	ScrapValue      float64 `json:"scrapValue"`
	CashBalance     float64 `json:"cashBalance"`
}

// Stats recomputes the dashboard figures from the current collections.
// The cash balance is the cached running total.
func (e *Engine) Stats() Stats {
	e.mu.RLock()
	defer e.mu.RUnlock()

	stats := Stats{
		BatteryCount:    len(e.inventory),
		ScrapWeight:     e.scrap.Weight,
		ScrapPricePerKg: e.scrap.PricePerKg,
		ScrapValue:      e.scrap.Value(),
		CashBalance:     e.cashBalance,
	}
	for i := range e.inventory {
		b := &e.inventory[i]
		stats.TotalUnits += b.Quantity
		stats.InventoryValue += b.StockValue()
		if b.IsLowStock() {
			stats.LowStockCount++
		}
	}
	return stats
}

func (e *Engine) CashBalance() float64 {
	e.mu.RLock()
	defer e.mu.RUnlock()
	return e.cashBalance
}

// Battery returns a copy of one inventory line
func (e *Engine) Battery(batteryID string) (models.Battery, error) {
	e.mu.RLock()
	defer e.mu.RUnlock()

	i := e.find(batteryID)
	if i < 0 {
		return models.Battery{}, ErrBatteryNotFound
	}
	return e.inventory[i].Clone(), nil
}

// Inventory returns a copy of every battery in insertion order
func (e *Engine) Inventory() []models.Battery {
	e.mu.RLock()
	defer e.mu.RUnlock()
	return cloneBatteries(e.inventory)
}

// AllBrands is the brand filter wildcard
const AllBrands = "all"

func isWildcard(brand string) bool {
	brand = strings.TrimSpace(brand)
	return brand == "" || strings.EqualFold(brand, AllBrands) || strings.EqualFold(brand, "todas")
}

// Search filters by brand (any casing, or the "all" wildcard) and a case
// insensitive substring of the brand name or amperage, ordered by brand then
// amperage ascending
func (e *Engine) Search(brand, query string) []models.Battery {
	e.mu.RLock()
	defer e.mu.RUnlock()

	query = strings.ToLower(strings.TrimSpace(query))
	anyBrand := isWildcard(brand)
	wanted, known := models.ParseBrand(brand)

	out := []models.Battery{}
	if !anyBrand && !known {
		return out
	}
	for i := range e.inventory {
		b := &e.inventory[i]
		if !anyBrand && b.Brand != wanted {
			continue
		}
		if !strings.Contains(strings.ToLower(string(b.Brand)), query) &&
			!strings.Contains(strconv.Itoa(b.Amperage), query) {
			continue
		}
		out = append(out, b.Clone())
	}

	sort.SliceStable(out, func(i, j int) bool {
		if out[i].Brand != out[j].Brand {
			return out[i].Brand < out[j].Brand
		}
		return out[i].Amperage < out[j].Amperage
	})
	return out
}

// LowStock lists the batteries counted by Stats.LowStockCount, most urgent first
func (e *Engine) LowStock() []models.Battery {
	e.mu.RLock()
	defer e.mu.RUnlock()

	out := []models.Battery{}
	for i := range e.inventory {
		if e.inventory[i].IsLowStock() {
			out = append(out, e.inventory[i].Clone())
		}
	}
	sort.SliceStable(out, func(i, j int) bool {
		return out[i].Quantity-out[i].MinStock < out[j].Quantity-out[j].MinStock
	})
	return out
}

// Movements returns the stock history newest first, optionally for one battery
func (e *Engine) Movements(batteryID string) []models.StockMovement {
	e.mu.RLock()
	defer e.mu.RUnlock()

	out := []models.StockMovement{}
	for i := len(e.movements) - 1; i >= 0; i-- {
		if batteryID == "" || e.movements[i].BatteryID == batteryID {
			out = append(out, e.movements[i])
		}
	}
	sort.SliceStable(out, func(i, j int) bool {
		return out[i].Timestamp > out[j].Timestamp
	})
	return out
}

// Transactions returns the cash history newest first, optionally of one type
func (e *Engine) Transactions(kind models.TransactionType) []models.Transaction {
	e.mu.RLock()
	defer e.mu.RUnlock()

	out := []models.Transaction{}
	for i := len(e.transactions) - 1; i >= 0; i-- {
		if kind == "" || e.transactions[i].Type == kind {
			out = append(out, e.transactions[i].Clone())
		}
	}
	sort.SliceStable(out, func(i, j int) bool {
		return out[i].Timestamp > out[j].Timestamp
	})
	return out
}

// AdvisoryRows is the inventory snapshot handed to the advisory service,
// in search order
func (e *Engine) AdvisoryRows() []models.AdvisoryRow {
	batteries := e.Search(AllBrands, "")
	rows := make([]models.AdvisoryRow, len(batteries))
	for i, b := range batteries {
		rows[i] = models.AdvisoryRow{
			Brand:    b.Brand,
			Amperage: b.Amperage,
			Quantity: b.Quantity,
			MinStock: b.MinStock,
		}
	}
	return rows
}

type Reconciliation struct {
	CachedBalance    float64 `json:"cachedBalance"`
	LedgerBalance    float64 `json:"ledgerBalance"`
	Drift            float64 `json:"drift"`
	TransactionCount int     `json:"transactionCount"`
	Consistent       bool    `json:"consistent"`
}

// Reconcile compares the cached balance with a full sum of the transaction log
func (e *Engine) Reconcile() Reconciliation {
	e.mu.RLock()
	defer e.mu.RUnlock()

	sum := sumAmounts(e.transactions)
	return Reconciliation{
		CachedBalance:    e.cashBalance,
		LedgerBalance:    sum,
		Drift:            models.RoundCents(e.cashBalance - sum),
		TransactionCount: len(e.transactions),
		Consistent:       models.SameCents(e.cashBalance, sum),
	}
}

func sumAmounts(txs []models.Transaction) float64 {
	var sum float64
	for i := range txs {
		sum += txs[i].Amount
	}
	return sum
}

func cloneBatteries(in []models.Battery) []models.Battery {
	out := make([]models.Battery, len(in))
	for i := range in {
		out[i] = in[i].Clone()
	}
	return out
}
