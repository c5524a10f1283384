package ledger

import (
	"fmt"
	"math"

	"baterysul.com.br/ledger/pkg/models"
)

type NewBattery struct {
	Brand        models.Brand
	Amperage     int
	Quantity     int
	MinStock     int
	Price        *float64
	AlertEnabled bool
}

// Sale is everything SellBattery wrote
type Sale struct {
	Battery     models.Battery       `json:"battery"`
	Movement    models.StockMovement `json:"movement"`
	Transaction models.Transaction   `json:"transaction"`
	CashBalance float64              `json:"cashBalance"`
}

// AddBattery creates an inventory line and logs a CREATE movement for its
// opening quantity
func (e *Engine) AddBattery(in NewBattery) models.Battery {
	e.mu.Lock()
	defer e.mu.Unlock()

	battery := models.Battery{
		ID:           e.newID(),
		Brand:        in.Brand,
		Amperage:     in.Amperage,
		Quantity:     max(0, in.Quantity),
		MinStock:     max(0, in.MinStock),
		AlertEnabled: in.AlertEnabled,
	}
	if in.Price != nil {
		battery.Price = models.Float(math.Max(0, *in.Price))
	}

	e.inventory = append(e.inventory, battery)
	e.logMovement(&battery, models.MovementCreate, battery.Quantity)
	e.persist(keyInventory, keyMovements)

	return battery.Clone()
}

// AdjustQuantity moves stock by delta, clamping at zero. A movement is only
// logged when the stored quantity actually changes, and it records the
// requested delta rather than the clamped one.
func (e *Engine) AdjustQuantity(batteryID string, delta int) (models.Battery, error) {
	e.mu.Lock()
	defer e.mu.Unlock()

	i := e.find(batteryID)
	if i < 0 {
		return models.Battery{}, fmt.Errorf("adjust %s: %w", batteryID, ErrBatteryNotFound)
	}

	battery := &e.inventory[i]
	newQuantity := max(0, battery.Quantity+delta)
	if newQuantity != battery.Quantity {
		kind := models.MovementOut
		if delta > 0 {
			kind = models.MovementIn
		}
		e.logMovement(battery, kind, delta)
		battery.Quantity = newQuantity
		e.persist(keyInventory, keyMovements)
	}

	return battery.Clone(), nil
}

// ToggleAlert flips the low stock alert flag. Not a stock event, so nothing is logged.
func (e *Engine) ToggleAlert(batteryID string) (models.Battery, error) {
	e.mu.Lock()
	defer e.mu.Unlock()

	i := e.find(batteryID)
	if i < 0 {
		return models.Battery{}, fmt.Errorf("toggle alert %s: %w", batteryID, ErrBatteryNotFound)
	}

	e.inventory[i].AlertEnabled = !e.inventory[i].AlertEnabled
	e.persist(keyInventory)

	return e.inventory[i].Clone(), nil
}

// DeleteBattery logs a DELETE movement for the remaining stock and drops the
// record. Movements and transactions that reference it are kept as they are.
// Confirmation is the caller's job.
func (e *Engine) DeleteBattery(batteryID string) (models.StockMovement, error) {
	e.mu.Lock()
	defer e.mu.Unlock()

	i := e.find(batteryID)
	if i < 0 {
		return models.StockMovement{}, fmt.Errorf("delete %s: %w", batteryID, ErrBatteryNotFound)
	}

	movement := e.logMovement(&e.inventory[i], models.MovementDelete, -e.inventory[i].Quantity)
	e.inventory = append(e.inventory[:i], e.inventory[i+1:]...)
	e.persist(keyInventory, keyMovements)

	return movement, nil
}

// SellBattery decrements stock, logs a SALE movement for the requested qty,
// appends the SALE transaction and moves the cash balance, all under one lock
func (e *Engine) SellBattery(batteryID string, finalPrice float64, qty int) (Sale, error) {
	e.mu.Lock()
	defer e.mu.Unlock()

	i := e.find(batteryID)
	if i < 0 {
		return Sale{}, fmt.Errorf("sell %s: %w", batteryID, ErrBatteryNotFound)
	}

	battery := &e.inventory[i]
	battery.Quantity = max(0, battery.Quantity-qty)

	movement := e.logMovement(battery, models.MovementSale, -qty)
	tx := e.logTransaction(models.Transaction{
		Type:             models.TransactionSale,
		Amount:           finalPrice,
		Description:      "Venda: " + battery.Label(),
		RelatedBatteryID: battery.ID,
	})
	e.persist(keyInventory, keyMovements, keyTransactions, keyCashBalance)

	return Sale{
		Battery:     battery.Clone(),
		Movement:    movement,
		Transaction: tx,
		CashBalance: e.cashBalance,
	}, nil
}
