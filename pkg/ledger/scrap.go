package ledger

import (
	"math"

	"baterysul.com.br/ledger/pkg/models"
)

// BuyScrap pays for scrap. The cost is always booked as an outflow whatever
// sign the caller used.
func (e *Engine) BuyScrap(cost, weight float64, description string) models.Transaction {
	e.mu.Lock()
	defer e.mu.Unlock()

	tx := e.logTransaction(models.Transaction{
		Type:        models.TransactionScrapPurchase,
		Amount:      -math.Abs(cost),
		Description: description,
		ScrapWeight: models.Float(weight),
	})
	e.scrap.Weight = math.Max(0, e.scrap.Weight+weight)
	e.persist(keyTransactions, keyCashBalance, keyScrapWeight)

	return tx
}

// ManualScrapAdjust corrects the scrap weight. A zero-amount ADJUSTMENT
// transaction keeps the audit trail without touching cash.
func (e *Engine) ManualScrapAdjust(weightDelta float64, description string) models.Transaction {
	e.mu.Lock()
	defer e.mu.Unlock()

	tx := e.logTransaction(models.Transaction{
		Type:        models.TransactionAdjustment,
		Amount:      0,
		Description: description,
		ScrapWeight: models.Float(weightDelta),
	})
	e.scrap.Weight = math.Max(0, e.scrap.Weight+weightDelta)
	e.persist(keyTransactions, keyCashBalance, keyScrapWeight)

	return tx
}

// SetScrapPrice changes the per-kg rate used for future valuations only
func (e *Engine) SetScrapPrice(pricePerKg float64) models.ScrapState {
	e.mu.Lock()
	defer e.mu.Unlock()

	e.scrap.PricePerKg = math.Max(0, pricePerKg)
	e.persist(keyScrapPrice)

	return e.scrap
}

func (e *Engine) Scrap() models.ScrapState {
	e.mu.RLock()
	defer e.mu.RUnlock()
	return e.scrap
}

// QuoteScrap suggests a purchase cost for weight kg at the current rate
func (e *Engine) QuoteScrap(weight float64) float64 {
	return e.Scrap().Quote(weight)
}
