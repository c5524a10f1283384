package models

import "time"

type TransactionType string

const (
	TransactionSale          TransactionType = "SALE"
	TransactionScrapPurchase TransactionType = "SCRAP_PURCHASE"
	TransactionAdjustment    TransactionType = "ADJUSTMENT"
)

func (t TransactionType) IsValid() bool {
	switch t {
	case TransactionSale, TransactionScrapPurchase, TransactionAdjustment:
		return true
	}
	return false
}

// Transaction is a cash or scrap weight event. Amount is positive for income,
// negative for expense and zero for record-only adjustments.
type Transaction struct {
	ID               string          `json:"id"`
	Type             TransactionType `json:"type"`
	Amount           float64         `json:"amount"`
	Description      string          `json:"description"`
	Timestamp        int64           `json:"timestamp"` // unix millis
	RelatedBatteryID string          `json:"relatedBatteryId,omitempty"`
	ScrapWeight      *float64        `json:"scrapWeight,omitempty"`
}

func (t *Transaction) Time() time.Time {
	return time.UnixMilli(t.Timestamp)
}

func (t *Transaction) IsIncome() bool {
	return t.Amount > 0
}

func (t *Transaction) IsExpense() bool {
	return t.Amount < 0
}

// WeightDelta returns the scrap weight change, zero when none was recorded
func (t *Transaction) WeightDelta() float64 {
	if t.ScrapWeight == nil {
		return 0
	}
	return *t.ScrapWeight
}

// Clone returns a copy that does not share the scrap weight pointer
func (t Transaction) Clone() Transaction {
	if t.ScrapWeight != nil {
		weight := *t.ScrapWeight
		t.ScrapWeight = &weight
	}
	return t
}
