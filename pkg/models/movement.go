package models

import "time"

type MovementType string

const (
	MovementCreate MovementType = "CREATE"
	MovementIn     MovementType = "IN"
	MovementOut    MovementType = "OUT"
	MovementSale   MovementType = "SALE"
	MovementDelete MovementType = "DELETE"
)

// StockMovement records a change in a battery's stock. Brand and amperage are
// copied at write time so history survives edits and deletion.
type StockMovement struct {
	ID            string       `json:"id"`
	BatteryID     string       `json:"batteryId"`
	Brand         Brand        `json:"brand"`
	Amperage      int          `json:"amperage"`
	Type          MovementType `json:"type"`
	QuantityDelta int          `json:"quantityDelta"`
	Timestamp     int64        `json:"timestamp"` // unix millis
}

// Time converts the stored millisecond timestamp
func (m *StockMovement) Time() time.Time {
	return time.UnixMilli(m.Timestamp)
}

// IsIncrease returns true if the movement added stock
func (m *StockMovement) IsIncrease() bool {
	return m.QuantityDelta > 0
}

// IsDecrease returns true if the movement removed stock
func (m *StockMovement) IsDecrease() bool {
	return m.QuantityDelta < 0
}

// GetAbsoluteChange returns the absolute value of the delta
func (m *StockMovement) GetAbsoluteChange() int {
	if m.QuantityDelta < 0 {
		return -m.QuantityDelta
	}
	return m.QuantityDelta
}

// Label returns the pt-BR history label for the movement type
func (t MovementType) Label() string {
	switch t {
	case MovementIn:
		return "Entrada"
	case MovementOut:
		return "Saída"
	case MovementCreate:
		return "Cadastro"
	case MovementDelete:
		return "Remoção"
	case MovementSale:
		return "Venda"
	default:
		return "Registro"
	}
}
