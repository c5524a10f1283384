package ledger

import (
	"fmt"
	"io"
	"testing"
	"time"

	"github.com/sirupsen/logrus"

	"baterysul.com.br/ledger/pkg/models"
	"baterysul.com.br/ledger/pkg/store"
)

// testOptions gives deterministic ids and a clock that ticks one millisecond per read
func testOptions(s store.Store) Options {
	var ids int
	clock := time.Date(2025, 3, 1, 9, 0, 0, 0, time.UTC)

	logger := logrus.New()
	logger.SetOutput(io.Discard)

	return Options{
		Store:             s,
		DefaultScrapPrice: DefaultScrapPrice,
		Logger:            logger,
		Clock: func() time.Time {
			clock = clock.Add(time.Millisecond)
			return clock
		},
		NewID: func() string {
			ids++
			return fmt.Sprintf("id-%d", ids)
		},
	}
}

func newTestEngine(t *testing.T) *Engine {
	t.Helper()
	e := New(testOptions(nil))
	t.Cleanup(e.Close)
	return e
}

func addBattery(t *testing.T, e *Engine, brand models.Brand, amperage, quantity, minStock int, price float64) models.Battery {
	t.Helper()
	return e.AddBattery(NewBattery{
		Brand:        brand,
		Amperage:     amperage,
		Quantity:     quantity,
		MinStock:     minStock,
		Price:        models.Float(price),
		AlertEnabled: true,
	})
}

func countMovements(movements []models.StockMovement, kinds ...models.MovementType) int {
	n := 0
	for _, m := range movements {
		for _, kind := range kinds {
			if m.Type == kind {
				n++
			}
		}
	}
	return n
}

// assertBalanceMatchesLog checks the cached balance against a full sum of the log
func assertBalanceMatchesLog(t *testing.T, e *Engine) {
	t.Helper()
	e.mu.RLock()
	defer e.mu.RUnlock()

	var sum float64
	for _, tx := range e.transactions {
		sum += tx.Amount
	}
	if e.cashBalance != sum {
		t.Fatalf("cash balance %v does not equal transaction sum %v", e.cashBalance, sum)
	}
}
