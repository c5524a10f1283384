// Package ledger owns the shop state: battery inventory, the stock movement
// log, the cash transaction log and the scrap sub-ledger. Every mutation goes
// through an Engine method, which updates all affected collections under one
// lock and queues the changed snapshots for persistence.
package ledger

import (
	"errors"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/sirupsen/logrus"

	"baterysul.com.br/ledger/pkg/global"
	"baterysul.com.br/ledger/pkg/models"
	"baterysul.com.br/ledger/pkg/store"
)

// ErrBatteryNotFound is returned when an operation names an unknown battery.
// State is left untouched.
var ErrBatteryNotFound = errors.New("battery not found")

const DefaultScrapPrice = 4.20

type Options struct {
	// Store receives snapshots after each mutation. Nil disables persistence.
	Store             store.Store
	DefaultScrapPrice float64
	Logger            *logrus.Logger
	Clock             func() time.Time
	NewID             func() string
}

type Engine struct {
	mu sync.RWMutex

	inventory    []models.Battery
	movements    []models.StockMovement
	transactions []models.Transaction
	cashBalance  float64
	scrap        models.ScrapState

	now   func() time.Time
	newID func() string
	log   *logrus.Logger

	writer *persister
	closed bool
}

// New returns an engine with empty collections
func New(opts Options) *Engine {
	e := &Engine{
		inventory:    []models.Battery{},
		movements:    []models.StockMovement{},
		transactions: []models.Transaction{},
		scrap:        models.ScrapState{PricePerKg: opts.DefaultScrapPrice},
		now:          opts.Clock,
		newID:        opts.NewID,
		log:          opts.Logger,
	}
	if e.now == nil {
		e.now = time.Now
	}
	if e.newID == nil {
		e.newID = uuid.NewString
	}
	if e.log == nil {
		e.log = global.Logger()
	}
	if opts.Store != nil {
		e.writer = newPersister(opts.Store, e.log)
	}
	return e
}

// Close stops accepting snapshot writes and waits for queued ones to finish.
// The store itself is left open.
func (e *Engine) Close() {
	e.mu.Lock()
	if e.closed {
		e.mu.Unlock()
		return
	}
	e.closed = true
	e.mu.Unlock()

	if e.writer != nil {
		e.writer.close()
	}
}

func (e *Engine) timestamp() int64 {
	return e.now().UnixMilli()
}

// find returns the index of the battery or -1. Caller holds the lock.
func (e *Engine) find(batteryID string) int {
	for i := range e.inventory {
		if e.inventory[i].ID == batteryID {
			return i
		}
	}
	return -1
}

// logMovement appends to the movement log. Caller holds the write lock.
func (e *Engine) logMovement(b *models.Battery, kind models.MovementType, delta int) models.StockMovement {
	movement := models.StockMovement{
		ID:            e.newID(),
		BatteryID:     b.ID,
		Brand:         b.Brand,
		Amperage:      b.Amperage,
		Type:          kind,
		QuantityDelta: delta,
		Timestamp:     e.timestamp(),
	}
	e.movements = append(e.movements, movement)
	return movement
}

// logTransaction appends to the cash log and moves the cached balance with it.
// Caller holds the write lock.
func (e *Engine) logTransaction(tx models.Transaction) models.Transaction {
	tx.ID = e.newID()
	tx.Timestamp = e.timestamp()
	e.transactions = append(e.transactions, tx)
	e.cashBalance += tx.Amount
	return tx.Clone()
}
