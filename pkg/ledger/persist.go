package ledger

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"sort"
	"strconv"
	"strings"
	"sync"

	"github.com/sirupsen/logrus"

	"baterysul.com.br/ledger/pkg/global"
	"baterysul.com.br/ledger/pkg/models"
	"baterysul.com.br/ledger/pkg/store"
)

// Store keys. Names and encodings match the browser storage of the first
// version of the app so its exports load unchanged.
const (
	keyInventory    = "battery_inventory"
	keyMovements    = "battery_movements"
	keyTransactions = "cash_transactions"
	keyCashBalance  = "cash_balance"
	keyScrapWeight  = "scrap_weight"
	keyScrapPrice   = "scrap_price"
)

// Keys lists every key the engine reads and writes
var Keys = []string{keyInventory, keyMovements, keyTransactions, keyCashBalance, keyScrapWeight, keyScrapPrice}

// storedBattery accepts records written before alertEnabled existed
type storedBattery struct {
	models.Battery
	AlertEnabled *bool `json:"alertEnabled"`
}

// Open builds an engine and rehydrates it from opts.Store
func Open(ctx context.Context, opts Options) (*Engine, error) {
	e := New(opts)
	if opts.Store == nil {
		return e, nil
	}
	if err := e.load(ctx, opts.Store); err != nil {
		e.Close()
		return nil, err
	}
	return e, nil
}

func (e *Engine) load(ctx context.Context, s store.Store) error {
	e.mu.Lock()
	defer e.mu.Unlock()

	var stored []storedBattery
	if _, err := readJSON(ctx, s, keyInventory, &stored); err != nil {
		return err
	}
	e.inventory = make([]models.Battery, 0, len(stored))
	for _, sb := range stored {
		b := sb.Battery
		b.AlertEnabled = sb.AlertEnabled == nil || *sb.AlertEnabled
		b.Quantity = max(0, b.Quantity)
		b.MinStock = max(0, b.MinStock)
		e.inventory = append(e.inventory, b)
	}

	e.movements = []models.StockMovement{}
	if _, err := readJSON(ctx, s, keyMovements, &e.movements); err != nil {
		return err
	}
	if e.movements == nil {
		e.movements = []models.StockMovement{}
	}
	// older exports are newest first
	sort.SliceStable(e.movements, func(i, j int) bool {
		return e.movements[i].Timestamp < e.movements[j].Timestamp
	})

	e.transactions = []models.Transaction{}
	if _, err := readJSON(ctx, s, keyTransactions, &e.transactions); err != nil {
		return err
	}
	if e.transactions == nil {
		e.transactions = []models.Transaction{}
	}
	sort.SliceStable(e.transactions, func(i, j int) bool {
		return e.transactions[i].Timestamp < e.transactions[j].Timestamp
	})

	cached, found, err := readFloat(ctx, s, keyCashBalance)
	if err != nil {
		return err
	}
	e.cashBalance = sumAmounts(e.transactions)
	if found && !models.SameCents(cached, e.cashBalance) {
		e.log.WithFields(logrus.Fields{
			"cached": cached,
			"ledger": e.cashBalance,
		}).Warn("Stored cash balance disagrees with transaction log, using log sum")
		e.persist(keyCashBalance)
	}

	weight, _, err := readFloat(ctx, s, keyScrapWeight)
	if err != nil {
		return err
	}
	e.scrap.Weight = max(0, weight)

	price, found, err := readFloat(ctx, s, keyScrapPrice)
	if err != nil {
		return err
	}
	if found {
		e.scrap.PricePerKg = max(0, price)
	}

	e.log.WithFields(logrus.Fields{
		"batteries":    len(e.inventory),
		"movements":    len(e.movements),
		"transactions": len(e.transactions),
	}).Info("Ledger state loaded")
	return nil
}

func readJSON(ctx context.Context, s store.Store, key string, dest interface{}) (bool, error) {
	raw, err := s.Get(ctx, key)
	if errors.Is(err, store.ErrKeyNotFound) {
		return false, nil
	}
	if err != nil {
		return false, err
	}
	if len(strings.TrimSpace(string(raw))) == 0 {
		return false, nil
	}
	if err := json.Unmarshal(raw, dest); err != nil {
		return false, fmt.Errorf("failed to decode %s: %w", key, err)
	}
	return true, nil
}

func readFloat(ctx context.Context, s store.Store, key string) (float64, bool, error) {
	raw, err := s.Get(ctx, key)
	if errors.Is(err, store.ErrKeyNotFound) {
		return 0, false, nil
	}
	if err != nil {
		return 0, false, err
	}
	text := strings.TrimSpace(string(raw))
	if text == "" {
		return 0, false, nil
	}
	value, err := strconv.ParseFloat(text, 64)
	if err != nil {
		return 0, false, fmt.Errorf("failed to parse %s: %w", key, err)
	}
	return value, true, nil
}

func formatFloat(v float64) []byte {
	return []byte(strconv.FormatFloat(v, 'f', -1, 64))
}

// snapshot encodes one key from the current state. Caller holds the lock.
func (e *Engine) snapshot(key string) ([]byte, error) {
	switch key {
	case keyInventory:
		return json.Marshal(e.inventory)
	case keyMovements:
		return json.Marshal(e.movements)
	case keyTransactions:
		return json.Marshal(e.transactions)
	case keyCashBalance:
		return formatFloat(e.cashBalance), nil
	case keyScrapWeight:
		return formatFloat(e.scrap.Weight), nil
	case keyScrapPrice:
		return formatFloat(e.scrap.PricePerKg), nil
	}
	return nil, fmt.Errorf("unknown ledger key %s", key)
}

// persist hands snapshots of the given keys to the writer. It never waits on
// the store, so a stalled backend cannot hold the engine lock.
func (e *Engine) persist(keys ...string) {
	if e.writer == nil || e.closed {
		return
	}
	for _, key := range keys {
		value, err := e.snapshot(key)
		if err != nil {
			global.LogError("ledger", "persist", "snapshot", key, err)
			continue
		}
		e.writer.enqueue(key, value)
	}
}

// Export encodes every key as the store would hold it
func (e *Engine) Export() (map[string][]byte, error) {
	e.mu.RLock()
	defer e.mu.RUnlock()

	out := make(map[string][]byte, len(Keys))
	for _, key := range Keys {
		value, err := e.snapshot(key)
		if err != nil {
			return nil, err
		}
		out[key] = value
	}
	return out, nil
}

// persister writes pending snapshots on its own goroutine. Each snapshot is
// the whole value of its key, so a newer one replaces any pending older one.
// Failures are logged and dropped.
type persister struct {
	store store.Store
	log   *logrus.Logger

	mu      sync.Mutex
	pending map[string][]byte
	order   []string
	closing bool

	wake chan struct{}
	done chan struct{}
}

func newPersister(s store.Store, log *logrus.Logger) *persister {
	p := &persister{
		store:   s,
		log:     log,
		pending: make(map[string][]byte),
		wake:    make(chan struct{}, 1),
		done:    make(chan struct{}),
	}
	go p.run()
	return p
}

func (p *persister) enqueue(key string, value []byte) {
	p.mu.Lock()
	if _, ok := p.pending[key]; !ok {
		p.order = append(p.order, key)
	}
	p.pending[key] = value
	p.mu.Unlock()
	p.signal()
}

func (p *persister) signal() {
	select {
	case p.wake <- struct{}{}:
	default:
	}
}

// next takes the pending batch, waiting for one. ok is false once closed and drained.
func (p *persister) next() (order []string, values map[string][]byte, ok bool) {
	p.mu.Lock()
	for len(p.order) == 0 {
		if p.closing {
			p.mu.Unlock()
			return nil, nil, false
		}
		p.mu.Unlock()
		<-p.wake
		p.mu.Lock()
	}
	order, values = p.order, p.pending
	p.order, p.pending = nil, make(map[string][]byte)
	p.mu.Unlock()
	return order, values, true
}

func (p *persister) run() {
	defer close(p.done)
	for {
		order, values, ok := p.next()
		if !ok {
			return
		}
		for _, key := range order {
			ctx, cancel := global.GetDefaultTimer()
			if err := p.store.Set(ctx, key, values[key]); err != nil {
				p.log.WithFields(logrus.Fields{
					"module": "ledger",
					"key":    key,
				}).Error(err.Error())
			}
			cancel()
		}
	}
}

// close waits for everything pending to be written
func (p *persister) close() {
	p.mu.Lock()
	p.closing = true
	p.mu.Unlock()
	p.signal()
	<-p.done
}
