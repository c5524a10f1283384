// Command import-localstorage loads a JSON dump of the browser app's
// localStorage into the configured store.
package main

import (
	"bytes"
	"context"
	"encoding/json"
	"flag"
	"fmt"
	"os"

	"github.com/joho/godotenv"
	"github.com/sirupsen/logrus"

	"baterysul.com.br/ledger/internal/bootstrap"
	"baterysul.com.br/ledger/pkg/global"
	"baterysul.com.br/ledger/pkg/ledger"
	"baterysul.com.br/ledger/pkg/store"
)

func main() {
	file := flag.String("file", "", "Required: path to the localStorage JSON dump")
	dryRun := flag.Bool("dry-run", false, "Validate and print stats without writing")
	flag.Parse()

	if *file == "" {
		fmt.Fprintln(os.Stderr, "--file is required")
		os.Exit(1)
	}

	if err := godotenv.Load(); err != nil {
		global.Logger().Warnf("No .env file loaded: %v", err)
	}
	global.ConfigureLogger()
	logger := global.Logger()

	raw, err := os.ReadFile(*file)
	if err != nil {
		logger.Fatalf("Failed to read %s: %v", *file, err)
	}

	ctx, cancel := global.GetDefaultTimer()
	defer cancel()

	state, stats, err := normalize(ctx, raw)
	if err != nil {
		logger.Fatalf("Invalid dump: %v", err)
	}
	logger.WithFields(logrus.Fields{
		"batteries":   stats.BatteryCount,
		"units":       stats.TotalUnits,
		"cashBalance": stats.CashBalance,
		"scrapWeight": stats.ScrapWeight,
	}).Info("Dump parsed")

	if *dryRun {
		return
	}

	backend := global.GetStoreBackend()
	kv, err := bootstrap.OpenStore(ctx, backend)
	if err != nil {
		logger.Fatalf("Failed to open %s store: %v", backend, err)
	}
	defer kv.Close()

	for _, key := range ledger.Keys {
		if err := kv.Set(ctx, key, state[key]); err != nil {
			logger.Fatalf("Failed to write %s: %v", key, err)
		}
	}
	logger.WithField("store", backend).Info("Import complete")
}

// normalize loads the dump through the ledger so legacy records are
// backfilled and the balance is rebuilt before anything is written
func normalize(ctx context.Context, raw []byte) (map[string][]byte, ledger.Stats, error) {
	var dump map[string]json.RawMessage
	if err := json.Unmarshal(raw, &dump); err != nil {
		return nil, ledger.Stats{}, fmt.Errorf("decode dump: %w", err)
	}

	staging := store.NewMemoryStore()
	for _, key := range ledger.Keys {
		value, ok := dump[key]
		if !ok {
			continue
		}
		if err := staging.Set(ctx, key, unquote(value)); err != nil {
			return nil, ledger.Stats{}, err
		}
	}

	engine, err := ledger.Open(ctx, ledger.Options{
		Store:             staging,
		DefaultScrapPrice: global.GetEnvFloatOrDefault("DEFAULT_SCRAP_PRICE", ledger.DefaultScrapPrice),
	})
	if err != nil {
		return nil, ledger.Stats{}, err
	}
	defer engine.Close()

	state, err := engine.Export()
	if err != nil {
		return nil, ledger.Stats{}, err
	}
	return state, engine.Stats(), nil
}

// unquote accepts both localStorage strings ("[...]") and inline JSON values
func unquote(value json.RawMessage) []byte {
	trimmed := bytes.TrimSpace(value)
	var s string
	if len(trimmed) > 0 && trimmed[0] == '"' && json.Unmarshal(trimmed, &s) == nil {
		return []byte(s)
	}
	return trimmed
}
