package router

import (
	"bytes"
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/gin-gonic/gin"

	"baterysul.com.br/ledger/pkg/ai"
	"baterysul.com.br/ledger/pkg/global"
	"baterysul.com.br/ledger/pkg/ledger"
	"baterysul.com.br/ledger/pkg/models"
)

type envelope struct {
	Success bool                     `json:"success"`
	Data    json.RawMessage          `json:"data"`
	Message string                   `json:"message"`
	Errors  []global.ValidationError `json:"errors"`
}

func setupRouter(t *testing.T, advisor *ai.Client) *ledger.Engine {
	t.Helper()
	gin.SetMode(gin.TestMode)

	engine := ledger.New(ledger.Options{DefaultScrapPrice: ledger.DefaultScrapPrice})
	t.Cleanup(engine.Close)

	InitEngine()
	InitializeRoutes(NewHandler(engine, advisor, "memory"))
	return engine
}

func doRequest(t *testing.T, method, path string, body interface{}) (*httptest.ResponseRecorder, envelope) {
	t.Helper()

	var reader *bytes.Reader
	if body != nil {
		raw, err := json.Marshal(body)
		if err != nil {
			t.Fatalf("marshal body: %v", err)
		}
		reader = bytes.NewReader(raw)
	} else {
		reader = bytes.NewReader(nil)
	}

	req := httptest.NewRequest(method, path, reader)
	req.Header.Set("Content-Type", "application/json")
	w := httptest.NewRecorder()
	Router.ServeHTTP(w, req)

	var env envelope
	if w.Body.Len() > 0 {
		if err := json.Unmarshal(w.Body.Bytes(), &env); err != nil {
			t.Fatalf("decode response %q: %v", w.Body.String(), err)
		}
	}
	return w, env
}

func decodeData(t *testing.T, env envelope, dest interface{}) {
	t.Helper()
	if err := json.Unmarshal(env.Data, dest); err != nil {
		t.Fatalf("decode data %s: %v", env.Data, err)
	}
}

func createBattery(t *testing.T, body map[string]interface{}) models.Battery {
	t.Helper()
	w, env := doRequest(t, http.MethodPost, "/api/batteries", body)
	if w.Code != http.StatusCreated {
		t.Fatalf("expected 201, got %d: %s", w.Code, w.Body.String())
	}
	var battery models.Battery
	decodeData(t, env, &battery)
	return battery
}

func TestAddBattery(t *testing.T) {
	setupRouter(t, nil)

	battery := createBattery(t, map[string]interface{}{"brand": "moura", "amperage": 60, "quantity": 3, "minStock": 2})
	if battery.Brand != models.BrandMoura || battery.Quantity != 3 || !battery.AlertEnabled || battery.ID == "" {
		t.Fatalf("unexpected battery %+v", battery)
	}

	tests := []struct {
		name string
		body map[string]interface{}
		code string
	}{
		{"unknown brand", map[string]interface{}{"brand": "Bosch", "amperage": 60}, "brand"},
		{"missing amperage", map[string]interface{}{"brand": "Heliar"}, "required"},
		{"negative amperage", map[string]interface{}{"brand": "Heliar", "amperage": -45}, "gt"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			w, env := doRequest(t, http.MethodPost, "/api/batteries", tt.body)
			if w.Code != http.StatusBadRequest {
				t.Fatalf("expected 400, got %d", w.Code)
			}
			if len(env.Errors) != 1 || env.Errors[0].Code != tt.code {
				t.Fatalf("expected %s validation error, got %+v", tt.code, env.Errors)
			}
		})
	}
}

func TestAdjustQuantityClampsAndReportsNotFound(t *testing.T) {
	engine := setupRouter(t, nil)
	battery := createBattery(t, map[string]interface{}{"brand": "Heliar", "amperage": 45, "quantity": 2})

	w, env := doRequest(t, http.MethodPost, "/api/batteries/"+battery.ID+"/quantity", map[string]int{"delta": -5})
	if w.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d", w.Code)
	}
	var updated models.Battery
	decodeData(t, env, &updated)
	if updated.Quantity != 0 {
		t.Fatalf("expected clamp at zero, got %d", updated.Quantity)
	}

	w, env = doRequest(t, http.MethodPost, "/api/batteries/missing/quantity", map[string]int{"delta": 1})
	if w.Code != http.StatusNotFound || env.Success {
		t.Fatalf("expected 404 envelope, got %d %+v", w.Code, env)
	}
	if got := len(engine.Movements("")); got != 2 {
		t.Fatalf("expected CREATE and OUT movements only, got %d", got)
	}
}

func TestSellBattery(t *testing.T) {
	setupRouter(t, nil)
	battery := createBattery(t, map[string]interface{}{"brand": "Moura", "amperage": 60, "quantity": 3, "price": 450})

	w, env := doRequest(t, http.MethodPost, "/api/batteries/"+battery.ID+"/sell", map[string]interface{}{"price": 50})
	if w.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d: %s", w.Code, w.Body.String())
	}
	var sale ledger.Sale
	decodeData(t, env, &sale)
	if sale.Battery.Quantity != 2 || sale.Movement.QuantityDelta != -1 || sale.Transaction.Amount != 50 || sale.CashBalance != 50 {
		t.Fatalf("unexpected sale %+v", sale)
	}
	if sale.Transaction.Description != "Venda: Moura 60Ah" || sale.Transaction.RelatedBatteryID != battery.ID {
		t.Fatalf("unexpected sale transaction %+v", sale.Transaction)
	}

	// list price with a discount
	_, env = doRequest(t, http.MethodPost, "/api/batteries/"+battery.ID+"/sell", map[string]interface{}{"discount": 30})
	decodeData(t, env, &sale)
	if sale.Transaction.Amount != 420 || sale.CashBalance != 470 {
		t.Fatalf("expected discounted list price, got %+v", sale)
	}

	w, _ = doRequest(t, http.MethodPost, "/api/batteries/missing/sell", nil)
	if w.Code != http.StatusNotFound {
		t.Fatalf("expected 404, got %d", w.Code)
	}
}

func TestDeleteBatteryRequiresConfirmation(t *testing.T) {
	engine := setupRouter(t, nil)
	battery := createBattery(t, map[string]interface{}{"brand": "Pioneiro", "amperage": 70, "quantity": 5})

	w, _ := doRequest(t, http.MethodDelete, "/api/batteries/"+battery.ID, nil)
	if w.Code != http.StatusPreconditionRequired {
		t.Fatalf("expected 428 without confirmation, got %d", w.Code)
	}
	if len(engine.Inventory()) != 1 {
		t.Fatalf("battery should survive an unconfirmed delete")
	}

	w, env := doRequest(t, http.MethodDelete, "/api/batteries/"+battery.ID+"?confirm=true", nil)
	if w.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d", w.Code)
	}
	var movement models.StockMovement
	decodeData(t, env, &movement)
	if movement.Type != models.MovementDelete || movement.QuantityDelta != -5 {
		t.Fatalf("unexpected movement %+v", movement)
	}

	w, _ = doRequest(t, http.MethodGet, "/api/batteries/"+battery.ID, nil)
	if w.Code != http.StatusNotFound {
		t.Fatalf("expected 404 after delete, got %d", w.Code)
	}

	// history survives the battery
	_, env = doRequest(t, http.MethodGet, "/api/movements?batteryId="+battery.ID, nil)
	var history []models.StockMovement
	decodeData(t, env, &history)
	if len(history) != 2 || history[0].Type != models.MovementDelete {
		t.Fatalf("expected DELETE then CREATE, got %+v", history)
	}
}

func TestGetBatteriesFilter(t *testing.T) {
	setupRouter(t, nil)
	createBattery(t, map[string]interface{}{"brand": "Moura", "amperage": 600})
	createBattery(t, map[string]interface{}{"brand": "Heliar", "amperage": 60})
	createBattery(t, map[string]interface{}{"brand": "Moura", "amperage": 60})
	createBattery(t, map[string]interface{}{"brand": "Moura", "amperage": 45})

	w, env := doRequest(t, http.MethodGet, "/api/batteries?brand=Moura&q=60", nil)
	if w.Header().Get("X-Total-Count") != "2" {
		t.Fatalf("expected two matches, got %s", w.Header().Get("X-Total-Count"))
	}
	var batteries []models.Battery
	decodeData(t, env, &batteries)
	if len(batteries) != 2 || batteries[0].Amperage != 60 || batteries[1].Amperage != 600 {
		t.Fatalf("unexpected filter result %+v", batteries)
	}

	_, env = doRequest(t, http.MethodGet, "/api/batteries", nil)
	decodeData(t, env, &batteries)
	if len(batteries) != 4 || batteries[0].Brand != models.BrandHeliar {
		t.Fatalf("expected every battery sorted by brand, got %+v", batteries)
	}
}

func TestScrapPurchaseAndStats(t *testing.T) {
	setupRouter(t, nil)

	w, _ := doRequest(t, http.MethodPost, "/api/scrap/purchases", map[string]interface{}{"weight": 10})
	if w.Code != http.StatusCreated {
		t.Fatalf("expected 201, got %d: %s", w.Code, w.Body.String())
	}
	w, _ = doRequest(t, http.MethodPost, "/api/scrap/purchases", map[string]interface{}{"weight": 5, "cost": 21})
	if w.Code != http.StatusCreated {
		t.Fatalf("expected 201, got %d", w.Code)
	}
	w, _ = doRequest(t, http.MethodPost, "/api/scrap/adjustments", map[string]interface{}{"weightDelta": -20})
	if w.Code != http.StatusCreated {
		t.Fatalf("expected 201, got %d", w.Code)
	}

	_, env := doRequest(t, http.MethodGet, "/api/stats", nil)
	var stats StatsResponse
	decodeData(t, env, &stats)
	if stats.ScrapWeight != 0 || stats.CashBalance != -63 {
		t.Fatalf("unexpected stats %+v", stats.Stats)
	}
	if stats.Display["cashBalance"] != "-R$ 63,00" || stats.Display["scrapPricePerKg"] != "R$ 4,20" {
		t.Fatalf("unexpected display strings %+v", stats.Display)
	}

	_, env = doRequest(t, http.MethodGet, "/api/transactions?type=ADJUSTMENT", nil)
	var txs []models.Transaction
	decodeData(t, env, &txs)
	if len(txs) != 1 || txs[0].Amount != 0 || txs[0].Description != models.ScrapAdjustOutDescription {
		t.Fatalf("unexpected adjustments %+v", txs)
	}

	w, _ = doRequest(t, http.MethodGet, "/api/transactions?type=REFUND", nil)
	if w.Code != http.StatusBadRequest {
		t.Fatalf("expected 400 for unknown type, got %d", w.Code)
	}

	_, env = doRequest(t, http.MethodGet, "/api/reconcile", nil)
	var report ledger.Reconciliation
	decodeData(t, env, &report)
	if !report.Consistent || report.TransactionCount != 3 {
		t.Fatalf("unexpected reconciliation %+v", report)
	}
}

func TestScrapPriceAndQuote(t *testing.T) {
	setupRouter(t, nil)

	w, _ := doRequest(t, http.MethodPut, "/api/scrap/price", map[string]interface{}{"pricePerKg": 5.5})
	if w.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d", w.Code)
	}

	_, env := doRequest(t, http.MethodGet, "/api/scrap/quote?weight=3", nil)
	var quote struct {
		Cost float64 `json:"cost"`
	}
	decodeData(t, env, &quote)
	if quote.Cost != 16.5 {
		t.Fatalf("expected 16.5, got %v", quote.Cost)
	}

	w, _ = doRequest(t, http.MethodGet, "/api/scrap/quote?weight=abc", nil)
	if w.Code != http.StatusBadRequest {
		t.Fatalf("expected 400, got %d", w.Code)
	}
	w, _ = doRequest(t, http.MethodPut, "/api/scrap/price", map[string]interface{}{})
	if w.Code != http.StatusBadRequest {
		t.Fatalf("expected 400 for missing price, got %d", w.Code)
	}
}

func TestExportState(t *testing.T) {
	setupRouter(t, nil)
	createBattery(t, map[string]interface{}{"brand": "Outros", "amperage": 150, "quantity": 1})

	_, env := doRequest(t, http.MethodGet, "/api/export", nil)
	var state map[string]string
	decodeData(t, env, &state)
	for _, key := range ledger.Keys {
		if _, ok := state[key]; !ok {
			t.Fatalf("expected key %s in export", key)
		}
	}
	if state["scrap_price"] != "4.2" || !strings.Contains(state["battery_inventory"], `"brand":"Outros"`) {
		t.Fatalf("unexpected export %+v", state)
	}
}

func TestStockReportWithoutAdvisor(t *testing.T) {
	setupRouter(t, ai.NewClient("", "", ""))
	createBattery(t, map[string]interface{}{"brand": "Moura", "amperage": 60, "quantity": 1, "minStock": 2})

	w := httptest.NewRecorder()
	Router.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/api/analytics/ai/stock-report", nil))
	if w.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d", w.Code)
	}

	var report ai.AIReportResponse
	if err := json.Unmarshal(w.Body.Bytes(), &report); err != nil {
		t.Fatalf("decode report: %v", err)
	}
	if report.AIEnabled || report.Data.Error != ai.ServiceErrorMessage {
		t.Fatalf("expected fallback report, got %+v", report)
	}
}

func TestStockReportCollapsesConcurrentRequests(t *testing.T) {
	var calls int32
	release := make(chan struct{})
	received := make(chan struct{}, 1)

	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		atomic.AddInt32(&calls, 1)
		received <- struct{}{}
		<-release
		w.Header().Set("Content-Type", "application/json")
		w.Write([]byte(`{"id":"c","object":"chat.completion","created":1,"model":"m","choices":[{"index":0,"finish_reason":"stop","message":{"role":"assistant","content":"ok"}}]}`))
	}))
	defer srv.Close()

	setupRouter(t, ai.NewClient(srv.URL+"/v1/", "test-key", ""))
	createBattery(t, map[string]interface{}{"brand": "Heliar", "amperage": 45, "quantity": 1})

	var wg sync.WaitGroup
	codes := make([]int, 4)
	request := func(i int) {
		defer wg.Done()
		w := httptest.NewRecorder()
		Router.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/api/analytics/ai/stock-report", nil))
		codes[i] = w.Code
	}

	wg.Add(1)
	go request(0)
	<-received

	for i := 1; i < len(codes); i++ {
		wg.Add(1)
		go request(i)
	}
	time.Sleep(100 * time.Millisecond)
	close(release)
	wg.Wait()

	if got := atomic.LoadInt32(&calls); got != 1 {
		t.Fatalf("expected one advisory call, got %d", got)
	}
	for i, code := range codes {
		if code != http.StatusOK {
			t.Fatalf("request %d: expected 200, got %d", i, code)
		}
	}
}

func TestStockReportSurvivesCallerCancellation(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		w.Write([]byte(`{"id":"c","object":"chat.completion","created":1,"model":"m","choices":[{"index":0,"finish_reason":"stop","message":{"role":"assistant","content":"Repor Moura 60Ah."}}]}`))
	}))
	defer srv.Close()

	setupRouter(t, ai.NewClient(srv.URL+"/v1/", "test-key", ""))
	createBattery(t, map[string]interface{}{"brand": "Moura", "amperage": 60, "quantity": 0, "minStock": 2})

	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	req := httptest.NewRequest(http.MethodGet, "/api/analytics/ai/stock-report", nil).WithContext(ctx)
	w := httptest.NewRecorder()
	Router.ServeHTTP(w, req)

	var report ai.AIReportResponse
	if err := json.Unmarshal(w.Body.Bytes(), &report); err != nil {
		t.Fatalf("decode report: %v", err)
	}
	if report.Data.AIInsights != "Repor Moura 60Ah." || report.Data.Error != "" {
		t.Fatalf("expected report despite cancelled caller, got %+v", report.Data)
	}
}

func TestGetBatteriesBrandAnyCasing(t *testing.T) {
	setupRouter(t, nil)
	createBattery(t, map[string]interface{}{"brand": "Moura", "amperage": 60})

	_, env := doRequest(t, http.MethodGet, "/api/batteries?brand=moura", nil)
	var batteries []models.Battery
	decodeData(t, env, &batteries)
	if len(batteries) != 1 {
		t.Fatalf("expected lowercase brand filter to match, got %+v", batteries)
	}
}

func TestCatalogAndHealth(t *testing.T) {
	setupRouter(t, nil)

	_, env := doRequest(t, http.MethodGet, "/api/catalog", nil)
	var catalog struct {
		Brands    []models.Brand `json:"brands"`
		Amperages []int          `json:"amperages"`
	}
	decodeData(t, env, &catalog)
	if len(catalog.Brands) != 5 || len(catalog.Amperages) != 12 {
		t.Fatalf("unexpected catalog %+v", catalog)
	}

	w, env := doRequest(t, http.MethodGet, "/api/health", nil)
	var health map[string]string
	decodeData(t, env, &health)
	if w.Code != http.StatusOK || health["store"] != "memory" || health["ai"] != "false" {
		t.Fatalf("unexpected health %+v", health)
	}
}
