package router

import (
	"context"
	"errors"
	"net/http"
	"strconv"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/go-playground/validator/v10"
	"golang.org/x/sync/singleflight"

	"baterysul.com.br/ledger/pkg/ai"
	"baterysul.com.br/ledger/pkg/global"
	"baterysul.com.br/ledger/pkg/ledger"
	"baterysul.com.br/ledger/pkg/models"
)

const advisoryTimeout = 60 * time.Second

// Handler forwards HTTP requests to the ledger engine and the advisor
type Handler struct {
	Ledger  *ledger.Engine
	Advisor *ai.Client
	Backend string

	reports singleflight.Group
}

func NewHandler(engine *ledger.Engine, advisor *ai.Client, backend string) *Handler {
	return &Handler{Ledger: engine, Advisor: advisor, Backend: backend}
}

// StatsResponse adds pt-BR display strings to the raw figures
type StatsResponse struct {
	ledger.Stats
	Display map[string]string `json:"display"`
}

func (h *Handler) HealthCheck(c *gin.Context) {
	c.JSON(http.StatusOK, global.SuccessResponse(map[string]string{
		"status": "OK",
		"store":  h.Backend,
		"ai":     strconv.FormatBool(h.Advisor.IsEnabled()),
	}))
}

func (h *Handler) GetCatalog(c *gin.Context) {
	c.JSON(http.StatusOK, global.SuccessResponse(gin.H{
		"brands":    models.SupportedBrands,
		"amperages": models.CommonAmperages,
	}))
}

// GetBatteries lists inventory filtered by ?brand= and ?q=
func (h *Handler) GetBatteries(c *gin.Context) {
	batteries := h.Ledger.Search(c.DefaultQuery("brand", ledger.AllBrands), c.Query("q"))
	c.Header("X-Total-Count", strconv.Itoa(len(batteries)))
	c.JSON(http.StatusOK, global.SuccessResponse(batteries))
}

func (h *Handler) GetBatteryByID(c *gin.Context) {
	battery, err := h.Ledger.Battery(c.Param("id"))
	if err != nil {
		h.ledgerError(c, "GetBatteryByID", err)
		return
	}
	c.JSON(http.StatusOK, global.SuccessResponse(battery))
}

func (h *Handler) AddBattery(c *gin.Context) {
	var req models.AddBatteryRequest
	if !bindJSON(c, &req) {
		return
	}

	brand, _ := models.ParseBrand(string(req.Brand))
	battery := h.Ledger.AddBattery(ledger.NewBattery{
		Brand:        brand,
		Amperage:     req.Amperage,
		Quantity:     req.Quantity,
		MinStock:     req.MinStock,
		Price:        req.Price,
		AlertEnabled: req.AlertOrDefault(),
	})
	c.JSON(http.StatusCreated, global.SuccessResponse(battery))
}

func (h *Handler) AdjustQuantity(c *gin.Context) {
	var req models.AdjustQuantityRequest
	if !bindJSON(c, &req) {
		return
	}

	battery, err := h.Ledger.AdjustQuantity(c.Param("id"), req.Delta)
	if err != nil {
		h.ledgerError(c, "AdjustQuantity", err)
		return
	}
	c.JSON(http.StatusOK, global.SuccessResponse(battery))
}

func (h *Handler) ToggleAlert(c *gin.Context) {
	battery, err := h.Ledger.ToggleAlert(c.Param("id"))
	if err != nil {
		h.ledgerError(c, "ToggleAlert", err)
		return
	}
	c.JSON(http.StatusOK, global.SuccessResponse(battery))
}

func (h *Handler) DeleteBattery(c *gin.Context) {
	movement, err := h.Ledger.DeleteBattery(c.Param("id"))
	if err != nil {
		h.ledgerError(c, "DeleteBattery", err)
		return
	}
	c.JSON(http.StatusOK, global.SuccessResponse(movement))
}

// SellBattery charges the asked price (or list price) less the discount
func (h *Handler) SellBattery(c *gin.Context) {
	var req models.SellBatteryRequest
	if c.Request.ContentLength != 0 && !bindJSON(c, &req) {
		return
	}

	id := c.Param("id")
	battery, err := h.Ledger.Battery(id)
	if err != nil {
		h.ledgerError(c, "SellBattery", err)
		return
	}

	sale, err := h.Ledger.SellBattery(id, req.FinalPrice(battery.UnitPrice()), req.Units())
	if err != nil {
		h.ledgerError(c, "SellBattery", err)
		return
	}
	c.JSON(http.StatusOK, global.SuccessResponse(sale))
}

func (h *Handler) GetBatteryMovements(c *gin.Context) {
	id := c.Param("id")
	if _, err := h.Ledger.Battery(id); err != nil {
		h.ledgerError(c, "GetBatteryMovements", err)
		return
	}
	c.JSON(http.StatusOK, global.SuccessResponse(h.Ledger.Movements(id)))
}

// GetMovements returns stock history, newest first. Deleted batteries can
// still be looked up through ?batteryId=.
func (h *Handler) GetMovements(c *gin.Context) {
	c.JSON(http.StatusOK, global.SuccessResponse(h.Ledger.Movements(c.Query("batteryId"))))
}

func (h *Handler) GetTransactions(c *gin.Context) {
	kind := models.TransactionType(c.Query("type"))
	if kind != "" && !kind.IsValid() {
		c.JSON(http.StatusBadRequest, global.ErrorResponse("Invalid transaction type",
			global.FieldError("type", "type must be one of SALE, SCRAP_PURCHASE, ADJUSTMENT", "oneof")))
		return
	}
	c.JSON(http.StatusOK, global.SuccessResponse(h.Ledger.Transactions(kind)))
}

func (h *Handler) GetStats(c *gin.Context) {
	stats := h.Ledger.Stats()
	c.JSON(http.StatusOK, global.SuccessResponse(StatsResponse{
		Stats: stats,
		Display: map[string]string{
			"inventoryValue":  models.FormatBRL(stats.InventoryValue),
			"scrapPricePerKg": models.FormatBRL(stats.ScrapPricePerKg),
			"scrapValue":      models.FormatBRL(stats.ScrapValue),
			"cashBalance":     models.FormatBRL(stats.CashBalance),
		},
	}))
}

func (h *Handler) GetLowStock(c *gin.Context) {
	c.JSON(http.StatusOK, global.SuccessResponse(h.Ledger.LowStock()))
}

func (h *Handler) GetReconciliation(c *gin.Context) {
	report := h.Ledger.Reconcile()
	if !report.Consistent {
		global.Logger().WithField("drift", report.Drift).Warn("Cash balance does not match the transaction log")
	}
	c.JSON(http.StatusOK, global.SuccessResponse(report))
}

// ExportState returns every store key as the original browser storage held it
func (h *Handler) ExportState(c *gin.Context) {
	state, err := h.Ledger.Export()
	if err != nil {
		global.LogError("router", "ExportState", "encode state", nil, err)
		c.JSON(http.StatusInternalServerError, global.ErrorResponse("Failed to export state", nil))
		return
	}

	out := make(map[string]string, len(state))
	for key, value := range state {
		out[key] = string(value)
	}
	c.JSON(http.StatusOK, global.SuccessResponse(out))
}

func (h *Handler) GetScrap(c *gin.Context) {
	scrap := h.Ledger.Scrap()
	c.JSON(http.StatusOK, global.SuccessResponse(gin.H{
		"weight":     scrap.Weight,
		"pricePerKg": scrap.PricePerKg,
		"value":      scrap.Value(),
	}))
}

// QuoteScrap suggests what to pay for ?weight= kg at the current rate
func (h *Handler) QuoteScrap(c *gin.Context) {
	weight, err := strconv.ParseFloat(c.Query("weight"), 64)
	if err != nil {
		c.JSON(http.StatusBadRequest, global.ErrorResponse("Invalid weight",
			global.FieldError("weight", "weight query parameter must be a number", "invalid_format")))
		return
	}
	c.JSON(http.StatusOK, global.SuccessResponse(gin.H{
		"weight":     weight,
		"pricePerKg": h.Ledger.Scrap().PricePerKg,
		"cost":       h.Ledger.QuoteScrap(weight),
	}))
}

// BuyScrap books a scrap purchase. Without a cost the current quote is paid.
func (h *Handler) BuyScrap(c *gin.Context) {
	var req models.BuyScrapRequest
	if !bindJSON(c, &req) {
		return
	}

	cost := h.Ledger.QuoteScrap(req.Weight)
	if req.Cost != nil {
		cost = *req.Cost
	}

	tx := h.Ledger.BuyScrap(cost, req.Weight, req.DescriptionOrDefault())
	c.JSON(http.StatusCreated, global.SuccessResponse(gin.H{
		"transaction": tx,
		"scrap":       h.Ledger.Scrap(),
		"cashBalance": h.Ledger.CashBalance(),
	}))
}

func (h *Handler) AdjustScrap(c *gin.Context) {
	var req models.ScrapAdjustRequest
	if !bindJSON(c, &req) {
		return
	}

	tx := h.Ledger.ManualScrapAdjust(req.WeightDelta, req.DescriptionOrDefault())
	c.JSON(http.StatusCreated, global.SuccessResponse(gin.H{
		"transaction": tx,
		"scrap":       h.Ledger.Scrap(),
	}))
}

func (h *Handler) SetScrapPrice(c *gin.Context) {
	var req models.ScrapPriceRequest
	if !bindJSON(c, &req) {
		return
	}
	c.JSON(http.StatusOK, global.SuccessResponse(h.Ledger.SetScrapPrice(*req.PricePerKg)))
}

// GenerateAIStockReport asks the advisor for a restock report. Concurrent
// requests share one in-flight call, detached from any single caller's
// cancellation.
func (h *Handler) GenerateAIStockReport(c *gin.Context) {
	parent := context.WithoutCancel(c.Request.Context())

	result, _, _ := h.reports.Do("stock-report", func() (interface{}, error) {
		ctx, cancel := context.WithTimeout(parent, advisoryTimeout)
		defer cancel()
		return h.Advisor.GenerateInventoryReport(ctx, h.Ledger.AdvisoryRows()), nil
	})
	c.JSON(http.StatusOK, result.(*ai.AIReportResponse))
}

// ledgerError maps engine errors onto HTTP responses
func (h *Handler) ledgerError(c *gin.Context, funcName string, err error) {
	if errors.Is(err, ledger.ErrBatteryNotFound) {
		c.JSON(http.StatusNotFound, global.ErrorResponse("Battery not found",
			global.FieldError("id", "No battery exists with this id", "not_found")))
		return
	}

	global.LogError("router", funcName, "ledger operation", c.Param("id"), err)
	c.JSON(http.StatusInternalServerError, global.ErrorResponse("Internal server error", nil))
}

// bindJSON binds the body and writes a 400 on failure
func bindJSON(c *gin.Context, dest interface{}) bool {
	if err := c.ShouldBindJSON(dest); err != nil {
		c.JSON(http.StatusBadRequest, global.ErrorResponse("Invalid request body", bindingErrors(err)))
		return false
	}
	return true
}

func bindingErrors(err error) []global.ValidationError {
	var fieldErrs validator.ValidationErrors
	if !errors.As(err, &fieldErrs) {
		return global.FieldError("body", err.Error(), "json_parse_error")
	}

	out := make([]global.ValidationError, 0, len(fieldErrs))
	for _, fe := range fieldErrs {
		out = append(out, global.ValidationError{
			Field:   fe.Field(),
			Message: fe.Error(),
			Code:    fe.Tag(),
		})
	}
	return out
}
