package ai

import (
	"context"
	"errors"
	"time"

	"baterysul.com.br/ledger/pkg/global"
	"baterysul.com.br/ledger/pkg/models"
)

// AIReportResponse represents the structure of AI-generated reports
type AIReportResponse struct {
	Status      string     `json:"status"`
	Data        ReportData `json:"data"`
	GeneratedAt time.Time  `json:"generated_at"`
	AIEnabled   bool       `json:"ai_enabled"`
}

type ReportData struct {
	RawData    interface{} `json:"raw_data"`
	AIInsights string      `json:"ai_insights,omitempty"`
	Summary    string      `json:"summary"`
	Error      string      `json:"error,omitempty"`
}

// GenerateStockAnalysis asks the service for a stock report. It never fails:
// any problem comes back as one of the fixed messages.
func (c *Client) GenerateStockAnalysis(ctx context.Context, rows []models.AdvisoryRow) string {
	if len(rows) == 0 {
		return EmptyInventoryMessage
	}

	text, err := c.generateCompletion(ctx, StockAnalysisSystemPrompt, formatInventoryPrompt(rows))
	if err != nil {
		var aiErr *AIError
		if errors.As(err, &aiErr) && aiErr.Empty {
			return EmptyReportMessage
		}
		global.LogError("ai", "GenerateStockAnalysis", "chat completion", len(rows), err)
		return ServiceErrorMessage
	}
	return text
}

// GenerateInventoryReport wraps the stock analysis with the rows it was based on
func (c *Client) GenerateInventoryReport(ctx context.Context, rows []models.AdvisoryRow) *AIReportResponse {
	response := &AIReportResponse{
		Status:      "success",
		GeneratedAt: time.Now(),
		AIEnabled:   c.IsEnabled(),
		Data: ReportData{
			RawData: rows,
			Summary: "Inventory data retrieved successfully",
		},
	}

	insights := c.GenerateStockAnalysis(ctx, rows)
	switch insights {
	case EmptyInventoryMessage:
		response.Data.Summary = "No batteries to analyse"
	case EmptyReportMessage, ServiceErrorMessage:
		response.Data.Error = insights
		if c.IsEnabled() {
			response.Data.Summary = "AI analysis failed"
		} else {
			response.Data.Summary = "Raw inventory data (AI insights unavailable)"
		}
	default:
		response.Data.AIInsights = insights
		response.Data.Summary = "AI-generated inventory insights and recommendations"
	}

	return response
}
