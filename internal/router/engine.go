package router

import (
	"os"
	"time"

	"github.com/gin-contrib/cors"
	"github.com/gin-gonic/gin"
	"github.com/gin-gonic/gin/binding"
	"github.com/go-playground/validator/v10"

	"baterysul.com.br/ledger/pkg/global"
	"baterysul.com.br/ledger/pkg/models"
)

var Router *gin.Engine

var defaultOrigins = []string{"http://localhost:3000", "http://localhost:5173"}

func InitEngine() {
	if os.Getenv("ENV") == "production" {
		gin.SetMode(gin.ReleaseMode)
	}
	Router = gin.Default()

	Router.Use(cors.New(cors.Config{
		AllowOrigins:     global.GetEnvList("CORS_ORIGINS", defaultOrigins),
		AllowMethods:     []string{"GET", "POST", "PUT", "DELETE"},
		AllowHeaders:     []string{"Origin", "Content-Type", "Accept", "Authorization", "X-Requested-With"},
		ExposeHeaders:    []string{"Content-Length", "X-Total-Count"},
		AllowCredentials: true,
		MaxAge:           12 * time.Hour,
	}))

	if v, ok := binding.Validator.Engine().(*validator.Validate); ok {
		if err := v.RegisterValidation("brand", validateBrand); err != nil {
			global.LogError("router", "InitEngine", "register brand validator", nil, err)
		}
	}
}

// validateBrand accepts any casing of a supported brand
func validateBrand(fl validator.FieldLevel) bool {
	_, ok := models.ParseBrand(fl.Field().String())
	return ok
}

func InitializeRoutes(h *Handler) {
	api := Router.Group("/api")
	{
		api.GET("/health", h.HealthCheck)
		api.GET("/catalog", h.GetCatalog)
		api.GET("/stats", h.GetStats)
		api.GET("/low-stock", h.GetLowStock)
		api.GET("/reconcile", h.GetReconciliation)
		api.GET("/export", h.ExportState)

		batteries := api.Group("/batteries")
		{
			batteries.GET("", h.GetBatteries)
			batteries.POST("", h.AddBattery)
			batteries.GET("/:id", h.GetBatteryByID)
			batteries.DELETE("/:id", ConfirmMiddleware(), h.DeleteBattery)
			batteries.POST("/:id/quantity", h.AdjustQuantity)
			batteries.POST("/:id/alert", h.ToggleAlert)
			batteries.POST("/:id/sell", h.SellBattery)
			batteries.GET("/:id/movements", h.GetBatteryMovements)
		}

		api.GET("/movements", h.GetMovements)
		api.GET("/transactions", h.GetTransactions)

		scrap := api.Group("/scrap")
		{
			scrap.GET("", h.GetScrap)
			scrap.GET("/quote", h.QuoteScrap)
			scrap.POST("/purchases", h.BuyScrap)
			scrap.POST("/adjustments", h.AdjustScrap)
			scrap.PUT("/price", h.SetScrapPrice)
		}

		analytics := api.Group("/analytics")
		{
			aiAnalytics := analytics.Group("/ai")
			{
				aiAnalytics.GET("/stock-report", h.GenerateAIStockReport)
			}
		}
	}
}
