package router

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"baterysul.com.br/ledger/pkg/global"
)

// ConfirmMiddleware blocks destructive requests unless ?confirm=true is set
func ConfirmMiddleware() gin.HandlerFunc {
	return func(c *gin.Context) {
		if c.Query("confirm") != "true" {
			c.JSON(http.StatusPreconditionRequired, global.ErrorResponse("confirmation required",
				global.FieldError("confirm", "confirm=true query parameter is required", "required")))
			c.Abort()
			return
		}
		c.Next()
	}
}
