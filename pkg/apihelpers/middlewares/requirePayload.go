package middlewares

import (
	"log/slog"

	"github.com/gin-gonic/gin"

	"github.com/clipshare/account-backend/pkg/apihelpers"
)

// RequirePayload blocks post requests that have no payload attached
func RequirePayload() gin.HandlerFunc {
	return func(c *gin.Context) {
		if c.Request.ContentLength == 0 {
			slog.Debug("RequirePayload Middleware: payload missing")
			apihelpers.AbortWithError(c, apihelpers.ErrValidation("payload missing"))
			return
		}
		c.Next()
	}
}
