package middleware

import (
	"crypto/subtle"
	"log/slog"
	"net/http"
	"strings"

	"github.com/LavaJover/shvark-payment-gateway/internal/delivery/http/dto/response"
	"github.com/gin-gonic/gin"
)

// APIKey requires the x-api-key or Authorization header to equal key. An empty key disables the check.
func APIKey(key string) gin.HandlerFunc {
	return func(c *gin.Context) {
		if key == "" {
			c.Next()
			return
		}
		got := c.GetHeader("x-api-key")
		if got == "" {
			got = strings.TrimPrefix(c.GetHeader("Authorization"), "Bearer ")
		}
		if got == "" || subtle.ConstantTimeCompare([]byte(got), []byte(key)) != 1 {
			slog.Warn("api key rejected", "ip", c.ClientIP(), "path", c.Request.URL.Path)
			c.AbortWithStatusJSON(http.StatusUnauthorized, response.Envelope{
				Code:    "UNAUTHORIZED",
				Message: "missing or invalid API key",
			})
			return
		}
		c.Next()
	}
}
