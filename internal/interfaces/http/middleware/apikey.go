package middleware

import (
	"crypto/subtle"
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"

	"github.com/chansync/backend/internal/interfaces/http/dto"
)

// APIKeyHeader is the header carrying the API key
const APIKeyHeader = "X-API-Key"

// APIKeyAuth returns a middleware that requires a matching API key on every
// request. The key is read from the X-API-Key header or from a bearer token.
// An empty configured key disables authentication, which validate() rejects
// for production environments.
func APIKeyAuth(apiKey string) gin.HandlerFunc {
	return func(c *gin.Context) {
		if apiKey == "" {
			c.Next()
			return
		}

		presented := c.GetHeader(APIKeyHeader)
		if presented == "" {
			if auth := c.GetHeader("Authorization"); strings.HasPrefix(auth, "Bearer ") {
				presented = strings.TrimPrefix(auth, "Bearer ")
			}
		}

		if subtle.ConstantTimeCompare([]byte(presented), []byte(apiKey)) != 1 {
			c.AbortWithStatusJSON(http.StatusUnauthorized,
				dto.NewErrorResponseWithRequestID(dto.ErrCodeUnauthorized, "Invalid or missing API key", GetRequestID(c)))
			return
		}

		c.Next()
	}
}
