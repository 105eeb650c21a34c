package middleware

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/chansync/backend/internal/interfaces/http/dto"
)

// DefaultMaxBodyBytes caps request bodies at 4MB, enough for the largest
// remote batch response at the submit limit.
const DefaultMaxBodyBytes = 4 << 20

// BodyLimit returns a middleware that limits request body size
func BodyLimit(maxBytes int64) gin.HandlerFunc {
	return func(c *gin.Context) {
		if c.Request.ContentLength > maxBytes {
			c.AbortWithStatusJSON(http.StatusRequestEntityTooLarge,
				dto.NewErrorResponse("REQUEST_TOO_LARGE", "Request body exceeds maximum allowed size"))
			return
		}

		// Wrap the body with a limited reader for streaming requests
		c.Request.Body = http.MaxBytesReader(c.Writer, c.Request.Body, maxBytes)
		c.Next()
	}
}
