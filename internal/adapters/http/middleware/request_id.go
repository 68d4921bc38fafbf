// Package middleware holds the ledger's gin middleware: cross-cutting
// concerns (request id, recovery, CORS, logging, auth, metrics) that every
// route shares, wired in a fixed order by router.go.
package middleware

import (
	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
)

const (
	// RequestIDHeader is the header a caller-supplied request id arrives
	// on, and the header the generated id is echoed back on.
	RequestIDHeader = "X-Request-ID"
	// RequestIDContextKey is the gin context key the id is stashed under.
	RequestIDContextKey = "request_id"
)

// RequestID attaches a request id to every request, using the caller's
// X-Request-ID if supplied or minting a fresh uuid otherwise.
func RequestID() gin.HandlerFunc {
	return func(c *gin.Context) {
		requestID := c.GetHeader(RequestIDHeader)
		if requestID == "" {
			requestID = uuid.New().String()
		}
		c.Set(RequestIDContextKey, requestID)
		c.Header(RequestIDHeader, requestID)
		c.Next()
	}
}

// GetRequestID reads the request id stashed by RequestID.
func GetRequestID(c *gin.Context) string {
	if id, exists := c.Get(RequestIDContextKey); exists {
		if strID, ok := id.(string); ok {
			return strID
		}
	}
	return ""
}
