package http

import (
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"
)

const readOnlyMessage = "The catalog is in read-only mode."

// ReadOnlyMiddleware blocks catalog writes while the service runs in
// read-only mode. Reads and the authentication endpoints keep working.
type ReadOnlyMiddleware struct {
	enabled bool
}

func NewReadOnlyMiddleware(enabled bool) *ReadOnlyMiddleware {
	return &ReadOnlyMiddleware{enabled: enabled}
}

func (m *ReadOnlyMiddleware) IsEnabled() bool {
	return m.enabled
}

// Handler returns a gin middleware that rejects write methods with 403.
func (m *ReadOnlyMiddleware) Handler() gin.HandlerFunc {
	return func(c *gin.Context) {
		if !m.enabled {
			c.Next()
			return
		}

		switch c.Request.Method {
		case http.MethodGet, http.MethodHead, http.MethodOptions:
			c.Next()
			return
		}

		if m.isAllowedPath(c.Request.URL.Path) {
			c.Next()
			return
		}

		c.AbortWithStatusJSON(http.StatusForbidden, gin.H{
			"msg":       readOnlyMessage,
			"read_only": true,
		})
	}
}

// Logging in and managing one's own API token do not touch the catalog.
func (m *ReadOnlyMiddleware) isAllowedPath(path string) bool {
	for _, allowed := range []string{"/api/login", "/api/auth/"} {
		if strings.HasPrefix(path, allowed) {
			return true
		}
	}
	return false
}
