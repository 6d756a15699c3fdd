package http

import (
	"net/http"
	"runtime/debug"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"github.com/rs/zerolog/log"

	"github.com/mrlokans/librarian/internal/auth"
)

const (
	requestIDHeader     = "X-Request-Id"
	contextKeyRequestID = "request_id"
)

// RequestIDMiddleware propagates the caller's X-Request-Id or assigns a new
// one, and attaches a logger carrying it to the request context.
func RequestIDMiddleware() gin.HandlerFunc {
	return func(c *gin.Context) {
		requestID := c.GetHeader(requestIDHeader)
		if requestID == "" {
			requestID = uuid.New().String()
		}

		c.Set(contextKeyRequestID, requestID)
		c.Header(requestIDHeader, requestID)

		logger := log.With().Str("request_id", requestID).Logger()
		c.Request = c.Request.WithContext(logger.WithContext(c.Request.Context()))

		c.Next()
	}
}

// RequestLogger writes one access log line per request.
func RequestLogger() gin.HandlerFunc {
	return func(c *gin.Context) {
		start := time.Now()
		path := c.Request.URL.Path

		c.Next()

		status := c.Writer.Status()
		event := log.Ctx(c.Request.Context()).Info()
		if status >= http.StatusInternalServerError {
			event = log.Ctx(c.Request.Context()).Error()
		}

		event.
			Str("method", c.Request.Method).
			Str("path", path).
			Int("status", status).
			Dur("latency", time.Since(start)).
			Str("client_ip", c.ClientIP()).
			Uint("user_id", auth.GetUserID(c)).
			Msg("request")
	}
}

// Recovery turns a panic into a 500 response and logs the stack.
func Recovery() gin.HandlerFunc {
	return func(c *gin.Context) {
		defer func() {
			if rec := recover(); rec != nil {
				log.Ctx(c.Request.Context()).Error().
					Interface("panic", rec).
					Bytes("stack", debug.Stack()).
					Msg("panic recovered")

				if !c.Writer.Written() {
					c.AbortWithStatusJSON(http.StatusInternalServerError, ErrorResponse{Msg: "Internal error."})
					return
				}
				c.Abort()
			}
		}()
		c.Next()
	}
}
