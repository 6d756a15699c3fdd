package auth

import (
	"errors"
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"
)

// Context keys for user data
const (
	ContextKeyUserID      = "auth_user_id"
	ContextKeyUsername    = "auth_username"
	ContextKeyPublisherID = "auth_publisher_id"
	ContextKeyAuthType    = "auth_type"
)

// AuthType indicates how the user was authenticated
type AuthType string

const (
	AuthTypeNone        AuthType = "none"
	AuthTypeAccessToken AuthType = "access_token"
	AuthTypeAPIToken    AuthType = "api_token"
)

// Middleware handles authentication for HTTP requests.
type Middleware struct {
	service *Service
}

// NewMiddleware creates a new authentication middleware.
func NewMiddleware(service *Service) *Middleware {
	return &Middleware{service: service}
}

// Handler returns a gin middleware that requires a valid bearer token.
// Requests without one are rejected with 401.
func (m *Middleware) Handler() gin.HandlerFunc {
	return func(c *gin.Context) {
		token, ok := bearerToken(c.GetHeader("Authorization"))
		if !ok {
			c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{"msg": "Unauthenticated."})
			return
		}

		user, authType, err := m.service.ResolveBearer(token)
		if err != nil {
			msg := "Unauthenticated."
			if errors.Is(err, ErrTokenExpired) {
				msg = "Token expired."
			}
			c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{"msg": msg})
			return
		}

		c.Set(ContextKeyUserID, user.ID)
		c.Set(ContextKeyUsername, user.Username)
		if user.PublisherID != nil {
			c.Set(ContextKeyPublisherID, *user.PublisherID)
		}
		c.Set(ContextKeyAuthType, authType)
		c.Next()
	}
}

// bearerToken extracts the token from an "Authorization: Bearer <token>"
// header value.
func bearerToken(header string) (string, bool) {
	parts := strings.SplitN(header, " ", 2)
	if len(parts) != 2 || !strings.EqualFold(parts[0], "bearer") {
		return "", false
	}
	token := strings.TrimSpace(parts[1])
	return token, token != ""
}

// GetUserID retrieves the authenticated user's ID from the context.
// Returns 0 if the request is not authenticated.
func GetUserID(c *gin.Context) uint {
	if id, exists := c.Get(ContextKeyUserID); exists {
		if userID, ok := id.(uint); ok {
			return userID
		}
	}
	return 0
}

// GetUsername retrieves the authenticated user's username from the context.
func GetUsername(c *gin.Context) string {
	return c.GetString(ContextKeyUsername)
}

// GetPublisherID returns the publisher the authenticated user acts for,
// or nil.
func GetPublisherID(c *gin.Context) *uint {
	if v, exists := c.Get(ContextKeyPublisherID); exists {
		if id, ok := v.(uint); ok {
			return &id
		}
	}
	return nil
}

// GetAuthType retrieves the authentication method used.
func GetAuthType(c *gin.Context) AuthType {
	if t, exists := c.Get(ContextKeyAuthType); exists {
		if authType, ok := t.(AuthType); ok {
			return authType
		}
	}
	return AuthTypeNone
}
