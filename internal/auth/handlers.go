package auth

import (
	"errors"
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"
	"github.com/rs/zerolog/log"

	"github.com/mrlokans/librarian/internal/audit"
	"github.com/mrlokans/librarian/internal/config"
)

// LoginRequest is the body of POST /api/login. Username may also be the
// user's email address.
type LoginRequest struct {
	Username string `json:"username" binding:"required"`
	Password string `json:"password" binding:"required"`
}

// LoginResponse carries a freshly issued access token.
type LoginResponse struct {
	AccessToken string `json:"access_token"`
	TokenType   string `json:"token_type"`
	ExpiresIn   int64  `json:"expires_in"`
}

// AuthController serves login and the current-user endpoint.
type AuthController struct {
	service     *Service
	audit       *audit.Service
	rateLimiter *RateLimiter
}

// NewAuthController creates a new authentication controller. auditSvc may
// be nil.
func NewAuthController(service *Service, auditSvc *audit.Service, cfg config.Auth) *AuthController {
	return &AuthController{
		service: service,
		audit:   auditSvc,
		rateLimiter: NewRateLimiter(RateLimitConfig{
			MaxAttempts:     cfg.MaxLoginAttempts,
			WindowDuration:  cfg.RateLimitWindow,
			LockoutDuration: cfg.LockoutDuration,
		}),
	}
}

// Stop cleans up resources (rate limiter background goroutine).
func (ac *AuthController) Stop() {
	ac.rateLimiter.Stop()
}

// Login exchanges credentials for an access token.
func (ac *AuthController) Login(c *gin.Context) {
	var req LoginRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusUnprocessableEntity, gin.H{"msg": "username and password are required"})
		return
	}
	clientIP := c.ClientIP()

	if allowed, retryAfter := ac.rateLimiter.Allow(clientIP, req.Username); !allowed {
		c.Header("Retry-After", strconv.Itoa(int(retryAfter.Seconds())))
		c.JSON(http.StatusTooManyRequests, gin.H{
			"msg":         "Too many login attempts. Please try again later.",
			"retry_after": retryAfter.String(),
		})
		return
	}

	user, err := ac.service.Authenticate(req.Username, req.Password)
	if err != nil {
		ac.rateLimiter.RecordFailure(clientIP, req.Username)
		ac.audit.LogAuth(0, audit.ActionLogin, req.Username, clientIP, false)

		msg := "Invalid username or password."
		if errors.Is(err, ErrAccountLocked) {
			msg = "Account is locked. Please try again later."
		} else if !errors.Is(err, ErrUserNotFound) && !errors.Is(err, ErrInvalidPassword) {
			log.Ctx(c.Request.Context()).Error().Err(err).Str("username", req.Username).Msg("login failed")
		}
		c.JSON(http.StatusUnauthorized, gin.H{"msg": msg})
		return
	}

	ac.rateLimiter.RecordSuccess(clientIP, req.Username)

	token, ttl, err := ac.service.IssueAccessToken(user)
	if err != nil {
		log.Ctx(c.Request.Context()).Error().Err(err).Uint("user_id", user.ID).Msg("failed to issue access token")
		c.JSON(http.StatusInternalServerError, gin.H{"msg": "Failed to issue access token."})
		return
	}

	ac.audit.LogAuth(user.ID, audit.ActionLogin, user.Username, clientIP, true)

	c.JSON(http.StatusOK, LoginResponse{
		AccessToken: token,
		TokenType:   "Bearer",
		ExpiresIn:   int64(ttl.Seconds()),
	})
}

// Me returns the authenticated user.
func (ac *AuthController) Me(c *gin.Context) {
	user, err := ac.service.GetUserByID(GetUserID(c))
	if err != nil {
		c.JSON(http.StatusUnauthorized, gin.H{"msg": "Unauthenticated."})
		return
	}
	c.JSON(http.StatusOK, user)
}

// APITokenController handles API token management endpoints.
type APITokenController struct {
	service *Service
	audit   *audit.Service
}

// NewAPITokenController creates a new API token controller.
func NewAPITokenController(service *Service, auditSvc *audit.Service) *APITokenController {
	return &APITokenController{service: service, audit: auditSvc}
}

// GenerateToken creates a new API token for the authenticated user.
func (tc *APITokenController) GenerateToken(c *gin.Context) {
	userID := GetUserID(c)
	if userID == 0 {
		c.JSON(http.StatusUnauthorized, gin.H{"msg": "Unauthenticated."})
		return
	}

	token, err := tc.service.GenerateToken(userID)
	if err != nil {
		log.Ctx(c.Request.Context()).Error().Err(err).Uint("user_id", userID).Msg("failed to generate API token")
		c.JSON(http.StatusInternalServerError, gin.H{"msg": "Failed to generate token."})
		return
	}

	tc.audit.LogAuth(userID, audit.ActionTokenIssue, GetUsername(c), c.ClientIP(), true)

	c.JSON(http.StatusOK, gin.H{
		"token":   token,
		"message": "Store this token securely - it will not be shown again",
	})
}

// RevokeToken revokes the API token for the authenticated user.
func (tc *APITokenController) RevokeToken(c *gin.Context) {
	userID := GetUserID(c)
	if userID == 0 {
		c.JSON(http.StatusUnauthorized, gin.H{"msg": "Unauthenticated."})
		return
	}

	if err := tc.service.RevokeToken(userID); err != nil {
		log.Ctx(c.Request.Context()).Error().Err(err).Uint("user_id", userID).Msg("failed to revoke API token")
		c.JSON(http.StatusInternalServerError, gin.H{"msg": "Failed to revoke token."})
		return
	}

	c.JSON(http.StatusOK, gin.H{"msg": "token revoked"})
}
