package http

import (
	"github.com/gin-gonic/gin"

	"github.com/mrlokans/librarian/internal/auth"
)

// NewRouter creates and configures the HTTP router with all endpoints.
func NewRouter(cfg RouterConfig) *gin.Engine {
	router := gin.New()
	router.Use(RequestIDMiddleware())
	router.Use(RequestLogger())
	router.Use(Recovery())

	// Apply security headers to all responses
	router.Use(auth.SecurityHeadersMiddleware())
	if cfg.HSTS {
		router.Use(auth.StrictTransportSecurityMiddleware())
	}

	health := NewHealthController(cfg.Database, cfg.Version)
	router.GET("/health", health.Status)
	router.GET("/ping", health.Ping)

	api := router.Group("/api")

	if cfg.AuthController != nil {
		api.POST("/login", cfg.AuthController.Login)
	}

	protected := api.Group("")
	protected.Use(auth.NewMiddleware(cfg.AuthService).Handler())
	protected.Use(NewReadOnlyMiddleware(cfg.ReadOnly).Handler())

	if cfg.AuthController != nil {
		protected.GET("/user", cfg.AuthController.Me)
	}

	// API token management endpoints
	tokenController := auth.NewAPITokenController(cfg.AuthService, cfg.Audit)
	protected.POST("/auth/token", tokenController.GenerateToken)
	protected.DELETE("/auth/token", tokenController.RevokeToken)

	// Books API endpoints
	books := NewBooksController(cfg.Catalog, cfg.StrictStatus)
	protected.GET("/books", books.ListBooks)
	protected.POST("/books", books.CreateBook)
	protected.GET("/books/:id", books.GetBook)
	protected.PUT("/books/:id", books.UpdateBook)
	protected.DELETE("/books/:id", books.DeleteBook)

	if cfg.Audit != nil {
		auditController := NewAuditController(cfg.Audit)
		protected.GET("/audit", auditController.GetAuditEvents)
		protected.GET("/books/:id/history", auditController.BookHistory)
	}

	return router
}
