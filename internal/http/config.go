package http

import (
	"github.com/mrlokans/librarian/internal/audit"
	"github.com/mrlokans/librarian/internal/auth"
	"github.com/mrlokans/librarian/internal/catalog"
	"github.com/mrlokans/librarian/internal/database"
)

// RouterConfig contains all dependencies needed to create the HTTP router.
type RouterConfig struct {
	// Core dependencies
	Database *database.Database
	Catalog  *catalog.Service
	Audit    *audit.Service

	// Authentication. AuthController owns the login rate limiter, so the
	// caller creates it and stops it on shutdown.
	AuthService    *auth.Service
	AuthController *auth.AuthController

	// StrictStatus switches authorization failures to 403 and internal
	// failures to 500.
	StrictStatus bool

	// ReadOnly blocks catalog writes.
	ReadOnly bool

	// HSTS is sent only when the service is served over TLS.
	HSTS bool

	// Application info
	Version string
}
