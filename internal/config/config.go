package config

import (
	"time"

	"github.com/joho/godotenv"
	"github.com/spf13/viper"
)

type DatabaseDriver string

const (
	DriverSQLite   DatabaseDriver = "sqlite"
	DriverPostgres DatabaseDriver = "postgres"
)

type (
	Config struct {
		HTTP
		Global
		Database
		Auth
		API
		Audit
		Tasks
		Log
	}

	HTTP struct {
		Port int32
		Host string
		// TLSTerminated is set when a proxy in front of the service
		// terminates TLS; it enables the HSTS header.
		TLSTerminated bool
	}
	Global struct {
		ShutdownTimeoutInSeconds int
		Environment              string // "development" or "production"
	}
	Database struct {
		Driver DatabaseDriver
		Path   string // SQLite file path
		DSN    string // PostgreSQL connection string
	}
	Auth struct {
		JWTSecret      string
		AccessTokenTTL time.Duration // Lifetime of JWTs issued by /api/login
		TokenExpiry    time.Duration // Lifetime of long-lived API tokens, 0 = never
		BcryptCost     int

		// Rate limiting configuration
		MaxLoginAttempts int           // Max failed attempts before lockout (default: 5)
		RateLimitWindow  time.Duration // Time window for counting attempts (default: 15m)
		LockoutDuration  time.Duration // How long to lock out (default: 30m)
	}
	API struct {
		// StrictStatus maps authorization failures to 403 and internal
		// failures to 500 instead of the legacy 404 for all of them.
		StrictStatus bool
		// ReadOnly rejects every catalog write with 403.
		ReadOnly bool
	}
	Audit struct {
		RetentionDays   int    // Days to keep audit events (default: 30)
		CleanupSchedule string // Cron format: "0 3 * * *" = daily at 03:00
	}
	Tasks struct {
		Enabled         bool
		Workers         int
		DatabasePath    string // Empty: derived from Database.Path
		ReleaseAfter    time.Duration
		CleanupInterval time.Duration
	}
	Log struct {
		Level  string // debug, info, warn, error
		Format string // json or console
	}
)

// NewConfig reads configuration from the environment. A .env file in the
// working directory is loaded first when present; real environment
// variables take precedence over it.
func NewConfig() *Config {
	_ = godotenv.Load()

	v := viper.New()
	v.AutomaticEnv()
	v.SetDefault("port", 8188)
	v.SetDefault("host", "0.0.0.0")
	v.SetDefault("http_tls_terminated", false)
	v.SetDefault("shutdown_timeout_in_seconds", 5)
	v.SetDefault("app_env", "production")

	v.SetDefault("database_driver", string(DriverSQLite))
	v.SetDefault("database_path", DefaultDatabasePath)
	v.SetDefault("database_dsn", "")

	// Auth defaults
	v.SetDefault("auth_jwt_secret", "")           // Auto-generated if empty
	v.SetDefault("auth_access_token_ttl", "1h")   // JWT lifetime
	v.SetDefault("auth_token_expiry", "720h")     // 30 days
	v.SetDefault("auth_bcrypt_cost", 12)          // bcrypt cost factor
	v.SetDefault("auth_max_login_attempts", 5)    // Max failed attempts
	v.SetDefault("auth_rate_limit_window", "15m") // Window for counting attempts
	v.SetDefault("auth_lockout_duration", "30m")  // Lockout duration

	v.SetDefault("api_strict_status", false)
	v.SetDefault("api_read_only", false)

	v.SetDefault("audit_retention_days", 30)
	v.SetDefault("audit_cleanup_schedule", "0 3 * * *")

	// Task queue is off by default: the API itself needs no background work
	v.SetDefault("tasks_enabled", false)
	v.SetDefault("task_workers", 1)
	v.SetDefault("task_database_path", "")
	v.SetDefault("task_release_after", "15m")
	v.SetDefault("task_cleanup_interval", "1h")

	v.SetDefault("log_level", "info")
	v.SetDefault("log_format", "json")

	return &Config{
		HTTP: HTTP{
			Port: v.GetInt32("PORT"),
			Host: v.GetString("HOST"),

			TLSTerminated: v.GetBool("HTTP_TLS_TERMINATED"),
		},
		Global: Global{
			ShutdownTimeoutInSeconds: v.GetInt("SHUTDOWN_TIMEOUT_IN_SECONDS"),
			Environment:              v.GetString("APP_ENV"),
		},
		Database: Database{
			Driver: DatabaseDriver(v.GetString("DATABASE_DRIVER")),
			Path:   v.GetString("DATABASE_PATH"),
			DSN:    v.GetString("DATABASE_DSN"),
		},
		Auth: Auth{
			JWTSecret:        v.GetString("AUTH_JWT_SECRET"),
			AccessTokenTTL:   v.GetDuration("AUTH_ACCESS_TOKEN_TTL"),
			TokenExpiry:      v.GetDuration("AUTH_TOKEN_EXPIRY"),
			BcryptCost:       v.GetInt("AUTH_BCRYPT_COST"),
			MaxLoginAttempts: v.GetInt("AUTH_MAX_LOGIN_ATTEMPTS"),
			RateLimitWindow:  v.GetDuration("AUTH_RATE_LIMIT_WINDOW"),
			LockoutDuration:  v.GetDuration("AUTH_LOCKOUT_DURATION"),
		},
		API: API{
			StrictStatus: v.GetBool("API_STRICT_STATUS"),
			ReadOnly:     v.GetBool("API_READ_ONLY"),
		},
		Audit: Audit{
			RetentionDays:   v.GetInt("AUDIT_RETENTION_DAYS"),
			CleanupSchedule: v.GetString("AUDIT_CLEANUP_SCHEDULE"),
		},
		Tasks: Tasks{
			Enabled:         v.GetBool("TASKS_ENABLED"),
			Workers:         v.GetInt("TASK_WORKERS"),
			DatabasePath:    v.GetString("TASK_DATABASE_PATH"),
			ReleaseAfter:    v.GetDuration("TASK_RELEASE_AFTER"),
			CleanupInterval: v.GetDuration("TASK_CLEANUP_INTERVAL"),
		},
		Log: Log{
			Level:  v.GetString("LOG_LEVEL"),
			Format: v.GetString("LOG_FORMAT"),
		},
	}
}
