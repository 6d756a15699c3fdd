package database

import (
	"fmt"
	"strings"

	"github.com/rs/zerolog/log"
	"gorm.io/driver/postgres"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"

	"github.com/mrlokans/librarian/internal/config"
	"github.com/mrlokans/librarian/internal/entities"
)

type Database struct {
	DB *gorm.DB
}

// Options tune how the connection is opened.
type Options struct {
	// Verbose logs every SQL statement.
	Verbose bool
}

func NewDatabase(cfg config.Database, opts Options) (*Database, error) {
	dialector, err := dialectorFor(cfg)
	if err != nil {
		return nil, err
	}

	logLevel := logger.Warn
	if opts.Verbose {
		logLevel = logger.Info
	}

	db, err := gorm.Open(dialector, &gorm.Config{
		Logger: logger.Default.LogMode(logLevel),
	})
	if err != nil {
		return nil, fmt.Errorf("failed to connect to database: %w", err)
	}

	if err := Migrate(db); err != nil {
		return nil, fmt.Errorf("failed to migrate database: %w", err)
	}

	log.Info().Str("driver", string(cfg.Driver)).Msg("database initialized")

	return &Database{DB: db}, nil
}

// Migrate registers the book/author junction model and creates or updates
// all tables. It must run before any repository touches book_authors.
func Migrate(db *gorm.DB) error {
	if err := db.SetupJoinTable(&entities.Book{}, "Authors", &entities.BookAuthor{}); err != nil {
		return fmt.Errorf("setup book_authors join table: %w", err)
	}
	if err := db.SetupJoinTable(&entities.Author{}, "Books", &entities.BookAuthor{}); err != nil {
		return fmt.Errorf("setup book_authors join table: %w", err)
	}

	return db.AutoMigrate(
		&entities.Publisher{},
		&entities.User{},
		&entities.Author{},
		&entities.Book{},
		&entities.BookAuthor{},
		&entities.AuditEvent{},
	)
}

func (d *Database) Close() error {
	sqlDB, err := d.DB.DB()
	if err != nil {
		return err
	}
	return sqlDB.Close()
}

// Ping checks that the underlying connection is alive.
func (d *Database) Ping() error {
	sqlDB, err := d.DB.DB()
	if err != nil {
		return err
	}
	return sqlDB.Ping()
}

func dialectorFor(cfg config.Database) (gorm.Dialector, error) {
	switch cfg.Driver {
	case config.DriverSQLite, "":
		if cfg.Path == "" {
			return nil, fmt.Errorf("database path is not set")
		}
		return sqlite.Open(SQLiteDSN(cfg.Path)), nil
	case config.DriverPostgres:
		if cfg.DSN == "" {
			return nil, fmt.Errorf("database DSN is not set")
		}
		return postgres.Open(cfg.DSN), nil
	default:
		return nil, fmt.Errorf("unsupported database driver %q", cfg.Driver)
	}
}

// SQLiteDSN appends the connection parameters the catalog relies on:
// enforced foreign keys, WAL journaling and a busy timeout so concurrent
// writers wait instead of failing immediately.
func SQLiteDSN(path string) string {
	params := "_foreign_keys=on&_journal_mode=WAL&_busy_timeout=5000"
	if strings.Contains(path, "?") {
		return path + "&" + params
	}
	return path + "?" + params
}
