// Package database provides the data access layer for the catalog.
//
// # Architecture
//
// The connection, migrations and script execution live in this package.
// Queries are organized into domain-specific sub-packages:
//
//	database/
//	├── database.go      # Connection setup (SQLite or PostgreSQL), migrations
//	├── script.go        # Multi-statement SQL scripts for seeding
//	├── books/           # Books, ownership key and author links
//	├── authors/         # Authors shared between books
//	├── publishers/      # Publishers that own books
//	├── users/           # Accounts, API token hashes, lockout state
//	└── audit/           # Append-only audit trail
//
// # Using Sub-packages
//
// Each sub-package provides a Repository type over a *gorm.DB. Pass a
// transaction handle to make several repositories share one transaction:
//
//	db, err := database.NewDatabase(cfg.Database, database.Options{})
//
//	err = db.DB.Transaction(func(tx *gorm.DB) error {
//		book, created, err := books.NewRepository(tx).FindOrCreate(key)
//		...
//		author, err := authors.NewRepository(tx).FindOrCreate("Frank Herbert")
//		...
//	})
//
// Repositories return gorm errors unchanged; callers map
// gorm.ErrRecordNotFound to their own not-found errors.
package database
