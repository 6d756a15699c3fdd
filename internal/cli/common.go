// Package cli implements the operator subcommands: seeding, publisher and
// user management, and catalog statistics.
package cli

import (
	"io"
	"os"

	"github.com/mrlokans/librarian/internal/config"
	"github.com/mrlokans/librarian/internal/database"
)

// openDatabase opens the catalog store from the environment configuration.
// A non-empty dbPath selects that SQLite file instead.
func openDatabase(cfg *config.Config, dbPath string, verbose bool) (*database.Database, error) {
	dbCfg := cfg.Database
	if dbPath != "" {
		dbCfg = config.Database{Driver: config.DriverSQLite, Path: dbPath}
	}
	return database.NewDatabase(dbCfg, database.Options{Verbose: verbose})
}

func stdout(w io.Writer) io.Writer {
	if w == nil {
		return os.Stdout
	}
	return w
}
