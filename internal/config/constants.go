package config

// Default paths for databases
const (
	// DefaultDatabasePath is the default path for the catalog database
	DefaultDatabasePath = "./librarian.db"
)
