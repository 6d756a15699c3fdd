package tasks

import (
	"path/filepath"
	"strings"
	"time"

	"github.com/mrlokans/librarian/internal/config"
)

// Config holds configuration for the task queue.
type Config struct {
	// DatabasePath is the SQLite file holding the queue.
	DatabasePath string

	// Workers is the number of concurrent task workers. Default: 1
	Workers int

	// ReleaseAfter is when stuck tasks are released back to queue. Default: 15m
	ReleaseAfter time.Duration

	// CleanupInterval is how often finished tasks are purged. Default: 1h
	CleanupInterval time.Duration
}

// DefaultConfig returns a Config with sensible defaults.
func DefaultConfig() Config {
	return Config{
		Workers:         1,
		ReleaseAfter:    15 * time.Minute,
		CleanupInterval: time.Hour,
	}
}

// ConfigFrom builds the queue configuration from the application config.
// The queue lives in its own SQLite file: TASK_DATABASE_PATH when set,
// otherwise the catalog file with a "-tasks" suffix, or librarian-tasks.db
// when the catalog is not a local file.
func ConfigFrom(cfg *config.Config) Config {
	out := DefaultConfig()
	if cfg.Tasks.Workers > 0 {
		out.Workers = cfg.Tasks.Workers
	}
	if cfg.Tasks.ReleaseAfter > 0 {
		out.ReleaseAfter = cfg.Tasks.ReleaseAfter
	}
	if cfg.Tasks.CleanupInterval > 0 {
		out.CleanupInterval = cfg.Tasks.CleanupInterval
	}

	switch {
	case cfg.Tasks.DatabasePath != "":
		out.DatabasePath = cfg.Tasks.DatabasePath
	case cfg.Database.Driver == config.DriverPostgres || cfg.Database.Path == "":
		out.DatabasePath = "librarian-tasks.db"
	default:
		out.DatabasePath = siblingPath(cfg.Database.Path)
	}
	return out
}

// siblingPath returns "dir/name-tasks.ext" for "dir/name.ext".
func siblingPath(mainDBPath string) string {
	mainDBPath = strings.SplitN(mainDBPath, "?", 2)[0]
	dir := filepath.Dir(mainDBPath)
	base := filepath.Base(mainDBPath)
	ext := filepath.Ext(base)
	name := strings.TrimSuffix(base, ext)
	return filepath.Join(dir, name+"-tasks"+ext)
}
