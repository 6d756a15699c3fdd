// Package tasks runs the service's background jobs, currently audit
// pruning, on a backlite queue kept in its own SQLite file so that queue
// writes never contend with catalog transactions.
package tasks

import (
	"context"
	"database/sql"
	"fmt"
	"sync/atomic"
	"time"

	_ "github.com/mattn/go-sqlite3"
	"github.com/mikestefanello/backlite"
	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"
)

// Client owns the queue database and the backlite workers.
type Client struct {
	queue   *backlite.Client
	db      *sql.DB
	config  Config
	running atomic.Bool
}

// NewClient opens cfg.DatabasePath and installs the backlite schema.
// Register every queue before calling Start.
func NewClient(cfg Config) (*Client, error) {
	if cfg.DatabasePath == "" {
		return nil, fmt.Errorf("tasks database path is not set")
	}
	if cfg.Workers <= 0 {
		cfg.Workers = 1
	}

	db, err := openQueueDB(cfg)
	if err != nil {
		return nil, err
	}

	queue, err := backlite.NewClient(backlite.ClientConfig{
		DB:              db,
		NumWorkers:      cfg.Workers,
		ReleaseAfter:    cfg.ReleaseAfter,
		CleanupInterval: cfg.CleanupInterval,
		Logger:          queueLogger{log: log.With().Str("component", "tasks").Logger()},
	})
	if err != nil {
		db.Close()
		return nil, fmt.Errorf("create task queue: %w", err)
	}
	if err := queue.Install(); err != nil {
		db.Close()
		return nil, fmt.Errorf("install task queue schema: %w", err)
	}

	return &Client{queue: queue, db: db, config: cfg}, nil
}

func openQueueDB(cfg Config) (*sql.DB, error) {
	db, err := sql.Open("sqlite3", queueDSN(cfg.DatabasePath))
	if err != nil {
		return nil, fmt.Errorf("open tasks database %s: %w", cfg.DatabasePath, err)
	}
	// every worker holds a connection while it runs a task
	db.SetMaxOpenConns(cfg.Workers + 5)
	db.SetMaxIdleConns(cfg.Workers + 2)
	db.SetConnMaxLifetime(time.Hour)
	return db, nil
}

// queueDSN enables WAL and makes writers wait for a lock instead of failing.
func queueDSN(path string) string {
	return path + "?_journal=WAL&_timeout=5000&_busy_timeout=5000"
}

func (c *Client) Register(queues ...backlite.Queue) {
	for _, q := range queues {
		c.queue.Register(q)
	}
}

// Start runs the workers until Stop is called or ctx is done. Calls after
// the first are ignored.
func (c *Client) Start(ctx context.Context) {
	if !c.running.CompareAndSwap(false, true) {
		return
	}
	log.Info().Int("workers", c.config.Workers).Str("path", c.config.DatabasePath).Msg("task queue started")
	c.queue.Start(ctx)
}

// Stop waits for running tasks. It reports false when ctx expired before
// they finished. Stopping a client that never started is a no-op.
func (c *Client) Stop(ctx context.Context) bool {
	if !c.running.Load() {
		return true
	}

	if !c.queue.Stop(ctx) {
		log.Warn().Msg("task queue stop timed out, running tasks were abandoned")
		return false
	}
	log.Info().Msg("task queue stopped")
	return true
}

// Close releases the queue database. Call it after Stop.
func (c *Client) Close() error {
	return c.db.Close()
}

// Add enqueues tasks; call Save on the result to persist them.
func (c *Client) Add(tasks ...backlite.Task) *backlite.TaskAddOp {
	return c.queue.Add(tasks...)
}

// queueLogger sends backlite's key/value logging to zerolog. Routine
// queue chatter is logged at debug level.
type queueLogger struct {
	log zerolog.Logger
}

func (l queueLogger) Info(message string, params ...any) {
	l.log.Debug().Fields(params).Msg(message)
}

func (l queueLogger) Error(message string, params ...any) {
	l.log.Error().Fields(params).Msg(message)
}
