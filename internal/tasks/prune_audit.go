package tasks

import (
	"context"
	"fmt"
	"time"

	"github.com/mikestefanello/backlite"
	"github.com/rs/zerolog/log"
)

const defaultAuditRetentionDays = 30

// AuditPruner deletes audit events older than a retention window.
type AuditPruner interface {
	DeleteOldEvents(retention time.Duration) (int64, error)
}

// PruneAuditTask removes audit events older than RetentionDays.
type PruneAuditTask struct {
	RetentionDays int `json:"retention_days"`
}

func (t PruneAuditTask) Config() backlite.QueueConfig {
	return backlite.QueueConfig{
		Name:        "prune_audit_events",
		MaxAttempts: 3,
		Backoff:     5 * time.Minute,
		Timeout:     2 * time.Minute,
		Retention: &backlite.Retention{
			Duration: 24 * time.Hour,
			Data:     &backlite.RetainData{OnlyFailed: true},
		},
	}
}

// Retention returns the window as a duration; non-positive days fall back
// to 30.
func (t PruneAuditTask) Retention() time.Duration {
	days := t.RetentionDays
	if days <= 0 {
		days = defaultAuditRetentionDays
	}
	return time.Duration(days) * 24 * time.Hour
}

// PruneAuditProcessor returns the queue processor for PruneAuditTask.
func PruneAuditProcessor(pruner AuditPruner) backlite.QueueProcessor[PruneAuditTask] {
	return func(ctx context.Context, task PruneAuditTask) error {
		if pruner == nil {
			return fmt.Errorf("audit pruner not configured")
		}

		deleted, err := pruner.DeleteOldEvents(task.Retention())
		if err != nil {
			return fmt.Errorf("prune audit events: %w", err)
		}

		log.Info().Int64("deleted", deleted).Dur("retention", task.Retention()).Msg("pruned audit events")
		return nil
	}
}

// NewPruneAuditQueue creates the backlite queue for PruneAuditTask.
func NewPruneAuditQueue(pruner AuditPruner) backlite.Queue {
	return backlite.NewQueue(PruneAuditProcessor(pruner))
}

// EnqueuePruneAudit queues one PruneAuditTask and returns its task ID.
func (c *Client) EnqueuePruneAudit(retentionDays int) (string, error) {
	ids, err := c.Add(PruneAuditTask{RetentionDays: retentionDays}).Save()
	if err != nil {
		return "", fmt.Errorf("enqueue audit prune: %w", err)
	}
	if len(ids) == 0 {
		return "", fmt.Errorf("enqueue audit prune: no task id returned")
	}
	return ids[0], nil
}
