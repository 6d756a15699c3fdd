// Package scheduler triggers periodic background work on cron schedules.
package scheduler

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/robfig/cron/v3"
	"github.com/rs/zerolog/log"
)

var parser = cron.NewParser(cron.Minute | cron.Hour | cron.Dom | cron.Month | cron.Dow)

// ValidateSchedule checks a five-field cron expression.
func ValidateSchedule(schedule string) error {
	_, err := parser.Parse(schedule)
	return err
}

// NextRun returns when schedule fires next after from.
func NextRun(schedule string, from time.Time) (time.Time, error) {
	sched, err := parser.Parse(schedule)
	if err != nil {
		return time.Time{}, err
	}
	return sched.Next(from), nil
}

// AuditPruneEnqueuer queues an audit retention task.
type AuditPruneEnqueuer interface {
	EnqueuePruneAudit(retentionDays int) (string, error)
}

// AuditPruneScheduler enqueues an audit prune task on a cron schedule.
// The task itself runs on the queue workers.
type AuditPruneScheduler struct {
	queue         AuditPruneEnqueuer
	schedule      string
	retentionDays int

	cron       *cron.Cron
	entryID    cron.EntryID
	mu         sync.RWMutex
	isRunning  bool
	cancelFunc context.CancelFunc
}

func NewAuditPruneScheduler(queue AuditPruneEnqueuer, schedule string, retentionDays int) *AuditPruneScheduler {
	return &AuditPruneScheduler{
		queue:         queue,
		schedule:      schedule,
		retentionDays: retentionDays,
		cron:          cron.New(cron.WithParser(parser)),
	}
}

// Start registers the cron job. It stops when ctx is cancelled.
func (s *AuditPruneScheduler) Start(ctx context.Context) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.isRunning {
		return nil
	}

	if err := ValidateSchedule(s.schedule); err != nil {
		return fmt.Errorf("invalid cron schedule %q: %w", s.schedule, err)
	}

	entryID, err := s.cron.AddFunc(s.schedule, func() {
		if _, err := s.RunNow(); err != nil {
			log.Error().Err(err).Msg("audit prune scheduler: failed to enqueue")
		}
	})
	if err != nil {
		return fmt.Errorf("failed to schedule audit prune: %w", err)
	}
	s.entryID = entryID

	var cancelCtx context.Context
	cancelCtx, s.cancelFunc = context.WithCancel(ctx)

	s.cron.Start()
	s.isRunning = true

	next, _ := NextRun(s.schedule, time.Now())
	log.Info().
		Str("schedule", s.schedule).
		Int("retention_days", s.retentionDays).
		Time("next_run", next).
		Msg("audit prune scheduler started")

	go func() {
		<-cancelCtx.Done()
		s.Stop()
	}()

	return nil
}

// Stop waits for a running job to return and stops the scheduler.
func (s *AuditPruneScheduler) Stop() {
	s.mu.Lock()
	defer s.mu.Unlock()

	if !s.isRunning {
		return
	}

	<-s.cron.Stop().Done()
	s.cron.Remove(s.entryID)

	if s.cancelFunc != nil {
		s.cancelFunc()
		s.cancelFunc = nil
	}
	s.isRunning = false

	log.Info().Msg("audit prune scheduler stopped")
}

// RunNow enqueues a prune task immediately.
func (s *AuditPruneScheduler) RunNow() (string, error) {
	id, err := s.queue.EnqueuePruneAudit(s.retentionDays)
	if err != nil {
		return "", err
	}
	log.Debug().Str("task_id", id).Msg("audit prune enqueued")
	return id, nil
}

// IsRunning returns whether the scheduler is active
func (s *AuditPruneScheduler) IsRunning() bool {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.isRunning
}

// NextRunTime returns when the job fires next, or nil when stopped.
func (s *AuditPruneScheduler) NextRunTime() *time.Time {
	s.mu.RLock()
	defer s.mu.RUnlock()

	if !s.isRunning {
		return nil
	}

	for _, entry := range s.cron.Entries() {
		if entry.ID == s.entryID {
			t := entry.Next
			return &t
		}
	}
	return nil
}
