// Package audit records catalog mutations and logins as AuditEvent rows.
//
// A nil *Service is valid and records nothing.
package audit

import (
	"encoding/json"
	"sync"
	"time"

	"github.com/rs/zerolog/log"

	"github.com/mrlokans/librarian/internal/database/audit"
	"github.com/mrlokans/librarian/internal/entities"
)

const (
	ActionBookCreate = "book_create"
	ActionBookUpdate = "book_update"
	ActionBookDelete = "book_delete"
	ActionLogin      = "login"
	ActionTokenIssue = "api_token_issue"

	EntityBook = "book"
	EntityUser = "user"
)

// Service provides high-level audit logging functionality.
type Service struct {
	repo    *audit.Repository
	pending sync.WaitGroup
}

// NewService creates a new audit service.
func NewService(repo *audit.Repository) *Service {
	return &Service{repo: repo}
}

// Log records a generic audit event.
func (s *Service) Log(event *entities.AuditEvent) error {
	if s == nil {
		return nil
	}
	return s.repo.LogEvent(event)
}

// LogAsync records an audit event in the background (non-blocking).
func (s *Service) LogAsync(event *entities.AuditEvent) {
	if s == nil {
		return
	}
	s.pending.Add(1)
	go func() {
		defer s.pending.Done()
		if err := s.repo.LogEvent(event); err != nil {
			log.Error().Err(err).Str("action", event.Action).Msg("failed to log audit event")
		}
	}()
}

// Wait blocks until every event passed to LogAsync has been written.
func (s *Service) Wait() {
	if s == nil {
		return
	}
	s.pending.Wait()
}

// LogBook records a create, update or delete of a book. details is stored
// as JSON metadata; a non-nil err marks the event failed.
func (s *Service) LogBook(userID uint, action string, bookID uint, title, ipAddr string, details map[string]any, err error) {
	if s == nil {
		return
	}

	event := &entities.AuditEvent{
		UserID:      userID,
		EventType:   entities.AuditEventBook,
		Action:      action,
		Description: truncate(describeBookAction(action)+": "+title, 500),
		EntityType:  EntityBook,
		IPAddress:   ipAddr,
		Status:      entities.AuditStatusSuccess,
	}
	if bookID != 0 {
		event.EntityID = &bookID
	}
	if len(details) > 0 {
		if md, e := json.Marshal(details); e == nil {
			event.Metadata = string(md)
		}
	}
	if err != nil {
		event.Status = entities.AuditStatusFailed
		event.ErrorMsg = truncate(err.Error(), 500)
	}

	s.LogAsync(event)
}

// LogAuth records an authentication event.
func (s *Service) LogAuth(userID uint, action, username, ipAddr string, success bool) {
	if s == nil {
		return
	}

	event := &entities.AuditEvent{
		UserID:      userID,
		EventType:   entities.AuditEventAuth,
		Action:      action,
		Description: truncate(username, 500),
		EntityType:  EntityUser,
		IPAddress:   ipAddr,
		Status:      entities.AuditStatusSuccess,
	}
	if userID != 0 {
		event.EntityID = &userID
	}
	if !success {
		event.Status = entities.AuditStatusFailed
	}

	s.LogAsync(event)
}

// GetEvents retrieves paginated audit events.
func (s *Service) GetEvents(userID uint, limit, offset int) ([]entities.AuditEvent, int64, error) {
	return s.repo.GetEvents(userID, limit, offset)
}

// History returns every event recorded for one book, oldest first.
func (s *Service) History(bookID uint) ([]entities.AuditEvent, error) {
	return s.repo.GetEventsForEntity(EntityBook, bookID)
}

// DeleteOldEvents removes events older than the specified duration.
func (s *Service) DeleteOldEvents(retention time.Duration) (int64, error) {
	cutoff := time.Now().Add(-retention)
	return s.repo.DeleteOldEvents(cutoff)
}

func describeBookAction(action string) string {
	switch action {
	case ActionBookCreate:
		return "Created book"
	case ActionBookUpdate:
		return "Updated book"
	case ActionBookDelete:
		return "Deleted book"
	default:
		return action
	}
}

// truncate shortens a string to max length.
func truncate(s string, maxLen int) string {
	if len(s) <= maxLen {
		return s
	}
	return s[:maxLen-3] + "..."
}
