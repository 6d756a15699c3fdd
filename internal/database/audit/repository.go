// Package audit stores the append-only log of catalog mutations and logins.
package audit

import (
	"time"

	"gorm.io/gorm"

	"github.com/mrlokans/librarian/internal/entities"
)

const defaultPageSize = 50

type Repository struct {
	db *gorm.DB
}

func NewRepository(db *gorm.DB) *Repository {
	return &Repository{db: db}
}

// LogEvent saves an audit event to the database.
func (r *Repository) LogEvent(event *entities.AuditEvent) error {
	if event.CreatedAt.IsZero() {
		event.CreatedAt = time.Now()
	}
	return r.db.Create(event).Error
}

// GetEvents retrieves paginated audit events, most recent first. A zero
// userID returns events of every user.
func (r *Repository) GetEvents(userID uint, limit, offset int) ([]entities.AuditEvent, int64, error) {
	query := r.db.Model(&entities.AuditEvent{})
	if userID > 0 {
		query = query.Where("user_id = ?", userID)
	}
	return paginate(query, limit, offset)
}

// GetEventsForEntity retrieves the history of one catalog record.
func (r *Repository) GetEventsForEntity(entityType string, entityID uint) ([]entities.AuditEvent, error) {
	var events []entities.AuditEvent
	err := r.db.Where("entity_type = ? AND entity_id = ?", entityType, entityID).
		Order("created_at ASC, id ASC").
		Find(&events).Error
	return events, err
}

// DeleteOldEvents removes audit events older than the specified time.
// Returns the number of deleted events.
func (r *Repository) DeleteOldEvents(olderThan time.Time) (int64, error) {
	result := r.db.Where("created_at < ?", olderThan).Delete(&entities.AuditEvent{})
	return result.RowsAffected, result.Error
}

func paginate(query *gorm.DB, limit, offset int) ([]entities.AuditEvent, int64, error) {
	var (
		events []entities.AuditEvent
		total  int64
	)
	if err := query.Count(&total).Error; err != nil {
		return nil, 0, err
	}

	if limit <= 0 {
		limit = defaultPageSize
	}
	if offset < 0 {
		offset = 0
	}

	err := query.Order("created_at DESC").Limit(limit).Offset(offset).Find(&events).Error
	return events, total, err
}
