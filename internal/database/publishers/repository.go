// Package publishers provides database operations for publishers.
package publishers

import (
	"errors"

	"gorm.io/gorm"

	"github.com/mrlokans/librarian/internal/entities"
)

// Repository handles all publisher database operations.
type Repository struct {
	db *gorm.DB
}

// NewRepository creates a new publishers repository.
func NewRepository(db *gorm.DB) *Repository {
	return &Repository{db: db}
}

// Create inserts a new publisher.
func (r *Repository) Create(name string) (*entities.Publisher, error) {
	publisher := &entities.Publisher{Name: name}
	if err := r.db.Create(publisher).Error; err != nil {
		return nil, err
	}
	return publisher, nil
}

// GetOrCreate retrieves a publisher by name or creates it.
func (r *Repository) GetOrCreate(name string) (*entities.Publisher, error) {
	publisher, err := r.GetByName(name)
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return r.Create(name)
	}
	if err != nil {
		return nil, err
	}
	return publisher, nil
}

// GetByID retrieves a publisher by ID.
func (r *Repository) GetByID(id uint) (*entities.Publisher, error) {
	var publisher entities.Publisher
	if err := r.db.First(&publisher, id).Error; err != nil {
		return nil, err
	}
	return &publisher, nil
}

// GetByName retrieves a publisher by exact name.
func (r *Repository) GetByName(name string) (*entities.Publisher, error) {
	var publisher entities.Publisher
	if err := r.db.Where("name = ?", name).First(&publisher).Error; err != nil {
		return nil, err
	}
	return &publisher, nil
}

// ListAll retrieves every publisher ordered by ID.
func (r *Repository) ListAll() ([]entities.Publisher, error) {
	var publishers []entities.Publisher
	err := r.db.Order("id ASC").Find(&publishers).Error
	return publishers, err
}
