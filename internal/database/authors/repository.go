// Package authors provides database operations for authors.
//
// Authors are looked up by name, which is unique in the store.
package authors

import (
	"errors"
	"fmt"

	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	"github.com/mrlokans/librarian/internal/entities"
)

// Repository handles all author database operations.
type Repository struct {
	db *gorm.DB
}

// NewRepository creates a new authors repository.
func NewRepository(db *gorm.DB) *Repository {
	return &Repository{db: db}
}

// GetByName retrieves an author by exact name.
func (r *Repository) GetByName(name string) (*entities.Author, error) {
	var author entities.Author
	if err := r.db.Where("name = ?", name).First(&author).Error; err != nil {
		return nil, err
	}
	return &author, nil
}

// FindOrCreate returns the author with the given name, creating it if
// needed. The insert ignores a unique-name conflict and re-reads the row,
// so concurrent callers for the same new name end up with one author.
func (r *Repository) FindOrCreate(name string) (*entities.Author, error) {
	author, err := r.GetByName(name)
	if err == nil {
		return author, nil
	}
	if !errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, fmt.Errorf("failed to look up author %q: %w", name, err)
	}

	created := entities.Author{Name: name}
	result := r.db.Clauses(clause.OnConflict{
		Columns:   []clause.Column{{Name: "name"}},
		DoNothing: true,
	}).Create(&created)
	if result.Error != nil {
		return nil, fmt.Errorf("failed to create author %q: %w", name, result.Error)
	}
	if result.RowsAffected == 1 && created.ID != 0 {
		return &created, nil
	}

	author, err = r.GetByName(name)
	if err != nil {
		return nil, fmt.Errorf("failed to reload author %q: %w", name, err)
	}
	return author, nil
}

// ListAll retrieves every author ordered by ID.
func (r *Repository) ListAll() ([]entities.Author, error) {
	var authors []entities.Author
	err := r.db.Order("id ASC").Find(&authors).Error
	return authors, err
}

// IsOrphan reports whether no book references the author.
func (r *Repository) IsOrphan(authorID uint) (bool, error) {
	var count int64
	if err := r.db.Table("book_authors").Where("author_id = ?", authorID).Count(&count).Error; err != nil {
		return false, err
	}
	return count == 0, nil
}
