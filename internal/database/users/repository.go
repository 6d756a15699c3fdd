// Package users provides database operations for catalog users.
//
// # Usage
//
//	repo := users.NewRepository(db)
//	user, err := repo.GetByTokenHash(auth.HashToken(token))
package users

import (
	"gorm.io/gorm"

	"github.com/mrlokans/librarian/internal/entities"
)

// Repository handles all user database operations.
type Repository struct {
	db *gorm.DB
}

// NewRepository creates a new users repository.
func NewRepository(db *gorm.DB) *Repository {
	return &Repository{db: db}
}

// Create inserts a user row.
func (r *Repository) Create(user *entities.User) error {
	return r.db.Create(user).Error
}

// GetByID retrieves a user by ID with their publisher.
func (r *Repository) GetByID(id uint) (*entities.User, error) {
	var user entities.User
	if err := r.db.Preload("Publisher").First(&user, id).Error; err != nil {
		return nil, err
	}
	return &user, nil
}

// GetByLogin retrieves a user whose username or email equals login.
func (r *Repository) GetByLogin(login string) (*entities.User, error) {
	var user entities.User
	err := r.db.Where("username = ? OR email = ?", login, login).First(&user).Error
	if err != nil {
		return nil, err
	}
	return &user, nil
}

// GetByTokenHash retrieves a user by the SHA-256 hash of their API token.
func (r *Repository) GetByTokenHash(hash string) (*entities.User, error) {
	var user entities.User
	if hash == "" {
		return nil, gorm.ErrRecordNotFound
	}
	if err := r.db.Preload("Publisher").Where("token_hash = ?", hash).First(&user).Error; err != nil {
		return nil, err
	}
	return &user, nil
}

// Exists reports whether a user with the username or email is present.
func (r *Repository) Exists(username, email string) (bool, error) {
	var count int64
	err := r.db.Model(&entities.User{}).
		Where("username = ? OR email = ?", username, email).
		Count(&count).Error
	return count > 0, err
}

// Update applies column updates to one user and returns the number of
// rows changed.
func (r *Repository) Update(id uint, fields map[string]any) (int64, error) {
	result := r.db.Model(&entities.User{}).Where("id = ?", id).Updates(fields)
	return result.RowsAffected, result.Error
}

// Count returns the number of users.
func (r *Repository) Count() (int64, error) {
	var count int64
	err := r.db.Model(&entities.User{}).Count(&count).Error
	return count, err
}
