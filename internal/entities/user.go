package entities

import "time"

type User struct {
	ID       uint   `gorm:"primaryKey" json:"id"`
	Username string `gorm:"uniqueIndex;size:100;not null" json:"username"`
	Email    string `gorm:"uniqueIndex;size:255;not null" json:"email"`

	PasswordHash   string     `gorm:"size:100" json:"-"`
	TokenHash      string     `gorm:"index;size:64" json:"-"` // SHA-256 of the API token
	TokenCreatedAt *time.Time `json:"-"`

	// PublisherID links the user to the publisher they act for.
	// Users without a publisher can read the catalog but not change it.
	PublisherID *uint      `gorm:"index" json:"publisher_id"`
	Publisher   *Publisher `gorm:"foreignKey:PublisherID" json:"publisher,omitempty"`

	FailedLoginCount int        `gorm:"default:0" json:"-"`
	LockedUntil      *time.Time `json:"-"`
	LastLoginAt      *time.Time `json:"last_login_at,omitempty"`

	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}

func (User) TableName() string {
	return "users"
}
