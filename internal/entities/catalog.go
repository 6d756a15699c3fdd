package entities

import "time"

type Publisher struct {
	ID        uint      `gorm:"primaryKey" json:"id"`
	Name      string    `gorm:"uniqueIndex;size:255;not null" json:"name"`
	Books     []Book    `gorm:"foreignKey:PublisherID" json:"-"`
	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}

// Author names are unique in the store; the unique index is what keeps
// concurrent find-or-create calls from inserting the same name twice.
type Author struct {
	ID        uint      `gorm:"primaryKey" json:"id"`
	Name      string    `gorm:"uniqueIndex;size:255;not null" json:"name"`
	Books     []Book    `gorm:"many2many:book_authors;" json:"-"`
	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}

type Book struct {
	ID          uint       `gorm:"primaryKey" json:"id"`
	Title       string     `gorm:"index;size:255;not null" json:"title"`
	Description string     `gorm:"type:text;not null" json:"description"`
	PublisherID uint       `gorm:"index;not null" json:"publisher_id"`
	Publisher   *Publisher `gorm:"foreignKey:PublisherID;constraint:OnDelete:RESTRICT" json:"-"`
	Authors     []Author   `gorm:"many2many:book_authors;" json:"-"`
	CreatedAt   time.Time  `json:"created_at"`
	UpdatedAt   time.Time  `json:"updated_at"`
}

// BookAuthor is the junction row between a book and one of its authors.
type BookAuthor struct {
	BookID   uint `gorm:"primaryKey;autoIncrement:false"`
	AuthorID uint `gorm:"primaryKey;autoIncrement:false;index"`
}

func (Publisher) TableName() string {
	return "publishers"
}

func (Author) TableName() string {
	return "authors"
}

func (Book) TableName() string {
	return "books"
}

func (BookAuthor) TableName() string {
	return "book_authors"
}
