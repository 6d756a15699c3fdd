// Package books provides database operations for books and their author
// associations.
//
// Repositories are thin wrappers over a *gorm.DB. Inside a transaction,
// build one over the transaction handle:
//
//	err := db.Transaction(func(tx *gorm.DB) error {
//		repo := books.NewRepository(tx)
//		book, _, err := repo.FindOrCreate(key)
//		...
//	})
package books

import (
	"errors"
	"fmt"
	"sort"

	"gorm.io/gorm"

	"github.com/mrlokans/librarian/internal/entities"
)

// BookKey is the natural key used to deduplicate books on creation.
type BookKey struct {
	Title       string
	Description string
	PublisherID uint
}

// SyncResult reports which author links SyncAuthors changed.
type SyncResult struct {
	Added   []uint
	Removed []uint
}

// Repository handles all book database operations.
type Repository struct {
	db *gorm.DB
}

// NewRepository creates a new books repository.
func NewRepository(db *gorm.DB) *Repository {
	return &Repository{db: db}
}

// GetByID retrieves the bare book row.
func (r *Repository) GetByID(id uint) (*entities.Book, error) {
	var book entities.Book
	if err := r.db.First(&book, id).Error; err != nil {
		return nil, err
	}
	return &book, nil
}

// GetWithRelations retrieves a book with its publisher and authors.
func (r *Repository) GetWithRelations(id uint) (*entities.Book, error) {
	var book entities.Book
	if err := r.withRelations().First(&book, id).Error; err != nil {
		return nil, err
	}
	return &book, nil
}

// ListAll retrieves every book with its publisher and authors, oldest first.
func (r *Repository) ListAll() ([]entities.Book, error) {
	var books []entities.Book
	err := r.withRelations().Order("books.id ASC").Find(&books).Error
	return books, err
}

func (r *Repository) withRelations() *gorm.DB {
	return r.db.
		Preload("Publisher").
		Preload("Authors", func(db *gorm.DB) *gorm.DB {
			return db.Order("authors.id ASC")
		})
}

// FindOrCreate returns the book matching key exactly, inserting it when no
// such row exists. The boolean reports whether a row was created.
func (r *Repository) FindOrCreate(key BookKey) (*entities.Book, bool, error) {
	var book entities.Book
	err := r.db.
		Where("title = ? AND description = ? AND publisher_id = ?", key.Title, key.Description, key.PublisherID).
		Order("id ASC").
		First(&book).Error
	if err == nil {
		return &book, false, nil
	}
	if !errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, false, fmt.Errorf("failed to look up book: %w", err)
	}

	book = entities.Book{
		Title:       key.Title,
		Description: key.Description,
		PublisherID: key.PublisherID,
	}
	if err := r.db.Create(&book).Error; err != nil {
		return nil, false, fmt.Errorf("failed to create book: %w", err)
	}
	return &book, true, nil
}

// Overwrite replaces title, description and publisher of the book with the
// given id. It returns gorm.ErrRecordNotFound when the row does not exist.
func (r *Repository) Overwrite(id uint, key BookKey) error {
	result := r.db.Model(&entities.Book{}).Where("id = ?", id).Updates(map[string]any{
		"title":        key.Title,
		"description":  key.Description,
		"publisher_id": key.PublisherID,
	})
	if result.Error != nil {
		return fmt.Errorf("failed to update book %d: %w", id, result.Error)
	}
	if result.RowsAffected == 0 {
		return gorm.ErrRecordNotFound
	}
	return nil
}

// AuthorIDs returns the ids of the authors linked to a book, ascending.
func (r *Repository) AuthorIDs(bookID uint) ([]uint, error) {
	var ids []uint
	err := r.db.Model(&entities.BookAuthor{}).
		Where("book_id = ?", bookID).
		Order("author_id ASC").
		Pluck("author_id", &ids).Error
	return ids, err
}

// SyncAuthors makes the book's author links exactly authorIDs: links not in
// the set are removed, missing ones are inserted and the rest are left alone.
// Duplicate ids are ignored.
func (r *Repository) SyncAuthors(bookID uint, authorIDs []uint) (SyncResult, error) {
	var result SyncResult

	current, err := r.AuthorIDs(bookID)
	if err != nil {
		return result, fmt.Errorf("failed to load authors of book %d: %w", bookID, err)
	}

	wanted := make(map[uint]struct{}, len(authorIDs))
	for _, id := range authorIDs {
		wanted[id] = struct{}{}
	}
	existing := make(map[uint]struct{}, len(current))
	for _, id := range current {
		existing[id] = struct{}{}
		if _, ok := wanted[id]; !ok {
			result.Removed = append(result.Removed, id)
		}
	}
	for id := range wanted {
		if _, ok := existing[id]; !ok {
			result.Added = append(result.Added, id)
		}
	}
	sort.Slice(result.Added, func(i, j int) bool { return result.Added[i] < result.Added[j] })

	if len(result.Removed) > 0 {
		err := r.db.Where("book_id = ? AND author_id IN ?", bookID, result.Removed).
			Delete(&entities.BookAuthor{}).Error
		if err != nil {
			return SyncResult{}, fmt.Errorf("failed to detach authors from book %d: %w", bookID, err)
		}
	}

	if len(result.Added) > 0 {
		links := make([]entities.BookAuthor, 0, len(result.Added))
		for _, id := range result.Added {
			links = append(links, entities.BookAuthor{BookID: bookID, AuthorID: id})
		}
		if err := r.db.Create(&links).Error; err != nil {
			return SyncResult{}, fmt.Errorf("failed to attach authors to book %d: %w", bookID, err)
		}
	}

	return result, nil
}

// DetachAuthors removes every author link of a book. Author rows stay.
func (r *Repository) DetachAuthors(bookID uint) error {
	return r.db.Where("book_id = ?", bookID).Delete(&entities.BookAuthor{}).Error
}

// Delete removes the book row. It returns gorm.ErrRecordNotFound when
// nothing was deleted.
func (r *Repository) Delete(id uint) error {
	result := r.db.Delete(&entities.Book{}, id)
	if result.Error != nil {
		return result.Error
	}
	if result.RowsAffected == 0 {
		return gorm.ErrRecordNotFound
	}
	return nil
}

// CountByPublisher returns how many books a publisher owns.
func (r *Repository) CountByPublisher(publisherID uint) (int64, error) {
	var count int64
	err := r.db.Model(&entities.Book{}).Where("publisher_id = ?", publisherID).Count(&count).Error
	return count, err
}
