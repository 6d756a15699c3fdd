// Package catalog implements the book workflow: authorising the acting
// user, upserting a book and replacing its author set in one transaction.
package catalog

import (
	"context"
	"errors"

	"github.com/rs/zerolog/log"
	"gorm.io/gorm"

	"github.com/mrlokans/librarian/internal/audit"
	"github.com/mrlokans/librarian/internal/database/authors"
	"github.com/mrlokans/librarian/internal/database/books"
	"github.com/mrlokans/librarian/internal/entities"
)

// Service runs catalog operations against the store.
type Service struct {
	db    *gorm.DB
	audit *audit.Service
}

// NewService creates a catalog service. auditSvc may be nil.
func NewService(db *gorm.DB, auditSvc *audit.Service) *Service {
	return &Service{db: db, audit: auditSvc}
}

// ListBooks returns every book in the store.
func (s *Service) ListBooks(ctx context.Context) ([]BookView, error) {
	all, err := books.NewRepository(s.db.WithContext(ctx)).ListAll()
	if err != nil {
		log.Ctx(ctx).Error().Err(err).Msg("failed to list books")
		return nil, internalError(MsgListFailed, err)
	}
	return PresentAll(all), nil
}

// GetBook returns the stored book record.
func (s *Service) GetBook(ctx context.Context, id uint) (*entities.Book, error) {
	return s.loadBook(ctx, id)
}

// CreateBook finds or creates the book identified by title, description
// and the actor's publisher, then makes its authors exactly in.Authors.
func (s *Service) CreateBook(ctx context.Context, actor ActingUser, in BookInput) (*BookView, error) {
	if err := in.Validate(); err != nil {
		return nil, err
	}
	if err := Authorize(actor, nil); err != nil {
		return nil, err
	}

	key := books.BookKey{Title: in.Title, Description: in.Description, PublisherID: *actor.PublisherID}

	var (
		book    *entities.Book
		created bool
		synced  books.SyncResult
	)
	err := s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		repo := books.NewRepository(tx)

		row, isNew, err := repo.FindOrCreate(key)
		if err != nil {
			return err
		}
		created = isNew

		if synced, err = syncAuthors(tx, row.ID, in.distinctAuthors()); err != nil {
			return err
		}

		book, err = repo.GetWithRelations(row.ID)
		return err
	})
	if err != nil {
		log.Ctx(ctx).Error().Err(err).Uint("user_id", actor.UserID).Str("title", in.Title).Msg("failed to create book")
		s.audit.LogBook(actor.UserID, audit.ActionBookCreate, 0, in.Title, actor.IPAddress, nil, err)
		return nil, internalError(MsgCreateFailed, err)
	}

	details := syncDetails(synced)
	details["created"] = created
	s.audit.LogBook(actor.UserID, audit.ActionBookCreate, book.ID, book.Title, actor.IPAddress, details, nil)

	view := Present(book)
	return &view, nil
}

// UpdateBook overwrites the book's fields and makes its authors exactly
// in.Authors. The actor's publisher must own the book.
func (s *Service) UpdateBook(ctx context.Context, actor ActingUser, id uint, in BookInput) (*BookView, error) {
	if err := in.Validate(); err != nil {
		return nil, err
	}

	existing, err := s.loadBook(ctx, id)
	if err != nil {
		return nil, err
	}
	if err := Authorize(actor, existing); err != nil {
		return nil, err
	}

	key := books.BookKey{Title: in.Title, Description: in.Description, PublisherID: *actor.PublisherID}

	var (
		book   *entities.Book
		synced books.SyncResult
	)
	err = s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		repo := books.NewRepository(tx)

		if err := repo.Overwrite(id, key); err != nil {
			return err
		}

		var err error
		if synced, err = syncAuthors(tx, id, in.distinctAuthors()); err != nil {
			return err
		}

		book, err = repo.GetWithRelations(id)
		return err
	})
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, errNotFound
	}
	if err != nil {
		log.Ctx(ctx).Error().Err(err).Uint("user_id", actor.UserID).Uint("book_id", id).Msg("failed to update book")
		s.audit.LogBook(actor.UserID, audit.ActionBookUpdate, id, in.Title, actor.IPAddress, nil, err)
		return nil, internalError(MsgUpdateFailed, err)
	}

	s.audit.LogBook(actor.UserID, audit.ActionBookUpdate, id, book.Title, actor.IPAddress, syncDetails(synced), nil)

	view := Present(book)
	return &view, nil
}

// DeleteBook detaches the book's authors and removes it. Author rows
// are kept.
func (s *Service) DeleteBook(ctx context.Context, actor ActingUser, id uint) error {
	existing, err := s.loadBook(ctx, id)
	if err != nil {
		return err
	}
	if err := AuthorizeDelete(actor, existing); err != nil {
		return err
	}

	err = s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		repo := books.NewRepository(tx)
		if err := repo.DetachAuthors(id); err != nil {
			return err
		}
		return repo.Delete(id)
	})
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return errNotFound
	}
	if err != nil {
		log.Ctx(ctx).Error().Err(err).Uint("user_id", actor.UserID).Uint("book_id", id).Msg("failed to delete book")
		s.audit.LogBook(actor.UserID, audit.ActionBookDelete, id, existing.Title, actor.IPAddress, nil, err)
		return internalError(MsgDeleteFailed, err)
	}

	s.audit.LogBook(actor.UserID, audit.ActionBookDelete, id, existing.Title, actor.IPAddress, nil, nil)
	return nil
}

func (s *Service) loadBook(ctx context.Context, id uint) (*entities.Book, error) {
	book, err := books.NewRepository(s.db.WithContext(ctx)).GetByID(id)
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, errNotFound
	}
	if err != nil {
		log.Ctx(ctx).Error().Err(err).Uint("book_id", id).Msg("failed to load book")
		return nil, internalError(MsgLoadFailed, err)
	}
	return book, nil
}

// syncAuthors resolves each name to an author row and replaces the book's
// author links with that set.
func syncAuthors(tx *gorm.DB, bookID uint, names []string) (books.SyncResult, error) {
	authorRepo := authors.NewRepository(tx)

	ids := make([]uint, 0, len(names))
	for _, name := range names {
		author, err := authorRepo.FindOrCreate(name)
		if err != nil {
			return books.SyncResult{}, err
		}
		ids = append(ids, author.ID)
	}

	return books.NewRepository(tx).SyncAuthors(bookID, ids)
}

func syncDetails(r books.SyncResult) map[string]any {
	return map[string]any{
		"authors_added":   r.Added,
		"authors_removed": r.Removed,
	}
}
