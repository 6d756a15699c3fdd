package catalog

import "github.com/mrlokans/librarian/internal/entities"

// ActingUser identifies who performs a catalog operation.
type ActingUser struct {
	UserID      uint
	PublisherID *uint  // nil when the user acts for no publisher
	IPAddress   string // recorded in the audit trail only
}

// IsPublisher reports whether the user acts for a publisher.
func (a ActingUser) IsPublisher() bool {
	return a.PublisherID != nil
}

// Authorize checks that actor may change book. Pass a nil book for
// creation, where only the publisher association is required.
func Authorize(actor ActingUser, book *entities.Book) error {
	if !actor.IsPublisher() {
		return errNotAPublisher
	}
	if book != nil && book.PublisherID != *actor.PublisherID {
		return errAccessDenied
	}
	return nil
}

// AuthorizeDelete checks that actor's publisher owns book. A user without
// a publisher owns nothing and is denied access like any other non-owner.
func AuthorizeDelete(actor ActingUser, book *entities.Book) error {
	if !actor.IsPublisher() || book.PublisherID != *actor.PublisherID {
		return errAccessDenied
	}
	return nil
}
