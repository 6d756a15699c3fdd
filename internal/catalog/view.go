package catalog

import "github.com/mrlokans/librarian/internal/entities"

// BookView is the response shape of a book.
type BookView struct {
	ID          uint         `json:"id"`
	Title       string       `json:"title"`
	Description string       `json:"description"`
	Publisher   string       `json:"publisher"`
	Author      []AuthorView `json:"author"`
}

type AuthorView struct {
	Name string `json:"name"`
}

// Present maps a book with its publisher and authors loaded to a BookView.
// Authors keep the order they were loaded in.
func Present(book *entities.Book) BookView {
	view := BookView{
		ID:          book.ID,
		Title:       book.Title,
		Description: book.Description,
		Author:      make([]AuthorView, 0, len(book.Authors)),
	}
	if book.Publisher != nil {
		view.Publisher = book.Publisher.Name
	}
	for _, a := range book.Authors {
		view.Author = append(view.Author, AuthorView{Name: a.Name})
	}
	return view
}

// PresentAll maps every book with Present.
func PresentAll(books []entities.Book) []BookView {
	views := make([]BookView, 0, len(books))
	for i := range books {
		views = append(views, Present(&books[i]))
	}
	return views
}
