package catalog

import (
	"errors"

	validation "github.com/go-ozzo/ozzo-validation/v4"
)

// BookInput is the body of a create or update request. Publisher is
// accepted for compatibility and ignored: the owner always comes from the
// acting user.
type BookInput struct {
	Title       string   `json:"title"`
	Description string   `json:"description"`
	Authors     []string `json:"author"`
	Publisher   string   `json:"publisher,omitempty"`
}

// Validate checks the input before any write. An empty author list is
// valid and clears the book's authors.
func (in BookInput) Validate() error {
	err := validation.ValidateStruct(&in,
		validation.Field(&in.Title, validation.Required, validation.Length(1, 255)),
		validation.Field(&in.Description, validation.Required),
		validation.Field(&in.Authors,
			validation.NotNil,
			validation.Each(validation.Required, validation.Length(1, 255)),
		),
	)
	if err == nil {
		return nil
	}

	var fieldErrs validation.Errors
	if !errors.As(err, &fieldErrs) {
		return &Error{Kind: KindValidation, Msg: MsgValidation, Err: err}
	}

	fields := make(map[string]string, len(fieldErrs))
	for name, fe := range fieldErrs {
		fields[name] = fe.Error()
	}
	return &Error{Kind: KindValidation, Msg: MsgValidation, Fields: fields, Err: err}
}

// distinctAuthors returns the author names with duplicates removed,
// keeping first occurrences in order.
func (in BookInput) distinctAuthors() []string {
	seen := make(map[string]struct{}, len(in.Authors))
	names := make([]string, 0, len(in.Authors))
	for _, name := range in.Authors {
		if _, ok := seen[name]; ok {
			continue
		}
		seen[name] = struct{}{}
		names = append(names, name)
	}
	return names
}
