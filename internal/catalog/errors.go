package catalog

import (
	"errors"
	"fmt"
)

// Kind classifies a catalog failure. The HTTP layer maps kinds to status
// codes; callers never see the wrapped cause.
type Kind int

const (
	KindInternal Kind = iota
	KindNotAPublisher
	KindAccessDenied
	KindValidation
	KindNotFound
)

func (k Kind) String() string {
	switch k {
	case KindNotAPublisher:
		return "not_a_publisher"
	case KindAccessDenied:
		return "access_denied"
	case KindValidation:
		return "validation"
	case KindNotFound:
		return "not_found"
	default:
		return "internal"
	}
}

// Client-facing messages.
const (
	MsgNotAPublisher = "Only a publisher can edit a book item."
	MsgAccessDenied  = "Access Denied."
	MsgValidation    = "Validation Error"
	MsgNotFound      = "Book not found."
	MsgCreateFailed  = "Failed to create book."
	MsgUpdateFailed  = "Failed to update book."
	MsgDeleteFailed  = "Failed to delete book."
	MsgListFailed    = "Failed to list books."
	MsgLoadFailed    = "Failed to load book."
)

// Error is the typed outcome of a failed catalog operation.
type Error struct {
	Kind   Kind
	Msg    string
	Fields map[string]string // per-field messages, KindValidation only
	Err    error             // underlying cause, for logs
}

func (e *Error) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("%s: %v", e.Msg, e.Err)
	}
	return e.Msg
}

func (e *Error) Unwrap() error {
	return e.Err
}

// KindOf returns the kind of a catalog error, or KindInternal for any
// other error.
func KindOf(err error) Kind {
	var ce *Error
	if errors.As(err, &ce) {
		return ce.Kind
	}
	return KindInternal
}

var (
	errNotAPublisher = &Error{Kind: KindNotAPublisher, Msg: MsgNotAPublisher}
	errAccessDenied  = &Error{Kind: KindAccessDenied, Msg: MsgAccessDenied}
	errNotFound      = &Error{Kind: KindNotFound, Msg: MsgNotFound}
)

func internalError(msg string, cause error) *Error {
	return &Error{Kind: KindInternal, Msg: msg, Err: cause}
}
