package service

import (
	"errors"
	"fmt"
	"go-blog-app/internal/media"
)

// Kind classifies service failures so the HTTP layer can map them to status codes.
type Kind int

const (
	KindStorage Kind = iota
	KindValidation
	KindNotFound
	KindConflict
	KindConversion
	KindForbidden
)

func (k Kind) String() string {
	switch k {
	case KindValidation:
		return "validation"
	case KindNotFound:
		return "not found"
	case KindConflict:
		return "conflict"
	case KindConversion:
		return "conversion"
	case KindForbidden:
		return "forbidden"
	}
	return "storage"
}

// Error is the error type returned by every service operation.
// Message is safe to show to clients; Err is for the logs.
type Error struct {
	Kind    Kind
	Message string
	Err     error
}

func (e *Error) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("%s: %v", e.Message, e.Err)
	}
	return e.Message
}

func (e *Error) Unwrap() error { return e.Err }

func validationError(msg string) error {
	return &Error{Kind: KindValidation, Message: msg}
}

func notFound(msg string) error {
	return &Error{Kind: KindNotFound, Message: msg}
}

func conflict(msg string) error {
	return &Error{Kind: KindConflict, Message: msg}
}

func storageError(msg string, err error) error {
	return &Error{Kind: KindStorage, Message: msg, Err: err}
}

// KindOf reports the Kind of err. Errors that are not *Error are storage
// failures, except for the media pipeline's own error types.
func KindOf(err error) Kind {
	var svcErr *Error
	if errors.As(err, &svcErr) {
		return svcErr.Kind
	}
	var convErr *media.ConversionError
	if errors.As(err, &convErr) {
		return KindConversion
	}
	if errors.Is(err, media.ErrInvalidName) {
		return KindValidation
	}
	return KindStorage
}

// IsKind reports whether err is of the given kind.
func IsKind(err error, kind Kind) bool {
	return err != nil && KindOf(err) == kind
}

// Message returns the client-facing message of err.
func Message(err error) string {
	var svcErr *Error
	if errors.As(err, &svcErr) {
		return svcErr.Message
	}
	switch KindOf(err) {
	case KindConversion:
		return "Failed to convert the uploaded file"
	case KindValidation:
		return err.Error()
	}
	return "Internal server error"
}
