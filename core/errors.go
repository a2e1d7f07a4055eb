package core

import (
	"errors"
	"fmt"
)

// Kind classifies an error so callers can react without matching on
// message text.
type Kind int

const (
	// KindUnknown is the zero value; errors without a kind wrap into it.
	KindUnknown Kind = iota

	// KindNotFound: unknown conversation, tool, or memory id.
	KindNotFound

	// KindPermissionDenied: input or tool call rejected by the safety guardian.
	KindPermissionDenied

	// KindValidation: malformed tool arguments.
	KindValidation

	// KindProvider: remote generation or embedding backend unreachable,
	// or it returned malformed data.
	KindProvider

	// KindStorage: persistence failure.
	KindStorage
)

// String returns the kind's wire name.
func (k Kind) String() string {
	switch k {
	case KindNotFound:
		return "not_found"
	case KindPermissionDenied:
		return "permission_denied"
	case KindValidation:
		return "validation_error"
	case KindProvider:
		return "provider_error"
	case KindStorage:
		return "storage_error"
	default:
		return "unknown"
	}
}

// Error is a classified error. It wraps an underlying cause when one exists.
type Error struct {
	Kind Kind
	Msg  string
	Err  error
}

func (e *Error) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("%s: %s: %v", e.Kind, e.Msg, e.Err)
	}
	return fmt.Sprintf("%s: %s", e.Kind, e.Msg)
}

func (e *Error) Unwrap() error { return e.Err }

// Errorf builds a classified error with a formatted message.
func Errorf(kind Kind, format string, args ...any) *Error {
	return &Error{Kind: kind, Msg: fmt.Sprintf(format, args...)}
}

// WrapErr builds a classified error around a cause.
func WrapErr(kind Kind, err error, msg string) *Error {
	return &Error{Kind: kind, Msg: msg, Err: err}
}

// KindOf extracts the kind from err, unwrapping as needed.
// Returns KindUnknown for unclassified errors.
func KindOf(err error) Kind {
	var ce *Error
	if errors.As(err, &ce) {
		return ce.Kind
	}
	return KindUnknown
}

// IsKind reports whether err carries the given kind.
func IsKind(err error, kind Kind) bool {
	return KindOf(err) == kind
}
