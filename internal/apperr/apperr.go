package apperr

import (
	"errors"
	"fmt"
)

// Kind classifies a failure so the transport layer can map it to a
// status code without inspecting message strings.
type Kind string

const (
	KindMissingCallerIdentity Kind = "missing_caller_identity"
	KindUserNotFound          Kind = "user_not_found"
	KindForbidden             Kind = "forbidden"
	KindTimelineAccessDenied  Kind = "timeline_access_denied"
	KindAlreadyExists         Kind = "already_exists"
	KindNotFound              Kind = "not_found"
	KindTimelineMismatch      Kind = "timeline_mismatch"
	KindMalformedDataURI      Kind = "malformed_data_uri"
	KindUnsupportedExtension  Kind = "unsupported_extension"
	KindStoreUnavailable      Kind = "store_unavailable"
	KindInvalidPayload        Kind = "invalid_payload"
)

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

func (e *Error) Unwrap() error {
	return e.Err
}

func New(kind Kind, message string) *Error {
	return &Error{Kind: kind, Message: message}
}

func Newf(kind Kind, format string, args ...interface{}) *Error {
	return &Error{Kind: kind, Message: fmt.Sprintf(format, args...)}
}

func Wrap(kind Kind, message string, err error) *Error {
	return &Error{Kind: kind, Message: message, Err: err}
}

// KindOf returns the kind carried by err, or empty when err is not an
// *Error.
func KindOf(err error) Kind {
	var appErr *Error
	if errors.As(err, &appErr) {
		return appErr.Kind
	}
	return ""
}

// Message returns the caller-safe message of err. Wrapped store errors
// stay out of responses.
func Message(err error) string {
	var appErr *Error
	if errors.As(err, &appErr) {
		return appErr.Message
	}
	return "internal server error"
}
