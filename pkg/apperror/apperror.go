// Package apperror provides tagged application errors. Callers branch on
// Kind and Code, never on the message text.
package apperror

import (
	"errors"
	"fmt"
	"net/http"
)

// Kind classifies an error for transport mapping.
type Kind int

const (
	KindInternal Kind = iota
	KindValidation
	KindUnauthorized
	KindForbidden
	KindNotFound
	KindConflict
)

func (k Kind) String() string {
	switch k {
	case KindValidation:
		return "validation"
	case KindUnauthorized:
		return "unauthorized"
	case KindForbidden:
		return "forbidden"
	case KindNotFound:
		return "not_found"
	case KindConflict:
		return "conflict"
	default:
		return "internal"
	}
}

// HTTPStatus maps a kind to its response status. Conflicts are reported as
// 400 to keep the public API stable.
func (k Kind) HTTPStatus() int {
	switch k {
	case KindValidation, KindConflict:
		return http.StatusBadRequest
	case KindUnauthorized:
		return http.StatusUnauthorized
	case KindForbidden:
		return http.StatusForbidden
	case KindNotFound:
		return http.StatusNotFound
	default:
		return http.StatusInternalServerError
	}
}

// Code is a machine-readable reason within a kind.
type Code string

const (
	CodeUnknown          Code = "UNKNOWN"
	CodeMissingFields    Code = "MISSING_FIELDS"
	CodeInvalidInput     Code = "INVALID_INPUT"
	CodeDuplicateUser    Code = "DUPLICATE_USER"
	CodeBadCredentials   Code = "BAD_CREDENTIALS"
	CodeTokenRequired    Code = "TOKEN_REQUIRED"
	CodeTokenInvalid     Code = "TOKEN_INVALID"
	CodeInviteNotFound   Code = "INVITE_NOT_FOUND"
	CodeInviteUsed       Code = "INVITE_ALREADY_USED"
	CodeSelfFollow       Code = "SELF_FOLLOW"
	CodeAlreadyFollowing Code = "ALREADY_FOLLOWING"
	CodeNotFollowing     Code = "NOT_FOLLOWING"
	CodeUserNotFound     Code = "USER_NOT_FOUND"
)

// Error is the tagged error carried through services and handlers.
type Error struct {
	Kind    Kind
	Code    Code
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

// Is matches another *Error by kind and code so sentinel values work with errors.Is.
func (e *Error) Is(target error) bool {
	t, ok := target.(*Error)
	if !ok {
		return false
	}
	return e.Kind == t.Kind && e.Code == t.Code
}

func New(kind Kind, code Code, msg string) *Error {
	return &Error{Kind: kind, Code: code, Message: msg}
}

func Validation(code Code, msg string) *Error { return New(KindValidation, code, msg) }
func Unauthorized(code Code, msg string) *Error { return New(KindUnauthorized, code, msg) }
func Forbidden(code Code, msg string) *Error    { return New(KindForbidden, code, msg) }
func NotFound(code Code, msg string) *Error     { return New(KindNotFound, code, msg) }
func Conflict(code Code, msg string) *Error     { return New(KindConflict, code, msg) }

// Internal wraps an unexpected failure. The message is safe to show clients.
func Internal(err error) *Error {
	return &Error{Kind: KindInternal, Code: CodeUnknown, Message: "Internal server error", Err: err}
}

// KindOf returns the kind of err; untagged errors are internal.
func KindOf(err error) Kind {
	var e *Error
	if errors.As(err, &e) {
		return e.Kind
	}
	return KindInternal
}

// CodeOf returns the code of err, or CodeUnknown.
func CodeOf(err error) Code {
	var e *Error
	if errors.As(err, &e) {
		return e.Code
	}
	return CodeUnknown
}

// IsCode reports whether err carries code.
func IsCode(err error, code Code) bool {
	return CodeOf(err) == code
}

// PublicMessage returns the client-facing message for err.
func PublicMessage(err error) string {
	var e *Error
	if errors.As(err, &e) && e.Kind != KindInternal {
		return e.Message
	}
	return "Internal server error"
}
