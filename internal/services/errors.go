package services

import (
	"errors"
	"fmt"
	"net/http"

	"github.com/atknylmz/Urtim-server/internal/validator"
)

// ErrorKind classifies a service failure; handlers map it to a status code.
type ErrorKind int

const (
	KindInternal ErrorKind = iota
	KindValidation
	KindAuth
	KindForbidden
	KindNotFound
	KindConflict
	KindRangeNotSatisfiable
)

func (k ErrorKind) String() string {
	switch k {
	case KindValidation:
		return "validation_error"
	case KindAuth:
		return "auth_error"
	case KindForbidden:
		return "forbidden"
	case KindNotFound:
		return "not_found"
	case KindConflict:
		return "conflict"
	case KindRangeNotSatisfiable:
		return "range_not_satisfiable"
	default:
		return "internal_error"
	}
}

func (k ErrorKind) HTTPStatus() int {
	switch k {
	case KindValidation:
		return http.StatusBadRequest
	case KindAuth:
		return http.StatusUnauthorized
	case KindForbidden:
		return http.StatusForbidden
	case KindNotFound:
		return http.StatusNotFound
	case KindConflict:
		return http.StatusConflict
	case KindRangeNotSatisfiable:
		return http.StatusRequestedRangeNotSatisfiable
	default:
		return http.StatusInternalServerError
	}
}

// ServiceError carries a kind and a message that is safe to show to clients.
type ServiceError struct {
	Kind    ErrorKind
	Message string
	Err     error
}

func (e *ServiceError) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("%s: %v", e.Message, e.Err)
	}
	return e.Message
}

func (e *ServiceError) Unwrap() error {
	return e.Err
}

// Is matches another ServiceError of the same kind and message, so wrapped
// copies of the sentinels below still compare equal.
func (e *ServiceError) Is(target error) bool {
	t, ok := target.(*ServiceError)
	if !ok {
		return false
	}
	return e.Kind == t.Kind && e.Message == t.Message
}

func newError(kind ErrorKind, msg string, err error) *ServiceError {
	return &ServiceError{Kind: kind, Message: msg, Err: err}
}

func NewValidationError(msg string) error { return newError(KindValidation, msg, nil) }
func NewNotFoundError(msg string) error   { return newError(KindNotFound, msg, nil) }
func NewConflictError(msg string) error   { return newError(KindConflict, msg, nil) }
func NewForbiddenError(msg string) error  { return newError(KindForbidden, msg, nil) }

// Sentinels
var (
	ErrVideoNotFound     = newError(KindNotFound, "video not found", nil)
	ErrVideoChunkMissing = newError(KindNotFound, "video content not found", nil)
	ErrExamNotFound      = newError(KindNotFound, "exam not found for this video", nil)
	ErrUserNotFound      = newError(KindNotFound, "user not found", nil)

	ErrExamExists        = newError(KindConflict, "an exam already exists for this video", nil)
	ErrUserExists        = newError(KindConflict, "username or email already registered", nil)
	ErrGuestApplicantDup = newError(KindConflict, "an application with this email already exists", nil)

	ErrNoFieldsToUpdate = newError(KindValidation, "no fields to update", nil)
	ErrInvalidID        = newError(KindValidation, "invalid id", nil)

	ErrWrongPassword    = newError(KindAuth, "wrong password", nil)
	ErrAdminRequired    = newError(KindForbidden, "this account has no admin panel access", nil)
	ErrUserPanelDenied  = newError(KindForbidden, "this account has no user panel access", nil)
	ErrNotResourceOwner = newError(KindForbidden, "access denied", nil)
)

// RangeError is returned by the stream service when the Range header cannot
// be served. Total is echoed in the 416 Content-Range.
type RangeError struct {
	Total int64
	Err   error
}

func (e *RangeError) Error() string {
	return fmt.Sprintf("range not satisfiable for %d bytes: %v", e.Total, e.Err)
}

func (e *RangeError) Unwrap() error { return e.Err }

// KindOf classifies err; unknown errors are internal.
func KindOf(err error) ErrorKind {
	if err == nil {
		return KindInternal
	}
	var se *ServiceError
	if errors.As(err, &se) {
		return se.Kind
	}
	var re *RangeError
	if errors.As(err, &re) {
		return KindRangeNotSatisfiable
	}
	var ve validator.ValidationErrors
	if errors.As(err, &ve) {
		return KindValidation
	}
	return KindInternal
}

// internal wraps an unexpected failure.
func internal(msg string, err error) error {
	return newError(KindInternal, msg, err)
}
