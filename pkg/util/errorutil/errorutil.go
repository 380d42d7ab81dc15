package errorutil

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"net/http"

	"github.com/jackc/pgerrcode"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/redis/go-redis/v9"
)

// Error codes rendered in the "code" field of JSON error bodies.
const (
	CodeValidation   = "VALIDATION_FAILED"
	CodePrecondition = "PRECONDITION_FAILED"
	CodeNotFound     = "NOT_FOUND"
	CodeUnauthorized = "UNAUTHORIZED"
	CodeForbidden    = "FORBIDDEN"
	CodeConflict     = "CONFLICT"
	CodeTimeout      = "TIMEOUT"
	CodeInternal     = "INTERNAL_ERROR"
)

// DomainError standardizes application errors.
type DomainError struct {
	Code       string
	Message    string
	HTTPStatus int
	Details    map[string]any
	Err        error
}

func (e *DomainError) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("%s: %v", e.Message, e.Err)
	}
	return e.Message
}

func (e *DomainError) Unwrap() error {
	return e.Err
}

// NewDomainError constructs a DomainError.
func NewDomainError(code, message string, status int, details map[string]any) *DomainError {
	return &DomainError{Code: code, Message: message, HTTPStatus: status, Details: details}
}

func NewValidationError(message string, details map[string]any) error {
	return NewDomainError(CodeValidation, message, http.StatusBadRequest, details)
}

// NewPreconditionError is returned when a workflow action is not allowed in
// the current state of an object. Nothing has been mutated when it is returned.
func NewPreconditionError(message string, details map[string]any) error {
	return NewDomainError(CodePrecondition, message, http.StatusUnprocessableEntity, details)
}

func NewNotFound(resource string, details map[string]any) error {
	if details == nil {
		details = map[string]any{}
	}
	return NewDomainError(CodeNotFound, resource+" not found", http.StatusNotFound, details)
}

func NewUnauthorized(message string) error {
	return NewDomainError(CodeUnauthorized, message, http.StatusUnauthorized, nil)
}

func NewForbidden(message string) error {
	return NewDomainError(CodeForbidden, message, http.StatusForbidden, nil)
}

func NewConflict(message string, details map[string]any) error {
	return NewDomainError(CodeConflict, message, http.StatusConflict, details)
}

func NewInternalError(err error) error {
	return wrap(CodeInternal, "internal server error", http.StatusInternalServerError, nil, err)
}

// IsCode reports whether err is a DomainError with the given code.
func IsCode(err error, code string) bool {
	var domainErr *DomainError
	return errors.As(err, &domainErr) && domainErr.Code == code
}

// ToDomainError converts errors coming out of pgx, go-redis and the
// request context to a DomainError. Anything unknown is internal.
func ToDomainError(err error) *DomainError {
	if err == nil {
		return nil
	}
	var domainErr *DomainError
	if errors.As(err, &domainErr) {
		return domainErr
	}

	var pgErr *pgconn.PgError
	switch {
	case errors.Is(err, sql.ErrNoRows), errors.Is(err, pgx.ErrNoRows), errors.Is(err, redis.Nil):
		return wrap(CodeNotFound, "resource not found", http.StatusNotFound, map[string]any{}, err)
	case errors.As(err, &pgErr) && pgErr.Code == pgerrcode.UniqueViolation:
		return wrap(CodeConflict, "resource already exists", http.StatusConflict,
			map[string]any{"constraint": pgErr.ConstraintName}, err)
	case errors.Is(err, context.DeadlineExceeded):
		return wrap(CodeTimeout, "the request took too long", http.StatusGatewayTimeout, nil, err)
	}
	return wrap(CodeInternal, "internal server error", http.StatusInternalServerError, nil, err)
}

// MapError is ToDomainError typed as a plain error.
func MapError(err error) error {
	if err == nil {
		return nil
	}
	return ToDomainError(err)
}

func wrap(code, message string, status int, details map[string]any, err error) *DomainError {
	return &DomainError{Code: code, Message: message, HTTPStatus: status, Details: details, Err: err}
}
