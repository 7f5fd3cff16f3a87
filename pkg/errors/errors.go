// Package errors carries typed failures from the stores and services up to
// the HTTP layer, which renders them through the metadata table below.
package errors

import (
	stdErrors "errors"
	"fmt"
	"net/http"
	"time"
)

type Code string

const (
	CodeValidation   Code = "VALIDATION_ERROR"
	CodeUnauthorized Code = "UNAUTHORIZED"
	CodeForbidden    Code = "FORBIDDEN"
	CodeNotFound     Code = "NOT_FOUND"
	// CodeConflict is a duplicate record or a stale write.
	CodeConflict Code = "CONFLICT"
	// CodeStateConflict is an order or stock state that forbids the
	// operation: a disallowed transition, a shipped order, short stock.
	CodeStateConflict Code = "STATE_CONFLICT"
	CodeIdempotency   Code = "IDEMPOTENCY_KEY_REUSED"
	CodeInternal      Code = "INTERNAL_ERROR"
	// CodeDependency is the remote mirror (or Redis) being unreachable. Local
	// writes never fail with it.
	CodeDependency Code = "DEPENDENCY_ERROR"
)

// Metadata decides how a code is rendered. Codes with ExposeMessage return
// the error's own message; the rest only ever show PublicMessage.
type Metadata struct {
	HTTPStatus     int
	Retryable      bool
	RetryAfter     time.Duration
	PublicMessage  string
	ExposeMessage  bool
	DetailsAllowed bool
}

var metadataByCode = map[Code]Metadata{
	CodeValidation:   {HTTPStatus: http.StatusBadRequest, PublicMessage: "invalid input", ExposeMessage: true, DetailsAllowed: true},
	CodeUnauthorized: {HTTPStatus: http.StatusUnauthorized, PublicMessage: "sign in required", ExposeMessage: true},
	CodeForbidden:    {HTTPStatus: http.StatusForbidden, PublicMessage: "your role does not allow this action", ExposeMessage: true},
	CodeNotFound:     {HTTPStatus: http.StatusNotFound, PublicMessage: "record not found", ExposeMessage: true},
	CodeConflict:     {HTTPStatus: http.StatusConflict, PublicMessage: "record already exists", ExposeMessage: true},
	CodeStateConflict: {
		HTTPStatus:     http.StatusUnprocessableEntity,
		PublicMessage:  "current order or stock state does not allow this operation",
		ExposeMessage:  true,
		DetailsAllowed: true,
	},
	CodeIdempotency: {
		HTTPStatus:     http.StatusConflict,
		PublicMessage:  "idempotency key already used for a different request",
		ExposeMessage:  true,
		DetailsAllowed: true,
	},
	CodeInternal: {HTTPStatus: http.StatusInternalServerError, Retryable: true, PublicMessage: "internal server error"},
	CodeDependency: {
		HTTPStatus:     http.StatusServiceUnavailable,
		Retryable:      true,
		RetryAfter:     5 * time.Second,
		PublicMessage:  "remote mirror unavailable; local data is unaffected",
		ExposeMessage:  true,
		DetailsAllowed: true,
	},
}

func MetadataFor(code Code) Metadata {
	if meta, ok := metadataByCode[code]; ok {
		return meta
	}
	return metadataByCode[CodeInternal]
}

type Error struct {
	code    Code
	message string
	details any
	cause   error
}

func New(code Code, message string) *Error {
	return &Error{code: code, message: message}
}

func Newf(code Code, format string, args ...any) *Error {
	return &Error{code: code, message: fmt.Sprintf(format, args...)}
}

func Wrap(code Code, err error, message string) *Error {
	if err == nil {
		return New(code, message)
	}
	return &Error{code: code, message: message, cause: err}
}

func (e *Error) Code() Code {
	if e == nil {
		return CodeInternal
	}
	return e.code
}

func (e *Error) Message() string {
	if e == nil {
		return ""
	}
	return e.message
}

func (e *Error) Details() any {
	if e == nil {
		return nil
	}
	return e.details
}

func (e *Error) WithDetails(details any) *Error {
	if e == nil {
		return nil
	}
	e.details = details
	return e
}

func (e *Error) Error() string {
	if e == nil {
		return ""
	}
	return fmt.Sprintf("%s: %s", e.code, e.message)
}

func (e *Error) Unwrap() error {
	if e == nil {
		return nil
	}
	return e.cause
}

func As(err error) *Error {
	if err == nil {
		return nil
	}
	var typed *Error
	if stdErrors.As(err, &typed) {
		return typed
	}
	return nil
}

// CodeOf is the outermost typed code in err's chain, CodeInternal if none.
func CodeOf(err error) Code {
	return As(err).Code()
}

// IsCode reports whether err carries the given typed code anywhere in its chain.
func IsCode(err error, code Code) bool {
	typed := As(err)
	return typed != nil && typed.code == code
}

// Retryable reports whether repeating the request may succeed without changes.
func Retryable(err error) bool {
	return err != nil && MetadataFor(CodeOf(err)).Retryable
}
