package rest

import (
	"errors"
	"fmt"
	"net/http"
)

var (
	ErrUnauthorized = errors.New("unauthorized")
	ErrForbidden    = errors.New("forbidden")
	ErrNotFound     = errors.New("not found")
	ErrConflict     = errors.New("conflict")
	ErrBadRequest   = errors.New("bad request")
	ErrServer       = errors.New("server error")
)

// APIError wraps a sentinel error with the HTTP status and the server's
// human-readable detail string, for surfacing as a user-facing notice.
type APIError struct {
	Err    error
	Status int
	Detail string
}

func (e *APIError) Error() string {
	if e.Detail != "" {
		return e.Detail
	}
	return fmt.Sprintf("server returned status %d", e.Status)
}

func (e *APIError) Unwrap() error { return e.Err }

// newAPIError maps an HTTP status to the matching sentinel.
func newAPIError(status int, detail string) *APIError {
	var sentinel error
	switch status {
	case http.StatusUnauthorized:
		sentinel = ErrUnauthorized
	case http.StatusForbidden:
		sentinel = ErrForbidden
	case http.StatusNotFound:
		sentinel = ErrNotFound
	case http.StatusConflict:
		sentinel = ErrConflict
	case http.StatusBadRequest, http.StatusUnprocessableEntity:
		sentinel = ErrBadRequest
	default:
		sentinel = ErrServer
	}
	return &APIError{Err: sentinel, Status: status, Detail: detail}
}
