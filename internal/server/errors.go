// Package server provides the HTTP REST API for the talent board.
package server

import (
	"errors"
	"fmt"
	"net/http"

	"github.com/jonathan/talent-board/internal/digest"
	"github.com/jonathan/talent-board/internal/lifecycle"
	"github.com/jonathan/talent-board/internal/mail"
)

// ErrValidation indicates request validation failure
type ErrValidation struct {
	Field   string
	Message string
}

func (e *ErrValidation) Error() string {
	return fmt.Sprintf("validation error: %s - %s", e.Field, e.Message)
}

// HTTPStatus returns the appropriate HTTP status code for an error
func HTTPStatus(err error) int {
	if errors.Is(err, digest.ErrRunInProgress) {
		return http.StatusConflict
	}

	switch err.(type) {
	case *lifecycle.ErrPostingNotFound, *lifecycle.ErrApplicationNotFound:
		return http.StatusNotFound
	case *lifecycle.ErrDuplicateApplication:
		return http.StatusConflict
	case *lifecycle.ErrUnauthorized:
		return http.StatusForbidden
	case *lifecycle.ErrInvalidTransition:
		return http.StatusUnprocessableEntity
	case *lifecycle.ErrPartiallyApplied, *mail.ErrTransport:
		return http.StatusBadGateway
	case *ErrValidation:
		return http.StatusBadRequest
	default:
		return http.StatusInternalServerError
	}
}

// errorCode returns a stable machine-readable code for errors whose
// status alone is ambiguous to clients.
func errorCode(err error) string {
	switch err.(type) {
	case *lifecycle.ErrPartiallyApplied:
		return "partially_applied"
	case *mail.ErrTransport:
		return "transport_failure"
	default:
		return ""
	}
}
