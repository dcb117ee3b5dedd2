// Package server provides the HTTP REST API for the recruit pipeline engine.
package server

import (
	"errors"
	"net/http"

	"github.com/jonathan/recruit-pipeline/internal/engine"
)

// HTTPStatus returns the appropriate HTTP status code for an engine error.
// Conflict and validation errors map to distinct codes so clients can offer
// "retry" vs "fix input" affordances.
func HTTPStatus(err error) int {
	var (
		validationErr *engine.ValidationError
		notFoundErr   *engine.NotFoundError
		transitionErr *engine.InvalidTransitionError
		conflictErr   *engine.ConflictError
	)
	switch {
	case errors.As(err, &validationErr):
		return http.StatusBadRequest
	case errors.As(err, &notFoundErr):
		return http.StatusNotFound
	case errors.As(err, &transitionErr), errors.As(err, &conflictErr):
		return http.StatusConflict
	default:
		return http.StatusInternalServerError
	}
}
