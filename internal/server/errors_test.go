package server

import (
	"errors"
	"fmt"
	"net/http"
	"testing"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"

	"github.com/jonathan/recruit-pipeline/internal/engine"
)

func TestHTTPStatus(t *testing.T) {
	tests := []struct {
		name string
		err  error
		want int
	}{
		{"validation error", &engine.ValidationError{Field: "stage", Message: "bad"}, http.StatusBadRequest},
		{"not found", &engine.NotFoundError{Kind: "candidate", ID: uuid.New()}, http.StatusNotFound},
		{"invalid transition", &engine.InvalidTransitionError{From: engine.StagePending, To: engine.StagePassed}, http.StatusConflict},
		{"conflict", &engine.ConflictError{Resource: "slot", ResourceID: uuid.New(), Message: "overlap"}, http.StatusConflict},
		{"storage error", &engine.StorageError{Op: "get", Cause: errors.New("boom")}, http.StatusInternalServerError},
		{"unknown error", errors.New("something else"), http.StatusInternalServerError},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, HTTPStatus(tt.err))
		})
	}
}

func TestHTTPStatus_WrappedErrors(t *testing.T) {
	wrapped := fmt.Errorf("booking failed: %w", &engine.ConflictError{Resource: "slot", ResourceID: uuid.New(), Message: "overlap"})
	assert.Equal(t, http.StatusConflict, HTTPStatus(wrapped))
}
