package models

import (
	"errors"
	"fmt"
	"testing"

	"github.com/gofiber/fiber/v2"
	"github.com/stretchr/testify/assert"
)

func TestStatusFor(t *testing.T) {
	tests := []struct {
		name string
		err  error
		want int
	}{
		{"not found", NewNotFoundError("Opportunity", 7), fiber.StatusNotFound},
		{"validation", NewValidationError("bad"), fiber.StatusBadRequest},
		{"invalid transition", NewInvalidTransitionError(StatusAccepted, StatusSubmitted), fiber.StatusBadRequest},
		{"invalid state", NewInvalidStateError("bad"), fiber.StatusBadRequest},
		{"unauthorized", NewUnauthorizedError("nope"), fiber.StatusUnauthorized},
		{"forbidden", NewForbiddenError("nope"), fiber.StatusForbidden},
		{"conflict", NewConflictError("dup"), fiber.StatusConflict},
		{"internal", NewInternalError(errors.New("boom")), fiber.StatusInternalServerError},
		{"plain error", errors.New("boom"), fiber.StatusInternalServerError},
		{"wrapped app error", fmt.Errorf("context: %w", NewForbiddenError("nope")), fiber.StatusForbidden},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, StatusFor(tt.err))
		})
	}
}

func TestHasCode(t *testing.T) {
	err := NewConflictError("dup")
	assert.True(t, HasCode(err, CodeConflict))
	assert.False(t, HasCode(err, CodeNotFound))
	assert.False(t, HasCode(errors.New("boom"), CodeConflict))
	assert.True(t, HasCode(fmt.Errorf("wrap: %w", err), CodeConflict))
}
