package errors

import (
	"errors"
	"fmt"
	"net/http"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestStatus(t *testing.T) {
	tests := []struct {
		name string
		err  error
		want int
	}{
		{"validation", ErrValidation, http.StatusBadRequest},
		{"password mismatch", ErrPasswordMismatch, http.StatusBadRequest},
		{"duplicate email", ErrEmailAlreadyInUse, http.StatusBadRequest},
		{"invalid credentials", ErrInvalidCredentials, http.StatusUnauthorized},
		{"invalid token", ErrInvalidToken, http.StatusUnauthorized},
		{"expired token wrapped", fmt.Errorf("verify: %w", ErrTokenExpired), http.StatusUnauthorized},
		{"session expired", ErrSessionExpired, http.StatusUnauthorized},
		{"forbidden", ErrForbidden, http.StatusForbidden},
		{"not found", ErrUserNotFound, http.StatusNotFound},
		{"locked", ErrAccountLocked, http.StatusLocked},
		{"rate limited", ErrRateLimited, http.StatusTooManyRequests},
		{"unknown", errors.New("mongo: connection refused"), http.StatusInternalServerError},
		{"app error", &AppError{Status: http.StatusConflict, Message: "conflict"}, http.StatusConflict},
		{"wrapped app error", fmt.Errorf("ctx: %w", &AppError{Status: http.StatusTeapot, Err: ErrValidation}), http.StatusTeapot},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, Status(tt.err))
		})
	}
}

func TestAppError(t *testing.T) {
	t.Run("message wins", func(t *testing.T) {
		err := &AppError{Status: http.StatusBadRequest, Message: "bad", Err: ErrValidation}
		assert.Equal(t, "bad", err.Error())
		assert.True(t, errors.Is(err, ErrValidation))
	})

	t.Run("falls back to wrapped error", func(t *testing.T) {
		err := &AppError{Status: http.StatusBadRequest, Err: ErrPasswordMismatch}
		assert.Equal(t, ErrPasswordMismatch.Error(), err.Error())
	})

	t.Run("falls back to status text", func(t *testing.T) {
		err := &AppError{Status: http.StatusNotFound}
		assert.Equal(t, "Not Found", err.Error())
	})
}

func TestTokenExpiredIsInvalidToken(t *testing.T) {
	assert.True(t, errors.Is(ErrTokenExpired, ErrInvalidToken))
	assert.False(t, errors.Is(ErrInvalidToken, ErrTokenExpired))
}

func TestValidationError(t *testing.T) {
	err := fmt.Errorf("register: %w", &ValidationError{Details: []string{"email is required"}})

	var ve *ValidationError
	assert.True(t, errors.As(err, &ve))
	assert.Equal(t, []string{"email is required"}, ve.Details)
	assert.Equal(t, http.StatusBadRequest, Status(err))
}
