package errors

import (
	"errors"
	"fmt"
	"net/http"
)

var (
	ErrValidation         = errors.New("validation error")
	ErrPasswordMismatch   = errors.New("passwords do not match")
	ErrEmailAlreadyInUse  = errors.New("user already exists")
	ErrInvalidCredentials = errors.New("invalid credentials")
	ErrAccountLocked      = errors.New("account temporarily locked due to too many failed login attempts")
	ErrInvalidToken       = errors.New("invalid token")
	ErrTokenExpired       = fmt.Errorf("token expired: %w", ErrInvalidToken)
	ErrSessionExpired     = errors.New("session expired, please login again")
	ErrUnauthenticated    = errors.New("please login to access this resource")
	ErrForbidden          = errors.New("access denied")
	ErrUserNotFound       = errors.New("user not found")
	ErrInvalidRole        = errors.New("invalid role")
	ErrInvalidOldPassword = errors.New("invalid old password")
	ErrRateLimited        = errors.New("too many requests, please try again later")
	ErrSigningSecret      = errors.New("token signing secret is missing or too short")
)

// AppError carries an HTTP status and a client-facing message for an underlying error.
type AppError struct {
	Status  int
	Message string
	Err     error
}

func (e *AppError) Error() string {
	if e.Message != "" {
		return e.Message
	}
	if e.Err != nil {
		return e.Err.Error()
	}
	return http.StatusText(e.Status)
}

func (e *AppError) Unwrap() error {
	return e.Err
}

// ValidationError lists the field problems of a rejected request body.
type ValidationError struct {
	Details []string
}

func (e *ValidationError) Error() string {
	return ErrValidation.Error()
}

func (e *ValidationError) Unwrap() error {
	return ErrValidation
}

// Status maps an error onto the HTTP status of the auth error taxonomy.
// Anything unrecognised is a 500.
func Status(err error) int {
	var appErr *AppError
	if errors.As(err, &appErr) && appErr.Status != 0 {
		return appErr.Status
	}

	switch {
	case errors.Is(err, ErrValidation),
		errors.Is(err, ErrPasswordMismatch),
		errors.Is(err, ErrEmailAlreadyInUse),
		errors.Is(err, ErrInvalidRole),
		errors.Is(err, ErrInvalidOldPassword):
		return http.StatusBadRequest
	case errors.Is(err, ErrInvalidCredentials),
		errors.Is(err, ErrInvalidToken),
		errors.Is(err, ErrTokenExpired),
		errors.Is(err, ErrSessionExpired),
		errors.Is(err, ErrUnauthenticated):
		return http.StatusUnauthorized
	case errors.Is(err, ErrForbidden):
		return http.StatusForbidden
	case errors.Is(err, ErrUserNotFound):
		return http.StatusNotFound
	case errors.Is(err, ErrAccountLocked):
		return http.StatusLocked
	case errors.Is(err, ErrRateLimited):
		return http.StatusTooManyRequests
	default:
		return http.StatusInternalServerError
	}
}
