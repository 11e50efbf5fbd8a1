package domain

//go:generate mockgen -destination=../../mocks/mock_user_repository.go -package=mocks github.com/AnthoniusHendriyanto/patient-service/internal/auth/domain UserRepository

import (
	"context"
	"time"
)

// UserRepository is the credential store. Lookups return (nil, nil) when nothing matches.
type UserRepository interface {
	GetByEmail(ctx context.Context, email string) (*User, error)
	GetByID(ctx context.Context, id string) (*User, error)
	Count(ctx context.Context) (int64, error)
	List(ctx context.Context) ([]*User, error)
	Create(ctx context.Context, user *User) error
	Update(ctx context.Context, user *User) error
	Delete(ctx context.Context, id string) error

	// RegisterFailedLogin applies the lockout failure transition in a single atomic
	// store operation and returns the resulting state.
	RegisterFailedLogin(ctx context.Context, id string, now time.Time, maxAttempts int, lockUntil time.Time) (*LoginState, error)
	// ResetLoginAttempts clears the counter and lock and stamps the last login.
	ResetLoginAttempts(ctx context.Context, id string, now time.Time) error

	Ping(ctx context.Context) error
}
