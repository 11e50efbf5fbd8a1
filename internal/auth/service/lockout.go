package service

import (
	"context"
	"time"

	"github.com/AnthoniusHendriyanto/patient-service/internal/auth/domain"
)

const (
	DefaultMaxLoginAttempts = 5
	DefaultLockDuration     = 30 * time.Minute
)

// LockoutPolicy decides when repeated login failures lock an account. Stores
// apply domain.LoginState.AfterFailure atomically on its behalf.
type LockoutPolicy struct {
	MaxAttempts  int
	LockDuration time.Duration
	Now          func() time.Time
}

func NewLockoutPolicy(maxAttempts int, lockDuration time.Duration) LockoutPolicy {
	if maxAttempts <= 0 {
		maxAttempts = DefaultMaxLoginAttempts
	}
	if lockDuration <= 0 {
		lockDuration = DefaultLockDuration
	}
	return LockoutPolicy{MaxAttempts: maxAttempts, LockDuration: lockDuration, Now: time.Now}
}

func (p LockoutPolicy) now() time.Time {
	if p.Now != nil {
		return p.Now()
	}
	return time.Now()
}

func (p LockoutPolicy) IsLocked(u *domain.User) bool {
	return u.IsLocked(p.now())
}

// RegisterFailure records one failed attempt on the stored credential in one store operation.
func (p LockoutPolicy) RegisterFailure(ctx context.Context, repo domain.UserRepository, userID string) (*domain.LoginState, error) {
	now := p.now()
	return repo.RegisterFailedLogin(ctx, userID, now, p.MaxAttempts, now.Add(p.LockDuration))
}

func (p LockoutPolicy) RegisterSuccess(ctx context.Context, repo domain.UserRepository, userID string) error {
	return repo.ResetLoginAttempts(ctx, userID, p.now())
}
