package service

import (
	"testing"
	"time"

	"github.com/AnthoniusHendriyanto/patient-service/internal/auth/domain"
	"github.com/stretchr/testify/assert"
)

func TestLockoutPolicy_IsLocked(t *testing.T) {
	now := time.Date(2025, 1, 1, 10, 0, 0, 0, time.UTC)
	p := NewLockoutPolicy(5, 30*time.Minute)
	p.Now = func() time.Time { return now }

	until := now.Add(time.Minute)
	assert.True(t, p.IsLocked(&domain.User{LockUntil: &until}))

	now = now.Add(2 * time.Minute)
	assert.False(t, p.IsLocked(&domain.User{LockUntil: &until}))
}

func TestNewLockoutPolicy_Defaults(t *testing.T) {
	p := NewLockoutPolicy(0, 0)
	assert.Equal(t, DefaultMaxLoginAttempts, p.MaxAttempts)
	assert.Equal(t, DefaultLockDuration, p.LockDuration)
}
