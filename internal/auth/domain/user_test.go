package domain

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestUser_IsLocked(t *testing.T) {
	now := time.Now()
	future := now.Add(time.Minute)
	past := now.Add(-time.Minute)

	assert.False(t, (&User{}).IsLocked(now))
	assert.True(t, (&User{LockUntil: &future}).IsLocked(now))
	assert.False(t, (&User{LockUntil: &past}).IsLocked(now))
	// lockUntil in the future wins regardless of the counter
	assert.True(t, (&User{LockUntil: &future, LoginAttempts: 0}).IsLocked(now))
}

func TestDisplayName(t *testing.T) {
	tests := map[string]string{
		"john.doe@x.com":    "John Doe",
		"jane_smith@x.com":  "Jane Smith",
		"a-b-c@x.com":       "A B C",
		"admin@clinic.test": "Admin",
		"":                  "User",
		"...@x.com":         "User",
	}

	for email, want := range tests {
		t.Run(email, func(t *testing.T) {
			assert.Equal(t, want, DisplayName(email))
		})
	}
}

func TestNormalizeEmail(t *testing.T) {
	assert.Equal(t, "a@x.com", NormalizeEmail("  A@X.Com "))
}

func TestNewSessionRecord(t *testing.T) {
	u := &User{
		ID:           "u-1",
		Email:        "john.doe@x.com",
		PasswordHash: "secret-hash",
		Role:         "admin",
		IsVerified:   true,
		Avatar:       Avatar{PublicID: "p", URL: "https://img"},
	}

	rec := NewSessionRecord(u)
	assert.Equal(t, "u-1", rec.ID)
	assert.Equal(t, "John Doe", rec.DisplayName)

	id := rec.Identity()
	assert.True(t, id.HasRole("user", "admin"))
	assert.False(t, id.HasRole("user"))
}

func TestLoginState_AfterFailure(t *testing.T) {
	now := time.Date(2025, 1, 1, 10, 0, 0, 0, time.UTC)
	lockUntil := now.Add(30 * time.Minute)

	t.Run("locks on the fifth failure", func(t *testing.T) {
		s := LoginState{}
		for i := 1; i <= 4; i++ {
			s = s.AfterFailure(now, 5, lockUntil)
			assert.Equal(t, i, s.Attempts)
			assert.Nil(t, s.LockUntil)
		}

		s = s.AfterFailure(now, 5, lockUntil)
		assert.Equal(t, 5, s.Attempts)
		require.NotNil(t, s.LockUntil)
		assert.Equal(t, lockUntil, *s.LockUntil)
		assert.True(t, s.IsLocked(now))
	})

	t.Run("failure while locked keeps the original lock", func(t *testing.T) {
		until := now.Add(10 * time.Minute)
		s := LoginState{Attempts: 5, LockUntil: &until}.AfterFailure(now, 5, lockUntil)
		assert.Equal(t, 6, s.Attempts)
		assert.Equal(t, until, *s.LockUntil)
	})

	t.Run("expired lock restarts the count", func(t *testing.T) {
		until := now.Add(-time.Second)
		s := LoginState{Attempts: 5, LockUntil: &until}.AfterFailure(now, 5, lockUntil)
		assert.Equal(t, 1, s.Attempts)
		assert.Nil(t, s.LockUntil)
	})

	t.Run("lock ending exactly now counts as expired", func(t *testing.T) {
		until := now
		s := LoginState{Attempts: 5, LockUntil: &until}.AfterFailure(now, 5, lockUntil)
		assert.Equal(t, 1, s.Attempts)
	})
}
