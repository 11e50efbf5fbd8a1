package memory

import (
	"context"
	"sync"
	"testing"
	"time"

	"github.com/AnthoniusHendriyanto/patient-service/internal/auth/domain"
	autherror "github.com/AnthoniusHendriyanto/patient-service/internal/errors"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestUserRepository_CRUD(t *testing.T) {
	ctx := context.Background()
	r := NewUserRepository()

	u := &domain.User{ID: "u-1", Email: "a@x.com", CreatedAt: time.Now()}
	require.NoError(t, r.Create(ctx, u))
	assert.ErrorIs(t, r.Create(ctx, &domain.User{ID: "u-2", Email: "a@x.com"}), autherror.ErrEmailAlreadyInUse)

	got, err := r.GetByEmail(ctx, "a@x.com")
	require.NoError(t, err)
	assert.Equal(t, "u-1", got.ID)

	// returned values are copies
	got.Email = "mutated@x.com"
	again, _ := r.GetByID(ctx, "u-1")
	assert.Equal(t, "a@x.com", again.Email)

	missing, err := r.GetByEmail(ctx, "b@x.com")
	require.NoError(t, err)
	assert.Nil(t, missing)

	n, _ := r.Count(ctx)
	assert.Equal(t, int64(1), n)

	again.Role = "admin"
	require.NoError(t, r.Update(ctx, again))
	got, _ = r.GetByID(ctx, "u-1")
	assert.Equal(t, "admin", got.Role)

	require.NoError(t, r.Delete(ctx, "u-1"))
	assert.ErrorIs(t, r.Delete(ctx, "u-1"), autherror.ErrUserNotFound)
	assert.ErrorIs(t, r.Update(ctx, again), autherror.ErrUserNotFound)
}

func TestUserRepository_Lockout(t *testing.T) {
	ctx := context.Background()
	r := NewUserRepository()
	now := time.Date(2025, 1, 1, 0, 0, 0, 0, time.UTC)
	lockUntil := now.Add(30 * time.Minute)
	require.NoError(t, r.Create(ctx, &domain.User{ID: "u-1", Email: "a@x.com"}))

	var state *domain.LoginState
	var err error
	for i := 0; i < 5; i++ {
		state, err = r.RegisterFailedLogin(ctx, "u-1", now, 5, lockUntil)
		require.NoError(t, err)
	}
	assert.Equal(t, 5, state.Attempts)
	assert.True(t, state.IsLocked(now))

	// profile updates never clobber the counter
	u, _ := r.GetByID(ctx, "u-1")
	u.LoginAttempts = 0
	u.LockUntil = nil
	require.NoError(t, r.Update(ctx, u))
	u, _ = r.GetByID(ctx, "u-1")
	assert.Equal(t, 5, u.LoginAttempts)

	later := lockUntil.Add(time.Second)
	state, err = r.RegisterFailedLogin(ctx, "u-1", later, 5, later.Add(30*time.Minute))
	require.NoError(t, err)
	assert.Equal(t, 1, state.Attempts)
	assert.Nil(t, state.LockUntil)

	require.NoError(t, r.ResetLoginAttempts(ctx, "u-1", later))
	u, _ = r.GetByID(ctx, "u-1")
	assert.Equal(t, 0, u.LoginAttempts)
	assert.Equal(t, later, *u.LastLogin)
}

func TestUserRepository_ConcurrentFailuresAreNotLost(t *testing.T) {
	ctx := context.Background()
	r := NewUserRepository()
	now := time.Now()
	require.NoError(t, r.Create(ctx, &domain.User{ID: "u-1", Email: "a@x.com"}))

	var wg sync.WaitGroup
	for i := 0; i < 20; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			_, _ = r.RegisterFailedLogin(ctx, "u-1", now, 100, now.Add(time.Hour))
		}()
	}
	wg.Wait()

	u, _ := r.GetByID(ctx, "u-1")
	assert.Equal(t, 20, u.LoginAttempts)
}
