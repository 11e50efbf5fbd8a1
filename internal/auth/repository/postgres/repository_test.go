package postgres_test

import (
	"context"
	"fmt"
	"testing"
	"time"

	"github.com/AnthoniusHendriyanto/patient-service/internal/auth/domain"
	repo "github.com/AnthoniusHendriyanto/patient-service/internal/auth/repository/postgres"
	autherror "github.com/AnthoniusHendriyanto/patient-service/internal/errors"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/pashagolub/pgxmock/v3"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var userColumns = []string{
	"id", "email", "password_hash", "role", "is_verified", "avatar_public_id", "avatar_url",
	"login_attempts", "lock_until", "last_login", "password_changed_at", "created_at", "updated_at",
}

func userRow(u *domain.User) []any {
	return []any{
		u.ID, u.Email, u.PasswordHash, u.Role, u.IsVerified, u.Avatar.PublicID, u.Avatar.URL,
		u.LoginAttempts, u.LockUntil, u.LastLogin, u.PasswordChangedAt, u.CreatedAt, u.UpdatedAt,
	}
}

// TestGetByEmail covers the GetByEmail repository method.
func TestGetByEmail(t *testing.T) {
	mock, err := pgxmock.NewPool()
	require.NoError(t, err)
	defer mock.Close()

	r := repo.NewPostgresRepository(mock)
	ctx := context.Background()
	now := time.Now()
	until := now.Add(time.Minute)
	expected := &domain.User{
		ID: "user-123", Email: "test@example.com", PasswordHash: "hash", Role: "user",
		Avatar: domain.Avatar{PublicID: "p", URL: "u"}, LoginAttempts: 5, LockUntil: &until,
		CreatedAt: now, UpdatedAt: now,
	}

	t.Run("success", func(t *testing.T) {
		mock.ExpectQuery("SELECT id, email").
			WithArgs(expected.Email).
			WillReturnRows(pgxmock.NewRows(userColumns).AddRow(userRow(expected)...))

		user, err := r.GetByEmail(ctx, expected.Email)
		require.NoError(t, err)
		assert.Equal(t, expected.ID, user.ID)
		assert.Equal(t, expected.Avatar, user.Avatar)
		assert.True(t, user.IsLocked(now))
	})

	t.Run("not found", func(t *testing.T) {
		mock.ExpectQuery("SELECT id, email").
			WithArgs(expected.Email).
			WillReturnError(pgx.ErrNoRows)

		user, err := r.GetByEmail(ctx, expected.Email)
		require.NoError(t, err)
		assert.Nil(t, user)
	})

	t.Run("database error", func(t *testing.T) {
		mock.ExpectQuery("SELECT id, email").
			WithArgs(expected.Email).
			WillReturnError(fmt.Errorf("db error"))

		_, err := r.GetByEmail(ctx, expected.Email)
		assert.Error(t, err)
	})

	require.NoError(t, mock.ExpectationsWereMet())
}

func TestGetByID(t *testing.T) {
	mock, err := pgxmock.NewPool()
	require.NoError(t, err)
	defer mock.Close()

	r := repo.NewPostgresRepository(mock)
	ctx := context.Background()
	u := &domain.User{ID: "user-1", Email: "a@x.com", Role: "admin", CreatedAt: time.Now(), UpdatedAt: time.Now()}

	mock.ExpectQuery("FROM users WHERE id").
		WithArgs("user-1").
		WillReturnRows(pgxmock.NewRows(userColumns).AddRow(userRow(u)...))
	got, err := r.GetByID(ctx, "user-1")
	require.NoError(t, err)
	assert.True(t, got.IsAdmin())
	assert.Nil(t, got.LockUntil)

	mock.ExpectQuery("FROM users WHERE id").WithArgs("missing").WillReturnError(pgx.ErrNoRows)
	got, err = r.GetByID(ctx, "missing")
	require.NoError(t, err)
	assert.Nil(t, got)
}

func TestCountAndList(t *testing.T) {
	mock, err := pgxmock.NewPool()
	require.NoError(t, err)
	defer mock.Close()

	r := repo.NewPostgresRepository(mock)
	ctx := context.Background()

	mock.ExpectQuery("SELECT COUNT").WillReturnRows(pgxmock.NewRows([]string{"count"}).AddRow(int64(2)))
	n, err := r.Count(ctx)
	require.NoError(t, err)
	assert.Equal(t, int64(2), n)

	a := &domain.User{ID: "a", Email: "a@x.com", Role: "admin"}
	b := &domain.User{ID: "b", Email: "b@x.com", Role: "user"}
	mock.ExpectQuery("ORDER BY created_at DESC").
		WillReturnRows(pgxmock.NewRows(userColumns).AddRow(userRow(a)...).AddRow(userRow(b)...))

	users, err := r.List(ctx)
	require.NoError(t, err)
	require.Len(t, users, 2)
	assert.Equal(t, "b", users[1].ID)
}

// TestCreate covers the Create repository method.
func TestCreate(t *testing.T) {
	mock, err := pgxmock.NewPool()
	require.NoError(t, err)
	defer mock.Close()

	ctx := context.Background()
	r := repo.NewPostgresRepository(mock)
	u := &domain.User{
		ID: "user-123", Email: "new@example.com", PasswordHash: "new-hash", Role: "user",
		CreatedAt: time.Now(), UpdatedAt: time.Now(),
	}

	t.Run("success", func(t *testing.T) {
		mock.ExpectExec("INSERT INTO users").
			WithArgs(userRow(u)...).
			WillReturnResult(pgxmock.NewResult("INSERT", 1))

		assert.NoError(t, r.Create(ctx, u))
	})

	t.Run("duplicate email", func(t *testing.T) {
		mock.ExpectExec("INSERT INTO users").
			WithArgs(userRow(u)...).
			WillReturnError(&pgconn.PgError{Code: "23505"})

		assert.ErrorIs(t, r.Create(ctx, u), autherror.ErrEmailAlreadyInUse)
	})

	t.Run("database error", func(t *testing.T) {
		mock.ExpectExec("INSERT INTO users").
			WithArgs(userRow(u)...).
			WillReturnError(fmt.Errorf("db error"))

		err := r.Create(ctx, u)
		assert.Error(t, err)
		assert.NotErrorIs(t, err, autherror.ErrEmailAlreadyInUse)
	})
}

func TestUpdate(t *testing.T) {
	mock, err := pgxmock.NewPool()
	require.NoError(t, err)
	defer mock.Close()

	ctx := context.Background()
	r := repo.NewPostgresRepository(mock)
	u := &domain.User{ID: "user-1", Email: "a@x.com", Role: "admin", UpdatedAt: time.Now()}
	args := []any{u.ID, u.Email, u.PasswordHash, u.Role, u.IsVerified, u.Avatar.PublicID, u.Avatar.URL, u.PasswordChangedAt, u.UpdatedAt}

	mock.ExpectExec("UPDATE users SET").WithArgs(args...).WillReturnResult(pgxmock.NewResult("UPDATE", 1))
	assert.NoError(t, r.Update(ctx, u))

	mock.ExpectExec("UPDATE users SET").WithArgs(args...).WillReturnResult(pgxmock.NewResult("UPDATE", 0))
	assert.ErrorIs(t, r.Update(ctx, u), autherror.ErrUserNotFound)
}

func TestDelete(t *testing.T) {
	mock, err := pgxmock.NewPool()
	require.NoError(t, err)
	defer mock.Close()

	ctx := context.Background()
	r := repo.NewPostgresRepository(mock)

	mock.ExpectExec("DELETE FROM users").WithArgs("user-1").WillReturnResult(pgxmock.NewResult("DELETE", 1))
	assert.NoError(t, r.Delete(ctx, "user-1"))

	mock.ExpectExec("DELETE FROM users").WithArgs("user-1").WillReturnResult(pgxmock.NewResult("DELETE", 0))
	assert.ErrorIs(t, r.Delete(ctx, "user-1"), autherror.ErrUserNotFound)
}

func TestRegisterFailedLogin(t *testing.T) {
	mock, err := pgxmock.NewPool()
	require.NoError(t, err)
	defer mock.Close()

	ctx := context.Background()
	r := repo.NewPostgresRepository(mock)
	now := time.Date(2025, 1, 1, 0, 0, 0, 0, time.UTC)
	lockUntil := now.Add(30 * time.Minute)

	t.Run("locks in the same statement", func(t *testing.T) {
		mock.ExpectQuery(`login_attempts = CASE`).
			WithArgs("user-1", now, 5, lockUntil).
			WillReturnRows(pgxmock.NewRows([]string{"login_attempts", "lock_until"}).AddRow(5, &lockUntil))

		state, err := r.RegisterFailedLogin(ctx, "user-1", now, 5, lockUntil)
		require.NoError(t, err)
		assert.Equal(t, 5, state.Attempts)
		assert.True(t, state.IsLocked(now))
	})

	t.Run("below threshold", func(t *testing.T) {
		mock.ExpectQuery(`login_attempts = CASE`).
			WithArgs("user-1", now, 5, lockUntil).
			WillReturnRows(pgxmock.NewRows([]string{"login_attempts", "lock_until"}).AddRow(2, (*time.Time)(nil)))

		state, err := r.RegisterFailedLogin(ctx, "user-1", now, 5, lockUntil)
		require.NoError(t, err)
		assert.Equal(t, 2, state.Attempts)
		assert.Nil(t, state.LockUntil)
	})

	t.Run("unknown user", func(t *testing.T) {
		mock.ExpectQuery(`login_attempts = CASE`).
			WithArgs("ghost", now, 5, lockUntil).
			WillReturnError(pgx.ErrNoRows)

		_, err := r.RegisterFailedLogin(ctx, "ghost", now, 5, lockUntil)
		assert.ErrorIs(t, err, autherror.ErrUserNotFound)
	})

	require.NoError(t, mock.ExpectationsWereMet())
}

func TestResetLoginAttempts(t *testing.T) {
	mock, err := pgxmock.NewPool()
	require.NoError(t, err)
	defer mock.Close()

	ctx := context.Background()
	r := repo.NewPostgresRepository(mock)
	now := time.Now()

	mock.ExpectExec(`login_attempts = 0`).WithArgs("user-1", now).WillReturnResult(pgxmock.NewResult("UPDATE", 1))
	assert.NoError(t, r.ResetLoginAttempts(ctx, "user-1", now))

	mock.ExpectExec(`login_attempts = 0`).WithArgs("user-1", now).WillReturnError(fmt.Errorf("db error"))
	assert.Error(t, r.ResetLoginAttempts(ctx, "user-1", now))
}

func TestPing(t *testing.T) {
	mock, err := pgxmock.NewPool()
	require.NoError(t, err)
	defer mock.Close()

	r := repo.NewPostgresRepository(mock)

	mock.ExpectPing()
	assert.NoError(t, r.Ping(context.Background()))

	mock.ExpectPing().WillReturnError(fmt.Errorf("connection refused"))
	assert.Error(t, r.Ping(context.Background()))

	assert.NoError(t, mock.ExpectationsWereMet())
}
