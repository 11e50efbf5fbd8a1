package postgres

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/AnthoniusHendriyanto/patient-service/internal/auth/domain"
	autherror "github.com/AnthoniusHendriyanto/patient-service/internal/errors"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
)

const uniqueViolation = "23505"

const userColumns = `id, email, password_hash, role, is_verified, avatar_public_id, avatar_url,
	login_attempts, lock_until, last_login, password_changed_at, created_at, updated_at`

// DB is satisfied by *pgxpool.Pool and by pgxmock pools.
type DB interface {
	Exec(ctx context.Context, sql string, args ...any) (pgconn.CommandTag, error)
	Query(ctx context.Context, sql string, args ...any) (pgx.Rows, error)
	QueryRow(ctx context.Context, sql string, args ...any) pgx.Row
	Ping(ctx context.Context) error
}

type PostgresRepository struct {
	db DB
}

func NewPostgresRepository(db DB) *PostgresRepository {
	return &PostgresRepository{db: db}
}

func (r *PostgresRepository) GetByEmail(ctx context.Context, email string) (*domain.User, error) {
	query := `SELECT ` + userColumns + ` FROM users WHERE lower(email) = lower($1) LIMIT 1`

	user, err := scanUser(r.db.QueryRow(ctx, query, email))
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get user by email: %w", err)
	}
	return user, nil
}

func (r *PostgresRepository) GetByID(ctx context.Context, id string) (*domain.User, error) {
	query := `SELECT ` + userColumns + ` FROM users WHERE id = $1`

	user, err := scanUser(r.db.QueryRow(ctx, query, id))
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get user by id: %w", err)
	}
	return user, nil
}

func (r *PostgresRepository) Count(ctx context.Context) (int64, error) {
	var n int64
	if err := r.db.QueryRow(ctx, `SELECT COUNT(*) FROM users`).Scan(&n); err != nil {
		return 0, fmt.Errorf("failed to count users: %w", err)
	}
	return n, nil
}

func (r *PostgresRepository) List(ctx context.Context) ([]*domain.User, error) {
	rows, err := r.db.Query(ctx, `SELECT `+userColumns+` FROM users ORDER BY created_at DESC`)
	if err != nil {
		return nil, fmt.Errorf("failed to list users: %w", err)
	}
	defer rows.Close()

	var users []*domain.User
	for rows.Next() {
		u, err := scanUser(rows)
		if err != nil {
			return nil, fmt.Errorf("failed to scan user: %w", err)
		}
		users = append(users, u)
	}
	return users, rows.Err()
}

func (r *PostgresRepository) Create(ctx context.Context, user *domain.User) error {
	_, err := r.db.Exec(ctx, `
		INSERT INTO users (`+userColumns+`)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13)`,
		user.ID, user.Email, user.PasswordHash, user.Role, user.IsVerified,
		user.Avatar.PublicID, user.Avatar.URL, user.LoginAttempts, user.LockUntil,
		user.LastLogin, user.PasswordChangedAt, user.CreatedAt, user.UpdatedAt)

	return mapWriteError(err)
}

// Update persists profile fields. Lockout counters are only touched by
// RegisterFailedLogin and ResetLoginAttempts.
func (r *PostgresRepository) Update(ctx context.Context, user *domain.User) error {
	tag, err := r.db.Exec(ctx, `
		UPDATE users SET
			email = $2,
			password_hash = $3,
			role = $4,
			is_verified = $5,
			avatar_public_id = $6,
			avatar_url = $7,
			password_changed_at = $8,
			updated_at = $9
		WHERE id = $1`,
		user.ID, user.Email, user.PasswordHash, user.Role, user.IsVerified,
		user.Avatar.PublicID, user.Avatar.URL, user.PasswordChangedAt, user.UpdatedAt)
	if err != nil {
		return mapWriteError(err)
	}
	if tag.RowsAffected() == 0 {
		return autherror.ErrUserNotFound
	}
	return nil
}

func (r *PostgresRepository) Delete(ctx context.Context, id string) error {
	tag, err := r.db.Exec(ctx, `DELETE FROM users WHERE id = $1`, id)
	if err != nil {
		return fmt.Errorf("failed to delete user: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return autherror.ErrUserNotFound
	}
	return nil
}

// RegisterFailedLogin evaluates the whole failure transition against the current
// row inside one UPDATE, so concurrent failures never lose an increment.
func (r *PostgresRepository) RegisterFailedLogin(ctx context.Context, id string, now time.Time, maxAttempts int, lockUntil time.Time) (*domain.LoginState, error) {
	query := `
		UPDATE users SET
			login_attempts = CASE
				WHEN lock_until IS NOT NULL AND lock_until <= $2 THEN 1
				ELSE login_attempts + 1
			END,
			lock_until = CASE
				WHEN lock_until IS NOT NULL AND lock_until <= $2 THEN NULL
				WHEN lock_until IS NULL AND login_attempts + 1 >= $3 THEN $4
				ELSE lock_until
			END,
			updated_at = $2
		WHERE id = $1
		RETURNING login_attempts, lock_until`

	var state domain.LoginState
	err := r.db.QueryRow(ctx, query, id, now, maxAttempts, lockUntil).Scan(&state.Attempts, &state.LockUntil)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, autherror.ErrUserNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("failed to register failed login: %w", err)
	}
	return &state, nil
}

func (r *PostgresRepository) ResetLoginAttempts(ctx context.Context, id string, now time.Time) error {
	tag, err := r.db.Exec(ctx, `
		UPDATE users SET login_attempts = 0, lock_until = NULL, last_login = $2, updated_at = $2
		WHERE id = $1`, id, now)
	if err != nil {
		return fmt.Errorf("failed to reset login attempts: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return autherror.ErrUserNotFound
	}
	return nil
}

func (r *PostgresRepository) Ping(ctx context.Context) error {
	return r.db.Ping(ctx)
}

func scanUser(row pgx.Row) (*domain.User, error) {
	var u domain.User
	err := row.Scan(
		&u.ID, &u.Email, &u.PasswordHash, &u.Role, &u.IsVerified,
		&u.Avatar.PublicID, &u.Avatar.URL, &u.LoginAttempts, &u.LockUntil,
		&u.LastLogin, &u.PasswordChangedAt, &u.CreatedAt, &u.UpdatedAt,
	)
	if err != nil {
		return nil, err
	}
	return &u, nil
}

func mapWriteError(err error) error {
	if err == nil {
		return nil
	}
	var pgErr *pgconn.PgError
	if errors.As(err, &pgErr) && pgErr.Code == uniqueViolation {
		return autherror.ErrEmailAlreadyInUse
	}
	return fmt.Errorf("failed to write user: %w", err)
}
