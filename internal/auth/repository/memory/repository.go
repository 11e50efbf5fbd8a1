package memory

import (
	"context"
	"sort"
	"sync"
	"time"

	"github.com/AnthoniusHendriyanto/patient-service/internal/auth/domain"
	autherror "github.com/AnthoniusHendriyanto/patient-service/internal/errors"
)

// UserRepository is an in-process credential store for local runs (DB_URL=memory://)
// and tests. Every method works on copies so callers never share state.
type UserRepository struct {
	mu    sync.Mutex
	users map[string]*domain.User
}

func NewUserRepository() *UserRepository {
	return &UserRepository{users: make(map[string]*domain.User)}
}

func (r *UserRepository) GetByEmail(_ context.Context, email string) (*domain.User, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	for _, u := range r.users {
		if u.Email == email {
			return clone(u), nil
		}
	}
	return nil, nil
}

func (r *UserRepository) GetByID(_ context.Context, id string) (*domain.User, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	if u, ok := r.users[id]; ok {
		return clone(u), nil
	}
	return nil, nil
}

func (r *UserRepository) Count(context.Context) (int64, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	return int64(len(r.users)), nil
}

// List returns users newest first.
func (r *UserRepository) List(context.Context) ([]*domain.User, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	out := make([]*domain.User, 0, len(r.users))
	for _, u := range r.users {
		out = append(out, clone(u))
	}
	sort.Slice(out, func(i, j int) bool { return out[i].CreatedAt.After(out[j].CreatedAt) })
	return out, nil
}

func (r *UserRepository) Create(_ context.Context, user *domain.User) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	if r.emailTaken(user.Email, user.ID) {
		return autherror.ErrEmailAlreadyInUse
	}
	r.users[user.ID] = clone(user)
	return nil
}

func (r *UserRepository) Update(_ context.Context, user *domain.User) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	stored, ok := r.users[user.ID]
	if !ok {
		return autherror.ErrUserNotFound
	}
	if r.emailTaken(user.Email, user.ID) {
		return autherror.ErrEmailAlreadyInUse
	}

	// lockout fields are owned by RegisterFailedLogin and ResetLoginAttempts
	next := clone(user)
	next.LoginAttempts = stored.LoginAttempts
	next.LockUntil = stored.LockUntil
	r.users[user.ID] = next
	return nil
}

func (r *UserRepository) Delete(_ context.Context, id string) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	if _, ok := r.users[id]; !ok {
		return autherror.ErrUserNotFound
	}
	delete(r.users, id)
	return nil
}

func (r *UserRepository) RegisterFailedLogin(_ context.Context, id string, now time.Time, maxAttempts int, lockUntil time.Time) (*domain.LoginState, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	u, ok := r.users[id]
	if !ok {
		return nil, autherror.ErrUserNotFound
	}

	next := u.LoginState().AfterFailure(now, maxAttempts, lockUntil)
	u.LoginAttempts = next.Attempts
	u.LockUntil = next.LockUntil
	return &next, nil
}

func (r *UserRepository) ResetLoginAttempts(_ context.Context, id string, now time.Time) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	u, ok := r.users[id]
	if !ok {
		return autherror.ErrUserNotFound
	}
	u.LoginAttempts = 0
	u.LockUntil = nil
	u.LastLogin = &now
	return nil
}

func (r *UserRepository) Ping(context.Context) error {
	return nil
}

func (r *UserRepository) emailTaken(email, exceptID string) bool {
	for id, u := range r.users {
		if id != exceptID && u.Email == email {
			return true
		}
	}
	return false
}

func clone(u *domain.User) *domain.User {
	c := *u
	c.LockUntil = copyTime(u.LockUntil)
	c.LastLogin = copyTime(u.LastLogin)
	c.PasswordChangedAt = copyTime(u.PasswordChangedAt)
	return &c
}

func copyTime(t *time.Time) *time.Time {
	if t == nil {
		return nil
	}
	v := *t
	return &v
}
