package domain

import (
	"strings"
	"time"
	"unicode"

	"github.com/AnthoniusHendriyanto/patient-service/pkg/constant"
)

type Avatar struct {
	PublicID string `json:"public_id" bson:"publicId"`
	URL      string `json:"url" bson:"url"`
}

type User struct {
	ID                string     `json:"id" bson:"_id"`
	Email             string     `json:"email" bson:"email"`
	PasswordHash      string     `json:"-" bson:"passwordHash,omitempty"`
	Role              string     `json:"role" bson:"role"`
	IsVerified        bool       `json:"is_verified" bson:"isVerified"`
	Avatar            Avatar     `json:"avatar" bson:"avatar"`
	LoginAttempts     int        `json:"-" bson:"loginAttempts"`
	LockUntil         *time.Time `json:"-" bson:"lockUntil,omitempty"`
	LastLogin         *time.Time `json:"last_login,omitempty" bson:"lastLogin,omitempty"`
	PasswordChangedAt *time.Time `json:"-" bson:"passwordChangedAt,omitempty"`
	CreatedAt         time.Time  `json:"created_at" bson:"createdAt"`
	UpdatedAt         time.Time  `json:"updated_at" bson:"updatedAt"`
}

// IsLocked is evaluated against now on every call; the lock is never cached.
func (u *User) IsLocked(now time.Time) bool {
	return u.LockUntil != nil && u.LockUntil.After(now)
}

func (u *User) IsAdmin() bool {
	return u.Role == constant.RoleAdmin
}

// HasPassword is false for accounts created through social auth.
func (u *User) HasPassword() bool {
	return u.PasswordHash != ""
}

// LoginState is the lockout-relevant slice of a credential after an atomic store update.
type LoginState struct {
	Attempts  int
	LockUntil *time.Time
}

func (s LoginState) IsLocked(now time.Time) bool {
	return s.LockUntil != nil && s.LockUntil.After(now)
}

// AfterFailure is the state after one more failed login at now. An expired lock
// restarts the count at 1; reaching maxAttempts while unlocked sets lockUntil.
func (s LoginState) AfterFailure(now time.Time, maxAttempts int, lockUntil time.Time) LoginState {
	if s.LockUntil != nil && !s.LockUntil.After(now) {
		return LoginState{Attempts: 1}
	}

	next := LoginState{Attempts: s.Attempts + 1, LockUntil: s.LockUntil}
	if next.Attempts >= maxAttempts && !s.IsLocked(now) {
		next.LockUntil = &lockUntil
	}
	return next
}

func (u *User) LoginState() LoginState {
	return LoginState{Attempts: u.LoginAttempts, LockUntil: u.LockUntil}
}

// DisplayName turns the local part of an email into a human readable name,
// e.g. "john.doe@x.com" becomes "John Doe".
func DisplayName(email string) string {
	if email == "" {
		return "User"
	}

	local, _, _ := strings.Cut(email, "@")
	local = strings.Map(func(r rune) rune {
		switch r {
		case '.', '_', '-':
			return ' '
		}
		return r
	}, local)

	words := strings.Fields(local)
	for i, w := range words {
		runes := []rune(w)
		runes[0] = unicode.ToUpper(runes[0])
		words[i] = string(runes)
	}

	if len(words) == 0 {
		return "User"
	}
	return strings.Join(words, " ")
}

// NormalizeEmail lowercases and trims an email so that lookups are case-insensitive.
func NormalizeEmail(email string) string {
	return strings.ToLower(strings.TrimSpace(email))
}

// EmailLocalPart returns the part of the email before "@".
func EmailLocalPart(email string) string {
	local, _, _ := strings.Cut(email, "@")
	return local
}
