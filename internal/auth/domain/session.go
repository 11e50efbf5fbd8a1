package domain

import "time"

// SessionRecord is the cached snapshot of a user that proves an active, revocable login.
// It never carries the password hash or lockout counters.
type SessionRecord struct {
	ID          string     `json:"id"`
	Email       string     `json:"email"`
	Role        string     `json:"role"`
	IsVerified  bool       `json:"is_verified"`
	Avatar      Avatar     `json:"avatar"`
	DisplayName string     `json:"display_name"`
	LastLogin   *time.Time `json:"last_login,omitempty"`
}

func NewSessionRecord(u *User) SessionRecord {
	return SessionRecord{
		ID:          u.ID,
		Email:       u.Email,
		Role:        u.Role,
		IsVerified:  u.IsVerified,
		Avatar:      u.Avatar,
		DisplayName: DisplayName(u.Email),
		LastLogin:   u.LastLogin,
	}
}

// Identity is the result of authenticating a request: either Anonymous or Authenticated.
type Identity interface {
	identity()
}

type Anonymous struct{}

func (Anonymous) identity() {}

type Authenticated struct {
	ID          string
	Email       string
	Role        string
	IsVerified  bool
	Avatar      Avatar
	DisplayName string
}

func (Authenticated) identity() {}

func (a Authenticated) HasRole(roles ...string) bool {
	for _, r := range roles {
		if a.Role == r {
			return true
		}
	}
	return false
}

func (s SessionRecord) Identity() Authenticated {
	return Authenticated{
		ID:          s.ID,
		Email:       s.Email,
		Role:        s.Role,
		IsVerified:  s.IsVerified,
		Avatar:      s.Avatar,
		DisplayName: s.DisplayName,
	}
}
