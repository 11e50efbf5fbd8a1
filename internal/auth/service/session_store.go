package service

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/AnthoniusHendriyanto/patient-service/internal/auth/domain"
	"github.com/AnthoniusHendriyanto/patient-service/internal/cache"
	"github.com/AnthoniusHendriyanto/patient-service/pkg/constant"
)

// SessionStore keeps one session snapshot per user in the cache.
type SessionStore struct {
	cache cache.Cache
	ttl   time.Duration
}

func NewSessionStore(c cache.Cache, ttl time.Duration) *SessionStore {
	return &SessionStore{cache: c, ttl: ttl}
}

func SessionKey(userID string) string {
	return constant.SessionKeyPrefix + userID
}

// Save overwrites any existing session for the user and restarts its TTL.
func (s *SessionStore) Save(ctx context.Context, rec domain.SessionRecord) error {
	payload, err := json.Marshal(rec)
	if err != nil {
		return fmt.Errorf("failed to encode session: %w", err)
	}
	return s.cache.Set(ctx, SessionKey(rec.ID), string(payload), s.ttl)
}

// Load returns (nil, nil) when the user has no live session.
func (s *SessionStore) Load(ctx context.Context, userID string) (*domain.SessionRecord, error) {
	raw, err := s.cache.Get(ctx, SessionKey(userID))
	if errors.Is(err, cache.ErrMiss) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}

	var rec domain.SessionRecord
	if err := json.Unmarshal([]byte(raw), &rec); err != nil {
		return nil, fmt.Errorf("failed to decode session: %w", err)
	}
	return &rec, nil
}

func (s *SessionStore) Delete(ctx context.Context, userID string) error {
	return s.cache.Del(ctx, SessionKey(userID))
}

// Sync rewrites the snapshot after a profile change, but only for users who are logged in.
func (s *SessionStore) Sync(ctx context.Context, u *domain.User) error {
	rec, err := s.Load(ctx, u.ID)
	if err != nil || rec == nil {
		return err
	}
	return s.Save(ctx, domain.NewSessionRecord(u))
}
