package service

import (
	"context"
	"errors"
	"fmt"
	"net/url"
	"strings"
	"sync"
	"time"

	"github.com/AnthoniusHendriyanto/patient-service/config"
	"github.com/AnthoniusHendriyanto/patient-service/internal/auth/domain"
	"github.com/AnthoniusHendriyanto/patient-service/internal/auth/dto"
	autherror "github.com/AnthoniusHendriyanto/patient-service/internal/errors"
	"github.com/AnthoniusHendriyanto/patient-service/internal/logging"
	"github.com/AnthoniusHendriyanto/patient-service/internal/media"
	"github.com/AnthoniusHendriyanto/patient-service/internal/social"
	"github.com/AnthoniusHendriyanto/patient-service/pkg/constant"
	"github.com/google/uuid"
)

const (
	defaultAvatarBackground = "random"
	adminAvatarBackground   = "dc2626"

	defaultAvatarIDPrefix = constant.ExternalAvatarPrefix + "default_"
	adminAvatarIDPrefix   = constant.ExternalAvatarPrefix + "admin_"
)

type UserService struct {
	repo     domain.UserRepository
	tokens   TokenGenerator
	sessions *SessionStore
	hasher   PasswordHasher
	lockout  LockoutPolicy
	media    media.Store
	social   social.Verifier
	log      logging.Logger
	now      func() time.Time

	decoyOnce sync.Once
	decoyHash string
}

type Option func(*UserService)

func WithHasher(h PasswordHasher) Option {
	return func(s *UserService) { s.hasher = h }
}

func WithMediaStore(m media.Store) Option {
	return func(s *UserService) { s.media = m }
}

// WithSocialVerifier makes social auth require a provider-signed ID token.
func WithSocialVerifier(v social.Verifier) Option {
	return func(s *UserService) { s.social = v }
}

func WithLogger(l logging.Logger) Option {
	return func(s *UserService) { s.log = l }
}

func WithClock(now func() time.Time) Option {
	return func(s *UserService) {
		s.now = now
		s.lockout.Now = now
	}
}

func NewUserService(repo domain.UserRepository, tokens TokenGenerator, sessions *SessionStore, cfg *config.Config, opts ...Option) *UserService {
	s := &UserService{
		repo:     repo,
		tokens:   tokens,
		sessions: sessions,
		hasher:   NewBcryptHasher(cfg.BcryptCost),
		lockout:  NewLockoutPolicy(cfg.LoginMaxAttempts, cfg.LockDuration()),
		media:    media.NopStore{},
		log:      logging.Nop(),
		now:      time.Now,
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// Register creates a regular account. The very first account becomes admin.
func (s *UserService) Register(ctx context.Context, input dto.RegisterInput) (*domain.User, error) {
	return s.createWithPassword(ctx, input, false)
}

// CreateAdmin creates a verified admin account; callers must already be admins.
func (s *UserService) CreateAdmin(ctx context.Context, input dto.RegisterInput) (*domain.User, error) {
	return s.createWithPassword(ctx, input, true)
}

func (s *UserService) createWithPassword(ctx context.Context, input dto.RegisterInput, admin bool) (*domain.User, error) {
	if input.Password != input.ConfirmPassword {
		return nil, autherror.ErrPasswordMismatch
	}

	email := domain.NormalizeEmail(input.Email)
	existing, err := s.repo.GetByEmail(ctx, email)
	if err != nil {
		return nil, err
	}
	if existing != nil {
		return nil, autherror.ErrEmailAlreadyInUse
	}

	hash, err := s.hasher.Hash(input.Password)
	if err != nil {
		return nil, err
	}

	role := constant.RoleAdmin
	background, idPrefix := adminAvatarBackground, adminAvatarIDPrefix
	if !admin {
		if role, err = s.roleForNewUser(ctx); err != nil {
			return nil, err
		}
		background, idPrefix = defaultAvatarBackground, defaultAvatarIDPrefix
	}

	now := s.now()
	user := &domain.User{
		ID:           uuid.NewString(),
		Email:        email,
		PasswordHash: hash,
		Role:         role,
		IsVerified:   admin,
		CreatedAt:    now,
		UpdatedAt:    now,
	}
	user.Avatar = s.resolveAvatar(ctx, input.Avatar, email, background, idPrefix)

	if err := s.repo.Create(ctx, user); err != nil {
		s.destroyAvatar(ctx, user.Avatar)
		return nil, err
	}

	s.log.Info(ctx, "user registered", "user_id", user.ID, "role", user.Role)
	return user, nil
}

// Login verifies credentials under the lockout policy and opens a session.
// Unknown email and wrong password are indistinguishable to the caller.
func (s *UserService) Login(ctx context.Context, input dto.LoginInput) (*dto.LoginResult, error) {
	user, err := s.repo.GetByEmail(ctx, domain.NormalizeEmail(input.Email))
	if err != nil {
		return nil, err
	}
	if user == nil {
		s.hasher.Verify(input.Password, s.decoy())
		return nil, autherror.ErrInvalidCredentials
	}

	if s.lockout.IsLocked(user) {
		return nil, autherror.ErrAccountLocked
	}

	if !s.hasher.Verify(input.Password, user.PasswordHash) {
		state, err := s.lockout.RegisterFailure(ctx, s.repo, user.ID)
		if err != nil {
			return nil, fmt.Errorf("failed to record login attempt: %w", err)
		}
		if state.IsLocked(s.now()) {
			s.log.Warn(ctx, "account locked after failed logins", "user_id", user.ID, "attempts", state.Attempts)
		}
		return nil, autherror.ErrInvalidCredentials
	}

	return s.startSession(ctx, user)
}

// SocialAuth logs in or registers a user vouched for by a social provider.
func (s *UserService) SocialAuth(ctx context.Context, input dto.SocialAuthInput) (*dto.LoginResult, error) {
	email, avatar := input.Email, input.Avatar

	if s.social != nil {
		if input.IDToken == "" {
			return nil, autherror.ErrInvalidCredentials
		}
		id, err := s.social.Verify(ctx, input.IDToken)
		if err != nil {
			s.log.Warn(ctx, "social id_token rejected", "error", err)
			return nil, autherror.ErrInvalidCredentials
		}
		if !id.EmailVerified {
			s.log.Warn(ctx, "social id_token email is not verified", "subject", id.Subject)
			return nil, autherror.ErrInvalidCredentials
		}
		email = id.Email
		if avatar == "" {
			avatar = id.Picture
		}
	}

	email = domain.NormalizeEmail(email)
	if email == "" {
		return nil, autherror.ErrValidation
	}

	user, err := s.repo.GetByEmail(ctx, email)
	if err != nil {
		return nil, err
	}

	if user == nil {
		role, err := s.roleForNewUser(ctx)
		if err != nil {
			return nil, err
		}

		now := s.now()
		user = &domain.User{
			ID:         uuid.NewString(),
			Email:      email,
			Role:       role,
			IsVerified: true,
			CreatedAt:  now,
			UpdatedAt:  now,
		}
		user.Avatar = s.resolveAvatar(ctx, avatar, email, defaultAvatarBackground, defaultAvatarIDPrefix)

		if err := s.repo.Create(ctx, user); err != nil {
			s.destroyAvatar(ctx, user.Avatar)
			return nil, err
		}
		s.log.Info(ctx, "user registered via social auth", "user_id", user.ID, "role", user.Role)
	} else if s.lockout.IsLocked(user) {
		return nil, autherror.ErrAccountLocked
	}

	return s.startSession(ctx, user)
}

// decoy is a hash of a throwaway password, so logins for unknown emails cost
// the same as a wrong password.
func (s *UserService) decoy() string {
	s.decoyOnce.Do(func() {
		hash, err := s.hasher.Hash(uuid.NewString())
		if err != nil {
			s.log.Error(context.Background(), "failed to prepare decoy hash", "error", err)
			return
		}
		s.decoyHash = hash
	})
	return s.decoyHash
}

// Logout removes the user's session. Removing a missing session is not an error.
func (s *UserService) Logout(ctx context.Context, userID string) error {
	if err := s.sessions.Delete(ctx, userID); err != nil {
		return fmt.Errorf("failed to delete session: %w", err)
	}
	return nil
}

// Refresh issues a new access token from a refresh token while the session is
// alive, and slides the session TTL forward.
func (s *UserService) Refresh(ctx context.Context, refreshToken string) (*dto.RefreshResult, error) {
	claims, err := s.tokens.VerifyRefreshToken(refreshToken)
	if err != nil {
		return nil, autherror.ErrInvalidToken
	}

	rec, err := s.sessions.Load(ctx, claims.UserID)
	if err != nil {
		return nil, err
	}
	if rec == nil {
		return nil, autherror.ErrSessionExpired
	}

	if err := s.sessions.Save(ctx, *rec); err != nil {
		return nil, fmt.Errorf("failed to extend session: %w", err)
	}

	access, err := s.tokens.IssueAccessToken(rec.ID)
	if err != nil {
		return nil, err
	}

	return &dto.RefreshResult{
		AccessToken:       access,
		AccessTokenExpiry: s.tokens.GetAccessTokenExpiry(),
		Identity:          rec.Identity(),
	}, nil
}

// Authenticate resolves the caller of a request. A valid access token still needs
// a live session. An expired one is renewed from the refresh token when possible.
func (s *UserService) Authenticate(ctx context.Context, accessToken, refreshToken string) (*dto.AuthResult, error) {
	if accessToken == "" {
		return nil, autherror.ErrUnauthenticated
	}

	claims, err := s.tokens.VerifyAccessToken(accessToken)
	if errors.Is(err, autherror.ErrTokenExpired) {
		if refreshToken == "" {
			return nil, autherror.ErrTokenExpired
		}
		refreshed, err := s.Refresh(ctx, refreshToken)
		if err != nil {
			return nil, err
		}
		return &dto.AuthResult{
			Identity:             refreshed.Identity,
			RefreshedAccessToken: refreshed.AccessToken,
			AccessTokenExpiry:    refreshed.AccessTokenExpiry,
		}, nil
	}
	if err != nil {
		return nil, autherror.ErrInvalidToken
	}

	rec, err := s.sessions.Load(ctx, claims.UserID)
	if err != nil {
		return nil, err
	}
	if rec == nil {
		return nil, autherror.ErrSessionExpired
	}

	return &dto.AuthResult{Identity: rec.Identity()}, nil
}

func (s *UserService) startSession(ctx context.Context, user *domain.User) (*dto.LoginResult, error) {
	if err := s.lockout.RegisterSuccess(ctx, s.repo, user.ID); err != nil {
		return nil, fmt.Errorf("failed to reset login attempts: %w", err)
	}

	now := s.now()
	user.LoginAttempts = 0
	user.LockUntil = nil
	user.LastLogin = &now

	access, err := s.tokens.IssueAccessToken(user.ID)
	if err != nil {
		return nil, err
	}
	refresh, err := s.tokens.IssueRefreshToken(user.ID)
	if err != nil {
		return nil, err
	}

	if err := s.sessions.Save(ctx, domain.NewSessionRecord(user)); err != nil {
		return nil, fmt.Errorf("failed to store session: %w", err)
	}

	return &dto.LoginResult{
		User:               user,
		AccessToken:        access,
		RefreshToken:       refresh,
		AccessTokenExpiry:  s.tokens.GetAccessTokenExpiry(),
		RefreshTokenExpiry: s.tokens.GetRefreshTokenExpiry(),
	}, nil
}

// roleForNewUser makes the first account an admin. Two concurrent first
// registrations may both become admin.
func (s *UserService) roleForNewUser(ctx context.Context) (string, error) {
	count, err := s.repo.Count(ctx)
	if err != nil {
		return "", err
	}
	if count == 0 {
		return constant.RoleAdmin, nil
	}
	return constant.RoleUser, nil
}

// resolveAvatar uploads source (or the generated default) and falls back to the
// externally hosted default when the media store is unavailable.
func (s *UserService) resolveAvatar(ctx context.Context, source, email, background, idPrefix string) domain.Avatar {
	fallback := DefaultAvatarURL(email, background)
	if source == "" {
		source = fallback
	}

	avatar, err := s.media.Upload(ctx, source, media.AvatarFolder)
	if err == nil {
		return avatar
	}

	if !errors.Is(err, media.ErrNotConfigured) {
		s.log.Warn(ctx, "avatar upload failed, using external avatar", "error", err)
	}
	return domain.Avatar{
		PublicID: fmt.Sprintf("%s%d", idPrefix, s.now().UnixMilli()),
		URL:      fallback,
	}
}

// destroyAvatar is best effort; externally hosted avatars are never touched.
func (s *UserService) destroyAvatar(ctx context.Context, avatar domain.Avatar) {
	if !IsStoredAvatar(avatar) {
		return
	}
	if err := s.media.Destroy(ctx, avatar.PublicID); err != nil {
		s.log.Warn(ctx, "failed to delete avatar", "public_id", avatar.PublicID, "error", err)
	}
}

func IsStoredAvatar(avatar domain.Avatar) bool {
	return avatar.PublicID != "" && !strings.HasPrefix(avatar.PublicID, constant.ExternalAvatarPrefix)
}

func DefaultAvatarURL(email, background string) string {
	return fmt.Sprintf("%s?name=%s&background=%s&color=fff&size=200",
		constant.DefaultAvatarBaseURL, url.QueryEscape(domain.EmailLocalPart(email)), background)
}
