package service

import (
	"context"
	"fmt"

	"github.com/AnthoniusHendriyanto/patient-service/internal/auth/domain"
	"github.com/AnthoniusHendriyanto/patient-service/internal/auth/dto"
	autherror "github.com/AnthoniusHendriyanto/patient-service/internal/errors"
	"github.com/AnthoniusHendriyanto/patient-service/internal/media"
	"github.com/AnthoniusHendriyanto/patient-service/pkg/constant"
)

func (s *UserService) Me(ctx context.Context, userID string) (*domain.User, error) {
	return s.mustGet(ctx, userID)
}

func (s *UserService) GetProfile(ctx context.Context, userID string) (*domain.User, error) {
	return s.mustGet(ctx, userID)
}

func (s *UserService) ListUsers(ctx context.Context) ([]*domain.User, error) {
	return s.repo.List(ctx)
}

// UpdateInfo changes the email address, keeping it unique.
func (s *UserService) UpdateInfo(ctx context.Context, userID string, input dto.UpdateInfoInput) (*domain.User, error) {
	user, err := s.mustGet(ctx, userID)
	if err != nil {
		return nil, err
	}

	email := domain.NormalizeEmail(input.Email)
	if email == "" {
		return nil, autherror.ErrValidation
	}
	if email == user.Email {
		return user, nil
	}

	other, err := s.repo.GetByEmail(ctx, email)
	if err != nil {
		return nil, err
	}
	if other != nil {
		return nil, autherror.ErrEmailAlreadyInUse
	}

	user.Email = email
	return s.save(ctx, user)
}

func (s *UserService) UpdatePassword(ctx context.Context, userID string, input dto.UpdatePasswordInput) error {
	user, err := s.mustGet(ctx, userID)
	if err != nil {
		return err
	}

	if !s.hasher.Verify(input.OldPassword, user.PasswordHash) {
		return autherror.ErrInvalidOldPassword
	}

	hash, err := s.hasher.Hash(input.NewPassword)
	if err != nil {
		return err
	}

	now := s.now()
	user.PasswordHash = hash
	user.PasswordChangedAt = &now
	user.UpdatedAt = now

	if err := s.repo.Update(ctx, user); err != nil {
		return err
	}
	s.log.Info(ctx, "password changed", "user_id", user.ID)
	return nil
}

// UpdateAvatar uploads the new image first and only then drops the old one.
func (s *UserService) UpdateAvatar(ctx context.Context, userID string, input dto.UpdateAvatarInput) (*domain.User, error) {
	user, err := s.mustGet(ctx, userID)
	if err != nil {
		return nil, err
	}

	avatar, err := s.media.Upload(ctx, input.Avatar, media.AvatarFolder)
	if err != nil {
		return nil, fmt.Errorf("failed to upload avatar: %w", err)
	}

	old := user.Avatar
	user.Avatar = avatar

	updated, err := s.save(ctx, user)
	if err != nil {
		s.destroyAvatar(ctx, avatar)
		return nil, err
	}

	s.destroyAvatar(ctx, old)
	return updated, nil
}

// UpdateRole sets the role of the account identified by email.
func (s *UserService) UpdateRole(ctx context.Context, input dto.UpdateRoleInput) (*domain.User, error) {
	if input.Role != constant.RoleUser && input.Role != constant.RoleAdmin {
		return nil, autherror.ErrInvalidRole
	}

	user, err := s.repo.GetByEmail(ctx, domain.NormalizeEmail(input.Email))
	if err != nil {
		return nil, err
	}
	if user == nil {
		return nil, autherror.ErrUserNotFound
	}

	user.Role = input.Role
	updated, err := s.save(ctx, user)
	if err != nil {
		return nil, err
	}

	s.log.Info(ctx, "user role updated", "user_id", user.ID, "role", user.Role)
	return updated, nil
}

// DeleteUser removes the account, its stored avatar and its session.
func (s *UserService) DeleteUser(ctx context.Context, userID string) error {
	user, err := s.mustGet(ctx, userID)
	if err != nil {
		return err
	}

	if err := s.repo.Delete(ctx, user.ID); err != nil {
		return err
	}

	s.destroyAvatar(ctx, user.Avatar)

	if err := s.sessions.Delete(ctx, user.ID); err != nil {
		s.log.Warn(ctx, "failed to delete session of removed user", "user_id", user.ID, "error", err)
	}

	s.log.Info(ctx, "user deleted", "user_id", user.ID)
	return nil
}

func (s *UserService) mustGet(ctx context.Context, userID string) (*domain.User, error) {
	user, err := s.repo.GetByID(ctx, userID)
	if err != nil {
		return nil, err
	}
	if user == nil {
		return nil, autherror.ErrUserNotFound
	}
	return user, nil
}

// save persists a profile change and refreshes the live session snapshot.
func (s *UserService) save(ctx context.Context, user *domain.User) (*domain.User, error) {
	user.UpdatedAt = s.now()
	if err := s.repo.Update(ctx, user); err != nil {
		return nil, err
	}

	if err := s.sessions.Sync(ctx, user); err != nil {
		s.log.Warn(ctx, "failed to refresh session snapshot", "user_id", user.ID, "error", err)
	}
	return user, nil
}
