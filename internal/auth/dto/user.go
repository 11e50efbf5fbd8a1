package dto

import (
	"time"

	"github.com/AnthoniusHendriyanto/patient-service/internal/auth/domain"
)

type UserOutput struct {
	ID         string        `json:"id"`
	Email      string        `json:"email"`
	Name       string        `json:"name"`
	Role       string        `json:"role"`
	IsVerified bool          `json:"is_verified"`
	Avatar     domain.Avatar `json:"avatar"`
	LastLogin  *time.Time    `json:"last_login,omitempty"`
	CreatedAt  time.Time     `json:"created_at"`
	UpdatedAt  time.Time     `json:"updated_at"`
}

func NewUserOutput(u *domain.User) UserOutput {
	return UserOutput{
		ID:         u.ID,
		Email:      u.Email,
		Name:       domain.DisplayName(u.Email),
		Role:       u.Role,
		IsVerified: u.IsVerified,
		Avatar:     u.Avatar,
		LastLogin:  u.LastLogin,
		CreatedAt:  u.CreatedAt,
		UpdatedAt:  u.UpdatedAt,
	}
}

func NewUserOutputs(users []*domain.User) []UserOutput {
	out := make([]UserOutput, 0, len(users))
	for _, u := range users {
		out = append(out, NewUserOutput(u))
	}
	return out
}

type UpdateInfoInput struct {
	Email string `json:"email" validate:"required,email"`
}

type UpdatePasswordInput struct {
	OldPassword string `json:"old_password" validate:"required"`
	NewPassword string `json:"new_password" validate:"required,password"`
}

type UpdateAvatarInput struct {
	Avatar string `json:"avatar" validate:"required,avatar"`
}

type UpdateRoleInput struct {
	Email string `json:"email" validate:"required,email"`
	Role  string `json:"role" validate:"required,oneof=user admin"`
}
