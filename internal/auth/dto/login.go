package dto

import (
	"time"

	"github.com/AnthoniusHendriyanto/patient-service/internal/auth/domain"
)

type LoginInput struct {
	Email    string `json:"email" validate:"required,email"`
	Password string `json:"password" validate:"required"`
}

// LoginResult is produced by password and social login alike.
type LoginResult struct {
	User               *domain.User
	AccessToken        string
	RefreshToken       string
	AccessTokenExpiry  time.Duration
	RefreshTokenExpiry time.Duration
}

type TokenResponse struct {
	AccessToken  string `json:"accessToken"`
	RefreshToken string `json:"refreshToken,omitempty"`
}
