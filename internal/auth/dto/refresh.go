package dto

import (
	"time"

	"github.com/AnthoniusHendriyanto/patient-service/internal/auth/domain"
)

type RefreshInput struct {
	RefreshToken string `json:"refresh_token"`
}

type RefreshResult struct {
	AccessToken       string
	AccessTokenExpiry time.Duration
	Identity          domain.Authenticated
}

// AuthResult is the outcome of authenticating a request. RefreshedAccessToken is
// set only when an expired access token was renewed on the way through.
type AuthResult struct {
	Identity             domain.Authenticated
	RefreshedAccessToken string
	AccessTokenExpiry    time.Duration
}
