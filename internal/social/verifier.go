package social

//go:generate mockgen -destination=../mocks/mock_social_verifier.go -package=mocks github.com/AnthoniusHendriyanto/patient-service/internal/social Verifier

import (
	"context"
	"errors"
	"fmt"

	"github.com/coreos/go-oidc/v3/oidc"
)

const GoogleIssuer = "https://accounts.google.com"

var ErrMissingClaims = errors.New("id_token missing required claims")

// Identity is what a provider vouches for after verifying an ID token.
type Identity struct {
	Subject       string
	Email         string
	EmailVerified bool
	Picture       string
}

// Verifier proves a social login by checking the provider-signed ID token.
type Verifier interface {
	Verify(ctx context.Context, rawIDToken string) (*Identity, error)
}

type IDTokenVerifier interface {
	Verify(ctx context.Context, rawIDToken string) (*oidc.IDToken, error)
}

type OIDCVerifier struct {
	verifier IDTokenVerifier
}

// NewGoogleVerifier discovers Google's signing keys and checks the audience against clientID.
func NewGoogleVerifier(ctx context.Context, clientID string) (*OIDCVerifier, error) {
	if clientID == "" {
		return nil, errors.New("google client id is required")
	}

	provider, err := oidc.NewProvider(ctx, GoogleIssuer)
	if err != nil {
		return nil, fmt.Errorf("failed to init google oidc provider: %w", err)
	}

	return NewOIDCVerifier(provider.Verifier(&oidc.Config{ClientID: clientID})), nil
}

func NewOIDCVerifier(v IDTokenVerifier) *OIDCVerifier {
	return &OIDCVerifier{verifier: v}
}

func (o *OIDCVerifier) Verify(ctx context.Context, rawIDToken string) (*Identity, error) {
	idToken, err := o.verifier.Verify(ctx, rawIDToken)
	if err != nil {
		return nil, fmt.Errorf("id_token verification failed: %w", err)
	}

	var claims struct {
		Subject       string `json:"sub"`
		Email         string `json:"email"`
		EmailVerified bool   `json:"email_verified"`
		Picture       string `json:"picture"`
	}
	if err := idToken.Claims(&claims); err != nil {
		return nil, fmt.Errorf("id_token claims parse failed: %w", err)
	}

	if claims.Subject == "" || claims.Email == "" {
		return nil, ErrMissingClaims
	}

	return &Identity{
		Subject:       claims.Subject,
		Email:         claims.Email,
		EmailVerified: claims.EmailVerified,
		Picture:       claims.Picture,
	}, nil
}
