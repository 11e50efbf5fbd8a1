package service

//go:generate mockgen -destination=../../mocks/mock_token_generator.go -package=mocks github.com/AnthoniusHendriyanto/patient-service/internal/auth/service TokenGenerator

import (
	"errors"
	"fmt"
	"time"

	autherror "github.com/AnthoniusHendriyanto/patient-service/internal/errors"
	"github.com/golang-jwt/jwt/v5"
)

type TokenGenerator interface {
	IssueAccessToken(userID string) (string, error)
	IssueRefreshToken(userID string) (string, error)
	VerifyAccessToken(tokenString string) (*JWTCustomClaims, error)
	VerifyRefreshToken(tokenString string) (*JWTCustomClaims, error)
	GetAccessTokenExpiry() time.Duration
	GetRefreshTokenExpiry() time.Duration
}

type TokenService struct {
	AccessTokenSecret  string
	RefreshTokenSecret string
	AccessTokenExpiry  time.Duration
	RefreshTokenExpiry time.Duration
	MinSecretLength    int
	Now                func() time.Time
}

// JWTCustomClaims carries only the user id; everything else is read from the session.
type JWTCustomClaims struct {
	jwt.RegisteredClaims
	UserID string `json:"id"`
}

// NewTokenService builds an HS256 issuer. minSecretLength is enforced at signing
// time and is 0 outside production.
func NewTokenService(accessSecret, refreshSecret string, accessExpiry, refreshExpiry time.Duration, minSecretLength int) *TokenService {
	return &TokenService{
		AccessTokenSecret:  accessSecret,
		RefreshTokenSecret: refreshSecret,
		AccessTokenExpiry:  accessExpiry,
		RefreshTokenExpiry: refreshExpiry,
		MinSecretLength:    minSecretLength,
		Now:                time.Now,
	}
}

func (ts *TokenService) IssueAccessToken(userID string) (string, error) {
	return ts.sign(userID, ts.AccessTokenSecret, ts.AccessTokenExpiry)
}

func (ts *TokenService) IssueRefreshToken(userID string) (string, error) {
	return ts.sign(userID, ts.RefreshTokenSecret, ts.RefreshTokenExpiry)
}

func (ts *TokenService) GetAccessTokenExpiry() time.Duration {
	return ts.AccessTokenExpiry
}

func (ts *TokenService) GetRefreshTokenExpiry() time.Duration {
	return ts.RefreshTokenExpiry
}

// VerifyAccessToken checks signature and expiry. An expired but otherwise valid
// token yields ErrTokenExpired; any other failure yields ErrInvalidToken.
func (ts *TokenService) VerifyAccessToken(tokenString string) (*JWTCustomClaims, error) {
	return ts.verify(tokenString, ts.AccessTokenSecret)
}

func (ts *TokenService) VerifyRefreshToken(tokenString string) (*JWTCustomClaims, error) {
	return ts.verify(tokenString, ts.RefreshTokenSecret)
}

func (ts *TokenService) sign(userID, secret string, ttl time.Duration) (string, error) {
	if secret == "" || len(secret) < ts.MinSecretLength {
		return "", autherror.ErrSigningSecret
	}

	now := ts.now()
	claims := JWTCustomClaims{
		UserID: userID,
		RegisteredClaims: jwt.RegisteredClaims{
			ExpiresAt: jwt.NewNumericDate(now.Add(ttl)),
			IssuedAt:  jwt.NewNumericDate(now),
		},
	}

	signed, err := jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString([]byte(secret))
	if err != nil {
		return "", fmt.Errorf("failed to sign token: %w", err)
	}
	return signed, nil
}

func (ts *TokenService) verify(tokenString, secret string) (*JWTCustomClaims, error) {
	if tokenString == "" || secret == "" {
		return nil, autherror.ErrInvalidToken
	}

	claims := &JWTCustomClaims{}
	token, err := jwt.ParseWithClaims(tokenString, claims, func(token *jwt.Token) (interface{}, error) {
		if _, ok := token.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, fmt.Errorf("unexpected signing method: %v", token.Header["alg"])
		}
		return []byte(secret), nil
	}, jwt.WithValidMethods([]string{jwt.SigningMethodHS256.Alg()}), jwt.WithTimeFunc(ts.now))

	switch {
	case errors.Is(err, jwt.ErrTokenExpired):
		return nil, autherror.ErrTokenExpired
	case err != nil, !token.Valid, claims.UserID == "":
		return nil, autherror.ErrInvalidToken
	}

	return claims, nil
}

func (ts *TokenService) now() time.Time {
	if ts.Now != nil {
		return ts.Now()
	}
	return time.Now()
}
