package media

//go:generate mockgen -destination=../mocks/mock_media_store.go -package=mocks github.com/AnthoniusHendriyanto/patient-service/internal/media Store

import (
	"context"
	"errors"

	"github.com/AnthoniusHendriyanto/patient-service/internal/auth/domain"
)

const AvatarFolder = "avatars"

var (
	ErrNotConfigured   = errors.New("media store is not configured")
	ErrUnsupportedData = errors.New("unsupported media source")
	ErrTooLarge        = errors.New("media exceeds size limit")
	ErrForbiddenHost   = errors.New("media host is not publicly routable")
)

// Store keeps user avatars. Upload accepts an http(s) URL on a public host or
// a base64 data URI, and only image content.
type Store interface {
	Upload(ctx context.Context, source, folder string) (domain.Avatar, error)
	Destroy(ctx context.Context, publicID string) error
	Ping(ctx context.Context) error
}

// NopStore is used when no bucket is configured. Uploads fail so callers fall
// back to externally hosted avatars.
type NopStore struct{}

func (NopStore) Upload(context.Context, string, string) (domain.Avatar, error) {
	return domain.Avatar{}, ErrNotConfigured
}

func (NopStore) Destroy(context.Context, string) error {
	return nil
}

func (NopStore) Ping(context.Context) error {
	return nil
}
