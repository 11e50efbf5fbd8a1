package constant

const (
	RoleUser  = "user"
	RoleAdmin = "admin"
)

const (
	AccessTokenCookie  = "access_token"
	RefreshTokenCookie = "refresh_token"

	AccessTokenHeader  = "access-token"
	RefreshTokenHeader = "refresh-token"
	RequestIDHeader    = "X-Request-ID"
)

// SessionKeyPrefix namespaces session snapshots in the cache.
const SessionKeyPrefix = "session:"

const (
	DefaultAvatarBaseURL = "https://ui-avatars.com/api/"
	ExternalAvatarPrefix = "external_"
)

// Fiber locals keys.
const (
	IdentityLocal  = "identity"
	RequestIDLocal = "requestid"
)
