package handler

import (
	"errors"
	"strings"
	"time"

	"github.com/AnthoniusHendriyanto/patient-service/internal/auth/domain"
	"github.com/AnthoniusHendriyanto/patient-service/internal/auth/service"
	autherror "github.com/AnthoniusHendriyanto/patient-service/internal/errors"
	"github.com/AnthoniusHendriyanto/patient-service/internal/logging"
	"github.com/AnthoniusHendriyanto/patient-service/internal/response"
	"github.com/AnthoniusHendriyanto/patient-service/pkg/constant"
	"github.com/gofiber/fiber/v2"
)

type AuthMiddleware struct {
	userService *service.UserService
	cookies     Cookies
	log         logging.Logger
}

func NewAuthMiddleware(userService *service.UserService, cookies Cookies, log logging.Logger) *AuthMiddleware {
	return &AuthMiddleware{userService: userService, cookies: cookies, log: log}
}

// Authenticate resolves the caller from the access token and the cached
// session. An expired access token is renewed with the refresh token when one
// is supplied, and the new token is returned as a cookie and a header.
func (m *AuthMiddleware) Authenticate(c *fiber.Ctx) error {
	if err := m.resolve(c); err != nil {
		return err
	}
	return c.Next()
}

// Identify is Authenticate for routes that also serve anonymous callers.
// Rejected credentials leave the caller Anonymous; other failures still abort.
func (m *AuthMiddleware) Identify(c *fiber.Ctx) error {
	if err := m.resolve(c); err != nil && autherror.Status(err) != fiber.StatusUnauthorized {
		return err
	}
	return c.Next()
}

func (m *AuthMiddleware) resolve(c *fiber.Ctx) error {
	res, err := m.userService.Authenticate(c.UserContext(), accessToken(c), refreshToken(c))
	if err != nil {
		return err
	}

	if res.RefreshedAccessToken != "" {
		m.cookies.SetAccess(c, res.RefreshedAccessToken, res.AccessTokenExpiry)
		c.Set(constant.AccessTokenHeader, res.RefreshedAccessToken)
		m.log.Debug(c.UserContext(), "access token refreshed", "user_id", res.Identity.ID)
	}

	c.Locals(constant.IdentityLocal, res.Identity)
	return nil
}

// RequireRole lets the request through only when the authenticated caller
// holds one of roles. It must run after Authenticate.
func RequireRole(roles ...string) fiber.Handler {
	return func(c *fiber.Ctx) error {
		switch id := IdentityFrom(c).(type) {
		case domain.Authenticated:
			if !id.HasRole(roles...) {
				return &autherror.AppError{
					Status:  fiber.StatusForbidden,
					Message: "Role: " + id.Role + " is not allowed to access this resource",
					Err:     autherror.ErrForbidden,
				}
			}
			return c.Next()
		default:
			return autherror.ErrUnauthenticated
		}
	}
}

// IdentityFrom returns the caller resolved by Authenticate, or domain.Anonymous.
func IdentityFrom(c *fiber.Ctx) domain.Identity {
	if id, ok := c.Locals(constant.IdentityLocal).(domain.Authenticated); ok {
		return id
	}
	return domain.Anonymous{}
}

func mustIdentity(c *fiber.Ctx) (domain.Authenticated, error) {
	id, ok := IdentityFrom(c).(domain.Authenticated)
	if !ok {
		return domain.Authenticated{}, autherror.ErrUnauthenticated
	}
	return id, nil
}

// RequestLogger logs one line per request once the handler chain has finished.
func RequestLogger(log logging.Logger) fiber.Handler {
	return func(c *fiber.Ctx) error {
		start := time.Now()
		chainErr := c.Next()

		status := c.Response().StatusCode()
		if chainErr != nil {
			status = autherror.Status(chainErr)
			var fe *fiber.Error
			if errors.As(chainErr, &fe) {
				status = fe.Code
			}
		}

		fields := []any{
			"method", c.Method(),
			"path", c.Path(),
			"status", status,
			"latency", time.Since(start).String(),
			"request_id", response.RequestID(c),
		}
		if id, ok := IdentityFrom(c).(domain.Authenticated); ok {
			fields = append(fields, "user_id", id.ID)
		}

		if status >= fiber.StatusBadRequest {
			log.Error(c.UserContext(), "request", fields...)
		} else {
			log.Info(c.UserContext(), "request", fields...)
		}
		return chainErr
	}
}

func accessToken(c *fiber.Ctx) string {
	if t := c.Get(constant.AccessTokenHeader); t != "" {
		return t
	}
	if auth := c.Get(fiber.HeaderAuthorization); auth != "" {
		if t, ok := strings.CutPrefix(auth, "Bearer "); ok {
			return strings.TrimSpace(t)
		}
	}
	return c.Cookies(constant.AccessTokenCookie)
}

func refreshToken(c *fiber.Ctx) string {
	if t := c.Get(constant.RefreshTokenHeader); t != "" {
		return t
	}
	return c.Cookies(constant.RefreshTokenCookie)
}
