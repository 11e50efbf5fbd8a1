package handler

import (
	"time"

	"github.com/AnthoniusHendriyanto/patient-service/pkg/constant"
	"github.com/gofiber/fiber/v2"
)

// Cookies writes the token cookies. Production cookies are Secure and
// SameSite=Strict; elsewhere they are Lax so plain http works locally.
type Cookies struct {
	Production bool
}

func (k Cookies) SetAccess(c *fiber.Ctx, token string, ttl time.Duration) {
	c.Cookie(k.cookie(constant.AccessTokenCookie, token, ttl))
}

func (k Cookies) SetRefresh(c *fiber.Ctx, token string, ttl time.Duration) {
	c.Cookie(k.cookie(constant.RefreshTokenCookie, token, ttl))
}

// Clear expires both token cookies.
func (k Cookies) Clear(c *fiber.Ctx) {
	for _, name := range []string{constant.AccessTokenCookie, constant.RefreshTokenCookie} {
		cookie := k.cookie(name, "", 0)
		cookie.MaxAge = -1
		cookie.Expires = time.Unix(0, 0)
		c.Cookie(cookie)
	}
}

func (k Cookies) cookie(name, value string, ttl time.Duration) *fiber.Cookie {
	sameSite := fiber.CookieSameSiteLaxMode
	if k.Production {
		sameSite = fiber.CookieSameSiteStrictMode
	}

	return &fiber.Cookie{
		Name:     name,
		Value:    value,
		Path:     "/",
		MaxAge:   int(ttl.Seconds()),
		Expires:  time.Now().Add(ttl),
		HTTPOnly: true,
		Secure:   k.Production,
		SameSite: sameSite,
	}
}
