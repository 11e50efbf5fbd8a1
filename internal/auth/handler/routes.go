package handler

import (
	"context"
	"strings"
	"time"

	autherror "github.com/AnthoniusHendriyanto/patient-service/internal/errors"
	"github.com/AnthoniusHendriyanto/patient-service/internal/logging"
	"github.com/AnthoniusHendriyanto/patient-service/internal/response"
	"github.com/AnthoniusHendriyanto/patient-service/pkg/constant"
	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/fiber/v2/middleware/compress"
	"github.com/gofiber/fiber/v2/middleware/cors"
	"github.com/gofiber/fiber/v2/middleware/helmet"
	"github.com/gofiber/fiber/v2/middleware/limiter"
	"github.com/gofiber/fiber/v2/middleware/recover"
	"github.com/gofiber/fiber/v2/middleware/requestid"
)

const (
	loginWindow        = 15 * time.Minute
	registrationWindow = time.Hour
	globalWindow       = 15 * time.Minute
	healthTimeout      = 2 * time.Second
)

// Pinger is anything the health endpoint can check.
type Pinger interface {
	Ping(ctx context.Context) error
}

// RateLimits are requests per client IP per window. Zero disables a limit.
type RateLimits struct {
	Login        int
	Registration int
	Global       int
}

type Routes struct {
	Auth           *AuthHandler
	Users          *UserHandler
	Middleware     *AuthMiddleware
	Limits         RateLimits
	AllowedOrigins []string
	Checks         map[string]Pinger
	Log            logging.Logger
}

func RegisterRoutes(app *fiber.App, r Routes) {
	app.Use(recover.New())
	app.Use(requestid.New(requestid.Config{
		Header:     constant.RequestIDHeader,
		ContextKey: constant.RequestIDLocal,
	}))
	app.Use(RequestLogger(r.Log))
	app.Use(helmet.New())
	app.Use(corsMiddleware(r.AllowedOrigins))
	app.Use(compress.New())

	app.Get("/health", Health(r.Checks))

	api := app.Group("/api/v1", rateLimit(r.Limits.Global, globalWindow))
	api.Get("/", func(c *fiber.Ctx) error {
		return response.Success(c, fiber.StatusOK, "Patient service API", fiber.Map{"version": "v1"})
	})

	auth := api.Group("/auth")
	auth.Post("/registration", rateLimit(r.Limits.Registration, registrationWindow), r.Auth.Register)
	auth.Post("/login", rateLimit(r.Limits.Login, loginWindow), r.Auth.Login)
	auth.Get("/logout", r.Middleware.Identify, r.Auth.Logout)
	auth.Post("/refresh", r.Auth.Refresh)
	auth.Post("/social-auth", rateLimit(r.Limits.Login, loginWindow), r.Auth.SocialAuth)
	auth.Post("/create-admin", r.Middleware.Authenticate, RequireRole(constant.RoleAdmin), r.Auth.CreateAdmin)

	users := api.Group("/users", r.Middleware.Authenticate)
	users.Get("/me", r.Users.Me)
	users.Put("/update-info", r.Users.UpdateInfo)
	users.Put("/update-password", r.Users.UpdatePassword)
	users.Put("/update-avatar", r.Users.UpdateAvatar)
	users.Get("/profile/:id", r.Users.Profile)

	// Admin-only endpoints
	adminOnly := RequireRole(constant.RoleAdmin)
	users.Get("/all-users", adminOnly, r.Users.AllUsers)
	users.Put("/update-role", adminOnly, r.Users.UpdateRole)
	users.Delete("/delete/:id", adminOnly, r.Users.Delete)
}

// Health pings every dependency and answers 503 when any of them is down.
func Health(checks map[string]Pinger) fiber.Handler {
	return func(c *fiber.Ctx) error {
		ctx, cancel := context.WithTimeout(c.UserContext(), healthTimeout)
		defer cancel()

		services := make(map[string]string, len(checks))
		healthy := true
		for name, p := range checks {
			if err := p.Ping(ctx); err != nil {
				services[name] = "DOWN"
				healthy = false
				continue
			}
			services[name] = "UP"
		}

		status, state := fiber.StatusOK, "OK"
		if !healthy {
			status, state = fiber.StatusServiceUnavailable, "DEGRADED"
		}
		return c.Status(status).JSON(fiber.Map{
			"status":    state,
			"services":  services,
			"timestamp": time.Now().UTC(),
		})
	}
}

func rateLimit(limit int, window time.Duration) fiber.Handler {
	return limiter.New(limiter.Config{
		Next:       func(*fiber.Ctx) bool { return limit <= 0 },
		Max:        limit,
		Expiration: window,
		KeyGenerator: func(c *fiber.Ctx) string {
			return c.IP()
		},
		LimitReached: func(*fiber.Ctx) error {
			return autherror.ErrRateLimited
		},
	})
}

func corsMiddleware(origins []string) fiber.Handler {
	if len(origins) == 0 {
		return cors.New()
	}
	return cors.New(cors.Config{
		AllowOrigins:     strings.Join(origins, ","),
		AllowCredentials: true,
		AllowHeaders: strings.Join([]string{
			fiber.HeaderOrigin, fiber.HeaderContentType, fiber.HeaderAccept, fiber.HeaderAuthorization,
			constant.AccessTokenHeader, constant.RefreshTokenHeader, constant.RequestIDHeader,
		}, ","),
		ExposeHeaders: strings.Join([]string{constant.AccessTokenHeader, constant.RequestIDHeader}, ","),
	})
}
