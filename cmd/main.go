package main

import (
	"context"
	"errors"
	"os"
	"os/signal"
	"strings"
	"syscall"
	"time"

	"github.com/AnthoniusHendriyanto/patient-service/config"
	"github.com/AnthoniusHendriyanto/patient-service/db"
	"github.com/AnthoniusHendriyanto/patient-service/internal/auth/handler"
	"github.com/AnthoniusHendriyanto/patient-service/internal/auth/service"
	"github.com/AnthoniusHendriyanto/patient-service/internal/cache"
	"github.com/AnthoniusHendriyanto/patient-service/internal/logging"
	"github.com/AnthoniusHendriyanto/patient-service/internal/media"
	"github.com/AnthoniusHendriyanto/patient-service/internal/response"
	"github.com/AnthoniusHendriyanto/patient-service/internal/social"
	"github.com/gofiber/fiber/v2"
)

const shutdownTimeout = 10 * time.Second

func main() {
	cfg := config.Load()
	log := logging.New(cfg.IsProduction())

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	if err := run(ctx, cfg, log); err != nil {
		log.Error(ctx, "server stopped", "error", err)
		os.Exit(1)
	}
}

func run(ctx context.Context, cfg *config.Config, log logging.Logger) error {
	userRepo, closeDB, err := db.Open(ctx, cfg.DBURL, log)
	if err != nil {
		return err
	}
	defer func() { _ = closeDB(context.Background()) }()

	sessionCache, closeCache, err := openCache(ctx, cfg.RedisURL, log)
	if err != nil {
		return err
	}
	defer func() { _ = closeCache() }()

	mediaStore, err := media.New(ctx, cfg)
	if err != nil {
		return err
	}

	minSecret := 0
	if cfg.IsProduction() {
		minSecret = config.MinProductionSecretLength
	}
	tokenService := service.NewTokenService(cfg.AccessTokenSecret, cfg.RefreshTokenSecret,
		cfg.AccessTokenExpiry(), cfg.RefreshTokenExpiry(), minSecret)
	sessions := service.NewSessionStore(sessionCache, cfg.SessionTTL())

	opts := []service.Option{service.WithMediaStore(mediaStore), service.WithLogger(log)}
	if cfg.GoogleClientID != "" {
		verifier, err := social.NewGoogleVerifier(ctx, cfg.GoogleClientID)
		if err != nil {
			return err
		}
		opts = append(opts, service.WithSocialVerifier(verifier))
	}
	userService := service.NewUserService(userRepo, tokenService, sessions, cfg, opts...)

	validator := handler.NewValidator(cfg.IsProduction())
	cookies := handler.Cookies{Production: cfg.IsProduction()}

	app := fiber.New(fiber.Config{
		AppName:      "patient-service",
		ErrorHandler: response.ErrorHandler(log, cfg.IsProduction()),
		ReadTimeout:  15 * time.Second,
		WriteTimeout: 15 * time.Second,
		BodyLimit:    10 * 1024 * 1024,
	})
	handler.RegisterRoutes(app, handler.Routes{
		Auth:       handler.NewAuthHandler(userService, validator, cookies),
		Users:      handler.NewUserHandler(userService, validator),
		Middleware: handler.NewAuthMiddleware(userService, cookies, log),
		Limits: handler.RateLimits{
			Login:        cfg.LoginRateLimit,
			Registration: cfg.RegistrationRateLimit,
			Global:       cfg.GlobalRateLimit,
		},
		AllowedOrigins: cfg.AllowedOrigins,
		Checks: map[string]handler.Pinger{
			"database": userRepo,
			"cache":    sessionCache,
			"media":    mediaStore,
		},
		Log: log,
	})

	errCh := make(chan error, 1)
	go func() {
		log.Info(ctx, "server listening", "port", cfg.Port, "env", cfg.Env)
		errCh <- app.Listen(":" + cfg.Port)
	}()

	select {
	case err := <-errCh:
		return err
	case <-ctx.Done():
	}

	log.Info(context.Background(), "shutting down")
	shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
	defer cancel()
	if err := app.ShutdownWithContext(shutdownCtx); err != nil && !errors.Is(err, context.DeadlineExceeded) {
		return err
	}
	return nil
}

// openCache connects to redis, or keeps sessions in process for REDIS_URL=memory://.
func openCache(ctx context.Context, url string, log logging.Logger) (cache.Cache, func() error, error) {
	if strings.HasPrefix(url, "memory://") {
		log.Warn(ctx, "using in-memory session cache, sessions are lost on restart")
		return cache.NewMemoryCache(), func() error { return nil }, nil
	}

	rc, err := cache.Connect(ctx, url)
	if err != nil {
		return nil, nil, err
	}
	return rc, rc.Close, nil
}
