package config

import (
	"log"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"time"

	"github.com/spf13/viper"
)

const (
	EnvDevelopment = "development"
	EnvProduction  = "production"
	EnvTest        = "test"
)

const (
	DefaultPort                  = "8080"
	DefaultLoginMaxAttempts      = 5
	DefaultLockDurationMin       = 30
	DefaultS3Region              = "us-east-1"
	DefaultAllowedOrigins        = "http://localhost:3000,http://localhost:3001"
	MinProductionSecretLength    = 32
	DefaultAccessTokenExpirySec  = 900
	DefaultRefreshTokenExpiryMin = 10080
	DefaultSessionTTLSec         = 604800
	DefaultBcryptCost            = 12

	DevAccessTokenExpirySec  = 300
	DevRefreshTokenExpiryMin = 4320
	DevSessionTTLSec         = 259200
	DevBcryptCost            = 10
)

type Config struct {
	Env                string
	Port               string
	DBURL              string
	RedisURL           string
	AccessTokenSecret  string
	RefreshTokenSecret string
	AccessExpirySec    int
	RefreshExpiryMin   int
	SessionTTLSec      int
	BcryptCost         int

	LoginMaxAttempts int
	LockDurationMin  int

	GlobalRateLimit       int
	LoginRateLimit        int
	RegistrationRateLimit int
	AllowedOrigins        []string

	S3Bucket    string
	S3Region    string
	S3Endpoint  string
	S3AccessKey string
	S3SecretKey string
	S3PublicURL string

	GoogleClientID string
}

// Load reads config/.env.dev or config/.env.prod (selected by ENV) and lets
// process environment variables override any value from the file.
func Load() *Config {
	env := getEnv("ENV", EnvDevelopment)
	prod := env == EnvProduction

	v := viper.New()
	v.SetConfigFile(filepath.Join("config", envFile(env)))
	v.SetConfigType("env")
	if err := v.ReadInConfig(); err != nil {
		log.Printf("No config file loaded for %s, using environment only: %v", env, err)
	}
	v.AutomaticEnv()

	cfg := &Config{
		Env:                env,
		Port:               getString(v, "PORT", DefaultPort),
		DBURL:              mustGetString(v, "DB_URL"),
		RedisURL:           mustGetString(v, "REDIS_URL"),
		AccessTokenSecret:  mustGetString(v, "ACCESS_TOKEN_SECRET"),
		RefreshTokenSecret: mustGetString(v, "REFRESH_TOKEN_SECRET"),
		AccessExpirySec:    getInt(v, "ACCESS_TOKEN_EXPIRY", pick(prod, DefaultAccessTokenExpirySec, DevAccessTokenExpirySec)),
		RefreshExpiryMin:   getInt(v, "REFRESH_TOKEN_EXPIRY", pick(prod, DefaultRefreshTokenExpiryMin, DevRefreshTokenExpiryMin)),
		SessionTTLSec:      getInt(v, "SESSION_TTL", pick(prod, DefaultSessionTTLSec, DevSessionTTLSec)),
		BcryptCost:         getInt(v, "BCRYPT_COST", pick(prod, DefaultBcryptCost, DevBcryptCost)),

		LoginMaxAttempts: getInt(v, "LOGIN_MAX_ATTEMPTS", DefaultLoginMaxAttempts),
		LockDurationMin:  getInt(v, "LOCK_DURATION_MINUTES", DefaultLockDurationMin),

		GlobalRateLimit:       getInt(v, "RATE_LIMIT_GLOBAL", pick(prod, 100, 1000)),
		LoginRateLimit:        getInt(v, "RATE_LIMIT_LOGIN", pick(prod, 100, 500)),
		RegistrationRateLimit: getInt(v, "RATE_LIMIT_REGISTRATION", pick(prod, 100, 500)),
		AllowedOrigins:        splitList(getString(v, "ALLOWED_ORIGINS", DefaultAllowedOrigins)),

		S3Bucket:    getString(v, "S3_BUCKET", ""),
		S3Region:    getString(v, "S3_REGION", DefaultS3Region),
		S3Endpoint:  getString(v, "S3_ENDPOINT", ""),
		S3AccessKey: getString(v, "S3_ACCESS_KEY", ""),
		S3SecretKey: getString(v, "S3_SECRET_KEY", ""),
		S3PublicURL: getString(v, "S3_PUBLIC_URL", ""),

		GoogleClientID: getString(v, "GOOGLE_CLIENT_ID", ""),
	}

	if prod {
		if len(cfg.AccessTokenSecret) < MinProductionSecretLength || len(cfg.RefreshTokenSecret) < MinProductionSecretLength {
			log.Fatalf("JWT secrets must be at least %d characters in production", MinProductionSecretLength)
		}
	}

	return cfg
}

func (c *Config) IsProduction() bool {
	return c.Env == EnvProduction
}

func (c *Config) AccessTokenExpiry() time.Duration {
	return time.Duration(c.AccessExpirySec) * time.Second
}

func (c *Config) RefreshTokenExpiry() time.Duration {
	return time.Duration(c.RefreshExpiryMin) * time.Minute
}

func (c *Config) SessionTTL() time.Duration {
	return time.Duration(c.SessionTTLSec) * time.Second
}

func (c *Config) LockDuration() time.Duration {
	return time.Duration(c.LockDurationMin) * time.Minute
}

func envFile(env string) string {
	if env == EnvProduction {
		return ".env.prod"
	}
	return ".env.dev"
}

func pick(prod bool, prodVal, devVal int) int {
	if prod {
		return prodVal
	}
	return devVal
}

func getEnv(key string, defaultVal string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultVal
}

func getString(v *viper.Viper, key, defaultVal string) string {
	if value := v.GetString(key); value != "" {
		return value
	}
	return defaultVal
}

func mustGetString(v *viper.Viper, key string) string {
	if value := v.GetString(key); value != "" {
		return value
	}
	log.Fatalf("Missing required config: %s", key)
	return ""
}

func getInt(v *viper.Viper, key string, defaultVal int) int {
	valStr := v.GetString(key)
	if valStr == "" {
		return defaultVal
	}
	val, err := strconv.Atoi(valStr)
	if err != nil {
		log.Printf("Invalid value for %s, using default %d", key, defaultVal)
		return defaultVal
	}
	return val
}

func splitList(s string) []string {
	var out []string
	for _, part := range strings.Split(s, ",") {
		if p := strings.TrimSpace(part); p != "" {
			out = append(out, p)
		}
	}
	return out
}
