package db

import (
	"context"
	"database/sql"
	"fmt"
	"net/url"
	"strings"
	"time"

	"github.com/AnthoniusHendriyanto/patient-service/db/migrations"
	"github.com/AnthoniusHendriyanto/patient-service/internal/auth/domain"
	"github.com/AnthoniusHendriyanto/patient-service/internal/auth/repository/memory"
	mongorepo "github.com/AnthoniusHendriyanto/patient-service/internal/auth/repository/mongo"
	repo "github.com/AnthoniusHendriyanto/patient-service/internal/auth/repository/postgres"
	"github.com/AnthoniusHendriyanto/patient-service/internal/logging"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/jackc/pgx/v5/stdlib"
	"github.com/pressly/goose/v3"
	"go.mongodb.org/mongo-driver/v2/mongo"
	"go.mongodb.org/mongo-driver/v2/mongo/options"
)

const DefaultMongoDatabase = "clinic"

// Closer releases whatever connection backs a repository.
type Closer func(ctx context.Context) error

func noopCloser(context.Context) error { return nil }

// Open picks the credential store from the DB_URL scheme.
func Open(ctx context.Context, dbURL string, log logging.Logger) (domain.UserRepository, Closer, error) {
	scheme, _, _ := strings.Cut(dbURL, "://")

	switch scheme {
	case "postgres", "postgresql":
		pool, err := NewPostgresPool(ctx, dbURL)
		if err != nil {
			return nil, nil, err
		}
		if err := Migrate(ctx, pool); err != nil {
			pool.Close()
			return nil, nil, err
		}
		log.Info(ctx, "using postgres credential store")
		return repo.NewPostgresRepository(pool), func(context.Context) error { pool.Close(); return nil }, nil

	case "mongodb", "mongodb+srv":
		client, err := NewMongoClient(ctx, dbURL)
		if err != nil {
			return nil, nil, err
		}
		r := mongorepo.NewMongoRepository(client, MongoDatabase(dbURL))
		if err := r.EnsureIndexes(ctx); err != nil {
			_ = client.Disconnect(ctx)
			return nil, nil, err
		}
		log.Info(ctx, "using mongo credential store")
		return r, client.Disconnect, nil

	case "memory":
		log.Warn(ctx, "using in-memory credential store, data is lost on restart")
		return memory.NewUserRepository(), noopCloser, nil
	}

	return nil, nil, fmt.Errorf("unsupported DB_URL scheme %q", scheme)
}

func NewPostgresPool(ctx context.Context, dbURL string) (*pgxpool.Pool, error) {
	cfg, err := pgxpool.ParseConfig(dbURL)
	if err != nil {
		return nil, fmt.Errorf("invalid DB URL: %w", err)
	}

	cfg.MaxConns = 10
	cfg.MaxConnLifetime = time.Hour

	pool, err := pgxpool.NewWithConfig(ctx, cfg)
	if err != nil {
		return nil, fmt.Errorf("failed to connect to PostgreSQL: %w", err)
	}

	pingCtx, cancel := context.WithTimeout(ctx, 5*time.Second)
	defer cancel()
	if err := pool.Ping(pingCtx); err != nil {
		pool.Close()
		return nil, fmt.Errorf("failed to ping PostgreSQL: %w", err)
	}

	return pool, nil
}

// gooseUp is swapped in tests.
var gooseUp = func(ctx context.Context, db *sql.DB, dir string, opts ...goose.OptionsFunc) error {
	return goose.UpContext(ctx, db, dir, opts...)
}

// Migrate applies the embedded SQL migrations through a database/sql view of the pool.
func Migrate(ctx context.Context, pool *pgxpool.Pool) error {
	sqlDB := stdlib.OpenDBFromPool(pool)
	defer sqlDB.Close()

	return runMigrations(ctx, sqlDB)
}

func runMigrations(ctx context.Context, sqlDB *sql.DB) error {
	goose.SetBaseFS(migrations.FS)
	if err := goose.SetDialect("pgx"); err != nil {
		return fmt.Errorf("failed to set migration dialect: %w", err)
	}
	if err := gooseUp(ctx, sqlDB, "."); err != nil {
		return fmt.Errorf("failed to run migrations: %w", err)
	}
	return nil
}

func NewMongoClient(ctx context.Context, dbURL string) (*mongo.Client, error) {
	client, err := mongo.Connect(options.Client().ApplyURI(dbURL).SetConnectTimeout(5 * time.Second))
	if err != nil {
		return nil, fmt.Errorf("failed to connect to MongoDB: %w", err)
	}

	pingCtx, cancel := context.WithTimeout(ctx, 5*time.Second)
	defer cancel()
	if err := client.Ping(pingCtx, nil); err != nil {
		_ = client.Disconnect(ctx)
		return nil, fmt.Errorf("failed to ping MongoDB: %w", err)
	}
	return client, nil
}

// MongoDatabase returns the database named in the URL path, or DefaultMongoDatabase.
func MongoDatabase(dbURL string) string {
	u, err := url.Parse(dbURL)
	if err != nil {
		return DefaultMongoDatabase
	}
	if name := strings.Trim(u.Path, "/"); name != "" {
		return name
	}
	return DefaultMongoDatabase
}
