package db

import (
	"context"
	"database/sql"
	"errors"
	"io/fs"
	"testing"

	"github.com/AnthoniusHendriyanto/patient-service/db/migrations"
	"github.com/AnthoniusHendriyanto/patient-service/internal/auth/repository/memory"
	"github.com/AnthoniusHendriyanto/patient-service/internal/logging"
	"github.com/pressly/goose/v3"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestOpen_Memory(t *testing.T) {
	r, closeFn, err := Open(context.Background(), "memory://", logging.Nop())
	require.NoError(t, err)
	assert.IsType(t, &memory.UserRepository{}, r)
	assert.NoError(t, closeFn(context.Background()))
}

func TestOpen_UnsupportedScheme(t *testing.T) {
	_, _, err := Open(context.Background(), "mysql://root@localhost/clinic", logging.Nop())
	assert.ErrorContains(t, err, `unsupported DB_URL scheme "mysql"`)
}

func TestNewPostgresPool_InvalidURL(t *testing.T) {
	_, err := NewPostgresPool(context.Background(), "postgres://%zz")
	assert.ErrorContains(t, err, "invalid DB URL")
}

func TestMongoDatabase(t *testing.T) {
	assert.Equal(t, "patients", MongoDatabase("mongodb://localhost:27017/patients?retryWrites=true"))
	assert.Equal(t, DefaultMongoDatabase, MongoDatabase("mongodb://localhost:27017"))
	assert.Equal(t, DefaultMongoDatabase, MongoDatabase("mongodb://localhost:27017/"))
}

func TestEmbeddedMigrations(t *testing.T) {
	files, err := fs.Glob(migrations.FS, "*.sql")
	require.NoError(t, err)
	assert.Contains(t, files, "00001_create_users.sql")
}

func TestRunMigrations(t *testing.T) {
	orig := gooseUp
	t.Cleanup(func() { gooseUp = orig })

	var dir string
	gooseUp = func(_ context.Context, _ *sql.DB, d string, _ ...goose.OptionsFunc) error {
		dir = d
		return nil
	}
	require.NoError(t, runMigrations(context.Background(), nil))
	assert.Equal(t, ".", dir)

	gooseUp = func(context.Context, *sql.DB, string, ...goose.OptionsFunc) error {
		return errors.New("boom")
	}
	assert.ErrorContains(t, runMigrations(context.Background(), nil), "failed to run migrations")
}
