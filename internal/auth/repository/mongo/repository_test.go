package mongo

import (
	"errors"
	"testing"
	"time"

	"github.com/AnthoniusHendriyanto/patient-service/internal/auth/domain"
	autherror "github.com/AnthoniusHendriyanto/patient-service/internal/errors"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.mongodb.org/mongo-driver/v2/bson"
	"go.mongodb.org/mongo-driver/v2/mongo"
)

func lookup(t *testing.T, d bson.D, key string) any {
	t.Helper()
	for _, e := range d {
		if e.Key == key {
			return e.Value
		}
	}
	t.Fatalf("key %q not found in %v", key, d)
	return nil
}

func TestMapWriteError(t *testing.T) {
	assert.NoError(t, mapWriteError(nil))

	dup := mongo.WriteException{WriteErrors: []mongo.WriteError{{Code: 11000, Message: "E11000 duplicate key"}}}
	assert.ErrorIs(t, mapWriteError(dup), autherror.ErrEmailAlreadyInUse)

	err := mapWriteError(errors.New("socket closed"))
	assert.Error(t, err)
	assert.NotErrorIs(t, err, autherror.ErrEmailAlreadyInUse)
}

func TestProfileUpdate(t *testing.T) {
	changed := time.Date(2025, 1, 1, 0, 0, 0, 0, time.UTC)

	t.Run("leaves lockout fields alone", func(t *testing.T) {
		u := &domain.User{ID: "u-1", Email: "a@x.com", Role: "user", PasswordHash: "h", PasswordChangedAt: &changed}
		set := lookup(t, profileUpdate(u), "$set").(bson.D)

		assert.Equal(t, "h", lookup(t, set, "passwordHash"))
		assert.Equal(t, changed, lookup(t, set, "passwordChangedAt"))
		for _, e := range set {
			assert.NotEqual(t, "loginAttempts", e.Key)
			assert.NotEqual(t, "lockUntil", e.Key)
		}
	})

	t.Run("social account keeps an empty hash unset", func(t *testing.T) {
		set := lookup(t, profileUpdate(&domain.User{ID: "u-1"}), "$set").(bson.D)
		for _, e := range set {
			assert.NotEqual(t, "passwordHash", e.Key)
			assert.NotEqual(t, "passwordChangedAt", e.Key)
		}
	})
}

func TestFailedLoginPipeline(t *testing.T) {
	now := time.Date(2025, 1, 1, 0, 0, 0, 0, time.UTC)
	until := now.Add(30 * time.Minute)

	pipeline := failedLoginPipeline(now, 5, until)
	require.Len(t, pipeline, 1)

	set := lookup(t, pipeline[0], "$set").(bson.D)
	assert.Equal(t, now, lookup(t, set, "updatedAt"))

	attempts := lookup(t, lookup(t, set, "loginAttempts").(bson.D), "$cond").(bson.A)
	require.Len(t, attempts, 3)
	assert.Equal(t, 1, attempts[1])

	lock := lookup(t, lookup(t, set, "lockUntil").(bson.D), "$cond").(bson.A)
	require.Len(t, lock, 3)
	assert.Nil(t, lock[1])

	inner := lookup(t, lock[2].(bson.D), "$cond").(bson.A)
	assert.Equal(t, until, inner[1])

	// both branches share the same expiry test
	assert.Equal(t, attempts[0], lock[0])

	_, err := bson.Marshal(bson.D{{Key: "pipeline", Value: pipeline}})
	assert.NoError(t, err)
}
