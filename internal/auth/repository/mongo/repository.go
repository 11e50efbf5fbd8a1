package mongo

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/AnthoniusHendriyanto/patient-service/internal/auth/domain"
	autherror "github.com/AnthoniusHendriyanto/patient-service/internal/errors"
	"go.mongodb.org/mongo-driver/v2/bson"
	"go.mongodb.org/mongo-driver/v2/mongo"
	"go.mongodb.org/mongo-driver/v2/mongo/options"
)

const CollectionName = "users"

type MongoRepository struct {
	client *mongo.Client
	users  *mongo.Collection
}

func NewMongoRepository(client *mongo.Client, database string) *MongoRepository {
	return &MongoRepository{
		client: client,
		users:  client.Database(database).Collection(CollectionName),
	}
}

// EnsureIndexes creates the unique email index. Emails are stored normalized,
// so a plain unique index gives case-insensitive uniqueness.
func (r *MongoRepository) EnsureIndexes(ctx context.Context) error {
	_, err := r.users.Indexes().CreateOne(ctx, mongo.IndexModel{
		Keys:    bson.D{{Key: "email", Value: 1}},
		Options: options.Index().SetUnique(true).SetName("users_email_unique"),
	})
	if err != nil {
		return fmt.Errorf("failed to create email index: %w", err)
	}
	return nil
}

func (r *MongoRepository) GetByEmail(ctx context.Context, email string) (*domain.User, error) {
	return r.findOne(ctx, bson.D{{Key: "email", Value: domain.NormalizeEmail(email)}})
}

func (r *MongoRepository) GetByID(ctx context.Context, id string) (*domain.User, error) {
	return r.findOne(ctx, byID(id))
}

func (r *MongoRepository) Count(ctx context.Context) (int64, error) {
	n, err := r.users.CountDocuments(ctx, bson.D{})
	if err != nil {
		return 0, fmt.Errorf("failed to count users: %w", err)
	}
	return n, nil
}

func (r *MongoRepository) List(ctx context.Context) ([]*domain.User, error) {
	cur, err := r.users.Find(ctx, bson.D{}, options.Find().SetSort(bson.D{{Key: "createdAt", Value: -1}}))
	if err != nil {
		return nil, fmt.Errorf("failed to list users: %w", err)
	}

	var users []*domain.User
	if err := cur.All(ctx, &users); err != nil {
		return nil, fmt.Errorf("failed to decode users: %w", err)
	}
	return users, nil
}

func (r *MongoRepository) Create(ctx context.Context, user *domain.User) error {
	_, err := r.users.InsertOne(ctx, user)
	return mapWriteError(err)
}

// Update persists profile fields and leaves the lockout counters alone.
func (r *MongoRepository) Update(ctx context.Context, user *domain.User) error {
	res, err := r.users.UpdateOne(ctx, byID(user.ID), profileUpdate(user))
	if err != nil {
		return mapWriteError(err)
	}
	if res.MatchedCount == 0 {
		return autherror.ErrUserNotFound
	}
	return nil
}

func (r *MongoRepository) Delete(ctx context.Context, id string) error {
	res, err := r.users.DeleteOne(ctx, byID(id))
	if err != nil {
		return fmt.Errorf("failed to delete user: %w", err)
	}
	if res.DeletedCount == 0 {
		return autherror.ErrUserNotFound
	}
	return nil
}

// RegisterFailedLogin runs the failure transition as a pipeline update, which
// mongo applies to a single document atomically.
func (r *MongoRepository) RegisterFailedLogin(ctx context.Context, id string, now time.Time, maxAttempts int, lockUntil time.Time) (*domain.LoginState, error) {
	opts := options.FindOneAndUpdate().
		SetReturnDocument(options.After).
		SetProjection(bson.D{{Key: "loginAttempts", Value: 1}, {Key: "lockUntil", Value: 1}})

	var doc struct {
		Attempts  int        `bson:"loginAttempts"`
		LockUntil *time.Time `bson:"lockUntil"`
	}
	err := r.users.FindOneAndUpdate(ctx, byID(id), failedLoginPipeline(now, maxAttempts, lockUntil), opts).Decode(&doc)
	if errors.Is(err, mongo.ErrNoDocuments) {
		return nil, autherror.ErrUserNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("failed to register failed login: %w", err)
	}
	return &domain.LoginState{Attempts: doc.Attempts, LockUntil: doc.LockUntil}, nil
}

func (r *MongoRepository) ResetLoginAttempts(ctx context.Context, id string, now time.Time) error {
	res, err := r.users.UpdateOne(ctx, byID(id), bson.D{
		{Key: "$set", Value: bson.D{
			{Key: "loginAttempts", Value: 0},
			{Key: "lastLogin", Value: now},
			{Key: "updatedAt", Value: now},
		}},
		{Key: "$unset", Value: bson.D{{Key: "lockUntil", Value: ""}}},
	})
	if err != nil {
		return fmt.Errorf("failed to reset login attempts: %w", err)
	}
	if res.MatchedCount == 0 {
		return autherror.ErrUserNotFound
	}
	return nil
}

func (r *MongoRepository) Ping(ctx context.Context) error {
	return r.client.Ping(ctx, nil)
}

func (r *MongoRepository) findOne(ctx context.Context, filter bson.D) (*domain.User, error) {
	var u domain.User
	err := r.users.FindOne(ctx, filter).Decode(&u)
	if errors.Is(err, mongo.ErrNoDocuments) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to find user: %w", err)
	}
	return &u, nil
}

func byID(id string) bson.D {
	return bson.D{{Key: "_id", Value: id}}
}

func profileUpdate(u *domain.User) bson.D {
	set := bson.D{
		{Key: "email", Value: u.Email},
		{Key: "role", Value: u.Role},
		{Key: "isVerified", Value: u.IsVerified},
		{Key: "avatar", Value: u.Avatar},
		{Key: "updatedAt", Value: u.UpdatedAt},
	}
	if u.PasswordHash != "" {
		set = append(set, bson.E{Key: "passwordHash", Value: u.PasswordHash})
	}
	if u.PasswordChangedAt != nil {
		set = append(set, bson.E{Key: "passwordChangedAt", Value: *u.PasswordChangedAt})
	}
	return bson.D{{Key: "$set", Value: set}}
}

// failedLoginPipeline mirrors domain.LoginState.AfterFailure. All expressions in
// one $set stage read the document as it was before the stage.
func failedLoginPipeline(now time.Time, maxAttempts int, lockUntil time.Time) mongo.Pipeline {
	lock := bson.D{{Key: "$ifNull", Value: bson.A{"$lockUntil", nil}}}
	attempts := bson.D{{Key: "$ifNull", Value: bson.A{"$loginAttempts", 0}}}

	expired := bson.D{{Key: "$and", Value: bson.A{
		bson.D{{Key: "$ne", Value: bson.A{lock, nil}}},
		bson.D{{Key: "$lte", Value: bson.A{lock, now}}},
	}}}
	reachesLimit := bson.D{{Key: "$and", Value: bson.A{
		bson.D{{Key: "$eq", Value: bson.A{lock, nil}}},
		bson.D{{Key: "$gte", Value: bson.A{bson.D{{Key: "$add", Value: bson.A{attempts, 1}}}, maxAttempts}}},
	}}}

	return mongo.Pipeline{
		{{Key: "$set", Value: bson.D{
			{Key: "loginAttempts", Value: bson.D{{Key: "$cond", Value: bson.A{
				expired, 1, bson.D{{Key: "$add", Value: bson.A{attempts, 1}}},
			}}}},
			{Key: "lockUntil", Value: bson.D{{Key: "$cond", Value: bson.A{
				expired, nil,
				bson.D{{Key: "$cond", Value: bson.A{reachesLimit, lockUntil, lock}}},
			}}}},
			{Key: "updatedAt", Value: now},
		}}},
	}
}

func mapWriteError(err error) error {
	if err == nil {
		return nil
	}
	if mongo.IsDuplicateKeyError(err) {
		return autherror.ErrEmailAlreadyInUse
	}
	return fmt.Errorf("failed to write user: %w", err)
}
