package repository

import (
	"context"
	"errors"
	"fmt"
	"time"

	identityerrors "sessly/internal/identity/errors"
	"sessly/pkg/auth"
	"sessly/pkg/config"
	"sessly/pkg/model"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
)

const (
	CollectionName = "Users"
)

type mongoUserRepository struct {
	cfg        *config.Config
	db         *mongo.Database
	collection *mongo.Collection
}

type UserRepository interface {
	EnsureIndexes(ctx context.Context) error
	UpsertFromGoogle(ctx context.Context, identity *auth.ExternalIdentity) (*model.User, error)
	FindByID(ctx context.Context, id string) (*model.User, error)
	ExtendPremium(ctx context.Context, id string, plan string, expiry time.Time) error
	CountCustomers(ctx context.Context) (int64, error)
}

func NewMongoUserRepository(cfg *config.Config) UserRepository {
	db := cfg.Client.Mongo.Database(cfg.MongoDatabaseName)
	return &mongoUserRepository{
		cfg:        cfg,
		db:         db,
		collection: db.Collection(CollectionName),
	}
}

func (r *mongoUserRepository) withTimeout(ctx context.Context, timeout time.Duration) (context.Context, context.CancelFunc) {
	if _, ok := ctx.(mongo.SessionContext); ok {
		return ctx, func() {}
	}

	deadline, hasDeadline := ctx.Deadline()
	if !hasDeadline {
		return context.WithTimeout(ctx, timeout)
	}

	remaining := time.Until(deadline)
	if remaining < timeout {
		return context.WithTimeout(ctx, remaining)
	}

	return context.WithTimeout(ctx, timeout)
}

func (r *mongoUserRepository) EnsureIndexes(ctx context.Context) error {
	ctx, cancel := r.withTimeout(ctx, r.cfg.WriteTimeout)
	defer cancel()

	_, err := r.collection.Indexes().CreateMany(ctx, []mongo.IndexModel{
		{
			Keys:    bson.D{{Key: "google_id", Value: 1}},
			Options: options.Index().SetUnique(true),
		},
		{
			Keys:    bson.D{{Key: "email", Value: 1}},
			Options: options.Index().SetUnique(true),
		},
	})
	if err != nil {
		return fmt.Errorf("failed to create user indexes: %w", err)
	}
	return nil
}

// UpsertFromGoogle finds the user by Google subject id, creating a customer
// record on first login. Name and email are refreshed from the token on every
// login; role and premium state are never touched here.
func (r *mongoUserRepository) UpsertFromGoogle(ctx context.Context, identity *auth.ExternalIdentity) (*model.User, error) {
	ctx, cancel := r.withTimeout(ctx, r.cfg.WriteTimeout)
	defer cancel()

	now := time.Now().UTC().Truncate(time.Millisecond)
	filter := bson.M{"google_id": identity.Subject}
	update := bson.M{
		"$set": bson.M{
			"name":       identity.Name,
			"email":      identity.Email,
			"updated_at": now,
		},
		"$setOnInsert": bson.M{
			"google_id":    identity.Subject,
			"role":         model.RoleCustomer,
			"premium_plan": model.PremiumNone,
			"created_at":   now,
		},
	}

	opts := options.FindOneAndUpdate().
		SetUpsert(true).
		SetReturnDocument(options.After)

	var user model.User
	if err := r.collection.FindOneAndUpdate(ctx, filter, update, opts).Decode(&user); err != nil {
		return nil, fmt.Errorf("failed to upsert user: %w", err)
	}

	return &user, nil
}

func (r *mongoUserRepository) FindByID(ctx context.Context, id string) (*model.User, error) {
	ctx, cancel := r.withTimeout(ctx, r.cfg.ReadTimeout)
	defer cancel()

	objectID, err := primitive.ObjectIDFromHex(id)
	if err != nil {
		return nil, fmt.Errorf("%w: %s", identityerrors.ErrInvalidID, id)
	}

	var user model.User
	err = r.collection.FindOne(ctx, bson.M{"_id": objectID}).Decode(&user)
	if err != nil {
		if errors.Is(err, mongo.ErrNoDocuments) {
			return nil, identityerrors.ErrNotFound
		}
		return nil, fmt.Errorf("failed to find user: %w", err)
	}

	return &user, nil
}

// ExtendPremium records the granted plan and its expiry on the user.
func (r *mongoUserRepository) ExtendPremium(ctx context.Context, id string, plan string, expiry time.Time) error {
	ctx, cancel := r.withTimeout(ctx, r.cfg.WriteTimeout)
	defer cancel()

	objectID, err := primitive.ObjectIDFromHex(id)
	if err != nil {
		return fmt.Errorf("%w: %s", identityerrors.ErrInvalidID, id)
	}

	result, err := r.collection.UpdateOne(ctx, bson.M{"_id": objectID}, bson.M{
		"$set": bson.M{
			"premium_plan":   plan,
			"premium_expiry": expiry,
			"updated_at":     time.Now().UTC().Truncate(time.Millisecond),
		},
	})
	if err != nil {
		return fmt.Errorf("failed to extend premium: %w", err)
	}

	if result.MatchedCount == 0 {
		return identityerrors.ErrNotFound
	}

	return nil
}

func (r *mongoUserRepository) CountCustomers(ctx context.Context) (int64, error) {
	ctx, cancel := r.withTimeout(ctx, r.cfg.ReadTimeout)
	defer cancel()

	count, err := r.collection.CountDocuments(ctx, bson.M{"role": model.RoleCustomer})
	if err != nil {
		return 0, fmt.Errorf("failed to count customers: %w", err)
	}

	return count, nil
}
