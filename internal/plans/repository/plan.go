package repository

import (
	"context"
	"errors"
	"fmt"
	"time"

	planserrors "sessly/internal/plans/errors"
	"sessly/pkg/config"
	"sessly/pkg/model"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
)

const (
	CollectionName = "Plans"
)

type mongoPlanRepository struct {
	cfg        *config.Config
	db         *mongo.Database
	collection *mongo.Collection
}

type PlanRepository interface {
	EnsureIndexes(ctx context.Context) error
	FindAll(ctx context.Context) ([]*model.Plan, error)
	FindByName(ctx context.Context, name string) (*model.Plan, error)
	Create(ctx context.Context, plan *model.Plan) error
	UpdatePrice(ctx context.Context, name string, price float64) error
}

func NewMongoPlanRepository(cfg *config.Config) PlanRepository {
	db := cfg.Client.Mongo.Database(cfg.MongoDatabaseName)
	return &mongoPlanRepository{
		cfg:        cfg,
		db:         db,
		collection: db.Collection(CollectionName),
	}
}

func (r *mongoPlanRepository) withTimeout(ctx context.Context, timeout time.Duration) (context.Context, context.CancelFunc) {
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

func (r *mongoPlanRepository) EnsureIndexes(ctx context.Context) error {
	ctx, cancel := r.withTimeout(ctx, r.cfg.WriteTimeout)
	defer cancel()

	_, err := r.collection.Indexes().CreateOne(ctx, mongo.IndexModel{
		Keys:    bson.D{{Key: "name", Value: 1}},
		Options: options.Index().SetUnique(true),
	})
	if err != nil {
		return fmt.Errorf("failed to create plan indexes: %w", err)
	}
	return nil
}

func (r *mongoPlanRepository) FindAll(ctx context.Context) ([]*model.Plan, error) {
	ctx, cancel := r.withTimeout(ctx, r.cfg.ReadTimeout)
	defer cancel()

	cursor, err := r.collection.Find(ctx, bson.M{}, options.Find().SetSort(bson.D{{Key: "name", Value: 1}}))
	if err != nil {
		return nil, fmt.Errorf("failed to find plans: %w", err)
	}
	defer cursor.Close(ctx)

	var plans []*model.Plan
	if err = cursor.All(ctx, &plans); err != nil {
		return nil, fmt.Errorf("failed to decode plans: %w", err)
	}

	return plans, nil
}

func (r *mongoPlanRepository) FindByName(ctx context.Context, name string) (*model.Plan, error) {
	ctx, cancel := r.withTimeout(ctx, r.cfg.ReadTimeout)
	defer cancel()

	var plan model.Plan
	err := r.collection.FindOne(ctx, bson.M{"name": name}).Decode(&plan)
	if err != nil {
		if errors.Is(err, mongo.ErrNoDocuments) {
			return nil, planserrors.ErrNotFound
		}
		return nil, fmt.Errorf("failed to find plan: %w", err)
	}

	return &plan, nil
}

func (r *mongoPlanRepository) Create(ctx context.Context, plan *model.Plan) error {
	ctx, cancel := r.withTimeout(ctx, r.cfg.WriteTimeout)
	defer cancel()

	now := time.Now().UTC().Truncate(time.Millisecond)
	plan.CreatedAt = now
	plan.UpdatedAt = now

	result, err := r.collection.InsertOne(ctx, plan)
	if err != nil {
		return fmt.Errorf("failed to create plan: %w", err)
	}

	if oid, ok := result.InsertedID.(primitive.ObjectID); ok {
		plan.ID = oid.Hex()
	}
	return nil
}

func (r *mongoPlanRepository) UpdatePrice(ctx context.Context, name string, price float64) error {
	ctx, cancel := r.withTimeout(ctx, r.cfg.WriteTimeout)
	defer cancel()

	result, err := r.collection.UpdateOne(ctx, bson.M{"name": name}, bson.M{
		"$set": bson.M{
			"price":      price,
			"updated_at": time.Now().UTC().Truncate(time.Millisecond),
		},
	})
	if err != nil {
		return fmt.Errorf("failed to update plan price: %w", err)
	}

	if result.MatchedCount == 0 {
		return planserrors.ErrNotFound
	}

	return nil
}
