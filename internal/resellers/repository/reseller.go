package repository

import (
	"context"
	"errors"
	"fmt"
	resellerserrors "carhub/internal/resellers/errors"
	"carhub/pkg/config"
	mongotx "carhub/pkg/db/mongo"
	"carhub/pkg/model"
	"time"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
)

const (
	CollectionName = "Resellers"
)

type ResellerRepository interface {
	Create(ctx context.Context, reseller *model.Reseller) error
	FindByID(ctx context.Context, id string) (*model.Reseller, error)
	FindAll(ctx context.Context, activeOnly bool, limit int, offset int64) ([]*model.Reseller, error)
	Count(ctx context.Context, activeOnly bool) (int64, error)
	Update(ctx context.Context, id string, reseller *model.Reseller) error
	Delete(ctx context.Context, id string) error
}

type mongoResellerRepository struct {
	cfg        *config.Config
	collection *mongo.Collection
}

func NewMongoResellerRepository(cfg *config.Config) ResellerRepository {
	db := cfg.Client.Mongo.Database(cfg.MongoDatabaseName)
	return &mongoResellerRepository{
		cfg:        cfg,
		collection: db.Collection(CollectionName),
	}
}

func activeFilter(activeOnly bool) bson.M {
	if activeOnly {
		return bson.M{"active": true}
	}
	return bson.M{}
}

func (r *mongoResellerRepository) Create(ctx context.Context, reseller *model.Reseller) error {
	ctx, cancel := mongotx.WithTimeout(ctx, r.cfg.WriteTimeout)
	defer cancel()

	reseller.CreatedAt = time.Now().UTC().Truncate(time.Millisecond)
	result, err := r.collection.InsertOne(ctx, reseller)
	if err != nil {
		if mongotx.IsDuplicateKey(err) {
			return fmt.Errorf("%w: %s", resellerserrors.ErrDuplicateEmail, reseller.Email)
		}
		return fmt.Errorf("failed to create reseller: %w", err)
	}

	if oid, ok := result.InsertedID.(primitive.ObjectID); ok {
		reseller.ID = oid.Hex()
	}

	return nil
}

func (r *mongoResellerRepository) FindByID(ctx context.Context, id string) (*model.Reseller, error) {
	ctx, cancel := mongotx.WithTimeout(ctx, r.cfg.ReadTimeout)
	defer cancel()

	objectID, err := primitive.ObjectIDFromHex(id)
	if err != nil {
		return nil, fmt.Errorf("%w: %s", resellerserrors.ErrInvalidID, id)
	}

	var reseller model.Reseller
	if err := r.collection.FindOne(ctx, bson.M{"_id": objectID}).Decode(&reseller); err != nil {
		if errors.Is(err, mongo.ErrNoDocuments) {
			return nil, fmt.Errorf("%w: %s", resellerserrors.ErrNotFound, id)
		}
		return nil, fmt.Errorf("failed to find reseller: %w", err)
	}
	return &reseller, nil
}

func (r *mongoResellerRepository) FindAll(ctx context.Context, activeOnly bool, limit int, offset int64) ([]*model.Reseller, error) {
	ctx, cancel := mongotx.WithTimeout(ctx, r.cfg.ReadTimeout)
	defer cancel()

	opts := options.Find().
		SetLimit(int64(limit)).
		SetSkip(offset).
		SetSort(bson.D{{Key: "name", Value: 1}})

	cursor, err := r.collection.Find(ctx, activeFilter(activeOnly), opts)
	if err != nil {
		return nil, fmt.Errorf("failed to query resellers: %w", err)
	}
	defer cursor.Close(ctx)

	resellers := []*model.Reseller{}
	if err := cursor.All(ctx, &resellers); err != nil {
		return nil, fmt.Errorf("failed to decode resellers: %w", err)
	}
	return resellers, nil
}

func (r *mongoResellerRepository) Count(ctx context.Context, activeOnly bool) (int64, error) {
	ctx, cancel := mongotx.WithTimeout(ctx, r.cfg.ReadTimeout)
	defer cancel()

	count, err := r.collection.CountDocuments(ctx, activeFilter(activeOnly))
	if err != nil {
		return 0, fmt.Errorf("failed to count resellers: %w", err)
	}
	return count, nil
}

func (r *mongoResellerRepository) Update(ctx context.Context, id string, reseller *model.Reseller) error {
	ctx, cancel := mongotx.WithTimeout(ctx, r.cfg.WriteTimeout)
	defer cancel()

	objectID, err := primitive.ObjectIDFromHex(id)
	if err != nil {
		return fmt.Errorf("%w: %s", resellerserrors.ErrInvalidID, id)
	}

	update := bson.M{
		"$set": bson.M{
			"name":            reseller.Name,
			"company":         reseller.Company,
			"phone":           reseller.Phone,
			"email":           reseller.Email,
			"commission_rate": reseller.CommissionRate,
			"active":          reseller.Active,
		},
	}

	result, err := r.collection.UpdateOne(ctx, bson.M{"_id": objectID}, update)
	if err != nil {
		if mongotx.IsDuplicateKey(err) {
			return fmt.Errorf("%w: %s", resellerserrors.ErrDuplicateEmail, reseller.Email)
		}
		return fmt.Errorf("failed to update reseller: %w", err)
	}
	if result.MatchedCount == 0 {
		return fmt.Errorf("%w: %s", resellerserrors.ErrNotFound, id)
	}
	return nil
}

func (r *mongoResellerRepository) Delete(ctx context.Context, id string) error {
	ctx, cancel := mongotx.WithTimeout(ctx, r.cfg.WriteTimeout)
	defer cancel()

	objectID, err := primitive.ObjectIDFromHex(id)
	if err != nil {
		return fmt.Errorf("%w: %s", resellerserrors.ErrInvalidID, id)
	}

	result, err := r.collection.DeleteOne(ctx, bson.M{"_id": objectID})
	if err != nil {
		return fmt.Errorf("failed to delete reseller: %w", err)
	}
	if result.DeletedCount == 0 {
		return fmt.Errorf("%w: %s", resellerserrors.ErrNotFound, id)
	}
	return nil
}
