package repository

import (
	"context"
	"fmt"
	"carhub/pkg/config"
	mongotx "carhub/pkg/db/mongo"
	"carhub/pkg/model"
	"time"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
)

const (
	CollectionName = "Commission_ledger"
)

type CommissionRepository interface {
	// Insert stores entry unless an entry for the same booking exists. It
	// reports whether a document was written.
	Insert(ctx context.Context, entry *model.CommissionEntry) (bool, error)
	// UpdateStatus moves an entry to status only if it is currently in one of
	// from. It reports whether an entry matched.
	UpdateStatus(ctx context.Context, bookingID string, from []string, status string) (bool, error)
	FindByReseller(ctx context.Context, resellerID string, status string, limit int, offset int64) ([]*model.CommissionEntry, error)
	CountByReseller(ctx context.Context, resellerID string, status string) (int64, error)
	SumByStatus(ctx context.Context, resellerID string) (map[string]model.CommissionTotals, error)
}

type mongoCommissionRepository struct {
	cfg        *config.Config
	collection *mongo.Collection
}

func NewMongoCommissionRepository(cfg *config.Config) CommissionRepository {
	return &mongoCommissionRepository{
		cfg:        cfg,
		collection: cfg.Client.Mongo.Database(cfg.MongoDatabaseName).Collection(CollectionName),
	}
}

func (r *mongoCommissionRepository) Insert(ctx context.Context, entry *model.CommissionEntry) (bool, error) {
	ctx, cancel := mongotx.WithTimeout(ctx, r.cfg.WriteTimeout)
	defer cancel()

	now := time.Now().UTC().Truncate(time.Millisecond)
	entry.CreatedAt = now
	entry.UpdatedAt = now

	if _, err := r.collection.InsertOne(ctx, entry); err != nil {
		if mongotx.IsDuplicateKey(err) {
			return false, nil
		}
		return false, fmt.Errorf("failed to insert commission entry: %w", err)
	}
	return true, nil
}

func (r *mongoCommissionRepository) UpdateStatus(ctx context.Context, bookingID string, from []string, status string) (bool, error) {
	ctx, cancel := mongotx.WithTimeout(ctx, r.cfg.WriteTimeout)
	defer cancel()

	filter := bson.M{"_id": bookingID, "status": bson.M{"$in": from}}
	update := bson.M{"$set": bson.M{
		"status":     status,
		"updated_at": time.Now().UTC().Truncate(time.Millisecond),
	}}

	result, err := r.collection.UpdateOne(ctx, filter, update)
	if err != nil {
		return false, fmt.Errorf("failed to update commission entry %s: %w", bookingID, err)
	}
	return result.MatchedCount > 0, nil
}

func resellerFilter(resellerID, status string) bson.M {
	filter := bson.M{"reseller_id": resellerID}
	if status != "" {
		filter["status"] = status
	}
	return filter
}

func (r *mongoCommissionRepository) FindByReseller(ctx context.Context, resellerID string, status string, limit int, offset int64) ([]*model.CommissionEntry, error) {
	ctx, cancel := mongotx.WithTimeout(ctx, r.cfg.ReadTimeout)
	defer cancel()

	opts := options.Find().
		SetLimit(int64(limit)).
		SetSkip(offset).
		SetSort(bson.D{{Key: "created_at", Value: -1}})

	cursor, err := r.collection.Find(ctx, resellerFilter(resellerID, status), opts)
	if err != nil {
		return nil, fmt.Errorf("failed to query commission entries: %w", err)
	}
	defer cursor.Close(ctx)

	entries := []*model.CommissionEntry{}
	if err := cursor.All(ctx, &entries); err != nil {
		return nil, fmt.Errorf("failed to decode commission entries: %w", err)
	}
	return entries, nil
}

func (r *mongoCommissionRepository) CountByReseller(ctx context.Context, resellerID string, status string) (int64, error) {
	ctx, cancel := mongotx.WithTimeout(ctx, r.cfg.ReadTimeout)
	defer cancel()

	count, err := r.collection.CountDocuments(ctx, resellerFilter(resellerID, status))
	if err != nil {
		return 0, fmt.Errorf("failed to count commission entries: %w", err)
	}
	return count, nil
}

type statusTotals struct {
	Status   string        `bson:"_id"`
	Count    int64         `bson:"count"`
	Earnings model.Decimal `bson:"earnings"`
}

// SumByStatus groups the reseller's ledger by status. Earnings are summed as
// Decimal128 on the server.
func (r *mongoCommissionRepository) SumByStatus(ctx context.Context, resellerID string) (map[string]model.CommissionTotals, error) {
	ctx, cancel := mongotx.WithTimeout(ctx, r.cfg.ReadTimeout)
	defer cancel()

	pipeline := mongo.Pipeline{
		{{Key: "$match", Value: bson.M{"reseller_id": resellerID}}},
		{{Key: "$group", Value: bson.M{
			"_id":      "$status",
			"count":    bson.M{"$sum": 1},
			"earnings": bson.M{"$sum": "$earnings"},
		}}},
	}

	cursor, err := r.collection.Aggregate(ctx, pipeline)
	if err != nil {
		return nil, fmt.Errorf("failed to aggregate commission entries: %w", err)
	}
	defer cursor.Close(ctx)

	var rows []statusTotals
	if err := cursor.All(ctx, &rows); err != nil {
		return nil, fmt.Errorf("failed to decode commission totals: %w", err)
	}

	totals := make(map[string]model.CommissionTotals, len(rows))
	for _, row := range rows {
		totals[row.Status] = model.CommissionTotals{Count: row.Count, Earnings: row.Earnings}
	}
	return totals, nil
}
