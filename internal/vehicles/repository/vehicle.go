package repository

import (
	"context"
	"errors"
	"fmt"
	vehicleserrors "carhub/internal/vehicles/errors"
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
	CollectionName = "Vehicles"

	bookingsCollectionName = "Bookings"
)

type VehicleRepository interface {
	Create(ctx context.Context, v *model.Vehicle) error
	FindByID(ctx context.Context, id string) (*model.Vehicle, error)
	List(ctx context.Context, filter model.VehicleFilter, limit int, offset int64) ([]*model.Vehicle, error)
	Count(ctx context.Context, filter model.VehicleFilter) (int64, error)
	Update(ctx context.Context, id string, v *model.Vehicle) error
	Delete(ctx context.Context, id string) error

	HasBlockingBookings(ctx context.Context, id string, from time.Time) (bool, error)
}

type mongoVehicleRepository struct {
	cfg        *config.Config
	collection *mongo.Collection
	bookings   *mongo.Collection
}

func NewMongoVehicleRepository(cfg *config.Config) VehicleRepository {
	db := cfg.Client.Mongo.Database(cfg.MongoDatabaseName)
	return &mongoVehicleRepository{
		cfg:        cfg,
		collection: db.Collection(CollectionName),
		bookings:   db.Collection(bookingsCollectionName),
	}
}

// FilterToBSON translates an inventory filter into a Mongo query document.
func FilterToBSON(filter model.VehicleFilter) (bson.M, error) {
	query := bson.M{}

	if len(filter.Types) == 1 {
		query["type"] = filter.Types[0]
	} else if len(filter.Types) > 1 {
		query["type"] = bson.M{"$in": filter.Types}
	}

	if filter.Make != "" {
		query["make"] = filter.Make
	}

	if filter.MaxDailyRate != nil {
		maxRate, err := primitive.ParseDecimal128(filter.MaxDailyRate.String())
		if err != nil {
			return nil, fmt.Errorf("invalid max daily rate %s: %w", filter.MaxDailyRate.String(), err)
		}
		query["rental_price"] = bson.M{"$lte": maxRate}
	}

	return query, nil
}

func (r *mongoVehicleRepository) Create(ctx context.Context, v *model.Vehicle) error {
	ctx, cancel := mongotx.WithTimeout(ctx, r.cfg.WriteTimeout)
	defer cancel()

	v.CreatedAt = time.Now().UTC().Truncate(time.Millisecond)
	result, err := r.collection.InsertOne(ctx, v)
	if err != nil {
		return fmt.Errorf("failed to create vehicle: %w", err)
	}

	if oid, ok := result.InsertedID.(primitive.ObjectID); ok {
		v.ID = oid.Hex()
	}

	return nil
}

func (r *mongoVehicleRepository) FindByID(ctx context.Context, id string) (*model.Vehicle, error) {
	ctx, cancel := mongotx.WithTimeout(ctx, r.cfg.ReadTimeout)
	defer cancel()

	objectID, err := primitive.ObjectIDFromHex(id)
	if err != nil {
		return nil, fmt.Errorf("%w: %s", vehicleserrors.ErrInvalidID, id)
	}

	var v model.Vehicle
	err = r.collection.FindOne(ctx, bson.M{"_id": objectID}).Decode(&v)
	if err != nil {
		if errors.Is(err, mongo.ErrNoDocuments) {
			return nil, fmt.Errorf("%w: %s", vehicleserrors.ErrNotFound, id)
		}
		return nil, fmt.Errorf("failed to find vehicle: %w", err)
	}
	return &v, nil
}

func (r *mongoVehicleRepository) List(ctx context.Context, filter model.VehicleFilter, limit int, offset int64) ([]*model.Vehicle, error) {
	ctx, cancel := mongotx.WithTimeout(ctx, r.cfg.ReadTimeout)
	defer cancel()

	query, err := FilterToBSON(filter)
	if err != nil {
		return nil, err
	}

	opts := options.Find().
		SetSkip(offset).
		SetSort(bson.D{{Key: "created_at", Value: -1}, {Key: "_id", Value: 1}})
	if limit > 0 {
		opts.SetLimit(int64(limit))
	}

	cursor, err := r.collection.Find(ctx, query, opts)
	if err != nil {
		return nil, fmt.Errorf("failed to query vehicles: %w", err)
	}
	defer cursor.Close(ctx)

	vehicles := []*model.Vehicle{}
	if err = cursor.All(ctx, &vehicles); err != nil {
		return nil, fmt.Errorf("failed to decode vehicles: %w", err)
	}

	return vehicles, nil
}

func (r *mongoVehicleRepository) Count(ctx context.Context, filter model.VehicleFilter) (int64, error) {
	ctx, cancel := mongotx.WithTimeout(ctx, r.cfg.ReadTimeout)
	defer cancel()

	query, err := FilterToBSON(filter)
	if err != nil {
		return 0, err
	}

	count, err := r.collection.CountDocuments(ctx, query)
	if err != nil {
		return 0, fmt.Errorf("failed to count vehicles: %w", err)
	}
	return count, nil
}

func (r *mongoVehicleRepository) Update(ctx context.Context, id string, v *model.Vehicle) error {
	ctx, cancel := mongotx.WithTimeout(ctx, r.cfg.WriteTimeout)
	defer cancel()

	objectID, err := primitive.ObjectIDFromHex(id)
	if err != nil {
		return fmt.Errorf("%w: %s", vehicleserrors.ErrInvalidID, id)
	}

	set := bson.M{
		"make":         v.Make,
		"model":        v.Model,
		"year":         v.Year,
		"type":         v.Type,
		"mileage":      v.Mileage,
		"color":        v.Color,
		"transmission": v.Transmission,
		"fuel":         v.Fuel,
		"seats":        v.Seats,
	}
	unset := bson.M{}
	if v.RentalPrice != nil {
		set["rental_price"] = v.RentalPrice
	} else {
		unset["rental_price"] = ""
	}
	if v.SalePrice != nil {
		set["sale_price"] = v.SalePrice
	} else {
		unset["sale_price"] = ""
	}

	update := bson.M{"$set": set}
	if len(unset) > 0 {
		update["$unset"] = unset
	}

	result, err := r.collection.UpdateOne(ctx, bson.M{"_id": objectID}, update)
	if err != nil {
		return fmt.Errorf("failed to update vehicle: %w", err)
	}
	if result.MatchedCount == 0 {
		return fmt.Errorf("%w: %s", vehicleserrors.ErrNotFound, id)
	}

	return nil
}

func (r *mongoVehicleRepository) Delete(ctx context.Context, id string) error {
	ctx, cancel := mongotx.WithTimeout(ctx, r.cfg.WriteTimeout)
	defer cancel()

	objectID, err := primitive.ObjectIDFromHex(id)
	if err != nil {
		return fmt.Errorf("%w: %s", vehicleserrors.ErrInvalidID, id)
	}

	result, err := r.collection.DeleteOne(ctx, bson.M{"_id": objectID})
	if err != nil {
		return fmt.Errorf("failed to delete vehicle: %w", err)
	}
	if result.DeletedCount == 0 {
		return fmt.Errorf("%w: %s", vehicleserrors.ErrNotFound, id)
	}

	return nil
}

// HasBlockingBookings reports whether the vehicle still has a pending,
// confirmed or active booking ending on or after from.
func (r *mongoVehicleRepository) HasBlockingBookings(ctx context.Context, id string, from time.Time) (bool, error) {
	ctx, cancel := mongotx.WithTimeout(ctx, r.cfg.ReadTimeout)
	defer cancel()

	filter := bson.M{
		"vehicle_id": id,
		"status": bson.M{"$in": []string{
			model.BookingStatusPending,
			model.BookingStatusConfirmed,
			model.BookingStatusActive,
		}},
		"end_date": bson.M{"$gte": from},
	}

	count, err := r.bookings.CountDocuments(ctx, filter, options.Count().SetLimit(1))
	if err != nil {
		return false, fmt.Errorf("failed to check bookings of vehicle %s: %w", id, err)
	}
	return count > 0, nil
}
