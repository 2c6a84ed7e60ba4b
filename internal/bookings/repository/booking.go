package repository

import (
	"context"
	"errors"
	"fmt"
	bookingserrors "carhub/internal/bookings/errors"
	vehiclesrepository "carhub/internal/vehicles/repository"
	"carhub/pkg/config"
	mongotx "carhub/pkg/db/mongo"
	"carhub/pkg/model"
	"carhub/pkg/rental"
	"time"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
)

const (
	CollectionName = "Bookings"
)

var blockingStatuses = []string{
	model.BookingStatusPending,
	model.BookingStatusConfirmed,
	model.BookingStatusActive,
}

type BookingRepository interface {
	Create(ctx context.Context, booking *model.Booking) error
	FindByID(ctx context.Context, id string) (*model.Booking, error)
	FindAll(ctx context.Context, limit int, offset int64) ([]*model.Booking, error)
	Count(ctx context.Context) (int64, error)

	FindBlockingByVehicle(ctx context.Context, vehicleID string, w rental.Window) ([]*model.Booking, error)
	FindBlockingInWindow(ctx context.Context, w rental.Window) ([]*model.Booking, error)

	SearchByVehicle(ctx context.Context, search model.BookingSearch, limit int, offset int64) ([]*model.Booking, error)
	CountByVehicle(ctx context.Context, search model.BookingSearch) (int64, error)
	FindByReseller(ctx context.Context, resellerID string, limit int, offset int64) ([]*model.Booking, error)
	CountByReseller(ctx context.Context, resellerID string) (int64, error)

	UpdateStatus(ctx context.Context, id string, from string, to string) (*model.Booking, error)
	TouchVehicle(ctx context.Context, vehicleID string) error

	ExecuteTransaction(ctx context.Context, fn mongotx.TransactionFunc) error
}

type mongoBookingRepository struct {
	cfg        *config.Config
	collection *mongo.Collection
	vehicles   *mongo.Collection
	txManager  mongotx.TransactionManager
}

func NewMongoBookingRepository(cfg *config.Config) BookingRepository {
	db := cfg.Client.Mongo.Database(cfg.MongoDatabaseName)
	return &mongoBookingRepository{
		cfg:        cfg,
		collection: db.Collection(CollectionName),
		vehicles:   db.Collection(vehiclesrepository.CollectionName),
		txManager:  mongotx.NewTransactionManager(cfg.Client.Mongo),
	}
}

// windowFilter matches bookings sharing at least one UTC calendar day with w.
func windowFilter(w rental.Window) bson.M {
	return bson.M{
		"start_date": bson.M{"$lt": w.LastDay().Add(24 * time.Hour)},
		"end_date":   bson.M{"$gte": w.FirstDay()},
	}
}

func (r *mongoBookingRepository) Create(ctx context.Context, booking *model.Booking) error {
	ctx, cancel := mongotx.WithTimeout(ctx, r.cfg.WriteTimeout)
	defer cancel()

	now := time.Now().UTC().Truncate(time.Millisecond)
	booking.CreatedAt = now
	booking.UpdatedAt = now

	result, err := r.collection.InsertOne(ctx, booking)
	if err != nil {
		return fmt.Errorf("failed to create booking: %w", err)
	}

	if oid, ok := result.InsertedID.(primitive.ObjectID); ok {
		booking.ID = oid.Hex()
	}

	return nil
}

func (r *mongoBookingRepository) FindByID(ctx context.Context, id string) (*model.Booking, error) {
	ctx, cancel := mongotx.WithTimeout(ctx, r.cfg.ReadTimeout)
	defer cancel()

	objectID, err := primitive.ObjectIDFromHex(id)
	if err != nil {
		return nil, fmt.Errorf("%w: %s", bookingserrors.ErrInvalidID, id)
	}

	var booking model.Booking
	if err := r.collection.FindOne(ctx, bson.M{"_id": objectID}).Decode(&booking); err != nil {
		if errors.Is(err, mongo.ErrNoDocuments) {
			return nil, fmt.Errorf("%w: %s", bookingserrors.ErrNotFound, id)
		}
		return nil, fmt.Errorf("failed to find booking: %w", err)
	}
	return &booking, nil
}

func (r *mongoBookingRepository) find(ctx context.Context, filter bson.M, opts *options.FindOptions) ([]*model.Booking, error) {
	ctx, cancel := mongotx.WithTimeout(ctx, r.cfg.ReadTimeout)
	defer cancel()

	cursor, err := r.collection.Find(ctx, filter, opts)
	if err != nil {
		return nil, fmt.Errorf("failed to query bookings: %w", err)
	}
	defer cursor.Close(ctx)

	bookings := []*model.Booking{}
	if err := cursor.All(ctx, &bookings); err != nil {
		return nil, fmt.Errorf("failed to decode bookings: %w", err)
	}
	return bookings, nil
}

func (r *mongoBookingRepository) count(ctx context.Context, filter bson.M) (int64, error) {
	ctx, cancel := mongotx.WithTimeout(ctx, r.cfg.ReadTimeout)
	defer cancel()

	count, err := r.collection.CountDocuments(ctx, filter)
	if err != nil {
		return 0, fmt.Errorf("failed to count bookings: %w", err)
	}
	return count, nil
}

func pageOptions(limit int, offset int64, sort bson.D) *options.FindOptions {
	return options.Find().
		SetLimit(int64(limit)).
		SetSkip(offset).
		SetSort(sort)
}

func (r *mongoBookingRepository) FindAll(ctx context.Context, limit int, offset int64) ([]*model.Booking, error) {
	return r.find(ctx, bson.M{}, pageOptions(limit, offset, bson.D{{Key: "created_at", Value: -1}}))
}

func (r *mongoBookingRepository) Count(ctx context.Context) (int64, error) {
	return r.count(ctx, bson.M{})
}

func (r *mongoBookingRepository) FindBlockingByVehicle(ctx context.Context, vehicleID string, w rental.Window) ([]*model.Booking, error) {
	filter := windowFilter(w)
	filter["vehicle_id"] = vehicleID
	filter["status"] = bson.M{"$in": blockingStatuses}

	return r.find(ctx, filter, options.Find().SetSort(bson.D{{Key: "start_date", Value: 1}}))
}

func (r *mongoBookingRepository) FindBlockingInWindow(ctx context.Context, w rental.Window) ([]*model.Booking, error) {
	filter := windowFilter(w)
	filter["status"] = bson.M{"$in": blockingStatuses}

	opts := options.Find().
		SetSort(bson.D{{Key: "vehicle_id", Value: 1}, {Key: "start_date", Value: 1}}).
		SetProjection(bson.M{"vehicle_id": 1, "start_date": 1, "end_date": 1, "status": 1})

	return r.find(ctx, filter, opts)
}

func buildSearchFilter(search model.BookingSearch) bson.M {
	filter := bson.M{"vehicle_id": search.VehicleID}

	if search.StartDate != nil {
		filter["end_date"] = bson.M{"$gte": *search.StartDate}
	}
	if search.EndDate != nil {
		filter["start_date"] = bson.M{"$lte": *search.EndDate}
	}

	return filter
}

func (r *mongoBookingRepository) SearchByVehicle(ctx context.Context, search model.BookingSearch, limit int, offset int64) ([]*model.Booking, error) {
	return r.find(ctx, buildSearchFilter(search), pageOptions(limit, offset, bson.D{{Key: "start_date", Value: 1}}))
}

func (r *mongoBookingRepository) CountByVehicle(ctx context.Context, search model.BookingSearch) (int64, error) {
	return r.count(ctx, buildSearchFilter(search))
}

func (r *mongoBookingRepository) FindByReseller(ctx context.Context, resellerID string, limit int, offset int64) ([]*model.Booking, error) {
	return r.find(ctx, bson.M{"reseller_id": resellerID}, pageOptions(limit, offset, bson.D{{Key: "created_at", Value: -1}}))
}

func (r *mongoBookingRepository) CountByReseller(ctx context.Context, resellerID string) (int64, error) {
	return r.count(ctx, bson.M{"reseller_id": resellerID})
}

// UpdateStatus moves the booking from one status to another only if it is
// still in from. ErrStatusChanged is returned when another writer got there
// first.
func (r *mongoBookingRepository) UpdateStatus(ctx context.Context, id string, from string, to string) (*model.Booking, error) {
	ctx, cancel := mongotx.WithTimeout(ctx, r.cfg.WriteTimeout)
	defer cancel()

	objectID, err := primitive.ObjectIDFromHex(id)
	if err != nil {
		return nil, fmt.Errorf("%w: %s", bookingserrors.ErrInvalidID, id)
	}

	update := bson.M{
		"$set": bson.M{
			"status":     to,
			"updated_at": time.Now().UTC().Truncate(time.Millisecond),
		},
	}
	opts := options.FindOneAndUpdate().SetReturnDocument(options.After)

	var booking model.Booking
	err = r.collection.FindOneAndUpdate(ctx, bson.M{"_id": objectID, "status": from}, update, opts).Decode(&booking)
	if err == nil {
		return &booking, nil
	}
	if !errors.Is(err, mongo.ErrNoDocuments) {
		return nil, fmt.Errorf("failed to update booking status: %w", err)
	}

	exists, err := r.collection.CountDocuments(ctx, bson.M{"_id": objectID}, options.Count().SetLimit(1))
	if err != nil {
		return nil, fmt.Errorf("failed to check booking existence: %w", err)
	}
	if exists == 0 {
		return nil, fmt.Errorf("%w: %s", bookingserrors.ErrNotFound, id)
	}
	return nil, fmt.Errorf("%w: %s is no longer %s", bookingserrors.ErrStatusChanged, id, from)
}

// TouchVehicle bumps a counter on the vehicle document. Two transactions
// booking the same vehicle both write it, so the later one hits a write
// conflict and is retried, re-reading the bookings the first one committed.
func (r *mongoBookingRepository) TouchVehicle(ctx context.Context, vehicleID string) error {
	ctx, cancel := mongotx.WithTimeout(ctx, r.cfg.WriteTimeout)
	defer cancel()

	objectID, err := primitive.ObjectIDFromHex(vehicleID)
	if err != nil {
		return fmt.Errorf("invalid vehicle id %s: %w", vehicleID, err)
	}

	_, err = r.vehicles.UpdateOne(ctx, bson.M{"_id": objectID}, bson.M{"$inc": bson.M{"booking_version": 1}})
	if err != nil {
		return fmt.Errorf("failed to touch vehicle %s: %w", vehicleID, err)
	}
	return nil
}

func (r *mongoBookingRepository) ExecuteTransaction(ctx context.Context, fn mongotx.TransactionFunc) error {
	return r.txManager.ExecuteTransaction(ctx, fn)
}
