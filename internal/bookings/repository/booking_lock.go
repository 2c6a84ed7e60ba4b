package repository

import (
	"context"
	"fmt"
	bookingserrors "carhub/internal/bookings/errors"
	"carhub/pkg/config"
	mongotx "carhub/pkg/db/mongo"
	"carhub/pkg/model"
	"time"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
)

const LockCollectionName = "Booking_locks"

// BookingLockRepository stores per-vehicle advisory locks. A lock is a
// document with a fixed _id, so a second insert fails until it is removed.
type BookingLockRepository interface {
	Create(ctx context.Context, lock *model.BookingLock) error
	Release(ctx context.Context, lockID string, owner string) error
	DeleteExpired(ctx context.Context, lockID string, now time.Time) (bool, error)
}

type mongoBookingLockRepository struct {
	cfg        *config.Config
	collection *mongo.Collection
}

func NewBookingLockRepository(cfg *config.Config) BookingLockRepository {
	db := cfg.Client.Mongo.Database(cfg.MongoDatabaseName)
	return &mongoBookingLockRepository{
		cfg:        cfg,
		collection: db.Collection(LockCollectionName),
	}
}

// Create returns ErrLockHeld when the lock already exists.
func (r *mongoBookingLockRepository) Create(ctx context.Context, lock *model.BookingLock) error {
	ctx, cancel := mongotx.WithTimeout(ctx, r.cfg.WriteTimeout)
	defer cancel()

	lock.CreatedAt = time.Now().UTC()

	if _, err := r.collection.InsertOne(ctx, lock); err != nil {
		if mongotx.IsDuplicateKey(err) {
			return fmt.Errorf("%w: %s", bookingserrors.ErrLockHeld, lock.ID)
		}
		return fmt.Errorf("failed to create booking lock: %w", err)
	}

	return nil
}

// Release removes the lock only if owner still holds it.
func (r *mongoBookingLockRepository) Release(ctx context.Context, lockID string, owner string) error {
	ctx, cancel := mongotx.WithTimeout(ctx, r.cfg.WriteTimeout)
	defer cancel()

	if _, err := r.collection.DeleteOne(ctx, bson.M{"_id": lockID, "owner": owner}); err != nil {
		return fmt.Errorf("failed to release booking lock %s: %w", lockID, err)
	}
	return nil
}

// DeleteExpired removes a lock whose holder outlived its TTL. The TTL index
// only sweeps once a minute, so waiters clear stale locks themselves.
func (r *mongoBookingLockRepository) DeleteExpired(ctx context.Context, lockID string, now time.Time) (bool, error) {
	ctx, cancel := mongotx.WithTimeout(ctx, r.cfg.WriteTimeout)
	defer cancel()

	result, err := r.collection.DeleteOne(ctx, bson.M{"_id": lockID, "expires_at": bson.M{"$lt": now}})
	if err != nil {
		return false, fmt.Errorf("failed to delete expired booking lock %s: %w", lockID, err)
	}
	return result.DeletedCount > 0, nil
}
