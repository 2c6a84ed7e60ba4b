package bookings_test

import (
	"context"
	"sync"
	"testing"
	"time"

	"carhub/internal/bookings/repository"
	"carhub/internal/bookings/service"
	"carhub/internal/bookings/validator"
	mongoMigration "carhub/internal/migrations/mongo"
	resellersrepository "carhub/internal/resellers/repository"
	vehiclesrepository "carhub/internal/vehicles/repository"
	"carhub/pkg/config"
	apperrors "carhub/pkg/errors"
	"carhub/pkg/model"
	"carhub/test/integration/testutil"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.mongodb.org/mongo-driver/bson"
)

type fixture struct {
	cfg      *config.Config
	mongo    *testutil.MongoHelper
	vehicles vehiclesrepository.VehicleRepository
	service  service.BookingService
}

func setup(t *testing.T) *fixture {
	t.Helper()
	m := testutil.NewTestEnv().RequireMongo(t)

	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	cfg := m.Config("bookings-integration-tests")
	require.NoError(t, mongoMigration.RunMigration(ctx, m.Client, m.DBName, cfg.Log))

	vehicles := vehiclesrepository.NewMongoVehicleRepository(cfg)
	svc := service.NewBookingService(
		repository.NewMongoBookingRepository(cfg),
		repository.NewBookingLockRepository(cfg),
		vehicles,
		resellersrepository.NewMongoResellerRepository(cfg),
		validator.NewBookingValidator(cfg.Log),
		nil,
		cfg,
	)
	return &fixture{cfg: cfg, mongo: m, vehicles: vehicles, service: svc}
}

func (f *fixture) vehicle(t *testing.T) *model.Vehicle {
	t.Helper()
	v := testutil.NewVehicleBuilder().BuildPtr()
	require.NoError(t, f.vehicles.Create(context.Background(), v))
	require.NotEmpty(t, v.ID)
	return v
}

func TestConcurrentCreation_ExactlyOneWins(t *testing.T) {
	f := setup(t)
	v := f.vehicle(t)

	const attempts = 8
	var (
		wg        sync.WaitGroup
		mu        sync.Mutex
		created   int
		conflicts int
		others    []error
	)

	for i := 0; i < attempts; i++ {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			// every window overlaps the others on day 8
			start, end := testutil.Window(7+i%2, 3)
			_, err := f.service.Create(context.Background(), testutil.PublicBooking(v.ID, start, end, model.PaymentCash))

			mu.Lock()
			defer mu.Unlock()
			switch {
			case err == nil:
				created++
			case apperrors.HasCode(err, apperrors.CodeConflict):
				conflicts++
			default:
				others = append(others, err)
			}
		}(i)
	}
	wg.Wait()

	require.Empty(t, others)
	assert.Equal(t, 1, created)
	assert.Equal(t, attempts-1, conflicts)
	assert.Equal(t, int64(1), f.mongo.CountDocuments(t, repository.CollectionName, bson.M{"vehicle_id": v.ID}))
}

func TestCancelledBookingFreesWindow(t *testing.T) {
	f := setup(t)
	v := f.vehicle(t)
	ctx := context.Background()
	start, end := testutil.Window(10, 4)

	first, err := f.service.Create(ctx, testutil.PublicBooking(v.ID, start, end, model.PaymentCredit))
	require.NoError(t, err)
	assert.Equal(t, model.BookingStatusConfirmed, first.Status)

	_, err = f.service.Create(ctx, testutil.PublicBooking(v.ID, start.AddDate(0, 0, 1), end, model.PaymentCash))
	assert.True(t, apperrors.HasCode(err, apperrors.CodeConflict))

	cancelled, err := f.service.Cancel(ctx, first.ID)
	require.NoError(t, err)
	assert.Equal(t, model.BookingStatusCancelled, cancelled.Status)

	_, err = f.service.Create(ctx, testutil.PublicBooking(v.ID, start.AddDate(0, 0, 1), end, model.PaymentCash))
	assert.NoError(t, err)

	_, err = f.service.UpdateStatus(ctx, first.ID, model.BookingStatusConfirmed)
	assert.True(t, apperrors.HasCode(err, apperrors.CodeInvalidTransition))
}

func TestAvailability_ExcludesBookedVehicles(t *testing.T) {
	f := setup(t)
	booked := f.vehicle(t)
	free := f.vehicle(t)
	ctx := context.Background()
	start, end := testutil.Window(20, 5)

	_, err := f.service.Create(ctx, testutil.PublicBooking(booked.ID, start, end, model.PaymentCash))
	require.NoError(t, err)

	available, err := f.service.Availability(ctx, start.AddDate(0, 0, 2), end.AddDate(0, 0, 2))
	require.NoError(t, err)

	ids := make([]string, 0, len(available))
	for _, v := range available {
		ids = append(ids, v.ID)
	}
	assert.Contains(t, ids, free.ID)
	assert.NotContains(t, ids, booked.ID)

	check, err := f.service.VehicleAvailability(ctx, booked.ID, start, end)
	require.NoError(t, err)
	assert.False(t, check.Available)
	assert.NotEmpty(t, check.ConflictingBookingID)
}
