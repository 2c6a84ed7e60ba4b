package service

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"sync"
	"testing"
	"time"

	bookingserrors "carhub/internal/bookings/errors"
	"carhub/internal/bookings/validator"
	resellerserrors "carhub/internal/resellers/errors"
	vehicleserrors "carhub/internal/vehicles/errors"
	"carhub/pkg/config"
	mongotx "carhub/pkg/db/mongo"
	apperrors "carhub/pkg/errors"
	"carhub/pkg/events"
	"carhub/pkg/logger"
	"carhub/pkg/model"
	"carhub/pkg/rental"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.mongodb.org/mongo-driver/mongo"
)

const (
	carID      = "507f1f77bcf86cd799439011"
	saleCarID  = "507f1f77bcf86cd799439012"
	vanID      = "507f1f77bcf86cd799439013"
	resellerID = "507f1f77bcf86cd799439022"
)

// fakeBookingRepository keeps bookings in memory. Transactions are serialized,
// which is the isolation the write-conflict guard gives on a real replica set,
// and a failed transaction restores the bookings it started with.
type fakeBookingRepository struct {
	mu       sync.Mutex
	txMu     sync.Mutex
	bookings map[string]*model.Booking
	order    []string

	createErr       error
	updateStatusErr error
}

func newFakeBookingRepository(existing ...*model.Booking) *fakeBookingRepository {
	repo := &fakeBookingRepository{bookings: map[string]*model.Booking{}}
	for _, b := range existing {
		repo.bookings[b.ID] = b
		repo.order = append(repo.order, b.ID)
	}
	return repo
}

func (r *fakeBookingRepository) Create(ctx context.Context, booking *model.Booking) error {
	if r.createErr != nil {
		return r.createErr
	}
	r.mu.Lock()
	defer r.mu.Unlock()

	booking.ID = primitive.NewObjectID().Hex()
	booking.CreatedAt = time.Now().UTC()
	booking.UpdatedAt = booking.CreatedAt
	stored := *booking
	r.bookings[booking.ID] = &stored
	r.order = append(r.order, booking.ID)
	return nil
}

func (r *fakeBookingRepository) FindByID(ctx context.Context, id string) (*model.Booking, error) {
	if _, err := primitive.ObjectIDFromHex(id); err != nil {
		return nil, fmt.Errorf("%w: %s", bookingserrors.ErrInvalidID, id)
	}
	r.mu.Lock()
	defer r.mu.Unlock()

	b, ok := r.bookings[id]
	if !ok {
		return nil, fmt.Errorf("%w: %s", bookingserrors.ErrNotFound, id)
	}
	copied := *b
	return &copied, nil
}

func (r *fakeBookingRepository) all(match func(*model.Booking) bool) []*model.Booking {
	r.mu.Lock()
	defer r.mu.Unlock()

	result := []*model.Booking{}
	for _, id := range r.order {
		b := r.bookings[id]
		if match(b) {
			copied := *b
			result = append(result, &copied)
		}
	}
	return result
}

func (r *fakeBookingRepository) FindAll(ctx context.Context, limit int, offset int64) ([]*model.Booking, error) {
	return r.all(func(*model.Booking) bool { return true }), nil
}

func (r *fakeBookingRepository) Count(ctx context.Context) (int64, error) {
	return int64(len(r.all(func(*model.Booking) bool { return true }))), nil
}

func (r *fakeBookingRepository) FindBlockingByVehicle(ctx context.Context, vehicleID string, w rental.Window) ([]*model.Booking, error) {
	return r.all(func(b *model.Booking) bool { return b.VehicleID == vehicleID && rental.Blocks(b.Status) }), nil
}

func (r *fakeBookingRepository) FindBlockingInWindow(ctx context.Context, w rental.Window) ([]*model.Booking, error) {
	return r.all(func(b *model.Booking) bool { return rental.Blocks(b.Status) }), nil
}

func (r *fakeBookingRepository) SearchByVehicle(ctx context.Context, search model.BookingSearch, limit int, offset int64) ([]*model.Booking, error) {
	return r.all(func(b *model.Booking) bool { return b.VehicleID == search.VehicleID }), nil
}

func (r *fakeBookingRepository) CountByVehicle(ctx context.Context, search model.BookingSearch) (int64, error) {
	bookings, _ := r.SearchByVehicle(ctx, search, 0, 0)
	return int64(len(bookings)), nil
}

func (r *fakeBookingRepository) FindByReseller(ctx context.Context, resellerID string, limit int, offset int64) ([]*model.Booking, error) {
	return r.all(func(b *model.Booking) bool { return b.ResellerID == resellerID }), nil
}

func (r *fakeBookingRepository) CountByReseller(ctx context.Context, resellerID string) (int64, error) {
	bookings, _ := r.FindByReseller(ctx, resellerID, 0, 0)
	return int64(len(bookings)), nil
}

func (r *fakeBookingRepository) UpdateStatus(ctx context.Context, id string, from string, to string) (*model.Booking, error) {
	if r.updateStatusErr != nil {
		return nil, r.updateStatusErr
	}
	r.mu.Lock()
	defer r.mu.Unlock()

	b, ok := r.bookings[id]
	if !ok {
		return nil, fmt.Errorf("%w: %s", bookingserrors.ErrNotFound, id)
	}
	if b.Status != from {
		return nil, fmt.Errorf("%w: %s", bookingserrors.ErrStatusChanged, id)
	}
	b.Status = to
	b.UpdatedAt = time.Now().UTC()
	copied := *b
	return &copied, nil
}

func (r *fakeBookingRepository) TouchVehicle(ctx context.Context, vehicleID string) error {
	return nil
}

func (r *fakeBookingRepository) ExecuteTransaction(ctx context.Context, fn mongotx.TransactionFunc) error {
	r.txMu.Lock()
	defer r.txMu.Unlock()

	r.mu.Lock()
	saved := make(map[string]model.Booking, len(r.bookings))
	for id, b := range r.bookings {
		saved[id] = *b
	}
	savedOrder := append([]string(nil), r.order...)
	r.mu.Unlock()

	if err := fn(mongo.NewSessionContext(ctx, nil)); err != nil {
		r.mu.Lock()
		r.bookings = make(map[string]*model.Booking, len(saved))
		for id, b := range saved {
			restored := b
			r.bookings[id] = &restored
		}
		r.order = savedOrder
		r.mu.Unlock()
		return err
	}
	return nil
}

type fakeLockRepository struct {
	mu    sync.Mutex
	locks map[string]*model.BookingLock
}

func newFakeLockRepository() *fakeLockRepository {
	return &fakeLockRepository{locks: map[string]*model.BookingLock{}}
}

func (r *fakeLockRepository) Create(ctx context.Context, lock *model.BookingLock) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	if _, held := r.locks[lock.ID]; held {
		return fmt.Errorf("%w: %s", bookingserrors.ErrLockHeld, lock.ID)
	}
	copied := *lock
	r.locks[lock.ID] = &copied
	return nil
}

func (r *fakeLockRepository) Release(ctx context.Context, lockID string, owner string) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	if lock, ok := r.locks[lockID]; ok && lock.Owner == owner {
		delete(r.locks, lockID)
	}
	return nil
}

func (r *fakeLockRepository) DeleteExpired(ctx context.Context, lockID string, now time.Time) (bool, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	if lock, ok := r.locks[lockID]; ok && lock.ExpiresAt.Before(now) {
		delete(r.locks, lockID)
		return true, nil
	}
	return false, nil
}

func (r *fakeLockRepository) held() int {
	r.mu.Lock()
	defer r.mu.Unlock()
	return len(r.locks)
}

type fakeVehicles map[string]*model.Vehicle

func (f fakeVehicles) FindByID(ctx context.Context, id string) (*model.Vehicle, error) {
	if v, ok := f[id]; ok {
		return v, nil
	}
	return nil, fmt.Errorf("%w: %s", vehicleserrors.ErrNotFound, id)
}

func (f fakeVehicles) List(ctx context.Context, filter model.VehicleFilter, limit int, offset int64) ([]*model.Vehicle, error) {
	var result []*model.Vehicle
	for _, id := range []string{carID, saleCarID, vanID} {
		v, ok := f[id]
		if !ok {
			continue
		}
		for _, t := range filter.Types {
			if v.Type == t {
				result = append(result, v)
			}
		}
	}
	return result, nil
}

type fakeResellers map[string]*model.Reseller

func (f fakeResellers) FindByID(ctx context.Context, id string) (*model.Reseller, error) {
	if r, ok := f[id]; ok {
		return r, nil
	}
	return nil, fmt.Errorf("%w: %s", resellerserrors.ErrNotFound, id)
}

type recordingPublisher struct {
	mu     sync.Mutex
	events []events.BookingEvent
	err    error
}

func (p *recordingPublisher) PublishBooking(ctx context.Context, event events.BookingEvent) error {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.events = append(p.events, event)
	return p.err
}

func (p *recordingPublisher) Close() error { return nil }

func (p *recordingPublisher) types() []string {
	p.mu.Lock()
	defer p.mu.Unlock()
	var types []string
	for _, e := range p.events {
		types = append(types, e.Type)
	}
	return types
}

type testEnv struct {
	svc       *bookingService
	repo      *fakeBookingRepository
	locks     *fakeLockRepository
	publisher *recordingPublisher
}

func day(s string) time.Time {
	t, err := time.Parse(time.DateOnly, s)
	if err != nil {
		panic(err)
	}
	return t.UTC()
}

func newTestEnv(t *testing.T, existing ...*model.Booking) *testEnv {
	t.Helper()

	cfg := &config.Config{
		Log:                 logger.Discard(),
		CreditSurchargeRate: decimal.NewFromInt(14),
		BookingLockTTL:      10 * time.Second,
		BookingLockWait:     time.Second,
	}

	rate := model.DecimalFromInt(100)
	vehicles := fakeVehicles{
		carID:     {ID: carID, Make: "Toyota", Model: "Corolla", Year: 2022, Type: model.VehicleTypeRental, RentalPrice: &rate},
		saleCarID: {ID: saleCarID, Make: "Mazda", Model: "3", Year: 2021, Type: model.VehicleTypeSale},
		vanID:     {ID: vanID, Make: "Ford", Model: "Transit", Year: 2020, Type: model.VehicleTypeBoth, RentalPrice: &rate},
	}
	resellers := fakeResellers{
		resellerID: {ID: resellerID, Name: "Coast Travel", CommissionRate: model.DecimalFromInt(10), Active: true},
	}

	env := &testEnv{
		repo:      newFakeBookingRepository(existing...),
		locks:     newFakeLockRepository(),
		publisher: &recordingPublisher{},
	}
	svc := NewBookingService(env.repo, env.locks, vehicles, resellers, validator.NewBookingValidator(cfg.Log), env.publisher, cfg)
	env.svc = svc.(*bookingService)
	env.svc.now = func() time.Time { return day("2024-05-01") }
	return env
}

func customer() *model.Customer {
	return &model.Customer{Name: "Dana Levi", Phone: "+972541234567", Email: "Dana@Example.com"}
}

func publicRequest(vehicleID, start, end, payment string) *model.PublicBookingRequest {
	return &model.PublicBookingRequest{BookingDetails: model.BookingDetails{
		VehicleID:     vehicleID,
		StartDate:     day(start),
		EndDate:       day(end),
		PaymentMethod: payment,
		Customer:      customer(),
	}}
}

func resellerRequest(start, end, upcharge string) *model.ResellerBookingRequest {
	return &model.ResellerBookingRequest{
		BookingDetails: model.BookingDetails{
			VehicleID:     carID,
			StartDate:     day(start),
			EndDate:       day(end),
			PaymentMethod: model.PaymentCash,
			Customer:      customer(),
		},
		ResellerID:         resellerID,
		UpchargePercentage: model.MustDecimal(upcharge),
	}
}

func existingBooking(id, vehicleID, status, start, end string) *model.Booking {
	return &model.Booking{
		ID:        id,
		VehicleID: vehicleID,
		Status:    status,
		Channel:   model.ChannelPublic,
		StartDate: day(start),
		EndDate:   day(end),
	}
}

func requireAppError(t *testing.T, err error, status int, code string) *apperrors.AppError {
	t.Helper()
	require.Error(t, err)
	appErr := apperrors.AsAppError(err)
	require.NotNil(t, appErr, "expected AppError, got %T: %v", err, err)
	assert.Equal(t, status, appErr.StatusCode())
	assert.Equal(t, code, appErr.Code)
	return appErr
}

func TestCreate_PublicBookingIsConfirmed(t *testing.T) {
	env := newTestEnv(t)

	booking, err := env.svc.Create(context.Background(), publicRequest(carID, "2024-06-01", "2024-06-04", model.PaymentCredit))
	require.NoError(t, err)

	assert.NotEmpty(t, booking.ID)
	assert.Equal(t, model.BookingStatusConfirmed, booking.Status)
	assert.Equal(t, model.ChannelPublic, booking.Channel)
	assert.Empty(t, booking.ResellerID)
	assert.Equal(t, 3, booking.Pricing.Days)
	assert.Equal(t, "376.20", booking.Pricing.CustomerTotal.StringFixed(2))
	assert.True(t, booking.Pricing.ResellerEarnings.IsZero())
	assert.Equal(t, "dana@example.com", booking.Customer.Email)

	assert.Equal(t, []string{events.TypeBookingCreated, events.TypeBookingStatusChanged}, env.publisher.types())
	assert.Zero(t, env.locks.held(), "lock must be released")
}

func TestCreate_PublicConfirmFailureStoresNothing(t *testing.T) {
	env := newTestEnv(t)
	env.repo.updateStatusErr = errors.New("write failed")

	_, err := env.svc.Create(context.Background(), publicRequest(carID, "2024-06-01", "2024-06-04", model.PaymentCash))
	requireAppError(t, err, http.StatusInternalServerError, apperrors.CodeInternal)

	count, err := env.repo.Count(context.Background())
	require.NoError(t, err)
	assert.Zero(t, count, "failed creation must not leave a booking behind")
	assert.Empty(t, env.publisher.types())
	assert.Zero(t, env.locks.held())

	env.repo.updateStatusErr = nil
	booking, err := env.svc.Create(context.Background(), publicRequest(carID, "2024-06-01", "2024-06-04", model.PaymentCash))
	require.NoError(t, err)
	assert.Equal(t, model.BookingStatusConfirmed, booking.Status)

	count, err = env.repo.Count(context.Background())
	require.NoError(t, err)
	assert.Equal(t, int64(1), count)
}

func TestCreate_ResellerUsesAccountCommission(t *testing.T) {
	env := newTestEnv(t)

	booking, err := env.svc.Create(context.Background(), resellerRequest("2024-06-01", "2024-06-04", "10"))
	require.NoError(t, err)

	assert.Equal(t, model.BookingStatusConfirmed, booking.Status)
	assert.Equal(t, resellerID, booking.ResellerID)
	assert.Equal(t, "330.00", booking.Pricing.CustomerTotal.StringFixed(2))
	assert.Equal(t, "30.00", booking.Pricing.CommissionAmount.StringFixed(2))
	assert.Equal(t, "60.00", booking.Pricing.ResellerEarnings.StringFixed(2))
	assert.Equal(t, []string{events.TypeBookingCreated}, env.publisher.types())
}

func TestCreate_InactiveResellerIsForbidden(t *testing.T) {
	env := newTestEnv(t)
	env.svc.resellers = fakeResellers{
		resellerID: {ID: resellerID, Name: "Coast Travel", CommissionRate: model.DecimalFromInt(10)},
	}

	_, err := env.svc.Create(context.Background(), resellerRequest("2024-06-01", "2024-06-04", "10"))
	requireAppError(t, err, http.StatusForbidden, apperrors.CodeForbidden)
}

func TestCreate_UnknownReseller(t *testing.T) {
	env := newTestEnv(t)
	env.svc.resellers = fakeResellers{}

	_, err := env.svc.Create(context.Background(), resellerRequest("2024-06-01", "2024-06-04", "10"))
	requireAppError(t, err, http.StatusNotFound, apperrors.CodeNotFound)
}

func TestCreate_OverlapIsConflict(t *testing.T) {
	env := newTestEnv(t, existingBooking("665f1f77bcf86cd799439001", carID, model.BookingStatusConfirmed, "2024-06-03", "2024-06-06"))

	_, err := env.svc.Create(context.Background(), publicRequest(carID, "2024-06-01", "2024-06-03", model.PaymentCash))
	appErr := requireAppError(t, err, http.StatusConflict, apperrors.CodeConflict)
	assert.Equal(t, "665f1f77bcf86cd799439001", appErr.Details["conflicting_booking_id"])

	var conflict *rental.ConflictError
	require.ErrorAs(t, err, &conflict)
	assert.Equal(t, carID, conflict.VehicleID)
	assert.Zero(t, env.locks.held())
	assert.Empty(t, env.publisher.types())
}

func TestCreate_CancelledBookingDoesNotBlock(t *testing.T) {
	env := newTestEnv(t, existingBooking("665f1f77bcf86cd799439001", carID, model.BookingStatusCancelled, "2024-06-01", "2024-06-10"))

	booking, err := env.svc.Create(context.Background(), publicRequest(carID, "2024-06-03", "2024-06-05", model.PaymentCash))
	require.NoError(t, err)
	assert.Equal(t, model.BookingStatusConfirmed, booking.Status)
}

func TestCreate_ConcurrentOverlappingRequests(t *testing.T) {
	env := newTestEnv(t)

	requests := []model.BookingRequest{
		publicRequest(carID, "2024-06-01", "2024-06-05", model.PaymentCash),
		resellerRequest("2024-06-04", "2024-06-08", "5"),
	}

	var wg sync.WaitGroup
	errs := make([]error, len(requests))
	start := make(chan struct{})
	for i, req := range requests {
		wg.Add(1)
		go func(i int, req model.BookingRequest) {
			defer wg.Done()
			<-start
			_, errs[i] = env.svc.Create(context.Background(), req)
		}(i, req)
	}
	close(start)
	wg.Wait()

	var succeeded, conflicts int
	for _, err := range errs {
		var conflict *rental.ConflictError
		switch {
		case err == nil:
			succeeded++
		case errors.As(err, &conflict):
			conflicts++
		default:
			t.Fatalf("unexpected error: %v", err)
		}
	}
	assert.Equal(t, 1, succeeded)
	assert.Equal(t, 1, conflicts)

	stored, _ := env.repo.FindBlockingByVehicle(context.Background(), carID, rental.Window{})
	assert.Len(t, stored, 1)
	assert.Zero(t, env.locks.held())
}

func TestCreate_LockHeldPastWaitIsConflict(t *testing.T) {
	env := newTestEnv(t)
	env.svc.cfg.BookingLockWait = 60 * time.Millisecond
	require.NoError(t, env.locks.Create(context.Background(), &model.BookingLock{
		ID:        "booking_lock_" + carID,
		VehicleID: carID,
		Owner:     "someone-else",
		ExpiresAt: day("2024-05-01").Add(time.Minute),
	}))

	_, err := env.svc.Create(context.Background(), publicRequest(carID, "2024-06-01", "2024-06-03", model.PaymentCash))
	requireAppError(t, err, http.StatusConflict, apperrors.CodeConflict)

	var conflict *rental.ConflictError
	require.ErrorAs(t, err, &conflict)
	assert.Empty(t, conflict.BookingID)
	assert.Equal(t, 1, env.locks.held(), "foreign lock must not be released")
}

func TestCreate_ExpiredLockIsReclaimed(t *testing.T) {
	env := newTestEnv(t)
	require.NoError(t, env.locks.Create(context.Background(), &model.BookingLock{
		ID:        "booking_lock_" + carID,
		VehicleID: carID,
		Owner:     "crashed-request",
		ExpiresAt: day("2024-04-30"),
	}))

	_, err := env.svc.Create(context.Background(), publicRequest(carID, "2024-06-01", "2024-06-03", model.PaymentCash))
	require.NoError(t, err)
	assert.Zero(t, env.locks.held())
}

func TestCreate_Rejections(t *testing.T) {
	tests := []struct {
		name   string
		req    model.BookingRequest
		status int
		code   string
	}{
		{
			name:   "end equals start",
			req:    publicRequest(carID, "2024-06-01", "2024-06-01", model.PaymentCash),
			status: http.StatusUnprocessableEntity,
			code:   apperrors.CodeValidation,
		},
		{
			name:   "start in the past",
			req:    publicRequest(carID, "2024-04-01", "2024-04-03", model.PaymentCash),
			status: http.StatusUnprocessableEntity,
			code:   apperrors.CodeValidation,
		},
		{
			name:   "vehicle for sale only",
			req:    publicRequest(saleCarID, "2024-06-01", "2024-06-03", model.PaymentCash),
			status: http.StatusUnprocessableEntity,
			code:   apperrors.CodeValidation,
		},
		{
			name:   "unknown vehicle",
			req:    publicRequest("507f1f77bcf86cd799439099", "2024-06-01", "2024-06-03", model.PaymentCash),
			status: http.StatusNotFound,
			code:   apperrors.CodeNotFound,
		},
		{
			name:   "bad payment method",
			req:    publicRequest(carID, "2024-06-01", "2024-06-03", "bitcoin"),
			status: http.StatusUnprocessableEntity,
			code:   apperrors.CodeValidation,
		},
		{
			name: "missing customer",
			req: &model.PublicBookingRequest{BookingDetails: model.BookingDetails{
				VehicleID:     carID,
				StartDate:     day("2024-06-01"),
				EndDate:       day("2024-06-03"),
				PaymentMethod: model.PaymentCash,
			}},
			status: http.StatusUnprocessableEntity,
			code:   apperrors.CodeValidation,
		},
		{
			name:   "upcharge above 100",
			req:    resellerRequest("2024-06-01", "2024-06-03", "150"),
			status: http.StatusUnprocessableEntity,
			code:   apperrors.CodeValidation,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			env := newTestEnv(t)

			_, err := env.svc.Create(context.Background(), tt.req)
			requireAppError(t, err, tt.status, tt.code)
			assert.Empty(t, env.publisher.types())
		})
	}
}

func TestCreate_InvalidRangeKeepsDomainError(t *testing.T) {
	env := newTestEnv(t)

	_, err := env.svc.Create(context.Background(), publicRequest(carID, "2024-06-03", "2024-06-01", model.PaymentCash))

	var rangeErr *rental.InvalidRangeError
	require.ErrorAs(t, err, &rangeErr)
	assert.Equal(t, day("2024-06-03"), rangeErr.Start)
}

func TestCreate_PublishFailureDoesNotFailBooking(t *testing.T) {
	env := newTestEnv(t)
	env.publisher.err = errors.New("broker down")

	booking, err := env.svc.Create(context.Background(), publicRequest(carID, "2024-06-01", "2024-06-03", model.PaymentCash))
	require.NoError(t, err)
	assert.Equal(t, model.BookingStatusConfirmed, booking.Status)
}

func TestCreate_StorageFailureIsInternal(t *testing.T) {
	env := newTestEnv(t)
	env.repo.createErr = errors.New("disk full")

	_, err := env.svc.Create(context.Background(), publicRequest(carID, "2024-06-01", "2024-06-03", model.PaymentCash))
	requireAppError(t, err, http.StatusInternalServerError, apperrors.CodeInternal)
	assert.Zero(t, env.locks.held())
}

func TestQuote(t *testing.T) {
	env := newTestEnv(t)

	cash, err := env.svc.Quote(context.Background(), resellerRequest("2024-06-01", "2024-06-04", "10"))
	require.NoError(t, err)
	assert.Equal(t, "330.00", cash.CustomerTotal.StringFixed(2))
	assert.Equal(t, "60.00", cash.ResellerEarnings.StringFixed(2))

	req := resellerRequest("2024-06-01", "2024-06-04", "10")
	req.PaymentMethod = model.PaymentCredit
	credit, err := env.svc.Quote(context.Background(), req)
	require.NoError(t, err)
	assert.Equal(t, "46.20", credit.Surcharge.StringFixed(2))
	assert.Equal(t, "376.20", credit.CustomerTotal.StringFixed(2))
	assert.Equal(t, "60.00", credit.ResellerEarnings.StringFixed(2))
}

func TestQuote_DoesNotRequireCustomer(t *testing.T) {
	env := newTestEnv(t)
	req := publicRequest(carID, "2024-06-01", "2024-06-02", model.PaymentCash)
	req.Customer = nil

	quote, err := env.svc.Quote(context.Background(), req)
	require.NoError(t, err)
	assert.Equal(t, 1, quote.Days)
}

func TestQuote_InvalidUpcharge(t *testing.T) {
	env := newTestEnv(t)

	_, err := env.svc.Quote(context.Background(), resellerRequest("2024-06-01", "2024-06-04", "150"))
	appErr := requireAppError(t, err, http.StatusUnprocessableEntity, apperrors.CodeValidation)
	assert.Equal(t, "upcharge_percentage", appErr.Details["field"])

	var inputErr *rental.InvalidQuoteInputError
	require.ErrorAs(t, err, &inputErr)
}

func TestUpdateStatus(t *testing.T) {
	const id = "665f1f77bcf86cd799439001"

	tests := []struct {
		name    string
		current string
		target  string
		wantErr string
	}{
		{"complete confirmed", model.BookingStatusConfirmed, model.BookingStatusCompleted, ""},
		{"cancel confirmed", model.BookingStatusConfirmed, model.BookingStatusCancelled, ""},
		{"pick up confirmed", model.BookingStatusConfirmed, model.BookingStatusActive, ""},
		{"return picked up", model.BookingStatusActive, model.BookingStatusCompleted, ""},
		{"cancel picked up", model.BookingStatusActive, model.BookingStatusCancelled, apperrors.CodeInvalidTransition},
		{"pick up pending", model.BookingStatusPending, model.BookingStatusActive, apperrors.CodeInvalidTransition},
		{"reopen completed", model.BookingStatusCompleted, model.BookingStatusConfirmed, apperrors.CodeInvalidTransition},
		{"cancel completed", model.BookingStatusCompleted, model.BookingStatusCancelled, apperrors.CodeInvalidTransition},
		{"revive cancelled", model.BookingStatusCancelled, model.BookingStatusPending, apperrors.CodeInvalidTransition},
		{"unknown status", model.BookingStatusConfirmed, "archived", apperrors.CodeValidation},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			env := newTestEnv(t, existingBooking(id, carID, tt.current, "2024-06-01", "2024-06-04"))

			updated, err := env.svc.UpdateStatus(context.Background(), id, tt.target)
			stored, _ := env.repo.FindByID(context.Background(), id)

			if tt.wantErr != "" {
				require.Error(t, err)
				assert.True(t, apperrors.HasCode(err, tt.wantErr), "got %v", err)
				assert.Equal(t, tt.current, stored.Status, "status must not change")
				assert.Empty(t, env.publisher.types())
				return
			}

			require.NoError(t, err)
			assert.Equal(t, tt.target, updated.Status)
			assert.Equal(t, tt.target, stored.Status)
			require.Len(t, env.publisher.events, 1)
			assert.Equal(t, tt.current, env.publisher.events[0].PreviousStatus)
		})
	}
}

func TestUpdateStatus_LostRace(t *testing.T) {
	const id = "665f1f77bcf86cd799439001"
	env := newTestEnv(t, existingBooking(id, carID, model.BookingStatusConfirmed, "2024-06-01", "2024-06-04"))
	env.repo.updateStatusErr = fmt.Errorf("%w: %s", bookingserrors.ErrStatusChanged, id)

	_, err := env.svc.Cancel(context.Background(), id)
	requireAppError(t, err, http.StatusConflict, apperrors.CodeConflict)
}

func TestUpdateStatus_NotFound(t *testing.T) {
	env := newTestEnv(t)

	_, err := env.svc.Cancel(context.Background(), "665f1f77bcf86cd799439001")
	requireAppError(t, err, http.StatusNotFound, apperrors.CodeNotFound)

	_, err = env.svc.Cancel(context.Background(), "not-an-id")
	requireAppError(t, err, http.StatusBadRequest, apperrors.CodeInvalidInput)
}

func TestAvailability(t *testing.T) {
	env := newTestEnv(t,
		existingBooking("665f1f77bcf86cd799439001", carID, model.BookingStatusConfirmed, "2024-06-01", "2024-06-10"),
		existingBooking("665f1f77bcf86cd799439002", vanID, model.BookingStatusCancelled, "2024-06-01", "2024-06-10"),
	)

	vehicles, err := env.svc.Availability(context.Background(), day("2024-06-03"), day("2024-06-05"))
	require.NoError(t, err)
	require.Len(t, vehicles, 1)
	assert.Equal(t, vanID, vehicles[0].ID)

	_, err = env.svc.Availability(context.Background(), day("2024-06-05"), day("2024-06-05"))
	requireAppError(t, err, http.StatusUnprocessableEntity, apperrors.CodeValidation)
}

func TestVehicleAvailability(t *testing.T) {
	env := newTestEnv(t, existingBooking("665f1f77bcf86cd799439001", carID, model.BookingStatusPending, "2024-06-01", "2024-06-03"))

	result, err := env.svc.VehicleAvailability(context.Background(), carID, day("2024-06-03"), day("2024-06-05"))
	require.NoError(t, err)
	assert.False(t, result.Available)
	assert.Equal(t, "665f1f77bcf86cd799439001", result.ConflictingBookingID)

	result, err = env.svc.VehicleAvailability(context.Background(), carID, day("2024-06-04"), day("2024-06-05"))
	require.NoError(t, err)
	assert.True(t, result.Available)

	_, err = env.svc.VehicleAvailability(context.Background(), "507f1f77bcf86cd799439099", day("2024-06-04"), day("2024-06-05"))
	requireAppError(t, err, http.StatusNotFound, apperrors.CodeNotFound)
}

func TestListings(t *testing.T) {
	reseller := existingBooking("665f1f77bcf86cd799439002", vanID, model.BookingStatusConfirmed, "2024-06-01", "2024-06-02")
	reseller.ResellerID = resellerID
	env := newTestEnv(t,
		existingBooking("665f1f77bcf86cd799439001", carID, model.BookingStatusConfirmed, "2024-06-01", "2024-06-02"),
		reseller,
	)
	ctx := context.Background()

	all, total, err := env.svc.GetAll(ctx, 10, 0)
	require.NoError(t, err)
	assert.Len(t, all, 2)
	assert.Equal(t, int64(2), total)

	byVehicle, total, err := env.svc.SearchByVehicle(ctx, model.BookingSearch{VehicleID: carID}, 10, 0)
	require.NoError(t, err)
	assert.Len(t, byVehicle, 1)
	assert.Equal(t, int64(1), total)

	byReseller, total, err := env.svc.ListByReseller(ctx, resellerID, 10, 0)
	require.NoError(t, err)
	require.Len(t, byReseller, 1)
	assert.Equal(t, vanID, byReseller[0].VehicleID)
	assert.Equal(t, int64(1), total)

	_, _, err = env.svc.SearchByVehicle(ctx, model.BookingSearch{}, 10, 0)
	requireAppError(t, err, http.StatusBadRequest, apperrors.CodeInvalidInput)

	from, to := day("2024-06-05"), day("2024-06-01")
	_, _, err = env.svc.SearchByVehicle(ctx, model.BookingSearch{VehicleID: carID, StartDate: &from, EndDate: &to}, 10, 0)
	requireAppError(t, err, http.StatusBadRequest, apperrors.CodeInvalidInput)
}
