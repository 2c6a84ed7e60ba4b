package service

import (
	"context"
	"errors"
	"fmt"
	bookingserrors "carhub/internal/bookings/errors"
	"carhub/internal/bookings/repository"
	"carhub/internal/bookings/validator"
	resellerserrors "carhub/internal/resellers/errors"
	vehicleserrors "carhub/internal/vehicles/errors"
	"carhub/pkg/config"
	apperrors "carhub/pkg/errors"
	"carhub/pkg/events"
	"carhub/pkg/metrics"
	"carhub/pkg/model"
	"carhub/pkg/rental"
	"carhub/pkg/sanitizer"
	"sync"
	"time"

	"github.com/google/uuid"
	"go.mongodb.org/mongo-driver/mongo"
)

const (
	lockInitialBackoff = 25 * time.Millisecond
	lockMaxBackoff     = 200 * time.Millisecond
)

type BookingService interface {
	Availability(ctx context.Context, start, end time.Time) ([]*model.Vehicle, error)
	VehicleAvailability(ctx context.Context, vehicleID string, start, end time.Time) (*rental.VehicleAvailability, error)
	Quote(ctx context.Context, req model.BookingRequest) (*model.Quote, error)
	Create(ctx context.Context, req model.BookingRequest) (*model.Booking, error)
	UpdateStatus(ctx context.Context, id string, status string) (*model.Booking, error)
	Cancel(ctx context.Context, id string) (*model.Booking, error)
	GetByID(ctx context.Context, id string) (*model.Booking, error)
	GetAll(ctx context.Context, limit int, offset int64) ([]*model.Booking, int64, error)
	SearchByVehicle(ctx context.Context, search model.BookingSearch, limit int, offset int64) ([]*model.Booking, int64, error)
	ListByReseller(ctx context.Context, resellerID string, limit int, offset int64) ([]*model.Booking, int64, error)
}

// VehicleReader is the part of the inventory the booking flow reads.
type VehicleReader interface {
	FindByID(ctx context.Context, id string) (*model.Vehicle, error)
	List(ctx context.Context, filter model.VehicleFilter, limit int, offset int64) ([]*model.Vehicle, error)
}

type ResellerReader interface {
	FindByID(ctx context.Context, id string) (*model.Reseller, error)
}

type bookingService struct {
	repo      repository.BookingRepository
	lockRepo  repository.BookingLockRepository
	vehicles  VehicleReader
	resellers ResellerReader
	validator *validator.BookingValidator
	publisher events.Publisher
	cfg       *config.Config
	now       func() time.Time
}

func NewBookingService(
	repo repository.BookingRepository,
	lockRepo repository.BookingLockRepository,
	vehicles VehicleReader,
	resellers ResellerReader,
	validator *validator.BookingValidator,
	publisher events.Publisher,
	cfg *config.Config,
) BookingService {
	if publisher == nil {
		publisher = events.NopPublisher{}
	}
	return &bookingService{
		repo:      repo,
		lockRepo:  lockRepo,
		vehicles:  vehicles,
		resellers: resellers,
		validator: validator,
		publisher: publisher,
		cfg:       cfg,
		now:       func() time.Time { return time.Now().UTC() },
	}
}

func (s *bookingService) Availability(ctx context.Context, start, end time.Time) ([]*model.Vehicle, error) {
	w, err := rental.NewWindow(start, end)
	if err != nil {
		return nil, mapDomainError(err)
	}

	var vehicles []*model.Vehicle
	var bookings []*model.Booking
	var errVehicles, errBookings error
	var wg sync.WaitGroup
	wg.Add(2)

	go func() {
		defer wg.Done()
		vehicles, errVehicles = s.vehicles.List(ctx, model.RentalFilter(), 0, 0)
		if errVehicles != nil {
			s.cfg.Log.Error("Failed to list rentable vehicles", "error", errVehicles)
			errVehicles = apperrors.Internal("Failed to retrieve vehicles", errVehicles)
		}
	}()

	go func() {
		defer wg.Done()
		bookings, errBookings = s.repo.FindBlockingInWindow(ctx, w)
		if errBookings != nil {
			s.cfg.Log.Error("Failed to load blocking bookings", "start_date", w.Start, "end_date", w.End, "error", errBookings)
			errBookings = apperrors.Internal("Failed to retrieve bookings", errBookings)
		}
	}()

	wg.Wait()
	if errVehicles != nil {
		return nil, errVehicles
	}
	if errBookings != nil {
		return nil, errBookings
	}

	available := rental.AvailableVehicles(vehicles, bookings, w)
	s.cfg.Log.Debug("Fleet availability resolved",
		"start_date", w.Start,
		"end_date", w.End,
		"rentable", len(vehicles),
		"available", len(available),
	)
	return available, nil
}

func (s *bookingService) VehicleAvailability(ctx context.Context, vehicleID string, start, end time.Time) (*rental.VehicleAvailability, error) {
	w, err := rental.NewWindow(start, end)
	if err != nil {
		return nil, mapDomainError(err)
	}

	vehicle, err := s.loadVehicle(ctx, vehicleID)
	if err != nil {
		return nil, err
	}

	bookings, err := s.repo.FindBlockingByVehicle(ctx, vehicleID, w)
	if err != nil {
		s.cfg.Log.Error("Failed to load vehicle bookings", "vehicle_id", vehicleID, "error", err)
		return nil, apperrors.Internal("Failed to retrieve bookings", err)
	}

	result := rental.CheckVehicle(vehicle, bookings, w)
	return &result, nil
}

func (s *bookingService) Quote(ctx context.Context, req model.BookingRequest) (*model.Quote, error) {
	if err := s.validator.ValidateQuote(req); err != nil {
		s.cfg.Log.Warn("Quote validation failed", "channel", req.Channel(), "error", err)
		return nil, apperrors.Validation("Quote validation failed", map[string]any{"error": err.Error()})
	}

	_, _, quote, err := s.price(ctx, req)
	if err != nil {
		return nil, err
	}
	return &quote, nil
}

// Create turns a request into a booking. The window is checked again while
// holding the vehicle lock inside a transaction, so two overlapping requests
// can never both succeed.
func (s *bookingService) Create(ctx context.Context, req model.BookingRequest) (*model.Booking, error) {
	sanitizeCustomer(req.Details().Customer)

	if err := s.validator.Validate(req); err != nil {
		s.cfg.Log.Warn("Booking validation failed", "channel", req.Channel(), "error", err)
		return nil, apperrors.Validation("Booking validation failed", map[string]any{"error": err.Error()})
	}

	vehicle, w, quote, err := s.price(ctx, req)
	if err != nil {
		return nil, err
	}

	today := s.now().Truncate(24 * time.Hour)
	if w.FirstDay().Before(today) {
		return nil, apperrors.Validation("Booking validation failed", map[string]any{
			"error": "start_date cannot be in the past",
		})
	}

	booking := newBooking(req, vehicle, w, quote)

	lockID, owner, err := s.acquireVehicleLock(ctx, vehicle.ID)
	if err != nil {
		return nil, s.creationFailed(req.Channel(), vehicle.ID, err)
	}
	defer s.releaseVehicleLock(ctx, lockID, owner)

	var created, confirmed *model.Booking
	err = s.repo.ExecuteTransaction(ctx, func(sessCtx mongo.SessionContext) error {
		booking.ID = ""
		booking.Status = rental.InitialStatus(booking.Channel)
		created, confirmed = nil, nil

		if err := s.repo.TouchVehicle(sessCtx, vehicle.ID); err != nil {
			return err
		}

		existing, err := s.repo.FindBlockingByVehicle(sessCtx, vehicle.ID, w)
		if err != nil {
			return err
		}
		if conflict := rental.FirstConflict(vehicle.ID, existing, w); conflict != nil {
			return &rental.ConflictError{
				VehicleID: vehicle.ID,
				BookingID: conflict.ID,
				Start:     conflict.StartDate,
				End:       conflict.EndDate,
			}
		}

		if err := s.repo.Create(sessCtx, booking); err != nil {
			return err
		}
		snapshot := *booking
		created = &snapshot

		if booking.Status != model.BookingStatusPending {
			return nil
		}
		next, err := rental.Transition(booking.Status, model.BookingStatusConfirmed)
		if err != nil {
			return err
		}
		confirmed, err = s.repo.UpdateStatus(sessCtx, booking.ID, booking.Status, next)
		return err
	})
	if err != nil {
		return nil, s.creationFailed(req.Channel(), vehicle.ID, err)
	}

	metrics.IncBookingCreated(created.Channel)
	s.publish(ctx, events.NewBookingCreated(created))
	if confirmed != nil {
		s.publish(ctx, events.NewBookingStatusChanged(confirmed, created.Status))
		booking = confirmed
	}
	s.cfg.Log.Info("Booking created successfully",
		"id", booking.ID,
		"vehicle_id", booking.VehicleID,
		"channel", booking.Channel,
		"reseller_id", booking.ResellerID,
		"start_date", booking.StartDate,
		"end_date", booking.EndDate,
	)
	return booking, nil
}

func (s *bookingService) UpdateStatus(ctx context.Context, id string, status string) (*model.Booking, error) {
	if id == "" {
		return nil, apperrors.InvalidInput("Booking ID cannot be empty")
	}
	if err := s.validator.ValidateStatusUpdate(&model.BookingStatusUpdate{Status: status}); err != nil {
		return nil, apperrors.Validation("Invalid status update", map[string]any{"error": err.Error()})
	}

	existing, err := s.repo.FindByID(ctx, id)
	if err != nil {
		return nil, s.mapRepositoryError(err, id, "Failed to retrieve booking")
	}

	next, err := rental.Transition(existing.Status, status)
	if err != nil {
		s.cfg.Log.Warn("Rejected booking status transition", "id", id, "from", existing.Status, "to", status)
		return nil, mapDomainError(err)
	}

	updated, err := s.repo.UpdateStatus(ctx, id, existing.Status, next)
	if err != nil {
		return nil, s.mapRepositoryError(err, id, "Failed to update booking status")
	}

	s.publish(ctx, events.NewBookingStatusChanged(updated, existing.Status))
	s.cfg.Log.Info("Booking status updated", "id", id, "from", existing.Status, "to", next)
	return updated, nil
}

func (s *bookingService) Cancel(ctx context.Context, id string) (*model.Booking, error) {
	return s.UpdateStatus(ctx, id, model.BookingStatusCancelled)
}

func (s *bookingService) GetByID(ctx context.Context, id string) (*model.Booking, error) {
	if id == "" {
		return nil, apperrors.InvalidInput("Booking ID cannot be empty")
	}

	booking, err := s.repo.FindByID(ctx, id)
	if err != nil {
		return nil, s.mapRepositoryError(err, id, "Failed to retrieve booking")
	}
	return booking, nil
}

func (s *bookingService) GetAll(ctx context.Context, limit int, offset int64) ([]*model.Booking, int64, error) {
	return s.page(
		func() (int64, error) { return s.repo.Count(ctx) },
		func() ([]*model.Booking, error) { return s.repo.FindAll(ctx, limit, offset) },
		"limit", limit, "offset", offset,
	)
}

func (s *bookingService) SearchByVehicle(ctx context.Context, search model.BookingSearch, limit int, offset int64) ([]*model.Booking, int64, error) {
	if search.VehicleID == "" {
		return nil, 0, apperrors.InvalidInput("vehicle_id is required")
	}
	if search.StartDate != nil && search.EndDate != nil && search.EndDate.Before(*search.StartDate) {
		return nil, 0, apperrors.InvalidInput("end_date must not be before start_date")
	}

	return s.page(
		func() (int64, error) { return s.repo.CountByVehicle(ctx, search) },
		func() ([]*model.Booking, error) { return s.repo.SearchByVehicle(ctx, search, limit, offset) },
		"vehicle_id", search.VehicleID, "limit", limit, "offset", offset,
	)
}

func (s *bookingService) ListByReseller(ctx context.Context, resellerID string, limit int, offset int64) ([]*model.Booking, int64, error) {
	if resellerID == "" {
		return nil, 0, apperrors.InvalidInput("Reseller ID cannot be empty")
	}

	return s.page(
		func() (int64, error) { return s.repo.CountByReseller(ctx, resellerID) },
		func() ([]*model.Booking, error) { return s.repo.FindByReseller(ctx, resellerID, limit, offset) },
		"reseller_id", resellerID, "limit", limit, "offset", offset,
	)
}

// --- Helpers ---

// page runs the count and the page query concurrently.
func (s *bookingService) page(count func() (int64, error), find func() ([]*model.Booking, error), logArgs ...any) ([]*model.Booking, int64, error) {
	var total int64
	var bookings []*model.Booking
	var errCount, errFind error
	var wg sync.WaitGroup
	wg.Add(2)

	go func() {
		defer wg.Done()
		total, errCount = count()
		if errCount != nil {
			s.cfg.Log.Error("Failed to count bookings", append(logArgs, "error", errCount)...)
			errCount = apperrors.Internal("Failed to count bookings", errCount)
		}
	}()

	go func() {
		defer wg.Done()
		bookings, errFind = find()
		if errFind != nil {
			s.cfg.Log.Error("Failed to list bookings", append(logArgs, "error", errFind)...)
			errFind = apperrors.Internal("Failed to retrieve bookings", errFind)
		}
	}()

	wg.Wait()
	if errCount != nil {
		return nil, 0, errCount
	}
	if errFind != nil {
		return nil, 0, errFind
	}

	return bookings, total, nil
}

// price loads what the pricing rules need for req and computes the quote.
func (s *bookingService) price(ctx context.Context, req model.BookingRequest) (*model.Vehicle, rental.Window, model.Quote, error) {
	details := req.Details()

	w, err := rental.NewWindow(details.StartDate, details.EndDate)
	if err != nil {
		return nil, rental.Window{}, model.Quote{}, mapDomainError(err)
	}

	vehicle, err := s.loadVehicle(ctx, details.VehicleID)
	if err != nil {
		return nil, rental.Window{}, model.Quote{}, err
	}
	if !vehicle.Rentable() || vehicle.RentalPrice == nil {
		return nil, rental.Window{}, model.Quote{}, apperrors.Validation("Vehicle is not offered for rental", map[string]any{
			"vehicle_id": vehicle.ID,
			"type":       vehicle.Type,
		})
	}

	in := rental.QuoteInput{
		DailyRate:     vehicle.RentalPrice.Decimal,
		StartDate:     w.Start,
		EndDate:       w.End,
		PaymentMethod: details.PaymentMethod,
	}

	if r, ok := req.(*model.ResellerBookingRequest); ok {
		reseller, err := s.loadActiveReseller(ctx, r.ResellerID)
		if err != nil {
			return nil, rental.Window{}, model.Quote{}, err
		}
		in.UpchargePercentage = r.UpchargePercentage.Decimal
		in.CommissionRate = reseller.CommissionRate.Decimal
	}

	quote, err := rental.Calculate(in, s.cfg.CreditSurchargeRate)
	if err != nil {
		return nil, rental.Window{}, model.Quote{}, mapDomainError(err)
	}
	return vehicle, w, quote, nil
}

func (s *bookingService) loadVehicle(ctx context.Context, id string) (*model.Vehicle, error) {
	vehicle, err := s.vehicles.FindByID(ctx, id)
	if err != nil {
		if errors.Is(err, vehicleserrors.ErrNotFound) {
			return nil, apperrors.NotFoundWithID("Vehicle", id)
		}
		if errors.Is(err, vehicleserrors.ErrInvalidID) {
			return nil, apperrors.InvalidInput("Invalid vehicle ID format")
		}
		s.cfg.Log.Error("Failed to load vehicle", "vehicle_id", id, "error", err)
		return nil, apperrors.Internal("Failed to retrieve vehicle", err)
	}
	return vehicle, nil
}

func (s *bookingService) loadActiveReseller(ctx context.Context, id string) (*model.Reseller, error) {
	reseller, err := s.resellers.FindByID(ctx, id)
	if err != nil {
		if errors.Is(err, resellerserrors.ErrNotFound) {
			return nil, apperrors.NotFoundWithID("Reseller", id)
		}
		if errors.Is(err, resellerserrors.ErrInvalidID) {
			return nil, apperrors.InvalidInput("Invalid reseller ID format")
		}
		s.cfg.Log.Error("Failed to load reseller", "reseller_id", id, "error", err)
		return nil, apperrors.Internal("Failed to retrieve reseller", err)
	}
	if !reseller.Active {
		s.cfg.Log.Warn("Inactive reseller attempted to book", "reseller_id", id)
		return nil, apperrors.Forbidden("Reseller account is not active")
	}
	return reseller, nil
}

func newBooking(req model.BookingRequest, vehicle *model.Vehicle, w rental.Window, quote model.Quote) *model.Booking {
	details := req.Details()

	booking := &model.Booking{
		VehicleID:     vehicle.ID,
		StartDate:     w.Start,
		EndDate:       w.End,
		Status:        rental.InitialStatus(req.Channel()),
		Channel:       req.Channel(),
		Customer:      *details.Customer,
		PaymentMethod: details.PaymentMethod,
		Pricing:       quote,
	}
	if r, ok := req.(*model.ResellerBookingRequest); ok {
		booking.ResellerID = r.ResellerID
	}
	return booking
}

func sanitizeCustomer(c *model.Customer) {
	if c == nil {
		return
	}
	c.Name = sanitizer.NormalizeName(c.Name)
	c.Phone = sanitizer.NormalizePhone(c.Phone)
	c.Email = sanitizer.NormalizeEmail(c.Email)
}

// acquireVehicleLock takes the per-vehicle advisory lock, waiting up to
// BookingLockWait while another request holds it. Locks whose TTL passed are
// removed here since the TTL monitor only runs once a minute.
func (s *bookingService) acquireVehicleLock(ctx context.Context, vehicleID string) (string, string, error) {
	lockID := "booking_lock_" + vehicleID
	owner := uuid.NewString()
	deadline := time.Now().Add(s.cfg.BookingLockWait)
	backoff := lockInitialBackoff

	for {
		now := s.now()
		err := s.lockRepo.Create(ctx, &model.BookingLock{
			ID:        lockID,
			VehicleID: vehicleID,
			Owner:     owner,
			ExpiresAt: now.Add(s.cfg.BookingLockTTL),
			CreatedAt: now,
		})
		if err == nil {
			return lockID, owner, nil
		}
		if !errors.Is(err, bookingserrors.ErrLockHeld) {
			return "", "", err
		}

		removed, err := s.lockRepo.DeleteExpired(ctx, lockID, now)
		if err != nil {
			s.cfg.Log.Warn("Failed to clear expired booking lock", "lock_id", lockID, "error", err)
		}
		if removed {
			continue
		}

		if time.Now().Add(backoff).After(deadline) {
			return "", "", &rental.ConflictError{VehicleID: vehicleID}
		}

		select {
		case <-ctx.Done():
			return "", "", ctx.Err()
		case <-time.After(backoff):
		}
		backoff = min(backoff*2, lockMaxBackoff)
	}
}

func (s *bookingService) releaseVehicleLock(ctx context.Context, lockID, owner string) {
	if err := s.lockRepo.Release(context.WithoutCancel(ctx), lockID, owner); err != nil {
		s.cfg.Log.Warn("Failed to release booking lock", "lock_id", lockID, "error", err)
	}
}

func (s *bookingService) creationFailed(channel, vehicleID string, err error) error {
	var conflict *rental.ConflictError
	if errors.As(err, &conflict) {
		metrics.IncBookingConflict(channel)
		s.cfg.Log.Info("Booking rejected due to conflict",
			"vehicle_id", vehicleID,
			"channel", channel,
			"conflicting_booking_id", conflict.BookingID,
		)
		return mapDomainError(err)
	}
	if errors.Is(err, context.DeadlineExceeded) || errors.Is(err, context.Canceled) {
		return apperrors.Timeout("Booking request timed out")
	}
	if apperrors.IsAppError(err) {
		return err
	}

	s.cfg.Log.Error("Failed to create booking", "vehicle_id", vehicleID, "channel", channel, "error", err)
	return apperrors.Internal("Failed to create booking", err)
}

// publish is best effort. A lost booking.created is backfilled by the
// commission ledger when the booking settles.
func (s *bookingService) publish(ctx context.Context, event events.BookingEvent) {
	if err := s.publisher.PublishBooking(context.WithoutCancel(ctx), event); err != nil {
		s.cfg.Log.Error("Failed to publish booking event",
			"type", event.Type,
			"booking_id", event.Booking.ID,
			"error", err,
		)
	}
}

func (s *bookingService) mapRepositoryError(err error, id string, message string) error {
	switch {
	case errors.Is(err, bookingserrors.ErrNotFound):
		return apperrors.NotFoundWithID("Booking", id)
	case errors.Is(err, bookingserrors.ErrInvalidID):
		return apperrors.InvalidInput("Invalid booking ID format")
	case errors.Is(err, bookingserrors.ErrStatusChanged):
		return apperrors.Conflict("Booking status was changed by another request, please retry").WithCause(err)
	default:
		s.cfg.Log.Error(message, "id", id, "error", err)
		return apperrors.Internal(message, err)
	}
}

// mapDomainError translates the rental package's errors to API errors. The
// original error stays reachable through errors.As.
func mapDomainError(err error) error {
	var rangeErr *rental.InvalidRangeError
	var quoteErr *rental.InvalidQuoteInputError
	var transitionErr *rental.InvalidTransitionError
	var conflictErr *rental.ConflictError

	switch {
	case errors.As(err, &rangeErr):
		return apperrors.Validation(err.Error(), map[string]any{
			"start_date": rangeErr.Start,
			"end_date":   rangeErr.End,
		}).WithCause(err)
	case errors.As(err, &quoteErr):
		return apperrors.Validation(err.Error(), map[string]any{
			"field": quoteErr.Field,
		}).WithCause(err)
	case errors.As(err, &transitionErr):
		return apperrors.InvalidTransition(err.Error(), map[string]any{
			"from": transitionErr.From,
			"to":   transitionErr.To,
		}).WithCause(err)
	case errors.As(err, &conflictErr):
		details := map[string]any{"vehicle_id": conflictErr.VehicleID}
		if conflictErr.BookingID != "" {
			details["conflicting_booking_id"] = conflictErr.BookingID
			details["conflict_start"] = conflictErr.Start
			details["conflict_end"] = conflictErr.End
		}
		return apperrors.Conflict(err.Error()).WithDetails(details).WithCause(err)
	default:
		return apperrors.Internal(fmt.Sprintf("unexpected domain error: %v", err), err)
	}
}
