package service

import (
	"context"
	"errors"
	vehicleserrors "carhub/internal/vehicles/errors"
	"carhub/internal/vehicles/repository"
	"carhub/internal/vehicles/validator"
	"carhub/pkg/config"
	apperrors "carhub/pkg/errors"
	"carhub/pkg/model"
	"carhub/pkg/sanitizer"
	"net/http"
	"sync"
	"time"
)

type VehicleService interface {
	Create(ctx context.Context, v *model.Vehicle) error
	GetByID(ctx context.Context, id string) (*model.Vehicle, error)
	GetAll(ctx context.Context, filter model.VehicleFilter, limit int, offset int64) ([]*model.Vehicle, int64, error)
	Update(ctx context.Context, id string, updates *model.VehicleUpdate) (*model.Vehicle, error)
	Delete(ctx context.Context, id string) error
}

type vehicleService struct {
	repo      repository.VehicleRepository
	validator *validator.VehicleValidator
	cfg       *config.Config
}

func NewVehicleService(
	repo repository.VehicleRepository,
	validator *validator.VehicleValidator,
	cfg *config.Config,
) VehicleService {
	return &vehicleService{
		repo:      repo,
		validator: validator,
		cfg:       cfg,
	}
}

func (s *vehicleService) Create(ctx context.Context, v *model.Vehicle) error {
	s.sanitize(v)

	if err := s.validator.Validate(v); err != nil {
		s.cfg.Log.Warn("Vehicle validation failed",
			"make", v.Make,
			"model", v.Model,
			"error", err,
		)
		return apperrors.Validation("Vehicle validation failed", map[string]any{
			"error": err.Error(),
		})
	}

	if err := s.repo.Create(ctx, v); err != nil {
		s.cfg.Log.Error("Failed to create vehicle",
			"make", v.Make,
			"model", v.Model,
			"error", err,
		)
		return apperrors.Internal("Failed to create vehicle", err)
	}

	s.cfg.Log.Info("Vehicle created successfully",
		"id", v.ID,
		"make", v.Make,
		"model", v.Model,
		"type", v.Type,
	)

	return nil
}

func (s *vehicleService) GetByID(ctx context.Context, id string) (*model.Vehicle, error) {
	if id == "" {
		return nil, apperrors.InvalidInput("Vehicle ID cannot be empty")
	}

	v, err := s.repo.FindByID(ctx, id)
	if err != nil {
		return nil, s.mapRepositoryError(err, id, "Failed to retrieve vehicle")
	}

	return v, nil
}

func (s *vehicleService) GetAll(ctx context.Context, filter model.VehicleFilter, limit int, offset int64) ([]*model.Vehicle, int64, error) {
	filter = s.sanitizeFilter(filter)

	var count int64
	var vehicles []*model.Vehicle
	var errCount, errFind error
	var wg sync.WaitGroup
	wg.Add(2)
	go func() {
		defer wg.Done()
		var err error
		count, err = s.repo.Count(ctx, filter)
		if err != nil {
			s.cfg.Log.Error("Failed to count vehicles", "error", err)
			errCount = apperrors.Internal("Failed to count vehicles", err)
		}
	}()

	go func() {
		defer wg.Done()
		var err error
		vehicles, err = s.repo.List(ctx, filter, limit, offset)
		if err != nil {
			s.cfg.Log.Error("Failed to list vehicles",
				"types", filter.Types,
				"make", filter.Make,
				"limit", limit,
				"offset", offset,
				"error", err,
			)
			errFind = apperrors.Internal("Failed to retrieve vehicles", err)
		}
	}()
	wg.Wait()

	if errCount != nil {
		return nil, 0, errCount
	}
	if errFind != nil {
		return nil, 0, errFind
	}

	return vehicles, count, nil
}

func (s *vehicleService) Update(ctx context.Context, id string, updates *model.VehicleUpdate) (*model.Vehicle, error) {
	if id == "" {
		return nil, apperrors.InvalidInput("Vehicle ID cannot be empty")
	}

	existing, err := s.repo.FindByID(ctx, id)
	if err != nil {
		return nil, s.mapRepositoryError(err, id, "Failed to check vehicle existence")
	}

	s.sanitizeUpdate(updates)
	merged := mergeVehicleUpdates(existing, updates)

	if err := s.validator.Validate(merged); err != nil {
		s.cfg.Log.Warn("Vehicle validation failed",
			"id", id,
			"error", err,
		)
		return nil, apperrors.Validation("Vehicle validation failed", map[string]any{
			"error": err.Error(),
		})
	}

	if existing.Rentable() && !merged.Rentable() {
		if err := s.ensureNoBlockingBookings(ctx, id); err != nil {
			return nil, err
		}
	}

	if err := s.repo.Update(ctx, id, merged); err != nil {
		return nil, s.mapRepositoryError(err, id, "Failed to update vehicle")
	}

	s.cfg.Log.Info("Vehicle updated successfully",
		"id", id,
		"type", merged.Type,
	)

	return merged, nil
}

func (s *vehicleService) Delete(ctx context.Context, id string) error {
	if id == "" {
		return apperrors.InvalidInput("Vehicle ID cannot be empty")
	}

	if err := s.ensureNoBlockingBookings(ctx, id); err != nil {
		return err
	}

	if err := s.repo.Delete(ctx, id); err != nil {
		return s.mapRepositoryError(err, id, "Failed to delete vehicle")
	}

	s.cfg.Log.Info("Vehicle deleted successfully", "id", id)

	return nil
}

func (s *vehicleService) ensureNoBlockingBookings(ctx context.Context, id string) error {
	blocked, err := s.repo.HasBlockingBookings(ctx, id, time.Now().UTC())
	if err != nil {
		s.cfg.Log.Error("Failed to check vehicle bookings", "id", id, "error", err)
		return apperrors.Internal("Failed to check vehicle bookings", err)
	}
	if blocked {
		s.cfg.Log.Warn("Vehicle still has blocking bookings", "id", id)
		return apperrors.Wrap(vehicleserrors.ErrHasActiveBookings, apperrors.CodeConflict,
			"Vehicle has upcoming bookings and cannot be withdrawn from rental", http.StatusConflict).
			WithDetails(map[string]any{"id": id})
	}
	return nil
}

func (s *vehicleService) mapRepositoryError(err error, id string, message string) error {
	if errors.Is(err, vehicleserrors.ErrNotFound) {
		return apperrors.NotFoundWithID("Vehicle", id)
	}
	if errors.Is(err, vehicleserrors.ErrInvalidID) {
		return apperrors.InvalidInput("Invalid vehicle ID format")
	}
	s.cfg.Log.Error(message,
		"id", id,
		"error", err,
	)
	return apperrors.Internal(message, err)
}

func (s *vehicleService) sanitize(v *model.Vehicle) {
	v.Make = sanitizer.NormalizeName(v.Make)
	v.Model = sanitizer.NormalizeName(v.Model)
	v.Type = sanitizer.NormalizeLower(v.Type)
	v.Color = sanitizer.NormalizeName(v.Color)
	v.Transmission = sanitizer.NormalizeLower(v.Transmission)
	v.Fuel = sanitizer.NormalizeLower(v.Fuel)
}

func (s *vehicleService) sanitizeUpdate(updates *model.VehicleUpdate) {
	updates.Make = sanitizer.NormalizeName(updates.Make)
	updates.Model = sanitizer.NormalizeName(updates.Model)
	updates.Type = sanitizer.NormalizeLower(updates.Type)
	updates.Color = sanitizer.NormalizeName(updates.Color)
	updates.Transmission = sanitizer.NormalizeLower(updates.Transmission)
	updates.Fuel = sanitizer.NormalizeLower(updates.Fuel)
}

func (s *vehicleService) sanitizeFilter(filter model.VehicleFilter) model.VehicleFilter {
	filter.Types = sanitizer.NormalizeStringSlice(filter.Types, sanitizer.NormalizeLower)
	filter.Make = sanitizer.NormalizeName(filter.Make)
	return filter
}

func mergeVehicleUpdates(existing *model.Vehicle, updates *model.VehicleUpdate) *model.Vehicle {
	merged := *existing

	if updates.Make != "" {
		merged.Make = updates.Make
	}
	if updates.Model != "" {
		merged.Model = updates.Model
	}
	if updates.Year != nil {
		merged.Year = *updates.Year
	}
	if updates.Type != "" {
		merged.Type = updates.Type
	}
	if updates.RentalPrice != nil {
		merged.RentalPrice = updates.RentalPrice
	}
	if updates.SalePrice != nil {
		merged.SalePrice = updates.SalePrice
	}
	if updates.Mileage != nil {
		merged.Mileage = *updates.Mileage
	}
	if updates.Color != "" {
		merged.Color = updates.Color
	}
	if updates.Transmission != "" {
		merged.Transmission = updates.Transmission
	}
	if updates.Fuel != "" {
		merged.Fuel = updates.Fuel
	}
	if updates.Seats != nil {
		merged.Seats = *updates.Seats
	}

	return &merged
}
