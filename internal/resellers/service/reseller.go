package service

import (
	"context"
	"errors"
	resellerserrors "carhub/internal/resellers/errors"
	"carhub/internal/resellers/repository"
	"carhub/internal/resellers/validator"
	"carhub/pkg/config"
	apperrors "carhub/pkg/errors"
	"carhub/pkg/model"
	"carhub/pkg/sanitizer"
	"sync"
)

type ResellerService interface {
	Create(ctx context.Context, reseller *model.Reseller) error
	GetByID(ctx context.Context, id string) (*model.Reseller, error)
	GetAll(ctx context.Context, activeOnly bool, limit int, offset int64) ([]*model.Reseller, int64, error)
	Update(ctx context.Context, id string, updates *model.ResellerUpdate) (*model.Reseller, error)
	Delete(ctx context.Context, id string) error
}

type resellerService struct {
	repo      repository.ResellerRepository
	validator *validator.ResellerValidator
	cfg       *config.Config
}

func NewResellerService(
	repo repository.ResellerRepository,
	validator *validator.ResellerValidator,
	cfg *config.Config,
) ResellerService {
	return &resellerService{
		repo:      repo,
		validator: validator,
		cfg:       cfg,
	}
}

// Create registers a new reseller. Accounts always start active.
func (s *resellerService) Create(ctx context.Context, reseller *model.Reseller) error {
	s.sanitize(reseller)
	reseller.Active = true

	if err := s.validator.Validate(reseller); err != nil {
		s.cfg.Log.Warn("Reseller validation failed",
			"name", reseller.Name,
			"email", reseller.Email,
			"error", err,
		)
		return apperrors.Validation("Reseller validation failed", map[string]any{
			"error": err.Error(),
		})
	}

	if err := s.repo.Create(ctx, reseller); err != nil {
		return s.mapRepositoryError(err, reseller.ID, "Failed to create reseller")
	}

	s.cfg.Log.Info("Reseller created successfully",
		"id", reseller.ID,
		"name", reseller.Name,
		"commission_rate", reseller.CommissionRate.String(),
	)

	return nil
}

func (s *resellerService) GetByID(ctx context.Context, id string) (*model.Reseller, error) {
	if id == "" {
		return nil, apperrors.InvalidInput("Reseller ID cannot be empty")
	}

	reseller, err := s.repo.FindByID(ctx, id)
	if err != nil {
		return nil, s.mapRepositoryError(err, id, "Failed to retrieve reseller")
	}
	return reseller, nil
}

func (s *resellerService) GetAll(ctx context.Context, activeOnly bool, limit int, offset int64) ([]*model.Reseller, int64, error) {
	var count int64
	var resellers []*model.Reseller
	var errCount, errFind error
	var wg sync.WaitGroup
	wg.Add(2)
	go func() {
		defer wg.Done()
		var err error
		count, err = s.repo.Count(ctx, activeOnly)
		if err != nil {
			s.cfg.Log.Error("Failed to count resellers", "error", err)
			errCount = apperrors.Internal("Failed to count resellers", err)
		}
	}()

	go func() {
		defer wg.Done()
		var err error
		resellers, err = s.repo.FindAll(ctx, activeOnly, limit, offset)
		if err != nil {
			s.cfg.Log.Error("Failed to get all resellers",
				"limit", limit,
				"offset", offset,
				"error", err,
			)
			errFind = apperrors.Internal("Failed to retrieve resellers", err)
		}
	}()
	wg.Wait()

	if errCount != nil {
		return nil, 0, errCount
	}
	if errFind != nil {
		return nil, 0, errFind
	}
	return resellers, count, nil
}

func (s *resellerService) Update(ctx context.Context, id string, updates *model.ResellerUpdate) (*model.Reseller, error) {
	if id == "" {
		return nil, apperrors.InvalidInput("Reseller ID cannot be empty")
	}

	existing, err := s.repo.FindByID(ctx, id)
	if err != nil {
		return nil, s.mapRepositoryError(err, id, "Failed to check reseller existence")
	}

	s.sanitizeUpdate(updates)
	merged := mergeResellerUpdates(existing, updates)

	if err := s.validator.Validate(merged); err != nil {
		s.cfg.Log.Warn("Reseller validation failed",
			"id", id,
			"error", err,
		)
		return nil, apperrors.Validation("Reseller validation failed", map[string]any{
			"error": err.Error(),
		})
	}

	if err := s.repo.Update(ctx, id, merged); err != nil {
		return nil, s.mapRepositoryError(err, id, "Failed to update reseller")
	}

	s.cfg.Log.Info("Reseller updated successfully",
		"id", id,
		"active", merged.Active,
		"commission_rate", merged.CommissionRate.String(),
	)

	return merged, nil
}

func (s *resellerService) Delete(ctx context.Context, id string) error {
	if id == "" {
		return apperrors.InvalidInput("Reseller ID cannot be empty")
	}

	if err := s.repo.Delete(ctx, id); err != nil {
		return s.mapRepositoryError(err, id, "Failed to delete reseller")
	}

	s.cfg.Log.Info("Reseller deleted successfully", "id", id)
	return nil
}

func (s *resellerService) mapRepositoryError(err error, id string, message string) error {
	switch {
	case errors.Is(err, resellerserrors.ErrNotFound):
		return apperrors.NotFoundWithID("Reseller", id)
	case errors.Is(err, resellerserrors.ErrInvalidID):
		return apperrors.InvalidInput("Invalid reseller ID format")
	case errors.Is(err, resellerserrors.ErrDuplicateEmail):
		return apperrors.Conflict("A reseller with this email already exists")
	}

	s.cfg.Log.Error(message,
		"id", id,
		"error", err,
	)
	return apperrors.Internal(message, err)
}

func (s *resellerService) sanitize(reseller *model.Reseller) {
	reseller.Name = sanitizer.NormalizeName(reseller.Name)
	reseller.Company = sanitizer.NormalizeName(reseller.Company)
	reseller.Email = sanitizer.NormalizeEmail(reseller.Email)
	reseller.Phone = normalizePhoneOrKeep(reseller.Phone)
}

func (s *resellerService) sanitizeUpdate(updates *model.ResellerUpdate) {
	updates.Name = sanitizer.NormalizeName(updates.Name)
	updates.Company = sanitizer.NormalizeName(updates.Company)
	updates.Email = sanitizer.NormalizeEmail(updates.Email)
	updates.Phone = normalizePhoneOrKeep(updates.Phone)
}

// normalizePhoneOrKeep returns the E.164 form of phone. Unparseable input is
// returned trimmed so the validator reports it instead of it being dropped.
func normalizePhoneOrKeep(phone string) string {
	if normalized := sanitizer.NormalizePhone(phone); normalized != "" {
		return normalized
	}
	return sanitizer.TrimAndNormalize(phone)
}

func mergeResellerUpdates(existing *model.Reseller, updates *model.ResellerUpdate) *model.Reseller {
	merged := *existing

	if updates.Name != "" {
		merged.Name = updates.Name
	}
	if updates.Company != "" {
		merged.Company = updates.Company
	}
	if updates.Phone != "" {
		merged.Phone = updates.Phone
	}
	if updates.Email != "" {
		merged.Email = updates.Email
	}
	if updates.CommissionRate != nil {
		merged.CommissionRate = *updates.CommissionRate
	}
	if updates.Active != nil {
		merged.Active = *updates.Active
	}

	return &merged
}
