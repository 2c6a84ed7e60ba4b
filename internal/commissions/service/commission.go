package service

import (
	"context"
	"carhub/internal/commissions/repository"
	"carhub/pkg/config"
	apperrors "carhub/pkg/errors"
	"carhub/pkg/events"
	"carhub/pkg/kafka"
	"carhub/pkg/model"
	"sync"

	"github.com/shopspring/decimal"
	"go.mongodb.org/mongo-driver/bson/primitive"
)

var ledgerStatuses = []string{model.CommissionAccrued, model.CommissionPayable, model.CommissionVoid}

type CommissionService interface {
	HandleBookingEvent(ctx context.Context, event events.BookingEvent) error
	List(ctx context.Context, resellerID string, status string, limit int, offset int64) ([]*model.CommissionEntry, int64, error)
	Summary(ctx context.Context, resellerID string) (*model.CommissionSummary, error)
}

type commissionService struct {
	repo repository.CommissionRepository
	cfg  *config.Config
}

func NewCommissionService(repo repository.CommissionRepository, cfg *config.Config) CommissionService {
	return &commissionService{
		repo: repo,
		cfg:  cfg,
	}
}

// HandleBookingEvent applies one booking event to the ledger. Only reseller
// bookings earn commission; every other event is acknowledged and ignored.
// Storage failures are returned as transient so the consumer retries them.
func (s *commissionService) HandleBookingEvent(ctx context.Context, event events.BookingEvent) error {
	booking := event.Booking
	if booking.Channel != model.ChannelReseller || booking.ResellerID == "" {
		return nil
	}

	switch event.Type {
	case events.TypeBookingCreated:
		return s.accrue(ctx, &booking)
	case events.TypeBookingStatusChanged:
		switch booking.Status {
		case model.BookingStatusCompleted:
			return s.settle(ctx, &booking, model.CommissionPayable)
		case model.BookingStatusCancelled:
			return s.settle(ctx, &booking, model.CommissionVoid)
		}
		return nil
	default:
		s.cfg.Log.Warn("Ignoring unknown booking event", "type", event.Type, "event_id", event.EventID)
		return nil
	}
}

func (s *commissionService) accrue(ctx context.Context, booking *model.Booking) error {
	inserted, err := s.repo.Insert(ctx, newEntry(booking, model.CommissionAccrued))
	if err != nil {
		return kafka.NewTransientError("failed to record commission", err).
			WithDetail("booking_id", booking.ID)
	}

	if !inserted {
		s.cfg.Log.Debug("Commission already recorded", "booking_id", booking.ID)
		return nil
	}
	s.cfg.Log.Info("Commission accrued",
		"booking_id", booking.ID,
		"reseller_id", booking.ResellerID,
		"earnings", booking.Pricing.ResellerEarnings.StringFixed(2),
	)
	return nil
}

// settle moves an accrued entry to its final status. When the creation event
// never arrived the entry is created directly in that status.
func (s *commissionService) settle(ctx context.Context, booking *model.Booking, status string) error {
	matched, err := s.repo.UpdateStatus(ctx, booking.ID, []string{model.CommissionAccrued}, status)
	if err != nil {
		return kafka.NewTransientError("failed to settle commission", err).
			WithDetail("booking_id", booking.ID)
	}

	if !matched {
		if _, err := s.repo.Insert(ctx, newEntry(booking, status)); err != nil {
			return kafka.NewTransientError("failed to record settled commission", err).
				WithDetail("booking_id", booking.ID)
		}
	}

	s.cfg.Log.Info("Commission settled", "booking_id", booking.ID, "reseller_id", booking.ResellerID, "status", status)
	return nil
}

func newEntry(booking *model.Booking, status string) *model.CommissionEntry {
	return &model.CommissionEntry{
		ID:               booking.ID,
		ResellerID:       booking.ResellerID,
		VehicleID:        booking.VehicleID,
		CommissionAmount: booking.Pricing.CommissionAmount,
		UpchargeAmount:   booking.Pricing.UpchargeAmount,
		Earnings:         booking.Pricing.ResellerEarnings,
		CustomerTotal:    booking.Pricing.CustomerTotal,
		Status:           status,
	}
}

func validateResellerID(resellerID string) error {
	if resellerID == "" {
		return apperrors.InvalidInput("Reseller ID cannot be empty")
	}
	if _, err := primitive.ObjectIDFromHex(resellerID); err != nil {
		return apperrors.InvalidInput("Invalid reseller ID format")
	}
	return nil
}

func (s *commissionService) List(ctx context.Context, resellerID string, status string, limit int, offset int64) ([]*model.CommissionEntry, int64, error) {
	if err := validateResellerID(resellerID); err != nil {
		return nil, 0, err
	}
	if status != "" && !isLedgerStatus(status) {
		return nil, 0, apperrors.InvalidInput("status must be one of accrued, payable, void")
	}

	var count int64
	var entries []*model.CommissionEntry
	var errCount, errFind error
	var wg sync.WaitGroup
	wg.Add(2)

	go func() {
		defer wg.Done()
		count, errCount = s.repo.CountByReseller(ctx, resellerID, status)
		if errCount != nil {
			s.cfg.Log.Error("Failed to count commission entries", "reseller_id", resellerID, "error", errCount)
			errCount = apperrors.Internal("Failed to count commission entries", errCount)
		}
	}()

	go func() {
		defer wg.Done()
		entries, errFind = s.repo.FindByReseller(ctx, resellerID, status, limit, offset)
		if errFind != nil {
			s.cfg.Log.Error("Failed to list commission entries", "reseller_id", resellerID, "error", errFind)
			errFind = apperrors.Internal("Failed to retrieve commission entries", errFind)
		}
	}()

	wg.Wait()
	if errCount != nil {
		return nil, 0, errCount
	}
	if errFind != nil {
		return nil, 0, errFind
	}

	return entries, count, nil
}

// Summary reports count and earnings per ledger status. Statuses without
// entries are included with zero totals.
func (s *commissionService) Summary(ctx context.Context, resellerID string) (*model.CommissionSummary, error) {
	if err := validateResellerID(resellerID); err != nil {
		return nil, err
	}

	byStatus, err := s.repo.SumByStatus(ctx, resellerID)
	if err != nil {
		s.cfg.Log.Error("Failed to summarize commissions", "reseller_id", resellerID, "error", err)
		return nil, apperrors.Internal("Failed to summarize commissions", err)
	}

	summary := &model.CommissionSummary{
		ResellerID: resellerID,
		ByStatus:   make(map[string]model.CommissionTotals, len(ledgerStatuses)),
	}

	// void entries are listed but never count towards the total
	total := decimal.Zero
	for _, status := range ledgerStatuses {
		totals := byStatus[status]
		summary.ByStatus[status] = totals
		if status == model.CommissionVoid {
			continue
		}
		summary.Total.Count += totals.Count
		total = total.Add(totals.Earnings.Decimal)
	}
	summary.Total.Earnings = model.NewDecimal(total)

	return summary, nil
}

func isLedgerStatus(status string) bool {
	for _, s := range ledgerStatuses {
		if s == status {
			return true
		}
	}
	return false
}
