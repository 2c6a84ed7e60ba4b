package service

import (
	"context"
	"fmt"
	resellerserrors "carhub/internal/resellers/errors"
	"carhub/internal/resellers/validator"
	"carhub/pkg/config"
	apperrors "carhub/pkg/errors"
	"carhub/pkg/logger"
	"carhub/pkg/model"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type mockResellerRepository struct {
	createFunc   func(ctx context.Context, reseller *model.Reseller) error
	findByIDFunc func(ctx context.Context, id string) (*model.Reseller, error)
	updateFunc   func(ctx context.Context, id string, reseller *model.Reseller) error
}

func (m *mockResellerRepository) Create(ctx context.Context, reseller *model.Reseller) error {
	if m.createFunc != nil {
		return m.createFunc(ctx, reseller)
	}
	return nil
}

func (m *mockResellerRepository) FindByID(ctx context.Context, id string) (*model.Reseller, error) {
	if m.findByIDFunc != nil {
		return m.findByIDFunc(ctx, id)
	}
	return nil, fmt.Errorf("%w: %s", resellerserrors.ErrNotFound, id)
}

func (m *mockResellerRepository) FindAll(ctx context.Context, activeOnly bool, limit int, offset int64) ([]*model.Reseller, error) {
	return []*model.Reseller{}, nil
}

func (m *mockResellerRepository) Count(ctx context.Context, activeOnly bool) (int64, error) {
	return 0, nil
}

func (m *mockResellerRepository) Update(ctx context.Context, id string, reseller *model.Reseller) error {
	if m.updateFunc != nil {
		return m.updateFunc(ctx, id, reseller)
	}
	return nil
}

func (m *mockResellerRepository) Delete(ctx context.Context, id string) error {
	return nil
}

func newTestService(repo *mockResellerRepository) ResellerService {
	return NewResellerService(repo, validator.NewResellerValidator(), &config.Config{Log: logger.Discard()})
}

func TestCreate_NormalizesContactDetails(t *testing.T) {
	var stored *model.Reseller
	svc := newTestService(&mockResellerRepository{
		createFunc: func(ctx context.Context, reseller *model.Reseller) error {
			stored = reseller
			return nil
		},
	})

	err := svc.Create(context.Background(), &model.Reseller{
		Name:           "  Dana   Levi ",
		Phone:          "054-123-4567",
		Email:          " Dana@Example.COM ",
		CommissionRate: model.MustDecimal("12.5"),
	})
	require.NoError(t, err)
	require.NotNil(t, stored)

	assert.Equal(t, "Dana Levi", stored.Name)
	assert.Equal(t, "+972541234567", stored.Phone)
	assert.Equal(t, "dana@example.com", stored.Email)
	assert.True(t, stored.Active)
}

func TestCreate_Validation(t *testing.T) {
	tests := []struct {
		name     string
		reseller *model.Reseller
	}{
		{"commission above 100", &model.Reseller{Name: "Dana", Phone: "+972541234567", Email: "d@example.com", CommissionRate: model.MustDecimal("101")}},
		{"negative commission", &model.Reseller{Name: "Dana", Phone: "+972541234567", Email: "d@example.com", CommissionRate: model.MustDecimal("-1")}},
		{"too precise commission", &model.Reseller{Name: "Dana", Phone: "+972541234567", Email: "d@example.com", CommissionRate: model.MustDecimal("10.125")}},
		{"bad phone", &model.Reseller{Name: "Dana", Phone: "call me", Email: "d@example.com", CommissionRate: model.MustDecimal("10")}},
		{"bad email", &model.Reseller{Name: "Dana", Phone: "+972541234567", Email: "dana", CommissionRate: model.MustDecimal("10")}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			svc := newTestService(&mockResellerRepository{})
			err := svc.Create(context.Background(), tt.reseller)
			assert.True(t, apperrors.HasCode(err, apperrors.CodeValidation), "got %v", err)
		})
	}
}

func TestCreate_DuplicateEmail(t *testing.T) {
	svc := newTestService(&mockResellerRepository{
		createFunc: func(ctx context.Context, reseller *model.Reseller) error {
			return fmt.Errorf("%w: %s", resellerserrors.ErrDuplicateEmail, reseller.Email)
		},
	})

	err := svc.Create(context.Background(), &model.Reseller{
		Name: "Dana", Phone: "+972541234567", Email: "d@example.com", CommissionRate: model.MustDecimal("10"),
	})
	assert.True(t, apperrors.HasCode(err, apperrors.CodeConflict), "got %v", err)
}

func TestUpdate_Deactivate(t *testing.T) {
	var updated *model.Reseller
	svc := newTestService(&mockResellerRepository{
		findByIDFunc: func(ctx context.Context, id string) (*model.Reseller, error) {
			return &model.Reseller{
				ID: id, Name: "Dana", Phone: "+972541234567", Email: "d@example.com",
				CommissionRate: model.MustDecimal("10"), Active: true,
			}, nil
		},
		updateFunc: func(ctx context.Context, id string, reseller *model.Reseller) error {
			updated = reseller
			return nil
		},
	})

	inactive := false
	rate := model.MustDecimal("15")
	result, err := svc.Update(context.Background(), "r1", &model.ResellerUpdate{Active: &inactive, CommissionRate: &rate})
	require.NoError(t, err)

	assert.False(t, result.Active)
	assert.True(t, updated.CommissionRate.Equal(rate.Decimal))
	assert.Equal(t, "Dana", updated.Name)
}

func TestGetByID_NotFound(t *testing.T) {
	svc := newTestService(&mockResellerRepository{})

	_, err := svc.GetByID(context.Background(), "507f1f77bcf86cd799439011")
	assert.True(t, apperrors.HasCode(err, apperrors.CodeNotFound), "got %v", err)
}
