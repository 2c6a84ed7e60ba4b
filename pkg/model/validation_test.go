package model

import (
	"encoding/json"
	"testing"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.mongodb.org/mongo-driver/bson"
)

func newValidator() *validator.Validate {
	v := validator.New()
	v.RegisterCustomTypeFunc(DecimalValuer, Decimal{})
	return v
}

func TestReseller_RequiredFields(t *testing.T) {
	tests := []struct {
		name        string
		reseller    *Reseller
		expectValid bool
	}{
		{
			name: "valid reseller",
			reseller: &Reseller{
				Name:           "Sunny Tours",
				Phone:          "+972541234567",
				Email:          "agent@sunny.example",
				CommissionRate: MustDecimal("12.5"),
			},
			expectValid: true,
		},
		{
			name: "missing name",
			reseller: &Reseller{
				Phone:          "+972541234567",
				Email:          "agent@sunny.example",
				CommissionRate: MustDecimal("10"),
			},
			expectValid: false,
		},
		{
			name: "invalid phone format",
			reseller: &Reseller{
				Name:           "Sunny Tours",
				Phone:          "054-1234567",
				Email:          "agent@sunny.example",
				CommissionRate: MustDecimal("10"),
			},
			expectValid: false,
		},
		{
			name: "commission above 100",
			reseller: &Reseller{
				Name:           "Sunny Tours",
				Phone:          "+972541234567",
				Email:          "agent@sunny.example",
				CommissionRate: MustDecimal("100.01"),
			},
			expectValid: false,
		},
	}

	v := newValidator()
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := v.Struct(tt.reseller)
			assert.Equal(t, tt.expectValid, err == nil, "validation error: %v", err)
		})
	}
}

func TestBookingDetails_Validation(t *testing.T) {
	start := time.Date(2024, 6, 1, 0, 0, 0, 0, time.UTC)
	valid := BookingDetails{
		VehicleID:     "507f1f77bcf86cd799439011",
		StartDate:     start,
		EndDate:       start.AddDate(0, 0, 3),
		PaymentMethod: PaymentCredit,
	}

	v := newValidator()
	require.NoError(t, v.Struct(&PublicBookingRequest{BookingDetails: valid}))

	badPayment := valid
	badPayment.PaymentMethod = "bitcoin"
	assert.Error(t, v.Struct(&PublicBookingRequest{BookingDetails: badPayment}))

	badCustomer := valid
	badCustomer.Customer = &Customer{Name: "D", Phone: "+972541234567"}
	assert.Error(t, v.Struct(&PublicBookingRequest{BookingDetails: badCustomer}))

	assert.Error(t, v.Struct(&ResellerBookingRequest{BookingDetails: valid, ResellerID: "nope"}))
}

func TestBookingRequest_Channel(t *testing.T) {
	var public BookingRequest = &PublicBookingRequest{}
	var reseller BookingRequest = &ResellerBookingRequest{ResellerID: "507f1f77bcf86cd799439022"}

	assert.Equal(t, ChannelPublic, public.Channel())
	assert.Equal(t, ChannelReseller, reseller.Channel())
}

func TestVehicle_Rentable(t *testing.T) {
	assert.True(t, (&Vehicle{Type: VehicleTypeRental}).Rentable())
	assert.True(t, (&Vehicle{Type: VehicleTypeBoth}).Rentable())
	assert.False(t, (&Vehicle{Type: VehicleTypeSale}).Rentable())
}

func TestDecimal_JSONRoundsForDisplay(t *testing.T) {
	out, err := json.Marshal(struct {
		Total Decimal `json:"total"`
	}{Total: MustDecimal("46.2")})
	require.NoError(t, err)
	assert.JSONEq(t, `{"total":46.20}`, string(out))

	var in struct {
		Rate Decimal `json:"rate"`
	}
	require.NoError(t, json.Unmarshal([]byte(`{"rate":"12.345"}`), &in))
	assert.Equal(t, "12.345", in.Rate.String())
}

func TestDecimal_BSONKeepsPrecision(t *testing.T) {
	type doc struct {
		Amount Decimal `bson:"amount"`
	}

	raw, err := bson.Marshal(doc{Amount: MustDecimal("376.2049")})
	require.NoError(t, err)

	var decoded doc
	require.NoError(t, bson.Unmarshal(raw, &decoded))
	assert.True(t, decoded.Amount.Equal(MustDecimal("376.2049").Decimal))

	raw, err = bson.Marshal(bson.M{"amount": 42.5})
	require.NoError(t, err)
	require.NoError(t, bson.Unmarshal(raw, &decoded))
	assert.Equal(t, "42.5", decoded.Amount.String())
}
