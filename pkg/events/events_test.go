package events

import (
	"context"
	"testing"
	"time"

	"carhub/pkg/kafka"
	"carhub/pkg/logger"
	"carhub/pkg/model"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func sampleBooking() *model.Booking {
	return &model.Booking{
		ID:         "66a000000000000000000001",
		VehicleID:  "66a0000000000000000000aa",
		StartDate:  time.Date(2024, 6, 1, 0, 0, 0, 0, time.UTC),
		EndDate:    time.Date(2024, 6, 4, 0, 0, 0, 0, time.UTC),
		Status:     model.BookingStatusConfirmed,
		Channel:    model.ChannelReseller,
		ResellerID: "66a0000000000000000000bb",
		Pricing: model.Quote{
			Days:             3,
			Subtotal:         model.MustDecimal("300"),
			CommissionAmount: model.MustDecimal("30"),
			ResellerEarnings: model.MustDecimal("60"),
		},
	}
}

func TestNewMessage_RoundTrip(t *testing.T) {
	event := NewBookingCreated(sampleBooking())
	ctx := logger.WithRequestID(context.Background(), "req-1")

	msg, err := NewMessage(event, "bookings", logger.RequestIDFrom(ctx))
	require.NoError(t, err)

	assert.Equal(t, event.Booking.ID, msg.Key)
	assert.Equal(t, event.EventID, msg.GetEventID())
	assert.Equal(t, TypeBookingCreated, msg.GetEventType())
	assert.Equal(t, "req-1", msg.GetCorrelationID())

	decoded, err := Decode(msg)
	require.NoError(t, err)
	assert.Equal(t, TypeBookingCreated, decoded.Type)
	assert.Equal(t, event.Booking.ResellerID, decoded.Booking.ResellerID)
	assert.True(t, decoded.Booking.Pricing.ResellerEarnings.Equal(event.Booking.Pricing.ResellerEarnings.Decimal))
}

func TestNewMessage_RequiresBookingID(t *testing.T) {
	_, err := NewMessage(NewBookingCreated(&model.Booking{}), "bookings", "")
	assert.Error(t, err)
}

func TestDecode_RejectsGarbage(t *testing.T) {
	_, err := Decode(kafka.Message{Value: []byte(`{"type":"booking.created"}`)})
	require.Error(t, err)
	assert.Equal(t, kafka.ErrorTypePermanent, kafka.ClassifyError(err))
}

func TestNewBookingStatusChanged(t *testing.T) {
	booking := sampleBooking()
	booking.Status = model.BookingStatusCompleted

	event := NewBookingStatusChanged(booking, model.BookingStatusConfirmed)

	assert.Equal(t, TypeBookingStatusChanged, event.Type)
	assert.Equal(t, model.BookingStatusConfirmed, event.PreviousStatus)
	assert.Equal(t, model.BookingStatusCompleted, event.Booking.Status)
}

func TestNopPublisher(t *testing.T) {
	var p Publisher = NopPublisher{}
	assert.NoError(t, p.PublishBooking(context.Background(), NewBookingCreated(sampleBooking())))
	assert.NoError(t, p.Close())
}
