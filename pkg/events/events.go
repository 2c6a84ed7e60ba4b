// Package events defines the booking lifecycle events exchanged over Kafka.
package events

import (
	"carhub/pkg/kafka"
	"carhub/pkg/logger"
	"carhub/pkg/model"
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"
)

const (
	TypeBookingCreated       = "booking.created"
	TypeBookingStatusChanged = "booking.status_changed"

	SchemaVersion = "1"
)

// BookingEvent carries a full booking snapshot so consumers never need to
// read the bookings collection.
type BookingEvent struct {
	EventID        string        `json:"event_id"`
	Type           string        `json:"type"`
	OccurredAt     time.Time     `json:"occurred_at"`
	PreviousStatus string        `json:"previous_status,omitempty"`
	Booking        model.Booking `json:"booking"`
}

func NewBookingCreated(booking *model.Booking) BookingEvent {
	return BookingEvent{
		EventID:    uuid.New().String(),
		Type:       TypeBookingCreated,
		OccurredAt: time.Now().UTC(),
		Booking:    *booking,
	}
}

func NewBookingStatusChanged(booking *model.Booking, previous string) BookingEvent {
	return BookingEvent{
		EventID:        uuid.New().String(),
		Type:           TypeBookingStatusChanged,
		OccurredAt:     time.Now().UTC(),
		PreviousStatus: previous,
		Booking:        *booking,
	}
}

type Publisher interface {
	PublishBooking(ctx context.Context, event BookingEvent) error
	Close() error
}

// NopPublisher drops every event. Used when Kafka is disabled.
type NopPublisher struct{}

func (NopPublisher) PublishBooking(ctx context.Context, event BookingEvent) error { return nil }
func (NopPublisher) Close() error                                                { return nil }

type kafkaPublisher struct {
	producer *kafka.Producer
	source   string
}

func NewKafkaPublisher(producer *kafka.Producer, source string) Publisher {
	return &kafkaPublisher{producer: producer, source: source}
}

func (p *kafkaPublisher) PublishBooking(ctx context.Context, event BookingEvent) error {
	msg, err := NewMessage(event, p.source, logger.RequestIDFrom(ctx))
	if err != nil {
		return err
	}
	return p.producer.Publish(ctx, msg)
}

func (p *kafkaPublisher) Close() error {
	return p.producer.Close()
}

// NewMessage encodes event keyed by booking ID, so every event of one booking
// lands on the same partition in order.
func NewMessage(event BookingEvent, source, correlationID string) (kafka.Message, error) {
	if event.Booking.ID == "" {
		return kafka.Message{}, fmt.Errorf("booking event %s has no booking id", event.Type)
	}
	return kafka.NewMessage().
		WithKey(event.Booking.ID).
		WithEventID(event.EventID).
		WithEventType(event.Type).
		WithSchemaVersion(SchemaVersion).
		WithSource(source).
		WithCorrelationID(correlationID).
		WithValue(event).
		Build()
}

// Decode reads a BookingEvent back from a consumed message.
func Decode(msg kafka.Message) (BookingEvent, error) {
	var event BookingEvent
	if err := msg.DecodeValue(&event); err != nil {
		return BookingEvent{}, err
	}
	if event.Type == "" {
		event.Type = msg.GetEventType()
	}
	if event.Booking.ID == "" {
		return BookingEvent{}, kafka.NewPermanentError("booking event without booking id", nil)
	}
	return event, nil
}
