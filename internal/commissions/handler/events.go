package handler

import (
	"context"

	"carhub/internal/commissions/service"
	"carhub/pkg/events"
	"carhub/pkg/kafka"
)

// NewBookingEventsHandler adapts the commission service to the booking events
// topic. Undecodable messages fail permanently and end up in the DLQ.
func NewBookingEventsHandler(svc service.CommissionService) kafka.MessageHandler {
	return func(ctx context.Context, msg kafka.Message) error {
		event, err := events.Decode(msg)
		if err != nil {
			return err
		}
		return svc.HandleBookingEvent(ctx, event)
	}
}
