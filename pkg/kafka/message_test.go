package kafka

import (
	"context"
	"errors"
	"fmt"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestMessageBuilder(t *testing.T) {
	msg, err := NewMessage().
		WithKey("booking-1").
		WithEventType("booking.created").
		WithSource("bookings").
		WithValue(map[string]string{"id": "booking-1"}).
		Build()

	require.NoError(t, err)
	assert.Equal(t, "booking-1", msg.Key)
	assert.Equal(t, "booking.created", msg.GetEventType())
	assert.NotEmpty(t, msg.GetEventID())
	assert.NotEmpty(t, msg.Headers[HeaderTimestamp])
	assert.JSONEq(t, `{"id":"booking-1"}`, string(msg.Value))
}

func TestMessageBuilder_EncodeFailure(t *testing.T) {
	_, err := NewMessage().WithKey("k").WithValue(make(chan int)).Build()

	require.Error(t, err)
	assert.Equal(t, ErrorTypePermanent, ClassifyError(err))
}

func TestRetryCount(t *testing.T) {
	msg := Message{}
	assert.Equal(t, 0, msg.GetRetryCount())

	for i := 0; i < 12; i++ {
		msg.IncrementRetryCount()
	}
	assert.Equal(t, 12, msg.GetRetryCount())
	assert.Equal(t, "12", msg.Headers[HeaderRetryCount])
}

func TestDecodeValue_InvalidJSONIsPermanent(t *testing.T) {
	msg := Message{Value: []byte("{not json")}
	var out map[string]any

	err := msg.DecodeValue(&out)
	require.Error(t, err)
	assert.False(t, ShouldRetry(err, 0, 3))
}

func TestClassifyError(t *testing.T) {
	tests := []struct {
		name string
		err  error
		want ErrorType
	}{
		{"nil", nil, ErrorTypeUnknown},
		{"transient wrapper", NewTransientError("db down", errors.New("x")), ErrorTypeTransient},
		{"business wrapper", NewBusinessError("rule", nil), ErrorTypeBusiness},
		{"deadline", fmt.Errorf("write: %w", context.DeadlineExceeded), ErrorTypeTransient},
		{"connection refused text", errors.New("dial tcp: Connection Refused"), ErrorTypeTransient},
		{"unknown", errors.New("something odd"), ErrorTypePermanent},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, ClassifyError(tt.err))
		})
	}
}

func TestShouldRetry(t *testing.T) {
	transient := NewTransientError("timeout", nil)

	assert.True(t, ShouldRetry(transient, 0, 3))
	assert.False(t, ShouldRetry(transient, 3, 3))
	assert.False(t, ShouldRetry(NewPermanentError("bad", nil), 0, 3))
	assert.False(t, ShouldRetry(nil, 0, 3))
}

func TestChainConsumer_Order(t *testing.T) {
	var calls []string
	mw := func(name string) ConsumerMiddleware {
		return func(ctx context.Context, msg Message, next MessageHandler) error {
			calls = append(calls, name)
			return next(ctx, msg)
		}
	}

	handler := chainConsumer([]ConsumerMiddleware{mw("first"), mw("second")}, func(ctx context.Context, msg Message) error {
		calls = append(calls, "handler")
		return nil
	})

	require.NoError(t, handler(context.Background(), Message{}))
	assert.Equal(t, []string{"first", "second", "handler"}, calls)
}
