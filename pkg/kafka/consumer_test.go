package kafka

import (
	"context"
	"testing"
	"time"

	"carhub/pkg/logger"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func testConsumer(maxRetries int) *Consumer {
	return &Consumer{
		maxRetries: maxRetries,
		retryDelay: time.Millisecond,
		log:        logger.Discard(),
	}
}

func TestHandleWithRetry_RetriesTransientErrors(t *testing.T) {
	c := testConsumer(3)
	attempts := 0

	err := c.handleWithRetry(context.Background(), func(ctx context.Context, msg Message) error {
		attempts++
		if attempts < 3 {
			return NewTransientError("mongo timeout", nil)
		}
		return nil
	}, Message{Headers: map[string]string{}})

	require.NoError(t, err)
	assert.Equal(t, 3, attempts)
}

func TestHandleWithRetry_GivesUpAfterMaxRetries(t *testing.T) {
	c := testConsumer(2)
	attempts := 0

	err := c.handleWithRetry(context.Background(), func(ctx context.Context, msg Message) error {
		attempts++
		return NewTransientError("mongo timeout", nil)
	}, Message{Headers: map[string]string{}})

	require.Error(t, err)
	assert.Equal(t, 3, attempts)
}

func TestHandleWithRetry_PermanentErrorsAreNotRetried(t *testing.T) {
	c := testConsumer(5)
	attempts := 0

	err := c.handleWithRetry(context.Background(), func(ctx context.Context, msg Message) error {
		attempts++
		return NewPermanentError("bad payload", nil)
	}, Message{Headers: map[string]string{}})

	require.Error(t, err)
	assert.Equal(t, 1, attempts)
}

func TestNewConsumer_ValidatesArguments(t *testing.T) {
	_, err := NewConsumer(nil, "topic", "group", "", func(ctx context.Context, msg Message) error { return nil }, nil)
	assert.Error(t, err)
}
