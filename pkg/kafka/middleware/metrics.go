package kafka_middleware

import (
	"context"
	"time"

	"carhub/pkg/kafka"
	"carhub/pkg/metrics"
)

func MetricsProducerMiddleware() kafka.ProducerMiddleware {
	return func(ctx context.Context, msg kafka.Message, next func(ctx context.Context, msg kafka.Message) error) error {
		start := time.Now()
		err := next(ctx, msg)
		metrics.ObserveKafka(metrics.DirectionPublish, msg.Topic, err, time.Since(start))
		return err
	}
}

func MetricsConsumerMiddleware() kafka.ConsumerMiddleware {
	return func(ctx context.Context, msg kafka.Message, next kafka.MessageHandler) error {
		start := time.Now()
		err := next(ctx, msg)
		metrics.ObserveKafka(metrics.DirectionConsume, msg.Topic, err, time.Since(start))
		return err
	}
}
