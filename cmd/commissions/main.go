package main

import (
	"context"

	"carhub/internal/commissions/handler"
	"carhub/internal/commissions/repository"
	"carhub/internal/commissions/service"
	"carhub/pkg/app"
	"carhub/pkg/config"
	"carhub/pkg/kafka"
	kafkamiddleware "carhub/pkg/kafka/middleware"
)

const ServiceName = "commissions"

func main() {
	cfg := config.Load(ServiceName)
	cfg.SetMongo()
	cfg.SetRedis()

	cfg.Log.Info("Starting Commissions service")
	commissionService := service.NewCommissionService(repository.NewMongoCommissionRepository(cfg), cfg)

	serverApp := app.NewApplication(cfg)
	serverApp.SetApp(handler.NewCommissionHandler(commissionService, cfg.Log))

	if cfg.KafkaEnabled {
		consumer := initConsumer(cfg, commissionService)
		serverApp.AddWorker("booking-events-consumer", func(ctx context.Context) error {
			return consumer.Start(ctx)
		})
		serverApp.OnShutdown(func() {
			if err := consumer.Close(); err != nil {
				cfg.Log.Error("Failed to close booking events consumer", "error", err)
			}
		})
	} else {
		cfg.Log.Warn("Kafka disabled, commission ledger will not follow booking events")
	}

	serverApp.Run()
}

func initConsumer(cfg *config.Config, commissionService service.CommissionService) *kafka.Consumer {
	consumer, err := kafka.NewConsumer(
		cfg.Kafka,
		cfg.Kafka.BookingEventsTopic,
		cfg.Kafka.CommissionsGroupID,
		cfg.Kafka.BookingEventsDLQTopic,
		handler.NewBookingEventsHandler(commissionService),
		cfg.Log,
	)
	if err != nil {
		cfg.Log.Fatal("Failed to create Kafka consumer", "error", err)
	}
	consumer.Use(kafkamiddleware.LoggingConsumerMiddleware(cfg.Log))
	consumer.Use(kafkamiddleware.MetricsConsumerMiddleware())

	cfg.Log.Info("Booking events consumer initialized",
		"topic", cfg.Kafka.BookingEventsTopic,
		"group_id", cfg.Kafka.CommissionsGroupID,
	)
	return consumer
}
