package main

import (
	"carhub/internal/bookings/handler"
	"carhub/internal/bookings/repository"
	"carhub/internal/bookings/service"
	"carhub/internal/bookings/validator"
	resellersrepository "carhub/internal/resellers/repository"
	vehiclesrepository "carhub/internal/vehicles/repository"
	"carhub/pkg/app"
	"carhub/pkg/config"
	"carhub/pkg/events"
	"carhub/pkg/kafka"
	kafkamiddleware "carhub/pkg/kafka/middleware"
)

const ServiceName = "bookings"

func main() {
	cfg := config.Load(ServiceName)
	cfg.SetMongo()
	cfg.SetRedis()

	cfg.Log.Info("Starting Bookings service")
	publisher := initPublisher(cfg)
	bookingService := initServices(cfg, publisher)

	serverApp := app.NewApplication(cfg)
	serverApp.SetApp(handler.NewBookingHandler(bookingService, cfg.Log))
	serverApp.OnShutdown(func() {
		if err := publisher.Close(); err != nil {
			cfg.Log.Error("Failed to close booking events publisher", "error", err)
		}
	})
	serverApp.Run()
}

func initPublisher(cfg *config.Config) events.Publisher {
	if !cfg.KafkaEnabled {
		cfg.Log.Info("Kafka disabled, booking events will not be published")
		return events.NopPublisher{}
	}

	producer, err := kafka.NewProducer(cfg.Kafka, cfg.Kafka.BookingEventsTopic, cfg.Kafka.BookingEventsDLQTopic, cfg.Log)
	if err != nil {
		cfg.Log.Fatal("Failed to create Kafka producer", "error", err)
	}
	producer.Use(kafkamiddleware.LoggingProducerMiddleware(cfg.Log))
	producer.Use(kafkamiddleware.MetricsProducerMiddleware())

	cfg.Log.Info("Booking events publisher initialized", "topic", cfg.Kafka.BookingEventsTopic)
	return events.NewKafkaPublisher(producer, ServiceName)
}

func initServices(cfg *config.Config, publisher events.Publisher) service.BookingService {
	bookingValidator := validator.NewBookingValidator(cfg.Log)
	bookingService := service.NewBookingService(
		repository.NewMongoBookingRepository(cfg),
		repository.NewBookingLockRepository(cfg),
		vehiclesrepository.NewMongoVehicleRepository(cfg),
		resellersrepository.NewMongoResellerRepository(cfg),
		bookingValidator,
		publisher,
		cfg,
	)

	cfg.Log.Info("Booking service initialized", "database", cfg.MongoDatabaseName)
	return bookingService
}
