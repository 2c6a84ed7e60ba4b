package main

import (
	"carhub/internal/vehicles/handler"
	"carhub/internal/vehicles/repository"
	"carhub/internal/vehicles/service"
	"carhub/internal/vehicles/validator"
	"carhub/pkg/app"
	"carhub/pkg/config"
)

const ServiceName = "vehicles"

func main() {
	cfg := config.Load(ServiceName)
	cfg.SetMongo()
	cfg.SetRedis()

	cfg.Log.Info("Starting Vehicles service")
	vehicleService := initServices(cfg)
	serverApp := app.NewApplication(cfg)
	serverApp.SetApp(handler.NewVehicleHandler(vehicleService, cfg.Log))
	serverApp.Run()
}

func initServices(cfg *config.Config) service.VehicleService {
	vehicleValidator := validator.NewVehicleValidator(cfg.Log)
	vehicleRepo := repository.NewMongoVehicleRepository(cfg)
	vehicleService := service.NewVehicleService(
		vehicleRepo,
		vehicleValidator,
		cfg,
	)

	cfg.Log.Info("Vehicle service initialized", "database", cfg.MongoDatabaseName)
	return vehicleService
}
