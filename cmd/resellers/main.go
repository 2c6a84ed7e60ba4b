package main

import (
	"carhub/internal/resellers/handler"
	"carhub/internal/resellers/repository"
	"carhub/internal/resellers/service"
	"carhub/internal/resellers/validator"
	"carhub/pkg/app"
	"carhub/pkg/config"
)

const ServiceName = "resellers"

func main() {
	cfg := config.Load(ServiceName)
	cfg.SetMongo()
	cfg.SetRedis()

	cfg.Log.Info("Starting Resellers service")
	resellerService := initServices(cfg)
	serverApp := app.NewApplication(cfg)
	serverApp.SetApp(handler.NewResellerHandler(resellerService, cfg.Log))
	serverApp.Run()
}

func initServices(cfg *config.Config) service.ResellerService {
	resellerValidator := validator.NewResellerValidator()
	resellerRepo := repository.NewMongoResellerRepository(cfg)
	resellerService := service.NewResellerService(
		resellerRepo,
		resellerValidator,
		cfg,
	)

	cfg.Log.Info("Reseller service initialized", "database", cfg.MongoDatabaseName)
	return resellerService
}
