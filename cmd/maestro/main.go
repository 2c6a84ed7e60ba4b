package main

import (
	"carhub/internal/maestro/handlers"
	"carhub/internal/maestro/service"
	"carhub/pkg/app"
	"carhub/pkg/config"
)

const ServiceName = "maestro"

func main() {
	cfg := config.Load(ServiceName)
	cfg.SetRedis()

	cfg.Client.SetVehicleClient(cfg.VehiclesServiceURL)
	cfg.Client.SetResellerClient(cfg.ResellersServiceURL)
	cfg.Client.SetBookingClient(cfg.BookingsServiceURL)

	cfg.Log.Info("Starting Maestro service",
		"vehicles_url", cfg.VehiclesServiceURL,
		"resellers_url", cfg.ResellersServiceURL,
		"bookings_url", cfg.BookingsServiceURL,
	)

	maestroService := service.NewMaestroService(cfg.Client, cfg.Log)
	serverApp := app.NewApplication(cfg)
	serverApp.SetApp(handlers.NewFlowHandler(maestroService, cfg.Log))
	serverApp.Run()
}
