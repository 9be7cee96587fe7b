package main

import (
	"fmt"
	"os"
	"time"

	"fleet-analytics-service/internal/auth"
	"fleet-analytics-service/internal/config"
	"fleet-analytics-service/internal/db"
	httphandler "fleet-analytics-service/internal/http"
	"fleet-analytics-service/internal/http/middleware"
	"fleet-analytics-service/internal/logger"
	"fleet-analytics-service/internal/repository"
	"fleet-analytics-service/internal/scope"
	"fleet-analytics-service/internal/service"
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		fmt.Fprintf(os.Stderr, "failed to load config: %v\n", err)
		os.Exit(1)
	}

	appLogger := logger.New(cfg.Environment)

	database, err := db.New(cfg, appLogger)
	if err != nil {
		appLogger.Fatal().Err(err).Msg("failed to connect database")
	}

	userRepo := repository.NewUserRepository(database)
	recordRepo := repository.NewRecordRepository(database)
	fleetRepo := repository.NewFleetRepository(database)

	resolver := scope.NewResolver(userRepo)
	retryWait := time.Duration(cfg.Reports.RetryBackoffMS) * time.Millisecond
	reportService := service.NewReportService(resolver, recordRepo, userRepo, fleetRepo, userRepo, retryWait)

	tokenParser := auth.NewParser(cfg.Auth.AccessSecret)

	handler := httphandler.NewHandler(reportService, appLogger)
	authMiddleware := middleware.Auth(tokenParser)
	router := httphandler.NewRouter(handler, authMiddleware, cfg.Environment)

	addr := fmt.Sprintf("%s:%d", cfg.HTTP.Host, cfg.HTTP.Port)
	appLogger.Info().Str("addr", addr).Msg("starting fleet analytics service")

	if err := router.Run(addr); err != nil {
		appLogger.Error().Err(err).Msg("failed to start server")
		os.Exit(1)
	}
}
