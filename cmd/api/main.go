package main

import (
	"context"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/rs/zerolog/log"
	"golang.org/x/time/rate"

	"github.com/healthbook/scheduling-api/internal/config"
	"github.com/healthbook/scheduling-api/internal/handler"
	appointmentHandler "github.com/healthbook/scheduling-api/internal/handler/appointment"
	availabilityHandler "github.com/healthbook/scheduling-api/internal/handler/availability"
	"github.com/healthbook/scheduling-api/internal/middleware"
	"github.com/healthbook/scheduling-api/internal/repository/postgres"
	"github.com/healthbook/scheduling-api/internal/router"
	appointmentService "github.com/healthbook/scheduling-api/internal/service/appointment"
	availabilityService "github.com/healthbook/scheduling-api/internal/service/availability"
	eventService "github.com/healthbook/scheduling-api/internal/service/event"
	"github.com/healthbook/scheduling-api/pkg/logger"
	"github.com/healthbook/scheduling-api/pkg/metrics"
)

func main() {
	cfg, err := config.LoadConfig()
	if err != nil {
		log.Fatal().Err(err).Msg("failed to load configuration")
	}

	appLogger := logger.NewLogger(nil)

	db, err := postgres.NewDB(cfg.Database)
	if err != nil {
		log.Fatal().Err(err).Msg("failed to connect to database")
	}
	defer db.Close()

	// Repositories
	appointmentRepo := postgres.NewAppointmentRepository(db)
	availabilityRepo := postgres.NewAvailabilityRepository(db)

	// Services
	m := metrics.NewMetrics("scheduling_api", "engine")
	eventSvc := eventService.NewService(appLogger)
	appointmentSvc := appointmentService.NewService(appointmentRepo, eventSvc, m, appLogger)
	availabilitySvc := availabilityService.NewService(availabilityRepo, appointmentRepo, m, appLogger)

	// Handlers
	h := handler.NewHandler()
	apptHandler := appointmentHandler.NewHandler(appointmentSvc)
	availHandler := availabilityHandler.NewHandler(availabilitySvc)

	authMiddleware := middleware.NewAuthMiddleware(middleware.AuthConfig{
		Secret: cfg.JWT.Secret,
	})

	r := router.NewRouter(authMiddleware, apptHandler, availHandler, h, router.Config{
		RateLimit:  rate.Limit(cfg.Server.RateLimit),
		RateBurst:  cfg.Server.RateBurst,
		Timeout:    time.Duration(cfg.Server.TimeoutSeconds) * time.Second,
		CORSConfig: middleware.DefaultCORSConfig(),
	})
	r.Setup()

	srv := &http.Server{
		Addr:    fmt.Sprintf(":%d", cfg.Server.Port),
		Handler: r.Engine(),
	}

	go func() {
		appLogger.Info("starting server", "port", cfg.Server.Port)
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			log.Fatal().Err(err).Msg("server failed")
		}
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	appLogger.Info("shutting down server")

	grace := cfg.Server.ShutdownGrace
	if grace <= 0 {
		grace = 10 * time.Second
	}
	ctx, cancel := context.WithTimeout(context.Background(), grace)
	defer cancel()

	if err := srv.Shutdown(ctx); err != nil {
		log.Fatal().Err(err).Msg("forced shutdown")
	}
}
