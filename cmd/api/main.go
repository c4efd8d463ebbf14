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

	"github.com/medlab/booking-api/internal/config"
	"github.com/medlab/booking-api/internal/email"
	"github.com/medlab/booking-api/internal/handler"
	authHandler "github.com/medlab/booking-api/internal/handler/auth"
	bookingHandler "github.com/medlab/booking-api/internal/handler/booking"
	catalogHandler "github.com/medlab/booking-api/internal/handler/catalog"
	patientHandler "github.com/medlab/booking-api/internal/handler/patient"
	"github.com/medlab/booking-api/internal/middleware"
	"github.com/medlab/booking-api/internal/model"
	"github.com/medlab/booking-api/internal/repository/postgres"
	"github.com/medlab/booking-api/internal/router"
	authService "github.com/medlab/booking-api/internal/service/auth"
	bookingService "github.com/medlab/booking-api/internal/service/booking"
	catalogService "github.com/medlab/booking-api/internal/service/catalog"
	patientService "github.com/medlab/booking-api/internal/service/patient"
)

func main() {
	cfg, err := config.LoadConfig()
	if err != nil {
		log.Fatal().Err(err).Msg("failed to load configuration")
	}

	if err := model.RegisterValidations(); err != nil {
		log.Fatal().Err(err).Msg("failed to register validations")
	}

	db, err := postgres.NewDB(cfg.Database)
	if err != nil {
		log.Fatal().Err(err).Msg("failed to connect to database")
	}
	defer db.Close()

	if err := postgres.Migrate(db); err != nil {
		log.Fatal().Err(err).Msg("failed to migrate schema")
	}

	// Repositories
	patientRepo := postgres.NewPatientRepository(db)
	testRepo := postgres.NewTestRepository(db)
	bookingRepo := postgres.NewBookingRepository(db)
	userRepo := postgres.NewUserRepository(db)

	// Services
	emailSvc := email.NewService(cfg.SMTP)
	patientSvc := patientService.NewService(patientRepo)
	catalogSvc := catalogService.NewService(testRepo)
	bookingSvc := bookingService.NewService(bookingRepo, patientRepo, testRepo, emailSvc)
	authSvc := authService.NewService(userRepo, cfg.JWT)

	if err := authSvc.EnsureAdmin(context.Background(), cfg.Admin.Email, cfg.Admin.Password, cfg.Admin.Name); err != nil {
		log.Fatal().Err(err).Msg("failed to seed admin user")
	}

	// Handlers
	authMiddleware := middleware.NewAuthMiddleware(authSvc)
	h := handler.NewHandler(db)
	authH := authHandler.NewHandler(authSvc)
	patientH := patientHandler.NewHandler(patientSvc)
	catalogH := catalogHandler.NewHandler(catalogSvc, bookingSvc)
	bookingH := bookingHandler.NewHandler(bookingSvc, patientSvc)

	r := router.NewRouter(
		authMiddleware,
		authH,
		catalogH,
		bookingH,
		patientH,
		h,
		router.Config{
			RateLimitRPS:   cfg.RateLimit.RequestsPerSecond,
			RateLimitBurst: cfg.RateLimit.Burst,
			Timeout:        time.Duration(cfg.Server.TimeoutSeconds) * time.Second,
			CORSOrigins:    cfg.CORS.AllowedOrigins,
			MetricsPrefix:  "booking_api",
		},
	)
	r.Setup()

	srv := &http.Server{
		Addr:    fmt.Sprintf(":%d", cfg.Server.Port),
		Handler: r.Engine(),
	}

	go func() {
		log.Info().Int("port", cfg.Server.Port).Msg("starting server")
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			log.Fatal().Err(err).Msg("failed to start server")
		}
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit
	log.Info().Msg("shutting down server...")

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	if err := srv.Shutdown(ctx); err != nil {
		log.Fatal().Err(err).Msg("server forced to shutdown")
	}

	log.Info().Msg("server exited properly")
}
