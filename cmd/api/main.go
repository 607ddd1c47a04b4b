package main

import (
	"context"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/rs/zerolog/log"
	"golang.org/x/time/rate"

	"github.com/jwalitptl/polyclinic-api/internal/config"
	"github.com/jwalitptl/polyclinic-api/internal/handler"
	appointmentHandler "github.com/jwalitptl/polyclinic-api/internal/handler/appointment"
	authHandler "github.com/jwalitptl/polyclinic-api/internal/handler/auth"
	serviceHandler "github.com/jwalitptl/polyclinic-api/internal/handler/service"
	"github.com/jwalitptl/polyclinic-api/internal/middleware"
	"github.com/jwalitptl/polyclinic-api/internal/repository/postgres"
	"github.com/jwalitptl/polyclinic-api/internal/router"
	"github.com/jwalitptl/polyclinic-api/internal/schedule"
	"github.com/jwalitptl/polyclinic-api/internal/service/access"
	authService "github.com/jwalitptl/polyclinic-api/internal/service/auth"
	bookingService "github.com/jwalitptl/polyclinic-api/internal/service/booking"
	registryService "github.com/jwalitptl/polyclinic-api/internal/service/registry"
	"github.com/jwalitptl/polyclinic-api/pkg/auth"
	"github.com/jwalitptl/polyclinic-api/pkg/metrics"
	"github.com/jwalitptl/polyclinic-api/pkg/security"
)

func main() {
	cfg, err := config.LoadConfig()
	if err != nil {
		log.Fatal().Err(err).Msg("failed to load configuration")
	}

	db, err := postgres.NewDB(cfg.Database)
	if err != nil {
		log.Fatal().Err(err).Msg("failed to connect to database")
	}
	defer db.Close()

	if err := postgres.InitSchema(context.Background(), db); err != nil {
		log.Fatal().Err(err).Msg("failed to initialize schema")
	}

	serviceRepo := postgres.NewServiceRepository(db)
	appointmentRepo := postgres.NewAppointmentRepository(db)
	actorRepo := postgres.NewActorRepository(db)
	outboxRepo := postgres.NewOutboxRepository(db)

	appMetrics := metrics.New("polyclinic")
	appMetrics.Register(prometheus.DefaultRegisterer)

	jwtSvc := auth.NewJWTService(cfg.JWT.Secret, cfg.JWTExpiry())
	hasher := security.NewBcryptHasher(10)

	registrySvc := registryService.NewService(serviceRepo)
	bookingSvc := bookingService.NewService(appointmentRepo, serviceRepo, outboxRepo, appMetrics)
	authSvc := authService.NewService(actorRepo, jwtSvc, hasher)
	resolver := access.NewResolver(serviceRepo)
	checker := schedule.NewChecker(appointmentRepo)

	if err := registrySvc.SeedDefaults(context.Background()); err != nil {
		log.Fatal().Err(err).Msg("failed to seed default services")
	}
	if cfg.Seed.DirectorPassword != "" {
		if err := authSvc.SeedDirector(context.Background(), cfg.Seed.DirectorUsername, cfg.Seed.DirectorPassword); err != nil {
			log.Fatal().Err(err).Msg("failed to seed director account")
		}
	}

	authMiddleware := middleware.NewAuthMiddleware(jwtSvc, actorRepo)

	authH := authHandler.NewHandler(authSvc)
	serviceH := serviceHandler.NewHandler(registrySvc, bookingSvc, checker, resolver, cfg.Scheduling.SlotMinutes)
	appointmentH := appointmentHandler.NewHandler(bookingSvc, resolver)
	healthH := handler.NewHealthHandler(db)

	r := router.NewRouter(authMiddleware, authH, serviceH, appointmentH, healthH, router.Config{
		RateLimit:     rate.Limit(cfg.Server.RateLimitRPS),
		RateBurst:     cfg.Server.RateLimitBurst,
		Timeout:       cfg.ServerTimeout(),
		CORSConfig:    middleware.DefaultCORSConfig(),
		MetricsPrefix: "polyclinic_http",
		Registerer:    prometheus.DefaultRegisterer,
	})
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
	r.Close()

	log.Info().Msg("server exited properly")
}
