package main

import (
	"context"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/rs/zerolog/log"

	"github.com/hotelreservas/booking-gateway/internal/config"
	"github.com/hotelreservas/booking-gateway/internal/domain/availability"
	"github.com/hotelreservas/booking-gateway/internal/domain/payment"
	"github.com/hotelreservas/booking-gateway/internal/domain/realtime"
	"github.com/hotelreservas/booking-gateway/internal/domain/reservation"
	"github.com/hotelreservas/booking-gateway/internal/domain/selection"
	"github.com/hotelreservas/booking-gateway/internal/middleware"
	"github.com/hotelreservas/booking-gateway/internal/pkg/database"
	"github.com/hotelreservas/booking-gateway/internal/pkg/events"
	"github.com/hotelreservas/booking-gateway/internal/pkg/hotelapi"
	"github.com/hotelreservas/booking-gateway/internal/pkg/jwt"
	"github.com/hotelreservas/booking-gateway/internal/pkg/logger"
	"github.com/hotelreservas/booking-gateway/internal/pkg/paywidget"
	"github.com/hotelreservas/booking-gateway/internal/pkg/storage"
)

func main() {
	cfg := config.Load()
	if err := logger.Init(logger.Config{Level: cfg.LogLevel, Environment: cfg.Env}); err != nil {
		log.Fatal().Err(err).Msg("Failed to init logger")
	}

	log.Info().
		Str("env", cfg.Env).
		Str("port", cfg.Port).
		Str("hotel_api", cfg.HotelAPIBaseURL).
		Msg("Starting booking gateway")

	db, err := database.NewPostgres(database.PostgresConfig{
		URL:          cfg.DatabaseURL,
		MaxOpenConns: cfg.DBMaxOpenConns,
		MaxIdleConns: cfg.DBMaxIdleConns,
	})
	if err != nil {
		log.Fatal().Err(err).Msg("Failed to connect to PostgreSQL")
	}
	defer database.ClosePostgres(db)

	if cfg.AutoMigrate {
		version, err := database.Migrate(context.Background(), db, os.DirFS(cfg.MigrationsDir))
		if err != nil {
			log.Fatal().Err(err).Str("dir", cfg.MigrationsDir).Msg("Failed to apply migrations")
		}
		log.Info().Uint("version", version).Msg("Database schema up to date")
	}

	redisClient, err := database.NewRedis(database.RedisConfig{
		URL:      cfg.RedisURL,
		PoolSize: cfg.RedisPoolSize,
		Required: cfg.IsProduction(),
	})
	if err != nil {
		log.Fatal().Err(err).Msg("Failed to connect to Redis")
	}
	defer database.CloseRedis(redisClient)

	jwtService := jwt.NewService(cfg.JWTSecret, cfg.JWTAccessTTL)
	hotel := hotelapi.NewClient(cfg.HotelAPIBaseURL, cfg.HotelAPIServiceToken, cfg.HotelAPITimeout, cfg.HotelAPIUserAgent)

	var signer storage.ImageSigner
	if cfg.StorageEnabled() {
		s3Signer, err := storage.NewS3Signer(context.Background(), storage.Config{
			S3Endpoint:  cfg.S3Endpoint,
			S3Region:    cfg.S3Region,
			S3Bucket:    cfg.S3Bucket,
			S3AccessKey: cfg.S3AccessKey,
			S3SecretKey: cfg.S3SecretKey,
			URLExpiry:   cfg.ImageURLExpiry,
		})
		if err != nil {
			log.Warn().Err(err).Msg("Image signing disabled")
		} else {
			signer = s3Signer
		}
	}

	var publisher events.Publisher = events.Noop{}
	if cfg.EventsEnabled {
		rabbit, err := events.NewRabbitPublisher(cfg.RabbitMQURL, cfg.EventsExchange, cfg.EventsDialTimeout)
		if err != nil {
			log.Warn().Err(err).Msg("Reservation events disabled")
		} else {
			publisher = rabbit
		}
	}
	defer publisher.Close()

	defaultLoc, err := middleware.LoadLocation(cfg.DefaultTimezone)
	if err != nil {
		log.Warn().Err(err).Str("timezone", cfg.DefaultTimezone).Msg("Unknown default timezone, using UTC")
		defaultLoc = time.UTC
	}

	// ---------- Services ----------
	availabilityService := availability.NewService(hotel, signer, cfg.AvailabilityPageSize)
	selectionStore := selection.NewStore(redisClient, cfg.SelectionTTL)
	selectionService := selection.NewService(selectionStore, availabilityService)

	var hub *realtime.Hub
	var notifier reservation.Notifier
	if cfg.RealtimeEnabled {
		hub = realtime.NewHub(redisClient)
		go hub.Run()
		notifier = hub
	}

	reservationService := reservation.NewService(
		hotel,
		availabilityService,
		selectionStore,
		reservation.NewRepository(db),
		reservation.NewGuard(redisClient, cfg.SubmitLockTTL),
		publisher,
		notifier,
		reservation.Config{
			DetailWorkers:   cfg.DetailWorkers,
			ProfileURL:      cfg.ProfileURL,
			ReservationsURL: cfg.ReservationsURL,
		},
	)

	var provider payment.Provider
	if cfg.PaymentsEnabled() {
		provider = paywidget.NewClient(paywidget.Config{
			BaseURL:   cfg.PaymentBaseURL,
			SecretKey: cfg.PaymentSecretKey,
			Timeout:   cfg.PaymentTimeout,
		})
	}
	paymentService := payment.NewService(payment.NewRepository(db), provider, reservationService, payment.Config{
		Currency:      cfg.PaymentCurrency,
		WebhookSecret: cfg.PaymentWebhookSecret,
	})

	var worker *reservation.Worker
	if cfg.ReconcileEnabled {
		worker = reservation.NewWorker(reservationService, cfg.ReconcileInterval, cfg.ReconcileStaleAfter, cfg.ReconcileMaxAttempt)
		worker.Start()
	}

	// ---------- Handlers ----------
	reservationHandler := reservation.NewHandler(reservationService)
	handlers := routerHandlers{
		availability: availability.NewHandler(availabilityService),
		selection:    selection.NewHandler(selectionService),
		reservation:  reservationHandler,
		payment:      payment.NewHandler(paymentService, reservationHandler.WriteError, reservation.ParseID),
	}
	if hub != nil {
		handlers.realtime = realtime.NewHandler(hub, cfg.AllowedOrigins)
	}

	r := newRouter(cfg, jwtService, defaultLoc, handlers)

	server := &http.Server{
		Addr:         ":" + cfg.Port,
		Handler:      r,
		ReadTimeout:  15 * time.Second,
		WriteTimeout: 30 * time.Second,
		IdleTimeout:  60 * time.Second,
	}

	go func() {
		log.Info().Str("addr", server.Addr).Msg("HTTP server listening")
		if err := server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			log.Fatal().Err(err).Msg("HTTP server error")
		}
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	log.Info().Msg("Shutting down server...")

	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	if worker != nil {
		worker.Stop()
	}
	if hub != nil {
		hub.Shutdown()
	}

	if err := server.Shutdown(ctx); err != nil {
		log.Error().Err(err).Msg("Server forced to shutdown")
	}

	log.Info().Msg("Server exited properly")
}
