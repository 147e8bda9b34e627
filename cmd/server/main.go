package main

import (
	"context"
	"database/sql"
	"errors"
	"flag"
	"fmt"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	_ "github.com/lib/pq"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	httpapi "water-scheduler-backend/internal/api/http"
	"water-scheduler-backend/internal/config"
	"water-scheduler-backend/internal/logger"
	"water-scheduler-backend/internal/metrics"
	"water-scheduler-backend/internal/mq"
	"water-scheduler-backend/internal/repository"
	"water-scheduler-backend/internal/repository/memory"
	"water-scheduler-backend/internal/repository/postgres"
	"water-scheduler-backend/internal/retry"
	"water-scheduler-backend/internal/security"
	"water-scheduler-backend/internal/service"
)

func main() {
	// Parse command-line flags
	configPath := flag.String("config", "config/config.dev.yaml", "Path to configuration file")
	migrate := flag.Bool("migrate", false, "Apply the embedded database schema before serving")
	flag.Parse()

	// Load configuration
	cfg, err := config.Load(*configPath)
	if err != nil {
		log.Fatalf("Failed to load configuration: %v", err)
	}

	// Initialize logger
	logger.Initialize(cfg.Log.Level, cfg.Log.Format)
	logger.Info("Starting Water Scheduler Backend...", "log_level", cfg.Log.Level, "log_format", cfg.Log.Format)
	logger.Info("Server configuration", "address", cfg.GetServerAddress(), "timezone", cfg.Scheduler.Timezone)

	// Initialize Repositories
	var (
		store  *repository.Store
		health func(ctx context.Context) error
	)
	switch cfg.Database.Driver {
	case "memory":
		logger.Warn("Using in-memory store, data is lost on restart")
		store = memory.NewStore()
	default:
		logger.Info("Database configuration", "host", cfg.Database.Host, "port", cfg.Database.Port, "database", cfg.Database.Database, "user", cfg.Database.User)
		db, err := sql.Open("postgres", cfg.GetDatabaseConnectionString())
		if err != nil {
			logger.Error("Failed to connect to database", "error", err)
			log.Fatalf("Failed to connect to database: %v", err)
		}
		defer db.Close()
		if cfg.Database.MaxOpenConns > 0 {
			db.SetMaxOpenConns(cfg.Database.MaxOpenConns)
		}

		// Test database connection
		if err := db.Ping(); err != nil {
			logger.Error("Failed to ping database", "error", err)
			log.Fatalf("Failed to ping database: %v", err)
		}
		logger.Info("Database connection established")

		if *migrate {
			if err := postgres.EnsureSchema(context.Background(), db); err != nil {
				log.Fatalf("Failed to apply schema: %v", err)
			}
			logger.Info("Database schema applied")
		}
		store = postgres.NewStore(db, cfg.LockTimeout())
		health = db.PingContext
	}

	// Initialize Metrics
	var m *metrics.Metrics
	if cfg.Metrics.Enabled {
		m = metrics.New(prometheus.DefaultRegisterer, cfg.Metrics.Namespace)
	}

	// Initialize Notification sinks
	var emailSvc service.EmailService
	if cfg.SendGrid.APIKey != "" {
		emailSvc = service.NewEmailService(cfg.SendGrid.APIKey, cfg.SendGrid.FromEmail, cfg.SendGrid.FromName)
		logger.Info("SendGrid email notifications enabled", "from", cfg.SendGrid.FromEmail)
	}
	var publisher service.EventPublisher
	if cfg.AMQP.URL != "" {
		p, err := mq.NewPublisher(cfg.AMQP.URL, cfg.AMQP.Exchange)
		if err != nil {
			logger.Error("Event publishing disabled, RabbitMQ unavailable", "error", err)
		} else {
			defer p.Close()
			publisher = p
			logger.Info("RabbitMQ event notifications enabled", "exchange", cfg.AMQP.Exchange)
		}
	}
	dispatcher := service.NewNotificationDispatcher(store.NotificationRepository, emailSvc, publisher, m)

	// Initialize Services
	policy := retry.Policy{
		MaxAttempts:    uint(cfg.Booking.MaxAttempts),
		InitialBackoff: time.Duration(cfg.Booking.InitialBackoffMs) * time.Millisecond,
		Multiplier:     2,
		MaxBackoff:     time.Duration(cfg.Booking.MaxBackoffMs) * time.Millisecond,
	}
	services := httpapi.Services{
		Resources: service.NewResourceService(store.ResourceRepository),
		Slots:     service.NewSlotService(store.SlotRepository, store.ResourceRepository, m),
		Bookings: service.NewBookingService(
			store.BookingRepository,
			store.SlotRepository,
			store.HouseholdRepository,
			store.ReceiptRepository,
			dispatcher,
			policy,
			m,
		),
		Accounts:      service.NewAccountService(store.HouseholdRepository),
		Notifications: service.NewNotificationService(store.NotificationRepository),
		Health:        health,
	}

	// Initialize Security
	tokenManager := security.NewTokenManager(cfg.JWT.Secret, cfg.AccessTokenTTL())

	// Set up HTTP server
	root := http.NewServeMux()
	if cfg.Metrics.Enabled {
		root.Handle(cfg.Metrics.Path, promhttp.Handler())
	}
	root.Handle("/", httpapi.NewRouter(services, tokenManager))

	srv := &http.Server{
		Addr:              cfg.GetServerAddress(),
		Handler:           root,
		ReadHeaderTimeout: 10 * time.Second,
	}

	serverErr := make(chan error, 1)
	go func() {
		logger.Info("HTTP server listening", "address", srv.Addr)
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			serverErr <- err
		}
	}()

	// Wait for interrupt signal or server failure
	sigChan := make(chan os.Signal, 1)
	signal.Notify(sigChan, os.Interrupt, syscall.SIGTERM)
	select {
	case sig := <-sigChan:
		logger.Info("Shutdown signal received", "signal", sig.String())
	case err := <-serverErr:
		logger.Error("HTTP server error", "error", err)
	}

	// Graceful shutdown
	ctx, cancel := context.WithTimeout(context.Background(), time.Duration(cfg.Server.ShutdownTimeoutSeconds)*time.Second)
	defer cancel()
	if err := srv.Shutdown(ctx); err != nil {
		logger.Error("HTTP server shutdown failed", "error", err)
	}
	dispatcher.Wait()
	fmt.Println("Water Scheduler Backend stopped")
}
