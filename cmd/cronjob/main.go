package main

import (
	"database/sql"
	"flag"
	"log"
	"os"
	"os/signal"
	"syscall"
	"time"

	_ "github.com/lib/pq"
	"github.com/prometheus/client_golang/prometheus"

	"water-scheduler-backend/internal/config"
	"water-scheduler-backend/internal/jobs"
	"water-scheduler-backend/internal/logger"
	"water-scheduler-backend/internal/metrics"
	"water-scheduler-backend/internal/mq"
	"water-scheduler-backend/internal/repository/postgres"
	"water-scheduler-backend/internal/retry"
	"water-scheduler-backend/internal/scheduler"
	"water-scheduler-backend/internal/service"
)

func main() {
	// Parse command-line flags
	configPath := flag.String("config", "config/config.dev.yaml", "Path to configuration file")
	runOnce := flag.String("run-once", "", "Run a specific job once and exit (e.g., 'generate-slots', 'mark-missed-collections', 'all')")
	flag.Parse()

	// Load configuration
	cfg, err := config.Load(*configPath)
	if err != nil {
		log.Fatalf("Failed to load configuration: %v", err)
	}
	if cfg.Database.Driver != "postgres" {
		log.Fatalf("Cronjob runner requires the postgres driver, got %q", cfg.Database.Driver)
	}

	// Initialize logger
	logger.Initialize(cfg.Log.Level, cfg.Log.Format)
	logger.Info("Starting Water Scheduler Cronjob Runner...", "log_level", cfg.Log.Level, "timezone", cfg.Scheduler.Timezone)

	// Initialize Database
	logger.Info("Connecting to database...", "host", cfg.Database.Host, "port", cfg.Database.Port)
	db, err := sql.Open("postgres", cfg.GetDatabaseConnectionString())
	if err != nil {
		logger.Error("Failed to connect to database", "error", err)
		log.Fatalf("Failed to connect to database: %v", err)
	}
	defer db.Close()

	// Test database connection
	if err := db.Ping(); err != nil {
		logger.Error("Failed to ping database", "error", err)
		log.Fatalf("Failed to ping database: %v", err)
	}
	logger.Info("Database connection established")

	// Initialize Repositories
	store := postgres.NewStore(db, cfg.LockTimeout())

	var m *metrics.Metrics
	if cfg.Metrics.Enabled {
		m = metrics.New(prometheus.DefaultRegisterer, cfg.Metrics.Namespace)
	}

	// Initialize Notification sinks
	var emailSvc service.EmailService
	if cfg.SendGrid.APIKey != "" {
		emailSvc = service.NewEmailService(cfg.SendGrid.APIKey, cfg.SendGrid.FromEmail, cfg.SendGrid.FromName)
	}
	var publisher service.EventPublisher
	if cfg.AMQP.URL != "" {
		p, err := mq.NewPublisher(cfg.AMQP.URL, cfg.AMQP.Exchange)
		if err != nil {
			logger.Error("Event publishing disabled, RabbitMQ unavailable", "error", err)
		} else {
			defer p.Close()
			publisher = p
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
	jobServices := &jobs.Services{
		Slot: service.NewSlotService(store.SlotRepository, store.ResourceRepository, m),
		Booking: service.NewBookingService(
			store.BookingRepository,
			store.SlotRepository,
			store.HouseholdRepository,
			store.ReceiptRepository,
			dispatcher,
			policy,
			m,
		),
	}

	// Initialize Job Runner
	jobRunner := jobs.NewJobRunner(jobServices, cfg, m)

	// Check if running a single job
	if *runOnce != "" {
		logger.Info("Running job once", "job", *runOnce)
		err := jobRunner.RunByName(*runOnce)
		dispatcher.Wait()
		if err != nil {
			logger.Error("Job execution failed", "job", *runOnce, "error", err)
			os.Exit(1)
		}
		logger.Info("Job execution completed", "job", *runOnce)
		return
	}

	// Initialize Scheduler
	cronScheduler, err := scheduler.NewScheduler(jobRunner)
	if err != nil {
		log.Fatalf("Failed to register cron jobs: %v", err)
	}

	// Start scheduler
	cronScheduler.Start()
	logger.Info("Cronjob scheduler is running. Press Ctrl+C to stop.")

	// Wait for interrupt signal
	sigChan := make(chan os.Signal, 1)
	signal.Notify(sigChan, os.Interrupt, syscall.SIGTERM)
	<-sigChan

	// Graceful shutdown
	logger.Info("Shutting down cronjob scheduler...")
	cronScheduler.Stop()
	dispatcher.Wait()
	logger.Info("Cronjob scheduler stopped. Goodbye!")
}
