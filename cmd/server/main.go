package main

import (
	"context"
	"encoding/json"
	"io"
	"log"
	"os"
	"os/signal"
	"path/filepath"
	"syscall"
	"time"

	"github.com/redis/go-redis/v9"
	"github.com/rs/zerolog"

	"hostelhub/internal/api"
	"hostelhub/internal/config"
	"hostelhub/internal/database"
	"hostelhub/internal/domain"
	"hostelhub/internal/events"
	"hostelhub/internal/export"
	"hostelhub/internal/logging"
	"hostelhub/internal/metrics"
	"hostelhub/internal/repository"
	"hostelhub/internal/service"
	"hostelhub/internal/worker"
)

func main() {
	if err := run(); err != nil {
		log.Fatalf("Fatal error: %v", err)
	}
}

func run() error {
	cfg, logger, closer, err := loadConfigAndLogger()
	if err != nil {
		return err
	}
	if closer != nil {
		defer (func(c io.Closer) { _ = c.Close() })(closer)
	}

	if err := prepareDirectories(cfg, &logger); err != nil {
		return err
	}

	db, err := database.NewDB(cfg.Database.Path, &logger)
	if err != nil {
		logger.Error().Err(err).Msg("database init failed")
		return err
	}
	defer db.Close()

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	metrics.Register()

	redisClient, rateLimiter := initRateLimiter(ctx, cfg, &logger)
	if redisClient != nil {
		defer redisClient.Close()
	}

	eventBus := events.NewEventBus()
	subscribeWorkflowEvents(eventBus, &logger)

	backupRunner := database.NewBackupRunner(cfg.Database.Path, cfg.Backups, &logger)
	go backupRunner.Run(ctx)

	exportWorker := worker.NewExportWorker(
		db, export.NewExcelWriter(), cfg.Exports.Path, exportInterval(cfg),
		worker.RetryPolicy{MaxRetries: 5, InitialDelay: 2 * time.Second, MaxDelay: time.Minute, BackoffFactor: 2},
		&logger,
	)
	go exportWorker.Start(ctx)

	svcs := &api.Services{
		Users:         service.NewUserService(db, &logger),
		Hostels:       service.NewHostelService(db, &logger),
		Bookings:      service.NewBookingService(db, eventBus, &logger),
		Reservations:  service.NewReservationService(db, eventBus, &logger),
		Fees:          service.NewFeeService(db, eventBus, &logger),
		Reports:       service.NewReportService(db, eventBus, &logger),
		Verifications: service.NewVerificationService(db, eventBus, &logger),
		Chat:          service.NewChatService(db, rateLimiter, eventBus, cfg.Chat.RateLimitMessages, cfg.Chat.RateLimitWindow, &logger),
	}

	if cfg.API.Enabled {
		apiServer := api.NewHTTPServer(cfg.API, cfg.Monitoring, db, export.NewExcelWriter(), svcs, &logger)
		go func() {
			if err := apiServer.Start(); err != nil {
				logger.Error().Err(err).Msg("API server error")
			}
		}()
		defer func() {
			shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
			defer cancel()
			_ = apiServer.Shutdown(shutdownCtx)
		}()
	}

	logger.Info().Str("env", cfg.App.Environment).Msg("hostelhub started")
	<-ctx.Done()
	logger.Info().Msg("Shutdown complete.")
	return nil
}

func loadConfigAndLogger() (*config.Config, zerolog.Logger, io.Closer, error) {
	configPath := os.Getenv("CONFIG_PATH")
	if configPath == "" {
		configPath = "configs/config.yaml"
	}

	cfg, err := config.Load(configPath)
	if err != nil {
		return nil, zerolog.Logger{}, nil, err
	}

	baseLogger, closer, err := logging.New(cfg.Logging, cfg.App)
	if err != nil {
		return nil, zerolog.Logger{}, nil, err
	}
	logger := baseLogger.With().Str("component", "server-main").Logger()
	return cfg, logger, closer, nil
}

func prepareDirectories(cfg *config.Config, logger *zerolog.Logger) error {
	if cfg == nil {
		return os.ErrInvalid
	}
	if err := os.MkdirAll(filepath.Dir(cfg.Database.Path), 0o755); err != nil {
		logger.Error().Err(err).Msg("cannot create database directory")
		return err
	}
	if err := os.MkdirAll(cfg.Exports.Path, 0o755); err != nil {
		logger.Error().Err(err).Msg("cannot create exports directory")
		return err
	}
	return nil
}

// initRateLimiter prefers redis so the chat flood guard survives restarts
// and spans replicas; without redis it degrades to the in-process window.
func initRateLimiter(ctx context.Context, cfg *config.Config, logger *zerolog.Logger) (*redis.Client, domain.RateLimiter) {
	if cfg.Redis.Address == "" {
		return nil, repository.NewMemoryRateLimiter()
	}

	redisClient := repository.NewRedisClient(cfg.Redis)
	if err := repository.Ping(ctx, redisClient); err != nil {
		logger.Warn().Err(err).Msg("Redis unavailable, using in-memory rate limiter")
		_ = redisClient.Close()
		return nil, repository.NewMemoryRateLimiter()
	}
	return redisClient, repository.NewRedisRateLimiter(redisClient, "chat:rate")
}

func exportInterval(cfg *config.Config) time.Duration {
	if cfg.Exports.Schedule == "" {
		return 0
	}
	interval, err := time.ParseDuration(cfg.Exports.Schedule)
	if err != nil || interval <= 0 {
		return 24 * time.Hour
	}
	return interval
}

// subscribeWorkflowEvents wires a structured-logging consumer so every
// lifecycle transition leaves an operational trace.
func subscribeWorkflowEvents(bus *events.EventBus, logger *zerolog.Logger) {
	bookingHandler := func(ev *events.Event) error {
		var payload events.BookingEventPayload
		if err := json.Unmarshal(ev.Payload, &payload); err != nil {
			logger.Error().Err(err).Str("event", ev.Type).Msg("event bus: decode payload")
			return nil
		}
		logger.Info().
			Str("event", ev.Type).
			Str("booking_id", payload.BookingID).
			Str("hostel_id", payload.HostelID).
			Str("status", payload.Status).
			Msg("booking event")
		return nil
	}

	workflowHandler := func(ev *events.Event) error {
		var payload events.WorkflowEventPayload
		if err := json.Unmarshal(ev.Payload, &payload); err != nil {
			logger.Error().Err(err).Str("event", ev.Type).Msg("event bus: decode payload")
			return nil
		}
		logger.Info().
			Str("event", ev.Type).
			Str("entity_id", payload.EntityID).
			Str("status", payload.Status).
			Msg("workflow event")
		return nil
	}

	for _, eventType := range []string{
		events.EventBookingCreated,
		events.EventBookingApproved,
		events.EventBookingDisapproved,
		events.EventStudentLeft,
		events.EventStudentKicked,
	} {
		bus.Subscribe(eventType, bookingHandler)
	}
	for _, eventType := range []string{
		events.EventReservationCreated,
		events.EventReservationReviewed,
		events.EventFeeSubmitted,
		events.EventFeeReviewed,
		events.EventReportCreated,
		events.EventReportResolved,
		events.EventVerificationDecided,
		events.EventMessageSent,
	} {
		bus.Subscribe(eventType, workflowHandler)
	}
}
