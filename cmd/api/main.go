package main

import (
	"context"
	"fmt"
	"io"
	"log"
	"net/http"
	"os"
	"os/signal"
	"path/filepath"
	"syscall"
	"time"

	"spacehub/internal/api"
	"spacehub/internal/config"
	"spacehub/internal/database"
	"spacehub/internal/domain"
	"spacehub/internal/events"
	"spacehub/internal/export"
	"spacehub/internal/google"
	"spacehub/internal/logging"
	"spacehub/internal/metrics"
	"spacehub/internal/models"
	"spacehub/internal/notify"
	"spacehub/internal/pass"
	"spacehub/internal/repository"
	"spacehub/internal/service"
	"spacehub/internal/worker"

	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/redis/go-redis/v9"
	"github.com/rs/zerolog"
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
		defer (func() { _ = closer.Close() })()
	}

	if err := prepareDirectories(cfg, logger); err != nil {
		return err
	}

	db, err := database.NewDB(cfg.Database.Path, logger)
	if err != nil {
		logger.Error().Err(err).Str("db_path", cfg.Database.Path).Msg("init database")
		return err
	}
	defer db.Close()

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	redisClient := initRedis(ctx, cfg, logger)
	if redisClient != nil {
		defer redisClient.Close()
	}

	outbox := worker.NewOutboxWorker(db, redisClient, worker.RetryPolicy{
		MaxRetries:   cfg.Worker.MaxRetries,
		InitialDelay: cfg.Worker.InitialDelay,
		MaxDelay:     cfg.Worker.MaxDelay,
	}, cfg.Worker.PollInterval, logger)

	closeSinks := registerSinks(ctx, cfg, db, outbox, logger)
	defer closeSinks()

	svc, bookings, notifications := buildServices(cfg, db, redisClient, outbox, logger)

	if err := seedCatalog(ctx, cfg.Catalog.SeedPath, svc, logger); err != nil {
		logger.Error().Err(err).Str("seed_path", cfg.Catalog.SeedPath).Msg("catalog seed failed")
	}

	go outbox.Start(ctx)

	worker.NewScheduler(notifications, bookings, cfg.Booking.ReminderHour, 15*time.Minute, logger).Start(ctx)

	if cfg.Backup.Enabled {
		go database.NewBackupService(db, cfg.Backup, logger).Start(ctx)
	}

	startMetrics(ctx, cfg, logger)

	if !cfg.API.Enabled {
		logger.Warn().Msg("API is disabled in config, but starting API application. Check your config.")
	}

	// один limiter на оба транспорта
	auth := api.NewAuth(&cfg.API)

	var grpcServer *api.GRPCServer
	if cfg.API.GRPC.Enabled {
		grpcServer, err = api.NewGRPCServer(&cfg.API, svc, auth, logger)
		if err != nil {
			logger.Error().Err(err).Msg("create grpc server")
			return err
		}
	}
	httpServer := api.NewHTTPServer(cfg.API, svc, auth, logger)

	return startServers(ctx, grpcServer, httpServer, cfg, logger)
}

func loadConfigAndLogger() (*config.Config, *zerolog.Logger, io.Closer, error) {
	configPath := os.Getenv("CONFIG_PATH")
	if configPath == "" {
		configPath = "configs/config.yaml"
	}

	cfg, err := config.Load(configPath)
	if err != nil {
		return nil, nil, nil, fmt.Errorf("load config: %w", err)
	}

	baseLogger, closer, err := logging.New(cfg.Logging, cfg.App)
	if err != nil {
		return nil, nil, nil, fmt.Errorf("init logger: %w", err)
	}
	logger := baseLogger.With().Str("component", "api-main").Logger()

	return cfg, &logger, closer, nil
}

func prepareDirectories(cfg *config.Config, logger *zerolog.Logger) error {
	if err := os.MkdirAll(filepath.Dir(cfg.Database.Path), 0o755); err != nil {
		logger.Error().Err(err).Msg("create database directory")
		return err
	}
	if err := os.MkdirAll(cfg.Exports.Path, 0o755); err != nil {
		logger.Error().Err(err).Msg("create exports directory")
		return err
	}
	return nil
}

func initRedis(ctx context.Context, cfg *config.Config, logger *zerolog.Logger) *redis.Client {
	if cfg.Redis.Address == "" {
		return nil
	}

	redisClient := repository.NewRedisClient(cfg.Redis)
	if err := repository.Ping(ctx, redisClient); err != nil {
		logger.Warn().Err(err).Msg("redis connection failed, continuing without redis")
		_ = redisClient.Close()
		return nil
	}

	logger.Info().Str("addr", cfg.Redis.Address).Msg("redis connected")
	return redisClient
}

// buildServices wires the booking engine. Without Redis the slot cache is
// skipped and drafts live in memory. Outbox producers are attached only for
// sinks that have a registered handler.
func buildServices(
	cfg *config.Config,
	db *database.DB,
	redisClient *redis.Client,
	outbox *worker.OutboxWorker,
	logger *zerolog.Logger,
) (*api.Services, *service.BookingService, *service.NotificationService) {
	var (
		slotCache domain.SlotCache
		drafts    domain.DraftRepository = repository.NewMemoryDraftRepository()
	)
	if redisClient != nil {
		slotCache = repository.NewRedisSlotCache(redisClient)
		drafts = repository.NewFailoverDraftRepository(repository.NewRedisDraftRepository(redisClient), drafts, logger)
	}

	eventBus := events.NewEventBus()
	eventBus.OnError(func(ev *events.Event, err error) {
		logger.Error().Err(err).Str("event", ev.Type).Msg("event handler failed")
	})
	if outbox.HasHandler(models.TaskKafkaPublish) {
		worker.ForwardEvents(eventBus, outbox, logger)
	}

	availability := service.NewAvailabilityService(db, slotCache, cfg.Booking.SlotsCacheTTL, logger)
	catalog := service.NewCatalogService(db, logger)
	pricing := service.NewPricingService(db)
	promos := service.NewPromoService(db, drafts, logger).
		WithAttemptLimit(cfg.Booking.PromoAttemptLimit, cfg.Booking.PromoAttemptWindow)
	notifications := service.NewNotificationService(db, db, db, logger)
	if outbox.HasHandler(models.TaskTelegramPush) {
		notifications.EnablePush(outbox)
	}
	waitlist := service.NewWaitlistService(db, db, notifications, logger)

	bookings := service.NewBookingService(db, db, pricing, promos, cfg.Booking.MaxAdvanceDays, logger).
		WithEvents(eventBus).
		WithNotifications(notifications).
		WithWaitlist(waitlist).
		WithSlotCache(availability)
	if outbox.HasHandler(models.TaskSheetsUpsert) {
		bookings.WithOutbox(outbox)
	}

	checkout := service.NewCheckoutService(drafts, availability, pricing, promos, bookings, cfg.Booking.DraftTTL, logger)

	svc := &api.Services{
		Availability:  availability,
		Bookings:      bookings,
		Pricing:       pricing,
		Promos:        promos,
		Catalog:       catalog,
		Waitlist:      waitlist,
		Notifications: notifications,
		Checkout:      checkout,
		Exporter:      export.NewExporter(db, db, cfg.Exports.Path, logger),
		Ready: func(ctx context.Context) error {
			if err := db.PingContext(ctx); err != nil {
				return fmt.Errorf("database: %w", err)
			}
			if redisClient != nil {
				if err := repository.Ping(ctx, redisClient); err != nil {
					return fmt.Errorf("redis: %w", err)
				}
			}
			return nil
		},
	}
	if cfg.Booking.PassSecret != "" {
		svc.Passes = pass.NewIssuer(cfg.Booking.PassSecret)
	} else {
		logger.Warn().Msg("booking.pass_secret is empty, QR passes disabled")
	}
	return svc, bookings, notifications
}

func sheetsConfigured(cfg *config.Config) bool {
	return cfg.Google.GoogleCredentialsFile != "" && cfg.Google.BookingSpreadSheetID != ""
}

// registerSinks attaches the outbox handlers for every configured sink and
// returns a closer for the ones holding connections.
func registerSinks(
	ctx context.Context,
	cfg *config.Config,
	db *database.DB,
	outbox *worker.OutboxWorker,
	logger *zerolog.Logger,
) func() {
	closers := []func(){}

	if sheetsConfigured(cfg) {
		if sheet, err := initGoogleSheets(ctx, cfg, logger); err == nil {
			outbox.RegisterSheets(sheet)
		}
	}

	if len(cfg.Kafka.Brokers) > 0 {
		publisher := events.NewKafkaPublisher(cfg.Kafka.Brokers, cfg.Kafka.Topic)
		outbox.RegisterKafka(publisher)
		closers = append(closers, func() { _ = publisher.Close() })
		logger.Info().Strs("brokers", cfg.Kafka.Brokers).Str("topic", cfg.Kafka.Topic).Msg("kafka publisher ready")
	}

	if cfg.Telegram.BotToken != "" {
		bot, err := notify.NewTelegramBot(cfg.Telegram.BotToken, cfg.Telegram.Debug)
		if err != nil {
			logger.Warn().Err(err).Msg("telegram bot init failed, push disabled")
		} else {
			outbox.RegisterTelegram(notify.NewTelegramNotifier(bot, logger), db)
			logger.Info().Str("bot", bot.Self.UserName).Msg("telegram push enabled")
		}
	}

	return func() {
		for _, c := range closers {
			c()
		}
	}
}

func initGoogleSheets(ctx context.Context, cfg *config.Config, logger *zerolog.Logger) (*google.BookingSheet, error) {
	sheet, err := google.NewBookingSheet(ctx, cfg.Google.GoogleCredentialsFile, cfg.Google.BookingSpreadSheetID)
	if err != nil {
		logger.Warn().Err(err).Msg("google sheets init failed, continuing without sheets")
		return nil, err
	}
	if err := sheet.TestConnection(ctx); err != nil {
		logger.Warn().Err(err).Msg("google sheets connection test failed")
		return nil, err
	}
	if err := sheet.EnsureHeader(ctx); err != nil {
		logger.Warn().Err(err).Msg("google sheets header")
	}
	if err := sheet.WarmUpCache(ctx); err != nil {
		logger.Warn().Err(err).Msg("google sheets cache warm-up")
	}

	if email, err := google.ServiceAccountEmail(cfg.Google.GoogleCredentialsFile); err == nil {
		logger.Info().Str("service_account", email).Msg("google sheets connected")
	}
	return sheet, nil
}

func startMetrics(ctx context.Context, cfg *config.Config, logger *zerolog.Logger) {
	if !cfg.Monitoring.PrometheusEnabled {
		return
	}

	metrics.Register()
	port := cfg.Monitoring.PrometheusPort
	if port == 0 {
		port = 9090
	}
	go startMetricsServer(ctx, port, logger)
}

func startServers(
	ctx context.Context,
	grpcServer *api.GRPCServer,
	httpServer *api.HTTPServer,
	cfg *config.Config,
	logger *zerolog.Logger,
) error {
	if grpcServer != nil {
		go func() {
			if err := grpcServer.Serve(); err != nil {
				logger.Error().Err(err).Msg("grpc server stopped")
			}
		}()
	}

	go func() {
		if !cfg.API.HTTP.Enabled {
			return
		}
		if err := httpServer.Start(); err != nil {
			logger.Error().Err(err).Msg("http server stopped")
		}
	}()

	ev := logger.Info().Int("http_port", cfg.API.HTTP.Port)
	if grpcServer != nil {
		ev = ev.Str("grpc_addr", grpcServer.Addr())
	}
	ev.Msg("API server started")

	<-ctx.Done()
	logger.Info().Msg("shutdown signal received")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	if grpcServer != nil {
		grpcServer.Shutdown(shutdownCtx)
	}
	_ = httpServer.Shutdown(shutdownCtx)

	logger.Info().Msg("API server stopped")
	return nil
}

func startMetricsServer(ctx context.Context, port int, logger *zerolog.Logger) {
	mux := http.NewServeMux()
	mux.Handle("/metrics", promhttp.Handler())

	srv := &http.Server{Addr: fmt.Sprintf(":%d", port), Handler: mux, ReadHeaderTimeout: 5 * time.Second}
	go func() {
		<-ctx.Done()
		ctxShutdown, cancel := context.WithTimeout(context.Background(), 3*time.Second)
		defer cancel()
		_ = srv.Shutdown(ctxShutdown)
	}()
	if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
		logger.Error().Err(err).Msg("metrics server error")
	}
}
