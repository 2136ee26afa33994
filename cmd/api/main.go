package main

import (
	"context"
	"errors"
	"fmt"
	"io"
	"io/fs"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"traveler/internal/api"
	"traveler/internal/auth"
	"traveler/internal/config"
	"traveler/internal/database"
	"traveler/internal/domain"
	"traveler/internal/events"
	"traveler/internal/google"
	"traveler/internal/logging"
	"traveler/internal/metrics"
	"traveler/internal/models"
	"traveler/internal/notify"
	"traveler/internal/repository"
	"traveler/internal/service"
	"traveler/internal/session"
	"traveler/internal/worker"

	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/redis/go-redis/v9"
	"github.com/rs/zerolog"
)

const sheetsCacheRefreshInterval = 10 * time.Minute

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

	catalog := loadCatalog(logger)

	db, err := initDatabase(cfg, logger)
	if err != nil {
		return err
	}
	defer db.Close()

	if !cfg.API.Enabled {
		logger.Warn().Msg("API is disabled in config, but starting API application. Check your config.")
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	redisClient := initRedis(ctx, cfg, logger)
	if redisClient != nil {
		defer func() { _ = repository.Close(redisClient) }()
	}

	sessionManager, err := initSession(ctx, cfg, redisClient, logger)
	if err != nil {
		return err
	}

	bus := events.NewEventBus(logging.Component(logger, "events"))
	initNotifiers(cfg, bus, logger)

	syncWorker := initSheetsSync(ctx, cfg, db, redisClient, logger)

	authService := service.NewAuthService(db, sessionManager, bus, logging.Component(logger, "auth"))
	bookingService := service.NewBookingService(authService, db, bus, syncWorker, logging.Component(logger, "bookings"))
	catalogService := service.NewCatalogService(catalog, logging.Component(logger, "catalog"))

	httpServer := api.NewHTTPServer(cfg.API, api.Deps{
		Auth:     authService,
		Bookings: bookingService,
		Catalog:  catalogService,
		Session:  sessionManager,
		DB:       db,
	}, logger)

	var grpcServer *api.GRPCServer
	if cfg.API.GRPC.Enabled {
		grpcServer, err = api.NewGRPCServer(cfg.API, logger)
		if err != nil {
			logger.Error().Err(err).Msg("create grpc server")
			return err
		}
	}

	backup := database.NewBackupService(db, cfg.Backup, logging.Component(logger, "backup"))
	go backup.Start(ctx)

	startMetrics(ctx, cfg, logger)

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

// loadCatalog reads the form suggestions. A missing file means the built-in lists.
func loadCatalog(logger *zerolog.Logger) models.Catalog {
	catalogPath := os.Getenv("CATALOG_PATH")
	if catalogPath == "" {
		catalogPath = "configs/catalog.yaml"
	}

	catalog, err := service.LoadCatalog(catalogPath)
	if err != nil {
		if !errors.Is(err, fs.ErrNotExist) {
			logger.Warn().Err(err).Str("catalog_path", catalogPath).Msg("catalog load failed, using defaults")
		}
		return models.DefaultCatalog()
	}
	return catalog
}

func initDatabase(cfg *config.Config, logger *zerolog.Logger) (*database.DB, error) {
	hasher, err := auth.NewHasher(cfg.Auth.PasswordHash, cfg.Auth.BcryptCost)
	if err != nil {
		return nil, err
	}

	db, err := database.NewDB(cfg.Database.Path, logging.Component(logger, "database"),
		database.WithHasher(hasher),
		database.WithSchemaVersion(cfg.Database.SchemaVersion),
	)
	if err != nil {
		logger.Error().Err(err).Str("db_path", cfg.Database.Path).Msg("init database")
		return nil, err
	}
	return db, nil
}

func initRedis(ctx context.Context, cfg *config.Config, logger *zerolog.Logger) *redis.Client {
	if cfg.Redis.Address == "" {
		return nil
	}

	redisClient := repository.NewRedisClient(cfg.Redis)
	if err := repository.Ping(ctx, redisClient); err != nil {
		logger.Warn().Err(err).Msg("redis connection failed, continuing with degraded redis")
		return redisClient
	}

	logger.Info().Str("addr", cfg.Redis.Address).Msg("redis connected")
	return redisClient
}

// initSession picks the session store and restores the last session from it.
// The redis store is wrapped so that an outage falls back to a local copy.
func initSession(ctx context.Context, cfg *config.Config, redisClient *redis.Client, logger *zerolog.Logger) (*session.Manager, error) {
	var repo domain.SessionRepository
	switch cfg.Session.Backend {
	case config.SessionBackendRedis:
		var fallback domain.SessionRepository = repository.NewMemorySessionRepository()
		if cfg.Session.FilePath != "" {
			fallback = repository.NewFileSessionRepository(cfg.Session.FilePath)
		}
		repo = repository.NewFailoverSessionRepository(
			repository.NewRedisSessionRepository(redisClient, cfg.Session.Namespace),
			fallback,
			logging.Component(logger, "session-failover"),
		)
	case config.SessionBackendFile:
		repo = repository.NewFileSessionRepository(cfg.Session.FilePath)
	default:
		repo = repository.NewMemorySessionRepository()
	}

	mgr := session.NewManager(repo, logging.Component(logger, "session"))
	if err := mgr.Load(ctx); err != nil {
		return nil, fmt.Errorf("load session: %w", err)
	}
	logger.Info().Str("backend", cfg.Session.Backend).Bool("logged_in", mgr.IsLoggedIn()).Msg("session restored")
	return mgr, nil
}

func initNotifiers(cfg *config.Config, bus *events.EventBus, logger *zerolog.Logger) {
	if cfg.Telegram.BotToken != "" && cfg.Telegram.ManagerChatID != 0 {
		bot, err := notify.NewBotAPI(cfg.Telegram)
		if err != nil {
			logger.Warn().Err(err).Msg("telegram init failed, continuing without manager notifications")
		} else {
			notify.NewTelegramNotifier(bot, cfg.Telegram.ManagerChatID, logging.Component(logger, "telegram")).Subscribe(bus)
			logger.Info().Str("bot", bot.Self.UserName).Msg("telegram notifications enabled")
		}
	}

	if cfg.Email.SendGridAPIKey != "" && cfg.Email.FromAddress != "" {
		notify.NewEmailNotifier(cfg.Email, logging.Component(logger, "email")).Subscribe(bus)
		logger.Info().Str("from", cfg.Email.FromAddress).Msg("email notifications enabled")
	}
}

// initSheetsSync starts the sheets mirror. It returns nil when sheets are not
// configured or unreachable, which turns mirroring off.
func initSheetsSync(ctx context.Context, cfg *config.Config, db *database.DB, redisClient *redis.Client, logger *zerolog.Logger) domain.SyncWorker {
	if !cfg.SheetsEnabled() {
		return nil
	}

	sheetsLogger := logging.Component(logger, "sheets")
	sheetsService, err := google.NewSheetsService(ctx, cfg.Google.GoogleCredentialsFile, cfg.Google.BookingSpreadSheetID, sheetsLogger)
	if err != nil {
		logger.Warn().Err(err).Msg("google sheets init failed, continuing without sheets")
		return nil
	}
	if err := sheetsService.TestConnection(ctx); err != nil {
		email, _ := google.GetServiceAccountEmail(cfg.Google.GoogleCredentialsFile)
		logger.Warn().Err(err).Str("share_with", email).Msg("google sheets unreachable, continuing without sheets")
		return nil
	}
	if err := sheetsService.EnsureHeader(ctx); err != nil {
		logger.Warn().Err(err).Msg("failed to write sheets header")
	}
	if err := sheetsService.WarmUpCache(ctx); err != nil {
		logger.Warn().Err(err).Msg("failed to warm up sheets row cache")
	}
	go sheetsService.StartCacheRefresh(ctx, sheetsCacheRefreshInterval)

	if redisClient != nil && repository.Ping(ctx, redisClient) != nil {
		redisClient = nil
	}
	w := worker.NewSheetsWorker(db, sheetsService, redisClient, worker.PolicyFromConfig(cfg.Sync), cfg.Sync.PollInterval, logging.Component(logger, "sheets-worker"))
	go w.Start(ctx)

	logger.Info().Msg("google sheets connected")
	return w
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

	logger.Info().Bool("grpc", grpcServer != nil).Int("http_port", cfg.API.HTTP.Port).Msg("API server started")

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
