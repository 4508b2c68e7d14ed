package app

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	httpapi "github.com/aussiebroadwan/campus/internal/campus/http"
	"github.com/aussiebroadwan/campus/internal/campus/metrics"
	"github.com/aussiebroadwan/campus/internal/campus/notify"
	"github.com/aussiebroadwan/campus/internal/campus/service"
	"github.com/aussiebroadwan/campus/internal/campus/session"
	"github.com/aussiebroadwan/campus/internal/campus/store"
	"github.com/aussiebroadwan/campus/internal/campus/store/drivers/postgres"
	"github.com/aussiebroadwan/campus/internal/campus/store/drivers/sqlite"
	"github.com/aussiebroadwan/campus/pkg/cryptox"
	"github.com/aussiebroadwan/campus/pkg/httpx"
	"github.com/aussiebroadwan/campus/pkg/jwtx"
	"github.com/aussiebroadwan/campus/pkg/slogx"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/redis/go-redis/v9"
)

// BuildVersion is overridden at build time via -ldflags.
var BuildVersion = "v0.1.0"

// Application encapsulates the campus service with all its dependencies
type Application struct {
	cfg    Config
	logger *slog.Logger

	// Core dependencies
	db         store.Store
	redis      *redis.Client // nil unless REDIS_URL is set
	keyManager *jwtx.KeyManager
	metrics    *metrics.Metrics
	mail       *notify.Dispatcher
	sessions   *session.Manager

	// Services
	accountService      *service.AccountService
	eventService        *service.EventService
	registrationService *service.RegistrationService
	housekeepingService *service.HousekeepingService

	// HTTP server
	server *http.Server
	router *httpapi.Router
}

// NewLogger builds the process logger from cfg.
func NewLogger(cfg Config, name string) *slog.Logger {
	return slogx.New(slogx.Config{
		Service: name,
		Version: BuildVersion,
		Env:     cfg.Env,
		Level:   cfg.LogLevel,
		Format:  cfg.LogFormat,
	})
}

// New creates a new Application instance with all dependencies initialized
func New(cfg Config) (*Application, error) {
	app := &Application{
		cfg:    cfg,
		logger: NewLogger(cfg, "campus"),
	}

	cryptox.SetPepperPath(cfg.PepperFile)
	if err := cryptox.EnsurePepper(); err != nil {
		return nil, fmt.Errorf("failed to load pepper: %w", err)
	}

	ctx := context.Background()

	db, err := OpenStore(ctx, cfg, app.logger)
	if err != nil {
		return nil, err
	}
	app.db = db

	keyManager, err := InitTicketKeys(ctx, cfg, db, app.logger)
	if err != nil {
		_ = db.Close()
		return nil, err
	}
	app.keyManager = keyManager

	if err := app.initSessions(ctx); err != nil {
		_ = db.Close()
		return nil, err
	}

	if cfg.SeedDemo {
		if err := Seed(ctx, db, app.logger); err != nil {
			_ = app.closeStores()
			return nil, err
		}
	}

	if err := app.initServices(); err != nil {
		_ = app.closeStores()
		return nil, err
	}
	app.initHTTP()

	return app, nil
}

// Run starts the application and blocks until shutdown is requested
func (app *Application) Run() error {
	app.mail.Start()
	app.housekeepingService.Start()

	app.logger.Info("campus service starting", "port", app.cfg.Port, "version", BuildVersion)

	serverErrors := make(chan error, 1)
	go func() {
		serverErrors <- app.server.ListenAndServe()
	}()

	shutdown := make(chan os.Signal, 1)
	signal.Notify(shutdown, os.Interrupt, syscall.SIGTERM)

	select {
	case err := <-serverErrors:
		if err != nil && !errors.Is(err, http.ErrServerClosed) {
			app.stopWorkers()
			_ = app.closeStores()
			return fmt.Errorf("server failed: %w", err)
		}
	case sig := <-shutdown:
		app.logger.Info("shutdown signal received", "signal", sig)

		if err := app.Shutdown(); err != nil {
			return fmt.Errorf("graceful shutdown failed: %w", err)
		}
	}

	return nil
}

// Shutdown stops accepting requests, drains the mail queue and closes the
// stores.
func (app *Application) Shutdown() error {
	app.logger.Info("shutting down campus service...")

	ctx, cancel := context.WithTimeout(context.Background(), app.cfg.ShutdownGracePeriod)
	defer cancel()

	if err := app.server.Shutdown(ctx); err != nil {
		app.logger.Error("graceful server shutdown failed", "error", err)
		if err := app.server.Close(); err != nil {
			app.logger.Error("error closing server", "error", err)
		}
	}

	app.stopWorkers()
	if err := app.closeStores(); err != nil {
		return err
	}

	app.logger.Info("campus service stopped")
	return nil
}

func (app *Application) stopWorkers() {
	app.housekeepingService.Stop()
	// Queued confirmations are delivered before the store goes away.
	app.mail.Stop()
}

func (app *Application) closeStores() error {
	if app.redis != nil {
		if err := app.redis.Close(); err != nil {
			app.logger.Error("error closing redis", "error", err)
		}
	}
	if err := app.db.Close(); err != nil {
		app.logger.Error("error closing database", "error", err)
		return err
	}
	return nil
}

// OpenStore connects to the configured database and applies migrations.
func OpenStore(ctx context.Context, cfg Config, logger *slog.Logger) (store.Store, error) {
	var (
		db  store.Store
		err error
	)

	switch cfg.DatabaseDriver {
	case "postgres":
		db, err = postgres.NewStore(ctx, cfg.DatabaseURL)
	default:
		dsn := fmt.Sprintf("file:%s?_pragma=busy_timeout(5000)&_pragma=journal_mode(WAL)", cfg.DatabaseFile)
		db, err = sqlite.NewStore(dsn)
	}
	if err != nil {
		return nil, fmt.Errorf("failed to initialize database: %w", err)
	}

	if err := db.ApplyMigrations(); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("failed to apply database migrations: %w", err)
	}

	logger.Info("database migrations applied successfully", "driver", cfg.DatabaseDriver)
	return db, nil
}

// Seed writes the demo data into an empty store.
func Seed(ctx context.Context, db store.Store, logger *slog.Logger) error {
	seeded, err := (&service.SeedService{Store: db}).Seed(slogx.WithContext(ctx, logger))
	if err != nil {
		return fmt.Errorf("failed to seed demo data: %w", err)
	}
	if seeded {
		logger.Info("demo data seeded", "admin", service.SeedAdminEmail)
	} else {
		logger.Info("store already has accounts, skipping seed")
	}
	return nil
}

// initSessions keeps sessions in redis when configured, otherwise in the
// database.
func (app *Application) initSessions(ctx context.Context) error {
	app.sessions = &session.Manager{
		TTL:    app.cfg.SessionTTL,
		Secure: app.cfg.CookieSecure,
	}

	if app.cfg.RedisURL == "" {
		app.sessions.Backend = &session.StoreBackend{Store: app.db}
		app.logger.Info("sessions stored in database")
		return nil
	}

	client, err := session.NewRedisClient(ctx, app.cfg.RedisURL)
	if err != nil {
		return fmt.Errorf("failed to connect to redis: %w", err)
	}
	app.redis = client
	app.sessions.Backend = session.NewRedisBackend(client)
	app.logger.Info("sessions stored in redis")
	return nil
}

// initServices initializes all business logic services
func (app *Application) initServices() error {
	capacity, err := service.ParseCapacityMode(app.cfg.CapacityMode)
	if err != nil {
		return err
	}

	app.metrics = metrics.New(prometheus.DefaultRegisterer)

	mailer := notify.NewMailer(app.cfg.SMTP.notify(), app.logger)
	app.mail = notify.NewDispatcher(mailer, app.logger, app.metrics, notify.DispatcherConfig{
		Workers:   app.cfg.MailWorkers,
		QueueSize: app.cfg.MailQueueSize,
		Backoff:   time.Second,
	})

	app.accountService = &service.AccountService{
		Store:   app.db,
		Mailer:  mailer,
		Metrics: app.metrics,
	}
	app.eventService = &service.EventService{Store: app.db}
	app.registrationService = &service.RegistrationService{
		Store:    app.db,
		Tickets:  &service.TicketService{Keys: app.keyManager},
		Mail:     app.mail,
		Metrics:  app.metrics,
		Capacity: capacity,
	}

	app.housekeepingService = service.NewHousekeepingService(
		app.db,
		app.logger,
		app.cfg.HousekeepingInterval,
	)

	app.logger.Info("services initialized", "capacity_mode", string(capacity))
	return nil
}

// initHTTP initializes the HTTP router and server
func (app *Application) initHTTP() {
	router := httpapi.NewRouter(
		app.keyManager,
		BuildVersion,
		app.db,
		app.logger,
	)

	router.Sessions = app.sessions
	router.AccountService = app.accountService
	router.EventService = app.eventService
	router.RegistrationService = app.registrationService
	router.Gatherer = prometheus.DefaultGatherer
	router.RateLimits = httpx.RateLimitsFromEnv()
	router.ApplyRoutes()

	app.router = router

	app.server = &http.Server{
		Addr:              fmt.Sprintf(":%d", app.cfg.Port),
		Handler:           router,
		ReadHeaderTimeout: 3 * time.Second,
	}
}
