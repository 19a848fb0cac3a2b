package main

import (
	"context"
	"fmt"
	"log"
	"net/http"
	"os/signal"
	"syscall"
	"time"

	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/fiber/v2/middleware/adaptor"
	fiberlogger "github.com/gofiber/fiber/v2/middleware/logger"
	"github.com/gofiber/fiber/v2/middleware/recover"
	"github.com/jonboulle/clockwork"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/sirupsen/logrus"

	"github.com/i474232898/weather-alerts/internal/alerts"
	httpapi "github.com/i474232898/weather-alerts/internal/api/http"
	"github.com/i474232898/weather-alerts/internal/config"
	"github.com/i474232898/weather-alerts/internal/favorites"
	"github.com/i474232898/weather-alerts/internal/logging"
	"github.com/i474232898/weather-alerts/internal/observability"
	"github.com/i474232898/weather-alerts/internal/scheduler"
	"github.com/i474232898/weather-alerts/internal/store"
	"github.com/i474232898/weather-alerts/internal/weather"
	"github.com/i474232898/weather-alerts/internal/weather/providers"
)

type repository interface {
	alerts.Repository
	favorites.Repository
}

func main() {
	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("failed to load config: %v", err)
	}

	logger, err := logging.New(logging.Options{
		Level:  cfg.LogLevel,
		Format: cfg.LogFormat,
		File:   cfg.LogFile,
	})
	if err != nil {
		log.Fatalf("failed to configure logging: %v", err)
	}

	if err := run(cfg, logger); err != nil {
		logger.WithError(err).Fatal("weather-alerts stopped")
	}
}

func run(cfg *config.AppConfig, logger *logrus.Logger) error {
	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	repo, closeRepo, err := openRepository(ctx, cfg, logger)
	if err != nil {
		return err
	}
	defer closeRepo()

	// Shared HTTP client for outbound provider calls.
	httpClient := &http.Client{Timeout: cfg.HTTPTimeout}

	var resolver weather.Resolver = providers.NewOpenMeteoGeocoder(httpClient, cfg.GeocodingBaseURL)
	if cfg.GoogleGeocoderAPIKey != "" {
		resolver = providers.NewGoogleGeocoder(cfg.GoogleGeocoderAPIKey)
		logger.Info("using Google geocoding")
	}
	service := weather.NewService(
		providers.NewOpenMeteoProvider(httpClient, cfg.WeatherBaseURL),
		resolver,
		logger,
	)

	clock := clockwork.NewRealClock()
	metrics := observability.NewMetrics()

	var managerOpts []alerts.ManagerOption
	if cfg.AlertDedup {
		managerOpts = append(managerOpts, alerts.WithDedup())
	}
	manager := alerts.NewManager(repo, logger, metrics, managerOpts...)
	scanner := alerts.NewScanner(repo, service, alerts.NewEvaluator(clock), manager, clock, logger, metrics,
		alerts.ScannerConfig{
			Concurrency:  cfg.ScanConcurrency,
			FetchTimeout: cfg.FetchTimeout,
		})

	sched := scheduler.New(scanner, cfg.ScanInterval, 0, logger)
	if err := sched.Start(); err != nil {
		return fmt.Errorf("failed to start scheduler: %w", err)
	}
	defer sched.Stop()

	app := fiber.New(fiber.Config{
		AppName:               "weather-alerts",
		DisableStartupMessage: true,
		ReadTimeout:           10 * time.Second,
		WriteTimeout:          60 * time.Second,
		ErrorHandler:          httpapi.ErrorHandler(logger),
	})

	app.Use(fiberlogger.New(fiberlogger.Config{Output: logger.Writer()}))
	app.Use(recover.New())

	app.Get("/health", func(c *fiber.Ctx) error {
		return c.JSON(fiber.Map{
			"status":  "ok",
			"service": "weather-alerts",
		})
	})
	app.Get("/metrics", adaptor.HTTPHandler(promhttp.Handler()))

	httpapi.RegisterRoutes(app, httpapi.Dependencies{
		Weather:     service,
		Preferences: repo,
		Alerts:      manager,
		Scanner:     scanner,
		Favorites:   repo,
	})

	go func() {
		if err := app.Listen(":" + cfg.Port); err != nil {
			logger.WithError(err).Error("fiber server stopped")
			stop()
		}
	}()
	logger.WithField("port", cfg.Port).Info("weather-alerts listening")

	<-ctx.Done()

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	if err := app.ShutdownWithContext(shutdownCtx); err != nil {
		logger.WithError(err).Warn("error during shutdown")
	}
	return nil
}

// openRepository picks PostgreSQL when DATABASE_URL is set, memory otherwise.
func openRepository(ctx context.Context, cfg *config.AppConfig, logger logrus.FieldLogger) (repository, func(), error) {
	if cfg.DatabaseURL == "" {
		logger.Info("using in-memory store")
		return store.NewMemoryStore(nil), func() {}, nil
	}

	connectCtx, cancel := context.WithTimeout(ctx, 15*time.Second)
	defer cancel()

	pg, err := store.OpenPostgres(connectCtx, cfg.DatabaseURL)
	if err != nil {
		return nil, nil, fmt.Errorf("open postgres store: %w", err)
	}
	logger.Info("using PostgreSQL store")
	return pg, pg.Close, nil
}
