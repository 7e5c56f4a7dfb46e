package bootstrap

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"time"

	"github.com/getsentry/sentry-go"
	sentryhttp "github.com/getsentry/sentry-go/http"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/lmittmann/tint"
	"github.com/prior-it/addressd/app"
	"github.com/prior-it/addressd/config"
	"github.com/prior-it/addressd/postgres"
	"github.com/prior-it/addressd/server"
)

// Full creates a new server and initializes all default systems.
//
// This connects to and migrates the postgres database, initialises Sentry (if enabled in config),
// attaches the default middleware and registers the address routes.
// The returned server owns the database connection and closes it when it stops.
//
// You can supply additional middleware if you want to.
func Full(
	ctx context.Context,
	cfg *config.Config,
	middlewares ...func(http.Handler) http.Handler,
) (*server.Server[*app.State], error) {
	if cfg == nil {
		return nil, errors.New("you need to supply a config.Config value to bootstrap a new server")
	}

	logger := CreateLogger(cfg)

	if cfg.Sentry.Enabled {
		initSentry(logger, cfg)
	}

	db, err := Database(ctx, cfg)
	if err != nil {
		return nil, err
	}
	if err := db.Migrate(ctx); err != nil {
		db.Close()
		return nil, fmt.Errorf("could not migrate the database: %w", err)
	}

	state := app.NewState(postgres.NewAddressService(db), cfg.Pagination, db)
	s := server.New(state, cfg).
		WithLogger(logger)

	s.AttachDefaultMiddleware()

	if cfg.Sentry.Enabled {
		sentryHandler := sentryhttp.New(sentryhttp.Options{
			Repanic:         true,
			WaitForDelivery: true,
			Timeout:         5 * time.Second, //nolint:mnd
		})
		s.UseStd(sentryHandler.Handle)
	}

	// Responses are always fresh while debugging
	if cfg.App.Debug {
		s.UseStd(middleware.NoCache)
	}

	s.UseStd(middlewares...)

	app.Routes(s)
	return s, nil
}

// Database connects to the configured database, without running migrations.
func Database(ctx context.Context, cfg *config.Config) (*postgres.DB, error) {
	if cfg.Database.URL == "" {
		return nil, errors.New("no database configured, set DATABASE_URL")
	}
	db, err := postgres.NewDB(ctx, cfg.Database.URL, cfg.Database.Schema)
	if err != nil {
		return nil, fmt.Errorf("could not initialize database: %w", err)
	}
	return db, nil
}

// CreateLogger builds the application logger from the log configuration and makes it the slog default.
// Plaintext logs are colorized for local development.
func CreateLogger(cfg *config.Config) *slog.Logger {
	var logger *slog.Logger
	switch cfg.Log.Format {
	case config.LogFormatPlaintext:
		logger = slog.New(tint.NewHandler(os.Stdout, &tint.Options{
			Level:      cfg.Log.Level.ToSlog(),
			AddSource:  cfg.Log.Verbose && cfg.App.Debug,
			TimeFormat: time.TimeOnly,
		}))
	default:
		logger = slog.New(slog.NewJSONHandler(os.Stdout, &slog.HandlerOptions{
			Level:     cfg.Log.Level.ToSlog(),
			AddSource: cfg.Log.Verbose && cfg.App.Debug,
		}))
	}
	slog.SetDefault(logger)
	return logger
}

func initSentry(logger *slog.Logger, cfg *config.Config) {
	logger.Debug("Trying to initialise Sentry")
	if err := sentry.Init(sentry.ClientOptions{
		Dsn:              cfg.Sentry.DSN,
		Debug:            cfg.App.Debug,
		AttachStacktrace: true,
		SampleRate:       cfg.Sentry.SampleRate,
		EnableTracing:    true,
		TracesSampleRate: cfg.Sentry.TracesRate,
		TracesSampler: sentry.TracesSampler(func(ctx sentry.SamplingContext) float64 {
			if ctx.Span.Name == "GET /ping" {
				return 0.0
			}
			return cfg.Sentry.TracesRate
		}),
		ProfilesSampleRate: cfg.Sentry.ProfilesRate,
		ServerName:         cfg.App.Name,
		Release:            cfg.App.Version,
		Environment:        string(cfg.App.Env),
	}); err != nil {
		logger.Error("Sentry initialization failed", "error", err)
	} else {
		logger.Debug("Sentry initialised")
	}
}
