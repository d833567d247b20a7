package main

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

	"github.com/labstack/echo/v4"
	sloggorm "github.com/orandin/slog-gorm"
	"github.com/redis/go-redis/v9"
	otellib "go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/codes"
	"gorm.io/driver/postgres"
	"gorm.io/gorm"
	gormtracing "gorm.io/plugin/opentelemetry/tracing"

	servermiddleware "github.com/formbridge/formbridge/cmd/server/internal/middleware"
	"github.com/formbridge/formbridge/cmd/server/internal/migrations"
	"github.com/formbridge/formbridge/cmd/server/internal/models"
	"github.com/formbridge/formbridge/cmd/server/internal/routes"
	routesv1 "github.com/formbridge/formbridge/cmd/server/internal/routes/v1"
	"github.com/formbridge/formbridge/internal/archive"
	"github.com/formbridge/formbridge/internal/cache"
	"github.com/formbridge/formbridge/internal/config"
	"github.com/formbridge/formbridge/internal/integrations/providers"
	"github.com/formbridge/formbridge/internal/labels"
	"github.com/formbridge/formbridge/internal/logger"
	"github.com/formbridge/formbridge/internal/mailer"
	"github.com/formbridge/formbridge/internal/otel"
	"github.com/formbridge/formbridge/internal/upload"
)

const name string = "github.com/formbridge/formbridge/cmd/server"

// Set at build time
var version = "dev"

var tracer = otellib.Tracer(name)

type server struct {
	router       *echo.Echo
	config       *config.Config
	db           *gorm.DB
	redis        *redis.Client
	memory       *cache.MemoryStore
	otelShutdown func(context.Context) error
}

func initServer(ctx context.Context) (*server, error) {
	server := new(server)

	cfg, err := config.GetConfig()
	if err != nil {
		return nil, fmt.Errorf("failed to initialize server config: %w", err)
	}
	server.config = cfg

	shutdownOTel, err := otel.SetupOTelSDK(ctx, otel.Options{
		ServiceName:    "formbridge",
		ServiceVersion: version,
		UseOTLP:        cfg.Logging.UseOTLP,
	})
	if err != nil {
		return nil, fmt.Errorf("failed to initialize OTEL SDK: %w", err)
	}
	defer func() {
		// Something failed to initialize, make sure everything gets flushed to the server
		if server.otelShutdown == nil {
			otelShutdownCtx, cancel := context.WithTimeout(
				context.Background(),
				time.Second*time.Duration(cfg.GracefulShutdownSecs),
			)
			defer cancel()

			if err = shutdownOTel(otelShutdownCtx); err != nil {
				logger.Logger.Error("failed to flush otel data", "error", err)
			}
		}
	}()

	ctx, span := tracer.Start(ctx, "initServer")
	defer span.End()

	logger.LogLevel.Set(slog.Level(cfg.Logging.App.Level))

	db, err := openDatabase(ctx, cfg)
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, "failed to initialize database")
		return nil, err
	}
	server.db = db

	span.AddEvent("initialized database connection")

	if err = models.LoadAPIKeysFromConfig(ctx, db, cfg.APIKeys); err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, "failed to load API keys from config")
		return nil, fmt.Errorf("failed to load API keys from config: %w", err)
	}

	if err = models.LoadFormsFromConfig(ctx, db, cfg.Forms); err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, "failed to load forms from config")
		return nil, fmt.Errorf("failed to load forms from config: %w", err)
	}

	span.AddEvent("loaded api keys and forms from config")

	var store cache.Store
	if cfg.Cache.InMemory {
		logger.Logger.Warn("using the in process item cache, cache-clear only affects this instance")
		server.memory = cache.NewMemoryStore()
		store = server.memory
	} else {
		server.redis = redis.NewClient(&redis.Options{
			Addr: cfg.Cache.RedisAddr(),
			DB:   cfg.Cache.RedisDB,
		})
		store = cache.NewRedisStore(cache.RedisStoreConfig{
			RedisClient: server.redis,
			Prefix:      cfg.Cache.Prefix,
		})
	}

	registry := providers.Registry(cfg, store, providers.Options{
		FormSettings: models.NewFormStore(db),
	})
	span.AddEvent("configured integrations")
	logger.Logger.Info("configured integrations", "integrations", registry.Types())

	lbls := labels.New(nil)
	if cfg.LabelsFile != "" {
		lbls, err = labels.LoadFile(cfg.LabelsFile)
		if err != nil {
			span.RecordError(err)
			span.SetStatus(codes.Error, "failed to load labels")
			return nil, fmt.Errorf("failed to load labels: %w", err)
		}
	}

	uploader, err := upload.FromConfig(cfg.Archive)
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, "failed to construct archive uploader")
		return nil, fmt.Errorf("failed to construct archive uploader: %w", err)
	}

	var archiver *archive.Archiver
	if uploader != nil {
		archiver = archive.New(uploader, cfg.Archive.Prefix, cfg.Archive.LinkTTL)
		span.AddEvent("configured attachment archive")
	}

	metrics, err := otel.NewMetrics()
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, "failed to create metrics")
		return nil, fmt.Errorf("failed to create metrics: %w", err)
	}

	v1Handler := routesv1.NewHandler(
		db,
		cfg,
		registry,
		lbls,
		archiver,
		mailer.FromConfig(cfg.SMTP),
		metrics,
	)
	middlewareHandler := servermiddleware.NewHandler(db)

	e, err := routes.BuildEcho(logger.Logger, cfg.Security)
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, "error building router")
		return nil, fmt.Errorf("error building router: %w", err)
	}

	span.AddEvent("created echo router")

	v1Handler.AddRoutes(e, middlewareHandler)

	server.otelShutdown = shutdownOTel
	server.router = e

	span.RecordError(nil)
	span.SetStatus(codes.Ok, "initialized server")
	return server, nil
}

func openDatabase(ctx context.Context, cfg *config.Config) (*gorm.DB, error) {
	gormLogger := slog.New(logger.Handler)

	sg := sloggorm.New(
		sloggorm.WithHandler(gormLogger.Handler()),
		sloggorm.SetLogLevel(sloggorm.DefaultLogType, slog.Level(cfg.Logging.Gorm.Level)),
	)
	if cfg.Logging.Gorm.TraceQueries {
		sg = sloggorm.New(
			sloggorm.WithHandler(gormLogger.Handler()),
			sloggorm.WithTraceAll(),
			sloggorm.SetLogLevel(sloggorm.DefaultLogType, slog.Level(cfg.Logging.Gorm.Level)),
		)
	}

	db, err := gorm.Open(
		postgres.Open(cfg.PostgresDSN()),
		&gorm.Config{Logger: sg, TranslateError: true},
	)
	if err != nil {
		return nil, fmt.Errorf("failed to initialize database: %w", err)
	}

	sqlDB, err := db.DB()
	if err != nil {
		return nil, fmt.Errorf("failed to acquire underlying database connection: %w", err)
	}

	sqlDB.SetMaxIdleConns(cfg.Postgres.MaxIdleConnections)
	sqlDB.SetMaxOpenConns(cfg.Postgres.MaxOpenConnections)
	sqlDB.SetConnMaxLifetime(cfg.Postgres.ConnectionTTL)

	if err = db.Use(gormtracing.NewPlugin()); err != nil {
		return nil, fmt.Errorf("failed to add otel plugin to gorm: %w", err)
	}

	if err = migrations.Up(ctx, db); err != nil {
		return nil, fmt.Errorf("failed to perform database migrations: %w", err)
	}

	return db, nil
}

func (s *server) Start() error {
	logger.Logger.Info("Starting services...", "address", s.config.ListenAddress)

	err := s.router.Start(s.config.ListenAddress)
	if err != nil && !errors.Is(err, http.ErrServerClosed) {
		return err
	}

	return nil
}

func (s *server) Shutdown() error {
	var errs error

	ctx, cancelTimeout := context.WithTimeout(
		context.Background(),
		time.Second*time.Duration(s.config.GracefulShutdownSecs),
	)
	defer cancelTimeout()

	if err := s.router.Shutdown(ctx); err != nil {
		errs = errors.Join(errs, err)
	}

	if s.redis != nil {
		if err := s.redis.Close(); err != nil {
			errs = errors.Join(errs, fmt.Errorf("failed to close redis client: %w", err))
		}
	}

	if s.memory != nil {
		s.memory.Close()
	}

	if sqlDB, err := s.db.DB(); err == nil {
		errs = errors.Join(errs, sqlDB.Close())
	}

	if s.otelShutdown != nil {
		errs = errors.Join(errs, s.otelShutdown(ctx))
	}

	return errs
}

func main() {
	ctx, cancelSignal := signal.NotifyContext(
		context.Background(),
		syscall.SIGTERM,
		syscall.SIGINT,
	)

	logger.InitSlog()

	server, err := initServer(ctx)
	if err != nil {
		logger.Logger.Error(err.Error())
		cancelSignal()
		os.Exit(1)
	}

	errch := make(chan error, 1)
	go func() {
		<-ctx.Done()
		logger.Logger.Info("Got shutdown signal!")
		errch <- server.Shutdown()
		close(errch)
	}()

	if err := server.Start(); err != nil {
		logger.Logger.Error(err.Error())
		cancelSignal()
		os.Exit(1)
	}

	if err := <-errch; err != nil {
		logger.Logger.Error("Error shutting down server", "error", err)
	}

	cancelSignal()
}
