package main

import (
	"context"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/Gobusters/ectologger"
	"github.com/Gobusters/ectologger/zapadapter"
	migratepg "github.com/golang-migrate/migrate/v4/database/postgres"
	"github.com/jmoiron/sqlx"
	"github.com/joho/godotenv"
	"github.com/labstack/echo/v4"
	echomiddleware "github.com/labstack/echo/v4/middleware"
	_ "github.com/lib/pq"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"go.opentelemetry.io/contrib/instrumentation/github.com/labstack/echo/otelecho"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	sdkresource "go.opentelemetry.io/otel/sdk/resource"
	sdktrace "go.opentelemetry.io/otel/sdk/trace"
	"go.uber.org/zap"

	"github.com/Ramsey-B/dahlia/config"
	collaborationrepo "github.com/Ramsey-B/dahlia/internal/repositories/collaboration"
	dispatchrepo "github.com/Ramsey-B/dahlia/internal/repositories/dispatch"
	followuprepo "github.com/Ramsey-B/dahlia/internal/repositories/followup"
	transitionrepo "github.com/Ramsey-B/dahlia/internal/repositories/transition"
	"github.com/Ramsey-B/dahlia/pkg/clients"
	"github.com/Ramsey-B/dahlia/pkg/database"
	"github.com/Ramsey-B/dahlia/pkg/drafts"
	"github.com/Ramsey-B/dahlia/pkg/events"
	"github.com/Ramsey-B/dahlia/pkg/httpclient"
	"github.com/Ramsey-B/dahlia/pkg/kafka"
	"github.com/Ramsey-B/dahlia/pkg/middleware"
	"github.com/Ramsey-B/dahlia/pkg/pipeline"
	"github.com/Ramsey-B/dahlia/pkg/redis"
	collaborationroutes "github.com/Ramsey-B/dahlia/pkg/routes/collaboration"
	draftroutes "github.com/Ramsey-B/dahlia/pkg/routes/draft"
	healthroutes "github.com/Ramsey-B/dahlia/pkg/routes/health"
	"github.com/Ramsey-B/dahlia/pkg/startup"
	"github.com/Ramsey-B/dahlia/pkg/tracing"
	"github.com/Ramsey-B/dahlia/pkg/tracing/exporters"
)

type dependency struct {
	name      string
	dependsOn []string
	start     func(ctx context.Context) error
	stop      func(ctx context.Context) error
}

func (d *dependency) GetName() string { return d.name }

func (d *dependency) DependsOn() []string { return d.dependsOn }

func (d *dependency) Start(ctx context.Context) error {
	if d.start == nil {
		return nil
	}
	return d.start(ctx)
}
func (d *dependency) Stop(ctx context.Context) error {
	if d.stop == nil {
		return nil
	}
	return d.stop(ctx)
}

func newLogger(cfg *config.Config) (ectologger.Logger, func()) {
	var zapLogger *zap.Logger
	if cfg.Environment == "production" {
		zapLogger, _ = zap.NewProduction()
	} else {
		zapLogger, _ = zap.NewDevelopment()
	}
	return zapadapter.NewZapEctoLogger(zapLogger, nil), func() { _ = zapLogger.Sync() }
}

func main() {
	_ = godotenv.Load()

	cfg, err := config.Load()
	if err != nil {
		fmt.Fprintf(os.Stderr, "failed to load config: %v\n", err)
		os.Exit(1)
	}

	logger, flushLogs := newLogger(cfg)
	defer flushLogs()

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	var tracerProvider *sdktrace.TracerProvider
	if cfg.Tracing.Enabled {
		exporter, err := exporters.NewOTLPExporter(ctx, exporters.OTLPConfig{
			Endpoint: cfg.Tracing.Endpoint,
			Insecure: cfg.Tracing.Insecure,
			Timeout:  10 * time.Second,
		})
		if err != nil {
			logger.WithError(err).Error("Failed to create OTLP exporter")
			os.Exit(1)
		}

		tracerProvider = sdktrace.NewTracerProvider(
			sdktrace.WithBatcher(exporter),
			sdktrace.WithResource(sdkresource.NewSchemaless(attribute.String("service.name", cfg.ServiceName))),
		)
		otel.SetTracerProvider(tracerProvider)
		tracing.SetTracer(tracerProvider.Tracer(cfg.ServiceName))
	}

	var db database.DB
	var kafkaProducer *kafka.Producer
	var redisClient *redis.Client

	e := echo.New()
	e.HideBanner = true
	e.HidePort = true

	orchestrator := startup.New(logger, 5)

	orchestrator.AddDependency(&dependency{
		name: "postgres",
		start: func(ctx context.Context) error {
			sqlxDB, err := sqlx.ConnectContext(ctx, "postgres", cfg.Database.DSN())
			if err != nil {
				return fmt.Errorf("failed to connect to postgres: %w", err)
			}
			sqlxDB.SetMaxOpenConns(cfg.Database.MaxOpenConns)
			sqlxDB.SetMaxIdleConns(cfg.Database.MaxIdleConns)
			sqlxDB.SetConnMaxLifetime(cfg.Database.ConnMaxLifetime)

			driver, err := migratepg.WithInstance(sqlxDB.DB, &migratepg.Config{})
			if err != nil {
				return fmt.Errorf("failed to create migration driver: %w", err)
			}
			migrations := database.NewMigrationService(logger, &database.MigrationConfig{
				MigrationFolderPath: cfg.Database.MigrationsPath,
			})
			if err := migrations.Migrate(cfg.Database.Name, driver); err != nil {
				return fmt.Errorf("failed to run migrations: %w", err)
			}

			db = database.NewDatabaseInstance(sqlxDB, logger)
			return nil
		},
		stop: func(ctx context.Context) error {
			if db == nil {
				return nil
			}
			return db.Close()
		},
	})

	if cfg.Kafka.Enabled {
		orchestrator.AddDependency(&dependency{
			name: "kafka",
			start: func(ctx context.Context) error {
				producer, err := kafka.NewProducer(kafka.ProducerConfig{
					Brokers:      cfg.Kafka.Brokers,
					Topic:        cfg.Kafka.Topic,
					BatchSize:    cfg.Kafka.BatchSize,
					BatchTimeout: cfg.Kafka.BatchTimeout,
					WriteTimeout: cfg.Kafka.WriteTimeout,
					MaxAttempts:  cfg.Kafka.MaxAttempts,
					RequiredAcks: cfg.Kafka.RequiredAcks,
					Compression:  cfg.Kafka.Compression,
				}, logger)
				if err != nil {
					return err
				}
				kafkaProducer = producer
				return nil
			},
			stop: func(ctx context.Context) error {
				if kafkaProducer == nil {
					return nil
				}
				return kafkaProducer.Close()
			},
		})
	}

	if cfg.Redis.Enabled {
		orchestrator.AddDependency(&dependency{
			name: "redis",
			start: func(ctx context.Context) error {
				client, err := redis.NewClient(redis.Config{
					Host:     cfg.Redis.Host,
					Port:     cfg.Redis.Port,
					Password: cfg.Redis.Password,
					DB:       cfg.Redis.DB,
				}, logger)
				if err != nil {
					return err
				}
				redisClient = client
				return nil
			},
			stop: func(ctx context.Context) error {
				if redisClient == nil {
					return nil
				}
				return redisClient.Close()
			},
		})
	}

	var healthChecker *healthroutes.Checker

	serverDeps := []string{"postgres"}
	if cfg.Kafka.Enabled {
		serverDeps = append(serverDeps, "kafka")
	}
	if cfg.Redis.Enabled {
		serverDeps = append(serverDeps, "redis")
	}

	orchestrator.AddDependency(&dependency{
		name:      "http-server",
		dependsOn: serverDeps,
		start: func(ctx context.Context) error {
			collaborations := collaborationrepo.NewRepository(db, logger)
			transitions := transitionrepo.NewRepository(db, logger)
			followUps := followuprepo.NewRepository(db, logger)
			dispatches := dispatchrepo.NewRepository(db, logger)

			httpClient := httpclient.NewClient(httpclient.Config{
				Timeout:         cfg.Directory.Timeout,
				MaxIdleConns:    100,
				IdleConnTimeout: 90 * time.Second,
			}, logger)
			influencerDirectory := clients.NewInfluencerDirectory(httpClient, cfg.Directory.InfluencerBaseURL, logger)
			staffDirectory := clients.NewStaffDirectory(httpClient, cfg.Directory.StaffBaseURL, logger)

			emitter := events.NewNoopEmitter()
			if kafkaProducer != nil {
				emitter = events.NewKafkaEmitter(kafkaProducer, logger)
			}

			engine := pipeline.NewEngine(db, collaborations, transitions, dispatches, influencerDirectory, staffDirectory, emitter, logger)
			activity := pipeline.NewActivity(collaborations, followUps, dispatches, logger)
			batch := pipeline.NewBatchExecutor(engine, activity, logger)
			board := pipeline.NewBoard(collaborations, activity, logger)

			e.HTTPErrorHandler = middleware.Error(logger)
			e.Use(echomiddleware.Recover())
			e.Use(otelecho.Middleware(cfg.ServiceName))
			e.Use(middleware.Context())
			e.Use(middleware.Logger(logger))

			collaborationHandler := collaborationroutes.NewHandler(engine, activity, batch, board)
			collaborationHandler.Register(e.Group("/api/v1/collaborations"))
			collaborationHandler.RegisterDispatchRoutes(e.Group("/api/v1/dispatches"))

			if redisClient != nil {
				draftStore := drafts.NewStore(redisClient, cfg.Drafts.TTL, logger)
				draftroutes.NewHandler(draftStore).Register(e.Group("/api/v1/drafts"))
			}

			var redisPinger interface{ Ping(ctx context.Context) error }
			if redisClient != nil {
				redisPinger = redisClient
			}
			healthChecker = healthroutes.NewChecker(db, redisPinger, cfg.Version)
			healthChecker.RegisterRoutes(e)

			e.GET("/metrics", echo.WrapHandler(promhttp.Handler()))

			go func() {
				addr := fmt.Sprintf(":%d", cfg.Port)
				logger.Infof("Starting HTTP server on %s", addr)
				if err := e.Start(addr); err != nil && err != http.ErrServerClosed {
					logger.WithError(err).Error("HTTP server stopped unexpectedly")
				}
			}()
			return nil
		},
		stop: func(ctx context.Context) error {
			return e.Shutdown(ctx)
		},
	})

	if err := orchestrator.Start(ctx); err != nil {
		logger.WithError(err).Error("Startup failed")
		os.Exit(1)
	}
	if healthChecker != nil {
		healthChecker.SetReady(true)
	}
	logger.Infof("%s started (env=%s version=%s)", cfg.ServiceName, cfg.Environment, cfg.Version)

	<-ctx.Done()
	logger.Info("Shutdown signal received")
	if healthChecker != nil {
		healthChecker.SetReady(false)
	}

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	if err := orchestrator.Stop(shutdownCtx); err != nil {
		logger.WithError(err).Error("Shutdown did not complete cleanly")
	}
	if tracerProvider != nil {
		_ = tracerProvider.Shutdown(shutdownCtx)
	}
}
