package main

import (
	"context"
	"database/sql"
	"fmt"
	"net/http"
	"time"

	_ "github.com/lib/pq"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/redis/go-redis/v9"
	"golang.org/x/sync/errgroup"

	"cargopipe/internal/classify"
	"cargopipe/internal/clean"
	"cargopipe/internal/config"
	"cargopipe/internal/constants"
	"cargopipe/internal/extract"
	"cargopipe/internal/geocode"
	"cargopipe/internal/logger"
	"cargopipe/internal/mail"
	"cargopipe/internal/persist"
	"cargopipe/internal/pipeline"
	"cargopipe/internal/publish"
	"cargopipe/internal/runner"
	"cargopipe/internal/watermark"
	"cargopipe/pkg/bootstrap"
	"cargopipe/pkg/health"
	"cargopipe/pkg/metrics"
	"cargopipe/pkg/migrations"
	"cargopipe/pkg/retry"
)

const (
	defaultPollInterval = 60 * time.Second
	maxPollBackoff      = 15 * time.Minute
)

type App struct {
	*bootstrap.Base
	dbConnector *bootstrap.DatabaseConnector
	redis       *redis.Client
	postgresDB  *sql.DB
	source      mail.Source
	cleaner     clean.Cleaner
	geocoder    geocode.Geocoder
	runner      *runner.Runner
	server      *http.Server
}

func NewApp(cfg *config.Config, log logger.Logger) *App {
	if sugaredLogger, ok := log.(*logger.SugaredLogger); ok {
		sugaredLogger.SetServiceName("processor")
	}
	return &App{
		Base:        bootstrap.NewBase(cfg, log),
		dbConnector: bootstrap.NewDatabaseConnector(cfg, log),
	}
}

func (a *App) Initialize(ctx context.Context) error {
	if err := a.initRedis(ctx); err != nil {
		a.Logger.WarnwCtx(ctx, "Redis initialization failed, geocode cache disabled",
			"error", err,
		)
	}

	if err := a.initPostgreSQL(ctx); err != nil {
		return fmt.Errorf("failed to initialize PostgreSQL: %w", err)
	}

	if err := a.InitBroker(); err != nil {
		return fmt.Errorf("failed to initialize broker: %w", err)
	}

	metrics.RegisterPipelineMetrics()
	metrics.RegisterCollaboratorMetrics()
	if a.Config.CircuitBreaker.Enabled {
		metrics.RegisterCircuitBreakerMetrics()
	}

	if err := a.initRunner(); err != nil {
		return fmt.Errorf("failed to initialize runner: %w", err)
	}

	if err := a.initHTTPServer(); err != nil {
		return fmt.Errorf("failed to initialize HTTP server: %w", err)
	}

	return nil
}

func (a *App) initRedis(ctx context.Context) error {
	rdb, err := a.dbConnector.InitRedis(ctx)
	if err != nil {
		return err
	}
	a.redis = rdb
	return nil
}

func (a *App) initPostgreSQL(ctx context.Context) error {
	postgresDB, err := a.dbConnector.InitPostgreSQL(ctx)
	if err != nil {
		return err
	}
	if postgresDB == nil {
		a.Logger.Warn("PostgreSQL not configured, persistence and durable watermark disabled")
		return nil
	}

	if a.Config.Database.RunMigrations {
		if err := migrations.EnsurePostgresSchema(ctx, postgresDB); err != nil {
			postgresDB.Close()
			return err
		}
	}

	a.postgresDB = postgresDB
	return nil
}

func (a *App) initRunner() error {
	classifierPolicy := retry.ClassifierPolicy()
	if a.Config.Classifier.MaxAttempts > 0 {
		classifierPolicy.MaxAttempts = a.Config.Classifier.MaxAttempts
	}

	classifyStep := classify.NewStep(
		classify.NewModelGatewayClassifier(a.Config.Classifier),
		classifierPolicy,
		a.Logger,
	)
	extractStep := extract.NewStep(
		extract.NewModelGatewayExtractor(a.Config.Extractor),
		a.Logger,
	)

	if a.Config.Cleaner.URL != "" {
		a.cleaner = clean.NewModelGatewayCleaner(a.Config.Cleaner)
	} else {
		a.Logger.Warn("Address cleaner not configured, geocoding raw addresses")
	}
	cleanStep := clean.NewStep(a.cleaner, a.Logger)

	a.geocoder = a.buildGeocoder()
	geocodeStep := geocode.NewStep(a.geocoder, a.Logger)

	var repo persist.Repository
	if a.postgresDB != nil {
		repo = persist.NewRepository(a.postgresDB)
	}
	persistStep := persist.NewStep(repo, a.Logger)

	publishStep := publish.NewStep(a.Producer, a.Config.Broker.Kafka.OrderEventsTopic, a.Logger)

	executor, err := pipeline.NewExecutor(a.Logger,
		classifyStep,
		extractStep,
		cleanStep,
		geocodeStep,
		persistStep,
		publishStep,
	)
	if err != nil {
		return err
	}

	var store watermark.Store
	if a.postgresDB != nil {
		store = watermark.NewPostgresStore(a.postgresDB)
	} else {
		store = watermark.NewMemoryStore()
	}

	a.source = mail.NewGatewayClient(a.Config.Mailbox)

	opts := []runner.Option{
		runner.WithQuery(a.Config.Mailbox.Query),
		runner.WithBatchLimit(a.batchLimit()),
	}
	if a.Config.Mailbox.Filter != "" {
		filter, err := mail.NewFilter(a.Config.Mailbox.Filter)
		if err != nil {
			return fmt.Errorf("invalid mailbox filter: %w", err)
		}
		opts = append(opts, runner.WithFilter(filter))
	}

	a.runner = runner.NewRunner(a.source, executor, store, a.Logger, opts...)
	return nil
}

func (a *App) buildGeocoder() geocode.Geocoder {
	var g geocode.Geocoder = geocode.NewHTTPGeocoder(a.Config.Geocoder)
	if a.Config.CircuitBreaker.Enabled {
		g = geocode.WrapWithCircuitBreaker(g, a.Config.CircuitBreaker)
	}
	if a.redis != nil {
		g = geocode.NewCachedGeocoder(g, a.redis, a.Config.Geocoder.CacheTTLSeconds, a.Logger)
	}
	return g
}

func (a *App) batchLimit() int {
	if a.Config.Mailbox.MaxBatchSize > 0 {
		return a.Config.Mailbox.MaxBatchSize
	}
	return constants.DefaultMaxBatchSize
}

func (a *App) initHTTPServer() error {
	mux := http.NewServeMux()

	healthRegistry := health.NewCheckerRegistry()
	if a.redis != nil {
		healthRegistry.Register(health.NewRedisChecker(a.redis))
	}
	if a.postgresDB != nil {
		healthRegistry.Register(health.NewPostgreSQLChecker(a.postgresDB))
	}

	mux.HandleFunc("/health", func(w http.ResponseWriter, r *http.Request) {
		h := healthRegistry.Check(r.Context())
		statusCode := http.StatusOK
		if h.Status == health.StatusUnhealthy {
			statusCode = http.StatusServiceUnavailable
		}
		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(statusCode)
		fmt.Fprintf(w, `{"status":"%s","timestamp":"%s"}`, h.Status, h.Timestamp.Format(time.RFC3339))
	})

	mux.Handle("/metrics", promhttp.Handler())

	a.server = &http.Server{
		Addr:    fmt.Sprintf(":%d", a.Config.Server.Port),
		Handler: mux,
	}

	return nil
}

// Run starts the HTTP server and the poll loop. A failed run is logged
// and the loop keeps going; the watermark guarantees the next run
// retries the same window after a fetch failure.
func (a *App) Run(ctx context.Context) error {
	g, gCtx := errgroup.WithContext(ctx)

	if a.server != nil {
		g.Go(func() error {
			a.Logger.InfowCtx(ctx, "HTTP server starting", "port", a.Config.Server.Port)
			if err := a.server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
				return fmt.Errorf("HTTP server error: %w", err)
			}
			return nil
		})
		g.Go(func() error {
			<-gCtx.Done()
			shutdownCtx, cancel := context.WithTimeout(context.Background(), constants.ShutdownTimeout)
			defer cancel()
			return a.server.Shutdown(shutdownCtx)
		})
	}

	g.Go(func() error {
		interval := defaultPollInterval
		if a.Config.Poll.IntervalSeconds > 0 {
			interval = time.Duration(a.Config.Poll.IntervalSeconds) * time.Second
		}

		consecutiveFailures := 0
		for {
			if _, err := a.runner.Run(gCtx); err != nil {
				if gCtx.Err() != nil {
					return gCtx.Err()
				}
				consecutiveFailures++
				a.Logger.ErrorwCtx(gCtx, "Ingestion run failed",
					"error", err,
					"consecutive_failures", consecutiveFailures,
				)
			} else {
				consecutiveFailures = 0
			}

			wait := interval
			if consecutiveFailures > 0 {
				wait = retry.CalculateBackoffDuration(consecutiveFailures, interval, 2, maxPollBackoff)
				a.Logger.WarnwCtx(gCtx, "Backing off before next run",
					"wait", wait,
				)
			}

			timer := time.NewTimer(wait)
			select {
			case <-gCtx.Done():
				timer.Stop()
				return gCtx.Err()
			case <-timer.C:
			}
		}
	})

	return g.Wait()
}

// RunOnce executes a single ingestion run and returns its error.
func (a *App) RunOnce(ctx context.Context) error {
	report, err := a.runner.Run(ctx)
	if err != nil {
		return err
	}
	a.Logger.InfowCtx(ctx, "Run finished",
		"run_id", report.RunID,
		"fetched", report.Fetched,
		"completed", report.Completed,
		"aborted", report.Aborted,
	)
	return nil
}

func (a *App) Shutdown(ctx context.Context) error {
	a.Logger.InfowCtx(ctx, "Shutting down processor")

	additionalShutdown := func(ctx context.Context) []error {
		var errs []error

		if a.source != nil {
			if err := a.source.Close(); err != nil {
				errs = append(errs, fmt.Errorf("mail source close error: %w", err))
			}
		}
		if a.cleaner != nil {
			if err := a.cleaner.Close(); err != nil {
				errs = append(errs, fmt.Errorf("cleaner close error: %w", err))
			}
		}
		if a.geocoder != nil {
			if err := a.geocoder.Close(); err != nil {
				errs = append(errs, fmt.Errorf("geocoder close error: %w", err))
			}
		}

		errs = append(errs, a.dbConnector.ShutdownDatabases(a.redis, a.postgresDB)...)

		return errs
	}

	return a.Base.Shutdown(ctx, additionalShutdown)
}
