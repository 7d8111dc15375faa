package main

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/UnknownOlympus/groundhog/internal/config"
	"github.com/UnknownOlympus/groundhog/internal/elevation"
	"github.com/UnknownOlympus/groundhog/internal/enrichment"
	"github.com/UnknownOlympus/groundhog/internal/metrics"
	"github.com/UnknownOlympus/groundhog/internal/repository"
	"github.com/UnknownOlympus/groundhog/internal/service"
	"github.com/UnknownOlympus/groundhog/internal/tableio"
	"github.com/UnknownOlympus/groundhog/internal/tracing"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"go.opentelemetry.io/contrib/instrumentation/net/http/otelhttp"
)

// Constants for different environment types.
const (
	envLocal = "local"
	envDev   = "development"
	envProd  = "production"
)

// main is the entry point of the application.
func main() {
	// Create a context that will be canceled when an interrupt signal is received.
	// This allows for graceful shutdown.
	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)

	// Load application configuration.
	cfg := config.MustLoad()

	// Set up the logger based on the environment.
	logger := setupLogger(cfg.Env)

	code := run(ctx, cfg, logger, os.Stderr)
	stop()
	os.Exit(code)
}

// run wires the application and blocks until it is done. It returns the process
// exit code once every deferred cleanup, span flushing included, has run.
func run(ctx context.Context, cfg *config.Config, logger *slog.Logger, traceOut io.Writer) int {
	shutdownTracing, err := tracing.Setup(ctx, cfg.Tracing.Enabled, traceOut, logger)
	if err != nil {
		logger.ErrorContext(ctx, "Failed to set up tracing", "error", err)
		return 1
	}
	defer tracing.Shutdown(context.WithoutCancel(ctx), shutdownTracing, logger)

	// Create a separate registry for metrics with exemplar
	reg := prometheus.NewRegistry()
	reg.MustRegister(collectors.NewGoCollector())
	reg.MustRegister(collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}))
	appMetrics := metrics.NewMetrics(reg)

	// Create elevation provider using factory pattern based on configuration
	providerConfig := elevation.ProviderConfig{
		Type:          elevation.ProviderType(cfg.Provider.Type),
		Host:          cfg.Provider.Host,
		Port:          cfg.Provider.Port,
		Timeout:       cfg.Provider.Timeout,
		Attempts:      cfg.Provider.Attempts,
		RetryInterval: cfg.Provider.RetryInterval,
		APIKey:        cfg.Provider.APIKey,
		RateLimit:     cfg.Provider.RateLimit,
		Stride:        cfg.Provider.Stride,
		Logger:        logger,
		Metrics:       appMetrics,
	}

	provider, err := elevation.NewProvider(providerConfig)
	if err != nil {
		logger.ErrorContext(ctx, "Failed to create elevation provider", "error", err)
		return 1
	}

	logger.InfoContext(ctx, "Elevation provider initialized", "type", cfg.Provider.Type)

	enricher := enrichment.NewEnricher(logger, provider, appMetrics, enrichment.Options{
		ProviderName: cfg.Provider.Type,
		Stride:       cfg.Provider.Stride,
	})

	if cfg.FileMode() {
		if err = enrichFile(ctx, enricher, cfg.Input, cfg.Output); err != nil {
			logger.ErrorContext(ctx, "Failed to enrich trace", "input", cfg.Input, "error", err)
			return 1
		}
		logger.InfoContext(ctx, "Trace enriched", "input", cfg.Input, "output", cfg.Output)
		return 0
	}

	// Initialize the database connection.
	dtb, err := repository.NewDatabase(
		ctx, cfg.Database.Host, cfg.Database.Port, cfg.Database.User, cfg.Database.Password, cfg.Database.Name,
	)
	if err != nil {
		logger.ErrorContext(ctx, "Failed to connect to DB", "error", err)
		return 1
	}
	defer dtb.Close()

	// Create a new repository instance using the database connection.
	repo := repository.NewRepository(dtb, logger)

	enrichService := service.NewEnrichmentService(logger, repo, enricher, appMetrics, service.Options{
		Workers:      cfg.Service.Workers,
		PollInterval: cfg.Service.Interval,
		AssetLimit:   cfg.Service.AssetLimit,
		MaxAttempts:  cfg.Service.MaxAttempts,
	})

	// Log that the application has started.
	logger.InfoContext(ctx, "Application started. Press Ctrl+C to stop.")

	// Start the monitoring server in a goroutine to allow main to listen for signals.
	go startMonitoringServer(ctx, logger, reg, dtb, provider, cfg.Monitoring.Port)

	go enrichService.Run(ctx)

	// Wait for the context to be canceled (e.g., by Ctrl+C).
	<-ctx.Done()

	// Log that a shutdown signal has been received.
	logger.InfoContext(ctx, "Shutdown signal received. Stopping application...")

	// Log graceful shutdown completion.
	logger.InfoContext(ctx, "Application stopped gracefully.")

	return 0
}

// enrichFile enriches the CSV trace at input and writes it to output, or to stdout when output is empty.
func enrichFile(ctx context.Context, enricher *enrichment.Enricher, input, output string) error {
	src, err := os.Open(input)
	if err != nil {
		return fmt.Errorf("failed to open input: %w", err)
	}
	defer src.Close()

	table, err := tableio.Read(src)
	if err != nil {
		return fmt.Errorf("failed to read input: %w", err)
	}

	if err = enricher.AppendSlopeFeatures(ctx, table); err != nil {
		return err
	}

	var dst io.Writer = os.Stdout
	if output != "" {
		file, errCreate := os.Create(output)
		if errCreate != nil {
			return fmt.Errorf("failed to create output: %w", errCreate)
		}
		defer file.Close()
		dst = file
	}

	return tableio.Write(dst, table)
}

// startMonitoringServer starts an HTTP server that provides health check and metrics endpoints.
// It listens on the specified port and logs the server's status and any errors encountered.
//
// Parameters:
// - ctx: A context.Context for managing cancellation and timeouts.
// - log: A logger for logging server events and errors.
// - reg: A registry with Prometheus collectors.
// - dtb: A pgxpool connector for database methods (ping)
// - provider: The elevation provider, checked when it reports its health.
// - port: The port number on which the server will listen.
func startMonitoringServer(
	ctx context.Context,
	log *slog.Logger,
	reg *prometheus.Registry,
	dtb *pgxpool.Pool,
	provider elevation.Provider,
	port int,
) {
	mux := http.NewServeMux()
	mux.Handle("/healthz", otelhttp.NewHandler(http.HandlerFunc(func(writer http.ResponseWriter, req *http.Request) {
		log.DebugContext(ctx, "Performing health checks...")
		status, body := http.StatusOK, "OK"
		if err := dtb.Ping(req.Context()); err != nil {
			status, body = http.StatusServiceUnavailable, "DB ping failed"
		} else if checker, ok := provider.(elevation.HealthChecker); ok {
			if err = checker.Health(req.Context()); err != nil {
				status, body = http.StatusServiceUnavailable, "Elevation provider unavailable"
			}
		}
		writer.WriteHeader(status)
		_, err := writer.Write([]byte(body))
		if err != nil {
			log.ErrorContext(ctx, "failed to write reply", "error", err)
		}

		log.DebugContext(ctx, "Health checks completed", "status", status)
	}), "healthz"))
	mux.Handle("/metrics", promhttp.HandlerFor(reg, promhttp.HandlerOpts{}))

	log.InfoContext(ctx, "Starting monitoring server", "port", port)
	readTimeout := 5
	writeTimeout := 10
	server := &http.Server{
		Addr:         fmt.Sprintf(":%d", port),
		Handler:      mux,
		ReadTimeout:  time.Duration(readTimeout) * time.Second,
		WriteTimeout: time.Duration(writeTimeout) * time.Second,
	}
	if err := server.ListenAndServe(); err != nil {
		log.ErrorContext(ctx, "Monitoring server failed", "error", err)
	}
}

// setupLogger initializes and returns a logger based on the environment provided.
func setupLogger(env string) *slog.Logger {
	var log *slog.Logger

	switch env {
	case envLocal:
		log = slog.New(
			slog.NewTextHandler(os.Stdout, &slog.HandlerOptions{
				Level:     slog.LevelDebug,
				AddSource: true,
				ReplaceAttr: func(_ []string, a slog.Attr) slog.Attr {
					return a
				},
			}),
		)
	case envDev:
		log = slog.New(
			slog.NewJSONHandler(os.Stdout, &slog.HandlerOptions{
				Level:     slog.LevelInfo,
				AddSource: false,
				ReplaceAttr: func(_ []string, a slog.Attr) slog.Attr {
					return a
				},
			}),
		)
	case envProd:
		log = slog.New(
			slog.NewJSONHandler(os.Stdout, &slog.HandlerOptions{
				Level:     slog.LevelWarn,
				AddSource: false,
				ReplaceAttr: func(_ []string, a slog.Attr) slog.Attr {
					if a.Key == slog.TimeKey {
						return slog.Attr{}
					}
					return a
				},
			}),
		)
	default:
		log = slog.New(
			slog.NewJSONHandler(os.Stdout, &slog.HandlerOptions{
				Level:     slog.LevelError,
				AddSource: false,
				ReplaceAttr: func(_ []string, a slog.Attr) slog.Attr {
					if a.Key == slog.TimeKey {
						return slog.Attr{}
					}
					return a
				},
			}),
		)

		log.Error(
			"The env parameter was not specified or was invalid. Logging will be minimal, by default.",
			slog.String("available_envs", "local, development, production"))
	}

	return log
}
