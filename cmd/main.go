package main

import (
	"context"
	"fmt"
	"io"
	"log"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"path/filepath"
	"syscall"
	"time"

	"github.com/SilinPolicyAdvisor/Lead-gen/internal/config"
	"github.com/SilinPolicyAdvisor/Lead-gen/internal/dedup"
	"github.com/SilinPolicyAdvisor/Lead-gen/internal/geocoding"
	"github.com/SilinPolicyAdvisor/Lead-gen/internal/metrics"
	"github.com/SilinPolicyAdvisor/Lead-gen/internal/places"
	"github.com/SilinPolicyAdvisor/Lead-gen/internal/service"
	"github.com/SilinPolicyAdvisor/Lead-gen/internal/storage"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"gopkg.in/natefinch/lumberjack.v2"
)

// Constants for different environment types.
const (
	envLocal = "local"
	envDev   = "development"
	envProd  = "production"
)

// geocodeRateLimit caps geocoding requests per second; the places budget is
// governed separately by the rolling-window limiter.
const geocodeRateLimit = 10

// pinger is the slice of the database pool the health check needs.
type pinger interface {
	Ping(ctx context.Context) error
}

// main is the entry point of the application.
func main() {
	// Create a context that will be canceled when an interrupt signal is received.
	// This allows for graceful shutdown between locations.
	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	// Load application configuration.
	cfg := config.MustLoad()
	if err := cfg.Validate(); err != nil {
		log.Fatalf("Invalid configuration: %v", err)
	}

	// Set up the logger based on the environment, optionally mirrored into a
	// rotating log file.
	logger := setupLogger(cfg.Env, cfg.Output.LogFile)

	// Create a separate registry for metrics with exemplar
	reg := prometheus.NewRegistry()
	reg.MustRegister(collectors.NewGoCollector())
	reg.MustRegister(collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}))
	appMetrics := metrics.NewMetrics(reg)

	// Select the storage backend. The postgres pool doubles as the health
	// check target when it is in play.
	store, dbPinger, err := buildStorage(ctx, cfg, logger)
	if err != nil {
		log.Fatalf("Failed to initialize storage: %v", err)
	}

	// Rehydrate the deduplicator from everything persisted by earlier runs,
	// so a restarted scrape never re-emits a business it already collected.
	snapshot, err := store.Load(ctx)
	if err != nil {
		log.Fatalf("Failed to load existing records: %v", err)
	}
	deduper := dedup.New(snapshot)
	logger.InfoContext(ctx, "Deduplicator rehydrated", "known_records", len(snapshot))

	// The shared rate limiter throttles all places API traffic of the run.
	limiter := places.NewRateLimiter(
		cfg.RateLimit.MaxPerMinute, cfg.RateLimit.MinDelay, cfg.RateLimit.MaxDelay, logger,
	)
	placesClient := places.NewClient(cfg.APIKey, logger)
	engine := places.NewSearchEngine(placesClient, limiter, cfg.Search.MaxResultsPerPoint, logger)
	enricher := places.NewEnricher(placesClient, limiter, logger)

	// Create the geocoding provider chain: the configured primary with a free
	// Nominatim fallback for locations the primary cannot resolve.
	geocoder, err := buildGeocoder(cfg, logger)
	if err != nil {
		log.Fatalf("Failed to create geocoding provider: %v", err)
	}
	logger.InfoContext(ctx, "Geocoding provider initialized", "type", cfg.GeoProvider)

	svc := service.NewLeadService(logger, geocoder, engine, enricher, deduper, store, appMetrics,
		service.Options{
			QueryTemplate:     cfg.Run.QueryTemplate,
			StartLocation:     cfg.Run.StartLocation,
			Count:             cfg.Run.Count,
			Detailed:          cfg.Run.Detailed,
			Parallel:          cfg.Run.Parallel,
			Workers:           cfg.Run.Workers,
			FlushEvery:        cfg.Run.FlushEvery,
			DefaultRadius:     cfg.Search.DefaultRadius,
			ResultCap:         cfg.Search.ResultCap,
			LargeAreaCap:      cfg.Search.LargeAreaCap,
			ForceLargeArea:    cfg.Search.ForceLargeArea,
			LargeAreaKeywords: cfg.Search.LargeAreaKeywords,
		})

	// Log that the application has started.
	logger.InfoContext(ctx, "Application started. Press Ctrl+C to stop.")

	// Start the monitoring server in a goroutine to allow main to listen for signals.
	go startMonitoringServer(ctx, logger, reg, dbPinger, cfg.HealthPort)

	// Surface run progress as it happens.
	go func() {
		for event := range svc.Events() {
			logger.InfoContext(ctx, "Run progress",
				"run_id", event.RunID,
				"location", event.Location,
				"done", event.Done,
				"total", event.Total,
				"accepted", event.Accepted,
			)
		}
	}()

	stats, err := svc.Run(ctx)
	if err != nil {
		logger.ErrorContext(ctx, "Scraping run failed", "error", err)
		os.Exit(1)
	}

	logger.InfoContext(ctx, "Dataset summary",
		"total_records", stats.TotalRecords,
		"unique_places", stats.UniquePlaces,
		"unique_names", stats.UniqueNames,
		"with_phone", stats.HasPhone,
		"with_website", stats.HasWebsite,
		"with_rating", stats.HasRating,
		"avg_rating", fmt.Sprintf("%.2f", stats.AvgRating),
		"types", len(stats.TypeCounts),
	)

	// Log graceful shutdown completion.
	logger.InfoContext(ctx, "Application stopped gracefully.")
}

// buildStorage creates the configured storage backend. For postgres it also
// returns the pool so the health endpoint can ping it.
func buildStorage(ctx context.Context, cfg *config.Config, logger *slog.Logger) (storage.Interface, pinger, error) {
	if cfg.Storage == "postgres" {
		dtb, err := storage.NewDatabase(
			ctx, cfg.Database.Host, cfg.Database.Port, cfg.Database.User, cfg.Database.Password, cfg.Database.Name,
		)
		if err != nil {
			return nil, nil, fmt.Errorf("failed to connect to DB: %w", err)
		}

		pgStore := storage.NewPostgresStore(dtb, logger)
		if err = pgStore.EnsureSchema(ctx); err != nil {
			return nil, nil, err
		}
		return pgStore, dtb, nil
	}

	if err := os.MkdirAll(cfg.Output.Dir, 0o755); err != nil {
		return nil, nil, fmt.Errorf("failed to create output directory: %w", err)
	}
	csvPath := filepath.Join(cfg.Output.Dir, cfg.Output.CSVName)
	xlsxPath := ""
	if cfg.Output.XLSXName != "" {
		xlsxPath = filepath.Join(cfg.Output.Dir, cfg.Output.XLSXName)
	}
	return storage.NewCSVStore(csvPath, xlsxPath, logger), nil, nil
}

// buildGeocoder assembles the provider chain from the configuration. When the
// primary already is Nominatim no fallback is added.
func buildGeocoder(cfg *config.Config, logger *slog.Logger) (geocoding.Provider, error) {
	primary, err := geocoding.NewProvider(geocoding.ProviderConfig{
		Type:      geocoding.ProviderType(cfg.GeoProvider),
		APIKey:    cfg.APIKey,
		RateLimit: geocodeRateLimit,
		Logger:    logger,
	})
	if err != nil {
		return nil, err
	}

	if geocoding.ProviderType(cfg.GeoProvider) == geocoding.ProviderTypeNominatim {
		return primary, nil
	}

	fallback, err := geocoding.NewProvider(geocoding.ProviderConfig{
		Type:   geocoding.ProviderTypeNominatim,
		Logger: logger,
	})
	if err != nil {
		return nil, err
	}
	return geocoding.NewChainProvider(logger, primary, fallback), nil
}

// startMonitoringServer starts an HTTP server that provides health check and metrics endpoints.
// It listens on the specified port and logs the server's status and any errors encountered.
//
// Parameters:
// - ctx: A context.Context for managing cancellation and timeouts.
// - log: A logger for logging server events and errors.
// - reg: A registry with Prometheus collectors.
// - dtb: An optional database pinger; nil when the CSV backend is in play.
// - port: The port number on which the server will listen.
func startMonitoringServer(
	ctx context.Context,
	log *slog.Logger,
	reg *prometheus.Registry,
	dtb pinger,
	port int,
) {
	http.HandleFunc("/healthz", func(writer http.ResponseWriter, _ *http.Request) {
		log.DebugContext(ctx, "Performing health checks...")
		status, body := http.StatusOK, "OK"
		if dtb != nil {
			if err := dtb.Ping(ctx); err != nil {
				status, body = http.StatusServiceUnavailable, "DB ping failed"
			}
		}
		writer.WriteHeader(status)
		_, err := writer.Write([]byte(body))
		if err != nil {
			log.ErrorContext(ctx, "failed to write reply", "error", err)
		}

		log.DebugContext(ctx, "Health checks completed", "status", status)
	})
	http.Handle("/metrics", promhttp.HandlerFor(reg, promhttp.HandlerOpts{}))

	log.InfoContext(ctx, "Starting monitoring server", "port", port)
	readTimeout := 5
	writeTimeout := 10
	server := &http.Server{
		Addr:         fmt.Sprintf(":%d", port),
		Handler:      http.DefaultServeMux,
		ReadTimeout:  time.Duration(readTimeout) * time.Second,
		WriteTimeout: time.Duration(writeTimeout) * time.Second,
	}
	if err := server.ListenAndServe(); err != nil {
		log.ErrorContext(ctx, "Monitoring server failed", "error", err)
	}
}

// setupLogger initializes and returns a logger based on the environment
// provided. When logFile is set, output is mirrored into a size-rotated file.
func setupLogger(env, logFile string) *slog.Logger {
	var out io.Writer = os.Stdout
	if logFile != "" {
		out = io.MultiWriter(os.Stdout, &lumberjack.Logger{
			Filename:   logFile,
			MaxSize:    10, // megabytes
			MaxBackups: 3,
			MaxAge:     28, // days
			Compress:   true,
		})
	}

	var log *slog.Logger

	switch env {
	case envLocal:
		log = slog.New(
			slog.NewTextHandler(out, &slog.HandlerOptions{
				Level:     slog.LevelDebug,
				AddSource: true,
				ReplaceAttr: func(_ []string, a slog.Attr) slog.Attr {
					return a
				},
			}),
		)
	case envDev:
		log = slog.New(
			slog.NewJSONHandler(out, &slog.HandlerOptions{
				Level:     slog.LevelInfo,
				AddSource: false,
				ReplaceAttr: func(_ []string, a slog.Attr) slog.Attr {
					return a
				},
			}),
		)
	case envProd:
		log = slog.New(
			slog.NewJSONHandler(out, &slog.HandlerOptions{
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
			slog.NewJSONHandler(out, &slog.HandlerOptions{
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
