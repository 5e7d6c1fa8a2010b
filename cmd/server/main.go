package main

import (
	"context"
	"flag"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/gorilla/mux"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"coverage-platform/internal/config"
	"coverage-platform/internal/handlers"
	"coverage-platform/internal/pipeline"
	"coverage-platform/internal/repository"
	"coverage-platform/internal/services"
	"coverage-platform/pkg/database"
	"coverage-platform/pkg/logging"
	"coverage-platform/pkg/metrics"
)

func main() {
	inputFile := flag.String("input", "./data/registry.csv", "Registry dataset to analyze at startup")
	persist := flag.Bool("persist", false, "Persist the analysis snapshot to PostgreSQL")
	flag.Parse()

	// Load configuration
	cfg, err := config.LoadConfig()
	if err != nil {
		fmt.Fprintf(os.Stderr, "Failed to load configuration: %v\n", err)
		os.Exit(1)
	}

	if err := cfg.Validate(); err != nil {
		fmt.Fprintf(os.Stderr, "Invalid configuration: %v\n", err)
		os.Exit(1)
	}

	// Initialize logger
	logLevel := logging.InfoLevel
	if cfg.Logging.Level == "debug" {
		logLevel = logging.DebugLevel
	}

	logger := logging.NewStructuredLogger("coverage-api", "1.0.0", logLevel)

	ctx := context.Background()
	logger.Info(ctx, "[STARTUP] Starting coverage platform API server", logging.Fields{
		"version":     "1.0.0",
		"server_host": cfg.Server.Host,
		"server_port": cfg.Server.Port,
		"input_file":  *inputFile,
		"persist":     *persist,
	})

	// Initialize metrics collector
	metricsCollector := metrics.NewCollector("coverage_platform")

	// Persistence is optional; query traffic is served from the in-memory
	// snapshot either way.
	var coverageRepo repository.CoverageRepository
	if *persist {
		dbConfig := &database.Config{
			Host:            cfg.Database.Host,
			Port:            cfg.Database.Port,
			User:            cfg.Database.User,
			Password:        cfg.Database.Password,
			Database:        cfg.Database.Database,
			SSLMode:         cfg.Database.SSLMode,
			MaxOpenConns:    cfg.Database.MaxOpenConns,
			MaxIdleConns:    cfg.Database.MaxIdleConns,
			ConnMaxLifetime: cfg.Database.ConnMaxLifetime,
			ConnMaxIdleTime: cfg.Database.ConnMaxIdleTime,
		}

		db, err := database.NewPostgresDB(dbConfig, logger, metricsCollector)
		if err != nil {
			logger.Fatal(ctx, "[STARTUP_ERROR] Failed to connect to database", logging.Fields{}, err)
		}
		defer db.Close()

		coverageRepo = repository.NewCoverageRepository(db, logger, metricsCollector)
	}

	// Initialize services
	thresholds := config.DefaultThresholds()
	coveragePipeline := pipeline.New(thresholds, logger, metricsCollector)
	ingestionService := services.NewIngestionService(thresholds, logger, metricsCollector)
	analysisService := services.NewAnalysisService(coveragePipeline, coverageRepo, logger, metricsCollector)
	coverageService := services.NewCoverageService(logger, metricsCollector)

	// Run the analysis once at startup so the API serves from a snapshot.
	ingestion, err := ingestionService.LoadFile(ctx, *inputFile)
	if err != nil {
		logger.Fatal(ctx, "[STARTUP_ERROR] Failed to load dataset", logging.Fields{
			"input_file": *inputFile,
		}, err)
	}

	datasetVersion, err := services.DatasetVersion(*inputFile)
	if err != nil {
		logger.Fatal(ctx, "[STARTUP_ERROR] Failed to version dataset", logging.Fields{}, err)
	}

	outcome, err := analysisService.Analyze(ctx, ingestion.Records, datasetVersion)
	if err != nil {
		logger.Fatal(ctx, "[STARTUP_ERROR] Analysis failed", logging.Fields{}, err)
	}
	coverageService.SetSnapshot(ctx, outcome)

	if *persist {
		if err := analysisService.Persist(ctx, outcome); err != nil {
			logger.Fatal(ctx, "[STARTUP_ERROR] Failed to persist snapshot", logging.Fields{}, err)
		}
	}

	// Initialize handlers
	coverageHandler := handlers.NewCoverageHandler(coverageService, logger, metricsCollector)

	// Setup router
	router := mux.NewRouter()

	// Register routes
	coverageHandler.RegisterRoutes(router)

	// API documentation
	router.HandleFunc("/api/docs/openapi.json", handlers.OpenAPISpec).Methods("GET")
	router.HandleFunc("/api/docs", handlers.SwaggerUI).Methods("GET")

	// Prometheus metrics endpoint
	router.Handle("/metrics", promhttp.Handler())

	// Create HTTP server
	server := &http.Server{
		Addr:         fmt.Sprintf("%s:%d", cfg.Server.Host, cfg.Server.Port),
		Handler:      router,
		ReadTimeout:  cfg.Server.ReadTimeout,
		WriteTimeout: cfg.Server.WriteTimeout,
		IdleTimeout:  cfg.Server.IdleTimeout,
	}

	// Start server in goroutine
	go func() {
		logger.Info(ctx, "[SERVER_START] HTTP server listening", logging.Fields{
			"address": server.Addr,
		})

		if err := server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			logger.Fatal(ctx, "[SERVER_ERROR] Server failed", logging.Fields{}, err)
		}
	}()

	// Wait for interrupt signal
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	logger.Info(ctx, "[SHUTDOWN] Shutting down server...", logging.Fields{})

	// Graceful shutdown with timeout
	shutdownCtx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	if err := server.Shutdown(shutdownCtx); err != nil {
		logger.Error(ctx, "[SHUTDOWN_ERROR] Server forced to shutdown", logging.Fields{}, err)
	}

	logger.Info(ctx, "[SHUTDOWN_COMPLETE] Server stopped", logging.Fields{})
}
