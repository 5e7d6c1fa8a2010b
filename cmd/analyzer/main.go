package main

import (
	"context"
	"flag"
	"fmt"
	"os"
	"strings"

	"coverage-platform/internal/analysis"
	"coverage-platform/internal/artifacts"
	"coverage-platform/internal/config"
	"coverage-platform/internal/pipeline"
	"coverage-platform/internal/repository"
	"coverage-platform/internal/services"
	"coverage-platform/pkg/database"
	"coverage-platform/pkg/logging"
	"coverage-platform/pkg/metrics"
)

func main() {
	// Parse command-line flags
	inputFile := flag.String("input", "./data/registry.csv", "Registry dataset CSV to analyze")
	outputDir := flag.String("output", "./output", "Directory for result artifacts")
	topN := flag.Int("top-n", 100, "Size of the actionable recommendation set")
	persist := flag.Bool("persist", false, "Persist the snapshot to PostgreSQL")
	charts := flag.Bool("charts", false, "Render diagnostic PNG charts")
	flag.Parse()

	// Load configuration
	cfg, err := config.LoadConfig()
	if err != nil {
		fmt.Fprintf(os.Stderr, "Failed to load configuration: %v\n", err)
		os.Exit(1)
	}

	// Initialize logger
	logLevel := logging.InfoLevel
	if cfg.Logging.Level == "debug" {
		logLevel = logging.DebugLevel
	}

	logger := logging.NewStructuredLogger("coverage-analyzer", "1.0.0", logLevel)

	ctx := context.Background()
	logger.Info(ctx, "[ANALYZER_START] Starting coverage analysis", logging.Fields{
		"version":    "1.0.0",
		"input_file": *inputFile,
		"output_dir": *outputDir,
		"top_n":      *topN,
		"persist":    *persist,
		"charts":     *charts,
	})

	// Initialize metrics collector
	metricsCollector := metrics.NewCollector("coverage_analyzer")

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
			logger.Fatal(ctx, "[ANALYZER_ERROR] Failed to connect to database", logging.Fields{}, err)
		}
		defer db.Close()

		coverageRepo = repository.NewCoverageRepository(db, logger, metricsCollector)
	}

	// Initialize services
	thresholds := config.DefaultThresholds()
	coveragePipeline := pipeline.New(thresholds, logger, metricsCollector)
	ingestionService := services.NewIngestionService(thresholds, logger, metricsCollector)
	analysisService := services.NewAnalysisService(coveragePipeline, coverageRepo, logger, metricsCollector)

	// Ingest the dataset
	ingestion, err := ingestionService.LoadFile(ctx, *inputFile)
	if err != nil {
		logger.Fatal(ctx, "[INGESTION_ERROR] Ingestion failed", logging.Fields{
			"input_file": *inputFile,
		}, err)
	}

	datasetVersion, err := services.DatasetVersion(*inputFile)
	if err != nil {
		logger.Fatal(ctx, "[ANALYZER_ERROR] Failed to version dataset", logging.Fields{}, err)
	}

	// Run the analysis pipeline
	outcome, err := analysisService.Analyze(ctx, ingestion.Records, datasetVersion)
	if err != nil {
		logger.Fatal(ctx, "[ANALYSIS_ERROR] Analysis failed", logging.Fields{}, err)
	}

	// Write artifacts
	writer := artifacts.NewWriter(*outputDir, thresholds, logger)
	written, err := writer.WriteAll(ctx, outcome)
	if err != nil {
		logger.Fatal(ctx, "[ARTIFACT_ERROR] Failed to write artifacts", logging.Fields{}, err)
	}

	topPath, err := writer.WriteTopPriorities(ctx, outcome.Result.Priorities, *topN)
	if err != nil {
		logger.Fatal(ctx, "[ARTIFACT_ERROR] Failed to write top priorities", logging.Fields{}, err)
	}
	written = append(written, topPath)

	// Render charts if requested
	if *charts {
		chartWriter := analysis.NewChartWriter(*outputDir, logger)
		chartPaths, err := chartWriter.RenderAll(ctx, outcome.Result)
		if err != nil {
			logger.Error(ctx, "[CHART_ERROR] Chart rendering failed", logging.Fields{}, err)
		} else {
			written = append(written, chartPaths...)
		}
	}

	// Persist if requested
	if *persist {
		if err := analysisService.Persist(ctx, outcome); err != nil {
			logger.Fatal(ctx, "[PERSIST_ERROR] Failed to persist snapshot", logging.Fields{}, err)
		}
	}

	// Print results
	run := outcome.Run
	fmt.Println(strings.Repeat("=", 80))
	fmt.Println("ANALYSIS COMPLETE")
	fmt.Println(strings.Repeat("=", 80))
	fmt.Printf("Run ID:             %s\n", run.RunID)
	fmt.Printf("Total Rows:         %d\n", ingestion.TotalRows)
	fmt.Printf("Valid Records:      %d\n", ingestion.SuccessfulRecords)
	fmt.Printf("Failed Records:     %d\n", ingestion.FailedRecords)
	fmt.Printf("Pincodes:           %d\n", run.PincodeCount)
	fmt.Printf("Districts:          %d\n", run.DistrictCount)
	fmt.Printf("Service Deserts:    %d\n", run.DesertCount)
	fmt.Printf("Imputed Population: %d\n", outcome.Result.Resolution.Imputed())
	fmt.Printf("Duration:           %v\n", run.FinishedAt.Sub(run.StartedAt))

	fmt.Println("\nValidation:")
	for _, report := range outcome.Result.Validation {
		status := "PASS"
		if report.Failed() {
			status = "FAIL"
		}
		fmt.Printf("  %-20s %s\n", report.Domain, status)
	}

	fmt.Printf("\nArtifacts (%d):\n", len(written))
	for _, path := range written {
		fmt.Printf("  - %s\n", path)
	}

	if len(ingestion.Errors) > 0 {
		fmt.Printf("\nIngestion Errors (%d):\n", len(ingestion.Errors))
		for i, errMsg := range ingestion.Errors {
			if i < 10 {
				fmt.Printf("  - %s\n", errMsg)
			}
		}
		if len(ingestion.Errors) > 10 {
			fmt.Printf("  ... and %d more errors\n", len(ingestion.Errors)-10)
		}
	}

	logger.Info(ctx, "[ANALYZER_COMPLETE] Analysis completed successfully", logging.Fields{
		"run_id":           run.RunID,
		"pincodes":         run.PincodeCount,
		"service_deserts":  run.DesertCount,
		"artifacts":        len(written),
		"duration_seconds": run.FinishedAt.Sub(run.StartedAt).Seconds(),
	})
}
