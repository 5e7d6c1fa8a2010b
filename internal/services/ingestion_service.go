package services

import (
	"context"
	"encoding/csv"
	"fmt"
	"io"
	"os"
	"time"

	"coverage-platform/internal/config"
	"coverage-platform/internal/models"
	"coverage-platform/internal/pipeline"
	"coverage-platform/pkg/logging"
	"coverage-platform/pkg/metrics"
)

// IngestionService loads registry CSV exports and normalizes them into the
// canonical record schema
type IngestionService struct {
	thresholds config.Thresholds
	logger     *logging.StructuredLogger
	metrics    *metrics.Collector
}

// IngestionResult contains ingestion statistics
type IngestionResult struct {
	Records           []*models.RawRecord
	TotalRows         int
	SuccessfulRecords int
	FailedRecords     int
	FlaggedPincodes   int
	Duration          time.Duration
	Errors            []string
}

// NewIngestionService creates a new ingestion service
func NewIngestionService(th config.Thresholds, logger *logging.StructuredLogger, metricsCollector *metrics.Collector) *IngestionService {
	return &IngestionService{
		thresholds: th,
		logger:     logger,
		metrics:    metricsCollector,
	}
}

// LoadFile reads one CSV export, resolves its schema from the header row,
// and normalizes every data row. Schema-level failures (no usable population
// source) abort; row-level failures are counted and skipped.
func (s *IngestionService) LoadFile(ctx context.Context, filePath string) (*IngestionResult, error) {
	startTime := time.Now()

	s.logger.Info(ctx, "[INGEST_START] Starting dataset ingestion", logging.Fields{
		"file_path": filePath,
		"stage":     "INITIALIZATION",
	})

	file, err := os.Open(filePath)
	if err != nil {
		return nil, fmt.Errorf("failed to open dataset: %w", err)
	}
	defer file.Close()

	reader := csv.NewReader(file)
	reader.FieldsPerRecord = -1

	header, err := reader.Read()
	if err != nil {
		return nil, fmt.Errorf("failed to read header row: %w", err)
	}

	schema, err := pipeline.ResolveSchema(header, s.thresholds)
	if err != nil {
		s.metrics.RecordIngestionError("schema_error")
		return nil, fmt.Errorf("failed to resolve schema: %w", err)
	}

	s.logger.Info(ctx, "[INGEST_SCHEMA] Schema resolved from header", logging.Fields{
		"column_count": len(header),
		"stage":        "SCHEMA_RESOLUTION",
	})

	result := &IngestionResult{
		Errors: make([]string, 0),
	}

	for {
		row, err := reader.Read()
		if err == io.EOF {
			break
		}
		if err != nil {
			result.FailedRecords++
			s.metrics.RecordIngestionError("read_error")
			if len(result.Errors) < 20 {
				result.Errors = append(result.Errors, err.Error())
			}
			continue
		}

		result.TotalRows++
		record, err := schema.Normalize(row)
		if err != nil {
			result.FailedRecords++
			s.metrics.RecordIngestionError("validation_error")
			if len(result.Errors) < 20 {
				result.Errors = append(result.Errors, err.Error())
			}
			continue
		}

		if record.PincodeFlagged {
			result.FlaggedPincodes++
		}
		result.Records = append(result.Records, record)
		result.SuccessfulRecords++
	}

	if result.SuccessfulRecords == 0 {
		return nil, fmt.Errorf("no valid records in %s (%d rows failed)", filePath, result.FailedRecords)
	}

	result.Duration = time.Since(startTime)
	s.metrics.IngestionDuration.Observe(result.Duration.Seconds())
	s.metrics.IngestionRecordsTotal.Add(float64(result.SuccessfulRecords))

	s.logger.Info(ctx, "[INGEST_COMPLETE] Dataset ingestion completed", logging.Fields{
		"total_rows":         result.TotalRows,
		"successful_records": result.SuccessfulRecords,
		"failed_records":     result.FailedRecords,
		"flagged_pincodes":   result.FlaggedPincodes,
		"duration_seconds":   result.Duration.Seconds(),
		"stage":              "COMPLETE",
	})

	return result, nil
}

// DatasetVersion derives a stable version identifier for a dataset file from
// its path, size, and modification time. Cached snapshots are keyed by this
// value so a changed file never serves stale results.
func DatasetVersion(filePath string) (string, error) {
	info, err := os.Stat(filePath)
	if err != nil {
		return "", fmt.Errorf("failed to stat dataset: %w", err)
	}
	return fmt.Sprintf("%s:%d:%d", filePath, info.Size(), info.ModTime().Unix()), nil
}
