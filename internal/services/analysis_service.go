package services

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"

	"coverage-platform/internal/models"
	"coverage-platform/internal/pipeline"
	"coverage-platform/internal/repository"
	"coverage-platform/pkg/logging"
	"coverage-platform/pkg/metrics"
)

// AnalysisService runs the coverage pipeline over normalized records and
// manages run bookkeeping and persistence
type AnalysisService struct {
	pipeline *pipeline.Pipeline
	repo     repository.CoverageRepository
	logger   *logging.StructuredLogger
	metrics  *metrics.Collector
}

// AnalysisOutcome bundles one run's identity with its full pipeline result
type AnalysisOutcome struct {
	Run        *models.AnalysisRun
	Result     *pipeline.Result
	MetricRows []*models.PincodeMetricRow
}

// NewAnalysisService creates a new analysis service. The repository may be
// nil when persistence is disabled.
func NewAnalysisService(p *pipeline.Pipeline, repo repository.CoverageRepository, logger *logging.StructuredLogger, metricsCollector *metrics.Collector) *AnalysisService {
	return &AnalysisService{
		pipeline: p,
		repo:     repo,
		logger:   logger,
		metrics:  metricsCollector,
	}
}

// Analyze executes the full pipeline and stamps the outcome with a run ID
// and dataset version
func (s *AnalysisService) Analyze(ctx context.Context, records []*models.RawRecord, datasetVersion string) (*AnalysisOutcome, error) {
	runID := uuid.New().String()
	startedAt := time.Now().UTC()
	ctx = context.WithValue(ctx, "run_id", runID)

	s.logger.Info(ctx, "[ANALYSIS_START] Starting analysis run", logging.Fields{
		"run_id":          runID,
		"dataset_version": datasetVersion,
		"record_count":    len(records),
	})

	result, err := s.pipeline.Run(ctx, records)
	if err != nil {
		return nil, fmt.Errorf("analysis run %s failed: %w", runID, err)
	}

	run := &models.AnalysisRun{
		RunID:          runID,
		DatasetVersion: datasetVersion,
		RecordCount:    len(records),
		PincodeCount:   len(result.Aggregates),
		DistrictCount:  len(result.Baselines),
		DesertCount:    result.DesertCount(),
		ValidationJSON: result.ValidationJSON(),
		StartedAt:      startedAt,
		FinishedAt:     time.Now().UTC(),
	}

	s.metrics.PipelineRunsTotal.Inc()
	s.metrics.ServiceDesertsGauge.Set(float64(run.DesertCount))
	for _, report := range result.Validation {
		if report.Failed() {
			s.metrics.RecordValidationFailure(report.Domain)
		}
	}

	s.logger.Info(ctx, "[ANALYSIS_COMPLETE] Analysis run completed", logging.Fields{
		"run_id":           runID,
		"pincodes":         run.PincodeCount,
		"districts":        run.DistrictCount,
		"service_deserts":  run.DesertCount,
		"duration_seconds": run.FinishedAt.Sub(run.StartedAt).Seconds(),
	})

	return &AnalysisOutcome{
		Run:        run,
		Result:     result,
		MetricRows: pipeline.MetricRows(result, runID),
	}, nil
}

// Persist stores one outcome: the run record plus full snapshot replacement
// of metrics, baselines, and the priority ranking
func (s *AnalysisService) Persist(ctx context.Context, outcome *AnalysisOutcome) error {
	if s.repo == nil {
		return fmt.Errorf("persistence is not configured")
	}

	runID := outcome.Run.RunID

	if err := s.repo.CreateAnalysisRun(ctx, outcome.Run); err != nil {
		return fmt.Errorf("failed to persist run %s: %w", runID, err)
	}
	if err := s.repo.ReplacePincodeMetrics(ctx, outcome.MetricRows); err != nil {
		return fmt.Errorf("failed to persist pincode metrics for run %s: %w", runID, err)
	}
	if err := s.repo.ReplaceDistrictBaselines(ctx, runID, outcome.Result.Baselines); err != nil {
		return fmt.Errorf("failed to persist district baselines for run %s: %w", runID, err)
	}
	if err := s.repo.ReplacePolicyPriorities(ctx, runID, outcome.Result.Priorities); err != nil {
		return fmt.Errorf("failed to persist policy priorities for run %s: %w", runID, err)
	}

	s.logger.Info(ctx, "[ANALYSIS_PERSIST] Run snapshot persisted", logging.Fields{
		"run_id":         runID,
		"pincode_rows":   len(outcome.MetricRows),
		"district_rows":  len(outcome.Result.Baselines),
		"priority_rows":  len(outcome.Result.Priorities),
	})

	return nil
}
