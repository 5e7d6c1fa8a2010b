package pipeline

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"golang.org/x/sync/errgroup"

	"coverage-platform/internal/config"
	"coverage-platform/internal/models"
	"coverage-platform/pkg/logging"
	"coverage-platform/pkg/metrics"
)

// Pipeline runs the full aggregation-and-classification sequence over one
// normalized record set. Stages 1-4 are sequential; the four classifiers
// operate on the same read-only snapshot and fan out concurrently; the
// ranker joins their outputs.
type Pipeline struct {
	thresholds config.Thresholds
	logger     *logging.StructuredLogger
	metrics    *metrics.Collector
}

// Result is the complete output of one pipeline run.
type Result struct {
	Aggregates    []*models.PincodeAggregate
	Baselines     []*models.DistrictBaseline
	BaselineIndex map[string]*models.DistrictBaseline
	Deserts       []*models.ServiceDesertRecord
	Mismatches    []*models.CapacityMismatchRecord
	Consistency   []*models.ConsistencyRecord
	Temporal      []*models.TemporalRecord
	Priorities    []*models.PolicyPriorityRecord

	Resolution ResolutionStats
	Conflicts  ConflictSummary
	Joins      JoinStats
	Validation []models.ValidationReport
}

// DesertCount returns the number of flagged service deserts.
func (r *Result) DesertCount() int {
	n := 0
	for _, d := range r.Deserts {
		if d.IsDesert {
			n++
		}
	}
	return n
}

// ValidationJSON renders the validation reports for persistence.
func (r *Result) ValidationJSON() string {
	data, err := json.Marshal(r.Validation)
	if err != nil {
		return "[]"
	}
	return string(data)
}

// New creates a pipeline with an immutable threshold set.
func New(th config.Thresholds, logger *logging.StructuredLogger, metricsCollector *metrics.Collector) *Pipeline {
	return &Pipeline{
		thresholds: th,
		logger:     logger,
		metrics:    metricsCollector,
	}
}

// Thresholds returns the configured rule set.
func (p *Pipeline) Thresholds() config.Thresholds {
	return p.thresholds
}

// Run executes the full pipeline over normalized records. Structural errors
// (no valid population anywhere) abort; per-record anomalies are handled
// locally and reported through the result's diagnostics.
func (p *Pipeline) Run(ctx context.Context, records []*models.RawRecord) (*Result, error) {
	startTime := time.Now()
	result := &Result{}

	p.logger.Info(ctx, "[PIPELINE_START] Starting coverage analysis pipeline", logging.Fields{
		"record_count": len(records),
		"stage":        "INITIALIZATION",
	})

	// Stage 2: aggregate to pincode level.
	result.Aggregates = p.timed(ctx, "aggregate", func() []*models.PincodeAggregate {
		return AggregatePincodes(records)
	})
	result.Conflicts = SummarizeConflicts(result.Aggregates)
	if result.Conflicts.PincodesWithConflicts > 0 {
		p.logger.Warn(ctx, "[PIPELINE_CONFLICTS] first_observed policy discarded conflicting values", logging.Fields{
			"pincodes_with_conflicts": result.Conflicts.PincodesWithConflicts,
			"district_conflicts":      result.Conflicts.DistrictConflicts,
			"state_conflicts":         result.Conflicts.StateConflicts,
		})
	}

	// Stage 3: resolve populations through the median hierarchy.
	stageStart := time.Now()
	resolution, err := ResolvePopulations(result.Aggregates)
	if err != nil {
		return nil, fmt.Errorf("population resolution failed: %w", err)
	}
	result.Resolution = resolution
	p.observeStage("resolve_population", stageStart)
	p.logger.Info(ctx, "[PIPELINE_POPULATION] Population resolution complete", logging.Fields{
		"original":        resolution.Original,
		"district_median": resolution.DistrictMedian,
		"state_median":    resolution.StateMedian,
		"global_median":   resolution.GlobalMedian,
	})

	// Stage 4: district baselines.
	stageStart = time.Now()
	result.Baselines = ComputeDistrictBaselines(result.Aggregates)
	result.BaselineIndex = IndexBaselines(result.Baselines)
	p.observeStage("district_baselines", stageStart)

	// Stages 5-8: independent classifiers over the read-only snapshot.
	stageStart = time.Now()
	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		result.Deserts = ClassifyServiceDeserts(result.Aggregates, result.BaselineIndex, p.thresholds)
		return gctx.Err()
	})
	g.Go(func() error {
		result.Mismatches = ClassifyCapacityMismatch(result.Aggregates, p.thresholds)
		return gctx.Err()
	})
	g.Go(func() error {
		result.Consistency = ScoreConsistency(result.Aggregates, p.thresholds)
		return gctx.Err()
	})
	g.Go(func() error {
		result.Temporal = AnalyzeTemporal(records, result.Aggregates, p.thresholds)
		return gctx.Err()
	})
	if err := g.Wait(); err != nil {
		return nil, fmt.Errorf("classification stage failed: %w", err)
	}
	p.observeStage("classify", stageStart)

	// Stage 9: composite ranking.
	stageStart = time.Now()
	result.Priorities, result.Joins = RankPolicyPriorities(
		result.Deserts, result.Consistency, result.Mismatches, p.thresholds)
	p.observeStage("rank_priorities", stageStart)
	if result.Joins.MissingConsistency > 0 || result.Joins.MissingMismatch > 0 {
		p.logger.Warn(ctx, "[PIPELINE_JOIN] Pincodes missing from classifier outputs treated as zero weight", logging.Fields{
			"missing_consistency": result.Joins.MissingConsistency,
			"missing_mismatch":    result.Joins.MissingMismatch,
		})
	}

	// Validation pass.
	result.Validation = []models.ValidationReport{
		ValidateAggregates(result.Aggregates),
		ValidateDeserts(result.Deserts),
		ValidateMismatch(result.Mismatches),
		ValidateConsistency(result.Consistency),
		ValidateTemporal(result.Temporal, p.thresholds.MinMonthsRequired),
		ValidatePriorities(result.Priorities),
	}
	for _, report := range result.Validation {
		if report.Failed() {
			p.logger.Warn(ctx, "[PIPELINE_VALIDATION] Validation checks failed", logging.Fields{
				"domain": report.Domain,
			})
		}
	}

	p.logger.Info(ctx, "[PIPELINE_COMPLETE] Coverage analysis pipeline completed", logging.Fields{
		"pincodes":         len(result.Aggregates),
		"districts":        len(result.Baselines),
		"service_deserts":  result.DesertCount(),
		"duration_seconds": time.Since(startTime).Seconds(),
		"stage":            "COMPLETE",
	})

	return result, nil
}

func (p *Pipeline) timed(ctx context.Context, stage string, fn func() []*models.PincodeAggregate) []*models.PincodeAggregate {
	start := time.Now()
	out := fn()
	p.observeStage(stage, start)
	return out
}

func (p *Pipeline) observeStage(stage string, start time.Time) {
	if p.metrics != nil {
		p.metrics.PipelineStageDuration.WithLabelValues(stage).Observe(time.Since(start).Seconds())
	}
}
