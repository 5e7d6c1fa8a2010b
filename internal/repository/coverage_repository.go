package repository

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	"coverage-platform/internal/models"
	"coverage-platform/pkg/database"
	"coverage-platform/pkg/logging"
	"coverage-platform/pkg/metrics"
)

// CoverageRepository provides data access for analysis results
type CoverageRepository interface {
	// Run operations
	CreateAnalysisRun(ctx context.Context, run *models.AnalysisRun) error
	GetLatestAnalysisRun(ctx context.Context) (*models.AnalysisRun, error)
	ListAnalysisRuns(ctx context.Context, limit, offset int) ([]*models.AnalysisRun, int, error)

	// Snapshot operations: each replaces the stored snapshot atomically
	ReplacePincodeMetrics(ctx context.Context, rows []*models.PincodeMetricRow) error
	ReplaceDistrictBaselines(ctx context.Context, runID string, baselines []*models.DistrictBaseline) error
	ReplacePolicyPriorities(ctx context.Context, runID string, priorities []*models.PolicyPriorityRecord) error

	// Query operations
	GetPincodeMetric(ctx context.Context, pincode string) (*models.PincodeMetricRow, error)
	SearchPincodesByDistrict(ctx context.Context, district string, limit int) ([]*models.PincodeMetricRow, error)
	ListPolicyPriorities(ctx context.Context, filter PriorityFilter) ([]*models.PolicyPriorityRecord, int, error)
	ListDistrictBaselines(ctx context.Context, limit, offset int) ([]*models.DistrictBaseline, int, error)
	CountPincodeMetrics(ctx context.Context) (int, error)

	// Utility operations
	HealthCheck(ctx context.Context) error
}

// PriorityFilter defines filters for querying policy priorities
type PriorityFilter struct {
	State            *string
	District         *string
	InterventionType *string
	DesertsOnly      bool
	Limit            int
	Offset           int
}

// coverageRepository implements CoverageRepository
type coverageRepository struct {
	db      *database.PostgresDB
	logger  *logging.StructuredLogger
	metrics *metrics.Collector
}

// NewCoverageRepository creates a new coverage repository
func NewCoverageRepository(db *database.PostgresDB, logger *logging.StructuredLogger, metricsCollector *metrics.Collector) CoverageRepository {
	return &coverageRepository{
		db:      db,
		logger:  logger,
		metrics: metricsCollector,
	}
}

// CreateAnalysisRun records a completed pipeline run
func (r *coverageRepository) CreateAnalysisRun(ctx context.Context, run *models.AnalysisRun) error {
	query := `
		INSERT INTO analysis_runs (
			run_id, dataset_version, record_count, pincode_count,
			district_count, desert_count, validation_json, started_at, finished_at
		)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9)
	`

	_, err := r.db.ExecContext(ctx, "insert_analysis_run", query,
		run.RunID,
		run.DatasetVersion,
		run.RecordCount,
		run.PincodeCount,
		run.DistrictCount,
		run.DesertCount,
		run.ValidationJSON,
		run.StartedAt,
		run.FinishedAt,
	)

	if err != nil {
		return fmt.Errorf("failed to create analysis run: %w", err)
	}

	r.logger.Debug(ctx, "[REPO_CREATE_RUN] Analysis run recorded", logging.Fields{
		"run_id":          run.RunID,
		"dataset_version": run.DatasetVersion,
	})

	return nil
}

// GetLatestAnalysisRun retrieves the most recently finished run
func (r *coverageRepository) GetLatestAnalysisRun(ctx context.Context) (*models.AnalysisRun, error) {
	query := `
		SELECT run_id, dataset_version, record_count, pincode_count,
		       district_count, desert_count, validation_json, started_at, finished_at
		FROM analysis_runs
		ORDER BY finished_at DESC
		LIMIT 1
	`

	var run models.AnalysisRun
	err := r.db.GetContext(ctx, "get_latest_run", &run, query)

	if err == sql.ErrNoRows {
		return nil, &NotFoundError{
			Resource: "analysis_run",
			ID:       "latest",
		}
	}

	if err != nil {
		return nil, fmt.Errorf("failed to get latest analysis run: %w", err)
	}

	return &run, nil
}

// ListAnalysisRuns retrieves past runs with pagination
func (r *coverageRepository) ListAnalysisRuns(ctx context.Context, limit, offset int) ([]*models.AnalysisRun, int, error) {
	var totalCount int
	err := r.db.GetContext(ctx, "count_runs", &totalCount, "SELECT COUNT(*) FROM analysis_runs")
	if err != nil {
		return nil, 0, fmt.Errorf("failed to count analysis runs: %w", err)
	}

	query := `
		SELECT run_id, dataset_version, record_count, pincode_count,
		       district_count, desert_count, validation_json, started_at, finished_at
		FROM analysis_runs
		ORDER BY finished_at DESC
		LIMIT $1 OFFSET $2
	`

	var runs []*models.AnalysisRun
	err = r.db.SelectContext(ctx, "list_runs", &runs, query, limit, offset)
	if err != nil {
		return nil, 0, fmt.Errorf("failed to list analysis runs: %w", err)
	}

	return runs, totalCount, nil
}

// ReplacePincodeMetrics swaps the stored pincode snapshot in one transaction
func (r *coverageRepository) ReplacePincodeMetrics(ctx context.Context, rows []*models.PincodeMetricRow) error {
	timer := time.Now()
	defer func() {
		duration := time.Since(timer)
		r.logger.Debug(ctx, "[REPO_REPLACE_METRICS] Pincode snapshot replaced", logging.Fields{
			"count":       len(rows),
			"duration_ms": duration.Milliseconds(),
		})
	}()

	tx, err := r.db.BeginTx(ctx)
	if err != nil {
		return fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer tx.Rollback()

	if _, err := tx.ExecContext(ctx, "DELETE FROM pincode_metrics"); err != nil {
		return fmt.Errorf("failed to clear pincode metrics: %w", err)
	}

	stmt, err := tx.PrepareContext(ctx, `
		INSERT INTO pincode_metrics (
			run_id, pincode, district, state, population, urban_flag,
			total_activity, activity_per_100k, imputation_source,
			district_activity_per_100k, is_service_desert, severity_score,
			relative_gap_pct, desert_priority_score, desert_priority_rank,
			utilization_percentile, mismatch_type, mismatch_magnitude,
			consistency_score, consistency_tier, stress_signal,
			months_observed, trend_class, recent_pct_change, temporal_volatility
		)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13,
		        $14, $15, $16, $17, $18, $19, $20, $21, $22, $23, $24, $25)
	`)
	if err != nil {
		return fmt.Errorf("failed to prepare statement: %w", err)
	}
	defer stmt.Close()

	for _, row := range rows {
		_, err := stmt.ExecContext(ctx,
			row.RunID,
			row.Pincode,
			row.District,
			row.State,
			row.Population,
			row.UrbanFlag,
			row.TotalActivity,
			row.ActivityPer100k,
			row.ImputationSource,
			row.DistrictActivityPer100k,
			row.IsDesert,
			row.SeverityScore,
			row.RelativeGapPct,
			row.DesertPriorityScore,
			row.DesertPriorityRank,
			row.UtilizationPercentile,
			row.MismatchType,
			row.MismatchMagnitude,
			row.ConsistencyScore,
			row.ConsistencyTier,
			row.StressSignal,
			row.MonthsObserved,
			row.TrendClass,
			row.RecentPctChange,
			row.TemporalVolatility,
		)
		if err != nil {
			return fmt.Errorf("failed to insert pincode metric %s: %w", row.Pincode, err)
		}
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("failed to commit transaction: %w", err)
	}

	return nil
}

// ReplaceDistrictBaselines swaps the stored district snapshot in one transaction
func (r *coverageRepository) ReplaceDistrictBaselines(ctx context.Context, runID string, baselines []*models.DistrictBaseline) error {
	tx, err := r.db.BeginTx(ctx)
	if err != nil {
		return fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer tx.Rollback()

	if _, err := tx.ExecContext(ctx, "DELETE FROM district_baselines"); err != nil {
		return fmt.Errorf("failed to clear district baselines: %w", err)
	}

	stmt, err := tx.PrepareContext(ctx, `
		INSERT INTO district_baselines (
			run_id, district, state, population, total_activity,
			bio_count, demo_count, enroll_count, activity_per_100k,
			median_pincode_population, pincode_count
		)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11)
	`)
	if err != nil {
		return fmt.Errorf("failed to prepare statement: %w", err)
	}
	defer stmt.Close()

	for _, b := range baselines {
		_, err := stmt.ExecContext(ctx,
			runID,
			b.District,
			b.State,
			b.Population,
			b.TotalActivity,
			b.BioCount,
			b.DemoCount,
			b.EnrollCount,
			b.ActivityPer100k,
			b.MedianPincodePopulation,
			b.PincodeCount,
		)
		if err != nil {
			return fmt.Errorf("failed to insert district baseline %s: %w", b.District, err)
		}
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("failed to commit transaction: %w", err)
	}

	return nil
}

// ReplacePolicyPriorities swaps the stored ranking in one transaction
func (r *coverageRepository) ReplacePolicyPriorities(ctx context.Context, runID string, priorities []*models.PolicyPriorityRecord) error {
	tx, err := r.db.BeginTx(ctx)
	if err != nil {
		return fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer tx.Rollback()

	if _, err := tx.ExecContext(ctx, "DELETE FROM policy_priorities"); err != nil {
		return fmt.Errorf("failed to clear policy priorities: %w", err)
	}

	stmt, err := tx.PrepareContext(ctx, `
		INSERT INTO policy_priorities (
			run_id, priority_rank, pincode, district, state, population,
			is_service_desert, stress_signal, mismatch_type, composite_priority,
			intervention_type, recommended_mobile_units, estimated_field_staff
		)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13)
	`)
	if err != nil {
		return fmt.Errorf("failed to prepare statement: %w", err)
	}
	defer stmt.Close()

	for _, p := range priorities {
		_, err := stmt.ExecContext(ctx,
			runID,
			p.PriorityRank,
			p.Pincode,
			p.District,
			p.State,
			p.Population,
			p.IsDesert,
			p.StressSignal,
			p.MismatchType,
			p.CompositePriority,
			p.InterventionType,
			p.RecommendedMobileUnits,
			p.EstimatedFieldStaff,
		)
		if err != nil {
			return fmt.Errorf("failed to insert policy priority %s: %w", p.Pincode, err)
		}
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("failed to commit transaction: %w", err)
	}

	return nil
}

const pincodeMetricColumns = `
	run_id, pincode, district, state, population, urban_flag,
	total_activity, activity_per_100k, imputation_source,
	district_activity_per_100k, is_service_desert, severity_score,
	relative_gap_pct, desert_priority_score, desert_priority_rank,
	utilization_percentile, mismatch_type, mismatch_magnitude,
	consistency_score, consistency_tier, stress_signal,
	months_observed, trend_class, recent_pct_change, temporal_volatility
`

// GetPincodeMetric retrieves the stored metrics for one pincode
func (r *coverageRepository) GetPincodeMetric(ctx context.Context, pincode string) (*models.PincodeMetricRow, error) {
	query := `
		SELECT ` + pincodeMetricColumns + `
		FROM pincode_metrics
		WHERE pincode = $1
	`

	var row models.PincodeMetricRow
	err := r.db.GetContext(ctx, "get_pincode_metric", &row, query, pincode)

	if err == sql.ErrNoRows {
		return nil, &NotFoundError{
			Resource: "pincode_metric",
			ID:       pincode,
		}
	}

	if err != nil {
		return nil, fmt.Errorf("failed to get pincode metric: %w", err)
	}

	return &row, nil
}

// SearchPincodesByDistrict retrieves stored metrics for a district, exact
// match first, then partial match when nothing matched exactly
func (r *coverageRepository) SearchPincodesByDistrict(ctx context.Context, district string, limit int) ([]*models.PincodeMetricRow, error) {
	query := `
		SELECT ` + pincodeMetricColumns + `
		FROM pincode_metrics
		WHERE LOWER(district) = LOWER($1)
		ORDER BY pincode
		LIMIT $2
	`

	var rows []*models.PincodeMetricRow
	err := r.db.SelectContext(ctx, "search_district_exact", &rows, query, district, limit)
	if err != nil {
		return nil, fmt.Errorf("failed to search pincodes: %w", err)
	}

	if len(rows) > 0 {
		return rows, nil
	}

	partialQuery := `
		SELECT ` + pincodeMetricColumns + `
		FROM pincode_metrics
		WHERE district ILIKE '%' || $1 || '%'
		ORDER BY pincode
		LIMIT $2
	`

	err = r.db.SelectContext(ctx, "search_district_partial", &rows, partialQuery, district, limit)
	if err != nil {
		return nil, fmt.Errorf("failed to search pincodes: %w", err)
	}

	return rows, nil
}

// ListPolicyPriorities retrieves the ranking with filtering and pagination
func (r *coverageRepository) ListPolicyPriorities(ctx context.Context, filter PriorityFilter) ([]*models.PolicyPriorityRecord, int, error) {
	query := `
		SELECT priority_rank, pincode, district, state, population,
		       is_service_desert, stress_signal, mismatch_type, composite_priority,
		       intervention_type, recommended_mobile_units, estimated_field_staff
		FROM policy_priorities
		WHERE 1=1
	`
	args := []interface{}{}
	argNum := 1

	if filter.State != nil {
		query += fmt.Sprintf(" AND LOWER(state) = LOWER($%d)", argNum)
		args = append(args, *filter.State)
		argNum++
	}

	if filter.District != nil {
		query += fmt.Sprintf(" AND LOWER(district) = LOWER($%d)", argNum)
		args = append(args, *filter.District)
		argNum++
	}

	if filter.InterventionType != nil {
		query += fmt.Sprintf(" AND intervention_type = $%d", argNum)
		args = append(args, *filter.InterventionType)
		argNum++
	}

	if filter.DesertsOnly {
		query += " AND is_service_desert"
	}

	countQuery := "SELECT COUNT(*) FROM (" + query + ") AS count_query"
	var totalCount int
	err := r.db.GetContext(ctx, "count_priorities", &totalCount, countQuery, args...)
	if err != nil {
		return nil, 0, fmt.Errorf("failed to count priorities: %w", err)
	}

	query += " ORDER BY priority_rank"
	query += fmt.Sprintf(" LIMIT $%d OFFSET $%d", argNum, argNum+1)
	args = append(args, filter.Limit, filter.Offset)

	var priorities []*models.PolicyPriorityRecord
	err = r.db.SelectContext(ctx, "list_priorities", &priorities, query, args...)
	if err != nil {
		return nil, 0, fmt.Errorf("failed to list priorities: %w", err)
	}

	return priorities, totalCount, nil
}

// ListDistrictBaselines retrieves stored baselines with pagination
func (r *coverageRepository) ListDistrictBaselines(ctx context.Context, limit, offset int) ([]*models.DistrictBaseline, int, error) {
	var totalCount int
	err := r.db.GetContext(ctx, "count_baselines", &totalCount, "SELECT COUNT(*) FROM district_baselines")
	if err != nil {
		return nil, 0, fmt.Errorf("failed to count baselines: %w", err)
	}

	query := `
		SELECT district, state, population, total_activity,
		       bio_count, demo_count, enroll_count, activity_per_100k,
		       median_pincode_population, pincode_count
		FROM district_baselines
		ORDER BY district
		LIMIT $1 OFFSET $2
	`

	var baselines []*models.DistrictBaseline
	err = r.db.SelectContext(ctx, "list_baselines", &baselines, query, limit, offset)
	if err != nil {
		return nil, 0, fmt.Errorf("failed to list baselines: %w", err)
	}

	return baselines, totalCount, nil
}

// CountPincodeMetrics returns the size of the stored snapshot
func (r *coverageRepository) CountPincodeMetrics(ctx context.Context) (int, error) {
	var count int
	err := r.db.GetContext(ctx, "count_pincode_metrics", &count, "SELECT COUNT(*) FROM pincode_metrics")
	if err != nil {
		return 0, fmt.Errorf("failed to count pincode metrics: %w", err)
	}
	return count, nil
}

// HealthCheck performs a repository health check
func (r *coverageRepository) HealthCheck(ctx context.Context) error {
	return r.db.HealthCheck(ctx)
}

// NotFoundError represents a resource not found error
type NotFoundError struct {
	Resource string
	ID       string
}

func (e *NotFoundError) Error() string {
	return fmt.Sprintf("%s not found: %s", e.Resource, e.ID)
}

func (e *NotFoundError) IsTransient() bool {
	return false
}
