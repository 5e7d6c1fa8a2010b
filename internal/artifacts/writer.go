package artifacts

import (
	"context"
	"encoding/csv"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"strconv"

	"coverage-platform/internal/analysis"
	"coverage-platform/internal/config"
	"coverage-platform/internal/models"
	"coverage-platform/internal/pipeline"
	"coverage-platform/internal/services"
	"coverage-platform/pkg/logging"
)

// Writer renders one analysis outcome into the on-disk artifact set:
// per-domain CSVs, validation reports, the policy recommendation files, and
// the rural/urban comparison JSON.
type Writer struct {
	outputDir  string
	thresholds config.Thresholds
	logger     *logging.StructuredLogger
}

// NewWriter creates an artifact writer rooted at outputDir
func NewWriter(outputDir string, th config.Thresholds, logger *logging.StructuredLogger) *Writer {
	return &Writer{
		outputDir:  outputDir,
		thresholds: th,
		logger:     logger,
	}
}

// WriteAll renders the complete artifact set and returns the written paths
func (w *Writer) WriteAll(ctx context.Context, outcome *services.AnalysisOutcome) ([]string, error) {
	if err := os.MkdirAll(w.outputDir, 0o755); err != nil {
		return nil, fmt.Errorf("failed to create output directory: %w", err)
	}

	result := outcome.Result
	written := make([]string, 0, 10)

	writers := []struct {
		name string
		fn   func(string) error
	}{
		{"pincode_metrics.csv", func(p string) error { return w.writeMetricRows(p, outcome.MetricRows) }},
		{"district_baselines.csv", func(p string) error { return w.writeBaselines(p, result.Baselines) }},
		{"service_deserts.csv", func(p string) error { return w.writeDeserts(p, result.Deserts) }},
		{"capacity_mismatch.csv", func(p string) error { return w.writeMismatch(p, result.Mismatches) }},
		{"service_consistency.csv", func(p string) error { return w.writeConsistency(p, result.Consistency) }},
		{"temporal_trends.csv", func(p string) error { return w.writeTemporal(p, result.Temporal) }},
		{"policy_recommendations.csv", func(p string) error { return w.writePriorities(p, result.Priorities) }},
		{"priority_bucket_summary.csv", func(p string) error { return w.writeBucketSummary(p, result.Priorities) }},
		{"district_summary.csv", func(p string) error { return w.writeDistrictSummaries(p, result) }},
		{"state_summary.csv", func(p string) error { return w.writeStateSummaries(p, result) }},
		{"rate_outliers.csv", func(p string) error { return w.writeOutliers(p, result.Aggregates) }},
		{"demand_diversity.csv", func(p string) error { return w.writeDemandProfiles(p, result.Aggregates) }},
		{"demand_behavior_stats.json", func(p string) error { return w.writeDemandComparison(p, result.Aggregates) }},
		{"desert_sensitivity.csv", func(p string) error { return w.writeSensitivity(p, result) }},
		{"validation_report.csv", func(p string) error { return w.writeValidation(p, result.Validation) }},
		{"rural_urban_comparison_stats.json", func(p string) error { return w.writeRuralUrban(p, result.Aggregates) }},
	}

	for _, artifact := range writers {
		path := filepath.Join(w.outputDir, artifact.name)
		if err := artifact.fn(path); err != nil {
			return written, fmt.Errorf("failed to write %s: %w", artifact.name, err)
		}
		written = append(written, path)
	}

	w.logger.Info(ctx, "[ARTIFACTS_COMPLETE] Artifact set written", logging.Fields{
		"output_dir": w.outputDir,
		"file_count": len(written),
		"run_id":     outcome.Run.RunID,
	})

	return written, nil
}

func (w *Writer) writeCSV(path string, header []string, rows [][]string) error {
	file, err := os.Create(path)
	if err != nil {
		return err
	}
	defer file.Close()

	cw := csv.NewWriter(file)
	if err := cw.Write(header); err != nil {
		return err
	}
	for _, row := range rows {
		if err := cw.Write(row); err != nil {
			return err
		}
	}
	cw.Flush()
	return cw.Error()
}

func (w *Writer) writeMetricRows(path string, rows []*models.PincodeMetricRow) error {
	header := []string{
		"pincode", "district", "state", "population", "urban_flag",
		"total_activity", "activity_per_100k", "imputation_source",
		"is_service_desert", "severity_score", "mismatch_type",
		"consistency_score", "consistency_tier", "stress_signal",
		"months_observed", "trend_class", "recent_pct_change", "temporal_volatility",
	}

	out := make([][]string, len(rows))
	for i, r := range rows {
		out[i] = []string{
			r.Pincode, r.District, r.State,
			formatFloat(r.Population), string(r.UrbanFlag),
			formatFloat(r.TotalActivity), formatFloat(r.ActivityPer100k),
			string(r.ImputationSource),
			strconv.FormatBool(r.IsDesert), formatFloat(r.SeverityScore),
			string(r.MismatchType),
			formatFloat(r.ConsistencyScore), string(r.ConsistencyTier),
			strconv.FormatBool(r.StressSignal),
			strconv.Itoa(r.MonthsObserved), string(r.TrendClass),
			formatOptional(r.RecentPctChange), formatOptional(r.TemporalVolatility),
		}
	}
	return w.writeCSV(path, header, out)
}

func (w *Writer) writeBaselines(path string, baselines []*models.DistrictBaseline) error {
	header := []string{
		"district", "state", "population", "total_activity",
		"activity_per_100k", "median_pincode_population", "pincode_count",
	}

	out := make([][]string, len(baselines))
	for i, b := range baselines {
		out[i] = []string{
			b.District, b.State,
			formatFloat(b.Population), formatFloat(b.TotalActivity),
			formatFloat(b.ActivityPer100k), formatFloat(b.MedianPincodePopulation),
			strconv.Itoa(b.PincodeCount),
		}
	}
	return w.writeCSV(path, header, out)
}

func (w *Writer) writeDeserts(path string, records []*models.ServiceDesertRecord) error {
	header := []string{
		"pincode", "district", "state", "population", "urban_flag",
		"activity_per_100k", "district_activity_per_100k",
		"is_service_desert", "severity_score", "relative_gap_pct",
		"priority_score", "priority_rank",
	}

	out := make([][]string, len(records))
	for i, r := range records {
		out[i] = []string{
			r.Pincode, r.District, r.State,
			formatFloat(r.Population), string(r.UrbanFlag),
			formatFloat(r.ActivityPer100k), formatFloat(r.DistrictActivityPer100k),
			strconv.FormatBool(r.IsDesert), formatFloat(r.SeverityScore),
			formatFloat(r.RelativeGapPct), formatFloat(r.PriorityScore),
			strconv.Itoa(r.PriorityRank),
		}
	}
	return w.writeCSV(path, header, out)
}

func (w *Writer) writeMismatch(path string, records []*models.CapacityMismatchRecord) error {
	header := []string{"pincode", "utilization_percentile", "mismatch_type", "mismatch_magnitude"}

	out := make([][]string, len(records))
	for i, r := range records {
		out[i] = []string{
			r.Pincode,
			formatFloat(r.UtilizationPercentile),
			string(r.MismatchType),
			formatFloat(r.MismatchMagnitude),
		}
	}
	return w.writeCSV(path, header, out)
}

func (w *Writer) writeConsistency(path string, records []*models.ConsistencyRecord) error {
	header := []string{
		"pincode", "relative_deviation", "consistency_score",
		"consistency_tier", "below_district_median", "stress_signal",
	}

	out := make([][]string, len(records))
	for i, r := range records {
		out[i] = []string{
			r.Pincode,
			formatFloat(r.RelativeDeviation), formatFloat(r.ConsistencyScore),
			string(r.ConsistencyTier),
			strconv.FormatBool(r.BelowDistrictMedian), strconv.FormatBool(r.StressSignal),
		}
	}
	return w.writeCSV(path, header, out)
}

func (w *Writer) writeTemporal(path string, records []*models.TemporalRecord) error {
	header := []string{
		"pincode", "months_observed", "has_sufficient_coverage",
		"trend_class", "recent_pct_change", "temporal_volatility",
	}

	out := make([][]string, len(records))
	for i, r := range records {
		out[i] = []string{
			r.Pincode,
			strconv.Itoa(r.MonthsObserved), strconv.FormatBool(r.HasSufficientCoverage),
			string(r.TrendClass),
			formatOptional(r.RecentPctChange), formatOptional(r.TemporalVolatility),
		}
	}
	return w.writeCSV(path, header, out)
}

func (w *Writer) writePriorities(path string, records []*models.PolicyPriorityRecord) error {
	header := []string{
		"priority_rank", "pincode", "district", "state", "population",
		"is_service_desert", "stress_signal", "mismatch_type",
		"composite_priority", "intervention_type",
		"recommended_mobile_units", "estimated_field_staff",
	}

	out := make([][]string, len(records))
	for i, r := range records {
		out[i] = []string{
			strconv.Itoa(r.PriorityRank), r.Pincode, r.District, r.State,
			formatFloat(r.Population),
			strconv.FormatBool(r.IsDesert), strconv.FormatBool(r.StressSignal),
			string(r.MismatchType),
			formatFloat(r.CompositePriority), string(r.InterventionType),
			strconv.Itoa(r.RecommendedMobileUnits), strconv.Itoa(r.EstimatedFieldStaff),
		}
	}
	return w.writeCSV(path, header, out)
}

func (w *Writer) writeBucketSummary(path string, priorities []*models.PolicyPriorityRecord) error {
	buckets := config.PriorityBuckets()
	counts := make([]int, len(buckets)+1)
	for _, p := range priorities {
		placed := false
		for i, b := range buckets {
			if p.PriorityRank <= b.MaxRank {
				counts[i]++
				placed = true
				break
			}
		}
		if !placed {
			counts[len(buckets)]++
		}
	}

	header := []string{"bucket", "max_rank", "description", "pincode_count"}
	out := make([][]string, 0, len(buckets)+1)
	for i, b := range buckets {
		out = append(out, []string{b.Name, strconv.Itoa(b.MaxRank), b.Description, strconv.Itoa(counts[i])})
	}
	out = append(out, []string{"monitor", "", "Routine monitoring", strconv.Itoa(counts[len(buckets)])})
	return w.writeCSV(path, header, out)
}

func (w *Writer) writeDistrictSummaries(path string, result *pipeline.Result) error {
	header := []string{
		"district", "state", "pincode_count", "rural_pincodes", "total_population",
		"desert_count", "desert_ratio_rural", "affected_population", "mean_severity",
		"mean_consistency", "stress_ratio", "low_activity_count", "high_activity_count",
		"mismatch_index", "temporal_coverage_ratio",
	}

	summaries := analysis.SummarizeDistricts(result)
	out := make([][]string, len(summaries))
	for i, s := range summaries {
		out[i] = []string{
			s.District, s.State,
			strconv.Itoa(s.PincodeCount), strconv.Itoa(s.RuralPincodes),
			formatFloat(s.TotalPopulation),
			strconv.Itoa(s.DesertCount), formatFloat(s.DesertRatioRural),
			formatFloat(s.AffectedPopulation), formatFloat(s.MeanSeverity),
			formatFloat(s.MeanConsistency), formatFloat(s.StressRatio),
			strconv.Itoa(s.LowActivityCount), strconv.Itoa(s.HighActivityCount),
			formatFloat(s.MismatchIndex), formatFloat(s.SufficientCoverage),
		}
	}
	return w.writeCSV(path, header, out)
}

func (w *Writer) writeStateSummaries(path string, result *pipeline.Result) error {
	header := []string{
		"state", "district_count", "pincode_count", "total_population",
		"desert_count", "affected_population", "stress_ratio",
	}

	states := analysis.SummarizeStates(analysis.SummarizeDistricts(result))
	out := make([][]string, len(states))
	for i, s := range states {
		out[i] = []string{
			s.State,
			strconv.Itoa(s.DistrictCount), strconv.Itoa(s.PincodeCount),
			formatFloat(s.TotalPopulation),
			strconv.Itoa(s.DesertCount), formatFloat(s.AffectedPopulation),
			formatFloat(s.StressRatio),
		}
	}
	return w.writeCSV(path, header, out)
}

func (w *Writer) writeOutliers(path string, aggs []*models.PincodeAggregate) error {
	header := []string{"pincode", "district", "activity_per_100k", "reasons"}

	outliers := analysis.DetectRateOutliers(aggs)
	out := make([][]string, len(outliers))
	for i, o := range outliers {
		reasons := ""
		for j, r := range o.Reasons {
			if j > 0 {
				reasons += "|"
			}
			reasons += string(r)
		}
		out[i] = []string{o.Pincode, o.District, formatFloat(o.ActivityPer100k), reasons}
	}
	return w.writeCSV(path, header, out)
}

func (w *Writer) writeDemandProfiles(path string, aggs []*models.PincodeAggregate) error {
	header := []string{
		"pincode", "district", "urban_flag",
		"bio_share", "demo_share", "enroll_share",
		"diversity_score", "dominant_service",
	}

	profiles := analysis.ProfileDemand(aggs)
	out := make([][]string, len(profiles))
	for i, p := range profiles {
		out[i] = []string{
			p.Pincode, p.District, string(p.UrbanFlag),
			formatFloat(p.BioShare), formatFloat(p.DemoShare), formatFloat(p.EnrollShare),
			formatFloat(p.DiversityScore), p.DominantService,
		}
	}
	return w.writeCSV(path, header, out)
}

func (w *Writer) writeDemandComparison(path string, aggs []*models.PincodeAggregate) error {
	comparison := analysis.CompareDemand(analysis.ProfileDemand(aggs))

	file, err := os.Create(path)
	if err != nil {
		return err
	}
	defer file.Close()

	enc := json.NewEncoder(file)
	enc.SetIndent("", "  ")
	return enc.Encode(comparison)
}

func (w *Writer) writeSensitivity(path string, result *pipeline.Result) error {
	header := []string{"baseline_factor", "desert_count", "affected_population"}

	rows := analysis.DesertSensitivity(result.Aggregates, result.BaselineIndex, w.thresholds)
	out := make([][]string, len(rows))
	for i, r := range rows {
		out[i] = []string{
			formatFloat(r.BaselineFactor),
			strconv.Itoa(r.DesertCount),
			formatFloat(r.AffectedPopulation),
		}
	}
	return w.writeCSV(path, header, out)
}

func (w *Writer) writeValidation(path string, reports []models.ValidationReport) error {
	header := []string{"domain", "check_name", "result", "details"}

	var out [][]string
	for _, report := range reports {
		for _, c := range report.Checks {
			out = append(out, []string{report.Domain, c.CheckName, c.Result, c.Details})
		}
	}
	return w.writeCSV(path, header, out)
}

func (w *Writer) writeRuralUrban(path string, aggs []*models.PincodeAggregate) error {
	comparison := analysis.CompareRuralUrban(aggs)

	file, err := os.Create(path)
	if err != nil {
		return err
	}
	defer file.Close()

	enc := json.NewEncoder(file)
	enc.SetIndent("", "  ")
	return enc.Encode(comparison)
}

func formatFloat(v float64) string {
	return strconv.FormatFloat(v, 'f', -1, 64)
}

func formatOptional(v *float64) string {
	if v == nil {
		return ""
	}
	return formatFloat(*v)
}

// WriteTopPriorities writes the actionable recommendation set as its own file
func (w *Writer) WriteTopPriorities(ctx context.Context, priorities []*models.PolicyPriorityRecord, n int) (string, error) {
	if err := os.MkdirAll(w.outputDir, 0o755); err != nil {
		return "", fmt.Errorf("failed to create output directory: %w", err)
	}

	path := filepath.Join(w.outputDir, fmt.Sprintf("top_%d_priorities.csv", n))
	top := pipeline.TopPriorities(priorities, n)
	if err := w.writePriorities(path, top); err != nil {
		return "", fmt.Errorf("failed to write top priorities: %w", err)
	}
	return path, nil
}
