package models

import (
	"time"
)

// UrbanFlag classifies a pincode as urban, rural, or unknown.
type UrbanFlag string

const (
	UrbanFlagUrban   UrbanFlag = "urban"
	UrbanFlagRural   UrbanFlag = "rural"
	UrbanFlagUnknown UrbanFlag = "unknown"
)

// ImputationSource records where a resolved population value came from.
type ImputationSource string

const (
	ImputationOriginal       ImputationSource = "original"
	ImputationDistrictMedian ImputationSource = "district_median"
	ImputationStateMedian    ImputationSource = "state_median"
	ImputationGlobalMedian   ImputationSource = "global_median"
)

// MismatchType buckets a pincode by its national activity percentile.
type MismatchType string

const (
	MismatchLowActivity  MismatchType = "low_activity"
	MismatchHighActivity MismatchType = "high_activity"
	MismatchBalanced     MismatchType = "balanced"
)

// ConsistencyTier is a descriptive classification of consistency scores.
type ConsistencyTier string

const (
	TierInconsistentPattern ConsistencyTier = "inconsistent_pattern"
	TierModerateConsistency ConsistencyTier = "moderate_consistency"
	TierHighConsistency     ConsistencyTier = "high_consistency"
)

// TrendClass labels the direction of a pincode's monthly activity series.
type TrendClass string

const (
	TrendGrowth           TrendClass = "growth"
	TrendStable           TrendClass = "stable"
	TrendDecline          TrendClass = "decline"
	TrendInsufficientData TrendClass = "insufficient_data"
)

// InterventionType is the recommended action for a priority pincode.
type InterventionType string

const (
	InterventionPermanentCenter   InterventionType = "permanent_center"
	InterventionCapacityExpansion InterventionType = "capacity_expansion"
	InterventionMobileEnrollment  InterventionType = "mobile_enrollment"
)

// RawRecord is one normalized row of source data. Immutable after
// normalization; the aggregator only reads it.
type RawRecord struct {
	Pincode       string
	PincodeFlagged bool // code did not parse as digits; retained as-is
	District      string
	State         string
	Population    float64
	HasPopulation bool // a population-bearing field was present and parseable
	UrbanFlag     UrbanFlag
	BioCount      float64
	DemoCount     float64
	EnrollCount   float64
	Year          int // 0 when the source carries no temporal fields
	Month         int
}

// TotalActivity is the sum of the three activity counters.
func (r *RawRecord) TotalActivity() float64 {
	return r.BioCount + r.DemoCount + r.EnrollCount
}

// PincodeAggregate is one row per unique pincode after grouping.
// Population is resolved (always > 0) once the resolver has run.
type PincodeAggregate struct {
	Pincode          string           `json:"pincode" db:"pincode"`
	District         string           `json:"district" db:"district"`
	State            string           `json:"state" db:"state"`
	Population       float64          `json:"population" db:"population"`
	UrbanFlag        UrbanFlag        `json:"urban_flag" db:"urban_flag"`
	BioCount         float64          `json:"bio_count" db:"bio_count"`
	DemoCount        float64          `json:"demo_count" db:"demo_count"`
	EnrollCount      float64          `json:"enroll_count" db:"enroll_count"`
	TotalActivity    float64          `json:"total_activity" db:"total_activity"`
	ActivityPer100k  float64          `json:"activity_per_100k" db:"activity_per_100k"`
	HasRawPopulation bool             `json:"-" db:"has_raw_population"`
	ImputationSource ImputationSource `json:"imputation_source" db:"imputation_source"`

	// Conflicting categorical values discarded by the first_observed policy.
	DistrictConflicts int `json:"district_conflicts,omitempty" db:"district_conflicts"`
	StateConflicts    int `json:"state_conflicts,omitempty" db:"state_conflicts"`
}

// DistrictBaseline is the per-district comparison baseline. Derived fresh
// each run from the current pincode aggregates, never persisted as
// authoritative state.
type DistrictBaseline struct {
	District          string  `json:"district" db:"district"`
	State             string  `json:"state" db:"state"`
	Population        float64 `json:"population" db:"population"`
	TotalActivity     float64 `json:"total_activity" db:"total_activity"`
	BioCount          float64 `json:"bio_count" db:"bio_count"`
	DemoCount         float64 `json:"demo_count" db:"demo_count"`
	EnrollCount       float64 `json:"enroll_count" db:"enroll_count"`
	ActivityPer100k   float64 `json:"activity_per_100k" db:"activity_per_100k"`
	MedianPincodePopulation float64 `json:"district_median_population" db:"median_pincode_population"`
	PincodeCount      int     `json:"pincode_count" db:"pincode_count"`
}

// ServiceDesertRecord extends a pincode aggregate with the locked desert
// classification. PriorityRank is a dense rank among deserts only; 0 means
// not a desert.
type ServiceDesertRecord struct {
	Pincode                 string  `json:"pincode" db:"pincode"`
	District                string  `json:"district" db:"district"`
	State                   string  `json:"state" db:"state"`
	Population              float64 `json:"population" db:"population"`
	UrbanFlag               UrbanFlag `json:"urban_flag" db:"urban_flag"`
	TotalActivity           float64 `json:"total_activity" db:"total_activity"`
	ActivityPer100k         float64 `json:"activity_per_100k" db:"activity_per_100k"`
	DistrictActivityPer100k float64 `json:"district_activity_per_100k" db:"district_activity_per_100k"`
	IsDesert                bool    `json:"is_service_desert" db:"is_service_desert"`
	SeverityScore           float64 `json:"severity_score" db:"severity_score"`
	RelativeGapPct          float64 `json:"relative_gap_pct" db:"relative_gap_pct"`
	PriorityScore           float64 `json:"priority_score" db:"priority_score"`
	PriorityRank            int     `json:"priority_rank" db:"priority_rank"`
}

// CapacityMismatchRecord classifies a pincode against the national
// activity-rate distribution.
type CapacityMismatchRecord struct {
	Pincode               string       `json:"pincode" db:"pincode"`
	UtilizationPercentile float64      `json:"utilization_percentile" db:"utilization_percentile"`
	MismatchType          MismatchType `json:"mismatch_type" db:"mismatch_type"`
	MismatchMagnitude     float64      `json:"mismatch_magnitude" db:"mismatch_magnitude"`
}

// ConsistencyRecord measures how far a pincode deviates from its district's
// typical activity pattern, normalized into [0,1].
type ConsistencyRecord struct {
	Pincode             string          `json:"pincode" db:"pincode"`
	RelativeDeviation   float64         `json:"relative_deviation" db:"relative_deviation"`
	ConsistencyScore    float64         `json:"consistency_score" db:"consistency_score"`
	ConsistencyTier     ConsistencyTier `json:"consistency_tier" db:"consistency_tier"`
	BelowDistrictMedian bool            `json:"below_district_median" db:"below_district_median"`
	StressSignal        bool            `json:"stress_signal" db:"stress_signal"`
}

// TemporalRecord carries trend metrics gated on minimum monthly coverage.
// RecentPctChange and TemporalVolatility are nil whenever coverage is
// insufficient; they are never estimated.
type TemporalRecord struct {
	Pincode               string     `json:"pincode" db:"pincode"`
	MonthsObserved        int        `json:"months_observed" db:"months_observed"`
	HasSufficientCoverage bool       `json:"has_sufficient_coverage" db:"has_sufficient_coverage"`
	TrendClass            TrendClass `json:"trend_class" db:"trend_class"`
	RecentPctChange       *float64   `json:"recent_pct_change,omitempty" db:"recent_pct_change"`
	TemporalVolatility    *float64   `json:"temporal_volatility,omitempty" db:"temporal_volatility"`
}

// PolicyPriorityRecord is the terminal entity: one globally ranked row per
// pincode with the public schema consumed by the presentation layer.
type PolicyPriorityRecord struct {
	PriorityRank           int              `json:"priority_rank" db:"priority_rank"`
	Pincode                string           `json:"pincode" db:"pincode"`
	District               string           `json:"district" db:"district"`
	State                  string           `json:"state" db:"state"`
	Population             float64          `json:"population" db:"population"`
	IsDesert               bool             `json:"is_service_desert" db:"is_service_desert"`
	StressSignal           bool             `json:"stress_signal" db:"stress_signal"`
	MismatchType           MismatchType     `json:"mismatch_type" db:"mismatch_type"`
	CompositePriority      float64          `json:"composite_priority" db:"composite_priority"`
	InterventionType       InterventionType `json:"intervention_type" db:"intervention_type"`
	RecommendedMobileUnits int              `json:"recommended_mobile_units" db:"recommended_mobile_units"`
	EstimatedFieldStaff    int              `json:"estimated_field_staff" db:"estimated_field_staff"`
}

// PincodeMetricRow is the persisted per-pincode view: the aggregate joined
// with every classifier's output for one analysis run. Nullable trend fields
// stay nil below the temporal coverage gate.
type PincodeMetricRow struct {
	RunID                   string           `json:"-" db:"run_id"`
	Pincode                 string           `json:"pincode" db:"pincode"`
	District                string           `json:"district" db:"district"`
	State                   string           `json:"state" db:"state"`
	Population              float64          `json:"population" db:"population"`
	UrbanFlag               UrbanFlag        `json:"urban_flag" db:"urban_flag"`
	TotalActivity           float64          `json:"total_activity" db:"total_activity"`
	ActivityPer100k         float64          `json:"activity_per_100k" db:"activity_per_100k"`
	ImputationSource        ImputationSource `json:"imputation_source" db:"imputation_source"`
	DistrictActivityPer100k float64          `json:"district_activity_per_100k" db:"district_activity_per_100k"`
	IsDesert                bool             `json:"is_service_desert" db:"is_service_desert"`
	SeverityScore           float64          `json:"severity_score" db:"severity_score"`
	RelativeGapPct          float64          `json:"relative_gap_pct" db:"relative_gap_pct"`
	DesertPriorityScore     float64          `json:"desert_priority_score" db:"desert_priority_score"`
	DesertPriorityRank      int              `json:"desert_priority_rank" db:"desert_priority_rank"`
	UtilizationPercentile   float64          `json:"utilization_percentile" db:"utilization_percentile"`
	MismatchType            MismatchType     `json:"mismatch_type" db:"mismatch_type"`
	MismatchMagnitude       float64          `json:"mismatch_magnitude" db:"mismatch_magnitude"`
	ConsistencyScore        float64          `json:"consistency_score" db:"consistency_score"`
	ConsistencyTier         ConsistencyTier  `json:"consistency_tier" db:"consistency_tier"`
	StressSignal            bool             `json:"stress_signal" db:"stress_signal"`
	MonthsObserved          int              `json:"months_observed" db:"months_observed"`
	TrendClass              TrendClass       `json:"trend_class" db:"trend_class"`
	RecentPctChange         *float64         `json:"recent_pct_change,omitempty" db:"recent_pct_change"`
	TemporalVolatility      *float64         `json:"temporal_volatility,omitempty" db:"temporal_volatility"`
}

// ValidationCheck is one PASS/FAIL entry in a domain validation report.
type ValidationCheck struct {
	CheckName string `json:"check_name" db:"check_name"`
	Result    string `json:"result" db:"result"` // PASS or FAIL
	Details   string `json:"details" db:"details"`
}

// ValidationReport groups checks for one pipeline domain.
type ValidationReport struct {
	Domain string            `json:"domain"`
	Checks []ValidationCheck `json:"checks"`
}

// Failed reports whether any check in the report failed.
func (r *ValidationReport) Failed() bool {
	for _, c := range r.Checks {
		if c.Result == "FAIL" {
			return true
		}
	}
	return false
}

// AnalysisRun records one pipeline execution over a dataset version.
type AnalysisRun struct {
	RunID          string    `json:"run_id" db:"run_id"`
	DatasetVersion string    `json:"dataset_version" db:"dataset_version"`
	RecordCount    int       `json:"record_count" db:"record_count"`
	PincodeCount   int       `json:"pincode_count" db:"pincode_count"`
	DistrictCount  int       `json:"district_count" db:"district_count"`
	DesertCount    int       `json:"desert_count" db:"desert_count"`
	ValidationJSON string    `json:"-" db:"validation_json"`
	StartedAt      time.Time `json:"started_at" db:"started_at"`
	FinishedAt     time.Time `json:"finished_at" db:"finished_at"`
}
