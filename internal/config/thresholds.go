package config

// Thresholds carries every classification rule the pipeline applies. The
// struct is constructed once and passed in at pipeline construction; nothing
// in the pipeline reads thresholds from ambient state, so the locked values
// are auditable and swappable only through this entry point.
type Thresholds struct {
	// Service desert predicate: rural AND activity rate below this fraction
	// of the district baseline AND population at or above the district
	// median. Locked at 0.5; never parameterized at runtime.
	DesertBaselineFactor float64

	// Minimum distinct observed months before any trend or volatility
	// metric is computed. Locked at 6.
	MinMonthsRequired int

	// National percentile cut points for capacity mismatch buckets.
	LowActivityPercentile  float64
	HighActivityPercentile float64

	// Consistency scoring: relative deviations are capped at this global
	// quantile before normalizing to [0,1].
	ConsistencyCapQuantile float64
	InconsistentTierMax    float64
	ModerateTierMax        float64
	StressScoreMax         float64

	// Composite priority weights.
	DesertWeight            float64
	StressWeight            float64
	MismatchWeight          float64
	PopulationFactorDivisor float64

	// Trend classification: monthly change beyond ±TrendChangePct becomes
	// growth/decline, anything inside stays stable.
	TrendChangePct float64

	// Recommendation set size and illustrative resource estimates.
	TopN                         int
	PermanentCenterMinPopulation float64
	MobileUnitCoverage           float64
	FieldStaffPerUnit            int

	// Urban-share fraction at or above which a record is urban.
	UrbanShareThreshold float64
}

// DefaultThresholds returns the locked operational definitions.
func DefaultThresholds() Thresholds {
	return Thresholds{
		DesertBaselineFactor:         0.5,
		MinMonthsRequired:            6,
		LowActivityPercentile:        0.25,
		HighActivityPercentile:       0.75,
		ConsistencyCapQuantile:       0.95,
		InconsistentTierMax:          0.33,
		ModerateTierMax:              0.67,
		StressScoreMax:               0.5,
		DesertWeight:                 3,
		StressWeight:                 2,
		MismatchWeight:               1,
		PopulationFactorDivisor:      10,
		TrendChangePct:               10,
		TopN:                         100,
		PermanentCenterMinPopulation: 100000,
		MobileUnitCoverage:           50000,
		FieldStaffPerUnit:            3,
		UrbanShareThreshold:          0.5,
	}
}

// PriorityBucket defines a rank-based bucket for overview reporting.
type PriorityBucket struct {
	Name        string
	MaxRank     int
	Description string
}

// PriorityBuckets returns the rank buckets used by the overview metrics,
// ordered from most to least urgent. A rank falls into the first bucket
// whose MaxRank it does not exceed; ranks beyond the last threshold are
// "monitor".
func PriorityBuckets() []PriorityBucket {
	return []PriorityBucket{
		{Name: "critical", MaxRank: 100, Description: "Immediate intervention required"},
		{Name: "high", MaxRank: 400, Description: "Priority attention within 6 months"},
		{Name: "medium", MaxRank: 1500, Description: "Scheduled intervention 6-18 months"},
	}
}
