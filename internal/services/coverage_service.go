package services

import (
	"context"
	"fmt"
	"strings"
	"sync"

	gocache "github.com/patrickmn/go-cache"

	"coverage-platform/internal/analysis"
	"coverage-platform/internal/config"
	"coverage-platform/internal/models"
	"coverage-platform/internal/repository"
	"coverage-platform/pkg/logging"
	"coverage-platform/pkg/metrics"
)

// CoverageService serves query traffic from the in-memory snapshot of the
// latest analysis run. Snapshots are cached keyed by dataset version: a new
// version replaces the current pointer, so results are never served from a
// dataset other than the one they were computed on.
type CoverageService struct {
	cache   *gocache.Cache
	logger  *logging.StructuredLogger
	metrics *metrics.Collector

	mu             sync.RWMutex
	currentVersion string
}

// snapshot is one fully indexed analysis outcome
type snapshot struct {
	outcome    *AnalysisOutcome
	byPincode  map[string]*models.PincodeMetricRow
	byDistrict map[string][]*models.PincodeMetricRow
}

// OverviewStats is the aggregate view of the current snapshot
type OverviewStats struct {
	RunID              string             `json:"run_id"`
	DatasetVersion     string             `json:"dataset_version"`
	TotalPincodes      int                `json:"total_pincodes"`
	TotalDistricts     int                `json:"total_districts"`
	ServiceDeserts     int                `json:"service_deserts"`
	StressSignals      int                `json:"stress_signals"`
	TotalPopulation    float64            `json:"total_population"`
	UrbanPincodes      int                `json:"urban_pincodes"`
	RuralPincodes      int                `json:"rural_pincodes"`
	UnknownPincodes    int                `json:"unknown_pincodes"`
	ImputedPopulations int                `json:"imputed_populations"`
	PriorityBuckets    []PriorityBucketCount `json:"priority_buckets"`
	Interventions      map[string]int     `json:"interventions"`
}

// PriorityBucketCount is one rank bucket with its member count
type PriorityBucketCount struct {
	Name        string `json:"name"`
	MaxRank     int    `json:"max_rank,omitempty"`
	Description string `json:"description"`
	Count       int    `json:"count"`
}

// NewCoverageService creates a new coverage query service
func NewCoverageService(logger *logging.StructuredLogger, metricsCollector *metrics.Collector) *CoverageService {
	return &CoverageService{
		cache:   gocache.New(gocache.NoExpiration, gocache.NoExpiration),
		logger:  logger,
		metrics: metricsCollector,
	}
}

// SetSnapshot indexes an outcome and makes it the current snapshot
func (s *CoverageService) SetSnapshot(ctx context.Context, outcome *AnalysisOutcome) {
	snap := &snapshot{
		outcome:    outcome,
		byPincode:  make(map[string]*models.PincodeMetricRow, len(outcome.MetricRows)),
		byDistrict: make(map[string][]*models.PincodeMetricRow),
	}
	for _, row := range outcome.MetricRows {
		snap.byPincode[row.Pincode] = row
		key := strings.ToLower(row.District)
		snap.byDistrict[key] = append(snap.byDistrict[key], row)
	}

	s.cache.Set("snapshot:"+outcome.Run.DatasetVersion, snap, gocache.NoExpiration)

	s.mu.Lock()
	s.currentVersion = outcome.Run.DatasetVersion
	s.mu.Unlock()

	s.logger.Info(ctx, "[SNAPSHOT_SET] Snapshot installed", logging.Fields{
		"run_id":          outcome.Run.RunID,
		"dataset_version": outcome.Run.DatasetVersion,
		"pincodes":        len(snap.byPincode),
	})
}

// current returns the active snapshot
func (s *CoverageService) current() (*snapshot, error) {
	s.mu.RLock()
	version := s.currentVersion
	s.mu.RUnlock()

	if version == "" {
		s.metrics.RecordCacheMiss("snapshot")
		return nil, fmt.Errorf("no analysis snapshot loaded")
	}

	v, ok := s.cache.Get("snapshot:" + version)
	if !ok {
		s.metrics.RecordCacheMiss("snapshot")
		return nil, fmt.Errorf("snapshot for dataset version %q evicted", version)
	}
	s.metrics.RecordCacheHit("snapshot")
	return v.(*snapshot), nil
}

// HasSnapshot reports whether query traffic can be served
func (s *CoverageService) HasSnapshot() bool {
	_, err := s.current()
	return err == nil
}

// LookupPincode returns the stored metrics for one pincode
func (s *CoverageService) LookupPincode(ctx context.Context, pincode string) (*models.PincodeMetricRow, error) {
	snap, err := s.current()
	if err != nil {
		return nil, err
	}

	row, ok := snap.byPincode[strings.TrimSpace(pincode)]
	if !ok {
		return nil, &repository.NotFoundError{
			Resource: "pincode_metric",
			ID:       pincode,
		}
	}
	return row, nil
}

// SearchByDistrict returns metrics for a district, exact case-insensitive
// match first, then substring match when nothing matched exactly
func (s *CoverageService) SearchByDistrict(ctx context.Context, district string, limit int) ([]*models.PincodeMetricRow, error) {
	snap, err := s.current()
	if err != nil {
		return nil, err
	}

	if limit <= 0 {
		limit = 100
	}

	needle := strings.ToLower(strings.TrimSpace(district))
	if rows, ok := snap.byDistrict[needle]; ok {
		return capRows(rows, limit), nil
	}

	var matches []*models.PincodeMetricRow
	for key, rows := range snap.byDistrict {
		if strings.Contains(key, needle) {
			matches = append(matches, rows...)
		}
	}
	return capRows(matches, limit), nil
}

func capRows(rows []*models.PincodeMetricRow, limit int) []*models.PincodeMetricRow {
	if len(rows) > limit {
		return rows[:limit]
	}
	return rows
}

// Priorities returns the ranked recommendation set with filtering and
// pagination over the current snapshot
func (s *CoverageService) Priorities(ctx context.Context, filter repository.PriorityFilter) ([]*models.PolicyPriorityRecord, int, error) {
	snap, err := s.current()
	if err != nil {
		return nil, 0, err
	}

	var filtered []*models.PolicyPriorityRecord
	for _, p := range snap.outcome.Result.Priorities {
		if filter.State != nil && !strings.EqualFold(p.State, *filter.State) {
			continue
		}
		if filter.District != nil && !strings.EqualFold(p.District, *filter.District) {
			continue
		}
		if filter.InterventionType != nil && string(p.InterventionType) != *filter.InterventionType {
			continue
		}
		if filter.DesertsOnly && !p.IsDesert {
			continue
		}
		filtered = append(filtered, p)
	}

	total := len(filtered)
	if filter.Offset >= total {
		return nil, total, nil
	}
	end := filter.Offset + filter.Limit
	if filter.Limit <= 0 || end > total {
		end = total
	}
	return filtered[filter.Offset:end], total, nil
}

// DistrictBaselines returns the current run's district baselines
func (s *CoverageService) DistrictBaselines(ctx context.Context, limit, offset int) ([]*models.DistrictBaseline, int, error) {
	snap, err := s.current()
	if err != nil {
		return nil, 0, err
	}

	baselines := snap.outcome.Result.Baselines
	total := len(baselines)
	if offset >= total {
		return nil, total, nil
	}
	end := offset + limit
	if limit <= 0 || end > total {
		end = total
	}
	return baselines[offset:end], total, nil
}

// StateSummaries rolls the current snapshot up to one row per state
func (s *CoverageService) StateSummaries(ctx context.Context) ([]*analysis.StateSummary, error) {
	snap, err := s.current()
	if err != nil {
		return nil, err
	}
	districts := analysis.SummarizeDistricts(snap.outcome.Result)
	return analysis.SummarizeStates(districts), nil
}

// ValidationReports returns the current run's validation output
func (s *CoverageService) ValidationReports(ctx context.Context) ([]models.ValidationReport, error) {
	snap, err := s.current()
	if err != nil {
		return nil, err
	}
	return snap.outcome.Result.Validation, nil
}

// Run returns the current run's bookkeeping record
func (s *CoverageService) Run(ctx context.Context) (*models.AnalysisRun, error) {
	snap, err := s.current()
	if err != nil {
		return nil, err
	}
	return snap.outcome.Run, nil
}

// Overview computes the aggregate view of the current snapshot
func (s *CoverageService) Overview(ctx context.Context) (*OverviewStats, error) {
	snap, err := s.current()
	if err != nil {
		return nil, err
	}

	result := snap.outcome.Result
	stats := &OverviewStats{
		RunID:          snap.outcome.Run.RunID,
		DatasetVersion: snap.outcome.Run.DatasetVersion,
		TotalPincodes:  len(result.Aggregates),
		TotalDistricts: len(result.Baselines),
		ServiceDeserts: result.DesertCount(),
		Interventions:  make(map[string]int),
	}

	for _, agg := range result.Aggregates {
		stats.TotalPopulation += agg.Population
		switch agg.UrbanFlag {
		case models.UrbanFlagUrban:
			stats.UrbanPincodes++
		case models.UrbanFlagRural:
			stats.RuralPincodes++
		default:
			stats.UnknownPincodes++
		}
		if agg.ImputationSource != models.ImputationOriginal {
			stats.ImputedPopulations++
		}
	}

	for _, c := range result.Consistency {
		if c.StressSignal {
			stats.StressSignals++
		}
	}

	buckets := config.PriorityBuckets()
	counts := make([]int, len(buckets)+1)
	for _, p := range result.Priorities {
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
		stats.Interventions[string(p.InterventionType)]++
	}
	for i, b := range buckets {
		stats.PriorityBuckets = append(stats.PriorityBuckets, PriorityBucketCount{
			Name:        b.Name,
			MaxRank:     b.MaxRank,
			Description: b.Description,
			Count:       counts[i],
		})
	}
	stats.PriorityBuckets = append(stats.PriorityBuckets, PriorityBucketCount{
		Name:        "monitor",
		Description: "Routine monitoring",
		Count:       counts[len(buckets)],
	})

	return stats, nil
}
