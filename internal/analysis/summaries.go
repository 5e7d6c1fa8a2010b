package analysis

import (
	"sort"

	"coverage-platform/internal/models"
	"coverage-platform/internal/pipeline"
)

// DistrictSummary rolls every classifier's output up to one district row.
// Ratios are 0 when their denominator is empty.
type DistrictSummary struct {
	District           string  `json:"district"`
	State              string  `json:"state"`
	PincodeCount       int     `json:"pincode_count"`
	RuralPincodes      int     `json:"rural_pincodes"`
	TotalPopulation    float64 `json:"total_population"`
	DesertCount        int     `json:"desert_count"`
	DesertRatioRural   float64 `json:"desert_ratio_rural"`
	AffectedPopulation float64 `json:"affected_population"`
	MeanSeverity       float64 `json:"mean_severity"`
	MeanConsistency    float64 `json:"mean_consistency"`
	StressRatio        float64 `json:"stress_ratio"`
	LowActivityCount   int     `json:"low_activity_count"`
	HighActivityCount  int     `json:"high_activity_count"`
	MismatchIndex      float64 `json:"mismatch_index"`
	SufficientCoverage float64 `json:"temporal_coverage_ratio"`
}

// StateSummary aggregates district summaries to the state level
type StateSummary struct {
	State              string  `json:"state"`
	DistrictCount      int     `json:"district_count"`
	PincodeCount       int     `json:"pincode_count"`
	TotalPopulation    float64 `json:"total_population"`
	DesertCount        int     `json:"desert_count"`
	AffectedPopulation float64 `json:"affected_population"`
	StressRatio        float64 `json:"stress_ratio"`
}

// SummarizeDistricts computes per-district rollups from one pipeline result,
// sorted by district name.
func SummarizeDistricts(result *pipeline.Result) []*DistrictSummary {
	byDistrict := make(map[string]*DistrictSummary)
	districtOf := make(map[string]string, len(result.Aggregates))

	get := func(district, state string) *DistrictSummary {
		s, ok := byDistrict[district]
		if !ok {
			s = &DistrictSummary{District: district, State: state}
			byDistrict[district] = s
		}
		return s
	}

	for _, agg := range result.Aggregates {
		districtOf[agg.Pincode] = agg.District
		s := get(agg.District, agg.State)
		s.PincodeCount++
		s.TotalPopulation += agg.Population
		if agg.UrbanFlag == models.UrbanFlagRural {
			s.RuralPincodes++
		}
	}

	severitySums := make(map[string]float64)
	for _, d := range result.Deserts {
		if !d.IsDesert {
			continue
		}
		s := get(d.District, d.State)
		s.DesertCount++
		s.AffectedPopulation += d.Population
		severitySums[d.District] += d.SeverityScore
	}

	consistencySums := make(map[string]float64)
	stressCounts := make(map[string]int)
	for _, c := range result.Consistency {
		district := districtOf[c.Pincode]
		consistencySums[district] += c.ConsistencyScore
		if c.StressSignal {
			stressCounts[district]++
		}
	}

	magnitudeSums := make(map[string]float64)
	for _, m := range result.Mismatches {
		district := districtOf[m.Pincode]
		s := byDistrict[district]
		if s == nil {
			continue
		}
		switch m.MismatchType {
		case models.MismatchLowActivity:
			s.LowActivityCount++
		case models.MismatchHighActivity:
			s.HighActivityCount++
		}
		magnitudeSums[district] += m.MismatchMagnitude
	}

	coveredCounts := make(map[string]int)
	for _, t := range result.Temporal {
		if t.HasSufficientCoverage {
			coveredCounts[districtOf[t.Pincode]]++
		}
	}

	out := make([]*DistrictSummary, 0, len(byDistrict))
	for district, s := range byDistrict {
		if s.RuralPincodes > 0 {
			s.DesertRatioRural = float64(s.DesertCount) / float64(s.RuralPincodes)
		}
		if s.DesertCount > 0 {
			s.MeanSeverity = severitySums[district] / float64(s.DesertCount)
		}
		if s.PincodeCount > 0 {
			s.MeanConsistency = consistencySums[district] / float64(s.PincodeCount)
			s.StressRatio = float64(stressCounts[district]) / float64(s.PincodeCount)
			s.MismatchIndex = magnitudeSums[district] / float64(s.PincodeCount)
			s.SufficientCoverage = float64(coveredCounts[district]) / float64(s.PincodeCount)
		}
		out = append(out, s)
	}

	sort.Slice(out, func(i, j int) bool { return out[i].District < out[j].District })
	return out
}

// SummarizeStates rolls district summaries up to the state level, sorted by
// state name. The stress ratio is pincode-weighted, not a mean of district
// ratios.
func SummarizeStates(districts []*DistrictSummary) []*StateSummary {
	byState := make(map[string]*StateSummary)
	stressed := make(map[string]float64)

	for _, d := range districts {
		s, ok := byState[d.State]
		if !ok {
			s = &StateSummary{State: d.State}
			byState[d.State] = s
		}
		s.DistrictCount++
		s.PincodeCount += d.PincodeCount
		s.TotalPopulation += d.TotalPopulation
		s.DesertCount += d.DesertCount
		s.AffectedPopulation += d.AffectedPopulation
		stressed[d.State] += d.StressRatio * float64(d.PincodeCount)
	}

	out := make([]*StateSummary, 0, len(byState))
	for state, s := range byState {
		if s.PincodeCount > 0 {
			s.StressRatio = stressed[state] / float64(s.PincodeCount)
		}
		out = append(out, s)
	}

	sort.Slice(out, func(i, j int) bool { return out[i].State < out[j].State })
	return out
}
