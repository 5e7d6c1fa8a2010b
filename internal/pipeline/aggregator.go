package pipeline

import (
	"sort"

	"coverage-platform/internal/models"
)

// AggregatePincodes groups normalized records into exactly one aggregate per
// distinct pincode. Numeric fields are summed; categorical fields follow the
// first_observed policy: the first non-empty value per group wins and later
// conflicting values are counted as diagnostics rather than silently lost.
// Empty input yields an empty result, not an error.
func AggregatePincodes(records []*models.RawRecord) []*models.PincodeAggregate {
	byCode := make(map[string]*models.PincodeAggregate, len(records))
	order := make([]string, 0, len(records))

	for _, rec := range records {
		agg, ok := byCode[rec.Pincode]
		if !ok {
			agg = &models.PincodeAggregate{
				Pincode:   rec.Pincode,
				UrbanFlag: models.UrbanFlagUnknown,
			}
			byCode[rec.Pincode] = agg
			order = append(order, rec.Pincode)
		}

		if agg.District == "" {
			agg.District = rec.District
		} else if rec.District != "" && rec.District != agg.District {
			agg.DistrictConflicts++
		}

		if agg.State == "" {
			agg.State = rec.State
		} else if rec.State != "" && rec.State != agg.State {
			agg.StateConflicts++
		}

		if agg.UrbanFlag == models.UrbanFlagUnknown && rec.UrbanFlag != models.UrbanFlagUnknown {
			agg.UrbanFlag = rec.UrbanFlag
		}

		if rec.HasPopulation {
			agg.Population += rec.Population
			agg.HasRawPopulation = true
		}

		agg.BioCount += rec.BioCount
		agg.DemoCount += rec.DemoCount
		agg.EnrollCount += rec.EnrollCount
		agg.TotalActivity += rec.TotalActivity()
	}

	sort.Strings(order)
	out := make([]*models.PincodeAggregate, 0, len(order))
	for _, code := range order {
		out = append(out, byCode[code])
	}
	return out
}

// ConflictSummary totals the categorical values discarded by the
// first_observed policy across all aggregates.
type ConflictSummary struct {
	PincodesWithConflicts int
	DistrictConflicts     int
	StateConflicts        int
}

// SummarizeConflicts collects the aggregator's data-quality diagnostics.
func SummarizeConflicts(aggs []*models.PincodeAggregate) ConflictSummary {
	var sum ConflictSummary
	for _, agg := range aggs {
		if agg.DistrictConflicts > 0 || agg.StateConflicts > 0 {
			sum.PincodesWithConflicts++
		}
		sum.DistrictConflicts += agg.DistrictConflicts
		sum.StateConflicts += agg.StateConflicts
	}
	return sum
}
