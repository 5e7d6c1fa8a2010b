package pipeline

import (
	"math"
	"sort"

	"coverage-platform/internal/config"
	"coverage-platform/internal/models"
)

// JoinStats counts pincodes missing from a classifier's output during the
// terminal join. Missing dimensions contribute zero weight rather than
// dropping the pincode; the counts are surfaced as data-quality notes.
type JoinStats struct {
	MissingConsistency int
	MissingMismatch    int
}

// RankPolicyPriorities merges the three classifier outputs into one weighted
// composite score per pincode and produces a strict total order: descending
// composite priority, ties broken by ascending pincode, so the ranking is
// reproducible regardless of input row order.
func RankPolicyPriorities(
	deserts []*models.ServiceDesertRecord,
	consistency []*models.ConsistencyRecord,
	mismatch []*models.CapacityMismatchRecord,
	th config.Thresholds,
) ([]*models.PolicyPriorityRecord, JoinStats) {
	var joins JoinStats

	consistencyByCode := make(map[string]*models.ConsistencyRecord, len(consistency))
	for _, c := range consistency {
		consistencyByCode[c.Pincode] = c
	}
	mismatchByCode := make(map[string]*models.CapacityMismatchRecord, len(mismatch))
	for _, m := range mismatch {
		mismatchByCode[m.Pincode] = m
	}

	out := make([]*models.PolicyPriorityRecord, 0, len(deserts))
	for _, d := range deserts {
		rec := &models.PolicyPriorityRecord{
			Pincode:    d.Pincode,
			District:   d.District,
			State:      d.State,
			Population: d.Population,
			IsDesert:   d.IsDesert,
		}

		if c, ok := consistencyByCode[d.Pincode]; ok {
			rec.StressSignal = c.StressSignal
		} else {
			joins.MissingConsistency++
		}

		if m, ok := mismatchByCode[d.Pincode]; ok {
			rec.MismatchType = m.MismatchType
		} else {
			joins.MissingMismatch++
		}

		var score float64
		if rec.IsDesert {
			score += th.DesertWeight
		}
		if rec.StressSignal {
			score += th.StressWeight
		}
		if rec.MismatchType == models.MismatchLowActivity {
			score += th.MismatchWeight
		}
		score += math.Log1p(rec.Population) / th.PopulationFactorDivisor
		rec.CompositePriority = score

		rec.InterventionType = interventionFor(rec, th)
		rec.RecommendedMobileUnits = int(math.Ceil(rec.Population / th.MobileUnitCoverage))
		rec.EstimatedFieldStaff = rec.RecommendedMobileUnits * th.FieldStaffPerUnit

		out = append(out, rec)
	}

	sort.Slice(out, func(i, j int) bool {
		if out[i].CompositePriority != out[j].CompositePriority {
			return out[i].CompositePriority > out[j].CompositePriority
		}
		return out[i].Pincode < out[j].Pincode
	})
	for i, rec := range out {
		rec.PriorityRank = i + 1
	}

	return out, joins
}

// interventionFor evaluates the decision table top to bottom, first match
// wins. The mobile-unit and staff numbers attached alongside are
// illustrative estimates, not validated operational plans.
func interventionFor(rec *models.PolicyPriorityRecord, th config.Thresholds) models.InterventionType {
	switch {
	case rec.Population > th.PermanentCenterMinPopulation && rec.IsDesert:
		return models.InterventionPermanentCenter
	case rec.MismatchType == models.MismatchLowActivity:
		return models.InterventionCapacityExpansion
	default:
		return models.InterventionMobileEnrollment
	}
}

// TopPriorities returns the actionable recommendation set: the first n
// records of the ranked order.
func TopPriorities(ranked []*models.PolicyPriorityRecord, n int) []*models.PolicyPriorityRecord {
	if n <= 0 || n > len(ranked) {
		n = len(ranked)
	}
	return ranked[:n]
}
