package pipeline

import (
	"fmt"
	"math"

	"coverage-platform/internal/models"
)

const (
	checkPass = "PASS"
	checkFail = "FAIL"
)

func check(name string, ok bool, passDetails, failDetails string) models.ValidationCheck {
	result := checkPass
	details := passDetails
	if !ok {
		result = checkFail
		details = failDetails
	}
	return models.ValidationCheck{CheckName: name, Result: result, Details: details}
}

// ValidateAggregates verifies the core invariants of the resolved pincode
// set: every pincode is covered by a positive population and no derived rate
// is infinite.
func ValidateAggregates(aggs []*models.PincodeAggregate) models.ValidationReport {
	missingPop := 0
	infinite := 0
	untagged := 0
	for _, agg := range aggs {
		if agg.Population <= 0 {
			missingPop++
		}
		if math.IsInf(agg.ActivityPer100k, 0) || math.IsNaN(agg.ActivityPer100k) {
			infinite++
		}
		if agg.ImputationSource == "" {
			untagged++
		}
	}

	return models.ValidationReport{
		Domain: "aggregates",
		Checks: []models.ValidationCheck{
			check("total_pincodes", len(aggs) > 0,
				fmt.Sprintf("%d pincodes processed", len(aggs)),
				"no pincodes produced"),
			check("population_coverage", missingPop == 0,
				"all pincodes have positive population",
				fmt.Sprintf("%d pincodes with missing/zero population", missingPop)),
			check("no_infinite_values", infinite == 0,
				"all metrics finite",
				fmt.Sprintf("%d pincodes with non-finite rates", infinite)),
			check("imputation_tagged", untagged == 0,
				"every pincode carries an imputation source",
				fmt.Sprintf("%d pincodes without imputation source", untagged)),
		},
	}
}

// ValidateDeserts verifies severity non-negativity and rank coverage.
func ValidateDeserts(records []*models.ServiceDesertRecord) models.ValidationReport {
	negative := 0
	unranked := 0
	desertCount := 0
	for _, r := range records {
		if r.SeverityScore < 0 {
			negative++
		}
		if r.IsDesert {
			desertCount++
			if r.PriorityRank == 0 {
				unranked++
			}
		} else if r.PriorityRank != 0 {
			unranked++
		}
	}

	return models.ValidationReport{
		Domain: "service_deserts",
		Checks: []models.ValidationCheck{
			check("total_pincodes", true,
				fmt.Sprintf("%d pincodes processed, %d deserts", len(records), desertCount), ""),
			check("metric_range_valid", negative == 0,
				"severity scores non-negative",
				fmt.Sprintf("%d negative severity scores", negative)),
			check("rank_coverage", unranked == 0,
				"ranks assigned to deserts only",
				fmt.Sprintf("%d rank assignment errors", unranked)),
		},
	}
}

// ValidateMismatch verifies the percentile range and bucket assignment.
func ValidateMismatch(records []*models.CapacityMismatchRecord) models.ValidationReport {
	outOfRange := 0
	unassigned := 0
	for _, r := range records {
		if r.UtilizationPercentile < 0 || r.UtilizationPercentile > 1 {
			outOfRange++
		}
		if r.MismatchType == "" {
			unassigned++
		}
	}

	return models.ValidationReport{
		Domain: "capacity_mismatch",
		Checks: []models.ValidationCheck{
			check("utilization_range", outOfRange == 0,
				"utilization percentiles in [0,1]",
				fmt.Sprintf("%d percentiles outside [0,1]", outOfRange)),
			check("type_assigned", unassigned == 0,
				"all pincodes classified",
				fmt.Sprintf("%d pincodes without mismatch type", unassigned)),
		},
	}
}

// ValidateConsistency verifies score bounds and tier completeness.
func ValidateConsistency(records []*models.ConsistencyRecord) models.ValidationReport {
	outOfRange := 0
	untiered := 0
	for _, r := range records {
		if r.ConsistencyScore < 0 || r.ConsistencyScore > 1 {
			outOfRange++
		}
		if r.ConsistencyTier == "" {
			untiered++
		}
	}

	return models.ValidationReport{
		Domain: "service_quality",
		Checks: []models.ValidationCheck{
			check("consistency_score_range", outOfRange == 0,
				"consistency scores in [0,1]",
				fmt.Sprintf("%d scores outside [0,1]", outOfRange)),
			check("tier_assignment_complete", untiered == 0,
				"all pincodes assigned tiers",
				fmt.Sprintf("%d pincodes without tier", untiered)),
		},
	}
}

// ValidateTemporal verifies that the coverage gate was never bypassed.
func ValidateTemporal(records []*models.TemporalRecord, minMonths int) models.ValidationReport {
	bypassed := 0
	insufficient := 0
	for _, r := range records {
		sufficient := r.MonthsObserved >= minMonths
		if !sufficient {
			insufficient++
			if r.TrendClass != models.TrendInsufficientData ||
				r.RecentPctChange != nil || r.TemporalVolatility != nil {
				bypassed++
			}
		} else if r.TrendClass == models.TrendInsufficientData {
			bypassed++
		}
	}

	return models.ValidationReport{
		Domain: "temporal",
		Checks: []models.ValidationCheck{
			check("min_months_enforced", bypassed == 0,
				fmt.Sprintf("trends computed only behind the %d-month gate", minMonths),
				fmt.Sprintf("%d pincodes violate the coverage gate", bypassed)),
			check("insufficient_data_flagged", true,
				fmt.Sprintf("%d pincodes explicitly flagged insufficient", insufficient), ""),
		},
	}
}

// ValidatePriorities verifies the strict total order of the terminal set.
func ValidatePriorities(records []*models.PolicyPriorityRecord) models.ValidationReport {
	rankErrors := 0
	seen := make(map[string]bool, len(records))
	duplicates := 0
	for i, r := range records {
		if r.PriorityRank != i+1 {
			rankErrors++
		}
		if seen[r.Pincode] {
			duplicates++
		}
		seen[r.Pincode] = true
	}

	return models.ValidationReport{
		Domain: "policy_priorities",
		Checks: []models.ValidationCheck{
			check("ranking_total_order", rankErrors == 0,
				fmt.Sprintf("%d records in strict rank order", len(records)),
				fmt.Sprintf("%d rank gaps or duplicates", rankErrors)),
			check("unique_pincodes", duplicates == 0,
				"one record per pincode",
				fmt.Sprintf("%d duplicate pincodes", duplicates)),
		},
	}
}
