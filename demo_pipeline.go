package main

import (
	"context"
	"fmt"
	"os"

	"coverage-platform/internal/config"
	"coverage-platform/internal/models"
	"coverage-platform/internal/pipeline"
	"coverage-platform/pkg/logging"
	"coverage-platform/pkg/metrics"
)

// Demo of the analysis pipeline over a small synthetic dataset, no database
// or input file required.
func main() {
	fmt.Println("════════════════════════════════════════════════════════════════")
	fmt.Println("COVERAGE PLATFORM - ANALYSIS PIPELINE DEMONSTRATION")
	fmt.Println("════════════════════════════════════════════════════════════════")
	fmt.Println()

	// Initialize logger
	logger := logging.NewStructuredLogger("demo", "1.0.0", logging.WarnLevel)
	ctx := context.Background()

	records := demoRecords()
	fmt.Printf("Synthetic dataset: %d records\n\n", len(records))

	thresholds := config.DefaultThresholds()
	p := pipeline.New(thresholds, logger, metrics.NewCollector("coverage_demo"))

	result, err := p.Run(ctx, records)
	if err != nil {
		fmt.Printf("Pipeline failed: %v\n", err)
		os.Exit(1)
	}

	fmt.Println("─────────────────────────────────────────────────────────────")
	fmt.Println("Pincode Aggregates")
	fmt.Println("─────────────────────────────────────────────────────────────")
	for _, agg := range result.Aggregates {
		fmt.Printf("  %s  %-12s pop=%-8.0f rate=%-10.1f urban=%s source=%s\n",
			agg.Pincode, agg.District, agg.Population, agg.ActivityPer100k,
			agg.UrbanFlag, agg.ImputationSource)
	}

	fmt.Println()
	fmt.Println("─────────────────────────────────────────────────────────────")
	fmt.Println("District Baselines")
	fmt.Println("─────────────────────────────────────────────────────────────")
	for _, b := range result.Baselines {
		fmt.Printf("  %-12s rate=%-10.1f median_pop=%-8.0f pincodes=%d\n",
			b.District, b.ActivityPer100k, b.MedianPincodePopulation, b.PincodeCount)
	}

	fmt.Println()
	fmt.Println("─────────────────────────────────────────────────────────────")
	fmt.Println("Service Deserts")
	fmt.Println("─────────────────────────────────────────────────────────────")
	for _, d := range result.Deserts {
		if d.IsDesert {
			fmt.Printf("  %s  severity=%.1f gap=%.1f%% rank=%d\n",
				d.Pincode, d.SeverityScore, d.RelativeGapPct, d.PriorityRank)
		}
	}

	fmt.Println()
	fmt.Println("─────────────────────────────────────────────────────────────")
	fmt.Println("Policy Priorities")
	fmt.Println("─────────────────────────────────────────────────────────────")
	for _, pr := range result.Priorities {
		fmt.Printf("  #%-3d %s  score=%.2f desert=%-5v stress=%-5v -> %s (%d units, %d staff)\n",
			pr.PriorityRank, pr.Pincode, pr.CompositePriority,
			pr.IsDesert, pr.StressSignal, pr.InterventionType,
			pr.RecommendedMobileUnits, pr.EstimatedFieldStaff)
	}

	fmt.Println()
	fmt.Println("─────────────────────────────────────────────────────────────")
	fmt.Println("Validation")
	fmt.Println("─────────────────────────────────────────────────────────────")
	for _, report := range result.Validation {
		for _, check := range report.Checks {
			fmt.Printf("  [%s] %-25s %s: %s\n", report.Domain, check.CheckName, check.Result, check.Details)
		}
	}
}

// demoRecords builds two districts: one healthy urban cluster and one rural
// district with a large under-served pincode.
func demoRecords() []*models.RawRecord {
	var records []*models.RawRecord

	add := func(pincode, district string, pop float64, flag models.UrbanFlag, bio, demo, enroll float64, months int) {
		for m := 1; m <= months; m++ {
			records = append(records, &models.RawRecord{
				Pincode:       pincode,
				District:      district,
				State:         "DemoState",
				Population:    pop,
				HasPopulation: pop > 0,
				UrbanFlag:     flag,
				BioCount:      bio,
				DemoCount:     demo,
				EnrollCount:   enroll,
				Year:          2024,
				Month:         m,
			})
		}
	}

	// Northfield: active urban pincodes.
	add("110001", "Northfield", 80000, models.UrbanFlagUrban, 400, 250, 150, 8)
	add("110002", "Northfield", 65000, models.UrbanFlagUrban, 350, 200, 120, 8)
	add("110003", "Northfield", 90000, models.UrbanFlagUrban, 500, 300, 180, 8)

	// Southvale: rural district where one populous pincode sees almost no
	// activity.
	add("520001", "Southvale", 120000, models.UrbanFlagRural, 20, 10, 5, 8)
	add("520002", "Southvale", 45000, models.UrbanFlagRural, 300, 180, 90, 8)
	add("520003", "Southvale", 50000, models.UrbanFlagRural, 280, 160, 85, 3)

	// A pincode with no population data, filled from the district median.
	add("520004", "Southvale", 0, models.UrbanFlagRural, 150, 90, 40, 8)

	return records
}
