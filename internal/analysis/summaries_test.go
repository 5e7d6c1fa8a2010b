package analysis

import (
	"testing"

	"coverage-platform/internal/models"
	"coverage-platform/internal/pipeline"
)

func summaryResult() *pipeline.Result {
	return &pipeline.Result{
		Aggregates: []*models.PincodeAggregate{
			{Pincode: "110001", District: "Central", State: "North", Population: 100000, UrbanFlag: models.UrbanFlagUrban},
			{Pincode: "200001", District: "Southvale", State: "South", Population: 80000, UrbanFlag: models.UrbanFlagRural},
			{Pincode: "200002", District: "Southvale", State: "South", Population: 90000, UrbanFlag: models.UrbanFlagRural},
		},
		Deserts: []*models.ServiceDesertRecord{
			{Pincode: "110001", District: "Central", State: "North"},
			{Pincode: "200001", District: "Southvale", State: "South", Population: 80000, IsDesert: true, SeverityScore: 20},
			{Pincode: "200002", District: "Southvale", State: "South"},
		},
		Consistency: []*models.ConsistencyRecord{
			{Pincode: "110001", ConsistencyScore: 1},
			{Pincode: "200001", ConsistencyScore: 0.2, StressSignal: true},
			{Pincode: "200002", ConsistencyScore: 0.8},
		},
		Mismatches: []*models.CapacityMismatchRecord{
			{Pincode: "110001", MismatchType: models.MismatchHighActivity, MismatchMagnitude: 0.4},
			{Pincode: "200001", MismatchType: models.MismatchLowActivity, MismatchMagnitude: 0.6},
			{Pincode: "200002", MismatchType: models.MismatchBalanced, MismatchMagnitude: 0.2},
		},
		Temporal: []*models.TemporalRecord{
			{Pincode: "110001", MonthsObserved: 8, HasSufficientCoverage: true},
			{Pincode: "200001", MonthsObserved: 3},
			{Pincode: "200002", MonthsObserved: 7, HasSufficientCoverage: true},
		},
	}
}

func TestSummarizeDistricts(t *testing.T) {
	summaries := SummarizeDistricts(summaryResult())
	if len(summaries) != 2 {
		t.Fatalf("SummarizeDistricts() produced %d rows, want 2", len(summaries))
	}

	central, south := summaries[0], summaries[1]
	if central.District != "Central" || south.District != "Southvale" {
		t.Fatalf("order = [%s, %s], want [Central, Southvale]", central.District, south.District)
	}

	if south.PincodeCount != 2 || south.RuralPincodes != 2 {
		t.Errorf("Southvale counts = %d/%d, want 2/2", south.PincodeCount, south.RuralPincodes)
	}
	if south.TotalPopulation != 170000 {
		t.Errorf("Southvale TotalPopulation = %v, want 170000", south.TotalPopulation)
	}
	if south.DesertCount != 1 || south.AffectedPopulation != 80000 {
		t.Errorf("Southvale deserts = %d pop %v, want 1/80000", south.DesertCount, south.AffectedPopulation)
	}
	if south.DesertRatioRural != 0.5 {
		t.Errorf("Southvale DesertRatioRural = %v, want 0.5", south.DesertRatioRural)
	}
	if south.MeanSeverity != 20 {
		t.Errorf("Southvale MeanSeverity = %v, want 20", south.MeanSeverity)
	}
	if south.MeanConsistency != 0.5 || south.StressRatio != 0.5 {
		t.Errorf("Southvale consistency/stress = %v/%v, want 0.5/0.5", south.MeanConsistency, south.StressRatio)
	}
	if south.LowActivityCount != 1 || south.HighActivityCount != 0 {
		t.Errorf("Southvale mismatch counts = %d/%d, want 1/0", south.LowActivityCount, south.HighActivityCount)
	}
	if south.MismatchIndex != 0.4 {
		t.Errorf("Southvale MismatchIndex = %v, want 0.4", south.MismatchIndex)
	}
	if south.SufficientCoverage != 0.5 {
		t.Errorf("Southvale SufficientCoverage = %v, want 0.5", south.SufficientCoverage)
	}

	if central.DesertCount != 0 || central.MeanSeverity != 0 {
		t.Errorf("Central deserts = %d severity %v, want none", central.DesertCount, central.MeanSeverity)
	}
	if central.HighActivityCount != 1 || central.SufficientCoverage != 1 {
		t.Errorf("Central high/coverage = %d/%v, want 1/1", central.HighActivityCount, central.SufficientCoverage)
	}
}

func TestSummarizeStates(t *testing.T) {
	states := SummarizeStates(SummarizeDistricts(summaryResult()))
	if len(states) != 2 {
		t.Fatalf("SummarizeStates() produced %d rows, want 2", len(states))
	}

	north, south := states[0], states[1]
	if north.State != "North" || south.State != "South" {
		t.Fatalf("order = [%s, %s], want [North, South]", north.State, south.State)
	}

	if south.DistrictCount != 1 || south.PincodeCount != 2 {
		t.Errorf("South counts = %d/%d, want 1/2", south.DistrictCount, south.PincodeCount)
	}
	if south.DesertCount != 1 || south.AffectedPopulation != 80000 {
		t.Errorf("South deserts = %d pop %v, want 1/80000", south.DesertCount, south.AffectedPopulation)
	}
	if south.StressRatio != 0.5 {
		t.Errorf("South StressRatio = %v, want 0.5", south.StressRatio)
	}
	if north.StressRatio != 0 {
		t.Errorf("North StressRatio = %v, want 0", north.StressRatio)
	}
}

func TestSummarizeDistrictsEmpty(t *testing.T) {
	summaries := SummarizeDistricts(&pipeline.Result{})
	if len(summaries) != 0 {
		t.Errorf("SummarizeDistricts() on empty result = %d rows, want 0", len(summaries))
	}
}
