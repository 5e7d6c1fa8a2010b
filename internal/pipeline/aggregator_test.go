package pipeline

import (
	"testing"

	"coverage-platform/internal/models"
)

func TestAggregatePincodes(t *testing.T) {
	records := []*models.RawRecord{
		{Pincode: "110002", District: "Central", State: "Delhi", Population: 1000, HasPopulation: true, UrbanFlag: models.UrbanFlagUrban, BioCount: 10, DemoCount: 5, EnrollCount: 2},
		{Pincode: "110001", District: "Central", State: "Delhi", Population: 2000, HasPopulation: true, BioCount: 20},
		{Pincode: "110002", District: "Central", State: "Delhi", Population: 500, HasPopulation: true, BioCount: 5, DemoCount: 5},
	}

	aggs := AggregatePincodes(records)

	if len(aggs) != 2 {
		t.Fatalf("AggregatePincodes() produced %d aggregates, want 2", len(aggs))
	}

	// Output is sorted by pincode regardless of input order.
	if aggs[0].Pincode != "110001" || aggs[1].Pincode != "110002" {
		t.Errorf("order = [%s, %s], want [110001, 110002]", aggs[0].Pincode, aggs[1].Pincode)
	}

	merged := aggs[1]
	if merged.Population != 1500 {
		t.Errorf("Population = %v, want 1500", merged.Population)
	}
	if merged.BioCount != 15 || merged.DemoCount != 10 || merged.EnrollCount != 2 {
		t.Errorf("counters = %v/%v/%v, want 15/10/2", merged.BioCount, merged.DemoCount, merged.EnrollCount)
	}
	if merged.TotalActivity != 27 {
		t.Errorf("TotalActivity = %v, want 27", merged.TotalActivity)
	}
	if merged.UrbanFlag != models.UrbanFlagUrban {
		t.Errorf("UrbanFlag = %v, want urban", merged.UrbanFlag)
	}
	if !merged.HasRawPopulation {
		t.Error("HasRawPopulation should be true")
	}
}

func TestAggregatePincodesFirstObservedPolicy(t *testing.T) {
	records := []*models.RawRecord{
		{Pincode: "110001", District: "Central", State: "Delhi"},
		{Pincode: "110001", District: "South", State: "Delhi"},
		{Pincode: "110001", District: "Central", State: "Haryana"},
		{Pincode: "110001", District: "", State: ""},
	}

	aggs := AggregatePincodes(records)
	if len(aggs) != 1 {
		t.Fatalf("AggregatePincodes() produced %d aggregates, want 1", len(aggs))
	}

	agg := aggs[0]
	if agg.District != "Central" {
		t.Errorf("District = %v, want first observed Central", agg.District)
	}
	if agg.State != "Delhi" {
		t.Errorf("State = %v, want first observed Delhi", agg.State)
	}
	if agg.DistrictConflicts != 1 {
		t.Errorf("DistrictConflicts = %d, want 1", agg.DistrictConflicts)
	}
	if agg.StateConflicts != 1 {
		t.Errorf("StateConflicts = %d, want 1", agg.StateConflicts)
	}

	summary := SummarizeConflicts(aggs)
	if summary.PincodesWithConflicts != 1 || summary.DistrictConflicts != 1 || summary.StateConflicts != 1 {
		t.Errorf("SummarizeConflicts() = %+v, want 1/1/1", summary)
	}
}

func TestAggregatePincodesLaterUrbanFlagFillsUnknown(t *testing.T) {
	records := []*models.RawRecord{
		{Pincode: "110001", UrbanFlag: models.UrbanFlagUnknown},
		{Pincode: "110001", UrbanFlag: models.UrbanFlagRural},
	}

	aggs := AggregatePincodes(records)
	if aggs[0].UrbanFlag != models.UrbanFlagRural {
		t.Errorf("UrbanFlag = %v, want rural", aggs[0].UrbanFlag)
	}
}

func TestAggregatePincodesEmptyInput(t *testing.T) {
	aggs := AggregatePincodes(nil)
	if len(aggs) != 0 {
		t.Errorf("AggregatePincodes(nil) = %d aggregates, want 0", len(aggs))
	}
}
