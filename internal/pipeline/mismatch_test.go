package pipeline

import (
	"testing"

	"coverage-platform/internal/config"
	"coverage-platform/internal/models"
)

func TestClassifyCapacityMismatch(t *testing.T) {
	th := config.DefaultThresholds()

	// Five pincodes with identical populations so the national expected
	// activity is median pop 100000 / 100000 * median rate 30 = 30.
	aggs := []*models.PincodeAggregate{
		{Pincode: "100001", Population: 100000, ActivityPer100k: 10, TotalActivity: 10},
		{Pincode: "100002", Population: 100000, ActivityPer100k: 20, TotalActivity: 20},
		{Pincode: "100003", Population: 100000, ActivityPer100k: 30, TotalActivity: 30},
		{Pincode: "100004", Population: 100000, ActivityPer100k: 40, TotalActivity: 40},
		{Pincode: "100005", Population: 100000, ActivityPer100k: 50, TotalActivity: 50},
	}

	records := ClassifyCapacityMismatch(aggs, th)
	if len(records) != 5 {
		t.Fatalf("ClassifyCapacityMismatch() produced %d records, want 5", len(records))
	}

	wantPercentiles := []float64{0.2, 0.4, 0.6, 0.8, 1.0}
	wantTypes := []models.MismatchType{
		models.MismatchLowActivity,
		models.MismatchBalanced,
		models.MismatchBalanced,
		models.MismatchHighActivity,
		models.MismatchHighActivity,
	}
	for i, rec := range records {
		if !almostEqual(rec.UtilizationPercentile, wantPercentiles[i]) {
			t.Errorf("%s UtilizationPercentile = %v, want %v", rec.Pincode, rec.UtilizationPercentile, wantPercentiles[i])
		}
		if rec.MismatchType != wantTypes[i] {
			t.Errorf("%s MismatchType = %v, want %v", rec.Pincode, rec.MismatchType, wantTypes[i])
		}
	}

	// |10 - 30| / 30.
	if !almostEqual(records[0].MismatchMagnitude, 2.0/3.0) {
		t.Errorf("MismatchMagnitude = %v, want 2/3", records[0].MismatchMagnitude)
	}
	if !almostEqual(records[2].MismatchMagnitude, 0) {
		t.Errorf("median pincode MismatchMagnitude = %v, want 0", records[2].MismatchMagnitude)
	}
}

func TestClassifyCapacityMismatchZeroExpectedActivity(t *testing.T) {
	th := config.DefaultThresholds()
	aggs := []*models.PincodeAggregate{
		{Pincode: "100001", Population: 100000, ActivityPer100k: 0, TotalActivity: 0},
		{Pincode: "100002", Population: 100000, ActivityPer100k: 0, TotalActivity: 0},
	}

	records := ClassifyCapacityMismatch(aggs, th)
	for _, rec := range records {
		if rec.MismatchMagnitude != 0 {
			t.Errorf("%s MismatchMagnitude = %v, want 0 when expected activity undefined",
				rec.Pincode, rec.MismatchMagnitude)
		}
	}
}

func TestClassifyCapacityMismatchEmptyInput(t *testing.T) {
	if records := ClassifyCapacityMismatch(nil, config.DefaultThresholds()); records != nil {
		t.Errorf("ClassifyCapacityMismatch(nil) = %v, want nil", records)
	}
}
