package pipeline

import (
	"math"
	"testing"

	"coverage-platform/internal/config"
	"coverage-platform/internal/models"
)

func temporalRecords(pincode string, activities map[int]float64) []*models.RawRecord {
	out := make([]*models.RawRecord, 0, len(activities))
	for key, activity := range activities {
		out = append(out, &models.RawRecord{
			Pincode:  pincode,
			Year:     key / 100,
			Month:    key % 100,
			BioCount: activity,
		})
	}
	return out
}

func TestAnalyzeTemporalGrowth(t *testing.T) {
	th := config.DefaultThresholds()

	// Eight months: 100 per month in the first half, 200 in the second.
	records := temporalRecords("100001", map[int]float64{
		202401: 100, 202402: 100, 202403: 100, 202404: 100,
		202405: 200, 202406: 200, 202407: 200, 202408: 200,
	})
	aggs := []*models.PincodeAggregate{{Pincode: "100001"}}

	result := AnalyzeTemporal(records, aggs, th)
	if len(result) != 1 {
		t.Fatalf("AnalyzeTemporal() produced %d records, want 1", len(result))
	}

	rec := result[0]
	if rec.MonthsObserved != 8 {
		t.Errorf("MonthsObserved = %d, want 8", rec.MonthsObserved)
	}
	if !rec.HasSufficientCoverage {
		t.Error("HasSufficientCoverage should be true at 8 months")
	}
	if rec.RecentPctChange == nil || !almostEqual(*rec.RecentPctChange, 100) {
		t.Errorf("RecentPctChange = %v, want 100", rec.RecentPctChange)
	}
	if rec.TrendClass != models.TrendGrowth {
		t.Errorf("TrendClass = %v, want growth", rec.TrendClass)
	}

	// Sample std of the series over its mean of 150.
	wantVolatility := math.Sqrt(20000.0/7) / 150
	if rec.TemporalVolatility == nil || !almostEqual(*rec.TemporalVolatility, wantVolatility) {
		t.Errorf("TemporalVolatility = %v, want %v", rec.TemporalVolatility, wantVolatility)
	}
}

func TestAnalyzeTemporalDeclineAndStable(t *testing.T) {
	th := config.DefaultThresholds()

	tests := []struct {
		name       string
		activities map[int]float64
		wantClass  models.TrendClass
	}{
		{
			name: "decline beyond threshold",
			activities: map[int]float64{
				202401: 200, 202402: 200, 202403: 200,
				202404: 100, 202405: 100, 202406: 100,
			},
			wantClass: models.TrendDecline,
		},
		{
			name: "small change stays stable",
			activities: map[int]float64{
				202401: 100, 202402: 100, 202403: 100,
				202404: 105, 202405: 105, 202406: 105,
			},
			wantClass: models.TrendStable,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			records := temporalRecords("100001", tt.activities)
			aggs := []*models.PincodeAggregate{{Pincode: "100001"}}

			result := AnalyzeTemporal(records, aggs, th)
			if result[0].TrendClass != tt.wantClass {
				t.Errorf("TrendClass = %v, want %v", result[0].TrendClass, tt.wantClass)
			}
		})
	}
}

func TestAnalyzeTemporalInsufficientCoverage(t *testing.T) {
	th := config.DefaultThresholds()

	records := temporalRecords("100001", map[int]float64{
		202401: 100, 202402: 150, 202403: 200,
	})
	aggs := []*models.PincodeAggregate{{Pincode: "100001"}}

	result := AnalyzeTemporal(records, aggs, th)
	rec := result[0]
	if rec.MonthsObserved != 3 {
		t.Errorf("MonthsObserved = %d, want 3", rec.MonthsObserved)
	}
	if rec.HasSufficientCoverage {
		t.Error("HasSufficientCoverage should be false below the month gate")
	}
	if rec.TrendClass != models.TrendInsufficientData {
		t.Errorf("TrendClass = %v, want insufficient_data", rec.TrendClass)
	}
	if rec.RecentPctChange != nil || rec.TemporalVolatility != nil {
		t.Error("trend metrics must stay nil below the month gate, never estimated")
	}
}

func TestAnalyzeTemporalExclusions(t *testing.T) {
	th := config.DefaultThresholds()

	records := []*models.RawRecord{
		// No year/month.
		{Pincode: "100001", BioCount: 100},
		// Zero activity.
		{Pincode: "100001", Year: 2024, Month: 1},
		// Counts toward one observed month.
		{Pincode: "100001", Year: 2024, Month: 2, DemoCount: 50},
		// Same month accumulates rather than double counting.
		{Pincode: "100001", Year: 2024, Month: 2, EnrollCount: 10},
	}
	aggs := []*models.PincodeAggregate{{Pincode: "100001"}}

	result := AnalyzeTemporal(records, aggs, th)
	if result[0].MonthsObserved != 1 {
		t.Errorf("MonthsObserved = %d, want 1", result[0].MonthsObserved)
	}
}

func TestAnalyzeTemporalPincodeWithoutRecords(t *testing.T) {
	th := config.DefaultThresholds()
	aggs := []*models.PincodeAggregate{{Pincode: "999999"}}

	result := AnalyzeTemporal(nil, aggs, th)
	rec := result[0]
	if rec.MonthsObserved != 0 || rec.TrendClass != models.TrendInsufficientData {
		t.Errorf("record = %+v, want 0 months and insufficient_data", rec)
	}
}
