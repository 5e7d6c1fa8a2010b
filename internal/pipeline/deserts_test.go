package pipeline

import (
	"math"
	"testing"

	"coverage-platform/internal/config"
	"coverage-platform/internal/models"
)

func desertFixture() ([]*models.PincodeAggregate, map[string]*models.DistrictBaseline) {
	aggs := []*models.PincodeAggregate{
		// Rural, rate 40 vs baseline 100, population at the district median.
		{Pincode: "500001", District: "Alpha", State: "North", Population: 100000, UrbanFlag: models.UrbanFlagRural, ActivityPer100k: 40, TotalActivity: 40},
		// Same gap but urban.
		{Pincode: "500002", District: "Alpha", State: "North", Population: 100000, UrbanFlag: models.UrbanFlagUrban, ActivityPer100k: 40, TotalActivity: 40},
		// Rural, low rate, but population below the district median.
		{Pincode: "500003", District: "Alpha", State: "North", Population: 50000, UrbanFlag: models.UrbanFlagRural, ActivityPer100k: 40, TotalActivity: 20},
		// Rural but healthy rate.
		{Pincode: "500004", District: "Alpha", State: "North", Population: 100000, UrbanFlag: models.UrbanFlagRural, ActivityPer100k: 90, TotalActivity: 90},
	}
	baselines := map[string]*models.DistrictBaseline{
		"Alpha": {District: "Alpha", ActivityPer100k: 100, MedianPincodePopulation: 100000},
	}
	return aggs, baselines
}

func TestClassifyServiceDeserts(t *testing.T) {
	th := config.DefaultThresholds()
	aggs, baselines := desertFixture()

	records := ClassifyServiceDeserts(aggs, baselines, th)
	if len(records) != 4 {
		t.Fatalf("ClassifyServiceDeserts() produced %d records, want 4", len(records))
	}

	byCode := make(map[string]*models.ServiceDesertRecord)
	for _, r := range records {
		byCode[r.Pincode] = r
	}

	desert := byCode["500001"]
	if !desert.IsDesert {
		t.Fatal("500001 should be a service desert")
	}
	if !almostEqual(desert.SeverityScore, 60) {
		t.Errorf("SeverityScore = %v, want 60", desert.SeverityScore)
	}
	if !almostEqual(desert.RelativeGapPct, -60) {
		t.Errorf("RelativeGapPct = %v, want -60", desert.RelativeGapPct)
	}
	wantPriority := 60 * math.Log1p(100000)
	if !almostEqual(desert.PriorityScore, wantPriority) {
		t.Errorf("PriorityScore = %v, want %v", desert.PriorityScore, wantPriority)
	}
	if desert.PriorityRank != 1 {
		t.Errorf("PriorityRank = %d, want 1", desert.PriorityRank)
	}

	for _, code := range []string{"500002", "500003", "500004"} {
		r := byCode[code]
		if r.IsDesert {
			t.Errorf("%s should not be a desert", code)
		}
		if r.SeverityScore != 0 || r.PriorityRank != 0 {
			t.Errorf("%s severity/rank = %v/%d, want 0/0", code, r.SeverityScore, r.PriorityRank)
		}
	}
}

func TestClassifyServiceDesertsZeroBaseline(t *testing.T) {
	th := config.DefaultThresholds()
	aggs := []*models.PincodeAggregate{
		{Pincode: "500001", District: "Empty", UrbanFlag: models.UrbanFlagRural, Population: 100000, ActivityPer100k: 0},
	}
	baselines := map[string]*models.DistrictBaseline{
		"Empty": {District: "Empty", ActivityPer100k: 0, MedianPincodePopulation: 100000},
	}

	records := ClassifyServiceDeserts(aggs, baselines, th)
	if records[0].IsDesert {
		t.Error("zero-baseline district should claim no deserts")
	}
	if records[0].RelativeGapPct != 0 {
		t.Errorf("RelativeGapPct = %v, want 0 when baseline undefined", records[0].RelativeGapPct)
	}
}

func TestClassifyServiceDesertsMissingBaseline(t *testing.T) {
	th := config.DefaultThresholds()
	aggs := []*models.PincodeAggregate{
		{Pincode: "500001", District: "Orphan", UrbanFlag: models.UrbanFlagRural, Population: 100000, ActivityPer100k: 5},
	}

	records := ClassifyServiceDeserts(aggs, map[string]*models.DistrictBaseline{}, th)
	if records[0].IsDesert {
		t.Error("pincode without a baseline should not be a desert")
	}
}

func TestRankDesertsDenseRanking(t *testing.T) {
	records := []*models.ServiceDesertRecord{
		{Pincode: "A", IsDesert: true, PriorityScore: 50},
		{Pincode: "B", IsDesert: true, PriorityScore: 90},
		{Pincode: "C", IsDesert: true, PriorityScore: 90},
		{Pincode: "D", IsDesert: true, PriorityScore: 10},
		{Pincode: "E", IsDesert: false, PriorityScore: 0},
	}

	rankDeserts(records)

	wantRanks := map[string]int{"B": 1, "C": 1, "A": 2, "D": 3, "E": 0}
	for _, r := range records {
		if r.PriorityRank != wantRanks[r.Pincode] {
			t.Errorf("%s rank = %d, want %d", r.Pincode, r.PriorityRank, wantRanks[r.Pincode])
		}
	}
}
