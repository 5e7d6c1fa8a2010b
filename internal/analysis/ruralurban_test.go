package analysis

import (
	"testing"

	"coverage-platform/internal/models"
)

func TestCompareRuralUrban(t *testing.T) {
	aggs := []*models.PincodeAggregate{
		{Pincode: "100001", UrbanFlag: models.UrbanFlagUrban, Population: 100000, ActivityPer100k: 100},
		{Pincode: "100002", UrbanFlag: models.UrbanFlagUrban, Population: 200000, ActivityPer100k: 120},
		{Pincode: "100003", UrbanFlag: models.UrbanFlagUrban, Population: 150000, ActivityPer100k: 80},
		{Pincode: "200001", UrbanFlag: models.UrbanFlagRural, Population: 50000, ActivityPer100k: 40},
		{Pincode: "200002", UrbanFlag: models.UrbanFlagRural, Population: 60000, ActivityPer100k: 60},
		{Pincode: "300001", UrbanFlag: models.UrbanFlagUnknown, Population: 70000, ActivityPer100k: 70},
	}

	c := CompareRuralUrban(aggs)

	if c.Urban.PincodeCount != 3 || c.Rural.PincodeCount != 2 {
		t.Errorf("cohort sizes = %d/%d, want 3 urban and 2 rural", c.Urban.PincodeCount, c.Rural.PincodeCount)
	}
	if c.UnknownPincodes != 1 {
		t.Errorf("UnknownPincodes = %d, want 1", c.UnknownPincodes)
	}
	if c.Urban.TotalPopulation != 450000 || c.Rural.TotalPopulation != 110000 {
		t.Errorf("populations = %v/%v, want 450000/110000", c.Urban.TotalPopulation, c.Rural.TotalPopulation)
	}

	if c.Urban.MedianRate != 100 {
		t.Errorf("urban MedianRate = %v, want 100", c.Urban.MedianRate)
	}
	if c.Rural.MedianRate != 50 {
		t.Errorf("rural MedianRate = %v, want 50", c.Rural.MedianRate)
	}
	if c.Urban.MeanRate != 100 {
		t.Errorf("urban MeanRate = %v, want 100", c.Urban.MeanRate)
	}

	// Rural median 50 against urban 100 is a 50 percent shortfall.
	if c.MedianRateGapPct != -50 {
		t.Errorf("MedianRateGapPct = %v, want -50", c.MedianRateGapPct)
	}

	// Bootstrap intervals must bracket within the observed value range.
	for name, g := range map[string]GroupStats{"urban": c.Urban, "rural": c.Rural} {
		ci := g.MedianRateCI
		if ci.Lower > ci.Upper {
			t.Errorf("%s CI inverted: %+v", name, ci)
		}
		if ci.Lower > g.MedianRate || ci.Upper < g.MedianRate {
			t.Errorf("%s CI %+v does not bracket the median %v", name, ci, g.MedianRate)
		}
	}

	if c.MedianDifference != -50 {
		t.Errorf("MedianDifference = %v, want -50", c.MedianDifference)
	}
	ci := c.MedianDifferenceCI
	if ci.Lower > ci.Upper {
		t.Errorf("difference CI inverted: %+v", ci)
	}
	if ci.Lower > c.MedianDifference || ci.Upper < c.MedianDifference {
		t.Errorf("difference CI %+v does not bracket %v", ci, c.MedianDifference)
	}
	// The widest possible difference given these samples is 60-80=-20 and
	// 40-120=-80; the joint-resample interval must stay inside that range.
	if ci.Lower < -80 || ci.Upper > -20 {
		t.Errorf("difference CI %+v outside the attainable range [-80, -20]", ci)
	}
}

func TestCompareRuralUrbanReproducible(t *testing.T) {
	aggs := []*models.PincodeAggregate{
		{Pincode: "100001", UrbanFlag: models.UrbanFlagUrban, Population: 100000, ActivityPer100k: 100},
		{Pincode: "100002", UrbanFlag: models.UrbanFlagUrban, Population: 200000, ActivityPer100k: 120},
		{Pincode: "200001", UrbanFlag: models.UrbanFlagRural, Population: 50000, ActivityPer100k: 40},
		{Pincode: "200002", UrbanFlag: models.UrbanFlagRural, Population: 60000, ActivityPer100k: 60},
	}

	first := CompareRuralUrban(aggs)
	second := CompareRuralUrban(aggs)

	if first.Rural.MedianRateCI != second.Rural.MedianRateCI ||
		first.Urban.MedianRateCI != second.Urban.MedianRateCI {
		t.Error("seeded bootstrap should produce identical intervals across runs")
	}
	if first.MedianDifferenceCI != second.MedianDifferenceCI {
		t.Errorf("difference CI differs across runs: %+v vs %+v",
			first.MedianDifferenceCI, second.MedianDifferenceCI)
	}
}

func TestCompareRuralUrbanEmptyCohort(t *testing.T) {
	aggs := []*models.PincodeAggregate{
		{Pincode: "100001", UrbanFlag: models.UrbanFlagUrban, Population: 100000, ActivityPer100k: 100},
	}

	c := CompareRuralUrban(aggs)
	if c.Rural.PincodeCount != 0 {
		t.Errorf("rural PincodeCount = %d, want 0", c.Rural.PincodeCount)
	}
	if c.Rural.MedianRate != 0 || c.Rural.MedianRateCI.Upper != 0 {
		t.Errorf("empty cohort stats = %+v, want zero values", c.Rural)
	}

	// With an urban median present the gap is computed against a rural
	// median of zero.
	if c.MedianRateGapPct != -100 {
		t.Errorf("MedianRateGapPct = %v, want -100", c.MedianRateGapPct)
	}

	// The median difference needs both cohorts present.
	if c.MedianDifference != 0 || c.MedianDifferenceCI != (ConfidenceInterval{}) {
		t.Errorf("difference = %v CI %+v, want zero values with one cohort missing",
			c.MedianDifference, c.MedianDifferenceCI)
	}
}

func TestCompareRuralUrbanSingletonCI(t *testing.T) {
	aggs := []*models.PincodeAggregate{
		{Pincode: "200001", UrbanFlag: models.UrbanFlagRural, Population: 50000, ActivityPer100k: 40},
	}

	c := CompareRuralUrban(aggs)
	want := ConfidenceInterval{Lower: 40, Upper: 40}
	if c.Rural.MedianRateCI != want {
		t.Errorf("singleton CI = %+v, want degenerate %+v", c.Rural.MedianRateCI, want)
	}
	if c.MedianRateGapPct != 0 {
		t.Errorf("MedianRateGapPct = %v, want 0 with no urban cohort", c.MedianRateGapPct)
	}
}
