package pipeline

import (
	"math"
	"testing"

	"coverage-platform/internal/config"
	"coverage-platform/internal/models"
)

func TestRankPolicyPriorities(t *testing.T) {
	th := config.DefaultThresholds()

	deserts := []*models.ServiceDesertRecord{
		{Pincode: "100001", District: "Alpha", State: "North", Population: 40000, IsDesert: false},
		{Pincode: "100002", District: "Alpha", State: "North", Population: 200000, IsDesert: true},
		{Pincode: "100003", District: "Beta", State: "South", Population: 60000, IsDesert: false},
	}
	consistency := []*models.ConsistencyRecord{
		{Pincode: "100001", StressSignal: false},
		{Pincode: "100002", StressSignal: true},
		{Pincode: "100003", StressSignal: false},
	}
	mismatch := []*models.CapacityMismatchRecord{
		{Pincode: "100001", MismatchType: models.MismatchLowActivity},
		{Pincode: "100002", MismatchType: models.MismatchLowActivity},
		{Pincode: "100003", MismatchType: models.MismatchBalanced},
	}

	ranked, joins := RankPolicyPriorities(deserts, consistency, mismatch, th)
	if len(ranked) != 3 {
		t.Fatalf("RankPolicyPriorities() produced %d records, want 3", len(ranked))
	}
	if joins.MissingConsistency != 0 || joins.MissingMismatch != 0 {
		t.Errorf("joins = %+v, want no missing dimensions", joins)
	}

	top := ranked[0]
	if top.Pincode != "100002" || top.PriorityRank != 1 {
		t.Fatalf("top = %s rank %d, want 100002 rank 1", top.Pincode, top.PriorityRank)
	}

	// Desert 3 + stress 2 + low activity 1 + population factor.
	wantScore := 3.0 + 2.0 + 1.0 + math.Log1p(200000)/10
	if !almostEqual(top.CompositePriority, wantScore) {
		t.Errorf("CompositePriority = %v, want %v", top.CompositePriority, wantScore)
	}

	if top.InterventionType != models.InterventionPermanentCenter {
		t.Errorf("InterventionType = %v, want permanent_center", top.InterventionType)
	}
	if top.RecommendedMobileUnits != 4 {
		t.Errorf("RecommendedMobileUnits = %d, want ceil(200000/50000) = 4", top.RecommendedMobileUnits)
	}
	if top.EstimatedFieldStaff != 12 {
		t.Errorf("EstimatedFieldStaff = %d, want 12", top.EstimatedFieldStaff)
	}

	byCode := make(map[string]*models.PolicyPriorityRecord)
	for _, r := range ranked {
		byCode[r.Pincode] = r
	}
	if byCode["100001"].InterventionType != models.InterventionCapacityExpansion {
		t.Errorf("100001 InterventionType = %v, want capacity_expansion", byCode["100001"].InterventionType)
	}
	if byCode["100003"].InterventionType != models.InterventionMobileEnrollment {
		t.Errorf("100003 InterventionType = %v, want mobile_enrollment", byCode["100003"].InterventionType)
	}
}

func TestRankPolicyPrioritiesTieBreak(t *testing.T) {
	th := config.DefaultThresholds()

	// Identical composite scores; order must fall back to ascending pincode
	// regardless of the input ordering.
	deserts := []*models.ServiceDesertRecord{
		{Pincode: "100002", Population: 50000},
		{Pincode: "100001", Population: 50000},
	}

	ranked, _ := RankPolicyPriorities(deserts, nil, nil, th)
	if ranked[0].Pincode != "100001" || ranked[1].Pincode != "100002" {
		t.Errorf("order = [%s, %s], want [100001, 100002]", ranked[0].Pincode, ranked[1].Pincode)
	}
	if ranked[0].PriorityRank != 1 || ranked[1].PriorityRank != 2 {
		t.Errorf("ranks = %d/%d, want 1/2", ranked[0].PriorityRank, ranked[1].PriorityRank)
	}
}

func TestRankPolicyPrioritiesMissingDimensions(t *testing.T) {
	th := config.DefaultThresholds()

	deserts := []*models.ServiceDesertRecord{
		{Pincode: "100001", Population: 10000, IsDesert: true},
	}

	ranked, joins := RankPolicyPriorities(deserts, nil, nil, th)
	if joins.MissingConsistency != 1 || joins.MissingMismatch != 1 {
		t.Errorf("joins = %+v, want 1/1", joins)
	}

	// Missing dimensions contribute zero weight, not an error.
	wantScore := 3.0 + math.Log1p(10000)/10
	if !almostEqual(ranked[0].CompositePriority, wantScore) {
		t.Errorf("CompositePriority = %v, want %v", ranked[0].CompositePriority, wantScore)
	}
}

func TestInterventionDecisionOrder(t *testing.T) {
	th := config.DefaultThresholds()

	tests := []struct {
		name string
		rec  *models.PolicyPriorityRecord
		want models.InterventionType
	}{
		{
			name: "large desert wins over low activity",
			rec:  &models.PolicyPriorityRecord{Population: 150000, IsDesert: true, MismatchType: models.MismatchLowActivity},
			want: models.InterventionPermanentCenter,
		},
		{
			name: "desert below population cut falls through",
			rec:  &models.PolicyPriorityRecord{Population: 80000, IsDesert: true, MismatchType: models.MismatchLowActivity},
			want: models.InterventionCapacityExpansion,
		},
		{
			name: "population at the boundary is not above it",
			rec:  &models.PolicyPriorityRecord{Population: 100000, IsDesert: true},
			want: models.InterventionMobileEnrollment,
		},
		{
			name: "default",
			rec:  &models.PolicyPriorityRecord{Population: 30000},
			want: models.InterventionMobileEnrollment,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := interventionFor(tt.rec, th); got != tt.want {
				t.Errorf("interventionFor() = %v, want %v", got, tt.want)
			}
		})
	}
}

func TestTopPriorities(t *testing.T) {
	ranked := []*models.PolicyPriorityRecord{
		{Pincode: "100001"}, {Pincode: "100002"}, {Pincode: "100003"},
	}

	if got := TopPriorities(ranked, 2); len(got) != 2 {
		t.Errorf("TopPriorities(2) = %d records, want 2", len(got))
	}
	if got := TopPriorities(ranked, 0); len(got) != 3 {
		t.Errorf("TopPriorities(0) = %d records, want all 3", len(got))
	}
	if got := TopPriorities(ranked, 10); len(got) != 3 {
		t.Errorf("TopPriorities(10) = %d records, want all 3", len(got))
	}
}
