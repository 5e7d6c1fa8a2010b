package analysis

import (
	"math"

	"coverage-platform/internal/models"
	"coverage-platform/internal/pipeline"
)

// DemandProfile describes the service-type mix of one pincode's activity.
// DiversityScore is the Shannon entropy of the three activity shares
// normalized by ln(3), so an even mix scores 1 and a single-service pincode
// scores 0.
type DemandProfile struct {
	Pincode         string           `json:"pincode"`
	District        string           `json:"district"`
	UrbanFlag       models.UrbanFlag `json:"urban_flag"`
	BioShare        float64          `json:"bio_share"`
	DemoShare       float64          `json:"demo_share"`
	EnrollShare     float64          `json:"enroll_share"`
	DiversityScore  float64          `json:"diversity_score"`
	DominantService string           `json:"dominant_service"`
}

// DemandCohort summarizes the demand mix of one urban/rural cohort
type DemandCohort struct {
	PincodeCount    int     `json:"pincode_count"`
	MeanBioShare    float64 `json:"mean_bio_share"`
	MeanDemoShare   float64 `json:"mean_demo_share"`
	MeanEnrollShare float64 `json:"mean_enroll_share"`
	MeanDiversity   float64 `json:"mean_diversity"`
}

// DemandComparison contrasts the demand mix of the two cohorts. Pincodes
// with unknown classification are excluded from both.
type DemandComparison struct {
	Rural            DemandCohort `json:"rural"`
	Urban            DemandCohort `json:"urban"`
	MeanDiversityGap float64      `json:"mean_diversity_gap"`
}

// ProfileDemand computes a demand profile for every aggregate. Pincodes with
// zero total activity keep zero shares, zero diversity, and a "none"
// dominant service.
func ProfileDemand(aggs []*models.PincodeAggregate) []*DemandProfile {
	profiles := make([]*DemandProfile, 0, len(aggs))
	for _, agg := range aggs {
		p := &DemandProfile{
			Pincode:         agg.Pincode,
			District:        agg.District,
			UrbanFlag:       agg.UrbanFlag,
			DominantService: "none",
		}
		if agg.TotalActivity > 0 {
			p.BioShare = agg.BioCount / agg.TotalActivity
			p.DemoShare = agg.DemoCount / agg.TotalActivity
			p.EnrollShare = agg.EnrollCount / agg.TotalActivity
			p.DiversityScore = diversityScore(p.BioShare, p.DemoShare, p.EnrollShare)
			p.DominantService = dominantService(p.BioShare, p.DemoShare, p.EnrollShare)
		}
		profiles = append(profiles, p)
	}
	return profiles
}

// diversityScore is Shannon entropy over the nonzero shares, normalized by
// ln(3) so the score lives in [0, 1].
func diversityScore(shares ...float64) float64 {
	entropy := 0.0
	for _, s := range shares {
		if s > 0 {
			entropy -= s * math.Log(s)
		}
	}
	return entropy / math.Log(float64(len(shares)))
}

func dominantService(bio, demo, enroll float64) string {
	name, best := "bio", bio
	if demo > best {
		name, best = "demo", demo
	}
	if enroll > best {
		name = "enroll"
	}
	return name
}

// CompareDemand splits the profiles into urban and rural cohorts and reports
// the mean service-type mix and diversity of each.
func CompareDemand(profiles []*DemandProfile) *DemandComparison {
	var rural, urban []*DemandProfile
	for _, p := range profiles {
		switch p.UrbanFlag {
		case models.UrbanFlagRural:
			rural = append(rural, p)
		case models.UrbanFlagUrban:
			urban = append(urban, p)
		}
	}

	comparison := &DemandComparison{
		Rural: demandCohort(rural),
		Urban: demandCohort(urban),
	}
	if len(rural) > 0 && len(urban) > 0 {
		comparison.MeanDiversityGap = comparison.Rural.MeanDiversity - comparison.Urban.MeanDiversity
	}
	return comparison
}

func demandCohort(profiles []*DemandProfile) DemandCohort {
	cohort := DemandCohort{PincodeCount: len(profiles)}
	if len(profiles) == 0 {
		return cohort
	}

	bio := make([]float64, len(profiles))
	demo := make([]float64, len(profiles))
	enroll := make([]float64, len(profiles))
	diversity := make([]float64, len(profiles))
	for i, p := range profiles {
		bio[i] = p.BioShare
		demo[i] = p.DemoShare
		enroll[i] = p.EnrollShare
		diversity[i] = p.DiversityScore
	}

	cohort.MeanBioShare = pipeline.Mean(bio)
	cohort.MeanDemoShare = pipeline.Mean(demo)
	cohort.MeanEnrollShare = pipeline.Mean(enroll)
	cohort.MeanDiversity = pipeline.Mean(diversity)
	return cohort
}
