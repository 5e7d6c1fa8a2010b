package analysis

import (
	"math"

	"coverage-platform/internal/models"
	"coverage-platform/internal/pipeline"
)

const (
	iqrFence       = 1.5
	madZThreshold  = 3.0
	madConsistency = 0.6745
)

// OutlierReason names the rule that flagged a pincode
type OutlierReason string

const (
	ReasonIQRHigh OutlierReason = "iqr_high"
	ReasonIQRLow  OutlierReason = "iqr_low"
	ReasonMAD     OutlierReason = "mad_extreme"
)

// Outlier is one flagged pincode with every rule it tripped
type Outlier struct {
	Pincode         string          `json:"pincode"`
	District        string          `json:"district"`
	ActivityPer100k float64         `json:"activity_per_100k"`
	Reasons         []OutlierReason `json:"reasons"`
}

// DetectRateOutliers flags pincodes whose activity rate is extreme against
// the national distribution, by two independent rules: the Tukey fence at
// 1.5 IQR beyond the quartiles, and a modified z-score above 3 using the
// median absolute deviation. A pincode can trip both.
func DetectRateOutliers(aggs []*models.PincodeAggregate) []Outlier {
	if len(aggs) < 4 {
		return nil
	}

	rates := make([]float64, len(aggs))
	for i, agg := range aggs {
		rates[i] = agg.ActivityPer100k
	}

	q1, _ := pipeline.Quantile(rates, 0.25)
	q3, _ := pipeline.Quantile(rates, 0.75)
	iqr := q3 - q1
	lowFence := q1 - iqrFence*iqr
	highFence := q3 + iqrFence*iqr

	median, _ := pipeline.Median(rates)
	deviations := make([]float64, len(rates))
	for i, r := range rates {
		deviations[i] = math.Abs(r - median)
	}
	mad, _ := pipeline.Median(deviations)

	var out []Outlier
	for _, agg := range aggs {
		var reasons []OutlierReason
		rate := agg.ActivityPer100k

		if rate > highFence {
			reasons = append(reasons, ReasonIQRHigh)
		} else if rate < lowFence {
			reasons = append(reasons, ReasonIQRLow)
		}

		if mad > 0 {
			z := madConsistency * math.Abs(rate-median) / mad
			if z > madZThreshold {
				reasons = append(reasons, ReasonMAD)
			}
		}

		if len(reasons) > 0 {
			out = append(out, Outlier{
				Pincode:         agg.Pincode,
				District:        agg.District,
				ActivityPer100k: rate,
				Reasons:         reasons,
			})
		}
	}
	return out
}
