package pipeline

import (
	"sort"

	"coverage-platform/internal/config"
	"coverage-platform/internal/models"
)

// AnalyzeTemporal counts distinct calendar months with any activity per
// pincode and computes trend metrics only behind the minimum-coverage gate.
// Pincodes below the gate are flagged insufficient_data with nil change and
// volatility: under-covered pincodes are excluded from trend claims, never
// approximated. This is a policy rule, not a numerical limitation.
func AnalyzeTemporal(
	records []*models.RawRecord,
	aggs []*models.PincodeAggregate,
	th config.Thresholds,
) []*models.TemporalRecord {
	// Monthly activity totals per pincode, keyed by year*100+month.
	monthly := make(map[string]map[int]float64)
	for _, rec := range records {
		if rec.Year == 0 || rec.Month == 0 {
			continue
		}
		activity := rec.TotalActivity()
		if activity <= 0 {
			continue
		}
		key := rec.Year*100 + rec.Month
		if monthly[rec.Pincode] == nil {
			monthly[rec.Pincode] = make(map[int]float64)
		}
		monthly[rec.Pincode][key] += activity
	}

	out := make([]*models.TemporalRecord, 0, len(aggs))
	for _, agg := range aggs {
		rec := &models.TemporalRecord{
			Pincode:    agg.Pincode,
			TrendClass: models.TrendInsufficientData,
		}

		months := monthly[agg.Pincode]
		rec.MonthsObserved = len(months)
		rec.HasSufficientCoverage = rec.MonthsObserved >= th.MinMonthsRequired

		if rec.HasSufficientCoverage {
			series := monthSeries(months)
			change := recentPctChange(series)
			volatility := coefficientOfVariation(series)
			rec.RecentPctChange = &change
			rec.TemporalVolatility = &volatility
			rec.TrendClass = classifyTrend(change, th.TrendChangePct)
		}

		out = append(out, rec)
	}
	return out
}

// monthSeries returns monthly totals in chronological order.
func monthSeries(months map[int]float64) []float64 {
	keys := make([]int, 0, len(months))
	for k := range months {
		keys = append(keys, k)
	}
	sort.Ints(keys)
	series := make([]float64, len(keys))
	for i, k := range keys {
		series[i] = months[k]
	}
	return series
}

// recentPctChange compares the mean of the most recent half of the series
// against the mean of the first half. Zero when the early period had no
// activity to compare against.
func recentPctChange(series []float64) float64 {
	half := len(series) / 2
	early := Mean(series[:half])
	recent := Mean(series[half:])
	if early <= 0 {
		return 0
	}
	return (recent - early) / early * 100
}

// coefficientOfVariation is the volatility measure: sample std over mean.
func coefficientOfVariation(series []float64) float64 {
	mean := Mean(series)
	if mean <= 0 {
		return 0
	}
	return StdDev(series) / mean
}

func classifyTrend(changePct, threshold float64) models.TrendClass {
	switch {
	case changePct > threshold:
		return models.TrendGrowth
	case changePct < -threshold:
		return models.TrendDecline
	default:
		return models.TrendStable
	}
}
