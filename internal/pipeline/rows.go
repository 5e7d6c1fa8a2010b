package pipeline

import (
	"coverage-platform/internal/models"
)

// MetricRows flattens one pipeline result into persisted per-pincode rows,
// joining every classifier's output on pincode. Pincodes missing from a
// classifier keep zero values for that classifier's columns.
func MetricRows(result *Result, runID string) []*models.PincodeMetricRow {
	desertsByCode := make(map[string]*models.ServiceDesertRecord, len(result.Deserts))
	for _, d := range result.Deserts {
		desertsByCode[d.Pincode] = d
	}
	mismatchByCode := make(map[string]*models.CapacityMismatchRecord, len(result.Mismatches))
	for _, m := range result.Mismatches {
		mismatchByCode[m.Pincode] = m
	}
	consistencyByCode := make(map[string]*models.ConsistencyRecord, len(result.Consistency))
	for _, c := range result.Consistency {
		consistencyByCode[c.Pincode] = c
	}
	temporalByCode := make(map[string]*models.TemporalRecord, len(result.Temporal))
	for _, t := range result.Temporal {
		temporalByCode[t.Pincode] = t
	}

	rows := make([]*models.PincodeMetricRow, 0, len(result.Aggregates))
	for _, agg := range result.Aggregates {
		row := &models.PincodeMetricRow{
			RunID:            runID,
			Pincode:          agg.Pincode,
			District:         agg.District,
			State:            agg.State,
			Population:       agg.Population,
			UrbanFlag:        agg.UrbanFlag,
			TotalActivity:    agg.TotalActivity,
			ActivityPer100k:  agg.ActivityPer100k,
			ImputationSource: agg.ImputationSource,
		}

		if d, ok := desertsByCode[agg.Pincode]; ok {
			row.DistrictActivityPer100k = d.DistrictActivityPer100k
			row.IsDesert = d.IsDesert
			row.SeverityScore = d.SeverityScore
			row.RelativeGapPct = d.RelativeGapPct
			row.DesertPriorityScore = d.PriorityScore
			row.DesertPriorityRank = d.PriorityRank
		}
		if m, ok := mismatchByCode[agg.Pincode]; ok {
			row.UtilizationPercentile = m.UtilizationPercentile
			row.MismatchType = m.MismatchType
			row.MismatchMagnitude = m.MismatchMagnitude
		}
		if c, ok := consistencyByCode[agg.Pincode]; ok {
			row.ConsistencyScore = c.ConsistencyScore
			row.ConsistencyTier = c.ConsistencyTier
			row.StressSignal = c.StressSignal
		}
		if t, ok := temporalByCode[agg.Pincode]; ok {
			row.MonthsObserved = t.MonthsObserved
			row.TrendClass = t.TrendClass
			row.RecentPctChange = t.RecentPctChange
			row.TemporalVolatility = t.TemporalVolatility
		}

		rows = append(rows, row)
	}
	return rows
}
