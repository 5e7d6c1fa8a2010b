package analysis

import (
	"context"
	"fmt"
	"math"
	"os"
	"path/filepath"
	"sort"

	"gonum.org/v1/plot"
	"gonum.org/v1/plot/plotter"
	"gonum.org/v1/plot/vg"

	"coverage-platform/internal/models"
	"coverage-platform/internal/pipeline"
	"coverage-platform/pkg/logging"
)

// ChartWriter renders diagnostic PNG charts for one analysis run
type ChartWriter struct {
	outputDir string
	logger    *logging.StructuredLogger
}

// NewChartWriter creates a chart writer rooted at outputDir
func NewChartWriter(outputDir string, logger *logging.StructuredLogger) *ChartWriter {
	return &ChartWriter{
		outputDir: outputDir,
		logger:    logger,
	}
}

// RenderAll writes the full chart set and returns the written paths
func (c *ChartWriter) RenderAll(ctx context.Context, result *pipeline.Result) ([]string, error) {
	if err := os.MkdirAll(c.outputDir, 0o755); err != nil {
		return nil, fmt.Errorf("failed to create chart directory: %w", err)
	}

	var written []string

	path := filepath.Join(c.outputDir, "rate_distribution.png")
	if err := c.rateHistogram(result.Aggregates, path); err != nil {
		return written, fmt.Errorf("failed to render rate histogram: %w", err)
	}
	written = append(written, path)

	path = filepath.Join(c.outputDir, "severity_vs_population.png")
	if err := c.severityScatter(result.Deserts, path); err != nil {
		return written, fmt.Errorf("failed to render severity scatter: %w", err)
	}
	written = append(written, path)

	path = filepath.Join(c.outputDir, "intervention_mix.png")
	if err := c.interventionBars(result.Priorities, path); err != nil {
		return written, fmt.Errorf("failed to render intervention bars: %w", err)
	}
	written = append(written, path)

	path = filepath.Join(c.outputDir, "consistency_scores.png")
	if err := c.consistencyHistogram(result.Consistency, path); err != nil {
		return written, fmt.Errorf("failed to render consistency histogram: %w", err)
	}
	written = append(written, path)

	path = filepath.Join(c.outputDir, "top_district_deserts.png")
	if err := c.topDistrictBars(result, path); err != nil {
		return written, fmt.Errorf("failed to render district bars: %w", err)
	}
	written = append(written, path)

	c.logger.Info(ctx, "[CHARTS_COMPLETE] Chart set rendered", logging.Fields{
		"output_dir": c.outputDir,
		"file_count": len(written),
	})

	return written, nil
}

// rateHistogram plots the national activity-rate distribution
func (c *ChartWriter) rateHistogram(aggs []*models.PincodeAggregate, path string) error {
	values := make(plotter.Values, 0, len(aggs))
	for _, agg := range aggs {
		if !math.IsNaN(agg.ActivityPer100k) && !math.IsInf(agg.ActivityPer100k, 0) {
			values = append(values, agg.ActivityPer100k)
		}
	}
	if len(values) == 0 {
		return fmt.Errorf("no finite rates to plot")
	}

	p := plot.New()
	p.Title.Text = "Activity per 100k Population"
	p.X.Label.Text = "activity_per_100k"
	p.Y.Label.Text = "pincodes"

	hist, err := plotter.NewHist(values, 40)
	if err != nil {
		return err
	}
	p.Add(hist)

	return p.Save(8*vg.Inch, 5*vg.Inch, path)
}

// severityScatter plots desert severity against population
func (c *ChartWriter) severityScatter(deserts []*models.ServiceDesertRecord, path string) error {
	pts := make(plotter.XYs, 0, len(deserts))
	for _, d := range deserts {
		if d.IsDesert {
			pts = append(pts, plotter.XY{X: d.Population, Y: d.SeverityScore})
		}
	}

	p := plot.New()
	p.Title.Text = "Service Desert Severity vs Population"
	p.X.Label.Text = "population"
	p.Y.Label.Text = "severity_score"

	if len(pts) > 0 {
		scatter, err := plotter.NewScatter(pts)
		if err != nil {
			return err
		}
		p.Add(scatter)
	}

	return p.Save(8*vg.Inch, 5*vg.Inch, path)
}

// interventionBars plots the recommended-intervention mix
func (c *ChartWriter) interventionBars(priorities []*models.PolicyPriorityRecord, path string) error {
	order := []models.InterventionType{
		models.InterventionPermanentCenter,
		models.InterventionCapacityExpansion,
		models.InterventionMobileEnrollment,
	}
	counts := make(map[models.InterventionType]int)
	for _, pr := range priorities {
		counts[pr.InterventionType]++
	}

	values := make(plotter.Values, len(order))
	labels := make([]string, len(order))
	for i, t := range order {
		values[i] = float64(counts[t])
		labels[i] = string(t)
	}

	p := plot.New()
	p.Title.Text = "Recommended Interventions"
	p.Y.Label.Text = "pincodes"

	bars, err := plotter.NewBarChart(values, vg.Points(40))
	if err != nil {
		return err
	}
	p.Add(bars)
	p.NominalX(labels...)

	return p.Save(8*vg.Inch, 5*vg.Inch, path)
}

// consistencyHistogram plots the distribution of consistency scores
func (c *ChartWriter) consistencyHistogram(records []*models.ConsistencyRecord, path string) error {
	values := make(plotter.Values, 0, len(records))
	for _, r := range records {
		values = append(values, r.ConsistencyScore)
	}
	if len(values) == 0 {
		return fmt.Errorf("no consistency scores to plot")
	}

	p := plot.New()
	p.Title.Text = "Consistency Score Distribution"
	p.X.Label.Text = "consistency_score"
	p.Y.Label.Text = "pincodes"

	hist, err := plotter.NewHist(values, 20)
	if err != nil {
		return err
	}
	p.Add(hist)

	return p.Save(8*vg.Inch, 5*vg.Inch, path)
}

// topDistrictBars plots the districts with the most service deserts
func (c *ChartWriter) topDistrictBars(result *pipeline.Result, path string) error {
	const maxBars = 15

	summaries := SummarizeDistricts(result)
	sort.Slice(summaries, func(i, j int) bool {
		if summaries[i].DesertCount != summaries[j].DesertCount {
			return summaries[i].DesertCount > summaries[j].DesertCount
		}
		return summaries[i].District < summaries[j].District
	})
	if len(summaries) > maxBars {
		summaries = summaries[:maxBars]
	}

	values := make(plotter.Values, len(summaries))
	labels := make([]string, len(summaries))
	for i, s := range summaries {
		values[i] = float64(s.DesertCount)
		labels[i] = s.District
	}

	p := plot.New()
	p.Title.Text = "Service Deserts by District"
	p.Y.Label.Text = "desert_count"
	p.X.Tick.Label.Rotation = math.Pi / 4
	p.X.Tick.Label.XAlign = -1
	p.X.Tick.Label.YAlign = -0.5

	bars, err := plotter.NewBarChart(values, vg.Points(20))
	if err != nil {
		return err
	}
	p.Add(bars)
	p.NominalX(labels...)

	return p.Save(8*vg.Inch, 5*vg.Inch, path)
}
