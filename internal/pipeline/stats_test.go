package pipeline

import (
	"math"
	"testing"
)

const epsilon = 1e-9

func almostEqual(a, b float64) bool {
	return math.Abs(a-b) < epsilon
}

func TestMedian(t *testing.T) {
	tests := []struct {
		name   string
		values []float64
		want   float64
		wantOK bool
	}{
		{
			name:   "odd count",
			values: []float64{3, 1, 2},
			want:   2,
			wantOK: true,
		},
		{
			name:   "even count interpolates",
			values: []float64{1, 2, 3, 4},
			want:   2.5,
			wantOK: true,
		},
		{
			name:   "single value",
			values: []float64{7},
			want:   7,
			wantOK: true,
		},
		{
			name:   "empty input",
			values: nil,
			want:   0,
			wantOK: false,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, ok := Median(tt.values)
			if ok != tt.wantOK {
				t.Fatalf("Median() ok = %v, want %v", ok, tt.wantOK)
			}
			if !almostEqual(got, tt.want) {
				t.Errorf("Median() = %v, want %v", got, tt.want)
			}
		})
	}
}

func TestQuantile(t *testing.T) {
	tests := []struct {
		name   string
		values []float64
		q      float64
		want   float64
		wantOK bool
	}{
		{
			name:   "lower quartile interpolates",
			values: []float64{1, 2, 3, 4},
			q:      0.25,
			want:   1.75,
			wantOK: true,
		},
		{
			name:   "upper quartile interpolates",
			values: []float64{1, 2, 3, 4},
			q:      0.75,
			want:   3.25,
			wantOK: true,
		},
		{
			name:   "q zero is minimum",
			values: []float64{5, 1, 3},
			q:      0,
			want:   1,
			wantOK: true,
		},
		{
			name:   "q one is maximum",
			values: []float64{5, 1, 3},
			q:      1,
			want:   5,
			wantOK: true,
		},
		{
			name:   "95th percentile",
			values: []float64{0, 0, 0, 2},
			q:      0.95,
			want:   1.7,
			wantOK: true,
		},
		{
			name:   "empty input",
			values: nil,
			q:      0.5,
			want:   0,
			wantOK: false,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, ok := Quantile(tt.values, tt.q)
			if ok != tt.wantOK {
				t.Fatalf("Quantile() ok = %v, want %v", ok, tt.wantOK)
			}
			if !almostEqual(got, tt.want) {
				t.Errorf("Quantile() = %v, want %v", got, tt.want)
			}
		})
	}
}

func TestQuantileDoesNotMutateInput(t *testing.T) {
	values := []float64{3, 1, 2}
	Quantile(values, 0.5)
	if values[0] != 3 || values[1] != 1 || values[2] != 2 {
		t.Errorf("Quantile() mutated input: %v", values)
	}
}

func TestStdDev(t *testing.T) {
	tests := []struct {
		name   string
		values []float64
		want   float64
	}{
		{
			name:   "sample standard deviation",
			values: []float64{1, 2, 3, 4},
			want:   math.Sqrt(5.0 / 3.0),
		},
		{
			name:   "identical values",
			values: []float64{4, 4, 4},
			want:   0,
		},
		{
			name:   "single value has zero variance",
			values: []float64{9},
			want:   0,
		},
		{
			name:   "empty input",
			values: nil,
			want:   0,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := StdDev(tt.values); !almostEqual(got, tt.want) {
				t.Errorf("StdDev() = %v, want %v", got, tt.want)
			}
		})
	}
}

func TestRankPercentiles(t *testing.T) {
	tests := []struct {
		name   string
		values []float64
		want   []float64
	}{
		{
			name:   "distinct values",
			values: []float64{10, 20, 30, 40, 50},
			want:   []float64{0.2, 0.4, 0.6, 0.8, 1.0},
		},
		{
			name:   "ties share the average rank",
			values: []float64{10, 10, 20},
			want:   []float64{0.5, 0.5, 1.0},
		},
		{
			name:   "order independent",
			values: []float64{30, 10, 20},
			want:   []float64{1.0, 1.0 / 3.0, 2.0 / 3.0},
		},
		{
			name:   "all equal",
			values: []float64{5, 5, 5, 5},
			want:   []float64{0.625, 0.625, 0.625, 0.625},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := RankPercentiles(tt.values)
			if len(got) != len(tt.want) {
				t.Fatalf("RankPercentiles() length = %d, want %d", len(got), len(tt.want))
			}
			for i := range got {
				if !almostEqual(got[i], tt.want[i]) {
					t.Errorf("RankPercentiles()[%d] = %v, want %v", i, got[i], tt.want[i])
				}
			}
		})
	}
}
