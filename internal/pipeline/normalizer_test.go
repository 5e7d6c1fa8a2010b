package pipeline

import (
	"errors"
	"testing"

	"coverage-platform/internal/config"
	"coverage-platform/internal/models"
)

func TestResolveSchema(t *testing.T) {
	th := config.DefaultThresholds()

	tests := []struct {
		name        string
		header      []string
		wantErr     bool
		wantPopErr  bool
	}{
		{
			name:    "total population column",
			header:  []string{"pincode", "district", "state", "total_population"},
			wantErr: false,
		},
		{
			name:    "male and female pair",
			header:  []string{"Pincode", "Male Population", "Female-Population"},
			wantErr: false,
		},
		{
			name:    "header variants normalize",
			header:  []string{"PINCODE", "Total Population", "Biometric Update Count"},
			wantErr: false,
		},
		{
			name:       "no population source",
			header:     []string{"pincode", "district", "bio_count"},
			wantErr:    true,
			wantPopErr: true,
		},
		{
			name:       "male only is not a population source",
			header:     []string{"pincode", "male_population"},
			wantErr:    true,
			wantPopErr: true,
		},
		{
			name:    "missing pincode",
			header:  []string{"district", "total_population"},
			wantErr: true,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := ResolveSchema(tt.header, th)
			if (err != nil) != tt.wantErr {
				t.Fatalf("ResolveSchema() error = %v, wantErr %v", err, tt.wantErr)
			}
			if tt.wantPopErr {
				var popErr *models.MissingPopulationSourceError
				if !errors.As(err, &popErr) {
					t.Errorf("ResolveSchema() error = %T, want MissingPopulationSourceError", err)
				}
			}
		})
	}
}

func TestSchemaNormalize(t *testing.T) {
	th := config.DefaultThresholds()

	tests := []struct {
		name        string
		header      []string
		row         []string
		wantErr     bool
		checkValues func(*testing.T, *models.RawRecord)
	}{
		{
			name:   "full row",
			header: []string{"pincode", "district", "state", "total_population", "bio_count", "demo_count", "enroll_count", "urban_flag", "year", "month"},
			row:    []string{"110001", "Central", "Delhi", "50000", "100", "50", "25", "urban", "2024", "3"},
			checkValues: func(t *testing.T, rec *models.RawRecord) {
				if rec.Pincode != "110001" {
					t.Errorf("Pincode = %v, want 110001", rec.Pincode)
				}
				if !rec.HasPopulation || rec.Population != 50000 {
					t.Errorf("Population = %v (has=%v), want 50000", rec.Population, rec.HasPopulation)
				}
				if rec.TotalActivity() != 175 {
					t.Errorf("TotalActivity() = %v, want 175", rec.TotalActivity())
				}
				if rec.UrbanFlag != models.UrbanFlagUrban {
					t.Errorf("UrbanFlag = %v, want urban", rec.UrbanFlag)
				}
				if rec.Year != 2024 || rec.Month != 3 {
					t.Errorf("Year/Month = %d/%d, want 2024/3", rec.Year, rec.Month)
				}
			},
		},
		{
			name:   "short pincode zero-padded",
			header: []string{"pincode", "total_population"},
			row:    []string{"1234", "1000"},
			checkValues: func(t *testing.T, rec *models.RawRecord) {
				if rec.Pincode != "001234" {
					t.Errorf("Pincode = %v, want 001234", rec.Pincode)
				}
				if rec.PincodeFlagged {
					t.Error("PincodeFlagged should be false for digit codes")
				}
			},
		},
		{
			name:   "overlong digit pincode retained as-is",
			header: []string{"pincode", "total_population"},
			row:    []string{"1234567", "1000"},
			checkValues: func(t *testing.T, rec *models.RawRecord) {
				if rec.Pincode != "1234567" {
					t.Errorf("Pincode = %v, want 1234567 retained as-is", rec.Pincode)
				}
				if rec.PincodeFlagged {
					t.Error("PincodeFlagged should be false for digit codes")
				}
			},
		},
		{
			name:   "non-digit pincode flagged but retained",
			header: []string{"pincode", "total_population"},
			row:    []string{"12A45", "1000"},
			checkValues: func(t *testing.T, rec *models.RawRecord) {
				if rec.Pincode != "12A45" {
					t.Errorf("Pincode = %v, want 12A45 retained as-is", rec.Pincode)
				}
				if !rec.PincodeFlagged {
					t.Error("PincodeFlagged should be true for non-digit codes")
				}
			},
		},
		{
			name:   "population from male and female",
			header: []string{"pincode", "male_population", "female_population"},
			row:    []string{"110001", "26000", "24000"},
			checkValues: func(t *testing.T, rec *models.RawRecord) {
				if !rec.HasPopulation || rec.Population != 50000 {
					t.Errorf("Population = %v (has=%v), want 50000", rec.Population, rec.HasPopulation)
				}
			},
		},
		{
			name:   "unparseable population not fabricated",
			header: []string{"pincode", "total_population"},
			row:    []string{"110001", "n/a"},
			checkValues: func(t *testing.T, rec *models.RawRecord) {
				if rec.HasPopulation {
					t.Error("HasPopulation should be false for unparseable value")
				}
			},
		},
		{
			name:   "missing counters default to zero",
			header: []string{"pincode", "total_population", "bio_count"},
			row:    []string{"110001", "1000", ""},
			checkValues: func(t *testing.T, rec *models.RawRecord) {
				if rec.BioCount != 0 || rec.DemoCount != 0 || rec.EnrollCount != 0 {
					t.Errorf("counters = %v/%v/%v, want all 0", rec.BioCount, rec.DemoCount, rec.EnrollCount)
				}
			},
		},
		{
			name:   "urban share above threshold",
			header: []string{"pincode", "total_population", "urban_share"},
			row:    []string{"110001", "1000", "0.8"},
			checkValues: func(t *testing.T, rec *models.RawRecord) {
				if rec.UrbanFlag != models.UrbanFlagUrban {
					t.Errorf("UrbanFlag = %v, want urban", rec.UrbanFlag)
				}
			},
		},
		{
			name:   "urban share below threshold",
			header: []string{"pincode", "total_population", "urban_share"},
			row:    []string{"110001", "1000", "0.2"},
			checkValues: func(t *testing.T, rec *models.RawRecord) {
				if rec.UrbanFlag != models.UrbanFlagRural {
					t.Errorf("UrbanFlag = %v, want rural", rec.UrbanFlag)
				}
			},
		},
		{
			name:   "no urban signal stays unknown",
			header: []string{"pincode", "total_population"},
			row:    []string{"110001", "1000"},
			checkValues: func(t *testing.T, rec *models.RawRecord) {
				if rec.UrbanFlag != models.UrbanFlagUnknown {
					t.Errorf("UrbanFlag = %v, want unknown", rec.UrbanFlag)
				}
			},
		},
		{
			name:   "float-formatted year tolerated",
			header: []string{"pincode", "total_population", "year", "month"},
			row:    []string{"110001", "1000", "2024.0", "5"},
			checkValues: func(t *testing.T, rec *models.RawRecord) {
				if rec.Year != 2024 {
					t.Errorf("Year = %d, want 2024", rec.Year)
				}
			},
		},
		{
			name:   "out of range month dropped",
			header: []string{"pincode", "total_population", "month"},
			row:    []string{"110001", "1000", "13"},
			checkValues: func(t *testing.T, rec *models.RawRecord) {
				if rec.Month != 0 {
					t.Errorf("Month = %d, want 0", rec.Month)
				}
			},
		},
		{
			name:    "empty pincode rejected",
			header:  []string{"pincode", "total_population"},
			row:     []string{"", "1000"},
			wantErr: true,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			schema, err := ResolveSchema(tt.header, th)
			if err != nil {
				t.Fatalf("ResolveSchema() unexpected error: %v", err)
			}

			rec, err := schema.Normalize(tt.row)
			if (err != nil) != tt.wantErr {
				t.Fatalf("Normalize() error = %v, wantErr %v", err, tt.wantErr)
			}
			if !tt.wantErr && tt.checkValues != nil {
				tt.checkValues(t, rec)
			}
		})
	}
}

func TestNormalizeColumnName(t *testing.T) {
	tests := []struct {
		in   string
		want string
	}{
		{"Total Population", "total_population"},
		{"  PINCODE  ", "pincode"},
		{"urban-rural", "urban_rural"},
		{"bio_count", "bio_count"},
	}

	for _, tt := range tests {
		if got := NormalizeColumnName(tt.in); got != tt.want {
			t.Errorf("NormalizeColumnName(%q) = %q, want %q", tt.in, got, tt.want)
		}
	}
}
