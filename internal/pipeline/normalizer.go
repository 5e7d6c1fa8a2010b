package pipeline

import (
	"fmt"
	"math"
	"strconv"
	"strings"

	"coverage-platform/internal/config"
	"coverage-platform/internal/models"
)

// Schema maps normalized source columns to field positions. Resolved once
// per dataset; normalization itself is a pure per-row transform.
type Schema struct {
	pincode  int
	district int
	state    int

	totalPopulation  int
	malePopulation   int
	femalePopulation int

	bioCount    int
	demoCount   int
	enrollCount int

	urbanFlag  int
	urbanShare int

	year  int
	month int

	urbanShareThreshold float64
}

const noColumn = -1

// NormalizeColumnName lowercases, trims, and collapses spaces/hyphens to
// underscores so header variants resolve to one canonical name.
func NormalizeColumnName(name string) string {
	s := strings.ToLower(strings.TrimSpace(name))
	s = strings.ReplaceAll(s, " ", "_")
	s = strings.ReplaceAll(s, "-", "_")
	return s
}

// ResolveSchema inspects a header row and locates every field the pipeline
// consumes. It fails with MissingPopulationSourceError when neither a total
// population column nor a male+female pair is present; every other field is
// optional and defaults at normalization time.
func ResolveSchema(header []string, th config.Thresholds) (*Schema, error) {
	s := &Schema{
		pincode:             noColumn,
		district:            noColumn,
		state:               noColumn,
		totalPopulation:     noColumn,
		malePopulation:      noColumn,
		femalePopulation:    noColumn,
		bioCount:            noColumn,
		demoCount:           noColumn,
		enrollCount:         noColumn,
		urbanFlag:           noColumn,
		urbanShare:          noColumn,
		year:                noColumn,
		month:               noColumn,
		urbanShareThreshold: th.UrbanShareThreshold,
	}

	normalized := make([]string, len(header))
	for i, col := range header {
		name := NormalizeColumnName(col)
		normalized[i] = name

		switch name {
		case "pincode", "area_code":
			s.pincode = i
		case "district":
			s.district = i
		case "state":
			s.state = i
		case "total_population":
			s.totalPopulation = i
		case "population":
			if s.totalPopulation == noColumn {
				s.totalPopulation = i
			}
		case "male_population":
			s.malePopulation = i
		case "female_population":
			s.femalePopulation = i
		case "bio_count", "biometric_update_count", "bio_update_count":
			s.bioCount = i
		case "demo_count", "demographic_update_count", "demo_update_count":
			s.demoCount = i
		case "enroll_count", "enrollment_count", "new_enrolment_count":
			s.enrollCount = i
		case "urban_flag", "urban_rural":
			s.urbanFlag = i
		case "urban_share", "urban_ratio", "urban_population_share":
			s.urbanShare = i
		case "year":
			s.year = i
		case "month":
			s.month = i
		}
	}

	if s.pincode == noColumn {
		return nil, fmt.Errorf("required column missing: pincode")
	}

	hasTotal := s.totalPopulation != noColumn
	hasSplit := s.malePopulation != noColumn && s.femalePopulation != noColumn
	if !hasTotal && !hasSplit {
		return nil, &models.MissingPopulationSourceError{Columns: normalized}
	}

	return s, nil
}

// Normalize converts one raw row into the canonical record schema. Pure:
// the same row always yields the same record.
func (s *Schema) Normalize(row []string) (*models.RawRecord, error) {
	get := func(i int) string {
		if i == noColumn || i >= len(row) {
			return ""
		}
		return strings.TrimSpace(row[i])
	}

	code := get(s.pincode)
	if code == "" {
		return nil, &models.ValidationError{
			Field:   "pincode",
			Value:   code,
			Message: "empty pincode",
		}
	}

	rec := &models.RawRecord{
		District: strings.TrimSpace(get(s.district)),
		State:    strings.TrimSpace(get(s.state)),
	}
	rec.Pincode, rec.PincodeFlagged = normalizePincode(code)

	// Population: total field first, else male+female, per the resolution
	// order established at schema time.
	if s.totalPopulation != noColumn {
		if v, ok := parseFloat(get(s.totalPopulation)); ok {
			rec.Population = v
			rec.HasPopulation = true
		}
	} else {
		male, okM := parseFloat(get(s.malePopulation))
		female, okF := parseFloat(get(s.femalePopulation))
		if okM && okF {
			rec.Population = male + female
			rec.HasPopulation = true
		}
	}

	// Missing activity counters default to 0, never null.
	rec.BioCount = parseFloatOrZero(get(s.bioCount))
	rec.DemoCount = parseFloatOrZero(get(s.demoCount))
	rec.EnrollCount = parseFloatOrZero(get(s.enrollCount))

	rec.UrbanFlag = s.resolveUrbanFlag(get(s.urbanFlag), get(s.urbanShare))

	if v, ok := parseInt(get(s.year)); ok {
		rec.Year = v
	}
	if v, ok := parseInt(get(s.month)); ok && v >= 1 && v <= 12 {
		rec.Month = v
	}

	return rec, nil
}

func (s *Schema) resolveUrbanFlag(direct, share string) models.UrbanFlag {
	switch strings.ToLower(direct) {
	case "urban":
		return models.UrbanFlagUrban
	case "rural":
		return models.UrbanFlagRural
	}
	if v, ok := parseFloat(share); ok {
		if v >= s.urbanShareThreshold {
			return models.UrbanFlagUrban
		}
		return models.UrbanFlagRural
	}
	return models.UrbanFlagUnknown
}

// normalizePincode zero-pads digit codes to the fixed 6-character width so
// leading zeros survive round trips through numeric tooling. Codes that do
// not parse as digits are retained as-is but flagged.
func normalizePincode(code string) (string, bool) {
	for _, r := range code {
		if r < '0' || r > '9' {
			return code, true
		}
	}
	if len(code) < 6 {
		return strings.Repeat("0", 6-len(code)) + code, false
	}
	return code, false
}

func parseFloat(s string) (float64, bool) {
	if s == "" {
		return 0, false
	}
	v, err := strconv.ParseFloat(s, 64)
	if err != nil || math.IsNaN(v) || math.IsInf(v, 0) {
		return 0, false
	}
	return v, true
}

func parseFloatOrZero(s string) float64 {
	v, ok := parseFloat(s)
	if !ok {
		return 0
	}
	return v
}

func parseInt(s string) (int, bool) {
	if s == "" {
		return 0, false
	}
	v, err := strconv.Atoi(s)
	if err != nil {
		// Tolerate "2024.0" style exports.
		f, ferr := strconv.ParseFloat(s, 64)
		if ferr != nil {
			return 0, false
		}
		v = int(f)
	}
	return v, true
}
