package models

import (
	"fmt"
	"strings"
)

// MissingPopulationSourceError means the raw dataset carries no
// population-bearing field. Fatal: the run aborts.
type MissingPopulationSourceError struct {
	Columns []string
}

func (e *MissingPopulationSourceError) Error() string {
	return fmt.Sprintf(
		"no population source found: need total_population/population or male_population+female_population, have [%s]",
		strings.Join(e.Columns, ", "),
	)
}

// IsTransient returns false as schema errors are permanent
func (e *MissingPopulationSourceError) IsTransient() bool {
	return false
}

// NoValidPopulationDataError means every population value in the dataset was
// invalid, leaving the global median undefined. Fatal: the run aborts.
type NoValidPopulationDataError struct {
	PincodeCount int
}

func (e *NoValidPopulationDataError) Error() string {
	return fmt.Sprintf(
		"no valid population data: all %d pincodes have missing or non-positive population, global median undefined",
		e.PincodeCount,
	)
}

func (e *NoValidPopulationDataError) IsTransient() bool {
	return false
}

// ValidationError represents a per-record data validation error
type ValidationError struct {
	Field   string
	Value   string
	Message string
}

func (e *ValidationError) Error() string {
	return e.Message
}

// IsTransient returns false as validation errors are permanent
func (e *ValidationError) IsTransient() bool {
	return false
}
