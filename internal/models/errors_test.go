package models

import (
	"strings"
	"testing"
)

func TestMissingPopulationSourceError(t *testing.T) {
	err := &MissingPopulationSourceError{Columns: []string{"pincode", "district"}}

	msg := err.Error()
	if !strings.Contains(msg, "no population source") {
		t.Errorf("Error() = %q, want population source message", msg)
	}
	if !strings.Contains(msg, "pincode, district") {
		t.Errorf("Error() = %q, want observed columns listed", msg)
	}
	if err.IsTransient() {
		t.Error("IsTransient() = true, schema errors are permanent")
	}
}

func TestNoValidPopulationDataError(t *testing.T) {
	err := &NoValidPopulationDataError{PincodeCount: 42}

	if !strings.Contains(err.Error(), "42") {
		t.Errorf("Error() = %q, want pincode count included", err.Error())
	}
	if err.IsTransient() {
		t.Error("IsTransient() = true, want false")
	}
}

func TestValidationError(t *testing.T) {
	err := &ValidationError{Field: "population", Value: "-5", Message: "population must be positive"}

	if err.Error() != "population must be positive" {
		t.Errorf("Error() = %q, want the message verbatim", err.Error())
	}
	if err.IsTransient() {
		t.Error("IsTransient() = true, want false")
	}
}

func TestValidationReportFailed(t *testing.T) {
	tests := []struct {
		name   string
		checks []ValidationCheck
		want   bool
	}{
		{
			name: "all pass",
			checks: []ValidationCheck{
				{CheckName: "a", Result: "PASS"},
				{CheckName: "b", Result: "PASS"},
			},
			want: false,
		},
		{
			name: "one failure",
			checks: []ValidationCheck{
				{CheckName: "a", Result: "PASS"},
				{CheckName: "b", Result: "FAIL"},
			},
			want: true,
		},
		{
			name: "empty report",
			want: false,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			report := ValidationReport{Domain: "aggregates", Checks: tt.checks}
			if got := report.Failed(); got != tt.want {
				t.Errorf("Failed() = %v, want %v", got, tt.want)
			}
		})
	}
}
