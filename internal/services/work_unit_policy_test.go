package services

import (
	"errors"
	"testing"
	"time"

	"github.com/terraincognita07/timebill/internal/models"
)

func TestValidateWorkUnit(t *testing.T) {
	t.Parallel()

	start := time.Date(2026, time.April, 2, 9, 0, 0, 0, time.UTC)
	stop := start.Add(2 * time.Hour)
	early := start.Add(-time.Hour)
	hours := 2.0

	tests := []struct {
		name string
		unit models.WorkUnit
		want []error
	}{
		{
			name: "complete",
			unit: models.WorkUnit{ProjectID: uintPtr(1), StartTime: &start, StopTime: &stop, Hours: &hours},
		},
		{
			name: "in progress",
			unit: models.WorkUnit{ProjectID: uintPtr(1), StartTime: &start},
		},
		{
			name: "manual hours without stop",
			unit: models.WorkUnit{ProjectID: uintPtr(1), StartTime: &start, Hours: &hours, HoursManual: true},
		},
		{
			name: "missing project",
			unit: models.WorkUnit{StartTime: &start},
			want: []error{ErrMissingProject},
		},
		{
			name: "zero project",
			unit: models.WorkUnit{ProjectID: uintPtr(0), StartTime: &start},
			want: []error{ErrMissingProject},
		},
		{
			name: "missing start",
			unit: models.WorkUnit{ProjectID: uintPtr(1), StopTime: &stop},
			want: []error{ErrMissingStartTime},
		},
		{
			name: "stop before start",
			unit: models.WorkUnit{ProjectID: uintPtr(1), StartTime: &start, StopTime: &early},
			want: []error{ErrStopBeforeStart},
		},
		{
			name: "computed hours without stop",
			unit: models.WorkUnit{ProjectID: uintPtr(1), StartTime: &start, Hours: &hours},
			want: []error{ErrHoursWithoutStop},
		},
		{
			name: "every rule at once",
			unit: models.WorkUnit{Hours: &hours},
			want: []error{ErrMissingProject, ErrMissingStartTime, ErrHoursWithoutStop},
		},
	}

	for _, test := range tests {
		test := test
		t.Run(test.name, func(t *testing.T) {
			t.Parallel()

			err := ValidateWorkUnit(test.unit)
			if len(test.want) == 0 {
				if err != nil {
					t.Fatalf("ValidateWorkUnit() unexpected error: %v", err)
				}
				return
			}
			for _, want := range test.want {
				if !errors.Is(err, want) {
					t.Fatalf("ValidateWorkUnit() = %v, want %v", err, want)
				}
			}
			if !IsValidationError(err) {
				t.Fatalf("IsValidationError(%v) = false, want true", err)
			}
		})
	}
}

func TestIsValidationErrorIgnoresStorageFailures(t *testing.T) {
	t.Parallel()

	if IsValidationError(errors.New("disk I/O error")) {
		t.Fatal("IsValidationError() = true for a storage failure")
	}
}
