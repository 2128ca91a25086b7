package services

import (
	"errors"
	"strings"

	"github.com/terraincognita07/timebill/internal/models"
)

// ValidateWorkUnit reports every rule the unit breaks, joined into one error.
// Manually entered hours are their own duration basis and need no stop time.
func ValidateWorkUnit(unit models.WorkUnit) error {
	violations := make([]error, 0, 3)
	if unit.ProjectID == nil || *unit.ProjectID == 0 {
		violations = append(violations, ErrMissingProject)
	}
	if unit.StartTime == nil {
		violations = append(violations, ErrMissingStartTime)
	}
	if unit.StartTime != nil && unit.StopTime != nil && unit.StopTime.Before(*unit.StartTime) {
		violations = append(violations, ErrStopBeforeStart)
	}
	if unit.Hours != nil && unit.StopTime == nil && !unit.HoursManual {
		violations = append(violations, ErrHoursWithoutStop)
	}
	return joinViolations(violations)
}

// IsValidationError reports whether err carries a rule violation rather than a
// storage failure.
func IsValidationError(err error) bool {
	for _, target := range []error{
		ErrMissingProject,
		ErrMissingStartTime,
		ErrStopBeforeStart,
		ErrHoursWithoutStop,
		ErrInvalidDurationFormat,
		ErrInvalidTimeInput,
		ErrInvalidTimeZone,
		ErrMissingProjectName,
		ErrMissingParent,
		ErrDuplicateRootProject,
		ErrParentProjectNotFound,
		ErrClientNotFound,
		ErrProjectHierarchyCycle,
		ErrInvalidRateAmount,
		ErrRateNameMissing,
		ErrRepositoryURLMissing,
		ErrBillUserMissing,
		ErrWorkUnitAlreadyBilled,
		ErrWorkUnitOwnerMismatch,
		ErrInvalidBillScope,
	} {
		if errors.Is(err, target) {
			return true
		}
	}
	return false
}

func joinViolations(violations []error) error {
	if len(violations) == 0 {
		return nil
	}
	return errors.Join(violations...)
}

func isBlank(value string) bool {
	return strings.TrimSpace(value) == ""
}
