package services

import (
	"errors"
	"fmt"
	"strconv"
	"strings"
	"time"

	"github.com/terraincognita07/timebill/internal/models"
)

type WorkUnitRepository interface {
	FindByID(workUnitID uint) (models.WorkUnit, bool, error)
	Create(unit *models.WorkUnit, annotation *models.Activity) error
	Save(unit *models.WorkUnit) error
	Delete(workUnitID uint) error
	ListByUserRange(userID uint, from time.Time, to time.Time) ([]models.WorkUnit, error)
}

type WorkUnitProjectRepository interface {
	FindByID(projectID uint) (models.Project, bool, error)
}

// WorkUnitInput carries the raw fields of a new work unit. Times are parsed in the
// zone built from TimeZoneOffset.
type WorkUnitInput struct {
	ProjectID      *uint
	Start          string
	Stop           string
	TimeZoneOffset int
	ManualHours    string
	AutoStop       bool
	Billable       *bool
	Notes          string
	Annotation     string
}

// WorkUnitPatch changes only the fields that are set.
type WorkUnitPatch struct {
	ProjectID      *uint
	Start          *string
	Stop           *string
	TimeZoneOffset *int
	ManualHours    *string
	AutoStop       bool
	Billable       *bool
	Notes          *string
}

func (patch WorkUnitPatch) touchesTiming() bool {
	return patch.Start != nil ||
		patch.Stop != nil ||
		patch.TimeZoneOffset != nil ||
		patch.ManualHours != nil ||
		patch.AutoStop
}

type WorkUnitService struct {
	units    WorkUnitRepository
	projects WorkUnitProjectRepository
}

func NewWorkUnitService(units WorkUnitRepository, projects WorkUnitProjectRepository) *WorkUnitService {
	return &WorkUnitService{
		units:    units,
		projects: projects,
	}
}

// Create resolves the duration, validates and stores a work unit for the user. A
// non-blank annotation is stored as an activity in the same transaction. On a rule
// violation the unresolved unit is returned together with the joined error.
func (service *WorkUnitService) Create(userID uint, input WorkUnitInput, now time.Time) (models.WorkUnit, error) {
	start, err := ParseTimeInput(input.Start, input.TimeZoneOffset, now)
	if err != nil {
		return models.WorkUnit{}, err
	}
	stop, err := ParseTimeInput(input.Stop, input.TimeZoneOffset, now)
	if err != nil {
		return models.WorkUnit{}, err
	}

	unit := models.WorkUnit{
		UserID:    userID,
		ProjectID: normalizeID(input.ProjectID),
		TimeZone:  input.TimeZoneOffset,
		Billable:  true,
		Notes:     strings.TrimSpace(input.Notes),
	}
	if input.Billable != nil {
		unit.Billable = *input.Billable
	}

	if err := applyDuration(&unit, DurationInput{
		Start:          start,
		Stop:           stop,
		TimeZoneOffset: input.TimeZoneOffset,
		ManualHours:    input.ManualHours,
		AutoStop:       input.AutoStop,
	}, now); err != nil {
		return unit, err
	}

	if err := service.validate(unit); err != nil {
		return unit, err
	}

	annotation := buildAnnotation(unit, input.Annotation)
	if err := service.units.Create(&unit, annotation); err != nil {
		return models.WorkUnit{}, fmt.Errorf("create work unit: %w", err)
	}
	return unit, nil
}

// Update applies the patch to the user's work unit. The duration is resolved again only
// when a timing field is part of the patch. Manually entered hours survive a timing
// change unless the patch replaces or clears them, or stops the unit automatically
// without hours of its own.
func (service *WorkUnitService) Update(userID uint, workUnitID uint, patch WorkUnitPatch, now time.Time) (models.WorkUnit, error) {
	unit, err := service.Find(userID, workUnitID)
	if err != nil {
		return models.WorkUnit{}, err
	}

	if patch.ProjectID != nil {
		unit.ProjectID = normalizeID(patch.ProjectID)
	}
	if patch.Billable != nil {
		unit.Billable = *patch.Billable
	}
	if patch.Notes != nil {
		unit.Notes = strings.TrimSpace(*patch.Notes)
	}

	if patch.touchesTiming() {
		offset := unit.TimeZone
		if patch.TimeZoneOffset != nil {
			offset = *patch.TimeZoneOffset
		}

		start := unit.StartTime
		if patch.Start != nil {
			if start, err = ParseTimeInput(*patch.Start, offset, now); err != nil {
				return models.WorkUnit{}, err
			}
		}
		stop := unit.StopTime
		if patch.Stop != nil {
			if stop, err = ParseTimeInput(*patch.Stop, offset, now); err != nil {
				return models.WorkUnit{}, err
			}
		}

		manualHours := ""
		switch {
		case patch.ManualHours != nil:
			manualHours = *patch.ManualHours
		case unit.HoursManual && unit.Hours != nil && !patch.AutoStop:
			manualHours = strconv.FormatFloat(*unit.Hours, 'f', -1, 64)
		}

		unit.TimeZone = offset
		if err := applyDuration(&unit, DurationInput{
			Start:          start,
			Stop:           stop,
			TimeZoneOffset: offset,
			ManualHours:    manualHours,
			AutoStop:       patch.AutoStop,
		}, now); err != nil {
			return unit, err
		}
	}

	if err := service.validate(unit); err != nil {
		return unit, err
	}
	if err := service.units.Save(&unit); err != nil {
		return models.WorkUnit{}, fmt.Errorf("update work unit %d: %w", unit.ID, err)
	}
	return unit, nil
}

// Find returns the user's work unit; units of other users are reported as missing.
func (service *WorkUnitService) Find(userID uint, workUnitID uint) (models.WorkUnit, error) {
	unit, found, err := service.units.FindByID(workUnitID)
	if err != nil {
		return models.WorkUnit{}, fmt.Errorf("load work unit %d: %w", workUnitID, err)
	}
	if !found || unit.UserID != userID {
		return models.WorkUnit{}, ErrWorkUnitNotFound
	}
	return unit, nil
}

func (service *WorkUnitService) Delete(userID uint, workUnitID uint) error {
	if _, err := service.Find(userID, workUnitID); err != nil {
		return err
	}
	if err := service.units.Delete(workUnitID); err != nil {
		return fmt.Errorf("delete work unit %d: %w", workUnitID, err)
	}
	return nil
}

// ListForUserRange returns the units overlapping the calendar days from..to, inclusive,
// as seen in location.
func (service *WorkUnitService) ListForUserRange(userID uint, from time.Time, to time.Time, location *time.Location) ([]models.WorkUnit, error) {
	if location == nil {
		location = time.UTC
	}
	if to.Before(from) {
		from, to = to, from
	}
	rangeStart, _ := DayRange(from, location)
	_, rangeEnd := DayRange(to, location)
	return service.units.ListByUserRange(userID, rangeStart, rangeEnd)
}

func (service *WorkUnitService) validate(unit models.WorkUnit) error {
	violations := make([]error, 0, 2)
	if err := ValidateWorkUnit(unit); err != nil {
		violations = append(violations, err)
	}

	if unit.ProjectID != nil {
		_, found, err := service.projects.FindByID(*unit.ProjectID)
		if err != nil {
			return fmt.Errorf("load project %d: %w", *unit.ProjectID, err)
		}
		if !found {
			violations = append(violations, ErrProjectNotFound)
		}
	}
	return joinViolations(violations)
}

// applyDuration writes the resolved duration into unit. A stop before the start is left
// for the validator to report; malformed input is returned as is.
func applyDuration(unit *models.WorkUnit, input DurationInput, now time.Time) error {
	result, err := ResolveDuration(input, now)
	if err != nil && !errors.Is(err, ErrStopBeforeStart) {
		return err
	}

	unit.StartTime = input.Start
	if input.Start != nil {
		if zone, zoneErr := ZoneForOffset(input.TimeZoneOffset); zoneErr == nil {
			localized := input.Start.In(zone)
			unit.StartTime = &localized
		}
	}
	unit.StopTime = result.Stop
	unit.Hours = result.Hours
	unit.HoursManual = result.Manual
	return nil
}

func buildAnnotation(unit models.WorkUnit, description string) *models.Activity {
	description = strings.TrimSpace(description)
	if description == "" || unit.ProjectID == nil {
		return nil
	}
	return &models.Activity{
		UserID:      unit.UserID,
		ProjectID:   *unit.ProjectID,
		Description: description,
		Action:      models.ActivityActionAnnotation,
		Source:      models.ActivitySourceUser,
		Time:        unit.StopTime,
	}
}

// normalizeID treats a zero id as unset.
func normalizeID(id *uint) *uint {
	if id == nil || *id == 0 {
		return nil
	}
	value := *id
	return &value
}
