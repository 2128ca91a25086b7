package services

import (
	"fmt"
	"strings"

	"github.com/terraincognita07/timebill/internal/models"
)

// TotalHours sums the hours of the units; units without hours count as zero.
func TotalHours(units []models.WorkUnit) float64 {
	total := 0.0
	for _, unit := range units {
		total += unit.HoursOrZero()
	}
	return total
}

// BillProjectIDs lists the distinct projects of the units in first-occurrence order.
func BillProjectIDs(units []models.WorkUnit) []uint {
	seen := make(map[uint]struct{}, len(units))
	projectIDs := make([]uint, 0, len(units))
	for _, unit := range units {
		if unit.ProjectID == nil {
			continue
		}
		if _, ok := seen[*unit.ProjectID]; ok {
			continue
		}
		seen[*unit.ProjectID] = struct{}{}
		projectIDs = append(projectIDs, *unit.ProjectID)
	}
	return projectIDs
}

// BillClients maps units to their distinct projects and those projects to their distinct
// clients, keeping first-occurrence order. Projects without a client contribute nothing.
func BillClients(units []models.WorkUnit, projects []models.Project, clients []models.Client) []models.Client {
	projectsByID := make(map[uint]models.Project, len(projects))
	for _, project := range projects {
		projectsByID[project.ID] = project
	}
	clientsByID := make(map[uint]models.Client, len(clients))
	for _, client := range clients {
		clientsByID[client.ID] = client
	}

	seen := make(map[uint]struct{}, len(clients))
	result := make([]models.Client, 0, len(clients))
	for _, projectID := range BillProjectIDs(units) {
		project, ok := projectsByID[projectID]
		if !ok || project.ClientID == nil {
			continue
		}
		client, ok := clientsByID[*project.ClientID]
		if !ok {
			continue
		}
		if _, duplicate := seen[client.ID]; duplicate {
			continue
		}
		seen[client.ID] = struct{}{}
		result = append(result, client)
	}
	return result
}

// WorkUnitFailure records one unit that could not be detached from its bill.
type WorkUnitFailure struct {
	WorkUnitID uint
	Err        error
}

// DissociationError lists every unit that failed to detach. It matches
// ErrPartialDissociationFailure under errors.Is.
type DissociationError struct {
	Attempted int
	Failures  []WorkUnitFailure
}

func (err *DissociationError) Error() string {
	parts := make([]string, 0, len(err.Failures))
	for _, failure := range err.Failures {
		parts = append(parts, fmt.Sprintf("work unit %d: %v", failure.WorkUnitID, failure.Err))
	}
	return fmt.Sprintf("%v: %d of %d failed (%s)",
		ErrPartialDissociationFailure, len(err.Failures), err.Attempted, strings.Join(parts, "; "))
}

func (err *DissociationError) Is(target error) bool {
	return target == ErrPartialDissociationFailure
}

func (err *DissociationError) Unwrap() []error {
	causes := make([]error, 0, len(err.Failures))
	for _, failure := range err.Failures {
		causes = append(causes, failure.Err)
	}
	return causes
}

// DissociateWorkUnits clears the bill reference of every unit and persists it with save.
// Every unit is attempted even after a failure; failures come back as one
// *DissociationError so the caller can abort the bill deletion.
func DissociateWorkUnits(units []models.WorkUnit, save func(*models.WorkUnit) error) error {
	failures := make([]WorkUnitFailure, 0)
	for index := range units {
		unit := &units[index]
		previous := unit.BillID
		unit.BillID = nil
		if err := save(unit); err != nil {
			unit.BillID = previous
			failures = append(failures, WorkUnitFailure{WorkUnitID: unit.ID, Err: err})
		}
	}
	if len(failures) == 0 {
		return nil
	}
	return &DissociationError{Attempted: len(units), Failures: failures}
}
