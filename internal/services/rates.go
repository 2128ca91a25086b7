package services

import "github.com/terraincognita07/timebill/internal/models"

// RateOwner returns the one project whose rates apply to projectID: the nearest
// base project on the way up, or the last reachable project when the chain ends
// without meeting the root.
func (tree *ProjectTree) RateOwner(projectID uint) (models.Project, bool) {
	position, ok := tree.index[projectID]
	if !ok {
		return models.Project{}, false
	}

	for _, cursor := range tree.chain(position) {
		node := tree.nodes[cursor]
		if node.parent < 0 || node.parent == tree.root {
			return node.project, true
		}
	}
	// A truncated chain means the parent links loop; fall back to the project itself.
	return tree.nodes[position].project, true
}

// BaseRates resolves the rates for projectID from ratesByProject. Rates are never
// merged across levels.
func BaseRates(tree *ProjectTree, ratesByProject map[uint][]models.Rate, projectID uint) []models.Rate {
	owner, ok := tree.RateOwner(projectID)
	if !ok {
		return []models.Rate{}
	}
	rates := ratesByProject[owner.ID]
	if rates == nil {
		return []models.Rate{}
	}
	return rates
}

// RateForUser picks the first rate in order that is assigned to the user.
func RateForUser(rates []models.Rate, userID uint) (models.Rate, bool) {
	for _, rate := range rates {
		if rate.AssignedTo(userID) {
			return rate, true
		}
	}
	return models.Rate{}, false
}

// ValidateRate joins every rule the rate violates.
func ValidateRate(rate models.Rate) error {
	violations := make([]error, 0, 2)
	if isBlank(rate.Name) {
		violations = append(violations, ErrRateNameMissing)
	}
	if rate.Amount < 0 {
		violations = append(violations, ErrInvalidRateAmount)
	}
	return joinViolations(violations)
}
