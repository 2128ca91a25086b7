package services

import (
	"fmt"

	"github.com/terraincognita07/timebill/internal/models"
)

type RateProjectRepository interface {
	ListAll() ([]models.Project, error)
}

type RateRepository interface {
	ListByProject(projectID uint) ([]models.Rate, error)
}

// RateResolution names the project whose rates apply and lists them in order.
type RateResolution struct {
	Owner models.Project
	Rates []models.Rate
}

type RateService struct {
	projects RateProjectRepository
	rates    RateRepository
}

func NewRateService(projects RateProjectRepository, rates RateRepository) *RateService {
	return &RateService{
		projects: projects,
		rates:    rates,
	}
}

// ResolveRates walks up from the project to the one project that supplies its rates.
// The tree is built from a single read so a concurrent hierarchy change is seen either
// entirely or not at all.
func (service *RateService) ResolveRates(projectID uint) (RateResolution, error) {
	projects, err := service.projects.ListAll()
	if err != nil {
		return RateResolution{}, fmt.Errorf("load projects: %w", err)
	}
	tree := NewProjectTree(projects)

	owner, ok := tree.RateOwner(projectID)
	if !ok {
		return RateResolution{}, ErrProjectNotFound
	}
	rates, err := service.rates.ListByProject(owner.ID)
	if err != nil {
		return RateResolution{}, fmt.Errorf("load rates of project %d: %w", owner.ID, err)
	}

	resolved := BaseRates(tree, map[uint][]models.Rate{owner.ID: rates}, projectID)
	return RateResolution{Owner: owner, Rates: resolved}, nil
}

// ResolveRateForUser returns the first resolved rate assigned to the user.
func (service *RateService) ResolveRateForUser(projectID uint, userID uint) (models.Rate, bool, error) {
	resolution, err := service.ResolveRates(projectID)
	if err != nil {
		return models.Rate{}, false, err
	}
	rate, found := RateForUser(resolution.Rates, userID)
	return rate, found, nil
}
