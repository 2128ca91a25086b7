package api

import (
	"github.com/terraincognita07/timebill/internal/db"
	"github.com/terraincognita07/timebill/internal/services"
	"go.uber.org/zap"
)

// NewDependencies builds the services over the gorm repositories.
func NewDependencies(repos *db.Repositories, logger *zap.Logger) Dependencies {
	return Dependencies{
		WorkUnits: services.NewWorkUnitService(repos.WorkUnits, repos.Projects),
		Projects:  services.NewProjectService(repos.Projects, repos.Rates, repos.Repositories, repos.Clients),
		Rates:     services.NewRateService(repos.Projects, repos.Rates),
		Bills:     services.NewBillService(repos.Bills, repos.WorkUnits, repos.Projects, repos.Clients),
		Users:     services.NewUserService(repos.Users),
		Logger:    logger,
	}
}
