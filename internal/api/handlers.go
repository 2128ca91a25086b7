package api

import (
	"errors"
	"time"

	"github.com/terraincognita07/timebill/internal/services"
	"go.uber.org/zap"
)

const (
	contextUserIDKey    = "user_id"
	contextRequestIDKey = "request_id"
)

// Dependencies are the services a Handler serves over HTTP.
type Dependencies struct {
	WorkUnits *services.WorkUnitService
	Projects  *services.ProjectService
	Rates     *services.RateService
	Bills     *services.BillService
	Users     *services.UserService
	Logger    *zap.Logger
}

type Handler struct {
	workUnits *services.WorkUnitService
	projects  *services.ProjectService
	rates     *services.RateService
	bills     *services.BillService
	users     *services.UserService
	logger    *zap.Logger
	secretKey []byte
	location  *time.Location
	now       func() time.Time
}

func NewHandler(deps Dependencies, secret string, location *time.Location) (*Handler, error) {
	if deps.WorkUnits == nil || deps.Projects == nil || deps.Rates == nil || deps.Bills == nil || deps.Users == nil {
		return nil, errors.New("all services are required")
	}
	if secret == "" {
		return nil, errors.New("secret key is required")
	}
	if location == nil {
		location = time.UTC
	}
	logger := deps.Logger
	if logger == nil {
		logger = zap.NewNop()
	}

	return &Handler{
		workUnits: deps.WorkUnits,
		projects:  deps.Projects,
		rates:     deps.Rates,
		bills:     deps.Bills,
		users:     deps.Users,
		logger:    logger,
		secretKey: []byte(secret),
		location:  location,
		now:       time.Now,
	}, nil
}
