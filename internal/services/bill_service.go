package services

import (
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/terraincognita07/timebill/internal/models"
	"github.com/terraincognita07/timebill/internal/reference"
)

type BillRepository interface {
	FindByID(billID uint) (models.Bill, bool, error)
	Create(bill *models.Bill, workUnitIDs []uint) error
	Save(bill *models.Bill) error
	Delete(billID uint, detach func(units []models.WorkUnit, save func(*models.WorkUnit) error) error) error
	ListByUser(userID uint, scope string, today time.Time) ([]models.Bill, error)
}

type BillWorkUnitRepository interface {
	ListByBill(billID uint) ([]models.WorkUnit, error)
	ListByIDs(workUnitIDs []uint) ([]models.WorkUnit, error)
}

type BillProjectRepository interface {
	ListByIDs(projectIDs []uint) ([]models.Project, error)
}

type BillClientRepository interface {
	ListByIDs(clientIDs []uint) ([]models.Client, error)
}

type BillInput struct {
	Notes           string
	DueOn           *time.Time
	ReferenceNumber string
	WorkUnitIDs     []uint
}

// BillSummary holds the values derived from a bill's work units.
type BillSummary struct {
	Bill          models.Bill
	TotalHours    float64
	Clients       []models.Client
	WorkUnitCount int
	Paid          bool
	Overdue       bool
}

type BillService struct {
	bills     BillRepository
	workUnits BillWorkUnitRepository
	projects  BillProjectRepository
	clients   BillClientRepository
}

func NewBillService(bills BillRepository, workUnits BillWorkUnitRepository, projects BillProjectRepository, clients BillClientRepository) *BillService {
	return &BillService{
		bills:     bills,
		workUnits: workUnits,
		projects:  projects,
		clients:   clients,
	}
}

func (service *BillService) Find(billID uint) (models.Bill, error) {
	bill, found, err := service.bills.FindByID(billID)
	if err != nil {
		return models.Bill{}, fmt.Errorf("load bill %d: %w", billID, err)
	}
	if !found {
		return models.Bill{}, ErrBillNotFound
	}
	return bill, nil
}

// Summary totals the hours of the bill's work units and lists the distinct clients
// behind their projects.
func (service *BillService) Summary(billID uint, now time.Time) (BillSummary, error) {
	bill, err := service.Find(billID)
	if err != nil {
		return BillSummary{}, err
	}

	units, err := service.workUnits.ListByBill(billID)
	if err != nil {
		return BillSummary{}, fmt.Errorf("load work units of bill %d: %w", billID, err)
	}
	projects, err := service.projects.ListByIDs(BillProjectIDs(units))
	if err != nil {
		return BillSummary{}, fmt.Errorf("load projects of bill %d: %w", billID, err)
	}
	clients, err := service.clients.ListByIDs(projectClientIDs(projects))
	if err != nil {
		return BillSummary{}, fmt.Errorf("load clients of bill %d: %w", billID, err)
	}

	return BillSummary{
		Bill:          bill,
		TotalHours:    TotalHours(units),
		Clients:       BillClients(units, projects, clients),
		WorkUnitCount: len(units),
		Paid:          bill.Paid(),
		Overdue:       bill.Overdue(now),
	}, nil
}

// DeleteBill detaches every work unit from the bill and removes it in one transaction.
// Work units are never deleted; if any of them cannot be detached nothing changes and a
// *DissociationError is returned.
func (service *BillService) DeleteBill(billID uint) error {
	if _, err := service.Find(billID); err != nil {
		return err
	}
	if err := service.bills.Delete(billID, DissociateWorkUnits); err != nil {
		if errors.Is(err, ErrPartialDissociationFailure) {
			return err
		}
		return fmt.Errorf("delete bill %d: %w", billID, err)
	}
	return nil
}

// CreateBill stores a bill for the user and attaches the listed work units, which must
// belong to the user and not be billed yet.
func (service *BillService) CreateBill(userID uint, input BillInput) (models.Bill, error) {
	if userID == 0 {
		return models.Bill{}, ErrBillUserMissing
	}

	workUnitIDs := uniqueSortedIDs(input.WorkUnitIDs)
	if err := service.checkBillableUnits(userID, workUnitIDs); err != nil {
		return models.Bill{}, err
	}

	referenceNumber := strings.TrimSpace(input.ReferenceNumber)
	if referenceNumber == "" {
		generated, err := reference.NewBillNumber()
		if err != nil {
			return models.Bill{}, fmt.Errorf("generate bill reference number: %w", err)
		}
		referenceNumber = generated
	}

	bill := models.Bill{
		UserID:          userID,
		Notes:           strings.TrimSpace(input.Notes),
		DueOn:           calendarDate(input.DueOn),
		ReferenceNumber: referenceNumber,
	}
	if err := service.bills.Create(&bill, workUnitIDs); err != nil {
		return models.Bill{}, fmt.Errorf("create bill: %w", err)
	}
	return bill, nil
}

func (service *BillService) checkBillableUnits(userID uint, workUnitIDs []uint) error {
	if len(workUnitIDs) == 0 {
		return nil
	}
	units, err := service.workUnits.ListByIDs(workUnitIDs)
	if err != nil {
		return fmt.Errorf("load work units: %w", err)
	}

	byID := make(map[uint]models.WorkUnit, len(units))
	for _, unit := range units {
		byID[unit.ID] = unit
	}

	violations := make([]error, 0)
	for _, workUnitID := range workUnitIDs {
		unit, ok := byID[workUnitID]
		switch {
		case !ok:
			violations = append(violations, fmt.Errorf("work unit %d: %w", workUnitID, ErrWorkUnitNotFound))
		case unit.UserID != userID:
			violations = append(violations, fmt.Errorf("work unit %d: %w", workUnitID, ErrWorkUnitOwnerMismatch))
		case unit.BillID != nil:
			violations = append(violations, fmt.Errorf("work unit %d: %w", workUnitID, ErrWorkUnitAlreadyBilled))
		}
	}
	return joinViolations(violations)
}

// List returns the user's bills in scope; a blank scope means all of them.
func (service *BillService) List(userID uint, scope string, now time.Time) ([]models.Bill, error) {
	scope = strings.ToLower(strings.TrimSpace(scope))
	if scope == "" {
		scope = models.BillScopeAll
	}
	switch scope {
	case models.BillScopeAll, models.BillScopeOverdue, models.BillScopeUnpaid, models.BillScopePaid:
	default:
		return nil, ErrInvalidBillScope
	}

	today := calendarDate(&now)
	bills, err := service.bills.ListByUser(userID, scope, *today)
	if err != nil {
		return nil, fmt.Errorf("list bills: %w", err)
	}
	return bills, nil
}

// MarkPaid records the day the bill was paid; a nil day marks it unpaid again.
func (service *BillService) MarkPaid(billID uint, day *time.Time) (models.Bill, error) {
	bill, err := service.Find(billID)
	if err != nil {
		return models.Bill{}, err
	}
	bill.PaidOn = calendarDate(day)
	if err := service.bills.Save(&bill); err != nil {
		return models.Bill{}, fmt.Errorf("save bill %d: %w", billID, err)
	}
	return bill, nil
}

func projectClientIDs(projects []models.Project) []uint {
	clientIDs := make([]uint, 0, len(projects))
	for _, project := range projects {
		if project.ClientID != nil {
			clientIDs = append(clientIDs, *project.ClientID)
		}
	}
	return uniqueSortedIDs(clientIDs)
}

// calendarDate keeps only the year, month and day of value as UTC midnight.
func calendarDate(value *time.Time) *time.Time {
	if value == nil {
		return nil
	}
	year, month, day := value.Date()
	date := time.Date(year, month, day, 0, 0, 0, 0, time.UTC)
	return &date
}
