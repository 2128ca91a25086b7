package db

import (
	"time"

	"github.com/terraincognita07/timebill/internal/models"
	"gorm.io/gorm"
)

type WorkUnitRepository struct {
	database *gorm.DB
}

func NewWorkUnitRepository(database *gorm.DB) *WorkUnitRepository {
	return &WorkUnitRepository{database: database}
}

func (repo *WorkUnitRepository) FindByID(workUnitID uint) (models.WorkUnit, bool, error) {
	var unit models.WorkUnit
	found, err := findOne(repo.database.Where("id = ?", workUnitID), &unit)
	return unit, found, err
}

// Create inserts the work unit and, when given, its annotation in one transaction.
func (repo *WorkUnitRepository) Create(unit *models.WorkUnit, annotation *models.Activity) error {
	return repo.database.Transaction(func(tx *gorm.DB) error {
		stored := utcWorkUnit(*unit)
		if err := tx.Create(&stored).Error; err != nil {
			return err
		}
		unit.ID = stored.ID
		unit.CreatedAt = stored.CreatedAt
		unit.UpdatedAt = stored.UpdatedAt
		if annotation == nil {
			return nil
		}

		workUnitID := unit.ID
		annotation.WorkUnitID = &workUnitID
		annotation.Time = utcTime(annotation.Time)
		return tx.Create(annotation).Error
	})
}

func (repo *WorkUnitRepository) Save(unit *models.WorkUnit) error {
	stored := utcWorkUnit(*unit)
	if err := repo.database.Save(&stored).Error; err != nil {
		return err
	}
	unit.ID = stored.ID
	unit.UpdatedAt = stored.UpdatedAt
	return nil
}

func (repo *WorkUnitRepository) Delete(workUnitID uint) error {
	return repo.database.Transaction(func(tx *gorm.DB) error {
		if err := tx.Model(&models.Activity{}).
			Where("work_unit_id = ?", workUnitID).
			Update("work_unit_id", nil).Error; err != nil {
			return err
		}
		return tx.Delete(&models.WorkUnit{}, workUnitID).Error
	})
}

func (repo *WorkUnitRepository) ListByBill(billID uint) ([]models.WorkUnit, error) {
	units := make([]models.WorkUnit, 0)
	if err := repo.database.Where("bill_id = ?", billID).Order("id ASC").Find(&units).Error; err != nil {
		return nil, err
	}
	return units, nil
}

func (repo *WorkUnitRepository) ListByIDs(workUnitIDs []uint) ([]models.WorkUnit, error) {
	units := make([]models.WorkUnit, 0, len(workUnitIDs))
	if len(workUnitIDs) == 0 {
		return units, nil
	}
	if err := repo.database.Where("id IN ?", workUnitIDs).Order("id ASC").Find(&units).Error; err != nil {
		return nil, err
	}
	return units, nil
}

// ListByUserRange returns the user's work units overlapping [from, to). A unit still in
// progress is listed only in the range holding its start.
func (repo *WorkUnitRepository) ListByUserRange(userID uint, from time.Time, to time.Time) ([]models.WorkUnit, error) {
	units := make([]models.WorkUnit, 0)
	if err := repo.database.
		Where("user_id = ? AND start_time < ?", userID, to.UTC()).
		Where("(start_time >= ? OR (stop_time IS NOT NULL AND stop_time > ?))", from.UTC(), from.UTC()).
		Order("start_time ASC, id ASC").
		Find(&units).Error; err != nil {
		return nil, err
	}
	return units, nil
}

func (repo *WorkUnitRepository) ListActivities(workUnitID uint) ([]models.Activity, error) {
	activities := make([]models.Activity, 0)
	if err := repo.database.Where("work_unit_id = ?", workUnitID).Order("id ASC").Find(&activities).Error; err != nil {
		return nil, err
	}
	return activities, nil
}

// utcWorkUnit stores timestamps in UTC so that text comparisons in range queries line up.
// The caller keeps its zone-local copy.
func utcWorkUnit(unit models.WorkUnit) models.WorkUnit {
	unit.StartTime = utcTime(unit.StartTime)
	unit.StopTime = utcTime(unit.StopTime)
	return unit
}

func utcTime(value *time.Time) *time.Time {
	if value == nil {
		return nil
	}
	normalized := value.UTC()
	return &normalized
}
