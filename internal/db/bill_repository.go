package db

import (
	"errors"
	"fmt"
	"time"

	"github.com/terraincognita07/timebill/internal/models"
	"gorm.io/gorm"
)

var errWorkUnitsUnavailable = errors.New("work units are missing or already billed")

type BillRepository struct {
	database *gorm.DB
}

func NewBillRepository(database *gorm.DB) *BillRepository {
	return &BillRepository{database: database}
}

func (repo *BillRepository) FindByID(billID uint) (models.Bill, bool, error) {
	var bill models.Bill
	found, err := findOne(repo.database.Where("id = ?", billID), &bill)
	return bill, found, err
}

// Create inserts the bill and attaches the given unbilled work units of its owner.
// Nothing is written unless every listed unit could be attached.
func (repo *BillRepository) Create(bill *models.Bill, workUnitIDs []uint) error {
	return repo.database.Transaction(func(tx *gorm.DB) error {
		if err := tx.Create(bill).Error; err != nil {
			return err
		}
		if len(workUnitIDs) == 0 {
			return nil
		}

		result := tx.Model(&models.WorkUnit{}).
			Where("id IN ? AND user_id = ? AND bill_id IS NULL", workUnitIDs, bill.UserID).
			Update("bill_id", bill.ID)
		if result.Error != nil {
			return result.Error
		}
		if result.RowsAffected != int64(len(workUnitIDs)) {
			return fmt.Errorf("attach %d work units to bill %d: %w", len(workUnitIDs), bill.ID, errWorkUnitsUnavailable)
		}
		return nil
	})
}

func (repo *BillRepository) Save(bill *models.Bill) error {
	return repo.database.Save(bill).Error
}

// Delete removes the bill after handing its work units to detach, which must clear each
// unit's bill reference through the supplied save. Any error from detach rolls the whole
// deletion back.
func (repo *BillRepository) Delete(billID uint, detach func(units []models.WorkUnit, save func(*models.WorkUnit) error) error) error {
	return repo.database.Transaction(func(tx *gorm.DB) error {
		units := make([]models.WorkUnit, 0)
		if err := tx.Where("bill_id = ?", billID).Order("id ASC").Find(&units).Error; err != nil {
			return err
		}

		save := func(unit *models.WorkUnit) error {
			return tx.Model(unit).Select("bill_id", "updated_at").Updates(map[string]any{
				"bill_id":    unit.BillID,
				"updated_at": time.Now(),
			}).Error
		}
		if err := detach(units, save); err != nil {
			return err
		}

		return tx.Delete(&models.Bill{}, billID).Error
	})
}

// ListByUser returns the user's bills in the given scope, newest first. today anchors
// the overdue scope.
func (repo *BillRepository) ListByUser(userID uint, scope string, today time.Time) ([]models.Bill, error) {
	query := repo.database.Where("user_id = ?", userID)
	switch scope {
	case models.BillScopeOverdue:
		query = query.Where("paid_on IS NULL AND due_on < ?", today)
	case models.BillScopeUnpaid:
		query = query.Where("paid_on IS NULL")
	case models.BillScopePaid:
		query = query.Where("paid_on IS NOT NULL")
	}

	bills := make([]models.Bill, 0)
	if err := query.Order("created_at DESC, id DESC").Find(&bills).Error; err != nil {
		return nil, err
	}
	return bills, nil
}
