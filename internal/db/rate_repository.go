package db

import (
	"github.com/terraincognita07/timebill/internal/models"
	"gorm.io/gorm"
)

type RateRepository struct {
	database *gorm.DB
}

func NewRateRepository(database *gorm.DB) *RateRepository {
	return &RateRepository{database: database}
}

func (repo *RateRepository) ListByProject(projectID uint) ([]models.Rate, error) {
	rates := make([]models.Rate, 0)
	if err := repo.database.
		Preload("Users").
		Where("project_id = ?", projectID).
		Order("id ASC").
		Find(&rates).Error; err != nil {
		return nil, err
	}
	return rates, nil
}

func (repo *RateRepository) FindByID(rateID uint) (models.Rate, bool, error) {
	var rate models.Rate
	found, err := findOne(repo.database.Preload("Users").Where("id = ?", rateID), &rate)
	return rate, found, err
}

// ApplyBatch writes creates, updates and deletions for one project atomically.
func (repo *RateRepository) ApplyBatch(projectID uint, upserts []*models.Rate, deletions []uint) error {
	return repo.database.Transaction(func(tx *gorm.DB) error {
		for _, rate := range upserts {
			owner := projectID
			rate.ProjectID = &owner
			if err := tx.Omit("Users").Save(rate).Error; err != nil {
				return err
			}
		}
		for _, rateID := range deletions {
			if err := deleteRateTx(tx, rateID); err != nil {
				return err
			}
		}
		return nil
	})
}

// ReplaceUsers sets the exact set of users the rate applies to.
func (repo *RateRepository) ReplaceUsers(rateID uint, userIDs []uint) error {
	return repo.database.Transaction(func(tx *gorm.DB) error {
		rate := models.Rate{ID: rateID}
		users := make([]models.User, 0, len(userIDs))
		for _, userID := range userIDs {
			users = append(users, models.User{ID: userID})
		}
		if len(users) == 0 {
			return tx.Model(&rate).Association("Users").Clear()
		}
		return tx.Model(&rate).Association("Users").Replace(users)
	})
}

// Delete clears the rate's user links before removing the rate.
func (repo *RateRepository) Delete(rateID uint) error {
	return repo.database.Transaction(func(tx *gorm.DB) error {
		return deleteRateTx(tx, rateID)
	})
}

func deleteRateTx(tx *gorm.DB, rateID uint) error {
	rate := models.Rate{ID: rateID}
	if err := tx.Model(&rate).Association("Users").Clear(); err != nil {
		return err
	}
	return tx.Delete(&models.Rate{}, rateID).Error
}
