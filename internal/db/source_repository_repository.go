package db

import (
	"github.com/terraincognita07/timebill/internal/models"
	"gorm.io/gorm"
)

// SourceRepositoryRepository persists the source code repositories linked to projects.
type SourceRepositoryRepository struct {
	database *gorm.DB
}

func NewSourceRepositoryRepository(database *gorm.DB) *SourceRepositoryRepository {
	return &SourceRepositoryRepository{database: database}
}

func (repo *SourceRepositoryRepository) ListByProject(projectID uint) ([]models.Repository, error) {
	repositories := make([]models.Repository, 0)
	if err := repo.database.Where("project_id = ?", projectID).Order("id ASC").Find(&repositories).Error; err != nil {
		return nil, err
	}
	return repositories, nil
}

func (repo *SourceRepositoryRepository) ApplyBatch(projectID uint, upserts []*models.Repository, deletions []uint) error {
	return repo.database.Transaction(func(tx *gorm.DB) error {
		for _, repository := range upserts {
			repository.ProjectID = projectID
			if err := tx.Save(repository).Error; err != nil {
				return err
			}
		}
		if len(deletions) == 0 {
			return nil
		}
		return tx.Where("project_id = ? AND id IN ?", projectID, deletions).Delete(&models.Repository{}).Error
	})
}
