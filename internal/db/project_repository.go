package db

import (
	"github.com/terraincognita07/timebill/internal/models"
	"gorm.io/gorm"
)

type ProjectRepository struct {
	database *gorm.DB
}

func NewProjectRepository(database *gorm.DB) *ProjectRepository {
	return &ProjectRepository{database: database}
}

// ListAll returns every project in a single read so callers can build a consistent tree.
func (repo *ProjectRepository) ListAll() ([]models.Project, error) {
	projects := make([]models.Project, 0)
	if err := repo.database.Order("id ASC").Find(&projects).Error; err != nil {
		return nil, err
	}
	return projects, nil
}

func (repo *ProjectRepository) ListByArchived(archived bool) ([]models.Project, error) {
	projects := make([]models.Project, 0)
	if err := repo.database.Where("archived = ?", archived).Order("name ASC, id ASC").Find(&projects).Error; err != nil {
		return nil, err
	}
	return projects, nil
}

func (repo *ProjectRepository) FindByID(projectID uint) (models.Project, bool, error) {
	var project models.Project
	found, err := findOne(repo.database.Where("id = ?", projectID), &project)
	return project, found, err
}

func (repo *ProjectRepository) ListByIDs(projectIDs []uint) ([]models.Project, error) {
	projects := make([]models.Project, 0, len(projectIDs))
	if len(projectIDs) == 0 {
		return projects, nil
	}
	if err := repo.database.Where("id IN ?", projectIDs).Order("id ASC").Find(&projects).Error; err != nil {
		return nil, err
	}
	return projects, nil
}

// Save creates or updates the project. When detachRates is set, every rate pointing at
// the project loses its owner in the same transaction.
func (repo *ProjectRepository) Save(project *models.Project, detachRates bool) error {
	return repo.database.Transaction(func(tx *gorm.DB) error {
		if err := tx.Save(project).Error; err != nil {
			return err
		}
		if !detachRates {
			return nil
		}
		return tx.Model(&models.Rate{}).
			Where("project_id = ?", project.ID).
			Update("project_id", nil).Error
	})
}

// Delete removes a leaf project. Work units keep existing with their project cleared.
func (repo *ProjectRepository) Delete(projectID uint) error {
	return repo.database.Transaction(func(tx *gorm.DB) error {
		if err := tx.Model(&models.WorkUnit{}).
			Where("project_id = ?", projectID).
			Update("project_id", nil).Error; err != nil {
			return err
		}
		if err := tx.Model(&models.Rate{}).
			Where("project_id = ?", projectID).
			Update("project_id", nil).Error; err != nil {
			return err
		}
		if err := tx.Where("project_id = ?", projectID).Delete(&models.Activity{}).Error; err != nil {
			return err
		}
		if err := tx.Where("project_id = ?", projectID).Delete(&models.Repository{}).Error; err != nil {
			return err
		}
		return tx.Delete(&models.Project{}, projectID).Error
	})
}

type projectRepositoryCount struct {
	ProjectID uint  `gorm:"column:project_id"`
	Total     int64 `gorm:"column:total"`
}

// CountRepositories returns the number of source repositories attached to each project.
func (repo *ProjectRepository) CountRepositories() (map[uint]int, error) {
	rows := make([]projectRepositoryCount, 0)
	if err := repo.database.Model(&models.Repository{}).
		Select("project_id, COUNT(*) AS total").
		Group("project_id").
		Scan(&rows).Error; err != nil {
		return nil, err
	}

	counts := make(map[uint]int, len(rows))
	for _, row := range rows {
		counts[row.ProjectID] = int(row.Total)
	}
	return counts, nil
}
