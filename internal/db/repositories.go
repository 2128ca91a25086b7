package db

import "gorm.io/gorm"

type Repositories struct {
	Users        *UserRepository
	Clients      *ClientRepository
	Projects     *ProjectRepository
	Rates        *RateRepository
	Repositories *SourceRepositoryRepository
	WorkUnits    *WorkUnitRepository
	Bills        *BillRepository
}

func NewRepositories(database *gorm.DB) *Repositories {
	return &Repositories{
		Users:        NewUserRepository(database),
		Clients:      NewClientRepository(database),
		Projects:     NewProjectRepository(database),
		Rates:        NewRateRepository(database),
		Repositories: NewSourceRepositoryRepository(database),
		WorkUnits:    NewWorkUnitRepository(database),
		Bills:        NewBillRepository(database),
	}
}

// findOne loads the first row matching the query into entry and reports whether one existed.
func findOne[T any](query *gorm.DB, entry *T) (bool, error) {
	result := query.Limit(1).Find(entry)
	if result.Error != nil {
		return false, result.Error
	}
	return result.RowsAffected > 0, nil
}
