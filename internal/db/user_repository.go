package db

import (
	"github.com/terraincognita07/timebill/internal/models"
	"gorm.io/gorm"
)

type UserRepository struct {
	database *gorm.DB
}

func NewUserRepository(database *gorm.DB) *UserRepository {
	return &UserRepository{database: database}
}

func (repo *UserRepository) FindByID(userID uint) (models.User, bool, error) {
	var user models.User
	found, err := findOne(repo.database.Where("id = ?", userID), &user)
	return user, found, err
}

func (repo *UserRepository) FindByLogin(login string) (models.User, bool, error) {
	var user models.User
	found, err := findOne(repo.database.Where("login = ?", login), &user)
	return user, found, err
}

func (repo *UserRepository) Create(user *models.User) error {
	return repo.database.Create(user).Error
}
