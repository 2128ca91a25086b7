package db

import (
	"github.com/terraincognita07/timebill/internal/models"
	"gorm.io/gorm"
)

type ClientRepository struct {
	database *gorm.DB
}

func NewClientRepository(database *gorm.DB) *ClientRepository {
	return &ClientRepository{database: database}
}

func (repo *ClientRepository) Create(client *models.Client) error {
	return repo.database.Create(client).Error
}

func (repo *ClientRepository) FindByID(clientID uint) (models.Client, bool, error) {
	client := models.Client{}
	found, err := findOne(repo.database.Where("id = ?", clientID), &client)
	return client, found, err
}

func (repo *ClientRepository) ListByIDs(clientIDs []uint) ([]models.Client, error) {
	clients := make([]models.Client, 0, len(clientIDs))
	if len(clientIDs) == 0 {
		return clients, nil
	}
	if err := repo.database.Where("id IN ?", clientIDs).Order("id ASC").Find(&clients).Error; err != nil {
		return nil, err
	}
	return clients, nil
}
