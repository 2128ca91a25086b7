package models

import "time"

type Rate struct {
	ID        uint      `gorm:"primaryKey" json:"id"`
	ProjectID *uint     `gorm:"index" json:"project_id"`
	Name      string    `gorm:"not null" json:"name"`
	Amount    int       `gorm:"not null" json:"amount"`
	Users     []User    `gorm:"many2many:rates_users;" json:"users,omitempty"`
	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}

func (rate Rate) AssignedTo(userID uint) bool {
	for _, user := range rate.Users {
		if user.ID == userID {
			return true
		}
	}
	return false
}
