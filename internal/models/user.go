package models

import "time"

type User struct {
	ID        uint      `gorm:"primaryKey" json:"id"`
	Login     string    `gorm:"uniqueIndex;not null" json:"login"`
	Name      string    `gorm:"not null;default:''" json:"name"`
	CreatedAt time.Time `gorm:"not null" json:"created_at"`
}
