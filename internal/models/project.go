package models

import "time"

const RootProjectName = "root"

type Project struct {
	ID          uint      `gorm:"primaryKey" json:"id"`
	ParentID    *uint     `gorm:"index" json:"parent_id"`
	ClientID    *uint     `gorm:"index" json:"client_id"`
	Name        string    `gorm:"not null" json:"name"`
	Account     string    `gorm:"not null;default:''" json:"account"`
	Description string    `json:"description"`
	Clockable   bool      `gorm:"not null;default:false" json:"clockable"`
	Billable    bool      `gorm:"not null" json:"billable"`
	FlatRate    bool      `gorm:"not null;default:false" json:"flat_rate"`
	Archived    bool      `gorm:"not null;default:false" json:"archived"`
	CreatedAt   time.Time `json:"created_at"`
	UpdatedAt   time.Time `json:"updated_at"`
}

func (project Project) IsRootCandidate() bool {
	return project.Name == RootProjectName
}

// Repository is a source code repository attached to a project.
type Repository struct {
	ID        uint      `gorm:"primaryKey" json:"id"`
	ProjectID uint      `gorm:"not null;index" json:"project_id"`
	URL       string    `gorm:"column:url;not null" json:"url"`
	CreatedAt time.Time `json:"created_at"`
}
