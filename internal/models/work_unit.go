package models

import "time"

type WorkUnit struct {
	ID          uint       `gorm:"primaryKey" json:"id"`
	UserID      uint       `gorm:"not null;index" json:"user_id"`
	ProjectID   *uint      `gorm:"index" json:"project_id"`
	BillID      *uint      `gorm:"index" json:"bill_id"`
	StartTime   *time.Time `json:"start_time"`
	StopTime    *time.Time `json:"stop_time"`
	TimeZone    int        `gorm:"not null;default:0" json:"time_zone"`
	Hours       *float64   `json:"hours"`
	HoursManual bool       `gorm:"not null;default:false" json:"hours_manual"`
	Billable    bool       `gorm:"not null" json:"billable"`
	Notes       string     `json:"notes"`
	CreatedAt   time.Time  `json:"created_at"`
	UpdatedAt   time.Time  `json:"updated_at"`
}

func (unit WorkUnit) InProgress() bool {
	return unit.StopTime == nil
}

func (unit WorkUnit) HoursOrZero() float64 {
	if unit.Hours == nil {
		return 0
	}
	return *unit.Hours
}

const (
	ActivityActionAnnotation = "Annotation"
	ActivitySourceUser       = "User"
)

// Activity is an annotation recorded against a project, usually alongside a work unit.
type Activity struct {
	ID          uint       `gorm:"primaryKey" json:"id"`
	UserID      uint       `gorm:"not null;index" json:"user_id"`
	ProjectID   uint       `gorm:"not null;index" json:"project_id"`
	WorkUnitID  *uint      `gorm:"index" json:"work_unit_id"`
	Description string     `gorm:"not null" json:"description"`
	Action      string     `gorm:"not null" json:"action"`
	Source      string     `gorm:"not null" json:"source"`
	Time        *time.Time `json:"time"`
	CreatedAt   time.Time  `json:"created_at"`
}
