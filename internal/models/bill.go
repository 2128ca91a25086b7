package models

import "time"

const (
	BillScopeAll     = "all"
	BillScopeOverdue = "overdue"
	BillScopeUnpaid  = "unpaid"
	BillScopePaid    = "paid"
)

type Bill struct {
	ID              uint       `gorm:"primaryKey" json:"id"`
	UserID          uint       `gorm:"not null;index" json:"user_id"`
	Notes           string     `json:"notes"`
	DueOn           *time.Time `gorm:"type:date" json:"due_on"`
	PaidOn          *time.Time `gorm:"type:date" json:"paid_on"`
	ReferenceNumber string     `gorm:"not null;default:''" json:"reference_number"`
	CreatedAt       time.Time  `json:"created_at"`
	UpdatedAt       time.Time  `json:"updated_at"`
}

func (bill Bill) Paid() bool {
	return bill.PaidOn != nil
}

// Overdue reports whether the bill is unpaid and its due date is a calendar day before
// the day of now.
func (bill Bill) Overdue(now time.Time) bool {
	if bill.Paid() || bill.DueOn == nil {
		return false
	}
	return calendarDay(*bill.DueOn).Before(calendarDay(now))
}

func calendarDay(value time.Time) time.Time {
	year, month, day := value.Date()
	return time.Date(year, month, day, 0, 0, 0, 0, time.UTC)
}
