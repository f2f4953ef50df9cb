package models

import "time"

// Alert lifecycle statuses. Resolved and false_alarm are terminal.
const (
	StatusActive     = "active"
	StatusInProgress = "in_progress"
	StatusResolved   = "resolved"
	StatusFalseAlarm = "false_alarm"
)

// Alert is one emergency activation. Student display fields are
// denormalized at creation time; latitude/longitude always hold the most
// recent known position for the session. Alerts are never deleted.
type Alert struct {
	ID          uint       `gorm:"primaryKey" json:"id"`
	UserID      uint       `gorm:"index" json:"user_id"`
	StudentID   string     `gorm:"size:32" json:"student_id"`
	StudentName string     `gorm:"size:255" json:"student_name"`
	Course      string     `gorm:"size:255" json:"course,omitempty"`
	Latitude    float64    `json:"latitude"`
	Longitude   float64    `json:"longitude"`
	Status      string     `gorm:"size:16;index;default:active" json:"status"`
	CreatedAt   time.Time  `gorm:"index" json:"created_at"`
	UpdatedAt   time.Time  `json:"updated_at"`
	ResolvedAt  *time.Time `json:"resolved_at,omitempty"`
	ResolvedBy  *uint      `json:"resolved_by,omitempty"`
}

// ValidStatus reports whether s names a known lifecycle status.
func ValidStatus(s string) bool {
	switch s {
	case StatusActive, StatusInProgress, StatusResolved, StatusFalseAlarm:
		return true
	}
	return false
}

// TerminalStatus reports whether s permits no further transitions.
func TerminalStatus(s string) bool {
	return s == StatusResolved || s == StatusFalseAlarm
}
