package models

import "time"

const (
	UserTypeStudent = "student"
	UserTypeAdmin   = "admin"
)

// User is an identity record, immutable after creation as far as the
// alert flow is concerned.
type User struct {
	ID           uint      `gorm:"primaryKey" json:"id"`
	Email        string    `gorm:"size:255;index" json:"email,omitempty"`
	StudentID    string    `gorm:"size:32;index" json:"student_id,omitempty"` // registration number
	Name         string    `gorm:"size:255" json:"name"`
	Course       string    `gorm:"size:255" json:"course,omitempty"`
	Phone        string    `gorm:"size:32" json:"phone,omitempty"`
	UserType     string    `gorm:"size:16;index" json:"user_type"` // "student" | "admin"
	PasswordHash string    `gorm:"size:255" json:"-"`
	CreatedAt    time.Time `json:"created_at"`
	UpdatedAt    time.Time `json:"updated_at"`
}
