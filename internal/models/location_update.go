package models

import "time"

// LocationUpdate is one append-only position sample for an alert.
// Samples are never mutated or deleted; the owning alert's lat/lon is a
// cached projection of the latest one.
type LocationUpdate struct {
	ID        uint      `gorm:"primaryKey" json:"id"`
	AlertID   uint      `gorm:"index" json:"alert_id"`
	Latitude  float64   `json:"latitude"`
	Longitude float64   `json:"longitude"`
	CreatedAt time.Time `json:"created_at"`
}
