package models

import "time"

// User represents an application user. PublicID is what leaves the
// process (JWT claims, API payloads); the numeric ID stays internal.
type User struct {
	ID           uint   `gorm:"primaryKey"`
	PublicID     string `gorm:"size:36;uniqueIndex;not null"`
	Email        string `gorm:"size:255;uniqueIndex;not null"` // stored lowercased
	Name         string `gorm:"size:64"`
	PasswordHash string `gorm:"size:255;not null"`
	CreatedAt    time.Time
	UpdatedAt    time.Time
}
