package models

import "time"

// TransactionRule auto-assigns a category and/or kind to a transaction
// whose description matches Pattern. Rules are evaluated in
// (priority asc, id asc) order; the first match wins.
type TransactionRule struct {
	ID            uint    `gorm:"primaryKey" json:"id"`
	UserID        uint    `gorm:"index;not null" json:"-"`
	Name          string  `gorm:"size:64;not null" json:"name"`
	Pattern       string  `gorm:"size:255;not null" json:"pattern"`
	IsRegex       bool    `gorm:"not null;default:false" json:"isRegex"`
	CaseSensitive bool    `gorm:"not null;default:false" json:"caseSensitive"`
	IsActive      bool    `gorm:"index;not null;default:true" json:"isActive"`
	Priority      int     `gorm:"index;not null;default:100" json:"priority"`
	CategoryID    *uint   `gorm:"index" json:"categoryId"`
	Kind          *string `gorm:"size:8" json:"kind"` // DEBIT / CREDIT, nil leaves kind untouched
	CreatedAt     time.Time `json:"createdAt"`
	UpdatedAt     time.Time `json:"updatedAt"`
}
