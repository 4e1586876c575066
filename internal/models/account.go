package models

import "time"

// Valid account types.
const (
	AccountChecking   = "checking"
	AccountSavings    = "savings"
	AccountCredit     = "credit"
	AccountInvestment = "investment"
	AccountOther      = "other"
)

// ValidAccountType reports whether t is one of the five account types.
func ValidAccountType(t string) bool {
	switch t {
	case AccountChecking, AccountSavings, AccountCredit, AccountInvestment, AccountOther:
		return true
	}
	return false
}

// Account holds an opening balance and date; the current balance is
// never stored, it is derived from the transaction log on demand.
type Account struct {
	ID             uint       `gorm:"primaryKey" json:"id"`
	UserID         uint       `gorm:"index;not null" json:"-"`
	Name           string     `gorm:"size:64;not null" json:"name"`
	Type           string     `gorm:"size:16;not null" json:"type"`
	OpeningBalance int64      `gorm:"not null;default:0" json:"openingBalance"` // cents
	OpeningDate    *time.Time `gorm:"index" json:"openingDate"`
	Description    string     `gorm:"size:255" json:"description"`
	IsDeleted      bool       `gorm:"index;not null;default:false" json:"-"`
	DeletedAt      *time.Time `json:"-"`
	CreatedAt      time.Time  `json:"createdAt"`
	UpdatedAt      time.Time  `json:"updatedAt"`
}
