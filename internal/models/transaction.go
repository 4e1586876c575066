package models

import "time"

// Transaction kinds. The amount sign always agrees with the kind:
// DEBIT rows carry negative cents, CREDIT rows positive.
const (
	KindDebit  = "DEBIT"
	KindCredit = "CREDIT"
)

// ValidKind reports whether k is DEBIT or CREDIT.
func ValidKind(k string) bool {
	return k == KindDebit || k == KindCredit
}

// Transaction is one ledger row. Ownership is derived through the
// account. The two legs of a transfer share one TransferID.
type Transaction struct {
	ID             string    `gorm:"primaryKey;size:36" json:"id"` // UUID
	AccountID      uint      `gorm:"index;not null" json:"accountId"`
	CategoryID     *uint     `gorm:"index" json:"categoryId"`
	Date           time.Time `gorm:"index;not null" json:"date"`
	Amount         int64     `gorm:"not null" json:"amount"` // signed cents
	Kind           string    `gorm:"size:8;not null" json:"kind"`
	Description    string    `gorm:"size:255" json:"description"`
	IsSaving       bool      `gorm:"not null;default:false" json:"isSaving"`
	Notes          string    `gorm:"size:1024" json:"notes"`
	IncomeSourceID *uint     `gorm:"index" json:"incomeSourceId"`
	TransferID     *string   `gorm:"size:36;index" json:"transferId"`
	CreatedAt      time.Time `gorm:"index" json:"createdAt"`
	UpdatedAt      time.Time `json:"updatedAt"`
}
