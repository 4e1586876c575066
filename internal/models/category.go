package models

import "time"

// Category kinds.
const (
	CategoryExpense  = "expense"
	CategoryIncome   = "income"
	CategoryTransfer = "transfer"
)

// ValidCategoryKind reports whether k is a known category kind.
func ValidCategoryKind(k string) bool {
	return k == CategoryExpense || k == CategoryIncome || k == CategoryTransfer
}

// Category is a node in a two-level tree: ParentID nil means root, and
// a child's parent must itself be a root. SortOrder is scoped to the
// (user, parent) sibling set.
type Category struct {
	ID          uint      `gorm:"primaryKey" json:"id"`
	UserID      uint      `gorm:"index;not null" json:"-"`
	Name        string    `gorm:"size:64;not null" json:"name"`
	Description string    `gorm:"size:255" json:"description"`
	ParentID    *uint     `gorm:"index" json:"parentId"`
	SortOrder   int       `gorm:"not null;default:0" json:"sortOrder"`
	Icon        string    `gorm:"size:64" json:"icon"`
	Color       string    `gorm:"size:16" json:"color"`
	Kind        string    `gorm:"size:16;not null;default:expense" json:"type"`
	Archived    bool      `gorm:"index;not null;default:false" json:"archived"`
	CreatedAt   time.Time `json:"createdAt"`
	UpdatedAt   time.Time `json:"updatedAt"`

	Children []Category `gorm:"foreignKey:ParentID" json:"children,omitempty"`
}
