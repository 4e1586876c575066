package service

import (
	"errors"
	"strings"

	"github.com/nunocpr/PersonalFinance/internal/models"

	"gorm.io/gorm"
)

// CategoryService manages the two-level category tree. All multi-step
// mutations run inside a single store transaction so a half-applied
// move or reorder is never observable.
type CategoryService struct {
	DB *gorm.DB
}

func NewCategoryService(db *gorm.DB) *CategoryService {
	return &CategoryService{DB: db}
}

// CreateCategoryInput is the checked create payload. A nil SortOrder
// places the category at the end of its sibling set.
type CreateCategoryInput struct {
	Name        string  `json:"name"`
	Description string  `json:"description"`
	ParentID    *uint   `json:"parentId"`
	SortOrder   *int    `json:"sortOrder"`
	Icon        string  `json:"icon"`
	Color       string  `json:"color"`
	Kind        string  `json:"type"`
}

// UpdateCategoryInput patches scalar fields only; re-parenting goes
// through Move.
type UpdateCategoryInput struct {
	Name        *string `json:"name"`
	Description *string `json:"description"`
	Icon        *string `json:"icon"`
	Color       *string `json:"color"`
	Kind        *string `json:"type"`
	Archived    *bool   `json:"archived"`
}

// ListTree returns non-archived root categories ordered by sortOrder,
// each with its non-archived children ordered by sortOrder.
func (s *CategoryService) ListTree(userID uint) ([]models.Category, error) {
	var roots []models.Category
	err := s.DB.
		Where("user_id = ? AND parent_id IS NULL AND archived = ?", userID, false).
		Order("sort_order ASC").
		Preload("Children", func(tx *gorm.DB) *gorm.DB {
			return tx.Where("archived = ?", false).Order("sort_order ASC")
		}).
		Find(&roots).Error
	if err != nil {
		return nil, Internal("list categories", err)
	}
	return roots, nil
}

// Create inserts a category. A given parent must exist, belong to the
// user and itself be a root (depth is capped at two levels).
func (s *CategoryService) Create(userID uint, in CreateCategoryInput) (*models.Category, error) {
	name := strings.TrimSpace(in.Name)
	if name == "" {
		return nil, Invalid("category name is required")
	}
	kind := in.Kind
	if kind == "" {
		kind = models.CategoryExpense
	}
	if !models.ValidCategoryKind(kind) {
		return nil, Invalid("invalid category type")
	}

	var created models.Category
	err := s.DB.Transaction(func(tx *gorm.DB) error {
		if in.ParentID != nil {
			parent, err := s.ownedCategory(tx, userID, *in.ParentID)
			if err != nil {
				return err
			}
			if parent.ParentID != nil {
				return Conflict("parent must be a root category")
			}
		}

		sortOrder := 0
		if in.SortOrder != nil {
			sortOrder = *in.SortOrder
		} else {
			max, err := maxSiblingOrder(tx, userID, in.ParentID)
			if err != nil {
				return err
			}
			sortOrder = max + 1
		}

		created = models.Category{
			UserID:      userID,
			Name:        name,
			Description: in.Description,
			ParentID:    in.ParentID,
			SortOrder:   sortOrder,
			Icon:        in.Icon,
			Color:       in.Color,
			Kind:        kind,
		}
		if err := tx.Create(&created).Error; err != nil {
			return Internal("create category", err)
		}
		return nil
	})
	if err != nil {
		return nil, asServiceError(err)
	}
	return &created, nil
}

// Update patches scalar fields of an owned category.
func (s *CategoryService) Update(userID, id uint, patch UpdateCategoryInput) (*models.Category, error) {
	cat, err := s.ownedCategory(s.DB, userID, id)
	if err != nil {
		return nil, err
	}

	if patch.Name != nil {
		name := strings.TrimSpace(*patch.Name)
		if name == "" {
			return nil, Invalid("category name is required")
		}
		cat.Name = name
	}
	if patch.Description != nil {
		cat.Description = *patch.Description
	}
	if patch.Icon != nil {
		cat.Icon = *patch.Icon
	}
	if patch.Color != nil {
		cat.Color = *patch.Color
	}
	if patch.Kind != nil {
		if !models.ValidCategoryKind(*patch.Kind) {
			return nil, Invalid("invalid category type")
		}
		cat.Kind = *patch.Kind
	}
	if patch.Archived != nil {
		cat.Archived = *patch.Archived
	}

	if err := s.DB.Save(cat).Error; err != nil {
		return nil, Internal("update category", err)
	}
	return cat, nil
}

// Move re-parents a category (nil newParentID moves it to root level)
// and appends it to the destination sibling set.
func (s *CategoryService) Move(userID, id uint, newParentID *uint) (*models.Category, error) {
	var moved *models.Category
	err := s.DB.Transaction(func(tx *gorm.DB) error {
		cat, err := s.ownedCategory(tx, userID, id)
		if err != nil {
			return err
		}

		if newParentID != nil {
			if *newParentID == id {
				return Conflict("category cannot be its own parent")
			}
			parent, err := s.ownedCategory(tx, userID, *newParentID)
			if err != nil {
				return err
			}
			if parent.ParentID != nil {
				return Conflict("parent must be a root category")
			}
			// a category with children cannot become a child itself
			var kids int64
			if err := tx.Model(&models.Category{}).
				Where("parent_id = ? AND user_id = ?", id, userID).
				Count(&kids).Error; err != nil {
				return Internal("count children", err)
			}
			if kids > 0 {
				return Conflict("cannot nest a category that has children")
			}
		}

		max, err := maxSiblingOrder(tx, userID, newParentID)
		if err != nil {
			return err
		}

		cat.ParentID = newParentID
		cat.SortOrder = max + 1
		if err := tx.Save(cat).Error; err != nil {
			return Internal("move category", err)
		}
		moved = cat
		return nil
	})
	if err != nil {
		return nil, asServiceError(err)
	}
	return moved, nil
}

// Reorder assigns sortOrder = index for each id in orderedIDs, scoped
// to the (user, parentID) sibling set. The ids must cover that sibling
// set exactly; anything missing or foreign rejects the whole call and
// leaves existing orders untouched.
func (s *CategoryService) Reorder(userID uint, parentID *uint, orderedIDs []uint) error {
	err := s.DB.Transaction(func(tx *gorm.DB) error {
		q := tx.Model(&models.Category{}).Where("user_id = ?", userID)
		if parentID == nil {
			q = q.Where("parent_id IS NULL")
		} else {
			q = q.Where("parent_id = ?", *parentID)
		}
		var siblingIDs []uint
		if err := q.Pluck("id", &siblingIDs).Error; err != nil {
			return Internal("load siblings", err)
		}

		if len(orderedIDs) != len(siblingIDs) {
			return Invalid("ordering must include every sibling exactly once")
		}
		siblings := make(map[uint]bool, len(siblingIDs))
		for _, sid := range siblingIDs {
			siblings[sid] = true
		}
		seen := make(map[uint]bool, len(orderedIDs))
		for _, id := range orderedIDs {
			if !siblings[id] || seen[id] {
				return Invalid("ordering must include every sibling exactly once")
			}
			seen[id] = true
		}

		for idx, id := range orderedIDs {
			if err := tx.Model(&models.Category{}).
				Where("id = ? AND user_id = ?", id, userID).
				Update("sort_order", idx).Error; err != nil {
				return Internal("reorder categories", err)
			}
		}
		return nil
	})
	return asServiceError(err)
}

// Archive hides a category from the tree without touching its children.
func (s *CategoryService) Archive(userID, id uint) (*models.Category, error) {
	res := s.DB.Model(&models.Category{}).
		Where("id = ? AND user_id = ?", id, userID).
		Update("archived", true)
	if res.Error != nil {
		return nil, Internal("archive category", res.Error)
	}
	if res.RowsAffected == 0 {
		return nil, NotFound("category not found")
	}
	return s.ownedCategory(s.DB, userID, id)
}

// HardDelete removes a category permanently. It refuses when the
// category still has children or is referenced by any transaction.
func (s *CategoryService) HardDelete(userID, id uint) error {
	err := s.DB.Transaction(func(tx *gorm.DB) error {
		if _, err := s.ownedCategory(tx, userID, id); err != nil {
			return err
		}

		var kids int64
		if err := tx.Model(&models.Category{}).
			Where("parent_id = ? AND user_id = ?", id, userID).
			Count(&kids).Error; err != nil {
			return Internal("count children", err)
		}
		if kids > 0 {
			return Conflict("cannot delete a category that has children; archive instead")
		}

		var used int64
		if err := tx.Model(&models.Transaction{}).
			Where("category_id = ?", id).
			Count(&used).Error; err != nil {
			return Internal("count category usage", err)
		}
		if used > 0 {
			return Conflict("category is used by transactions")
		}

		if err := tx.Delete(&models.Category{}, id).Error; err != nil {
			return Internal("delete category", err)
		}
		return nil
	})
	return asServiceError(err)
}

func (s *CategoryService) ownedCategory(tx *gorm.DB, userID, id uint) (*models.Category, error) {
	var cat models.Category
	err := tx.Where("id = ? AND user_id = ?", id, userID).First(&cat).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, NotFound("category not found")
	}
	if err != nil {
		return nil, Internal("load category", err)
	}
	return &cat, nil
}

// maxSiblingOrder returns the highest sortOrder within a sibling set,
// or -1 when the set is empty.
func maxSiblingOrder(tx *gorm.DB, userID uint, parentID *uint) (int, error) {
	q := tx.Model(&models.Category{}).Where("user_id = ?", userID)
	if parentID == nil {
		q = q.Where("parent_id IS NULL")
	} else {
		q = q.Where("parent_id = ?", *parentID)
	}
	var max *int
	if err := q.Select("MAX(sort_order)").Scan(&max).Error; err != nil {
		return 0, Internal("max sibling order", err)
	}
	if max == nil {
		return -1, nil
	}
	return *max, nil
}

// asServiceError keeps tagged errors intact and wraps anything else.
func asServiceError(err error) error {
	if err == nil {
		return nil
	}
	var se *Error
	if errors.As(err, &se) {
		return se
	}
	return Internal("store error", err)
}
