package service

import (
	"regexp"
	"strings"

	"github.com/nunocpr/PersonalFinance/internal/models"

	"gorm.io/gorm"
)

// RuleService manages auto-categorization rules and runs the matcher.
type RuleService struct {
	DB *gorm.DB
}

func NewRuleService(db *gorm.DB) *RuleService {
	return &RuleService{DB: db}
}

// CreateRuleInput is the checked rule payload.
type CreateRuleInput struct {
	Name          string  `json:"name"`
	Pattern       string  `json:"pattern"`
	IsRegex       bool    `json:"isRegex"`
	CaseSensitive bool    `json:"caseSensitive"`
	IsActive      *bool   `json:"isActive"`
	Priority      *int    `json:"priority"`
	CategoryID    *uint   `json:"categoryId"`
	Kind          *string `json:"kind"`
}

// UpdateRuleInput patches a rule; nil fields are left untouched.
type UpdateRuleInput struct {
	Name          *string      `json:"name"`
	Pattern       *string      `json:"pattern"`
	IsRegex       *bool        `json:"isRegex"`
	CaseSensitive *bool        `json:"caseSensitive"`
	IsActive      *bool        `json:"isActive"`
	Priority      *int         `json:"priority"`
	CategoryID    NullableUint `json:"categoryId"`
	Kind          *string      `json:"kind"`
}

// List returns the user's rules in matching order (priority asc, id asc).
func (s *RuleService) List(userID uint) ([]models.TransactionRule, error) {
	var rules []models.TransactionRule
	err := s.DB.Where("user_id = ?", userID).
		Order("priority ASC, id ASC").
		Find(&rules).Error
	if err != nil {
		return nil, Internal("list rules", err)
	}
	return rules, nil
}

// Create inserts a rule. Regex patterns are compiled here so a broken
// pattern is rejected up front instead of surfacing during matching.
func (s *RuleService) Create(userID uint, in CreateRuleInput) (*models.TransactionRule, error) {
	name := strings.TrimSpace(in.Name)
	if name == "" {
		return nil, Invalid("rule name is required")
	}
	if in.Pattern == "" {
		return nil, Invalid("rule pattern is required")
	}
	if in.IsRegex {
		if _, err := compileRule(in.Pattern, in.CaseSensitive); err != nil {
			return nil, Invalid("invalid regex pattern")
		}
	}
	if in.Kind != nil && !models.ValidKind(*in.Kind) {
		return nil, Invalid("kind must be DEBIT or CREDIT")
	}
	if in.CategoryID != nil {
		var count int64
		if err := s.DB.Model(&models.Category{}).
			Where("id = ? AND user_id = ?", *in.CategoryID, userID).
			Count(&count).Error; err != nil {
			return nil, Internal("check category", err)
		}
		if count == 0 {
			return nil, NotFound("category not found")
		}
	}

	rule := models.TransactionRule{
		UserID:        userID,
		Name:          name,
		Pattern:       in.Pattern,
		IsRegex:       in.IsRegex,
		CaseSensitive: in.CaseSensitive,
		IsActive:      true,
		Priority:      100,
		CategoryID:    in.CategoryID,
		Kind:          in.Kind,
	}
	if in.IsActive != nil {
		rule.IsActive = *in.IsActive
	}
	if in.Priority != nil {
		rule.Priority = *in.Priority
	}

	if err := s.DB.Create(&rule).Error; err != nil {
		return nil, Internal("create rule", err)
	}
	return &rule, nil
}

// Update patches an owned rule.
func (s *RuleService) Update(userID, id uint, patch UpdateRuleInput) (*models.TransactionRule, error) {
	var rule models.TransactionRule
	err := s.DB.Where("id = ? AND user_id = ?", id, userID).First(&rule).Error
	if err == gorm.ErrRecordNotFound {
		return nil, NotFound("rule not found")
	}
	if err != nil {
		return nil, Internal("load rule", err)
	}

	if patch.Name != nil {
		name := strings.TrimSpace(*patch.Name)
		if name == "" {
			return nil, Invalid("rule name is required")
		}
		rule.Name = name
	}
	if patch.Pattern != nil {
		rule.Pattern = *patch.Pattern
	}
	if patch.IsRegex != nil {
		rule.IsRegex = *patch.IsRegex
	}
	if patch.CaseSensitive != nil {
		rule.CaseSensitive = *patch.CaseSensitive
	}
	if rule.IsRegex {
		if rule.Pattern == "" {
			return nil, Invalid("rule pattern is required")
		}
		if _, err := compileRule(rule.Pattern, rule.CaseSensitive); err != nil {
			return nil, Invalid("invalid regex pattern")
		}
	}
	if patch.IsActive != nil {
		rule.IsActive = *patch.IsActive
	}
	if patch.Priority != nil {
		rule.Priority = *patch.Priority
	}
	if patch.Kind != nil {
		if !models.ValidKind(*patch.Kind) {
			return nil, Invalid("kind must be DEBIT or CREDIT")
		}
		rule.Kind = patch.Kind
	}
	if patch.CategoryID.Set {
		if patch.CategoryID.Value != nil {
			var count int64
			if err := s.DB.Model(&models.Category{}).
				Where("id = ? AND user_id = ?", *patch.CategoryID.Value, userID).
				Count(&count).Error; err != nil {
				return nil, Internal("check category", err)
			}
			if count == 0 {
				return nil, NotFound("category not found")
			}
		}
		rule.CategoryID = patch.CategoryID.Value
	}

	if err := s.DB.Save(&rule).Error; err != nil {
		return nil, Internal("update rule", err)
	}
	return &rule, nil
}

// Delete removes an owned rule.
func (s *RuleService) Delete(userID, id uint) error {
	res := s.DB.Where("id = ? AND user_id = ?", id, userID).
		Delete(&models.TransactionRule{})
	if res.Error != nil {
		return Internal("delete rule", res.Error)
	}
	if res.RowsAffected == 0 {
		return NotFound("rule not found")
	}
	return nil
}

// Reorder rewrites priorities as (index+1)*10 following orderedIDs.
// Ids that do not belong to the user are silently skipped.
func (s *RuleService) Reorder(userID uint, orderedIDs []uint) error {
	err := s.DB.Transaction(func(tx *gorm.DB) error {
		var ownedIDs []uint
		if err := tx.Model(&models.TransactionRule{}).
			Where("user_id = ? AND id IN ?", userID, orderedIDs).
			Pluck("id", &ownedIDs).Error; err != nil {
			return Internal("load rules", err)
		}
		owned := make(map[uint]bool, len(ownedIDs))
		for _, id := range ownedIDs {
			owned[id] = true
		}

		pos := 0
		for _, id := range orderedIDs {
			if !owned[id] {
				continue
			}
			pos++
			if err := tx.Model(&models.TransactionRule{}).
				Where("id = ? AND user_id = ?", id, userID).
				Update("priority", pos*10).Error; err != nil {
				return Internal("reorder rules", err)
			}
		}
		return nil
	})
	return asServiceError(err)
}

// Match returns the first active rule whose pattern matches the
// description, in (priority asc, id asc) order, or nil. An empty
// description never matches.
func (s *RuleService) Match(userID uint, description string) (*models.TransactionRule, error) {
	if description == "" {
		return nil, nil
	}

	var rules []models.TransactionRule
	err := s.DB.Where("user_id = ? AND is_active = ?", userID, true).
		Order("priority ASC, id ASC").
		Find(&rules).Error
	if err != nil {
		return nil, Internal("load rules", err)
	}

	for i := range rules {
		if ruleMatches(&rules[i], description) {
			return &rules[i], nil
		}
	}
	return nil, nil
}

// ruleMatches evaluates one rule against a description. A regex that
// fails to compile (rows predating write-time validation) is treated
// as a non-match so it can never break matching for other rules.
func ruleMatches(r *models.TransactionRule, description string) bool {
	if r.IsRegex {
		re, err := compileRule(r.Pattern, r.CaseSensitive)
		if err != nil {
			return false
		}
		return re.MatchString(description)
	}
	if r.CaseSensitive {
		return strings.Contains(description, r.Pattern)
	}
	return strings.Contains(strings.ToLower(description), strings.ToLower(r.Pattern))
}

func compileRule(pattern string, caseSensitive bool) (*regexp.Regexp, error) {
	if !caseSensitive {
		pattern = "(?i)" + pattern
	}
	return regexp.Compile(pattern)
}
