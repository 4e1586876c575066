package service

import (
	"errors"
	"strings"
	"time"

	"github.com/nunocpr/PersonalFinance/internal/models"

	"gorm.io/gorm"
)

// AccountService handles account CRUD and derived balances. The current
// balance is always computed by aggregating the transaction log, never
// kept as a running counter, so concurrent transaction writes cannot
// produce lost updates.
type AccountService struct {
	DB *gorm.DB
}

func NewAccountService(db *gorm.DB) *AccountService {
	return &AccountService{DB: db}
}

// CreateAccountInput carries integer-cent opening balance and an
// optional opening date.
type CreateAccountInput struct {
	Name           string     `json:"name"`
	Type           string     `json:"type"`
	OpeningBalance int64      `json:"openingBalance"`
	OpeningDate    *time.Time `json:"openingDate"`
	Description    string     `json:"description"`
}

// UpdateAccountInput patches an account; nil fields stay untouched.
// OpeningDate uses set/null semantics so the date can be cleared.
type UpdateAccountInput struct {
	Name           *string      `json:"name"`
	Type           *string      `json:"type"`
	OpeningBalance *int64       `json:"openingBalance"`
	OpeningDate    NullableTime `json:"openingDate"`
	Description    *string      `json:"description"`
}

// List returns the user's non-deleted accounts, oldest first.
func (s *AccountService) List(userID uint) ([]models.Account, error) {
	var accounts []models.Account
	err := s.DB.Where("user_id = ? AND is_deleted = ?", userID, false).
		Order("created_at ASC").
		Find(&accounts).Error
	if err != nil {
		return nil, Internal("list accounts", err)
	}
	return accounts, nil
}

// Get returns one owned, non-deleted account.
func (s *AccountService) Get(userID, id uint) (*models.Account, error) {
	var acc models.Account
	err := s.DB.Where("id = ? AND user_id = ? AND is_deleted = ?", id, userID, false).
		First(&acc).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, NotFound("account not found")
	}
	if err != nil {
		return nil, Internal("load account", err)
	}
	return &acc, nil
}

// Create inserts an account after validating name and type.
func (s *AccountService) Create(userID uint, in CreateAccountInput) (*models.Account, error) {
	name := strings.TrimSpace(in.Name)
	if name == "" {
		return nil, Invalid("account name is required")
	}
	if !models.ValidAccountType(in.Type) {
		return nil, Invalid("invalid account type")
	}

	acc := models.Account{
		UserID:         userID,
		Name:           name,
		Type:           in.Type,
		OpeningBalance: in.OpeningBalance,
		OpeningDate:    in.OpeningDate,
		Description:    in.Description,
	}
	if err := s.DB.Create(&acc).Error; err != nil {
		return nil, Internal("create account", err)
	}
	return &acc, nil
}

// Update patches an owned account.
func (s *AccountService) Update(userID, id uint, patch UpdateAccountInput) (*models.Account, error) {
	acc, err := s.Get(userID, id)
	if err != nil {
		return nil, err
	}

	if patch.Name != nil {
		name := strings.TrimSpace(*patch.Name)
		if name == "" {
			return nil, Invalid("account name is required")
		}
		acc.Name = name
	}
	if patch.Type != nil {
		if !models.ValidAccountType(*patch.Type) {
			return nil, Invalid("invalid account type")
		}
		acc.Type = *patch.Type
	}
	if patch.OpeningBalance != nil {
		acc.OpeningBalance = *patch.OpeningBalance
	}
	if patch.OpeningDate.Set {
		acc.OpeningDate = patch.OpeningDate.Value
	}
	if patch.Description != nil {
		acc.Description = *patch.Description
	}

	if err := s.DB.Save(acc).Error; err != nil {
		return nil, Internal("update account", err)
	}
	return acc, nil
}

// SoftDelete marks an account deleted; its transactions stay in place.
func (s *AccountService) SoftDelete(userID, id uint) error {
	now := time.Now()
	res := s.DB.Model(&models.Account{}).
		Where("id = ? AND user_id = ? AND is_deleted = ?", id, userID, false).
		Updates(map[string]interface{}{"is_deleted": true, "deleted_at": &now})
	if res.Error != nil {
		return Internal("delete account", res.Error)
	}
	if res.RowsAffected == 0 {
		return NotFound("account not found")
	}
	return nil
}

// CurrentBalance computes openingBalance plus the sum of transaction
// amounts dated on or after the opening date (all transactions when the
// opening date is null). Computed on demand so it never drifts from the
// transaction log.
func (s *AccountService) CurrentBalance(userID, id uint) (int64, error) {
	acc, err := s.Get(userID, id)
	if err != nil {
		return 0, err
	}

	q := s.DB.Model(&models.Transaction{}).Where("account_id = ?", id)
	if acc.OpeningDate != nil {
		q = q.Where("date >= ?", *acc.OpeningDate)
	}

	var sum *int64
	if err := q.Select("SUM(amount)").Scan(&sum).Error; err != nil {
		return 0, Internal("sum transactions", err)
	}
	if sum == nil {
		return acc.OpeningBalance, nil
	}
	return acc.OpeningBalance + *sum, nil
}
