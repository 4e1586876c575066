package service

import (
	"errors"
	"strings"
	"time"

	"github.com/nunocpr/PersonalFinance/internal/models"
	"github.com/nunocpr/PersonalFinance/internal/money"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

// TransactionService is the write path for the ledger: CRUD with
// rule-based auto-categorization and sign normalization, filtered
// listing, category grouping, and paired transfer legs. Ownership is
// always enforced by joining through the owning account.
type TransactionService struct {
	DB       *gorm.DB
	Rules    *RuleService
	Accounts *AccountService
}

func NewTransactionService(db *gorm.DB, rules *RuleService, accounts *AccountService) *TransactionService {
	return &TransactionService{DB: db, Rules: rules, Accounts: accounts}
}

// ListFilters narrows and pages a transaction listing. CategoryID uses
// set/null semantics: unset means any category, an explicit null means
// uncategorized only.
type ListFilters struct {
	AccountID  *uint
	CategoryID NullableUint
	Query      string
	From       *time.Time
	To         *time.Time
	SortBy     string // date | amount | createdAt
	SortDir    string // asc | desc
	Page       int
	PageSize   int
}

// ListResult is the standard paged payload.
type ListResult struct {
	Items    []models.Transaction `json:"items"`
	Total    int64                `json:"total"`
	Page     int                  `json:"page"`
	PageSize int                  `json:"pageSize"`
}

// CategoryGroup is one bucket of GroupByCategory; a nil CategoryID is
// the uncategorized bucket.
type CategoryGroup struct {
	CategoryID   *uint                `json:"categoryId"`
	Count        int                  `json:"count"`
	Sum          int64                `json:"sum"`
	MinDate      *time.Time           `json:"minDate"`
	MaxDate      *time.Time           `json:"maxDate"`
	CategoryName *string              `json:"categoryName"`
	ParentName   *string              `json:"parentName"`
	Color        *string              `json:"color"`
	Items        []models.Transaction `json:"items"`
}

// CreateTransactionInput carries integer cents; Kind may be omitted and
// is then filled from a matching rule or derived from the amount sign.
type CreateTransactionInput struct {
	Date           *time.Time `json:"date"`
	Amount         int64      `json:"amount"`
	Kind           *string    `json:"kind"`
	Description    string     `json:"description"`
	IsSaving       bool       `json:"isSaving"`
	Notes          string     `json:"notes"`
	AccountID      uint       `json:"accountId"`
	CategoryID     *uint      `json:"categoryId"`
	IncomeSourceID *uint      `json:"incomeSourceId"`
}

// UpdateTransactionInput patches a transaction. CategoryID accepts an
// explicit null to clear the category.
type UpdateTransactionInput struct {
	Date           *time.Time   `json:"date"`
	Amount         *int64       `json:"amount"`
	Kind           *string      `json:"kind"`
	Description    *string      `json:"description"`
	IsSaving       *bool        `json:"isSaving"`
	Notes          *string      `json:"notes"`
	AccountID      *uint        `json:"accountId"`
	CategoryID     NullableUint `json:"categoryId"`
	IncomeSourceID NullableUint `json:"incomeSourceId"`
}

// TransferInput creates the two legs of a transfer. Amount is the
// absolute value moved, in cents.
type TransferInput struct {
	FromAccountID uint       `json:"fromAccountId"`
	ToAccountID   uint       `json:"toAccountId"`
	Amount        int64      `json:"amount"`
	Date          *time.Time `json:"date"`
	Description   string     `json:"description"`
	Notes         string     `json:"notes"`
}

// Transfer pairs the two created legs with their shared id.
type Transfer struct {
	TransferID string             `json:"transferId"`
	Out        models.Transaction `json:"out"`
	In         models.Transaction `json:"in"`
}

// ConvertInput turns an existing transaction into the source leg of a
// transfer, creating the counter leg in ToAccountID. Amount defaults to
// the source's own absolute amount.
type ConvertInput struct {
	TxID        string     `json:"txId"`
	ToAccountID uint       `json:"toAccountId"`
	Amount      *int64     `json:"amount"`
	Date        *time.Time `json:"date"`
	Description *string    `json:"description"`
	Notes       *string    `json:"notes"`
}

// Conversion is the result of ConvertToTransfer.
type Conversion struct {
	TransferID  string             `json:"transferId"`
	Source      models.Transaction `json:"source"`
	Destination models.Transaction `json:"destination"`
}

func clamp(n, min, max int) int {
	if n < min {
		return min
	}
	if n > max {
		return max
	}
	return n
}

// ownedScope narrows a transaction query to rows whose account belongs
// to the user. Lookup misses and ownership misses are indistinguishable
// by design.
func ownedScope(tx *gorm.DB, userID uint) *gorm.DB {
	return tx.Model(&models.Transaction{}).
		Joins("JOIN accounts ON accounts.id = transactions.account_id").
		Where("accounts.user_id = ?", userID)
}

func applyFilters(q *gorm.DB, f ListFilters) *gorm.DB {
	if f.AccountID != nil {
		q = q.Where("transactions.account_id = ?", *f.AccountID)
	}
	if f.CategoryID.Set {
		if f.CategoryID.Value == nil {
			q = q.Where("transactions.category_id IS NULL")
		} else {
			q = q.Where("transactions.category_id = ?", *f.CategoryID.Value)
		}
	}
	if f.Query != "" {
		q = q.Where("LOWER(transactions.description) LIKE ?", "%"+strings.ToLower(f.Query)+"%")
	}
	if f.From != nil {
		q = q.Where("transactions.date >= ?", *f.From)
	}
	if f.To != nil {
		q = q.Where("transactions.date <= ?", *f.To)
	}
	return q
}

func orderClause(sortBy, sortDir string) string {
	col := "transactions.date"
	switch sortBy {
	case "amount":
		col = "transactions.amount"
	case "createdAt":
		col = "transactions.created_at"
	}
	dir := "DESC"
	if sortDir == "asc" {
		dir = "ASC"
	}
	// secondary sort keeps pagination stable
	return col + " " + dir + ", transactions.created_at DESC"
}

// List returns a filtered, paged slice of the user's transactions.
func (s *TransactionService) List(userID uint, f ListFilters) (*ListResult, error) {
	page := clamp(f.Page, 1, 10000)
	if f.Page == 0 {
		page = 1
	}
	pageSize := f.PageSize
	if pageSize == 0 {
		pageSize = 20
	}
	pageSize = clamp(pageSize, 1, 100)

	base := applyFilters(ownedScope(s.DB, userID), f)

	var total int64
	if err := base.Session(&gorm.Session{}).Count(&total).Error; err != nil {
		return nil, Internal("count transactions", err)
	}

	var rows []models.Transaction
	err := base.Session(&gorm.Session{}).
		Order(orderClause(f.SortBy, f.SortDir)).
		Limit(pageSize).
		Offset((page - 1) * pageSize).
		Find(&rows).Error
	if err != nil {
		return nil, Internal("list transactions", err)
	}

	return &ListResult{Items: rows, Total: total, Page: page, PageSize: pageSize}, nil
}

// GroupByCategory fetches every matching transaction (no pagination)
// and buckets by category for reporting. The category filter is ignored
// here; the nil bucket collects uncategorized rows.
func (s *TransactionService) GroupByCategory(userID uint, f ListFilters) ([]CategoryGroup, error) {
	f.CategoryID = NullableUint{}

	var rows []models.Transaction
	err := applyFilters(ownedScope(s.DB, userID), f).
		Order("transactions.date ASC, transactions.created_at ASC").
		Find(&rows).Error
	if err != nil {
		return nil, Internal("load transactions", err)
	}

	type bucketKey struct {
		id            uint
		uncategorized bool
	}
	order := make([]bucketKey, 0)
	buckets := make(map[bucketKey]*CategoryGroup)
	for i := range rows {
		t := &rows[i]
		key := bucketKey{uncategorized: t.CategoryID == nil}
		if t.CategoryID != nil {
			key.id = *t.CategoryID
		}
		g, ok := buckets[key]
		if !ok {
			g = &CategoryGroup{CategoryID: t.CategoryID}
			buckets[key] = g
			order = append(order, key)
		}
		g.Count++
		g.Sum += t.Amount
		d := t.Date
		if g.MinDate == nil || d.Before(*g.MinDate) {
			g.MinDate = &d
		}
		if g.MaxDate == nil || d.After(*g.MaxDate) {
			g.MaxDate = &d
		}
		g.Items = append(g.Items, *t)
	}

	// resolve category and parent names in one query
	ids := make([]uint, 0, len(order))
	for _, k := range order {
		if !k.uncategorized {
			ids = append(ids, k.id)
		}
	}
	if len(ids) > 0 {
		var cats []models.Category
		if err := s.DB.Where("id IN ? AND user_id = ?", ids, userID).Find(&cats).Error; err != nil {
			return nil, Internal("load categories", err)
		}
		byID := make(map[uint]*models.Category, len(cats))
		parentIDs := make([]uint, 0)
		for i := range cats {
			byID[cats[i].ID] = &cats[i]
			if cats[i].ParentID != nil {
				parentIDs = append(parentIDs, *cats[i].ParentID)
			}
		}
		parents := make(map[uint]string)
		if len(parentIDs) > 0 {
			var prows []models.Category
			if err := s.DB.Where("id IN ? AND user_id = ?", parentIDs, userID).Find(&prows).Error; err != nil {
				return nil, Internal("load parent categories", err)
			}
			for _, p := range prows {
				parents[p.ID] = p.Name
			}
		}
		for _, g := range buckets {
			if g.CategoryID == nil {
				continue
			}
			cat, ok := byID[*g.CategoryID]
			if !ok {
				continue
			}
			name := cat.Name
			g.CategoryName = &name
			if cat.Color != "" {
				color := cat.Color
				g.Color = &color
			}
			if cat.ParentID != nil {
				if pname, ok := parents[*cat.ParentID]; ok {
					g.ParentName = &pname
				}
			}
		}
	}

	groups := make([]CategoryGroup, 0, len(order))
	for _, k := range order {
		groups = append(groups, *buckets[k])
	}
	return groups, nil
}

// Create persists a transaction. Missing category or kind is filled
// from the first matching rule; a still-missing kind is derived from
// the amount sign, and the sign is normalized to the final kind.
func (s *TransactionService) Create(userID uint, in CreateTransactionInput) (*models.Transaction, error) {
	if _, err := s.ownedAccount(s.DB, userID, in.AccountID); err != nil {
		return nil, err
	}
	if in.CategoryID != nil {
		if err := s.checkCategory(userID, *in.CategoryID, true); err != nil {
			return nil, err
		}
	}
	if in.Kind != nil && !models.ValidKind(*in.Kind) {
		return nil, Invalid("kind must be DEBIT or CREDIT")
	}

	categoryID := in.CategoryID
	kind := in.Kind
	if categoryID == nil || kind == nil {
		rule, err := s.Rules.Match(userID, in.Description)
		if err != nil {
			return nil, err
		}
		if rule != nil {
			if categoryID == nil {
				categoryID = rule.CategoryID
			}
			if kind == nil {
				kind = rule.Kind
			}
		}
	}

	finalKind := ""
	if kind != nil {
		finalKind = *kind
	} else {
		finalKind = money.KindForAmount(in.Amount)
	}
	amount := money.NormalizeForKind(in.Amount, finalKind)

	date := time.Now()
	if in.Date != nil {
		date = *in.Date
	}

	t := models.Transaction{
		ID:             uuid.NewString(),
		AccountID:      in.AccountID,
		CategoryID:     categoryID,
		Date:           date,
		Amount:         amount,
		Kind:           finalKind,
		Description:    in.Description,
		IsSaving:       in.IsSaving,
		Notes:          in.Notes,
		IncomeSourceID: in.IncomeSourceID,
	}
	if err := s.DB.Create(&t).Error; err != nil {
		return nil, Internal("create transaction", err)
	}
	return &t, nil
}

// Update patches an owned transaction, re-deriving kind and amount the
// same way as Create. An amount-only patch takes the kind from the new
// sign, so changing -2500 to 3000 also flips DEBIT to CREDIT.
func (s *TransactionService) Update(userID uint, id string, patch UpdateTransactionInput) (*models.Transaction, error) {
	t, err := s.ownedTransaction(userID, id)
	if err != nil {
		return nil, err
	}

	if patch.AccountID != nil {
		if _, err := s.ownedAccount(s.DB, userID, *patch.AccountID); err != nil {
			return nil, err
		}
		t.AccountID = *patch.AccountID
	}
	if patch.CategoryID.Set {
		if patch.CategoryID.Value != nil {
			if err := s.checkCategory(userID, *patch.CategoryID.Value, false); err != nil {
				return nil, err
			}
		}
		t.CategoryID = patch.CategoryID.Value
	}
	if patch.Date != nil {
		t.Date = *patch.Date
	}
	if patch.Description != nil {
		t.Description = *patch.Description
	}
	if patch.IsSaving != nil {
		t.IsSaving = *patch.IsSaving
	}
	if patch.Notes != nil {
		t.Notes = *patch.Notes
	}
	if patch.IncomeSourceID.Set {
		t.IncomeSourceID = patch.IncomeSourceID.Value
	}

	switch {
	case patch.Kind != nil && patch.Amount != nil:
		if !models.ValidKind(*patch.Kind) {
			return nil, Invalid("kind must be DEBIT or CREDIT")
		}
		t.Kind = *patch.Kind
		t.Amount = money.NormalizeForKind(*patch.Amount, t.Kind)
	case patch.Kind != nil:
		if !models.ValidKind(*patch.Kind) {
			return nil, Invalid("kind must be DEBIT or CREDIT")
		}
		t.Kind = *patch.Kind
		t.Amount = money.NormalizeForKind(t.Amount, t.Kind)
	case patch.Amount != nil:
		t.Kind = money.KindForAmount(*patch.Amount)
		t.Amount = money.NormalizeForKind(*patch.Amount, t.Kind)
	}

	if err := s.DB.Save(t).Error; err != nil {
		return nil, Internal("update transaction", err)
	}
	return t, nil
}

// Remove deletes an owned transaction.
func (s *TransactionService) Remove(userID uint, id string) error {
	t, err := s.ownedTransaction(userID, id)
	if err != nil {
		return err
	}
	if err := s.DB.Delete(&models.Transaction{}, "id = ?", t.ID).Error; err != nil {
		return Internal("delete transaction", err)
	}
	return nil
}

// CreateTransfer atomically creates the two legs of a transfer: a DEBIT
// of -|amount| on the source account and a CREDIT of +|amount| on the
// destination, sharing a fresh transferId. Either both legs persist or
// neither does.
func (s *TransactionService) CreateTransfer(userID uint, in TransferInput) (*Transfer, error) {
	if in.FromAccountID == in.ToAccountID {
		return nil, Conflict("transfer accounts must differ")
	}
	if in.Amount <= 0 {
		return nil, Invalid("transfer amount must be a positive integer of cents")
	}

	date := time.Now()
	if in.Date != nil {
		date = *in.Date
	}

	transferID := uuid.NewString()
	var out, inLeg models.Transaction
	err := s.DB.Transaction(func(tx *gorm.DB) error {
		if _, err := s.ownedAccount(tx, userID, in.FromAccountID); err != nil {
			return err
		}
		if _, err := s.ownedAccount(tx, userID, in.ToAccountID); err != nil {
			return err
		}

		out = models.Transaction{
			ID:          uuid.NewString(),
			AccountID:   in.FromAccountID,
			Date:        date,
			Amount:      -in.Amount,
			Kind:        models.KindDebit,
			Description: in.Description,
			Notes:       in.Notes,
			TransferID:  &transferID,
		}
		if err := tx.Create(&out).Error; err != nil {
			return Internal("create outgoing leg", err)
		}

		inLeg = models.Transaction{
			ID:          uuid.NewString(),
			AccountID:   in.ToAccountID,
			Date:        date,
			Amount:      in.Amount,
			Kind:        models.KindCredit,
			Description: in.Description,
			Notes:       in.Notes,
			TransferID:  &transferID,
		}
		if err := tx.Create(&inLeg).Error; err != nil {
			return Internal("create incoming leg", err)
		}
		return nil
	})
	if err != nil {
		return nil, asServiceError(err)
	}
	return &Transfer{TransferID: transferID, Out: out, In: inLeg}, nil
}

// RemoveTransfer deletes every leg carrying transferID, scoped by
// ownership.
func (s *TransactionService) RemoveTransfer(userID uint, transferID string) error {
	err := s.DB.Transaction(func(tx *gorm.DB) error {
		var ids []string
		if err := ownedScope(tx, userID).
			Where("transactions.transfer_id = ?", transferID).
			Pluck("transactions.id", &ids).Error; err != nil {
			return Internal("load transfer legs", err)
		}
		if len(ids) == 0 {
			return NotFound("transfer not found")
		}
		if err := tx.Where("id IN ?", ids).Delete(&models.Transaction{}).Error; err != nil {
			return Internal("delete transfer legs", err)
		}
		return nil
	})
	return asServiceError(err)
}

// ListTransfers returns all transfer legs, optionally for one account.
func (s *TransactionService) ListTransfers(userID uint, accountID *uint) ([]models.Transaction, error) {
	q := ownedScope(s.DB, userID).Where("transactions.transfer_id IS NOT NULL")
	if accountID != nil {
		q = q.Where("transactions.account_id = ?", *accountID)
	}
	var rows []models.Transaction
	if err := q.Order("transactions.date DESC, transactions.created_at DESC").Find(&rows).Error; err != nil {
		return nil, Internal("list transfers", err)
	}
	return rows, nil
}

// ConvertToTransfer stamps an ordinary transaction with a fresh
// transferId (it keeps its sign and kind as the source leg) and
// atomically creates the counter leg in the destination account with
// the opposite kind and equal absolute amount.
func (s *TransactionService) ConvertToTransfer(userID uint, in ConvertInput) (*Conversion, error) {
	var conv Conversion
	err := s.DB.Transaction(func(tx *gorm.DB) error {
		var src models.Transaction
		err := ownedScope(tx, userID).
			Where("transactions.id = ?", in.TxID).
			First(&src).Error
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return NotFound("transaction not found")
		}
		if err != nil {
			return Internal("load transaction", err)
		}

		if src.TransferID != nil {
			return Conflict("transaction is already part of a transfer")
		}
		if in.ToAccountID == src.AccountID {
			return Conflict("transfer accounts must differ")
		}
		if _, err := s.ownedAccount(tx, userID, in.ToAccountID); err != nil {
			return err
		}

		amount := src.Amount
		if in.Amount != nil {
			amount = *in.Amount
		}
		if amount < 0 {
			amount = -amount
		}
		if amount == 0 {
			return Invalid("transfer amount must be a positive integer of cents")
		}

		counterKind := models.KindCredit
		if src.Kind == models.KindCredit {
			counterKind = models.KindDebit
		}

		transferID := uuid.NewString()
		if err := tx.Model(&models.Transaction{}).
			Where("id = ?", src.ID).
			Update("transfer_id", transferID).Error; err != nil {
			return Internal("stamp source leg", err)
		}
		src.TransferID = &transferID

		date := src.Date
		if in.Date != nil {
			date = *in.Date
		}
		description := src.Description
		if in.Description != nil {
			description = *in.Description
		}
		notes := src.Notes
		if in.Notes != nil {
			notes = *in.Notes
		}

		dst := models.Transaction{
			ID:          uuid.NewString(),
			AccountID:   in.ToAccountID,
			Date:        date,
			Amount:      money.NormalizeForKind(amount, counterKind),
			Kind:        counterKind,
			Description: description,
			Notes:       notes,
			TransferID:  &transferID,
		}
		if err := tx.Create(&dst).Error; err != nil {
			return Internal("create counter leg", err)
		}

		conv = Conversion{TransferID: transferID, Source: src, Destination: dst}
		return nil
	})
	if err != nil {
		return nil, asServiceError(err)
	}
	return &conv, nil
}

// CurrentBalance proxies to the account ledger.
func (s *TransactionService) CurrentBalance(userID, accountID uint) (int64, error) {
	return s.Accounts.CurrentBalance(userID, accountID)
}

func (s *TransactionService) ownedAccount(tx *gorm.DB, userID, accountID uint) (*models.Account, error) {
	var acc models.Account
	err := tx.Where("id = ? AND user_id = ? AND is_deleted = ?", accountID, userID, false).
		First(&acc).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, NotFound("account not found")
	}
	if err != nil {
		return nil, Internal("load account", err)
	}
	return &acc, nil
}

// checkCategory verifies ownership; on create an archived category is
// also rejected, on update it is allowed (matching the ownership checks
// the original write paths apply).
func (s *TransactionService) checkCategory(userID, categoryID uint, rejectArchived bool) error {
	q := s.DB.Model(&models.Category{}).Where("id = ? AND user_id = ?", categoryID, userID)
	if rejectArchived {
		q = q.Where("archived = ?", false)
	}
	var count int64
	if err := q.Count(&count).Error; err != nil {
		return Internal("check category", err)
	}
	if count == 0 {
		return NotFound("category not found")
	}
	return nil
}

func (s *TransactionService) ownedTransaction(userID uint, id string) (*models.Transaction, error) {
	var t models.Transaction
	err := ownedScope(s.DB, userID).
		Where("transactions.id = ?", id).
		First(&t).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, NotFound("transaction not found")
	}
	if err != nil {
		return nil, Internal("load transaction", err)
	}
	return &t, nil
}
