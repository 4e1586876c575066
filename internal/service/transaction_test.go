package service

import (
	"testing"
	"time"

	"github.com/nunocpr/PersonalFinance/internal/models"

	"gorm.io/gorm"
)

func newTransactionService(db *gorm.DB) *TransactionService {
	accounts := NewAccountService(db)
	rules := NewRuleService(db)
	return NewTransactionService(db, rules, accounts)
}

func TestTransactionCreate_NormalizesSign(t *testing.T) {
	db := setupTestDB(t)
	u := seedUser(t, db, "a@example.com")
	svc := newTransactionService(db)
	acc := seedAccount(t, db, u.ID, "Main", 0)

	cases := []struct {
		name       string
		amount     int64
		kind       *string
		wantAmount int64
		wantKind   string
	}{
		{"debit keeps negative", -2500, ptrStr(models.KindDebit), -2500, models.KindDebit},
		{"debit flips positive", 2500, ptrStr(models.KindDebit), -2500, models.KindDebit},
		{"credit flips negative", -2500, ptrStr(models.KindCredit), 2500, models.KindCredit},
		{"no kind, negative amount", -900, nil, -900, models.KindDebit},
		{"no kind, positive amount", 900, nil, 900, models.KindCredit},
	}

	for _, tc := range cases {
		got, err := svc.Create(u.ID, CreateTransactionInput{
			AccountID: acc.ID, Amount: tc.amount, Kind: tc.kind,
		})
		if err != nil {
			t.Fatalf("%s: create: %v", tc.name, err)
		}
		if got.Amount != tc.wantAmount || got.Kind != tc.wantKind {
			t.Errorf("%s: amount/kind = %d/%s, want %d/%s",
				tc.name, got.Amount, got.Kind, tc.wantAmount, tc.wantKind)
		}
	}
}

func TestTransactionCreate_RuleFillsCategoryAndKind(t *testing.T) {
	db := setupTestDB(t)
	u := seedUser(t, db, "a@example.com")
	svc := newTransactionService(db)
	acc := seedAccount(t, db, u.ID, "Main", 0)
	cat := seedCategory(t, db, u.ID, "Transport", nil)

	debit := models.KindDebit
	rule := models.TransactionRule{
		UserID: u.ID, Name: "uber", Pattern: "uber",
		IsActive: true, Priority: 10, CategoryID: &cat.ID, Kind: &debit,
	}
	if err := db.Create(&rule).Error; err != nil {
		t.Fatalf("seed rule: %v", err)
	}

	got, err := svc.Create(u.ID, CreateTransactionInput{
		AccountID: acc.ID, Amount: 1500, Description: "UBER trip",
	})
	if err != nil {
		t.Fatalf("create: %v", err)
	}
	if got.CategoryID == nil || *got.CategoryID != cat.ID {
		t.Errorf("categoryId = %v, want %d from rule", got.CategoryID, cat.ID)
	}
	if got.Kind != models.KindDebit || got.Amount != -1500 {
		t.Errorf("kind/amount = %s/%d, want DEBIT/-1500 from rule kind", got.Kind, got.Amount)
	}
}

func TestTransactionCreate_ExplicitFieldsBeatRule(t *testing.T) {
	db := setupTestDB(t)
	u := seedUser(t, db, "a@example.com")
	svc := newTransactionService(db)
	acc := seedAccount(t, db, u.ID, "Main", 0)
	ruleCat := seedCategory(t, db, u.ID, "Transport", nil)
	pickedCat := seedCategory(t, db, u.ID, "Travel", nil)

	rule := models.TransactionRule{
		UserID: u.ID, Name: "uber", Pattern: "uber",
		IsActive: true, Priority: 10, CategoryID: &ruleCat.ID,
	}
	if err := db.Create(&rule).Error; err != nil {
		t.Fatalf("seed rule: %v", err)
	}

	got, err := svc.Create(u.ID, CreateTransactionInput{
		AccountID: acc.ID, Amount: -1500, Description: "uber trip",
		CategoryID: &pickedCat.ID, Kind: ptrStr(models.KindDebit),
	})
	if err != nil {
		t.Fatalf("create: %v", err)
	}
	if got.CategoryID == nil || *got.CategoryID != pickedCat.ID {
		t.Errorf("categoryId = %v, want explicit %d", got.CategoryID, pickedCat.ID)
	}
}

func TestTransactionCreate_Guards(t *testing.T) {
	db := setupTestDB(t)
	u := seedUser(t, db, "a@example.com")
	other := seedUser(t, db, "b@example.com")
	svc := newTransactionService(db)
	acc := seedAccount(t, db, u.ID, "Main", 0)

	// foreign account
	theirs := seedAccount(t, db, other.ID, "theirs", 0)
	_, err := svc.Create(u.ID, CreateTransactionInput{AccountID: theirs.ID, Amount: -100})
	wantKind(t, err, KindNotFound)

	// archived category rejected on create
	archived := seedCategory(t, db, u.ID, "Old", nil)
	if err := db.Model(&models.Category{}).Where("id = ?", archived.ID).
		Update("archived", true).Error; err != nil {
		t.Fatalf("archive: %v", err)
	}
	_, err = svc.Create(u.ID, CreateTransactionInput{
		AccountID: acc.ID, Amount: -100, CategoryID: &archived.ID,
	})
	wantKind(t, err, KindNotFound)

	// unknown kind
	_, err = svc.Create(u.ID, CreateTransactionInput{
		AccountID: acc.ID, Amount: -100, Kind: ptrStr("SPEND"),
	})
	wantKind(t, err, KindInvalidInput)
}

func TestTransactionUpdate_KindAmountInteraction(t *testing.T) {
	db := setupTestDB(t)
	u := seedUser(t, db, "a@example.com")
	svc := newTransactionService(db)
	acc := seedAccount(t, db, u.ID, "Main", 0)

	tx, err := svc.Create(u.ID, CreateTransactionInput{
		AccountID: acc.ID, Amount: -2500, Kind: ptrStr(models.KindDebit),
	})
	if err != nil {
		t.Fatalf("create: %v", err)
	}

	// kind-only patch re-signs the current amount
	got, err := svc.Update(u.ID, tx.ID, UpdateTransactionInput{Kind: ptrStr(models.KindCredit)})
	if err != nil {
		t.Fatalf("update kind: %v", err)
	}
	if got.Amount != 2500 || got.Kind != models.KindCredit {
		t.Errorf("amount/kind = %d/%s, want 2500/CREDIT", got.Amount, got.Kind)
	}

	// both given, kind wins over the sign
	got, err = svc.Update(u.ID, tx.ID, UpdateTransactionInput{
		Kind: ptrStr(models.KindDebit), Amount: ptrInt64(900),
	})
	if err != nil {
		t.Fatalf("update both: %v", err)
	}
	if got.Amount != -900 || got.Kind != models.KindDebit {
		t.Errorf("amount/kind = %d/%s, want -900/DEBIT", got.Amount, got.Kind)
	}
}

func TestTransactionUpdate_AmountOnlyFlipsKind(t *testing.T) {
	db := setupTestDB(t)
	u := seedUser(t, db, "a@example.com")
	svc := newTransactionService(db)
	acc := seedAccount(t, db, u.ID, "Main", 0)

	tx, err := svc.Create(u.ID, CreateTransactionInput{
		AccountID: acc.ID, Amount: -2500, Kind: ptrStr(models.KindDebit),
	})
	if err != nil {
		t.Fatalf("create: %v", err)
	}

	// an amount-only patch derives the kind from the new sign
	got, err := svc.Update(u.ID, tx.ID, UpdateTransactionInput{Amount: ptrInt64(3000)})
	if err != nil {
		t.Fatalf("update: %v", err)
	}
	if got.Kind != models.KindCredit || got.Amount != 3000 {
		t.Errorf("kind/amount = %s/%d, want CREDIT/3000", got.Kind, got.Amount)
	}
}

func TestTransactionUpdate_ClearCategoryWithNull(t *testing.T) {
	db := setupTestDB(t)
	u := seedUser(t, db, "a@example.com")
	svc := newTransactionService(db)
	acc := seedAccount(t, db, u.ID, "Main", 0)
	cat := seedCategory(t, db, u.ID, "Food", nil)

	tx, err := svc.Create(u.ID, CreateTransactionInput{
		AccountID: acc.ID, Amount: -100, CategoryID: &cat.ID,
	})
	if err != nil {
		t.Fatalf("create: %v", err)
	}

	got, err := svc.Update(u.ID, tx.ID, UpdateTransactionInput{
		CategoryID: NullableUint{Set: true, Value: nil},
	})
	if err != nil {
		t.Fatalf("update: %v", err)
	}
	if got.CategoryID != nil {
		t.Errorf("categoryId = %v, want nil after explicit null", *got.CategoryID)
	}
}

func TestTransactionList_FiltersAndPages(t *testing.T) {
	db := setupTestDB(t)
	u := seedUser(t, db, "a@example.com")
	other := seedUser(t, db, "b@example.com")
	svc := newTransactionService(db)
	acc := seedAccount(t, db, u.ID, "Main", 0)
	theirs := seedAccount(t, db, other.ID, "theirs", 0)
	cat := seedCategory(t, db, u.ID, "Food", nil)

	base := time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC)
	for i := 0; i < 5; i++ {
		seedTransaction(t, db, acc.ID, -100*int64(i+1), models.KindDebit, base.AddDate(0, 0, i))
	}
	withCat := seedTransaction(t, db, acc.ID, 500, models.KindCredit, base)
	if err := db.Model(&models.Transaction{}).Where("id = ?", withCat.ID).
		Update("category_id", cat.ID).Error; err != nil {
		t.Fatalf("attach category: %v", err)
	}
	// foreign rows never leak into the listing
	seedTransaction(t, db, theirs.ID, -99999, models.KindDebit, base)

	res, err := svc.List(u.ID, ListFilters{})
	if err != nil {
		t.Fatalf("list: %v", err)
	}
	if res.Total != 6 {
		t.Errorf("total = %d, want 6", res.Total)
	}

	// paging
	res, err = svc.List(u.ID, ListFilters{Page: 2, PageSize: 4})
	if err != nil {
		t.Fatalf("list page 2: %v", err)
	}
	if len(res.Items) != 2 || res.Page != 2 || res.PageSize != 4 {
		t.Errorf("page 2 = %d items (page %d size %d), want 2 items", len(res.Items), res.Page, res.PageSize)
	}

	// explicit null category means uncategorized only
	res, err = svc.List(u.ID, ListFilters{CategoryID: NullableUint{Set: true, Value: nil}})
	if err != nil {
		t.Fatalf("list uncategorized: %v", err)
	}
	if res.Total != 5 {
		t.Errorf("uncategorized total = %d, want 5", res.Total)
	}

	// category filter
	res, err = svc.List(u.ID, ListFilters{CategoryID: NullableUint{Set: true, Value: &cat.ID}})
	if err != nil {
		t.Fatalf("list by category: %v", err)
	}
	if res.Total != 1 {
		t.Errorf("category total = %d, want 1", res.Total)
	}

	// date range
	from := base.AddDate(0, 0, 3)
	res, err = svc.List(u.ID, ListFilters{From: &from})
	if err != nil {
		t.Fatalf("list from: %v", err)
	}
	if res.Total != 2 {
		t.Errorf("from total = %d, want 2", res.Total)
	}

	// default sort is date descending
	res, err = svc.List(u.ID, ListFilters{})
	if err != nil {
		t.Fatalf("list sorted: %v", err)
	}
	for i := 1; i < len(res.Items); i++ {
		if res.Items[i].Date.After(res.Items[i-1].Date) {
			t.Errorf("items[%d] dated after items[%d], want descending", i, i-1)
		}
	}
}

func TestTransactionList_PageClamping(t *testing.T) {
	db := setupTestDB(t)
	u := seedUser(t, db, "a@example.com")
	svc := newTransactionService(db)

	res, err := svc.List(u.ID, ListFilters{Page: -5, PageSize: 100000})
	if err != nil {
		t.Fatalf("list: %v", err)
	}
	if res.Page != 1 {
		t.Errorf("page = %d, want clamped to 1", res.Page)
	}
	if res.PageSize != 100 {
		t.Errorf("pageSize = %d, want clamped to 100", res.PageSize)
	}
}

func TestTransactionGroupByCategory(t *testing.T) {
	db := setupTestDB(t)
	u := seedUser(t, db, "a@example.com")
	svc := newTransactionService(db)
	acc := seedAccount(t, db, u.ID, "Main", 0)
	root := seedCategory(t, db, u.ID, "Food", nil)
	child := seedCategory(t, db, u.ID, "Groceries", &root.ID)

	base := time.Date(2026, 3, 1, 0, 0, 0, 0, time.UTC)
	a := seedTransaction(t, db, acc.ID, -100, models.KindDebit, base)
	b := seedTransaction(t, db, acc.ID, -300, models.KindDebit, base.AddDate(0, 0, 2))
	for _, tx := range []*models.Transaction{a, b} {
		if err := db.Model(&models.Transaction{}).Where("id = ?", tx.ID).
			Update("category_id", child.ID).Error; err != nil {
			t.Fatalf("attach category: %v", err)
		}
	}
	seedTransaction(t, db, acc.ID, 700, models.KindCredit, base.AddDate(0, 0, 1))

	groups, err := svc.GroupByCategory(u.ID, ListFilters{})
	if err != nil {
		t.Fatalf("group: %v", err)
	}
	if len(groups) != 2 {
		t.Fatalf("len(groups) = %d, want 2", len(groups))
	}

	var catGroup, nilGroup *CategoryGroup
	for i := range groups {
		if groups[i].CategoryID == nil {
			nilGroup = &groups[i]
		} else if *groups[i].CategoryID == child.ID {
			catGroup = &groups[i]
		}
	}
	if catGroup == nil || nilGroup == nil {
		t.Fatalf("groups = %+v, want one child bucket and one uncategorized bucket", groups)
	}

	if catGroup.Count != 2 || catGroup.Sum != -400 {
		t.Errorf("child bucket count/sum = %d/%d, want 2/-400", catGroup.Count, catGroup.Sum)
	}
	if catGroup.CategoryName == nil || *catGroup.CategoryName != "Groceries" {
		t.Errorf("categoryName = %v, want Groceries", catGroup.CategoryName)
	}
	if catGroup.ParentName == nil || *catGroup.ParentName != "Food" {
		t.Errorf("parentName = %v, want Food", catGroup.ParentName)
	}
	if catGroup.MinDate == nil || !catGroup.MinDate.Equal(base) {
		t.Errorf("minDate = %v, want %v", catGroup.MinDate, base)
	}
	if catGroup.MaxDate == nil || !catGroup.MaxDate.Equal(base.AddDate(0, 0, 2)) {
		t.Errorf("maxDate = %v, want %v", catGroup.MaxDate, base.AddDate(0, 0, 2))
	}

	if nilGroup.Count != 1 || nilGroup.Sum != 700 {
		t.Errorf("uncategorized bucket count/sum = %d/%d, want 1/700", nilGroup.Count, nilGroup.Sum)
	}
}

func TestTransfer_CreatesBothLegs(t *testing.T) {
	db := setupTestDB(t)
	u := seedUser(t, db, "a@example.com")
	svc := newTransactionService(db)
	from := seedAccount(t, db, u.ID, "Main", 10000)
	to := seedAccount(t, db, u.ID, "Savings", 0)

	tr, err := svc.CreateTransfer(u.ID, TransferInput{
		FromAccountID: from.ID, ToAccountID: to.ID, Amount: 2500, Description: "stash",
	})
	if err != nil {
		t.Fatalf("create transfer: %v", err)
	}

	if tr.Out.Amount != -2500 || tr.Out.Kind != models.KindDebit {
		t.Errorf("out leg = %d/%s, want -2500/DEBIT", tr.Out.Amount, tr.Out.Kind)
	}
	if tr.In.Amount != 2500 || tr.In.Kind != models.KindCredit {
		t.Errorf("in leg = %d/%s, want 2500/CREDIT", tr.In.Amount, tr.In.Kind)
	}
	if tr.Out.TransferID == nil || tr.In.TransferID == nil || *tr.Out.TransferID != *tr.In.TransferID {
		t.Error("legs do not share a transferId")
	}

	fromBal, _ := svc.CurrentBalance(u.ID, from.ID)
	toBal, _ := svc.CurrentBalance(u.ID, to.ID)
	if fromBal != 7500 || toBal != 2500 {
		t.Errorf("balances = %d/%d, want 7500/2500", fromBal, toBal)
	}
}

func TestTransfer_Guards(t *testing.T) {
	db := setupTestDB(t)
	u := seedUser(t, db, "a@example.com")
	svc := newTransactionService(db)
	acc := seedAccount(t, db, u.ID, "Main", 0)
	other := seedAccount(t, db, u.ID, "Savings", 0)

	_, err := svc.CreateTransfer(u.ID, TransferInput{
		FromAccountID: acc.ID, ToAccountID: acc.ID, Amount: 100,
	})
	wantKind(t, err, KindConflict)

	_, err = svc.CreateTransfer(u.ID, TransferInput{
		FromAccountID: acc.ID, ToAccountID: other.ID, Amount: 0,
	})
	wantKind(t, err, KindInvalidInput)
}

func TestTransfer_AtomicOnFailure(t *testing.T) {
	db := setupTestDB(t)
	u := seedUser(t, db, "a@example.com")
	stranger := seedUser(t, db, "b@example.com")
	svc := newTransactionService(db)
	from := seedAccount(t, db, u.ID, "Main", 0)
	foreign := seedAccount(t, db, stranger.ID, "theirs", 0)

	// destination check fails after the source check passes
	_, err := svc.CreateTransfer(u.ID, TransferInput{
		FromAccountID: from.ID, ToAccountID: foreign.ID, Amount: 2500,
	})
	wantKind(t, err, KindNotFound)

	var count int64
	if err := db.Model(&models.Transaction{}).Count(&count).Error; err != nil {
		t.Fatalf("count: %v", err)
	}
	if count != 0 {
		t.Errorf("transactions = %d, want 0 after failed transfer", count)
	}
}

func TestTransfer_RemoveDeletesBothLegs(t *testing.T) {
	db := setupTestDB(t)
	u := seedUser(t, db, "a@example.com")
	svc := newTransactionService(db)
	from := seedAccount(t, db, u.ID, "Main", 0)
	to := seedAccount(t, db, u.ID, "Savings", 0)

	tr, err := svc.CreateTransfer(u.ID, TransferInput{
		FromAccountID: from.ID, ToAccountID: to.ID, Amount: 100,
	})
	if err != nil {
		t.Fatalf("create transfer: %v", err)
	}

	if err := svc.RemoveTransfer(u.ID, tr.TransferID); err != nil {
		t.Fatalf("remove transfer: %v", err)
	}

	var count int64
	if err := db.Model(&models.Transaction{}).Count(&count).Error; err != nil {
		t.Fatalf("count: %v", err)
	}
	if count != 0 {
		t.Errorf("transactions = %d, want 0 after remove", count)
	}

	err = svc.RemoveTransfer(u.ID, tr.TransferID)
	wantKind(t, err, KindNotFound)
}

func TestConvertToTransfer(t *testing.T) {
	db := setupTestDB(t)
	u := seedUser(t, db, "a@example.com")
	svc := newTransactionService(db)
	from := seedAccount(t, db, u.ID, "Main", 0)
	to := seedAccount(t, db, u.ID, "Savings", 0)

	src, err := svc.Create(u.ID, CreateTransactionInput{
		AccountID: from.ID, Amount: -2500, Kind: ptrStr(models.KindDebit), Description: "stash",
	})
	if err != nil {
		t.Fatalf("create: %v", err)
	}

	conv, err := svc.ConvertToTransfer(u.ID, ConvertInput{TxID: src.ID, ToAccountID: to.ID})
	if err != nil {
		t.Fatalf("convert: %v", err)
	}

	if conv.Source.TransferID == nil || *conv.Source.TransferID != conv.TransferID {
		t.Error("source leg not stamped with transferId")
	}
	if conv.Destination.Amount != 2500 || conv.Destination.Kind != models.KindCredit {
		t.Errorf("counter leg = %d/%s, want 2500/CREDIT", conv.Destination.Amount, conv.Destination.Kind)
	}
	if conv.Destination.AccountID != to.ID {
		t.Errorf("counter leg account = %d, want %d", conv.Destination.AccountID, to.ID)
	}

	// a leg cannot be converted twice
	_, err = svc.ConvertToTransfer(u.ID, ConvertInput{TxID: src.ID, ToAccountID: to.ID})
	wantKind(t, err, KindConflict)
}

func TestConvertToTransfer_SameAccountRejected(t *testing.T) {
	db := setupTestDB(t)
	u := seedUser(t, db, "a@example.com")
	svc := newTransactionService(db)
	acc := seedAccount(t, db, u.ID, "Main", 0)

	src, err := svc.Create(u.ID, CreateTransactionInput{
		AccountID: acc.ID, Amount: -2500, Kind: ptrStr(models.KindDebit),
	})
	if err != nil {
		t.Fatalf("create: %v", err)
	}

	_, err = svc.ConvertToTransfer(u.ID, ConvertInput{TxID: src.ID, ToAccountID: acc.ID})
	wantKind(t, err, KindConflict)
}

func TestTransactionOwnership_CrossTenantIsNotFound(t *testing.T) {
	db := setupTestDB(t)
	u := seedUser(t, db, "a@example.com")
	other := seedUser(t, db, "b@example.com")
	svc := newTransactionService(db)
	theirs := seedAccount(t, db, other.ID, "theirs", 0)
	tx := seedTransaction(t, db, theirs.ID, -100, models.KindDebit, time.Now())

	_, err := svc.Update(u.ID, tx.ID, UpdateTransactionInput{Notes: ptrStr("mine now")})
	wantKind(t, err, KindNotFound)

	err = svc.Remove(u.ID, tx.ID)
	wantKind(t, err, KindNotFound)
}
