package service

import (
	"testing"
	"time"

	"github.com/nunocpr/PersonalFinance/internal/models"

	"github.com/google/uuid"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"
)

// setupTestDB opens a fresh in-memory SQLite store with the full schema.
// A single connection keeps the :memory: database alive for the test.
func setupTestDB(t *testing.T) *gorm.DB {
	t.Helper()

	db, err := gorm.Open(sqlite.Open(":memory:"), &gorm.Config{
		Logger: logger.Default.LogMode(logger.Silent),
	})
	if err != nil {
		t.Fatalf("open test db: %v", err)
	}
	sqlDB, err := db.DB()
	if err != nil {
		t.Fatalf("get sql db: %v", err)
	}
	sqlDB.SetMaxOpenConns(1)

	err = db.AutoMigrate(
		&models.User{},
		&models.Account{},
		&models.Category{},
		&models.TransactionRule{},
		&models.Transaction{},
	)
	if err != nil {
		t.Fatalf("migrate test db: %v", err)
	}
	return db
}

func seedUser(t *testing.T, db *gorm.DB, email string) *models.User {
	t.Helper()
	u := models.User{
		PublicID:     uuid.NewString(),
		Email:        email,
		Name:         "tester",
		PasswordHash: "x",
	}
	if err := db.Create(&u).Error; err != nil {
		t.Fatalf("seed user: %v", err)
	}
	return &u
}

func seedAccount(t *testing.T, db *gorm.DB, userID uint, name string, openingBalance int64) *models.Account {
	t.Helper()
	acc := models.Account{
		UserID:         userID,
		Name:           name,
		Type:           models.AccountChecking,
		OpeningBalance: openingBalance,
	}
	if err := db.Create(&acc).Error; err != nil {
		t.Fatalf("seed account: %v", err)
	}
	return &acc
}

func seedCategory(t *testing.T, db *gorm.DB, userID uint, name string, parentID *uint) *models.Category {
	t.Helper()
	cat := models.Category{
		UserID:   userID,
		Name:     name,
		ParentID: parentID,
		Kind:     models.CategoryExpense,
	}
	if err := db.Create(&cat).Error; err != nil {
		t.Fatalf("seed category: %v", err)
	}
	return &cat
}

func seedTransaction(t *testing.T, db *gorm.DB, accountID uint, amount int64, kind string, date time.Time) *models.Transaction {
	t.Helper()
	tx := models.Transaction{
		ID:        uuid.NewString(),
		AccountID: accountID,
		Date:      date,
		Amount:    amount,
		Kind:      kind,
	}
	if err := db.Create(&tx).Error; err != nil {
		t.Fatalf("seed transaction: %v", err)
	}
	return &tx
}

func wantKind(t *testing.T, err error, kind ErrorKind) {
	t.Helper()
	if err == nil {
		t.Fatal("error = nil, want tagged error")
	}
	se, ok := err.(*Error)
	if !ok {
		t.Fatalf("error type = %T, want *service.Error (%v)", err, err)
	}
	if se.Kind != kind {
		t.Fatalf("error kind = %d, want %d (%v)", se.Kind, kind, err)
	}
}

func ptrInt(v int) *int       { return &v }
func ptrInt64(v int64) *int64 { return &v }
func ptrStr(v string) *string { return &v }
func ptrBool(v bool) *bool    { return &v }
