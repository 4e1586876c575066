package service

import (
	"testing"

	"github.com/nunocpr/PersonalFinance/internal/models"
)

func TestRuleMatch_PriorityOrder(t *testing.T) {
	db := setupTestDB(t)
	u := seedUser(t, db, "a@example.com")
	svc := NewRuleService(db)

	catRides := seedCategory(t, db, u.ID, "Rides", nil)
	catMisc := seedCategory(t, db, u.ID, "Misc", nil)

	// broad pattern, but lower priority number matches first
	if _, err := svc.Create(u.ID, CreateRuleInput{
		Name: "uber", Pattern: "uber", Priority: ptrInt(10), CategoryID: &catRides.ID,
	}); err != nil {
		t.Fatalf("create rule: %v", err)
	}
	if _, err := svc.Create(u.ID, CreateRuleInput{
		Name: "any-u", Pattern: "u", Priority: ptrInt(20), CategoryID: &catMisc.ID,
	}); err != nil {
		t.Fatalf("create rule: %v", err)
	}

	got, err := svc.Match(u.ID, "UBER EATS lisbon")
	if err != nil {
		t.Fatalf("match: %v", err)
	}
	if got == nil {
		t.Fatal("match = nil, want rule")
	}
	if got.CategoryID == nil || *got.CategoryID != catRides.ID {
		t.Errorf("matched category = %v, want %d", got.CategoryID, catRides.ID)
	}
}

func TestRuleMatch_SamePriorityLowerIDWins(t *testing.T) {
	db := setupTestDB(t)
	u := seedUser(t, db, "a@example.com")
	svc := NewRuleService(db)

	first, err := svc.Create(u.ID, CreateRuleInput{Name: "first", Pattern: "shop"})
	if err != nil {
		t.Fatalf("create rule: %v", err)
	}
	if _, err := svc.Create(u.ID, CreateRuleInput{Name: "second", Pattern: "shop"}); err != nil {
		t.Fatalf("create rule: %v", err)
	}

	got, err := svc.Match(u.ID, "coffee shop")
	if err != nil {
		t.Fatalf("match: %v", err)
	}
	if got == nil || got.ID != first.ID {
		t.Errorf("matched rule = %+v, want id %d", got, first.ID)
	}
}

func TestRuleMatch_CaseSensitivity(t *testing.T) {
	db := setupTestDB(t)
	u := seedUser(t, db, "a@example.com")
	svc := NewRuleService(db)

	if _, err := svc.Create(u.ID, CreateRuleInput{
		Name: "exact", Pattern: "NetFlix", CaseSensitive: true,
	}); err != nil {
		t.Fatalf("create rule: %v", err)
	}

	got, err := svc.Match(u.ID, "netflix subscription")
	if err != nil {
		t.Fatalf("match: %v", err)
	}
	if got != nil {
		t.Errorf("case-sensitive rule matched %q, want no match", "netflix subscription")
	}

	got, err = svc.Match(u.ID, "NetFlix subscription")
	if err != nil {
		t.Fatalf("match: %v", err)
	}
	if got == nil {
		t.Error("case-sensitive rule did not match exact casing")
	}
}

func TestRuleMatch_Regex(t *testing.T) {
	db := setupTestDB(t)
	u := seedUser(t, db, "a@example.com")
	svc := NewRuleService(db)

	if _, err := svc.Create(u.ID, CreateRuleInput{
		Name: "grocery", Pattern: `^(lidl|aldi)\b`, IsRegex: true,
	}); err != nil {
		t.Fatalf("create rule: %v", err)
	}

	got, err := svc.Match(u.ID, "LIDL 0423")
	if err != nil {
		t.Fatalf("match: %v", err)
	}
	if got == nil {
		t.Error("case-insensitive regex did not match")
	}

	got, err = svc.Match(u.ID, "my lidland trip")
	if err != nil {
		t.Fatalf("match: %v", err)
	}
	if got != nil {
		t.Error("regex matched beyond its word boundary")
	}
}

func TestRuleMatch_EmptyDescription(t *testing.T) {
	db := setupTestDB(t)
	u := seedUser(t, db, "a@example.com")
	svc := NewRuleService(db)

	// matches every non-empty string
	if _, err := svc.Create(u.ID, CreateRuleInput{
		Name: "all", Pattern: ".*", IsRegex: true,
	}); err != nil {
		t.Fatalf("create rule: %v", err)
	}

	got, err := svc.Match(u.ID, "")
	if err != nil {
		t.Fatalf("match: %v", err)
	}
	if got != nil {
		t.Error("empty description matched a rule, want no match")
	}
}

func TestRuleMatch_InactiveSkipped(t *testing.T) {
	db := setupTestDB(t)
	u := seedUser(t, db, "a@example.com")
	svc := NewRuleService(db)

	if _, err := svc.Create(u.ID, CreateRuleInput{
		Name: "off", Pattern: "uber", IsActive: ptrBool(false),
	}); err != nil {
		t.Fatalf("create rule: %v", err)
	}

	got, err := svc.Match(u.ID, "uber ride")
	if err != nil {
		t.Fatalf("match: %v", err)
	}
	if got != nil {
		t.Error("inactive rule matched, want no match")
	}
}

func TestRuleMatch_MalformedStoredRegexIsNonMatch(t *testing.T) {
	db := setupTestDB(t)
	u := seedUser(t, db, "a@example.com")
	svc := NewRuleService(db)

	// rows predating write-time validation go straight into the store
	bad := models.TransactionRule{
		UserID: u.ID, Name: "bad", Pattern: "([", IsRegex: true,
		IsActive: true, Priority: 1,
	}
	if err := db.Create(&bad).Error; err != nil {
		t.Fatalf("seed rule: %v", err)
	}
	if _, err := svc.Create(u.ID, CreateRuleInput{
		Name: "good", Pattern: "ride", Priority: ptrInt(2),
	}); err != nil {
		t.Fatalf("create rule: %v", err)
	}

	got, err := svc.Match(u.ID, "uber ride")
	if err != nil {
		t.Fatalf("match: %v", err)
	}
	if got == nil || got.Name != "good" {
		t.Errorf("matched %+v, want the rule after the broken one", got)
	}
}

func TestRuleCreate_RejectsInvalidRegex(t *testing.T) {
	db := setupTestDB(t)
	u := seedUser(t, db, "a@example.com")
	svc := NewRuleService(db)

	_, err := svc.Create(u.ID, CreateRuleInput{Name: "bad", Pattern: "([", IsRegex: true})
	wantKind(t, err, KindInvalidInput)
}

func TestRuleCreate_RejectsForeignCategory(t *testing.T) {
	db := setupTestDB(t)
	u := seedUser(t, db, "a@example.com")
	other := seedUser(t, db, "b@example.com")
	svc := NewRuleService(db)

	cat := seedCategory(t, db, other.ID, "theirs", nil)
	_, err := svc.Create(u.ID, CreateRuleInput{Name: "r", Pattern: "x", CategoryID: &cat.ID})
	wantKind(t, err, KindNotFound)
}

func TestRuleUpdate_ClearCategoryWithNull(t *testing.T) {
	db := setupTestDB(t)
	u := seedUser(t, db, "a@example.com")
	svc := NewRuleService(db)

	cat := seedCategory(t, db, u.ID, "mine", nil)
	rule, err := svc.Create(u.ID, CreateRuleInput{Name: "r", Pattern: "x", CategoryID: &cat.ID})
	if err != nil {
		t.Fatalf("create rule: %v", err)
	}

	updated, err := svc.Update(u.ID, rule.ID, UpdateRuleInput{
		CategoryID: NullableUint{Set: true, Value: nil},
	})
	if err != nil {
		t.Fatalf("update rule: %v", err)
	}
	if updated.CategoryID != nil {
		t.Errorf("categoryId = %v, want nil after explicit null", *updated.CategoryID)
	}
}

func TestRuleReorder_RewritesPriorities(t *testing.T) {
	db := setupTestDB(t)
	u := seedUser(t, db, "a@example.com")
	other := seedUser(t, db, "b@example.com")
	svc := NewRuleService(db)

	r1, _ := svc.Create(u.ID, CreateRuleInput{Name: "r1", Pattern: "a"})
	r2, _ := svc.Create(u.ID, CreateRuleInput{Name: "r2", Pattern: "b"})
	foreign := models.TransactionRule{UserID: other.ID, Name: "f", Pattern: "c", IsActive: true, Priority: 1}
	if err := db.Create(&foreign).Error; err != nil {
		t.Fatalf("seed rule: %v", err)
	}

	// ids not owned by the caller are skipped without error
	if err := svc.Reorder(u.ID, []uint{r2.ID, foreign.ID, r1.ID}); err != nil {
		t.Fatalf("reorder: %v", err)
	}

	rules, err := svc.List(u.ID)
	if err != nil {
		t.Fatalf("list: %v", err)
	}
	if len(rules) != 2 {
		t.Fatalf("len(rules) = %d, want 2", len(rules))
	}
	if rules[0].ID != r2.ID || rules[0].Priority != 10 {
		t.Errorf("rules[0] = id %d priority %d, want id %d priority 10", rules[0].ID, rules[0].Priority, r2.ID)
	}
	if rules[1].ID != r1.ID || rules[1].Priority != 20 {
		t.Errorf("rules[1] = id %d priority %d, want id %d priority 20", rules[1].ID, rules[1].Priority, r1.ID)
	}

	var untouched models.TransactionRule
	if err := db.First(&untouched, foreign.ID).Error; err != nil {
		t.Fatalf("load foreign rule: %v", err)
	}
	if untouched.Priority != 1 {
		t.Errorf("foreign rule priority = %d, want untouched 1", untouched.Priority)
	}
}
