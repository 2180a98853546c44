package workflow

import (
	"context"
	"errors"
	"testing"

	"github.com/genautech/rewards_backend/models"
	"github.com/shopspring/decimal"
)

var manager = models.Actor{Id: 11, Role: models.UserRoleManager}

func TestCreateBudgetWithItems(t *testing.T) {
	ctx := context.Background()
	f := newFixture(t)
	mug := f.baseProduct(t, "MUG", 10, 100)
	svc := NewBudgetService(f.repos)

	budget, err := svc.CreateBudget(ctx, manager, &models.NewBudget{
		CompanyId: " acme ",
		Title:     "Onboarding kits",
		Items: []models.NewBudgetItem{
			{BaseProductId: mug.ID, Qty: 5, UnitPrice: decimal.NewFromInt(8), UnitPoints: decimal.NewFromInt(80)},
		},
	})
	if err != nil {
		t.Fatalf("create: %v", err)
	}
	if budget.Status != models.BudgetStatusDraft || budget.CompanyId != "acme" || budget.CreatedBy != 11 {
		t.Fatalf("unexpected budget %+v", budget)
	}
	if !budget.TotalPrice.Equal(decimal.NewFromInt(40)) || !budget.TotalPoints.Equal(decimal.NewFromInt(400)) {
		t.Fatalf("totals not computed: %s / %s", budget.TotalPrice, budget.TotalPoints)
	}
	items, _ := svc.ListItems(ctx, budget.ID)
	if len(items) != 1 || items[0].Position != 1 {
		t.Fatalf("unexpected items %+v", items)
	}
}

func TestCreateBudgetValidation(t *testing.T) {
	ctx := context.Background()
	f := newFixture(t)
	svc := NewBudgetService(f.repos)

	if _, err := svc.CreateBudget(ctx, models.Actor{Id: 1, Role: models.UserRoleMember}, &models.NewBudget{CompanyId: "acme", Title: "x"}); !errors.Is(err, models.ErrForbidden) {
		t.Fatalf("expected forbidden for member, got %v", err)
	}

	var ve *models.ValidationError
	_, err := svc.CreateBudget(ctx, manager, &models.NewBudget{
		Title: "",
		Items: []models.NewBudgetItem{{BaseProductId: 1, Qty: 0, UnitPrice: decimal.NewFromInt(-1)}},
	})
	if !errors.As(err, &ve) {
		t.Fatalf("expected validation error, got %v", err)
	}
	for _, field := range []string{"company_id", "title", "items[0].qty", "items[0].unit_price"} {
		if _, ok := ve.Fields[field]; !ok {
			t.Fatalf("expected %s in %v", field, ve.Fields)
		}
	}

	if _, err := svc.CreateBudget(ctx, manager, &models.NewBudget{
		CompanyId: "acme",
		Title:     "Ghost items",
		Items:     []models.NewBudgetItem{{BaseProductId: 77, Qty: 1}},
	}); !models.IsNotFound(err) {
		t.Fatalf("expected missing base product, got %v", err)
	}
}

func TestItemEditsRecomputeTotals(t *testing.T) {
	ctx := context.Background()
	f := newFixture(t)
	mug := f.baseProduct(t, "MUG", 10, 100)
	tee := f.baseProduct(t, "TEE", 20, 200)
	svc := NewBudgetService(f.repos)
	budget, err := svc.CreateBudget(ctx, manager, &models.NewBudget{CompanyId: "acme", Title: "Kits"})
	if err != nil {
		t.Fatalf("create: %v", err)
	}

	item, err := svc.AddItem(ctx, manager, budget.ID, &models.NewBudgetItem{BaseProductId: mug.ID, Qty: 2, UnitPrice: decimal.NewFromInt(10), UnitPoints: decimal.NewFromInt(100)})
	if err != nil {
		t.Fatalf("add: %v", err)
	}
	if _, err := svc.AddItem(ctx, manager, budget.ID, &models.NewBudgetItem{BaseProductId: tee.ID, Qty: 1, UnitPrice: decimal.NewFromInt(20), UnitPoints: decimal.NewFromInt(200)}); err != nil {
		t.Fatalf("add second: %v", err)
	}
	assertTotals(t, f, budget.ID, "40", "400")

	qty := 5
	if _, err := svc.UpdateItem(ctx, manager, budget.ID, item.ID, &models.BudgetItemPatch{Qty: &qty}); err != nil {
		t.Fatalf("update: %v", err)
	}
	assertTotals(t, f, budget.ID, "70", "700")

	if err := svc.DeleteItem(ctx, manager, budget.ID, item.ID); err != nil {
		t.Fatalf("delete: %v", err)
	}
	assertTotals(t, f, budget.ID, "20", "200")

	items, err := svc.ReplaceItems(ctx, manager, budget.ID, []models.NewBudgetItem{
		{BaseProductId: tee.ID, Qty: 1, UnitPrice: decimal.NewFromInt(1), UnitPoints: decimal.NewFromInt(1)},
		{BaseProductId: mug.ID, Qty: 1, UnitPrice: decimal.NewFromInt(2), UnitPoints: decimal.NewFromInt(2)},
	})
	if err != nil {
		t.Fatalf("replace: %v", err)
	}
	if len(items) != 2 || items[0].BaseProductId != tee.ID || items[1].BaseProductId != mug.ID {
		t.Fatalf("replace lost order: %+v", items)
	}
	assertTotals(t, f, budget.ID, "3", "3")
}

func TestItemEditsRequireEditableDraft(t *testing.T) {
	ctx := context.Background()
	f := newFixture(t)
	mug := f.baseProduct(t, "MUG", 10, 100)
	svc := NewBudgetService(f.repos)
	submitted := f.budget(t, "acme", models.BudgetStatusSubmitted, 1)
	draft := f.budget(t, "acme", models.BudgetStatusDraft, 1)
	other := f.budget(t, "acme", models.BudgetStatusDraft, 1)
	foreign := f.item(t, other.ID, mug.ID, 1, "1", "1")

	var notEditable *models.NotEditableError
	if _, err := svc.AddItem(ctx, manager, submitted.ID, &models.NewBudgetItem{BaseProductId: mug.ID, Qty: 1}); !errors.As(err, &notEditable) {
		t.Fatalf("expected not editable, got %v", err)
	}
	if err := svc.DeleteItem(ctx, manager, draft.ID, foreign.ID); !models.IsNotFound(err) {
		t.Fatalf("expected item of another budget to be not found, got %v", err)
	}

	if _, err := svc.ArchiveBudget(ctx, manager, draft.ID); err != nil {
		t.Fatalf("archive: %v", err)
	}
	if _, err := svc.AddItem(ctx, manager, draft.ID, &models.NewBudgetItem{BaseProductId: mug.ID, Qty: 1}); !errors.As(err, &notEditable) || !notEditable.Archived {
		t.Fatalf("expected archived budget to reject items, got %v", err)
	}
	list, _ := svc.ListBudgets(ctx, models.BudgetFilter{CompanyId: "acme"})
	if len(list) != 2 {
		t.Fatalf("archived budget should be hidden, got %d", len(list))
	}
}

func assertTotals(t *testing.T, f *fixture, budgetId int, price string, points string) {
	t.Helper()
	budget, err := f.store.GetBudget(context.Background(), budgetId)
	if err != nil {
		t.Fatalf("reload budget: %v", err)
	}
	if !budget.TotalPrice.Equal(decimal.RequireFromString(price)) || !budget.TotalPoints.Equal(decimal.RequireFromString(points)) {
		t.Fatalf("expected totals %s/%s, got %s/%s", price, points, budget.TotalPrice, budget.TotalPoints)
	}
}
