package workflow

import (
	"context"
	"errors"
	"strings"
	"testing"
	"time"

	"github.com/genautech/rewards_backend/models"
	"github.com/genautech/rewards_backend/utils"
	"github.com/shopspring/decimal"
)

func TestReplicateBudgetHappyPath(t *testing.T) {
	ctx := utils.SetCorrelationIdInContext(context.Background(), "corr-1")
	f := newFixture(t)
	mug := f.baseProduct(t, "MUG", 10, 100)
	tee := f.baseProduct(t, "TEE", 20, 200)
	budget := f.budget(t, "acme", models.BudgetStatusReleased, 7)
	f.item(t, budget.ID, mug.ID, 3, "9", "90")
	f.item(t, budget.ID, tee.ID, 1, "18", "180")

	summary, err := f.replicator.ReplicateBudget(ctx, ReplicateBudgetInput{BudgetId: budget.ID})
	if err != nil {
		t.Fatalf("replicate: %v", err)
	}
	if summary.Total != 2 || summary.Created != 2 || summary.Updated != 0 || summary.Skipped != 0 || summary.HasErrors() {
		t.Fatalf("unexpected summary %+v", summary)
	}
	if summary.Status != models.BudgetStatusReplicated || summary.LogId == 0 || summary.LogError != "" {
		t.Fatalf("unexpected summary state %+v", summary)
	}
	if summary.Results[0].BaseProductId != mug.ID || summary.Results[1].BaseProductId != tee.ID {
		t.Fatalf("results not in item order: %+v", summary.Results)
	}

	stored, _ := f.store.GetBudget(ctx, budget.ID)
	if stored.Status != models.BudgetStatusReplicated || stored.ReplicatedAt == nil || stored.UpdatedBy != 7 {
		t.Fatalf("budget not advanced: %+v", stored)
	}
	cp, err := f.store.GetCompanyProduct(ctx, "acme", mug.ID)
	if err != nil {
		t.Fatalf("company product: %v", err)
	}
	if !cp.Price.Equal(decimal.NewFromInt(9)) || !cp.PointsCost.Equal(decimal.NewFromInt(90)) {
		t.Fatalf("item unit values not used as overrides: %+v", cp)
	}

	logs := f.logs(t)
	if len(logs) != 1 {
		t.Fatalf("expected exactly one log, got %d", len(logs))
	}
	entry := logs[0]
	if entry.Action != models.ReplicationActionBudget || *entry.BudgetId != budget.ID || entry.ActorId != 7 || entry.CompanyId != "acme" {
		t.Fatalf("unexpected log %+v", entry)
	}
	meta := entry.Metadata.Data()
	if meta.DryRun || meta.Source != SourceBudgetRelease || meta.CorrelationId != "corr-1" {
		t.Fatalf("unexpected metadata %+v", meta)
	}
	if len(entry.Results) != 2 || len(entry.Errors) != 0 {
		t.Fatalf("log results/errors wrong: %d/%d", len(entry.Results), len(entry.Errors))
	}
}

func TestReplicateBudgetIsIdempotentAcrossRuns(t *testing.T) {
	ctx := context.Background()
	f := newFixture(t)
	mug := f.baseProduct(t, "MUG", 10, 100)
	budget := f.budget(t, "acme", models.BudgetStatusReleased, 7)
	f.item(t, budget.ID, mug.ID, 1, "10", "100")

	if _, err := f.replicator.ReplicateBudget(ctx, ReplicateBudgetInput{BudgetId: budget.ID}); err != nil {
		t.Fatalf("first run: %v", err)
	}

	var notReleased *models.NotReleasedError
	if _, err := f.replicator.ReplicateBudget(ctx, ReplicateBudgetInput{BudgetId: budget.ID}); !errors.As(err, &notReleased) {
		t.Fatalf("expected not released on replicated budget, got %v", err)
	}

	released := models.BudgetStatusReleased
	if _, err := f.store.UpdateBudget(ctx, budget.ID, models.BudgetPatch{Status: &released}); err != nil {
		t.Fatalf("reset status: %v", err)
	}
	summary, err := f.replicator.ReplicateBudget(ctx, ReplicateBudgetInput{BudgetId: budget.ID})
	if err != nil {
		t.Fatalf("replay: %v", err)
	}
	if summary.Skipped != 1 || summary.Created != 0 || summary.Updated != 0 {
		t.Fatalf("replay should skip, got %+v", summary)
	}
	if n := len(f.companyProducts(t, "acme")); n != 1 {
		t.Fatalf("expected one company product, got %d", n)
	}
}

func TestReplicateBudgetDryRunWritesOnlyTheLog(t *testing.T) {
	ctx := context.Background()
	f := newFixture(t)
	mug := f.baseProduct(t, "MUG", 10, 100)
	budget := f.budget(t, "acme", models.BudgetStatusReleased, 7)
	f.item(t, budget.ID, mug.ID, 1, "10", "100")

	summary, err := f.replicator.ReplicateBudget(ctx, ReplicateBudgetInput{BudgetId: budget.ID, DryRun: true, ActorId: intPtr(99)})
	if err != nil {
		t.Fatalf("dry run: %v", err)
	}
	if !summary.DryRun || summary.Created != 1 || summary.Status != models.BudgetStatusReleased {
		t.Fatalf("unexpected dry run summary %+v", summary)
	}
	if n := len(f.companyProducts(t, "acme")); n != 0 {
		t.Fatalf("dry run wrote %d company products", n)
	}
	stored, _ := f.store.GetBudget(ctx, budget.ID)
	if stored.Status != models.BudgetStatusReleased || stored.ReplicatedAt != nil {
		t.Fatalf("dry run advanced budget: %+v", stored)
	}
	logs := f.logs(t)
	if len(logs) != 1 || !logs[0].Metadata.Data().DryRun || logs[0].ActorId != 99 {
		t.Fatalf("expected one dry run log by actor 99, got %+v", logs)
	}
}

func TestReplicateBudgetPartialFailure(t *testing.T) {
	ctx := context.Background()
	f := newFixture(t)
	mug := f.baseProduct(t, "MUG", 10, 100)
	budget := f.budget(t, "acme", models.BudgetStatusReleased, 7)
	f.item(t, budget.ID, mug.ID, 1, "10", "100")
	f.item(t, budget.ID, 404, 2, "1", "1")

	summary, err := f.replicator.ReplicateBudget(ctx, ReplicateBudgetInput{BudgetId: budget.ID})
	if err != nil {
		t.Fatalf("partial failure should not be an error: %v", err)
	}
	if summary.Created != 1 || len(summary.Errors) != 1 || summary.Total != 2 {
		t.Fatalf("unexpected summary %+v", summary)
	}
	if !strings.HasPrefix(summary.Errors[0], "404: ") {
		t.Fatalf("error not prefixed with base product id: %q", summary.Errors[0])
	}
	stored, _ := f.store.GetBudget(ctx, budget.ID)
	if stored.Status != models.BudgetStatusReleased {
		t.Fatalf("budget advanced despite errors: %s", stored.Status)
	}
	logs := f.logs(t)
	if len(logs) != 1 || len(logs[0].Errors) != 1 || len(logs[0].Results) != 1 {
		t.Fatalf("log does not carry the partial outcome: %+v", logs)
	}
}

func TestReplicateBudgetPreconditions(t *testing.T) {
	ctx := context.Background()
	f := newFixture(t)
	mug := f.baseProduct(t, "MUG", 10, 100)
	approved := f.budget(t, "acme", models.BudgetStatusApproved, 7)
	f.item(t, approved.ID, mug.ID, 1, "10", "100")
	empty := f.budget(t, "acme", models.BudgetStatusReleased, 7)

	var notReleased *models.NotReleasedError
	if _, err := f.replicator.ReplicateBudget(ctx, ReplicateBudgetInput{BudgetId: approved.ID}); !errors.As(err, &notReleased) {
		t.Fatalf("expected not released, got %v", err)
	}
	var noItems *models.NoItemsError
	if _, err := f.replicator.ReplicateBudget(ctx, ReplicateBudgetInput{BudgetId: empty.ID}); !errors.As(err, &noItems) {
		t.Fatalf("expected no items, got %v", err)
	}
	if _, err := f.replicator.ReplicateBudget(ctx, ReplicateBudgetInput{BudgetId: 999}); !models.IsNotFound(err) {
		t.Fatalf("expected not found, got %v", err)
	}
	var ve *models.ValidationError
	if _, err := f.replicator.ReplicateBudget(ctx, ReplicateBudgetInput{}); !errors.As(err, &ve) {
		t.Fatalf("expected validation error, got %v", err)
	}
	if n := len(f.logs(t)); n != 0 {
		t.Fatalf("failed preconditions wrote %d logs", n)
	}
	if n := len(f.companyProducts(t, "acme")); n != 0 {
		t.Fatalf("failed preconditions wrote %d company products", n)
	}
}

func TestReplicateBudgetSurvivesLogWriteFailure(t *testing.T) {
	ctx := context.Background()
	f := newFixture(t)
	mug := f.baseProduct(t, "MUG", 10, 100)
	budget := f.budget(t, "acme", models.BudgetStatusReleased, 7)
	f.item(t, budget.ID, mug.ID, 1, "10", "100")

	repos := f.repos
	repos.Logs = failingLogs{f.store}
	replicator := NewBudgetReplicator(repos, NewLocalBudgetLocker(), quietLogger())

	summary, err := replicator.ReplicateBudget(ctx, ReplicateBudgetInput{BudgetId: budget.ID})
	if err != nil {
		t.Fatalf("log failure must not fail the run: %v", err)
	}
	if summary.LogError == "" || summary.LogId != 0 {
		t.Fatalf("expected log error to be reported, got %+v", summary)
	}
	if summary.Status != models.BudgetStatusReplicated {
		t.Fatalf("expected budget replicated, got %s", summary.Status)
	}
}

func TestReplicateBudgetRejectsConcurrentRun(t *testing.T) {
	f := newFixture(t)
	mug := f.baseProduct(t, "MUG", 10, 100)
	budget := f.budget(t, "acme", models.BudgetStatusReleased, 7)
	f.item(t, budget.ID, mug.ID, 1, "10", "100")

	locker := NewLocalBudgetLocker()
	replicator := NewBudgetReplicator(f.repos, locker, quietLogger())
	unlock, err := locker.Lock(context.Background(), budget.ID)
	if err != nil {
		t.Fatalf("lock: %v", err)
	}

	ctx, cancel := context.WithTimeout(context.Background(), 20*time.Millisecond)
	defer cancel()
	if _, err := replicator.ReplicateBudget(ctx, ReplicateBudgetInput{BudgetId: budget.ID}); !errors.Is(err, models.ErrReplicationInProgress) {
		t.Fatalf("expected replication in progress, got %v", err)
	}

	unlock()
	if _, err := replicator.ReplicateBudget(context.Background(), ReplicateBudgetInput{BudgetId: budget.ID}); err != nil {
		t.Fatalf("run after unlock: %v", err)
	}
}

func TestReplicateSingleProduct(t *testing.T) {
	ctx := context.Background()
	f := newFixture(t)
	mug := f.baseProduct(t, "MUG", 10, 100)

	summary, err := f.replicator.ReplicateSingleProduct(ctx, ReplicateSingleInput{
		BaseProductId: mug.ID,
		CompanyId:     "acme",
		Overrides:     &models.ProductOverrides{Price: decPtr("7")},
		ActorId:       3,
	})
	if err != nil {
		t.Fatalf("single: %v", err)
	}
	if summary.Created != 1 || summary.LogId == 0 {
		t.Fatalf("unexpected summary %+v", summary)
	}
	logs := f.logs(t)
	if len(logs) != 1 || logs[0].Action != models.ReplicationActionSingle || logs[0].BudgetId != nil || *logs[0].BaseProductId != mug.ID {
		t.Fatalf("unexpected single log %+v", logs)
	}
	if logs[0].Metadata.Data().Source != SourceSingleProduct {
		t.Fatalf("unexpected source %q", logs[0].Metadata.Data().Source)
	}

	summary, err = f.replicator.ReplicateSingleProduct(ctx, ReplicateSingleInput{BaseProductId: 555, CompanyId: "acme", ActorId: 3})
	if !models.IsNotFound(err) {
		t.Fatalf("expected not found, got %v", err)
	}
	if summary == nil || len(summary.Errors) != 1 || !strings.HasPrefix(summary.Errors[0], "555: ") {
		t.Fatalf("expected failure summary, got %+v", summary)
	}
	if n := len(f.logs(t)); n != 2 {
		t.Fatalf("missing product should still be logged, got %d logs", n)
	}

	var ve *models.ValidationError
	if _, err := f.replicator.ReplicateSingleProduct(ctx, ReplicateSingleInput{BaseProductId: mug.ID}); !errors.As(err, &ve) {
		t.Fatalf("expected validation error without company, got %v", err)
	}
}

func TestReplicateBudgetMergesSnapshot(t *testing.T) {
	ctx := context.Background()
	f := newFixture(t)
	mug := f.baseProduct(t, "MUG", 10, 100)
	tee := f.baseProduct(t, "TEE", 20, 200)
	stale := f.budget(t, "acme", models.BudgetStatusApproved, 7)
	f.item(t, stale.ID, mug.ID, 1, "10", "100")

	summary, err := f.replicator.ReplicateBudget(ctx, ReplicateBudgetInput{
		BudgetId: stale.ID,
		ActorId:  intPtr(8),
		Snapshot: &BudgetSnapshot{
			Budget: &BudgetSnapshotData{Status: strPtr("released"), Title: strPtr("Final list")},
			Items: []models.NewBudgetItem{
				{BaseProductId: tee.ID, Qty: 2, UnitPrice: decimal.NewFromInt(15), UnitPoints: decimal.NewFromInt(150)},
			},
		},
	})
	if err != nil {
		t.Fatalf("replicate with snapshot: %v", err)
	}
	if summary.Total != 1 || summary.Results[0].BaseProductId != tee.ID {
		t.Fatalf("snapshot items not used: %+v", summary)
	}
	stored, _ := f.store.GetBudget(ctx, stale.ID)
	if stored.Title != "Final list" || stored.Status != models.BudgetStatusReplicated {
		t.Fatalf("snapshot not merged: %+v", stored)
	}
	if !stored.TotalPrice.Equal(decimal.NewFromInt(30)) {
		t.Fatalf("totals not recomputed after merge: %s", stored.TotalPrice)
	}

	draft := f.budget(t, "acme", models.BudgetStatusDraft, 7)
	var invalid *models.InvalidTransitionError
	_, err = f.replicator.ReplicateBudget(ctx, ReplicateBudgetInput{
		BudgetId: draft.ID,
		Snapshot: &BudgetSnapshot{Budget: &BudgetSnapshotData{Status: strPtr("released")}},
	})
	if !errors.As(err, &invalid) {
		t.Fatalf("expected invalid transition from snapshot, got %v", err)
	}
}

func TestReplicateBudgetRecreatesMissingBudgetFromSnapshot(t *testing.T) {
	ctx := context.Background()
	f := newFixture(t)
	mug := f.baseProduct(t, "MUG", 10, 100)

	summary, err := f.replicator.ReplicateBudget(ctx, ReplicateBudgetInput{
		BudgetId: 50,
		ActorId:  intPtr(4),
		Snapshot: &BudgetSnapshot{
			Budget: &BudgetSnapshotData{CompanyId: strPtr("globex"), Title: strPtr("Offline budget"), Status: strPtr("released")},
			Items:  []models.NewBudgetItem{{BaseProductId: mug.ID, Qty: 1, UnitPrice: decimal.NewFromInt(10), UnitPoints: decimal.NewFromInt(100)}},
		},
	})
	if err != nil {
		t.Fatalf("replicate: %v", err)
	}
	if summary.BudgetId != 50 || summary.CompanyId != "globex" || summary.Created != 1 {
		t.Fatalf("unexpected summary %+v", summary)
	}
	stored, err := f.store.GetBudget(ctx, 50)
	if err != nil {
		t.Fatalf("budget not recreated: %v", err)
	}
	if stored.Status != models.BudgetStatusReplicated || stored.CreatedBy != 4 {
		t.Fatalf("unexpected recreated budget %+v", stored)
	}

	if _, err := f.replicator.ReplicateBudget(ctx, ReplicateBudgetInput{
		BudgetId: 51,
		Snapshot: &BudgetSnapshot{Budget: &BudgetSnapshotData{Title: strPtr("no company")}},
	}); !models.IsNotFound(err) {
		t.Fatalf("expected not found for incomplete snapshot, got %v", err)
	}
}

func TestReplicateBudgetAppliesItemStockAndActivation(t *testing.T) {
	ctx := context.Background()
	f := newFixture(t)
	retired := &models.BaseProduct{
		Sku:           "PEN",
		Name:          "Product PEN",
		Price:         decimal.NewFromInt(4),
		PointsCost:    decimal.NewFromInt(40),
		StockQuantity: 100,
		IsActive:      false,
	}
	if err := f.store.SaveBaseProduct(ctx, retired); err != nil {
		t.Fatalf("seed base product: %v", err)
	}
	mug := f.baseProduct(t, "MUG", 10, 100)
	if err := f.store.UpsertCompanyProduct(ctx, &models.CompanyProduct{
		CompanyId:     "acme",
		BaseProductId: mug.ID,
		Price:         decimal.NewFromInt(10),
		PointsCost:    decimal.NewFromInt(100),
		StockQuantity: 1,
		IsActive:      false,
	}); err != nil {
		t.Fatalf("seed company product: %v", err)
	}
	budget := f.budget(t, "acme", models.BudgetStatusReleased, 7)
	f.item(t, budget.ID, retired.ID, 5, "9", "90")
	f.item(t, budget.ID, mug.ID, 3, "10", "100")

	summary, err := f.replicator.ReplicateBudget(ctx, ReplicateBudgetInput{BudgetId: budget.ID})
	if err != nil {
		t.Fatalf("replicate: %v", err)
	}
	if summary.Created != 1 || summary.Updated != 1 {
		t.Fatalf("unexpected summary %+v", summary)
	}

	created, _ := f.store.GetCompanyProduct(ctx, "acme", retired.ID)
	if created.StockQuantity != 5 || !created.IsActive || !created.Price.Equal(decimal.NewFromInt(9)) {
		t.Fatalf("item qty and activation not applied on create: %+v", created)
	}
	updated, _ := f.store.GetCompanyProduct(ctx, "acme", mug.ID)
	if updated.StockQuantity != 3 || !updated.IsActive {
		t.Fatalf("item qty and activation not applied on update: %+v", updated)
	}
}

func TestReplicateBudgetFailureInTheMiddle(t *testing.T) {
	ctx := context.Background()
	f := newFixture(t)
	mug := f.baseProduct(t, "MUG", 10, 100)
	tee := f.baseProduct(t, "TEE", 20, 200)
	budget := f.budget(t, "acme", models.BudgetStatusReleased, 7)
	f.item(t, budget.ID, mug.ID, 2, "9", "90")
	f.item(t, budget.ID, 404, 1, "1", "1")
	f.item(t, budget.ID, tee.ID, 4, "18", "180")

	summary, err := f.replicator.ReplicateBudget(ctx, ReplicateBudgetInput{BudgetId: budget.ID})
	if err != nil {
		t.Fatalf("partial failure should not be an error: %v", err)
	}
	if summary.Total != 3 || summary.Created != 2 || len(summary.Errors) != 1 {
		t.Fatalf("unexpected summary %+v", summary)
	}
	if len(summary.Results) != 2 || summary.Results[0].BaseProductId != mug.ID || summary.Results[1].BaseProductId != tee.ID {
		t.Fatalf("items after the failure were not processed in order: %+v", summary.Results)
	}
	if !strings.HasPrefix(summary.Errors[0], "404: ") {
		t.Fatalf("error not prefixed with base product id: %q", summary.Errors[0])
	}

	cp, err := f.store.GetCompanyProduct(ctx, "acme", tee.ID)
	if err != nil {
		t.Fatalf("item after the failure not written: %v", err)
	}
	if !cp.Price.Equal(decimal.NewFromInt(18)) || !cp.PointsCost.Equal(decimal.NewFromInt(180)) || cp.StockQuantity != 4 || !cp.IsActive {
		t.Fatalf("overrides not applied: %+v", cp)
	}

	stored, _ := f.store.GetBudget(ctx, budget.ID)
	if stored.Status != models.BudgetStatusReleased || stored.ReplicatedAt != nil {
		t.Fatalf("budget advanced despite errors: %+v", stored)
	}
	logs := f.logs(t)
	if len(logs) != 1 || len(logs[0].Results) != 2 || len(logs[0].Errors) != 1 {
		t.Fatalf("log does not carry the partial outcome: %+v", logs)
	}
}

func TestReplicateBudgetDryRunMatchesRealRun(t *testing.T) {
	ctx := context.Background()
	f := newFixture(t)
	mug := f.baseProduct(t, "MUG", 10, 100)
	budget := f.budget(t, "acme", models.BudgetStatusReleased, 7)
	f.item(t, budget.ID, mug.ID, 1, "10", "100")
	f.item(t, budget.ID, mug.ID, 2, "12", "100")

	dry, err := f.replicator.ReplicateBudget(ctx, ReplicateBudgetInput{BudgetId: budget.ID, DryRun: true})
	if err != nil {
		t.Fatalf("dry run: %v", err)
	}
	applied, err := f.replicator.ReplicateBudget(ctx, ReplicateBudgetInput{BudgetId: budget.ID})
	if err != nil {
		t.Fatalf("real run: %v", err)
	}
	if dry.Created != 1 || dry.Updated != 1 || dry.Skipped != 0 {
		t.Fatalf("dry run ignored the earlier item: %+v", dry)
	}
	if dry.Created != applied.Created || dry.Updated != applied.Updated || dry.Skipped != applied.Skipped {
		t.Fatalf("dry run %+v does not match real run %+v", dry, applied)
	}
	cp, _ := f.store.GetCompanyProduct(ctx, "acme", mug.ID)
	if !cp.Price.Equal(decimal.NewFromInt(12)) || cp.StockQuantity != 2 {
		t.Fatalf("last item should win: %+v", cp)
	}
}

func TestReplicateBudgetSnapshotMustLeaveBudgetReleased(t *testing.T) {
	ctx := context.Background()
	f := newFixture(t)
	mug := f.baseProduct(t, "MUG", 10, 100)
	tee := f.baseProduct(t, "TEE", 20, 200)

	released := f.budget(t, "acme", models.BudgetStatusReleased, 7)
	f.item(t, released.ID, mug.ID, 1, "10", "100")
	var notReleased *models.NotReleasedError
	_, err := f.replicator.ReplicateBudget(ctx, ReplicateBudgetInput{
		BudgetId: released.ID,
		Snapshot: &BudgetSnapshot{Budget: &BudgetSnapshotData{Status: strPtr("replicated")}},
	})
	if !errors.As(err, &notReleased) {
		t.Fatalf("expected not released for a replicated snapshot, got %v", err)
	}
	stored, _ := f.store.GetBudget(ctx, released.ID)
	if stored.Status != models.BudgetStatusReleased || stored.ReplicatedAt != nil {
		t.Fatalf("snapshot moved budget without replicating: %+v", stored)
	}

	done := f.budget(t, "acme", models.BudgetStatusReplicated, 7)
	f.item(t, done.ID, mug.ID, 1, "10", "100")
	_, err = f.replicator.ReplicateBudget(ctx, ReplicateBudgetInput{
		BudgetId: done.ID,
		Snapshot: &BudgetSnapshot{Items: []models.NewBudgetItem{
			{BaseProductId: tee.ID, Qty: 3, UnitPrice: decimal.NewFromInt(15), UnitPoints: decimal.NewFromInt(150)},
		}},
	})
	if !errors.As(err, &notReleased) {
		t.Fatalf("expected not released for a replicated budget, got %v", err)
	}
	items, _ := f.store.ListItemsByBudget(ctx, done.ID)
	if len(items) != 1 || items[0].BaseProductId != mug.ID {
		t.Fatalf("snapshot rewrote items of a replicated budget: %+v", items)
	}
	stored, _ = f.store.GetBudget(ctx, done.ID)
	if !stored.TotalPrice.IsZero() {
		t.Fatalf("snapshot recomputed totals of a replicated budget: %s", stored.TotalPrice)
	}

	_, err = f.replicator.ReplicateBudget(ctx, ReplicateBudgetInput{
		BudgetId: 60,
		Snapshot: &BudgetSnapshot{Budget: &BudgetSnapshotData{CompanyId: strPtr("globex"), Title: strPtr("Offline"), Status: strPtr("approved")}},
	})
	if !errors.As(err, &notReleased) {
		t.Fatalf("expected not released for an approved snapshot, got %v", err)
	}
	if _, err := f.store.GetBudget(ctx, 60); !models.IsNotFound(err) {
		t.Fatalf("unreleased snapshot recreated the budget: %v", err)
	}

	if n := len(f.logs(t)); n != 0 {
		t.Fatalf("rejected snapshots wrote %d logs", n)
	}
	if n := len(f.companyProducts(t, "acme")); n != 0 {
		t.Fatalf("rejected snapshots wrote %d company products", n)
	}
}
