package workflow

import (
	"context"
	"errors"
	"io"
	"testing"

	"github.com/genautech/rewards_backend/models"
	"github.com/genautech/rewards_backend/store"
	"github.com/shopspring/decimal"
	"github.com/sirupsen/logrus"
)

type fixture struct {
	store      *store.MemoryStore
	repos      Repositories
	replicator *BudgetReplicator
}

func quietLogger() *logrus.Logger {
	logger := logrus.New()
	logger.SetOutput(io.Discard)
	return logger
}

func newFixture(t *testing.T) *fixture {
	t.Helper()
	mem := store.NewMemoryStore()
	repos := RepositoriesFrom(mem)
	return &fixture{
		store:      mem,
		repos:      repos,
		replicator: NewBudgetReplicator(repos, NewLocalBudgetLocker(), quietLogger()),
	}
}

func (f *fixture) baseProduct(t *testing.T, sku string, price int64, points int64) *models.BaseProduct {
	t.Helper()
	product := &models.BaseProduct{
		Sku:           sku,
		Name:          "Product " + sku,
		Description:   "A " + sku,
		Category:      "swag",
		Price:         decimal.NewFromInt(price),
		PointsCost:    decimal.NewFromInt(points),
		StockQuantity: 100,
		IsActive:      true,
	}
	if err := f.store.SaveBaseProduct(context.Background(), product); err != nil {
		t.Fatalf("seed base product: %v", err)
	}
	return product
}

func (f *fixture) budget(t *testing.T, companyId string, status models.BudgetStatus, updatedBy int) *models.Budget {
	t.Helper()
	budget := &models.Budget{
		CompanyId: companyId,
		Title:     "Budget for " + companyId,
		Status:    status,
		CreatedBy: updatedBy,
		UpdatedBy: updatedBy,
	}
	if err := f.store.SaveBudget(context.Background(), budget); err != nil {
		t.Fatalf("seed budget: %v", err)
	}
	return budget
}

func (f *fixture) item(t *testing.T, budgetId int, baseProductId int, qty int, price string, points string) *models.BudgetItem {
	t.Helper()
	item := &models.BudgetItem{
		BudgetId:      budgetId,
		BaseProductId: baseProductId,
		Qty:           qty,
		UnitPrice:     decimal.RequireFromString(price),
		UnitPoints:    decimal.RequireFromString(points),
	}
	if err := f.store.CreateItem(context.Background(), item); err != nil {
		t.Fatalf("seed item: %v", err)
	}
	return item
}

func (f *fixture) logs(t *testing.T) []*models.ReplicationLog {
	t.Helper()
	logs, err := f.store.ListLogs(context.Background(), models.ReplicationLogFilter{})
	if err != nil {
		t.Fatalf("list logs: %v", err)
	}
	return logs
}

func (f *fixture) companyProducts(t *testing.T, companyId string) []*models.CompanyProduct {
	t.Helper()
	products, err := f.store.GetCompanyProductsByCompany(context.Background(), companyId)
	if err != nil {
		t.Fatalf("list company products: %v", err)
	}
	return products
}

// failingLogs rejects every write.
type failingLogs struct {
	models.ReplicationLogRepository
}

func (failingLogs) CreateLog(ctx context.Context, entry *models.ReplicationLog) error {
	return errors.New("log storage unavailable")
}

func intPtr(i int) *int { return &i }

func strPtr(s string) *string { return &s }

func decPtr(s string) *decimal.Decimal {
	d := decimal.RequireFromString(s)
	return &d
}
