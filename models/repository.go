package models

import "context"

// Repositories report missing rows as *NotFoundError.

type BudgetRepository interface {
	GetBudget(ctx context.Context, id int) (*Budget, error)
	ListBudgets(ctx context.Context, filter BudgetFilter) ([]*Budget, error)
	SaveBudget(ctx context.Context, budget *Budget) error
	UpdateBudget(ctx context.Context, id int, patch BudgetPatch) (*Budget, error)
}

type BudgetItemRepository interface {
	GetItem(ctx context.Context, id int) (*BudgetItem, error)
	// ListItemsByBudget returns items ordered by position, then id.
	ListItemsByBudget(ctx context.Context, budgetId int) ([]*BudgetItem, error)
	CreateItem(ctx context.Context, item *BudgetItem) error
	UpdateItem(ctx context.Context, id int, patch BudgetItemPatch) (*BudgetItem, error)
	DeleteItem(ctx context.Context, id int) error
	// SaveAllItems replaces every item of the budget with items.
	SaveAllItems(ctx context.Context, budgetId int, items []*BudgetItem) ([]*BudgetItem, error)
}

type BaseProductRepository interface {
	GetBaseProductById(ctx context.Context, id int) (*BaseProduct, error)
	// GetBaseProductsByIds skips ids that do not exist.
	GetBaseProductsByIds(ctx context.Context, ids []int) ([]*BaseProduct, error)
	ListBaseProducts(ctx context.Context) ([]*BaseProduct, error)
	// SaveBaseProduct inserts, or updates the row with the same sku.
	SaveBaseProduct(ctx context.Context, product *BaseProduct) error
}

type CompanyProductRepository interface {
	GetCompanyProduct(ctx context.Context, companyId string, baseProductId int) (*CompanyProduct, error)
	GetCompanyProductsByCompany(ctx context.Context, companyId string) ([]*CompanyProduct, error)
	// UpsertCompanyProduct writes product keyed on (CompanyId, BaseProductId)
	// and fills in its ID.
	UpsertCompanyProduct(ctx context.Context, product *CompanyProduct) error
}

type ReplicationLogRepository interface {
	CreateLog(ctx context.Context, entry *ReplicationLog) error
	GetLog(ctx context.Context, id int) (*ReplicationLog, error)
	ListLogs(ctx context.Context, filter ReplicationLogFilter) ([]*ReplicationLog, error)
	ListLogsByBudget(ctx context.Context, budgetId int) ([]*ReplicationLog, error)
	ListLogsByCompany(ctx context.Context, companyId string) ([]*ReplicationLog, error)
}

// Store bundles every repository behind one backend.
type Store interface {
	BudgetRepository
	BudgetItemRepository
	BaseProductRepository
	CompanyProductRepository
	ReplicationLogRepository
}
