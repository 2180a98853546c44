package store

import (
	"context"
	"errors"
	"fmt"

	"github.com/genautech/rewards_backend/models"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

// GormStore backs every repository with a gorm database (mysql in
// production, sqlite for local runs and tests).
type GormStore struct {
	db *gorm.DB
}

var _ models.Store = (*GormStore)(nil)

func NewGormStore(db *gorm.DB) *GormStore {
	return &GormStore{db: db}
}

func (s *GormStore) DB() *gorm.DB {
	return s.db
}

func companyProductKey(companyId string, baseProductId int) string {
	return fmt.Sprintf("%s/%d", companyId, baseProductId)
}

func notFound(err error, entity string, id any) error {
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return &models.NotFoundError{Entity: entity, Id: id}
	}
	return err
}

// budgets

func (s *GormStore) GetBudget(ctx context.Context, id int) (*models.Budget, error) {
	var budget models.Budget
	if err := s.db.WithContext(ctx).First(&budget, id).Error; err != nil {
		return nil, notFound(err, "budget", id)
	}
	return &budget, nil
}

func (s *GormStore) ListBudgets(ctx context.Context, filter models.BudgetFilter) ([]*models.Budget, error) {
	dbCtx := s.db.WithContext(ctx).Model(&models.Budget{})
	if filter.CompanyId != "" {
		dbCtx = dbCtx.Where("company_id = ?", filter.CompanyId)
	}
	if filter.Status != "" {
		dbCtx = dbCtx.Where("status = ?", filter.Status)
	}
	if !filter.IncludeArchived {
		dbCtx = dbCtx.Where("is_archived = ?", false)
	}
	var budgets []*models.Budget
	if err := dbCtx.Order("id").Find(&budgets).Error; err != nil {
		return nil, err
	}
	return budgets, nil
}

func (s *GormStore) SaveBudget(ctx context.Context, budget *models.Budget) error {
	return s.db.WithContext(ctx).Save(budget).Error
}

func (s *GormStore) UpdateBudget(ctx context.Context, id int, patch models.BudgetPatch) (*models.Budget, error) {
	if _, err := s.GetBudget(ctx, id); err != nil {
		return nil, err
	}
	cols := patch.Columns()
	if len(cols) > 0 {
		if err := s.db.WithContext(ctx).Model(&models.Budget{}).Where("id = ?", id).Updates(cols).Error; err != nil {
			return nil, err
		}
	}
	return s.GetBudget(ctx, id)
}

// budget items

func (s *GormStore) GetItem(ctx context.Context, id int) (*models.BudgetItem, error) {
	var item models.BudgetItem
	if err := s.db.WithContext(ctx).First(&item, id).Error; err != nil {
		return nil, notFound(err, "budget item", id)
	}
	return &item, nil
}

func (s *GormStore) ListItemsByBudget(ctx context.Context, budgetId int) ([]*models.BudgetItem, error) {
	var items []*models.BudgetItem
	err := s.db.WithContext(ctx).
		Where("budget_id = ?", budgetId).
		Order("position").Order("id").
		Find(&items).Error
	if err != nil {
		return nil, err
	}
	return items, nil
}

func (s *GormStore) CreateItem(ctx context.Context, item *models.BudgetItem) error {
	return s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if item.Position == 0 {
			var maxPosition int
			if err := tx.Model(&models.BudgetItem{}).
				Where("budget_id = ?", item.BudgetId).
				Select("COALESCE(MAX(position), 0)").
				Scan(&maxPosition).Error; err != nil {
				return err
			}
			item.Position = maxPosition + 1
		}
		return tx.Create(item).Error
	})
}

func (s *GormStore) UpdateItem(ctx context.Context, id int, patch models.BudgetItemPatch) (*models.BudgetItem, error) {
	if _, err := s.GetItem(ctx, id); err != nil {
		return nil, err
	}
	cols := patch.Columns()
	if len(cols) > 0 {
		if err := s.db.WithContext(ctx).Model(&models.BudgetItem{}).Where("id = ?", id).Updates(cols).Error; err != nil {
			return nil, err
		}
	}
	return s.GetItem(ctx, id)
}

func (s *GormStore) DeleteItem(ctx context.Context, id int) error {
	result := s.db.WithContext(ctx).Delete(&models.BudgetItem{}, id)
	if result.Error != nil {
		return result.Error
	}
	if result.RowsAffected == 0 {
		return &models.NotFoundError{Entity: "budget item", Id: id}
	}
	return nil
}

func (s *GormStore) SaveAllItems(ctx context.Context, budgetId int, items []*models.BudgetItem) ([]*models.BudgetItem, error) {
	err := s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := tx.Where("budget_id = ?", budgetId).Delete(&models.BudgetItem{}).Error; err != nil {
			return err
		}
		if len(items) == 0 {
			return nil
		}
		for i, item := range items {
			item.ID = 0
			item.BudgetId = budgetId
			item.Position = i + 1
		}
		return tx.Create(&items).Error
	})
	if err != nil {
		return nil, err
	}
	return s.ListItemsByBudget(ctx, budgetId)
}

// base products

func (s *GormStore) GetBaseProductById(ctx context.Context, id int) (*models.BaseProduct, error) {
	var product models.BaseProduct
	if err := s.db.WithContext(ctx).First(&product, id).Error; err != nil {
		return nil, notFound(err, "base product", id)
	}
	return &product, nil
}

func (s *GormStore) GetBaseProductsByIds(ctx context.Context, ids []int) ([]*models.BaseProduct, error) {
	var products []*models.BaseProduct
	if len(ids) == 0 {
		return products, nil
	}
	if err := s.db.WithContext(ctx).Where("id IN ?", ids).Find(&products).Error; err != nil {
		return nil, err
	}
	return products, nil
}

func (s *GormStore) ListBaseProducts(ctx context.Context) ([]*models.BaseProduct, error) {
	var products []*models.BaseProduct
	if err := s.db.WithContext(ctx).Order("id").Find(&products).Error; err != nil {
		return nil, err
	}
	return products, nil
}

func (s *GormStore) SaveBaseProduct(ctx context.Context, product *models.BaseProduct) error {
	if product.ID != 0 {
		return s.db.WithContext(ctx).Save(product).Error
	}
	err := s.db.WithContext(ctx).Clauses(clause.OnConflict{
		Columns: []clause.Column{{Name: "sku"}},
		DoUpdates: clause.AssignmentColumns([]string{
			"name", "description", "category", "image_url",
			"price", "points_cost", "stock_quantity", "is_active", "updated_at",
		}),
	}).Create(product).Error
	if err != nil {
		return err
	}
	// the conflict path does not report the existing id on every driver
	var stored models.BaseProduct
	if err := s.db.WithContext(ctx).Where("sku = ?", product.Sku).First(&stored).Error; err != nil {
		return err
	}
	*product = stored
	return nil
}

// company products

func (s *GormStore) GetCompanyProduct(ctx context.Context, companyId string, baseProductId int) (*models.CompanyProduct, error) {
	var product models.CompanyProduct
	err := s.db.WithContext(ctx).
		Where("company_id = ? AND base_product_id = ?", companyId, baseProductId).
		First(&product).Error
	if err != nil {
		return nil, notFound(err, "company product", companyProductKey(companyId, baseProductId))
	}
	return &product, nil
}

func (s *GormStore) GetCompanyProductsByCompany(ctx context.Context, companyId string) ([]*models.CompanyProduct, error) {
	var products []*models.CompanyProduct
	if err := s.db.WithContext(ctx).Where("company_id = ?", companyId).Order("id").Find(&products).Error; err != nil {
		return nil, err
	}
	return products, nil
}

var companyProductUpdateColumns = []string{
	"sku", "name", "description", "category", "image_url",
	"price", "points_cost", "stock_quantity", "is_active", "updated_at",
}

func (s *GormStore) UpsertCompanyProduct(ctx context.Context, product *models.CompanyProduct) error {
	dbCtx := s.db.WithContext(ctx)
	if product.ID != 0 {
		err := dbCtx.Model(&models.CompanyProduct{}).
			Where("id = ?", product.ID).
			Select(companyProductUpdateColumns).
			Updates(product).Error
		if err != nil {
			return err
		}
	} else {
		err := dbCtx.Clauses(clause.OnConflict{
			Columns:   []clause.Column{{Name: "company_id"}, {Name: "base_product_id"}},
			DoUpdates: clause.AssignmentColumns(companyProductUpdateColumns),
		}).Create(product).Error
		if err != nil {
			return err
		}
	}
	stored, err := s.GetCompanyProduct(ctx, product.CompanyId, product.BaseProductId)
	if err != nil {
		return err
	}
	*product = *stored
	return nil
}

// replication logs

func (s *GormStore) CreateLog(ctx context.Context, entry *models.ReplicationLog) error {
	return s.db.WithContext(ctx).Create(entry).Error
}

func (s *GormStore) GetLog(ctx context.Context, id int) (*models.ReplicationLog, error) {
	var entry models.ReplicationLog
	if err := s.db.WithContext(ctx).First(&entry, id).Error; err != nil {
		return nil, notFound(err, "replication log", id)
	}
	return &entry, nil
}

func (s *GormStore) ListLogs(ctx context.Context, filter models.ReplicationLogFilter) ([]*models.ReplicationLog, error) {
	dbCtx := s.db.WithContext(ctx).Model(&models.ReplicationLog{})
	if filter.BudgetId != nil {
		dbCtx = dbCtx.Where("budget_id = ?", *filter.BudgetId)
	}
	if filter.CompanyId != "" {
		dbCtx = dbCtx.Where("company_id = ?", filter.CompanyId)
	}
	if filter.Action != "" {
		dbCtx = dbCtx.Where("action = ?", filter.Action)
	}
	var logs []*models.ReplicationLog
	if err := dbCtx.Order("id").Find(&logs).Error; err != nil {
		return nil, err
	}
	return logs, nil
}

func (s *GormStore) ListLogsByBudget(ctx context.Context, budgetId int) ([]*models.ReplicationLog, error) {
	return s.ListLogs(ctx, models.ReplicationLogFilter{BudgetId: &budgetId})
}

func (s *GormStore) ListLogsByCompany(ctx context.Context, companyId string) ([]*models.ReplicationLog, error) {
	return s.ListLogs(ctx, models.ReplicationLogFilter{CompanyId: companyId})
}
