package store

import (
	"context"
	"sort"
	"sync"
	"time"

	"github.com/genautech/rewards_backend/models"
)

// MemoryStore keeps every repository in process memory. Values handed out are
// copies, so callers never alias stored rows.
type MemoryStore struct {
	mu sync.RWMutex

	budgets         map[int]*models.Budget
	items           map[int]*models.BudgetItem
	baseProducts    map[int]*models.BaseProduct
	companyProducts map[int]*models.CompanyProduct
	logs            map[int]*models.ReplicationLog

	nextBudgetId         int
	nextItemId           int
	nextBaseProductId    int
	nextCompanyProductId int
	nextLogId            int

	now func() time.Time
}

var _ models.Store = (*MemoryStore)(nil)

func NewMemoryStore() *MemoryStore {
	return &MemoryStore{
		budgets:         map[int]*models.Budget{},
		items:           map[int]*models.BudgetItem{},
		baseProducts:    map[int]*models.BaseProduct{},
		companyProducts: map[int]*models.CompanyProduct{},
		logs:            map[int]*models.ReplicationLog{},
		now:             time.Now,
	}
}

func copyBudget(b *models.Budget) *models.Budget {
	c := *b
	if b.ReplicatedAt != nil {
		at := *b.ReplicatedAt
		c.ReplicatedAt = &at
	}
	return &c
}

func copyItem(i *models.BudgetItem) *models.BudgetItem {
	c := *i
	return &c
}

func copyBaseProduct(p *models.BaseProduct) *models.BaseProduct {
	c := *p
	return &c
}

func copyCompanyProduct(p *models.CompanyProduct) *models.CompanyProduct {
	c := *p
	return &c
}

func copyLog(l *models.ReplicationLog) *models.ReplicationLog {
	c := *l
	if l.BudgetId != nil {
		id := *l.BudgetId
		c.BudgetId = &id
	}
	if l.BaseProductId != nil {
		id := *l.BaseProductId
		c.BaseProductId = &id
	}
	c.Results = append(l.Results[:0:0], l.Results...)
	c.Errors = append(l.Errors[:0:0], l.Errors...)
	return &c
}

// budgets

func (s *MemoryStore) GetBudget(ctx context.Context, id int) (*models.Budget, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	b, ok := s.budgets[id]
	if !ok {
		return nil, &models.NotFoundError{Entity: "budget", Id: id}
	}
	return copyBudget(b), nil
}

func (s *MemoryStore) ListBudgets(ctx context.Context, filter models.BudgetFilter) ([]*models.Budget, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	result := make([]*models.Budget, 0, len(s.budgets))
	for _, b := range s.budgets {
		if filter.Matches(b) {
			result = append(result, copyBudget(b))
		}
	}
	sort.Slice(result, func(i, j int) bool { return result[i].ID < result[j].ID })
	return result, nil
}

func (s *MemoryStore) SaveBudget(ctx context.Context, budget *models.Budget) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	now := s.now()
	if budget.ID == 0 {
		s.nextBudgetId++
		budget.ID = s.nextBudgetId
	} else if budget.ID > s.nextBudgetId {
		s.nextBudgetId = budget.ID
	}
	if budget.CreatedAt.IsZero() {
		budget.CreatedAt = now
	}
	budget.UpdatedAt = now
	s.budgets[budget.ID] = copyBudget(budget)
	return nil
}

func (s *MemoryStore) UpdateBudget(ctx context.Context, id int, patch models.BudgetPatch) (*models.Budget, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	b, ok := s.budgets[id]
	if !ok {
		return nil, &models.NotFoundError{Entity: "budget", Id: id}
	}
	patch.Apply(b)
	b.UpdatedAt = s.now()
	return copyBudget(b), nil
}

// budget items

func (s *MemoryStore) GetItem(ctx context.Context, id int) (*models.BudgetItem, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	item, ok := s.items[id]
	if !ok {
		return nil, &models.NotFoundError{Entity: "budget item", Id: id}
	}
	return copyItem(item), nil
}

func (s *MemoryStore) ListItemsByBudget(ctx context.Context, budgetId int) ([]*models.BudgetItem, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.itemsOf(budgetId), nil
}

// itemsOf must be called with the lock held.
func (s *MemoryStore) itemsOf(budgetId int) []*models.BudgetItem {
	result := make([]*models.BudgetItem, 0)
	for _, item := range s.items {
		if item.BudgetId == budgetId {
			result = append(result, copyItem(item))
		}
	}
	sortItems(result)
	return result
}

func sortItems(items []*models.BudgetItem) {
	sort.Slice(items, func(i, j int) bool {
		if items[i].Position != items[j].Position {
			return items[i].Position < items[j].Position
		}
		return items[i].ID < items[j].ID
	})
}

func (s *MemoryStore) CreateItem(ctx context.Context, item *models.BudgetItem) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.insertItem(item)
	return nil
}

func (s *MemoryStore) insertItem(item *models.BudgetItem) {
	if item.Position == 0 {
		maxPosition := 0
		for _, existing := range s.items {
			if existing.BudgetId == item.BudgetId && existing.Position > maxPosition {
				maxPosition = existing.Position
			}
		}
		item.Position = maxPosition + 1
	}
	if item.ID == 0 {
		s.nextItemId++
		item.ID = s.nextItemId
	} else if item.ID > s.nextItemId {
		s.nextItemId = item.ID
	}
	now := s.now()
	if item.CreatedAt.IsZero() {
		item.CreatedAt = now
	}
	item.UpdatedAt = now
	s.items[item.ID] = copyItem(item)
}

func (s *MemoryStore) UpdateItem(ctx context.Context, id int, patch models.BudgetItemPatch) (*models.BudgetItem, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	item, ok := s.items[id]
	if !ok {
		return nil, &models.NotFoundError{Entity: "budget item", Id: id}
	}
	patch.Apply(item)
	item.UpdatedAt = s.now()
	return copyItem(item), nil
}

func (s *MemoryStore) DeleteItem(ctx context.Context, id int) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, ok := s.items[id]; !ok {
		return &models.NotFoundError{Entity: "budget item", Id: id}
	}
	delete(s.items, id)
	return nil
}

func (s *MemoryStore) SaveAllItems(ctx context.Context, budgetId int, items []*models.BudgetItem) ([]*models.BudgetItem, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	for id, item := range s.items {
		if item.BudgetId == budgetId {
			delete(s.items, id)
		}
	}
	for i, item := range items {
		item.ID = 0
		item.BudgetId = budgetId
		item.Position = i + 1
		s.insertItem(item)
	}
	return s.itemsOf(budgetId), nil
}

// base products

func (s *MemoryStore) GetBaseProductById(ctx context.Context, id int) (*models.BaseProduct, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	p, ok := s.baseProducts[id]
	if !ok {
		return nil, &models.NotFoundError{Entity: "base product", Id: id}
	}
	return copyBaseProduct(p), nil
}

func (s *MemoryStore) GetBaseProductsByIds(ctx context.Context, ids []int) ([]*models.BaseProduct, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	result := make([]*models.BaseProduct, 0, len(ids))
	for _, id := range ids {
		if p, ok := s.baseProducts[id]; ok {
			result = append(result, copyBaseProduct(p))
		}
	}
	return result, nil
}

func (s *MemoryStore) ListBaseProducts(ctx context.Context) ([]*models.BaseProduct, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	result := make([]*models.BaseProduct, 0, len(s.baseProducts))
	for _, p := range s.baseProducts {
		result = append(result, copyBaseProduct(p))
	}
	sort.Slice(result, func(i, j int) bool { return result[i].ID < result[j].ID })
	return result, nil
}

func (s *MemoryStore) SaveBaseProduct(ctx context.Context, product *models.BaseProduct) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	now := s.now()
	if product.ID == 0 && product.Sku != "" {
		for _, existing := range s.baseProducts {
			if existing.Sku == product.Sku {
				product.ID = existing.ID
				product.CreatedAt = existing.CreatedAt
				break
			}
		}
	}
	if product.ID == 0 {
		s.nextBaseProductId++
		product.ID = s.nextBaseProductId
	} else if product.ID > s.nextBaseProductId {
		s.nextBaseProductId = product.ID
	}
	if product.CreatedAt.IsZero() {
		product.CreatedAt = now
	}
	product.UpdatedAt = now
	s.baseProducts[product.ID] = copyBaseProduct(product)
	return nil
}

// company products

func (s *MemoryStore) GetCompanyProduct(ctx context.Context, companyId string, baseProductId int) (*models.CompanyProduct, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	if p := s.findCompanyProduct(companyId, baseProductId); p != nil {
		return copyCompanyProduct(p), nil
	}
	return nil, &models.NotFoundError{Entity: "company product", Id: companyProductKey(companyId, baseProductId)}
}

func (s *MemoryStore) findCompanyProduct(companyId string, baseProductId int) *models.CompanyProduct {
	for _, p := range s.companyProducts {
		if p.CompanyId == companyId && p.BaseProductId == baseProductId {
			return p
		}
	}
	return nil
}

func (s *MemoryStore) GetCompanyProductsByCompany(ctx context.Context, companyId string) ([]*models.CompanyProduct, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	result := make([]*models.CompanyProduct, 0)
	for _, p := range s.companyProducts {
		if p.CompanyId == companyId {
			result = append(result, copyCompanyProduct(p))
		}
	}
	sort.Slice(result, func(i, j int) bool { return result[i].ID < result[j].ID })
	return result, nil
}

func (s *MemoryStore) UpsertCompanyProduct(ctx context.Context, product *models.CompanyProduct) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	now := s.now()
	if existing := s.findCompanyProduct(product.CompanyId, product.BaseProductId); existing != nil {
		product.ID = existing.ID
		product.CreatedAt = existing.CreatedAt
	} else {
		s.nextCompanyProductId++
		product.ID = s.nextCompanyProductId
		product.CreatedAt = now
	}
	product.UpdatedAt = now
	s.companyProducts[product.ID] = copyCompanyProduct(product)
	return nil
}

// replication logs

func (s *MemoryStore) CreateLog(ctx context.Context, entry *models.ReplicationLog) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.nextLogId++
	entry.ID = s.nextLogId
	if entry.CreatedAt.IsZero() {
		entry.CreatedAt = s.now()
	}
	s.logs[entry.ID] = copyLog(entry)
	return nil
}

func (s *MemoryStore) GetLog(ctx context.Context, id int) (*models.ReplicationLog, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	l, ok := s.logs[id]
	if !ok {
		return nil, &models.NotFoundError{Entity: "replication log", Id: id}
	}
	return copyLog(l), nil
}

func (s *MemoryStore) ListLogs(ctx context.Context, filter models.ReplicationLogFilter) ([]*models.ReplicationLog, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	result := make([]*models.ReplicationLog, 0)
	for _, l := range s.logs {
		if filter.Matches(l) {
			result = append(result, copyLog(l))
		}
	}
	sort.Slice(result, func(i, j int) bool { return result[i].ID < result[j].ID })
	return result, nil
}

func (s *MemoryStore) ListLogsByBudget(ctx context.Context, budgetId int) ([]*models.ReplicationLog, error) {
	return s.ListLogs(ctx, models.ReplicationLogFilter{BudgetId: &budgetId})
}

func (s *MemoryStore) ListLogsByCompany(ctx context.Context, companyId string) ([]*models.ReplicationLog, error) {
	return s.ListLogs(ctx, models.ReplicationLogFilter{CompanyId: companyId})
}
