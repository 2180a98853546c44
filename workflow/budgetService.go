package workflow

import (
	"context"
	"strconv"
	"strings"

	"github.com/genautech/rewards_backend/models"
)

// BudgetService owns budget creation and item edits. Items may only change
// while the budget is a non-archived draft, and every edit refreshes the totals.
type BudgetService struct {
	repos  Repositories
	totals *TotalsCalculator
}

func NewBudgetService(repos Repositories) *BudgetService {
	return &BudgetService{repos: repos, totals: NewTotalsCalculator(repos.Budgets, repos.Items)}
}

func (s *BudgetService) GetBudget(ctx context.Context, id int) (*models.Budget, error) {
	return s.repos.Budgets.GetBudget(ctx, id)
}

func (s *BudgetService) ListBudgets(ctx context.Context, filter models.BudgetFilter) ([]*models.Budget, error) {
	return s.repos.Budgets.ListBudgets(ctx, filter)
}

func (s *BudgetService) ListItems(ctx context.Context, budgetId int) ([]*models.BudgetItem, error) {
	if _, err := s.repos.Budgets.GetBudget(ctx, budgetId); err != nil {
		return nil, err
	}
	return s.repos.Items.ListItemsByBudget(ctx, budgetId)
}

func (s *BudgetService) CreateBudget(ctx context.Context, actor models.Actor, input *models.NewBudget) (*models.Budget, error) {
	if !actor.Role.CanManageBudgets() {
		return nil, models.ErrForbidden
	}
	if err := input.Validate(); err != nil {
		return nil, err
	}
	if err := s.ensureBaseProducts(ctx, input.Items); err != nil {
		return nil, err
	}

	budget := &models.Budget{
		CompanyId: input.CompanyId,
		Title:     input.Title,
		Status:    models.BudgetStatusDraft,
		CreatedBy: actor.Id,
		UpdatedBy: actor.Id,
	}
	if err := s.repos.Budgets.SaveBudget(ctx, budget); err != nil {
		return nil, err
	}
	if len(input.Items) == 0 {
		return budget, nil
	}
	if _, err := s.repos.Items.SaveAllItems(ctx, budget.ID, toItems(budget.ID, input.Items)); err != nil {
		return nil, err
	}
	return s.refresh(ctx, budget.ID, actor)
}

func (s *BudgetService) AddItem(ctx context.Context, actor models.Actor, budgetId int, input *models.NewBudgetItem) (*models.BudgetItem, error) {
	if _, err := s.editableBudget(ctx, actor, budgetId); err != nil {
		return nil, err
	}
	if err := input.Validate(); err != nil {
		return nil, err
	}
	if err := s.ensureBaseProducts(ctx, []models.NewBudgetItem{*input}); err != nil {
		return nil, err
	}
	item := input.ToItem(budgetId, 0)
	if err := s.repos.Items.CreateItem(ctx, item); err != nil {
		return nil, err
	}
	if _, err := s.refresh(ctx, budgetId, actor); err != nil {
		return nil, err
	}
	return item, nil
}

func (s *BudgetService) UpdateItem(ctx context.Context, actor models.Actor, budgetId int, itemId int, patch *models.BudgetItemPatch) (*models.BudgetItem, error) {
	if _, err := s.editableBudget(ctx, actor, budgetId); err != nil {
		return nil, err
	}
	if err := patch.Validate(); err != nil {
		return nil, err
	}
	if _, err := s.itemOf(ctx, budgetId, itemId); err != nil {
		return nil, err
	}
	if patch.BaseProductId != nil {
		if _, err := s.repos.BaseProducts.GetBaseProductById(ctx, *patch.BaseProductId); err != nil {
			return nil, err
		}
	}
	item, err := s.repos.Items.UpdateItem(ctx, itemId, *patch)
	if err != nil {
		return nil, err
	}
	if _, err := s.refresh(ctx, budgetId, actor); err != nil {
		return nil, err
	}
	return item, nil
}

func (s *BudgetService) DeleteItem(ctx context.Context, actor models.Actor, budgetId int, itemId int) error {
	if _, err := s.editableBudget(ctx, actor, budgetId); err != nil {
		return err
	}
	if _, err := s.itemOf(ctx, budgetId, itemId); err != nil {
		return err
	}
	if err := s.repos.Items.DeleteItem(ctx, itemId); err != nil {
		return err
	}
	_, err := s.refresh(ctx, budgetId, actor)
	return err
}

// ReplaceItems swaps the whole item list, keeping the given order.
func (s *BudgetService) ReplaceItems(ctx context.Context, actor models.Actor, budgetId int, inputs []models.NewBudgetItem) ([]*models.BudgetItem, error) {
	if _, err := s.editableBudget(ctx, actor, budgetId); err != nil {
		return nil, err
	}
	if err := models.ValidateItems(inputs); err != nil {
		return nil, err
	}
	if err := s.ensureBaseProducts(ctx, inputs); err != nil {
		return nil, err
	}
	items, err := s.repos.Items.SaveAllItems(ctx, budgetId, toItems(budgetId, inputs))
	if err != nil {
		return nil, err
	}
	if _, err := s.refresh(ctx, budgetId, actor); err != nil {
		return nil, err
	}
	return items, nil
}

func (s *BudgetService) ArchiveBudget(ctx context.Context, actor models.Actor, budgetId int) (*models.Budget, error) {
	if !actor.Role.CanManageBudgets() {
		return nil, models.ErrForbidden
	}
	if _, err := s.repos.Budgets.GetBudget(ctx, budgetId); err != nil {
		return nil, err
	}
	archived := true
	return s.repos.Budgets.UpdateBudget(ctx, budgetId, models.BudgetPatch{IsArchived: &archived, UpdatedBy: &actor.Id})
}

func (s *BudgetService) editableBudget(ctx context.Context, actor models.Actor, budgetId int) (*models.Budget, error) {
	if !actor.Role.CanManageBudgets() {
		return nil, models.ErrForbidden
	}
	budget, err := s.repos.Budgets.GetBudget(ctx, budgetId)
	if err != nil {
		return nil, err
	}
	if budget.IsArchived || budget.Status != models.BudgetStatusDraft {
		return nil, &models.NotEditableError{BudgetId: budget.ID, Status: budget.Status, Archived: budget.IsArchived}
	}
	return budget, nil
}

func (s *BudgetService) itemOf(ctx context.Context, budgetId int, itemId int) (*models.BudgetItem, error) {
	item, err := s.repos.Items.GetItem(ctx, itemId)
	if err != nil {
		return nil, err
	}
	if item.BudgetId != budgetId {
		return nil, &models.NotFoundError{Entity: "budget item", Id: itemId}
	}
	return item, nil
}

func (s *BudgetService) ensureBaseProducts(ctx context.Context, inputs []models.NewBudgetItem) error {
	if len(inputs) == 0 {
		return nil
	}
	ids := make([]int, 0, len(inputs))
	seen := map[int]bool{}
	for _, input := range inputs {
		if !seen[input.BaseProductId] {
			seen[input.BaseProductId] = true
			ids = append(ids, input.BaseProductId)
		}
	}
	found, err := s.repos.BaseProducts.GetBaseProductsByIds(ctx, ids)
	if err != nil {
		return err
	}
	if len(found) == len(ids) {
		return nil
	}
	exists := map[int]bool{}
	for _, p := range found {
		exists[p.ID] = true
	}
	missing := make([]string, 0)
	for _, id := range ids {
		if !exists[id] {
			missing = append(missing, strconv.Itoa(id))
		}
	}
	return &models.NotFoundError{Entity: "base product", Id: strings.Join(missing, ",")}
}

// refresh recomputes totals and stamps the actor as last editor.
func (s *BudgetService) refresh(ctx context.Context, budgetId int, actor models.Actor) (*models.Budget, error) {
	if _, err := s.totals.CalculateBudgetTotals(ctx, budgetId); err != nil {
		return nil, err
	}
	return s.repos.Budgets.UpdateBudget(ctx, budgetId, models.BudgetPatch{UpdatedBy: &actor.Id})
}

func toItems(budgetId int, inputs []models.NewBudgetItem) []*models.BudgetItem {
	items := make([]*models.BudgetItem, 0, len(inputs))
	for i := range inputs {
		items = append(items, inputs[i].ToItem(budgetId, i+1))
	}
	return items
}
