package workflow

import (
	"context"
	"strings"

	"github.com/genautech/rewards_backend/models"
)

// BudgetSnapshot is a caller-held copy of a budget sent along with a
// replication request. Fields present in the snapshot win over the stored
// budget; absent fields leave it alone.
type BudgetSnapshot struct {
	Budget *BudgetSnapshotData    `json:"budget_data"`
	Items  []models.NewBudgetItem `json:"budget_items"`
}

type BudgetSnapshotData struct {
	CompanyId *string `json:"company_id"`
	Title     *string `json:"title"`
	Status    *string `json:"status"`
}

// snapshotMerge is a snapshot resolved against storage but not yet written.
type snapshotMerge struct {
	budget *models.Budget
	create bool
	patch  *models.BudgetPatch
	items  []*models.BudgetItem
}

// planSnapshot reconciles a possibly stale stored budget with the caller's
// snapshot in memory. A budget missing from storage is recreated from the
// snapshot when it carries company, title and status. Status changes on an
// existing budget still go through the transition table.
func (r *BudgetReplicator) planSnapshot(ctx context.Context, budgetId int, snapshot *BudgetSnapshot, actorId *int) (*snapshotMerge, error) {
	if snapshot.Items != nil {
		if err := models.ValidateItems(snapshot.Items); err != nil {
			return nil, err
		}
	}

	var status *models.BudgetStatus
	if snapshot.Budget != nil && snapshot.Budget.Status != nil {
		parsed, err := models.ParseBudgetStatus(*snapshot.Budget.Status)
		if err != nil {
			return nil, err
		}
		status = &parsed
	}

	merge := &snapshotMerge{}
	budget, err := r.repos.Budgets.GetBudget(ctx, budgetId)
	switch {
	case models.IsNotFound(err):
		budget, err = recreatedBudget(budgetId, snapshot, status, actorId)
		if err != nil {
			return nil, err
		}
		merge.create = true
	case err != nil:
		return nil, err
	default:
		merge.patch, err = snapshotPatch(budget, snapshot, status, actorId)
		if err != nil {
			return nil, err
		}
		if merge.patch != nil {
			merge.patch.Apply(budget)
		}
	}
	merge.budget = budget

	if snapshot.Items != nil {
		merge.items = make([]*models.BudgetItem, 0, len(snapshot.Items))
		for i := range snapshot.Items {
			merge.items = append(merge.items, snapshot.Items[i].ToItem(budget.ID, i+1))
		}
	}
	return merge, nil
}

func (r *BudgetReplicator) applySnapshot(ctx context.Context, merge *snapshotMerge) error {
	switch {
	case merge.create:
		if err := r.repos.Budgets.SaveBudget(ctx, merge.budget); err != nil {
			return err
		}
	case merge.patch != nil:
		if _, err := r.repos.Budgets.UpdateBudget(ctx, merge.budget.ID, *merge.patch); err != nil {
			return err
		}
	}
	if merge.items == nil {
		return nil
	}
	if _, err := r.repos.Items.SaveAllItems(ctx, merge.budget.ID, merge.items); err != nil {
		return err
	}
	_, err := r.totals.CalculateBudgetTotals(ctx, merge.budget.ID)
	return err
}

func recreatedBudget(budgetId int, snapshot *BudgetSnapshot, status *models.BudgetStatus, actorId *int) (*models.Budget, error) {
	data := snapshot.Budget
	if data == nil || data.CompanyId == nil || data.Title == nil || status == nil {
		return nil, &models.NotFoundError{Entity: "budget", Id: budgetId}
	}
	companyId := strings.TrimSpace(*data.CompanyId)
	title := strings.TrimSpace(*data.Title)
	fields := map[string]string{}
	if companyId == "" {
		fields["budget_data.company_id"] = "required"
	}
	if title == "" {
		fields["budget_data.title"] = "required"
	}
	if len(fields) > 0 {
		return nil, &models.ValidationError{Fields: fields}
	}
	budget := &models.Budget{
		ID:        budgetId,
		CompanyId: companyId,
		Title:     title,
		Status:    *status,
	}
	if actorId != nil {
		budget.CreatedBy = *actorId
		budget.UpdatedBy = *actorId
	}
	return budget, nil
}

func snapshotPatch(budget *models.Budget, snapshot *BudgetSnapshot, status *models.BudgetStatus, actorId *int) (*models.BudgetPatch, error) {
	data := snapshot.Budget
	if data == nil {
		return nil, nil
	}
	if data.CompanyId != nil && strings.TrimSpace(*data.CompanyId) != budget.CompanyId {
		return nil, models.NewValidationError("budget_data.company_id", "immutable")
	}
	if data.Title == nil && status == nil {
		return nil, nil
	}
	patch := &models.BudgetPatch{UpdatedBy: actorId}
	if status != nil && *status != budget.Status {
		if err := ValidateTransition(budget.Status, *status); err != nil {
			return nil, err
		}
		patch.Status = status
	}
	if data.Title != nil {
		title := strings.TrimSpace(*data.Title)
		if title == "" {
			return nil, models.NewValidationError("budget_data.title", "required")
		}
		patch.Title = &title
	}
	return patch, nil
}
