package workflow

import (
	"context"

	"github.com/genautech/rewards_backend/models"
	"github.com/shopspring/decimal"
)

type BudgetTotals struct {
	BudgetId    int             `json:"budget_id"`
	TotalPrice  decimal.Decimal `json:"total_price"`
	TotalPoints decimal.Decimal `json:"total_points"`
	ItemCount   int             `json:"item_count"`
}

// ComputeTotals sums qty x unit price and qty x unit points over items.
func ComputeTotals(items []*models.BudgetItem) BudgetTotals {
	totals := BudgetTotals{TotalPrice: decimal.Zero, TotalPoints: decimal.Zero, ItemCount: len(items)}
	for _, item := range items {
		qty := decimal.NewFromInt(int64(item.Qty))
		totals.TotalPrice = totals.TotalPrice.Add(qty.Mul(item.UnitPrice))
		totals.TotalPoints = totals.TotalPoints.Add(qty.Mul(item.UnitPoints))
	}
	return totals
}

type TotalsCalculator struct {
	budgets models.BudgetRepository
	items   models.BudgetItemRepository
}

func NewTotalsCalculator(budgets models.BudgetRepository, items models.BudgetItemRepository) *TotalsCalculator {
	return &TotalsCalculator{budgets: budgets, items: items}
}

// CalculateBudgetTotals recomputes the totals from the stored items and
// persists them on the budget. Running it twice yields the same totals.
func (c *TotalsCalculator) CalculateBudgetTotals(ctx context.Context, budgetId int) (BudgetTotals, error) {
	if _, err := c.budgets.GetBudget(ctx, budgetId); err != nil {
		return BudgetTotals{}, err
	}
	items, err := c.items.ListItemsByBudget(ctx, budgetId)
	if err != nil {
		return BudgetTotals{}, err
	}
	totals := ComputeTotals(items)
	totals.BudgetId = budgetId
	if _, err := c.budgets.UpdateBudget(ctx, budgetId, models.BudgetPatch{
		TotalPrice:  &totals.TotalPrice,
		TotalPoints: &totals.TotalPoints,
	}); err != nil {
		return BudgetTotals{}, err
	}
	return totals, nil
}
