package workflow

import (
	"context"
	"strings"
	"time"

	"github.com/genautech/rewards_backend/models"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/trace"
)

// ValidateTransition checks requested against the transition table of current.
func ValidateTransition(current models.BudgetStatus, requested models.BudgetStatus) error {
	if !requested.IsValid() {
		return models.NewValidationError("status", "oneof")
	}
	if !current.CanTransitionTo(requested) {
		return &models.InvalidTransitionError{Current: current, Requested: requested}
	}
	return nil
}

type TransitionRequest struct {
	BudgetId int
	Status   models.BudgetStatus
	Title    *string
	ActorId  int
}

type BudgetStateMachine struct {
	budgets models.BudgetRepository
	now     func() time.Time
}

func NewBudgetStateMachine(budgets models.BudgetRepository) *BudgetStateMachine {
	return &BudgetStateMachine{budgets: budgets, now: time.Now}
}

// RequestTransition moves a budget to the requested status. Staying in the
// current status is allowed and still records the actor.
// It never stamps replicatedAt; only a completed replication does that.
func (m *BudgetStateMachine) RequestTransition(ctx context.Context, req TransitionRequest) (*models.Budget, error) {
	ctx, span := tracer.Start(ctx, "workflow.RequestTransition", trace.WithAttributes(
		attribute.Int("budget.id", req.BudgetId),
		attribute.String("budget.requested_status", string(req.Status)),
	))
	defer span.End()

	budget, err := m.budgets.GetBudget(ctx, req.BudgetId)
	if err != nil {
		return nil, err
	}
	if budget.IsArchived {
		return nil, &models.NotEditableError{BudgetId: budget.ID, Status: budget.Status, Archived: true}
	}
	if err := ValidateTransition(budget.Status, req.Status); err != nil {
		return nil, err
	}

	status := req.Status
	actorId := req.ActorId
	patch := models.BudgetPatch{Status: &status, UpdatedBy: &actorId}
	if req.Title != nil {
		title := strings.TrimSpace(*req.Title)
		if title == "" {
			return nil, models.NewValidationError("title", "required")
		}
		patch.Title = &title
	}
	return m.budgets.UpdateBudget(ctx, budget.ID, patch)
}

// MarkReplicated advances a released budget to replicated and stamps replicatedAt.
func (m *BudgetStateMachine) MarkReplicated(ctx context.Context, budgetId int, actorId int) (*models.Budget, error) {
	budget, err := m.budgets.GetBudget(ctx, budgetId)
	if err != nil {
		return nil, err
	}
	if budget.Status != models.BudgetStatusReleased {
		return nil, &models.NotReleasedError{BudgetId: budget.ID, Status: budget.Status}
	}
	status := models.BudgetStatusReplicated
	at := m.now().UTC()
	return m.budgets.UpdateBudget(ctx, budgetId, models.BudgetPatch{
		Status:       &status,
		UpdatedBy:    &actorId,
		ReplicatedAt: &at,
	})
}
