package workflow

import (
	"context"
	"fmt"
	"time"

	"github.com/genautech/rewards_backend/config"
	"github.com/genautech/rewards_backend/models"
	"github.com/genautech/rewards_backend/utils"
	"github.com/sirupsen/logrus"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"
	"gorm.io/datatypes"
)

const (
	SourceBudgetRelease = "budget_release"
	SourceSingleProduct = "single_product"
	SourceCLI           = "cli"
)

type ReplicateBudgetInput struct {
	BudgetId int
	DryRun   bool
	// ActorId overrides the budget's last editor as the recorded actor.
	ActorId  *int
	Source   string
	Snapshot *BudgetSnapshot
}

type ReplicateSingleInput struct {
	BaseProductId int
	CompanyId     string
	Overrides     *models.ProductOverrides
	ActorId       int
	DryRun        bool
	Source        string
}

type ReplicationSummary struct {
	BudgetId  int                        `json:"budget_id,omitempty"`
	CompanyId string                     `json:"company_id"`
	Total     int                        `json:"total"`
	Created   int                        `json:"created"`
	Updated   int                        `json:"updated"`
	Skipped   int                        `json:"skipped"`
	Errors    []string                   `json:"errors"`
	Results   []models.ReplicationResult `json:"results"`
	DryRun    bool                       `json:"dry_run"`
	LogId     int                        `json:"log_id,omitempty"`
	LogError  string                     `json:"log_error,omitempty"`
	Status    models.BudgetStatus        `json:"status,omitempty"`
}

func (s *ReplicationSummary) HasErrors() bool {
	return len(s.Errors) > 0
}

func (s *ReplicationSummary) add(result models.ReplicationResult) {
	if result.Failed() {
		s.Errors = append(s.Errors, fmt.Sprintf("%d: %s", result.BaseProductId, result.Error))
		return
	}
	switch result.Status {
	case models.ReplicationStatusCreated:
		s.Created++
	case models.ReplicationStatusUpdated:
		s.Updated++
	case models.ReplicationStatusSkipped:
		s.Skipped++
	}
	s.Results = append(s.Results, result)
}

// BudgetReplicator replicates every item of a released budget into the
// budget's company catalog, records one log per run and marks the budget
// replicated when the run was real and clean.
type BudgetReplicator struct {
	repos    Repositories
	engine   *ReplicationEngine
	machine  *BudgetStateMachine
	totals   *TotalsCalculator
	recorder *ReplicationRecorder
	locker   BudgetLocker
	logger   *logrus.Logger
}

func NewBudgetReplicator(repos Repositories, locker BudgetLocker, logger *logrus.Logger) *BudgetReplicator {
	if logger == nil {
		logger = config.GetLogger()
	}
	if locker == nil {
		locker = NewLocalBudgetLocker()
	}
	return &BudgetReplicator{
		repos:    repos,
		engine:   NewReplicationEngine(repos.BaseProducts, repos.CompanyProducts),
		machine:  NewBudgetStateMachine(repos.Budgets),
		totals:   NewTotalsCalculator(repos.Budgets, repos.Items),
		recorder: NewReplicationRecorder(repos.Logs, logger),
		locker:   locker,
		logger:   logger,
	}
}

func (r *BudgetReplicator) Engine() *ReplicationEngine {
	return r.engine
}

func (r *BudgetReplicator) ReplicateBudget(ctx context.Context, in ReplicateBudgetInput) (*ReplicationSummary, error) {
	ctx, span := tracer.Start(ctx, "workflow.ReplicateBudget", trace.WithAttributes(
		attribute.Int("budget.id", in.BudgetId),
		attribute.Bool("replication.dry_run", in.DryRun),
	))
	defer span.End()

	summary, err := r.replicateBudget(ctx, in)
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, err.Error())
	} else {
		span.SetAttributes(
			attribute.Int("replication.created", summary.Created),
			attribute.Int("replication.updated", summary.Updated),
			attribute.Int("replication.skipped", summary.Skipped),
			attribute.Int("replication.errors", len(summary.Errors)),
		)
	}
	return summary, err
}

func (r *BudgetReplicator) replicateBudget(ctx context.Context, in ReplicateBudgetInput) (*ReplicationSummary, error) {
	if in.BudgetId <= 0 {
		return nil, models.NewValidationError("budget_id", "required")
	}

	unlock, err := r.locker.Lock(ctx, in.BudgetId)
	if err != nil {
		return nil, err
	}
	defer unlock()

	// a snapshot is written only when the merged budget is released
	if in.Snapshot != nil {
		merge, err := r.planSnapshot(ctx, in.BudgetId, in.Snapshot, in.ActorId)
		if err != nil {
			return nil, err
		}
		if merge.budget.Status != models.BudgetStatusReleased {
			return nil, &models.NotReleasedError{BudgetId: merge.budget.ID, Status: merge.budget.Status}
		}
		if err := r.applySnapshot(ctx, merge); err != nil {
			return nil, err
		}
	}

	budget, err := r.repos.Budgets.GetBudget(ctx, in.BudgetId)
	if err != nil {
		return nil, err
	}
	if budget.Status != models.BudgetStatusReleased {
		return nil, &models.NotReleasedError{BudgetId: budget.ID, Status: budget.Status}
	}
	items, err := r.repos.Items.ListItemsByBudget(ctx, budget.ID)
	if err != nil {
		return nil, err
	}
	if len(items) == 0 {
		return nil, &models.NoItemsError{BudgetId: budget.ID}
	}

	actorId := budget.UpdatedBy
	if in.ActorId != nil {
		actorId = *in.ActorId
	}
	source := in.Source
	if source == "" {
		source = SourceBudgetRelease
	}

	summary := &ReplicationSummary{
		BudgetId:  budget.ID,
		CompanyId: budget.CompanyId,
		Total:     len(items),
		Errors:    []string{},
		Results:   []models.ReplicationResult{},
		DryRun:    in.DryRun,
		Status:    budget.Status,
	}
	var sim *Simulation
	if in.DryRun {
		sim = r.engine.NewSimulation()
	}
	for _, item := range items {
		input := ReplicateProductInput{
			BaseProductId: item.BaseProductId,
			CompanyId:     budget.CompanyId,
			Overrides:     item.Overrides(),
		}
		if sim != nil {
			summary.add(sim.SimulateProduct(ctx, input))
		} else {
			summary.add(r.engine.ReplicateProduct(ctx, input))
		}
	}

	budgetId := budget.ID
	r.writeLog(ctx, summary, &models.ReplicationLog{
		BudgetId:  &budgetId,
		CompanyId: budget.CompanyId,
		ActorId:   actorId,
		Action:    models.ReplicationActionBudget,
	}, source)

	if in.DryRun || summary.HasErrors() {
		return summary, nil
	}

	replicated, err := r.machine.MarkReplicated(ctx, budget.ID, actorId)
	if err != nil {
		config.LogError(r.logger, "BudgetReplicator", "ReplicateBudget", "marking budget replicated", budget.ID, err)
		return summary, fmt.Errorf("mark budget %d replicated: %w", budget.ID, err)
	}
	summary.Status = replicated.Status
	r.logger.WithFields(logrus.Fields{
		"budget_id": budget.ID,
		"created":   summary.Created,
		"updated":   summary.Updated,
		"skipped":   summary.Skipped,
	}).Info("budget replicated")
	return summary, nil
}

// ReplicateSingleProduct replicates one base product outside of any budget.
// A missing base product is logged like any failure and then returned as
// *models.NotFoundError alongside the summary.
func (r *BudgetReplicator) ReplicateSingleProduct(ctx context.Context, in ReplicateSingleInput) (*ReplicationSummary, error) {
	ctx, span := tracer.Start(ctx, "workflow.ReplicateSingleProduct", trace.WithAttributes(
		attribute.Int("base_product.id", in.BaseProductId),
		attribute.String("company.id", in.CompanyId),
		attribute.Bool("replication.dry_run", in.DryRun),
	))
	defer span.End()

	fields := map[string]string{}
	if in.BaseProductId <= 0 {
		fields["base_product_id"] = "required"
	}
	if in.CompanyId == "" {
		fields["company_id"] = "required"
	}
	if len(fields) > 0 {
		return nil, &models.ValidationError{Fields: fields}
	}
	if err := in.Overrides.Validate(); err != nil {
		return nil, err
	}

	source := in.Source
	if source == "" {
		source = SourceSingleProduct
	}
	summary := &ReplicationSummary{
		CompanyId: in.CompanyId,
		Total:     1,
		Errors:    []string{},
		Results:   []models.ReplicationResult{},
		DryRun:    in.DryRun,
	}
	var sim *Simulation
	if in.DryRun {
		sim = r.engine.NewSimulation()
	}
	result, cause := r.engine.replicate(ctx, ReplicateProductInput{
		BaseProductId: in.BaseProductId,
		CompanyId:     in.CompanyId,
		Overrides:     in.Overrides,
	}, sim)
	summary.add(result)

	baseProductId := in.BaseProductId
	r.writeLog(ctx, summary, &models.ReplicationLog{
		BaseProductId: &baseProductId,
		CompanyId:     in.CompanyId,
		ActorId:       in.ActorId,
		Action:        models.ReplicationActionSingle,
	}, source)

	if models.IsNotFound(cause) {
		span.RecordError(cause)
		return summary, cause
	}
	return summary, nil
}

func (r *BudgetReplicator) writeLog(ctx context.Context, summary *ReplicationSummary, entry *models.ReplicationLog, source string) {
	correlationId, _ := utils.GetCorrelationIdFromContext(ctx)
	entry.Results = datatypes.JSONSlice[models.ReplicationResult](summary.Results)
	entry.Errors = datatypes.JSONSlice[string](summary.Errors)
	entry.Metadata = datatypes.NewJSONType(models.ReplicationMetadata{
		DryRun:        summary.DryRun,
		Source:        source,
		CorrelationId: correlationId,
	})
	entry.CreatedAt = time.Now().UTC()
	if err := r.recorder.Record(ctx, entry); err != nil {
		summary.LogError = err.Error()
		return
	}
	summary.LogId = entry.ID
}
