package workflow

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/genautech/rewards_backend/models"
)

type ReplicateProductInput struct {
	BaseProductId int
	CompanyId     string
	Overrides     *models.ProductOverrides
}

// ReplicationEngine copies base products into company catalogs. Replaying the
// same input against an unchanged catalog is a no-op reported as skipped.
type ReplicationEngine struct {
	baseProducts    models.BaseProductRepository
	companyProducts models.CompanyProductRepository
}

func NewReplicationEngine(baseProducts models.BaseProductRepository, companyProducts models.CompanyProductRepository) *ReplicationEngine {
	return &ReplicationEngine{baseProducts: baseProducts, companyProducts: companyProducts}
}

type replicationPlan struct {
	status  models.ReplicationStatus
	product *models.CompanyProduct
}

// Simulation plans a run of items without writing. Each item is planned
// against the stored catalog plus what earlier items of the run would
// have written.
type Simulation struct {
	engine  *ReplicationEngine
	planned map[string]*models.CompanyProduct
}

func (e *ReplicationEngine) NewSimulation() *Simulation {
	return &Simulation{engine: e, planned: map[string]*models.CompanyProduct{}}
}

func (s *Simulation) SimulateProduct(ctx context.Context, in ReplicateProductInput) models.ReplicationResult {
	result, _ := s.engine.replicate(ctx, in, s)
	return result
}

func plannedKey(companyId string, baseProductId int) string {
	return fmt.Sprintf("%s:%d", companyId, baseProductId)
}

// ReplicateProduct writes the company product for one base product.
// Failures are reported in the result, never returned.
func (e *ReplicationEngine) ReplicateProduct(ctx context.Context, in ReplicateProductInput) models.ReplicationResult {
	result, _ := e.replicate(ctx, in, nil)
	return result
}

// SimulateProduct reports what ReplicateProduct would do without writing.
func (e *ReplicationEngine) SimulateProduct(ctx context.Context, in ReplicateProductInput) models.ReplicationResult {
	return e.NewSimulation().SimulateProduct(ctx, in)
}

// replicate writes unless sim is set, and also hands back the cause of an
// error result.
func (e *ReplicationEngine) replicate(ctx context.Context, in ReplicateProductInput, sim *Simulation) (models.ReplicationResult, error) {
	result := models.ReplicationResult{BaseProductId: in.BaseProductId, CompanyId: in.CompanyId}

	plan, err := e.plan(ctx, in, sim)
	if err != nil {
		result.Status = models.ReplicationStatusError
		result.Error = err.Error()
		return result, err
	}
	result.Status = plan.status

	if sim != nil {
		sim.planned[plannedKey(in.CompanyId, in.BaseProductId)] = plan.product
	} else if plan.status != models.ReplicationStatusSkipped {
		if err := e.companyProducts.UpsertCompanyProduct(ctx, plan.product); err != nil {
			result.Status = models.ReplicationStatusError
			result.Error = err.Error()
			return result, err
		}
	}
	if plan.product.ID != 0 {
		id := plan.product.ID
		result.CompanyProductId = &id
	}
	return result, nil
}

func (e *ReplicationEngine) existing(ctx context.Context, in ReplicateProductInput, sim *Simulation) (*models.CompanyProduct, error) {
	if sim != nil {
		if planned, ok := sim.planned[plannedKey(in.CompanyId, in.BaseProductId)]; ok {
			copied := *planned
			return &copied, nil
		}
	}
	return e.companyProducts.GetCompanyProduct(ctx, in.CompanyId, in.BaseProductId)
}

func (e *ReplicationEngine) plan(ctx context.Context, in ReplicateProductInput, sim *Simulation) (*replicationPlan, error) {
	if strings.TrimSpace(in.CompanyId) == "" {
		return nil, models.NewValidationError("company_id", "required")
	}
	if err := in.Overrides.Validate(); err != nil {
		return nil, err
	}
	base, err := e.baseProducts.GetBaseProductById(ctx, in.BaseProductId)
	if err != nil {
		return nil, err
	}

	existing, err := e.existing(ctx, in, sim)
	var nf *models.NotFoundError
	switch {
	case errors.As(err, &nf):
		product := newCompanyProduct(base, in.CompanyId)
		in.Overrides.Apply(product)
		return &replicationPlan{status: models.ReplicationStatusCreated, product: product}, nil
	case err != nil:
		return nil, err
	}

	// only supplied overrides are compared; no overrides means nothing to update
	if !in.Overrides.Apply(existing) {
		return &replicationPlan{status: models.ReplicationStatusSkipped, product: existing}, nil
	}
	existing.CopyDisplayFields(base)
	return &replicationPlan{status: models.ReplicationStatusUpdated, product: existing}, nil
}

func newCompanyProduct(base *models.BaseProduct, companyId string) *models.CompanyProduct {
	product := &models.CompanyProduct{
		CompanyId:     companyId,
		BaseProductId: base.ID,
		Price:         base.Price,
		PointsCost:    base.PointsCost,
		StockQuantity: base.StockQuantity,
		IsActive:      base.IsActive,
	}
	product.CopyDisplayFields(base)
	return product
}
