package workflow

import (
	"github.com/genautech/rewards_backend/models"
	"go.opentelemetry.io/otel"
)

var tracer = otel.Tracer("github.com/genautech/rewards_backend/workflow")

// Repositories is the storage a workflow runs against. Any field may be
// backed by a different implementation than the others.
type Repositories struct {
	Budgets         models.BudgetRepository
	Items           models.BudgetItemRepository
	BaseProducts    models.BaseProductRepository
	CompanyProducts models.CompanyProductRepository
	Logs            models.ReplicationLogRepository
}

func RepositoriesFrom(s models.Store) Repositories {
	return Repositories{
		Budgets:         s,
		Items:           s,
		BaseProducts:    s,
		CompanyProducts: s,
		Logs:            s,
	}
}
