package models

import (
	"time"

	"gorm.io/datatypes"
)

// ReplicationResult is the outcome of replicating one base product into one company.
type ReplicationResult struct {
	BaseProductId    int               `json:"base_product_id"`
	CompanyId        string            `json:"company_id"`
	Status           ReplicationStatus `json:"status"`
	Error            string            `json:"error,omitempty"`
	CompanyProductId *int              `json:"company_product_id,omitempty"`
}

func (r ReplicationResult) Failed() bool {
	return r.Status == ReplicationStatusError
}

type ReplicationMetadata struct {
	DryRun        bool   `json:"dry_run"`
	Source        string `json:"source"`
	CorrelationId string `json:"correlation_id,omitempty"`
}

// ReplicationLog is the append-only audit record of one replication run.
type ReplicationLog struct {
	ID            int                                     `gorm:"primary_key" json:"id"`
	BudgetId      *int                                    `gorm:"index" json:"budget_id"`
	CompanyId     string                                  `gorm:"size:64;index;not null" json:"company_id"`
	BaseProductId *int                                    `json:"base_product_id"`
	ActorId       int                                     `gorm:"index;not null" json:"actor_id"`
	Action        ReplicationAction                       `gorm:"size:32;not null" json:"action"`
	Results       datatypes.JSONSlice[ReplicationResult]  `json:"results"`
	Errors        datatypes.JSONSlice[string]             `json:"errors"`
	Metadata      datatypes.JSONType[ReplicationMetadata] `json:"metadata"`
	CreatedAt     time.Time                               `gorm:"autoCreateTime" json:"created_at"`
}

type ReplicationLogFilter struct {
	BudgetId  *int
	CompanyId string
	Action    ReplicationAction
}

func (f ReplicationLogFilter) Matches(l *ReplicationLog) bool {
	if f.BudgetId != nil && (l.BudgetId == nil || *l.BudgetId != *f.BudgetId) {
		return false
	}
	if f.CompanyId != "" && l.CompanyId != f.CompanyId {
		return false
	}
	if f.Action != "" && l.Action != f.Action {
		return false
	}
	return true
}
