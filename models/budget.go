package models

import (
	"strconv"
	"strings"
	"time"

	"github.com/genautech/rewards_backend/utils"
	"github.com/shopspring/decimal"
)

type Budget struct {
	ID           int             `gorm:"primary_key" json:"id"`
	CompanyId    string          `gorm:"size:64;index;not null" json:"company_id"`
	Title        string          `gorm:"size:255;not null" json:"title"`
	Status       BudgetStatus    `gorm:"size:20;index;not null" json:"status"`
	TotalPrice   decimal.Decimal `gorm:"type:decimal(20,4);not null" json:"total_price"`
	TotalPoints  decimal.Decimal `gorm:"type:decimal(20,4);not null" json:"total_points"`
	IsArchived   bool            `gorm:"not null" json:"is_archived"`
	CreatedBy    int             `gorm:"not null" json:"created_by"`
	UpdatedBy    int             `gorm:"not null" json:"updated_by"`
	CreatedAt    time.Time       `gorm:"autoCreateTime" json:"created_at"`
	UpdatedAt    time.Time       `gorm:"autoUpdateTime" json:"updated_at"`
	ReplicatedAt *time.Time      `json:"replicated_at"`
}

type BudgetItem struct {
	ID            int             `gorm:"primary_key" json:"id"`
	BudgetId      int             `gorm:"index;not null" json:"budget_id"`
	BaseProductId int             `gorm:"index;not null" json:"base_product_id"`
	Qty           int             `gorm:"not null" json:"qty"`
	UnitPrice     decimal.Decimal `gorm:"type:decimal(20,4);not null" json:"unit_price"`
	UnitPoints    decimal.Decimal `gorm:"type:decimal(20,4);not null" json:"unit_points"`
	Position      int             `gorm:"not null" json:"position"`
	CreatedAt     time.Time       `gorm:"autoCreateTime" json:"created_at"`
	UpdatedAt     time.Time       `gorm:"autoUpdateTime" json:"updated_at"`
}

// Overrides is what an item contributes to its company product on replication.
func (item *BudgetItem) Overrides() *ProductOverrides {
	price := item.UnitPrice
	points := item.UnitPoints
	qty := item.Qty
	active := true
	return &ProductOverrides{Price: &price, PointsCost: &points, StockQuantity: &qty, IsActive: &active}
}

// BudgetPatch holds the budget columns an update may touch. Nil fields are left alone.
type BudgetPatch struct {
	Title        *string
	Status       *BudgetStatus
	TotalPrice   *decimal.Decimal
	TotalPoints  *decimal.Decimal
	IsArchived   *bool
	UpdatedBy    *int
	ReplicatedAt *time.Time
}

func (p BudgetPatch) Apply(b *Budget) {
	if p.Title != nil {
		b.Title = *p.Title
	}
	if p.Status != nil {
		b.Status = *p.Status
	}
	if p.TotalPrice != nil {
		b.TotalPrice = *p.TotalPrice
	}
	if p.TotalPoints != nil {
		b.TotalPoints = *p.TotalPoints
	}
	if p.IsArchived != nil {
		b.IsArchived = *p.IsArchived
	}
	if p.UpdatedBy != nil {
		b.UpdatedBy = *p.UpdatedBy
	}
	if p.ReplicatedAt != nil {
		at := *p.ReplicatedAt
		b.ReplicatedAt = &at
	}
}

func (p BudgetPatch) Columns() map[string]interface{} {
	cols := map[string]interface{}{}
	if p.Title != nil {
		cols["title"] = *p.Title
	}
	if p.Status != nil {
		cols["status"] = *p.Status
	}
	if p.TotalPrice != nil {
		cols["total_price"] = *p.TotalPrice
	}
	if p.TotalPoints != nil {
		cols["total_points"] = *p.TotalPoints
	}
	if p.IsArchived != nil {
		cols["is_archived"] = *p.IsArchived
	}
	if p.UpdatedBy != nil {
		cols["updated_by"] = *p.UpdatedBy
	}
	if p.ReplicatedAt != nil {
		cols["replicated_at"] = *p.ReplicatedAt
	}
	return cols
}

type BudgetItemPatch struct {
	BaseProductId *int             `json:"base_product_id"`
	Qty           *int             `json:"qty"`
	UnitPrice     *decimal.Decimal `json:"unit_price"`
	UnitPoints    *decimal.Decimal `json:"unit_points"`
}

func (p *BudgetItemPatch) Validate() error {
	fields := map[string]string{}
	if p.BaseProductId != nil && *p.BaseProductId <= 0 {
		fields["base_product_id"] = "gt"
	}
	if p.Qty != nil && *p.Qty < 1 {
		fields["qty"] = "min"
	}
	if p.UnitPrice != nil && p.UnitPrice.IsNegative() {
		fields["unit_price"] = "gte"
	}
	if p.UnitPoints != nil && p.UnitPoints.IsNegative() {
		fields["unit_points"] = "gte"
	}
	if len(fields) > 0 {
		return &ValidationError{Fields: fields}
	}
	return nil
}

func (p BudgetItemPatch) Apply(item *BudgetItem) {
	if p.BaseProductId != nil {
		item.BaseProductId = *p.BaseProductId
	}
	if p.Qty != nil {
		item.Qty = *p.Qty
	}
	if p.UnitPrice != nil {
		item.UnitPrice = *p.UnitPrice
	}
	if p.UnitPoints != nil {
		item.UnitPoints = *p.UnitPoints
	}
}

func (p BudgetItemPatch) Columns() map[string]interface{} {
	cols := map[string]interface{}{}
	if p.BaseProductId != nil {
		cols["base_product_id"] = *p.BaseProductId
	}
	if p.Qty != nil {
		cols["qty"] = *p.Qty
	}
	if p.UnitPrice != nil {
		cols["unit_price"] = *p.UnitPrice
	}
	if p.UnitPoints != nil {
		cols["unit_points"] = *p.UnitPoints
	}
	return cols
}

type NewBudgetItem struct {
	BaseProductId int             `json:"base_product_id" validate:"required,gt=0"`
	Qty           int             `json:"qty" validate:"min=1"`
	UnitPrice     decimal.Decimal `json:"unit_price"`
	UnitPoints    decimal.Decimal `json:"unit_points"`
}

func (input *NewBudgetItem) Validate() error {
	fields := utils.ValidateStruct(input)
	if fields == nil {
		fields = map[string]string{}
	}
	if input.UnitPrice.IsNegative() {
		fields["unit_price"] = "gte"
	}
	if input.UnitPoints.IsNegative() {
		fields["unit_points"] = "gte"
	}
	if len(fields) > 0 {
		return &ValidationError{Fields: fields}
	}
	return nil
}

func (input *NewBudgetItem) ToItem(budgetId int, position int) *BudgetItem {
	return &BudgetItem{
		BudgetId:      budgetId,
		BaseProductId: input.BaseProductId,
		Qty:           input.Qty,
		UnitPrice:     input.UnitPrice,
		UnitPoints:    input.UnitPoints,
		Position:      position,
	}
}

type NewBudget struct {
	CompanyId string          `json:"company_id" validate:"required,max=64"`
	Title     string          `json:"title" validate:"required,max=255"`
	Items     []NewBudgetItem `json:"items"`
}

func (input *NewBudget) Validate() error {
	input.CompanyId = strings.TrimSpace(input.CompanyId)
	input.Title = strings.TrimSpace(input.Title)
	fields := utils.ValidateStruct(input)
	if fields == nil {
		fields = map[string]string{}
	}
	for i := range input.Items {
		if err := input.Items[i].Validate(); err != nil {
			for k, v := range err.(*ValidationError).Fields {
				fields[itemField(i, k)] = v
			}
		}
	}
	if len(fields) > 0 {
		return &ValidationError{Fields: fields}
	}
	return nil
}

// ValidateItems validates a full replacement list of items.
func ValidateItems(items []NewBudgetItem) error {
	fields := map[string]string{}
	for i := range items {
		if err := items[i].Validate(); err != nil {
			for k, v := range err.(*ValidationError).Fields {
				fields[itemField(i, k)] = v
			}
		}
	}
	if len(fields) > 0 {
		return &ValidationError{Fields: fields}
	}
	return nil
}

func itemField(i int, field string) string {
	return "items[" + strconv.Itoa(i) + "]." + field
}

type BudgetFilter struct {
	CompanyId       string
	Status          BudgetStatus
	IncludeArchived bool
}

func (f BudgetFilter) Matches(b *Budget) bool {
	if f.CompanyId != "" && b.CompanyId != f.CompanyId {
		return false
	}
	if f.Status != "" && b.Status != f.Status {
		return false
	}
	if !f.IncludeArchived && b.IsArchived {
		return false
	}
	return true
}
