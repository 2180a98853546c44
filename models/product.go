package models

import (
	"strings"
	"time"

	"github.com/genautech/rewards_backend/utils"
	"github.com/shopspring/decimal"
)

// BaseProduct is a catalog template owned by the platform.
type BaseProduct struct {
	ID            int             `gorm:"primary_key" json:"id"`
	Sku           string          `gorm:"size:64;uniqueIndex;not null" json:"sku"`
	Name          string          `gorm:"size:255;not null" json:"name"`
	Description   string          `gorm:"type:text" json:"description"`
	Category      string          `gorm:"size:100" json:"category"`
	ImageUrl      string          `gorm:"size:512" json:"image_url"`
	Price         decimal.Decimal `gorm:"type:decimal(20,4);not null" json:"price"`
	PointsCost    decimal.Decimal `gorm:"type:decimal(20,4);not null" json:"points_cost"`
	StockQuantity int             `gorm:"not null" json:"stock_quantity"`
	IsActive      bool            `gorm:"not null" json:"is_active"`
	CreatedAt     time.Time       `gorm:"autoCreateTime" json:"created_at"`
	UpdatedAt     time.Time       `gorm:"autoUpdateTime" json:"updated_at"`
}

type NewBaseProduct struct {
	Sku           string          `json:"sku" validate:"required,max=64"`
	Name          string          `json:"name" validate:"required,max=255"`
	Description   string          `json:"description"`
	Category      string          `json:"category" validate:"max=100"`
	ImageUrl      string          `json:"image_url" validate:"omitempty,url,max=512"`
	Price         decimal.Decimal `json:"price"`
	PointsCost    decimal.Decimal `json:"points_cost"`
	StockQuantity int             `json:"stock_quantity" validate:"gte=0"`
	IsActive      *bool           `json:"is_active"`
}

func (input *NewBaseProduct) Validate() error {
	input.Sku = strings.TrimSpace(input.Sku)
	input.Name = strings.TrimSpace(input.Name)
	fields := utils.ValidateStruct(input)
	if fields == nil {
		fields = map[string]string{}
	}
	if input.Price.IsNegative() {
		fields["price"] = "gte"
	}
	if input.PointsCost.IsNegative() {
		fields["points_cost"] = "gte"
	}
	if len(fields) > 0 {
		return &ValidationError{Fields: fields}
	}
	return nil
}

func (input *NewBaseProduct) ToBaseProduct() *BaseProduct {
	isActive := true
	if input.IsActive != nil {
		isActive = *input.IsActive
	}
	return &BaseProduct{
		Sku:           input.Sku,
		Name:          input.Name,
		Description:   input.Description,
		Category:      input.Category,
		ImageUrl:      input.ImageUrl,
		Price:         input.Price,
		PointsCost:    input.PointsCost,
		StockQuantity: input.StockQuantity,
		IsActive:      isActive,
	}
}

// CompanyProduct is a company-scoped copy of a base product.
// At most one exists per (CompanyId, BaseProductId).
type CompanyProduct struct {
	ID            int             `gorm:"primary_key" json:"id"`
	CompanyId     string          `gorm:"size:64;not null;uniqueIndex:idx_company_base_product,priority:1" json:"company_id"`
	BaseProductId int             `gorm:"not null;uniqueIndex:idx_company_base_product,priority:2" json:"base_product_id"`
	Sku           string          `gorm:"size:64" json:"sku"`
	Name          string          `gorm:"size:255;not null" json:"name"`
	Description   string          `gorm:"type:text" json:"description"`
	Category      string          `gorm:"size:100" json:"category"`
	ImageUrl      string          `gorm:"size:512" json:"image_url"`
	Price         decimal.Decimal `gorm:"type:decimal(20,4);not null" json:"price"`
	PointsCost    decimal.Decimal `gorm:"type:decimal(20,4);not null" json:"points_cost"`
	StockQuantity int             `gorm:"not null" json:"stock_quantity"`
	IsActive      bool            `gorm:"not null" json:"is_active"`
	CreatedAt     time.Time       `gorm:"autoCreateTime" json:"created_at"`
	UpdatedAt     time.Time       `gorm:"autoUpdateTime" json:"updated_at"`
}

// CopyDisplayFields refreshes the descriptive columns from the base product.
func (cp *CompanyProduct) CopyDisplayFields(base *BaseProduct) {
	cp.Sku = base.Sku
	cp.Name = base.Name
	cp.Description = base.Description
	cp.Category = base.Category
	cp.ImageUrl = base.ImageUrl
}

// ProductOverrides are company-specific values replacing the base defaults.
// Nil fields are not overridden.
type ProductOverrides struct {
	Price         *decimal.Decimal `json:"price"`
	PointsCost    *decimal.Decimal `json:"points_cost"`
	StockQuantity *int             `json:"stock_quantity"`
	IsActive      *bool            `json:"is_active"`
}

func (o *ProductOverrides) Validate() error {
	if o == nil {
		return nil
	}
	fields := map[string]string{}
	if o.Price != nil && o.Price.IsNegative() {
		fields["overrides.price"] = "gte"
	}
	if o.PointsCost != nil && o.PointsCost.IsNegative() {
		fields["overrides.points_cost"] = "gte"
	}
	if o.StockQuantity != nil && *o.StockQuantity < 0 {
		fields["overrides.stock_quantity"] = "gte"
	}
	if len(fields) > 0 {
		return &ValidationError{Fields: fields}
	}
	return nil
}

// Apply writes the supplied overrides onto cp and reports whether any
// stored value changed.
func (o *ProductOverrides) Apply(cp *CompanyProduct) bool {
	if o == nil {
		return false
	}
	changed := false
	if o.Price != nil && !o.Price.Equal(cp.Price) {
		cp.Price = *o.Price
		changed = true
	}
	if o.PointsCost != nil && !o.PointsCost.Equal(cp.PointsCost) {
		cp.PointsCost = *o.PointsCost
		changed = true
	}
	if o.StockQuantity != nil && *o.StockQuantity != cp.StockQuantity {
		cp.StockQuantity = *o.StockQuantity
		changed = true
	}
	if o.IsActive != nil && *o.IsActive != cp.IsActive {
		cp.IsActive = *o.IsActive
		changed = true
	}
	return changed
}
