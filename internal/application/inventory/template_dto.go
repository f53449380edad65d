package inventory

import (
	"time"

	"github.com/erp/stockcount/internal/domain/inventory"
	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

// CreateTemplateRequest creates a count template
type CreateTemplateRequest struct {
	Name        string                   `json:"name" binding:"required,min=1,max=100"`
	Description string                   `json:"description" binding:"max=500"`
	WarehouseID uuid.UUID                `json:"warehouse_id" binding:"required"`
	Items       []AddTemplateItemRequest `json:"items" binding:"omitempty,dive"`
}

// AddTemplateItemRequest adds a product to a template
type AddTemplateItemRequest struct {
	ProductID        uuid.UUID        `json:"product_id" binding:"required"`
	ProductName      string           `json:"product_name" binding:"max=200"`
	ProductCode      string           `json:"product_code" binding:"max=50"`
	Unit             string           `json:"unit" binding:"max=20"`
	ExpectedQuantity *decimal.Decimal `json:"expected_quantity" binding:"omitempty,decimal_gte0"`
	MinimumQuantity  *decimal.Decimal `json:"minimum_quantity" binding:"omitempty,decimal_gte0"`
	MaximumQuantity  *decimal.Decimal `json:"maximum_quantity" binding:"omitempty,decimal_gte0"`
}

func (r AddTemplateItemRequest) toInput() inventory.TemplateItemInput {
	return inventory.TemplateItemInput{
		ProductID:        r.ProductID,
		ProductName:      r.ProductName,
		ProductCode:      r.ProductCode,
		Unit:             r.Unit,
		ExpectedQuantity: r.ExpectedQuantity,
		MinimumQuantity:  r.MinimumQuantity,
		MaximumQuantity:  r.MaximumQuantity,
	}
}

// TemplateListFilter filters template listings
type TemplateListFilter struct {
	WarehouseID *uuid.UUID `form:"warehouse_id"`
	ActiveOnly  bool       `form:"active_only"`
	Search      string     `form:"search"`
	Page        int        `form:"page" binding:"omitempty,min=1"`
	PageSize    int        `form:"page_size" binding:"omitempty,min=1,max=100"`
}

// TemplateItemResponse is a template line
type TemplateItemResponse struct {
	ID               uuid.UUID        `json:"id"`
	ProductID        uuid.UUID        `json:"product_id"`
	ProductName      string           `json:"product_name"`
	ProductCode      string           `json:"product_code,omitempty"`
	Unit             string           `json:"unit,omitempty"`
	ExpectedQuantity *decimal.Decimal `json:"expected_quantity"`
	MinimumQuantity  *decimal.Decimal `json:"minimum_quantity,omitempty"`
	MaximumQuantity  *decimal.Decimal `json:"maximum_quantity,omitempty"`
}

// TemplateResponse is a count template
type TemplateResponse struct {
	ID          uuid.UUID              `json:"id"`
	Name        string                 `json:"name"`
	Description string                 `json:"description,omitempty"`
	WarehouseID uuid.UUID              `json:"warehouse_id"`
	IsActive    bool                   `json:"is_active"`
	Items       []TemplateItemResponse `json:"items"`
	Version     int                    `json:"version"`
	CreatedAt   time.Time              `json:"created_at"`
	UpdatedAt   time.Time              `json:"updated_at"`
}

// ToTemplateResponse maps a template
func ToTemplateResponse(t *inventory.CountTemplate) TemplateResponse {
	items := make([]TemplateItemResponse, len(t.Items))
	for i, it := range t.Items {
		items[i] = TemplateItemResponse{
			ID:               it.ID,
			ProductID:        it.ProductID,
			ProductName:      it.ProductName,
			ProductCode:      it.ProductCode,
			Unit:             it.Unit,
			ExpectedQuantity: it.ExpectedQuantity,
			MinimumQuantity:  it.MinimumQuantity,
			MaximumQuantity:  it.MaximumQuantity,
		}
	}
	return TemplateResponse{
		ID:          t.ID,
		Name:        t.Name,
		Description: t.Description,
		WarehouseID: t.WarehouseID,
		IsActive:    t.IsActive,
		Items:       items,
		Version:     t.Version,
		CreatedAt:   t.CreatedAt,
		UpdatedAt:   t.UpdatedAt,
	}
}

// UpsertStockLevelRequest sets the on-hand quantity of a product
type UpsertStockLevelRequest struct {
	WarehouseID uuid.UUID       `json:"warehouse_id" binding:"required"`
	ProductID   uuid.UUID       `json:"product_id" binding:"required"`
	ProductName string          `json:"product_name" binding:"required,max=200"`
	ProductCode string          `json:"product_code" binding:"max=50"`
	Unit        string          `json:"unit" binding:"max=20"`
	Quantity    decimal.Decimal `json:"quantity" binding:"decimal_gte0"`
	UnitCost    decimal.Decimal `json:"unit_cost" binding:"decimal_gte0"`
	IsActive    *bool           `json:"is_active"`
}

// StockLevelResponse is a warehouse stock level
type StockLevelResponse struct {
	ID          uuid.UUID       `json:"id"`
	WarehouseID uuid.UUID       `json:"warehouse_id"`
	ProductID   uuid.UUID       `json:"product_id"`
	ProductName string          `json:"product_name"`
	ProductCode string          `json:"product_code,omitempty"`
	Unit        string          `json:"unit,omitempty"`
	Quantity    decimal.Decimal `json:"quantity"`
	UnitCost    decimal.Decimal `json:"unit_cost"`
	IsActive    bool            `json:"is_active"`
	Version     int             `json:"version"`
	UpdatedAt   time.Time       `json:"updated_at"`
}

// ToStockLevelResponse maps a stock level
func ToStockLevelResponse(l *inventory.StockLevel) StockLevelResponse {
	return StockLevelResponse{
		ID:          l.ID,
		WarehouseID: l.WarehouseID,
		ProductID:   l.ProductID,
		ProductName: l.ProductName,
		ProductCode: l.ProductCode,
		Unit:        l.Unit,
		Quantity:    l.Quantity,
		UnitCost:    l.UnitCost,
		IsActive:    l.IsActive,
		Version:     l.Version,
		UpdatedAt:   l.UpdatedAt,
	}
}
