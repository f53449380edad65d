package models

import (
	"time"

	"github.com/erp/stockcount/internal/domain/inventory"
	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

// CountTemplateModel is the persistence model for the CountTemplate aggregate root.
type CountTemplateModel struct {
	TenantAggregateModel
	Name        string                   `gorm:"type:varchar(100);not null"`
	Description string                   `gorm:"type:text"`
	WarehouseID uuid.UUID                `gorm:"type:uuid;not null;index"`
	IsActive    bool                     `gorm:"not null"`
	Items       []CountTemplateItemModel `gorm:"foreignKey:TemplateID;references:ID"`
}

func (CountTemplateModel) TableName() string {
	return "inventory_count_templates"
}

func (m *CountTemplateModel) ToDomain() *inventory.CountTemplate {
	t := &inventory.CountTemplate{
		Name:        m.Name,
		Description: m.Description,
		WarehouseID: m.WarehouseID,
		IsActive:    m.IsActive,
		Items:       make([]inventory.CountTemplateItem, len(m.Items)),
	}
	for i, item := range m.Items {
		t.Items[i] = inventory.CountTemplateItem{
			ID:               item.ID,
			TemplateID:       item.TemplateID,
			ProductID:        item.ProductID,
			ProductName:      item.ProductName,
			ProductCode:      item.ProductCode,
			Unit:             item.Unit,
			ExpectedQuantity: nullToPtr(item.ExpectedQuantity),
			MinimumQuantity:  nullToPtr(item.MinimumQuantity),
			MaximumQuantity:  nullToPtr(item.MaximumQuantity),
			CreatedAt:        item.CreatedAt,
		}
	}
	m.PopulateTenantAggregateRoot(&t.TenantAggregateRoot)
	return t
}

func CountTemplateModelFromDomain(t *inventory.CountTemplate) *CountTemplateModel {
	m := &CountTemplateModel{
		Name:        t.Name,
		Description: t.Description,
		WarehouseID: t.WarehouseID,
		IsActive:    t.IsActive,
		Items:       make([]CountTemplateItemModel, len(t.Items)),
	}
	m.FromDomainTenantAggregateRoot(t.TenantAggregateRoot)
	for i, item := range t.Items {
		m.Items[i] = CountTemplateItemModel{
			BaseModel:        BaseModel{ID: item.ID, CreatedAt: item.CreatedAt, UpdatedAt: item.CreatedAt},
			TemplateID:       item.TemplateID,
			ProductID:        item.ProductID,
			ProductName:      item.ProductName,
			ProductCode:      item.ProductCode,
			Unit:             item.Unit,
			ExpectedQuantity: ptrToNull(item.ExpectedQuantity),
			MinimumQuantity:  ptrToNull(item.MinimumQuantity),
			MaximumQuantity:  ptrToNull(item.MaximumQuantity),
		}
	}
	return m
}

// CountTemplateItemModel is one product on a template. A NULL expected
// quantity means current stock is used when a count is initialized.
type CountTemplateItemModel struct {
	BaseModel
	TemplateID       uuid.UUID           `gorm:"type:uuid;not null;index"`
	ProductID        uuid.UUID           `gorm:"type:uuid;not null"`
	ProductName      string              `gorm:"type:varchar(200);not null"`
	ProductCode      string              `gorm:"type:varchar(50)"`
	Unit             string              `gorm:"type:varchar(20)"`
	ExpectedQuantity decimal.NullDecimal `gorm:"type:decimal(18,4)"`
	MinimumQuantity  decimal.NullDecimal `gorm:"type:decimal(18,4)"`
	MaximumQuantity  decimal.NullDecimal `gorm:"type:decimal(18,4)"`
}

func (CountTemplateItemModel) TableName() string {
	return "inventory_count_template_items"
}

// StockLevelModel is the on-hand quantity of a product in a warehouse.
type StockLevelModel struct {
	TenantAggregateModel
	WarehouseID uuid.UUID       `gorm:"type:uuid;not null;index"`
	ProductID   uuid.UUID       `gorm:"type:uuid;not null;index"`
	ProductName string          `gorm:"type:varchar(200);not null"`
	ProductCode string          `gorm:"type:varchar(50)"`
	Unit        string          `gorm:"type:varchar(20)"`
	Quantity    decimal.Decimal `gorm:"type:decimal(18,4);not null"`
	UnitCost    decimal.Decimal `gorm:"type:decimal(18,4);not null"`
	IsActive    bool            `gorm:"not null"`
}

func (StockLevelModel) TableName() string {
	return "stock_levels"
}

func (m *StockLevelModel) ToDomain() *inventory.StockLevel {
	s := &inventory.StockLevel{
		WarehouseID: m.WarehouseID,
		ProductID:   m.ProductID,
		ProductName: m.ProductName,
		ProductCode: m.ProductCode,
		Unit:        m.Unit,
		Quantity:    m.Quantity,
		UnitCost:    m.UnitCost,
		IsActive:    m.IsActive,
	}
	m.PopulateTenantAggregateRoot(&s.TenantAggregateRoot)
	return s
}

func StockLevelModelFromDomain(s *inventory.StockLevel) *StockLevelModel {
	m := &StockLevelModel{
		WarehouseID: s.WarehouseID,
		ProductID:   s.ProductID,
		ProductName: s.ProductName,
		ProductCode: s.ProductCode,
		Unit:        s.Unit,
		Quantity:    s.Quantity,
		UnitCost:    s.UnitCost,
		IsActive:    s.IsActive,
	}
	m.FromDomainTenantAggregateRoot(s.TenantAggregateRoot)
	return m
}

// InventoryAdjustmentModel is an append-only stock change written by an approval.
type InventoryAdjustmentModel struct {
	ID               uuid.UUID       `gorm:"type:uuid;primary_key"`
	TenantID         uuid.UUID       `gorm:"type:uuid;not null;index"`
	CountID          uuid.UUID       `gorm:"type:uuid;not null;index"`
	CountItemID      uuid.UUID       `gorm:"type:uuid;not null"`
	StockLevelID     uuid.UUID       `gorm:"type:uuid;not null"`
	WarehouseID      uuid.UUID       `gorm:"type:uuid;not null"`
	ProductID        uuid.UUID       `gorm:"type:uuid;not null"`
	QuantityBefore   decimal.Decimal `gorm:"type:decimal(18,4);not null"`
	QuantityAfter    decimal.Decimal `gorm:"type:decimal(18,4);not null"`
	Difference       decimal.Decimal `gorm:"type:decimal(18,4);not null"`
	UnitCost         decimal.Decimal `gorm:"type:decimal(18,4);not null"`
	DifferenceAmount decimal.Decimal `gorm:"type:decimal(18,4);not null"`
	Reason           string          `gorm:"type:varchar(50);not null"`
	CreatedBy        uuid.UUID       `gorm:"type:uuid;not null"`
	CreatedAt        time.Time       `gorm:"not null"`
}

func (InventoryAdjustmentModel) TableName() string {
	return "inventory_adjustments"
}

func (m *InventoryAdjustmentModel) ToDomain() inventory.InventoryAdjustment {
	return inventory.InventoryAdjustment{
		ID:               m.ID,
		TenantID:         m.TenantID,
		CountID:          m.CountID,
		CountItemID:      m.CountItemID,
		StockLevelID:     m.StockLevelID,
		WarehouseID:      m.WarehouseID,
		ProductID:        m.ProductID,
		QuantityBefore:   m.QuantityBefore,
		QuantityAfter:    m.QuantityAfter,
		Difference:       m.Difference,
		UnitCost:         m.UnitCost,
		DifferenceAmount: m.DifferenceAmount,
		Reason:           m.Reason,
		CreatedBy:        m.CreatedBy,
		CreatedAt:        m.CreatedAt,
	}
}

func InventoryAdjustmentModelFromDomain(a *inventory.InventoryAdjustment) InventoryAdjustmentModel {
	return InventoryAdjustmentModel{
		ID:               a.ID,
		TenantID:         a.TenantID,
		CountID:          a.CountID,
		CountItemID:      a.CountItemID,
		StockLevelID:     a.StockLevelID,
		WarehouseID:      a.WarehouseID,
		ProductID:        a.ProductID,
		QuantityBefore:   a.QuantityBefore,
		QuantityAfter:    a.QuantityAfter,
		Difference:       a.Difference,
		UnitCost:         a.UnitCost,
		DifferenceAmount: a.DifferenceAmount,
		Reason:           a.Reason,
		CreatedBy:        a.CreatedBy,
		CreatedAt:        a.CreatedAt,
	}
}

// CountAuditEntryModel records one approval decision.
type CountAuditEntryModel struct {
	ID            uuid.UUID             `gorm:"type:uuid;primary_key"`
	TenantID      uuid.UUID             `gorm:"type:uuid;not null;index"`
	CountID       uuid.UUID             `gorm:"type:uuid;not null;index"`
	Action        inventory.AuditAction `gorm:"type:varchar(20);not null"`
	ActorID       uuid.UUID             `gorm:"type:uuid;not null"`
	ActorName     string                `gorm:"type:varchar(100)"`
	Notes         string                `gorm:"type:text"`
	CountVersion  int                   `gorm:"not null"`
	VarianceCount int                   `gorm:"not null"`
	Adjustments   int                   `gorm:"not null"`
	CreatedAt     time.Time             `gorm:"not null"`
}

func (CountAuditEntryModel) TableName() string {
	return "inventory_count_audit_entries"
}

func (m *CountAuditEntryModel) ToDomain() inventory.CountAuditEntry {
	return inventory.CountAuditEntry{
		ID:            m.ID,
		TenantID:      m.TenantID,
		CountID:       m.CountID,
		Action:        m.Action,
		ActorID:       m.ActorID,
		ActorName:     m.ActorName,
		Notes:         m.Notes,
		CountVersion:  m.CountVersion,
		VarianceCount: m.VarianceCount,
		Adjustments:   m.Adjustments,
		CreatedAt:     m.CreatedAt,
	}
}

func CountAuditEntryModelFromDomain(e *inventory.CountAuditEntry) *CountAuditEntryModel {
	return &CountAuditEntryModel{
		ID:            e.ID,
		TenantID:      e.TenantID,
		CountID:       e.CountID,
		Action:        e.Action,
		ActorID:       e.ActorID,
		ActorName:     e.ActorName,
		Notes:         e.Notes,
		CountVersion:  e.CountVersion,
		VarianceCount: e.VarianceCount,
		Adjustments:   e.Adjustments,
		CreatedAt:     e.CreatedAt,
	}
}
