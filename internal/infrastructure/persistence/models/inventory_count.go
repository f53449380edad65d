package models

import (
	"time"

	"github.com/erp/stockcount/internal/domain/inventory"
	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

// InventoryCountModel is the persistence model for the InventoryCount aggregate root.
type InventoryCountModel struct {
	TenantAggregateModel
	CountNumber          string                `gorm:"type:varchar(50);not null;index"`
	WarehouseID          uuid.UUID             `gorm:"type:uuid;not null;index"`
	WarehouseName        string                `gorm:"type:varchar(100);not null"`
	TemplateID           *uuid.UUID            `gorm:"type:uuid"`
	Status               inventory.CountStatus `gorm:"type:varchar(20);not null;index"`
	CountDate            time.Time             `gorm:"not null"`
	ConductedBy          uuid.UUID             `gorm:"type:uuid;not null"`
	ConductedByName      string                `gorm:"type:varchar(100)"`
	TotalItemsCount      int                   `gorm:"not null"`
	CountedItemsCount    int                   `gorm:"not null"`
	CompletionPercentage decimal.Decimal       `gorm:"type:decimal(5,2);not null"`
	VarianceCount        int                   `gorm:"not null"`
	StartedAt            *time.Time
	SubmittedAt          *time.Time
	DecidedAt            *time.Time
	DecidedBy            *uuid.UUID `gorm:"type:uuid"`
	DecidedByName        string     `gorm:"type:varchar(100)"`
	DecisionNotes        string     `gorm:"type:text"`
	ArchivedAt           *time.Time
	ArchiveKey           string                    `gorm:"type:varchar(500)"`
	Notes                string                    `gorm:"type:text"`
	Items                []InventoryCountItemModel `gorm:"foreignKey:CountID;references:ID"`
}

func (InventoryCountModel) TableName() string {
	return "inventory_counts"
}

// ToDomain converts the model and its loaded lines to an InventoryCount.
func (m *InventoryCountModel) ToDomain() *inventory.InventoryCount {
	ic := &inventory.InventoryCount{
		CountNumber:          m.CountNumber,
		WarehouseID:          m.WarehouseID,
		WarehouseName:        m.WarehouseName,
		TemplateID:           m.TemplateID,
		Status:               m.Status,
		CountDate:            m.CountDate,
		ConductedBy:          m.ConductedBy,
		ConductedByName:      m.ConductedByName,
		TotalItemsCount:      m.TotalItemsCount,
		CountedItemsCount:    m.CountedItemsCount,
		CompletionPercentage: m.CompletionPercentage,
		VarianceCount:        m.VarianceCount,
		StartedAt:            m.StartedAt,
		SubmittedAt:          m.SubmittedAt,
		DecidedAt:            m.DecidedAt,
		DecidedBy:            m.DecidedBy,
		DecidedByName:        m.DecidedByName,
		DecisionNotes:        m.DecisionNotes,
		ArchivedAt:           m.ArchivedAt,
		ArchiveKey:           m.ArchiveKey,
		Notes:                m.Notes,
		Items:                make([]inventory.InventoryCountItem, len(m.Items)),
	}
	for i := range m.Items {
		ic.Items[i] = m.Items[i].ToDomain()
	}
	m.PopulateTenantAggregateRoot(&ic.TenantAggregateRoot)
	return ic
}

// InventoryCountModelFromDomain converts an InventoryCount, lines included.
func InventoryCountModelFromDomain(ic *inventory.InventoryCount) *InventoryCountModel {
	m := &InventoryCountModel{
		CountNumber:          ic.CountNumber,
		WarehouseID:          ic.WarehouseID,
		WarehouseName:        ic.WarehouseName,
		TemplateID:           ic.TemplateID,
		Status:               ic.Status,
		CountDate:            ic.CountDate,
		ConductedBy:          ic.ConductedBy,
		ConductedByName:      ic.ConductedByName,
		TotalItemsCount:      ic.TotalItemsCount,
		CountedItemsCount:    ic.CountedItemsCount,
		CompletionPercentage: ic.CompletionPercentage,
		VarianceCount:        ic.VarianceCount,
		StartedAt:            ic.StartedAt,
		SubmittedAt:          ic.SubmittedAt,
		DecidedAt:            ic.DecidedAt,
		DecidedBy:            ic.DecidedBy,
		DecidedByName:        ic.DecidedByName,
		DecisionNotes:        ic.DecisionNotes,
		ArchivedAt:           ic.ArchivedAt,
		ArchiveKey:           ic.ArchiveKey,
		Notes:                ic.Notes,
		Items:                make([]InventoryCountItemModel, len(ic.Items)),
	}
	m.FromDomainTenantAggregateRoot(ic.TenantAggregateRoot)
	for i := range ic.Items {
		m.Items[i] = InventoryCountItemModelFromDomain(&ic.Items[i])
	}
	return m
}

// InventoryCountItemModel is one count line. A NULL actual_quantity means the
// line has not been counted; zero is a real count.
type InventoryCountItemModel struct {
	BaseModel
	CountID          uuid.UUID           `gorm:"type:uuid;not null;index"`
	ProductID        uuid.UUID           `gorm:"type:uuid;not null"`
	ProductName      string              `gorm:"type:varchar(200);not null"`
	ProductCode      string              `gorm:"type:varchar(50)"`
	Unit             string              `gorm:"type:varchar(20)"`
	ExpectedQuantity decimal.Decimal     `gorm:"type:decimal(18,4);not null"`
	ActualQuantity   decimal.NullDecimal `gorm:"type:decimal(18,4)"`
	UnitCost         decimal.Decimal     `gorm:"type:decimal(18,4);not null"`
	MinimumQuantity  decimal.NullDecimal `gorm:"type:decimal(18,4)"`
	MaximumQuantity  decimal.NullDecimal `gorm:"type:decimal(18,4)"`
	CountedBy        *uuid.UUID          `gorm:"type:uuid"`
	CountedAt        *time.Time
	Notes            string `gorm:"type:varchar(500)"`
}

func (InventoryCountItemModel) TableName() string {
	return "inventory_count_items"
}

func (m *InventoryCountItemModel) ToDomain() inventory.InventoryCountItem {
	return inventory.InventoryCountItem{
		ID:               m.ID,
		CountID:          m.CountID,
		ProductID:        m.ProductID,
		ProductName:      m.ProductName,
		ProductCode:      m.ProductCode,
		Unit:             m.Unit,
		ExpectedQuantity: m.ExpectedQuantity,
		ActualQuantity:   inventory.CountedFromPtr(nullToPtr(m.ActualQuantity)),
		UnitCost:         m.UnitCost,
		MinimumQuantity:  nullToPtr(m.MinimumQuantity),
		MaximumQuantity:  nullToPtr(m.MaximumQuantity),
		CountedBy:        m.CountedBy,
		CountedAt:        m.CountedAt,
		Notes:            m.Notes,
		CreatedAt:        m.CreatedAt,
		UpdatedAt:        m.UpdatedAt,
	}
}

func InventoryCountItemModelFromDomain(item *inventory.InventoryCountItem) InventoryCountItemModel {
	return InventoryCountItemModel{
		BaseModel: BaseModel{
			ID:        item.ID,
			CreatedAt: item.CreatedAt,
			UpdatedAt: item.UpdatedAt,
		},
		CountID:          item.CountID,
		ProductID:        item.ProductID,
		ProductName:      item.ProductName,
		ProductCode:      item.ProductCode,
		Unit:             item.Unit,
		ExpectedQuantity: item.ExpectedQuantity,
		ActualQuantity:   ptrToNull(item.ActualQuantity.Ptr()),
		UnitCost:         item.UnitCost,
		MinimumQuantity:  ptrToNull(item.MinimumQuantity),
		MaximumQuantity:  ptrToNull(item.MaximumQuantity),
		CountedBy:        item.CountedBy,
		CountedAt:        item.CountedAt,
		Notes:            item.Notes,
	}
}

func nullToPtr(n decimal.NullDecimal) *decimal.Decimal {
	if !n.Valid {
		return nil
	}
	v := n.Decimal
	return &v
}

func ptrToNull(p *decimal.Decimal) decimal.NullDecimal {
	if p == nil {
		return decimal.NullDecimal{}
	}
	return decimal.NewNullDecimal(*p)
}
