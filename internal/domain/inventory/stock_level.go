package inventory

import (
	"time"

	"github.com/erp/stockcount/internal/domain/shared"
	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

// StockLevel is the on-hand quantity of one product in one warehouse.
type StockLevel struct {
	shared.TenantAggregateRoot
	WarehouseID uuid.UUID
	ProductID   uuid.UUID
	ProductName string
	ProductCode string
	Unit        string
	Quantity    decimal.Decimal
	UnitCost    decimal.Decimal
	IsActive    bool
}

// NewStockLevel creates an active stock level.
func NewStockLevel(tenantID, warehouseID, productID uuid.UUID, productName string, quantity, unitCost decimal.Decimal) (*StockLevel, error) {
	if warehouseID == uuid.Nil {
		return nil, shared.NewDomainError("INVALID_WAREHOUSE", "Warehouse ID cannot be empty")
	}
	if productID == uuid.Nil {
		return nil, shared.NewDomainError("INVALID_PRODUCT", "Product ID cannot be empty")
	}
	if quantity.IsNegative() {
		return nil, shared.NewDomainError("INVALID_QUANTITY", "Quantity cannot be negative")
	}
	if unitCost.IsNegative() {
		return nil, shared.NewDomainError("INVALID_COST", "Unit cost cannot be negative")
	}
	return &StockLevel{
		TenantAggregateRoot: shared.NewTenantAggregateRoot(tenantID),
		WarehouseID:         warehouseID,
		ProductID:           productID,
		ProductName:         productName,
		Quantity:            quantity,
		UnitCost:            unitCost,
		IsActive:            true,
	}, nil
}

// AdjustTo sets the on-hand quantity to a counted value and returns the
// previous quantity.
func (s *StockLevel) AdjustTo(quantity decimal.Decimal) (decimal.Decimal, error) {
	if quantity.IsNegative() {
		return decimal.Zero, shared.NewDomainError("INVALID_QUANTITY", "Quantity cannot be negative")
	}
	before := s.Quantity
	s.Quantity = quantity
	s.IncrementVersion()
	return before, nil
}

// SetActive toggles whether the product is included in full-warehouse counts.
func (s *StockLevel) SetActive(active bool) {
	if s.IsActive == active {
		return
	}
	s.IsActive = active
	s.IncrementVersion()
}

// AdjustmentReasonCount marks adjustments written by an approved count.
const AdjustmentReasonCount = "INVENTORY_COUNT"

// InventoryAdjustment is the audit row for one stock change made by an
// approved count. It is written once and never updated.
type InventoryAdjustment struct {
	ID               uuid.UUID
	TenantID         uuid.UUID
	CountID          uuid.UUID
	CountItemID      uuid.UUID
	StockLevelID     uuid.UUID
	WarehouseID      uuid.UUID
	ProductID        uuid.UUID
	QuantityBefore   decimal.Decimal
	QuantityAfter    decimal.Decimal
	Difference       decimal.Decimal
	UnitCost         decimal.Decimal
	DifferenceAmount decimal.Decimal
	Reason           string
	CreatedBy        uuid.UUID
	CreatedAt        time.Time
}

// NewCountAdjustment builds the adjustment for a counted line.
func NewCountAdjustment(ic *InventoryCount, item *InventoryCountItem, level *StockLevel, before decimal.Decimal, actor uuid.UUID) InventoryAdjustment {
	after := item.ActualQuantity.OrZero()
	diff := after.Sub(before)
	return InventoryAdjustment{
		ID:               uuid.New(),
		TenantID:         ic.TenantID,
		CountID:          ic.ID,
		CountItemID:      item.ID,
		StockLevelID:     level.ID,
		WarehouseID:      ic.WarehouseID,
		ProductID:        item.ProductID,
		QuantityBefore:   before,
		QuantityAfter:    after,
		Difference:       diff,
		UnitCost:         level.UnitCost,
		DifferenceAmount: diff.Mul(level.UnitCost),
		Reason:           AdjustmentReasonCount,
		CreatedBy:        actor,
		CreatedAt:        time.Now(),
	}
}

// AuditAction names a recorded decision.
type AuditAction string

const (
	AuditActionApproved AuditAction = "APPROVED"
	AuditActionRejected AuditAction = "REJECTED"
)

// CountAuditEntry records who decided a count, when, and on which version.
type CountAuditEntry struct {
	ID            uuid.UUID
	TenantID      uuid.UUID
	CountID       uuid.UUID
	Action        AuditAction
	ActorID       uuid.UUID
	ActorName     string
	Notes         string
	CountVersion  int
	VarianceCount int
	Adjustments   int
	CreatedAt     time.Time
}

// NewCountAuditEntry builds the audit entry for a decided count.
func NewCountAuditEntry(ic *InventoryCount, action AuditAction, adjustments int) CountAuditEntry {
	var actor uuid.UUID
	if ic.DecidedBy != nil {
		actor = *ic.DecidedBy
	}
	return CountAuditEntry{
		ID:            uuid.New(),
		TenantID:      ic.TenantID,
		CountID:       ic.ID,
		Action:        action,
		ActorID:       actor,
		ActorName:     ic.DecidedByName,
		Notes:         ic.DecisionNotes,
		CountVersion:  ic.Version,
		VarianceCount: ic.VarianceCount,
		Adjustments:   adjustments,
		CreatedAt:     time.Now(),
	}
}
