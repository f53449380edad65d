package inventory

import (
	"context"
	"time"

	"github.com/erp/stockcount/internal/domain/shared"
	"github.com/google/uuid"
)

// InventoryCountRepository persists counts with their lines.
type InventoryCountRepository interface {
	// FindByIDForTenant loads a count and its lines.
	FindByIDForTenant(ctx context.Context, tenantID, id uuid.UUID) (*InventoryCount, error)

	// FindByCountNumber finds a count by its number within a tenant
	FindByCountNumber(ctx context.Context, tenantID uuid.UUID, countNumber string) (*InventoryCount, error)

	// FindAllForTenant lists counts without their lines.
	FindAllForTenant(ctx context.Context, tenantID uuid.UUID, filter CountFilter) ([]InventoryCount, error)

	// CountForTenant counts the counts matching the filter
	CountForTenant(ctx context.Context, tenantID uuid.UUID, filter CountFilter) (int64, error)

	// Save inserts or updates a count and replaces its lines. Updates are
	// optimistic: the row is only written when the stored version is the
	// one the aggregate was loaded with.
	Save(ctx context.Context, count *InventoryCount) error

	// GenerateCountNumber returns the next IC-YYYYMMDD-XXXX number.
	GenerateCountNumber(ctx context.Context, tenantID uuid.UUID) (string, error)
}

// CountFilter narrows count listings.
type CountFilter struct {
	shared.Filter
	WarehouseID *uuid.UUID
	Status      *CountStatus
	StartDate   *time.Time
	EndDate     *time.Time
}

// CountTemplateRepository persists count templates with their lines.
type CountTemplateRepository interface {
	FindByIDForTenant(ctx context.Context, tenantID, id uuid.UUID) (*CountTemplate, error)
	FindAllForTenant(ctx context.Context, tenantID uuid.UUID, filter TemplateFilter) ([]CountTemplate, error)
	CountForTenant(ctx context.Context, tenantID uuid.UUID, filter TemplateFilter) (int64, error)
	Save(ctx context.Context, template *CountTemplate) error
}

// TemplateFilter narrows template listings.
type TemplateFilter struct {
	shared.Filter
	WarehouseID *uuid.UUID
	ActiveOnly  bool
}

// StockLevelRepository persists warehouse stock levels.
type StockLevelRepository interface {
	FindByWarehouse(ctx context.Context, tenantID, warehouseID uuid.UUID, activeOnly bool) ([]StockLevel, error)
	FindByWarehouseAndProducts(ctx context.Context, tenantID, warehouseID uuid.UUID, productIDs []uuid.UUID) ([]StockLevel, error)
	FindByWarehouseAndProduct(ctx context.Context, tenantID, warehouseID, productID uuid.UUID) (*StockLevel, error)
	// Save writes with the same optimistic version check as counts.
	Save(ctx context.Context, level *StockLevel) error
}

// AdjustmentRepository appends stock adjustments and decision audit entries.
type AdjustmentRepository interface {
	CreateAdjustments(ctx context.Context, adjustments []InventoryAdjustment) error
	CreateAuditEntry(ctx context.Context, entry *CountAuditEntry) error
	FindAdjustmentsByCount(ctx context.Context, tenantID, countID uuid.UUID) ([]InventoryAdjustment, error)
	FindAuditEntriesByCount(ctx context.Context, tenantID, countID uuid.UUID) ([]CountAuditEntry, error)
}

// StockLevelsByProduct indexes stock levels by product.
func StockLevelsByProduct(levels []StockLevel) map[uuid.UUID]StockLevel {
	out := make(map[uuid.UUID]StockLevel, len(levels))
	for _, l := range levels {
		out[l.ProductID] = l
	}
	return out
}
