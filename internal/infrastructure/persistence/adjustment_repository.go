package persistence

import (
	"context"

	"github.com/erp/stockcount/internal/domain/inventory"
	"github.com/erp/stockcount/internal/infrastructure/persistence/models"
	"github.com/google/uuid"
	"gorm.io/gorm"
)

// GormAdjustmentRepository appends adjustment and decision audit rows.
// Neither table is ever updated or deleted from.
type GormAdjustmentRepository struct {
	db *gorm.DB
}

func NewGormAdjustmentRepository(db *gorm.DB) *GormAdjustmentRepository {
	return &GormAdjustmentRepository{db: db}
}

func (r *GormAdjustmentRepository) CreateAdjustments(ctx context.Context, adjustments []inventory.InventoryAdjustment) error {
	if len(adjustments) == 0 {
		return nil
	}
	rows := make([]models.InventoryAdjustmentModel, len(adjustments))
	for i := range adjustments {
		rows[i] = models.InventoryAdjustmentModelFromDomain(&adjustments[i])
	}
	return r.db.WithContext(ctx).CreateInBatches(rows, 100).Error
}

func (r *GormAdjustmentRepository) CreateAuditEntry(ctx context.Context, entry *inventory.CountAuditEntry) error {
	return r.db.WithContext(ctx).Create(models.CountAuditEntryModelFromDomain(entry)).Error
}

func (r *GormAdjustmentRepository) FindAdjustmentsByCount(ctx context.Context, tenantID, countID uuid.UUID) ([]inventory.InventoryAdjustment, error) {
	var rows []models.InventoryAdjustmentModel
	if err := r.db.WithContext(ctx).
		Where("tenant_id = ? AND count_id = ?", tenantID, countID).
		Order("created_at ASC, id ASC").
		Find(&rows).Error; err != nil {
		return nil, err
	}
	out := make([]inventory.InventoryAdjustment, len(rows))
	for i := range rows {
		out[i] = rows[i].ToDomain()
	}
	return out, nil
}

func (r *GormAdjustmentRepository) FindAuditEntriesByCount(ctx context.Context, tenantID, countID uuid.UUID) ([]inventory.CountAuditEntry, error) {
	var rows []models.CountAuditEntryModel
	if err := r.db.WithContext(ctx).
		Where("tenant_id = ? AND count_id = ?", tenantID, countID).
		Order("created_at ASC").
		Find(&rows).Error; err != nil {
		return nil, err
	}
	out := make([]inventory.CountAuditEntry, len(rows))
	for i := range rows {
		out[i] = rows[i].ToDomain()
	}
	return out, nil
}

var _ inventory.AdjustmentRepository = (*GormAdjustmentRepository)(nil)
