package persistence

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/erp/stockcount/internal/domain/inventory"
	"github.com/erp/stockcount/internal/infrastructure/persistence/models"
	"github.com/google/uuid"
	"gorm.io/gorm"
)

var countSortFields = map[string]bool{
	"count_number":      true,
	"count_date":        true,
	"status":            true,
	"created_at":        true,
	"updated_at":        true,
	"total_items_count": true,
	"variance_count":    true,
}

// GormInventoryCountRepository implements InventoryCountRepository using GORM
type GormInventoryCountRepository struct {
	db *gorm.DB
}

// NewGormInventoryCountRepository creates a new GormInventoryCountRepository
func NewGormInventoryCountRepository(db *gorm.DB) *GormInventoryCountRepository {
	return &GormInventoryCountRepository{db: db}
}

func (r *GormInventoryCountRepository) FindByIDForTenant(ctx context.Context, tenantID, id uuid.UUID) (*inventory.InventoryCount, error) {
	var model models.InventoryCountModel
	if err := r.db.WithContext(ctx).
		Preload("Items", func(db *gorm.DB) *gorm.DB { return db.Order("product_name ASC, id ASC") }).
		Where("tenant_id = ? AND id = ?", tenantID, id).
		First(&model).Error; err != nil {
		return nil, notFound(err)
	}
	return model.ToDomain(), nil
}

func (r *GormInventoryCountRepository) FindByCountNumber(ctx context.Context, tenantID uuid.UUID, countNumber string) (*inventory.InventoryCount, error) {
	var model models.InventoryCountModel
	if err := r.db.WithContext(ctx).
		Preload("Items", func(db *gorm.DB) *gorm.DB { return db.Order("product_name ASC, id ASC") }).
		Where("tenant_id = ? AND count_number = ?", tenantID, countNumber).
		First(&model).Error; err != nil {
		return nil, notFound(err)
	}
	return model.ToDomain(), nil
}

// FindAllForTenant lists counts without their lines.
func (r *GormInventoryCountRepository) FindAllForTenant(ctx context.Context, tenantID uuid.UUID, filter inventory.CountFilter) ([]inventory.InventoryCount, error) {
	query := r.applyFilter(r.db.WithContext(ctx).Model(&models.InventoryCountModel{}), tenantID, filter)
	query = query.Order(fmt.Sprintf("%s %s",
		ValidateSortField(filter.OrderBy, countSortFields, "created_at"),
		ValidateSortOrder(filter.OrderDir)))
	if filter.PageSize > 0 {
		query = query.Offset(filter.Offset()).Limit(filter.PageSize)
	}

	var rows []models.InventoryCountModel
	if err := query.Find(&rows).Error; err != nil {
		return nil, err
	}
	counts := make([]inventory.InventoryCount, len(rows))
	for i := range rows {
		counts[i] = *rows[i].ToDomain()
	}
	return counts, nil
}

func (r *GormInventoryCountRepository) CountForTenant(ctx context.Context, tenantID uuid.UUID, filter inventory.CountFilter) (int64, error) {
	var total int64
	err := r.applyFilter(r.db.WithContext(ctx).Model(&models.InventoryCountModel{}), tenantID, filter).
		Count(&total).Error
	return total, err
}

// Save writes the header under the version check, then upserts the lines and
// drops lines the aggregate no longer has.
func (r *GormInventoryCountRepository) Save(ctx context.Context, ic *inventory.InventoryCount) error {
	model := models.InventoryCountModelFromDomain(ic)
	err := r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := saveVersioned(tx, model, ic.PersistedVersion()); err != nil {
			return err
		}

		keep := make([]uuid.UUID, len(model.Items))
		for i, item := range model.Items {
			keep[i] = item.ID
		}
		stale := tx.Where("count_id = ?", ic.ID)
		if len(keep) > 0 {
			stale = stale.Where("id NOT IN ?", keep)
		}
		if err := stale.Delete(&models.InventoryCountItemModel{}).Error; err != nil {
			return fmt.Errorf("delete removed count items: %w", err)
		}
		return upsertByID(tx, model.Items)
	})
	if err != nil {
		return err
	}
	ic.MarkPersisted()
	return nil
}

// GenerateCountNumber returns IC-YYYYMMDD-XXXX, one past today's highest number.
func (r *GormInventoryCountRepository) GenerateCountNumber(ctx context.Context, tenantID uuid.UUID) (string, error) {
	prefix := fmt.Sprintf("IC-%s-", time.Now().Format("20060102"))

	var last []string
	err := r.db.WithContext(ctx).Model(&models.InventoryCountModel{}).
		Where("tenant_id = ? AND count_number LIKE ?", tenantID, prefix+"%").
		Order("count_number DESC").
		Limit(1).
		Pluck("count_number", &last).Error
	if err != nil && !errors.Is(err, gorm.ErrRecordNotFound) {
		return "", err
	}

	seq := 1
	if len(last) > 0 {
		var n int
		if _, err := fmt.Sscanf(strings.TrimPrefix(last[0], prefix), "%d", &n); err == nil {
			seq = n + 1
		}
	}
	return fmt.Sprintf("%s%04d", prefix, seq), nil
}

func (r *GormInventoryCountRepository) applyFilter(query *gorm.DB, tenantID uuid.UUID, filter inventory.CountFilter) *gorm.DB {
	query = query.Where("tenant_id = ?", tenantID)
	if filter.WarehouseID != nil {
		query = query.Where("warehouse_id = ?", *filter.WarehouseID)
	}
	if filter.Status != nil {
		query = query.Where("status = ?", *filter.Status)
	}
	if filter.StartDate != nil {
		query = query.Where("count_date >= ?", *filter.StartDate)
	}
	if filter.EndDate != nil {
		query = query.Where("count_date <= ?", *filter.EndDate)
	}
	if filter.Search != "" {
		pattern := "%" + strings.ToLower(filter.Search) + "%"
		query = query.Where("LOWER(count_number) LIKE ? OR LOWER(warehouse_name) LIKE ? OR LOWER(conducted_by_name) LIKE ?",
			pattern, pattern, pattern)
	}
	return query
}

var _ inventory.InventoryCountRepository = (*GormInventoryCountRepository)(nil)
