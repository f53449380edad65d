package persistence

import (
	"context"

	"github.com/erp/stockcount/internal/domain/inventory"
	"github.com/erp/stockcount/internal/infrastructure/persistence/models"
	"github.com/google/uuid"
	"gorm.io/gorm"
)

// GormStockLevelRepository implements StockLevelRepository using GORM
type GormStockLevelRepository struct {
	db *gorm.DB
}

func NewGormStockLevelRepository(db *gorm.DB) *GormStockLevelRepository {
	return &GormStockLevelRepository{db: db}
}

func (r *GormStockLevelRepository) FindByWarehouse(ctx context.Context, tenantID, warehouseID uuid.UUID, activeOnly bool) ([]inventory.StockLevel, error) {
	query := r.db.WithContext(ctx).
		Where("tenant_id = ? AND warehouse_id = ?", tenantID, warehouseID)
	if activeOnly {
		query = query.Where("is_active = ?", true)
	}
	return r.find(query.Order("product_name ASC"))
}

// FindByWarehouseAndProducts returns the levels that exist; missing products
// are simply absent from the result.
func (r *GormStockLevelRepository) FindByWarehouseAndProducts(ctx context.Context, tenantID, warehouseID uuid.UUID, productIDs []uuid.UUID) ([]inventory.StockLevel, error) {
	if len(productIDs) == 0 {
		return []inventory.StockLevel{}, nil
	}
	return r.find(r.db.WithContext(ctx).
		Where("tenant_id = ? AND warehouse_id = ? AND product_id IN ?", tenantID, warehouseID, productIDs))
}

func (r *GormStockLevelRepository) FindByWarehouseAndProduct(ctx context.Context, tenantID, warehouseID, productID uuid.UUID) (*inventory.StockLevel, error) {
	var model models.StockLevelModel
	if err := r.db.WithContext(ctx).
		Where("tenant_id = ? AND warehouse_id = ? AND product_id = ?", tenantID, warehouseID, productID).
		First(&model).Error; err != nil {
		return nil, notFound(err)
	}
	return model.ToDomain(), nil
}

func (r *GormStockLevelRepository) Save(ctx context.Context, level *inventory.StockLevel) error {
	if err := saveVersioned(r.db.WithContext(ctx), models.StockLevelModelFromDomain(level), level.PersistedVersion()); err != nil {
		return err
	}
	level.MarkPersisted()
	return nil
}

func (r *GormStockLevelRepository) find(query *gorm.DB) ([]inventory.StockLevel, error) {
	var rows []models.StockLevelModel
	if err := query.Find(&rows).Error; err != nil {
		return nil, err
	}
	levels := make([]inventory.StockLevel, len(rows))
	for i := range rows {
		levels[i] = *rows[i].ToDomain()
	}
	return levels, nil
}

var _ inventory.StockLevelRepository = (*GormStockLevelRepository)(nil)
