package persistence

import (
	"context"
	"fmt"
	"strings"

	"github.com/erp/stockcount/internal/domain/inventory"
	"github.com/erp/stockcount/internal/infrastructure/persistence/models"
	"github.com/google/uuid"
	"gorm.io/gorm"
)

var templateSortFields = map[string]bool{
	"name":       true,
	"created_at": true,
	"updated_at": true,
}

// GormCountTemplateRepository implements CountTemplateRepository using GORM
type GormCountTemplateRepository struct {
	db *gorm.DB
}

func NewGormCountTemplateRepository(db *gorm.DB) *GormCountTemplateRepository {
	return &GormCountTemplateRepository{db: db}
}

func (r *GormCountTemplateRepository) FindByIDForTenant(ctx context.Context, tenantID, id uuid.UUID) (*inventory.CountTemplate, error) {
	var model models.CountTemplateModel
	if err := r.db.WithContext(ctx).
		Preload("Items", func(db *gorm.DB) *gorm.DB { return db.Order("product_name ASC") }).
		Where("tenant_id = ? AND id = ?", tenantID, id).
		First(&model).Error; err != nil {
		return nil, notFound(err)
	}
	return model.ToDomain(), nil
}

func (r *GormCountTemplateRepository) FindAllForTenant(ctx context.Context, tenantID uuid.UUID, filter inventory.TemplateFilter) ([]inventory.CountTemplate, error) {
	query := r.applyFilter(r.db.WithContext(ctx).Model(&models.CountTemplateModel{}), tenantID, filter).
		Preload("Items").
		Order(fmt.Sprintf("%s %s",
			ValidateSortField(filter.OrderBy, templateSortFields, "name"),
			ValidateSortOrder(filter.OrderDir)))
	if filter.PageSize > 0 {
		query = query.Offset(filter.Offset()).Limit(filter.PageSize)
	}

	var rows []models.CountTemplateModel
	if err := query.Find(&rows).Error; err != nil {
		return nil, err
	}
	templates := make([]inventory.CountTemplate, len(rows))
	for i := range rows {
		templates[i] = *rows[i].ToDomain()
	}
	return templates, nil
}

func (r *GormCountTemplateRepository) CountForTenant(ctx context.Context, tenantID uuid.UUID, filter inventory.TemplateFilter) (int64, error) {
	var total int64
	err := r.applyFilter(r.db.WithContext(ctx).Model(&models.CountTemplateModel{}), tenantID, filter).
		Count(&total).Error
	return total, err
}

func (r *GormCountTemplateRepository) Save(ctx context.Context, t *inventory.CountTemplate) error {
	model := models.CountTemplateModelFromDomain(t)
	err := r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := saveVersioned(tx, model, t.PersistedVersion()); err != nil {
			return err
		}
		ids := make([]uuid.UUID, len(model.Items))
		for i, item := range model.Items {
			ids[i] = item.ID
		}
		removed := tx.Where("template_id = ?", t.ID)
		if len(ids) > 0 {
			removed = removed.Where("id NOT IN ?", ids)
		}
		if err := removed.Delete(&models.CountTemplateItemModel{}).Error; err != nil {
			return fmt.Errorf("delete removed template items: %w", err)
		}
		return upsertByID(tx, model.Items)
	})
	if err != nil {
		return err
	}
	t.MarkPersisted()
	return nil
}

func (r *GormCountTemplateRepository) applyFilter(query *gorm.DB, tenantID uuid.UUID, filter inventory.TemplateFilter) *gorm.DB {
	query = query.Where("tenant_id = ?", tenantID)
	if filter.WarehouseID != nil {
		query = query.Where("warehouse_id = ?", *filter.WarehouseID)
	}
	if filter.ActiveOnly {
		query = query.Where("is_active = ?", true)
	}
	if filter.Search != "" {
		query = query.Where("LOWER(name) LIKE ?", "%"+strings.ToLower(filter.Search)+"%")
	}
	return query
}

var _ inventory.CountTemplateRepository = (*GormCountTemplateRepository)(nil)
