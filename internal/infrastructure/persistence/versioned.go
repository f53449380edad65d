package persistence

import (
	"errors"

	"github.com/erp/stockcount/internal/domain/shared"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

// saveVersioned inserts a never-saved aggregate, or updates it only while the
// stored version still equals persisted. A lost race surfaces as
// shared.ErrConcurrencyConflict.
func saveVersioned(tx *gorm.DB, model any, persisted int) error {
	if persisted == 0 {
		return tx.Omit(clause.Associations).Create(model).Error
	}

	result := tx.Model(model).
		Where("version = ?", persisted).
		Select("*").
		Omit("id", "tenant_id", "created_at", clause.Associations).
		Updates(model)
	if result.Error != nil {
		return result.Error
	}
	if result.RowsAffected == 0 {
		return shared.ErrConcurrencyConflict
	}
	return nil
}

// notFound maps gorm's missing-row error onto the domain sentinel.
func notFound(err error) error {
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return shared.ErrNotFound
	}
	return err
}

// upsertByID writes child rows in one statement, updating rows that already exist.
func upsertByID[T any](tx *gorm.DB, rows []T) error {
	if len(rows) == 0 {
		return nil
	}
	return tx.Clauses(clause.OnConflict{
		Columns:   []clause.Column{{Name: "id"}},
		UpdateAll: true,
	}).Create(&rows).Error
}
