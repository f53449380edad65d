package inventory

import (
	"context"
	"errors"

	"github.com/erp/stockcount/internal/domain/inventory"
	"github.com/erp/stockcount/internal/domain/shared"
	"github.com/google/uuid"
)

// StockLevelService maintains the warehouse stock that counts snapshot and
// approvals overwrite.
type StockLevelService struct {
	stockRepo inventory.StockLevelRepository
}

// NewStockLevelService creates a new StockLevelService
func NewStockLevelService(stockRepo inventory.StockLevelRepository) *StockLevelService {
	return &StockLevelService{stockRepo: stockRepo}
}

// ListByWarehouse lists the stock levels of a warehouse
func (s *StockLevelService) ListByWarehouse(ctx context.Context, tenantID, warehouseID uuid.UUID, activeOnly bool) ([]StockLevelResponse, error) {
	levels, err := s.stockRepo.FindByWarehouse(ctx, tenantID, warehouseID, activeOnly)
	if err != nil {
		return nil, err
	}
	out := make([]StockLevelResponse, len(levels))
	for i := range levels {
		out[i] = ToStockLevelResponse(&levels[i])
	}
	return out, nil
}

// Upsert creates or overwrites the stock level of a product. This is the
// receiving side of goods movements outside counting.
func (s *StockLevelService) Upsert(ctx context.Context, tenantID uuid.UUID, req UpsertStockLevelRequest) (*StockLevelResponse, error) {
	level, err := s.stockRepo.FindByWarehouseAndProduct(ctx, tenantID, req.WarehouseID, req.ProductID)
	switch {
	case errors.Is(err, shared.ErrNotFound):
		level, err = inventory.NewStockLevel(tenantID, req.WarehouseID, req.ProductID, req.ProductName, req.Quantity, req.UnitCost)
		if err != nil {
			return nil, err
		}
	case err != nil:
		return nil, err
	default:
		if _, err := level.AdjustTo(req.Quantity); err != nil {
			return nil, err
		}
		level.ProductName = req.ProductName
		level.UnitCost = req.UnitCost
	}
	level.ProductCode = req.ProductCode
	level.Unit = req.Unit
	if req.IsActive != nil {
		level.SetActive(*req.IsActive)
	}

	if err := s.stockRepo.Save(ctx, level); err != nil {
		return nil, err
	}
	response := ToStockLevelResponse(level)
	return &response, nil
}
