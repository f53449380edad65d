package handler

import (
	inventoryapp "github.com/erp/stockcount/internal/application/inventory"
	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
)

// StockLevelHandler exposes the warehouse stock that counts snapshot and
// approvals adjust
type StockLevelHandler struct {
	BaseHandler
	stock *inventoryapp.StockLevelService
}

// NewStockLevelHandler creates a new StockLevelHandler
func NewStockLevelHandler(stock *inventoryapp.StockLevelService) *StockLevelHandler {
	return &StockLevelHandler{stock: stock}
}

// ListByWarehouse godoc
// @Summary      List warehouse stock
// @Tags         stock-level
// @Produce      json
// @Param        warehouse_id query string true "Warehouse ID" format(uuid)
// @Param        active_only query bool false "Only active products"
// @Success      200 {object} dto.Response{data=[]inventoryapp.StockLevelResponse}
// @Failure      400 {object} dto.Response{error=dto.ErrorInfo}
// @Security     BearerAuth
// @Router       /inventory/stock-levels [get]
func (h *StockLevelHandler) ListByWarehouse(c *gin.Context) {
	tenantID, err := getTenantID(c)
	if err != nil {
		h.Unauthorized(c, "Invalid tenant")
		return
	}
	warehouseID, err := uuid.Parse(c.Query("warehouse_id"))
	if err != nil {
		h.BadRequest(c, "warehouse_id is required and must be a UUID")
		return
	}

	result, err := h.stock.ListByWarehouse(c.Request.Context(), tenantID, warehouseID, c.Query("active_only") == "true")
	if err != nil {
		h.HandleError(c, err)
		return
	}
	h.Success(c, result)
}

// Upsert godoc
// @Summary      Set a stock level
// @Description  Create or replace the on-hand quantity of a product in a warehouse
// @Tags         stock-level
// @Accept       json
// @Produce      json
// @Param        request body inventoryapp.UpsertStockLevelRequest true "Stock level"
// @Success      200 {object} dto.Response{data=inventoryapp.StockLevelResponse}
// @Failure      400 {object} dto.Response{error=dto.ErrorInfo}
// @Security     BearerAuth
// @Router       /inventory/stock-levels [put]
func (h *StockLevelHandler) Upsert(c *gin.Context) {
	tenantID, err := getTenantID(c)
	if err != nil {
		h.Unauthorized(c, "Invalid tenant")
		return
	}

	var req inventoryapp.UpsertStockLevelRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		h.BindError(c, err)
		return
	}

	result, err := h.stock.Upsert(c.Request.Context(), tenantID, req)
	if err != nil {
		h.HandleError(c, err)
		return
	}
	h.Success(c, result)
}
