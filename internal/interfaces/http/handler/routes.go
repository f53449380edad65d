package handler

import (
	"github.com/erp/stockcount/internal/interfaces/http/router"
	"github.com/gin-gonic/gin"
)

// InventoryHandlers groups the handlers mounted under /inventory
type InventoryHandlers struct {
	Counts      *CountHandler
	Templates   *CountTemplateHandler
	Approvals   *ApprovalHandler
	StockLevels *StockLevelHandler
}

// Routes builds the inventory route group. requireApprover guards the
// decision endpoint only; reviewing is open to any authenticated user.
func (h InventoryHandlers) Routes(requireApprover gin.HandlerFunc) *router.DomainGroup {
	g := router.NewDomainGroup("inventory", "/inventory")

	g.GET("/stock-levels", h.StockLevels.ListByWarehouse)
	g.PUT("/stock-levels", h.StockLevels.Upsert)

	g.POST("/count-templates", h.Templates.Create)
	g.GET("/count-templates", h.Templates.List)
	g.GET("/count-templates/:id", h.Templates.GetByID)
	g.POST("/count-templates/:id/items", h.Templates.AddItem)
	g.DELETE("/count-templates/:id/items/:item_id", h.Templates.RemoveItem)
	g.POST("/count-templates/:id/deactivate", h.Templates.Deactivate)

	g.POST("/counts", h.Counts.Create)
	g.GET("/counts", h.Counts.List)
	g.GET("/counts/by-number/:count_number", h.Counts.GetByCountNumber)
	g.GET("/counts/:id", h.Counts.GetByID)
	g.GET("/counts/:id/progress", h.Counts.GetProgress)
	g.GET("/counts/:id/variances", h.Counts.GetVariances)
	g.POST("/counts/:id/initialize", h.Counts.InitializeItems)
	g.POST("/counts/:id/repair-expected", h.Counts.RepairExpectedQuantities)
	g.POST("/counts/:id/start", h.Counts.StartCounting)
	g.PUT("/counts/:id/items", h.Counts.BulkRecordCounts)
	g.PUT("/counts/:id/items/:item_id", h.Counts.RecordItemCount)
	g.POST("/counts/:id/import", h.Counts.ImportSheet)
	g.POST("/counts/:id/submit", h.Counts.Submit)
	g.POST("/counts/:id/cancel", h.Counts.Cancel)
	g.GET("/counts/:id/variance-report", h.Counts.VarianceReport)
	g.GET("/counts/:id/sheet", h.Counts.CountSheet)
	g.GET("/counts/:id/archive", h.Counts.ArchiveLink)

	g.GET("/counts/:id/review", h.Approvals.GetReview)
	g.GET("/counts/:id/history", h.Approvals.GetHistory)
	g.POST("/counts/:id/decision", requireApprover, h.Approvals.Decide)

	return g
}
