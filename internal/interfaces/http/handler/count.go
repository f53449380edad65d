package handler

import (
	"net/http"
	"time"

	inventoryapp "github.com/erp/stockcount/internal/application/inventory"
	"github.com/erp/stockcount/internal/domain/inventory"
	"github.com/erp/stockcount/internal/interfaces/http/dto"
	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
)

// maxCountSheetSize caps uploaded count sheets
const maxCountSheetSize = 10 << 20

// CountHandler handles the inventory count lifecycle endpoints
type CountHandler struct {
	BaseHandler
	counts *inventoryapp.CountService
	docs   *inventoryapp.CountDocumentService
}

// NewCountHandler creates a new CountHandler
func NewCountHandler(counts *inventoryapp.CountService, docs *inventoryapp.CountDocumentService) *CountHandler {
	return &CountHandler{
		counts: counts,
		docs:   docs,
	}
}

// countListQuery is the raw query of the count listing
type countListQuery struct {
	Search      string `form:"search"`
	WarehouseID string `form:"warehouse_id"`
	Status      string `form:"status"`
	StartDate   string `form:"start_date"`
	EndDate     string `form:"end_date"`
	Page        int    `form:"page" binding:"omitempty,min=1"`
	PageSize    int    `form:"page_size" binding:"omitempty,min=1,max=100"`
	OrderBy     string `form:"order_by"`
	OrderDir    string `form:"order_dir" binding:"omitempty,oneof=asc desc"`
}

func (q countListQuery) filter() (inventoryapp.CountListFilter, string) {
	filter := inventoryapp.CountListFilter{
		Search:   q.Search,
		Page:     q.Page,
		PageSize: q.PageSize,
		OrderBy:  q.OrderBy,
		OrderDir: q.OrderDir,
	}
	if q.WarehouseID != "" {
		id, err := uuid.Parse(q.WarehouseID)
		if err != nil {
			return filter, "Invalid warehouse ID format"
		}
		filter.WarehouseID = &id
	}
	if q.Status != "" {
		status := inventory.CountStatus(q.Status)
		if !status.IsValid() {
			return filter, "Invalid status value"
		}
		filter.Status = &status
	}
	if q.StartDate != "" {
		d, err := time.Parse(time.DateOnly, q.StartDate)
		if err != nil {
			return filter, "Invalid start_date, expected YYYY-MM-DD"
		}
		filter.StartDate = &d
	}
	if q.EndDate != "" {
		d, err := time.Parse(time.DateOnly, q.EndDate)
		if err != nil {
			return filter, "Invalid end_date, expected YYYY-MM-DD"
		}
		filter.EndDate = &d
	}
	return filter, ""
}

// ===================== Query Handlers =====================

// GetByID godoc
// @Summary      Get count by ID
// @Description  Retrieve an inventory count with all of its lines
// @Tags         inventory-count
// @Produce      json
// @Param        id path string true "Count ID" format(uuid)
// @Success      200 {object} dto.Response{data=inventoryapp.CountResponse}
// @Failure      400 {object} dto.Response{error=dto.ErrorInfo}
// @Failure      401 {object} dto.Response{error=dto.ErrorInfo}
// @Failure      404 {object} dto.Response{error=dto.ErrorInfo}
// @Security     BearerAuth
// @Router       /inventory/counts/{id} [get]
func (h *CountHandler) GetByID(c *gin.Context) {
	tenantID, id, ok := h.scope(c, "id", "count")
	if !ok {
		return
	}

	result, err := h.counts.GetByID(c.Request.Context(), tenantID, id)
	if err != nil {
		h.HandleError(c, err)
		return
	}
	h.Success(c, result)
}

// GetByCountNumber godoc
// @Summary      Get count by number
// @Tags         inventory-count
// @Produce      json
// @Param        count_number path string true "Count number" example(IC-20240115-0001)
// @Success      200 {object} dto.Response{data=inventoryapp.CountResponse}
// @Failure      401 {object} dto.Response{error=dto.ErrorInfo}
// @Failure      404 {object} dto.Response{error=dto.ErrorInfo}
// @Security     BearerAuth
// @Router       /inventory/counts/by-number/{count_number} [get]
func (h *CountHandler) GetByCountNumber(c *gin.Context) {
	tenantID, err := getTenantID(c)
	if err != nil {
		h.Unauthorized(c, "Invalid tenant")
		return
	}

	result, err := h.counts.GetByCountNumber(c.Request.Context(), tenantID, c.Param("count_number"))
	if err != nil {
		h.HandleError(c, err)
		return
	}
	h.Success(c, result)
}

// List godoc
// @Summary      List counts
// @Description  Retrieve a paginated list of inventory counts
// @Tags         inventory-count
// @Produce      json
// @Param        search query string false "Search by count or warehouse name"
// @Param        warehouse_id query string false "Filter by warehouse ID" format(uuid)
// @Param        status query string false "Filter by status" Enums(DRAFT, IN_PROGRESS, PENDING_APPROVAL, APPROVED, REJECTED, CANCELLED)
// @Param        start_date query string false "Counted on or after" format(date)
// @Param        end_date query string false "Counted on or before" format(date)
// @Param        page query int false "Page number" default(1)
// @Param        page_size query int false "Page size" default(20) maximum(100)
// @Param        order_by query string false "Order by field" default(created_at)
// @Param        order_dir query string false "Order direction" Enums(asc, desc) default(desc)
// @Success      200 {object} dto.Response{data=[]inventoryapp.CountListResponse,meta=dto.Meta}
// @Failure      400 {object} dto.Response{error=dto.ErrorInfo}
// @Failure      401 {object} dto.Response{error=dto.ErrorInfo}
// @Security     BearerAuth
// @Router       /inventory/counts [get]
func (h *CountHandler) List(c *gin.Context) {
	tenantID, err := getTenantID(c)
	if err != nil {
		h.Unauthorized(c, "Invalid tenant")
		return
	}

	var q countListQuery
	if err := c.ShouldBindQuery(&q); err != nil {
		h.BindError(c, err)
		return
	}
	filter, msg := q.filter()
	if msg != "" {
		h.BadRequest(c, msg)
		return
	}

	counts, total, err := h.counts.List(c.Request.Context(), tenantID, filter)
	if err != nil {
		h.HandleError(c, err)
		return
	}

	page, pageSize := filter.Page, filter.PageSize
	if page == 0 {
		page = 1
	}
	if pageSize == 0 {
		pageSize = 20
	}
	h.SuccessWithMeta(c, counts, total, page, pageSize)
}

// GetProgress godoc
// @Summary      Get counting progress
// @Tags         inventory-count
// @Produce      json
// @Param        id path string true "Count ID" format(uuid)
// @Success      200 {object} dto.Response{data=inventoryapp.ProgressResponse}
// @Failure      404 {object} dto.Response{error=dto.ErrorInfo}
// @Security     BearerAuth
// @Router       /inventory/counts/{id}/progress [get]
func (h *CountHandler) GetProgress(c *gin.Context) {
	tenantID, id, ok := h.scope(c, "id", "count")
	if !ok {
		return
	}

	result, err := h.counts.GetProgress(c.Request.Context(), tenantID, id)
	if err != nil {
		h.HandleError(c, err)
		return
	}
	h.Success(c, result)
}

// GetVariances godoc
// @Summary      Get variance summary
// @Description  Per-line differences and totals. Uncounted lines compare as zero.
// @Tags         inventory-count
// @Produce      json
// @Param        id path string true "Count ID" format(uuid)
// @Success      200 {object} dto.Response{data=inventoryapp.VarianceSummaryResponse}
// @Failure      404 {object} dto.Response{error=dto.ErrorInfo}
// @Security     BearerAuth
// @Router       /inventory/counts/{id}/variances [get]
func (h *CountHandler) GetVariances(c *gin.Context) {
	tenantID, id, ok := h.scope(c, "id", "count")
	if !ok {
		return
	}

	result, err := h.counts.GetVariances(c.Request.Context(), tenantID, id)
	if err != nil {
		h.HandleError(c, err)
		return
	}
	h.Success(c, result)
}

// ===================== Lifecycle Handlers =====================

// Create godoc
// @Summary      Create count
// @Description  Open a draft count for a warehouse, optionally from a template
// @Tags         inventory-count
// @Accept       json
// @Produce      json
// @Param        request body inventoryapp.CreateCountRequest true "Count"
// @Success      201 {object} dto.Response{data=inventoryapp.CountResponse}
// @Failure      400 {object} dto.Response{error=dto.ErrorInfo}
// @Failure      401 {object} dto.Response{error=dto.ErrorInfo}
// @Failure      422 {object} dto.Response{error=dto.ErrorInfo}
// @Security     BearerAuth
// @Router       /inventory/counts [post]
func (h *CountHandler) Create(c *gin.Context) {
	tenantID, err := getTenantID(c)
	if err != nil {
		h.Unauthorized(c, "Invalid tenant")
		return
	}
	actor, err := getActor(c)
	if err != nil {
		h.Unauthorized(c, "Invalid user")
		return
	}

	var req inventoryapp.CreateCountRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		h.BindError(c, err)
		return
	}

	result, err := h.counts.Create(c.Request.Context(), tenantID, actor, req)
	if err != nil {
		h.HandleError(c, err)
		return
	}
	h.Created(c, result)
}

// InitializeItems godoc
// @Summary      Initialize count lines
// @Description  Snapshot the warehouse stock (or the template lines) into a draft count
// @Tags         inventory-count
// @Produce      json
// @Param        id path string true "Count ID" format(uuid)
// @Success      200 {object} dto.Response{data=inventoryapp.CountResponse}
// @Failure      404 {object} dto.Response{error=dto.ErrorInfo}
// @Failure      422 {object} dto.Response{error=dto.ErrorInfo}
// @Security     BearerAuth
// @Router       /inventory/counts/{id}/initialize [post]
func (h *CountHandler) InitializeItems(c *gin.Context) {
	tenantID, id, ok := h.scope(c, "id", "count")
	if !ok {
		return
	}

	result, err := h.counts.InitializeItems(c.Request.Context(), tenantID, id)
	if err != nil {
		h.HandleError(c, err)
		return
	}
	h.Success(c, result)
}

// RepairExpectedQuantities godoc
// @Summary      Repair expected quantities
// @Description  Re-read in-stock quantities for lines whose snapshot is missing
// @Tags         inventory-count
// @Produce      json
// @Param        id path string true "Count ID" format(uuid)
// @Success      200 {object} dto.Response{data=RepairResult}
// @Failure      404 {object} dto.Response{error=dto.ErrorInfo}
// @Failure      422 {object} dto.Response{error=dto.ErrorInfo}
// @Security     BearerAuth
// @Router       /inventory/counts/{id}/repair-expected [post]
func (h *CountHandler) RepairExpectedQuantities(c *gin.Context) {
	tenantID, id, ok := h.scope(c, "id", "count")
	if !ok {
		return
	}

	repaired, err := h.counts.RepairExpectedQuantities(c.Request.Context(), tenantID, id)
	if err != nil {
		h.HandleError(c, err)
		return
	}
	h.Success(c, RepairResult{CountID: id, Repaired: repaired})
}

// StartCounting godoc
// @Summary      Start counting
// @Tags         inventory-count
// @Produce      json
// @Param        id path string true "Count ID" format(uuid)
// @Success      200 {object} dto.Response{data=inventoryapp.CountResponse}
// @Failure      404 {object} dto.Response{error=dto.ErrorInfo}
// @Failure      422 {object} dto.Response{error=dto.ErrorInfo}
// @Security     BearerAuth
// @Router       /inventory/counts/{id}/start [post]
func (h *CountHandler) StartCounting(c *gin.Context) {
	tenantID, id, ok := h.scope(c, "id", "count")
	if !ok {
		return
	}

	result, err := h.counts.StartCounting(c.Request.Context(), tenantID, id)
	if err != nil {
		h.HandleError(c, err)
		return
	}
	h.Success(c, result)
}

// RecordItemCount godoc
// @Summary      Record a line count
// @Description  Set the counted quantity of one line. A null quantity marks the line not counted.
// @Tags         inventory-count
// @Accept       json
// @Produce      json
// @Param        id path string true "Count ID" format(uuid)
// @Param        item_id path string true "Count line ID" format(uuid)
// @Param        request body inventoryapp.RecordCountRequest true "Quantity"
// @Success      200 {object} dto.Response{data=inventoryapp.CountResponse}
// @Failure      400 {object} dto.Response{error=dto.ErrorInfo}
// @Failure      404 {object} dto.Response{error=dto.ErrorInfo}
// @Failure      422 {object} dto.Response{error=dto.ErrorInfo}
// @Security     BearerAuth
// @Router       /inventory/counts/{id}/items/{item_id} [put]
func (h *CountHandler) RecordItemCount(c *gin.Context) {
	tenantID, id, ok := h.scope(c, "id", "count")
	if !ok {
		return
	}
	itemID, err := uuid.Parse(c.Param("item_id"))
	if err != nil {
		h.InvalidID(c, "Invalid count line ID format")
		return
	}
	actor, err := getActor(c)
	if err != nil {
		h.Unauthorized(c, "Invalid user")
		return
	}

	var req inventoryapp.RecordCountRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		h.BindError(c, err)
		return
	}

	result, err := h.counts.RecordItemCount(c.Request.Context(), tenantID, id, itemID, actor, req)
	if err != nil {
		h.HandleError(c, err)
		return
	}
	h.Success(c, result)
}

// BulkRecordCounts godoc
// @Summary      Record several line counts
// @Tags         inventory-count
// @Accept       json
// @Produce      json
// @Param        id path string true "Count ID" format(uuid)
// @Param        request body inventoryapp.BulkRecordCountsRequest true "Quantities"
// @Success      200 {object} dto.Response{data=inventoryapp.CountResponse}
// @Failure      400 {object} dto.Response{error=dto.ErrorInfo}
// @Failure      404 {object} dto.Response{error=dto.ErrorInfo}
// @Failure      422 {object} dto.Response{error=dto.ErrorInfo}
// @Security     BearerAuth
// @Router       /inventory/counts/{id}/items [put]
func (h *CountHandler) BulkRecordCounts(c *gin.Context) {
	tenantID, id, ok := h.scope(c, "id", "count")
	if !ok {
		return
	}
	actor, err := getActor(c)
	if err != nil {
		h.Unauthorized(c, "Invalid user")
		return
	}

	var req inventoryapp.BulkRecordCountsRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		h.BindError(c, err)
		return
	}

	result, err := h.counts.BulkRecordCounts(c.Request.Context(), tenantID, id, actor, req)
	if err != nil {
		h.HandleError(c, err)
		return
	}
	h.Success(c, result)
}

// ImportSheet godoc
// @Summary      Import a filled-in count sheet
// @Description  Upload an XLSX count sheet. Rows are matched to lines by product code.
// @Tags         inventory-count
// @Accept       multipart/form-data
// @Produce      json
// @Param        id path string true "Count ID" format(uuid)
// @Param        file formData file true "Count sheet (.xlsx)"
// @Success      200 {object} dto.Response{data=inventoryapp.ImportResult}
// @Failure      400 {object} dto.Response{error=dto.ErrorInfo}
// @Failure      413 {object} dto.Response{error=dto.ErrorInfo}
// @Failure      422 {object} dto.Response{error=dto.ErrorInfo}
// @Security     BearerAuth
// @Router       /inventory/counts/{id}/import [post]
func (h *CountHandler) ImportSheet(c *gin.Context) {
	tenantID, id, ok := h.scope(c, "id", "count")
	if !ok {
		return
	}
	actor, err := getActor(c)
	if err != nil {
		h.Unauthorized(c, "Invalid user")
		return
	}

	file, header, err := c.Request.FormFile("file")
	if err != nil {
		h.BadRequest(c, "file is required")
		return
	}
	defer file.Close()

	if header.Size > maxCountSheetSize {
		h.Error(c, http.StatusRequestEntityTooLarge, dto.ErrCodePayloadTooLarge, "file exceeds maximum size of 10MB")
		return
	}

	result, err := h.docs.ImportSheet(c.Request.Context(), tenantID, id, actor, file)
	if err != nil {
		h.HandleError(c, err)
		return
	}
	h.Success(c, result)
}

// Submit godoc
// @Summary      Submit count for approval
// @Tags         inventory-count
// @Produce      json
// @Param        id path string true "Count ID" format(uuid)
// @Success      200 {object} dto.Response{data=inventoryapp.CountResponse}
// @Failure      404 {object} dto.Response{error=dto.ErrorInfo}
// @Failure      422 {object} dto.Response{error=dto.ErrorInfo}
// @Security     BearerAuth
// @Router       /inventory/counts/{id}/submit [post]
func (h *CountHandler) Submit(c *gin.Context) {
	tenantID, id, ok := h.scope(c, "id", "count")
	if !ok {
		return
	}

	result, err := h.counts.Submit(c.Request.Context(), tenantID, id)
	if err != nil {
		h.HandleError(c, err)
		return
	}
	h.Success(c, result)
}

// Cancel godoc
// @Summary      Cancel count
// @Tags         inventory-count
// @Accept       json
// @Produce      json
// @Param        id path string true "Count ID" format(uuid)
// @Param        request body inventoryapp.CancelCountRequest false "Reason"
// @Success      200 {object} dto.Response{data=inventoryapp.CountResponse}
// @Failure      404 {object} dto.Response{error=dto.ErrorInfo}
// @Failure      422 {object} dto.Response{error=dto.ErrorInfo}
// @Security     BearerAuth
// @Router       /inventory/counts/{id}/cancel [post]
func (h *CountHandler) Cancel(c *gin.Context) {
	tenantID, id, ok := h.scope(c, "id", "count")
	if !ok {
		return
	}

	var req inventoryapp.CancelCountRequest
	if c.Request.ContentLength != 0 {
		if err := c.ShouldBindJSON(&req); err != nil {
			h.BindError(c, err)
			return
		}
	}

	result, err := h.counts.Cancel(c.Request.Context(), tenantID, id, req)
	if err != nil {
		h.HandleError(c, err)
		return
	}
	h.Success(c, result)
}

// ===================== Document Handlers =====================

// VarianceReport godoc
// @Summary      Download variance report
// @Tags         inventory-count
// @Produce      application/vnd.openxmlformats-officedocument.spreadsheetml.sheet
// @Param        id path string true "Count ID" format(uuid)
// @Success      200 {file} file
// @Failure      404 {object} dto.Response{error=dto.ErrorInfo}
// @Security     BearerAuth
// @Router       /inventory/counts/{id}/variance-report [get]
func (h *CountHandler) VarianceReport(c *gin.Context) {
	tenantID, id, ok := h.scope(c, "id", "count")
	if !ok {
		return
	}

	doc, err := h.docs.VarianceReport(c.Request.Context(), tenantID, id)
	if err != nil {
		h.HandleError(c, err)
		return
	}
	h.File(c, doc)
}

// CountSheet godoc
// @Summary      Download printable count sheet
// @Tags         inventory-count
// @Produce      application/pdf
// @Param        id path string true "Count ID" format(uuid)
// @Success      200 {file} file
// @Failure      404 {object} dto.Response{error=dto.ErrorInfo}
// @Failure      422 {object} dto.Response{error=dto.ErrorInfo}
// @Security     BearerAuth
// @Router       /inventory/counts/{id}/sheet [get]
func (h *CountHandler) CountSheet(c *gin.Context) {
	tenantID, id, ok := h.scope(c, "id", "count")
	if !ok {
		return
	}

	doc, err := h.docs.CountSheet(c.Request.Context(), tenantID, id)
	if err != nil {
		h.HandleError(c, err)
		return
	}
	h.File(c, doc)
}

// ArchiveLink godoc
// @Summary      Get archive download link
// @Description  Time-limited link to the snapshot stored when the count was decided
// @Tags         inventory-count
// @Produce      json
// @Param        id path string true "Count ID" format(uuid)
// @Success      200 {object} dto.Response{data=inventoryapp.ArchiveLinkResponse}
// @Failure      404 {object} dto.Response{error=dto.ErrorInfo}
// @Failure      422 {object} dto.Response{error=dto.ErrorInfo}
// @Security     BearerAuth
// @Router       /inventory/counts/{id}/archive [get]
func (h *CountHandler) ArchiveLink(c *gin.Context) {
	tenantID, id, ok := h.scope(c, "id", "count")
	if !ok {
		return
	}

	result, err := h.docs.ArchiveLink(c.Request.Context(), tenantID, id)
	if err != nil {
		h.HandleError(c, err)
		return
	}
	h.Success(c, result)
}
