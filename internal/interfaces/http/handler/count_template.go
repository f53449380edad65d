package handler

import (
	inventoryapp "github.com/erp/stockcount/internal/application/inventory"
	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
)

// CountTemplateHandler handles count template endpoints
type CountTemplateHandler struct {
	BaseHandler
	templates *inventoryapp.CountTemplateService
}

// NewCountTemplateHandler creates a new CountTemplateHandler
func NewCountTemplateHandler(templates *inventoryapp.CountTemplateService) *CountTemplateHandler {
	return &CountTemplateHandler{templates: templates}
}

type templateListQuery struct {
	WarehouseID string `form:"warehouse_id"`
	ActiveOnly  bool   `form:"active_only"`
	Search      string `form:"search"`
	Page        int    `form:"page" binding:"omitempty,min=1"`
	PageSize    int    `form:"page_size" binding:"omitempty,min=1,max=100"`
}

// Create godoc
// @Summary      Create count template
// @Tags         count-template
// @Accept       json
// @Produce      json
// @Param        request body inventoryapp.CreateTemplateRequest true "Template"
// @Success      201 {object} dto.Response{data=inventoryapp.TemplateResponse}
// @Failure      400 {object} dto.Response{error=dto.ErrorInfo}
// @Failure      422 {object} dto.Response{error=dto.ErrorInfo}
// @Security     BearerAuth
// @Router       /inventory/count-templates [post]
func (h *CountTemplateHandler) Create(c *gin.Context) {
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

	var req inventoryapp.CreateTemplateRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		h.BindError(c, err)
		return
	}

	result, err := h.templates.Create(c.Request.Context(), tenantID, actor, req)
	if err != nil {
		h.HandleError(c, err)
		return
	}
	h.Created(c, result)
}

// List godoc
// @Summary      List count templates
// @Tags         count-template
// @Produce      json
// @Param        warehouse_id query string false "Filter by warehouse ID" format(uuid)
// @Param        active_only query bool false "Only active templates"
// @Param        search query string false "Search by name"
// @Param        page query int false "Page number" default(1)
// @Param        page_size query int false "Page size" default(20) maximum(100)
// @Success      200 {object} dto.Response{data=[]inventoryapp.TemplateResponse,meta=dto.Meta}
// @Failure      400 {object} dto.Response{error=dto.ErrorInfo}
// @Security     BearerAuth
// @Router       /inventory/count-templates [get]
func (h *CountTemplateHandler) List(c *gin.Context) {
	tenantID, err := getTenantID(c)
	if err != nil {
		h.Unauthorized(c, "Invalid tenant")
		return
	}

	var q templateListQuery
	if err := c.ShouldBindQuery(&q); err != nil {
		h.BindError(c, err)
		return
	}
	filter := inventoryapp.TemplateListFilter{
		ActiveOnly: q.ActiveOnly,
		Search:     q.Search,
		Page:       max(q.Page, 1),
		PageSize:   q.PageSize,
	}
	if filter.PageSize == 0 {
		filter.PageSize = 20
	}
	if q.WarehouseID != "" {
		id, err := uuid.Parse(q.WarehouseID)
		if err != nil {
			h.BadRequest(c, "Invalid warehouse ID format")
			return
		}
		filter.WarehouseID = &id
	}

	templates, total, err := h.templates.List(c.Request.Context(), tenantID, filter)
	if err != nil {
		h.HandleError(c, err)
		return
	}
	h.SuccessWithMeta(c, templates, total, filter.Page, filter.PageSize)
}

// GetByID godoc
// @Summary      Get count template
// @Tags         count-template
// @Produce      json
// @Param        id path string true "Template ID" format(uuid)
// @Success      200 {object} dto.Response{data=inventoryapp.TemplateResponse}
// @Failure      404 {object} dto.Response{error=dto.ErrorInfo}
// @Security     BearerAuth
// @Router       /inventory/count-templates/{id} [get]
func (h *CountTemplateHandler) GetByID(c *gin.Context) {
	tenantID, id, ok := h.scope(c, "id", "template")
	if !ok {
		return
	}

	result, err := h.templates.GetByID(c.Request.Context(), tenantID, id)
	if err != nil {
		h.HandleError(c, err)
		return
	}
	h.Success(c, result)
}

// AddItem godoc
// @Summary      Add a product to a template
// @Tags         count-template
// @Accept       json
// @Produce      json
// @Param        id path string true "Template ID" format(uuid)
// @Param        request body inventoryapp.AddTemplateItemRequest true "Template line"
// @Success      200 {object} dto.Response{data=inventoryapp.TemplateResponse}
// @Failure      400 {object} dto.Response{error=dto.ErrorInfo}
// @Failure      404 {object} dto.Response{error=dto.ErrorInfo}
// @Failure      422 {object} dto.Response{error=dto.ErrorInfo}
// @Security     BearerAuth
// @Router       /inventory/count-templates/{id}/items [post]
func (h *CountTemplateHandler) AddItem(c *gin.Context) {
	tenantID, id, ok := h.scope(c, "id", "template")
	if !ok {
		return
	}

	var req inventoryapp.AddTemplateItemRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		h.BindError(c, err)
		return
	}

	result, err := h.templates.AddItem(c.Request.Context(), tenantID, id, req)
	if err != nil {
		h.HandleError(c, err)
		return
	}
	h.Success(c, result)
}

// RemoveItem godoc
// @Summary      Remove a template line
// @Tags         count-template
// @Produce      json
// @Param        id path string true "Template ID" format(uuid)
// @Param        item_id path string true "Template line ID" format(uuid)
// @Success      200 {object} dto.Response{data=inventoryapp.TemplateResponse}
// @Failure      404 {object} dto.Response{error=dto.ErrorInfo}
// @Security     BearerAuth
// @Router       /inventory/count-templates/{id}/items/{item_id} [delete]
func (h *CountTemplateHandler) RemoveItem(c *gin.Context) {
	tenantID, id, ok := h.scope(c, "id", "template")
	if !ok {
		return
	}
	itemID, err := uuid.Parse(c.Param("item_id"))
	if err != nil {
		h.InvalidID(c, "Invalid template line ID format")
		return
	}

	result, err := h.templates.RemoveItem(c.Request.Context(), tenantID, id, itemID)
	if err != nil {
		h.HandleError(c, err)
		return
	}
	h.Success(c, result)
}

// Deactivate godoc
// @Summary      Deactivate count template
// @Tags         count-template
// @Produce      json
// @Param        id path string true "Template ID" format(uuid)
// @Success      200 {object} dto.Response{data=inventoryapp.TemplateResponse}
// @Failure      404 {object} dto.Response{error=dto.ErrorInfo}
// @Security     BearerAuth
// @Router       /inventory/count-templates/{id}/deactivate [post]
func (h *CountTemplateHandler) Deactivate(c *gin.Context) {
	tenantID, id, ok := h.scope(c, "id", "template")
	if !ok {
		return
	}

	result, err := h.templates.Deactivate(c.Request.Context(), tenantID, id)
	if err != nil {
		h.HandleError(c, err)
		return
	}
	h.Success(c, result)
}
