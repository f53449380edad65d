package handler

import (
	inventoryapp "github.com/erp/stockcount/internal/application/inventory"
	"github.com/erp/stockcount/internal/domain/inventory"
	"github.com/gin-gonic/gin"
)

// ApprovalHandler serves the review and decision endpoints of pending counts
type ApprovalHandler struct {
	BaseHandler
	approvals *inventoryapp.CountApprovalService
}

// NewApprovalHandler creates a new ApprovalHandler
func NewApprovalHandler(approvals *inventoryapp.CountApprovalService) *ApprovalHandler {
	return &ApprovalHandler{approvals: approvals}
}

// GetReview godoc
// @Summary      Review a pending count
// @Description  Lines, totals and the version token to send back with the decision
// @Tags         count-approval
// @Produce      json
// @Param        id path string true "Count ID" format(uuid)
// @Success      200 {object} dto.Response{data=inventoryapp.ReviewResponse}
// @Failure      404 {object} dto.Response{error=dto.ErrorInfo}
// @Failure      422 {object} dto.Response{error=dto.ErrorInfo}
// @Security     BearerAuth
// @Router       /inventory/counts/{id}/review [get]
func (h *ApprovalHandler) GetReview(c *gin.Context) {
	tenantID, id, ok := h.scope(c, "id", "count")
	if !ok {
		return
	}

	result, err := h.approvals.GetReview(c.Request.Context(), tenantID, id)
	if err != nil {
		h.HandleError(c, err)
		return
	}
	h.Success(c, result)
}

// Decide godoc
// @Summary      Approve or reject a pending count
// @Description  Approval applies every counted quantity to warehouse stock in one transaction.
// @Description  Returns 409 STALE_STATE when expected_version no longer matches and
// @Description  409 DECISION_IN_FLIGHT while another decision on the count is running.
// @Tags         count-approval
// @Accept       json
// @Produce      json
// @Param        id path string true "Count ID" format(uuid)
// @Param        request body inventoryapp.DecisionRequest true "Decision"
// @Success      200 {object} dto.Response{data=inventoryapp.DecisionResponse}
// @Failure      400 {object} dto.Response{error=dto.ErrorInfo}
// @Failure      403 {object} dto.Response{error=dto.ErrorInfo}
// @Failure      404 {object} dto.Response{error=dto.ErrorInfo}
// @Failure      409 {object} dto.Response{error=dto.ErrorInfo}
// @Failure      422 {object} dto.Response{error=dto.ErrorInfo}
// @Security     BearerAuth
// @Router       /inventory/counts/{id}/decision [post]
func (h *ApprovalHandler) Decide(c *gin.Context) {
	tenantID, id, ok := h.scope(c, "id", "count")
	if !ok {
		return
	}
	actor, err := getActor(c)
	if err != nil {
		h.Unauthorized(c, "Invalid user")
		return
	}

	var req inventoryapp.DecisionRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		h.BindError(c, err)
		return
	}

	result, err := h.approvals.Decide(c.Request.Context(), tenantID, actor, inventory.ApprovalDecision{
		CountID:         id,
		Approved:        *req.Approved,
		Notes:           req.Notes,
		ExpectedVersion: req.ExpectedVersion,
	})
	if err != nil {
		h.HandleError(c, err)
		return
	}
	h.Success(c, result)
}

// GetHistory godoc
// @Summary      Decision history of a count
// @Tags         count-approval
// @Produce      json
// @Param        id path string true "Count ID" format(uuid)
// @Success      200 {object} dto.Response{data=inventoryapp.DecisionHistoryResponse}
// @Failure      404 {object} dto.Response{error=dto.ErrorInfo}
// @Security     BearerAuth
// @Router       /inventory/counts/{id}/history [get]
func (h *ApprovalHandler) GetHistory(c *gin.Context) {
	tenantID, id, ok := h.scope(c, "id", "count")
	if !ok {
		return
	}

	result, err := h.approvals.GetHistory(c.Request.Context(), tenantID, id)
	if err != nil {
		h.HandleError(c, err)
		return
	}
	h.Success(c, result)
}
