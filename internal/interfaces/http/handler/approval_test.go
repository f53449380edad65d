package handler

import (
	"net/http"
	"testing"

	inventoryapp "github.com/erp/stockcount/internal/application/inventory"
	"github.com/erp/stockcount/internal/interfaces/http/dto"
	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestApprovalHandler_ApproveAppliesCountedStock(t *testing.T) {
	s := newTestServer(t)
	warehouseID := uuid.New()
	s.seedStock(warehouseID, map[string]int{"Bolt": 10, "Nut": 5})

	ic := s.countAndSubmit(s.openCount(warehouseID), map[string]int{"Bolt": 8, "Nut": 5})
	assert.Equal(t, "PENDING_APPROVAL", ic.Status)
	path := "/inventory/counts/" + ic.ID.String()

	w := s.do(http.MethodGet, path+"/review", s.approver, nil)
	require.Equal(t, http.StatusOK, w.Code, w.Body.String())
	review := decode[inventoryapp.ReviewResponse](t, w).Data
	assert.Equal(t, ic.Version, review.Version)
	assert.Len(t, review.Lines, 2)
	assert.Len(t, review.Summary.Variances, 1)

	w = s.do(http.MethodPost, path+"/decision", s.approver, map[string]any{
		"approved":         true,
		"notes":            "bolts short by two",
		"expected_version": review.Version,
	})
	require.Equal(t, http.StatusOK, w.Code, w.Body.String())
	decision := decode[inventoryapp.DecisionResponse](t, w).Data
	assert.True(t, decision.Success)
	assert.Equal(t, "APPROVED", decision.Status)
	assert.Positive(t, decision.Adjustments)

	w = s.do(http.MethodGet, "/inventory/stock-levels?warehouse_id="+warehouseID.String(), s.counter, nil)
	require.Equal(t, http.StatusOK, w.Code)
	for _, level := range decode[[]inventoryapp.StockLevelResponse](t, w).Data {
		if level.ProductName == "Bolt" {
			assert.True(t, level.Quantity.Equal(decimal.NewFromInt(8)), level.Quantity.String())
		}
	}

	w = s.do(http.MethodGet, path+"/history", s.approver, nil)
	require.Equal(t, http.StatusOK, w.Code)
	history := decode[inventoryapp.DecisionHistoryResponse](t, w).Data
	require.Len(t, history.Audit, 1)
	assert.Equal(t, "APPROVED", history.Audit[0].Action)
	assert.Equal(t, "bolts short by two", history.Audit[0].Notes)
	assert.NotEmpty(t, history.Adjustments)

	// a second decision on the same count is refused
	w = s.do(http.MethodPost, path+"/decision", s.approver, map[string]any{
		"approved":         false,
		"expected_version": decision.Version,
	})
	assert.NotEqual(t, http.StatusOK, w.Code)
}

func TestApprovalHandler_Reject(t *testing.T) {
	s := newTestServer(t)
	warehouseID := uuid.New()
	s.seedStock(warehouseID, map[string]int{"Bolt": 10})
	ic := s.countAndSubmit(s.openCount(warehouseID), map[string]int{"Bolt": 3})

	w := s.do(http.MethodPost, "/inventory/counts/"+ic.ID.String()+"/decision", s.approver, map[string]any{
		"approved":         false,
		"notes":            "recount aisle 4",
		"expected_version": ic.Version,
	})
	require.Equal(t, http.StatusOK, w.Code, w.Body.String())
	decision := decode[inventoryapp.DecisionResponse](t, w).Data
	assert.Equal(t, "REJECTED", decision.Status)
	assert.Zero(t, decision.Adjustments)

	w = s.do(http.MethodGet, "/inventory/stock-levels?warehouse_id="+warehouseID.String(), s.counter, nil)
	levels := decode[[]inventoryapp.StockLevelResponse](t, w).Data
	require.Len(t, levels, 1)
	assert.True(t, levels[0].Quantity.Equal(decimal.NewFromInt(10)))
}

func TestApprovalHandler_StaleVersion(t *testing.T) {
	s := newTestServer(t)
	warehouseID := uuid.New()
	s.seedStock(warehouseID, map[string]int{"Bolt": 10})
	ic := s.countAndSubmit(s.openCount(warehouseID), map[string]int{"Bolt": 9})

	w := s.do(http.MethodPost, "/inventory/counts/"+ic.ID.String()+"/decision", s.approver, map[string]any{
		"approved":         true,
		"expected_version": ic.Version + 1,
	})
	assert.Equal(t, http.StatusConflict, w.Code)
	assert.Equal(t, "STALE_STATE", errorCodeOf(t, w))

	// nothing was written
	w = s.do(http.MethodGet, "/inventory/counts/"+ic.ID.String(), s.counter, nil)
	assert.Equal(t, "PENDING_APPROVAL", decode[inventoryapp.CountResponse](t, w).Data.Status)
}

func TestApprovalHandler_RequiresApprovePermission(t *testing.T) {
	s := newTestServer(t)
	warehouseID := uuid.New()
	s.seedStock(warehouseID, map[string]int{"Bolt": 10})
	ic := s.countAndSubmit(s.openCount(warehouseID), map[string]int{"Bolt": 10})
	path := "/inventory/counts/" + ic.ID.String()

	w := s.do(http.MethodPost, path+"/decision", s.counter, map[string]any{
		"approved":         true,
		"expected_version": ic.Version,
	})
	assert.Equal(t, http.StatusForbidden, w.Code)
	assert.Equal(t, dto.ErrCodeForbidden, errorCodeOf(t, w))

	// reviewing needs no approve permission
	w = s.do(http.MethodGet, path+"/review", s.counter, nil)
	assert.Equal(t, http.StatusOK, w.Code)
}

func TestApprovalHandler_DecisionValidation(t *testing.T) {
	s := newTestServer(t)
	path := "/inventory/counts/" + uuid.NewString() + "/decision"

	tests := []struct {
		name string
		body map[string]any
	}{
		{"missing approved", map[string]any{"expected_version": 1}},
		{"missing version", map[string]any{"approved": true}},
		{"zero version", map[string]any{"approved": true, "expected_version": 0}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			w := s.do(http.MethodPost, path, s.approver, tt.body)
			assert.Equal(t, http.StatusBadRequest, w.Code)
			env := decode[any](t, w)
			require.NotNil(t, env.Error)
			assert.Equal(t, dto.ErrCodeValidation, env.Error.Code)
			assert.NotEmpty(t, env.Error.Details)
		})
	}
}

func TestApprovalHandler_ReviewRequiresPendingCount(t *testing.T) {
	s := newTestServer(t)
	warehouseID := uuid.New()
	s.seedStock(warehouseID, map[string]int{"Bolt": 1})
	ic := s.openCount(warehouseID)

	w := s.do(http.MethodGet, "/inventory/counts/"+ic.ID.String()+"/review", s.approver, nil)
	assert.Equal(t, http.StatusUnprocessableEntity, w.Code)
	assert.Equal(t, "INVALID_STATE", errorCodeOf(t, w))
}
