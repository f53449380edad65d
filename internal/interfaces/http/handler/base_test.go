package handler

import (
	"encoding/json"
	"fmt"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	inventoryapp "github.com/erp/stockcount/internal/application/inventory"
	"github.com/erp/stockcount/internal/domain/shared"
	"github.com/erp/stockcount/internal/interfaces/http/dto"
	"github.com/erp/stockcount/internal/interfaces/http/middleware"
	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func init() {
	gin.SetMode(gin.TestMode)
}

func newTestContext(t *testing.T) (*gin.Context, *httptest.ResponseRecorder) {
	t.Helper()
	w := httptest.NewRecorder()
	c, _ := gin.CreateTestContext(w)
	c.Request = httptest.NewRequest(http.MethodGet, "/", nil)
	return c, w
}

// setJWTContext simulates the JWT middleware
func setJWTContext(c *gin.Context, tenantID, userID string) {
	c.Set(middleware.JWTTenantIDKey, tenantID)
	c.Set(middleware.JWTUserIDKey, userID)
	c.Set(middleware.JWTUsernameKey, "counter")
}

func responseOf(t *testing.T, w *httptest.ResponseRecorder) dto.Response {
	t.Helper()
	var resp dto.Response
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &resp))
	return resp
}

func TestGetRequestID(t *testing.T) {
	tests := []struct {
		name       string
		setup      func(*gin.Context)
		expectedID string
	}{
		{
			name:       "from middleware",
			setup:      func(c *gin.Context) { c.Set(middleware.RequestIDContextKey, "ctx-id") },
			expectedID: "ctx-id",
		},
		{
			name:       "from header",
			setup:      func(c *gin.Context) { c.Request.Header.Set(RequestIDKey, "header-id") },
			expectedID: "header-id",
		},
		{
			name: "middleware wins over header",
			setup: func(c *gin.Context) {
				c.Set(middleware.RequestIDContextKey, "ctx-id")
				c.Request.Header.Set(RequestIDKey, "header-id")
			},
			expectedID: "ctx-id",
		},
		{
			name:       "empty",
			setup:      func(c *gin.Context) {},
			expectedID: "",
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			c, _ := newTestContext(t)
			tt.setup(c)
			assert.Equal(t, tt.expectedID, getRequestID(c))
		})
	}
}

func TestGetActor(t *testing.T) {
	c, _ := newTestContext(t)
	_, err := getActor(c)
	assert.ErrorIs(t, err, errMissingUser)

	userID := uuid.New()
	setJWTContext(c, uuid.NewString(), userID.String())
	actor, err := getActor(c)
	require.NoError(t, err)
	assert.Equal(t, inventoryapp.Actor{UserID: userID, Name: "counter"}, actor)
}

func TestBaseHandler_SuccessWithMeta(t *testing.T) {
	h := &BaseHandler{}
	c, w := newTestContext(t)

	h.SuccessWithMeta(c, []string{"a", "b"}, 45, 2, 20)

	assert.Equal(t, http.StatusOK, w.Code)
	resp := responseOf(t, w)
	assert.True(t, resp.Success)
	require.NotNil(t, resp.Meta)
	assert.EqualValues(t, 45, resp.Meta.Total)
	assert.Equal(t, 3, resp.Meta.TotalPages)
}

func TestBaseHandler_File(t *testing.T) {
	h := &BaseHandler{}
	c, w := newTestContext(t)

	h.File(c, &inventoryapp.Document{Filename: "IC-1-variances.xlsx", ContentType: inventoryapp.ContentTypeXLSX, Data: []byte("PK")})

	assert.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, inventoryapp.ContentTypeXLSX, w.Header().Get("Content-Type"))
	assert.Equal(t, `attachment; filename="IC-1-variances.xlsx"`, w.Header().Get("Content-Disposition"))
	assert.Equal(t, "PK", w.Body.String())
}

func TestBaseHandler_HandleError(t *testing.T) {
	tests := []struct {
		name   string
		err    error
		status int
		code   string
	}{
		{"not found", shared.ErrNotFound, http.StatusNotFound, "NOT_FOUND"},
		{"stale state", shared.NewDomainError(shared.CodeStaleState, "changed"), http.StatusConflict, "STALE_STATE"},
		{"in flight", shared.NewDomainError(shared.CodeDecisionInFlight, "busy"), http.StatusConflict, "DECISION_IN_FLIGHT"},
		{"wrapped domain error", fmt.Errorf("decide: %w", shared.NewDomainError("INCOMPLETE_COUNT", "3/4")), http.StatusUnprocessableEntity, "INCOMPLETE_COUNT"},
		{"plain error", fmt.Errorf("connection reset"), http.StatusInternalServerError, dto.ErrCodeInternal},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			h := &BaseHandler{}
			c, w := newTestContext(t)
			c.Set(middleware.RequestIDContextKey, "req-1")

			h.HandleError(c, tt.err)

			assert.Equal(t, tt.status, w.Code)
			resp := responseOf(t, w)
			assert.False(t, resp.Success)
			require.NotNil(t, resp.Error)
			assert.Equal(t, tt.code, resp.Error.Code)
			assert.Equal(t, "req-1", resp.Error.RequestID)
		})
	}
}

func TestBaseHandler_HandleError_HidesInternalDetail(t *testing.T) {
	h := &BaseHandler{}
	c, w := newTestContext(t)

	h.HandleError(c, fmt.Errorf("pq: password authentication failed"))

	assert.NotContains(t, w.Body.String(), "password")
	assert.Len(t, c.Errors, 1)
}

func TestBaseHandler_BindError(t *testing.T) {
	middleware.SetupValidator()

	type body struct {
		Notes string `json:"notes" binding:"required"`
	}

	router := gin.New()
	router.POST("/", func(c *gin.Context) {
		var b body
		(&BaseHandler{}).BindError(c, c.ShouldBindJSON(&b))
	})

	post := func(raw string) dto.Response {
		w := httptest.NewRecorder()
		req := httptest.NewRequest(http.MethodPost, "/", strings.NewReader(raw))
		req.Header.Set("Content-Type", "application/json")
		router.ServeHTTP(w, req)
		assert.Equal(t, http.StatusBadRequest, w.Code)
		return responseOf(t, w)
	}

	resp := post(`{}`)
	assert.Equal(t, dto.ErrCodeValidation, resp.Error.Code)
	require.Len(t, resp.Error.Details, 1)
	assert.Equal(t, "notes", resp.Error.Details[0].Field)

	resp = post(`{"notes":`)
	assert.Equal(t, dto.ErrCodeBadRequest, resp.Error.Code)
}

func TestBaseHandler_Scope(t *testing.T) {
	tenantID := uuid.New()
	countID := uuid.New()

	tests := []struct {
		name   string
		tenant string
		param  string
		ok     bool
		status int
		code   string
	}{
		{"valid", tenantID.String(), countID.String(), true, http.StatusOK, ""},
		{"no tenant", "", countID.String(), false, http.StatusUnauthorized, dto.ErrCodeUnauthorized},
		{"bad id", tenantID.String(), "42", false, http.StatusBadRequest, dto.ErrCodeInvalidID},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			c, w := newTestContext(t)
			if tt.tenant != "" {
				setJWTContext(c, tt.tenant, uuid.NewString())
			}
			c.Params = gin.Params{{Key: "id", Value: tt.param}}

			gotTenant, gotID, ok := (&BaseHandler{}).scope(c, "id", "count")

			assert.Equal(t, tt.ok, ok)
			if tt.ok {
				assert.Equal(t, tenantID, gotTenant)
				assert.Equal(t, countID, gotID)
				return
			}
			assert.Equal(t, tt.status, w.Code)
			assert.Equal(t, tt.code, responseOf(t, w).Error.Code)
		})
	}
}
