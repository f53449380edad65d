package handler

import (
	"bytes"
	"encoding/json"
	"io"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	inventoryapp "github.com/erp/stockcount/internal/application/inventory"
	"github.com/erp/stockcount/internal/infrastructure/auth"
	"github.com/erp/stockcount/internal/infrastructure/cache"
	"github.com/erp/stockcount/internal/infrastructure/config"
	"github.com/erp/stockcount/internal/infrastructure/persistence"
	"github.com/erp/stockcount/internal/infrastructure/report"
	"github.com/erp/stockcount/internal/interfaces/http/dto"
	"github.com/erp/stockcount/internal/interfaces/http/middleware"
	"github.com/erp/stockcount/internal/interfaces/http/router"
	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"github.com/stretchr/testify/require"
)

const (
	permApprove = "inventory_count:approve"
	permCount   = "inventory_count:write"
)

// envelope mirrors dto.Response with a typed data field
type envelope[T any] struct {
	Success bool           `json:"success"`
	Data    T              `json:"data"`
	Error   *dto.ErrorInfo `json:"error"`
	Meta    *dto.Meta      `json:"meta"`
}

// testServer is the count API on an in-memory sqlite database
type testServer struct {
	t        *testing.T
	engine   *gin.Engine
	jwt      *auth.JWTService
	tenantID uuid.UUID
	counter  string
	approver string
}

func newTestServer(t *testing.T) *testServer {
	t.Helper()
	middleware.SetupValidator()

	db, err := persistence.NewDatabase(&config.DatabaseConfig{
		Driver: "sqlite",
		Path:   "file:" + uuid.NewString() + "?mode=memory&cache=shared",
	}, nil)
	require.NoError(t, err)
	require.NoError(t, db.AutoMigrate())
	t.Cleanup(func() { _ = db.Close() })

	countRepo := persistence.NewGormInventoryCountRepository(db.DB)
	templateRepo := persistence.NewGormCountTemplateRepository(db.DB)
	stockRepo := persistence.NewGormStockLevelRepository(db.DB)
	adjustmentRepo := persistence.NewGormAdjustmentRepository(db.DB)

	counts := inventoryapp.NewCountService(countRepo, templateRepo, stockRepo, nil)
	approvals := inventoryapp.NewCountApprovalService(countRepo, adjustmentRepo,
		persistence.NewGormTransactionScope(db.DB), cache.NewInMemoryDecisionLock(), nil)
	workbooks := report.NewWorkbooks()
	docs := inventoryapp.NewCountDocumentService(countRepo, counts, workbooks, workbooks, nil)

	handlers := InventoryHandlers{
		Counts:      NewCountHandler(counts, docs),
		Templates:   NewCountTemplateHandler(inventoryapp.NewCountTemplateService(templateRepo)),
		Approvals:   NewApprovalHandler(approvals),
		StockLevels: NewStockLevelHandler(inventoryapp.NewStockLevelService(stockRepo)),
	}

	jwtService := auth.NewJWTService(config.JWTConfig{
		Secret: "handler-test-secret-at-least-32-chars",
		Issuer: "stockcount-test",
	})

	engine := gin.New()
	engine.Use(middleware.RequestID())
	engine.GET("/health", NewHealthHandler(map[string]Pinger{"database": db}).Check)

	r := router.NewRouter(engine)
	r.Use(middleware.JWTAuthMiddleware(jwtService))
	r.Register(handlers.Routes(middleware.RequirePermission(permApprove)))
	r.Setup()

	s := &testServer{t: t, engine: engine, jwt: jwtService, tenantID: uuid.New()}
	s.counter = s.token("counter", permCount)
	s.approver = s.token("approver", permCount, permApprove)
	return s
}

func (s *testServer) token(username string, permissions ...string) string {
	s.t.Helper()
	token, _, err := s.jwt.GenerateAccessToken(auth.TokenInput{
		TenantID:    s.tenantID,
		UserID:      uuid.New(),
		Username:    username,
		Permissions: permissions,
	}, time.Hour)
	require.NoError(s.t, err)
	return token
}

func (s *testServer) do(method, path, token string, body any) *httptest.ResponseRecorder {
	s.t.Helper()
	var reader io.Reader
	if body != nil {
		raw, err := json.Marshal(body)
		require.NoError(s.t, err)
		reader = bytes.NewReader(raw)
	}
	req := httptest.NewRequest(method, "/api/v1"+path, reader)
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}
	w := httptest.NewRecorder()
	s.engine.ServeHTTP(w, req)
	return w
}

func decode[T any](t *testing.T, w *httptest.ResponseRecorder) envelope[T] {
	t.Helper()
	var env envelope[T]
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &env), w.Body.String())
	return env
}

func errorCodeOf(t *testing.T, w *httptest.ResponseRecorder) string {
	t.Helper()
	env := decode[json.RawMessage](t, w)
	require.NotNil(t, env.Error, w.Body.String())
	return env.Error.Code
}

// seedStock puts products on hand in a warehouse
func (s *testServer) seedStock(warehouseID uuid.UUID, levels map[string]int) map[string]uuid.UUID {
	s.t.Helper()
	ids := make(map[string]uuid.UUID, len(levels))
	for name, qty := range levels {
		productID := uuid.New()
		w := s.do(http.MethodPut, "/inventory/stock-levels", s.counter, map[string]any{
			"warehouse_id": warehouseID,
			"product_id":   productID,
			"product_name": name,
			"product_code": name + "-1",
			"quantity":     qty,
			"unit_cost":    "2.5",
		})
		require.Equal(s.t, http.StatusOK, w.Code, w.Body.String())
		ids[name] = productID
	}
	return ids
}

// openCount creates, initializes and starts a count over the warehouse stock
func (s *testServer) openCount(warehouseID uuid.UUID) inventoryapp.CountResponse {
	s.t.Helper()
	w := s.do(http.MethodPost, "/inventory/counts", s.counter, map[string]any{
		"warehouse_id":   warehouseID,
		"warehouse_name": "Main",
	})
	require.Equal(s.t, http.StatusCreated, w.Code, w.Body.String())
	id := decode[inventoryapp.CountResponse](s.t, w).Data.ID

	w = s.do(http.MethodPost, "/inventory/counts/"+id.String()+"/initialize", s.counter, nil)
	require.Equal(s.t, http.StatusOK, w.Code, w.Body.String())

	w = s.do(http.MethodPost, "/inventory/counts/"+id.String()+"/start", s.counter, nil)
	require.Equal(s.t, http.StatusOK, w.Code, w.Body.String())
	return decode[inventoryapp.CountResponse](s.t, w).Data
}

// countAndSubmit records quantities by product name and submits the count
func (s *testServer) countAndSubmit(ic inventoryapp.CountResponse, actual map[string]int) inventoryapp.CountResponse {
	s.t.Helper()
	entries := make([]map[string]any, 0, len(ic.Items))
	for _, item := range ic.Items {
		entries = append(entries, map[string]any{
			"item_id":         item.ID,
			"actual_quantity": actual[item.ProductName],
		})
	}
	path := "/inventory/counts/" + ic.ID.String()
	w := s.do(http.MethodPut, path+"/items", s.counter, map[string]any{"counts": entries})
	require.Equal(s.t, http.StatusOK, w.Code, w.Body.String())

	w = s.do(http.MethodPost, path+"/submit", s.counter, nil)
	require.Equal(s.t, http.StatusOK, w.Code, w.Body.String())
	return decode[inventoryapp.CountResponse](s.t, w).Data
}
