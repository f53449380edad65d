package inventory

import (
	"context"
	"sync"
	"time"

	"github.com/erp/stockcount/internal/domain/inventory"
	"github.com/erp/stockcount/internal/domain/shared"
	"github.com/google/uuid"
	"github.com/stretchr/testify/mock"
)

// MockEventPublisher is a mock implementation of shared.EventPublisher
type MockEventPublisher struct {
	mu     sync.Mutex
	events []shared.DomainEvent
}

func NewMockEventPublisher() *MockEventPublisher {
	return &MockEventPublisher{
		events: make([]shared.DomainEvent, 0),
	}
}

func (m *MockEventPublisher) Publish(ctx context.Context, events ...shared.DomainEvent) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.events = append(m.events, events...)
	return nil
}

func (m *MockEventPublisher) GetEventsByType(eventType string) []shared.DomainEvent {
	m.mu.Lock()
	defer m.mu.Unlock()
	result := make([]shared.DomainEvent, 0)
	for _, e := range m.events {
		if e.EventType() == eventType {
			result = append(result, e)
		}
	}
	return result
}

func (m *MockEventPublisher) Count() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return len(m.events)
}

// MockCountRepository is a mock implementation of InventoryCountRepository
type MockCountRepository struct {
	mock.Mock
}

func (m *MockCountRepository) FindByIDForTenant(ctx context.Context, tenantID, id uuid.UUID) (*inventory.InventoryCount, error) {
	args := m.Called(ctx, tenantID, id)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*inventory.InventoryCount), args.Error(1)
}

func (m *MockCountRepository) FindByCountNumber(ctx context.Context, tenantID uuid.UUID, countNumber string) (*inventory.InventoryCount, error) {
	args := m.Called(ctx, tenantID, countNumber)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*inventory.InventoryCount), args.Error(1)
}

func (m *MockCountRepository) FindAllForTenant(ctx context.Context, tenantID uuid.UUID, filter inventory.CountFilter) ([]inventory.InventoryCount, error) {
	args := m.Called(ctx, tenantID, filter)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]inventory.InventoryCount), args.Error(1)
}

func (m *MockCountRepository) CountForTenant(ctx context.Context, tenantID uuid.UUID, filter inventory.CountFilter) (int64, error) {
	args := m.Called(ctx, tenantID, filter)
	return args.Get(0).(int64), args.Error(1)
}

func (m *MockCountRepository) Save(ctx context.Context, count *inventory.InventoryCount) error {
	args := m.Called(ctx, count)
	return args.Error(0)
}

func (m *MockCountRepository) GenerateCountNumber(ctx context.Context, tenantID uuid.UUID) (string, error) {
	args := m.Called(ctx, tenantID)
	return args.String(0), args.Error(1)
}

// MockTemplateRepository is a mock implementation of CountTemplateRepository
type MockTemplateRepository struct {
	mock.Mock
}

func (m *MockTemplateRepository) FindByIDForTenant(ctx context.Context, tenantID, id uuid.UUID) (*inventory.CountTemplate, error) {
	args := m.Called(ctx, tenantID, id)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*inventory.CountTemplate), args.Error(1)
}

func (m *MockTemplateRepository) FindAllForTenant(ctx context.Context, tenantID uuid.UUID, filter inventory.TemplateFilter) ([]inventory.CountTemplate, error) {
	args := m.Called(ctx, tenantID, filter)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]inventory.CountTemplate), args.Error(1)
}

func (m *MockTemplateRepository) CountForTenant(ctx context.Context, tenantID uuid.UUID, filter inventory.TemplateFilter) (int64, error) {
	args := m.Called(ctx, tenantID, filter)
	return args.Get(0).(int64), args.Error(1)
}

func (m *MockTemplateRepository) Save(ctx context.Context, template *inventory.CountTemplate) error {
	args := m.Called(ctx, template)
	return args.Error(0)
}

// MockStockLevelRepository is a mock implementation of StockLevelRepository
type MockStockLevelRepository struct {
	mock.Mock
}

func (m *MockStockLevelRepository) FindByWarehouse(ctx context.Context, tenantID, warehouseID uuid.UUID, activeOnly bool) ([]inventory.StockLevel, error) {
	args := m.Called(ctx, tenantID, warehouseID, activeOnly)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]inventory.StockLevel), args.Error(1)
}

func (m *MockStockLevelRepository) FindByWarehouseAndProducts(ctx context.Context, tenantID, warehouseID uuid.UUID, productIDs []uuid.UUID) ([]inventory.StockLevel, error) {
	args := m.Called(ctx, tenantID, warehouseID, productIDs)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]inventory.StockLevel), args.Error(1)
}

func (m *MockStockLevelRepository) FindByWarehouseAndProduct(ctx context.Context, tenantID, warehouseID, productID uuid.UUID) (*inventory.StockLevel, error) {
	args := m.Called(ctx, tenantID, warehouseID, productID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*inventory.StockLevel), args.Error(1)
}

func (m *MockStockLevelRepository) Save(ctx context.Context, level *inventory.StockLevel) error {
	args := m.Called(ctx, level)
	return args.Error(0)
}

// MockAdjustmentRepository is a mock implementation of AdjustmentRepository
type MockAdjustmentRepository struct {
	mock.Mock
}

func (m *MockAdjustmentRepository) CreateAdjustments(ctx context.Context, adjustments []inventory.InventoryAdjustment) error {
	args := m.Called(ctx, adjustments)
	return args.Error(0)
}

func (m *MockAdjustmentRepository) CreateAuditEntry(ctx context.Context, entry *inventory.CountAuditEntry) error {
	args := m.Called(ctx, entry)
	return args.Error(0)
}

func (m *MockAdjustmentRepository) FindAdjustmentsByCount(ctx context.Context, tenantID, countID uuid.UUID) ([]inventory.InventoryAdjustment, error) {
	args := m.Called(ctx, tenantID, countID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]inventory.InventoryAdjustment), args.Error(1)
}

func (m *MockAdjustmentRepository) FindAuditEntriesByCount(ctx context.Context, tenantID, countID uuid.UUID) ([]inventory.CountAuditEntry, error) {
	args := m.Called(ctx, tenantID, countID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]inventory.CountAuditEntry), args.Error(1)
}

// testLock is a process-local DecisionLock
type testLock struct {
	mu       sync.Mutex
	held     map[string]string
	released int
}

func newTestLock() *testLock {
	return &testLock{held: make(map[string]string)}
}

func (l *testLock) Acquire(_ context.Context, key string, _ time.Duration) (string, error) {
	l.mu.Lock()
	defer l.mu.Unlock()
	if _, ok := l.held[key]; ok {
		return "", shared.ErrDecisionInFlight
	}
	token := uuid.NewString()
	l.held[key] = token
	return token, nil
}

func (l *testLock) Release(_ context.Context, key, token string) error {
	l.mu.Lock()
	defer l.mu.Unlock()
	if l.held[key] == token {
		delete(l.held, key)
		l.released++
	}
	return nil
}

// testRecorder captures decision metrics
type testRecorder struct {
	mu      sync.Mutex
	results []string
}

func (r *testRecorder) RecordDecision(_ context.Context, _ bool, result string, _ time.Duration) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.results = append(r.results, result)
}
