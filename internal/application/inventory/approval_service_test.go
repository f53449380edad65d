package inventory

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/erp/stockcount/internal/domain/inventory"
	"github.com/erp/stockcount/internal/domain/shared"
	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
)

type lineSpec struct {
	productID uuid.UUID
	name      string
	expected  string
	actual    string
}

func newLineSpec(name, expected, actual string) lineSpec {
	return lineSpec{productID: uuid.New(), name: name, expected: expected, actual: actual}
}

// newPendingCount builds a submitted count as it would be loaded from storage.
func newPendingCount(t *testing.T, tenantID, warehouseID uuid.UUID, lines ...lineSpec) *inventory.InventoryCount {
	t.Helper()
	ic, err := inventory.NewInventoryCount(tenantID, warehouseID, "Main", "IC-20260101-0001", time.Now(), uuid.New(), "Counter")
	require.NoError(t, err)

	inputs := make([]inventory.CountItemInput, len(lines))
	for i, l := range lines {
		inputs[i] = inventory.CountItemInput{
			ProductID:        l.productID,
			ProductName:      l.name,
			ExpectedQuantity: decimal.RequireFromString(l.expected),
			UnitCost:         decimal.NewFromInt(2),
		}
	}
	require.NoError(t, ic.InitializeItems(inputs))
	require.NoError(t, ic.StartCounting())
	for i, l := range lines {
		require.NoError(t, ic.RecordItemCount(ic.Items[i].ID, inventory.Counted(decimal.RequireFromString(l.actual)), ic.ConductedBy, ""))
	}
	require.NoError(t, ic.SubmitForApproval())
	ic.ClearDomainEvents()
	ic.MarkPersisted()
	return ic
}

func stockLevelFor(t *testing.T, tenantID, warehouseID uuid.UUID, l lineSpec, qty string) inventory.StockLevel {
	t.Helper()
	level, err := inventory.NewStockLevel(tenantID, warehouseID, l.productID, l.name, decimal.RequireFromString(qty), decimal.NewFromInt(2))
	require.NoError(t, err)
	level.MarkPersisted()
	return *level
}

type approvalFixture struct {
	countRepo *MockCountRepository
	stockRepo *MockStockLevelRepository
	adjRepo   *MockAdjustmentRepository
	lock      *testLock
	events    *MockEventPublisher
	recorder  *testRecorder
	service   *CountApprovalService
	tenantID  uuid.UUID
	warehouse uuid.UUID
	approver  Actor
}

func newApprovalFixture() *approvalFixture {
	f := &approvalFixture{
		countRepo: new(MockCountRepository),
		stockRepo: new(MockStockLevelRepository),
		adjRepo:   new(MockAdjustmentRepository),
		lock:      newTestLock(),
		events:    NewMockEventPublisher(),
		recorder:  &testRecorder{},
		tenantID:  uuid.New(),
		warehouse: uuid.New(),
		approver:  Actor{UserID: uuid.New(), Name: "Approver"},
	}
	f.service = NewCountApprovalService(
		f.countRepo,
		f.adjRepo,
		NewNoOpTransactionScope(f.countRepo, f.stockRepo, f.adjRepo),
		f.lock,
		f.events,
		WithDecisionRecorder(f.recorder),
	)
	return f
}

func TestCountApprovalService_Approve(t *testing.T) {
	f := newApprovalFixture()
	ctx := context.Background()

	same := newLineSpec("Same", "10", "10")
	over := newLineSpec("Over", "5", "8")
	within := newLineSpec("Within", "20", "19.99")
	missing := newLineSpec("NoStock", "0", "3")
	ic := newPendingCount(t, f.tenantID, f.warehouse, same, over, within, missing)
	version := ic.Version

	levels := []inventory.StockLevel{
		stockLevelFor(t, f.tenantID, f.warehouse, same, "10"),
		stockLevelFor(t, f.tenantID, f.warehouse, over, "5"),
		stockLevelFor(t, f.tenantID, f.warehouse, within, "20"),
	}

	saved := make(map[uuid.UUID]decimal.Decimal)
	f.countRepo.On("FindByIDForTenant", mock.Anything, f.tenantID, ic.ID).Return(ic, nil)
	f.stockRepo.On("FindByWarehouseAndProducts", mock.Anything, f.tenantID, f.warehouse, mock.Anything).Return(levels, nil)
	f.stockRepo.On("Save", mock.Anything, mock.AnythingOfType("*inventory.StockLevel")).
		Run(func(args mock.Arguments) {
			l := args.Get(1).(*inventory.StockLevel)
			saved[l.ProductID] = l.Quantity
		}).Return(nil)
	f.adjRepo.On("CreateAdjustments", mock.Anything, mock.MatchedBy(func(a []inventory.InventoryAdjustment) bool {
		return len(a) == 3
	})).Return(nil)
	f.adjRepo.On("CreateAuditEntry", mock.Anything, mock.MatchedBy(func(e *inventory.CountAuditEntry) bool {
		return e.Action == inventory.AuditActionApproved && e.Adjustments == 3 && e.ActorID == f.approver.UserID
	})).Return(nil)
	f.countRepo.On("Save", mock.Anything, ic).Return(nil)

	resp, err := f.service.Decide(ctx, f.tenantID, f.approver, inventory.ApprovalDecision{
		CountID:         ic.ID,
		Approved:        true,
		Notes:           "looks right",
		ExpectedVersion: version,
	})
	require.NoError(t, err)

	assert.True(t, resp.Success)
	assert.Equal(t, "APPROVED", resp.Status)
	assert.Equal(t, 3, resp.Adjustments)
	assert.Equal(t, version+1, resp.Version)
	assert.Equal(t, "looks right", ic.DecisionNotes)

	require.Len(t, saved, 4)
	assert.True(t, saved[same.productID].Equal(decimal.NewFromInt(10)))
	assert.True(t, saved[over.productID].Equal(decimal.NewFromInt(8)))
	assert.True(t, saved[within.productID].Equal(decimal.RequireFromString("19.99")))
	assert.True(t, saved[missing.productID].Equal(decimal.NewFromInt(3)))

	approved := f.events.GetEventsByType(inventory.EventTypeInventoryCountApproved)
	require.Len(t, approved, 1)
	ev := approved[0].(*inventory.InventoryCountApprovedEvent)
	assert.Equal(t, 2, ev.Overages)
	assert.Equal(t, 0, ev.Shortages)

	assert.Equal(t, 1, f.lock.released)
	assert.Equal(t, []string{"applied"}, f.recorder.results)
	f.countRepo.AssertExpectations(t)
	f.stockRepo.AssertExpectations(t)
	f.adjRepo.AssertExpectations(t)
}

func TestCountApprovalService_Reject(t *testing.T) {
	f := newApprovalFixture()
	ic := newPendingCount(t, f.tenantID, f.warehouse, newLineSpec("A", "5", "4"))

	f.countRepo.On("FindByIDForTenant", mock.Anything, f.tenantID, ic.ID).Return(ic, nil)
	f.adjRepo.On("CreateAuditEntry", mock.Anything, mock.MatchedBy(func(e *inventory.CountAuditEntry) bool {
		return e.Action == inventory.AuditActionRejected && e.Adjustments == 0
	})).Return(nil)
	f.countRepo.On("Save", mock.Anything, ic).Return(nil)

	resp, err := f.service.Decide(context.Background(), f.tenantID, f.approver, inventory.ApprovalDecision{
		CountID:         ic.ID,
		Approved:        false,
		ExpectedVersion: ic.Version,
	})
	require.NoError(t, err)
	assert.Equal(t, "REJECTED", resp.Status)
	assert.Equal(t, 0, resp.Adjustments)
	assert.Empty(t, ic.DecisionNotes)

	f.stockRepo.AssertNotCalled(t, "FindByWarehouseAndProducts", mock.Anything, mock.Anything, mock.Anything, mock.Anything)
	f.stockRepo.AssertNotCalled(t, "Save", mock.Anything, mock.Anything)
	f.adjRepo.AssertNotCalled(t, "CreateAdjustments", mock.Anything, mock.Anything)
	assert.Len(t, f.events.GetEventsByType(inventory.EventTypeInventoryCountRejected), 1)
}

func TestCountApprovalService_StaleVersion(t *testing.T) {
	f := newApprovalFixture()
	ic := newPendingCount(t, f.tenantID, f.warehouse, newLineSpec("A", "5", "4"))

	f.countRepo.On("FindByIDForTenant", mock.Anything, f.tenantID, ic.ID).Return(ic, nil)

	_, err := f.service.Decide(context.Background(), f.tenantID, f.approver, inventory.ApprovalDecision{
		CountID:         ic.ID,
		Approved:        true,
		ExpectedVersion: ic.Version - 1,
	})
	require.Error(t, err)
	assert.True(t, shared.IsStaleState(err))
	assert.Equal(t, inventory.CountStatusPendingApproval, ic.Status)

	f.countRepo.AssertNotCalled(t, "Save", mock.Anything, mock.Anything)
	assert.Equal(t, 0, f.events.Count())
	assert.Equal(t, []string{shared.CodeStaleState}, f.recorder.results)
	assert.Equal(t, 1, f.lock.released)
}

func TestCountApprovalService_NotPending(t *testing.T) {
	f := newApprovalFixture()
	ic, err := inventory.NewInventoryCount(f.tenantID, f.warehouse, "Main", "IC-20260101-0002", time.Now(), uuid.New(), "Counter")
	require.NoError(t, err)
	ic.ClearDomainEvents()

	f.countRepo.On("FindByIDForTenant", mock.Anything, f.tenantID, ic.ID).Return(ic, nil)

	_, err = f.service.Decide(context.Background(), f.tenantID, f.approver, inventory.ApprovalDecision{
		CountID:  ic.ID,
		Approved: true,
	})
	require.Error(t, err)
	assert.Equal(t, shared.CodeInvalidState, shared.ErrorCode(err))
	f.countRepo.AssertNotCalled(t, "Save", mock.Anything, mock.Anything)
}

func TestCountApprovalService_DecisionInFlight(t *testing.T) {
	f := newApprovalFixture()
	countID := uuid.New()
	_, err := f.lock.Acquire(context.Background(), "count-decision:"+f.tenantID.String()+":"+countID.String(), time.Minute)
	require.NoError(t, err)

	_, err = f.service.Decide(context.Background(), f.tenantID, f.approver, inventory.ApprovalDecision{
		CountID:  countID,
		Approved: true,
	})
	assert.ErrorIs(t, err, shared.ErrDecisionInFlight)
	f.countRepo.AssertNotCalled(t, "FindByIDForTenant", mock.Anything, mock.Anything, mock.Anything)
}

func TestCountApprovalService_ConflictOnSaveIsStale(t *testing.T) {
	f := newApprovalFixture()
	ic := newPendingCount(t, f.tenantID, f.warehouse, newLineSpec("A", "5", "5"))

	f.countRepo.On("FindByIDForTenant", mock.Anything, f.tenantID, ic.ID).Return(ic, nil)
	f.adjRepo.On("CreateAuditEntry", mock.Anything, mock.Anything).Return(nil)
	f.countRepo.On("Save", mock.Anything, ic).Return(shared.ErrConcurrencyConflict)

	_, err := f.service.Decide(context.Background(), f.tenantID, f.approver, inventory.ApprovalDecision{
		CountID:         ic.ID,
		Approved:        false,
		ExpectedVersion: ic.Version,
	})
	require.Error(t, err)
	assert.True(t, shared.IsStaleState(err))
	assert.Equal(t, 0, f.events.Count())
}

func TestCountApprovalService_StockFailureAbortsDecision(t *testing.T) {
	f := newApprovalFixture()
	line := newLineSpec("A", "5", "6")
	ic := newPendingCount(t, f.tenantID, f.warehouse, line)

	f.countRepo.On("FindByIDForTenant", mock.Anything, f.tenantID, ic.ID).Return(ic, nil)
	f.stockRepo.On("FindByWarehouseAndProducts", mock.Anything, f.tenantID, f.warehouse, mock.Anything).
		Return([]inventory.StockLevel{stockLevelFor(t, f.tenantID, f.warehouse, line, "5")}, nil)
	f.stockRepo.On("Save", mock.Anything, mock.Anything).Return(errors.New("connection reset"))

	_, err := f.service.Decide(context.Background(), f.tenantID, f.approver, inventory.ApprovalDecision{
		CountID:         ic.ID,
		Approved:        true,
		ExpectedVersion: ic.Version,
	})
	require.Error(t, err)
	assert.Contains(t, err.Error(), "connection reset")

	f.adjRepo.AssertNotCalled(t, "CreateAdjustments", mock.Anything, mock.Anything)
	f.adjRepo.AssertNotCalled(t, "CreateAuditEntry", mock.Anything, mock.Anything)
	f.countRepo.AssertNotCalled(t, "Save", mock.Anything, mock.Anything)
	assert.Equal(t, 0, f.events.Count())
	assert.Equal(t, 1, f.lock.released)
}

func TestCountApprovalService_RequiresActor(t *testing.T) {
	f := newApprovalFixture()

	_, err := f.service.Decide(context.Background(), f.tenantID, Actor{}, inventory.ApprovalDecision{
		CountID:  uuid.New(),
		Approved: true,
	})
	assert.ErrorIs(t, err, shared.ErrUnauthorized)
}

func TestCountApprovalService_GetReview(t *testing.T) {
	f := newApprovalFixture()
	ic := newPendingCount(t, f.tenantID, f.warehouse,
		newLineSpec("A", "10", "10"),
		newLineSpec("B", "5", "8"),
	)
	f.countRepo.On("FindByIDForTenant", mock.Anything, f.tenantID, ic.ID).Return(ic, nil)

	review, err := f.service.GetReview(context.Background(), f.tenantID, ic.ID)
	require.NoError(t, err)
	assert.Equal(t, ic.Version, review.Version)
	assert.Len(t, review.Lines, 2)
	assert.Len(t, review.Preview, 1)
	assert.Equal(t, 0, review.Remaining)
	assert.Len(t, review.Summary.Overages, 1)

	snap := review.Snapshot()
	assert.Equal(t, ic.ID, snap.CountID)
	assert.True(t, snap.Lines[1].Actual.IsCounted())
}

func TestCountApprovalService_GateConfirmsThroughService(t *testing.T) {
	f := newApprovalFixture()
	line := newLineSpec("A", "5", "5")
	ic := newPendingCount(t, f.tenantID, f.warehouse, line)

	f.countRepo.On("FindByIDForTenant", mock.Anything, f.tenantID, ic.ID).Return(ic, nil)
	f.stockRepo.On("FindByWarehouseAndProducts", mock.Anything, f.tenantID, f.warehouse, mock.Anything).
		Return([]inventory.StockLevel{stockLevelFor(t, f.tenantID, f.warehouse, line, "5")}, nil)
	f.stockRepo.On("Save", mock.Anything, mock.Anything).Return(nil)
	f.adjRepo.On("CreateAuditEntry", mock.Anything, mock.Anything).Return(nil)
	f.countRepo.On("Save", mock.Anything, ic).Return(nil)

	gate, err := f.service.OpenReview(context.Background(), f.tenantID, f.approver, ic.ID)
	require.NoError(t, err)

	prompt, err := gate.RequestApproval()
	require.NoError(t, err)
	assert.Equal(t, 0, prompt.AdjustmentRecords)

	require.NoError(t, gate.Confirm(context.Background()))
	assert.Equal(t, inventory.GateResolved, gate.State())
	assert.Equal(t, inventory.OutcomeApproved, gate.Outcome())
	assert.Equal(t, inventory.CountStatusApproved, ic.Status)
	f.adjRepo.AssertNotCalled(t, "CreateAdjustments", mock.Anything, mock.Anything)
}

func TestCountApprovalService_GateSurfacesStaleState(t *testing.T) {
	f := newApprovalFixture()
	ic := newPendingCount(t, f.tenantID, f.warehouse, newLineSpec("A", "5", "4"))
	f.countRepo.On("FindByIDForTenant", mock.Anything, f.tenantID, ic.ID).Return(ic, nil)

	gate, err := f.service.OpenReview(context.Background(), f.tenantID, f.approver, ic.ID)
	require.NoError(t, err)

	// someone else touched the count after the review opened
	ic.IncrementVersion()

	require.NoError(t, gate.SetNotes("second look"))
	err = gate.Reject(context.Background())
	require.Error(t, err)
	assert.True(t, shared.IsStaleState(err))
	assert.Equal(t, inventory.GateIdle, gate.State())
	assert.Equal(t, "second look", gate.Notes())
}

func TestCountApprovalService_GetHistory(t *testing.T) {
	f := newApprovalFixture()
	ic := newPendingCount(t, f.tenantID, f.warehouse, newLineSpec("A", "5", "4"))
	f.countRepo.On("FindByIDForTenant", mock.Anything, f.tenantID, ic.ID).Return(ic, nil)
	f.adjRepo.On("FindAdjustmentsByCount", mock.Anything, f.tenantID, ic.ID).Return([]inventory.InventoryAdjustment{{
		ID:             uuid.New(),
		QuantityBefore: decimal.NewFromInt(5),
		QuantityAfter:  decimal.NewFromInt(4),
		Difference:     decimal.NewFromInt(-1),
	}}, nil)
	f.adjRepo.On("FindAuditEntriesByCount", mock.Anything, f.tenantID, ic.ID).Return([]inventory.CountAuditEntry{{
		ID:     uuid.New(),
		Action: inventory.AuditActionApproved,
	}}, nil)

	history, err := f.service.GetHistory(context.Background(), f.tenantID, ic.ID)
	require.NoError(t, err)
	require.Len(t, history.Adjustments, 1)
	assert.True(t, history.Adjustments[0].Difference.Equal(decimal.NewFromInt(-1)))
	require.Len(t, history.Audit, 1)
	assert.Equal(t, "APPROVED", history.Audit[0].Action)
}
