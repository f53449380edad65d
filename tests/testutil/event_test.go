package testutil

import (
	"context"
	"sync/atomic"
	"testing"
	"time"

	"github.com/erp/stockcount/internal/domain/shared"
	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type testEvent struct {
	shared.BaseDomainEvent
}

func newTestEvent(eventType string, countID uuid.UUID) *testEvent {
	return &testEvent{BaseDomainEvent: shared.NewBaseDomainEvent(eventType, "InventoryCount", countID, uuid.New())}
}

func TestEventRecorder_Handle(t *testing.T) {
	r := NewEventRecorder("InventoryCountApproved")
	assert.Equal(t, []string{"InventoryCountApproved"}, r.EventTypes())

	countID := uuid.New()
	require.NoError(t, r.Handle(context.Background(), newTestEvent("InventoryCountApproved", countID)))
	require.NoError(t, r.Handle(context.Background(), newTestEvent("InventoryCountRejected", uuid.New())))

	assert.Equal(t, []string{"InventoryCountApproved", "InventoryCountRejected"}, r.Types())
	assert.Len(t, r.Handled(), 2)
	require.Len(t, r.ForAggregate(countID), 1)
	assert.Equal(t, "InventoryCountApproved", r.ForAggregate(countID)[0].EventType())
}

func TestEventRecorder_SetError(t *testing.T) {
	r := NewEventRecorder()
	r.SetError(assert.AnError)

	err := r.Handle(context.Background(), newTestEvent("InventoryCountSubmitted", uuid.New()))

	assert.Equal(t, assert.AnError, err)
	assert.Len(t, r.Handled(), 1)
}

func TestWaitForCondition(t *testing.T) {
	t.Run("condition met", func(t *testing.T) {
		var flag atomic.Bool
		go func() {
			time.Sleep(20 * time.Millisecond)
			flag.Store(true)
		}()

		assert.True(t, WaitForCondition(t, flag.Load, 500*time.Millisecond, 5*time.Millisecond))
	})

	t.Run("condition not met within timeout", func(t *testing.T) {
		assert.False(t, WaitForCondition(t, func() bool { return false }, 30*time.Millisecond, 10*time.Millisecond))
	})
}

func TestWaitForEventCount(t *testing.T) {
	r := NewEventRecorder()

	go func() {
		time.Sleep(20 * time.Millisecond)
		_ = r.Handle(context.Background(), newTestEvent("InventoryCountApproved", uuid.New()))
		_ = r.Handle(context.Background(), newTestEvent("InventoryCountArchived", uuid.New()))
	}()

	assert.True(t, WaitForEventCount(t, r, 2, 500*time.Millisecond))
}
