package inventory

import (
	"github.com/erp/stockcount/internal/domain/shared"
	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

const AggregateTypeInventoryCount = "InventoryCount"

const (
	EventTypeInventoryCountCreated   = "InventoryCountCreated"
	EventTypeInventoryCountStarted   = "InventoryCountStarted"
	EventTypeInventoryCountSubmitted = "InventoryCountSubmitted"
	EventTypeInventoryCountApproved  = "InventoryCountApproved"
	EventTypeInventoryCountRejected  = "InventoryCountRejected"
	EventTypeInventoryCountCancelled = "InventoryCountCancelled"
	EventTypeInventoryCountArchived  = "InventoryCountArchived"
)

// InventoryCountCreatedEvent is raised when a count session is opened
type InventoryCountCreatedEvent struct {
	shared.BaseDomainEvent
	CountID     uuid.UUID `json:"count_id"`
	CountNumber string    `json:"count_number"`
	WarehouseID uuid.UUID `json:"warehouse_id"`
	ConductedBy uuid.UUID `json:"conducted_by"`
}

func NewInventoryCountCreatedEvent(ic *InventoryCount) *InventoryCountCreatedEvent {
	return &InventoryCountCreatedEvent{
		BaseDomainEvent: shared.NewBaseDomainEvent(EventTypeInventoryCountCreated, AggregateTypeInventoryCount, ic.ID, ic.TenantID),
		CountID:         ic.ID,
		CountNumber:     ic.CountNumber,
		WarehouseID:     ic.WarehouseID,
		ConductedBy:     ic.ConductedBy,
	}
}

// InventoryCountStartedEvent is raised when counting starts
type InventoryCountStartedEvent struct {
	shared.BaseDomainEvent
	CountID     uuid.UUID `json:"count_id"`
	CountNumber string    `json:"count_number"`
	TotalItems  int       `json:"total_items"`
}

func NewInventoryCountStartedEvent(ic *InventoryCount) *InventoryCountStartedEvent {
	return &InventoryCountStartedEvent{
		BaseDomainEvent: shared.NewBaseDomainEvent(EventTypeInventoryCountStarted, AggregateTypeInventoryCount, ic.ID, ic.TenantID),
		CountID:         ic.ID,
		CountNumber:     ic.CountNumber,
		TotalItems:      ic.TotalItemsCount,
	}
}

// InventoryCountSubmittedEvent is raised when a count waits for approval
type InventoryCountSubmittedEvent struct {
	shared.BaseDomainEvent
	CountID       uuid.UUID `json:"count_id"`
	CountNumber   string    `json:"count_number"`
	WarehouseID   uuid.UUID `json:"warehouse_id"`
	TotalItems    int       `json:"total_items"`
	VarianceItems int       `json:"variance_items"`
}

func NewInventoryCountSubmittedEvent(ic *InventoryCount) *InventoryCountSubmittedEvent {
	return &InventoryCountSubmittedEvent{
		BaseDomainEvent: shared.NewBaseDomainEvent(EventTypeInventoryCountSubmitted, AggregateTypeInventoryCount, ic.ID, ic.TenantID),
		CountID:         ic.ID,
		CountNumber:     ic.CountNumber,
		WarehouseID:     ic.WarehouseID,
		TotalItems:      ic.TotalItemsCount,
		VarianceItems:   ic.VarianceCount,
	}
}

// InventoryCountApprovedEvent is raised after counted quantities were applied to stock
type InventoryCountApprovedEvent struct {
	shared.BaseDomainEvent
	CountID     uuid.UUID        `json:"count_id"`
	CountNumber string           `json:"count_number"`
	WarehouseID uuid.UUID        `json:"warehouse_id"`
	ApprovedBy  uuid.UUID        `json:"approved_by"`
	Notes       string           `json:"notes,omitempty"`
	TotalItems  int              `json:"total_items"`
	Overages    int              `json:"overages"`
	Shortages   int              `json:"shortages"`
	NetVariance decimal.Decimal  `json:"net_variance"`
	Variances   []VarianceRecord `json:"variances"`
}

func NewInventoryCountApprovedEvent(ic *InventoryCount, summary VarianceSummary) *InventoryCountApprovedEvent {
	var approvedBy uuid.UUID
	if ic.DecidedBy != nil {
		approvedBy = *ic.DecidedBy
	}
	return &InventoryCountApprovedEvent{
		BaseDomainEvent: shared.NewBaseDomainEvent(EventTypeInventoryCountApproved, AggregateTypeInventoryCount, ic.ID, ic.TenantID),
		CountID:         ic.ID,
		CountNumber:     ic.CountNumber,
		WarehouseID:     ic.WarehouseID,
		ApprovedBy:      approvedBy,
		Notes:           ic.DecisionNotes,
		TotalItems:      ic.TotalItemsCount,
		Overages:        len(summary.Overages),
		Shortages:       len(summary.Shortages),
		NetVariance:     summary.NetVariance(),
		Variances:       summary.Variances,
	}
}

// InventoryCountRejectedEvent is raised when an approver rejects a count
type InventoryCountRejectedEvent struct {
	shared.BaseDomainEvent
	CountID     uuid.UUID `json:"count_id"`
	CountNumber string    `json:"count_number"`
	RejectedBy  uuid.UUID `json:"rejected_by"`
	Notes       string    `json:"notes,omitempty"`
}

func NewInventoryCountRejectedEvent(ic *InventoryCount) *InventoryCountRejectedEvent {
	var rejectedBy uuid.UUID
	if ic.DecidedBy != nil {
		rejectedBy = *ic.DecidedBy
	}
	return &InventoryCountRejectedEvent{
		BaseDomainEvent: shared.NewBaseDomainEvent(EventTypeInventoryCountRejected, AggregateTypeInventoryCount, ic.ID, ic.TenantID),
		CountID:         ic.ID,
		CountNumber:     ic.CountNumber,
		RejectedBy:      rejectedBy,
		Notes:           ic.DecisionNotes,
	}
}

// InventoryCountCancelledEvent is raised when a count is abandoned before submission
type InventoryCountCancelledEvent struct {
	shared.BaseDomainEvent
	CountID     uuid.UUID `json:"count_id"`
	CountNumber string    `json:"count_number"`
	Reason      string    `json:"reason,omitempty"`
}

func NewInventoryCountCancelledEvent(ic *InventoryCount, reason string) *InventoryCountCancelledEvent {
	return &InventoryCountCancelledEvent{
		BaseDomainEvent: shared.NewBaseDomainEvent(EventTypeInventoryCountCancelled, AggregateTypeInventoryCount, ic.ID, ic.TenantID),
		CountID:         ic.ID,
		CountNumber:     ic.CountNumber,
		Reason:          reason,
	}
}

// InventoryCountArchivedEvent is raised once the decided count snapshot is stored
type InventoryCountArchivedEvent struct {
	shared.BaseDomainEvent
	CountID    uuid.UUID `json:"count_id"`
	ArchiveKey string    `json:"archive_key"`
}

func NewInventoryCountArchivedEvent(ic *InventoryCount) *InventoryCountArchivedEvent {
	return &InventoryCountArchivedEvent{
		BaseDomainEvent: shared.NewBaseDomainEvent(EventTypeInventoryCountArchived, AggregateTypeInventoryCount, ic.ID, ic.TenantID),
		CountID:         ic.ID,
		ArchiveKey:      ic.ArchiveKey,
	}
}
