package inventory

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/erp/stockcount/internal/domain/inventory"
	"github.com/erp/stockcount/internal/domain/shared"
	"go.uber.org/zap"
)

// ErrRendererUnavailable is returned when PDF rendering is not configured.
var ErrRendererUnavailable = shared.NewDomainError("RENDERER_UNAVAILABLE", "Count sheet rendering is not configured")

// ObjectStorage stores archive files.
type ObjectStorage interface {
	Upload(ctx context.Context, storageKey string, data []byte, contentType string) error
}

// CountArchive is the JSON snapshot stored for a decided count.
type CountArchive struct {
	Count   CountResponse           `json:"count"`
	History DecisionHistoryResponse `json:"history"`
}

// CountArchiveHandler exports decided counts to object storage and marks
// them archived. It subscribes to approval and rejection events.
type CountArchiveHandler struct {
	countRepo      inventory.InventoryCountRepository
	adjustmentRepo inventory.AdjustmentRepository
	storage        ObjectStorage
	reports        VarianceReportWriter
	eventBus       shared.EventPublisher
	logger         *zap.Logger
}

// NewCountArchiveHandler creates a new CountArchiveHandler
func NewCountArchiveHandler(
	countRepo inventory.InventoryCountRepository,
	adjustmentRepo inventory.AdjustmentRepository,
	storage ObjectStorage,
	reports VarianceReportWriter,
	eventBus shared.EventPublisher,
	logger *zap.Logger,
) *CountArchiveHandler {
	return &CountArchiveHandler{
		countRepo:      countRepo,
		adjustmentRepo: adjustmentRepo,
		storage:        storage,
		reports:        reports,
		eventBus:       eventBus,
		logger:         logger,
	}
}

// EventTypes returns the event types this handler subscribes to
func (h *CountArchiveHandler) EventTypes() []string {
	return []string{
		inventory.EventTypeInventoryCountApproved,
		inventory.EventTypeInventoryCountRejected,
	}
}

// Handle archives the count referenced by the event
func (h *CountArchiveHandler) Handle(ctx context.Context, event shared.DomainEvent) error {
	ic, err := h.countRepo.FindByIDForTenant(ctx, event.TenantID(), event.AggregateID())
	if err != nil {
		return fmt.Errorf("load count %s for archive: %w", event.AggregateID(), err)
	}
	if ic.ArchivedAt != nil {
		return nil
	}

	prefix := fmt.Sprintf("counts/%s/%s", ic.TenantID, ic.CountNumber)

	adjustments, err := h.adjustmentRepo.FindAdjustmentsByCount(ctx, ic.TenantID, ic.ID)
	if err != nil {
		return err
	}
	audit, err := h.adjustmentRepo.FindAuditEntriesByCount(ctx, ic.TenantID, ic.ID)
	if err != nil {
		return err
	}
	snapshot, err := json.Marshal(CountArchive{
		Count:   ToCountResponse(ic),
		History: ToDecisionHistoryResponse(ic.ID, adjustments, audit),
	})
	if err != nil {
		return fmt.Errorf("marshal count archive: %w", err)
	}
	snapshotKey := prefix + "/snapshot.json"
	if err := h.storage.Upload(ctx, snapshotKey, snapshot, ContentTypeJSON); err != nil {
		return fmt.Errorf("upload %s: %w", snapshotKey, err)
	}

	if h.reports != nil {
		report, err := buildVarianceReport(h.reports, ic)
		if err != nil {
			return err
		}
		if err := h.storage.Upload(ctx, prefix+"/variances.xlsx", report, ContentTypeXLSX); err != nil {
			return fmt.Errorf("upload variance report: %w", err)
		}
	}

	if err := ic.MarkArchived(snapshotKey); err != nil {
		return err
	}
	if err := h.countRepo.Save(ctx, ic); err != nil {
		return err
	}

	h.logger.Info("count archived",
		zap.String("count_id", ic.ID.String()),
		zap.String("count_number", ic.CountNumber),
		zap.String("archive_key", snapshotKey))

	publishEvents(ctx, h.eventBus, ic)
	return nil
}

var _ shared.EventHandler = (*CountArchiveHandler)(nil)
