package inventory

import (
	"time"

	"github.com/erp/stockcount/internal/domain/inventory"
	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

// Actor is the authenticated user performing an operation.
type Actor struct {
	UserID uuid.UUID
	Name   string
}

// ===================== Request DTOs =====================

// CreateCountRequest opens a count session
type CreateCountRequest struct {
	WarehouseID   uuid.UUID  `json:"warehouse_id" binding:"required"`
	WarehouseName string     `json:"warehouse_name" binding:"max=200"`
	CountDate     *time.Time `json:"count_date"`
	TemplateID    *uuid.UUID `json:"template_id"`
	Notes         string     `json:"notes" binding:"max=1000"`
}

// RecordCountRequest records one line. A null actual_quantity clears the count.
type RecordCountRequest struct {
	ActualQuantity *decimal.Decimal `json:"actual_quantity" binding:"omitempty,decimal_gte0"`
	Notes          string           `json:"notes" binding:"max=500"`
}

// BulkCountEntry is one line of a bulk update
type BulkCountEntry struct {
	ItemID         uuid.UUID        `json:"item_id" binding:"required"`
	ActualQuantity *decimal.Decimal `json:"actual_quantity" binding:"omitempty,decimal_gte0"`
	Notes          string           `json:"notes" binding:"max=500"`
}

// BulkRecordCountsRequest records several lines at once
type BulkRecordCountsRequest struct {
	Counts []BulkCountEntry `json:"counts" binding:"required,min=1,dive"`
}

// CancelCountRequest abandons a count
type CancelCountRequest struct {
	Reason string `json:"reason" binding:"max=500"`
}

// DecisionRequest approves or rejects a pending count. ExpectedVersion is the
// count version the reviewer saw.
type DecisionRequest struct {
	Approved        *bool  `json:"approved" binding:"required"`
	Notes           string `json:"notes" binding:"max=1000"`
	ExpectedVersion int    `json:"expected_version" binding:"required,min=1"`
}

// CountListFilter represents filter options for count listings
type CountListFilter struct {
	Search      string                 `form:"search"`
	WarehouseID *uuid.UUID             `form:"warehouse_id"`
	Status      *inventory.CountStatus `form:"status"`
	StartDate   *time.Time             `form:"start_date" time_format:"2006-01-02"`
	EndDate     *time.Time             `form:"end_date" time_format:"2006-01-02"`
	Page        int                    `form:"page" binding:"omitempty,min=1"`
	PageSize    int                    `form:"page_size" binding:"omitempty,min=1,max=100"`
	OrderBy     string                 `form:"order_by"`
	OrderDir    string                 `form:"order_dir" binding:"omitempty,oneof=asc desc"`
}

// CountSheetRow is one row read from an uploaded count sheet.
type CountSheetRow struct {
	Row            int
	ProductCode    string
	ProductName    string
	ActualQuantity *decimal.Decimal
	Notes          string
}

// ===================== Response DTOs =====================

// CountItemResponse is a count line. ActualQuantity is null until counted.
type CountItemResponse struct {
	ID              uuid.UUID        `json:"id"`
	CountID         uuid.UUID        `json:"count_id"`
	ProductID       uuid.UUID        `json:"product_id"`
	ProductName     string           `json:"product_name"`
	ProductCode     string           `json:"product_code,omitempty"`
	Unit            string           `json:"unit,omitempty"`
	InStockQuantity decimal.Decimal  `json:"in_stock_quantity"`
	ActualQuantity  *decimal.Decimal `json:"actual_quantity"`
	Counted         bool             `json:"counted"`
	Difference      *decimal.Decimal `json:"difference,omitempty"`
	HasVariance     bool             `json:"has_variance"`
	UnitCost        decimal.Decimal  `json:"unit_cost"`
	MinimumQuantity *decimal.Decimal `json:"minimum_quantity,omitempty"`
	MaximumQuantity *decimal.Decimal `json:"maximum_quantity,omitempty"`
	CountedBy       *uuid.UUID       `json:"counted_by,omitempty"`
	CountedAt       *time.Time       `json:"counted_at,omitempty"`
	Notes           string           `json:"notes,omitempty"`
	UpdatedAt       time.Time        `json:"updated_at"`
}

// CountResponse is a count with its lines
type CountResponse struct {
	ID                   uuid.UUID           `json:"id"`
	TenantID             uuid.UUID           `json:"tenant_id"`
	CountNumber          string              `json:"count_number"`
	WarehouseID          uuid.UUID           `json:"warehouse_id"`
	WarehouseName        string              `json:"warehouse_name"`
	TemplateID           *uuid.UUID          `json:"template_id,omitempty"`
	Status               string              `json:"status"`
	CountDate            time.Time           `json:"count_date"`
	ConductedBy          uuid.UUID           `json:"conducted_by"`
	ConductedByName      string              `json:"conducted_by_name"`
	TotalItemsCount      int                 `json:"total_items_count"`
	CountedItemsCount    int                 `json:"counted_items_count"`
	CompletionPercentage decimal.Decimal     `json:"completion_percentage"`
	VarianceCount        int                 `json:"variance_count"`
	StartedAt            *time.Time          `json:"started_at,omitempty"`
	SubmittedAt          *time.Time          `json:"submitted_at,omitempty"`
	DecidedAt            *time.Time          `json:"decided_at,omitempty"`
	DecidedBy            *uuid.UUID          `json:"decided_by,omitempty"`
	DecidedByName        string              `json:"decided_by_name,omitempty"`
	DecisionNotes        string              `json:"decision_notes,omitempty"`
	ArchivedAt           *time.Time          `json:"archived_at,omitempty"`
	ArchiveKey           string              `json:"archive_key,omitempty"`
	Notes                string              `json:"notes,omitempty"`
	Items                []CountItemResponse `json:"items"`
	Version              int                 `json:"version"`
	CreatedAt            time.Time           `json:"created_at"`
	UpdatedAt            time.Time           `json:"updated_at"`
}

// CountListResponse is a count without lines
type CountListResponse struct {
	ID                   uuid.UUID       `json:"id"`
	CountNumber          string          `json:"count_number"`
	WarehouseID          uuid.UUID       `json:"warehouse_id"`
	WarehouseName        string          `json:"warehouse_name"`
	Status               string          `json:"status"`
	CountDate            time.Time       `json:"count_date"`
	ConductedByName      string          `json:"conducted_by_name"`
	TotalItemsCount      int             `json:"total_items_count"`
	CompletionPercentage decimal.Decimal `json:"completion_percentage"`
	VarianceCount        int             `json:"variance_count"`
	Version              int             `json:"version"`
	CreatedAt            time.Time       `json:"created_at"`
}

// ProgressResponse reports counting progress
type ProgressResponse struct {
	CountID              uuid.UUID       `json:"count_id"`
	Status               string          `json:"status"`
	TotalItems           int             `json:"total_items"`
	CountedItems         int             `json:"counted_items"`
	UncountedItems       int             `json:"uncounted_items"`
	VarianceItems        int             `json:"variance_items"`
	CompletionPercentage decimal.Decimal `json:"completion_percentage"`
}

// VarianceSummaryResponse is the computed variance view of a count
type VarianceSummaryResponse struct {
	CountID        uuid.UUID                  `json:"count_id"`
	CountNumber    string                     `json:"count_number"`
	Status         string                     `json:"status"`
	Version        int                        `json:"version"`
	Tolerance      decimal.Decimal            `json:"tolerance"`
	TotalItems     int                        `json:"total_items"`
	Variances      []inventory.VarianceRecord `json:"variances"`
	Overages       []inventory.VarianceRecord `json:"overages"`
	Shortages      []inventory.VarianceRecord `json:"shortages"`
	UncountedItems []uuid.UUID                `json:"uncounted_items"`
	NetVariance    decimal.Decimal            `json:"net_variance"`
}

// DecisionResponse reports a recorded decision
type DecisionResponse struct {
	Success     bool      `json:"success"`
	CountID     uuid.UUID `json:"count_id"`
	Status      string    `json:"status"`
	Version     int       `json:"version"`
	Adjustments int       `json:"adjustments"`
}

// ArchiveLinkResponse is a time-limited download link for a count archive
type ArchiveLinkResponse struct {
	CountID   uuid.UUID `json:"count_id"`
	Key       string    `json:"key"`
	URL       string    `json:"url"`
	ExpiresAt time.Time `json:"expires_at"`
}

// ImportResult summarizes a count sheet import
type ImportResult struct {
	Applied   int      `json:"applied"`
	Unmatched []string `json:"unmatched"`
}

// ===================== Mappers =====================

// ToCountItemResponse maps a count line
func ToCountItemResponse(item *inventory.InventoryCountItem) CountItemResponse {
	resp := CountItemResponse{
		ID:              item.ID,
		CountID:         item.CountID,
		ProductID:       item.ProductID,
		ProductName:     item.ProductName,
		ProductCode:     item.ProductCode,
		Unit:            item.Unit,
		InStockQuantity: item.ExpectedQuantity,
		ActualQuantity:  item.ActualQuantity.Ptr(),
		Counted:         item.IsCounted(),
		HasVariance:     item.HasVariance(),
		UnitCost:        item.UnitCost,
		MinimumQuantity: item.MinimumQuantity,
		MaximumQuantity: item.MaximumQuantity,
		CountedBy:       item.CountedBy,
		CountedAt:       item.CountedAt,
		Notes:           item.Notes,
		UpdatedAt:       item.UpdatedAt,
	}
	if diff, ok := item.Difference(); ok {
		resp.Difference = &diff
	}
	return resp
}

// ToCountResponse maps a count with its lines
func ToCountResponse(ic *inventory.InventoryCount) CountResponse {
	items := make([]CountItemResponse, len(ic.Items))
	for i := range ic.Items {
		items[i] = ToCountItemResponse(&ic.Items[i])
	}
	return CountResponse{
		ID:                   ic.ID,
		TenantID:             ic.TenantID,
		CountNumber:          ic.CountNumber,
		WarehouseID:          ic.WarehouseID,
		WarehouseName:        ic.WarehouseName,
		TemplateID:           ic.TemplateID,
		Status:               ic.Status.String(),
		CountDate:            ic.CountDate,
		ConductedBy:          ic.ConductedBy,
		ConductedByName:      ic.ConductedByName,
		TotalItemsCount:      ic.TotalItemsCount,
		CountedItemsCount:    ic.CountedItemsCount,
		CompletionPercentage: ic.CompletionPercentage,
		VarianceCount:        ic.VarianceCount,
		StartedAt:            ic.StartedAt,
		SubmittedAt:          ic.SubmittedAt,
		DecidedAt:            ic.DecidedAt,
		DecidedBy:            ic.DecidedBy,
		DecidedByName:        ic.DecidedByName,
		DecisionNotes:        ic.DecisionNotes,
		ArchivedAt:           ic.ArchivedAt,
		ArchiveKey:           ic.ArchiveKey,
		Notes:                ic.Notes,
		Items:                items,
		Version:              ic.Version,
		CreatedAt:            ic.CreatedAt,
		UpdatedAt:            ic.UpdatedAt,
	}
}

// ToCountListResponses maps counts for listings
func ToCountListResponses(counts []inventory.InventoryCount) []CountListResponse {
	out := make([]CountListResponse, len(counts))
	for i := range counts {
		ic := &counts[i]
		out[i] = CountListResponse{
			ID:                   ic.ID,
			CountNumber:          ic.CountNumber,
			WarehouseID:          ic.WarehouseID,
			WarehouseName:        ic.WarehouseName,
			Status:               ic.Status.String(),
			CountDate:            ic.CountDate,
			ConductedByName:      ic.ConductedByName,
			TotalItemsCount:      ic.TotalItemsCount,
			CompletionPercentage: ic.CompletionPercentage,
			VarianceCount:        ic.VarianceCount,
			Version:              ic.Version,
			CreatedAt:            ic.CreatedAt,
		}
	}
	return out
}

// ToVarianceSummaryResponse maps a freshly computed variance summary
func ToVarianceSummaryResponse(ic *inventory.InventoryCount, s inventory.VarianceSummary) VarianceSummaryResponse {
	return VarianceSummaryResponse{
		CountID:        ic.ID,
		CountNumber:    ic.CountNumber,
		Status:         ic.Status.String(),
		Version:        ic.Version,
		Tolerance:      inventory.VarianceTolerance,
		TotalItems:     s.TotalLines,
		Variances:      s.Variances,
		Overages:       s.Overages,
		Shortages:      s.Shortages,
		UncountedItems: s.Uncounted,
		NetVariance:    s.NetVariance(),
	}
}

// AdjustmentResponse is a stock adjustment written by an approval
type AdjustmentResponse struct {
	ID               uuid.UUID       `json:"id"`
	CountItemID      uuid.UUID       `json:"count_item_id"`
	ProductID        uuid.UUID       `json:"product_id"`
	QuantityBefore   decimal.Decimal `json:"quantity_before"`
	QuantityAfter    decimal.Decimal `json:"quantity_after"`
	Difference       decimal.Decimal `json:"difference"`
	DifferenceAmount decimal.Decimal `json:"difference_amount"`
	Reason           string          `json:"reason"`
	CreatedBy        uuid.UUID       `json:"created_by"`
	CreatedAt        time.Time       `json:"created_at"`
}

// AuditEntryResponse is a recorded decision
type AuditEntryResponse struct {
	ID            uuid.UUID `json:"id"`
	Action        string    `json:"action"`
	ActorID       uuid.UUID `json:"actor_id"`
	ActorName     string    `json:"actor_name"`
	Notes         string    `json:"notes,omitempty"`
	CountVersion  int       `json:"count_version"`
	VarianceCount int       `json:"variance_count"`
	Adjustments   int       `json:"adjustments"`
	CreatedAt     time.Time `json:"created_at"`
}

// DecisionHistoryResponse lists what a decision wrote
type DecisionHistoryResponse struct {
	CountID     uuid.UUID            `json:"count_id"`
	Adjustments []AdjustmentResponse `json:"adjustments"`
	Audit       []AuditEntryResponse `json:"audit"`
}

// ToDecisionHistoryResponse maps adjustment and audit rows
func ToDecisionHistoryResponse(countID uuid.UUID, adjustments []inventory.InventoryAdjustment, audit []inventory.CountAuditEntry) DecisionHistoryResponse {
	resp := DecisionHistoryResponse{
		CountID:     countID,
		Adjustments: make([]AdjustmentResponse, len(adjustments)),
		Audit:       make([]AuditEntryResponse, len(audit)),
	}
	for i, a := range adjustments {
		resp.Adjustments[i] = AdjustmentResponse{
			ID:               a.ID,
			CountItemID:      a.CountItemID,
			ProductID:        a.ProductID,
			QuantityBefore:   a.QuantityBefore,
			QuantityAfter:    a.QuantityAfter,
			Difference:       a.Difference,
			DifferenceAmount: a.DifferenceAmount,
			Reason:           a.Reason,
			CreatedBy:        a.CreatedBy,
			CreatedAt:        a.CreatedAt,
		}
	}
	for i, e := range audit {
		resp.Audit[i] = AuditEntryResponse{
			ID:            e.ID,
			Action:        string(e.Action),
			ActorID:       e.ActorID,
			ActorName:     e.ActorName,
			Notes:         e.Notes,
			CountVersion:  e.CountVersion,
			VarianceCount: e.VarianceCount,
			Adjustments:   e.Adjustments,
			CreatedAt:     e.CreatedAt,
		}
	}
	return resp
}

// ReviewLine is one line of a review snapshot. Actual is null when not counted.
type ReviewLine struct {
	ItemID    uuid.UUID        `json:"item_id"`
	ProductID uuid.UUID        `json:"product_id"`
	Name      string           `json:"name"`
	Expected  *decimal.Decimal `json:"expected"`
	Actual    *decimal.Decimal `json:"actual"`
}

// ReviewResponse is what an approver reviews before deciding
type ReviewResponse struct {
	CountID              uuid.UUID                  `json:"count_id"`
	CountNumber          string                     `json:"count_number"`
	Status               string                     `json:"status"`
	CountDate            time.Time                  `json:"count_date"`
	ConductedByName      string                     `json:"conducted_by_name"`
	TotalItemsCount      int                        `json:"total_items_count"`
	CompletionPercentage decimal.Decimal            `json:"completion_percentage"`
	Version              int                        `json:"version"`
	Lines                []ReviewLine               `json:"lines"`
	Summary              VarianceSummaryResponse    `json:"summary"`
	Preview              []inventory.VarianceRecord `json:"preview"`
	Remaining            int                        `json:"remaining"`
}

// ToReviewResponse maps a count under review
func ToReviewResponse(ic *inventory.InventoryCount) ReviewResponse {
	snap := inventory.SnapshotFromCount(ic)
	summary := inventory.CalculateVariances(snap.Lines)
	preview, remaining := summary.Preview(inventory.DefaultPreviewLimit)

	lines := make([]ReviewLine, len(snap.Lines))
	for i, l := range snap.Lines {
		lines[i] = ReviewLine{
			ItemID:    l.ItemID,
			ProductID: l.ProductID,
			Name:      l.Name,
			Expected:  l.Expected,
			Actual:    l.Actual.Ptr(),
		}
	}
	return ReviewResponse{
		CountID:              ic.ID,
		CountNumber:          ic.CountNumber,
		Status:               ic.Status.String(),
		CountDate:            ic.CountDate,
		ConductedByName:      ic.ConductedByName,
		TotalItemsCount:      ic.TotalItemsCount,
		CompletionPercentage: ic.CompletionPercentage,
		Version:              ic.Version,
		Lines:                lines,
		Summary:              ToVarianceSummaryResponse(ic, summary),
		Preview:              preview,
		Remaining:            remaining,
	}
}

// Snapshot rebuilds the review snapshot a gate is opened with.
func (r ReviewResponse) Snapshot() inventory.ReviewSnapshot {
	lines := make([]inventory.VarianceLine, len(r.Lines))
	for i, l := range r.Lines {
		lines[i] = inventory.VarianceLine{
			ItemID:    l.ItemID,
			ProductID: l.ProductID,
			Name:      l.Name,
			Expected:  l.Expected,
			Actual:    inventory.CountedFromPtr(l.Actual),
		}
	}
	return inventory.ReviewSnapshot{
		CountID:              r.CountID,
		CountNumber:          r.CountNumber,
		CountDate:            r.CountDate,
		ConductedByName:      r.ConductedByName,
		TotalItemsCount:      r.TotalItemsCount,
		CompletionPercentage: r.CompletionPercentage,
		Version:              r.Version,
		Lines:                lines,
	}
}
