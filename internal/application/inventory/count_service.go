package inventory

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/erp/stockcount/internal/domain/inventory"
	"github.com/erp/stockcount/internal/domain/shared"
	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

// CountService provides application services for the count lifecycle up to
// submission. Decisions go through CountApprovalService.
type CountService struct {
	countRepo    inventory.InventoryCountRepository
	templateRepo inventory.CountTemplateRepository
	stockRepo    inventory.StockLevelRepository
	eventBus     shared.EventPublisher
}

// NewCountService creates a new CountService
func NewCountService(
	countRepo inventory.InventoryCountRepository,
	templateRepo inventory.CountTemplateRepository,
	stockRepo inventory.StockLevelRepository,
	eventBus shared.EventPublisher,
) *CountService {
	return &CountService{
		countRepo:    countRepo,
		templateRepo: templateRepo,
		stockRepo:    stockRepo,
		eventBus:     eventBus,
	}
}

// ===================== Query Methods =====================

// GetByID retrieves a count with its lines
func (s *CountService) GetByID(ctx context.Context, tenantID, id uuid.UUID) (*CountResponse, error) {
	ic, err := s.countRepo.FindByIDForTenant(ctx, tenantID, id)
	if err != nil {
		return nil, err
	}

	response := ToCountResponse(ic)
	return &response, nil
}

// GetByCountNumber retrieves a count by its number
func (s *CountService) GetByCountNumber(ctx context.Context, tenantID uuid.UUID, countNumber string) (*CountResponse, error) {
	ic, err := s.countRepo.FindByCountNumber(ctx, tenantID, countNumber)
	if err != nil {
		return nil, err
	}

	response := ToCountResponse(ic)
	return &response, nil
}

// List retrieves a paginated list of counts
func (s *CountService) List(ctx context.Context, tenantID uuid.UUID, filter CountListFilter) ([]CountListResponse, int64, error) {
	domainFilter := inventory.CountFilter{
		Filter: shared.Filter{
			Page:     filter.Page,
			PageSize: filter.PageSize,
			OrderBy:  filter.OrderBy,
			OrderDir: filter.OrderDir,
			Search:   filter.Search,
		},
		WarehouseID: filter.WarehouseID,
		Status:      filter.Status,
		StartDate:   filter.StartDate,
		EndDate:     filter.EndDate,
	}
	if domainFilter.Page == 0 {
		domainFilter.Page = 1
	}
	if domainFilter.PageSize == 0 {
		domainFilter.PageSize = 20
	}

	total, err := s.countRepo.CountForTenant(ctx, tenantID, domainFilter)
	if err != nil {
		return nil, 0, err
	}

	counts, err := s.countRepo.FindAllForTenant(ctx, tenantID, domainFilter)
	if err != nil {
		return nil, 0, err
	}

	return ToCountListResponses(counts), total, nil
}

// GetProgress reports counting progress
func (s *CountService) GetProgress(ctx context.Context, tenantID, id uuid.UUID) (*ProgressResponse, error) {
	ic, err := s.countRepo.FindByIDForTenant(ctx, tenantID, id)
	if err != nil {
		return nil, err
	}

	p := ic.Progress()
	return &ProgressResponse{
		CountID:              ic.ID,
		Status:               ic.Status.String(),
		TotalItems:           p.TotalItems,
		CountedItems:         p.CountedItems,
		UncountedItems:       p.UncountedItems,
		VarianceItems:        p.VarianceItems,
		CompletionPercentage: p.CompletionPercentage,
	}, nil
}

// GetVariances computes the variance summary from the stored lines
func (s *CountService) GetVariances(ctx context.Context, tenantID, id uuid.UUID) (*VarianceSummaryResponse, error) {
	ic, err := s.countRepo.FindByIDForTenant(ctx, tenantID, id)
	if err != nil {
		return nil, err
	}

	response := ToVarianceSummaryResponse(ic, ic.Variances())
	return &response, nil
}

// ===================== Command Methods =====================

// Create opens a count in DRAFT
func (s *CountService) Create(ctx context.Context, tenantID uuid.UUID, actor Actor, req CreateCountRequest) (*CountResponse, error) {
	countNumber, err := s.countRepo.GenerateCountNumber(ctx, tenantID)
	if err != nil {
		return nil, err
	}

	countDate := time.Now()
	if req.CountDate != nil {
		countDate = *req.CountDate
	}

	ic, err := inventory.NewInventoryCount(tenantID, req.WarehouseID, req.WarehouseName, countNumber, countDate, actor.UserID, actor.Name)
	if err != nil {
		return nil, err
	}
	ic.Notes = req.Notes

	if req.TemplateID != nil {
		tpl, err := s.templateRepo.FindByIDForTenant(ctx, tenantID, *req.TemplateID)
		if err != nil {
			return nil, err
		}
		if !tpl.IsActive {
			return nil, shared.NewDomainError("TEMPLATE_INACTIVE", "Template is inactive")
		}
		if tpl.WarehouseID != req.WarehouseID {
			return nil, shared.NewDomainError("TEMPLATE_WAREHOUSE_MISMATCH", "Template belongs to another warehouse")
		}
		if err := ic.UseTemplate(tpl.ID); err != nil {
			return nil, err
		}
	}

	if err := s.countRepo.Save(ctx, ic); err != nil {
		return nil, err
	}

	s.publishEvents(ctx, ic)

	response := ToCountResponse(ic)
	return &response, nil
}

// InitializeItems snapshots the lines of a draft, from its template when it
// has one and from every active stock level of the warehouse otherwise.
func (s *CountService) InitializeItems(ctx context.Context, tenantID, id uuid.UUID) (*CountResponse, error) {
	ic, err := s.countRepo.FindByIDForTenant(ctx, tenantID, id)
	if err != nil {
		return nil, err
	}

	inputs, err := s.itemInputs(ctx, ic)
	if err != nil {
		return nil, err
	}
	if err := ic.InitializeItems(inputs); err != nil {
		return nil, err
	}

	if err := s.countRepo.Save(ctx, ic); err != nil {
		return nil, err
	}

	response := ToCountResponse(ic)
	return &response, nil
}

func (s *CountService) itemInputs(ctx context.Context, ic *inventory.InventoryCount) ([]inventory.CountItemInput, error) {
	if ic.TemplateID != nil {
		tpl, err := s.templateRepo.FindByIDForTenant(ctx, ic.TenantID, *ic.TemplateID)
		if err != nil {
			return nil, err
		}
		productIDs := make([]uuid.UUID, len(tpl.Items))
		for i, item := range tpl.Items {
			productIDs[i] = item.ProductID
		}
		levels, err := s.stockRepo.FindByWarehouseAndProducts(ctx, ic.TenantID, ic.WarehouseID, productIDs)
		if err != nil {
			return nil, err
		}
		return tpl.CountItemInputs(inventory.StockLevelsByProduct(levels)), nil
	}

	levels, err := s.stockRepo.FindByWarehouse(ctx, ic.TenantID, ic.WarehouseID, true)
	if err != nil {
		return nil, err
	}
	inputs := make([]inventory.CountItemInput, len(levels))
	for i, l := range levels {
		inputs[i] = inventory.CountItemInput{
			ProductID:        l.ProductID,
			ProductName:      l.ProductName,
			ProductCode:      l.ProductCode,
			Unit:             l.Unit,
			ExpectedQuantity: l.Quantity,
			UnitCost:         l.UnitCost,
		}
	}
	return inputs, nil
}

// RepairExpectedQuantities re-reads current stock for every line of an open
// count and returns how many lines changed.
func (s *CountService) RepairExpectedQuantities(ctx context.Context, tenantID, id uuid.UUID) (int, error) {
	ic, err := s.countRepo.FindByIDForTenant(ctx, tenantID, id)
	if err != nil {
		return 0, err
	}

	productIDs := make([]uuid.UUID, len(ic.Items))
	for i, item := range ic.Items {
		productIDs[i] = item.ProductID
	}
	levels, err := s.stockRepo.FindByWarehouseAndProducts(ctx, tenantID, ic.WarehouseID, productIDs)
	if err != nil {
		return 0, err
	}
	expected := make(map[uuid.UUID]decimal.Decimal, len(levels))
	for _, l := range levels {
		expected[l.ProductID] = l.Quantity
	}

	repaired, err := ic.RepairExpectedQuantities(expected)
	if err != nil {
		return 0, err
	}
	if repaired == 0 {
		return 0, nil
	}

	if err := s.countRepo.Save(ctx, ic); err != nil {
		return 0, err
	}
	return repaired, nil
}

// StartCounting moves a draft to IN_PROGRESS
func (s *CountService) StartCounting(ctx context.Context, tenantID, id uuid.UUID) (*CountResponse, error) {
	ic, err := s.countRepo.FindByIDForTenant(ctx, tenantID, id)
	if err != nil {
		return nil, err
	}

	if err := ic.StartCounting(); err != nil {
		return nil, err
	}

	if err := s.countRepo.Save(ctx, ic); err != nil {
		return nil, err
	}

	s.publishEvents(ctx, ic)

	response := ToCountResponse(ic)
	return &response, nil
}

// RecordItemCount records or clears the count of one line
func (s *CountService) RecordItemCount(ctx context.Context, tenantID, id, itemID uuid.UUID, actor Actor, req RecordCountRequest) (*CountResponse, error) {
	ic, err := s.countRepo.FindByIDForTenant(ctx, tenantID, id)
	if err != nil {
		return nil, err
	}

	if err := ic.RecordItemCount(itemID, inventory.CountedFromPtr(req.ActualQuantity), actor.UserID, req.Notes); err != nil {
		return nil, err
	}

	if err := s.countRepo.Save(ctx, ic); err != nil {
		return nil, err
	}

	response := ToCountResponse(ic)
	return &response, nil
}

// BulkRecordCounts records several lines, all or nothing
func (s *CountService) BulkRecordCounts(ctx context.Context, tenantID, id uuid.UUID, actor Actor, req BulkRecordCountsRequest) (*CountResponse, error) {
	ic, err := s.countRepo.FindByIDForTenant(ctx, tenantID, id)
	if err != nil {
		return nil, err
	}

	entries := make([]inventory.CountEntry, len(req.Counts))
	for i, c := range req.Counts {
		entries[i] = inventory.CountEntry{
			ItemID:   c.ItemID,
			Quantity: inventory.CountedFromPtr(c.ActualQuantity),
			Notes:    c.Notes,
		}
	}
	if err := ic.RecordItemCounts(entries, actor.UserID); err != nil {
		return nil, err
	}

	if err := s.countRepo.Save(ctx, ic); err != nil {
		return nil, err
	}

	response := ToCountResponse(ic)
	return &response, nil
}

// ImportCounts applies rows read from a count sheet. Rows are matched to
// lines by product code, then by product name; rows with an empty quantity
// are skipped and unmatched rows are reported back.
func (s *CountService) ImportCounts(ctx context.Context, tenantID, id uuid.UUID, actor Actor, rows []CountSheetRow) (*ImportResult, error) {
	ic, err := s.countRepo.FindByIDForTenant(ctx, tenantID, id)
	if err != nil {
		return nil, err
	}

	byCode := make(map[string]uuid.UUID, len(ic.Items))
	byName := make(map[string]uuid.UUID, len(ic.Items))
	for _, item := range ic.Items {
		if item.ProductCode != "" {
			byCode[strings.ToLower(item.ProductCode)] = item.ID
		}
		byName[strings.ToLower(item.ProductName)] = item.ID
	}

	result := &ImportResult{Unmatched: make([]string, 0)}
	entries := make([]inventory.CountEntry, 0, len(rows))
	for _, row := range rows {
		if row.ActualQuantity == nil {
			continue
		}
		itemID, ok := byCode[strings.ToLower(strings.TrimSpace(row.ProductCode))]
		if !ok {
			itemID, ok = byName[strings.ToLower(strings.TrimSpace(row.ProductName))]
		}
		if !ok {
			result.Unmatched = append(result.Unmatched, fmt.Sprintf("row %d: %s %s", row.Row, row.ProductCode, row.ProductName))
			continue
		}
		entries = append(entries, inventory.CountEntry{
			ItemID:   itemID,
			Quantity: inventory.Counted(*row.ActualQuantity),
			Notes:    row.Notes,
		})
	}
	if len(entries) == 0 {
		return result, nil
	}

	if err := ic.RecordItemCounts(entries, actor.UserID); err != nil {
		return nil, err
	}
	if err := s.countRepo.Save(ctx, ic); err != nil {
		return nil, err
	}

	result.Applied = len(entries)
	return result, nil
}

// Submit hands a fully counted count to an approver
func (s *CountService) Submit(ctx context.Context, tenantID, id uuid.UUID) (*CountResponse, error) {
	ic, err := s.countRepo.FindByIDForTenant(ctx, tenantID, id)
	if err != nil {
		return nil, err
	}

	if err := ic.SubmitForApproval(); err != nil {
		return nil, err
	}

	if err := s.countRepo.Save(ctx, ic); err != nil {
		return nil, err
	}

	s.publishEvents(ctx, ic)

	response := ToCountResponse(ic)
	return &response, nil
}

// Cancel abandons a count that was not submitted
func (s *CountService) Cancel(ctx context.Context, tenantID, id uuid.UUID, req CancelCountRequest) (*CountResponse, error) {
	ic, err := s.countRepo.FindByIDForTenant(ctx, tenantID, id)
	if err != nil {
		return nil, err
	}

	if err := ic.Cancel(req.Reason); err != nil {
		return nil, err
	}

	if err := s.countRepo.Save(ctx, ic); err != nil {
		return nil, err
	}

	s.publishEvents(ctx, ic)

	response := ToCountResponse(ic)
	return &response, nil
}

// ===================== Helper Methods =====================

func (s *CountService) publishEvents(ctx context.Context, ic *inventory.InventoryCount) {
	publishEvents(ctx, s.eventBus, ic)
}

func publishEvents(ctx context.Context, bus shared.EventPublisher, agg shared.AggregateRoot) {
	if bus == nil {
		agg.ClearDomainEvents()
		return
	}

	for _, event := range agg.GetDomainEvents() {
		_ = bus.Publish(ctx, event)
	}
	agg.ClearDomainEvents()
}
