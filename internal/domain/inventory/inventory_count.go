package inventory

import (
	"fmt"
	"time"

	"github.com/erp/stockcount/internal/domain/shared"
	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

// CountStatus is the lifecycle state of an inventory count.
type CountStatus string

const (
	CountStatusDraft           CountStatus = "DRAFT"
	CountStatusInProgress      CountStatus = "IN_PROGRESS"
	CountStatusPendingApproval CountStatus = "PENDING_APPROVAL"
	CountStatusApproved        CountStatus = "APPROVED"
	CountStatusRejected        CountStatus = "REJECTED"
	CountStatusCancelled       CountStatus = "CANCELLED"
)

// IsValid checks if the status is a known CountStatus
func (s CountStatus) IsValid() bool {
	switch s {
	case CountStatusDraft, CountStatusInProgress, CountStatusPendingApproval,
		CountStatusApproved, CountStatusRejected, CountStatusCancelled:
		return true
	}
	return false
}

func (s CountStatus) String() string {
	return string(s)
}

// IsDecided reports whether an approval decision has been recorded.
func (s CountStatus) IsDecided() bool {
	return s == CountStatusApproved || s == CountStatusRejected
}

// CanTransitionTo checks if the status can transition to the target status
func (s CountStatus) CanTransitionTo(target CountStatus) bool {
	switch s {
	case CountStatusDraft:
		return target == CountStatusInProgress || target == CountStatusCancelled
	case CountStatusInProgress:
		return target == CountStatusPendingApproval || target == CountStatusCancelled
	case CountStatusPendingApproval:
		return target == CountStatusApproved || target == CountStatusRejected
	}
	return false
}

// InventoryCountItem is one line of a count. ExpectedQuantity is the stock
// level snapshotted when the line was created.
type InventoryCountItem struct {
	ID               uuid.UUID
	CountID          uuid.UUID
	ProductID        uuid.UUID
	ProductName      string
	ProductCode      string
	Unit             string
	ExpectedQuantity decimal.Decimal
	ActualQuantity   CountedQuantity
	UnitCost         decimal.Decimal
	MinimumQuantity  *decimal.Decimal
	MaximumQuantity  *decimal.Decimal
	CountedBy        *uuid.UUID
	CountedAt        *time.Time
	Notes            string
	CreatedAt        time.Time
	UpdatedAt        time.Time
}

// CountItemInput describes a line to add to a count.
type CountItemInput struct {
	ProductID        uuid.UUID
	ProductName      string
	ProductCode      string
	Unit             string
	ExpectedQuantity decimal.Decimal
	UnitCost         decimal.Decimal
	MinimumQuantity  *decimal.Decimal
	MaximumQuantity  *decimal.Decimal
}

func newCountItem(countID uuid.UUID, in CountItemInput) InventoryCountItem {
	now := time.Now()
	return InventoryCountItem{
		ID:               uuid.New(),
		CountID:          countID,
		ProductID:        in.ProductID,
		ProductName:      in.ProductName,
		ProductCode:      in.ProductCode,
		Unit:             in.Unit,
		ExpectedQuantity: in.ExpectedQuantity,
		ActualQuantity:   NotCounted(),
		UnitCost:         in.UnitCost,
		MinimumQuantity:  in.MinimumQuantity,
		MaximumQuantity:  in.MaximumQuantity,
		CreatedAt:        now,
		UpdatedAt:        now,
	}
}

// RecordCount stores the counted quantity. Passing NotCounted clears a previous count.
func (i *InventoryCountItem) RecordCount(qty CountedQuantity, countedBy uuid.UUID, notes string) error {
	if v, ok := qty.Value(); ok && v.IsNegative() {
		return shared.NewDomainError("INVALID_QUANTITY", "Actual quantity cannot be negative")
	}

	now := time.Now()
	i.ActualQuantity = qty
	if qty.IsCounted() {
		i.CountedAt = &now
		if countedBy != uuid.Nil {
			i.CountedBy = &countedBy
		}
	} else {
		i.CountedAt = nil
		i.CountedBy = nil
	}
	i.Notes = notes
	i.UpdatedAt = now
	return nil
}

// IsCounted reports whether the line has a recorded count.
func (i *InventoryCountItem) IsCounted() bool {
	return i.ActualQuantity.IsCounted()
}

// Difference returns actual - expected for a counted line.
func (i *InventoryCountItem) Difference() (decimal.Decimal, bool) {
	actual, ok := i.ActualQuantity.Value()
	if !ok {
		return decimal.Zero, false
	}
	return actual.Sub(i.ExpectedQuantity), true
}

// HasVariance reports a counted line outside the tolerance.
func (i *InventoryCountItem) HasVariance() bool {
	actual, ok := i.ActualQuantity.Value()
	return ok && ExceedsTolerance(i.ExpectedQuantity, actual)
}

// VarianceLine converts the line to calculator input.
func (i *InventoryCountItem) VarianceLine() VarianceLine {
	expected := i.ExpectedQuantity
	return VarianceLine{
		ItemID:    i.ID,
		ProductID: i.ProductID,
		Name:      i.ProductName,
		Expected:  &expected,
		Actual:    i.ActualQuantity,
	}
}

// InventoryCount is one physical stock-take of a warehouse and the aggregate
// root for its lines. Lines can only change while the count is a draft or in
// progress; after submission only status, decision and archive fields move.
type InventoryCount struct {
	shared.TenantAggregateRoot
	CountNumber          string
	WarehouseID          uuid.UUID
	WarehouseName        string
	TemplateID           *uuid.UUID
	Status               CountStatus
	CountDate            time.Time
	ConductedBy          uuid.UUID
	ConductedByName      string
	TotalItemsCount      int
	CountedItemsCount    int
	CompletionPercentage decimal.Decimal
	VarianceCount        int
	StartedAt            *time.Time
	SubmittedAt          *time.Time
	DecidedAt            *time.Time
	DecidedBy            *uuid.UUID
	DecidedByName        string
	DecisionNotes        string
	ArchivedAt           *time.Time
	ArchiveKey           string
	Notes                string
	Items                []InventoryCountItem
}

// NewInventoryCount creates a count in DRAFT.
func NewInventoryCount(tenantID, warehouseID uuid.UUID, warehouseName, countNumber string, countDate time.Time, conductedBy uuid.UUID, conductedByName string) (*InventoryCount, error) {
	if warehouseID == uuid.Nil {
		return nil, shared.NewDomainError("INVALID_WAREHOUSE", "Warehouse ID cannot be empty")
	}
	if countNumber == "" {
		return nil, shared.NewDomainError("INVALID_COUNT_NUMBER", "Count number cannot be empty")
	}
	if conductedBy == uuid.Nil {
		return nil, shared.NewDomainError("INVALID_CONDUCTOR", "The user conducting the count is required")
	}
	if countDate.IsZero() {
		countDate = time.Now()
	}

	ic := &InventoryCount{
		TenantAggregateRoot:  shared.NewTenantAggregateRoot(tenantID),
		CountNumber:          countNumber,
		WarehouseID:          warehouseID,
		WarehouseName:        warehouseName,
		Status:               CountStatusDraft,
		CountDate:            countDate,
		ConductedBy:          conductedBy,
		ConductedByName:      conductedByName,
		CompletionPercentage: decimal.Zero,
		Items:                make([]InventoryCountItem, 0),
	}
	ic.SetCreatedBy(conductedBy)

	ic.AddDomainEvent(NewInventoryCountCreatedEvent(ic))

	return ic, nil
}

// UseTemplate binds the count to a template before any line exists.
func (ic *InventoryCount) UseTemplate(templateID uuid.UUID) error {
	if ic.Status != CountStatusDraft || len(ic.Items) > 0 {
		return shared.NewDomainError("INVALID_STATUS", "A template can only be set on an empty draft count")
	}
	ic.TemplateID = &templateID
	ic.IncrementVersion()
	return nil
}

// AddItem appends one line while the count is a draft.
func (ic *InventoryCount) AddItem(in CountItemInput) (*InventoryCountItem, error) {
	if ic.Status != CountStatusDraft {
		return nil, shared.NewDomainError("INVALID_STATUS", "Can only add items in DRAFT status")
	}
	if err := ic.addItem(in); err != nil {
		return nil, err
	}
	ic.recalculateTotals()
	ic.IncrementVersion()
	return &ic.Items[len(ic.Items)-1], nil
}

// InitializeItems populates an empty draft count in one step.
func (ic *InventoryCount) InitializeItems(inputs []CountItemInput) error {
	if ic.Status != CountStatusDraft {
		return shared.NewDomainError("INVALID_STATUS", "Can only initialize items in DRAFT status")
	}
	if len(ic.Items) > 0 {
		return shared.NewDomainError("ALREADY_INITIALIZED", "Count items are already initialized")
	}
	if len(inputs) == 0 {
		return shared.NewDomainError("NO_ITEMS", "No items available to count")
	}
	for _, in := range inputs {
		if err := ic.addItem(in); err != nil {
			ic.Items = ic.Items[:0]
			return err
		}
	}
	ic.recalculateTotals()
	ic.IncrementVersion()
	return nil
}

func (ic *InventoryCount) addItem(in CountItemInput) error {
	if in.ProductID == uuid.Nil {
		return shared.NewDomainError("INVALID_PRODUCT", "Product ID cannot be empty")
	}
	if in.ExpectedQuantity.IsNegative() {
		return shared.NewDomainError("INVALID_QUANTITY", "Expected quantity cannot be negative")
	}
	for _, item := range ic.Items {
		if item.ProductID == in.ProductID {
			return shared.NewDomainError("DUPLICATE_PRODUCT", fmt.Sprintf("Product %s is already in the count", in.ProductID))
		}
	}
	ic.Items = append(ic.Items, newCountItem(ic.ID, in))
	return nil
}

// RemoveItem drops a line while the count is a draft.
func (ic *InventoryCount) RemoveItem(itemID uuid.UUID) error {
	if ic.Status != CountStatusDraft {
		return shared.NewDomainError("INVALID_STATUS", "Can only remove items in DRAFT status")
	}
	for i := range ic.Items {
		if ic.Items[i].ID == itemID {
			ic.Items = append(ic.Items[:i], ic.Items[i+1:]...)
			ic.recalculateTotals()
			ic.IncrementVersion()
			return nil
		}
	}
	return shared.NewDomainError("ITEM_NOT_FOUND", "Item not found in count")
}

// RepairExpectedQuantities re-snapshots expected quantities for the given
// products and returns how many lines changed. Products missing from the
// map keep their snapshot.
func (ic *InventoryCount) RepairExpectedQuantities(expected map[uuid.UUID]decimal.Decimal) (int, error) {
	if ic.Status != CountStatusDraft && ic.Status != CountStatusInProgress {
		return 0, shared.NewDomainError("INVALID_STATUS", fmt.Sprintf("Expected quantities cannot be repaired in %s status", ic.Status))
	}

	repaired := 0
	now := time.Now()
	for i := range ic.Items {
		qty, ok := expected[ic.Items[i].ProductID]
		if !ok {
			continue
		}
		if qty.IsNegative() {
			qty = decimal.Zero
		}
		if qty.Equal(ic.Items[i].ExpectedQuantity) {
			continue
		}
		ic.Items[i].ExpectedQuantity = qty
		ic.Items[i].UpdatedAt = now
		repaired++
	}
	if repaired > 0 {
		ic.recalculateTotals()
		ic.IncrementVersion()
	}
	return repaired, nil
}

// StartCounting moves a draft with lines to IN_PROGRESS.
func (ic *InventoryCount) StartCounting() error {
	if !ic.Status.CanTransitionTo(CountStatusInProgress) {
		return shared.NewDomainError(shared.CodeInvalidTransition, fmt.Sprintf("Cannot transition from %s to IN_PROGRESS", ic.Status))
	}
	if len(ic.Items) == 0 {
		return shared.NewDomainError("NO_ITEMS", "Cannot start counting with no items")
	}

	now := time.Now()
	ic.Status = CountStatusInProgress
	ic.StartedAt = &now
	ic.IncrementVersion()

	ic.AddDomainEvent(NewInventoryCountStartedEvent(ic))

	return nil
}

// RecordItemCount records (or clears, with NotCounted) the count of one line.
func (ic *InventoryCount) RecordItemCount(itemID uuid.UUID, qty CountedQuantity, countedBy uuid.UUID, notes string) error {
	if ic.Status != CountStatusInProgress {
		return shared.NewDomainError("INVALID_STATUS", fmt.Sprintf("Counts can only be recorded in IN_PROGRESS status, count is %s", ic.Status))
	}
	item := ic.FindItem(itemID)
	if item == nil {
		return shared.NewDomainError("ITEM_NOT_FOUND", "Item not found in count")
	}
	if err := item.RecordCount(qty, countedBy, notes); err != nil {
		return err
	}
	ic.recalculateTotals()
	ic.IncrementVersion()
	return nil
}

// CountEntry is one line of a bulk count update.
type CountEntry struct {
	ItemID   uuid.UUID
	Quantity CountedQuantity
	Notes    string
}

// RecordItemCounts applies several counts atomically: either every entry is
// valid and applied, or none is.
func (ic *InventoryCount) RecordItemCounts(entries []CountEntry, countedBy uuid.UUID) error {
	if ic.Status != CountStatusInProgress {
		return shared.NewDomainError("INVALID_STATUS", fmt.Sprintf("Counts can only be recorded in IN_PROGRESS status, count is %s", ic.Status))
	}
	for _, e := range entries {
		if ic.FindItem(e.ItemID) == nil {
			return shared.NewDomainError("ITEM_NOT_FOUND", fmt.Sprintf("Item %s not found in count", e.ItemID))
		}
		if v, ok := e.Quantity.Value(); ok && v.IsNegative() {
			return shared.NewDomainError("INVALID_QUANTITY", "Actual quantity cannot be negative")
		}
	}
	for _, e := range entries {
		_ = ic.FindItem(e.ItemID).RecordCount(e.Quantity, countedBy, e.Notes)
	}
	ic.recalculateTotals()
	ic.IncrementVersion()
	return nil
}

// FindItem returns the line with the given ID, or nil.
func (ic *InventoryCount) FindItem(itemID uuid.UUID) *InventoryCountItem {
	for i := range ic.Items {
		if ic.Items[i].ID == itemID {
			return &ic.Items[i]
		}
	}
	return nil
}

// FindItemByProduct returns the line for a product, or nil.
func (ic *InventoryCount) FindItemByProduct(productID uuid.UUID) *InventoryCountItem {
	for i := range ic.Items {
		if ic.Items[i].ProductID == productID {
			return &ic.Items[i]
		}
	}
	return nil
}

// recalculateTotals refreshes the derived totals. Only counted lines can
// contribute to VarianceCount.
func (ic *InventoryCount) recalculateTotals() {
	ic.TotalItemsCount = len(ic.Items)
	ic.CountedItemsCount = 0
	ic.VarianceCount = 0
	for i := range ic.Items {
		if ic.Items[i].IsCounted() {
			ic.CountedItemsCount++
		}
		if ic.Items[i].HasVariance() {
			ic.VarianceCount++
		}
	}
	ic.CompletionPercentage = completionPercentage(ic.CountedItemsCount, ic.TotalItemsCount)
}

func completionPercentage(counted, total int) decimal.Decimal {
	if total == 0 {
		return decimal.Zero
	}
	return decimal.NewFromInt(int64(counted)).
		Mul(decimal.NewFromInt(100)).
		Div(decimal.NewFromInt(int64(total))).
		Round(2)
}

// SubmitForApproval freezes the lines and hands the count to an approver.
func (ic *InventoryCount) SubmitForApproval() error {
	if !ic.Status.CanTransitionTo(CountStatusPendingApproval) {
		return shared.NewDomainError(shared.CodeInvalidTransition, fmt.Sprintf("Cannot transition from %s to PENDING_APPROVAL", ic.Status))
	}
	if ic.CountedItemsCount != ic.TotalItemsCount {
		return shared.NewDomainError("INCOMPLETE_COUNT", fmt.Sprintf("Not all items have been counted (%d/%d)", ic.CountedItemsCount, ic.TotalItemsCount))
	}

	now := time.Now()
	ic.Status = CountStatusPendingApproval
	ic.SubmittedAt = &now
	ic.IncrementVersion()

	ic.AddDomainEvent(NewInventoryCountSubmittedEvent(ic))

	return nil
}

// CheckVersion returns ErrStaleState when the caller's version token does
// not match. A zero token skips the check.
func (ic *InventoryCount) CheckVersion(expected int) error {
	if expected == 0 || expected == ic.Version {
		return nil
	}
	return shared.NewDomainError(shared.CodeStaleState,
		fmt.Sprintf("Count %s changed since it was loaded (version %d, current %d), please refresh", ic.CountNumber, expected, ic.Version))
}

// Approve records the approval. The stock adjustments themselves are applied
// by the caller in the same transaction; the returned summary lists them.
func (ic *InventoryCount) Approve(approverID uuid.UUID, approverName, notes string) (VarianceSummary, error) {
	if err := ic.decide(CountStatusApproved, approverID, approverName, notes); err != nil {
		return VarianceSummary{}, err
	}
	summary := ic.Variances()
	ic.AddDomainEvent(NewInventoryCountApprovedEvent(ic, summary))
	return summary, nil
}

// Reject records the rejection. Notes are optional and stock is untouched.
func (ic *InventoryCount) Reject(approverID uuid.UUID, approverName, notes string) error {
	if err := ic.decide(CountStatusRejected, approverID, approverName, notes); err != nil {
		return err
	}
	ic.AddDomainEvent(NewInventoryCountRejectedEvent(ic))
	return nil
}

func (ic *InventoryCount) decide(target CountStatus, approverID uuid.UUID, approverName, notes string) error {
	if !ic.Status.CanTransitionTo(target) {
		return shared.NewDomainError(shared.CodeInvalidState, fmt.Sprintf("Count %s is %s and cannot be %s", ic.CountNumber, ic.Status, target))
	}
	if approverID == uuid.Nil {
		return shared.NewDomainError("INVALID_APPROVER", "Approver ID cannot be empty")
	}

	now := time.Now()
	ic.Status = target
	ic.DecidedAt = &now
	ic.DecidedBy = &approverID
	ic.DecidedByName = approverName
	ic.DecisionNotes = notes
	ic.IncrementVersion()
	return nil
}

// Cancel abandons a count that has not been submitted.
func (ic *InventoryCount) Cancel(reason string) error {
	if !ic.Status.CanTransitionTo(CountStatusCancelled) {
		return shared.NewDomainError(shared.CodeInvalidTransition, fmt.Sprintf("Cannot transition from %s to CANCELLED", ic.Status))
	}

	ic.Status = CountStatusCancelled
	if reason != "" {
		ic.Notes = reason
	}
	ic.IncrementVersion()

	ic.AddDomainEvent(NewInventoryCountCancelledEvent(ic, reason))

	return nil
}

// MarkArchived records where the decided count snapshot was stored.
func (ic *InventoryCount) MarkArchived(key string) error {
	if !ic.Status.IsDecided() {
		return shared.NewDomainError("INVALID_STATUS", "Only approved or rejected counts can be archived")
	}
	if ic.ArchivedAt != nil {
		return shared.NewDomainError("ALREADY_ARCHIVED", "Count is already archived")
	}
	if key == "" {
		return shared.NewDomainError("INVALID_ARCHIVE_KEY", "Archive key cannot be empty")
	}

	now := time.Now()
	ic.ArchivedAt = &now
	ic.ArchiveKey = key
	ic.IncrementVersion()

	ic.AddDomainEvent(NewInventoryCountArchivedEvent(ic))

	return nil
}

// IsFrozen reports whether the lines may no longer change.
func (ic *InventoryCount) IsFrozen() bool {
	return ic.Status != CountStatusDraft && ic.Status != CountStatusInProgress
}

// VarianceLines returns the calculator input for every line in order.
func (ic *InventoryCount) VarianceLines() []VarianceLine {
	lines := make([]VarianceLine, 0, len(ic.Items))
	for i := range ic.Items {
		lines = append(lines, ic.Items[i].VarianceLine())
	}
	return lines
}

// Variances computes the variance summary from the current lines.
func (ic *InventoryCount) Variances() VarianceSummary {
	return CalculateVariances(ic.VarianceLines())
}

// CountProgress is a snapshot of counting progress.
type CountProgress struct {
	TotalItems           int
	CountedItems         int
	UncountedItems       int
	VarianceItems        int
	CompletionPercentage decimal.Decimal
}

// Progress returns the counting progress.
func (ic *InventoryCount) Progress() CountProgress {
	return CountProgress{
		TotalItems:           ic.TotalItemsCount,
		CountedItems:         ic.CountedItemsCount,
		UncountedItems:       ic.TotalItemsCount - ic.CountedItemsCount,
		VarianceItems:        ic.VarianceCount,
		CompletionPercentage: ic.CompletionPercentage,
	}
}
