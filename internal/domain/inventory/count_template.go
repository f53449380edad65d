package inventory

import (
	"strings"
	"time"

	"github.com/erp/stockcount/internal/domain/shared"
	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

// CountTemplateItem is a product a template asks to be counted. A nil
// ExpectedQuantity means "use current stock" when a count is initialized.
type CountTemplateItem struct {
	ID               uuid.UUID
	TemplateID       uuid.UUID
	ProductID        uuid.UUID
	ProductName      string
	ProductCode      string
	Unit             string
	ExpectedQuantity *decimal.Decimal
	MinimumQuantity  *decimal.Decimal
	MaximumQuantity  *decimal.Decimal
	CreatedAt        time.Time
}

// CountTemplate is a reusable list of products to count in a warehouse.
type CountTemplate struct {
	shared.TenantAggregateRoot
	Name        string
	Description string
	WarehouseID uuid.UUID
	IsActive    bool
	Items       []CountTemplateItem
}

// NewCountTemplate creates an active, empty template.
func NewCountTemplate(tenantID, warehouseID uuid.UUID, name, description string) (*CountTemplate, error) {
	name = strings.TrimSpace(name)
	if name == "" {
		return nil, shared.NewDomainError("INVALID_NAME", "Template name cannot be empty")
	}
	if len(name) > 100 {
		return nil, shared.NewDomainError("INVALID_NAME", "Template name cannot exceed 100 characters")
	}
	if warehouseID == uuid.Nil {
		return nil, shared.NewDomainError("INVALID_WAREHOUSE", "Warehouse ID cannot be empty")
	}
	return &CountTemplate{
		TenantAggregateRoot: shared.NewTenantAggregateRoot(tenantID),
		Name:                name,
		Description:         description,
		WarehouseID:         warehouseID,
		IsActive:            true,
		Items:               make([]CountTemplateItem, 0),
	}, nil
}

// TemplateItemInput describes a template line.
type TemplateItemInput struct {
	ProductID        uuid.UUID
	ProductName      string
	ProductCode      string
	Unit             string
	ExpectedQuantity *decimal.Decimal
	MinimumQuantity  *decimal.Decimal
	MaximumQuantity  *decimal.Decimal
}

// AddItem adds a product to the template.
func (t *CountTemplate) AddItem(in TemplateItemInput) (*CountTemplateItem, error) {
	if !t.IsActive {
		return nil, shared.NewDomainError("TEMPLATE_INACTIVE", "Cannot change an inactive template")
	}
	if in.ProductID == uuid.Nil {
		return nil, shared.NewDomainError("INVALID_PRODUCT", "Product ID cannot be empty")
	}
	for _, q := range []*decimal.Decimal{in.ExpectedQuantity, in.MinimumQuantity, in.MaximumQuantity} {
		if q != nil && q.IsNegative() {
			return nil, shared.NewDomainError("INVALID_QUANTITY", "Template quantities cannot be negative")
		}
	}
	if in.MinimumQuantity != nil && in.MaximumQuantity != nil && in.MinimumQuantity.GreaterThan(*in.MaximumQuantity) {
		return nil, shared.NewDomainError("INVALID_QUANTITY", "Minimum quantity cannot exceed maximum quantity")
	}
	for _, item := range t.Items {
		if item.ProductID == in.ProductID {
			return nil, shared.NewDomainError("DUPLICATE_PRODUCT", "Product already exists in template")
		}
	}

	t.Items = append(t.Items, CountTemplateItem{
		ID:               uuid.New(),
		TemplateID:       t.ID,
		ProductID:        in.ProductID,
		ProductName:      in.ProductName,
		ProductCode:      in.ProductCode,
		Unit:             in.Unit,
		ExpectedQuantity: in.ExpectedQuantity,
		MinimumQuantity:  in.MinimumQuantity,
		MaximumQuantity:  in.MaximumQuantity,
		CreatedAt:        time.Now(),
	})
	t.IncrementVersion()
	return &t.Items[len(t.Items)-1], nil
}

// RemoveItem removes a template line.
func (t *CountTemplate) RemoveItem(itemID uuid.UUID) error {
	if !t.IsActive {
		return shared.NewDomainError("TEMPLATE_INACTIVE", "Cannot change an inactive template")
	}
	for i := range t.Items {
		if t.Items[i].ID == itemID {
			t.Items = append(t.Items[:i], t.Items[i+1:]...)
			t.IncrementVersion()
			return nil
		}
	}
	return shared.NewDomainError("ITEM_NOT_FOUND", "Item not found in template")
}

// Deactivate hides the template from new counts.
func (t *CountTemplate) Deactivate() error {
	if !t.IsActive {
		return shared.NewDomainError("TEMPLATE_INACTIVE", "Template is already inactive")
	}
	t.IsActive = false
	t.IncrementVersion()
	return nil
}

// CountItemInputs builds count lines from the template. Lines without an
// expected quantity fall back to the current stock, then to zero.
func (t *CountTemplate) CountItemInputs(stock map[uuid.UUID]StockLevel) []CountItemInput {
	inputs := make([]CountItemInput, 0, len(t.Items))
	for _, item := range t.Items {
		level, hasStock := stock[item.ProductID]
		expected := decimal.Zero
		switch {
		case item.ExpectedQuantity != nil:
			expected = *item.ExpectedQuantity
		case hasStock:
			expected = level.Quantity
		}
		in := CountItemInput{
			ProductID:        item.ProductID,
			ProductName:      item.ProductName,
			ProductCode:      item.ProductCode,
			Unit:             item.Unit,
			ExpectedQuantity: expected,
			MinimumQuantity:  item.MinimumQuantity,
			MaximumQuantity:  item.MaximumQuantity,
		}
		if hasStock {
			in.UnitCost = level.UnitCost
			if in.ProductName == "" {
				in.ProductName = level.ProductName
			}
		}
		inputs = append(inputs, in)
	}
	return inputs
}

// ExpectedQuantities returns the template's explicit expected quantities,
// falling back to stock, keyed by product.
func (t *CountTemplate) ExpectedQuantities(stock map[uuid.UUID]StockLevel) map[uuid.UUID]decimal.Decimal {
	out := make(map[uuid.UUID]decimal.Decimal, len(t.Items))
	for _, in := range t.CountItemInputs(stock) {
		out[in.ProductID] = in.ExpectedQuantity
	}
	return out
}
