package inventory

import (
	"context"

	"github.com/erp/stockcount/internal/domain/inventory"
	"github.com/erp/stockcount/internal/domain/shared"
	"github.com/google/uuid"
)

// CountTemplateService manages reusable count templates
type CountTemplateService struct {
	templateRepo inventory.CountTemplateRepository
}

// NewCountTemplateService creates a new CountTemplateService
func NewCountTemplateService(templateRepo inventory.CountTemplateRepository) *CountTemplateService {
	return &CountTemplateService{templateRepo: templateRepo}
}

// GetByID retrieves a template
func (s *CountTemplateService) GetByID(ctx context.Context, tenantID, id uuid.UUID) (*TemplateResponse, error) {
	tpl, err := s.templateRepo.FindByIDForTenant(ctx, tenantID, id)
	if err != nil {
		return nil, err
	}
	response := ToTemplateResponse(tpl)
	return &response, nil
}

// List retrieves a paginated list of templates
func (s *CountTemplateService) List(ctx context.Context, tenantID uuid.UUID, filter TemplateListFilter) ([]TemplateResponse, int64, error) {
	domainFilter := inventory.TemplateFilter{
		Filter: shared.Filter{
			Page:     filter.Page,
			PageSize: filter.PageSize,
			Search:   filter.Search,
		},
		WarehouseID: filter.WarehouseID,
		ActiveOnly:  filter.ActiveOnly,
	}
	if domainFilter.Page == 0 {
		domainFilter.Page = 1
	}
	if domainFilter.PageSize == 0 {
		domainFilter.PageSize = 20
	}

	total, err := s.templateRepo.CountForTenant(ctx, tenantID, domainFilter)
	if err != nil {
		return nil, 0, err
	}
	templates, err := s.templateRepo.FindAllForTenant(ctx, tenantID, domainFilter)
	if err != nil {
		return nil, 0, err
	}

	out := make([]TemplateResponse, len(templates))
	for i := range templates {
		out[i] = ToTemplateResponse(&templates[i])
	}
	return out, total, nil
}

// Create creates a template with its initial lines
func (s *CountTemplateService) Create(ctx context.Context, tenantID uuid.UUID, actor Actor, req CreateTemplateRequest) (*TemplateResponse, error) {
	tpl, err := inventory.NewCountTemplate(tenantID, req.WarehouseID, req.Name, req.Description)
	if err != nil {
		return nil, err
	}
	tpl.SetCreatedBy(actor.UserID)

	for _, item := range req.Items {
		if _, err := tpl.AddItem(item.toInput()); err != nil {
			return nil, err
		}
	}

	if err := s.templateRepo.Save(ctx, tpl); err != nil {
		return nil, err
	}

	response := ToTemplateResponse(tpl)
	return &response, nil
}

// AddItem adds a product to a template
func (s *CountTemplateService) AddItem(ctx context.Context, tenantID, id uuid.UUID, req AddTemplateItemRequest) (*TemplateResponse, error) {
	tpl, err := s.templateRepo.FindByIDForTenant(ctx, tenantID, id)
	if err != nil {
		return nil, err
	}
	if _, err := tpl.AddItem(req.toInput()); err != nil {
		return nil, err
	}
	if err := s.templateRepo.Save(ctx, tpl); err != nil {
		return nil, err
	}
	response := ToTemplateResponse(tpl)
	return &response, nil
}

// RemoveItem removes a line from a template
func (s *CountTemplateService) RemoveItem(ctx context.Context, tenantID, id, itemID uuid.UUID) (*TemplateResponse, error) {
	tpl, err := s.templateRepo.FindByIDForTenant(ctx, tenantID, id)
	if err != nil {
		return nil, err
	}
	if err := tpl.RemoveItem(itemID); err != nil {
		return nil, err
	}
	if err := s.templateRepo.Save(ctx, tpl); err != nil {
		return nil, err
	}
	response := ToTemplateResponse(tpl)
	return &response, nil
}

// Deactivate hides a template from new counts
func (s *CountTemplateService) Deactivate(ctx context.Context, tenantID, id uuid.UUID) (*TemplateResponse, error) {
	tpl, err := s.templateRepo.FindByIDForTenant(ctx, tenantID, id)
	if err != nil {
		return nil, err
	}
	if err := tpl.Deactivate(); err != nil {
		return nil, err
	}
	if err := s.templateRepo.Save(ctx, tpl); err != nil {
		return nil, err
	}
	response := ToTemplateResponse(tpl)
	return &response, nil
}
