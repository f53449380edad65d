package inventory

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/erp/stockcount/internal/domain/inventory"
	"github.com/erp/stockcount/internal/domain/shared"
	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"go.uber.org/zap"
)

// DefaultDecisionLockTTL bounds how long one decision may hold the count.
const DefaultDecisionLockTTL = 30 * time.Second

// DecisionRecorder observes decision attempts. Result is "applied" or the
// error code that stopped the decision.
type DecisionRecorder interface {
	RecordDecision(ctx context.Context, approved bool, result string, elapsed time.Duration)
}

// CountApprovalService records approval decisions. It is the authoritative
// StockMutationTrigger: an approval overwrites warehouse stock with the
// counted quantities, writes adjustment and audit rows and closes the count
// in one transaction.
type CountApprovalService struct {
	countRepo      inventory.InventoryCountRepository
	adjustmentRepo inventory.AdjustmentRepository
	txScope        TransactionScope
	lock           shared.DecisionLock
	eventBus       shared.EventPublisher
	recorder       DecisionRecorder
	lockTTL        time.Duration
	logger         *zap.Logger
}

// ApprovalOption configures a CountApprovalService
type ApprovalOption func(*CountApprovalService)

// WithDecisionRecorder attaches a metrics recorder
func WithDecisionRecorder(r DecisionRecorder) ApprovalOption {
	return func(s *CountApprovalService) { s.recorder = r }
}

// WithDecisionLockTTL overrides DefaultDecisionLockTTL
func WithDecisionLockTTL(ttl time.Duration) ApprovalOption {
	return func(s *CountApprovalService) {
		if ttl > 0 {
			s.lockTTL = ttl
		}
	}
}

// WithApprovalLogger sets the logger
func WithApprovalLogger(logger *zap.Logger) ApprovalOption {
	return func(s *CountApprovalService) {
		if logger != nil {
			s.logger = logger
		}
	}
}

// NewCountApprovalService creates a new CountApprovalService
func NewCountApprovalService(
	countRepo inventory.InventoryCountRepository,
	adjustmentRepo inventory.AdjustmentRepository,
	txScope TransactionScope,
	lock shared.DecisionLock,
	eventBus shared.EventPublisher,
	opts ...ApprovalOption,
) *CountApprovalService {
	s := &CountApprovalService{
		countRepo:      countRepo,
		adjustmentRepo: adjustmentRepo,
		txScope:        txScope,
		lock:           lock,
		eventBus:       eventBus,
		lockTTL:        DefaultDecisionLockTTL,
		logger:         zap.NewNop(),
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// GetReview loads a fresh review of a pending count.
func (s *CountApprovalService) GetReview(ctx context.Context, tenantID, countID uuid.UUID) (*ReviewResponse, error) {
	ic, err := s.countRepo.FindByIDForTenant(ctx, tenantID, countID)
	if err != nil {
		return nil, err
	}
	if ic.Status != inventory.CountStatusPendingApproval {
		return nil, shared.NewDomainError(shared.CodeInvalidState,
			fmt.Sprintf("Count %s is %s, not awaiting approval", ic.CountNumber, ic.Status))
	}
	response := ToReviewResponse(ic)
	return &response, nil
}

// OpenReview returns an approval gate over a fresh snapshot of the count,
// wired to this service.
func (s *CountApprovalService) OpenReview(ctx context.Context, tenantID uuid.UUID, actor Actor, countID uuid.UUID) (*inventory.ApprovalGate, error) {
	review, err := s.GetReview(ctx, tenantID, countID)
	if err != nil {
		return nil, err
	}
	return inventory.NewApprovalGate(review.Snapshot(), s.TriggerFor(tenantID, actor))
}

// GetHistory returns the adjustment and audit rows written for a count.
func (s *CountApprovalService) GetHistory(ctx context.Context, tenantID, countID uuid.UUID) (*DecisionHistoryResponse, error) {
	if _, err := s.countRepo.FindByIDForTenant(ctx, tenantID, countID); err != nil {
		return nil, err
	}
	adjustments, err := s.adjustmentRepo.FindAdjustmentsByCount(ctx, tenantID, countID)
	if err != nil {
		return nil, err
	}
	audit, err := s.adjustmentRepo.FindAuditEntriesByCount(ctx, tenantID, countID)
	if err != nil {
		return nil, err
	}
	response := ToDecisionHistoryResponse(countID, adjustments, audit)
	return &response, nil
}

// Decide records one decision on a pending count. Concurrent decisions on
// the same count fail fast with DECISION_IN_FLIGHT; a decision made against
// an outdated version fails with STALE_STATE. Nothing is written on error.
func (s *CountApprovalService) Decide(ctx context.Context, tenantID uuid.UUID, actor Actor, decision inventory.ApprovalDecision) (*DecisionResponse, error) {
	start := time.Now()
	resp, err := s.decide(ctx, tenantID, actor, decision)
	if s.recorder != nil {
		result := "applied"
		if err != nil {
			result = shared.ErrorCode(err)
		}
		s.recorder.RecordDecision(ctx, decision.Approved, result, time.Since(start))
	}
	return resp, err
}

func (s *CountApprovalService) decide(ctx context.Context, tenantID uuid.UUID, actor Actor, decision inventory.ApprovalDecision) (*DecisionResponse, error) {
	if decision.CountID == uuid.Nil {
		return nil, shared.NewDomainError(shared.CodeInvalidInput, "Count ID cannot be empty")
	}
	if actor.UserID == uuid.Nil {
		return nil, shared.ErrUnauthorized
	}

	key := fmt.Sprintf("count-decision:%s:%s", tenantID, decision.CountID)
	token, err := s.lock.Acquire(ctx, key, s.lockTTL)
	if err != nil {
		return nil, err
	}
	defer func() {
		if err := s.lock.Release(context.WithoutCancel(ctx), key, token); err != nil {
			s.logger.Warn("failed to release decision lock",
				zap.String("count_id", decision.CountID.String()),
				zap.Error(err))
		}
	}()

	var (
		ic          *inventory.InventoryCount
		adjustments int
	)
	err = s.txScope.Execute(ctx, func(repos TransactionalRepositories) error {
		var err error
		ic, err = repos.Counts().FindByIDForTenant(ctx, tenantID, decision.CountID)
		if err != nil {
			return err
		}
		if err := ic.CheckVersion(decision.ExpectedVersion); err != nil {
			return err
		}

		action := inventory.AuditActionRejected
		if decision.Approved {
			if _, err := ic.Approve(actor.UserID, actor.Name, decision.Notes); err != nil {
				return err
			}
			adjustments, err = applyCountedQuantities(ctx, repos, ic, actor.UserID)
			if err != nil {
				return err
			}
			action = inventory.AuditActionApproved
		} else if err := ic.Reject(actor.UserID, actor.Name, decision.Notes); err != nil {
			return err
		}

		entry := inventory.NewCountAuditEntry(ic, action, adjustments)
		if err := repos.Adjustments().CreateAuditEntry(ctx, &entry); err != nil {
			return err
		}
		return repos.Counts().Save(ctx, ic)
	})
	if err != nil {
		if ic != nil {
			ic.ClearDomainEvents()
		}
		return nil, staleOnConflict(err)
	}

	s.logger.Info("count decision recorded",
		zap.String("tenant_id", tenantID.String()),
		zap.String("count_id", ic.ID.String()),
		zap.String("count_number", ic.CountNumber),
		zap.String("status", ic.Status.String()),
		zap.Int("adjustments", adjustments),
		zap.String("actor_id", actor.UserID.String()))

	publishEvents(ctx, s.eventBus, ic)

	return &DecisionResponse{
		Success:     true,
		CountID:     ic.ID,
		Status:      ic.Status.String(),
		Version:     ic.Version,
		Adjustments: adjustments,
	}, nil
}

// applyCountedQuantities overwrites the stock level of every counted line
// with its actual quantity. An adjustment row is written for each line that
// is a variance or whose stock actually moved. Missing stock levels are
// created at zero before the adjustment.
func applyCountedQuantities(ctx context.Context, repos TransactionalRepositories, ic *inventory.InventoryCount, actor uuid.UUID) (int, error) {
	productIDs := make([]uuid.UUID, 0, len(ic.Items))
	for _, item := range ic.Items {
		productIDs = append(productIDs, item.ProductID)
	}
	levels, err := repos.StockLevels().FindByWarehouseAndProducts(ctx, ic.TenantID, ic.WarehouseID, productIDs)
	if err != nil {
		return 0, err
	}
	byProduct := inventory.StockLevelsByProduct(levels)

	adjustments := make([]inventory.InventoryAdjustment, 0)
	for i := range ic.Items {
		item := &ic.Items[i]
		actual, counted := item.ActualQuantity.Value()
		if !counted {
			continue
		}

		var level *inventory.StockLevel
		if existing, ok := byProduct[item.ProductID]; ok {
			level = &existing
		} else {
			level, err = inventory.NewStockLevel(ic.TenantID, ic.WarehouseID, item.ProductID, item.ProductName, decimal.Zero, item.UnitCost)
			if err != nil {
				return 0, err
			}
			level.ProductCode = item.ProductCode
			level.Unit = item.Unit
		}

		before, err := level.AdjustTo(actual)
		if err != nil {
			return 0, err
		}
		if err := repos.StockLevels().Save(ctx, level); err != nil {
			return 0, err
		}
		if item.HasVariance() || !before.Equal(actual) {
			adjustments = append(adjustments, inventory.NewCountAdjustment(ic, item, level, before, actor))
		}
	}

	if len(adjustments) > 0 {
		if err := repos.Adjustments().CreateAdjustments(ctx, adjustments); err != nil {
			return 0, err
		}
	}
	return len(adjustments), nil
}

// staleOnConflict reports a lost optimistic write as STALE_STATE so callers
// refresh instead of retrying the same decision.
func staleOnConflict(err error) error {
	if errors.Is(err, shared.ErrConcurrencyConflict) {
		return shared.NewDomainError(shared.CodeStaleState, "Count or stock changed while the decision was applied, please refresh")
	}
	return err
}

// TriggerFor adapts the service to StockMutationTrigger for one tenant and approver.
func (s *CountApprovalService) TriggerFor(tenantID uuid.UUID, actor Actor) inventory.StockMutationTrigger {
	return &serviceTrigger{svc: s, tenantID: tenantID, actor: actor}
}

type serviceTrigger struct {
	svc      *CountApprovalService
	tenantID uuid.UUID
	actor    Actor
}

func (t *serviceTrigger) ApproveCount(ctx context.Context, decision inventory.ApprovalDecision) (bool, error) {
	resp, err := t.svc.Decide(ctx, t.tenantID, t.actor, decision)
	if err != nil {
		return false, err
	}
	return resp.Success, nil
}
