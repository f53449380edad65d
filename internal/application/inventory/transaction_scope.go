package inventory

import (
	"context"

	"github.com/erp/stockcount/internal/domain/inventory"
)

// TransactionScope runs a decision atomically. Every repository handed to
// fn shares one database transaction, committed when fn returns nil and
// rolled back otherwise.
type TransactionScope interface {
	Execute(ctx context.Context, fn func(repos TransactionalRepositories) error) error
}

// TransactionalRepositories are the repositories a decision writes to.
//   - Counts: the InventoryCount aggregate, saved with its version check
//   - StockLevels: one row per counted product, also version checked
//   - Adjustments: append-only adjustment and audit rows
type TransactionalRepositories interface {
	Counts() inventory.InventoryCountRepository
	StockLevels() inventory.StockLevelRepository
	Adjustments() inventory.AdjustmentRepository
}

// NoOpTransactionScope runs fn against plain repositories without a
// transaction. Used in tests and with storage that has no transactions.
type NoOpTransactionScope struct {
	countRepo      inventory.InventoryCountRepository
	stockRepo      inventory.StockLevelRepository
	adjustmentRepo inventory.AdjustmentRepository
}

// NewNoOpTransactionScope creates a NoOpTransactionScope with the given repositories.
func NewNoOpTransactionScope(
	countRepo inventory.InventoryCountRepository,
	stockRepo inventory.StockLevelRepository,
	adjustmentRepo inventory.AdjustmentRepository,
) *NoOpTransactionScope {
	return &NoOpTransactionScope{
		countRepo:      countRepo,
		stockRepo:      stockRepo,
		adjustmentRepo: adjustmentRepo,
	}
}

func (s *NoOpTransactionScope) Execute(_ context.Context, fn func(repos TransactionalRepositories) error) error {
	return fn(s)
}

func (s *NoOpTransactionScope) Counts() inventory.InventoryCountRepository { return s.countRepo }

func (s *NoOpTransactionScope) StockLevels() inventory.StockLevelRepository { return s.stockRepo }

func (s *NoOpTransactionScope) Adjustments() inventory.AdjustmentRepository { return s.adjustmentRepo }

var _ TransactionScope = (*NoOpTransactionScope)(nil)
var _ TransactionalRepositories = (*NoOpTransactionScope)(nil)
