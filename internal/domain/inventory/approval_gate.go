package inventory

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/erp/stockcount/internal/domain/shared"
	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

// ApprovalDecision is the single decision recorded for a pending count.
// ExpectedVersion is the count version the reviewer looked at; the receiving
// side rejects the decision with STALE_STATE when the count moved on.
type ApprovalDecision struct {
	CountID         uuid.UUID `json:"count_id"`
	Approved        bool      `json:"approved"`
	Notes           string    `json:"notes"`
	ExpectedVersion int       `json:"expected_version"`
}

// StockMutationTrigger records a decision. On approval the implementation
// applies every counted quantity to warehouse stock, writes adjustment and
// audit rows and moves the count out of PENDING_APPROVAL, all or nothing.
// A false result and an error both mean nothing was applied.
type StockMutationTrigger interface {
	ApproveCount(ctx context.Context, decision ApprovalDecision) (bool, error)
}

// GateState is the state of an ApprovalGate.
type GateState string

const (
	GateIdle                GateState = "IDLE"
	GatePendingConfirmation GateState = "PENDING_CONFIRMATION"
	GateResolved            GateState = "RESOLVED"
)

// GateOutcome is the recorded decision once the gate is resolved.
type GateOutcome string

const (
	OutcomeNone     GateOutcome = ""
	OutcomeApproved GateOutcome = "APPROVED"
	OutcomeRejected GateOutcome = "REJECTED"
)

var (
	ErrGateClosed          = shared.NewDomainError("DECISION_RECORDED", "A decision has already been recorded for this count")
	ErrDecisionNotApplied  = shared.NewDomainError("DECISION_NOT_APPLIED", "The decision was not applied, please try again")
	ErrConfirmationPending = shared.NewDomainError("CONFIRMATION_PENDING", "Approval is awaiting confirmation; cancel it before rejecting")
	ErrNoPendingApproval   = shared.NewDomainError("NO_PENDING_APPROVAL", "There is no approval waiting for confirmation")
)

// ReviewSnapshot is what the reviewer sees: the count header and its lines,
// loaded fresh when the review opens.
type ReviewSnapshot struct {
	CountID              uuid.UUID
	CountNumber          string
	CountDate            time.Time
	ConductedByName      string
	TotalItemsCount      int
	CompletionPercentage decimal.Decimal
	Version              int
	Lines                []VarianceLine
}

// SnapshotFromCount builds a ReviewSnapshot from a loaded aggregate.
func SnapshotFromCount(ic *InventoryCount) ReviewSnapshot {
	return ReviewSnapshot{
		CountID:              ic.ID,
		CountNumber:          ic.CountNumber,
		CountDate:            ic.CountDate,
		ConductedByName:      ic.ConductedByName,
		TotalItemsCount:      ic.TotalItemsCount,
		CompletionPercentage: ic.CompletionPercentage,
		Version:              ic.Version,
		Lines:                ic.VarianceLines(),
	}
}

// ConfirmationPrompt is shown between approve intent and confirmation. It
// restates what approving will do.
type ConfirmationPrompt struct {
	CountID           uuid.UUID
	CountNumber       string
	Summary           VarianceSummary
	StockUpdates      int
	AdjustmentRecords int
	WritesAuditTrail  bool
	Irreversible      bool
}

// ApprovalGate drives one review of one pending count.
//
//	Idle --RequestApproval--> PendingConfirmation --Confirm--> Resolved(approved)
//	PendingConfirmation --Cancel--> Idle
//	Idle --Reject--> Resolved(rejected)
//
// Approval always passes through PendingConfirmation; rejection never does.
// Only one decision call may be in flight. A failed call leaves the gate in
// the state it was in before the attempt, notes included.
type ApprovalGate struct {
	mu       sync.Mutex
	trigger  StockMutationTrigger
	snapshot ReviewSnapshot
	summary  VarianceSummary
	state    GateState
	outcome  GateOutcome
	notes    string
	inFlight bool
	attempts int
}

// NewApprovalGate opens a review. Variances are computed here, never reused
// from an earlier review.
func NewApprovalGate(snapshot ReviewSnapshot, trigger StockMutationTrigger) (*ApprovalGate, error) {
	if trigger == nil {
		return nil, fmt.Errorf("approval gate: nil stock mutation trigger")
	}
	if snapshot.CountID == uuid.Nil {
		return nil, shared.NewDomainError(shared.CodeInvalidInput, "Count ID cannot be empty")
	}
	return &ApprovalGate{
		trigger:  trigger,
		snapshot: snapshot,
		summary:  CalculateVariances(snapshot.Lines),
		state:    GateIdle,
	}, nil
}

// State returns the current gate state.
func (g *ApprovalGate) State() GateState {
	g.mu.Lock()
	defer g.mu.Unlock()
	return g.state
}

// Outcome returns the recorded decision, OutcomeNone until resolved.
func (g *ApprovalGate) Outcome() GateOutcome {
	g.mu.Lock()
	defer g.mu.Unlock()
	return g.outcome
}

// Notes returns the notes that will accompany the decision.
func (g *ApprovalGate) Notes() string {
	g.mu.Lock()
	defer g.mu.Unlock()
	return g.notes
}

// InFlight reports whether a decision call is running.
func (g *ApprovalGate) InFlight() bool {
	g.mu.Lock()
	defer g.mu.Unlock()
	return g.inFlight
}

// Attempts returns how many decision calls were made.
func (g *ApprovalGate) Attempts() int {
	g.mu.Lock()
	defer g.mu.Unlock()
	return g.attempts
}

// Summary returns the variance summary computed when the review opened.
func (g *ApprovalGate) Summary() VarianceSummary {
	g.mu.Lock()
	defer g.mu.Unlock()
	return g.summary
}

// Snapshot returns the reviewed count.
func (g *ApprovalGate) Snapshot() ReviewSnapshot {
	g.mu.Lock()
	defer g.mu.Unlock()
	return g.snapshot
}

// SetNotes replaces the decision notes.
func (g *ApprovalGate) SetNotes(notes string) error {
	g.mu.Lock()
	defer g.mu.Unlock()
	if err := g.checkOpenLocked(); err != nil {
		return err
	}
	g.notes = notes
	return nil
}

// RequestApproval records approve intent and returns the consequences to
// confirm. No remote call is made.
func (g *ApprovalGate) RequestApproval() (ConfirmationPrompt, error) {
	g.mu.Lock()
	defer g.mu.Unlock()
	if err := g.checkOpenLocked(); err != nil {
		return ConfirmationPrompt{}, err
	}
	if g.state != GateIdle {
		return ConfirmationPrompt{}, ErrConfirmationPending
	}
	g.state = GatePendingConfirmation
	return g.promptLocked(), nil
}

// Prompt returns the pending confirmation prompt.
func (g *ApprovalGate) Prompt() (ConfirmationPrompt, error) {
	g.mu.Lock()
	defer g.mu.Unlock()
	if g.state != GatePendingConfirmation {
		return ConfirmationPrompt{}, ErrNoPendingApproval
	}
	return g.promptLocked(), nil
}

func (g *ApprovalGate) promptLocked() ConfirmationPrompt {
	return ConfirmationPrompt{
		CountID:           g.snapshot.CountID,
		CountNumber:       g.snapshot.CountNumber,
		Summary:           g.summary,
		StockUpdates:      len(g.snapshot.Lines),
		AdjustmentRecords: len(g.summary.Variances),
		WritesAuditTrail:  true,
		Irreversible:      true,
	}
}

// Cancel withdraws approve intent. Nothing is sent.
func (g *ApprovalGate) Cancel() error {
	g.mu.Lock()
	defer g.mu.Unlock()
	if err := g.checkOpenLocked(); err != nil {
		return err
	}
	if g.state != GatePendingConfirmation {
		return ErrNoPendingApproval
	}
	g.state = GateIdle
	return nil
}

// Confirm sends the approval. It is only valid after RequestApproval.
func (g *ApprovalGate) Confirm(ctx context.Context) error {
	return g.decide(ctx, true, GatePendingConfirmation)
}

// Reject sends the rejection straight away.
func (g *ApprovalGate) Reject(ctx context.Context) error {
	return g.decide(ctx, false, GateIdle)
}

func (g *ApprovalGate) decide(ctx context.Context, approved bool, from GateState) error {
	g.mu.Lock()
	if err := g.checkOpenLocked(); err != nil {
		g.mu.Unlock()
		return err
	}
	if g.state != from {
		g.mu.Unlock()
		if approved {
			return ErrNoPendingApproval
		}
		return ErrConfirmationPending
	}
	g.inFlight = true
	g.attempts++
	decision := ApprovalDecision{
		CountID:         g.snapshot.CountID,
		Approved:        approved,
		Notes:           g.notes,
		ExpectedVersion: g.snapshot.Version,
	}
	g.mu.Unlock()

	ok, err := g.trigger.ApproveCount(ctx, decision)

	g.mu.Lock()
	defer g.mu.Unlock()
	g.inFlight = false
	if err != nil {
		return err
	}
	if !ok {
		return ErrDecisionNotApplied
	}
	g.state = GateResolved
	if approved {
		g.outcome = OutcomeApproved
	} else {
		g.outcome = OutcomeRejected
	}
	return nil
}

// Refresh replaces the reviewed snapshot after a stale-state error. Any
// pending confirmation is dropped because it described the old data; notes
// are kept.
func (g *ApprovalGate) Refresh(snapshot ReviewSnapshot) error {
	g.mu.Lock()
	defer g.mu.Unlock()
	if err := g.checkOpenLocked(); err != nil {
		return err
	}
	if snapshot.CountID != g.snapshot.CountID {
		return shared.NewDomainError(shared.CodeInvalidInput, "Refreshed snapshot belongs to another count")
	}
	g.snapshot = snapshot
	g.summary = CalculateVariances(snapshot.Lines)
	g.state = GateIdle
	return nil
}

func (g *ApprovalGate) checkOpenLocked() error {
	if g.state == GateResolved {
		return ErrGateClosed
	}
	if g.inFlight {
		return shared.ErrDecisionInFlight
	}
	return nil
}
