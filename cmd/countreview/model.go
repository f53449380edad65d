package main

import (
	"context"
	"fmt"
	"strings"

	"github.com/charmbracelet/bubbles/spinner"
	"github.com/charmbracelet/bubbles/textinput"
	tea "github.com/charmbracelet/bubbletea"
	appinv "github.com/erp/stockcount/internal/application/inventory"
	"github.com/erp/stockcount/internal/domain/inventory"
	"github.com/erp/stockcount/internal/domain/shared"
	"github.com/google/uuid"
)

// reviewSource reloads a review after the count changed under the reviewer.
type reviewSource interface {
	GetReview(ctx context.Context, countID uuid.UUID) (*appinv.ReviewResponse, error)
}

type mode int

const (
	modeBrowse mode = iota
	modeNotes
	modeConfirm
)

type decisionMsg struct{ err error }

type reloadMsg struct {
	review *appinv.ReviewResponse
	err    error
}

// reviewModel is the bubbletea model around one ApprovalGate. stale is set
// when the server reports a newer version and holds decisions until a reload
// succeeds.
type reviewModel struct {
	ctx     context.Context
	gate    *inventory.ApprovalGate
	source  reviewSource
	notes   textinput.Model
	spinner spinner.Model
	mode    mode
	prompt  inventory.ConfirmationPrompt
	status  string
	busy    bool
	stale   bool
}

func newReviewModel(ctx context.Context, review *appinv.ReviewResponse, trigger inventory.StockMutationTrigger, source reviewSource) (reviewModel, error) {
	gate, err := inventory.NewApprovalGate(review.Snapshot(), trigger)
	if err != nil {
		return reviewModel{}, err
	}
	ti := textinput.New()
	ti.Placeholder = "decision notes"
	ti.CharLimit = 1000

	return reviewModel{
		ctx:     ctx,
		gate:    gate,
		source:  source,
		notes:   ti,
		spinner: spinner.New(spinner.WithSpinner(spinner.Dot)),
	}, nil
}

func (m reviewModel) Init() tea.Cmd {
	return nil
}

func (m reviewModel) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.KeyMsg:
		if msg.Type == tea.KeyCtrlC {
			return m, tea.Quit
		}
		if m.busy {
			m.status = "A decision is being recorded, please wait"
			return m, nil
		}
		switch m.mode {
		case modeNotes:
			return m.updateNotes(msg)
		case modeConfirm:
			return m.updateConfirm(msg)
		default:
			return m.updateBrowse(msg)
		}

	case decisionMsg:
		m.busy = false
		if msg.err == nil {
			m.mode = modeBrowse
			m.status = fmt.Sprintf("Count %s %s", m.gate.Snapshot().CountNumber, strings.ToLower(string(m.gate.Outcome())))
			return m, tea.Quit
		}
		if shared.IsStaleState(msg.err) {
			// the confirmation was for the old version
			if m.gate.State() == inventory.GatePendingConfirmation {
				_ = m.gate.Cancel()
			}
			m.mode = modeBrowse
			m.stale = true
			m.status = "The count changed since it was loaded; reloading"
			m.busy = true
			return m, tea.Batch(m.reload(), m.spinner.Tick)
		}
		// the gate kept its state, so the same key retries
		m.status = "Decision failed: " + msg.err.Error()
		return m, nil

	case reloadMsg:
		m.busy = false
		if msg.err != nil {
			m.status = "Reload failed: " + msg.err.Error() + " (l: retry)"
			return m, nil
		}
		if err := m.gate.Refresh(msg.review.Snapshot()); err != nil {
			m.status = err.Error()
			return m, nil
		}
		m.stale = false
		m.status = "Review reloaded; check the variances again before deciding"
		return m, nil

	case spinner.TickMsg:
		if !m.busy {
			return m, nil
		}
		var cmd tea.Cmd
		m.spinner, cmd = m.spinner.Update(msg)
		return m, cmd
	}
	return m, nil
}

func (m reviewModel) updateBrowse(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	switch msg.String() {
	case "q", "esc":
		return m, tea.Quit
	case "e":
		m.mode = modeNotes
		m.notes.SetValue(m.gate.Notes())
		return m, m.notes.Focus()
	case "l":
		m.busy = true
		m.status = ""
		return m, tea.Batch(m.reload(), m.spinner.Tick)
	case "a", "r":
		if m.stale {
			m.status = "The count changed since it was loaded; press l to reload before deciding"
			return m, nil
		}
		if msg.String() == "r" {
			return m.send(false)
		}
		prompt, err := m.gate.RequestApproval()
		if err != nil {
			m.status = err.Error()
			return m, nil
		}
		m.prompt = prompt
		m.mode = modeConfirm
		m.status = ""
		return m, nil
	}
	return m, nil
}

func (m reviewModel) updateNotes(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	switch msg.Type {
	case tea.KeyEnter:
		if err := m.gate.SetNotes(m.notes.Value()); err != nil {
			m.status = err.Error()
		}
		m.notes.Blur()
		m.mode = modeBrowse
		return m, nil
	case tea.KeyEsc:
		m.notes.Blur()
		m.mode = modeBrowse
		return m, nil
	}
	var cmd tea.Cmd
	m.notes, cmd = m.notes.Update(msg)
	return m, cmd
}

func (m reviewModel) updateConfirm(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	switch msg.String() {
	case "y":
		return m.send(true)
	case "n", "esc":
		if err := m.gate.Cancel(); err != nil {
			m.status = err.Error()
		}
		m.mode = modeBrowse
		return m, nil
	}
	return m, nil
}

// send runs the decision off the UI loop. Keys are ignored until it returns.
func (m reviewModel) send(approved bool) (tea.Model, tea.Cmd) {
	m.busy = true
	m.status = ""
	gate, ctx := m.gate, m.ctx
	decide := func() tea.Msg {
		if approved {
			return decisionMsg{err: gate.Confirm(ctx)}
		}
		return decisionMsg{err: gate.Reject(ctx)}
	}
	return m, tea.Batch(decide, m.spinner.Tick)
}

func (m reviewModel) reload() tea.Cmd {
	source, ctx, id := m.source, m.ctx, m.gate.Snapshot().CountID
	return func() tea.Msg {
		review, err := source.GetReview(ctx, id)
		return reloadMsg{review: review, err: err}
	}
}

func (m reviewModel) View() string {
	var b strings.Builder
	snap := m.gate.Snapshot()
	summary := m.gate.Summary()

	fmt.Fprintf(&b, "Count %s  v%d\n", snap.CountNumber, snap.Version)
	fmt.Fprintf(&b, "Counted by %s on %s, %s%% complete, %d lines\n\n",
		snap.ConductedByName, snap.CountDate.Format("2006-01-02"),
		snap.CompletionPercentage.StringFixed(1), summary.TotalLines)

	preview, remaining := summary.Preview(inventory.DefaultPreviewLimit)
	if len(preview) == 0 {
		b.WriteString("No variances.\n")
	}
	for _, v := range preview {
		fmt.Fprintf(&b, "  %-30s expected %s  counted %s  %s %s\n",
			v.Name, v.Expected.String(), v.Actual.String(), v.Sign, v.AbsVariance().String())
	}
	if remaining > 0 {
		fmt.Fprintf(&b, "  ... and %d more\n", remaining)
	}
	if n := len(summary.Uncounted); n > 0 {
		fmt.Fprintf(&b, "%d lines were never counted and compare as zero\n", n)
	}

	b.WriteString("\nNotes: ")
	if m.mode == modeNotes {
		b.WriteString(m.notes.View())
	} else {
		b.WriteString(m.gate.Notes())
	}
	b.WriteString("\n\n")

	switch {
	case m.busy:
		b.WriteString(m.spinner.View() + " Waiting for the server...\n")
	case m.mode == modeConfirm:
		fmt.Fprintf(&b, "Approving %s will overwrite %d stock levels, write %d adjustments and an audit entry.\n",
			m.prompt.CountNumber, m.prompt.StockUpdates, m.prompt.AdjustmentRecords)
		b.WriteString("This cannot be undone. Confirm? [y/n]\n")
	case m.mode == modeNotes:
		b.WriteString("enter: save  esc: discard\n")
	default:
		b.WriteString("a: approve  r: reject  e: notes  l: reload  q: quit\n")
	}
	if m.status != "" {
		b.WriteString("\n" + m.status + "\n")
	}
	return b.String()
}
