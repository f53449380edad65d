package telemetry

import (
	"context"
	"fmt"
	"time"

	"github.com/erp/stockcount/internal/domain/inventory"
	"github.com/erp/stockcount/internal/domain/shared"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/metric"
)

const countMeterName = "github.com/erp/stockcount/inventory"

// CountMetrics records approval decisions and count lifecycle events.
//
// Instruments:
//   - inventory_count.decisions: decision attempts by outcome and result
//   - inventory_count.decision.duration: end-to-end decision latency
//   - inventory_count.transitions: lifecycle events by type
//   - inventory_count.variance_lines: variance lines on approved counts
type CountMetrics struct {
	decisions     metric.Int64Counter
	latency       metric.Float64Histogram
	transitions   metric.Int64Counter
	varianceLines metric.Int64Counter
}

// NewCountMetrics creates the instruments on meter.
func NewCountMetrics(meter metric.Meter) (*CountMetrics, error) {
	m := &CountMetrics{}
	var err error
	if m.decisions, err = meter.Int64Counter("inventory_count.decisions",
		metric.WithDescription("Approval decision attempts"),
		metric.WithUnit("{decision}")); err != nil {
		return nil, fmt.Errorf("create decisions counter: %w", err)
	}
	if m.latency, err = meter.Float64Histogram("inventory_count.decision.duration",
		metric.WithDescription("Time to record an approval decision"),
		metric.WithUnit("ms"),
		metric.WithExplicitBucketBoundaries(5, 10, 25, 50, 100, 250, 500, 1000, 2500, 5000)); err != nil {
		return nil, fmt.Errorf("create decision latency histogram: %w", err)
	}
	if m.transitions, err = meter.Int64Counter("inventory_count.transitions",
		metric.WithDescription("Inventory count lifecycle events"),
		metric.WithUnit("{event}")); err != nil {
		return nil, fmt.Errorf("create transitions counter: %w", err)
	}
	if m.varianceLines, err = meter.Int64Counter("inventory_count.variance_lines",
		metric.WithDescription("Lines outside tolerance on approved counts"),
		metric.WithUnit("{line}")); err != nil {
		return nil, fmt.Errorf("create variance lines counter: %w", err)
	}
	return m, nil
}

// RecordDecision observes one decision attempt. Result is "applied" or the
// error code that stopped it.
func (m *CountMetrics) RecordDecision(ctx context.Context, approved bool, result string, elapsed time.Duration) {
	outcome := "rejected"
	if approved {
		outcome = "approved"
	}
	attrs := metric.WithAttributes(
		attribute.String("decision", outcome),
		attribute.String("result", result),
	)
	m.decisions.Add(ctx, 1, attrs)
	m.latency.Record(ctx, float64(elapsed.Microseconds())/1000, attrs)
}

// EventTypes implements shared.EventHandler.
func (m *CountMetrics) EventTypes() []string {
	return []string{
		inventory.EventTypeInventoryCountCreated,
		inventory.EventTypeInventoryCountStarted,
		inventory.EventTypeInventoryCountSubmitted,
		inventory.EventTypeInventoryCountApproved,
		inventory.EventTypeInventoryCountRejected,
		inventory.EventTypeInventoryCountCancelled,
		inventory.EventTypeInventoryCountArchived,
	}
}

// Handle implements shared.EventHandler.
func (m *CountMetrics) Handle(ctx context.Context, event shared.DomainEvent) error {
	m.transitions.Add(ctx, 1, metric.WithAttributes(attribute.String("event", event.EventType())))

	if approved, ok := event.(*inventory.InventoryCountApprovedEvent); ok {
		m.varianceLines.Add(ctx, int64(approved.Overages), metric.WithAttributes(attribute.String("kind", "overage")))
		m.varianceLines.Add(ctx, int64(approved.Shortages), metric.WithAttributes(attribute.String("kind", "shortage")))
	}
	return nil
}

var _ shared.EventHandler = (*CountMetrics)(nil)
