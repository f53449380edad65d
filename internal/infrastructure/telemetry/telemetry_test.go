package telemetry

import (
	"context"
	"runtime/pprof"
	"testing"
	"time"

	"github.com/erp/stockcount/internal/domain/inventory"
	"github.com/erp/stockcount/internal/infrastructure/config"
	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	sdkmetric "go.opentelemetry.io/otel/sdk/metric"
	"go.opentelemetry.io/otel/sdk/metric/metricdata"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
)

func collect(t *testing.T, reader *sdkmetric.ManualReader) map[string]metricdata.Metrics {
	t.Helper()
	var rm metricdata.ResourceMetrics
	require.NoError(t, reader.Collect(context.Background(), &rm))
	out := map[string]metricdata.Metrics{}
	for _, sm := range rm.ScopeMetrics {
		for _, m := range sm.Metrics {
			out[m.Name] = m
		}
	}
	return out
}

func sumOf(m metricdata.Metrics) int64 {
	var total int64
	if s, ok := m.Data.(metricdata.Sum[int64]); ok {
		for _, dp := range s.DataPoints {
			total += dp.Value
		}
	}
	return total
}

func TestCountMetrics(t *testing.T) {
	reader := sdkmetric.NewManualReader()
	provider := sdkmetric.NewMeterProvider(sdkmetric.WithReader(reader))
	m, err := NewCountMetrics(provider.Meter(countMeterName))
	require.NoError(t, err)
	ctx := context.Background()

	m.RecordDecision(ctx, true, "applied", 12*time.Millisecond)
	m.RecordDecision(ctx, false, "STALE_STATE", 3*time.Millisecond)

	ic, err := inventory.NewInventoryCount(uuid.New(), uuid.New(), "Main", "IC-20260101-0001", time.Now(), uuid.New(), "Counter")
	require.NoError(t, err)
	approved := inventory.NewInventoryCountApprovedEvent(ic, inventory.VarianceSummary{
		Overages:  []inventory.VarianceRecord{{Name: "A", Variance: decimal.NewFromInt(1)}},
		Shortages: []inventory.VarianceRecord{{Name: "B", Variance: decimal.NewFromInt(-2)}, {Name: "C", Variance: decimal.NewFromInt(-1)}},
	})
	require.NoError(t, m.Handle(ctx, approved))
	require.NoError(t, m.Handle(ctx, inventory.NewInventoryCountRejectedEvent(ic)))

	got := collect(t, reader)
	assert.Equal(t, int64(2), sumOf(got["inventory_count.decisions"]))
	assert.Equal(t, int64(2), sumOf(got["inventory_count.transitions"]))
	assert.Equal(t, int64(3), sumOf(got["inventory_count.variance_lines"]))

	hist, ok := got["inventory_count.decision.duration"].Data.(metricdata.Histogram[float64])
	require.True(t, ok)
	var samples uint64
	for _, dp := range hist.DataPoints {
		samples += dp.Count
	}
	assert.Equal(t, uint64(2), samples)
	assert.Len(t, m.EventTypes(), 7)
}

func TestDisabledProviders(t *testing.T) {
	ctx := context.Background()
	cfg := config.TelemetryConfig{ServiceName: "stockcount"}

	tp, err := NewTracerProvider(ctx, cfg, zap.NewNop())
	require.NoError(t, err)
	tp.EnableSpanProfiles()
	assert.NotNil(t, tp.Tracer("test"))
	assert.NoError(t, tp.Shutdown(ctx))

	mp, err := NewMeterProvider(ctx, cfg, zap.NewNop())
	require.NoError(t, err)
	assert.NotNil(t, mp.Meter("test"))
	assert.NoError(t, mp.Shutdown(ctx))

	lp, err := NewLoggerProvider(ctx, cfg, zap.NewNop())
	require.NoError(t, err)
	assert.False(t, lp.ZapCore("stockcount", zapcore.InfoLevel).Enabled(zapcore.ErrorLevel))
	assert.NoError(t, lp.Shutdown(ctx))

	p, err := NewProfiler(cfg, zap.NewNop())
	require.NoError(t, err)
	assert.False(t, p.Enabled())
	assert.NoError(t, p.Stop())
	assert.NoError(t, p.Stop())

	assert.NoError(t, RegisterDBTracing(nil, cfg, "postgresql", zap.NewNop()))
}

func TestLevelFilterCore(t *testing.T) {
	core := &levelFilterCore{Core: zapcore.NewNopCore(), minLevel: zapcore.WarnLevel}
	assert.False(t, core.Enabled(zapcore.InfoLevel))
	_, ok := core.With(nil).(*levelFilterCore)
	assert.True(t, ok)
}

func TestWithProfilingLabels(t *testing.T) {
	var route, tenant string
	var tenantSet bool
	WithProfilingLabels(context.Background(), map[string]string{
		ProfilingLabelRoute:    "/api/v1/inventory/counts/:id",
		ProfilingLabelTenantID: "",
	}, func(ctx context.Context) {
		route, _ = pprof.Label(ctx, ProfilingLabelRoute)
		tenant, tenantSet = pprof.Label(ctx, ProfilingLabelTenantID)
	})
	assert.Equal(t, "/api/v1/inventory/counts/:id", route)
	assert.False(t, tenantSet)
	assert.Empty(t, tenant)

	called := false
	WithProfilingLabels(context.Background(), nil, func(context.Context) { called = true })
	assert.True(t, called)
}
