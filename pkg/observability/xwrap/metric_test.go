package xwrap

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/omeyang/instrkit/pkg/observability/xprom"
)

// ============================================================================
// 测试辅助函数
// ============================================================================

// newCounterRegistry 创建独立注册表并注册一个带 error 维度的计数器。
func newCounterRegistry(t *testing.T, name string) *xprom.Registry {
	t.Helper()
	reg := xprom.NewRegistry()
	require.NoError(t, reg.RegisterCounter(xprom.Opts{
		Name:   name,
		Help:   "test counter",
		Labels: []string{"error"},
	}))
	return reg
}

func metricsText(t *testing.T, reg *xprom.Registry) string {
	t.Helper()
	text, err := reg.Text()
	require.NoError(t, err)
	return text
}

// ============================================================================
// Counted
// ============================================================================

func TestCounted_SuccessRecordsErrorNone(t *testing.T) {
	reg := newCounterRegistry(t, "ops_total")

	fn := func(ctx context.Context) error { return nil }
	wrapped := Counted(Options{Name: "ops_total", Registry: reg}).Wrap(fn).(func(context.Context) error)
	require.NoError(t, wrapped(context.Background()))
	require.NoError(t, wrapped(context.Background()))

	assert.Contains(t, metricsText(t, reg), `ops_total{error="none"} 2`)
}

type timeoutError struct{}

func (timeoutError) Error() string { return "deadline exceeded" }

func TestCounted_FailureRecordsErrorKind(t *testing.T) {
	reg := newCounterRegistry(t, "ops_total")

	fn := func(ctx context.Context) error { return timeoutError{} }
	wrapped := Counted(Options{Name: "ops_total", Registry: reg}).Wrap(fn).(func(context.Context) error)
	require.Error(t, wrapped(context.Background()))

	assert.Contains(t, metricsText(t, reg), `ops_total{error="timeoutError"} 1`)
}

func TestCounted_AnonymousErrorRecordsUnknown(t *testing.T) {
	reg := newCounterRegistry(t, "ops_total")

	fn := func(ctx context.Context) error { return errors.New("opaque") }
	wrapped := Counted(Options{Name: "ops_total", Registry: reg}).Wrap(fn).(func(context.Context) error)
	require.Error(t, wrapped(context.Background()))

	assert.Contains(t, metricsText(t, reg), `ops_total{error="unknown_error"} 1`)
}

func TestCounted_PanicRecordsErrorKind(t *testing.T) {
	reg := newCounterRegistry(t, "ops_total")

	fn := func(ctx context.Context) error { panic(timeoutError{}) }
	wrapped := Counted(Options{Name: "ops_total", Registry: reg}).Wrap(fn).(func(context.Context) error)

	assert.Panics(t, func() { _ = wrapped(context.Background()) })
	assert.Contains(t, metricsText(t, reg), `ops_total{error="timeoutError"} 1`)
}

func TestCounted_DeferredCountsOnSettle(t *testing.T) {
	reg := newCounterRegistry(t, "ops_total")

	inner := NewFuture()
	fn := func(ctx context.Context) (any, error) { return inner, nil }
	wrapped := Counted(Options{Name: "ops_total", Registry: reg}).Wrap(fn).(func(context.Context) (any, error))

	_, err := wrapped(context.Background())
	require.NoError(t, err)
	assert.NotContains(t, metricsText(t, reg), "ops_total{", "counter must not fire before the deferred settles")

	inner.Reject(timeoutError{})
	assert.Contains(t, metricsText(t, reg), `ops_total{error="timeoutError"} 1`)
}

func TestCounted_StaticLabels(t *testing.T) {
	reg := xprom.NewRegistry()
	require.NoError(t, reg.RegisterCounter(xprom.Opts{
		Name:   "ops_total",
		Labels: []string{"region", "error"},
	}))

	opts := Options{Name: "ops_total", Registry: reg, Attrs: map[string]any{"region": "eu"}}
	fn := func(ctx context.Context) error { return nil }
	wrapped := Counted(opts).Wrap(fn).(func(context.Context) error)
	require.NoError(t, wrapped(context.Background()))

	assert.Contains(t, metricsText(t, reg), `ops_total{error="none",region="eu"} 1`)
}

func TestCounted_UndeclaredLabelsFiltered(t *testing.T) {
	reg := newCounterRegistry(t, "ops_total")

	// 未声明的标签键被静默过滤，不产生注册冲突
	opts := Options{Name: "ops_total", Registry: reg, Attrs: map[string]any{"junk": "x"}}
	fn := func(ctx context.Context) error { return nil }
	wrapped := Counted(opts).Wrap(fn).(func(context.Context) error)
	require.NoError(t, wrapped(context.Background()))

	text := metricsText(t, reg)
	assert.Contains(t, text, `ops_total{error="none"} 1`)
	assert.NotContains(t, text, "junk")
}

func TestCounted_UnregisteredPanicsAtCallSite(t *testing.T) {
	reg := xprom.NewRegistry()

	fn := func(ctx context.Context) error { return nil }
	wrapped := Counted(Options{Name: "missing_total", Registry: reg}).Wrap(fn).(func(context.Context) error)

	defer func() {
		r := recover()
		require.NotNil(t, r)
		assert.ErrorIs(t, r.(error), xprom.ErrNotRegistered)
	}()
	_ = wrapped(context.Background())
}

func TestCounted_NonCounterPanicsAtCallSite(t *testing.T) {
	reg := xprom.NewRegistry()
	require.NoError(t, reg.RegisterHistogram(xprom.Opts{Name: "ops_total"}))

	fn := func(ctx context.Context) error { return nil }
	wrapped := Counted(Options{Name: "ops_total", Registry: reg}).Wrap(fn).(func(context.Context) error)

	defer func() {
		r := recover()
		require.NotNil(t, r)
		assert.ErrorIs(t, r.(error), xprom.ErrKindMismatch)
	}()
	_ = wrapped(context.Background())
}

func TestCounted_GateFalse_NoCount(t *testing.T) {
	reg := newCounterRegistry(t, "ops_total")

	fn := func(ctx context.Context) error { return nil }
	wrapped := Counted(Options{Name: "ops_total", Registry: reg, Condition: false}).Wrap(fn).(func(context.Context) error)
	require.NoError(t, wrapped(context.Background()))

	assert.NotContains(t, metricsText(t, reg), "ops_total{")
}

// ============================================================================
// Observed
// ============================================================================

func TestObserved_Timed_RecordsDuration(t *testing.T) {
	reg := xprom.NewRegistry()
	require.NoError(t, reg.RegisterHistogram(xprom.Opts{
		Name:    "op_duration_seconds",
		Buckets: []float64{0.001, 1, 10},
	}))

	fn := func(ctx context.Context) error {
		time.Sleep(2 * time.Millisecond)
		return nil
	}
	wrapped := Observed(Options{Name: "op_duration_seconds", Registry: reg}, true).Wrap(fn).(func(context.Context) error)
	require.NoError(t, wrapped(context.Background()))

	text := metricsText(t, reg)
	assert.Contains(t, text, "op_duration_seconds_count 1")
	// 耗时落在上界桶内
	assert.Contains(t, text, `op_duration_seconds_bucket{le="10"} 1`)
}

func TestObserved_Timed_RecordsEvenOnError(t *testing.T) {
	reg := xprom.NewRegistry()
	require.NoError(t, reg.RegisterHistogram(xprom.Opts{Name: "op_duration_seconds"}))

	fn := func(ctx context.Context) error { return errors.New("boom") }
	wrapped := Observed(Options{Name: "op_duration_seconds", Registry: reg}, true).Wrap(fn).(func(context.Context) error)
	require.Error(t, wrapped(context.Background()))

	assert.Contains(t, metricsText(t, reg), "op_duration_seconds_count 1")
}

func TestObserved_Untimed_RecordsReturnValue(t *testing.T) {
	reg := xprom.NewRegistry()
	require.NoError(t, reg.RegisterGauge(xprom.Opts{Name: "queue_depth"}))

	fn := func(ctx context.Context) (float64, error) { return 3.5, nil }
	wrapped := Observed(Options{Name: "queue_depth", Registry: reg}, false).Wrap(fn).(func(context.Context) (float64, error))
	got, err := wrapped(context.Background())
	require.NoError(t, err)
	assert.Equal(t, 3.5, got)

	assert.Contains(t, metricsText(t, reg), "queue_depth 3.5")
}

func TestObserved_Untimed_NamedNumericType(t *testing.T) {
	type depth int
	reg := xprom.NewRegistry()
	require.NoError(t, reg.RegisterGauge(xprom.Opts{Name: "queue_depth"}))

	fn := func(ctx context.Context) (depth, error) { return depth(12), nil }
	wrapped := Observed(Options{Name: "queue_depth", Registry: reg}, false).Wrap(fn).(func(context.Context) (depth, error))
	_, err := wrapped(context.Background())
	require.NoError(t, err)

	assert.Contains(t, metricsText(t, reg), "queue_depth 12")
}

func TestObserved_Untimed_SkipsOnError(t *testing.T) {
	reg := xprom.NewRegistry()
	require.NoError(t, reg.RegisterGauge(xprom.Opts{Name: "queue_depth"}))

	fn := func(ctx context.Context) (float64, error) { return 0, errors.New("boom") }
	wrapped := Observed(Options{Name: "queue_depth", Registry: reg}, false).Wrap(fn).(func(context.Context) (float64, error))
	_, err := wrapped(context.Background())
	require.Error(t, err)

	// 失败结算不写样本，gauge 未物化
	assert.NotContains(t, metricsText(t, reg), "queue_depth")
}

func TestObserved_Untimed_NonNumericIgnored(t *testing.T) {
	reg := xprom.NewRegistry()
	require.NoError(t, reg.RegisterGauge(xprom.Opts{Name: "queue_depth"}))

	fn := func(ctx context.Context) (string, error) { return "not a number", nil }
	wrapped := Observed(Options{Name: "queue_depth", Registry: reg}, false).Wrap(fn).(func(context.Context) (string, error))
	got, err := wrapped(context.Background())
	require.NoError(t, err)
	assert.Equal(t, "not a number", got)

	assert.NotContains(t, metricsText(t, reg), "queue_depth")
}

func TestObserved_Timed_CounterRejectedAtCallSite(t *testing.T) {
	reg := newCounterRegistry(t, "ops_total")

	fn := func(ctx context.Context) error { return nil }
	wrapped := Observed(Options{Name: "ops_total", Registry: reg}, true).Wrap(fn).(func(context.Context) error)

	defer func() {
		r := recover()
		require.NotNil(t, r)
		assert.ErrorIs(t, r.(error), xprom.ErrKindMismatch)
	}()
	_ = wrapped(context.Background())
}

func TestObserved_DeferredRecordsSettledValue(t *testing.T) {
	reg := xprom.NewRegistry()
	require.NoError(t, reg.RegisterGauge(xprom.Opts{Name: "queue_depth"}))

	inner := NewFuture()
	fn := func(ctx context.Context) (any, error) { return inner, nil }
	wrapped := Observed(Options{Name: "queue_depth", Registry: reg}, false).Wrap(fn).(func(context.Context) (any, error))
	_, err := wrapped(context.Background())
	require.NoError(t, err)

	inner.Resolve(float64(9))
	assert.Contains(t, metricsText(t, reg), "queue_depth 9")
}
