package xprom

import (
	"errors"
	"fmt"
	"strings"
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// ============================================================================
// 注册测试
// ============================================================================

func TestRegister_EmptyName(t *testing.T) {
	reg := NewRegistry()
	assert.ErrorIs(t, reg.RegisterCounter(Opts{}), ErrEmptyName)
}

func TestRegister_Duplicate(t *testing.T) {
	reg := NewRegistry()
	require.NoError(t, reg.RegisterCounter(Opts{Name: "dup_total"}))

	err := reg.RegisterGauge(Opts{Name: "dup_total"})
	assert.ErrorIs(t, err, ErrAlreadyRegistered)
	assert.Contains(t, err.Error(), "dup_total")
}

func TestKind(t *testing.T) {
	reg := NewRegistry()
	require.NoError(t, reg.RegisterSummary(Opts{Name: "latency"}))

	kind, err := reg.Kind("latency")
	require.NoError(t, err)
	assert.Equal(t, KindSummary, kind)

	_, err = reg.Kind("missing")
	assert.ErrorIs(t, err, ErrNotRegistered)
}

// ============================================================================
// 延迟物化测试
// ============================================================================

func TestLazyMaterialization(t *testing.T) {
	reg := NewRegistry()
	require.NoError(t, reg.RegisterCounter(Opts{Name: "lazy_total", Help: "h"}))

	// 注册后、写入前：底层注册表不应有任何 metric family
	text, err := reg.Text()
	require.NoError(t, err)
	assert.Empty(t, text)

	require.NoError(t, reg.Inc("lazy_total", nil, 1))

	text, err = reg.Text()
	require.NoError(t, err)
	assert.Contains(t, text, "lazy_total")
}

func TestWrite_NotRegistered(t *testing.T) {
	reg := NewRegistry()
	err := reg.Inc("nope_total", nil, 1)
	assert.ErrorIs(t, err, ErrNotRegistered)
	assert.Contains(t, err.Error(), "nope_total")
}

func TestLabelNameInference(t *testing.T) {
	reg := NewRegistry()
	require.NoError(t, reg.RegisterCounter(Opts{Name: "inferred_total"}))

	// 未声明标签名：从首次写入的键推断
	require.NoError(t, reg.Inc("inferred_total", Labels{"route": "/a", "error": "none"}, 1))

	// 第二次写入携带额外键：额外键被静默过滤
	require.NoError(t, reg.Inc("inferred_total", Labels{"route": "/a", "error": "none", "extra": "x"}, 1))

	text, err := reg.Text()
	require.NoError(t, err)
	assert.Contains(t, text, `route="/a"`)
	assert.NotContains(t, text, "extra")
}

// ============================================================================
// 标签治理测试
// ============================================================================

func TestLabelGovernance(t *testing.T) {
	reg := NewRegistry()
	require.NoError(t, reg.RegisterCounter(Opts{
		Name:   "governed_total",
		Labels: []string{"a", "b", "flag"},
	}))

	// bool 转字符串，nil 丢弃，未声明键丢弃
	require.NoError(t, reg.Inc("governed_total", Labels{
		"a":      "X",
		"b":      2,
		"flag":   true,
		"ignore": nil,
		"junk":   "dropped",
	}, 1))

	text, err := reg.Text()
	require.NoError(t, err)
	assert.Contains(t, text, `a="X"`)
	assert.Contains(t, text, `b="2"`)
	assert.Contains(t, text, `flag="true"`)
	assert.NotContains(t, text, "ignore")
	assert.NotContains(t, text, "junk")
}

func TestConvertValue(t *testing.T) {
	tests := []struct {
		name  string
		value any
		want  string
	}{
		{"string", "s", "s"},
		{"bool true", true, "true"},
		{"bool false", false, "false"},
		{"int", 42, "42"},
		{"int64", int64(-7), "-7"},
		{"uint64", uint64(9), "9"},
		{"float64", 1.5, "1.5"},
		{"float32", float32(2.25), "2.25"},
		{"duration fallback", time.Second, "1s"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, convertValue(tt.value))
		})
	}
}

func TestMissingDeclaredLabelFilledEmpty(t *testing.T) {
	reg := NewRegistry()
	require.NoError(t, reg.RegisterCounter(Opts{
		Name:   "partial_total",
		Labels: []string{"a", "b"},
	}))

	require.NoError(t, reg.Inc("partial_total", Labels{"a": "x"}, 1))

	text, err := reg.Text()
	require.NoError(t, err)
	assert.Contains(t, text, `b=""`)
}

// ============================================================================
// 类型分派与数值语义
// ============================================================================

func TestKindMismatch(t *testing.T) {
	reg := NewRegistry()
	require.NoError(t, reg.RegisterCounter(Opts{Name: "c_total"}))
	require.NoError(t, reg.RegisterGauge(Opts{Name: "g"}))

	require.NoError(t, reg.Inc("c_total", nil, 1))
	assert.ErrorIs(t, reg.Set("c_total", nil, 1), ErrKindMismatch)
	assert.ErrorIs(t, reg.Observe("g", nil, 1), ErrKindMismatch)
	assert.ErrorIs(t, reg.Inc("g", nil, 1), ErrKindMismatch)
}

func TestCounterAccumulates(t *testing.T) {
	reg := NewRegistry()
	require.NoError(t, reg.RegisterCounter(Opts{Name: "acc_total"}))

	require.NoError(t, reg.Inc("acc_total", nil, 1))
	require.NoError(t, reg.Inc("acc_total", nil, 2))

	r, err := reg.ensureForTest("acc_total")
	require.NoError(t, err)
	assert.InDelta(t, 3.0, testutil.ToFloat64(r.inst.counter), 1e-9)
}

func TestGaugeSet(t *testing.T) {
	reg := NewRegistry()
	require.NoError(t, reg.RegisterGauge(Opts{Name: "level"}))

	require.NoError(t, reg.Set("level", nil, 7.5))
	require.NoError(t, reg.Set("level", nil, 2.5))

	r, err := reg.ensureForTest("level")
	require.NoError(t, err)
	assert.InDelta(t, 2.5, testutil.ToFloat64(r.inst.gauge), 1e-9)
}

func TestWrite_DispatchesByKind(t *testing.T) {
	reg := NewRegistry()
	require.NoError(t, reg.RegisterCounter(Opts{Name: "w_total"}))
	require.NoError(t, reg.RegisterHistogram(Opts{Name: "w_seconds"}))

	require.NoError(t, reg.Write("w_total", nil, 1))
	require.NoError(t, reg.Write("w_seconds", nil, 0.3))

	text, err := reg.Text()
	require.NoError(t, err)
	assert.Contains(t, text, "w_total 1")
	assert.Contains(t, text, `w_seconds_count 1`)
}

// ============================================================================
// 默认桶梯与分位数梯
// ============================================================================

func TestHistogramDefaultBuckets(t *testing.T) {
	reg := NewRegistry()
	require.NoError(t, reg.RegisterHistogram(Opts{Name: "d_seconds"}))
	require.NoError(t, reg.Observe("d_seconds", nil, 0.05))

	text, err := reg.Text()
	require.NoError(t, err)
	// prometheus.DefBuckets 的首个边界
	assert.Contains(t, text, `le="0.005"`)
}

func TestHistogramExplicitBuckets(t *testing.T) {
	reg := NewRegistry()
	require.NoError(t, reg.RegisterHistogram(Opts{
		Name:    "e_seconds",
		Buckets: []float64{0.1, 1},
	}))
	require.NoError(t, reg.Observe("e_seconds", nil, 0.5))

	text, err := reg.Text()
	require.NoError(t, err)
	assert.Contains(t, text, `le="0.1"`)
	assert.Contains(t, text, `le="1"`)
	// 显式桶梯精确覆盖默认桶梯
	assert.NotContains(t, text, `le="0.005"`)
}

func TestSummaryDefaultObjectives(t *testing.T) {
	reg := NewRegistry()
	require.NoError(t, reg.RegisterSummary(Opts{Name: "s_seconds"}))
	require.NoError(t, reg.Observe("s_seconds", nil, 0.2))

	text, err := reg.Text()
	require.NoError(t, err)
	assert.Contains(t, text, `quantile="0.5"`)
	assert.Contains(t, text, `quantile="0.99"`)
}

func TestSummaryExplicitObjectives(t *testing.T) {
	reg := NewRegistry()
	require.NoError(t, reg.RegisterSummary(Opts{
		Name:       "s2_seconds",
		Objectives: map[float64]float64{0.5: 0.05},
	}))
	require.NoError(t, reg.Observe("s2_seconds", nil, 0.2))

	text, err := reg.Text()
	require.NoError(t, err)
	assert.Contains(t, text, `quantile="0.5"`)
	assert.NotContains(t, text, `quantile="0.99"`)
}

// ============================================================================
// 计时器
// ============================================================================

func TestStartTimer_Histogram(t *testing.T) {
	reg := NewRegistry()
	require.NoError(t, reg.RegisterHistogram(Opts{Name: "t_seconds"}))

	stop, err := reg.StartTimer("t_seconds", nil)
	require.NoError(t, err)
	elapsed := stop()
	assert.GreaterOrEqual(t, elapsed, 0.0)

	text, err := reg.Text()
	require.NoError(t, err)
	assert.Contains(t, text, "t_seconds_count 1")
}

func TestStartTimer_StopIdempotent(t *testing.T) {
	reg := NewRegistry()
	require.NoError(t, reg.RegisterHistogram(Opts{Name: "ti_seconds"}))

	stop, err := reg.StartTimer("ti_seconds", nil)
	require.NoError(t, err)
	first := stop()
	second := stop()
	assert.Equal(t, first, second)

	text, err := reg.Text()
	require.NoError(t, err)
	assert.Contains(t, text, "ti_seconds_count 1")
}

func TestStartTimer_CounterRejected(t *testing.T) {
	reg := NewRegistry()
	require.NoError(t, reg.RegisterCounter(Opts{Name: "tc_total"}))

	_, err := reg.StartTimer("tc_total", nil)
	assert.ErrorIs(t, err, ErrKindMismatch)
}

func TestStartTimer_NotRegistered(t *testing.T) {
	reg := NewRegistry()
	_, err := reg.StartTimer("missing", nil)
	assert.ErrorIs(t, err, ErrNotRegistered)
}

// ============================================================================
// ErrorKind
// ============================================================================

type rangeError struct{ msg string }

func (e *rangeError) Error() string { return e.msg }

type valueError struct{}

func (valueError) Error() string { return "value" }

func TestErrorKind(t *testing.T) {
	tests := []struct {
		name string
		err  error
		want string
	}{
		{"nil", nil, "none"},
		{"named pointer type", &rangeError{msg: "neg"}, "rangeError"},
		{"named value type", valueError{}, "valueError"},
		{"errors.New", errors.New("plain"), "unknown_error"},
		{"fmt.Errorf", fmt.Errorf("wrapped: %w", errors.New("inner")), "unknown_error"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, ErrorKind(tt.err))
		})
	}
}

// ============================================================================
// Reset
// ============================================================================

func TestReset(t *testing.T) {
	reg := NewRegistry()
	require.NoError(t, reg.RegisterCounter(Opts{Name: "r_total"}))
	require.NoError(t, reg.Inc("r_total", nil, 1))

	reg.Reset()

	assert.ErrorIs(t, reg.Inc("r_total", nil, 1), ErrNotRegistered)
	text, err := reg.Text()
	require.NoError(t, err)
	assert.Empty(t, strings.TrimSpace(text))
}

func TestDefaultRegistry(t *testing.T) {
	require.NotNil(t, Default())
	assert.Same(t, Default(), Default())
}
