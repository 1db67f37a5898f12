package xwrap

import (
	"context"
	"fmt"
	"reflect"

	"github.com/omeyang/instrkit/pkg/observability/xprom"
)

// counterLifecycle 把包装调用接到计数器上。
type counterLifecycle struct {
	opts Options
}

func (l counterLifecycle) begin(ctx context.Context, name string, attrs map[string]any) (context.Context, func(Outcome)) {
	reg := l.opts.registry()
	// 使用前未注册或类型不符是调用方编程错误：在调用点立即失败，不延迟到结算
	kind, err := reg.Kind(name)
	if err != nil {
		panic(err)
	}
	if kind != xprom.KindCounter {
		panic(fmt.Errorf("%w: Counted on %s %q", xprom.ErrKindMismatch, kind, name))
	}
	return ctx, func(out Outcome) {
		labels := xprom.Labels(attrs)
		labels["error"] = xprom.ErrorKind(out.Err)
		_ = reg.Inc(name, labels, 1)
	}
}

// Counted 构造计数器 Wrapper。
//
// 每次结算恰好记录一次 +1，附带 error 维度：成功为 "none"，
// 失败为错误的分类名（无可识别分类时为 "unknown_error"）。
// 指标必须已按解析出的名称注册，否则调用点立即失败。
func Counted(opts Options) Wrapper {
	return newWrapper(opts, counterLifecycle{opts: opts})
}

// observeLifecycle 把包装调用接到 gauge/histogram/summary 上。
type observeLifecycle struct {
	opts  Options
	timed bool
}

func (l observeLifecycle) begin(ctx context.Context, name string, attrs map[string]any) (context.Context, func(Outcome)) {
	reg := l.opts.registry()
	labels := xprom.Labels(attrs)

	if l.timed {
		stop, err := reg.StartTimer(name, labels)
		if err != nil {
			panic(err)
		}
		// 计时模式：结算时停表记录耗时，不记录返回值
		return ctx, func(Outcome) { stop() }
	}

	if _, err := reg.Kind(name); err != nil {
		panic(err)
	}
	return ctx, func(out Outcome) {
		if !out.OK {
			return
		}
		if v, ok := asFloat(out.Value); ok {
			_ = reg.Write(name, labels, v)
		}
	}
}

// Observed 构造 gauge/histogram/summary Wrapper。
//
// timed 为 true 时在调用进入启动计时器、结算时记录经过秒数，
// 且不记录返回值；为 false 时忽略计时，仅当结算值为数值时
// 直接记录该值。
func Observed(opts Options, timed bool) Wrapper {
	return newWrapper(opts, observeLifecycle{opts: opts, timed: timed})
}

// asFloat 将结算值按数值类型降级为 float64。
func asFloat(value any) (float64, bool) {
	switch v := value.(type) {
	case float64:
		return v, true
	case float32:
		return float64(v), true
	case int:
		return float64(v), true
	case int8:
		return float64(v), true
	case int16:
		return float64(v), true
	case int32:
		return float64(v), true
	case int64:
		return float64(v), true
	case uint:
		return float64(v), true
	case uint8:
		return float64(v), true
	case uint16:
		return float64(v), true
	case uint32:
		return float64(v), true
	case uint64:
		return float64(v), true
	}
	// 命名数值类型（type Celsius float64 等）经反射降级
	rv := reflect.ValueOf(value)
	switch rv.Kind() {
	case reflect.Int, reflect.Int8, reflect.Int16, reflect.Int32, reflect.Int64:
		return float64(rv.Int()), true
	case reflect.Uint, reflect.Uint8, reflect.Uint16, reflect.Uint32, reflect.Uint64:
		return float64(rv.Uint()), true
	case reflect.Float32, reflect.Float64:
		return rv.Float(), true
	default:
		return 0, false
	}
}
