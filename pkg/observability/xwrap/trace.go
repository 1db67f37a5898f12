package xwrap

import (
	"context"
	"fmt"
	"sort"
	"time"

	"go.opentelemetry.io/otel/attribute"

	"github.com/omeyang/instrkit/pkg/observability/xspan"
)

// spanLifecycle 把包装调用接到 span 生命周期上。
type spanLifecycle struct {
	opts Options
}

func (l spanLifecycle) begin(ctx context.Context, name string, attrs map[string]any) (context.Context, func(Outcome)) {
	h := xspan.Resolve(ctx, name, attrsToKV(attrs), l.opts.Mode, l.opts.TracerName)
	return h.Ctx, func(out Outcome) { h.Release(out.Err) }
}

// Traced 构造 tracing Wrapper。
//
// 每次调用按 Options.Mode 解析 span 启动策略，将解析出的 span
// 通过 context 激活后调用原函数；结算时写入状态并在拥有
// 生命周期的情况下结束 span。
func Traced(opts Options) Wrapper {
	return newWrapper(opts, spanLifecycle{opts: opts})
}

// Do 以闭包形式执行一次带 span 的操作，是免反射的快捷路径。
//
// 与 Traced 包装的函数遵循相同的启用判定、属性合成与结算语义；
// 适合不需要保留原函数签名的调用点。
func Do[T any](ctx context.Context, opts Options, fn func(context.Context) (T, error)) (T, error) {
	if ctx == nil {
		ctx = context.Background()
	}
	if !opts.gate(ctx, nil) {
		return fn(ctx)
	}

	name := opts.Name
	if name == "" {
		name = "anonymous"
	}
	attrs := computeAttrs(opts, ctx, nil, "", "")
	h := xspan.Resolve(ctx, name, attrsToKV(attrs), opts.Mode, opts.TracerName)

	value, err := fn(h.Ctx)
	h.Release(err)
	return value, err
}

// attrsToKV 将属性 map 转为 OTel 属性，键排序保证确定性。
func attrsToKV(attrs map[string]any) []attribute.KeyValue {
	if len(attrs) == 0 {
		return nil
	}
	keys := make([]string, 0, len(attrs))
	for k := range attrs {
		keys = append(keys, k)
	}
	sort.Strings(keys)

	kvs := make([]attribute.KeyValue, 0, len(attrs))
	for _, k := range keys {
		kvs = append(kvs, toKeyValue(k, attrs[k]))
	}
	return kvs
}

func toKeyValue(key string, value any) attribute.KeyValue {
	switch v := value.(type) {
	case string:
		return attribute.String(key, v)
	case bool:
		return attribute.Bool(key, v)
	case int:
		return attribute.Int(key, v)
	case int64:
		return attribute.Int64(key, v)
	case float64:
		return attribute.Float64(key, v)
	case float32:
		return attribute.Float64(key, float64(v))
	case time.Duration:
		return attribute.Int64(key, v.Nanoseconds())
	default:
		return attribute.String(key, fmt.Sprint(v))
	}
}
