package xwrap

import (
	"context"

	"github.com/omeyang/instrkit/pkg/observability/xprom"
	"github.com/omeyang/instrkit/pkg/observability/xspan"
)

// GateFunc 按调用求值的启用判定。
//
// args 为本次调用的实参（不含首个 context.Context 参数）；
// 当前活跃 span 可通过 trace.SpanFromContext(ctx) 获取。
// 返回 false 时本次调用不做任何插桩，原函数直接执行。
type GateFunc func(ctx context.Context, args []any) bool

// AttrsFunc 按调用派生额外属性/标签。
//
// 返回的键与静态 Attrs 冲突时以本函数结果为准。
type AttrsFunc func(ctx context.Context, args []any) map[string]any

// Options 是一次挂载的不可变配置。
//
// 在挂载时创建，之后只读；同一 Wrapper 的所有调用共享同一份配置。
type Options struct {
	// Name 显示名。为空时按 成员名 -> 函数运行时名 -> "anonymous" 链推断。
	// 指标包装器以此名寻址注册表，需符合 prometheus 命名规则。
	Name string

	// Attrs 静态属性（tracing）或标签（metrics）。
	Attrs map[string]any

	// DynamicAttrs 按调用派生的额外属性，键冲突时覆盖 Attrs。
	DynamicAttrs AttrsFunc

	// Condition 启用判定：nil（始终启用）、bool 或 GateFunc。
	//
	// 判定为 false 时原函数不加包装直接执行（tracing 场景下
	// 兼容模式的结果强制延迟仍然生效，但不创建任何 span）。
	// 判定函数自身的 panic 不做防护，作为调用失败向外传播。
	Condition any

	// Mode span 启动策略（仅 tracing）。
	Mode xspan.StartMode

	// TracerName instrumentation 名称（仅 tracing），为空用默认值。
	TracerName string

	// Registry 指标注册表（仅 metrics），为 nil 时使用 xprom.Default()。
	Registry *xprom.Registry
}

// registry 返回生效的注册表。
func (o Options) registry() *xprom.Registry {
	if o.Registry != nil {
		return o.Registry
	}
	return xprom.Default()
}

// gate 求值启用判定。
func (o Options) gate(ctx context.Context, args []any) bool {
	switch c := o.Condition.(type) {
	case nil:
		return true
	case bool:
		return c
	case GateFunc:
		return c(ctx, args)
	case func(context.Context, []any) bool:
		return c(ctx, args)
	default:
		// 不可识别的判定类型视为配置错误，宁可不插桩也不误报
		return false
	}
}
