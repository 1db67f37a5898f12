package xspan

import (
	"context"
	"sync"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"
)

const (
	// defaultTracerName 默认 instrumentation 名称。
	defaultTracerName = "github.com/omeyang/instrkit"

	// AttrOverrideEligible 标记 span 是否参与采集端采样覆写。
	//
	// 所有新建 span 默认写入 false；调用方显式提供同名属性时以调用方为准。
	AttrOverrideEligible = attribute.Key("sampling.override.eligible")
)

// Handle 表示一次启动策略解析的结果。
//
// Span 是独占引用；Owns 为 true 表示本次调用创建了该 span，
// 负责在结算时结束它。Owns 为 false 表示 span 由外层调用持有，
// 本次调用不得结束它。
type Handle struct {
	// Ctx 携带已激活 span 的派生 context，应传递给被包装的调用。
	Ctx context.Context
	// Span 本次调用操作的 span。
	Span trace.Span
	// Owns 是否拥有 span 的生命周期。
	Owns bool

	// endOnce 保证 Release 的结束动作幂等。
	endOnce *sync.Once
}

// Resolve 根据启动策略与当前活跃 span 解析出本次调用使用的 span。
//
// 各策略语义见 StartMode 常量文档。tracerName 为空时使用默认名称。
//
// 失败语义：底层 tracer 的创建失败不在此处捕获，由调用方处理；
// 本函数不做重试。
func Resolve(ctx context.Context, name string, attrs []attribute.KeyValue, mode StartMode, tracerName string) Handle {
	if ctx == nil {
		ctx = context.Background()
	}
	if tracerName == "" {
		tracerName = defaultTracerName
	}

	active := trace.SpanFromContext(ctx)
	activeValid := active.SpanContext().IsValid()

	if mode == ModeReuse && activeValid {
		return Handle{Ctx: ctx, Span: active, Owns: false, endOnce: new(sync.Once)}
	}

	opts := []trace.SpanStartOption{
		trace.WithAttributes(withOverrideDefault(attrs)...),
	}
	switch mode {
	case ModeNewTrace:
		opts = append(opts, trace.WithNewRoot())
	case ModeNewTraceLink:
		opts = append(opts, trace.WithNewRoot())
		if activeValid {
			opts = append(opts, trace.WithLinks(trace.Link{SpanContext: active.SpanContext()}))
		}
	}

	tracer := otel.Tracer(tracerName)
	spanCtx, span := tracer.Start(ctx, name, opts...)
	return Handle{Ctx: spanCtx, Span: span, Owns: true, endOnce: new(sync.Once)}
}

// Release 结算 span：写入状态与错误，并在拥有生命周期时结束 span。
//
// err 非 nil 时记录异常并置 Error 状态；否则置 Ok 状态。
// 状态写入先于 span 结束发生。对同一 Handle 多次 Release，
// 结束动作只执行一次（幂等，不会抛出）。
//
// 设计决策: 复用的 span（Owns=false）同样写入状态与异常——外层调用
// 仍拥有结束权，但本次调用观察到的失败应当对 span 可见。
func (h Handle) Release(err error) {
	if h.Span == nil {
		return
	}
	if h.endOnce == nil {
		// 零值 Handle 兜底，仍保证单次结束语义由 SDK 侧承担
		h.endOnce = new(sync.Once)
	}
	h.endOnce.Do(func() {
		if err != nil {
			h.Span.RecordError(err)
			h.Span.SetStatus(codes.Error, err.Error())
		} else {
			h.Span.SetStatus(codes.Ok, "")
		}
		if h.Owns {
			h.Span.End()
		}
	})
}

// withOverrideDefault 注入默认的采样覆写标记。
//
// 调用方已显式设置同名属性时不追加默认值（调用方优先）。
func withOverrideDefault(attrs []attribute.KeyValue) []attribute.KeyValue {
	for _, kv := range attrs {
		if kv.Key == AttrOverrideEligible {
			return attrs
		}
	}
	out := make([]attribute.KeyValue, 0, len(attrs)+1)
	out = append(out, attrs...)
	out = append(out, AttrOverrideEligible.Bool(false))
	return out
}
