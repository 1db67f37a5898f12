package xwrap

import (
	"context"
	"fmt"
	"reflect"
	"runtime"
	"strings"
	"sync"

	"github.com/omeyang/instrkit/pkg/config/xmode"
)

var (
	contextType = reflect.TypeOf((*context.Context)(nil)).Elem()
	errorType   = reflect.TypeOf((*error)(nil)).Elem()
	futureType  = reflect.TypeOf((*Future)(nil))
)

// Outcome 表示一次被包装调用的结算结果。
type Outcome struct {
	// OK 是否成功结算。
	OK bool
	// Value 成功结算的值（可能为 nil）。
	Value any
	// Err 失败结算的错误。
	Err error
}

// lifecycle 是 tracing 与 metrics 两种插桩行为的公共抽象。
//
// begin 在调用进入时执行（span 解析并激活 / 计时器启动 / 注册预检），
// 返回传给原函数的派生 context 与结算函数。结算函数由 settleGuard
// 保证至多执行一次，且执行先于调用方观察到完成。
type lifecycle interface {
	begin(ctx context.Context, name string, attrs map[string]any) (context.Context, func(Outcome))
}

// Wrapper 是一次挂载的产物，可通过任一挂载约定应用于目标函数。
//
// 由 Traced / Counted / Observed 构造；两种挂载约定（Apply /
// ApplyMember）与直接 Wrap 共享同一个包装核心，语义一致。
type Wrapper struct {
	wrap func(fn any, member, module string) any
}

// Wrap 直接包装函数，返回与 fn 同签名的包装函数。
//
// fn 不是函数时 panic：这是挂载期的编程错误，立即失败优于
// 在首次调用时才暴露。
func (w Wrapper) Wrap(fn any) any { return w.wrap(fn, "", "") }

func newWrapper(opts Options, lc lifecycle) Wrapper {
	return Wrapper{wrap: func(fn any, member, module string) any {
		return wrapCallable(fn, opts, member, module, lc)
	}}
}

// =============================================================================
// 包装核心
// =============================================================================

// wrapCallable 是两种挂载约定共享的包装核心。
//
// 名称推断链：显式 Options.Name -> 挂载约定提供的成员名 ->
// 函数运行时名 -> "anonymous"。
func wrapCallable(fn any, opts Options, member, module string, lc lifecycle) any {
	v := reflect.ValueOf(fn)
	if !v.IsValid() || v.Kind() != reflect.Func {
		panic(fmt.Errorf("%w: %T", ErrNotFunc, fn))
	}
	t := v.Type()

	source := runtimeFuncName(v)
	name := inferName(opts.Name, member, source)
	hasCtx := t.NumIn() > 0 && t.In(0) == contextType

	wrapped := reflect.MakeFunc(t, func(args []reflect.Value) []reflect.Value {
		coerce := xmode.DeferAll()

		ctx := context.Background()
		if hasCtx && !args[0].IsNil() {
			ctx = args[0].Interface().(context.Context)
		}

		// 启用判定每次调用求值一次，先于任何 span/指标对象被触碰
		plain := plainArgs(args, hasCtx)
		if !opts.gate(ctx, plain) {
			return coerceResults(t, call(v, t, args), coerce)
		}

		attrs := computeAttrs(opts, ctx, plain, module, source)
		innerCtx, settle := lc.begin(ctx, name, attrs)
		guard := &settleGuard{settle: settle}

		callArgs := args
		if hasCtx {
			callArgs = make([]reflect.Value, len(args))
			copy(callArgs, args)
			callArgs[0] = reflect.ValueOf(innerCtx)
		}

		results, pv, panicked := guardedCall(v, t, callArgs)
		if panicked {
			err := panicError(pv)
			guard.fire(Outcome{Err: err})
			if coerce {
				if rejected, ok := rejectedResults(t, err); ok {
					return rejected
				}
			}
			panic(pv)
		}
		return settleResults(t, results, guard, coerce)
	})
	return wrapped.Interface()
}

// =============================================================================
// 结果归一化
// =============================================================================

// settleGuard 保证结算至多发生一次。
//
// 延迟值重复结算、panic 与延迟拒绝交叠等路径都汇聚到这里，
// 第二次及以后的 fire 是 no-op。
type settleGuard struct {
	once   sync.Once
	settle func(Outcome)
}

func (g *settleGuard) fire(out Outcome) {
	if g.settle == nil {
		return
	}
	g.once.Do(func() { g.settle(out) })
}

// settleResults 归一化非 panic 路径的调用结果。
func settleResults(t reflect.Type, results []reflect.Value, guard *settleGuard, coerce bool) []reflect.Value {
	// 末位 error 返回值是同步失败通道：观察后原样传播，身份不变
	if n := t.NumOut(); n > 0 && t.Out(n-1) == errorType {
		if errV := results[n-1]; !errV.IsNil() {
			guard.fire(Outcome{Err: errV.Interface().(error)})
			return results
		}
	}

	slot, ok := valueSlot(t)
	if !ok {
		guard.fire(Outcome{OK: true})
		return results
	}

	if d, isDeferred := asDeferred(results[slot]); isDeferred {
		return settleDeferred(t, results, slot, d, guard)
	}

	// 立即值：同步结算；自然模式原样返回，兼容模式包成已完成 Future
	value := results[slot].Interface()
	guard.fire(Outcome{OK: true, Value: value})
	if coerce {
		return coerceSlot(t, results, slot, Resolved(value))
	}
	return results
}

// settleDeferred 归一化延迟结果。
//
// 返回槽位的声明类型容纳 *Future 时，替换为受控 Future：
// 结算副作用（guard.fire）严格先于外层 Future 完成，调用方
// 观察到完成即意味着 span 已结束 / 指标已写入。
// 声明类型为具体延迟类型时无法替换，退化为仅订阅副作用——
// 订阅先于调用方注册，Deferred 契约保证副作用先执行。
func settleDeferred(t reflect.Type, results []reflect.Value, slot int, d Deferred, guard *settleGuard) []reflect.Value {
	slotType := t.Out(slot)
	if slotType.Kind() == reflect.Interface && futureType.AssignableTo(slotType) {
		out := NewFuture()
		d.OnSettle(func(value any, err error) {
			if err != nil {
				guard.fire(Outcome{Err: err})
				out.Reject(err)
				return
			}
			guard.fire(Outcome{OK: true, Value: value})
			out.Resolve(value)
		})
		return coerceSlot(t, results, slot, out)
	}

	d.OnSettle(func(value any, err error) {
		if err != nil {
			guard.fire(Outcome{Err: err})
			return
		}
		guard.fire(Outcome{OK: true, Value: value})
	})
	return results
}

// coerceResults 对未插桩路径（启用判定为 false）应用兼容模式的
// 结果强制延迟：立即成功值包成已完成 Future，错误与延迟值保持自然。
func coerceResults(t reflect.Type, results []reflect.Value, coerce bool) []reflect.Value {
	if !coerce {
		return results
	}
	if n := t.NumOut(); n > 0 && t.Out(n-1) == errorType && !results[n-1].IsNil() {
		return results
	}
	slot, ok := valueSlot(t)
	if !ok {
		return results
	}
	if _, isDeferred := asDeferred(results[slot]); isDeferred {
		return results
	}
	return coerceSlot(t, results, slot, Resolved(results[slot].Interface()))
}

// coerceSlot 将结果槽位替换为 Future；声明类型无法容纳时保持自然结果。
func coerceSlot(t reflect.Type, results []reflect.Value, slot int, f *Future) []reflect.Value {
	slotType := t.Out(slot)
	if slotType.Kind() != reflect.Interface || !futureType.AssignableTo(slotType) {
		return results
	}
	out := make([]reflect.Value, len(results))
	copy(out, results)
	rv := reflect.New(slotType).Elem()
	rv.Set(reflect.ValueOf(f))
	out[slot] = rv
	return out
}

// rejectedResults 构造 panic 被兼容模式转换后的结果集：
// 值槽位为已拒绝 Future，其余槽位为零值。
func rejectedResults(t reflect.Type, err error) ([]reflect.Value, bool) {
	slot, ok := valueSlot(t)
	if !ok {
		return nil, false
	}
	slotType := t.Out(slot)
	if slotType.Kind() != reflect.Interface || !futureType.AssignableTo(slotType) {
		return nil, false
	}
	out := make([]reflect.Value, t.NumOut())
	for i := 0; i < t.NumOut(); i++ {
		out[i] = reflect.Zero(t.Out(i))
	}
	rv := reflect.New(slotType).Elem()
	rv.Set(reflect.ValueOf(Rejected(err)))
	out[slot] = rv
	return out, true
}

// =============================================================================
// 辅助函数
// =============================================================================

func call(v reflect.Value, t reflect.Type, args []reflect.Value) []reflect.Value {
	if t.IsVariadic() {
		return v.CallSlice(args)
	}
	return v.Call(args)
}

func guardedCall(v reflect.Value, t reflect.Type, args []reflect.Value) (results []reflect.Value, pv any, panicked bool) {
	defer func() {
		if r := recover(); r != nil {
			pv = r
			panicked = true
		}
	}()
	results = call(v, t, args)
	return results, nil, false
}

func panicError(pv any) error {
	if err, ok := pv.(error); ok {
		return err
	}
	return fmt.Errorf("xwrap: panic: %v", pv)
}

// valueSlot 返回首个非 error 的返回槽位。
func valueSlot(t reflect.Type) (int, bool) {
	for i := 0; i < t.NumOut(); i++ {
		if t.Out(i) != errorType {
			return i, true
		}
	}
	return 0, false
}

// asDeferred 对返回值做延迟能力探测。
func asDeferred(v reflect.Value) (Deferred, bool) {
	if !v.IsValid() {
		return nil, false
	}
	switch v.Kind() {
	case reflect.Interface, reflect.Pointer, reflect.Map, reflect.Chan, reflect.Func, reflect.Slice:
		if v.IsNil() {
			return nil, false
		}
	}
	d, ok := v.Interface().(Deferred)
	return d, ok
}

func plainArgs(args []reflect.Value, hasCtx bool) []any {
	rest := args
	if hasCtx {
		rest = args[1:]
	}
	out := make([]any, len(rest))
	for i, a := range rest {
		out[i] = a.Interface()
	}
	return out
}

// computeAttrs 按固定顺序合成属性：静态 -> 动态（动态覆盖）->
// 自动注入的来源函数名 / 所属模块名。
func computeAttrs(opts Options, ctx context.Context, args []any, module, source string) map[string]any {
	attrs := make(map[string]any, len(opts.Attrs)+2)
	for k, v := range opts.Attrs {
		attrs[k] = v
	}
	if opts.DynamicAttrs != nil {
		for k, v := range opts.DynamicAttrs(ctx, args) {
			attrs[k] = v
		}
	}
	if source != "" {
		attrs["code.function"] = source
	}
	if module != "" {
		attrs["code.namespace"] = module
	}
	return attrs
}

func inferName(optName, member, source string) string {
	switch {
	case optName != "":
		return optName
	case member != "":
		return member
	case source != "":
		return source
	default:
		return "anonymous"
	}
}

// runtimeFuncName 返回函数的运行时短名；匿名函数返回空字符串。
func runtimeFuncName(v reflect.Value) string {
	rf := runtime.FuncForPC(v.Pointer())
	if rf == nil {
		return ""
	}
	name := rf.Name()
	if i := strings.LastIndex(name, "/"); i >= 0 {
		name = name[i+1:]
	}
	if i := strings.Index(name, "."); i >= 0 {
		name = name[i+1:]
	}
	name = strings.TrimSuffix(name, "-fm")
	if name == "" {
		return ""
	}
	// 闭包/匿名函数的运行时名以 funcN 结尾，视为无名
	last := name[strings.LastIndex(name, ".")+1:]
	if strings.HasPrefix(last, "func") {
		return ""
	}
	return name
}
