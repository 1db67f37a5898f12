// Package xwrap 是 instrkit 的核心：把任意函数包装为自动携带
// span 生命周期或指标记录的同签名函数。
//
// # 结构
//
//   - Traced / Counted / Observed 按 Options 构造 Wrapper
//   - Wrapper 可直接应用（Wrap），也可通过两种结构不同的挂载约定应用：
//     Apply（两参数形式，Binding 判别挂载目标种类）与
//     ApplyMember（三参数形式，Descriptor 槽位替换）。
//     两种约定共享同一个包装核心，运行时语义完全一致。
//   - 结果归一化：同步返回值、同步错误、实现 Deferred 的延迟值
//     统一进入一次且仅一次的结算（settle），结算副作用先于
//     生命周期释放（span 结束 / 计时器停止），再先于调用方观察到完成。
//
// # 同步语义
//
// 自然模式下包装不改变调用方可见的同步性：同步函数返回同步值，
// 返回 Deferred 的函数返回 Deferred。兼容模式
// （xmode.DeferAll，环境变量 INSTRKIT_DEFER_ALL）下，
// 声明返回类型容纳 *Future 的包装调用会把立即值包成已完成的
// Future，使所有包装调用表现为异步。
//
// # 使用示例
//
//	fetch := xwrap.Traced(xwrap.Options{
//		Name: "fetch_user",
//		Mode: xspan.ModeChild,
//		Attrs: map[string]any{"subsystem": "accounts"},
//	}).Wrap(rawFetch).(func(context.Context, string) (User, error))
//
// 被包装函数自身的错误全程透明：观察后原样传播，绝不吞没。
package xwrap
