// Package xspan 负责解析 span 的启动策略（start mode）。
//
// 每次调用根据请求的 StartMode 与 context 中的活跃 span 决定：
// 复用现有 span、创建子 span，还是创建新 trace 的根 span（可选携带
// 指向原活跃 span 的 link）。返回的 Handle 记录本次调用是否拥有
// span 的生命周期（Owns），只有拥有者才负责结束它。
//
// # 使用示例
//
//	h := xspan.Resolve(ctx, "fetch_user", attrs, xspan.ModeChild, "")
//	defer h.Release(err)
//	doWork(h.Ctx)
//
// 无持久状态：每次 Resolve 都重新咨询 context 中的活跃 span。
package xspan
