// Package observability 提供可观测性相关的子包。
//
// 子包列表：
//   - xlog: 结构化日志，基于 log/slog 扩展，自动注入 trace/span id
//   - xspan: span 启动策略解析与生命周期归属
//   - xwrap: 声明式插桩包装核心（tracing / metrics）
//   - xprom: prometheus 指标注册表，惰性物化与标签治理
//   - xboot: OpenTelemetry SDK 启动与有序关停
//
// 设计原则：
//   - 遵循 OpenTelemetry 语义规范
//   - 插桩不改变被包装函数的签名与错误身份
//   - 结算副作用至多一次，先于调用方观察到完成
package observability
