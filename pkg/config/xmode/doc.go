// Package xmode 管理 instrkit 的进程级运行模式开关。
//
// 两个开关：
//
//   - DeferAll：兼容模式，所有被包装调用的结果强制表现为延迟值
//     （环境变量 INSTRKIT_DEFER_ALL）
//   - SpanLimitsDisabled：关闭 span 属性/事件/链接数量上限
//     （环境变量 INSTRKIT_DISABLE_SPAN_LIMITS）
//
// 开关默认关闭。FromEnv 在启动时读取环境变量，SetDeferAll /
// SetSpanLimitsDisabled 支持运行时（如配置热更新）调整。
//
// 任一开关首次被观察到处于开启状态时，记录一条警告日志；
// 同一进程生命周期内不会重复告警。
package xmode
