// Package xlog 提供 instrkit 内部与宿主应用共用的结构化日志。
//
// # 设计理念
//
//   - 强制 context 传递：日志自动携带当前 OTel span 的 trace_id / span_id
//   - 动态级别控制：运行时可调整，无需重启
//   - 生命周期管理：Build() 返回 cleanup 函数
//   - 类型安全：方法签名只接受 slog.Attr
//
// # 使用示例
//
//	logger, cleanup, err := xlog.New().
//		WithLevel(xlog.LevelInfo).
//		WithFormat(xlog.FormatJSON).
//		Build()
//	if err != nil {
//		panic(err)
//	}
//	defer cleanup()
//
//	logger.Info(ctx, "wrapped call settled", slog.String("name", "fetchUser"))
//
// 脚手架/小工具场景可直接使用包级函数（xlog.Warn 等），
// 服务端推荐依赖注入（显式持有 Logger）。
package xlog
