// Package xboot 负责 OpenTelemetry SDK 的启动与有序关停。
//
// # 设计理念
//
// xboot 是 instrkit 的装配点：根据配置构建 exporter、resource、
// sampler 与 TracerProvider，注册为全局 provider 并返回 Runtime
// 句柄。xspan/xwrap 只依赖全局 provider，不感知装配细节。
//
// 设计决策: 不提供 Meter SDK 装配。指标路径走 xprom 的
// prometheus 注册表（拉模式），与 trace 的推模式各走各的管道，
// 避免同一进程内两套指标出口。
//
// # 使用方式
//
//	rt, err := xboot.Start(ctx, xboot.DefaultConfig())
//	if err != nil {
//	    return err
//	}
//	defer rt.Shutdown(context.Background())
//
// Shutdown 逆序关停各组件并冲刷未导出的 span，必须在进程退出前调用。
package xboot
