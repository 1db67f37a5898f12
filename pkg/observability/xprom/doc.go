// Package xprom 提供延迟物化的指标注册表与标签治理。
//
// # 设计理念
//
// 注册与物化分离为两个生命周期：
//
//   - 注册（Register*）：进程级、按名称追加，只记录配置，不创建底层对象
//   - 物化：首次写入（Inc/Set/Observe/StartTimer）时创建 prometheus 指标
//
// 标签治理：写入时标签值统一转换为字符串（bool → "true"/"false"），
// nil 值被丢弃；未在注册时声明的标签键被静默过滤而非报错。
// 注册时未声明标签名的指标，在首次写入时从标签键推断（宽松默认，
// 便于临时使用；后续写入的额外键同样被过滤）。
//
// # 使用示例
//
//	reg := xprom.NewRegistry()
//	_ = reg.RegisterCounter(xprom.Opts{
//		Name:   "requests_total",
//		Help:   "total requests",
//		Labels: []string{"route", "error"},
//	})
//	_ = reg.Inc("requests_total", xprom.Labels{"route": "/users/:id", "error": "none"}, 1)
//
// 对未注册名称的写入返回 ErrNotRegistered——这是调用方编程错误，
// 不可恢复。Reset 清空注册表，仅用于测试隔离。
package xprom
