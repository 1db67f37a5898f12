// Package xconf 提供插桩配置文件的加载、校验与热重载，基于 koanf 实现。
//
// # 设计理念
//
// xconf 定位为 instrkit 的配置入口：把服务标识、trace 导出、日志与
// 运行模式开关从 YAML/JSON 文件加载为强类型 Settings，供 xboot
// 构建 SDK、供 xmode 设置进程级开关。
//
// 设计决策: 配置 schema 固定为 Settings 结构体，而非暴露任意键值
// 查询。插桩配置面有限且稳定，强类型 schema 让拼写错误在加载期
// 暴露；需要任意查询时可通过 Client() 取底层 koanf 实例。
//
// # 支持的格式
//
//   - YAML（默认，推荐）：.yaml, .yml
//   - JSON：.json
//
// # 热重载
//
// 支持文件变更监视和自动重载（基于 fsnotify）。
// 重载成功后自动把 Mode 段重新写入 xmode（defer_all 等进程级开关
// 随配置文件实时生效）；trace/log 段的变更只反映到 Settings 快照，
// 已构建的 TracerProvider 不受影响。
// 从字节数据创建的实例不支持重载与监视。
package xconf
