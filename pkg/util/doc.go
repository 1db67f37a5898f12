// Package util 提供通用工具相关的子包。
//
// 子包列表：
//   - xroute: HTTP 路由模式匹配，把请求路径归一化为低基数路由标签
//   - xpem: PEM 证书包的读取、校验、合并与原子安装
//
// 设计原则：
//   - 无全局状态，构建后只读，可并发使用
//   - 跨平台兼容
package util
