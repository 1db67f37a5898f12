// Package xroute 提供 HTTP 路由模式匹配，把高基数的请求路径归一化为
// 低基数的路由标签。
//
// # 设计理念
//
// 指标标签的基数必须有界。直接把请求路径当标签
// （/users/42、/users/43 …）会让时间序列无限膨胀；
// xroute 用一张模式表把路径还原为注册时的模式
// （/users/:id），参数名一致、基数有界。
//
// # 模式语法
//
//   - 字面段：逐字匹配（/health）
//   - 参数段：:name 匹配任意单段并捕获（/users/:id）
//   - 尾部通配：* 只允许出现在末段，匹配剩余全部路径（/static/*）
//
// 匹配按注册顺序进行，先注册的模式先命中。
//
// # 使用方式
//
//	table := xroute.MustNewTable("/users/:id", "/static/*")
//	m, ok := table.Resolve("/users/42")
//	// m.Pattern == "/users/:id", m.Params["id"] == "42"
package xroute
