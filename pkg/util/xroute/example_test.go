package xroute_test

import (
	"fmt"

	"github.com/omeyang/instrkit/pkg/util/xroute"
)

// ExampleTable_Resolve 演示把请求路径归一化为注册模式。
func ExampleTable_Resolve() {
	table := xroute.MustNewTable(
		"/users/:id",
		"/users/:id/orders/:order",
		"/static/*",
	)

	m, _ := table.Resolve("/users/42/orders/1001")
	fmt.Println(m.Pattern)
	fmt.Println(m.Params["id"], m.Params["order"])

	// Output:
	// /users/:id/orders/:order
	// 42 1001
}

// ExampleTable_Label 演示作为指标标签值使用。
func ExampleTable_Label() {
	table := xroute.MustNewTable("/users/:id")

	fmt.Println(table.Label("/users/42"))
	fmt.Println(table.Label("/internal/debug"))

	// Output:
	// /users/:id
	// unmatched
}
