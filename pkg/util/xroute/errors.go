package xroute

import "errors"

var (
	// ErrInvalidPattern 表示路由模式不合法。
	ErrInvalidPattern = errors.New("xroute: invalid pattern")

	// ErrDuplicatePattern 表示模式重复注册。
	ErrDuplicatePattern = errors.New("xroute: duplicate pattern")
)
