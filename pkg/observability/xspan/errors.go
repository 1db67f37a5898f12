package xspan

import "errors"

var (
	// ErrInvalidMode 表示启动策略字符串非法。
	ErrInvalidMode = errors.New("xspan: invalid start mode")
)
