package xlog

import "errors"

var (
	// ErrInvalidLevel 表示日志级别字符串非法。
	ErrInvalidLevel = errors.New("xlog: invalid level")

	// ErrInvalidFormat 表示日志输出格式非法。
	ErrInvalidFormat = errors.New("xlog: invalid format")
)
