package xprom

import "errors"

var (
	// ErrEmptyName 表示指标名称为空。
	ErrEmptyName = errors.New("xprom: empty metric name")

	// ErrNotRegistered 表示对未注册名称的写入。
	ErrNotRegistered = errors.New("xprom: metric not registered")

	// ErrAlreadyRegistered 表示同名重复注册。
	ErrAlreadyRegistered = errors.New("xprom: metric already registered")

	// ErrKindMismatch 表示写入操作与指标类型不匹配。
	ErrKindMismatch = errors.New("xprom: operation does not match metric kind")
)
