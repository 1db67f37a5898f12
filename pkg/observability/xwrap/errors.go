package xwrap

import "errors"

var (
	// ErrNotFunc 表示挂载目标不是函数。
	ErrNotFunc = errors.New("xwrap: wrap target is not a function")

	// ErrInvalidBinding 表示挂载约定收到不可识别的目标种类。
	ErrInvalidBinding = errors.New("xwrap: invalid binding kind")
)
