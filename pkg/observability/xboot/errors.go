package xboot

import "errors"

var (
	// ErrUnknownExporter 表示不支持的导出器类型。
	ErrUnknownExporter = errors.New("xboot: unknown trace exporter")

	// ErrInvalidSampleRatio 表示采样比例不在 [0, 1] 内。
	ErrInvalidSampleRatio = errors.New("xboot: sample ratio out of [0, 1]")
)
