package xlog

import (
	"fmt"
	"log/slog"
	"strings"
)

// Level 日志级别，与 slog.Level 对齐。
type Level = slog.Level

// 支持的日志级别。
const (
	// LevelDebug Debug 级别
	LevelDebug = slog.LevelDebug
	// LevelInfo Info 级别（默认）
	LevelInfo = slog.LevelInfo
	// LevelWarn Warn 级别
	LevelWarn = slog.LevelWarn
	// LevelError Error 级别
	LevelError = slog.LevelError
)

// ParseLevel 解析字符串为日志级别。
//
// 支持大小写不敏感匹配："debug" / "info" / "warn" / "error"。
func ParseLevel(s string) (Level, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "debug":
		return LevelDebug, nil
	case "info", "":
		return LevelInfo, nil
	case "warn", "warning":
		return LevelWarn, nil
	case "error":
		return LevelError, nil
	default:
		return LevelInfo, fmt.Errorf("%w: %q", ErrInvalidLevel, s)
	}
}
