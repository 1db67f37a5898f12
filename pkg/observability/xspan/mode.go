package xspan

import (
	"fmt"
	"strconv"
	"strings"
)

// StartMode 表示 span 的启动策略。
//
// 策略在每次调用时针对当前活跃 span 重新求值，自身不携带状态。
type StartMode int

const (
	// ModeReuse 复用当前活跃 span；无活跃 span 时创建新 span 并拥有其生命周期。
	ModeReuse StartMode = iota

	// ModeChild 总是创建新 span；有活跃 span 时成为其子 span，否则为根 span。
	ModeChild

	// ModeNewTrace 总是创建新 trace 的根 span，忽略活跃 span 的父子关系。
	ModeNewTrace

	// ModeNewTraceLink 同 ModeNewTrace，但若存在活跃 span，
	// 新根 span 会携带一条指向它的单向 link（保留因果可发现性）。
	ModeNewTraceLink
)

// String 返回 StartMode 的可读字符串表示。
func (m StartMode) String() string {
	switch m {
	case ModeReuse:
		return "reuse"
	case ModeChild:
		return "child"
	case ModeNewTrace:
		return "new_trace"
	case ModeNewTraceLink:
		return "new_trace_link"
	default:
		return "StartMode(" + strconv.Itoa(int(m)) + ")"
	}
}

// ParseMode 解析字符串为 StartMode，大小写不敏感。
func ParseMode(s string) (StartMode, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "reuse", "":
		return ModeReuse, nil
	case "child":
		return ModeChild, nil
	case "new_trace", "newtrace":
		return ModeNewTrace, nil
	case "new_trace_link", "newtracelink":
		return ModeNewTraceLink, nil
	default:
		return ModeReuse, fmt.Errorf("%w: %q", ErrInvalidMode, s)
	}
}
