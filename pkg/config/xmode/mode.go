package xmode

import (
	"context"
	"os"
	"strconv"
	"strings"
	"sync"
	"sync/atomic"

	"github.com/omeyang/instrkit/pkg/observability/xlog"
)

// 环境变量名。
const (
	// EnvDeferAll 兼容模式开关：所有被包装调用的结果强制表现为延迟值。
	EnvDeferAll = "INSTRKIT_DEFER_ALL"

	// EnvDisableSpanLimits 关闭 span 属性/事件/链接数量上限。
	EnvDisableSpanLimits = "INSTRKIT_DISABLE_SPAN_LIMITS"
)

// =============================================================================
// 全局状态
// =============================================================================

// 设计决策: 开关使用 atomic.Bool 实现无锁读取。包装器在每次调用时读取
// DeferAll，热路径不能引入互斥锁。写路径（FromEnv/Set*/Reset）天然低频。
var (
	deferAll           atomic.Bool
	spanLimitsDisabled atomic.Bool

	// warnDeferOnce / warnLimitsOnce 保证每个条件的警告在进程生命周期内
	// 只输出一次。Reset 会重建，仅供测试使用。
	warnMu         sync.Mutex
	warnDeferOnce  = new(sync.Once)
	warnLimitsOnce = new(sync.Once)
)

// =============================================================================
// 初始化
// =============================================================================

// FromEnv 从环境变量加载开关状态。
//
// 取值解析遵循 strconv.ParseBool（"1"/"t"/"true" 等，大小写不敏感）；
// 未设置或解析失败的变量保持当前值不变。
func FromEnv() {
	if v, ok := lookupBool(EnvDeferAll); ok {
		deferAll.Store(v)
	}
	if v, ok := lookupBool(EnvDisableSpanLimits); ok {
		spanLimitsDisabled.Store(v)
	}
}

func lookupBool(name string) (value, ok bool) {
	raw, present := os.LookupEnv(name)
	if !present {
		return false, false
	}
	parsed, err := strconv.ParseBool(strings.TrimSpace(raw))
	if err != nil {
		return false, false
	}
	return parsed, true
}

// =============================================================================
// 读取
// =============================================================================

// DeferAll 返回兼容模式是否开启。
//
// 首次观察到开启状态时输出一次警告日志。
func DeferAll() bool {
	on := deferAll.Load()
	if on {
		once := currentOnce(&warnDeferOnce)
		once.Do(func() {
			xlog.Warn(context.Background(),
				"xmode: defer-all compatibility mode is active, every wrapped call returns a deferred result")
		})
	}
	return on
}

// SpanLimitsDisabled 返回 span 上限是否被关闭。
//
// 首次观察到关闭上限时输出一次警告日志。
func SpanLimitsDisabled() bool {
	on := spanLimitsDisabled.Load()
	if on {
		once := currentOnce(&warnLimitsOnce)
		once.Do(func() {
			xlog.Warn(context.Background(),
				"xmode: span attribute/event/link limits are disabled, unbounded spans may exhaust memory")
		})
	}
	return on
}

// currentOnce 在锁保护下读取当前 once 指针，避免与 Reset 重建产生竞争。
func currentOnce(p **sync.Once) *sync.Once {
	warnMu.Lock()
	defer warnMu.Unlock()
	return *p
}

// =============================================================================
// 写入
// =============================================================================

// SetDeferAll 设置兼容模式开关，供配置热更新与测试使用。
func SetDeferAll(on bool) { deferAll.Store(on) }

// SetSpanLimitsDisabled 设置 span 上限开关，供配置热更新与测试使用。
func SetSpanLimitsDisabled(on bool) { spanLimitsDisabled.Store(on) }

// Reset 恢复默认状态并重置一次性警告。仅用于测试隔离。
func Reset() {
	deferAll.Store(false)
	spanLimitsDisabled.Store(false)

	warnMu.Lock()
	defer warnMu.Unlock()
	warnDeferOnce = new(sync.Once)
	warnLimitsOnce = new(sync.Once)
}
