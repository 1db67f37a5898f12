package xprom

import (
	"bytes"
	"fmt"
	"sync"
	"time"

	"github.com/prometheus/common/expfmt"
)

// =============================================================================
// 写入操作
//
// 每次写入：转换标签值 -> （必要时）物化实例 -> 过滤到声明的标签名 -> 记录。
// 对未注册名称的写入返回 ErrNotRegistered。
// =============================================================================

// Inc 对计数器增加 delta。
func (r *Registry) Inc(name string, labels Labels, delta float64) error {
	converted := convertLabels(labels)

	r.mu.Lock()
	defer r.mu.Unlock()

	reg, err := r.ensure(name, converted)
	if err != nil {
		return err
	}
	if reg.kind != KindCounter {
		return fmt.Errorf("%w: Inc on %s %q", ErrKindMismatch, reg.kind, name)
	}
	reg.inst.counter.With(governLabels(converted, reg.inst.labelNames)).Add(delta)
	return nil
}

// Set 设置瞬时值指标。
func (r *Registry) Set(name string, labels Labels, value float64) error {
	converted := convertLabels(labels)

	r.mu.Lock()
	defer r.mu.Unlock()

	reg, err := r.ensure(name, converted)
	if err != nil {
		return err
	}
	if reg.kind != KindGauge {
		return fmt.Errorf("%w: Set on %s %q", ErrKindMismatch, reg.kind, name)
	}
	reg.inst.gauge.With(governLabels(converted, reg.inst.labelNames)).Set(value)
	return nil
}

// Observe 向直方图或摘要记录一次观测值。
func (r *Registry) Observe(name string, labels Labels, value float64) error {
	converted := convertLabels(labels)

	r.mu.Lock()
	defer r.mu.Unlock()

	reg, err := r.ensure(name, converted)
	if err != nil {
		return err
	}
	govern := governLabels(converted, reg.inst.labelNames)
	switch reg.kind {
	case KindHistogram:
		reg.inst.histogram.With(govern).Observe(value)
	case KindSummary:
		reg.inst.summary.With(govern).Observe(value)
	default:
		return fmt.Errorf("%w: Observe on %s %q", ErrKindMismatch, reg.kind, name)
	}
	return nil
}

// Write 按指标类型分发一次数值写入：counter -> Inc，gauge -> Set，
// histogram/summary -> Observe。
func (r *Registry) Write(name string, labels Labels, value float64) error {
	kind, err := r.Kind(name)
	if err != nil {
		return err
	}
	switch kind {
	case KindCounter:
		return r.Inc(name, labels, value)
	case KindGauge:
		return r.Set(name, labels, value)
	default:
		return r.Observe(name, labels, value)
	}
}

// StartTimer 启动计时器，返回的 stop 函数记录经过的秒数并返回它。
//
// 记录目标按指标类型分发：gauge 用 Set，histogram/summary 用 Observe。
// stop 幂等：重复调用只记录一次，后续调用返回首次的耗时。
func (r *Registry) StartTimer(name string, labels Labels) (func() float64, error) {
	// 预检类型，让配置错误在启动时而非结算时暴露
	kind, err := r.Kind(name)
	if err != nil {
		return nil, err
	}
	if kind == KindCounter {
		return nil, fmt.Errorf("%w: StartTimer on counter %q", ErrKindMismatch, name)
	}

	start := time.Now()
	var once sync.Once
	var elapsed float64
	stop := func() float64 {
		once.Do(func() {
			elapsed = time.Since(start).Seconds()
			var werr error
			if kind == KindGauge {
				werr = r.Set(name, labels, elapsed)
			} else {
				werr = r.Observe(name, labels, elapsed)
			}
			_ = werr // 名称已预检，此处只可能是注册表被并发重置
		})
		return elapsed
	}
	return stop, nil
}

// Text 返回 exposition 文本格式的全部指标。
func (r *Registry) Text() (string, error) {
	families, err := r.Gatherer().Gather()
	if err != nil {
		return "", fmt.Errorf("xprom: gather: %w", err)
	}
	var buf bytes.Buffer
	for _, mf := range families {
		if _, err := expfmt.MetricFamilyToText(&buf, mf); err != nil {
			return "", fmt.Errorf("xprom: encode: %w", err)
		}
	}
	return buf.String(), nil
}
