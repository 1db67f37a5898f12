package xprom

import (
	"fmt"
	"net/http"
	"strconv"
	"sync"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// Kind 表示指标类型。
type Kind int

const (
	// KindCounter 单调递增计数器。
	KindCounter Kind = iota
	// KindGauge 瞬时值。
	KindGauge
	// KindHistogram 桶分布直方图。
	KindHistogram
	// KindSummary 分位数摘要。
	KindSummary
)

// String 返回 Kind 的可读字符串表示。
func (k Kind) String() string {
	switch k {
	case KindCounter:
		return "counter"
	case KindGauge:
		return "gauge"
	case KindHistogram:
		return "histogram"
	case KindSummary:
		return "summary"
	default:
		return "Kind(" + strconv.Itoa(int(k)) + ")"
	}
}

// Opts 定义一次指标注册。
type Opts struct {
	// Name 指标名称，注册表内唯一。
	Name string
	// Help 帮助文本。
	Help string
	// Labels 声明的标签名集合。为空时在首次写入时从标签键推断。
	Labels []string
	// Buckets 直方图桶边界；为空时使用默认桶梯（prometheus.DefBuckets）。
	Buckets []float64
	// Objectives 摘要分位数目标；为空时使用默认分位数梯。
	Objectives map[float64]float64
}

// defaultObjectives 默认分位数梯，近似 prom-client 的默认 percentiles。
func defaultObjectives() map[float64]float64 {
	return map[float64]float64{
		0.01: 0.001,
		0.05: 0.005,
		0.5:  0.05,
		0.9:  0.01,
		0.95: 0.005,
		0.99: 0.001,
	}
}

// =============================================================================
// Registry
// =============================================================================

// registration 是注册配置与（可能尚未物化的）底层实例的配对。
type registration struct {
	kind Kind
	opts Opts
	inst *instance
}

// instance 是已物化的底层指标对象。每个注册名至多存在一个实例。
type instance struct {
	labelNames []string
	counter    *prometheus.CounterVec
	gauge      *prometheus.GaugeVec
	histogram  *prometheus.HistogramVec
	summary    *prometheus.SummaryVec
}

// Registry 是按名称键控的指标注册表。
//
// 注册表对每个名称保持 registration -> instance 两段生命周期；
// 所有操作并发安全。
type Registry struct {
	mu   sync.Mutex
	prom *prometheus.Registry
	regs map[string]*registration
}

// NewRegistry 创建空注册表。
func NewRegistry() *Registry {
	return &Registry{
		prom: prometheus.NewRegistry(),
		regs: make(map[string]*registration),
	}
}

// =============================================================================
// 注册
// =============================================================================

// RegisterCounter 注册计数器。
func (r *Registry) RegisterCounter(opts Opts) error { return r.register(KindCounter, opts) }

// RegisterGauge 注册瞬时值指标。
func (r *Registry) RegisterGauge(opts Opts) error { return r.register(KindGauge, opts) }

// RegisterHistogram 注册直方图。未指定 Buckets 时应用默认桶梯。
func (r *Registry) RegisterHistogram(opts Opts) error { return r.register(KindHistogram, opts) }

// RegisterSummary 注册分位数摘要。未指定 Objectives 时应用默认分位数梯。
func (r *Registry) RegisterSummary(opts Opts) error { return r.register(KindSummary, opts) }

func (r *Registry) register(kind Kind, opts Opts) error {
	if opts.Name == "" {
		return ErrEmptyName
	}

	r.mu.Lock()
	defer r.mu.Unlock()

	if _, exists := r.regs[opts.Name]; exists {
		return fmt.Errorf("%w: %q", ErrAlreadyRegistered, opts.Name)
	}
	r.regs[opts.Name] = &registration{kind: kind, opts: opts}
	return nil
}

// =============================================================================
// 物化
// =============================================================================

// ensure 返回名称对应的实例，必要时先物化。
//
// converted 为本次写入转换后的标签，仅在注册未声明标签名时
// 用于推断标签名集合。调用方必须持有 r.mu。
func (r *Registry) ensure(name string, converted map[string]string) (*registration, error) {
	reg, ok := r.regs[name]
	if !ok {
		return nil, fmt.Errorf("%w: %q", ErrNotRegistered, name)
	}
	if reg.inst != nil {
		return reg, nil
	}

	labelNames := reg.opts.Labels
	if len(labelNames) == 0 {
		labelNames = inferLabelNames(converted)
	}

	inst := &instance{labelNames: labelNames}
	switch reg.kind {
	case KindCounter:
		inst.counter = prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: reg.opts.Name,
			Help: reg.opts.Help,
		}, labelNames)
		if err := r.prom.Register(inst.counter); err != nil {
			return nil, fmt.Errorf("xprom: register counter %q: %w", name, err)
		}
	case KindGauge:
		inst.gauge = prometheus.NewGaugeVec(prometheus.GaugeOpts{
			Name: reg.opts.Name,
			Help: reg.opts.Help,
		}, labelNames)
		if err := r.prom.Register(inst.gauge); err != nil {
			return nil, fmt.Errorf("xprom: register gauge %q: %w", name, err)
		}
	case KindHistogram:
		buckets := reg.opts.Buckets
		if len(buckets) == 0 {
			buckets = prometheus.DefBuckets
		}
		inst.histogram = prometheus.NewHistogramVec(prometheus.HistogramOpts{
			Name:    reg.opts.Name,
			Help:    reg.opts.Help,
			Buckets: buckets,
		}, labelNames)
		if err := r.prom.Register(inst.histogram); err != nil {
			return nil, fmt.Errorf("xprom: register histogram %q: %w", name, err)
		}
	case KindSummary:
		objectives := reg.opts.Objectives
		if len(objectives) == 0 {
			objectives = defaultObjectives()
		}
		inst.summary = prometheus.NewSummaryVec(prometheus.SummaryOpts{
			Name:       reg.opts.Name,
			Help:       reg.opts.Help,
			Objectives: objectives,
		}, labelNames)
		if err := r.prom.Register(inst.summary); err != nil {
			return nil, fmt.Errorf("xprom: register summary %q: %w", name, err)
		}
	}

	reg.inst = inst
	return reg, nil
}

// Kind 返回名称对应的注册类型。
func (r *Registry) Kind(name string) (Kind, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	reg, ok := r.regs[name]
	if !ok {
		return 0, fmt.Errorf("%w: %q", ErrNotRegistered, name)
	}
	return reg.kind, nil
}

// =============================================================================
// 暴露与重置
// =============================================================================

// Registerer 返回底层 prometheus 注册器，供需要直接注册原生
// collector 的调用方使用。
func (r *Registry) Registerer() prometheus.Registerer { return r.prom }

// Gatherer 返回底层 prometheus 采集器。
func (r *Registry) Gatherer() prometheus.Gatherer { return r.prom }

// Handler 返回 exposition HTTP handler。
func (r *Registry) Handler() http.Handler {
	return promhttp.HandlerFor(r.prom, promhttp.HandlerOpts{})
}

// Reset 清空注册表：丢弃所有注册与已物化实例。仅用于测试隔离。
func (r *Registry) Reset() {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.prom = prometheus.NewRegistry()
	r.regs = make(map[string]*registration)
}

// =============================================================================
// 包级默认注册表
// =============================================================================

// defaultRegistry 进程级默认注册表。
var defaultRegistry = NewRegistry()

// Default 返回包级默认注册表。
func Default() *Registry { return defaultRegistry }
