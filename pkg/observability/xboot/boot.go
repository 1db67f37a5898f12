package xboot

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"os"
	"strconv"

	"github.com/google/uuid"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/exporters/otlp/otlptrace/otlptracegrpc"
	"go.opentelemetry.io/otel/exporters/stdout/stdouttrace"
	"go.opentelemetry.io/otel/propagation"
	"go.opentelemetry.io/otel/sdk/resource"
	sdktrace "go.opentelemetry.io/otel/sdk/trace"
	semconv "go.opentelemetry.io/otel/semconv/v1.21.0"
	"go.opentelemetry.io/otel/trace"

	"github.com/omeyang/instrkit/pkg/config/xconf"
	"github.com/omeyang/instrkit/pkg/config/xmode"
	"github.com/omeyang/instrkit/pkg/observability/xlog"
)

// 导出器类型。
const (
	ExporterOTLPGRPC = "otlp-grpc"
	ExporterStdout   = "stdout"
	ExporterNone     = "none"
)

// Config 控制 SDK 的装配。
type Config struct {
	// ServiceName 服务名，写入 resource。
	ServiceName string

	// ServiceVersion 服务版本。
	ServiceVersion string

	// Exporter 导出器类型：otlp-grpc | stdout | none。
	Exporter string

	// Endpoint OTLP collector 地址（仅 otlp-grpc）。
	Endpoint string

	// Insecure 是否使用明文连接（仅 otlp-grpc）。
	Insecure bool

	// SampleRatio 采样比例，[0, 1]。1 表示全采样。
	SampleRatio float64

	// MaxAttrsPerSpan 每个 span 的属性上限，0 用 SDK 默认值。
	MaxAttrsPerSpan int

	// MaxEventsPerSpan 每个 span 的事件上限，0 用 SDK 默认值。
	MaxEventsPerSpan int

	// MaxLinksPerSpan 每个 span 的链接上限，0 用 SDK 默认值。
	MaxLinksPerSpan int

	// Writer stdout 导出器的输出目标，nil 时为 os.Stdout。
	// 测试中可指向缓冲区或 io.Discard。
	Writer io.Writer
}

// DefaultConfig 返回环境变量驱动的默认配置。
//
// 识别标准 OTel 环境变量：
//   - OTEL_SERVICE_NAME（默认 "instrkit"）
//   - OTEL_SERVICE_VERSION
//   - OTEL_TRACES_EXPORTER（默认 "stdout"；"otlp" 视为 otlp-grpc）
//   - OTEL_EXPORTER_OTLP_ENDPOINT（默认 "localhost:4317"）
//   - OTEL_TRACES_SAMPLER_ARG（默认 1.0）
func DefaultConfig() Config {
	exporter := getEnvOr("OTEL_TRACES_EXPORTER", ExporterStdout)
	if exporter == "otlp" {
		exporter = ExporterOTLPGRPC
	}

	ratio := 1.0
	if v := os.Getenv("OTEL_TRACES_SAMPLER_ARG"); v != "" {
		if parsed, err := strconv.ParseFloat(v, 64); err == nil {
			ratio = parsed
		}
	}

	return Config{
		ServiceName:    getEnvOr("OTEL_SERVICE_NAME", "instrkit"),
		ServiceVersion: os.Getenv("OTEL_SERVICE_VERSION"),
		Exporter:       exporter,
		Endpoint:       getEnvOr("OTEL_EXPORTER_OTLP_ENDPOINT", "localhost:4317"),
		Insecure:       true,
		SampleRatio:    ratio,
	}
}

// FromSettings 把 xconf 配置段转换为装配配置。
func FromSettings(s xconf.Settings) Config {
	return Config{
		ServiceName:      s.Service.Name,
		ServiceVersion:   s.Service.Version,
		Exporter:         s.Trace.Exporter,
		Endpoint:         s.Trace.Endpoint,
		Insecure:         s.Trace.Insecure,
		SampleRatio:      s.Trace.SampleRatio,
		MaxAttrsPerSpan:  s.Trace.MaxAttrsPerSpan,
		MaxEventsPerSpan: s.Trace.MaxEventsPerSpan,
		MaxLinksPerSpan:  s.Trace.MaxLinksPerSpan,
	}
}

// Runtime 是已启动的 SDK 句柄。
type Runtime struct {
	tp         *sdktrace.TracerProvider
	instanceID string
	prev       trace.TracerProvider
	prevProp   propagation.TextMapPropagator
	shutdowns  []func(context.Context) error
}

// Start 按配置装配并注册全局 TracerProvider。
//
// 返回的 Runtime 必须在进程退出前调用 Shutdown。
// 重复调用会再次覆盖全局 provider，最后一次生效。
func Start(ctx context.Context, cfg Config) (*Runtime, error) {
	if ctx == nil {
		ctx = context.Background()
	}
	if cfg.SampleRatio < 0 || cfg.SampleRatio > 1 {
		return nil, fmt.Errorf("%w: %v", ErrInvalidSampleRatio, cfg.SampleRatio)
	}

	serviceName := cfg.ServiceName
	if serviceName == "" {
		serviceName = "instrkit"
	}
	instanceID := uuid.NewString()

	res := resource.NewWithAttributes(
		semconv.SchemaURL,
		semconv.ServiceNameKey.String(serviceName),
		semconv.ServiceVersionKey.String(cfg.ServiceVersion),
		semconv.ServiceInstanceIDKey.String(instanceID),
	)

	opts := []sdktrace.TracerProviderOption{
		sdktrace.WithResource(res),
		sdktrace.WithSampler(newSampler(cfg.SampleRatio)),
		sdktrace.WithRawSpanLimits(newSpanLimits(cfg)),
	}

	rt := &Runtime{instanceID: instanceID}

	exporter, err := newExporter(ctx, cfg)
	if err != nil {
		return nil, err
	}
	if exporter != nil {
		opts = append(opts, sdktrace.WithBatcher(exporter))
		rt.shutdowns = append(rt.shutdowns, exporter.Shutdown)
	}

	tp := sdktrace.NewTracerProvider(opts...)
	rt.tp = tp
	// provider 先于 exporter 关停，保证冲刷时 exporter 还活着
	rt.shutdowns = append(rt.shutdowns, tp.Shutdown)

	rt.prev = otel.GetTracerProvider()
	rt.prevProp = otel.GetTextMapPropagator()
	otel.SetTracerProvider(tp)
	otel.SetTextMapPropagator(propagation.NewCompositeTextMapPropagator(
		propagation.TraceContext{},
		propagation.Baggage{},
	))

	xlog.Info(ctx, "tracing started",
		slog.String("service", serviceName),
		slog.String("exporter", cfg.Exporter),
		slog.String("instance_id", instanceID),
	)
	return rt, nil
}

// TracerProvider 返回装配出的 provider。
func (r *Runtime) TracerProvider() trace.TracerProvider {
	return r.tp
}

// InstanceID 返回本次启动生成的实例标识。
func (r *Runtime) InstanceID() string {
	return r.instanceID
}

// Shutdown 逆序关停各组件，恢复启动前的全局 provider 与 propagator。
// 多次调用安全，后续调用是 no-op。
func (r *Runtime) Shutdown(ctx context.Context) error {
	if r == nil || r.tp == nil {
		return nil
	}
	if ctx == nil {
		ctx = context.Background()
	}

	otel.SetTracerProvider(r.prev)
	if r.prevProp != nil {
		otel.SetTextMapPropagator(r.prevProp)
	}

	var errs []error
	for i := len(r.shutdowns) - 1; i >= 0; i-- {
		if err := r.shutdowns[i](ctx); err != nil {
			errs = append(errs, err)
		}
	}
	r.shutdowns = nil
	r.tp = nil
	return errors.Join(errs...)
}

// =============================================================================
// 内部装配
// =============================================================================

// newExporter 按类型创建导出器；none 返回 nil。
func newExporter(ctx context.Context, cfg Config) (sdktrace.SpanExporter, error) {
	switch cfg.Exporter {
	case ExporterOTLPGRPC:
		opts := []otlptracegrpc.Option{
			otlptracegrpc.WithEndpoint(cfg.Endpoint),
		}
		if cfg.Insecure {
			opts = append(opts, otlptracegrpc.WithInsecure())
		}
		exporter, err := otlptracegrpc.New(ctx, opts...)
		if err != nil {
			return nil, fmt.Errorf("xboot: create otlp exporter: %w", err)
		}
		return exporter, nil

	case ExporterStdout:
		opts := []stdouttrace.Option{stdouttrace.WithPrettyPrint()}
		if cfg.Writer != nil {
			opts = append(opts, stdouttrace.WithWriter(cfg.Writer))
		}
		exporter, err := stdouttrace.New(opts...)
		if err != nil {
			return nil, fmt.Errorf("xboot: create stdout exporter: %w", err)
		}
		return exporter, nil

	case ExporterNone:
		return nil, nil

	default:
		return nil, fmt.Errorf("%w: %s", ErrUnknownExporter, cfg.Exporter)
	}
}

// newSampler 按比例构建采样器，非根 span 跟随父采样决策。
func newSampler(ratio float64) sdktrace.Sampler {
	switch {
	case ratio >= 1:
		return sdktrace.AlwaysSample()
	case ratio <= 0:
		return sdktrace.NeverSample()
	default:
		return sdktrace.ParentBased(sdktrace.TraceIDRatioBased(ratio))
	}
}

// newSpanLimits 构建 span 上限；xmode 解除上限时全部放开。
//
// SDK 的上限固定在 provider 级别，这里只在 Start 时读取一次
// xmode 开关：Start 之后再改开关对已装配的 provider 无效，
// 需要重新 Start 才能生效。
func newSpanLimits(cfg Config) sdktrace.SpanLimits {
	if xmode.SpanLimitsDisabled() {
		return sdktrace.SpanLimits{
			AttributeValueLengthLimit:   -1,
			AttributeCountLimit:         -1,
			EventCountLimit:             -1,
			LinkCountLimit:              -1,
			AttributePerEventCountLimit: -1,
			AttributePerLinkCountLimit:  -1,
		}
	}

	limits := sdktrace.NewSpanLimits()
	if cfg.MaxAttrsPerSpan > 0 {
		limits.AttributeCountLimit = cfg.MaxAttrsPerSpan
	}
	if cfg.MaxEventsPerSpan > 0 {
		limits.EventCountLimit = cfg.MaxEventsPerSpan
	}
	if cfg.MaxLinksPerSpan > 0 {
		limits.LinkCountLimit = cfg.MaxLinksPerSpan
	}
	return limits
}

// getEnvOr 返回环境变量值，未设置时返回备选值。
func getEnvOr(key, fallback string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return fallback
}
