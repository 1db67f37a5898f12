package xconf

import (
	"fmt"

	"github.com/omeyang/instrkit/pkg/config/xmode"
	"github.com/omeyang/instrkit/pkg/observability/xlog"
)

// Settings 是插桩配置文件的完整 schema。
//
// 字段通过 koanf 标签映射，未出现在文件中的字段保持默认值。
type Settings struct {
	Service ServiceSettings `koanf:"service"`
	Trace   TraceSettings   `koanf:"trace"`
	Log     LogSettings     `koanf:"log"`
	Mode    ModeSettings    `koanf:"mode"`
}

// ServiceSettings 标识被插桩的服务，写入 trace resource。
type ServiceSettings struct {
	// Name 服务名，为空时 xboot 使用默认值。
	Name string `koanf:"name"`
	// Version 服务版本。
	Version string `koanf:"version"`
}

// TraceSettings 控制 TracerProvider 的构建。
type TraceSettings struct {
	// Exporter 导出器类型：otlp-grpc | stdout | none。
	Exporter string `koanf:"exporter"`
	// Endpoint OTLP collector 地址（仅 otlp-grpc）。
	Endpoint string `koanf:"endpoint"`
	// Insecure 是否使用明文连接（仅 otlp-grpc）。
	Insecure bool `koanf:"insecure"`
	// SampleRatio 采样比例，[0, 1]。
	SampleRatio float64 `koanf:"sample_ratio"`
	// MaxAttrsPerSpan 每个 span 的属性上限，0 用 SDK 默认值。
	MaxAttrsPerSpan int `koanf:"max_attrs_per_span"`
	// MaxEventsPerSpan 每个 span 的事件上限，0 用 SDK 默认值。
	MaxEventsPerSpan int `koanf:"max_events_per_span"`
	// MaxLinksPerSpan 每个 span 的链接上限，0 用 SDK 默认值。
	MaxLinksPerSpan int `koanf:"max_links_per_span"`
}

// LogSettings 控制 xlog 日志器的构建。
type LogSettings struct {
	// Level 日志级别：debug | info | warn | error。
	Level string `koanf:"level"`
	// Format 输出格式：text | json。
	Format string `koanf:"format"`
	// File 日志文件路径，为空时输出到 stderr。
	File string `koanf:"file"`
	// MaxSizeMB 单个日志文件上限（MB），仅 File 非空时生效。
	MaxSizeMB int `koanf:"max_size_mb"`
	// MaxBackups 保留的轮转文件数。
	MaxBackups int `koanf:"max_backups"`
}

// ModeSettings 映射进程级运行开关，重载时写入 xmode。
type ModeSettings struct {
	// DeferAll 开启兼容模式的结果强制延迟。
	DeferAll bool `koanf:"defer_all"`
	// DisableSpanLimits 解除 span 上限。
	DisableSpanLimits bool `koanf:"disable_span_limits"`
}

// 导出器类型。
const (
	ExporterOTLPGRPC = "otlp-grpc"
	ExporterStdout   = "stdout"
	ExporterNone     = "none"
)

// DefaultSettings 返回各字段的默认值。
func DefaultSettings() Settings {
	return Settings{
		Trace: TraceSettings{
			Exporter:    ExporterStdout,
			SampleRatio: 1.0,
		},
		Log: LogSettings{
			Level:  "info",
			Format: "text",
		},
	}
}

// Validate 校验配置值。
func (s Settings) Validate() error {
	switch s.Trace.Exporter {
	case ExporterOTLPGRPC, ExporterStdout, ExporterNone:
	default:
		return fmt.Errorf("%w: trace.exporter %q", ErrInvalidSettings, s.Trace.Exporter)
	}
	if s.Trace.SampleRatio < 0 || s.Trace.SampleRatio > 1 {
		return fmt.Errorf("%w: trace.sample_ratio %v out of [0, 1]", ErrInvalidSettings, s.Trace.SampleRatio)
	}
	if _, err := xlog.ParseLevel(s.Log.Level); err != nil {
		return fmt.Errorf("%w: log.level %q", ErrInvalidSettings, s.Log.Level)
	}
	switch xlog.Format(s.Log.Format) {
	case xlog.FormatText, xlog.FormatJSON:
	default:
		return fmt.Errorf("%w: log.format %q", ErrInvalidSettings, s.Log.Format)
	}
	return nil
}

// ApplyModes 把 Mode 段写入进程级开关。
func (s Settings) ApplyModes() {
	xmode.SetDeferAll(s.Mode.DeferAll)
	xmode.SetSpanLimitsDisabled(s.Mode.DisableSpanLimits)
}
