package xlog

import (
	"context"
	"io"
	"log/slog"
	"os"
	"time"

	"go.opentelemetry.io/otel/trace"
	"gopkg.in/natefinch/lumberjack.v2"
)

// Logger 日志接口。
//
// 所有方法都需要 context.Context 参数，确保追踪信息正确传播。
// 方法签名只接受 slog.Attr，保证类型安全，避免隐式 key-value 转换开销。
type Logger interface {
	// Debug 记录 Debug 级别日志
	Debug(ctx context.Context, msg string, attrs ...slog.Attr)

	// Info 记录 Info 级别日志
	Info(ctx context.Context, msg string, attrs ...slog.Attr)

	// Warn 记录 Warn 级别日志
	Warn(ctx context.Context, msg string, attrs ...slog.Attr)

	// Error 记录 Error 级别日志
	Error(ctx context.Context, msg string, attrs ...slog.Attr)

	// With 返回带额外属性的派生 Logger
	//
	// 设计决策: 派生 logger 共享父级的 LevelVar，动态级别变更会同步生效。
	With(attrs ...slog.Attr) Logger

	// SetLevel 动态设置日志级别，运行时生效
	SetLevel(level Level)

	// GetLevel 获取当前日志级别
	GetLevel() Level
}

// Format 日志输出格式。
type Format string

// 支持的输出格式。
const (
	// FormatText 人类可读的文本格式（默认）。
	FormatText Format = "text"
	// FormatJSON JSON 格式，适合日志采集。
	FormatJSON Format = "json"
)

// =============================================================================
// Builder
// =============================================================================

// Builder 以链式调用方式构建 Logger。
type Builder struct {
	level    Level
	format   Format
	output   io.Writer
	filePath string
	fileSize int // MB
	fileKeep int // 保留的轮转文件数
}

// New 创建 Builder，默认输出到 stderr、Info 级别、text 格式。
func New() *Builder {
	return &Builder{
		level:    LevelInfo,
		format:   FormatText,
		fileSize: 100,
		fileKeep: 3,
	}
}

// WithLevel 设置初始日志级别。
func (b *Builder) WithLevel(level Level) *Builder {
	b.level = level
	return b
}

// WithFormat 设置输出格式。
func (b *Builder) WithFormat(format Format) *Builder {
	b.format = format
	return b
}

// WithOutput 设置输出目标。与 WithFile 互斥，后设置者生效。
func (b *Builder) WithOutput(w io.Writer) *Builder {
	if w != nil {
		b.output = w
		b.filePath = ""
	}
	return b
}

// WithFile 设置文件输出，使用 lumberjack 自动轮转。
//
// maxSizeMB 为单文件大小上限，maxBackups 为保留的轮转文件数。
func (b *Builder) WithFile(path string, maxSizeMB, maxBackups int) *Builder {
	if path != "" {
		b.filePath = path
		b.output = nil
	}
	if maxSizeMB > 0 {
		b.fileSize = maxSizeMB
	}
	if maxBackups >= 0 {
		b.fileKeep = maxBackups
	}
	return b
}

// Build 构建 Logger，返回 cleanup 函数用于释放文件句柄等资源。
func (b *Builder) Build() (Logger, func(), error) {
	if b.format != FormatText && b.format != FormatJSON {
		return nil, nil, ErrInvalidFormat
	}

	out := b.output
	cleanup := func() {}
	switch {
	case b.filePath != "":
		lj := &lumberjack.Logger{
			Filename:   b.filePath,
			MaxSize:    b.fileSize,
			MaxBackups: b.fileKeep,
		}
		out = lj
		cleanup = func() { _ = lj.Close() }
	case out == nil:
		out = os.Stderr
	}

	levelVar := new(slog.LevelVar)
	levelVar.Set(b.level)
	opts := &slog.HandlerOptions{Level: levelVar}

	var handler slog.Handler
	if b.format == FormatJSON {
		handler = slog.NewJSONHandler(out, opts)
	} else {
		handler = slog.NewTextHandler(out, opts)
	}

	return &xlogger{handler: handler, levelVar: levelVar}, cleanup, nil
}

// =============================================================================
// 实现
// =============================================================================

// now 可在测试中替换，用于固定时间戳。
var now = time.Now

type xlogger struct {
	handler  slog.Handler
	levelVar *slog.LevelVar
}

func (l *xlogger) Debug(ctx context.Context, msg string, attrs ...slog.Attr) {
	l.log(ctx, LevelDebug, msg, attrs)
}

func (l *xlogger) Info(ctx context.Context, msg string, attrs ...slog.Attr) {
	l.log(ctx, LevelInfo, msg, attrs)
}

func (l *xlogger) Warn(ctx context.Context, msg string, attrs ...slog.Attr) {
	l.log(ctx, LevelWarn, msg, attrs)
}

func (l *xlogger) Error(ctx context.Context, msg string, attrs ...slog.Attr) {
	l.log(ctx, LevelError, msg, attrs)
}

func (l *xlogger) With(attrs ...slog.Attr) Logger {
	if len(attrs) == 0 {
		return l
	}
	return &xlogger{
		handler:  l.handler.WithAttrs(attrs),
		levelVar: l.levelVar,
	}
}

func (l *xlogger) SetLevel(level Level) { l.levelVar.Set(level) }
func (l *xlogger) GetLevel() Level      { return l.levelVar.Level() }

// log 统一出口：级别过滤 + 追踪信息注入 + Handle。
func (l *xlogger) log(ctx context.Context, level Level, msg string, attrs []slog.Attr) {
	if ctx == nil {
		ctx = context.Background()
	}
	if !l.handler.Enabled(ctx, level) {
		return
	}

	r := slog.NewRecord(now(), level, msg, 0)
	r.AddAttrs(attrs...)
	r.AddAttrs(traceAttrs(ctx)...)
	_ = l.handler.Handle(ctx, r)
}

// traceAttrs 从 context 中的 OTel span 提取 trace_id / span_id。
//
// 设计决策: 直接读取 trace.SpanContextFromContext，而非维护独立的追踪
// 上下文存储。instrkit 的 span 总是通过 context 传播，span context 即
// 日志关联信息的单一事实来源。
func traceAttrs(ctx context.Context) []slog.Attr {
	sc := trace.SpanContextFromContext(ctx)
	if !sc.IsValid() {
		return nil
	}
	return []slog.Attr{
		slog.String("trace_id", sc.TraceID().String()),
		slog.String("span_id", sc.SpanID().String()),
	}
}
