package xconf

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"sync"

	"github.com/knadh/koanf/parsers/json"
	"github.com/knadh/koanf/parsers/yaml"
	"github.com/knadh/koanf/providers/rawbytes"
	"github.com/knadh/koanf/v2"
)

// Format 定义配置文件格式。
type Format string

// 支持的配置格式。
const (
	// FormatYAML YAML 格式（推荐用于 K8s ConfigMap）。
	FormatYAML Format = "yaml"

	// FormatJSON JSON 格式。
	FormatJSON Format = "json"
)

// Options 定义配置加载选项。
type Options struct {
	// Delim 配置键的分隔符，默认为 "."。
	Delim string

	// Tag 结构体标签名，用于反序列化，默认为 "koanf"。
	Tag string
}

// Option 定义配置选项函数类型。
type Option func(*Options)

func defaultOptions() *Options {
	return &Options{
		Delim: ".",
		Tag:   "koanf",
	}
}

// WithDelim 设置配置键分隔符。
func WithDelim(delim string) Option {
	return func(o *Options) {
		o.Delim = delim
	}
}

// WithTag 设置结构体标签名。
func WithTag(tag string) Option {
	return func(o *Options) {
		o.Tag = tag
	}
}

// File 是一份已加载的插桩配置。
//
// Settings() 返回的是值快照；Reload 成功后旧快照仍可使用，
// 但数据是过期的。需要最新值时重新调用 Settings()。
type File struct {
	mu       sync.RWMutex
	k        *koanf.Koanf
	settings Settings
	path     string
	format   Format
	opts     *Options
	isBytes  bool
}

// Load 从文件路径加载插桩配置。
// 根据文件扩展名自动检测格式（.yaml/.yml 或 .json）。
func Load(path string, opts ...Option) (*File, error) {
	if path == "" {
		return nil, ErrEmptyPath
	}

	format, err := detectFormat(path)
	if err != nil {
		return nil, err
	}

	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("%w: %w", ErrLoadFailed, err)
	}

	options := defaultOptions()
	for _, opt := range opts {
		opt(options)
	}

	k, settings, err := parse(data, format, options)
	if err != nil {
		return nil, err
	}

	return &File{
		k:        k,
		settings: settings,
		path:     path,
		format:   format,
		opts:     options,
	}, nil
}

// LoadBytes 从字节数据加载插桩配置。
// 需要显式指定格式，适用于 K8s ConfigMap 等场景。
// 空数据得到默认配置，与 Load 读空文件的行为一致。
func LoadBytes(data []byte, format Format, opts ...Option) (*File, error) {
	if !isValidFormat(format) {
		return nil, ErrUnsupportedFormat
	}

	options := defaultOptions()
	for _, opt := range opts {
		opt(options)
	}

	k, settings, err := parse(data, format, options)
	if err != nil {
		return nil, err
	}

	return &File{
		k:        k,
		settings: settings,
		format:   format,
		opts:     options,
		isBytes:  true,
	}, nil
}

// Settings 返回当前配置的值快照。
func (f *File) Settings() Settings {
	f.mu.RLock()
	defer f.mu.RUnlock()
	return f.settings
}

// Client 返回底层的 koanf 实例，用于 schema 之外的任意键查询。
func (f *File) Client() *koanf.Koanf {
	f.mu.RLock()
	defer f.mu.RUnlock()
	return f.k
}

// Reload 重新加载配置文件并校验。
// 解析或校验失败时保留旧配置。此方法是并发安全的。
func (f *File) Reload() error {
	if f.isBytes {
		return ErrNotReloadable
	}

	data, err := os.ReadFile(f.path)
	if err != nil {
		return fmt.Errorf("%w: %w", ErrLoadFailed, err)
	}

	k, settings, err := parse(data, f.format, f.opts)
	if err != nil {
		return err
	}

	f.mu.Lock()
	f.k = k
	f.settings = settings
	f.mu.Unlock()

	return nil
}

// Path 返回配置文件路径。
// 从字节数据创建的实例返回空字符串。
func (f *File) Path() string {
	return f.path
}

// Format 返回配置格式。
func (f *File) Format() Format {
	return f.format
}

// =============================================================================
// 内部辅助函数
// =============================================================================

// parse 解析数据为 koanf 实例与校验过的 Settings。
func parse(data []byte, format Format, opts *Options) (*koanf.Koanf, Settings, error) {
	k := koanf.New(opts.Delim)

	// 空数据时保持默认配置，与读空文件的行为一致
	if len(data) > 0 {
		if err := loadData(k, data, format); err != nil {
			return nil, Settings{}, err
		}
	}

	settings := DefaultSettings()
	if err := k.UnmarshalWithConf("", &settings, koanf.UnmarshalConf{
		Tag: opts.Tag,
	}); err != nil {
		return nil, Settings{}, fmt.Errorf("%w: %w", ErrUnmarshalFailed, err)
	}
	if err := settings.Validate(); err != nil {
		return nil, Settings{}, err
	}
	return k, settings, nil
}

// detectFormat 根据文件扩展名检测配置格式。
func detectFormat(path string) (Format, error) {
	ext := strings.ToLower(filepath.Ext(path))
	switch ext {
	case ".yaml", ".yml":
		return FormatYAML, nil
	case ".json":
		return FormatJSON, nil
	default:
		return "", fmt.Errorf("%w: unknown extension %s", ErrUnsupportedFormat, ext)
	}
}

// isValidFormat 检查格式是否有效。
func isValidFormat(format Format) bool {
	switch format {
	case FormatYAML, FormatJSON:
		return true
	default:
		return false
	}
}

// loadData 加载数据到 koanf 实例。
func loadData(k *koanf.Koanf, data []byte, format Format) error {
	var parser koanf.Parser
	switch format {
	case FormatYAML:
		parser = yaml.Parser()
	case FormatJSON:
		parser = json.Parser()
	default:
		return ErrUnsupportedFormat
	}

	if err := k.Load(rawbytes.Provider(data), parser); err != nil {
		return fmt.Errorf("%w: %w", ErrParseFailed, err)
	}
	return nil
}
