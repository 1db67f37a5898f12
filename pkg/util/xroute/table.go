package xroute

import (
	"fmt"
	"strings"
)

// UnmatchedLabel 是 Label 对未命中路径返回的兜底标签。
const UnmatchedLabel = "unmatched"

// Match 是一次成功匹配的结果。
type Match struct {
	// Pattern 命中的注册模式。
	Pattern string
	// Params 参数段捕获值，键为参数名（不含冒号）。
	// 尾部通配捕获在 "*" 键下。无参数时为 nil。
	Params map[string]string
}

// pattern 是编译后的模式。
type pattern struct {
	raw      string
	segs     []string
	wildcard bool
}

// Table 是按注册顺序匹配的路由模式表。
//
// 构建后只读，可被任意多个 goroutine 并发使用。
type Table struct {
	patterns []pattern
	seen     map[string]struct{}
}

// NewTable 编译一组模式为路由表。
func NewTable(patterns ...string) (*Table, error) {
	t := &Table{seen: make(map[string]struct{}, len(patterns))}
	for _, p := range patterns {
		if err := t.add(p); err != nil {
			return nil, err
		}
	}
	return t, nil
}

// MustNewTable 与 NewTable 相同，但失败时 panic。
// 适用于模式为编译期常量的调用点。
func MustNewTable(patterns ...string) *Table {
	t, err := NewTable(patterns...)
	if err != nil {
		panic(err)
	}
	return t
}

func (t *Table) add(raw string) error {
	if raw == "" || !strings.HasPrefix(raw, "/") {
		return fmt.Errorf("%w: %q must start with /", ErrInvalidPattern, raw)
	}
	if _, dup := t.seen[raw]; dup {
		return fmt.Errorf("%w: %q", ErrDuplicatePattern, raw)
	}

	segs := splitPath(raw)
	wildcard := false
	for i, seg := range segs {
		switch {
		case seg == "*":
			if i != len(segs)-1 {
				return fmt.Errorf("%w: %q wildcard must be the last segment", ErrInvalidPattern, raw)
			}
			wildcard = true
		case strings.Contains(seg, "*"):
			return fmt.Errorf("%w: %q partial wildcard not supported", ErrInvalidPattern, raw)
		case seg == ":":
			return fmt.Errorf("%w: %q empty parameter name", ErrInvalidPattern, raw)
		}
	}
	if wildcard {
		segs = segs[:len(segs)-1]
	}

	t.seen[raw] = struct{}{}
	t.patterns = append(t.patterns, pattern{raw: raw, segs: segs, wildcard: wildcard})
	return nil
}

// Resolve 按注册顺序匹配路径，返回首个命中的模式与捕获参数。
func (t *Table) Resolve(path string) (Match, bool) {
	segs := splitPath(path)
	for _, p := range t.patterns {
		if params, ok := p.match(segs); ok {
			return Match{Pattern: p.raw, Params: params}, true
		}
	}
	return Match{}, false
}

// Label 返回路径的路由标签：命中时为模式原文，否则为 UnmatchedLabel。
// 适合直接作为指标标签值。
func (t *Table) Label(path string) string {
	if m, ok := t.Resolve(path); ok {
		return m.Pattern
	}
	return UnmatchedLabel
}

func (p pattern) match(segs []string) (map[string]string, bool) {
	if p.wildcard {
		if len(segs) < len(p.segs) {
			return nil, false
		}
	} else if len(segs) != len(p.segs) {
		return nil, false
	}

	var params map[string]string
	for i, ps := range p.segs {
		if strings.HasPrefix(ps, ":") {
			if segs[i] == "" {
				return nil, false
			}
			if params == nil {
				params = make(map[string]string)
			}
			params[ps[1:]] = segs[i]
			continue
		}
		if ps != segs[i] {
			return nil, false
		}
	}
	if p.wildcard {
		if params == nil {
			params = make(map[string]string)
		}
		params["*"] = strings.Join(segs[len(p.segs):], "/")
	}
	return params, true
}

// splitPath 切分路径段，忽略首尾斜杠。
func splitPath(path string) []string {
	path = strings.Trim(path, "/")
	if path == "" {
		return nil
	}
	return strings.Split(path, "/")
}
