package xwrap

import (
	"fmt"
	"strconv"
)

// BindingKind 标识两参数挂载形式的目标种类。
type BindingKind int

const (
	// BindMethod 普通方法/函数目标。
	BindMethod BindingKind = iota
	// BindAccessor 访问器目标（getter/setter 对中的可调用一侧）。
	BindAccessor
	// BindField 数据字段目标，其初始值必须是待包装的函数。
	BindField
	// BindInitSlot 初始化/访问成对槽位目标。
	BindInitSlot
)

// String 返回 BindingKind 的可读字符串表示。
func (k BindingKind) String() string {
	switch k {
	case BindMethod:
		return "method"
	case BindAccessor:
		return "accessor"
	case BindField:
		return "field"
	case BindInitSlot:
		return "init_slot"
	default:
		return "BindingKind(" + strconv.Itoa(int(k)) + ")"
	}
}

// Binding 描述两参数挂载形式的目标。
type Binding struct {
	// Kind 目标种类判别。
	Kind BindingKind
	// Name 成员名，参与包装名推断。
	Name string
}

// Initializer 是字段类目标的每实例初始化器：输入该实例的初始
// 函数值，输出包装后的函数。每个实例调用一次。
type Initializer func(initial any) any

// Apply 以两参数约定应用 Wrapper。
//
// 方法/访问器目标：target 即待包装函数，直接返回包装函数。
// 字段/成对槽位目标：返回 Initializer；target 可为 nil
// （字段尚无值时，初始函数经由 Initializer 的参数传入）。
//
// 不可识别的 Kind 视为挂载期编程错误，立即 panic。
func Apply(w Wrapper, target any, b Binding) any {
	switch b.Kind {
	case BindMethod, BindAccessor:
		return w.wrap(target, b.Name, "")
	case BindField, BindInitSlot:
		return Initializer(func(initial any) any {
			fn := initial
			if fn == nil {
				fn = target
			}
			return w.wrap(fn, b.Name, "")
		})
	default:
		panic(fmt.Errorf("%w: %s", ErrInvalidBinding, b.Kind))
	}
}
