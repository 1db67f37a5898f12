package xwrap

import "reflect"

// Descriptor 是三参数挂载形式的成员描述符，恰好持有直接值槽位
// （Value）或访问器对（Get/Set）之一。
type Descriptor struct {
	// Value 直接值槽位（函数）。
	Value any
	// Get 访问器读取侧（函数）。
	Get any
	// Set 访问器写入侧，包装不触碰。
	Set any
}

// ApplyMember 以三参数约定应用 Wrapper：就地替换描述符中的
// 相应槽位为包装函数，并返回同一描述符。
//
// owner 用于推断所属模块名（类型名，剥离指针），作为
// code.namespace 属性注入；name 参与包装名推断。
// desc 为 nil 时返回 nil，两个槽位都为空时描述符原样返回。
func ApplyMember(w Wrapper, owner any, name string, desc *Descriptor) *Descriptor {
	if desc == nil {
		return nil
	}
	module := ownerModule(owner)
	switch {
	case desc.Value != nil:
		desc.Value = w.wrap(desc.Value, name, module)
	case desc.Get != nil:
		desc.Get = w.wrap(desc.Get, name, module)
	}
	return desc
}

func ownerModule(owner any) string {
	if owner == nil {
		return ""
	}
	t := reflect.TypeOf(owner)
	for t.Kind() == reflect.Pointer {
		t = t.Elem()
	}
	return t.Name()
}
