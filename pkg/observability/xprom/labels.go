package xprom

import (
	"fmt"
	"reflect"
	"sort"
	"strconv"
)

// Labels 表示一次写入携带的标签集。
//
// 值允许 string / bool / 各类数值；其他类型按 fmt.Sprint 降级转换。
// nil 值在转换前被丢弃。
type Labels map[string]any

// convertLabels 将标签值统一转换为 prometheus 接受的字符串表示。
func convertLabels(labels Labels) map[string]string {
	if len(labels) == 0 {
		return nil
	}
	out := make(map[string]string, len(labels))
	for k, v := range labels {
		if v == nil {
			continue
		}
		out[k] = convertValue(v)
	}
	return out
}

func convertValue(v any) string {
	switch t := v.(type) {
	case string:
		return t
	case bool:
		return strconv.FormatBool(t)
	case int:
		return strconv.Itoa(t)
	case int64:
		return strconv.FormatInt(t, 10)
	case uint64:
		return strconv.FormatUint(t, 10)
	case float64:
		return strconv.FormatFloat(t, 'g', -1, 64)
	case float32:
		return strconv.FormatFloat(float64(t), 'g', -1, 32)
	default:
		return fmt.Sprint(t)
	}
}

// governLabels 将转换后的标签过滤到声明的标签名集合。
//
// 未声明的键被静默丢弃；声明了但本次未提供的键补空字符串，
// 满足 prometheus 对完整标签集的要求。
func governLabels(converted map[string]string, declared []string) map[string]string {
	out := make(map[string]string, len(declared))
	for _, name := range declared {
		out[name] = converted[name]
	}
	return out
}

// inferLabelNames 从首次写入的标签键推断标签名，返回有序结果。
func inferLabelNames(converted map[string]string) []string {
	if len(converted) == 0 {
		return nil
	}
	names := make([]string, 0, len(converted))
	for k := range converted {
		names = append(names, k)
	}
	sort.Strings(names)
	return names
}

// ErrorKind 返回错误的分类名，用作计数器的 error 标签值。
//
// 成功（err == nil）返回 "none"；具名错误类型返回其类型名
// （剥离指针与包路径）；匿名错误（errors.New / fmt.Errorf 的
// 内部类型）无可识别分类，返回 "unknown_error"。
func ErrorKind(err error) string {
	if err == nil {
		return "none"
	}
	t := reflect.TypeOf(err)
	for t.Kind() == reflect.Ptr {
		t = t.Elem()
	}
	name := t.Name()
	switch name {
	case "", "errorString", "wrapError", "joinError":
		return "unknown_error"
	}
	return name
}
