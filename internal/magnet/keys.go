package magnet

import (
	"strconv"
	"strings"
)

// field 标识一个 key 作用到 Magnet 的哪个字段。
type field int

const (
	fieldFallback field = iota
	fieldName
	fieldManifest
	fieldLength
	fieldKeywords
	fieldAnnounce
	fieldSource
	fieldInfoHash
	fieldExperimental
)

// exactKeys 是不接受 priority 后缀的单值 key。
var exactKeys = map[string]field{
	"as": fieldFallback,
	"dn": fieldName,
	"mt": fieldManifest,
	"xl": fieldLength,
}

// prefixKeys 是可以重复出现、带 priority 后缀（"" 或 ".<digits>"）的列表 key。
var prefixKeys = []struct {
	prefix string
	field  field
}{
	{"kt", fieldKeywords},
	{"tr", fieldAnnounce},
	{"xs", fieldSource},
	{"xt", fieldInfoHash},
}

const experimentalPrefix = "x."

// keyShape 是一次 key 分类的结果。
type keyShape struct {
	field    field
	priority int
	name     string // 仅 fieldExperimental：x.<name> 中的 name
}

// classify 把 key 分解为 字段 + priority（或 experimental name）。
//
// 匹配顺序：exactKeys → experimentalPrefix → prefixKeys。没有兜底分支：未命中即 unrecognized_key。
func classify(key string) (keyShape, error) {
	if f, ok := exactKeys[key]; ok {
		return keyShape{field: f}, nil
	}
	if name, ok := strings.CutPrefix(key, experimentalPrefix); ok && name != "" {
		return keyShape{field: fieldExperimental, name: name}, nil
	}
	for _, pk := range prefixKeys {
		suffix, ok := strings.CutPrefix(key, pk.prefix)
		if !ok {
			continue
		}
		p, ok := parsePriority(suffix)
		if !ok {
			return keyShape{}, &Error{Code: ErrCodeInvalidPriority, Key: key}
		}
		return keyShape{field: pk.field, priority: p}, nil
	}
	return keyShape{}, &Error{Code: ErrCodeUnrecognizedKey, Key: key}
}

// parsePriority 解析 priority 后缀：
// - "" => 0
// - ".<digits>" => 对应整数（只接受 ASCII 数字，不接受符号，不能溢出 int）
func parsePriority(suffix string) (int, bool) {
	if suffix == "" {
		return 0, true
	}
	digits, ok := strings.CutPrefix(suffix, ".")
	if !ok || !isNumeric(digits) {
		return 0, false
	}
	n, err := strconv.Atoi(digits)
	if err != nil {
		return 0, false
	}
	return n, true
}

// isNumeric 判断 s 是否为非空的纯 ASCII 数字串。
func isNumeric(s string) bool {
	if s == "" {
		return false
	}
	for i := 0; i < len(s); i++ {
		if s[i] < '0' || s[i] > '9' {
			return false
		}
	}
	return true
}
