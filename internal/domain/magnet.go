package domain

// Pair 是 magnet URI 中的一个 key=value 片段（保持出现顺序，值未做百分号解码）。
type Pair struct {
	Key   string
	Value string
}

// Magnet 是解码后的 Magnet URI。
//
// 约束：
// - 单值字段用空串表示缺失（解码阶段从不写入空值，因此不会产生歧义）
// - Length 用指针，因为 xl=0 是合法值
// - 列表字段已按 priority 稳定排序，且不含相邻重复项
// - 解码完成后不再修改
type Magnet struct {
	Name         string            `json:"name,omitempty"`
	Length       *int64            `json:"length,omitempty"`
	InfoHash     []string          `json:"info_hash,omitempty"`
	Fallback     string            `json:"fallback,omitempty"`
	Source       []string          `json:"source,omitempty"`
	Keywords     []string          `json:"keywords,omitempty"`
	Manifest     string            `json:"manifest,omitempty"`
	Announce     []string          `json:"announce,omitempty"`
	Experimental map[string]string `json:"experimental,omitempty"`
}

// Equal 做逐字段的结构相等比较；nil 与空 slice/map 视为相等。
func (m Magnet) Equal(o Magnet) bool {
	if m.Name != o.Name || m.Fallback != o.Fallback || m.Manifest != o.Manifest {
		return false
	}
	if (m.Length == nil) != (o.Length == nil) {
		return false
	}
	if m.Length != nil && *m.Length != *o.Length {
		return false
	}
	if !equalStrings(m.InfoHash, o.InfoHash) ||
		!equalStrings(m.Source, o.Source) ||
		!equalStrings(m.Keywords, o.Keywords) ||
		!equalStrings(m.Announce, o.Announce) {
		return false
	}
	if len(m.Experimental) != len(o.Experimental) {
		return false
	}
	for k, v := range m.Experimental {
		if ov, ok := o.Experimental[k]; !ok || ov != v {
			return false
		}
	}
	return true
}

func equalStrings(a, b []string) bool {
	if len(a) != len(b) {
		return false
	}
	for i := range a {
		if a[i] != b[i] {
			return false
		}
	}
	return true
}
