package magnet

import (
	"sort"
	"strconv"
	"strings"

	"github.com/gausby/magnet/internal/domain"
	"github.com/gausby/magnet/internal/uri"
)

// Encode 把 Magnet 转回有序的 key/value 对（值已按 key 规则编码）。
//
// 规则：
// - 输出顺序固定：xt, dn, xl, tr, xs, as, kt, mt, x.*
// - 列表字段每项一个 pair；第 i 项（i>=1）带 ".i" 后缀，表达的是输出位置而不是原始 priority
// - 解码时做了百分号解码的字段（as/tr/xs/x.*）在这里做百分号编码；其余原样输出
// - 空字段不输出；experimental 按 key 字典序输出
func Encode(m domain.Magnet) []domain.Pair {
	out := make([]domain.Pair, 0, 8)

	out = appendList(out, "xt", m.InfoHash, false)
	if m.Name != "" {
		out = append(out, domain.Pair{Key: "dn", Value: m.Name})
	}
	if m.Length != nil {
		out = append(out, domain.Pair{Key: "xl", Value: strconv.FormatInt(*m.Length, 10)})
	}
	out = appendList(out, "tr", m.Announce, true)
	out = appendList(out, "xs", m.Source, true)
	if m.Fallback != "" {
		out = append(out, domain.Pair{Key: "as", Value: uri.Escape(m.Fallback)})
	}
	out = appendList(out, "kt", m.Keywords, false)
	if m.Manifest != "" {
		out = append(out, domain.Pair{Key: "mt", Value: m.Manifest})
	}

	if len(m.Experimental) > 0 {
		keys := make([]string, 0, len(m.Experimental))
		for k := range m.Experimental {
			keys = append(keys, k)
		}
		sort.Strings(keys)
		for _, k := range keys {
			out = append(out, domain.Pair{Key: experimentalPrefix + k, Value: uri.Escape(m.Experimental[k])})
		}
	}
	return out
}

// EncodeString 返回完整的 magnet:? URI。
func EncodeString(m domain.Magnet) string {
	return uri.Join(Encode(m))
}

func appendList(out []domain.Pair, key string, values []string, escape bool) []domain.Pair {
	for i, v := range values {
		k := key
		if i > 0 {
			k = key + "." + strconv.Itoa(i)
		}
		if escape {
			v = uri.Escape(v)
		}
		out = append(out, domain.Pair{Key: k, Value: v})
	}
	return out
}

// LossyFields 列出 EncodeString 无法无损表达的字段。
//
// xt/dn/kt/mt 原样输出，值里的 '&' 会在解码时截断该 pair；
// x.* 的名字不做编码，含 '&' 或 '=' 时同样无法还原。
func LossyFields(m domain.Magnet) []string {
	var out []string
	for _, v := range m.InfoHash {
		if strings.Contains(v, "&") {
			out = append(out, "xt")
			break
		}
	}
	if strings.Contains(m.Name, "&") {
		out = append(out, "dn")
	}
	for _, v := range m.Keywords {
		if strings.Contains(v, "&") {
			out = append(out, "kt")
			break
		}
	}
	if strings.Contains(m.Manifest, "&") {
		out = append(out, "mt")
	}

	var names []string
	for k := range m.Experimental {
		if strings.ContainsAny(k, "&=") {
			names = append(names, experimentalPrefix+k)
		}
	}
	sort.Strings(names)
	return append(out, names...)
}
