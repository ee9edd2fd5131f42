// Package uri 负责 magnet URI 的外层语法：把原始字符串切成有序的 key/value 对、
// 把 key/value 对拼回字符串，以及百分号编码/解码原语。
//
// 这里不解释任何 key 的含义，也不做解码；按 key 决定是否解码是 magnet 包的职责。
package uri

import (
	"fmt"
	"net/url"
	"strconv"
	"strings"
	"unicode/utf8"

	"github.com/gausby/magnet/internal/domain"
)

const Scheme = "magnet"

// SyntaxError 表示原始 URI 无法切分为 key/value 对。
type SyntaxError struct {
	Input  string
	Offset int
	Reason string
}

func (e *SyntaxError) Error() string {
	if e.Offset >= 0 {
		return fmt.Sprintf("magnet URI 语法错误（offset=%d）：%s", e.Offset, e.Reason)
	}
	return "magnet URI 语法错误：" + e.Reason
}

// Split 使用 DefaultOptions 切分原始 URI。
func Split(raw string) ([]domain.Pair, error) {
	return SplitWithOptions(raw, DefaultOptions)
}

// SplitWithOptions 把原始 URI 切分为有序的 key/value 对。
//
// 接受三种形态：magnet:?query、?query、query。
// - scheme 不区分大小写；非 magnet scheme 或缺少 '?' 视为语法错误
// - 空片段（&& 或首尾分隔符）忽略
// - 每个片段只在第一个 '=' 处切分；没有 '=' 时值为空串
// - key 为空但值非空视为语法错误
// - key/value 原样返回（不做百分号解码）
func SplitWithOptions(raw string, opts Options) ([]domain.Pair, error) {
	if len(opts.Separators) == 0 {
		opts.Separators = DefaultOptions.Separators
	}

	query, base, err := stripScheme(raw)
	if err != nil {
		return nil, err
	}

	pairs := make([]domain.Pair, 0, 8)
	for _, seg := range splitBySeparators(query, opts.Separators) {
		if seg.text == "" {
			continue
		}
		k, v := splitPair(seg.text)
		if k == "" {
			if v == "" {
				continue
			}
			return nil, &SyntaxError{Input: raw, Offset: base + seg.start, Reason: fmt.Sprintf("片段 %q 缺少 key", seg.text)}
		}
		pairs = append(pairs, domain.Pair{Key: k, Value: v})
	}
	return pairs, nil
}

// stripScheme 去掉 "magnet:?" / "?" 前缀，返回 query 部分及其在 raw 中的起始下标。
func stripScheme(raw string) (string, int, error) {
	if strings.HasPrefix(raw, "?") {
		return raw[1:], 1, nil
	}
	i := strings.IndexAny(raw, ":?=&")
	if i < 0 || raw[i] != ':' {
		// 没有 scheme：整体视为 query。
		return raw, 0, nil
	}
	scheme := raw[:i]
	if !strings.EqualFold(scheme, Scheme) {
		return "", 0, &SyntaxError{Input: raw, Offset: 0, Reason: fmt.Sprintf("不支持的 scheme %q", scheme)}
	}
	rest := raw[i+1:]
	if !strings.HasPrefix(rest, "?") {
		return "", 0, &SyntaxError{Input: raw, Offset: i + 1, Reason: "magnet: 之后必须是 '?'"}
	}
	return rest[1:], i + 2, nil
}

// splitPair 只在第一个 '=' 处切分。
func splitPair(s string) (string, string) {
	if i := strings.IndexByte(s, '='); i >= 0 {
		return s[:i], s[i+1:]
	}
	return s, ""
}

type segment struct {
	text  string
	start int // 在 query 中的字节下标
}

// splitBySeparators 按 seps 中任意字符切分 s；空片段保留（由调用方忽略）。
func splitBySeparators(s string, seps []rune) []segment {
	if s == "" {
		return nil
	}
	sepSet := make(map[rune]struct{}, len(seps))
	for _, r := range seps {
		sepSet[r] = struct{}{}
	}
	var out []segment
	start := 0
	for i, r := range s {
		if _, isSep := sepSet[r]; isSep {
			out = append(out, segment{text: s[start:i], start: start})
			start = i + utf8.RuneLen(r)
		}
	}
	out = append(out, segment{text: s[start:], start: start})
	return out
}

// Join 把 key/value 对拼成 magnet:?k=v&k=v。
// key/value 不会被再次编码；调用方负责先按 key 决定是否 Escape。
func Join(pairs []domain.Pair) string {
	var b strings.Builder
	b.WriteString(Scheme)
	b.WriteString(":?")
	for i, p := range pairs {
		if i > 0 {
			b.WriteByte('&')
		}
		b.WriteString(p.Key)
		b.WriteByte('=')
		b.WriteString(p.Value)
	}
	return b.String()
}

// Escape 做百分号编码；空格编码为 %20（而不是 '+'），保证 Unescape(Escape(s)) == s。
func Escape(s string) string {
	return strings.ReplaceAll(url.QueryEscape(s), "+", "%20")
}

// Unescape 做百分号解码；'+' 保持原样（magnet 值里的 '+' 是字面量或 kt 的分隔符）。
//
// strict=false：非法的 % 序列原样保留，不报错。
// strict=true：非法的 % 序列返回 url.EscapeError。
func Unescape(s string, strict bool) (string, error) {
	if strings.IndexByte(s, '%') < 0 {
		return s, nil
	}
	if strict {
		return url.PathUnescape(s)
	}
	return lenientUnescape(s), nil
}

func lenientUnescape(s string) string {
	out := make([]byte, 0, len(s))
	for i := 0; i < len(s); i++ {
		c := s[i]
		if c == '%' && i+2 < len(s) && isHex(s[i+1]) && isHex(s[i+2]) {
			v, err := strconv.ParseUint(s[i+1:i+3], 16, 8)
			if err == nil {
				out = append(out, byte(v))
				i += 2
				continue
			}
		}
		out = append(out, c)
	}
	return string(out)
}

func isHex(c byte) bool {
	return ('0' <= c && c <= '9') || ('a' <= c && c <= 'f') || ('A' <= c && c <= 'F')
}
