package scrape

import (
	"bytes"
	"path/filepath"
	"regexp"
	"strings"

	"github.com/PuerkitoBio/goquery"
	"golang.org/x/net/html"
)

// 文本中的 magnet 链接：遇到空白、引号、尖括号即结束。
var linkRE = regexp.MustCompile(`(?i)magnet:\?[^\s"'<>]+`)

const scheme = "magnet:"

// FromHTML 从 HTML 中提取 magnet 链接（按首次出现顺序，去重）。
//
// 来源：
// - a[href] 中以 magnet: 开头的链接（不区分大小写）
// - input 的 value 与元素的 data-* 属性（常见于“复制链接”按钮）
// - 可见文本中的裸链接
//
// 注意：href 中的 HTML 实体由解析器还原，其余部分原样返回（不做百分号解码）。
func FromHTML(b []byte) ([]string, error) {
	doc, err := goquery.NewDocumentFromReader(bytes.NewReader(b))
	if err != nil {
		return nil, err
	}

	var links []string
	doc.Find("a[href]").Each(func(_ int, s *goquery.Selection) {
		href, _ := s.Attr("href")
		if isMagnet(href) {
			links = append(links, strings.TrimSpace(href))
		}
	})

	doc.Find("input[value], [data-clipboard-text], [data-magnet], [data-href]").Each(func(_ int, s *goquery.Selection) {
		for _, attr := range []string{"value", "data-clipboard-text", "data-magnet", "data-href"} {
			if v, ok := s.Attr(attr); ok && isMagnet(v) {
				links = append(links, strings.TrimSpace(v))
			}
		}
	})

	// script/style 里的内容不是可见文本。
	// 文本节点逐个处理：相邻元素的文本不能拼接成一条链接。
	doc.Find("script, style").Remove()
	for _, n := range doc.Nodes {
		eachTextNode(n, func(text string) {
			links = append(links, FromText(text)...)
		})
	}

	return normList(links), nil
}

// FromText 从纯文本中提取 magnet 链接（按首次出现顺序，去重）。
func FromText(s string) []string {
	return normList(linkRE.FindAllString(s, -1))
}

// FromFile 按扩展名选择提取方式：.html/.htm 走 HTML，其余按纯文本处理。
func FromFile(name string, data []byte) ([]string, error) {
	switch strings.ToLower(filepath.Ext(name)) {
	case ".html", ".htm":
		return FromHTML(data)
	default:
		return FromText(string(data)), nil
	}
}

// eachTextNode 按文档顺序对 n 之下的每个文本节点调用 fn。
func eachTextNode(n *html.Node, fn func(string)) {
	if n.Type == html.TextNode {
		fn(n.Data)
		return
	}
	for c := n.FirstChild; c != nil; c = c.NextSibling {
		eachTextNode(c, fn)
	}
}

func isMagnet(s string) bool {
	s = strings.TrimSpace(s)
	return len(s) > len(scheme) && strings.EqualFold(s[:len(scheme)], scheme)
}

func normList(in []string) []string {
	m := make(map[string]struct{}, len(in))
	out := make([]string, 0, len(in))
	for _, s := range in {
		s = strings.TrimSpace(s)
		if s == "" {
			continue
		}
		if _, ok := m[s]; ok {
			continue
		}
		m[s] = struct{}{}
		out = append(out, s)
	}
	return out
}
