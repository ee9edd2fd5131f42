package app

import (
	"sort"
	"strings"

	"github.com/gausby/magnet/internal/domain"
)

// Harvest 是单个来源的提取结果：来源标识 + 按出现顺序的链接。
type Harvest struct {
	Source string
	Links  []string
}

// GroupLinks 把多个来源提取到的链接按原文去重为 WorkItem。
//
// - items 顺序：按链接首次出现的顺序（来源顺序 + 来源内顺序）
// - item 内 Sources 稳定排序：字典序，且去重
// - 空白链接直接忽略
func GroupLinks(harvests []Harvest) []domain.WorkItem {
	index := make(map[string]int, 128)
	items := make([]domain.WorkItem, 0, 128)

	for _, h := range harvests {
		for _, raw := range h.Links {
			uri := strings.TrimSpace(raw)
			if uri == "" {
				continue
			}
			if idx, ok := index[uri]; ok {
				items[idx].Sources = append(items[idx].Sources, h.Source)
				continue
			}
			index[uri] = len(items)
			items = append(items, domain.WorkItem{
				URI:     uri,
				Sources: []string{h.Source},
			})
		}
	}

	for i := range items {
		items[i].Sources = sortedUnique(items[i].Sources)
	}
	return items
}

func sortedUnique(in []string) []string {
	sort.Strings(in)
	out := in[:0]
	for i, s := range in {
		if i > 0 && s == in[i-1] {
			continue
		}
		out = append(out, s)
	}
	return out
}
