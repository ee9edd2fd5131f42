package planner

import (
	"fmt"
	"os"
	"sort"

	"github.com/gausby/magnet/internal/domain"
	"github.com/gausby/magnet/internal/infra/cache"
)

// PlanSources 基于来源列表 + 页面缓存现状生成确定性的处理计划。
// 只对缓存文件做 Stat，不读内容。
func PlanSources(sources []domain.Source, store cache.Store) ([]domain.SourcePlan, error) {
	plans := make([]domain.SourcePlan, 0, len(sources))
	for _, s := range sources {
		p := domain.SourcePlan{Source: s}
		switch s.Kind {
		case domain.SourceKindFile:
			// 本地文件直接读取，无需规划缓存。
		case domain.SourceKindURL:
			path, err := store.PagePath(s.URL)
			if err != nil {
				return nil, err
			}
			p.CachePath = path
			fi, err := os.Stat(path)
			switch {
			case err == nil:
				p.Cached = fi.Mode().IsRegular()
			case os.IsNotExist(err):
			default:
				return nil, err
			}
		default:
			return nil, fmt.Errorf("未知来源类型：%q", s.Kind)
		}
		plans = append(plans, p)
	}
	SortPlans(plans)
	return plans, nil
}

// Count 统计计划中的 file/url 来源数与需要抓取的数量。
func Count(plans []domain.SourcePlan) (files, urls, cached, needFetch int) {
	for _, p := range plans {
		switch p.Source.Kind {
		case domain.SourceKindFile:
			files++
		case domain.SourceKindURL:
			urls++
			if p.Cached {
				cached++
			}
		}
		if p.NeedFetch() {
			needFetch++
		}
	}
	return files, urls, cached, needFetch
}

// SortPlans 让上层显式保证稳定顺序：file 在前按 RelPath，url 在后按 URL。
func SortPlans(plans []domain.SourcePlan) {
	sort.SliceStable(plans, func(i, j int) bool {
		a, b := plans[i].Source, plans[j].Source
		if a.Kind != b.Kind {
			return a.Kind == domain.SourceKindFile
		}
		return a.Name() < b.Name()
	})
}
