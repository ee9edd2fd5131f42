package domain

// SourcePlan 是单个来源的确定性处理计划（只描述，不做抓取/读取）。
type SourcePlan struct {
	Source Source

	// CachePath 是 url 来源的页面缓存路径；file 来源为空。
	CachePath string
	// Cached 表示 url 来源在缓存中已存在（将直接读缓存而不打网络）。
	Cached bool
}

// NeedFetch 表示该来源需要发起网络请求。
func (p SourcePlan) NeedFetch() bool {
	return p.Source.Kind == SourceKindURL && !p.Cached
}
