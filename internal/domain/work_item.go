package domain

// WorkItem 是按原始链接去重后的工作单元。
// 同一个 magnet 链接可能出现在多个来源中，只解码一次。
type WorkItem struct {
	URI     string
	Sources []string
}
