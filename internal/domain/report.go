package domain

import (
	"encoding/json"
	"sort"
	"time"
)

const (
	StatusDecoded = "decoded"
	StatusFailed  = "failed"
)

const (
	ErrCodeInvalidPriority     = "invalid_priority"
	ErrCodeInvalidLength       = "invalid_length"
	ErrCodeUnrecognizedKey     = "unrecognized_key"
	ErrCodeMalformedInput      = "malformed_input"
	ErrCodeFetchFailed         = "fetch_failed"
	ErrCodeExtractFailed       = "extract_failed"
	ErrCodeIOFailed            = "io_failed"
	ErrCodeConfigNotFound      = "config_not_found"
	ErrCodeConfigInvalid       = "config_invalid"
	ErrCodeConfigMissingSource = "config_missing_source"
)

// RunReport 是对外稳定输出（report.json / stdout JSON）的结构。
type RunReport struct {
	Path   string   `json:"path"`
	URLs   []string `json:"urls"`
	DryRun bool     `json:"dry_run"`

	StartedAt  time.Time `json:"started_at"`
	FinishedAt time.Time `json:"finished_at"`

	Summary ReportSummary `json:"summary"`
	Items   []ItemResult  `json:"items"`
}

type ReportSummary struct {
	Sources int `json:"sources"`
	Links   int `json:"links"`
	Decoded int `json:"decoded"`
	Failed  int `json:"failed"`
}

// ItemResult 是一条链接（或一个失败来源）的处理结果。
//
// 来源级失败（抓取/读取/提取失败）没有 URI，Sources 只含该来源。
type ItemResult struct {
	URI     string   `json:"uri"`
	Sources []string `json:"sources"`

	Status    string `json:"status"`
	ErrorCode string `json:"error_code"`
	ErrorMsg  string `json:"error_msg"`

	Magnet    *Magnet `json:"magnet,omitempty"`
	Canonical string  `json:"canonical,omitempty"`
}

// Finalize 做三件事：
// 1) 时间统一为 UTC（确保 JSON 为 RFC3339 且后缀 Z）
// 2) items 稳定排序：按 uri 字典序；uri=="" 的条目排在最后
// 3) summary 由 items 计算得出（Sources 由调用方填写，这里不覆盖）
func (r *RunReport) Finalize() {
	r.StartedAt = r.StartedAt.UTC()
	r.FinishedAt = r.FinishedAt.UTC()

	sort.SliceStable(r.Items, func(i, j int) bool {
		a := r.Items[i].URI
		b := r.Items[j].URI
		if a == "" {
			return false
		}
		if b == "" {
			return true
		}
		return a < b
	})

	s := ReportSummary{Sources: r.Summary.Sources}
	for _, it := range r.Items {
		if it.URI != "" {
			s.Links++
		}
		switch it.Status {
		case StatusDecoded:
			s.Decoded++
		case StatusFailed:
			s.Failed++
		}
	}
	r.Summary = s
}

// MarshalJSON 仅用于集中约束输出的稳定性（避免未来不小心引入非确定字段）。
// 当前只是透传 encoding/json 的默认行为。
func (r RunReport) MarshalJSON() ([]byte, error) {
	type Alias RunReport
	return json.Marshal(Alias(r))
}
