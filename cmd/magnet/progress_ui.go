package main

import (
	"encoding/json"
	"fmt"
	"io"
	"net/url"
	"strings"
	"sync"
	"time"
	"unicode/utf8"

	"github.com/schollz/progressbar/v3"

	"github.com/gausby/magnet/internal/app/run"
	"github.com/gausby/magnet/internal/config"
	"github.com/gausby/magnet/internal/domain"
)

var _ run.Observer = (*progressUI)(nil)

// progressUI 是交互终端的进度输出。
//
// - 所有过程信息写到 w（stderr 或 fallback 到 stdout），不污染 stdout 的 JSON 输出
// - 阶段行由事件驱动；解码阶段用进度条展示，失败条目在进度条上方单独一行
type progressUI struct {
	w io.Writer

	mu  sync.Mutex
	bar *progressbar.ProgressBar

	total int
	ok    int
	fail  int
}

func newProgressUI(w io.Writer) *progressUI {
	return &progressUI{w: w}
}

func (p *progressUI) OnStart(eff config.EffectiveConfig) {
	p.mu.Lock()
	defer p.mu.Unlock()

	mode := "dry-run"
	modeHint := " (不写缓存/不写 report)"
	if eff.Apply {
		mode = "apply"
		modeHint = ""
	}

	fmt.Fprintf(p.w, "[%s] magnet run (%s)\n", time.Now().Format("15:04:05"), mode)
	fmt.Fprintln(p.w, "配置（生效）:")
	fmt.Fprintf(p.w, "  path: %s\n", orNone(eff.Path))
	fmt.Fprintf(p.w, "  urls: %s\n", formatStringListJSON(eff.URLs))
	fmt.Fprintf(p.w, "  mode: %s%s\n", mode, modeHint)
	fmt.Fprintf(p.w, "  strict_decode: %s\n", onOff(eff.StrictDecode))
	fmt.Fprintf(p.w, "  concurrency: %d\n", eff.Concurrency)
	fmt.Fprintf(p.w, "  proxy: %s\n", formatProxy(eff.ProxyURL))
	fmt.Fprintf(p.w, "  exclude_dirs: %s + 固定排除 cache/\n", formatStringListJSON(eff.ExcludeDirs))
	fmt.Fprintln(p.w)
}

func (p *progressUI) OnPhaseDone(name string, fields map[string]any, dur time.Duration) {
	p.mu.Lock()
	defer p.mu.Unlock()

	switch name {
	case "scan":
		fmt.Fprintf(p.w, "扫描: files=%d urls=%d (%s)\n",
			intField(fields, "files"), intField(fields, "urls"), formatShortDuration(dur),
		)
	case "plan":
		fmt.Fprintf(p.w, "规划: sources=%d cached=%d need_fetch=%d (%s)\n",
			intField(fields, "sources"), intField(fields, "cached"), intField(fields, "need_fetch"), formatShortDuration(dur),
		)
	case "harvest":
		fmt.Fprintf(p.w, "提取: workers=%d links=%d failed=%d (%s)\n",
			intField(fields, "workers"), intField(fields, "links"), intField(fields, "failed"), formatShortDuration(dur),
		)
	case "group":
		p.total = intField(fields, "links")
		fmt.Fprintf(p.w, "去重: links=%d (%s)\n\n", p.total, formatShortDuration(dur))
		if p.total > 0 {
			p.bar = progressbar.NewOptions(p.total,
				progressbar.OptionSetWriter(p.w),
				progressbar.OptionSetDescription("解码"),
				progressbar.OptionShowCount(),
				progressbar.OptionSetWidth(30),
				progressbar.OptionClearOnFinish(),
			)
		}
	default:
		// 未知阶段也不要静默。
		fmt.Fprintf(p.w, "%s (%s)\n", name, formatShortDuration(dur))
	}
}

func (p *progressUI) OnItemDone(idx, total int, res domain.ItemResult, dur time.Duration) {
	p.mu.Lock()
	defer p.mu.Unlock()

	p.total = total
	switch res.Status {
	case domain.StatusDecoded:
		p.ok++
	case domain.StatusFailed:
		p.fail++
		if p.bar != nil {
			_ = p.bar.Clear()
		}
		fmt.Fprintf(p.w, "[%d/%d] FAIL %s %s: %s (%s)\n",
			idx, total, truncate(res.URI, 80), res.ErrorCode, truncate(res.ErrorMsg, 160), formatShortDuration(dur),
		)
	}

	if p.bar == nil {
		return
	}
	_ = p.bar.Add(1)
	if idx >= total {
		_ = p.bar.Finish()
		p.bar = nil
		fmt.Fprintf(p.w, "解码: ok=%d fail=%d\n", p.ok, p.fail)
	}
}

func onOff(v bool) string {
	if v {
		return "on"
	}
	return "off"
}

func orNone(s string) string {
	if strings.TrimSpace(s) == "" {
		return "(none)"
	}
	return s
}

func formatProxy(raw string) string {
	raw = strings.TrimSpace(raw)
	if raw == "" {
		return "off"
	}
	u, err := url.Parse(raw)
	if err != nil || u.Scheme == "" || u.Host == "" {
		return "on (" + truncate(raw, 120) + ")"
	}
	auth := "off"
	if u.User != nil {
		auth = "on"
	}
	return fmt.Sprintf("on (%s://%s, auth=%s)", u.Scheme, u.Host, auth)
}

func formatStringListJSON(xs []string) string {
	// json.Marshal(nil slice) => "null"；对用户更友好的是 "[]"
	if xs == nil {
		xs = []string{}
	}
	b, err := json.Marshal(xs)
	if err != nil {
		return "[]"
	}
	return string(b)
}

func truncate(s string, max int) string {
	s = strings.TrimSpace(s)
	if max <= 0 || len(s) <= max {
		return s
	}
	if max <= 3 {
		return s[:runeCut(s, max)]
	}
	return s[:runeCut(s, max-3)] + "..."
}

// runeCut 返回不超过 n 且落在 rune 边界上的下标。
func runeCut(s string, n int) int {
	for n > 0 && !utf8.RuneStart(s[n]) {
		n--
	}
	return n
}

func formatShortDuration(d time.Duration) string {
	if d < 0 {
		d = 0
	}
	return fmt.Sprintf("%.1fs", d.Seconds())
}

func intField(fields map[string]any, key string) int {
	if fields == nil {
		return 0
	}
	switch x := fields[key].(type) {
	case int:
		return x
	case int64:
		return int(x)
	default:
		return 0
	}
}
