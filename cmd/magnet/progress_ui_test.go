package main

import (
	"bytes"
	"strings"
	"testing"
	"time"
	"unicode/utf8"

	"github.com/gausby/magnet/internal/config"
	"github.com/gausby/magnet/internal/domain"
)

func TestProgressUI_PhasesAndFailures(t *testing.T) {
	var buf bytes.Buffer
	p := newProgressUI(&buf)

	p.OnStart(config.EffectiveConfig{Path: "/tmp/x", Concurrency: 4})
	p.OnPhaseDone("scan", map[string]any{"files": 2, "urls": 1}, time.Second)
	p.OnPhaseDone("group", map[string]any{"links": 2}, 0)
	p.OnItemDone(1, 2, domain.ItemResult{URI: "magnet:?xt=a", Status: domain.StatusDecoded}, 0)
	p.OnItemDone(2, 2, domain.ItemResult{
		URI:       "magnet:?zz=1",
		Status:    domain.StatusFailed,
		ErrorCode: domain.ErrCodeUnrecognizedKey,
		ErrorMsg:  "无法识别的 key",
	}, 0)

	out := buf.String()
	for _, want := range []string{
		"magnet run (dry-run)",
		"扫描: files=2 urls=1 (1.0s)",
		"去重: links=2",
		"[2/2] FAIL magnet:?zz=1 unrecognized_key",
		"解码: ok=1 fail=1",
	} {
		if !strings.Contains(out, want) {
			t.Fatalf("输出缺少 %q：\n%s", want, out)
		}
	}
	if p.bar != nil {
		t.Fatalf("全部完成后进度条应已结束")
	}
}

func TestFormatProxy(t *testing.T) {
	cases := map[string]string{
		"":                             "off",
		"http://127.0.0.1:8080":        "on (http://127.0.0.1:8080, auth=off)",
		"socks5://u:p@proxy.test:1080": "on (socks5://proxy.test:1080, auth=on)",
	}
	for in, want := range cases {
		if got := formatProxy(in); got != want {
			t.Fatalf("formatProxy(%q)：期望 %q，实际 %q", in, want, got)
		}
	}
}

func TestTruncate(t *testing.T) {
	if got := truncate("abcdefgh", 6); got != "abc..." {
		t.Fatalf("期望 abc...，实际 %q", got)
	}
	if got := truncate("abc", 6); got != "abc" {
		t.Fatalf("期望 abc，实际 %q", got)
	}

	// 每个汉字 3 字节；按字节截断不能切进 rune 内部。
	for _, max := range []int{2, 3, 7, 8, 10} {
		got := truncate("磁力链接解码", max)
		if !utf8.ValidString(got) {
			t.Fatalf("max=%d：期望合法 UTF-8，实际 %q", max, got)
		}
		if len(got) > max {
			t.Fatalf("max=%d：期望长度不超过 max，实际 %d", max, len(got))
		}
	}
	if got := truncate("磁力链接解码", 10); got != "磁力..." {
		t.Fatalf("期望 磁力...，实际 %q", got)
	}
}
