package planner

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/gausby/magnet/internal/domain"
	"github.com/gausby/magnet/internal/infra/cache"
)

func TestPlanSources_CacheHit(t *testing.T) {
	root := t.TempDir()
	store := cache.New(root, false)

	const hit = "https://a.test/hit"
	const miss = "https://a.test/miss"
	if err := store.WritePage(hit, []byte("<html/>")); err != nil {
		t.Fatalf("写入缓存失败：%v", err)
	}

	plans, err := PlanSources([]domain.Source{
		{Kind: domain.SourceKindURL, URL: miss},
		{Kind: domain.SourceKindURL, URL: hit},
		{Kind: domain.SourceKindFile, AbsPath: filepath.Join(root, "x.html"), RelPath: "x.html"},
	}, store)
	if err != nil {
		t.Fatalf("不期望错误：%v", err)
	}
	if len(plans) != 3 {
		t.Fatalf("期望 3 条计划，实际 %d", len(plans))
	}

	// file 在前；url 按字典序。
	if plans[0].Source.Kind != domain.SourceKindFile {
		t.Fatalf("期望 file 来源排在最前，实际 %+v", plans[0].Source)
	}
	if plans[1].Source.URL != hit || !plans[1].Cached || plans[1].NeedFetch() {
		t.Fatalf("期望 %s 命中缓存，实际 %+v", hit, plans[1])
	}
	if plans[2].Source.URL != miss || plans[2].Cached || !plans[2].NeedFetch() {
		t.Fatalf("期望 %s 需要抓取，实际 %+v", miss, plans[2])
	}
	if plans[0].NeedFetch() {
		t.Fatalf("file 来源不应需要抓取")
	}

	files, urls, cached, needFetch := Count(plans)
	if files != 1 || urls != 2 || cached != 1 || needFetch != 1 {
		t.Fatalf("统计不符合预期：files=%d urls=%d cached=%d need_fetch=%d", files, urls, cached, needFetch)
	}
}

func TestPlanSources_CachePathIsDir(t *testing.T) {
	root := t.TempDir()
	store := cache.New(root, true)
	const u = "https://a.test/dir"

	path, err := store.PagePath(u)
	if err != nil {
		t.Fatalf("不期望错误：%v", err)
	}
	if err := os.MkdirAll(path, 0o755); err != nil {
		t.Fatalf("创建目录失败：%v", err)
	}

	plans, err := PlanSources([]domain.Source{{Kind: domain.SourceKindURL, URL: u}}, store)
	if err != nil {
		t.Fatalf("不期望错误：%v", err)
	}
	if plans[0].Cached {
		t.Fatalf("目录不应视为缓存命中")
	}
}

func TestPlanSources_UnknownKind(t *testing.T) {
	_, err := PlanSources([]domain.Source{{Kind: "ftp"}}, cache.New(t.TempDir(), true))
	if err == nil {
		t.Fatalf("期望错误，但得到 nil")
	}
}
