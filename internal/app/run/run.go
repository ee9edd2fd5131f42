package run

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"os"
	"strings"
	"time"

	"golang.org/x/sync/errgroup"

	"github.com/gausby/magnet/internal/app"
	"github.com/gausby/magnet/internal/app/planner"
	"github.com/gausby/magnet/internal/config"
	"github.com/gausby/magnet/internal/domain"
	"github.com/gausby/magnet/internal/infra/cache"
	"github.com/gausby/magnet/internal/infra/httpx"
	"github.com/gausby/magnet/internal/magnet"
	"github.com/gausby/magnet/internal/scan"
	"github.com/gausby/magnet/internal/scrape"
)

// Execute 执行一次 run（dry-run/apply），并返回对外稳定的 RunReport。
// 该函数尽量把错误“降级”为 item 级失败（单个来源/链接失败不影响其他）。
func Execute(ctx context.Context, eff config.EffectiveConfig) domain.RunReport {
	return ExecuteWithObserver(ctx, eff, nil)
}

// ExecuteWithObserver 与 Execute 相同，但允许传入 Observer 以输出进度/阶段信息。
func ExecuteWithObserver(ctx context.Context, eff config.EffectiveConfig, obs Observer) domain.RunReport {
	started := time.Now().UTC()

	if obs != nil {
		obs.OnStart(eff)
	}

	rr := domain.RunReport{
		Path:      eff.Path,
		URLs:      append([]string{}, eff.URLs...),
		DryRun:    !eff.Apply,
		StartedAt: started,
		Items:     make([]domain.ItemResult, 0, 128),
	}

	client, err := httpx.NewPageClient(eff.ProxyURL)
	if err != nil {
		return abort(rr, domain.ErrCodeConfigInvalid, fmt.Sprintf("proxy.url 无效：%v", err))
	}

	root := eff.Root
	if root == "" {
		root = eff.Path
	}
	store := cache.New(root, !eff.Apply)

	scanStarted := time.Now()
	var sources []domain.Source
	if eff.Path != "" {
		files, err := scan.ScanSources(eff.Path, eff.ExcludeDirs)
		if err != nil {
			return abort(rr, domain.ErrCodeIOFailed, fmt.Sprintf("扫描失败：%v", err))
		}
		sources = append(sources, files...)
	}
	for _, u := range eff.URLs {
		sources = append(sources, domain.Source{Kind: domain.SourceKindURL, URL: u})
	}
	scanDur := time.Since(scanStarted)

	if obs != nil {
		obs.OnPhaseDone("scan", map[string]any{
			"files": len(sources) - len(eff.URLs),
			"urls":  len(eff.URLs),
		}, scanDur)
	}

	planStarted := time.Now()
	plans, err := planner.PlanSources(sources, store)
	if err != nil {
		return abort(rr, domain.ErrCodeIOFailed, fmt.Sprintf("规划失败：%v", err))
	}
	planDur := time.Since(planStarted)
	rr.Summary.Sources = len(plans)

	if obs != nil {
		_, _, cached, needFetch := planner.Count(plans)
		obs.OnPhaseDone("plan", map[string]any{
			"sources":    len(plans),
			"cached":     cached,
			"need_fetch": needFetch,
		}, planDur)
	}

	// 提取阶段：按来源并发（errgroup + SetLimit），结果按下标落位，保证顺序确定。
	workers := eff.Concurrency
	if workers < 1 {
		workers = 1
	}

	harvestStarted := time.Now()
	harvests := make([]app.Harvest, len(plans))
	failures := make([]*domain.ItemResult, len(plans))

	var g errgroup.Group
	g.SetLimit(workers)
	for i := range plans {
		i := i // go 1.21 语义下保持每次迭代独立的 i
		g.Go(func() error {
			links, fail := harvestOne(ctx, plans[i], client, store)
			harvests[i] = app.Harvest{Source: plans[i].Source.Name(), Links: links}
			failures[i] = fail
			return nil
		})
	}
	_ = g.Wait() // harvestOne 从不返回 error：失败已降级为 item

	var rawLinks, failedSources int
	for i := range plans {
		if failures[i] != nil {
			failedSources++
			rr.Items = append(rr.Items, *failures[i])
			continue
		}
		rawLinks += len(harvests[i].Links)
	}
	harvestDur := time.Since(harvestStarted)

	if obs != nil {
		obs.OnPhaseDone("harvest", map[string]any{
			"workers": workers,
			"links":   rawLinks,
			"failed":  failedSources,
		}, harvestDur)
	}

	groupStarted := time.Now()
	items := app.GroupLinks(harvests)
	groupDur := time.Since(groupStarted)

	if obs != nil {
		obs.OnPhaseDone("group", map[string]any{
			"links": len(items),
		}, groupDur)
	}

	opts := magnet.Options{StrictDecode: eff.StrictDecode}
	for i, it := range items {
		oneStarted := time.Now()
		res := decodeOne(it, opts)
		rr.Items = append(rr.Items, res)
		if obs != nil {
			obs.OnItemDone(i+1, len(items), res, time.Since(oneStarted))
		}
	}

	rr.FinishedAt = time.Now().UTC()
	rr.Finalize()
	return rr
}

func abort(rr domain.RunReport, code, msg string) domain.RunReport {
	rr.Items = append(rr.Items, syntheticFailed(code, msg))
	rr.FinishedAt = time.Now().UTC()
	rr.Finalize()
	return rr
}

func syntheticFailed(code, msg string) domain.ItemResult {
	return domain.ItemResult{
		URI:       "",
		Sources:   []string{},
		Status:    domain.StatusFailed,
		ErrorCode: code,
		ErrorMsg:  msg,
	}
}

func sourceFailed(src domain.Source, code, msg string) *domain.ItemResult {
	return &domain.ItemResult{
		URI:       "",
		Sources:   []string{src.Name()},
		Status:    domain.StatusFailed,
		ErrorCode: code,
		ErrorMsg:  msg,
	}
}

// harvestOne 读取/抓取单个来源并提取 magnet 链接。
// url 来源：先读缓存；未命中则抓取，apply 模式下写回缓存（写失败不影响本次结果）。
func harvestOne(ctx context.Context, p domain.SourcePlan, c *http.Client, store cache.Store) ([]string, *domain.ItemResult) {
	src := p.Source

	if src.Kind == domain.SourceKindFile {
		b, err := os.ReadFile(src.AbsPath)
		if err != nil {
			return nil, sourceFailed(src, domain.ErrCodeIOFailed, fmt.Sprintf("读取来源失败：%v", err))
		}
		links, err := scrape.FromFile(src.AbsPath, b)
		if err != nil {
			return nil, sourceFailed(src, domain.ErrCodeExtractFailed, fmt.Sprintf("提取链接失败：%v", err))
		}
		return links, nil
	}

	var page []byte
	if p.Cached {
		if b, ok, err := store.ReadPage(src.URL); err == nil && ok {
			page = b
		}
		// 坏缓存/读失败：忽略，走网络。
	}
	if page == nil {
		b, err := httpx.Fetch(ctx, c, src.URL)
		if err != nil {
			return nil, sourceFailed(src, domain.ErrCodeFetchFailed, humanizeFetchError(err))
		}
		page = b
		if !store.ReadOnly {
			_ = store.WritePage(src.URL, page)
		}
	}

	links, err := scrape.FromHTML(page)
	if err != nil {
		return nil, sourceFailed(src, domain.ErrCodeExtractFailed, fmt.Sprintf("提取链接失败：%v", err))
	}
	return links, nil
}

func decodeOne(it domain.WorkItem, opts magnet.Options) domain.ItemResult {
	res := domain.ItemResult{
		URI:     it.URI,
		Sources: append([]string{}, it.Sources...),
		Status:  domain.StatusDecoded,
	}

	m, err := magnet.DecodeStringWithOptions(it.URI, opts)
	if err != nil {
		res.Status = domain.StatusFailed
		res.ErrorCode = magnet.Code(err)
		if res.ErrorCode == "" {
			res.ErrorCode = domain.ErrCodeMalformedInput
		}
		res.ErrorMsg = err.Error()
		return res
	}

	res.Magnet = &m
	res.Canonical = magnet.EncodeString(m)
	return res
}

func humanizeFetchError(err error) string {
	// HTTP 非 2xx：尽量给出可操作提示（反爬/限流是最常见问题）。
	var hs *httpx.HTTPStatusError
	if errors.As(err, &hs) {
		loc := strings.TrimSpace(hs.Location)
		switch hs.StatusCode {
		case 403, 429:
			return fmt.Sprintf("返回 HTTP %d（可能触发反爬/限流）。建议降低并发或配置 proxy.url。", hs.StatusCode)
		case 404:
			return "返回 HTTP 404（页面不存在或已下架）。"
		default:
			if loc != "" {
				return fmt.Sprintf("返回 HTTP %d（重定向）：%s", hs.StatusCode, loc)
			}
			return fmt.Sprintf("返回 HTTP %d。", hs.StatusCode)
		}
	}

	low := strings.ToLower(err.Error())
	if errors.Is(err, context.DeadlineExceeded) || strings.Contains(low, "timeout") {
		return "抓取超时。建议检查网络/代理，或降低并发后重试。"
	}
	if errors.Is(err, context.Canceled) {
		return "抓取被取消。"
	}
	if strings.Contains(low, "tls") || strings.Contains(low, "handshake") {
		return "连接失败（TLS/SSL）。建议配置 proxy.url 或稍后重试。"
	}
	return fmt.Sprintf("抓取失败：%v", err)
}
