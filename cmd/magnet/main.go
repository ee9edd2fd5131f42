package main

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/gausby/magnet/internal/app/run"
	"github.com/gausby/magnet/internal/config"
	"github.com/gausby/magnet/internal/domain"
	"github.com/gausby/magnet/internal/infra/fsx"
)

func main() {
	args := os.Args[1:]
	if len(args) == 0 || isHelp(args[0]) {
		printUsage(os.Stdout)
		return
	}

	var code int
	switch args[0] {
	case "decode":
		code = decodeCmd(args[1:], os.Stdin, os.Stdout, os.Stderr)
	case "encode":
		code = encodeCmd(args[1:], os.Stdin, os.Stdout, os.Stderr)
	case "run":
		code = runCmd(args[1:])
	default:
		fmt.Fprintf(os.Stderr, "未知命令：%q\n\n", args[0])
		printUsage(os.Stderr)
		code = 2
	}
	if code != 0 {
		os.Exit(code)
	}
}

func runCmd(args []string) int {
	for _, a := range args {
		if isHelp(a) {
			printRunUsage(os.Stdout)
			return 0
		}
	}

	ra, err := parseRunArgs(args)
	if err != nil {
		fmt.Fprintf(os.Stderr, "参数错误：%v\n\n", err)
		printRunUsage(os.Stderr)
		return 2
	}

	cwd, err := os.Getwd()
	if err != nil {
		fmt.Fprintf(os.Stderr, "读取当前目录失败：%v\n", err)
		return 1
	}
	cwdAbs, _ := filepath.Abs(cwd)

	eff, err := config.LoadEffective(cwd, config.CLIArgs{
		Path:      ra.Path,
		URLs:      ra.URLs,
		Apply:     ra.Apply,
		ApplySet:  ra.ApplySet,
		Strict:    ra.Strict,
		StrictSet: ra.StrictSet,
	})
	if err != nil {
		rr := reportForConfigError(cwdAbs, ra, err)
		emitReport(rr)
		return 1
	}

	progressW, interactive := pickProgressWriter()
	var obs run.Observer
	if interactive {
		obs = newProgressUI(progressW)
	}

	rr := run.ExecuteWithObserver(context.Background(), eff, obs)

	// apply：写入 <root>/cache/report.json；dry-run 禁止落盘。
	if eff.Apply {
		if err := writeReportFile(eff.Root, rr); err != nil {
			fmt.Fprintf(os.Stderr, "写入 report.json 失败：%v\n", err)
			emitReport(rr)
			return 1
		}
	}

	emitReport(rr)
	if interactive {
		emitLocations(progressW, eff)
	}
	if rr.Summary.Failed == 0 {
		return 0
	}
	return 1
}

type runArgs struct {
	Path string
	URLs []string

	Apply    bool
	ApplySet bool

	Strict    bool
	StrictSet bool
}

func parseRunArgs(args []string) (runArgs, error) {
	ra := runArgs{}

	for i := 0; i < len(args); i++ {
		a := args[i]
		switch {
		case a == "--url":
			if i+1 >= len(args) {
				return runArgs{}, fmt.Errorf("--url 需要一个值")
			}
			i++
			ra.URLs = append(ra.URLs, args[i])
		case strings.HasPrefix(a, "--url="):
			v := strings.TrimPrefix(a, "--url=")
			if strings.TrimSpace(v) == "" {
				return runArgs{}, fmt.Errorf("--url 不能为空")
			}
			ra.URLs = append(ra.URLs, v)
		case a == "--apply" || strings.HasPrefix(a, "--apply="):
			v, err := parseBoolFlag("--apply", a)
			if err != nil {
				return runArgs{}, err
			}
			ra.Apply, ra.ApplySet = v, true
		case a == "--strict" || strings.HasPrefix(a, "--strict="):
			v, err := parseBoolFlag("--strict", a)
			if err != nil {
				return runArgs{}, err
			}
			ra.Strict, ra.StrictSet = v, true
		case strings.HasPrefix(a, "-"):
			return runArgs{}, fmt.Errorf("未知参数 %q", a)
		default:
			if ra.Path != "" {
				return runArgs{}, fmt.Errorf("重复的 path：%q 与 %q", ra.Path, a)
			}
			ra.Path = a
		}
	}

	return ra, nil
}

// parseBoolFlag 解析 --name 与 --name=true|false 两种写法。
func parseBoolFlag(name, a string) (bool, error) {
	if a == name {
		return true, nil
	}
	switch v := strings.TrimPrefix(a, name+"="); v {
	case "true":
		return true, nil
	case "false":
		return false, nil
	default:
		return false, fmt.Errorf("%s 只能是 true 或 false，实际是 %q", name, v)
	}
}

func isHelp(s string) bool {
	return s == "-h" || s == "--help" || s == "help"
}

func printUsage(w io.Writer) {
	fmt.Fprint(w, `用法：
  magnet decode [--strict] [uri...]
  magnet encode [file]
  magnet run [path] [--url URL]... [--apply[=true|false]] [--strict[=true|false]]

命令：
  decode  解码 magnet 链接，每条输出一行 JSON（未给 uri 时从 stdin 按行读取）
  encode  把 JSON 记录编码为 magnet 链接（未给 file 时从 stdin 读取）
  run     从目录/网页批量提取并解码 magnet 链接（默认 dry-run）

使用 "magnet run --help" 查看详细说明。
`)
}

func printRunUsage(w io.Writer) {
	fmt.Fprint(w, `用法：
  magnet run [path] [--url URL]... [--apply[=true|false]] [--strict[=true|false]]

参数：
  --url       额外的网页来源（可重复；指定后整体覆盖配置文件中的 urls）
  --apply     写入页面缓存与 cache/report.json（默认 dry-run）；支持 --apply=false 覆盖配置
  --strict    严格百分号解码：非法转义视为 malformed_input
  -h, --help  显示帮助
`)
}

func emitReport(rr domain.RunReport) {
	if isTTY(os.Stdout) {
		fmt.Fprintf(os.Stdout, "完成：sources=%d links=%d decoded=%d failed=%d\n",
			rr.Summary.Sources, rr.Summary.Links, rr.Summary.Decoded, rr.Summary.Failed,
		)
		if rr.Summary.Failed > 0 {
			for _, it := range rr.Items {
				if it.Status != domain.StatusFailed {
					continue
				}
				key := it.URI
				if key == "" && len(it.Sources) > 0 {
					// 来源级/配置等合成条目：用来源做定位锚点。
					key = it.Sources[0]
				}
				if key == "" {
					key = "<unknown>"
				}
				fmt.Fprintf(os.Stderr, "%s %s: %s\n", key, it.ErrorCode, it.ErrorMsg)
			}
		}
		return
	}

	// stdout 非 TTY：stdout 必须且仅输出一个 RunReport JSON（摘要走 stderr）。
	enc := json.NewEncoder(os.Stdout)
	_ = enc.Encode(rr)
	fmt.Fprintf(os.Stderr, "完成：sources=%d links=%d decoded=%d failed=%d\n",
		rr.Summary.Sources, rr.Summary.Links, rr.Summary.Decoded, rr.Summary.Failed,
	)
}

func reportForConfigError(cwdAbs string, ra runArgs, err error) domain.RunReport {
	now := time.Now().UTC()
	rr := domain.RunReport{
		Path:       cwdAbs,
		URLs:       append([]string{}, ra.URLs...),
		DryRun:     !(ra.ApplySet && ra.Apply),
		StartedAt:  now,
		FinishedAt: now,
		Items: []domain.ItemResult{{
			URI:       "",
			Sources:   []string{},
			Status:    domain.StatusFailed,
			ErrorCode: config.Code(err),
			ErrorMsg:  err.Error(),
		}},
	}
	rr.Finalize()
	return rr
}

func writeReportFile(root string, rr domain.RunReport) error {
	b, err := json.MarshalIndent(rr, "", "  ")
	if err != nil {
		return err
	}
	b = append(b, '\n')
	return fsx.WriteFileAtomic(filepath.Join(root, "cache"), "report.json", b)
}

func isTTY(f *os.File) bool {
	fi, err := f.Stat()
	if err != nil {
		return false
	}
	return fi.Mode()&os.ModeCharDevice != 0
}

func pickProgressWriter() (io.Writer, bool) {
	// 进度输出只在交互终端启用；默认走 stderr（不污染 stdout JSON）。
	if isTTY(os.Stderr) {
		return os.Stderr, true
	}
	// 某些环境（例如仅重定向 stderr）下，stdout 仍是 TTY：退化输出到 stdout。
	if isTTY(os.Stdout) {
		return os.Stdout, true
	}
	return nil, false
}

func emitLocations(w io.Writer, eff config.EffectiveConfig) {
	if w == nil {
		return
	}
	if eff.Apply {
		fmt.Fprintf(w, "report: %s\n", filepath.Join(eff.Root, "cache", "report.json"))
	}
	fmt.Fprintf(w, "cache: %s\n", filepath.Join(eff.Root, "cache", "pages"))
}
