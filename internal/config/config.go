package config

import (
	"encoding/json"
	"errors"
	"fmt"
	"net/url"
	"os"
	"path/filepath"
	"strings"
)

const (
	// ErrCodeNotFound 表示需要配置文件但 cwd 下没有 magnet.json。
	ErrCodeNotFound = "config_not_found"
	// ErrCodeInvalid 表示配置文件无法读取/解析，或字段不合法。
	ErrCodeInvalid = "config_invalid"
	// ErrCodeMissingSource 表示最终既没有 path 也没有 urls。
	ErrCodeMissingSource = "config_missing_source"
)

const (
	// FileName 是配置文件的固定文件名。
	FileName = "magnet.json"
	// DefaultConcurrency 是并发的内置默认值（当配置未指定时）。
	DefaultConcurrency = 4
)

// CLIArgs 是 CLI 暴露的入口参数，并保留“是否显式指定”的信息。
// 例如 --apply=false 必须能覆盖 config.apply=true。
type CLIArgs struct {
	Path string
	URLs []string

	Apply    bool
	ApplySet bool

	Strict    bool
	StrictSet bool
}

// FileConfig 对应 magnet.json 的解析结构。
type FileConfig struct {
	Path         string       `json:"path"`
	URLs         []string     `json:"urls"`
	Apply        *bool        `json:"apply"`
	Concurrency  int          `json:"concurrency"`
	Proxy        *ProxyConfig `json:"proxy"`
	StrictDecode *bool        `json:"strict_decode"`
	ExcludeDirs  []string     `json:"exclude_dirs"`
}

type ProxyConfig struct {
	URL string `json:"url"`
}

// EffectiveConfig 是合并并做最小规范化后的最终配置。
type EffectiveConfig struct {
	// Path 是扫描根目录（可为空：只处理 URLs）。
	Path string
	URLs []string

	// Root 是缓存与报告的落盘根目录：Path 非空时等于 Path，否则为配置文件所在目录。
	Root string

	Apply        bool
	Concurrency  int
	ProxyURL     string
	StrictDecode bool
	ExcludeDirs  []string
}

// Error 是配置阶段的结构化错误（带 error_code）。
type Error struct {
	Code string
	Path string
	Err  error
}

func (e *Error) Error() string {
	switch e.Code {
	case ErrCodeNotFound:
		return fmt.Sprintf("%s：未找到配置文件 %q", e.Code, e.Path)
	case ErrCodeMissingSource:
		return fmt.Sprintf("%s：配置文件 %q 缺少 path 或 urls", e.Code, e.Path)
	case ErrCodeInvalid:
		if e.Err != nil {
			return fmt.Sprintf("%s：配置文件 %q 无效：%v", e.Code, e.Path, e.Err)
		}
		return fmt.Sprintf("%s：配置文件 %q 无效", e.Code, e.Path)
	default:
		if e.Err != nil {
			return fmt.Sprintf("%s：%v", e.Code, e.Err)
		}
		return e.Code
	}
}

func (e *Error) Unwrap() error { return e.Err }

// Code 从 error 中提取 error_code；若不是 *Error 则返回空串。
func Code(err error) string {
	var e *Error
	if errors.As(err, &e) {
		return e.Code
	}
	return ""
}

// LoadEffective 发现并读取配置文件，然后与 CLI 参数合并为最终配置。
//
// 发现规则：
// 1) CLI 提供 path：尝试读取 <path>/magnet.json（可选）
// 2) CLI 未提供 path 但提供了 --url：尝试读取 <cwd>/magnet.json（可选）
// 3) 其他情况：必须读取 <cwd>/magnet.json，且其中必须包含 path 或 urls
//
// 覆盖优先级：
// - path：CLI path > config path
// - urls：CLI --url（任意一个）整体覆盖 config urls
// - apply / strict_decode：CLI 显式值 > config > 默认 false
// - 其他字段：仅由 config 控制
func LoadEffective(cwd string, cli CLIArgs) (EffectiveConfig, error) {
	cwdAbs, err := filepath.Abs(cwd)
	if err != nil {
		return EffectiveConfig{}, &Error{Code: ErrCodeInvalid, Path: cwd, Err: err}
	}

	cliPath := strings.TrimSpace(cli.Path)
	cfgDir := cwdAbs
	if cliPath != "" {
		cfgDir = absCleanFrom(cwdAbs, cliPath)
	}
	cfgPath := filepath.Join(cfgDir, FileName)

	fc, exists, err := readFileConfig(cfgPath)
	if err != nil {
		return EffectiveConfig{}, &Error{Code: ErrCodeInvalid, Path: cfgPath, Err: err}
	}
	if !exists && cliPath == "" && len(cli.URLs) == 0 {
		return EffectiveConfig{}, &Error{Code: ErrCodeNotFound, Path: cfgPath, Err: os.ErrNotExist}
	}

	path := ""
	if cliPath != "" {
		path = cfgDir
	} else if strings.TrimSpace(fc.Path) != "" {
		// 配置文件内的相对 path 以配置文件所在目录为基准。
		path = absCleanFrom(cfgDir, fc.Path)
	}

	return merge(path, cfgDir, cli, fc, cfgPath)
}

func merge(path, cfgDir string, cli CLIArgs, fc FileConfig, cfgPath string) (EffectiveConfig, error) {
	rawURLs := fc.URLs
	if len(cli.URLs) > 0 {
		rawURLs = cli.URLs
	}
	urls, err := normalizeURLs(rawURLs)
	if err != nil {
		return EffectiveConfig{}, &Error{Code: ErrCodeInvalid, Path: cfgPath, Err: err}
	}
	if path == "" && len(urls) == 0 {
		return EffectiveConfig{}, &Error{Code: ErrCodeMissingSource, Path: cfgPath}
	}

	apply := false
	if cli.ApplySet {
		apply = cli.Apply
	} else if fc.Apply != nil {
		apply = *fc.Apply
	}

	strict := false
	if cli.StrictSet {
		strict = cli.Strict
	} else if fc.StrictDecode != nil {
		strict = *fc.StrictDecode
	}

	concurrency := fc.Concurrency
	if concurrency == 0 {
		concurrency = DefaultConcurrency
	}
	// 范围 [1, 32]；超出截断。
	if concurrency < 1 {
		concurrency = 1
	}
	if concurrency > 32 {
		concurrency = 32
	}

	proxyURL := ""
	if fc.Proxy != nil {
		proxyURL = strings.TrimSpace(fc.Proxy.URL)
	}
	if proxyURL != "" {
		if _, err := url.Parse(proxyURL); err != nil {
			return EffectiveConfig{}, &Error{Code: ErrCodeInvalid, Path: cfgPath, Err: fmt.Errorf("proxy.url 无效：%w", err)}
		}
	}

	root := path
	if root == "" {
		root = cfgDir
	}

	return EffectiveConfig{
		Path:         path,
		URLs:         urls,
		Root:         root,
		Apply:        apply,
		Concurrency:  concurrency,
		ProxyURL:     proxyURL,
		StrictDecode: strict,
		ExcludeDirs:  append([]string(nil), fc.ExcludeDirs...),
	}, nil
}

// normalizeURLs 去空白、去重（保持顺序），并要求每个 URL 都是 http/https。
func normalizeURLs(in []string) ([]string, error) {
	var out []string
	seen := make(map[string]struct{}, len(in))
	for _, raw := range in {
		s := strings.TrimSpace(raw)
		if s == "" {
			continue
		}
		u, err := url.Parse(s)
		if err != nil || u.Host == "" {
			return nil, fmt.Errorf("url 无效：%q", s)
		}
		if u.Scheme != "http" && u.Scheme != "https" {
			return nil, fmt.Errorf("url 必须是 http/https：%q", s)
		}
		if _, ok := seen[s]; ok {
			continue
		}
		seen[s] = struct{}{}
		out = append(out, s)
	}
	return out, nil
}

// absCleanFrom 以 base 为基准，把 p 变为 clean + absolute。
func absCleanFrom(base, p string) string {
	p = filepath.Clean(strings.TrimSpace(p))
	if filepath.IsAbs(p) {
		return p
	}
	return filepath.Clean(filepath.Join(base, p))
}

// readFileConfig 读取并解析 JSON 配置文件。
// 返回值 exists 表示该文件是否存在（不存在不算错误）。
func readFileConfig(path string) (fc FileConfig, exists bool, err error) {
	b, err := os.ReadFile(path)
	if err != nil {
		if os.IsNotExist(err) {
			return FileConfig{}, false, nil
		}
		return FileConfig{}, false, err
	}
	if err := json.Unmarshal(b, &fc); err != nil {
		return FileConfig{}, true, err
	}
	return fc, true, nil
}
