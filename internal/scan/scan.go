package scan

import (
	"io/fs"
	"path/filepath"
	"sort"
	"strings"

	"github.com/gausby/magnet/internal/domain"
)

// sourceExts 是会被当作来源读取的扩展名（小写）。
var sourceExts = map[string]struct{}{
	".html":   {},
	".htm":    {},
	".txt":    {},
	".magnet": {},
}

// ScanSources 扫描 root 下可能包含 magnet 链接的文件。
//
// - <root>/cache/ 总是被跳过（页面缓存与 report 都在这里）
// - excludeDirs 中的相对路径以 root 为基准，绝对路径按原样处理
// - 扩展名不区分大小写
// - 结果按 RelPath 排序
//
// 扫描阶段只做 stat，不读文件内容。
func ScanSources(root string, excludeDirs []string) ([]domain.Source, error) {
	root = filepath.Clean(root)
	skip := excludedDirs(root, excludeDirs)

	var out []domain.Source
	err := filepath.WalkDir(root, func(path string, d fs.DirEntry, walkErr error) error {
		if walkErr != nil {
			return walkErr
		}
		if d.IsDir() {
			if _, ok := skip[path]; ok {
				return filepath.SkipDir
			}
			return nil
		}

		ext := strings.ToLower(filepath.Ext(d.Name()))
		if _, ok := sourceExts[ext]; !ok {
			return nil
		}

		info, err := d.Info()
		if err != nil {
			return err
		}
		rel, err := filepath.Rel(root, path)
		if err != nil {
			return err
		}

		out = append(out, domain.Source{
			Kind:    domain.SourceKindFile,
			AbsPath: path,
			RelPath: rel,
			Ext:     ext,
			Size:    info.Size(),
		})
		return nil
	})
	if err != nil {
		return nil, err
	}

	sort.Slice(out, func(i, j int) bool { return out[i].RelPath < out[j].RelPath })
	return out, nil
}

// excludedDirs 返回需要整体跳过的目录（clean 后的绝对路径）。
func excludedDirs(root string, excludeDirs []string) map[string]struct{} {
	skip := map[string]struct{}{
		filepath.Join(root, "cache"): {},
	}
	for _, x := range excludeDirs {
		if x = strings.TrimSpace(x); x == "" {
			continue
		}
		if !filepath.IsAbs(x) {
			x = filepath.Join(root, x)
		}
		skip[filepath.Clean(x)] = struct{}{}
	}
	return skip
}
