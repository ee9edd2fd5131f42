package cache

import (
	"crypto/sha1"
	"encoding/hex"
	"errors"
	"fmt"
	"net/url"
	"os"
	"path/filepath"
	"strings"

	"github.com/gausby/magnet/internal/infra/fsx"
)

// Store 提供 <path>/cache/pages/ 下的网页缓存读写。
//
// 约束：
// - dry-run：只允许读（ReadOnly=true）
// - apply：允许写（ReadOnly=false）
// - 文件名是 URL 的 sha1（十六进制），避免把 URL 直接映射为路径
type Store struct {
	Root     string // <path>（扫描根目录）
	ReadOnly bool
}

var ErrReadOnly = errors.New("cache: read-only")

func New(root string, readOnly bool) Store {
	return Store{
		Root:     filepath.Clean(strings.TrimSpace(root)),
		ReadOnly: readOnly,
	}
}

// PagePath 返回页面缓存的绝对路径。
func (s Store) PagePath(pageURL string) (string, error) {
	name, err := pageName(pageURL)
	if err != nil {
		return "", err
	}
	return filepath.Join(s.Root, "cache", "pages", name), nil
}

func (s Store) ReadPage(pageURL string) ([]byte, bool, error) {
	path, err := s.PagePath(pageURL)
	if err != nil {
		return nil, false, err
	}
	b, err := os.ReadFile(path)
	if err != nil {
		if os.IsNotExist(err) {
			return nil, false, nil
		}
		return nil, false, err
	}
	return b, true, nil
}

func (s Store) WritePage(pageURL string, html []byte) error {
	if s.ReadOnly {
		return ErrReadOnly
	}
	name, err := pageName(pageURL)
	if err != nil {
		return err
	}
	return fsx.WriteFileAtomic(filepath.Join(s.Root, "cache", "pages"), name, html)
}

func pageName(pageURL string) (string, error) {
	pageURL = strings.TrimSpace(pageURL)
	if pageURL == "" {
		return "", fmt.Errorf("url 不能为空")
	}
	u, err := url.Parse(pageURL)
	if err != nil || u.Host == "" {
		return "", fmt.Errorf("非法 url：%q", pageURL)
	}
	sum := sha1.Sum([]byte(u.String()))
	return hex.EncodeToString(sum[:]) + ".html", nil
}
