package cache

import (
	"errors"
	"os"
	"testing"
)

func TestStore_ReadWritePage(t *testing.T) {
	root := t.TempDir()
	const u = "https://example.test/list?page=1"

	s := New(root, false)
	if err := s.WritePage(u, []byte("<html/>")); err != nil {
		t.Fatalf("不期望错误：%v", err)
	}

	b, ok, err := s.ReadPage(u)
	if err != nil {
		t.Fatalf("不期望错误：%v", err)
	}
	if !ok {
		t.Fatalf("期望命中缓存，但 ok=false")
	}
	if string(b) != "<html/>" {
		t.Fatalf("内容不一致：%q", string(b))
	}

	path, err := s.PagePath(u)
	if err != nil {
		t.Fatalf("不期望错误：%v", err)
	}
	if _, err := os.Stat(path); err != nil {
		t.Fatalf("期望文件存在，但 Stat 失败：%v", err)
	}
}

func TestStore_Miss(t *testing.T) {
	s := New(t.TempDir(), true)
	_, ok, err := s.ReadPage("https://example.test/none")
	if err != nil || ok {
		t.Fatalf("期望未命中且无错误，实际 ok=%v err=%v", ok, err)
	}
}

func TestStore_ReadOnlyRejectWrite(t *testing.T) {
	root := t.TempDir()
	const u = "https://example.test/x"

	s := New(root, true)
	if err := s.WritePage(u, []byte("x")); !errors.Is(err, ErrReadOnly) {
		t.Fatalf("期望 ErrReadOnly，实际：%v", err)
	}

	path, err := s.PagePath(u)
	if err != nil {
		t.Fatalf("不期望错误：%v", err)
	}
	if _, err := os.Stat(path); !os.IsNotExist(err) {
		t.Fatalf("期望文件不存在，但 Stat err=%v", err)
	}
}

func TestStore_InvalidURL(t *testing.T) {
	s := New(t.TempDir(), false)
	for _, u := range []string{"", "not a url", "http://[::1"} {
		if _, err := s.PagePath(u); err == nil {
			t.Fatalf("url=%q：期望错误，但得到 nil", u)
		}
	}
}
