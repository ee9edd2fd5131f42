package magnet

import (
	"reflect"
	"sort"
	"testing"

	"github.com/gausby/magnet/internal/domain"
)

func TestEncode_OrderAndSuffixes(t *testing.T) {
	n := int64(1024)
	m := domain.Magnet{
		Name:         "Foo Bar",
		Length:       &n,
		InfoHash:     []string{"urn:btih:abc", "urn:sha1:def"},
		Fallback:     "http://example.test/f",
		Source:       []string{"http://example.test/s"},
		Keywords:     []string{"cat", "dog"},
		Manifest:     "http://example.test/m",
		Announce:     []string{"udp://a:80", "udp://b:80", "udp://c:80"},
		Experimental: map[string]string{"z": "1", "a": "x y"},
	}

	got := Encode(m)
	want := []domain.Pair{
		{Key: "xt", Value: "urn:btih:abc"},
		{Key: "xt.1", Value: "urn:sha1:def"},
		{Key: "dn", Value: "Foo Bar"},
		{Key: "xl", Value: "1024"},
		{Key: "tr", Value: "udp%3A%2F%2Fa%3A80"},
		{Key: "tr.1", Value: "udp%3A%2F%2Fb%3A80"},
		{Key: "tr.2", Value: "udp%3A%2F%2Fc%3A80"},
		{Key: "xs", Value: "http%3A%2F%2Fexample.test%2Fs"},
		{Key: "as", Value: "http%3A%2F%2Fexample.test%2Ff"},
		{Key: "kt", Value: "cat"},
		{Key: "kt.1", Value: "dog"},
		{Key: "mt", Value: "http://example.test/m"},
		{Key: "x.a", Value: "x%20y"},
		{Key: "x.z", Value: "1"},
	}
	if !reflect.DeepEqual(got, want) {
		t.Fatalf("期望\n%#v\n实际\n%#v", want, got)
	}
}

func TestEncode_EmptyMagnet(t *testing.T) {
	if got := Encode(domain.Magnet{}); len(got) != 0 {
		t.Fatalf("空 Magnet 不应输出任何 pair：%v", got)
	}
	if got := EncodeString(domain.Magnet{}); got != "magnet:?" {
		t.Fatalf("期望 magnet:?，实际 %q", got)
	}
}

func TestEncodeString(t *testing.T) {
	got := EncodeString(domain.Magnet{InfoHash: []string{"urn:btih:abc"}, Name: "x"})
	if got != "magnet:?xt=urn:btih:abc&dn=x" {
		t.Fatalf("结果不符合预期：%q", got)
	}
}

func TestEncodeDecode_RoundTrip(t *testing.T) {
	inputs := []string{
		"magnet:?xt=urn:btih:abc&dn=Foo&xl=10&tr=udp%3A%2F%2Fa&tr.1=udp%3A%2F%2Fb&as=http%3A%2F%2Ff&xs=http%3A%2F%2Fs&kt=a+b&kt.1=b+c&mt=m&x.foo=bar%20baz",
		"magnet:?tr.5=c&tr.1=b&tr=a&tr.1=a",
		"magnet:?kt=x+y+x&kt.2=z",
		"magnet:?xl=0",
	}
	for _, in := range inputs {
		orig, err := DecodeString(in)
		if err != nil {
			t.Fatalf("%q：不期望错误：%v", in, err)
		}
		again, err := DecodeString(EncodeString(orig))
		if err != nil {
			t.Fatalf("%q：重新解码失败：%v", in, err)
		}

		if again.Name != orig.Name || again.Fallback != orig.Fallback || again.Manifest != orig.Manifest {
			t.Fatalf("%q：单值字段不一致：%+v vs %+v", in, orig, again)
		}
		if (again.Length == nil) != (orig.Length == nil) || (orig.Length != nil && *again.Length != *orig.Length) {
			t.Fatalf("%q：length 不一致", in)
		}
		if !reflect.DeepEqual(again.Experimental, orig.Experimental) {
			t.Fatalf("%q：experimental 不一致：%v vs %v", in, orig.Experimental, again.Experimental)
		}
		for _, pair := range [][2][]string{
			{orig.InfoHash, again.InfoHash},
			{orig.Announce, again.Announce},
			{orig.Source, again.Source},
			{orig.Keywords, again.Keywords},
		} {
			if !reflect.DeepEqual(set(pair[0]), set(pair[1])) {
				t.Fatalf("%q：列表元素集合不一致：%v vs %v", in, pair[0], pair[1])
			}
		}
	}
}

func TestEncodeDecode_PositionalOrderSurvives(t *testing.T) {
	orig, err := DecodeString("magnet:?tr.9=c&tr.3=b&tr=a")
	if err != nil {
		t.Fatalf("不期望错误：%v", err)
	}
	// 原始 priority（0/3/9）无法还原，但输出位置顺序保持。
	enc := Encode(orig)
	if enc[0].Key != "tr" || enc[1].Key != "tr.1" || enc[2].Key != "tr.2" {
		t.Fatalf("后缀应表达输出位置：%v", enc)
	}
	again, _ := Decode(enc)
	if !again.Equal(orig) {
		t.Fatalf("重新解码应保持顺序：%+v vs %+v", orig, again)
	}
}

func set(in []string) []string {
	m := make(map[string]struct{}, len(in))
	for _, s := range in {
		m[s] = struct{}{}
	}
	out := make([]string, 0, len(m))
	for s := range m {
		out = append(out, s)
	}
	sort.Strings(out)
	return out
}

func TestLossyFields(t *testing.T) {
	m := domain.Magnet{
		Name:         "A&B",
		InfoHash:     []string{"urn:btih:aaa"},
		Keywords:     []string{"ok", "x&y"},
		Announce:     []string{"udp://t.test:80/?a=1&b=2"},
		Experimental: map[string]string{"a=b": "1", "ok": "v&w"},
	}
	got := LossyFields(m)
	want := []string{"dn", "kt", "x.a=b"}
	if !reflect.DeepEqual(got, want) {
		t.Fatalf("期望 %v，实际 %v", want, got)
	}

	// 被截断的正是这些字段。
	back, err := DecodeString(EncodeString(m))
	if err != nil {
		t.Fatalf("不期望错误：%v", err)
	}
	if back.Name != "A" {
		t.Fatalf("期望 dn 被截断为 %q，实际 %q", "A", back.Name)
	}
	if !reflect.DeepEqual(back.Announce, m.Announce) {
		t.Fatalf("tr 已编码，期望 %v，实际 %v", m.Announce, back.Announce)
	}

	if got := LossyFields(domain.Magnet{Name: "one", InfoHash: []string{"urn:btih:aaa"}}); len(got) != 0 {
		t.Fatalf("期望为空，实际 %v", got)
	}
}
