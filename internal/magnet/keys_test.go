package magnet

import "testing"

func TestClassify(t *testing.T) {
	tests := []struct {
		key      string
		field    field
		priority int
		name     string
	}{
		{"as", fieldFallback, 0, ""},
		{"dn", fieldName, 0, ""},
		{"mt", fieldManifest, 0, ""},
		{"xl", fieldLength, 0, ""},
		{"kt", fieldKeywords, 0, ""},
		{"kt.3", fieldKeywords, 3, ""},
		{"tr.007", fieldAnnounce, 7, ""},
		{"xs.1", fieldSource, 1, ""},
		{"xt", fieldInfoHash, 0, ""},
		{"x.foo", fieldExperimental, 0, "foo"},
		{"x.foo.bar", fieldExperimental, 0, "foo.bar"},
	}
	for _, tt := range tests {
		got, err := classify(tt.key)
		if err != nil {
			t.Fatalf("key=%q：不期望错误：%v", tt.key, err)
		}
		if got.field != tt.field || got.priority != tt.priority || got.name != tt.name {
			t.Fatalf("key=%q：期望 %+v，实际 %+v", tt.key, tt, got)
		}
	}
}

func TestParsePriority(t *testing.T) {
	for suffix, want := range map[string]int{"": 0, ".0": 0, ".1": 1, ".42": 42} {
		got, ok := parsePriority(suffix)
		if !ok || got != want {
			t.Fatalf("suffix=%q：期望 %d，实际 %d ok=%v", suffix, want, got, ok)
		}
	}
	for _, suffix := range []string{".", ".x", ".-1", ".+1", "1", ". 1", ".1 "} {
		if _, ok := parsePriority(suffix); ok {
			t.Fatalf("suffix=%q：期望无效", suffix)
		}
	}
}
