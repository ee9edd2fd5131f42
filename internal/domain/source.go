package domain

const (
	SourceKindFile = "file"
	SourceKindURL  = "url"
)

// Source 描述一个待提取 magnet 链接的来源（本地文件或网页 URL）。
//
// 不变量：
// - Kind=file：AbsPath 必须是 clean + absolute，RelPath 相对扫描根目录
// - Kind=url：URL 必须是 http/https
type Source struct {
	Kind    string
	AbsPath string
	RelPath string
	URL     string
	Ext     string // ".html"，仅 file
	Size    int64
}

// Name 返回用于 report 的来源标识：file 用 RelPath，url 用 URL。
func (s Source) Name() string {
	if s.Kind == SourceKindURL {
		return s.URL
	}
	return s.RelPath
}
