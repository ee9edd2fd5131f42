package httpx

import (
	"context"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"sync/atomic"
	"time"
)

const (
	defaultTimeout  = 20 * time.Second
	defaultRetryMax = 2

	// MaxPageBytes 是单个页面允许读取的最大字节数；超出视为错误而不是静默截断。
	MaxPageBytes = 8 << 20
)

// userAgents 按请求轮换使用。
var userAgents = []string{
	"Mozilla/5.0 (Windows NT 10.0; Win64; x64) AppleWebKit/537.36 (KHTML, like Gecko) Chrome/126.0.0.0 Safari/537.36",
	"Mozilla/5.0 (Macintosh; Intel Mac OS X 14_5) AppleWebKit/605.1.15 (KHTML, like Gecko) Version/17.5 Safari/605.1.15",
	"Mozilla/5.0 (X11; Linux x86_64; rv:127.0) Gecko/20100101 Firefox/127.0",
}

// Transport 在 Base 之上叠加 UA 轮换与有界重试。
//
// 只有 GET/HEAD 且无 body 的请求会重试；状态码不触发重试，只有传输层错误会。
type Transport struct {
	Base *http.Transport

	// RetryMax 表示最大重试次数（不含首次尝试）。
	RetryMax int

	// DisableKeepAlives 为 true 时给每个请求设置 Close=true。
	DisableKeepAlives bool

	next atomic.Uint32
}

func (t *Transport) RoundTrip(req *http.Request) (*http.Response, error) {
	if t.Base == nil {
		return nil, errors.New("httpx: base transport 为空")
	}

	attempts := 1
	if replayable(req) && t.RetryMax > 0 {
		attempts += t.RetryMax
	}

	var err error
	for i := 0; i < attempts; i++ {
		var resp *http.Response
		resp, err = t.Base.RoundTrip(t.prepare(req))
		if err == nil {
			return resp, nil
		}
		if req.Context().Err() != nil {
			break
		}
	}
	return nil, err
}

func (t *Transport) prepare(req *http.Request) *http.Request {
	r := req.Clone(req.Context())
	if r.Header.Get("User-Agent") == "" {
		n := t.next.Add(1)
		r.Header.Set("User-Agent", userAgents[int(n)%len(userAgents)])
	}
	if t.DisableKeepAlives {
		r.Close = true
	}
	return r
}

func replayable(req *http.Request) bool {
	return (req.Method == http.MethodGet || req.Method == http.MethodHead) && req.Body == nil
}

// NewPageClient 构造用于网页抓取的 HTTP client。
// proxyURL 非空时所有请求都走代理，且每个请求使用新连接。
func NewPageClient(proxyURL string) (*http.Client, error) {
	base := &http.Transport{
		TLSHandshakeTimeout:   10 * time.Second,
		ResponseHeaderTimeout: 15 * time.Second,
	}
	tr := &Transport{Base: base, RetryMax: defaultRetryMax}

	if proxyURL = strings.TrimSpace(proxyURL); proxyURL != "" {
		u, err := url.Parse(proxyURL)
		if err != nil {
			return nil, err
		}
		base.Proxy = http.ProxyURL(u)
		base.DisableKeepAlives = true
		tr.DisableKeepAlives = true
	}

	return &http.Client{Transport: tr, Timeout: defaultTimeout}, nil
}

// HTTPStatusError 表示站点返回了非 2xx 的 HTTP 状态码。
type HTTPStatusError struct {
	URL        string
	StatusCode int
	Location   string
}

func (e *HTTPStatusError) Error() string {
	if loc := strings.TrimSpace(e.Location); loc != "" {
		return fmt.Sprintf("HTTP %d location=%s", e.StatusCode, loc)
	}
	return fmt.Sprintf("HTTP %d", e.StatusCode)
}

// Fetch 以 GET 读取 u 的响应体；非 2xx 返回 *HTTPStatusError。
func Fetch(ctx context.Context, c *http.Client, u string) ([]byte, error) {
	if c == nil {
		return nil, errors.New("httpx: client 为空")
	}
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, u, nil)
	if err != nil {
		return nil, err
	}
	resp, err := c.Do(req)
	if err != nil {
		return nil, err
	}
	defer resp.Body.Close()

	if resp.StatusCode/100 != 2 {
		return nil, &HTTPStatusError{URL: u, StatusCode: resp.StatusCode, Location: resp.Header.Get("Location")}
	}
	b, err := io.ReadAll(io.LimitReader(resp.Body, MaxPageBytes+1))
	if err != nil {
		return nil, err
	}
	if len(b) > MaxPageBytes {
		return nil, fmt.Errorf("页面超过 %d 字节上限", MaxPageBytes)
	}
	return b, nil
}
