// Package fetcher 远程导入时抓取文章页面
//
// 优先使用 CycleTLS（模拟浏览器 TLS 指纹），失败后回退到标准 net/http 客户端。
package fetcher

import (
	"context"
	"errors"
	"fmt"
	"maps"
	"mime"
	"net/http"
	"strings"
	"time"

	"github.com/newsflow/go-sanitizer-service/internal/config"
)

// MaxPageBytes 单个页面的最大字节数
const MaxPageBytes = 8 << 20

var (
	// ErrPageTooLarge 页面超过 MaxPageBytes
	ErrPageTooLarge = errors.New("page too large")
	// ErrNotHTML 响应不是 HTML 页面
	ErrNotHTML = errors.New("response is not an HTML page")
)

// Request 抓取请求
type Request struct {
	URL     string
	Referer string
	// Headers 覆盖默认请求头（可带 Cookie）
	Headers map[string]string
}

// Result 抓取结果
type Result struct {
	URL         string
	FinalURL    string
	Body        string
	ContentType string
	StatusCode  int
	Strategy    string // cycletls, standard
	Duration    time.Duration
	Error       error
}

// HTTPError 非 200 响应
type HTTPError struct {
	StatusCode int
}

func (e *HTTPError) Error() string {
	return fmt.Sprintf("unexpected HTTP status %d", e.StatusCode)
}

// checkResponse 校验状态码和内容类型；没有 Content-Type 时放行，由正文提取判断
func checkResponse(status int, contentType string) error {
	if status != http.StatusOK {
		return &HTTPError{StatusCode: status}
	}
	if contentType == "" {
		return nil
	}
	mediaType, _, err := mime.ParseMediaType(contentType)
	if err != nil {
		return ErrNotHTML
	}
	switch mediaType {
	case "text/html", "application/xhtml+xml":
		return nil
	}
	return ErrNotHTML
}

// headerValue 大小写不敏感地查找响应头
func headerValue(headers map[string]string, key string) string {
	for k, v := range headers {
		if strings.EqualFold(k, key) {
			return v
		}
	}
	return ""
}

// client 单一抓取策略
type client interface {
	Do(ctx context.Context, req Request) *Result
	Close()
}

// Fetcher 按顺序尝试各个策略，返回第一个成功的结果
type Fetcher struct {
	clients []client
}

// New 创建抓取器
func New(cfg *config.Config) *Fetcher {
	return &Fetcher{
		clients: []client{NewCycleTLSClient(cfg), NewStandardClient(cfg)},
	}
}

// NewStandard 只使用标准客户端
func NewStandard(cfg *config.Config) *Fetcher {
	return &Fetcher{clients: []client{NewStandardClient(cfg)}}
}

// Fetch 抓取页面；所有策略都失败时返回最后一个结果
func (f *Fetcher) Fetch(ctx context.Context, req Request) *Result {
	var result *Result
	for _, c := range f.clients {
		if err := ctx.Err(); err != nil {
			return &Result{URL: req.URL, Error: err}
		}
		result = c.Do(ctx, req)
		if result.Error == nil && result.Body != "" {
			return result
		}
	}
	if result == nil {
		return &Result{URL: req.URL, Error: errors.New("no fetch strategy configured")}
	}
	return result
}

// Close 关闭抓取器
func (f *Fetcher) Close() {
	for _, c := range f.clients {
		c.Close()
	}
}

// requestHeaders 默认请求头 + Referer + 自定义请求头（后者优先）
func requestHeaders(req Request) map[string]string {
	headers := map[string]string{
		"Accept":          "text/html,application/xhtml+xml,application/xml;q=0.9,*/*;q=0.8",
		"Accept-Language": "zh-CN,zh;q=0.9,en;q=0.8",
		"Cache-Control":   "no-cache",
	}
	if req.Referer != "" {
		headers["Referer"] = req.Referer
	}
	maps.Copy(headers, req.Headers)
	return headers
}
