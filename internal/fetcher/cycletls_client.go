package fetcher

import (
	"context"
	"time"

	cycletls "github.com/Danny-Dasilva/CycleTLS/cycletls"

	"github.com/newsflow/go-sanitizer-service/internal/config"
)

// ChromeJA3 Chrome 的 JA3 指纹
const ChromeJA3 = "771,4865-4866-4867-49195-49199-49196-49200-52393-52392-49171-49172-156-157-47-53,0-23-65281-10-11-35-16-5-13-18-51-45-43-27-17513,29-23-24,0"

// CycleTLSClient 使用 CycleTLS 的客户端（TLS 指纹伪造）
type CycleTLSClient struct {
	client    cycletls.CycleTLS
	userAgent string
	timeout   int
}

// NewCycleTLSClient 创建 CycleTLS 客户端
func NewCycleTLSClient(cfg *config.Config) *CycleTLSClient {
	return &CycleTLSClient{
		client:    cycletls.Init(),
		userAgent: cfg.UserAgent,
		timeout:   int(cfg.RequestTimeout.Seconds()),
	}
}

// Do 实现 client；CycleTLS 不支持 context，只在请求前检查取消
func (c *CycleTLSClient) Do(ctx context.Context, r Request) *Result {
	start := time.Now()
	result := &Result{URL: r.URL, Strategy: "cycletls"}
	defer func() { result.Duration = time.Since(start) }()

	if err := ctx.Err(); err != nil {
		result.Error = err
		return result
	}

	headers := requestHeaders(r)
	headers["Accept-Encoding"] = "gzip, deflate, br"

	resp, err := c.client.Do(r.URL, cycletls.Options{
		Ja3:       ChromeJA3,
		UserAgent: c.userAgent,
		Headers:   headers,
		Timeout:   c.timeout,
	}, "GET")
	if err != nil {
		result.Error = err
		return result
	}

	result.FinalURL = resp.FinalUrl
	if result.FinalURL == "" {
		result.FinalURL = r.URL
	}
	result.StatusCode = resp.Status
	result.ContentType = headerValue(resp.Headers, "Content-Type")

	if err := checkResponse(resp.Status, result.ContentType); err != nil {
		result.Error = err
		return result
	}
	if len(resp.Body) > MaxPageBytes {
		result.Error = ErrPageTooLarge
		return result
	}

	result.Body = resp.Body
	return result
}

// Close 关闭客户端
func (c *CycleTLSClient) Close() {
	c.client.Close()
}
