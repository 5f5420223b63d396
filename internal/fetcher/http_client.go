package fetcher

import (
	"context"
	"crypto/tls"
	"io"
	"net"
	"net/http"
	"time"

	"github.com/newsflow/go-sanitizer-service/internal/config"
)

// StandardClient net/http 客户端，CycleTLS 失败时使用
type StandardClient struct {
	client    *http.Client
	userAgent string
}

// NewStandardClient 创建标准 HTTP 客户端
func NewStandardClient(cfg *config.Config) *StandardClient {
	transport := &http.Transport{
		Proxy:               http.ProxyFromEnvironment,
		MaxIdleConns:        cfg.MaxIdleConns,
		MaxIdleConnsPerHost: cfg.MaxConnsPerHost,
		MaxConnsPerHost:     cfg.MaxConnsPerHost,
		IdleConnTimeout:     90 * time.Second,
		DialContext: (&net.Dialer{
			Timeout:   10 * time.Second,
			KeepAlive: 30 * time.Second,
		}).DialContext,
		TLSClientConfig: &tls.Config{
			MinVersion: tls.VersionTLS12,
		},
		TLSHandshakeTimeout:   10 * time.Second,
		ResponseHeaderTimeout: 10 * time.Second,
	}

	return &StandardClient{
		client: &http.Client{
			Transport: transport,
			Timeout:   cfg.RequestTimeout,
			CheckRedirect: func(req *http.Request, via []*http.Request) error {
				if len(via) >= 10 {
					return http.ErrUseLastResponse
				}
				return nil
			},
		},
		userAgent: cfg.UserAgent,
	}
}

// Do 实现 client
func (c *StandardClient) Do(ctx context.Context, r Request) *Result {
	start := time.Now()
	result := &Result{URL: r.URL, Strategy: "standard"}
	defer func() { result.Duration = time.Since(start) }()

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, r.URL, nil)
	if err != nil {
		result.Error = err
		return result
	}
	req.Header.Set("User-Agent", c.userAgent)
	for k, v := range requestHeaders(r) {
		req.Header.Set(k, v)
	}

	resp, err := c.client.Do(req)
	if err != nil {
		result.Error = err
		return result
	}
	defer resp.Body.Close()

	result.FinalURL = resp.Request.URL.String()
	result.StatusCode = resp.StatusCode
	result.ContentType = resp.Header.Get("Content-Type")

	if err := checkResponse(resp.StatusCode, result.ContentType); err != nil {
		result.Error = err
		return result
	}
	if resp.ContentLength > MaxPageBytes {
		result.Error = ErrPageTooLarge
		return result
	}

	// 多读一个字节判断是否超限
	body, err := io.ReadAll(io.LimitReader(resp.Body, MaxPageBytes+1))
	if err != nil {
		result.Error = err
		return result
	}
	if len(body) > MaxPageBytes {
		result.Error = ErrPageTooLarge
		return result
	}

	result.Body = string(body)
	return result
}

// Close 释放空闲连接
func (c *StandardClient) Close() {
	c.client.CloseIdleConnections()
}
