package extractor

import (
	"context"
	"fmt"
	"time"

	"github.com/newsflow/go-sanitizer-service/internal/fetcher"
)

// PageFetcher 抓取页面
type PageFetcher interface {
	Fetch(ctx context.Context, req fetcher.Request) *fetcher.Result
}

// Importer 抓取远程页面并转换为净化后的文章
type Importer struct {
	fetcher   PageFetcher
	extractor *Extractor
}

// NewImporter 创建导入器
func NewImporter(f PageFetcher, e *Extractor) *Importer {
	return &Importer{fetcher: f, extractor: e}
}

// Import 抓取并提取；transport 标识调用入口
func (i *Importer) Import(ctx context.Context, transport string, req fetcher.Request) (*Article, error) {
	if req.URL == "" {
		return nil, ErrURLRequired
	}

	start := time.Now()
	page := i.fetcher.Fetch(ctx, req)
	if page.Error != nil {
		return nil, fmt.Errorf("fetch %s (%s): %w", req.URL, page.Strategy, page.Error)
	}

	finalURL := page.FinalURL
	if finalURL == "" {
		finalURL = req.URL
	}

	article, err := i.extractor.Extract(ctx, transport, page.Body, finalURL)
	if err != nil {
		return nil, err
	}
	article.URL = req.URL
	article.Strategy = page.Strategy
	article.Duration = time.Since(start).Milliseconds()
	return article, nil
}
