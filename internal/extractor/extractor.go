// Package extractor 把抓取到的页面转换为可安全展示的文章
//
// 流程：懒加载图片提升 → Cloudflare 邮箱还原 → Readability 正文提取
// → 链接/图片绝对化 → 净化 → 摘要纯文本化 → 阅读时间估算。
package extractor

import (
	"context"
	"errors"
	"fmt"
	"net/url"
	"regexp"
	"strings"

	"github.com/microcosm-cc/bluemonday"

	"github.com/newsflow/go-sanitizer-service/internal/processor"
	"github.com/newsflow/go-sanitizer-service/internal/sanitizer"
	"github.com/newsflow/go-sanitizer-service/internal/service"
)

// maxExcerptRunes 摘要最大长度
const maxExcerptRunes = 300

var (
	// ErrEmptyInput 页面内容为空
	ErrEmptyInput = errors.New("empty document")
	// ErrURLRequired 缺少页面地址
	ErrURLRequired = errors.New("url is required")
)

// Article 导入后的文章
type Article struct {
	URL         string            `json:"url"`
	FinalURL    string            `json:"finalUrl"`
	Title       string            `json:"title,omitempty"`
	Content     string            `json:"content"`
	TextContent string            `json:"textContent,omitempty"`
	Excerpt     string            `json:"excerpt,omitempty"`
	Byline      string            `json:"byline,omitempty"`
	SiteName    string            `json:"siteName,omitempty"`
	Images      []processor.Image `json:"images,omitempty"`
	ReadingTime int               `json:"readingTime"`
	InvalidTags []string          `json:"invalidTags"`
	Strategy    string            `json:"strategy,omitempty"`
	Duration    int64             `json:"duration"`
}

// Extractor 内容提取器（readability + 图片处理 + 净化）
type Extractor struct {
	service   *service.Service
	allowed   []string
	forbidden []string
	plainText *bluemonday.Policy
}

// New 创建提取器；导入的文章使用主题级别的标签策略
func New(svc *service.Service) *Extractor {
	return &Extractor{
		service:   svc,
		allowed:   sanitizer.ThemeAllowedTags().Names(),
		forbidden: sanitizer.ThemeForbiddenTags().Names(),
		plainText: bluemonday.StrictPolicy(),
	}
}

// Extract 提取并净化文章；净化经过 service，指标和审计以页面地址为条目标识
func (e *Extractor) Extract(ctx context.Context, transport, page, pageURL string) (*Article, error) {
	if strings.TrimSpace(page) == "" {
		return nil, ErrEmptyInput
	}
	if pageURL == "" {
		return nil, ErrURLRequired
	}
	base, err := url.Parse(pageURL)
	if err != nil || !base.IsAbs() {
		return nil, fmt.Errorf("invalid page url %q", pageURL)
	}

	doc, err := processor.Parse(page)
	if err != nil {
		return nil, fmt.Errorf("parse page: %w", err)
	}
	processor.PromoteLazyImages(doc)
	processor.DecodeEmailProtection(doc)

	article, err := extractReadable(doc, base)
	if err != nil {
		return nil, fmt.Errorf("readability: %w", err)
	}

	content, err := processor.Parse(article.Content)
	if err != nil {
		return nil, fmt.Errorf("parse content: %w", err)
	}
	processor.AbsolutizeLinks(content, base)
	images := processor.AbsolutizeImages(content, base)

	result := e.service.Process(ctx, transport, service.OpImport, service.Document{
		EntryID:       pageURL,
		HTML:          processor.RenderBody(content),
		AllowedTags:   e.allowed,
		ForbiddenTags: e.forbidden,
	})

	return &Article{
		URL:         pageURL,
		FinalURL:    pageURL,
		Title:       e.plain(article.Title, 0),
		Content:     result.HTML,
		TextContent: article.TextContent,
		Excerpt:     e.plain(article.Excerpt, maxExcerptRunes),
		Byline:      e.plain(article.Byline, 0),
		SiteName:    e.plain(article.SiteName, 0),
		Images:      images,
		ReadingTime: calculateReadingTime(article.TextContent),
		InvalidTags: result.InvalidTags,
	}, nil
}

// plain 去除全部标签并折叠空白，limit > 0 时按字符截断
func (e *Extractor) plain(s string, limit int) string {
	text := strings.Join(strings.Fields(e.plainText.Sanitize(s)), " ")
	if limit > 0 {
		if runes := []rune(text); len(runes) > limit {
			text = string(runes[:limit]) + "…"
		}
	}
	return text
}

var hanPattern = regexp.MustCompile(`\p{Han}`)

// calculateReadingTime 计算阅读时间（分钟）
func calculateReadingTime(text string) int {
	// 中文约 400 字/分钟，英文约 200 词/分钟
	chineseCount := len(hanPattern.FindAllString(text, -1))
	wordCount := len(strings.Fields(text))

	minutes := float64(chineseCount)/400.0 + float64(wordCount)/200.0
	if minutes < 1 {
		return 1
	}
	return int(minutes + 0.5)
}
