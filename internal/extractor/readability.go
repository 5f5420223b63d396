package extractor

import (
	"net/url"
	"strings"

	"github.com/PuerkitoBio/goquery"
	"github.com/go-shiori/go-readability"

	"github.com/newsflow/go-sanitizer-service/internal/processor"
)

// readable 正文提取结果
type readable struct {
	Title       string
	Content     string // HTML 片段
	TextContent string
	Excerpt     string
	Byline      string
	SiteName    string
}

// extractReadable 使用 go-readability 提取正文
//
// 页面不像文章时（例如只有一两段文字的片段）直接使用整个 body。
func extractReadable(doc *goquery.Document, base *url.URL) (*readable, error) {
	if len(doc.Nodes) == 0 || !readability.CheckDocument(doc.Nodes[0]) {
		return &readable{
			Title:       strings.TrimSpace(doc.Find("title").First().Text()),
			Content:     processor.RenderBody(doc),
			TextContent: strings.TrimSpace(doc.Find("body").Text()),
		}, nil
	}

	article, err := readability.FromReader(strings.NewReader(processor.Render(doc)), base)
	if err != nil {
		return nil, err
	}

	return &readable{
		Title:       article.Title,
		Content:     article.Content,
		TextContent: strings.TrimSpace(article.TextContent),
		Excerpt:     article.Excerpt,
		Byline:      article.Byline,
		SiteName:    article.SiteName,
	}, nil
}
