// Package processor 在净化前对导入的页面做 DOM 级预处理
package processor

import (
	"net/url"
	"strings"

	"github.com/PuerkitoBio/goquery"
)

// Image 正文中的图片
type Image struct {
	URL  string `json:"url"`
	Alt  string `json:"alt,omitempty"`
	Lazy bool   `json:"lazy"`
}

// lazyAttributes 常见懒加载插件存放真实地址的属性
var lazyAttributes = []string{
	"data-src",
	"data-lazy-src",
	"data-original",
	"data-actualsrc",
	"data-hi-res-src",
	"data-lazy",
	"data-echo",
}

// Parse 解析 HTML 文档或片段
func Parse(html string) (*goquery.Document, error) {
	return goquery.NewDocumentFromReader(strings.NewReader(html))
}

// Render 整个文档
func Render(doc *goquery.Document) string {
	out, err := doc.Html()
	if err != nil {
		return ""
	}
	return out
}

// RenderBody body 内部的 HTML（片段解析后使用，不带 html/head/body 外壳）
func RenderBody(doc *goquery.Document) string {
	out, err := doc.Find("body").Html()
	if err != nil {
		return ""
	}
	return out
}

// PromoteLazyImages 把懒加载属性中的地址提升为 src（在 Readability 之前调用）
func PromoteLazyImages(doc *goquery.Document) int {
	promoted := 0
	doc.Find("img").Each(func(_ int, s *goquery.Selection) {
		for _, attr := range lazyAttributes {
			lazySrc, ok := s.Attr(attr)
			if !ok || lazySrc == "" {
				continue
			}
			if strings.HasPrefix(lazySrc, "http") || strings.HasPrefix(lazySrc, "/") {
				s.SetAttr("src", lazySrc)
				promoted++
				break
			}
		}

		if srcset, ok := s.Attr("data-srcset"); ok {
			s.SetAttr("srcset", srcset)
		}
	})
	return promoted
}

// AbsolutizeImages 图片地址转为绝对 URL，返回图片列表；data: 图片被移除
func AbsolutizeImages(doc *goquery.Document, base *url.URL) []Image {
	var images []Image
	doc.Find("img").Each(func(_ int, s *goquery.Selection) {
		src, _ := s.Attr("src")
		if src == "" || strings.HasPrefix(strings.ToLower(src), "data:") {
			s.Remove()
			return
		}

		absolute := resolveURL(src, base)
		s.SetAttr("src", absolute)
		s.SetAttr("loading", "lazy")

		lazy := false
		for _, attr := range lazyAttributes {
			if _, ok := s.Attr(attr); ok {
				lazy = true
				break
			}
		}
		alt, _ := s.Attr("alt")

		images = append(images, Image{URL: absolute, Alt: alt, Lazy: lazy})
	})
	return images
}

// AbsolutizeLinks 相对链接转为绝对 URL；页内锚点和带协议的链接保持不变
func AbsolutizeLinks(doc *goquery.Document, base *url.URL) int {
	changed := 0
	doc.Find("a[href]").Each(func(_ int, s *goquery.Selection) {
		href, _ := s.Attr("href")
		if href == "" || strings.HasPrefix(href, "#") {
			return
		}
		parsed, err := url.Parse(href)
		if err != nil || parsed.Scheme != "" {
			return
		}
		s.SetAttr("href", base.ResolveReference(parsed).String())
		changed++
	})
	return changed
}

func resolveURL(rawURL string, base *url.URL) string {
	parsed, err := url.Parse(rawURL)
	if err != nil || base == nil {
		return rawURL
	}
	return base.ResolveReference(parsed).String()
}
