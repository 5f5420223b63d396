package processor

import (
	"encoding/hex"
	"strings"

	"github.com/PuerkitoBio/goquery"
	"golang.org/x/net/html"
)

// emailProtectionPath Cloudflare Email Protection 替换后的链接路径
const emailProtectionPath = "/cdn-cgi/l/email-protection"

// DecodeCloudflareEmail 解码 data-cfemail / 链接锚点中的十六进制串
//
// 第一个字节是 XOR 密钥，其余字节与密钥异或得到邮箱地址。
// 结果不像邮箱地址时返回 false。
func DecodeCloudflareEmail(encoded string) (string, bool) {
	raw, err := hex.DecodeString(encoded)
	if err != nil || len(raw) < 2 {
		return "", false
	}

	key := raw[0]
	email := make([]byte, len(raw)-1)
	for i, b := range raw[1:] {
		email[i] = b ^ key
	}

	if !plausibleEmail(email) {
		return "", false
	}
	return string(email), true
}

func plausibleEmail(b []byte) bool {
	at := 0
	for _, c := range b {
		if c <= ' ' || c >= 0x7f || strings.IndexByte(`"'<>()\`, c) >= 0 {
			return false
		}
		if c == '@' {
			at++
		}
	}
	return at == 1
}

// DecodeEmailProtection 还原 Cloudflare 混淆的邮箱，返回还原的数量
//
// 邮箱保护链接改写为 mailto:，"[email protected]" 占位文本替换为真实地址；
// 独立的 data-cfemail 元素替换为纯文本。
func DecodeEmailProtection(doc *goquery.Document) int {
	decoded := 0

	doc.Find(`a[href*="` + emailProtectionPath + `"]`).Each(func(_ int, s *goquery.Selection) {
		href, _ := s.Attr("href")
		encoded := ""
		if i := strings.IndexByte(href, '#'); i >= 0 {
			encoded = href[i+1:]
		}
		if encoded == "" {
			encoded, _ = s.Attr("data-cfemail")
		}
		if encoded == "" {
			encoded, _ = s.Find("[data-cfemail]").Attr("data-cfemail")
		}

		email, ok := DecodeCloudflareEmail(encoded)
		if !ok {
			return
		}

		s.SetAttr("href", "mailto:"+email)
		s.RemoveAttr("data-cfemail")
		s.RemoveClass("__cf_email__")
		if s.Find("[data-cfemail]").Length() > 0 || isPlaceholder(s.Text()) {
			s.SetText(email)
		}
		decoded++
	})

	doc.Find("[data-cfemail]").Each(func(_ int, s *goquery.Selection) {
		encoded, _ := s.Attr("data-cfemail")
		email, ok := DecodeCloudflareEmail(encoded)
		if !ok {
			return
		}
		s.ReplaceWithNodes(&html.Node{Type: html.TextNode, Data: email})
		decoded++
	})

	return decoded
}

func isPlaceholder(text string) bool {
	return strings.Contains(strings.ToLower(text), "protected")
}
