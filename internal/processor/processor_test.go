package processor

import (
	"net/url"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func mustParse(t *testing.T, raw string) *url.URL {
	t.Helper()
	u, err := url.Parse(raw)
	require.NoError(t, err)
	return u
}

func TestImages(t *testing.T) {
	doc, err := Parse(`<div>` +
		`<img data-src="/a.png" src="placeholder.gif" alt="A">` +
		`<img src="data:image/png;base64,xx">` +
		`<img data-original="relative.png">` +
		`<img src="https://cdn.example.com/c.png">` +
		`</div>`)
	require.NoError(t, err)

	assert.Equal(t, 1, PromoteLazyImages(doc))

	images := AbsolutizeImages(doc, mustParse(t, "https://example.com/post/1"))
	assert.Equal(t, []Image{
		{URL: "https://example.com/a.png", Alt: "A", Lazy: true},
		{URL: "https://cdn.example.com/c.png"},
	}, images)

	body := RenderBody(doc)
	assert.NotContains(t, body, "data:image")
	assert.NotContains(t, body, "relative.png")
	assert.Contains(t, body, `src="https://example.com/a.png"`)
	assert.NotContains(t, body, "<body>")
}

func TestAbsolutizeLinks(t *testing.T) {
	doc, err := Parse(`<a href="../x">x</a><a href="#top">t</a><a href="mailto:a@b.c">m</a><a href="https://o.example.com/">o</a>`)
	require.NoError(t, err)

	assert.Equal(t, 1, AbsolutizeLinks(doc, mustParse(t, "https://example.com/post/1")))
	assert.Equal(t,
		`<a href="https://example.com/x">x</a><a href="#top">t</a><a href="mailto:a@b.c">m</a><a href="https://o.example.com/">o</a>`,
		RenderBody(doc))
}

func TestDecodeCloudflareEmail(t *testing.T) {
	tests := []struct {
		name     string
		encoded  string
		expected string
		ok       bool
	}{
		{"来自链接", "99e0f0fffcf7feb7ebecf8f7d9fef4f8f0f5b7faf6f4", "yifeng.ruan@gmail.com", true},
		{"来自 data-cfemail", "83faeae5e6ede4adf1f6e2edc3e4eee2eaefade0ecee", "yifeng.ruan@gmail.com", true},
		{"非十六进制", "zz00", "", false},
		{"奇数长度", "83f", "", false},
		{"只有密钥", "83", "", false},
		{"结果不是邮箱", "00414243", "", false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			email, ok := DecodeCloudflareEmail(tt.encoded)
			assert.Equal(t, tt.ok, ok)
			assert.Equal(t, tt.expected, email)
		})
	}
}

func TestDecodeEmailProtection(t *testing.T) {
	input := `<p>合作请<a href="/cdn-cgi/l/email-protection#99e0f0fffcf7feb7ebecf8f7d9fef4f8f0f5b7faf6f4">邮件联系</a>` +
		`（<a href="/cdn-cgi/l/email-protection" class="__cf_email__" data-cfemail="83faeae5e6ede4adf1f6e2edc3e4eee2eaefade0ecee">[email&#160;protected]</a>）` +
		`<span class="__cf_email__" data-cfemail="83faeae5e6ede4adf1f6e2edc3e4eee2eaefade0ecee">[email&#160;protected]</span></p>`

	doc, err := Parse(input)
	require.NoError(t, err)

	assert.Equal(t, 3, DecodeEmailProtection(doc))

	body := RenderBody(doc)
	assert.Contains(t, body, `<a href="mailto:yifeng.ruan@gmail.com">邮件联系</a>`)
	assert.Contains(t, body, `>yifeng.ruan@gmail.com</a>`)
	assert.Contains(t, body, `）yifeng.ruan@gmail.com</p>`)
	assert.NotContains(t, body, "data-cfemail")
	assert.NotContains(t, body, "protected")
	assert.NotContains(t, body, "email-protection")
}

func TestDecodeEmailProtectionKeepsUndecodable(t *testing.T) {
	doc, err := Parse(`<a href="/cdn-cgi/l/email-protection#zz">x</a>`)
	require.NoError(t, err)

	assert.Equal(t, 0, DecodeEmailProtection(doc))
	assert.Contains(t, RenderBody(doc), "email-protection#zz")
}
