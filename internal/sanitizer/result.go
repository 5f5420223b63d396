package sanitizer

import "strings"

// Result 净化结果
//
// 每次调用新建，返回后不再修改。
type Result struct {
	// HTML 可安全渲染的 HTML
	HTML string `json:"html"`
	// Text 去除/转义标签后的纯文本
	Text string `json:"text"`
	// Raw 按处理顺序拼接的词法单元（被接受的标签为清理后的形式），用于审计
	Raw string `json:"raw"`
	// InvalidTags 被拒绝内容的说明，按文档顺序
	InvalidTags []string `json:"invalidTags"`
}

// IsValid 没有任何内容被拒绝
func (r *Result) IsValid() bool {
	return len(r.InvalidTags) == 0
}

// resultBuilder 净化过程中的累加器
type resultBuilder struct {
	html    strings.Builder
	text    strings.Builder
	raw     strings.Builder
	invalid []string
}

func (b *resultBuilder) reject(diagnostic string) {
	b.invalid = append(b.invalid, diagnostic)
}

// emit 写入一个词法单元；未被接受的内容转义后同时写入 HTML 与纯文本
func (b *resultBuilder) emit(token string, accepted bool) {
	b.raw.WriteString(token)
	if accepted {
		b.html.WriteString(token)
		return
	}
	b.html.WriteString(EncodeApexesAndTags(token))
	b.text.WriteString(EncodeApexesAndTags(removeLineFeed(token)))
}

func (b *resultBuilder) result() *Result {
	invalid := b.invalid
	if invalid == nil {
		invalid = []string{}
	}
	return &Result{
		HTML:        b.html.String(),
		Text:        b.text.String(),
		Raw:         b.raw.String(),
		InvalidTags: invalid,
	}
}
