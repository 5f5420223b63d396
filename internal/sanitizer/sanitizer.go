// Package sanitizer 提供博客正文、评论等不可信 HTML 片段的净化
//
// 处理流程：Tokenize 切分词法单元 → 标签策略（允许/禁止/结构位置）→ 属性校验（URL、尺寸、样式）
// → 累加 HTML、纯文本、审计三路输出和诊断信息。未闭合标签在结尾按后进先出自动补全，
// 输出始终是配平的。任何输入都不会导致错误或 panic，问题只记录在 Result.InvalidTags 中。
package sanitizer

import (
	"regexp"
	"strings"
)

const (
	// DefaultMaxDimension width/height 的默认上限
	DefaultMaxDimension = 10000
)

// DefaultSchemes 默认允许的 URL 协议
var DefaultSchemes = []string{"http", "https"}

// Options 净化器配置（进程启动时由外部配置提供）
type Options struct {
	// UntrustedContentMode 为 true 时 ConditionallySanitize 才会净化
	UntrustedContentMode bool
	// AllowedSchemes URL 协议白名单，为空时使用 DefaultSchemes
	AllowedSchemes []string
	// MaxDimension width/height 上限，<=0 时使用 DefaultMaxDimension
	MaxDimension int
}

// Sanitizer HTML 净化器
//
// 创建后只读，可被多个 goroutine 并发使用。
type Sanitizer struct {
	enabled      bool
	urls         urlChecker
	maxDimension int
}

// New 创建净化器
func New(opts Options) *Sanitizer {
	schemes := opts.AllowedSchemes
	if len(schemes) == 0 {
		schemes = DefaultSchemes
	}
	maxDimension := opts.MaxDimension
	if maxDimension <= 0 {
		maxDimension = DefaultMaxDimension
	}

	return &Sanitizer{
		enabled:      opts.UntrustedContentMode,
		urls:         newURLChecker(schemes),
		maxDimension: maxDimension,
	}
}

// Enabled 是否处于不可信内容模式
func (s *Sanitizer) Enabled() bool {
	return s.enabled
}

// Sanitize 返回净化后的 HTML
func (s *Sanitizer) Sanitize(input string) string {
	return s.Process(input).HTML
}

// IsSanitized 输入中没有任何需要拒绝的内容
func (s *Sanitizer) IsSanitized(input string) bool {
	return s.Process(input).IsValid()
}

// Text 返回纯文本（标签被去除或转义）
func (s *Sanitizer) Text(input string) string {
	return s.Process(input).Text
}

// ConditionallySanitize 不可信内容模式下净化，否则原样返回；nil 原样返回
func (s *Sanitizer) ConditionallySanitize(input *string) *string {
	if !s.enabled || input == nil {
		return input
	}
	out := s.Sanitize(*input)
	return &out
}

// Process 使用默认标签策略净化，返回完整结果
func (s *Sanitizer) Process(input string) *Result {
	return s.SanitizeWithPolicy(input, defaultAllowedTags, defaultForbiddenTags)
}

// SanitizeWithPolicy 使用自定义的允许/禁止标签集合净化
//
// 禁止列表优先于允许列表：禁止的标签整体移除，未允许的标签转义后输出。
func (s *Sanitizer) SanitizeWithPolicy(input string, allowed, forbidden TagSet) *Result {
	e := &engine{
		s:      s,
		policy: tagPolicy{allowed: allowed, forbidden: forbidden},
	}

	for _, tok := range Tokenize(input) {
		e.process(tok)
	}
	e.closeAll()

	return e.out.result()
}

var attributePattern = regexp.MustCompile(`([A-Za-z_][\w-]*)\s*=\s*"([^"]*)"`)

// engine 单次净化调用的状态：只有未闭合标签栈
type engine struct {
	s      *Sanitizer
	policy tagPolicy
	open   tagStack
	out    resultBuilder
}

func (e *engine) process(tok Token) {
	switch tok.Kind {
	case CommentToken:
		e.comment(tok)
	case StartTagToken:
		e.startTag(tok)
	case EndTagToken:
		e.endTag(tok)
	default:
		e.out.emit(tok.Raw, false)
	}
}

// comment 注释一律拒绝，不输出到 HTML
func (e *engine) comment(tok Token) {
	text := tok.Raw
	if !strings.HasSuffix(text, commentClose) {
		text += commentClose
	}
	e.out.reject(text)
	e.out.raw.WriteString(text)
}

func (e *engine) startTag(tok Token) {
	tag := tok.Name

	switch {
	case e.policy.forbidden.Has(tag):
		e.out.reject("<" + tag + ">")
		return
	case !e.policy.allowed.Has(tag):
		e.out.reject(tok.Raw)
		e.out.emit(tok.Raw, false)
		return
	case misplaced(tag, e.open):
		e.out.reject("<" + tag + ">")
		return
	}

	var clean strings.Builder
	clean.WriteString("<")
	clean.WriteString(tag)

	foundURL := false
	seen := make(map[string]bool)

	for _, m := range attributePattern.FindAllStringSubmatch(tok.Attrs, -1) {
		attr := strings.ToLower(m[1])
		val := m[2]

		if strings.HasPrefix(attr, "on") {
			e.out.reject(tag + " " + attr + " " + val)
			continue
		}

		outcome := e.s.validateAttribute(tag, attr, val, &e.out)
		switch outcome.kind {
		case tagRejected:
			return
		case attrRejected:
			continue
		}

		// 重复属性浏览器只认第一个
		if seen[attr] {
			continue
		}
		seen[attr] = true

		if isURLAttribute(tag, attr) && outcome.value != "" {
			foundURL = true
		}
		clean.WriteString(" ")
		clean.WriteString(attr)
		clean.WriteString(`="`)
		clean.WriteString(outcome.value)
		clean.WriteString(`"`)
	}

	if isURLRequired(tag) && !foundURL {
		e.out.reject("<" + tag + ">")
		return
	}

	clean.WriteString(">")

	switch {
	case isStandAlone(tag):
		e.out.emit(clean.String(), true)
	case tok.SelfClosing:
		e.out.emit(clean.String()+"</"+tag+">", true)
	default:
		e.open.push(tag)
		e.out.emit(clean.String(), true)
	}
}

func (e *engine) endTag(tok Token) {
	tag := tok.Name

	switch {
	case tok.SelfClosing:
		e.out.reject(tok.Raw)
		return
	case e.policy.forbidden.Has(tag):
		e.out.reject("/" + tag)
		return
	case !e.policy.allowed.Has(tag):
		e.out.reject(tok.Raw)
		e.out.emit(tok.Raw, false)
		return
	}

	// 不在栈中的结束标签直接丢弃
	if !e.open.contains(tag) {
		return
	}

	var closing strings.Builder
	for !e.open.empty() {
		top := e.open.pop()
		closing.WriteString("</" + top + ">")
		if top == tag {
			break
		}
	}
	e.out.emit(closing.String(), true)
}

// closeAll 输入结束后补全所有未闭合标签
func (e *engine) closeAll() {
	for !e.open.empty() {
		closing := "</" + e.open.pop() + ">"
		e.out.html.WriteString(closing)
		e.out.raw.WriteString(closing)
	}
}
