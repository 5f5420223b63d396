package sanitizer

import (
	"slices"
	"strings"
)

// TagSet 不可变的标签名集合（名称统一小写）
type TagSet struct {
	names map[string]struct{}
}

// NewTagSet 创建标签集合
func NewTagSet(names ...string) TagSet {
	set := make(map[string]struct{}, len(names))
	for _, name := range names {
		name = strings.ToLower(strings.TrimSpace(name))
		if name != "" {
			set[name] = struct{}{}
		}
	}
	return TagSet{names: set}
}

// Has 是否包含标签
func (s TagSet) Has(name string) bool {
	_, ok := s.names[strings.ToLower(name)]
	return ok
}

// Len 标签数量
func (s TagSet) Len() int {
	return len(s.names)
}

// Names 排序后的标签列表
func (s TagSet) Names() []string {
	names := make([]string, 0, len(s.names))
	for name := range s.names {
		names = append(names, name)
	}
	slices.Sort(names)
	return names
}

// With 返回追加了 names 的新集合，原集合不变
func (s TagSet) With(names ...string) TagSet {
	return NewTagSet(append(s.Names(), names...)...)
}

// Without 返回移除了 names 的新集合，原集合不变
func (s TagSet) Without(names ...string) TagSet {
	drop := NewTagSet(names...)
	kept := make([]string, 0, len(s.names))
	for name := range s.names {
		if !drop.Has(name) {
			kept = append(kept, name)
		}
	}
	return NewTagSet(kept...)
}

var (
	defaultForbiddenTags = NewTagSet("script", "object", "embed", "link", "style", "form", "input")

	// object/embed/link/form 同时出现在禁止列表中，禁止列表优先
	defaultAllowedTags = NewTagSet(
		"b", "p", "i", "s", "a", "img",
		"table", "thead", "tbody", "tfoot", "tr", "th", "td",
		"dd", "dl", "dt", "em",
		"h1", "h2", "h3", "h4", "h5", "h6",
		"li", "ul", "ol", "span", "div", "strike", "strong",
		"sub", "sup", "pre", "del", "code", "blockquote", "kbd",
		"br", "hr", "area", "map", "object", "embed", "param", "link", "form",
		"small", "big",
	)

	themeExtraTags = []string{
		"section", "article", "header", "footer", "nav", "aside",
		"figure", "figcaption", "caption", "colgroup", "col",
		"u", "q", "cite", "abbr", "address", "ins",
	}
	themeExtraForbiddenTags = []string{"iframe", "frame", "frameset", "base", "meta", "applet"}

	standAloneTags  = NewTagSet("img", "br", "hr")
	urlRequiredTags = NewTagSet("a", "img", "embed")
	tableComponents = NewTagSet("thead", "tbody", "tfoot", "tr")
	tableCells      = NewTagSet("td", "th")
)

// DefaultAllowedTags 默认允许的标签
func DefaultAllowedTags() TagSet { return defaultAllowedTags }

// DefaultForbiddenTags 默认禁止的标签（整体移除，不做转义）
func DefaultForbiddenTags() TagSet { return defaultForbiddenTags }

// ThemeAllowedTags 主题编辑模式允许的标签：默认列表加上常用布局标签
func ThemeAllowedTags() TagSet {
	return defaultAllowedTags.With(themeExtraTags...)
}

// ThemeForbiddenTags 主题编辑模式禁止的标签
func ThemeForbiddenTags() TagSet {
	return defaultForbiddenTags.With(themeExtraForbiddenTags...)
}

// tagPolicy 一次净化调用使用的标签策略
type tagPolicy struct {
	allowed   TagSet
	forbidden TagSet
}

// misplaced 表格结构检查：tr/thead/tbody/tfoot 必须位于 table 内，td/th 必须位于 tr 内
func misplaced(tag string, open tagStack) bool {
	if tableComponents.Has(tag) && !open.contains("table") {
		return true
	}
	return tableCells.Has(tag) && !open.contains("tr")
}

func isStandAlone(tag string) bool {
	return standAloneTags.Has(tag)
}

func isURLRequired(tag string) bool {
	return urlRequiredTags.Has(tag)
}

// isURLAttribute 标签真正依赖的 URL 属性：a[href]、img[src]、embed[src]
func isURLAttribute(tag, attr string) bool {
	switch tag {
	case "a":
		return attr == "href"
	case "img", "embed":
		return attr == "src"
	}
	return false
}

// tagStack 当前未闭合标签栈，栈顶为最内层
type tagStack []string

func (s *tagStack) push(tag string) {
	*s = append(*s, tag)
}

func (s *tagStack) pop() string {
	old := *s
	top := old[len(old)-1]
	*s = old[:len(old)-1]
	return top
}

func (s tagStack) empty() bool {
	return len(s) == 0
}

func (s tagStack) contains(tag string) bool {
	return slices.Contains(s, tag)
}
