package sanitizer

import (
	"regexp"
	"strings"
)

// TokenKind 词法单元类型
type TokenKind uint8

const (
	// TextToken 文本片段，也包括无法识别为标签的 "<...>" 片段
	TextToken TokenKind = iota
	// StartTagToken 开始标签，如 <a href="...">、<br/>
	StartTagToken
	// EndTagToken 结束标签，如 </a>
	EndTagToken
	// CommentToken 注释，如 <!-- ... -->（可能缺少结束符）
	CommentToken
)

func (k TokenKind) String() string {
	switch k {
	case StartTagToken:
		return "start"
	case EndTagToken:
		return "end"
	case CommentToken:
		return "comment"
	default:
		return "text"
	}
}

// Token 词法单元
//
// Raw 始终是输入中的原始子串，所有 Token 的 Raw 按顺序拼接即为原始输入。
type Token struct {
	Kind TokenKind
	Raw  string
	// Name 小写标签名（仅开始/结束标签）
	Name string
	// Attrs 开始标签中未解析的属性文本
	Attrs string
	// SelfClosing 是否为 <x .../> 或 </x/> 形式
	SelfClosing bool
}

var (
	startTagPattern = regexp.MustCompile(`(?is)^<(\w+)\b\s*(.*?)\s*(/?)>$`)
	endTagPattern   = regexp.MustCompile(`(?is)^</(\w+)\b\s*(/?)>$`)
)

const (
	commentOpen  = "<!--"
	commentClose = "-->"
)

// Tokenize 将 HTML 切分为词法单元
//
// 纯词法切分：不解析属性、不解码实体、不关心嵌套。
// 未闭合的标签或注释会一直延伸到输入末尾，作为一个完整的 Token 返回。
func Tokenize(input string) []Token {
	var tokens []Token
	textStart := 0
	pos := 0

	for pos < len(input) {
		if input[pos] != '<' {
			pos++
			continue
		}

		if pos > textStart {
			tokens = append(tokens, Token{Kind: TextToken, Raw: input[textStart:pos]})
		}

		var end int
		if strings.HasPrefix(input[pos:], commentOpen) {
			// "<!-->" 按浏览器的处理方式视为空注释
			end = markerEnd(input, pos+2, commentClose)
			tokens = append(tokens, Token{Kind: CommentToken, Raw: input[pos:end]})
		} else {
			end = markerEnd(input, pos, ">")
			tokens = append(tokens, classifyTag(input[pos:end]))
		}

		pos = end
		textStart = end
	}

	if textStart < len(input) {
		tokens = append(tokens, Token{Kind: TextToken, Raw: input[textStart:]})
	}

	return tokens
}

// markerEnd 返回 marker 结束后的位置，找不到时返回输入末尾
func markerEnd(s string, from int, marker string) int {
	if i := strings.Index(s[from:], marker); i >= 0 {
		return from + i + len(marker)
	}
	return len(s)
}

// classifyTag 识别 "<...>" 片段是开始标签还是结束标签，都不是时按文本处理
func classifyTag(raw string) Token {
	if m := startTagPattern.FindStringSubmatch(raw); m != nil {
		return Token{
			Kind:        StartTagToken,
			Raw:         raw,
			Name:        strings.ToLower(m[1]),
			Attrs:       m[2],
			SelfClosing: m[3] == "/",
		}
	}
	if m := endTagPattern.FindStringSubmatch(raw); m != nil {
		return Token{
			Kind:        EndTagToken,
			Raw:         raw,
			Name:        strings.ToLower(m[1]),
			SelfClosing: m[2] == "/",
		}
	}
	return Token{Kind: TextToken, Raw: raw}
}
