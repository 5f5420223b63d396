package sanitizer

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestTokenize(t *testing.T) {
	tests := []struct {
		name     string
		input    string
		expected []Token
	}{
		{
			name:     "空输入",
			input:    "",
			expected: nil,
		},
		{
			name:     "纯文本",
			input:    "Hello World",
			expected: []Token{{Kind: TextToken, Raw: "Hello World"}},
		},
		{
			name:  "开始和结束标签",
			input: `<p class="x">Hi</P>`,
			expected: []Token{
				{Kind: StartTagToken, Raw: `<p class="x">`, Name: "p", Attrs: `class="x"`},
				{Kind: TextToken, Raw: "Hi"},
				{Kind: EndTagToken, Raw: "</P>", Name: "p"},
			},
		},
		{
			name:  "自闭合标签",
			input: `<br/><img src="a" />`,
			expected: []Token{
				{Kind: StartTagToken, Raw: "<br/>", Name: "br", SelfClosing: true},
				{Kind: StartTagToken, Raw: `<img src="a" />`, Name: "img", Attrs: `src="a"`, SelfClosing: true},
			},
		},
		{
			name:  "注释",
			input: "a<!-- c -->b",
			expected: []Token{
				{Kind: TextToken, Raw: "a"},
				{Kind: CommentToken, Raw: "<!-- c -->"},
				{Kind: TextToken, Raw: "b"},
			},
		},
		{
			name:  "未闭合注释延伸到结尾",
			input: "a<!-- open <p>x",
			expected: []Token{
				{Kind: TextToken, Raw: "a"},
				{Kind: CommentToken, Raw: "<!-- open <p>x"},
			},
		},
		{
			name:  "未闭合标签按文本处理",
			input: "x<b class=",
			expected: []Token{
				{Kind: TextToken, Raw: "x"},
				{Kind: TextToken, Raw: "<b class="},
			},
		},
		{
			name:  "无法识别的尖括号片段",
			input: "1 < 2 > 0",
			expected: []Token{
				{Kind: TextToken, Raw: "1 "},
				{Kind: TextToken, Raw: "< 2 >"},
				{Kind: TextToken, Raw: " 0"},
			},
		},
		{
			name:  "自闭合结束标签",
			input: "</p/>",
			expected: []Token{
				{Kind: EndTagToken, Raw: "</p/>", Name: "p", SelfClosing: true},
			},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.expected, Tokenize(tt.input))
		})
	}
}

func TestTokenizeRoundTrip(t *testing.T) {
	inputs := []string{
		`<p>Hello <b>World</b></p>`,
		`<a href="http://example.com">x</a><!-- c --><br/>`,
		"<<<>>>",
		"<!--",
		"<!-->text",
		"unterminated <div title=\"x",
		"中文<p>内容</p>",
	}

	for _, input := range inputs {
		var b strings.Builder
		for _, tok := range Tokenize(input) {
			require.NotEmpty(t, tok.Raw)
			b.WriteString(tok.Raw)
		}
		assert.Equal(t, input, b.String())
	}
}

func TestTokenKindString(t *testing.T) {
	assert.Equal(t, "text", TextToken.String())
	assert.Equal(t, "start", StartTagToken.String())
	assert.Equal(t, "end", EndTagToken.String())
	assert.Equal(t, "comment", CommentToken.String())
}
