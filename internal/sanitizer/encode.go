package sanitizer

import "strings"

var (
	apexesAndTagsReplacer = strings.NewReplacer(
		`"`, "&quot;",
		"'", "&#39;",
		"<", "&lt;",
		">", "&gt;",
	)
	lineFeedReplacer = strings.NewReplacer(
		"\n", " ",
		"\f", " ",
		"\r", " ",
	)
)

// EncodeApexesAndTags 转义引号和尖括号
//
// 不转义 "&"：已有的实体保持原样，保证对输出重复净化结果不变。
func EncodeApexesAndTags(s string) string {
	return apexesAndTagsReplacer.Replace(s)
}

func removeLineFeed(s string) string {
	return lineFeedReplacer.Replace(s)
}

// encodeAttr 属性值转义，换行折叠为空格
func encodeAttr(s string) string {
	return EncodeApexesAndTags(removeLineFeed(s))
}
