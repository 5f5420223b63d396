package sanitizer

import (
	"net"
	"net/url"
	"regexp"
	"strconv"
	"strings"
	"unicode"

	"golang.org/x/net/html"
)

// validatorKind 属性校验器类型（固定集合，按属性名查表分发）
type validatorKind uint8

const (
	defaultValidator validatorKind = iota
	urlValidator
	sizeValidator
	cssValidator
)

var attributeValidators = map[string]validatorKind{
	"href":   urlValidator,
	"src":    urlValidator,
	"width":  sizeValidator,
	"height": sizeValidator,
	"style":  cssValidator,
}

// outcomeKind 属性校验结果
type outcomeKind uint8

const (
	// attrAccepted 属性保留，值可能被改写
	attrAccepted outcomeKind = iota
	// attrRejected 丢弃属性，标签保留
	attrRejected
	// tagRejected 丢弃整个标签
	tagRejected
)

type attributeOutcome struct {
	kind  outcomeKind
	value string
}

func accept(value string) attributeOutcome {
	return attributeOutcome{kind: attrAccepted, value: value}
}

var (
	rejectAttr = attributeOutcome{kind: attrRejected}
	rejectTag  = attributeOutcome{kind: tagRejected}
)

// validateAttribute 按属性名分发到对应校验器，拒绝原因写入 diag
func (s *Sanitizer) validateAttribute(tag, attr, value string, diag *resultBuilder) attributeOutcome {
	switch attributeValidators[attr] {
	case urlValidator:
		return s.validateURLAttr(tag, attr, value, diag)
	case sizeValidator:
		return s.validateSize(tag, attr, value, diag)
	case cssValidator:
		return s.validateStyle(tag, attr, value, diag)
	default:
		return accept(encodeAttr(value))
	}
}

// validateURLAttr 校验 href/src
//
// 只有 a[href]、img[src]、embed[src] 被识别，其它标签携带 href/src 时整个标签被丢弃。
// mailto: 链接通过 "http://www.<@后的域名>" 探测域名是否合法，合法时保留原值。
func (s *Sanitizer) validateURLAttr(tag, attr, value string, diag *resultBuilder) attributeOutcome {
	if !isURLAttribute(tag, attr) {
		diag.reject(tag + " " + attr + " " + value)
		return rejectTag
	}

	decoded := html.UnescapeString(value)
	if s.urls.valid(decoded) {
		return accept(value)
	}

	if tag == "a" && strings.HasPrefix(strings.ToLower(decoded), "mailto:") {
		if at := strings.IndexByte(decoded, '@'); at >= 0 && s.urls.wellFormed("http://www."+decoded[at+1:]) {
			return accept(value)
		}
	}

	diag.reject(attr + " " + value)
	return rejectAttr
}

// validateSize 校验 width/height：非负整数且不超过上限
func (s *Sanitizer) validateSize(tag, attr, value string, diag *resultBuilder) attributeOutcome {
	v := strings.TrimSpace(value)
	if v == "" || len(v) > 9 || strings.IndexFunc(v, func(r rune) bool { return r < '0' || r > '9' }) >= 0 {
		diag.reject(tag + " " + attr + " " + value)
		return rejectAttr
	}

	n, err := strconv.Atoi(v)
	if err != nil || n > s.maxDimension {
		diag.reject(tag + " " + attr + " " + value)
		return rejectAttr
	}
	return accept(strconv.Itoa(n))
}

var (
	declarationPattern    = regexp.MustCompile(`([^\s^:]+)\s*:\s*([^;]+);?`)
	forbiddenStylePattern = regexp.MustCompile(`(?i)(expression|eval|javascript)\s*\(`)
	styleURLPattern       = regexp.MustCompile(`(?i)url\s*\(\s*['"]?([^'")]*?)['"]?\s*\)`)
)

// validateStyle 逐条校验 style 声明
//
// 含 expression(/eval(/javascript( 或 CSS 转义的声明被丢弃；
// url(...) 必须通过 URL 校验；保留的声明值重新转义，每条以 ";" 结尾。
// 非空的值解析不出任何声明时整个属性记为拒绝。
func (s *Sanitizer) validateStyle(tag, attr, value string, diag *resultBuilder) attributeOutcome {
	var clean strings.Builder
	rejected := len(diag.invalid)

	for _, m := range declarationPattern.FindAllStringSubmatch(html.UnescapeString(value), -1) {
		name := strings.ToLower(m[1])
		val := strings.TrimSpace(m[2])

		if forbiddenStylePattern.MatchString(val) || strings.ContainsRune(val, '\\') {
			diag.reject(tag + " " + attr + " " + val)
			continue
		}

		if !s.styleURLsValid(val) {
			diag.reject(tag + " " + attr + " " + val)
			continue
		}

		clean.WriteString(encodeAttr(name))
		clean.WriteByte(':')
		clean.WriteString(encodeAttr(val))
		clean.WriteByte(';')
	}

	if clean.Len() == 0 {
		if len(diag.invalid) == rejected && strings.TrimSpace(value) != "" {
			diag.reject(tag + " " + attr + " " + value)
		}
		return rejectAttr
	}
	return accept(clean.String())
}

func (s *Sanitizer) styleURLsValid(val string) bool {
	for _, m := range styleURLPattern.FindAllStringSubmatch(val, -1) {
		if !s.urls.valid(strings.TrimSpace(m[1])) {
			return false
		}
	}
	return true
}

// urlChecker 绝对 URL 校验：协议在白名单内，主机为 IP 或带字母顶级域的域名
type urlChecker struct {
	schemes map[string]struct{}
}

func newURLChecker(schemes []string) urlChecker {
	set := make(map[string]struct{}, len(schemes))
	for _, scheme := range schemes {
		scheme = strings.ToLower(strings.TrimSpace(scheme))
		if scheme != "" {
			set[scheme] = struct{}{}
		}
	}
	return urlChecker{schemes: set}
}

var domainPattern = regexp.MustCompile(`(?i)^([a-z0-9]([a-z0-9-]{0,61}[a-z0-9])?\.)+[a-z]{2,63}$`)

// valid URL 格式正确且协议在白名单内
func (c urlChecker) valid(raw string) bool {
	u, ok := parseAbsolute(raw)
	if !ok {
		return false
	}
	_, allowed := c.schemes[u.Scheme]
	return allowed
}

// wellFormed 只检查格式，不检查协议白名单（用于 mailto 域名探测）
func (c urlChecker) wellFormed(raw string) bool {
	_, ok := parseAbsolute(raw)
	return ok
}

func parseAbsolute(raw string) (*url.URL, bool) {
	if raw == "" || strings.IndexFunc(raw, func(r rune) bool { return unicode.IsSpace(r) || unicode.IsControl(r) }) >= 0 {
		return nil, false
	}

	u, err := url.Parse(raw)
	if err != nil || u.Scheme == "" || u.Opaque != "" {
		return nil, false
	}

	host := u.Hostname()
	if host == "" {
		return nil, false
	}
	if port := u.Port(); port != "" {
		if n, err := strconv.Atoi(port); err != nil || n > 65535 {
			return nil, false
		}
	}
	if net.ParseIP(host) == nil && !domainPattern.MatchString(host) {
		return nil, false
	}
	return u, true
}
