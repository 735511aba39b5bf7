package text

import (
	"regexp"
	"unicode"
	"unicode/utf8"
)

// 非单词字符后紧跟的句号是多余的，例如 "?." 或 ",."
// \w 只匹配 ASCII，所以以 é 或汉字结尾的文本不会补句号
var redundantPeriod = regexp.MustCompile(`([^\w])\.`)

// Format 首字母大写并补句号，保证末尾只留一个标点。空串原样返回。
func Format(s string) string {
	if s == "" {
		return s
	}
	r, size := utf8.DecodeRuneInString(s)
	out := string(unicode.ToUpper(r)) + s[size:] + "."
	return redundantPeriod.ReplaceAllString(out, "${1}")
}
