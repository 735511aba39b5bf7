package text

import "strings"

// SplitSentences 按 . ? ! 切分句子，去掉首尾空白并丢弃空句
func SplitSentences(s string) []string {
	parts := strings.FieldsFunc(s, isSentenceBoundary)
	out := make([]string, 0, len(parts))
	for _, part := range parts {
		if trimmed := strings.TrimSpace(part); trimmed != "" {
			out = append(out, trimmed)
		}
	}
	return out
}

// DropLastSentence 删除最后一句，其余句子以 ". " 重新拼接并以句号结尾。
// 没有剩余内容时返回空串。
func DropLastSentence(s string) string {
	sentences := SplitSentences(s)
	if len(sentences) > 0 {
		sentences = sentences[:len(sentences)-1]
	}
	out := strings.TrimSpace(strings.Join(sentences, ". ")) + "."
	if out == "." {
		return ""
	}
	return out
}

func isSentenceBoundary(r rune) bool {
	switch r {
	case '.', '?', '!':
		return true
	default:
		return false
	}
}
