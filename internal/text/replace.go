package text

import (
	"strings"

	"github.com/liuscraft/orion-dictate/internal/settings"
)

// Replace 按顺序应用短语替换，前一条的输出作为下一条的输入。
// 带前导空格的形式先替换，避免 To 没有前导空格时留下多余空格。
func Replace(input string, replacements []settings.Replacement) string {
	for _, r := range replacements {
		if r.From == "" || !strings.Contains(input, r.From) {
			continue
		}
		input = strings.ReplaceAll(input, " "+r.From, r.To)
		input = strings.ReplaceAll(input, r.From, r.To)
	}
	return input
}
