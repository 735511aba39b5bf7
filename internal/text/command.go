package text

import (
	"strings"

	"golang.org/x/text/cases"
	"golang.org/x/text/language"

	"github.com/liuscraft/orion-dictate/internal/settings"
)

// Command 识别出的语音命令
type Command int

const (
	CommandNone Command = iota
	CommandStop
	CommandSend
	CommandDeleteSentence
	CommandDeleteAll
)

func (c Command) String() string {
	switch c {
	case CommandNone:
		return "None"
	case CommandStop:
		return "Stop"
	case CommandSend:
		return "Send"
	case CommandDeleteSentence:
		return "DeleteSentence"
	case CommandDeleteAll:
		return "DeleteAll"
	default:
		return "Unknown"
	}
}

// Match 命令检测结果
type Match struct {
	Command Command
	// Text 去掉命令后剩余的文本；删除类命令总是为空
	Text string
	// Whole 整段话就是命令短语本身
	Whole bool
}

// DetectCommand 对整段话做大小写无关的后缀匹配，按 停止、发送、删除一句、全部删除 的顺序，
// 命中第一个即返回。空短语视为禁用。locale 用于大小写折叠，可为空。
func DetectCommand(input string, cmds settings.Commands, locale string) Match {
	caser := cases.Lower(parseLocale(locale))
	lower := caser.String(input)

	candidates := []struct {
		cmd    Command
		phrase string
	}{
		{CommandStop, cmds.Stop},
		{CommandSend, cmds.Send},
		{CommandDeleteSentence, cmds.DeleteSentence},
		{CommandDeleteAll, cmds.DeleteAll},
	}

	for _, c := range candidates {
		if c.phrase == "" {
			continue
		}
		phrase := caser.String(c.phrase)
		if !strings.HasSuffix(lower, phrase) {
			continue
		}

		m := Match{Command: c.cmd, Whole: strings.TrimSpace(lower) == phrase}
		switch c.cmd {
		case CommandStop, CommandSend:
			idx := strings.Index(lower, phrase)
			m.Text = strings.TrimSpace(prefix(input, lower, idx))
		}
		return m
	}

	return Match{Command: CommandNone, Text: input}
}

// prefix 返回命令之前的部分。大小写折叠未改变字节长度时保留原文大小写。
func prefix(input, lower string, idx int) string {
	if len(input) == len(lower) {
		return input[:idx]
	}
	return lower[:idx]
}

func parseLocale(locale string) language.Tag {
	if strings.TrimSpace(locale) == "" {
		return language.Und
	}
	tag, err := language.Parse(locale)
	if err != nil {
		return language.Und
	}
	return tag
}
