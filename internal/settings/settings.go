package settings

import (
	"strings"
	"sync/atomic"
)

// Activation 识别激活方式
type Activation string

const (
	ActivationManual Activation = "manual"
	ActivationAlways Activation = "always"
)

// Replacement 短语替换规则，From 为空表示禁用
type Replacement struct {
	From string
	To   string
}

// Commands 语音命令短语，空字符串表示禁用
type Commands struct {
	Stop           string
	Send           string
	DeleteSentence string
	DeleteAll      string
}

// Settings 听写配置快照
type Settings struct {
	Language     string
	Activation   Activation
	Autosend     bool
	Commands     Commands
	Replacements []Replacement
}

// Defaults 默认配置
func Defaults() Settings {
	return Settings{
		Activation: ActivationManual,
		Commands: Commands{
			Stop:           "stop recognition",
			Send:           "send message",
			DeleteSentence: "delete sentence",
			DeleteAll:      "delete all text",
		},
		Replacements: []Replacement{
			{From: "comma", To: ","},
			{From: "question mark", To: "?"},
			{From: "exclamation", To: "!"},
		},
	}
}

// ParseActivation 解析激活方式，未知值返回 false
func ParseActivation(value string) (Activation, bool) {
	switch Activation(strings.ToLower(strings.TrimSpace(value))) {
	case ActivationManual, "":
		return ActivationManual, true
	case ActivationAlways:
		return ActivationAlways, true
	default:
		return "", false
	}
}

// AutoRestart reports whether a session that ended on its own should be re-armed.
func (s Settings) AutoRestart() bool {
	return s.Activation == ActivationAlways
}

// Clone returns a copy that shares no slices with s.
func (s Settings) Clone() Settings {
	out := s
	if s.Replacements != nil {
		out.Replacements = append([]Replacement(nil), s.Replacements...)
	}
	return out
}

// Store 持有当前配置快照。读取方每次通过 Get 获取，修改只在下一次读取时可见。
type Store struct {
	current atomic.Pointer[Settings]
}

func NewStore(initial Settings) *Store {
	s := &Store{}
	s.Set(initial)
	return s
}

// Get 返回当前快照的副本
func (s *Store) Get() Settings {
	p := s.current.Load()
	if p == nil {
		return Defaults()
	}
	return p.Clone()
}

// Set 整体替换快照
func (s *Store) Set(next Settings) {
	v := next.Clone()
	s.current.Store(&v)
}
