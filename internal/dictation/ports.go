package dictation

import (
	"github.com/liuscraft/orion-dictate/internal/asr"
	"github.com/liuscraft/orion-dictate/internal/chat"
	"github.com/liuscraft/orion-dictate/internal/settings"
)

// SettingsFunc 返回当前配置快照，需要廉价且无副作用
type SettingsFunc func() settings.Settings

// Toggle 麦克风开关
type Toggle interface {
	OnClick(handler func())
	SetListening(listening bool)
	// Rotate 每次会话开始时切换的装饰性旋转
	Rotate()
	Hide()
}

// Surface 文本输入框。OnInput 只在外部编辑时触发，SetText 不触发。
type Surface interface {
	Text() string
	SetText(text string)
	OnInput(handler func(text string))
}

// Notifier 面向用户的提示
type Notifier interface {
	Notify(title, message string)
}

// Deps 控制器的外部协作方
type Deps struct {
	Engines  asr.Provider
	Surface  Surface
	Chat     chat.Dispatcher
	Notifier Notifier
}
