package dictation

import "github.com/liuscraft/orion-dictate/internal/asr"

// eventType 控制器事件类型，所有事件都在 Run 的循环里依次处理
type eventType int

const (
	eventClick eventType = iota
	eventAutoStart
	eventSessionStarted
	eventResult
	eventSessionError
	eventSessionEnded
	eventInput
)

func (t eventType) String() string {
	switch t {
	case eventClick:
		return "Click"
	case eventAutoStart:
		return "AutoStart"
	case eventSessionStarted:
		return "SessionStarted"
	case eventResult:
		return "Result"
	case eventSessionError:
		return "SessionError"
	case eventSessionEnded:
		return "SessionEnded"
	case eventInput:
		return "Input"
	default:
		return "Unknown"
	}
}

type event struct {
	typ    eventType
	result asr.ResultEvent
	err    error
	text   string
}
