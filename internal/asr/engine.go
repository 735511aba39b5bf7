package asr

import (
	"context"
	"errors"
)

var (
	// ErrUnavailable 当前环境没有可用的语音识别能力
	ErrUnavailable   = errors.New("speech recognition is not available")
	ErrSessionActive = errors.New("recognition session already active")
)

// SessionConfig 一次识别会话的参数
type SessionConfig struct {
	Language       string
	Continuous     bool
	InterimResults bool
}

// SlotResult 结果槽位。同一槽位的假设会被更新，直到 IsFinal
type SlotResult struct {
	Transcript string
	IsFinal    bool
}

// ResultEvent 一次结果回调，ResultIndex 之后的槽位有更新
type ResultEvent struct {
	Results     []SlotResult
	ResultIndex int
}

// Engine 语音识别引擎。Start 和 Stop 都只是请求，
// OnEnd 是会话彻底结束的唯一信号。回调一次只会执行一个。
type Engine interface {
	Start(ctx context.Context, cfg SessionConfig) error
	Stop() error
	OnStart(handler func())
	OnResult(handler func(ResultEvent))
	OnError(handler func(error))
	OnEnd(handler func())
}

// Provider 获取识别引擎，不支持时返回 ErrUnavailable
type Provider interface {
	Acquire() (Engine, error)
}

type ProviderFunc func() (Engine, error)

func (f ProviderFunc) Acquire() (Engine, error) {
	return f()
}
