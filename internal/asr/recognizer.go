package asr

import (
	"context"
	"errors"
)

var (
	ErrAPIKeyRequired = errors.New("DASHSCOPE_API_KEY is required")
	ErrNotStarted     = errors.New("recognizer not started")
	ErrAlreadyStarted = errors.New("recognizer already started")
)

type Config struct {
	APIKey                     string
	Endpoint                   string
	Model                      string
	Format                     string
	SampleRate                 int
	VocabularyID               string
	SemanticPunctuationEnabled *bool
	MaxSentenceSilence         int
	Heartbeat                  *bool
	LanguageHints              []string
}

// Result 单句识别结果，同一句话会先收到若干 IsFinal=false 的中间结果
type Result struct {
	Text        string
	IsFinal     bool
	BeginTimeMs int64
	EndTimeMs   *int64
}

// Recognizer 流式识别任务，一个实例只对应一次任务
type Recognizer interface {
	Start(ctx context.Context) error
	SendAudio(ctx context.Context, data []byte) error
	Finish(ctx context.Context) error
	Close() error
	OnResult(handler func(Result))
}
