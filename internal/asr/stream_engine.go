package asr

import (
	"context"
	"errors"
	"io"
	"sync"
	"time"

	"github.com/liuscraft/orion-dictate/internal/logging"
)

const defaultFinishTimeout = 5 * time.Second

// AudioSource 音频输入源
type AudioSource interface {
	Read(ctx context.Context) ([]byte, error)
	Close() error
}

// RecognizerFactory 为每次会话创建新的识别任务
type RecognizerFactory func(cfg SessionConfig) (Recognizer, error)

// SourceOpener 为每次会话打开音频源
type SourceOpener func() (AudioSource, error)

// StreamEngine 把流式 Recognizer 和音频源组合成 Engine。
// 每次 Start 创建一个识别任务，音频泵在后台把音频送给识别器，
// Stop 让音频泵退出，任务收尾后触发 OnEnd。
type StreamEngine struct {
	newRecognizer RecognizerFactory
	openSource    SourceOpener
	finishTimeout time.Duration

	mu     sync.Mutex
	active *streamSession

	handlerMu sync.RWMutex
	onStart   func()
	onResult  func(ResultEvent)
	onError   func(error)
	onEnd     func()

	// callbackMu 保证回调串行执行
	callbackMu sync.Mutex
}

type streamSession struct {
	recognizer Recognizer
	source     AudioSource
	cancel     context.CancelFunc

	resultsMu sync.Mutex
	results   []SlotResult
}

func NewStreamEngine(newRecognizer RecognizerFactory, openSource SourceOpener) *StreamEngine {
	return &StreamEngine{
		newRecognizer: newRecognizer,
		openSource:    openSource,
		finishTimeout: defaultFinishTimeout,
	}
}

func (e *StreamEngine) OnStart(handler func()) {
	e.handlerMu.Lock()
	defer e.handlerMu.Unlock()
	e.onStart = handler
}

func (e *StreamEngine) OnResult(handler func(ResultEvent)) {
	e.handlerMu.Lock()
	defer e.handlerMu.Unlock()
	e.onResult = handler
}

func (e *StreamEngine) OnError(handler func(error)) {
	e.handlerMu.Lock()
	defer e.handlerMu.Unlock()
	e.onError = handler
}

func (e *StreamEngine) OnEnd(handler func()) {
	e.handlerMu.Lock()
	defer e.handlerMu.Unlock()
	e.onEnd = handler
}

// Start 异步启动一次会话。只有已有活动会话时同步返回错误，
// 其余失败通过 OnError 和 OnEnd 报告。
func (e *StreamEngine) Start(ctx context.Context, cfg SessionConfig) error {
	e.mu.Lock()
	defer e.mu.Unlock()

	if e.active != nil {
		return ErrSessionActive
	}

	sessCtx, cancel := context.WithCancel(ctx)
	sess := &streamSession{cancel: cancel}
	e.active = sess

	go e.run(sessCtx, sess, cfg)
	return nil
}

// Stop 请求结束当前会话，没有活动会话时什么也不做
func (e *StreamEngine) Stop() error {
	e.mu.Lock()
	sess := e.active
	e.mu.Unlock()

	if sess != nil {
		sess.cancel()
	}
	return nil
}

func (e *StreamEngine) run(ctx context.Context, sess *streamSession, cfg SessionConfig) {
	defer e.end(sess)

	recognizer, err := e.newRecognizer(cfg)
	if err != nil {
		e.emitError(err)
		return
	}
	recognizer.OnResult(func(result Result) {
		e.emitResult(sess.apply(result))
	})
	sess.recognizer = recognizer

	if err := recognizer.Start(ctx); err != nil {
		if ctx.Err() == nil {
			e.emitError(err)
		}
		_ = recognizer.Close()
		sess.recognizer = nil
		return
	}

	source, err := e.openSource()
	if err != nil {
		e.emitError(err)
		return
	}
	sess.source = source

	e.emitStart()
	logging.Infof("StreamEngine: session started (language=%q)", cfg.Language)

	e.pump(ctx, sess)
}

func (e *StreamEngine) pump(ctx context.Context, sess *streamSession) {
	for {
		data, err := sess.source.Read(ctx)
		if err != nil {
			if ctx.Err() == nil && !errors.Is(err, io.EOF) {
				e.emitError(err)
			}
			return
		}
		if err := sess.recognizer.SendAudio(ctx, data); err != nil {
			if ctx.Err() == nil {
				e.emitError(err)
			}
			return
		}
	}
}

func (e *StreamEngine) end(sess *streamSession) {
	if sess.source != nil {
		if err := sess.source.Close(); err != nil {
			logging.Warnf("StreamEngine: close audio source: %v", err)
		}
	}

	if sess.recognizer != nil {
		finishCtx, cancel := context.WithTimeout(context.Background(), e.finishTimeout)
		if err := sess.recognizer.Finish(finishCtx); err != nil {
			logging.Warnf("StreamEngine: finish recognizer: %v", err)
		}
		cancel()
		if err := sess.recognizer.Close(); err != nil {
			logging.Warnf("StreamEngine: close recognizer: %v", err)
		}
	}

	sess.cancel()

	e.mu.Lock()
	if e.active == sess {
		e.active = nil
	}
	e.mu.Unlock()

	logging.Infof("StreamEngine: session ended")
	e.emitEnd()
}

// apply 把识别结果写入槽位：未结束的槽位被覆盖，否则追加新槽位
func (s *streamSession) apply(result Result) ResultEvent {
	s.resultsMu.Lock()
	defer s.resultsMu.Unlock()

	slot := SlotResult{Transcript: result.Text, IsFinal: result.IsFinal}
	n := len(s.results)
	if n > 0 && !s.results[n-1].IsFinal {
		s.results[n-1] = slot
	} else {
		s.results = append(s.results, slot)
		n++
	}

	return ResultEvent{
		Results:     append([]SlotResult(nil), s.results...),
		ResultIndex: n - 1,
	}
}

func (e *StreamEngine) emitStart() {
	e.handlerMu.RLock()
	h := e.onStart
	e.handlerMu.RUnlock()
	if h != nil {
		e.callbackMu.Lock()
		defer e.callbackMu.Unlock()
		h()
	}
}

func (e *StreamEngine) emitResult(ev ResultEvent) {
	e.handlerMu.RLock()
	h := e.onResult
	e.handlerMu.RUnlock()
	if h != nil {
		e.callbackMu.Lock()
		defer e.callbackMu.Unlock()
		h(ev)
	}
}

func (e *StreamEngine) emitError(err error) {
	logging.Warnf("StreamEngine: session error: %v", err)
	e.handlerMu.RLock()
	h := e.onError
	e.handlerMu.RUnlock()
	if h != nil {
		e.callbackMu.Lock()
		defer e.callbackMu.Unlock()
		h(err)
	}
}

func (e *StreamEngine) emitEnd() {
	e.handlerMu.RLock()
	h := e.onEnd
	e.handlerMu.RUnlock()
	if h != nil {
		e.callbackMu.Lock()
		defer e.callbackMu.Unlock()
		h()
	}
}
