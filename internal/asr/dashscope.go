package asr

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"strings"
	"sync"

	"github.com/google/uuid"
	"github.com/gorilla/websocket"
	"golang.org/x/text/language"
)

const defaultDashScopeEndpoint = "wss://dashscope.aliyuncs.com/api-ws/v1/inference"

type DashScopeRecognizer struct {
	cfg      Config
	conn     *websocket.Conn
	onResult func(Result)
	taskID   string

	writeMu   sync.Mutex
	startedCh chan struct{}
	doneCh    chan struct{}
	errCh     chan error

	startedOnce sync.Once
	doneOnce    sync.Once
}

func NewDashScopeRecognizer(cfg Config) (*DashScopeRecognizer, error) {
	if strings.TrimSpace(cfg.APIKey) == "" {
		return nil, ErrAPIKeyRequired
	}
	if cfg.Endpoint == "" {
		cfg.Endpoint = defaultDashScopeEndpoint
	}
	if cfg.Model == "" {
		cfg.Model = "fun-asr-realtime"
	}
	if cfg.Format == "" {
		cfg.Format = "pcm"
	}
	if cfg.SampleRate == 0 {
		cfg.SampleRate = 16000
	}

	return &DashScopeRecognizer{
		cfg:       cfg,
		startedCh: make(chan struct{}),
		doneCh:    make(chan struct{}),
		errCh:     make(chan error, 1),
	}, nil
}

// NewDashScopeFactory 返回按会话语言设置 language_hints 的识别器工厂
func NewDashScopeFactory(base Config) (RecognizerFactory, error) {
	if strings.TrimSpace(base.APIKey) == "" {
		return nil, ErrAPIKeyRequired
	}
	return func(session SessionConfig) (Recognizer, error) {
		cfg := base
		if hint := languageHint(session.Language); hint != "" {
			cfg.LanguageHints = []string{hint}
		}
		return NewDashScopeRecognizer(cfg)
	}, nil
}

// languageHint 把 "en-US" 这样的区域标签折成基础语言 "en"
func languageHint(locale string) string {
	if strings.TrimSpace(locale) == "" {
		return ""
	}
	tag, err := language.Parse(locale)
	if err != nil {
		return ""
	}
	base, confidence := tag.Base()
	if confidence == language.No {
		return ""
	}
	return base.String()
}

func (r *DashScopeRecognizer) OnResult(handler func(Result)) {
	r.onResult = handler
}

func (r *DashScopeRecognizer) Start(ctx context.Context) error {
	if r.conn != nil {
		return ErrAlreadyStarted
	}

	header := http.Header{}
	header.Set("Authorization", "Bearer "+r.cfg.APIKey)
	conn, _, err := websocket.DefaultDialer.DialContext(ctx, r.cfg.Endpoint, header)
	if err != nil {
		return fmt.Errorf("dial dashscope: %w", err)
	}
	r.conn = conn
	r.taskID = strings.ReplaceAll(uuid.NewString(), "-", "")

	if err := r.writeJSON(r.runTask()); err != nil {
		return fmt.Errorf("send run-task: %w", err)
	}

	go r.receive()

	select {
	case <-r.startedCh:
		return nil
	case err := <-r.errCh:
		return err
	case <-ctx.Done():
		return ctx.Err()
	}
}

func (r *DashScopeRecognizer) SendAudio(ctx context.Context, data []byte) error {
	if r.conn == nil {
		return ErrNotStarted
	}
	if err := ctx.Err(); err != nil {
		return err
	}
	r.writeMu.Lock()
	defer r.writeMu.Unlock()
	return r.conn.WriteMessage(websocket.BinaryMessage, data)
}

// Finish 发送 finish-task 并等待剩余结果送达
func (r *DashScopeRecognizer) Finish(ctx context.Context) error {
	if r.conn == nil {
		return ErrNotStarted
	}
	select {
	case <-r.doneCh:
		return nil
	default:
	}

	msg := taskMessage{
		Header:  taskHeader{Action: "finish-task", TaskID: r.taskID, Streaming: "duplex"},
		Payload: taskPayload{Input: map[string]any{}},
	}
	if err := r.writeJSON(msg); err != nil {
		return fmt.Errorf("send finish-task: %w", err)
	}

	select {
	case <-r.doneCh:
		return nil
	case err := <-r.errCh:
		return err
	case <-ctx.Done():
		return ctx.Err()
	}
}

func (r *DashScopeRecognizer) Close() error {
	if r.conn == nil {
		return nil
	}
	return r.conn.Close()
}

func (r *DashScopeRecognizer) runTask() taskMessage {
	params := map[string]any{
		"format":      r.cfg.Format,
		"sample_rate": r.cfg.SampleRate,
	}
	if r.cfg.VocabularyID != "" {
		params["vocabulary_id"] = r.cfg.VocabularyID
	}
	if r.cfg.SemanticPunctuationEnabled != nil {
		params["semantic_punctuation_enabled"] = *r.cfg.SemanticPunctuationEnabled
	}
	if r.cfg.MaxSentenceSilence > 0 {
		params["max_sentence_silence"] = r.cfg.MaxSentenceSilence
	}
	if r.cfg.Heartbeat != nil {
		params["heartbeat"] = *r.cfg.Heartbeat
	}
	if len(r.cfg.LanguageHints) > 0 {
		params["language_hints"] = r.cfg.LanguageHints
	}

	return taskMessage{
		Header: taskHeader{Action: "run-task", TaskID: r.taskID, Streaming: "duplex"},
		Payload: taskPayload{
			TaskGroup:  "audio",
			Task:       "asr",
			Function:   "recognition",
			Model:      r.cfg.Model,
			Parameters: params,
			Input:      map[string]any{},
		},
	}
}

func (r *DashScopeRecognizer) writeJSON(msg taskMessage) error {
	payload, err := json.Marshal(msg)
	if err != nil {
		return err
	}
	r.writeMu.Lock()
	defer r.writeMu.Unlock()
	return r.conn.WriteMessage(websocket.TextMessage, payload)
}

func (r *DashScopeRecognizer) receive() {
	defer r.doneOnce.Do(func() { close(r.doneCh) })

	for {
		_, data, err := r.conn.ReadMessage()
		if err != nil {
			r.setErr(err)
			return
		}
		var event taskMessage
		if err := json.Unmarshal(data, &event); err != nil {
			r.setErr(fmt.Errorf("decode dashscope event: %w", err))
			return
		}
		if finished := r.handleEvent(event); finished {
			return
		}
	}
}

// handleEvent 处理一条服务端事件，任务结束时返回 true
func (r *DashScopeRecognizer) handleEvent(event taskMessage) bool {
	switch event.Header.Event {
	case "task-started":
		r.startedOnce.Do(func() { close(r.startedCh) })
	case "result-generated":
		sentence := event.sentence()
		if sentence == nil || sentence.Heartbeat || sentence.Text == "" {
			return false
		}
		if r.onResult != nil {
			r.onResult(Result{
				Text:        sentence.Text,
				IsFinal:     sentence.SentenceEnd,
				BeginTimeMs: sentence.BeginTime,
				EndTimeMs:   sentence.EndTime,
			})
		}
	case "task-finished":
		return true
	case "task-failed":
		msg := event.Header.ErrorMessage
		if msg == "" {
			msg = event.Header.ErrorCode
		}
		r.setErr(fmt.Errorf("%w: %s", errTaskFailed, msg))
		return true
	}
	return false
}

var errTaskFailed = errors.New("dashscope task failed")

func (r *DashScopeRecognizer) setErr(err error) {
	select {
	case r.errCh <- err:
	default:
	}
}

type taskMessage struct {
	Header  taskHeader  `json:"header"`
	Payload taskPayload `json:"payload"`
}

func (m taskMessage) sentence() *taskSentence {
	if m.Payload.Output == nil {
		return nil
	}
	return m.Payload.Output.Sentence
}

type taskHeader struct {
	Action       string `json:"action,omitempty"`
	TaskID       string `json:"task_id,omitempty"`
	Streaming    string `json:"streaming,omitempty"`
	Event        string `json:"event,omitempty"`
	ErrorCode    string `json:"error_code,omitempty"`
	ErrorMessage string `json:"error_message,omitempty"`
}

type taskPayload struct {
	TaskGroup  string         `json:"task_group,omitempty"`
	Task       string         `json:"task,omitempty"`
	Function   string         `json:"function,omitempty"`
	Model      string         `json:"model,omitempty"`
	Parameters map[string]any `json:"parameters,omitempty"`
	Input      map[string]any `json:"input"`
	Output     *taskOutput    `json:"output,omitempty"`
}

type taskOutput struct {
	Sentence *taskSentence `json:"sentence,omitempty"`
}

type taskSentence struct {
	BeginTime   int64  `json:"begin_time"`
	EndTime     *int64 `json:"end_time"`
	Text        string `json:"text"`
	Heartbeat   bool   `json:"heartbeat"`
	SentenceEnd bool   `json:"sentence_end"`
}
