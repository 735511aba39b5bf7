package dictation

import (
	"context"
	"sync"

	"github.com/liuscraft/orion-dictate/internal/asr"
)

type mockEngine struct {
	mu       sync.Mutex
	configs  []asr.SessionConfig
	stops    int
	startErr error
	// endOnStop 模拟引擎在 Stop 后立即回调结束
	endOnStop bool

	onStart  func()
	onResult func(asr.ResultEvent)
	onError  func(error)
	onEnd    func()
}

func (m *mockEngine) Start(ctx context.Context, cfg asr.SessionConfig) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.startErr != nil {
		return m.startErr
	}
	m.configs = append(m.configs, cfg)
	return nil
}

func (m *mockEngine) Stop() error {
	m.mu.Lock()
	m.stops++
	end := m.endOnStop
	m.mu.Unlock()
	if end {
		m.onEnd()
	}
	return nil
}

func (m *mockEngine) OnStart(handler func())                 { m.onStart = handler }
func (m *mockEngine) OnResult(handler func(asr.ResultEvent)) { m.onResult = handler }
func (m *mockEngine) OnError(handler func(error))            { m.onError = handler }
func (m *mockEngine) OnEnd(handler func())                   { m.onEnd = handler }

func (m *mockEngine) startCount() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return len(m.configs)
}

func (m *mockEngine) stopCount() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.stops
}

type mockToggle struct {
	click     func()
	listening bool
	rotations int
	hidden    bool
}

func (m *mockToggle) OnClick(handler func())      { m.click = handler }
func (m *mockToggle) SetListening(listening bool) { m.listening = listening }
func (m *mockToggle) Rotate()                     { m.rotations++ }
func (m *mockToggle) Hide()                       { m.hidden = true }

type mockSurface struct {
	text    string
	onInput func(string)
}

func (m *mockSurface) Text() string           { return m.text }
func (m *mockSurface) SetText(text string)    { m.text = text }
func (m *mockSurface) OnInput(h func(string)) { m.onInput = h }

// Type 模拟用户直接编辑输入框
func (m *mockSurface) Type(text string) {
	m.text = text
	if m.onInput != nil {
		m.onInput(text)
	}
}

type mockChat struct {
	messages  []string
	generates int
	submitErr error
}

func (m *mockChat) SubmitAsUser(ctx context.Context, text string) error {
	if m.submitErr != nil {
		return m.submitErr
	}
	m.messages = append(m.messages, text)
	return nil
}

func (m *mockChat) Generate(ctx context.Context) error {
	m.generates++
	return nil
}

type mockNotifier struct {
	titles   []string
	messages []string
}

func (m *mockNotifier) Notify(title, message string) {
	m.titles = append(m.titles, title)
	m.messages = append(m.messages, message)
}
