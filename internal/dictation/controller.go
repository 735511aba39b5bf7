package dictation

import (
	"context"
	"errors"
	"strings"
	"sync/atomic"
	"time"

	"github.com/liuscraft/orion-dictate/internal/asr"
	"github.com/liuscraft/orion-dictate/internal/chat"
	"github.com/liuscraft/orion-dictate/internal/logging"
	"github.com/liuscraft/orion-dictate/internal/text"
)

const (
	eventQueueSize = 128
	// 退出时等待引擎结束回调的上限，需覆盖识别器收尾的超时
	shutdownTimeout = 6 * time.Second

	UnavailableTitle   = "Speech recognition activation failed"
	UnavailableMessage = "Speech recognition is not supported in this environment."
)

// Controller 听写控制器，负责识别会话的启停、结果处理与命令执行。
// 所有状态只在 Run 的事件循环中修改。
type Controller struct {
	settings SettingsFunc
	toggle   Toggle
	surface  Surface
	chat     chat.Dispatcher
	notifier Notifier
	engine   asr.Engine

	stateMachine *StateMachine
	state        atomic.Int32

	committed      string
	forceStop      bool
	pendingSend    bool
	stopRequested  bool
	sessionStarted bool

	ctx             context.Context
	events          chan event
	done            chan struct{}
	shutdownTimeout time.Duration
}

// New 创建控制器并立即获取识别引擎。引擎不可用时隐藏开关、提示用户，
// 控制器此后不会启动任何会话。
func New(settingsFn SettingsFunc, toggle Toggle, deps Deps) *Controller {
	c := &Controller{
		settings:        settingsFn,
		toggle:          toggle,
		surface:         deps.Surface,
		chat:            deps.Chat,
		notifier:        deps.Notifier,
		stateMachine:    NewStateMachine(),
		ctx:             context.Background(),
		events:          make(chan event, eventQueueSize),
		done:            make(chan struct{}),
		shutdownTimeout: shutdownTimeout,
	}

	engine, err := acquire(deps.Engines)
	if err != nil {
		logging.Errorf("speech engine unavailable: %v", err)
		toggle.Hide()
		if c.notifier != nil {
			c.notifier.Notify(UnavailableTitle, UnavailableMessage)
		}
		return c
	}
	c.engine = engine

	toggle.OnClick(func() { c.enqueue(event{typ: eventClick}) })
	c.surface.OnInput(func(s string) { c.enqueue(event{typ: eventInput, text: s}) })

	engine.OnStart(func() { c.enqueue(event{typ: eventSessionStarted}) })
	engine.OnResult(func(r asr.ResultEvent) { c.enqueue(event{typ: eventResult, result: r}) })
	engine.OnError(func(err error) { c.enqueue(event{typ: eventSessionError, err: err}) })
	engine.OnEnd(func() { c.enqueue(event{typ: eventSessionEnded}) })

	c.enqueue(event{typ: eventAutoStart})
	return c
}

func acquire(p asr.Provider) (asr.Engine, error) {
	if p == nil {
		return nil, asr.ErrUnavailable
	}
	engine, err := p.Acquire()
	if err != nil {
		return nil, err
	}
	if engine == nil {
		return nil, asr.ErrUnavailable
	}
	return engine, nil
}

// Available 识别引擎是否可用
func (c *Controller) Available() bool {
	return c.engine != nil
}

// GetState 获取当前状态
func (c *Controller) GetState() State {
	return State(c.state.Load())
}

// Run 事件循环，直到 ctx 结束。退出时若仍在听写则请求停止，
// 并在 shutdownTimeout 内等待引擎的结束回调。
func (c *Controller) Run(ctx context.Context) error {
	c.ctx = ctx
	defer close(c.done)

	for {
		select {
		case <-ctx.Done():
			if c.engine != nil && c.stateMachine.GetCurrentState() == StateListening {
				c.forceStop = true
				c.requestStop()
				c.awaitEnd()
			}
			return nil
		case ev := <-c.events:
			c.handle(ev)
		}
	}
}

// awaitEnd 继续处理事件直到会话结束，收尾阶段的最终结果仍会写入输入框
func (c *Controller) awaitEnd() {
	timer := time.NewTimer(c.shutdownTimeout)
	defer timer.Stop()

	for c.stateMachine.GetCurrentState() == StateListening {
		select {
		case ev := <-c.events:
			c.handle(ev)
		case <-timer.C:
			logging.Warnf("recognition session did not end within %s", c.shutdownTimeout)
			return
		}
	}
}

func (c *Controller) enqueue(ev event) {
	select {
	case c.events <- ev:
	case <-c.done:
	}
}

func (c *Controller) handle(ev event) {
	switch ev.typ {
	case eventClick:
		c.handleClick()
	case eventAutoStart:
		if c.settings().AutoRestart() {
			c.startRecognition()
		}
	case eventSessionStarted:
		c.sessionStarted = true
		c.toggle.SetListening(true)
		c.toggle.Rotate()
	case eventResult:
		c.handleResult(ev.result)
	case eventSessionError:
		logging.Warnf("recognition session error: %v", ev.err)
	case eventSessionEnded:
		c.handleSessionEnded()
	case eventInput:
		c.handleInput(ev.text)
	default:
		logging.Warnf("unknown controller event: %s", ev.typ)
	}
}

func (c *Controller) handleClick() {
	if c.engine == nil {
		return
	}
	if c.stateMachine.GetCurrentState() == StateListening {
		c.forceStop = true
		c.requestStop()
		return
	}
	c.forceStop = false
	c.startRecognition()
}

func (c *Controller) startRecognition() {
	if c.engine == nil {
		return
	}
	if c.forceStop {
		logging.Debugf("start refused: stopped by user")
		return
	}
	if c.stateMachine.GetCurrentState() != StateIdle {
		return
	}

	s := c.settings()
	err := c.engine.Start(c.ctx, asr.SessionConfig{
		Language:       s.Language,
		Continuous:     true,
		InterimResults: true,
	})
	if err != nil {
		// 同步失败视为会话立即结束，不触发自动重启
		logging.Warnf("start recognition failed: %v", err)
		c.toggle.SetListening(false)
		return
	}

	c.stopRequested = false
	c.sessionStarted = false
	c.committed = c.surface.Text()
	c.transitionTo(StateListening)
}

// requestStop 只是请求，真正回到 Idle 要等引擎的结束回调
func (c *Controller) requestStop() {
	if c.stopRequested || c.stateMachine.GetCurrentState() != StateListening {
		return
	}
	c.stopRequested = true
	if err := c.engine.Stop(); err != nil {
		logging.Warnf("stop recognition failed: %v", err)
	}
}

func (c *Controller) handleSessionEnded() {
	c.toggle.SetListening(false)
	c.stopRequested = false
	c.transitionTo(StateIdle)

	// 没有真正开始过的会话视为启动失败，不自动重启
	if !c.sessionStarted {
		logging.Warnf("recognition session ended before it started, not restarting")
		return
	}
	if c.settings().AutoRestart() {
		c.startRecognition()
	}
}

func (c *Controller) handleInput(s string) {
	if c.stateMachine.GetCurrentState() != StateIdle {
		logging.Debugf("surface edit ignored while listening")
		return
	}
	c.committed = s
}

func (c *Controller) handleResult(r asr.ResultEvent) {
	if c.stateMachine.GetCurrentState() != StateListening {
		logging.Debugf("result ignored while idle")
		return
	}

	start := max(r.ResultIndex, 0)
	var current string
	for i := start; i < len(r.Results); i++ {
		slot := r.Results[i]
		current += text.Replace(slot.Transcript, c.settings().Replacements)
		if slot.IsFinal {
			utterance := logging.StartUtterance()
			logging.Debugf("final result #%d: %q", utterance, current)
			current = c.applyCommand(current)
			c.requestStop()
		}
		c.commit(current, slot.IsFinal)
	}
}

func (c *Controller) applyCommand(input string) string {
	s := c.settings()
	m := text.DetectCommand(input, s.Commands, s.Language)
	if m.Command != text.CommandNone {
		logging.Infof("voice command: %s", m.Command)
	}

	switch m.Command {
	case text.CommandStop:
		c.forceStop = true
		return m.Text
	case text.CommandSend:
		c.pendingSend = true
		return m.Text
	case text.CommandDeleteSentence:
		if m.Whole {
			c.committed = text.DropLastSentence(c.committed)
			c.surface.SetText(c.committed)
		}
		return ""
	case text.CommandDeleteAll:
		c.committed = ""
		c.surface.SetText("")
		return ""
	default:
		if s.Autosend && strings.TrimSpace(m.Text) != "" {
			c.pendingSend = true
		}
		return m.Text
	}
}

func (c *Controller) commit(current string, final bool) {
	if c.pendingSend {
		c.pendingSend = false
		c.surface.SetText("")
		message := strings.TrimSpace(c.committed + " " + text.Format(current))
		c.committed = ""
		c.dispatch(message)
		return
	}

	shown := strings.TrimSpace(c.committed)
	if current != "" {
		shown = strings.TrimSpace(c.committed + " " + text.Format(current))
	}
	c.surface.SetText(shown)
	if final {
		c.committed = shown
	}
}

func (c *Controller) dispatch(message string) {
	if c.chat == nil {
		logging.Warnf("no chat dispatcher, dropping message %q", message)
		return
	}
	if message != "" {
		if err := c.chat.SubmitAsUser(c.ctx, message); err != nil {
			logging.Errorf("submit message failed: %v", err)
			return
		}
	}
	if err := c.chat.Generate(c.ctx); err != nil {
		if errors.Is(err, chat.ErrNoPendingMessage) {
			logging.Debugf("nothing to generate: %v", err)
			return
		}
		logging.Errorf("generate reply failed: %v", err)
	}
}

func (c *Controller) transitionTo(state State) {
	old := c.stateMachine.GetCurrentState()
	if old == state {
		return
	}
	if !c.stateMachine.Transition(state) {
		logging.Warnf("invalid state transition: %s -> %s", old, state)
		return
	}
	c.state.Store(int32(state))
	logging.Infof("state changed: %s -> %s", old, state)
}
