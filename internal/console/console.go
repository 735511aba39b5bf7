// Package console 提供终端下的开关按钮、输入框和提示，实现听写控制器需要的界面协作方。
package console

import (
	"fmt"
	"io"
	"sync"
)

// Toggle 终端里的麦克风开关
type Toggle struct {
	out io.Writer

	mu        sync.Mutex
	listening bool
	hidden    bool
	rotation  int
	onClick   []func()
}

func NewToggle(out io.Writer) *Toggle {
	return &Toggle{out: out}
}

func (t *Toggle) OnClick(handler func()) {
	t.mu.Lock()
	defer t.mu.Unlock()
	t.onClick = append(t.onClick, handler)
}

// Click 模拟一次点击，隐藏后无效
func (t *Toggle) Click() {
	t.mu.Lock()
	if t.hidden {
		t.mu.Unlock()
		return
	}
	handlers := append([]func(){}, t.onClick...)
	t.mu.Unlock()

	for _, h := range handlers {
		h()
	}
}

func (t *Toggle) SetListening(listening bool) {
	t.mu.Lock()
	changed := t.listening != listening
	t.listening = listening
	t.mu.Unlock()

	if changed {
		if listening {
			fmt.Fprintln(t.out, "[mic] listening")
		} else {
			fmt.Fprintln(t.out, "[mic] idle")
		}
	}
}

func (t *Toggle) Listening() bool {
	t.mu.Lock()
	defer t.mu.Unlock()
	return t.listening
}

// Rotate 在 0 和 360 度之间切换，纯装饰
func (t *Toggle) Rotate() {
	t.mu.Lock()
	defer t.mu.Unlock()
	if t.rotation == 360 {
		t.rotation = 0
	} else {
		t.rotation = 360
	}
}

func (t *Toggle) Rotation() int {
	t.mu.Lock()
	defer t.mu.Unlock()
	return t.rotation
}

func (t *Toggle) Hide() {
	t.mu.Lock()
	defer t.mu.Unlock()
	t.hidden = true
}

func (t *Toggle) Hidden() bool {
	t.mu.Lock()
	defer t.mu.Unlock()
	return t.hidden
}

// Surface 终端里的输入框。SetText 是程序写入，不触发输入事件；
// Type 代表用户在外部编辑，会通知订阅方。
type Surface struct {
	out io.Writer

	mu      sync.Mutex
	text    string
	onInput []func(string)
}

func NewSurface(out io.Writer) *Surface {
	return &Surface{out: out}
}

func (s *Surface) Text() string {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.text
}

func (s *Surface) SetText(text string) {
	s.mu.Lock()
	changed := s.text != text
	s.text = text
	s.mu.Unlock()

	if changed {
		fmt.Fprintf(s.out, "> %s\n", text)
	}
}

func (s *Surface) OnInput(handler func(string)) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.onInput = append(s.onInput, handler)
}

func (s *Surface) Type(text string) {
	s.mu.Lock()
	s.text = text
	handlers := append([]func(string){}, s.onInput...)
	s.mu.Unlock()

	for _, h := range handlers {
		h(text)
	}
}

// Notifier 把提示写到终端
type Notifier struct {
	out io.Writer
}

func NewNotifier(out io.Writer) *Notifier {
	return &Notifier{out: out}
}

func (n *Notifier) Notify(title, message string) {
	fmt.Fprintf(n.out, "!! %s: %s\n", title, message)
}
