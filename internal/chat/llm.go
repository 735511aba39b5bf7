package chat

import (
	"context"
	"errors"
	"fmt"
	"io"
	"strings"
	"sync"

	"github.com/cloudwego/eino-ext/components/model/openai"
	"github.com/cloudwego/eino/components/model"
	"github.com/cloudwego/eino/schema"

	"github.com/liuscraft/orion-dictate/internal/logging"
)

var ErrNoPendingMessage = errors.New("no user message to answer")

// Config LLMDispatcher 配置
type Config struct {
	APIKey       string
	BaseURL      string
	Model        string
	SystemPrompt string
}

// ReplyHandler 接收助手回复的流式片段，done 为 true 时 chunk 为完整回复
type ReplyHandler func(chunk string, done bool, err error)

// LLMDispatcher 在本地维护对话历史，并用大模型流式生成下一轮回复
type LLMDispatcher struct {
	model        model.BaseChatModel
	systemPrompt string

	mu      sync.Mutex
	history []*schema.Message
	onReply ReplyHandler

	// turnMu 保证同一时间只生成一轮
	turnMu sync.Mutex
	wg     sync.WaitGroup
}

func NewLLMDispatcher(ctx context.Context, cfg Config) (*LLMDispatcher, error) {
	if strings.TrimSpace(cfg.APIKey) == "" {
		return nil, errors.New("chat api_key is required")
	}
	chatModel, err := openai.NewChatModel(ctx, &openai.ChatModelConfig{
		BaseURL: cfg.BaseURL,
		Model:   cfg.Model,
		APIKey:  cfg.APIKey,
	})
	if err != nil {
		return nil, fmt.Errorf("create chat model: %w", err)
	}
	return NewLLMDispatcherWithModel(chatModel, cfg.SystemPrompt), nil
}

func NewLLMDispatcherWithModel(m model.BaseChatModel, systemPrompt string) *LLMDispatcher {
	return &LLMDispatcher{
		model:        m,
		systemPrompt: systemPrompt,
	}
}

func (d *LLMDispatcher) OnReply(handler ReplyHandler) {
	d.mu.Lock()
	defer d.mu.Unlock()
	d.onReply = handler
}

func (d *LLMDispatcher) SubmitAsUser(_ context.Context, text string) error {
	text = strings.TrimSpace(text)
	if text == "" {
		return nil
	}
	d.mu.Lock()
	defer d.mu.Unlock()
	d.history = append(d.history, schema.UserMessage(text))
	logging.Infof("Chat: user message queued (%d chars)", len(text))
	return nil
}

// Generate 在后台生成下一轮回复，立即返回
func (d *LLMDispatcher) Generate(ctx context.Context) error {
	d.mu.Lock()
	n := len(d.history)
	pending := n > 0 && d.history[n-1].Role == schema.User
	d.mu.Unlock()
	if !pending {
		return ErrNoPendingMessage
	}

	d.wg.Add(1)
	go func() {
		defer d.wg.Done()
		d.turnMu.Lock()
		defer d.turnMu.Unlock()
		d.runTurn(ctx)
	}()
	return nil
}

// Wait 等待进行中的回复生成结束
func (d *LLMDispatcher) Wait() {
	d.wg.Wait()
}

// History 返回对话历史副本，不含系统提示
func (d *LLMDispatcher) History() []*schema.Message {
	d.mu.Lock()
	defer d.mu.Unlock()
	return append([]*schema.Message(nil), d.history...)
}

func (d *LLMDispatcher) runTurn(ctx context.Context) {
	messages := d.prompt()

	stream, err := d.model.Stream(ctx, messages)
	if err != nil {
		logging.Errorf("Chat: stream request failed: %v", err)
		d.reply("", true, err)
		return
	}
	defer stream.Close()

	var full strings.Builder
	for {
		msg, err := stream.Recv()
		if err == io.EOF {
			break
		}
		if err != nil {
			logging.Errorf("Chat: stream receive failed: %v", err)
			d.reply(full.String(), true, err)
			return
		}
		if msg.Content != "" {
			full.WriteString(msg.Content)
			d.reply(msg.Content, false, nil)
		}
	}

	answer := full.String()
	d.mu.Lock()
	d.history = append(d.history, schema.AssistantMessage(answer, nil))
	d.mu.Unlock()

	logging.Infof("Chat: assistant reply finished (%d chars)", len(answer))
	d.reply(answer, true, nil)
}

func (d *LLMDispatcher) prompt() []*schema.Message {
	d.mu.Lock()
	defer d.mu.Unlock()

	messages := make([]*schema.Message, 0, len(d.history)+1)
	if d.systemPrompt != "" {
		messages = append(messages, schema.SystemMessage(d.systemPrompt))
	}
	return append(messages, d.history...)
}

func (d *LLMDispatcher) reply(chunk string, done bool, err error) {
	d.mu.Lock()
	h := d.onReply
	d.mu.Unlock()
	if h != nil {
		h(chunk, done, err)
	}
}
