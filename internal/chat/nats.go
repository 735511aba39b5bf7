package chat

import (
	"context"
	"encoding/json"
	"fmt"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/nats-io/nats.go"

	"github.com/liuscraft/orion-dictate/internal/logging"
	"github.com/liuscraft/orion-dictate/internal/protocol"
)

// NATSDispatcher 把用户消息和生成请求发布到 NATS，由远端聊天服务处理
type NATSDispatcher struct {
	conn   *nats.Conn
	prefix string

	mu     sync.Mutex
	lastID string
}

func ConnectNATS(url, prefix string) (*NATSDispatcher, error) {
	conn, err := nats.Connect(url,
		nats.Name("orion-dictate"),
		nats.Timeout(5*time.Second),
	)
	if err != nil {
		return nil, fmt.Errorf("connect to nats: %w", err)
	}
	logging.Infof("Chat: connected to NATS %s", url)
	return NewNATSDispatcher(conn, prefix), nil
}

func NewNATSDispatcher(conn *nats.Conn, prefix string) *NATSDispatcher {
	return &NATSDispatcher{conn: conn, prefix: prefix}
}

func (d *NATSDispatcher) SubmitAsUser(_ context.Context, text string) error {
	msg := protocol.ChatMessage{
		ID:        uuid.NewString(),
		Role:      protocol.RoleUser,
		Text:      text,
		Timestamp: time.Now().UTC(),
	}
	if err := d.publish(protocol.SubjectUserMessage, msg); err != nil {
		return err
	}
	d.mu.Lock()
	d.lastID = msg.ID
	d.mu.Unlock()
	return nil
}

func (d *NATSDispatcher) Generate(_ context.Context) error {
	d.mu.Lock()
	after := d.lastID
	d.mu.Unlock()

	return d.publish(protocol.SubjectGenerate, protocol.GenerateRequest{
		AfterMessageID: after,
		Timestamp:      time.Now().UTC(),
	})
}

func (d *NATSDispatcher) Close() {
	if d == nil || d.conn == nil {
		return
	}
	if err := d.conn.Drain(); err != nil {
		logging.Warnf("Chat: drain nats connection: %v", err)
	}
}

func (d *NATSDispatcher) publish(subject string, v any) error {
	data, err := json.Marshal(v)
	if err != nil {
		return fmt.Errorf("marshal %s: %w", subject, err)
	}
	subject = protocol.Subject(d.prefix, subject)
	if err := d.conn.Publish(subject, data); err != nil {
		return fmt.Errorf("publish %s: %w", subject, err)
	}
	return nil
}
