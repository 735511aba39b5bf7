package protocol

import "time"

// ChatMessage 听写得到的用户消息
type ChatMessage struct {
	ID        string    `json:"id"`
	Role      string    `json:"role"`
	Text      string    `json:"text"`
	Timestamp time.Time `json:"timestamp"`
}

// GenerateRequest 请求宿主生成下一轮回复
type GenerateRequest struct {
	AfterMessageID string    `json:"after_message_id,omitempty"`
	Timestamp      time.Time `json:"timestamp"`
}

const (
	RoleUser = "user"

	SubjectUserMessage = "user.message"
	SubjectGenerate    = "turn.generate"
)

// Subject 拼接主题前缀，前缀为空时返回原主题
func Subject(prefix, subject string) string {
	if prefix == "" {
		return subject
	}
	return prefix + "." + subject
}
