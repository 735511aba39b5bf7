package chat

import "context"

// Dispatcher 把听写结果交给聊天流程。对调用方而言两个操作都是发出即忘，
// 实现不应长时间阻塞。
type Dispatcher interface {
	SubmitAsUser(ctx context.Context, text string) error
	Generate(ctx context.Context) error
}
