package llm

import (
	"context"
	"errors"
)

// ErrEmptyResponse 模型没有返回任何文本
var ErrEmptyResponse = errors.New("llm: empty response")

// Completer 模型供应商提供的唯一原语：发送提示词，返回文本
type Completer interface {
	Complete(ctx context.Context, prompt string) (string, error)
}
