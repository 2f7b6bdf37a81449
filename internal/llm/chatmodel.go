package llm

import (
	"context"
	"fmt"
	"time"

	"github.com/cloudwego/eino-ext/components/model/openai"
	"github.com/cloudwego/eino/components/model"
	"github.com/cloudwego/eino/schema"
)

// ChatModel 把 eino 的 ChatModel 适配成 Completer
type ChatModel struct {
	cm model.BaseChatModel
}

var _ Completer = (*ChatModel)(nil)

// NewChatModel 包装任意 eino ChatModel
func NewChatModel(cm model.BaseChatModel) *ChatModel {
	return &ChatModel{cm: cm}
}

// OpenAICompatibleConfig 本地或自建的 OpenAI 兼容服务（例如 Ollama）
type OpenAICompatibleConfig struct {
	BaseURL     string
	APIKey      string
	Model       string
	Timeout     time.Duration
	MaxTokens   int
	Temperature float32
}

// NewOpenAICompatible 通过 eino-ext 的 openai 组件连接 OpenAI 兼容服务
func NewOpenAICompatible(ctx context.Context, cfg OpenAICompatibleConfig) (*ChatModel, error) {
	apiKey := cfg.APIKey
	if apiKey == "" {
		// 本地服务通常不校验 key，但客户端要求非空
		apiKey = "local"
	}
	maxTokens := cfg.MaxTokens
	temperature := cfg.Temperature

	cm, err := openai.NewChatModel(ctx, &openai.ChatModelConfig{
		BaseURL:     cfg.BaseURL,
		APIKey:      apiKey,
		Model:       cfg.Model,
		Timeout:     cfg.Timeout,
		MaxTokens:   &maxTokens,
		Temperature: &temperature,
	})
	if err != nil {
		return nil, fmt.Errorf("init openai compatible model: %w", err)
	}
	return NewChatModel(cm), nil
}

// Complete 发送单轮用户消息
func (c *ChatModel) Complete(ctx context.Context, prompt string) (string, error) {
	resp, err := c.cm.Generate(ctx, []*schema.Message{
		schema.UserMessage(prompt),
	})
	if err != nil {
		return "", fmt.Errorf("chat model generate: %w", err)
	}
	if resp == nil || resp.Content == "" {
		return "", ErrEmptyResponse
	}
	return resp.Content, nil
}
