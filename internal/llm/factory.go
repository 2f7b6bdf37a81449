package llm

import (
	"context"
	"time"

	"github.com/go-kratos/kratos/v2/log"

	"github.com/iWorld-y/post_analyzer/internal/conf"
)

// NewCompleter 根据配置选择后端：本地模型优先，其次 Anthropic；
// 都未配置时返回 nil，gateway 会退化为默认结果
func NewCompleter(c *conf.LLM, local *conf.LocalLLM, logger log.Logger) (Completer, error) {
	helper := log.NewHelper(logger)

	if local != nil && local.Enabled && local.Url != "" {
		cm, err := NewOpenAICompatible(context.Background(), OpenAICompatibleConfig{
			BaseURL:     local.Url,
			Model:       local.Model,
			Timeout:     time.Duration(local.Timeout) * time.Second,
			MaxTokens:   int(c.MaxTokens),
			Temperature: float32(c.Temperature),
		})
		if err != nil {
			return nil, err
		}
		helper.Infof("routing analysis to local model %s at %s", local.Model, local.Url)
		return cm, nil
	}

	if c.ApiKey == "" {
		helper.Warn("no Anthropic API key provided, model analysis will use default results")
		return nil, nil
	}

	helper.Infof("Anthropic backend initialized with model %s", c.Model)
	return NewAnthropic(AnthropicConfig{
		APIKey:      c.ApiKey,
		BaseURL:     c.BaseUrl,
		Model:       c.Model,
		MaxTokens:   c.MaxTokens,
		Temperature: c.Temperature,
	}), nil
}
