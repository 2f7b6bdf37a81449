package gateway

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/go-kratos/kratos/v2/log"
	"golang.org/x/time/rate"

	"github.com/iWorld-y/post_analyzer/internal/conf"
	"github.com/iWorld-y/post_analyzer/internal/llm"
	"github.com/iWorld-y/post_analyzer/internal/taxonomy"
)

// ErrCallFailed 重试耗尽后仍然失败的模型调用
var ErrCallFailed = errors.New("model call failed")

const defaultMaxAttempts = 3

// Scores 标签到分数的映射，包含当前标签集中的每一个标签
type Scores map[string]float64

// Classification 帖子类型分类结果
type Classification struct {
	PrimaryLabel string
	Confidence   float64
	Scores       Scores
}

// Verdict 事实核查的原始结论
type Verdict struct {
	Status             string
	Justification      string
	VerificationMethod string
}

// Gateway 把四类分析任务翻译成模型调用，并对模型输出做防御性解析
type Gateway struct {
	completer      llm.Completer
	tax            *taxonomy.Taxonomy
	limiter        *rate.Limiter
	maxAttempts    int
	attemptTimeout time.Duration
	backoff        func(attempt int) time.Duration
	log            *log.Helper
}

// Option 可选参数
type Option func(*Gateway)

// WithLimiter 每次调用前等待的限流器
func WithLimiter(l *rate.Limiter) Option {
	return func(g *Gateway) { g.limiter = l }
}

// WithMaxAttempts 包含首次调用在内的最大尝试次数
func WithMaxAttempts(n int) Option {
	return func(g *Gateway) {
		if n > 0 {
			g.maxAttempts = n
		}
	}
}

// WithAttemptTimeout 单次调用超时，0 表示只受请求上下文约束
func WithAttemptTimeout(d time.Duration) Option {
	return func(g *Gateway) { g.attemptTimeout = d }
}

// WithBackoff 第 attempt 次失败后（从 0 开始）的等待时间
func WithBackoff(f func(attempt int) time.Duration) Option {
	return func(g *Gateway) { g.backoff = f }
}

func WithLogger(logger log.Logger) Option {
	return func(g *Gateway) { g.log = log.NewHelper(logger) }
}

// ExponentialBackoff 2^attempt 秒：1s, 2s, 4s ...
func ExponentialBackoff(attempt int) time.Duration {
	return time.Duration(1<<attempt) * time.Second
}

// New completer 为 nil 时 gateway 处于未配置状态，所有操作直接返回默认结果
func New(completer llm.Completer, tax *taxonomy.Taxonomy, opts ...Option) *Gateway {
	g := &Gateway{
		completer:   completer,
		tax:         tax,
		limiter:     rate.NewLimiter(rate.Inf, 1),
		maxAttempts: defaultMaxAttempts,
		backoff:     ExponentialBackoff,
		log:         log.NewHelper(log.DefaultLogger),
	}
	for _, o := range opts {
		o(g)
	}
	return g
}

// NewGateway 按配置创建 gateway
func NewGateway(completer llm.Completer, tax *taxonomy.Taxonomy, c *conf.LLM, cc *conf.Concurrency, logger log.Logger) (*Gateway, error) {
	timeout, err := c.AttemptTimeout()
	if err != nil {
		return nil, err
	}
	return New(completer, tax,
		WithLimiter(NewLimiter(cc)),
		WithMaxAttempts(int(c.MaxAttempts)),
		WithAttemptTimeout(timeout),
		WithLogger(logger),
	), nil
}

// NewLimiter Limit 为 RPM/60，Burst 为 QPS；RPM 为 0 时不限流
func NewLimiter(cc *conf.Concurrency) *rate.Limiter {
	if cc == nil || cc.Rpm <= 0 {
		return rate.NewLimiter(rate.Inf, 1)
	}
	burst := int(cc.Qps)
	if burst < 1 {
		burst = 1
	}
	return rate.NewLimiter(rate.Limit(float64(cc.Rpm)/60.0), burst)
}

// Enabled 是否配置了可用的模型后端
func (g *Gateway) Enabled() bool {
	return g.completer != nil
}

// ClassifyPostType 帖子类型分类
func (g *Gateway) ClassifyPostType(ctx context.Context, text string, lang taxonomy.Language) (*Classification, error) {
	labels := g.tax.Labels(lang).PostTypes
	if !g.Enabled() {
		g.log.Warn("model backend not configured, using default classification")
		return defaultClassification(labels), nil
	}

	raw, err := g.call(ctx, buildClassificationPrompt(text, labels, lang))
	if err != nil {
		return nil, err
	}

	c, err := parseClassification(raw, labels)
	if err != nil {
		g.log.Errorf("error parsing classification response: %v", err)
		return defaultClassification(labels), nil
	}
	return c, nil
}

// AnalyzePoliticalTendency 政治倾向打分
func (g *Gateway) AnalyzePoliticalTendency(ctx context.Context, text string, lang taxonomy.Language) (Scores, error) {
	labels := g.tax.Labels(lang).Political
	if !g.Enabled() {
		g.log.Warn("model backend not configured, using default political analysis")
		return uniform(labels), nil
	}

	raw, err := g.call(ctx, buildPoliticalPrompt(text, labels, lang))
	if err != nil {
		return nil, err
	}

	scores, err := parseScores(raw, labels)
	if err != nil {
		g.log.Errorf("error parsing political response: %v", err)
		return uniform(labels), nil
	}
	return scores, nil
}

// AnalyzeIntents 意图打分
func (g *Gateway) AnalyzeIntents(ctx context.Context, text string, lang taxonomy.Language) (Scores, error) {
	labels := g.tax.Labels(lang).Intents
	if !g.Enabled() {
		g.log.Warn("model backend not configured, using default intent analysis")
		return uniform(labels), nil
	}

	raw, err := g.call(ctx, buildIntentPrompt(text, labels, lang))
	if err != nil {
		return nil, err
	}

	scores, err := parseScores(raw, labels)
	if err != nil {
		g.log.Errorf("error parsing intent response: %v", err)
		return uniform(labels), nil
	}
	return scores, nil
}

// AnalyzeVeracity 事实核查
func (g *Gateway) AnalyzeVeracity(ctx context.Context, claim string, lang taxonomy.Language) (*Verdict, error) {
	if !g.Enabled() {
		g.log.Warn("model backend not configured, using default veracity analysis")
		return defaultVerdict(), nil
	}

	raw, err := g.call(ctx, buildVeracityPrompt(claim, lang))
	if err != nil {
		return nil, err
	}

	v, err := parseVeracity(raw)
	if err != nil {
		g.log.Errorf("error parsing veracity response: %v", err)
		return defaultVerdict(), nil
	}
	return v, nil
}

// call 最多尝试 maxAttempts 次，失败后按 backoff 等待；
// 等待只挂起当前请求所在的 goroutine，请求取消时立即返回
func (g *Gateway) call(ctx context.Context, prompt string) (string, error) {
	var lastErr error
	for attempt := 0; attempt < g.maxAttempts; attempt++ {
		if err := g.limiter.Wait(ctx); err != nil {
			return "", fmt.Errorf("%w: rate limiter: %w", ErrCallFailed, err)
		}

		text, err := g.attempt(ctx, prompt)
		if err == nil {
			g.log.Debugf("model reply: %s", text)
			return text, nil
		}
		lastErr = err
		g.log.Warnf("API call attempt %d failed: %v", attempt+1, err)

		if ctx.Err() != nil {
			return "", fmt.Errorf("%w: %w", ErrCallFailed, ctx.Err())
		}
		if attempt == g.maxAttempts-1 {
			break
		}
		if err := sleep(ctx, g.backoff(attempt)); err != nil {
			return "", fmt.Errorf("%w: %w", ErrCallFailed, err)
		}
	}
	return "", fmt.Errorf("%w after %d attempts: %w", ErrCallFailed, g.maxAttempts, lastErr)
}

func (g *Gateway) attempt(ctx context.Context, prompt string) (string, error) {
	if g.attemptTimeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, g.attemptTimeout)
		defer cancel()
	}
	return g.completer.Complete(ctx, prompt)
}

func sleep(ctx context.Context, d time.Duration) error {
	if d <= 0 {
		return ctx.Err()
	}
	timer := time.NewTimer(d)
	defer timer.Stop()
	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-timer.C:
		return nil
	}
}

func uniform(labels []string) Scores {
	scores := make(Scores, len(labels))
	if len(labels) == 0 {
		return scores
	}
	p := 1.0 / float64(len(labels))
	for _, label := range labels {
		scores[label] = p
	}
	return scores
}

func defaultClassification(labels []string) *Classification {
	c := &Classification{Scores: uniform(labels)}
	if len(labels) > 0 {
		c.PrimaryLabel = labels[0]
		c.Confidence = 1.0 / float64(len(labels))
	}
	return c
}

func defaultVerdict() *Verdict {
	return &Verdict{
		Status:             string(taxonomy.Unverifiable),
		Justification:      "Analysis not available",
		VerificationMethod: "Default method used",
	}
}
