package service

import (
	"context"
	"fmt"
	"strings"
	"unicode/utf8"

	"github.com/go-kratos/kratos/v2/errors"
	"github.com/go-kratos/kratos/v2/log"

	"github.com/iWorld-y/post_analyzer/internal/analysis"
	"github.com/iWorld-y/post_analyzer/internal/conf"
	"github.com/iWorld-y/post_analyzer/internal/taxonomy"
)

// ReasonValidationFailed 请求参数校验失败
const ReasonValidationFailed = "VALIDATION_FAILED"

const minPostTextLength = 10

// Analyzer 分析编排器，*analysis.Analyzer 实现了该接口
type Analyzer interface {
	Analyze(ctx context.Context, post analysis.Post) *analysis.Result
}

// EvaluateRequest POST /evaluate 请求体
type EvaluateRequest struct {
	PostID   string `json:"post_id"`
	PostText string `json:"post_text"`
	Language string `json:"language"`
}

// HealthReply GET / 响应
type HealthReply struct {
	Status    string `json:"status"`
	Timestamp string `json:"timestamp"`
	Version   string `json:"version"`
}

// ConfigReply GET /config 响应
type ConfigReply struct {
	EnableAdvancedAnalysis bool   `json:"enable_advanced_analysis"`
	EnableVeracityCheck    bool   `json:"enable_veracity_check"`
	EnableNuanceAnalysis   bool   `json:"enable_nuance_analysis"`
	ClaudeModel            string `json:"claude_model"`
	UseLocalLLM            bool   `json:"use_local_llm"`
	LocalLLMModel          string `json:"local_llm_model"`
}

// AnalyzerService 对外的分析服务
type AnalyzerService struct {
	analyzer Analyzer
	tax      *taxonomy.Taxonomy
	app      *conf.App
	ac       *conf.Analysis
	llm      *conf.LLM
	local    *conf.LocalLLM
	log      *log.Helper
}

func NewAnalyzerService(analyzer Analyzer, tax *taxonomy.Taxonomy, app *conf.App, ac *conf.Analysis, llm *conf.LLM, local *conf.LocalLLM, logger log.Logger) *AnalyzerService {
	return &AnalyzerService{
		analyzer: analyzer,
		tax:      tax,
		app:      app,
		ac:       ac,
		llm:      llm,
		local:    local,
		log:      log.NewHelper(logger),
	}
}

// Evaluate 校验请求并执行完整分析；模型侧的失败体现在 processing_error 中，不返回错误
func (s *AnalyzerService) Evaluate(ctx context.Context, req *EvaluateRequest) (*analysis.Result, error) {
	post, err := s.validate(req)
	if err != nil {
		return nil, err
	}
	s.log.WithContext(ctx).Infof("evaluating post %s (%s)", post.ID, post.Language)
	return s.analyzer.Analyze(ctx, post), nil
}

// Health 用固定样本跑一次完整分析作为存活探针
func (s *AnalyzerService) Health(ctx context.Context) (*HealthReply, error) {
	res := s.analyzer.Analyze(ctx, analysis.Post{ID: "health", Text: "test", Language: taxonomy.English})
	return &HealthReply{
		Status:    "operational",
		Timestamp: res.AnalysisTimestamp,
		Version:   s.app.Version,
	}, nil
}

// Config 当前生效的功能开关和模型配置
func (s *AnalyzerService) Config(context.Context) (*ConfigReply, error) {
	return &ConfigReply{
		EnableAdvancedAnalysis: s.ac.EnableAdvancedAnalysis,
		EnableVeracityCheck:    s.ac.EnableVeracityCheck,
		EnableNuanceAnalysis:   s.ac.EnableNuanceAnalysis,
		ClaudeModel:            s.llm.Model,
		UseLocalLLM:            s.local.Enabled,
		LocalLLMModel:          s.local.Model,
	}, nil
}

func (s *AnalyzerService) validate(req *EvaluateRequest) (analysis.Post, error) {
	if req == nil {
		return analysis.Post{}, validationError("request body is required")
	}
	if strings.TrimSpace(req.PostID) == "" {
		return analysis.Post{}, validationError("post_id is required")
	}
	if utf8.RuneCountInString(req.PostText) < minPostTextLength {
		return analysis.Post{}, validationError(fmt.Sprintf("post_text must be at least %d characters", minPostTextLength))
	}

	lang := taxonomy.Language(req.Language)
	if lang == "" {
		lang = taxonomy.English
	}
	if !s.tax.Supports(lang) {
		return analysis.Post{}, validationError(fmt.Sprintf("language must be one of %v, got %q", s.tax.Languages(), req.Language))
	}

	return analysis.Post{ID: req.PostID, Text: req.PostText, Language: lang}, nil
}

func validationError(msg string) error {
	return errors.New(422, ReasonValidationFailed, msg)
}
