package analysis

import (
	"context"
	"fmt"
	"math"
	"time"

	"github.com/go-kratos/kratos/v2/log"
	"github.com/google/uuid"

	"github.com/iWorld-y/post_analyzer/internal/conf"
	"github.com/iWorld-y/post_analyzer/internal/gateway"
	"github.com/iWorld-y/post_analyzer/internal/taxonomy"
)

// TimestampLayout UTC 时间，微秒精度，末尾追加字面量 Z
const TimestampLayout = "2006-01-02T15:04:05.000000"

// Gateway 模型网关，*gateway.Gateway 实现了该接口
type Gateway interface {
	ClassifyPostType(ctx context.Context, text string, lang taxonomy.Language) (*gateway.Classification, error)
	AnalyzePoliticalTendency(ctx context.Context, text string, lang taxonomy.Language) (gateway.Scores, error)
	AnalyzeIntents(ctx context.Context, text string, lang taxonomy.Language) (gateway.Scores, error)
	AnalyzeVeracity(ctx context.Context, claim string, lang taxonomy.Language) (*gateway.Verdict, error)
}

// Analyzer 分诊 -> 事实核查 -> 细粒度分析 的编排器，不持有请求间的可变状态
type Analyzer struct {
	gw     Gateway
	tax    *taxonomy.Taxonomy
	c      *conf.Analysis
	logger log.Logger
	now    func() time.Time
}

// NewAnalyzer 创建编排器
func NewAnalyzer(gw Gateway, tax *taxonomy.Taxonomy, c *conf.Analysis, logger log.Logger) *Analyzer {
	return &Analyzer{
		gw:     gw,
		tax:    tax,
		c:      c,
		logger: logger,
		now:    time.Now,
	}
}

// Analyze 执行完整分析。任何阶段的错误或 panic 都不会向外传播，
// 而是返回带 processing_error 的安全默认结果
func (a *Analyzer) Analyze(ctx context.Context, post Post) (res *Result) {
	runID := uuid.NewString()
	helper := log.NewHelper(log.With(a.logger, "run_id", runID, "post_id", post.ID))

	defer func() {
		if r := recover(); r != nil {
			helper.Errorf("analysis panicked: %v", r)
			res = a.safeDefault(post, fmt.Errorf("%v", r))
		}
	}()

	res, err := a.run(ctx, post, helper)
	if err != nil {
		helper.Errorf("analysis failed: %v", err)
		return a.safeDefault(post, err)
	}
	return res
}

func (a *Analyzer) run(ctx context.Context, post Post, helper *log.Helper) (*Result, error) {
	c, err := a.gw.ClassifyPostType(ctx, post.Text, post.Language)
	if err != nil {
		return nil, fmt.Errorf("classify post type: %w", err)
	}

	postType := a.tax.PostType(c.PrimaryLabel)
	isSpam := a.tax.IsSpamLabel(c.PrimaryLabel) && c.Confidence > a.c.SpamConfidenceThreshold
	helper.Infof("triage: label=%q confidence=%.2f post_type=%s spam=%t", c.PrimaryLabel, c.Confidence, postType, isSpam)

	res := &Result{
		PostID:   post.ID,
		Language: post.Language,
		PostAnalysis: PostAnalysis{
			PostType: postType,
			IsSpam:   isSpam,
		},
	}

	if shouldCheckVeracity(postType, isSpam, a.c.EnableVeracityCheck) {
		v, err := a.gw.AnalyzeVeracity(ctx, post.Text, post.Language)
		if err != nil {
			return nil, fmt.Errorf("analyze veracity: %w", err)
		}
		res.VeracityAnalysis = &VeracityAnalysis{
			Status:             a.tax.VeracityStatus(v.Status),
			Justification:      v.Justification,
			VerificationMethod: v.VerificationMethod,
			Sources:            []Source{},
		}
	}

	if shouldAnalyzeNuance(isSpam, a.c.EnableNuanceAnalysis) {
		nuance, err := a.nuance(ctx, post)
		if err != nil {
			return nil, err
		}
		res.NuanceAnalysis = nuance
	}

	res.AnalysisTimestamp = a.timestamp()
	return res, nil
}

// 只有非垃圾的事实类帖子才做事实核查
func shouldCheckVeracity(postType taxonomy.PostType, isSpam, enabled bool) bool {
	return postType == taxonomy.FactualClaim && !isSpam && enabled
}

func shouldAnalyzeNuance(isSpam, enabled bool) bool {
	return !isSpam && enabled
}

func (a *Analyzer) nuance(ctx context.Context, post Post) (*NuanceAnalysis, error) {
	labels := a.tax.Labels(post.Language)

	political, err := a.gw.AnalyzePoliticalTendency(ctx, post.Text, post.Language)
	if err != nil {
		return nil, fmt.Errorf("analyze political tendency: %w", err)
	}
	intents, err := a.gw.AnalyzeIntents(ctx, post.Text, post.Language)
	if err != nil {
		return nil, fmt.Errorf("analyze intents: %w", err)
	}

	return &NuanceAnalysis{
		PoliticalTendency: PoliticalTendencyAnalysis{
			Primary: a.tax.PoliticalTendency(argmax(political, labels.Political)),
			Scores:  roundScores(political),
		},
		DetectedIntents: a.detectIntents(intents, labels.Intents),
	}, nil
}

// detectIntents 按标签顺序收集分数严格大于阈值的意图，去重
func (a *Analyzer) detectIntents(scores gateway.Scores, labels []string) []taxonomy.Intent {
	detected := make([]taxonomy.Intent, 0, len(labels))
	seen := make(map[taxonomy.Intent]struct{}, len(labels))
	for _, label := range labels {
		if scores[label] <= a.c.IntentConfidenceThreshold {
			continue
		}
		intent := a.tax.Intent(label)
		if _, ok := seen[intent]; ok {
			continue
		}
		seen[intent] = struct{}{}
		detected = append(detected, intent)
	}
	return detected
}

func (a *Analyzer) safeDefault(post Post, err error) *Result {
	msg := fmt.Sprintf("Analysis failed: %v", err)
	return &Result{
		PostID:            post.ID,
		AnalysisTimestamp: a.timestamp(),
		Language:          post.Language,
		PostAnalysis: PostAnalysis{
			PostType: taxonomy.Opinion,
			IsSpam:   false,
		},
		NuanceAnalysis: &NuanceAnalysis{
			PoliticalTendency: PoliticalTendencyAnalysis{
				Primary: taxonomy.Neutral,
				Scores:  map[string]float64{"Neutral": 1.0},
			},
			DetectedIntents: []taxonomy.Intent{taxonomy.Informative},
		},
		ProcessingError: &msg,
	}
}

func (a *Analyzer) timestamp() string {
	return a.now().UTC().Format(TimestampLayout) + "Z"
}

// argmax 按标签集顺序取最大值，并列时取靠前的标签
func argmax(scores gateway.Scores, labels []string) string {
	best := ""
	bestScore := math.Inf(-1)
	for _, label := range labels {
		if s := scores[label]; s > bestScore {
			best, bestScore = label, s
		}
	}
	return best
}

func roundScores(scores gateway.Scores) map[string]float64 {
	out := make(map[string]float64, len(scores))
	for k, v := range scores {
		out[k] = math.Round(v*1e4) / 1e4
	}
	return out
}
