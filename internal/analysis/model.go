package analysis

import "github.com/iWorld-y/post_analyzer/internal/taxonomy"

// Post 待分析的帖子
type Post struct {
	ID       string            `json:"post_id"`
	Text     string            `json:"post_text"`
	Language taxonomy.Language `json:"language"`
}

// Source 事实核查引用的来源，目前始终为空列表
type Source struct {
	Title   string `json:"title"`
	URL     string `json:"url"`
	Snippet string `json:"snippet"`
}

// PostAnalysis 分诊结果
type PostAnalysis struct {
	PostType taxonomy.PostType `json:"post_type"`
	IsSpam   bool              `json:"is_spam"`
}

// VeracityAnalysis 事实核查结果
type VeracityAnalysis struct {
	Status             taxonomy.VeracityStatus `json:"status"`
	Justification      string                  `json:"justification"`
	VerificationMethod string                  `json:"verification_method"`
	Sources            []Source                `json:"sources"`
}

// PoliticalTendencyAnalysis Scores 的键为模型使用的原始标签
type PoliticalTendencyAnalysis struct {
	Primary taxonomy.PoliticalTendency `json:"primary"`
	Scores  map[string]float64         `json:"scores"`
}

// NuanceAnalysis 政治倾向与意图
type NuanceAnalysis struct {
	PoliticalTendency PoliticalTendencyAnalysis `json:"political_tendency"`
	DetectedIntents   []taxonomy.Intent         `json:"detected_intents"`
}

// Result 一次分析的完整输出，未执行的阶段输出为 null
type Result struct {
	PostID            string            `json:"post_id"`
	AnalysisTimestamp string            `json:"analysis_timestamp"`
	Language          taxonomy.Language `json:"language"`
	PostAnalysis      PostAnalysis      `json:"post_analysis"`
	VeracityAnalysis  *VeracityAnalysis `json:"veracity_analysis"`
	NuanceAnalysis    *NuanceAnalysis   `json:"nuance_analysis"`
	ProcessingError   *string           `json:"processing_error"`
}
