package gateway

import (
	"errors"
	"fmt"
	"strings"

	"github.com/bytedance/sonic"
)

var errMissingKey = errors.New("missing expected key")

type classificationReply struct {
	PrimaryLabel *string           `json:"primary_label"`
	Confidence   *float64          `json:"confidence"`
	Scores       map[string]float64 `json:"scores"`
}

type scoresReply struct {
	Scores map[string]float64 `json:"scores"`
}

type veracityReply struct {
	Status             *string `json:"status"`
	Justification      *string `json:"justification"`
	VerificationMethod *string `json:"verification_method"`
}

// cleanReply 去掉模型常见的 markdown 代码块包裹，以及 JSON 前后的说明文字
func cleanReply(raw string) string {
	content := strings.TrimSpace(raw)
	content = strings.TrimPrefix(content, "```json")
	content = strings.TrimPrefix(content, "```")
	content = strings.TrimSuffix(content, "```")
	content = strings.TrimSpace(content)

	if !strings.HasPrefix(content, "{") {
		start := strings.Index(content, "{")
		end := strings.LastIndex(content, "}")
		if start >= 0 && end > start {
			content = content[start : end+1]
		}
	}
	return content
}

func decode(raw string, v any) error {
	if err := sonic.ConfigStd.UnmarshalFromString(cleanReply(raw), v); err != nil {
		return fmt.Errorf("decode reply: %w", err)
	}
	return nil
}

func parseClassification(raw string, labels []string) (*Classification, error) {
	var reply classificationReply
	if err := decode(raw, &reply); err != nil {
		return nil, err
	}
	if reply.PrimaryLabel == nil {
		return nil, fmt.Errorf("%w: primary_label", errMissingKey)
	}
	if reply.Confidence == nil {
		return nil, fmt.Errorf("%w: confidence", errMissingKey)
	}
	if reply.Scores == nil {
		return nil, fmt.Errorf("%w: scores", errMissingKey)
	}

	return &Classification{
		PrimaryLabel: *reply.PrimaryLabel,
		Confidence:   clamp(*reply.Confidence),
		Scores:       completeScores(reply.Scores, labels),
	}, nil
}

func parseScores(raw string, labels []string) (Scores, error) {
	var reply scoresReply
	if err := decode(raw, &reply); err != nil {
		return nil, err
	}
	if reply.Scores == nil {
		return nil, fmt.Errorf("%w: scores", errMissingKey)
	}
	return completeScores(reply.Scores, labels), nil
}

func parseVeracity(raw string) (*Verdict, error) {
	var reply veracityReply
	if err := decode(raw, &reply); err != nil {
		return nil, err
	}
	if reply.Status == nil {
		return nil, fmt.Errorf("%w: status", errMissingKey)
	}

	v := &Verdict{
		Status:             *reply.Status,
		Justification:      "No analysis available",
		VerificationMethod: "No method specified",
	}
	if reply.Justification != nil {
		v.Justification = *reply.Justification
	}
	if reply.VerificationMethod != nil {
		v.VerificationMethod = *reply.VerificationMethod
	}
	return v, nil
}

// completeScores 只保留当前标签集内的标签，缺失的补 0，不做归一化
func completeScores(parsed map[string]float64, labels []string) Scores {
	scores := make(Scores, len(labels))
	for _, label := range labels {
		scores[label] = parsed[label]
	}
	return scores
}

func clamp(v float64) float64 {
	switch {
	case v < 0:
		return 0
	case v > 1:
		return 1
	default:
		return v
	}
}
