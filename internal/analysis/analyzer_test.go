package analysis

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"strings"
	"testing"
	"time"

	"github.com/go-kratos/kratos/v2/log"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/iWorld-y/post_analyzer/internal/conf"
	"github.com/iWorld-y/post_analyzer/internal/gateway"
	"github.com/iWorld-y/post_analyzer/internal/taxonomy"
)

// fakeGateway 返回预设结果并记录调用顺序
type fakeGateway struct {
	classification *gateway.Classification
	political      gateway.Scores
	intents        gateway.Scores
	verdict        *gateway.Verdict

	classifyErr  error
	politicalErr error
	intentsErr   error
	veracityErr  error
	panicOn      string

	calls []string
}

func (f *fakeGateway) record(op string) {
	f.calls = append(f.calls, op)
	if f.panicOn == op {
		panic("boom in " + op)
	}
}

func (f *fakeGateway) ClassifyPostType(_ context.Context, _ string, _ taxonomy.Language) (*gateway.Classification, error) {
	f.record("classify")
	return f.classification, f.classifyErr
}

func (f *fakeGateway) AnalyzePoliticalTendency(_ context.Context, _ string, _ taxonomy.Language) (gateway.Scores, error) {
	f.record("political")
	return f.political, f.politicalErr
}

func (f *fakeGateway) AnalyzeIntents(_ context.Context, _ string, _ taxonomy.Language) (gateway.Scores, error) {
	f.record("intents")
	return f.intents, f.intentsErr
}

func (f *fakeGateway) AnalyzeVeracity(_ context.Context, _ string, _ taxonomy.Language) (*gateway.Verdict, error) {
	f.record("veracity")
	return f.verdict, f.veracityErr
}

var fixedNow = time.Date(2026, 10, 19, 8, 15, 30, 123456789, time.FixedZone("CEST", 2*60*60))

func newAnalyzer(t *testing.T, gw Gateway, mutate ...func(*conf.Analysis)) *Analyzer {
	t.Helper()
	tax, err := taxonomy.Default()
	require.NoError(t, err)

	c := conf.Default().Analysis
	for _, m := range mutate {
		m(c)
	}
	a := NewAnalyzer(gw, tax, c, log.DefaultLogger)
	a.now = func() time.Time { return fixedNow }
	return a
}

func classified(label string, confidence float64) *gateway.Classification {
	return &gateway.Classification{PrimaryLabel: label, Confidence: confidence, Scores: gateway.Scores{label: confidence}}
}

func englishPolitical(center float64) gateway.Scores {
	return gateway.Scores{
		"Left": 0.1, "Center-Left": 0.1, "Center": center,
		"Center-Right": 0.05, "Right": 0.05, "Neutral": 0.1,
	}
}

func TestFactualClaimRunsAllStages(t *testing.T) {
	gw := &fakeGateway{
		classification: classified("Factual Claim", 0.9),
		verdict:        &gateway.Verdict{Status: "Factually Correct", Justification: "Well established", VerificationMethod: "AI-based analysis"},
		political:      englishPolitical(0.6),
		intents:        gateway.Scores{"Informative": 0.8, "Persuasive": 0.2},
	}
	a := newAnalyzer(t, gw)

	res := a.Analyze(context.Background(), Post{ID: "p1", Text: "Water boils at 100 degrees Celsius at sea level.", Language: taxonomy.English})

	assert.Equal(t, []string{"classify", "veracity", "political", "intents"}, gw.calls)
	assert.Equal(t, "p1", res.PostID)
	assert.Equal(t, taxonomy.English, res.Language)
	assert.Equal(t, PostAnalysis{PostType: taxonomy.FactualClaim, IsSpam: false}, res.PostAnalysis)

	require.NotNil(t, res.VeracityAnalysis)
	assert.Equal(t, taxonomy.FactuallyCorrect, res.VeracityAnalysis.Status)
	assert.Equal(t, "Well established", res.VeracityAnalysis.Justification)
	assert.NotNil(t, res.VeracityAnalysis.Sources)
	assert.Empty(t, res.VeracityAnalysis.Sources)

	require.NotNil(t, res.NuanceAnalysis)
	assert.Equal(t, taxonomy.Center, res.NuanceAnalysis.PoliticalTendency.Primary)
	assert.Equal(t, []taxonomy.Intent{taxonomy.Informative}, res.NuanceAnalysis.DetectedIntents)
	assert.Nil(t, res.ProcessingError)
}

func TestSpamSkipsEverythingElse(t *testing.T) {
	gw := &fakeGateway{classification: classified("Promotion", 0.95)}
	a := newAnalyzer(t, gw)

	res := a.Analyze(context.Background(), Post{ID: "p2", Text: "BUY NOW!!! 90% OFF crypto!!!", Language: taxonomy.English})

	assert.Equal(t, []string{"classify"}, gw.calls)
	assert.Equal(t, PostAnalysis{PostType: taxonomy.Promotion, IsSpam: true}, res.PostAnalysis)
	assert.Nil(t, res.VeracityAnalysis)
	assert.Nil(t, res.NuanceAnalysis)
	assert.Nil(t, res.ProcessingError)
}

func TestGermanSpamLabel(t *testing.T) {
	gw := &fakeGateway{classification: classified("Werbung / Spam", 0.71)}
	a := newAnalyzer(t, gw)

	res := a.Analyze(context.Background(), Post{ID: "p3", Text: "Jetzt kaufen und sparen!", Language: taxonomy.German})

	assert.True(t, res.PostAnalysis.IsSpam)
	assert.Equal(t, taxonomy.Promotion, res.PostAnalysis.PostType)
	assert.Equal(t, taxonomy.German, res.Language)
}

func TestSpamConfidenceBoundary(t *testing.T) {
	cases := []struct {
		confidence float64
		spam       bool
	}{
		{0.7, false},
		{0.7000001, true},
		{0.5, false},
		{1.0, true},
	}
	for _, tc := range cases {
		t.Run(fmt.Sprint(tc.confidence), func(t *testing.T) {
			gw := &fakeGateway{
				classification: classified("Promotion", tc.confidence),
				political:      englishPolitical(0.4),
				intents:        gateway.Scores{"Commercial": 0.9},
			}
			res := newAnalyzer(t, gw).Analyze(context.Background(), Post{ID: "p", Text: "Great deals today only", Language: taxonomy.English})

			assert.Equal(t, tc.spam, res.PostAnalysis.IsSpam)
			assert.Equal(t, taxonomy.Promotion, res.PostAnalysis.PostType)
			assert.Equal(t, tc.spam, res.NuanceAnalysis == nil)
		})
	}
}

func TestVeracityGate(t *testing.T) {
	for _, factual := range []bool{true, false} {
		for _, spam := range []bool{true, false} {
			for _, enabled := range []bool{true, false} {
				postType := taxonomy.Opinion
				if factual {
					postType = taxonomy.FactualClaim
				}
				want := factual && !spam && enabled
				assert.Equal(t, want, shouldCheckVeracity(postType, spam, enabled),
					"factual=%t spam=%t enabled=%t", factual, spam, enabled)
			}
		}
	}
}

func TestNuanceGate(t *testing.T) {
	assert.True(t, shouldAnalyzeNuance(false, true))
	assert.False(t, shouldAnalyzeNuance(true, true))
	assert.False(t, shouldAnalyzeNuance(false, false))
	assert.False(t, shouldAnalyzeNuance(true, false))
}

func TestVeracityCheckDisabled(t *testing.T) {
	gw := &fakeGateway{
		classification: classified("Factual Claim", 0.9),
		political:      englishPolitical(0.5),
		intents:        gateway.Scores{},
	}
	a := newAnalyzer(t, gw, func(c *conf.Analysis) { c.EnableVeracityCheck = false })

	res := a.Analyze(context.Background(), Post{ID: "v", Text: "The Eiffel Tower is in Paris", Language: taxonomy.English})

	assert.Equal(t, []string{"classify", "political", "intents"}, gw.calls)
	assert.Nil(t, res.VeracityAnalysis)
	assert.NotNil(t, res.NuanceAnalysis)
}

func TestNuanceGateFlag(t *testing.T) {
	gw := &fakeGateway{classification: classified("Opinion", 0.8)}
	a := newAnalyzer(t, gw, func(c *conf.Analysis) { c.EnableNuanceAnalysis = false })

	res := a.Analyze(context.Background(), Post{ID: "n", Text: "I think pineapple belongs on pizza", Language: taxonomy.English})

	assert.Equal(t, []string{"classify"}, gw.calls)
	assert.Nil(t, res.NuanceAnalysis)
	assert.Nil(t, res.VeracityAnalysis)
}

func TestOpinionSkipsVeracity(t *testing.T) {
	gw := &fakeGateway{
		classification: classified("Opinion", 0.8),
		political:      englishPolitical(0.2),
		intents:        gateway.Scores{"Persuasive": 0.6, "Provocative": 0.31, "Satirical": 0.3},
	}
	res := newAnalyzer(t, gw).Analyze(context.Background(), Post{ID: "o", Text: "Taxes should be lower for everyone", Language: taxonomy.English})

	assert.Equal(t, []string{"classify", "political", "intents"}, gw.calls)
	assert.Nil(t, res.VeracityAnalysis)
	require.NotNil(t, res.NuanceAnalysis)
	assert.Equal(t, []taxonomy.Intent{taxonomy.Persuasive, taxonomy.Provocative}, res.NuanceAnalysis.DetectedIntents)
}

func TestUnknownLabelsUseFallbacks(t *testing.T) {
	gw := &fakeGateway{
		classification: classified("Rant", 0.99),
		political:      gateway.Scores{},
		intents:        gateway.Scores{},
	}
	res := newAnalyzer(t, gw).Analyze(context.Background(), Post{ID: "u", Text: "Something unusual happened", Language: taxonomy.English})

	assert.Equal(t, taxonomy.Opinion, res.PostAnalysis.PostType)
	assert.False(t, res.PostAnalysis.IsSpam)
	require.NotNil(t, res.NuanceAnalysis)
	// 全为 0 时第一个标签胜出
	assert.Equal(t, taxonomy.Left, res.NuanceAnalysis.PoliticalTendency.Primary)
	assert.NotNil(t, res.NuanceAnalysis.DetectedIntents)
	assert.Empty(t, res.NuanceAnalysis.DetectedIntents)
}

func TestUnknownVeracityStatus(t *testing.T) {
	gw := &fakeGateway{
		classification: classified("Factual Claim", 0.9),
		verdict:        &gateway.Verdict{Status: "factually correct", Justification: "x", VerificationMethod: "y"},
		political:      englishPolitical(0.5),
		intents:        gateway.Scores{},
	}
	res := newAnalyzer(t, gw).Analyze(context.Background(), Post{ID: "s", Text: "The moon orbits the earth", Language: taxonomy.English})

	require.NotNil(t, res.VeracityAnalysis)
	assert.Equal(t, taxonomy.Unverifiable, res.VeracityAnalysis.Status)
}

func TestPoliticalArgmaxTieAndRounding(t *testing.T) {
	gw := &fakeGateway{
		classification: classified("Opinion", 0.6),
		political: gateway.Scores{
			"Left": 0.123456, "Center-Left": 0.4, "Center": 0.4,
			"Center-Right": 0.0, "Right": 0.07654, "Neutral": 0.0,
		},
		intents: gateway.Scores{},
	}
	res := newAnalyzer(t, gw).Analyze(context.Background(), Post{ID: "t", Text: "A balanced take on policy", Language: taxonomy.English})

	p := res.NuanceAnalysis.PoliticalTendency
	assert.Equal(t, taxonomy.CenterLeft, p.Primary)
	assert.Equal(t, 0.1235, p.Scores["Left"])
	assert.Equal(t, 0.0765, p.Scores["Right"])
	assert.Equal(t, 0.4, p.Scores["Center"])
	assert.Len(t, p.Scores, 6)
}

func TestIntentThreshold(t *testing.T) {
	gw := &fakeGateway{
		classification: classified("Meinungsäußerung", 0.8),
		political:      gateway.Scores{"Politisch Rechts": 0.9},
		intents: gateway.Scores{
			"Informativ": 0.3, "Überzeugend": 0.30001, "Satirisch": 0.9,
			"Provozierend": 0.1, "Kommerziell": 0.5, "Unterhaltend": 0.31,
			// 不在德语标签集中，按标签集遍历时不会被读取
			"Informative": 0.99,
		},
	}
	res := newAnalyzer(t, gw).Analyze(context.Background(), Post{ID: "d", Text: "Ein satirischer Beitrag", Language: taxonomy.German})

	assert.Equal(t, taxonomy.Opinion, res.PostAnalysis.PostType)
	require.NotNil(t, res.NuanceAnalysis)
	assert.Equal(t, taxonomy.Right, res.NuanceAnalysis.PoliticalTendency.Primary)
	assert.Equal(t, []taxonomy.Intent{
		taxonomy.Persuasive, taxonomy.Satirical, taxonomy.Commercial, taxonomy.Entertaining,
	}, res.NuanceAnalysis.DetectedIntents)
}

func TestEnglishLabelInGermanRequest(t *testing.T) {
	gw := &fakeGateway{
		classification: classified("Factual Claim", 0.9),
		verdict:        &gateway.Verdict{Status: "Untruth"},
		political:      gateway.Scores{},
		intents:        gateway.Scores{},
	}
	res := newAnalyzer(t, gw).Analyze(context.Background(), Post{ID: "x", Text: "Die Erde ist flach.", Language: taxonomy.German})

	// 查找表跨语言共享
	assert.Equal(t, taxonomy.FactualClaim, res.PostAnalysis.PostType)
	require.NotNil(t, res.VeracityAnalysis)
	assert.Equal(t, taxonomy.Untruth, res.VeracityAnalysis.Status)
}

func assertSafeDefault(t *testing.T, res *Result, errText string) {
	t.Helper()
	require.NotNil(t, res.ProcessingError)
	assert.True(t, strings.HasPrefix(*res.ProcessingError, "Analysis failed: "), *res.ProcessingError)
	assert.Contains(t, *res.ProcessingError, errText)
	assert.Equal(t, PostAnalysis{PostType: taxonomy.Opinion, IsSpam: false}, res.PostAnalysis)
	assert.Nil(t, res.VeracityAnalysis)
	require.NotNil(t, res.NuanceAnalysis)
	assert.Equal(t, taxonomy.Neutral, res.NuanceAnalysis.PoliticalTendency.Primary)
	assert.Equal(t, map[string]float64{"Neutral": 1.0}, res.NuanceAnalysis.PoliticalTendency.Scores)
	assert.Equal(t, []taxonomy.Intent{taxonomy.Informative}, res.NuanceAnalysis.DetectedIntents)
	assert.Equal(t, "2026-10-19T06:15:30.123456Z", res.AnalysisTimestamp)
}

func TestGatewayErrorsProduceSafeDefault(t *testing.T) {
	callErr := fmt.Errorf("%w after 3 attempts: %w", gateway.ErrCallFailed, errors.New("503 overloaded"))

	cases := map[string]*fakeGateway{
		"classify": {classifyErr: callErr},
		"veracity": {
			classification: classified("Factual Claim", 0.9),
			veracityErr:    callErr,
		},
		"political": {
			classification: classified("Opinion", 0.9),
			politicalErr:   callErr,
		},
		"intents": {
			classification: classified("Question", 0.9),
			political:      englishPolitical(0.5),
			intentsErr:     callErr,
		},
	}
	for name, gw := range cases {
		t.Run(name, func(t *testing.T) {
			res := newAnalyzer(t, gw).Analyze(context.Background(), Post{ID: "e-" + name, Text: "Some text to analyze", Language: taxonomy.English})

			assert.Equal(t, "e-"+name, res.PostID)
			assertSafeDefault(t, res, "503 overloaded")
			assert.Equal(t, name, gw.calls[len(gw.calls)-1])
		})
	}
}

func TestPanicProducesSafeDefault(t *testing.T) {
	gw := &fakeGateway{
		classification: classified("Opinion", 0.9),
		panicOn:        "political",
	}
	res := newAnalyzer(t, gw).Analyze(context.Background(), Post{ID: "boom", Text: "Some text to analyze", Language: taxonomy.English})

	assertSafeDefault(t, res, "boom in political")
	assert.Equal(t, "boom", res.PostID)
}

func TestNilClassificationIsCaught(t *testing.T) {
	res := newAnalyzer(t, &fakeGateway{}).Analyze(context.Background(), Post{ID: "nil", Text: "Some text to analyze", Language: taxonomy.English})

	assertSafeDefault(t, res, "")
}

func TestUnconfiguredGatewayEndToEnd(t *testing.T) {
	tax, err := taxonomy.Default()
	require.NoError(t, err)
	a := NewAnalyzer(gateway.New(nil, tax), tax, conf.Default().Analysis, log.DefaultLogger)

	res := a.Analyze(context.Background(), Post{ID: "health", Text: "test", Language: taxonomy.English})

	assert.Nil(t, res.ProcessingError)
	// 均匀分布下第一个标签 Factual Claim 胜出，置信度 0.2 不构成垃圾
	assert.Equal(t, taxonomy.FactualClaim, res.PostAnalysis.PostType)
	assert.False(t, res.PostAnalysis.IsSpam)
	require.NotNil(t, res.VeracityAnalysis)
	assert.Equal(t, taxonomy.Unverifiable, res.VeracityAnalysis.Status)
	assert.Equal(t, "Analysis not available", res.VeracityAnalysis.Justification)
	require.NotNil(t, res.NuanceAnalysis)
	assert.Equal(t, taxonomy.Left, res.NuanceAnalysis.PoliticalTendency.Primary)
	assert.Equal(t, 0.1667, res.NuanceAnalysis.PoliticalTendency.Scores["Neutral"])
	assert.Empty(t, res.NuanceAnalysis.DetectedIntents)
}

func TestTimestampFormat(t *testing.T) {
	gw := &fakeGateway{classification: classified("Promotion", 0.99)}
	a := newAnalyzer(t, gw)
	a.now = func() time.Time { return time.Date(2026, 1, 2, 3, 4, 5, 0, time.UTC) }

	res := a.Analyze(context.Background(), Post{ID: "ts", Text: "Buy buy buy buy", Language: taxonomy.English})
	assert.Equal(t, "2026-01-02T03:04:05.000000Z", res.AnalysisTimestamp)
}

func TestResultJSON(t *testing.T) {
	gw := &fakeGateway{classification: classified("Promotion", 0.99)}
	res := newAnalyzer(t, gw).Analyze(context.Background(), Post{ID: "j", Text: "Buy buy buy buy", Language: taxonomy.English})

	raw, err := json.Marshal(res)
	require.NoError(t, err)
	assert.JSONEq(t, `{
		"post_id": "j",
		"analysis_timestamp": "2026-10-19T06:15:30.123456Z",
		"language": "en",
		"post_analysis": {"post_type": "Promotion", "is_spam": true},
		"veracity_analysis": null,
		"nuance_analysis": null,
		"processing_error": null
	}`, string(raw))
}
