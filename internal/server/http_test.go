package server

import (
	"encoding/json"
	nethttp "net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/go-kratos/kratos/v2/log"
	"github.com/go-kratos/kratos/v2/transport/http"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/iWorld-y/post_analyzer/internal/analysis"
	"github.com/iWorld-y/post_analyzer/internal/conf"
	"github.com/iWorld-y/post_analyzer/internal/gateway"
	"github.com/iWorld-y/post_analyzer/internal/service"
	"github.com/iWorld-y/post_analyzer/internal/taxonomy"
)

// newTestServer 使用未配置模型后端的 gateway，所有分析返回确定的默认结果
func newTestServer(t *testing.T) *http.Server {
	t.Helper()
	bc := conf.Default()
	logger := log.DefaultLogger

	tax, err := NewTaxonomy(bc.Analysis)
	require.NoError(t, err)
	gw, err := gateway.NewGateway(nil, tax, bc.Llm, bc.Concurrency, logger)
	require.NoError(t, err)
	a := analysis.NewAnalyzer(gw, tax, bc.Analysis, logger)
	svc := service.NewAnalyzerService(a, tax, bc.App, bc.Analysis, bc.Llm, bc.LocalLlm, logger)

	return NewHTTPServer(bc.Server, svc, logger)
}

func do(t *testing.T, srv *http.Server, method, path, body string) *httptest.ResponseRecorder {
	t.Helper()
	req := httptest.NewRequest(method, path, strings.NewReader(body))
	if body != "" {
		req.Header.Set("Content-Type", "application/json")
	}
	rec := httptest.NewRecorder()
	srv.ServeHTTP(rec, req)
	return rec
}

func TestHealthEndpoint(t *testing.T) {
	rec := do(t, newTestServer(t), nethttp.MethodGet, "/", "")
	require.Equal(t, nethttp.StatusOK, rec.Code, rec.Body.String())

	var reply map[string]any
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &reply))
	assert.Equal(t, "operational", reply["status"])
	assert.Equal(t, "2.0.0", reply["version"])
	assert.Regexp(t, `^\d{4}-\d{2}-\d{2}T\d{2}:\d{2}:\d{2}\.\d{6}Z$`, reply["timestamp"])
}

func TestConfigEndpoint(t *testing.T) {
	rec := do(t, newTestServer(t), nethttp.MethodGet, "/config", "")
	require.Equal(t, nethttp.StatusOK, rec.Code, rec.Body.String())

	assert.JSONEq(t, `{
		"enable_advanced_analysis": true,
		"enable_veracity_check": true,
		"enable_nuance_analysis": true,
		"claude_model": "claude-3-5-sonnet-20241022",
		"use_local_llm": false,
		"local_llm_model": "llama3.2"
	}`, rec.Body.String())
}

func TestEvaluateEndpoint(t *testing.T) {
	srv := newTestServer(t)

	rec := do(t, srv, nethttp.MethodPost, "/evaluate", `{"post_id": "test_002", "post_text": "Das Wetter ist heute schön.", "language": "de"}`)
	require.Equal(t, nethttp.StatusOK, rec.Code, rec.Body.String())

	var res analysis.Result
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &res))
	assert.Equal(t, "test_002", res.PostID)
	assert.Equal(t, taxonomy.German, res.Language)
	assert.Nil(t, res.ProcessingError)
	// 均匀默认分布下首个标签为 Faktische Behauptung，置信度 0.2
	assert.Equal(t, taxonomy.FactualClaim, res.PostAnalysis.PostType)
	assert.False(t, res.PostAnalysis.IsSpam)
	require.NotNil(t, res.VeracityAnalysis)
	assert.Equal(t, taxonomy.Unverifiable, res.VeracityAnalysis.Status)
	require.NotNil(t, res.NuanceAnalysis)
	assert.Len(t, res.NuanceAnalysis.PoliticalTendency.Scores, 6)
	assert.Contains(t, res.NuanceAnalysis.PoliticalTendency.Scores, "Politisch Neutral")
}

func TestEvaluateEndpointDefaultsLanguage(t *testing.T) {
	rec := do(t, newTestServer(t), nethttp.MethodPost, "/evaluate", `{"post_id": "test_001", "post_text": "The weather is nice today."}`)
	require.Equal(t, nethttp.StatusOK, rec.Code, rec.Body.String())

	var res map[string]any
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &res))
	assert.Equal(t, "en", res["language"])
	assert.Contains(t, res, "processing_error")
	assert.Nil(t, res["processing_error"])
}

func TestEvaluateEndpointValidation(t *testing.T) {
	cases := map[string]string{
		"short text":       `{"post_id": "1", "post_text": "short"}`,
		"missing post_id":  `{"post_text": "The weather is nice today."}`,
		"invalid language": `{"post_id": "1", "post_text": "The weather is nice today.", "language": "fr"}`,
	}
	srv := newTestServer(t)
	for name, body := range cases {
		t.Run(name, func(t *testing.T) {
			rec := do(t, srv, nethttp.MethodPost, "/evaluate", body)
			assert.Equal(t, 422, rec.Code, rec.Body.String())

			var reply map[string]any
			require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &reply))
			assert.Equal(t, service.ReasonValidationFailed, reply["reason"])
		})
	}
}

func TestEvaluateEndpointMalformedBody(t *testing.T) {
	rec := do(t, newTestServer(t), nethttp.MethodPost, "/evaluate", `{"post_id": `)
	assert.Equal(t, nethttp.StatusBadRequest, rec.Code, rec.Body.String())
}

func TestUnknownRoute(t *testing.T) {
	rec := do(t, newTestServer(t), nethttp.MethodGet, "/nope", "")
	assert.Equal(t, nethttp.StatusNotFound, rec.Code)
}
