package conf

import (
	"fmt"
	"net"
	"os"
	"strconv"
	"time"
)

// Bootstrap 服务的全部配置，启动时加载一次，之后只读
type Bootstrap struct {
	App         *App         `json:"app"`
	Server      *Server      `json:"server"`
	Llm         *LLM         `json:"llm"`
	LocalLlm    *LocalLLM    `json:"local_llm"`
	Analysis    *Analysis    `json:"analysis"`
	Concurrency *Concurrency `json:"concurrency"`
	Log         *Log         `json:"log"`
}

// App 服务元信息，由 main 在启动时填充
type App struct {
	Name    string `json:"name"`
	Version string `json:"version"`
}

type Server struct {
	Http *HTTP `json:"http"`
}

type HTTP struct {
	Addr    string `json:"addr"`
	Timeout string `json:"timeout"`
}

// LLM Anthropic 相关配置
type LLM struct {
	ApiKey      string  `json:"api_key"`
	BaseUrl     string  `json:"base_url"`
	Model       string  `json:"model"`
	Timeout     string  `json:"timeout"`
	MaxAttempts int32   `json:"max_attempts"`
	MaxTokens   int64   `json:"max_tokens"`
	Temperature float64 `json:"temperature"`
}

// LocalLLM 本地模型路由（OpenAI 兼容接口，例如 Ollama）
type LocalLLM struct {
	Enabled bool   `json:"enabled"`
	Url     string `json:"url"`
	Model   string `json:"model"`
	Timeout int32  `json:"timeout"` // 秒
}

// Analysis 功能开关、阈值与标签分类文件
type Analysis struct {
	EnableAdvancedAnalysis    bool    `json:"enable_advanced_analysis"`
	EnableVeracityCheck       bool    `json:"enable_veracity_check"`
	EnableNuanceAnalysis      bool    `json:"enable_nuance_analysis"`
	SpamConfidenceThreshold   float64 `json:"spam_confidence_threshold"`
	IntentConfidenceThreshold float64 `json:"intent_confidence_threshold"`
	TaxonomyFile              string  `json:"taxonomy_file"`
}

// Concurrency 并发控制配置
type Concurrency struct {
	Qps int32 `json:"qps"`
	Rpm int32 `json:"rpm"`
}

type Log struct {
	Level string `json:"level"`
	File  string `json:"file"`
}

// Default 返回默认配置，配置文件中出现的字段会覆盖这些值
func Default() *Bootstrap {
	return &Bootstrap{
		App: &App{Name: "post_analyzer", Version: "2.0.0"},
		Server: &Server{Http: &HTTP{
			Addr:    "127.0.0.1:8000",
			Timeout: "300s",
		}},
		Llm: &LLM{
			Model:       "claude-3-5-sonnet-20241022",
			Timeout:     "60s",
			MaxAttempts: 3,
			MaxTokens:   1000,
			Temperature: 0.1,
		},
		LocalLlm: &LocalLLM{
			Model:   "llama3.2",
			Timeout: 30,
		},
		Analysis: &Analysis{
			EnableAdvancedAnalysis:    true,
			EnableVeracityCheck:       true,
			EnableNuanceAnalysis:      true,
			SpamConfidenceThreshold:   0.7,
			IntentConfidenceThreshold: 0.3,
		},
		Concurrency: &Concurrency{Qps: 5, Rpm: 0},
		Log:         &Log{Level: "info"},
	}
}

// ApplyEnvOverrides 用环境变量覆盖配置，变量名与原服务保持一致
func (b *Bootstrap) ApplyEnvOverrides() error {
	if v, ok := lookup("ANTHROPIC_API_KEY"); ok {
		b.Llm.ApiKey = v
	}
	if v, ok := lookup("CLAUDE_MODEL"); ok {
		b.Llm.Model = v
	}

	flags := []struct {
		key string
		dst *bool
	}{
		{"ENABLE_ADVANCED_ANALYSIS", &b.Analysis.EnableAdvancedAnalysis},
		{"ENABLE_VERACITY_CHECK", &b.Analysis.EnableVeracityCheck},
		{"ENABLE_NUANCE_ANALYSIS", &b.Analysis.EnableNuanceAnalysis},
		{"USE_LOCAL_LLM", &b.LocalLlm.Enabled},
	}
	for _, f := range flags {
		v, ok := lookup(f.key)
		if !ok {
			continue
		}
		parsed, err := strconv.ParseBool(v)
		if err != nil {
			return fmt.Errorf("invalid %s: %w", f.key, err)
		}
		*f.dst = parsed
	}

	thresholds := []struct {
		key string
		dst *float64
	}{
		{"SPAM_CONFIDENCE_THRESHOLD", &b.Analysis.SpamConfidenceThreshold},
		{"INTENT_CONFIDENCE_THRESHOLD", &b.Analysis.IntentConfidenceThreshold},
	}
	for _, t := range thresholds {
		v, ok := lookup(t.key)
		if !ok {
			continue
		}
		parsed, err := strconv.ParseFloat(v, 64)
		if err != nil {
			return fmt.Errorf("invalid %s: %w", t.key, err)
		}
		*t.dst = parsed
	}

	if v, ok := lookup("LOCAL_LLM_URL"); ok {
		b.LocalLlm.Url = v
	}
	if v, ok := lookup("LOCAL_LLM_MODEL"); ok {
		b.LocalLlm.Model = v
	}
	if v, ok := lookup("LOCAL_LLM_TIMEOUT"); ok {
		parsed, err := strconv.ParseInt(v, 10, 32)
		if err != nil {
			return fmt.Errorf("invalid LOCAL_LLM_TIMEOUT: %w", err)
		}
		b.LocalLlm.Timeout = int32(parsed)
	}

	host, hostSet := lookup("API_HOST")
	port, portSet := lookup("API_PORT")
	if hostSet || portSet {
		curHost, curPort, err := net.SplitHostPort(b.Server.Http.Addr)
		if err != nil {
			curHost, curPort = "127.0.0.1", "8000"
		}
		if hostSet {
			curHost = host
		}
		if portSet {
			if _, err := strconv.Atoi(port); err != nil {
				return fmt.Errorf("invalid API_PORT: %w", err)
			}
			curPort = port
		}
		b.Server.Http.Addr = net.JoinHostPort(curHost, curPort)
	}

	return nil
}

// Validate 检查配置取值范围
func (b *Bootstrap) Validate() error {
	a := b.Analysis
	if a.SpamConfidenceThreshold < 0 || a.SpamConfidenceThreshold > 1 {
		return fmt.Errorf("spam_confidence_threshold must be within [0,1], got %v", a.SpamConfidenceThreshold)
	}
	if a.IntentConfidenceThreshold < 0 || a.IntentConfidenceThreshold > 1 {
		return fmt.Errorf("intent_confidence_threshold must be within [0,1], got %v", a.IntentConfidenceThreshold)
	}
	if b.Llm.MaxAttempts < 1 {
		return fmt.Errorf("llm.max_attempts must be positive, got %d", b.Llm.MaxAttempts)
	}
	if _, err := b.Llm.AttemptTimeout(); err != nil {
		return err
	}
	if b.Server.Http.Timeout != "" {
		if _, err := time.ParseDuration(b.Server.Http.Timeout); err != nil {
			return fmt.Errorf("invalid server.http.timeout: %w", err)
		}
	}
	if b.LocalLlm.Enabled && b.LocalLlm.Url == "" {
		return fmt.Errorf("local_llm.url is required when local_llm is enabled")
	}
	return nil
}

// AttemptTimeout 单次模型调用的超时时间，空串表示不限制
func (c *LLM) AttemptTimeout() (time.Duration, error) {
	if c.Timeout == "" {
		return 0, nil
	}
	d, err := time.ParseDuration(c.Timeout)
	if err != nil {
		return 0, fmt.Errorf("invalid llm.timeout: %w", err)
	}
	return d, nil
}

func lookup(key string) (string, bool) {
	v, ok := os.LookupEnv(key)
	if !ok || v == "" {
		return "", false
	}
	return v, true
}
