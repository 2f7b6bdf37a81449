package server

import (
	"github.com/google/wire"

	"github.com/iWorld-y/post_analyzer/internal/analysis"
	"github.com/iWorld-y/post_analyzer/internal/conf"
	"github.com/iWorld-y/post_analyzer/internal/gateway"
	"github.com/iWorld-y/post_analyzer/internal/llm"
	"github.com/iWorld-y/post_analyzer/internal/service"
	"github.com/iWorld-y/post_analyzer/internal/taxonomy"
)

// ProviderSet 是分析服务的依赖注入 Provider 集合
var ProviderSet = wire.NewSet(
	// Server providers
	NewHTTPServer,

	// Backend providers
	NewTaxonomy,
	llm.NewCompleter,
	gateway.NewGateway,
	wire.Bind(new(analysis.Gateway), new(*gateway.Gateway)),

	// UseCase providers
	analysis.NewAnalyzer,
	wire.Bind(new(service.Analyzer), new(*analysis.Analyzer)),

	// Service providers
	service.NewAnalyzerService,
)

// NewTaxonomy 加载配置指定的标签分类文件，未指定时使用内置分类
func NewTaxonomy(c *conf.Analysis) (*taxonomy.Taxonomy, error) {
	return taxonomy.Load(c.TaxonomyFile)
}
