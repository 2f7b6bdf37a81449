package server

import (
	"context"
	"time"

	"github.com/go-kratos/kratos/v2/log"
	"github.com/go-kratos/kratos/v2/middleware/logging"
	"github.com/go-kratos/kratos/v2/middleware/recovery"
	"github.com/go-kratos/kratos/v2/transport/http"

	"github.com/iWorld-y/post_analyzer/internal/conf"
	"github.com/iWorld-y/post_analyzer/internal/service"
)

const (
	OperationAnalyzerHealth   = "/analyzer.v1.Analyzer/Health"
	OperationAnalyzerEvaluate = "/analyzer.v1.Analyzer/Evaluate"
	OperationAnalyzerConfig   = "/analyzer.v1.Analyzer/Config"
)

func NewHTTPServer(c *conf.Server, s *service.AnalyzerService, logger log.Logger) *http.Server {
	var opts = []http.ServerOption{
		http.Middleware(
			recovery.Recovery(),
			logging.Server(logger),
		),
	}
	if c.Http.Addr != "" {
		opts = append(opts, http.Address(c.Http.Addr))
	}
	if c.Http.Timeout != "" {
		if d, err := time.ParseDuration(c.Http.Timeout); err == nil {
			opts = append(opts, http.Timeout(d))
		}
	}

	srv := http.NewServer(opts...)
	registerAnalyzerHTTPServer(srv, s)
	return srv
}

func registerAnalyzerHTTPServer(srv *http.Server, s *service.AnalyzerService) {
	r := srv.Route("/")
	r.GET("/", healthHandler(s))
	r.POST("/evaluate", evaluateHandler(s))
	r.GET("/config", configHandler(s))
}

func healthHandler(s *service.AnalyzerService) func(ctx http.Context) error {
	return func(ctx http.Context) error {
		http.SetOperation(ctx, OperationAnalyzerHealth)
		h := ctx.Middleware(func(ctx context.Context, _ interface{}) (interface{}, error) {
			return s.Health(ctx)
		})
		out, err := h(ctx, nil)
		if err != nil {
			return err
		}
		return ctx.Result(200, out)
	}
}

func evaluateHandler(s *service.AnalyzerService) func(ctx http.Context) error {
	return func(ctx http.Context) error {
		var in service.EvaluateRequest
		if err := ctx.Bind(&in); err != nil {
			return err
		}
		http.SetOperation(ctx, OperationAnalyzerEvaluate)
		h := ctx.Middleware(func(ctx context.Context, req interface{}) (interface{}, error) {
			return s.Evaluate(ctx, req.(*service.EvaluateRequest))
		})
		out, err := h(ctx, &in)
		if err != nil {
			return err
		}
		return ctx.Result(200, out)
	}
}

func configHandler(s *service.AnalyzerService) func(ctx http.Context) error {
	return func(ctx http.Context) error {
		http.SetOperation(ctx, OperationAnalyzerConfig)
		h := ctx.Middleware(func(ctx context.Context, _ interface{}) (interface{}, error) {
			return s.Config(ctx)
		})
		out, err := h(ctx, nil)
		if err != nil {
			return err
		}
		return ctx.Result(200, out)
	}
}
