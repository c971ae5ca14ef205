// Package module wires the classify pipeline, history and transport using modkit
package module

import (
	"context"

	"sentimentd/internal/core/decision"
	"sentimentd/internal/core/inference"
	"sentimentd/internal/core/normalize"
	"sentimentd/internal/core/pipeline"
	"sentimentd/internal/core/vocab"
	"sentimentd/internal/modkit"
	"sentimentd/internal/modkit/httpkit"
	perr "sentimentd/internal/platform/errors"
	"sentimentd/internal/platform/logger"
	"sentimentd/internal/platform/net/middleware"
	"sentimentd/internal/services/api/classify/domain"
	classifyhttp "sentimentd/internal/services/api/classify/http"
	"sentimentd/internal/services/api/classify/repo"
	"sentimentd/internal/services/api/classify/service"
)

// Module implements the module.Module interface
type Module struct {
	b     modkit.Built
	opt   Options
	svc   *service.Svc
	ports Ports
}

// New loads the vocabulary and model, opens history and builds the service
// every failure here is a configuration error and should stop the process
func New(ctx context.Context, deps modkit.Deps, o Options, opts ...modkit.Option) (*Module, error) {
	b := modkit.Build(append([]modkit.Option{
		modkit.WithName("classify"),
		modkit.WithPrefix("/classify"),
		modkit.WithMiddlewares(middleware.AllowContentType("application/json")),
	}, opts...)...)

	parts, v, err := buildParts(ctx, o)
	if err != nil {
		return nil, err
	}
	pipe, err := pipeline.New(pipeline.Config{
		SequenceLength: o.Engine.Width,
		MaxTextLength:  o.MaxTextLength,
	}, parts)
	if err != nil {
		return nil, err
	}

	history, err := repo.Open(ctx, o.History, deps)
	if err != nil {
		return nil, err
	}

	svc := service.New(pipe, history, service.Options{
		MaxItems: o.MaxItems,
		Timeout:  o.Timeout,
		Model: domain.ModelInfo{
			Engine:         string(parts.Engine.Kind()),
			SequenceLength: pipe.Config().SequenceLength,
			Outputs:        parts.Engine.Outputs(),
			Labels:         pipe.Labels(),
			Threshold:      threshold(parts.Policy),
			Language:       o.Language,
			Stem:           o.Stem,
			Fold:           o.Fold,
			VocabSize:      v.Size(),
			NumWords:       v.NumWords(),
			MaxTextLength:  pipe.Config().MaxTextLength,
			MaxItems:       o.MaxItems,
		},
	})

	logger.Named("classify").Info().
		Str("engine", string(parts.Engine.Kind())).
		Int("sequence_length", pipe.Config().SequenceLength).
		Strs("labels", pipe.Labels()).
		Int("vocab_size", v.Size()).
		Str("history", history.Backend()).
		Msg("classifier ready")

	m := &Module{b: b, opt: o, svc: svc}
	m.ports = Ports{
		Service: svc,
		Checks: []Check{
			{Name: "history", Ping: svc.Ping},
			{Name: "model", Ping: func(ctx context.Context) error { return inference.Ping(ctx, parts.Engine) }},
		},
	}
	return m, nil
}

func buildParts(ctx context.Context, o Options) (pipeline.Parts, *vocab.Vocabulary, error) {
	norm, err := normalize.New(normalize.Options{Language: o.Language, Stem: o.Stem, Fold: o.Fold})
	if err != nil {
		return pipeline.Parts{}, nil, err
	}
	nf, err := normalize.NewCached(norm, o.CacheSize)
	if err != nil {
		return pipeline.Parts{}, nil, err
	}

	if o.VocabPath == "" {
		return pipeline.Parts{}, nil, perr.Configurationf("CORE_CLASSIFY_VOCAB_PATH is required")
	}
	v, err := vocab.Load(o.VocabPath)
	if err != nil {
		return pipeline.Parts{}, nil, err
	}

	engine, err := inference.Open(ctx, o.Engine)
	if err != nil {
		return pipeline.Parts{}, nil, err
	}
	if lin, ok := inference.Base(engine).(*inference.Linear); ok && int(v.MaxIndex()) >= lin.Rows() {
		return pipeline.Parts{}, nil, perr.Configurationf("vocabulary index %d is outside the model's %d embedding rows", v.MaxIndex(), lin.Rows())
	}

	policy, err := decision.New(o.Labels, engine.Outputs(), o.Threshold)
	if err != nil {
		return pipeline.Parts{}, nil, err
	}
	return pipeline.Parts{Normalizer: nf, Encoder: v, Engine: engine, Policy: policy}, v, nil
}

func threshold(p decision.Policy) float64 {
	if b, ok := p.(*decision.Binary); ok {
		return b.Threshold()
	}
	return 0
}

// MountRoutes implements the module.Module interface
func (m *Module) MountRoutes(r httpkit.Router) {
	m.b.Mount(r, func(rr httpkit.Router) {
		classifyhttp.Register(rr, m.svc, m.opt.MaxBody)
	})
}

// Name implements the module.Module interface
func (m *Module) Name() string { return m.b.Name }

// Service returns the classify service for non http callers
func (m *Module) Service() *service.Svc { return m.svc }
