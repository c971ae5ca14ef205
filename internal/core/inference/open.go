package inference

import (
	"context"
	"time"

	perr "sentimentd/internal/platform/errors"
)

// Config selects and configures an engine
type Config struct {
	Kind Kind
	// Path is the linear model artifact
	Path string
	// URL, Model and Timeout configure the remote engine
	URL     string
	Model   string
	Timeout time.Duration
	// Width and Outputs describe a remote model
	Width   int
	Outputs int
	Breaker BreakerConfig
	// MaxInFlight bounds concurrent ScoreBatch calls, 0 means unbounded
	MaxInFlight int
}

// Open builds the configured engine, wraps it with metrics and admission control,
// and for a remote engine checks the server answers
func Open(ctx context.Context, cfg Config) (Engine, error) {
	var (
		e   Engine
		err error
	)
	switch cfg.Kind {
	case KindLinear:
		if cfg.Path == "" {
			return nil, perr.Configurationf("linear engine needs a model path")
		}
		e, err = OpenLinear(cfg.Path)
	case KindRemote:
		var r *Remote
		r, err = NewRemote(RemoteConfig{
			URL:     cfg.URL,
			Model:   cfg.Model,
			Timeout: cfg.Timeout,
			Width:   cfg.Width,
			Outputs: cfg.Outputs,
			Breaker: cfg.Breaker,
		})
		if err == nil {
			if pingErr := r.Ping(ctx); pingErr != nil {
				return nil, wrapPing(pingErr)
			}
			e = r
		}
	default:
		_, err = ParseKind(string(cfg.Kind))
	}
	if err != nil {
		return nil, err
	}
	return Limit(Instrument(e), cfg.MaxInFlight), nil
}

func wrapPing(err error) error {
	return perr.Wrap(err, perr.ErrorCodeConfiguration, "model server is not serving the model")
}
