package inference

import (
	"context"
	"time"

	"sentimentd/internal/core/vocab"
	"sentimentd/internal/platform/metrics"
)

type instrumented struct{ Engine }

// Instrument records duration and outcome of every ScoreBatch call
func Instrument(e Engine) Engine { return instrumented{Engine: e} }

func (i instrumented) ScoreBatch(ctx context.Context, batch []vocab.Sequence) (Scores, error) {
	kind := string(i.Kind())
	start := time.Now()
	s, err := i.Engine.ScoreBatch(ctx, batch)
	metrics.InferenceDuration.WithLabelValues(kind).Observe(time.Since(start).Seconds())
	metrics.InferenceCallsTotal.WithLabelValues(kind, metrics.Outcome(err)).Inc()
	return s, err
}

// Ping forwards to the wrapped engine
func (i instrumented) Ping(ctx context.Context) error { return Ping(ctx, i.Engine) }

// Unwrap returns the wrapped engine
func (i instrumented) Unwrap() Engine { return i.Engine }

// Base strips Limit and Instrument wrappers
func Base(e Engine) Engine {
	for {
		u, ok := e.(interface{ Unwrap() Engine })
		if !ok {
			return e
		}
		e = u.Unwrap()
	}
}
