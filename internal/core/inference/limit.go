package inference

import (
	"context"
	"time"

	"sentimentd/internal/core/vocab"
	perr "sentimentd/internal/platform/errors"
	"sentimentd/internal/platform/metrics"

	"golang.org/x/sync/semaphore"
)

// limited bounds concurrent ScoreBatch calls on the wrapped engine
type limited struct {
	Engine
	sem *semaphore.Weighted
}

// Limit admits at most n concurrent ScoreBatch calls; extra callers wait under their context
// n <= 0 returns e unchanged
func Limit(e Engine, n int) Engine {
	if n <= 0 {
		return e
	}
	return &limited{Engine: e, sem: semaphore.NewWeighted(int64(n))}
}

// ScoreBatch waits for a slot; giving up while waiting is ErrorCodeUnavailable
func (l *limited) ScoreBatch(ctx context.Context, batch []vocab.Sequence) (Scores, error) {
	start := time.Now()
	if err := l.sem.Acquire(ctx, 1); err != nil {
		return nil, perr.Wrap(err, perr.ErrorCodeUnavailable, "no inference slot before deadline")
	}
	metrics.InferenceAdmissionWait.Observe(time.Since(start).Seconds())
	metrics.InferenceInFlight.Inc()
	defer func() {
		metrics.InferenceInFlight.Dec()
		l.sem.Release(1)
	}()
	return l.Engine.ScoreBatch(ctx, batch)
}

// Ping forwards to the wrapped engine
func (l *limited) Ping(ctx context.Context) error { return Ping(ctx, l.Engine) }

// Unwrap returns the wrapped engine
func (l *limited) Unwrap() Engine { return l.Engine }
