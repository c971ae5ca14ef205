// Package inference scores encoded sequences with a sentiment model
package inference

import (
	"context"
	"fmt"
	"math"
	"strings"

	"sentimentd/internal/core/vocab"
	perr "sentimentd/internal/platform/errors"
)

// Kind selects an engine implementation
type Kind string

const (
	// KindLinear is the in process bag of embeddings model
	KindLinear Kind = "linear"
	// KindRemote is a TensorFlow Serving style REST predictor
	KindRemote Kind = "remote"
)

// Kinds lists every supported engine
func Kinds() []string { return []string{string(KindLinear), string(KindRemote)} }

// ParseKind maps a config string onto a Kind
func ParseKind(s string) (Kind, error) {
	switch k := Kind(strings.ToLower(strings.TrimSpace(s))); k {
	case KindLinear, KindRemote:
		return k, nil
	}
	return "", perr.Configurationf("unknown model kind %q (want one of %s)", s, strings.Join(Kinds(), ", "))
}

// Scores holds one row per input; row width is the engine's Outputs
type Scores [][]float64

// Engine scores a batch of sequences in one call
// implementations never retry and return rows in input order
type Engine interface {
	ScoreBatch(ctx context.Context, batch []vocab.Sequence) (Scores, error)
	// Width is the sequence length the model reads
	Width() int
	// Outputs is the width of each score row, 1 for a sigmoid model
	Outputs() int
	Kind() Kind
}

// Pinger is implemented by engines with a remote dependency
type Pinger interface {
	Ping(ctx context.Context) error
}

// Ping probes e when it has something to probe
func Ping(ctx context.Context, e Engine) error {
	if p, ok := e.(Pinger); ok {
		return p.Ping(ctx)
	}
	return nil
}

// Check validates engine output against the batch it was given
func Check(s Scores, n, outputs int) error {
	if len(s) != n {
		return perr.Inferencef("engine returned %d rows for %d inputs", len(s), n)
	}
	for i, row := range s {
		if len(row) != outputs {
			return perr.Inferencef("row %d has %d scores, want %d", i, len(row), outputs)
		}
		for _, v := range row {
			if math.IsNaN(v) || math.IsInf(v, 0) {
				return perr.Inferencef("row %d has a non finite score", i)
			}
			if v < 0 || v > 1 {
				return perr.Inferencef("row %d score %s is outside [0,1]", i, fmt.Sprint(v))
			}
		}
	}
	return nil
}

func checkBatch(batch []vocab.Sequence, width int) error {
	if len(batch) == 0 {
		return perr.Inferencef("empty batch")
	}
	for i, seq := range batch {
		if len(seq) != width {
			return perr.Inferencef("sequence %d has length %d, model reads %d", i, len(seq), width)
		}
	}
	return nil
}
