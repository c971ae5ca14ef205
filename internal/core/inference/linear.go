package inference

import (
	"context"
	"encoding/json"
	"fmt"
	"math"
	"os"
	"path/filepath"
	"strings"

	"sentimentd/internal/core/vocab"
	perr "sentimentd/internal/platform/errors"

	"gopkg.in/yaml.v3"
)

// Artifact is the on disk form of a linear model
// Weights is an embedding table indexed by token id; row 0 belongs to padding and is never read
type Artifact struct {
	Kind           string      `json:"kind"            yaml:"kind"`
	SequenceLength int         `json:"sequence_length" yaml:"sequence_length"`
	Outputs        int         `json:"outputs"         yaml:"outputs"`
	Bias           []float64   `json:"bias"            yaml:"bias"`
	Weights        [][]float64 `json:"weights"         yaml:"weights"`
}

// LoadArtifact reads a .json, .yaml or .yml model file
func LoadArtifact(path string) (Artifact, error) {
	var a Artifact
	raw, err := os.ReadFile(path)
	if err != nil {
		return a, perr.Wrapf(err, perr.ErrorCodeConfiguration, "read model %s", path)
	}
	switch strings.ToLower(filepath.Ext(path)) {
	case ".json":
		err = json.Unmarshal(raw, &a)
	case ".yaml", ".yml":
		err = yaml.Unmarshal(raw, &a)
	default:
		return a, perr.Configurationf("model %s: unsupported extension", path)
	}
	if err != nil {
		return a, perr.Wrapf(err, perr.ErrorCodeConfiguration, "parse model %s", path)
	}
	return a, nil
}

// Linear averages the embeddings of non padding tokens and applies sigmoid or softmax
type Linear struct {
	width   int
	outputs int
	bias    []float64
	weights [][]float64
}

// NewLinear validates a and builds the engine
func NewLinear(a Artifact) (*Linear, error) {
	switch {
	case a.Kind != "" && Kind(a.Kind) != KindLinear:
		return nil, perr.Configurationf("model kind %q is not linear", a.Kind)
	case a.SequenceLength <= 0:
		return nil, perr.Configurationf("model sequence_length %d must be positive", a.SequenceLength)
	case a.Outputs <= 0:
		return nil, perr.Configurationf("model outputs %d must be positive", a.Outputs)
	case len(a.Bias) != a.Outputs:
		return nil, perr.Configurationf("model bias has %d values for %d outputs", len(a.Bias), a.Outputs)
	case len(a.Weights) < 2:
		return nil, perr.Configurationf("model weights need a padding row and at least one token row")
	}
	for i, row := range a.Weights {
		if len(row) != a.Outputs {
			return nil, perr.Configurationf("model weights row %d has %d values for %d outputs", i, len(row), a.Outputs)
		}
	}
	return &Linear{width: a.SequenceLength, outputs: a.Outputs, bias: a.Bias, weights: a.Weights}, nil
}

// OpenLinear loads and validates the artifact at path
func OpenLinear(path string) (*Linear, error) {
	a, err := LoadArtifact(path)
	if err != nil {
		return nil, err
	}
	return NewLinear(a)
}

// Width implements Engine
func (l *Linear) Width() int { return l.width }

// Outputs implements Engine
func (l *Linear) Outputs() int { return l.outputs }

// Kind implements Engine
func (l *Linear) Kind() Kind { return KindLinear }

// Rows is the embedding table size; token ids must stay below it
func (l *Linear) Rows() int { return len(l.weights) }

// ScoreBatch implements Engine
func (l *Linear) ScoreBatch(_ context.Context, batch []vocab.Sequence) (Scores, error) {
	if err := checkBatch(batch, l.width); err != nil {
		return nil, err
	}
	out := make(Scores, len(batch))
	for i, seq := range batch {
		row, err := l.score(seq)
		if err != nil {
			return nil, perr.WithField(err, fmt.Sprintf("batch[%d]", i))
		}
		out[i] = row
	}
	return out, nil
}

func (l *Linear) score(seq vocab.Sequence) ([]float64, error) {
	logits := make([]float64, l.outputs)
	n := 0
	for _, idx := range seq {
		if idx == vocab.Pad {
			continue
		}
		if idx < 0 || int(idx) >= len(l.weights) {
			return nil, perr.Inferencef("token id %d outside embedding table of %d rows", idx, len(l.weights))
		}
		for k, w := range l.weights[idx] {
			logits[k] += w
		}
		n++
	}
	for k := range logits {
		if n > 0 {
			logits[k] /= float64(n)
		}
		logits[k] += l.bias[k]
	}
	if l.outputs == 1 {
		return []float64{sigmoid(logits[0])}, nil
	}
	return softmax(logits), nil
}

func sigmoid(x float64) float64 { return 1 / (1 + math.Exp(-x)) }

func softmax(x []float64) []float64 {
	peak := math.Inf(-1)
	for _, v := range x {
		peak = math.Max(peak, v)
	}
	out := make([]float64, len(x))
	sum := 0.0
	for i, v := range x {
		out[i] = math.Exp(v - peak)
		sum += out[i]
	}
	for i := range out {
		out[i] /= sum
	}
	return out
}
