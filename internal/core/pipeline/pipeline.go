// Package pipeline runs validation, normalization, encoding, inference and decision for one request
package pipeline

import (
	"context"
	"fmt"
	"strings"
	"unicode/utf8"

	"sentimentd/internal/core/decision"
	"sentimentd/internal/core/inference"
	"sentimentd/internal/core/normalize"
	"sentimentd/internal/core/vocab"
	perr "sentimentd/internal/platform/errors"
)

// DefaultMaxTextLength is the per item limit in code points
const DefaultMaxTextLength = 2024

// Validation rules reported in error messages
const (
	RuleEmpty   = "empty"
	RuleTooLong = "too_long"
)

// Encoder turns normalized text into a fixed length sequence
type Encoder interface {
	Encode(text string, length int) (vocab.Sequence, error)
}

// Config holds the request limits and model geometry
type Config struct {
	// SequenceLength must equal the engine width; 0 takes the engine width
	SequenceLength int
	// MaxTextLength bounds each item in code points; 0 means DefaultMaxTextLength
	MaxTextLength int
}

// Parts are built once at startup and shared by every call
type Parts struct {
	Normalizer normalize.Func
	Encoder    Encoder
	Engine     inference.Engine
	Policy     decision.Policy
}

// Pipeline is safe for concurrent use; it holds no per call state
type Pipeline struct {
	cfg   Config
	parts Parts
}

// New checks the parts agree with each other and with cfg
func New(cfg Config, parts Parts) (*Pipeline, error) {
	switch {
	case parts.Normalizer == nil:
		return nil, perr.Configurationf("pipeline needs a normalizer")
	case parts.Encoder == nil:
		return nil, perr.Configurationf("pipeline needs an encoder")
	case parts.Engine == nil:
		return nil, perr.Configurationf("pipeline needs an inference engine")
	case parts.Policy == nil:
		return nil, perr.Configurationf("pipeline needs a decision policy")
	}
	if cfg.MaxTextLength == 0 {
		cfg.MaxTextLength = DefaultMaxTextLength
	}
	if cfg.MaxTextLength < 0 {
		return nil, perr.Configurationf("max text length %d must be positive", cfg.MaxTextLength)
	}
	width := parts.Engine.Width()
	if cfg.SequenceLength == 0 {
		cfg.SequenceLength = width
	}
	if cfg.SequenceLength <= 0 || cfg.SequenceLength != width {
		return nil, perr.Configurationf("sequence length %d does not match model width %d", cfg.SequenceLength, width)
	}
	if got, want := parts.Policy.Outputs(), parts.Engine.Outputs(); got != want {
		return nil, perr.Configurationf("%d labels for a model with %d outputs", len(parts.Policy.Labels()), want)
	}
	return &Pipeline{cfg: cfg, parts: parts}, nil
}

// Config returns the effective configuration
func (p *Pipeline) Config() Config { return p.cfg }

// Labels returns the policy labels in output order
func (p *Pipeline) Labels() []string { return p.parts.Policy.Labels() }

// Engine returns the engine the pipeline calls
func (p *Pipeline) Engine() inference.Engine { return p.parts.Engine }

// Classify labels every text, in input order
// the whole batch fails on the first invalid item; no label is ever guessed
func (p *Pipeline) Classify(ctx context.Context, texts []string) ([]decision.ScoredLabel, error) {
	if err := p.Validate(texts); err != nil {
		return nil, err
	}

	batch, err := p.preprocess(texts)
	if err != nil {
		return nil, err
	}

	scores, err := p.score(ctx, batch)
	if err != nil {
		return nil, err
	}

	return p.decide(scores)
}

// Validate applies the per item rules without doing any work
func (p *Pipeline) Validate(texts []string) error {
	if len(texts) == 0 {
		return perr.WithOp(perr.Validationf("texts", "at least one text is required"), "pipeline.validate")
	}
	for i, t := range texts {
		field := fmt.Sprintf("texts[%d]", i)
		if t == "" {
			return perr.WithOp(perr.Validationf(field, "%s: text must not be empty", RuleEmpty), "pipeline.validate")
		}
		if n := utf8.RuneCountInString(t); n > p.cfg.MaxTextLength {
			return perr.WithOp(
				perr.Validationf(field, "%s: text has %d characters, limit is %d", RuleTooLong, n, p.cfg.MaxTextLength),
				"pipeline.validate",
			)
		}
	}
	return nil
}

func (p *Pipeline) preprocess(texts []string) (batch []vocab.Sequence, err error) {
	i := 0
	defer func() {
		if r := recover(); r != nil {
			batch = nil
			err = perr.WithField(
				perr.WithOp(perr.Preprocessingf("preprocessing panicked: %v", r), "pipeline.preprocess"),
				fmt.Sprintf("texts[%d]", i),
			)
		}
	}()

	batch = make([]vocab.Sequence, len(texts))
	for ; i < len(texts); i++ {
		norm := p.parts.Normalizer.Normalize(texts[i])
		seq, err := p.parts.Encoder.Encode(norm, p.cfg.SequenceLength)
		if err != nil {
			if !perr.IsPreprocessing(err) {
				err = perr.Wrap(err, perr.ErrorCodePreprocessing, "encode")
			}
			return nil, perr.WithField(perr.WithOp(err, "pipeline.encode"), fmt.Sprintf("texts[%d]", i))
		}
		if len(seq) != p.cfg.SequenceLength {
			return nil, perr.WithField(
				perr.WithOp(perr.Preprocessingf("encoder returned %d tokens, want %d", len(seq), p.cfg.SequenceLength), "pipeline.encode"),
				fmt.Sprintf("texts[%d]", i),
			)
		}
		batch[i] = seq
	}
	return batch, nil
}

func (p *Pipeline) score(ctx context.Context, batch []vocab.Sequence) (scores inference.Scores, err error) {
	defer func() {
		if r := recover(); r != nil {
			scores = nil
			err = perr.WithOp(perr.Inferencef("inference panicked: %v", r), "pipeline.infer")
		}
	}()

	scores, err = p.parts.Engine.ScoreBatch(ctx, batch)
	if err != nil {
		// admission timeouts keep their code so the caller can retry
		switch perr.CodeOf(err) {
		case perr.ErrorCodeInference, perr.ErrorCodeUnavailable:
		default:
			err = perr.Wrap(err, perr.ErrorCodeInference, "score batch")
		}
		return nil, textsField(perr.WithOp(err, "pipeline.infer"))
	}
	if err := inference.Check(scores, len(batch), p.parts.Engine.Outputs()); err != nil {
		return nil, perr.WithOp(err, "pipeline.infer")
	}
	return scores, nil
}

// textsField renames an engine row field (batch[i]) to the caller's texts[i]
func textsField(err error) error {
	e, ok := perr.As(err)
	if !ok {
		return err
	}
	if i, found := strings.CutPrefix(e.Field(), "batch["); found {
		return perr.WithField(err, "texts["+i)
	}
	return err
}

func (p *Pipeline) decide(scores inference.Scores) (out []decision.ScoredLabel, err error) {
	defer func() {
		if r := recover(); r != nil {
			out = nil
			err = perr.WithOp(perr.Inferencef("decision panicked: %v", r), "pipeline.decide")
		}
	}()

	out = make([]decision.ScoredLabel, len(scores))
	for i, row := range scores {
		sl, err := p.parts.Policy.Decide(row)
		if err != nil {
			if !perr.IsInference(err) {
				err = perr.Wrap(err, perr.ErrorCodeInference, "decide")
			}
			return nil, perr.WithField(perr.WithOp(err, "pipeline.decide"), fmt.Sprintf("texts[%d]", i))
		}
		out[i] = sl
	}
	return out, nil
}
