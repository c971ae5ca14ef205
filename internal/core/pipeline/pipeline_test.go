package pipeline_test

import (
	"context"
	"errors"
	"strings"
	"testing"

	"sentimentd/internal/core/decision"
	"sentimentd/internal/core/inference"
	"sentimentd/internal/core/normalize"
	"sentimentd/internal/core/pipeline"
	"sentimentd/internal/core/vocab"
	perr "sentimentd/internal/platform/errors"
)

// fakeEngine scores every sequence by its last token and counts calls
type fakeEngine struct {
	width   int
	outputs int
	calls   int
	fn      func(batch []vocab.Sequence) (inference.Scores, error)
}

func (f *fakeEngine) ScoreBatch(_ context.Context, batch []vocab.Sequence) (inference.Scores, error) {
	f.calls++
	if f.fn != nil {
		return f.fn(batch)
	}
	out := make(inference.Scores, len(batch))
	for i, seq := range batch {
		if seq[len(seq)-1] == 1 {
			out[i] = []float64{0.9}
		} else {
			out[i] = []float64{0.2}
		}
	}
	return out, nil
}

func (f *fakeEngine) Width() int           { return f.width }
func (f *fakeEngine) Outputs() int         { return f.outputs }
func (f *fakeEngine) Kind() inference.Kind { return "fake" }

type panicNormalizer struct{}

func (panicNormalizer) Normalize(string) string { panic("boom") }

func parts(t *testing.T, e inference.Engine) pipeline.Parts {
	t.Helper()
	n, err := normalize.New(normalize.Options{})
	if err != nil {
		t.Fatalf("normalizer: %v", err)
	}
	v, err := vocab.New(map[string]int32{"great": 1, "movie": 2, "terrible": 3}, 0)
	if err != nil {
		t.Fatalf("vocab: %v", err)
	}
	p, err := decision.NewBinary([]string{"negative", "positive"}, 0.5)
	if err != nil {
		t.Fatalf("policy: %v", err)
	}
	return pipeline.Parts{Normalizer: n, Encoder: v, Engine: e, Policy: p}
}

func newPipeline(t *testing.T, e inference.Engine) *pipeline.Pipeline {
	t.Helper()
	p, err := pipeline.New(pipeline.Config{SequenceLength: 4}, parts(t, e))
	if err != nil {
		t.Fatalf("pipeline: %v", err)
	}
	return p
}

func TestClassify_OrderAndSingleEngineCall(t *testing.T) {
	e := &fakeEngine{width: 4, outputs: 1}
	p := newPipeline(t, e)

	got, err := p.Classify(context.Background(), []string{
		"This movie is great",
		"What a terrible movie!",
		"Great!",
	})
	if err != nil {
		t.Fatalf("classify: %v", err)
	}
	want := []string{"positive", "negative", "positive"}
	if len(got) != len(want) {
		t.Fatalf("got %d labels for %d texts", len(got), len(want))
	}
	for i := range want {
		if got[i].Label != want[i] {
			t.Fatalf("item %d = %s want %s (%+v)", i, got[i].Label, want[i], got)
		}
	}
	if e.calls != 1 {
		t.Fatalf("engine called %d times", e.calls)
	}
}

func TestClassify_WithLinearModel(t *testing.T) {
	l, err := inference.NewLinear(inference.Artifact{
		SequenceLength: 4,
		Outputs:        1,
		Bias:           []float64{0},
		Weights:        [][]float64{{0}, {3}, {0.5}, {-3}},
	})
	if err != nil {
		t.Fatalf("linear: %v", err)
	}
	p := newPipeline(t, l)
	got, err := p.Classify(context.Background(), []string{"This is a great movie!", "terrible"})
	if err != nil {
		t.Fatalf("classify: %v", err)
	}
	if got[0].Label != "positive" || got[1].Label != "negative" {
		t.Fatalf("unexpected labels %+v", got)
	}
	for _, sl := range got {
		if sl.Score < 0 || sl.Score > 1 {
			t.Fatalf("score %v outside [0,1]", sl.Score)
		}
	}
}

func TestClassify_Validation(t *testing.T) {
	tests := []struct {
		name  string
		texts []string
		field string
		rule  string
	}{
		{"no texts", nil, "texts", ""},
		{"empty item", []string{""}, "texts[0]", pipeline.RuleEmpty},
		{"too long", []string{strings.Repeat("a", 2025)}, "texts[0]", pipeline.RuleTooLong},
		{"second item empty", []string{"fine", ""}, "texts[1]", pipeline.RuleEmpty},
		{"multibyte too long", []string{"ok", strings.Repeat("é", 2025)}, "texts[1]", pipeline.RuleTooLong},
	}
	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			e := &fakeEngine{width: 4, outputs: 1}
			_, err := newPipeline(t, e).Classify(context.Background(), tc.texts)
			if !perr.IsValidation(err) {
				t.Fatalf("expected validation error, got %v", err)
			}
			pe, _ := perr.As(err)
			if pe.Field() != tc.field {
				t.Fatalf("field %q want %q", pe.Field(), tc.field)
			}
			if !strings.HasPrefix(pe.Message(), tc.rule) {
				t.Fatalf("message %q should start with %q", pe.Message(), tc.rule)
			}
			if e.calls != 0 {
				t.Fatal("engine must not run for invalid input")
			}
		})
	}
}

func TestClassify_LengthBoundary(t *testing.T) {
	p := newPipeline(t, &fakeEngine{width: 4, outputs: 1})
	for _, text := range []string{strings.Repeat("a", 2024), strings.Repeat("é", 2024)} {
		if _, err := p.Classify(context.Background(), []string{text}); err != nil {
			t.Fatalf("2024 characters should pass: %v", err)
		}
	}
}

func TestClassify_NoiseOnlyStillScores(t *testing.T) {
	e := &fakeEngine{width: 4, outputs: 1}
	got, err := newPipeline(t, e).Classify(context.Background(), []string{"!!! the and @someone"})
	if err != nil {
		t.Fatalf("classify: %v", err)
	}
	if len(got) != 1 || got[0].Label != "negative" {
		t.Fatalf("unexpected %+v", got)
	}
}

func TestClassify_EngineRowErrorNamesText(t *testing.T) {
	// "terrible" encodes to 3, past the last weight row
	l, err := inference.NewLinear(inference.Artifact{
		SequenceLength: 4,
		Outputs:        1,
		Bias:           []float64{0},
		Weights:        [][]float64{{0}, {3}, {0.5}},
	})
	if err != nil {
		t.Fatalf("linear: %v", err)
	}
	_, err = newPipeline(t, l).Classify(context.Background(), []string{"great movie", "terrible"})
	if !perr.IsInference(err) {
		t.Fatalf("expected inference error, got %v", err)
	}
	if e, _ := perr.As(err); e.Field() != "texts[1]" {
		t.Fatalf("field %q want texts[1]", e.Field())
	}
}

func TestClassify_Failures(t *testing.T) {
	tests := []struct {
		name string
		fn   func([]vocab.Sequence) (inference.Scores, error)
		code perr.ErrorCode
	}{
		{"foreign error", func([]vocab.Sequence) (inference.Scores, error) { return nil, errors.New("socket closed") }, perr.ErrorCodeInference},
		{"admission timeout", func([]vocab.Sequence) (inference.Scores, error) {
			return nil, perr.Unavailablef("no slot")
		}, perr.ErrorCodeUnavailable},
		{"short result", func([]vocab.Sequence) (inference.Scores, error) { return inference.Scores{}, nil }, perr.ErrorCodeInference},
		{"out of range", func(b []vocab.Sequence) (inference.Scores, error) {
			out := make(inference.Scores, len(b))
			for i := range out {
				out[i] = []float64{2}
			}
			return out, nil
		}, perr.ErrorCodeInference},
		{"panic", func([]vocab.Sequence) (inference.Scores, error) { panic("engine exploded") }, perr.ErrorCodeInference},
	}
	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			p := newPipeline(t, &fakeEngine{width: 4, outputs: 1, fn: tc.fn})
			got, err := p.Classify(context.Background(), []string{"great", "movie"})
			if got != nil {
				t.Fatalf("no labels may be returned on failure, got %+v", got)
			}
			if !perr.IsCode(err, tc.code) {
				t.Fatalf("expected %s, got %v", tc.code, err)
			}
		})
	}
}

func TestClassify_NormalizerPanicIsPreprocessing(t *testing.T) {
	pp := parts(t, &fakeEngine{width: 4, outputs: 1})
	pp.Normalizer = panicNormalizer{}
	p, err := pipeline.New(pipeline.Config{}, pp)
	if err != nil {
		t.Fatalf("pipeline: %v", err)
	}
	_, err = p.Classify(context.Background(), []string{"fine", "also fine"})
	if !perr.IsPreprocessing(err) {
		t.Fatalf("expected preprocessing error, got %v", err)
	}
	if e, _ := perr.As(err); e.Field() != "texts[0]" || e.Op() != "pipeline.preprocess" {
		t.Fatalf("field %q op %q", e.Field(), e.Op())
	}
}

func TestNew_Rejects(t *testing.T) {
	argmax, _ := decision.NewArgmax([]string{"a", "b", "c"})
	tests := []struct {
		name string
		cfg  pipeline.Config
		mut  func(*pipeline.Parts)
	}{
		{"width mismatch", pipeline.Config{SequenceLength: 5}, nil},
		{"negative max length", pipeline.Config{MaxTextLength: -1}, nil},
		{"labels vs outputs", pipeline.Config{}, func(p *pipeline.Parts) { p.Policy = argmax }},
		{"missing encoder", pipeline.Config{}, func(p *pipeline.Parts) { p.Encoder = nil }},
		{"missing engine", pipeline.Config{}, func(p *pipeline.Parts) { p.Engine = nil }},
	}
	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			pp := parts(t, &fakeEngine{width: 4, outputs: 1})
			if tc.mut != nil {
				tc.mut(&pp)
			}
			if _, err := pipeline.New(tc.cfg, pp); !perr.IsConfiguration(err) {
				t.Fatalf("expected configuration error, got %v", err)
			}
		})
	}

	p, err := pipeline.New(pipeline.Config{}, parts(t, &fakeEngine{width: 4, outputs: 1}))
	if err != nil {
		t.Fatalf("defaults: %v", err)
	}
	if c := p.Config(); c.SequenceLength != 4 || c.MaxTextLength != pipeline.DefaultMaxTextLength {
		t.Fatalf("unexpected defaults %+v", c)
	}
}
