package inference_test

import (
	"context"
	"math"
	"testing"

	"sentimentd/internal/core/inference"
	"sentimentd/internal/core/vocab"
	perr "sentimentd/internal/platform/errors"
	"sentimentd/internal/platform/testkit"
)

func sigmoidModel(t *testing.T) *inference.Linear {
	t.Helper()
	l, err := inference.NewLinear(inference.Artifact{
		SequenceLength: 3,
		Outputs:        1,
		Bias:           []float64{0},
		Weights:        [][]float64{{0}, {2}, {-2}, {4}},
	})
	if err != nil {
		t.Fatalf("new linear: %v", err)
	}
	return l
}

func TestLinear_Sigmoid(t *testing.T) {
	l := sigmoidModel(t)
	got, err := l.ScoreBatch(context.Background(), []vocab.Sequence{
		{0, 0, 1},
		{0, 0, 2},
		{0, 0, 0},
		{1, 2, 3},
	})
	if err != nil {
		t.Fatalf("score: %v", err)
	}
	want := []float64{
		1 / (1 + math.Exp(-2)),
		1 / (1 + math.Exp(2)),
		0.5,
		1 / (1 + math.Exp(-4.0/3)),
	}
	for i := range want {
		if math.Abs(got[i][0]-want[i]) > 1e-9 {
			t.Fatalf("row %d = %v want %v", i, got[i][0], want[i])
		}
	}
	if err := inference.Check(got, 4, 1); err != nil {
		t.Fatalf("check: %v", err)
	}
}

func TestLinear_SoftmaxRowsSumToOne(t *testing.T) {
	l, err := inference.NewLinear(inference.Artifact{
		Kind:           "linear",
		SequenceLength: 2,
		Outputs:        3,
		Bias:           []float64{0.1, 0, -0.1},
		Weights:        [][]float64{{0, 0, 0}, {3, 0, 0}, {0, 0, 3}},
	})
	if err != nil {
		t.Fatalf("new linear: %v", err)
	}
	got, err := l.ScoreBatch(context.Background(), []vocab.Sequence{{0, 1}, {0, 2}, {1, 2}})
	if err != nil {
		t.Fatalf("score: %v", err)
	}
	for i, row := range got {
		sum := 0.0
		for _, v := range row {
			sum += v
		}
		if math.Abs(sum-1) > 1e-9 {
			t.Fatalf("row %d sums to %v", i, sum)
		}
	}
	if got[0][0] <= got[0][2] || got[1][2] <= got[1][0] {
		t.Fatalf("unexpected ranking %v", got)
	}
}

func TestLinear_Rejects(t *testing.T) {
	l := sigmoidModel(t)

	_, err := l.ScoreBatch(context.Background(), []vocab.Sequence{{0, 0, 1}, {0, 0, 9}})
	if !perr.IsInference(err) {
		t.Fatalf("out of table id: expected inference error, got %v", err)
	}
	if e, _ := perr.As(err); e.Field() != "batch[1]" {
		t.Fatalf("field %q want batch[1]", e.Field())
	}

	if _, err := l.ScoreBatch(context.Background(), []vocab.Sequence{{1, 2}}); !perr.IsInference(err) {
		t.Fatalf("short sequence: expected inference error, got %v", err)
	}
	if _, err := l.ScoreBatch(context.Background(), nil); !perr.IsInference(err) {
		t.Fatalf("empty batch: expected inference error, got %v", err)
	}
}

func TestNewLinear_Validation(t *testing.T) {
	ok := inference.Artifact{SequenceLength: 2, Outputs: 1, Bias: []float64{0}, Weights: [][]float64{{0}, {1}}}
	tests := []struct {
		name string
		mut  func(a *inference.Artifact)
	}{
		{"wrong kind", func(a *inference.Artifact) { a.Kind = "remote" }},
		{"zero length", func(a *inference.Artifact) { a.SequenceLength = 0 }},
		{"zero outputs", func(a *inference.Artifact) { a.Outputs = 0 }},
		{"bias width", func(a *inference.Artifact) { a.Bias = []float64{0, 0} }},
		{"no token rows", func(a *inference.Artifact) { a.Weights = [][]float64{{0}} }},
		{"ragged row", func(a *inference.Artifact) { a.Weights = [][]float64{{0}, {1, 2}} }},
	}
	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			a := ok
			a.Weights = append([][]float64(nil), ok.Weights...)
			tc.mut(&a)
			if _, err := inference.NewLinear(a); !perr.IsConfiguration(err) {
				t.Fatalf("expected configuration error, got %v", err)
			}
		})
	}
	if _, err := inference.NewLinear(ok); err != nil {
		t.Fatalf("valid artifact: %v", err)
	}
}

func TestOpenLinear_Files(t *testing.T) {
	yml := testkit.WriteFile(t, "model.yaml", `kind: linear
sequence_length: 4
outputs: 1
bias: [0.5]
weights:
  - [0]
  - [1]
`)
	l, err := inference.OpenLinear(yml)
	if err != nil {
		t.Fatalf("open yaml: %v", err)
	}
	if l.Width() != 4 || l.Outputs() != 1 || l.Rows() != 2 || l.Kind() != inference.KindLinear {
		t.Fatalf("unexpected shape %d %d %d", l.Width(), l.Outputs(), l.Rows())
	}

	js := testkit.WriteFile(t, "model.json", `{"sequence_length":2,"outputs":2,"bias":[0,0],"weights":[[0,0],[1,0]]}`)
	if _, err := inference.OpenLinear(js); err != nil {
		t.Fatalf("open json: %v", err)
	}

	bad := testkit.WriteFile(t, "model.txt", "nope")
	if _, err := inference.OpenLinear(bad); !perr.IsConfiguration(err) {
		t.Fatalf("txt: expected configuration error, got %v", err)
	}
	if _, err := inference.OpenLinear(yml + ".missing"); !perr.IsConfiguration(err) {
		t.Fatalf("missing: expected configuration error, got %v", err)
	}
}
