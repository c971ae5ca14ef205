package decision_test

import (
	"reflect"
	"testing"

	"sentimentd/internal/core/decision"
	perr "sentimentd/internal/platform/errors"
)

func TestBinary(t *testing.T) {
	p, err := decision.NewBinary([]string{"negative", "positive"}, 0)
	if err != nil {
		t.Fatalf("new: %v", err)
	}
	if p.Threshold() != 0.5 {
		t.Fatalf("default threshold %v", p.Threshold())
	}
	tests := []struct {
		score float64
		want  string
	}{
		{0.8, "positive"},
		{0.3, "negative"},
		{0.5, "positive"},
		{0.4999, "negative"},
		{0, "negative"},
		{1, "positive"},
	}
	for _, tc := range tests {
		got, err := p.Decide([]float64{tc.score})
		if err != nil {
			t.Fatalf("decide %v: %v", tc.score, err)
		}
		if got.Label != tc.want || got.Score != tc.score {
			t.Fatalf("Decide(%v) = %+v want %s", tc.score, got, tc.want)
		}
	}
	if _, err := p.Decide([]float64{0.1, 0.9}); !perr.IsInference(err) {
		t.Fatalf("wide row: expected inference error, got %v", err)
	}
}

func TestBinary_CustomThreshold(t *testing.T) {
	p, err := decision.NewBinary([]string{"neg", "pos"}, 0.7)
	if err != nil {
		t.Fatalf("new: %v", err)
	}
	got, _ := p.Decide([]float64{0.6})
	if got.Label != "neg" {
		t.Fatalf("0.6 under 0.7 gave %s", got.Label)
	}
}

func TestNewBinary_Rejects(t *testing.T) {
	tests := []struct {
		name      string
		labels    []string
		threshold float64
	}{
		{"one label", []string{"positive"}, 0},
		{"three labels", []string{"a", "b", "c"}, 0},
		{"blank label", []string{"a", " "}, 0},
		{"duplicate", []string{"a", "a"}, 0},
		{"threshold high", []string{"a", "b"}, 1.5},
		{"threshold negative", []string{"a", "b"}, -0.1},
	}
	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			if _, err := decision.NewBinary(tc.labels, tc.threshold); !perr.IsConfiguration(err) {
				t.Fatalf("expected configuration error, got %v", err)
			}
		})
	}
}

func TestArgmax(t *testing.T) {
	p, err := decision.NewArgmax([]string{"negative", "neutral", "positive"})
	if err != nil {
		t.Fatalf("new: %v", err)
	}
	tests := []struct {
		row  []float64
		want string
	}{
		{[]float64{0.1, 0.2, 0.7}, "positive"},
		{[]float64{0.6, 0.3, 0.1}, "negative"},
		{[]float64{0.4, 0.4, 0.2}, "negative"},
		{[]float64{0.2, 0.4, 0.4}, "neutral"},
	}
	for _, tc := range tests {
		got, err := p.Decide(tc.row)
		if err != nil {
			t.Fatalf("decide: %v", err)
		}
		if got.Label != tc.want {
			t.Fatalf("Decide(%v) = %s want %s", tc.row, got.Label, tc.want)
		}
	}
	if _, err := p.Decide([]float64{1}); !perr.IsInference(err) {
		t.Fatalf("short row: expected inference error, got %v", err)
	}
}

func TestNew(t *testing.T) {
	p, err := decision.New([]string{"neg", "pos"}, 1, 0)
	if err != nil {
		t.Fatalf("binary: %v", err)
	}
	if _, ok := p.(*decision.Binary); !ok || p.Outputs() != 1 {
		t.Fatalf("outputs 1 should give binary, got %T", p)
	}

	p, err = decision.New([]string{"neg", "pos"}, 2, 0)
	if err != nil {
		t.Fatalf("argmax: %v", err)
	}
	if _, ok := p.(*decision.Argmax); !ok || !reflect.DeepEqual(p.Labels(), []string{"neg", "pos"}) {
		t.Fatalf("outputs 2 should give argmax, got %T", p)
	}

	for _, outputs := range []int{0, 3} {
		if _, err := decision.New([]string{"neg", "pos"}, outputs, 0); !perr.IsConfiguration(err) {
			t.Fatalf("outputs %d: expected configuration error, got %v", outputs, err)
		}
	}
}
