package inspect_test

import (
	"strings"
	"testing"

	"sentimentd/internal/platform/testkit"
	"sentimentd/internal/services/inspect"
)

const model = `kind: linear
sequence_length: 8
outputs: 1
bias: [0.1]
weights:
  - [0]
  - [1]
  - [-1]
  - [0.5]
`

func TestRun(t *testing.T) {
	modelPath := testkit.WriteFile(t, "model.yaml", model)
	fits := testkit.WriteFile(t, "vocab.json", `{"good": 1, "bad": 2, "fine": 3}`)
	tooBig := testkit.WriteFile(t, "big.json", `{"good": 1, "bad": 2, "odd": 9}`)
	binary := []string{"negative", "positive"}

	cases := []struct {
		name    string
		in      inspect.Input
		ok      bool
		problem string
	}{
		{"match", inspect.Input{VocabPath: fits, ModelPath: modelPath, Labels: binary}, true, ""},
		{"width matches", inspect.Input{VocabPath: fits, ModelPath: modelPath, Labels: binary, SequenceLength: 8}, true, ""},
		{"index outside rows", inspect.Input{VocabPath: tooBig, ModelPath: modelPath, Labels: binary}, false, "embedding rows"},
		{"width mismatch", inspect.Input{VocabPath: fits, ModelPath: modelPath, Labels: binary, SequenceLength: 100}, false, "sequence length"},
		{"label count", inspect.Input{VocabPath: fits, ModelPath: modelPath, Labels: []string{"a", "b", "c"}}, false, "labels"},
		{"missing vocab", inspect.Input{VocabPath: "/nope.json", ModelPath: modelPath, Labels: binary}, false, "vocabulary"},
		{"missing model", inspect.Input{VocabPath: fits, ModelPath: "/nope.yaml", Labels: binary}, false, "model"},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			rep := inspect.Run(tc.in)
			if rep.OK != tc.ok {
				t.Fatalf("ok = %v, problems = %v", rep.OK, rep.Problems)
			}
			if tc.problem == "" {
				return
			}
			if !strings.Contains(strings.Join(rep.Problems, "; "), tc.problem) {
				t.Fatalf("problems %v do not mention %q", rep.Problems, tc.problem)
			}
		})
	}
}

func TestRun_Summary(t *testing.T) {
	rep := inspect.Run(inspect.Input{
		VocabPath: testkit.WriteFile(t, "vocab.json", `{"good": 1, "bad": 2}`),
		ModelPath: testkit.WriteFile(t, "model.yaml", model),
		Labels:    []string{"negative", "positive"},
	})
	if rep.Vocab == nil || rep.Vocab.Size != 2 || rep.Vocab.MaxIndex != 2 {
		t.Fatalf("vocab = %+v", rep.Vocab)
	}
	if rep.Model == nil || rep.Model.Rows != 4 || rep.Model.SequenceLength != 8 || rep.Model.Kind != "linear" {
		t.Fatalf("model = %+v", rep.Model)
	}
}
