package batch_test

import (
	"bytes"
	"context"
	"encoding/json"
	"strings"
	"sync"
	"testing"

	perr "sentimentd/internal/platform/errors"
	"sentimentd/internal/services/api/classify/domain"
	"sentimentd/internal/services/batch"
)

type fakeSvc struct {
	mu    sync.Mutex
	calls int
	fail  string
}

func (f *fakeSvc) Classify(_ context.Context, in domain.ClassifyInput) (domain.ClassifyOutput, error) {
	f.mu.Lock()
	f.calls++
	f.mu.Unlock()
	out := domain.ClassifyOutput{BatchID: "b-" + in.UserID}
	for _, t := range in.Texts {
		if t == f.fail {
			return domain.ClassifyOutput{}, perr.Validationf("texts", "empty: %q", t)
		}
		label := "negative"
		if strings.Contains(t, "good") {
			label = "positive"
		}
		score := 0.7
		if t == "flat" {
			score = 0
		}
		out.Outputs = append(out.Outputs, domain.Output{Text: t, Label: label, Score: score})
	}
	return out, nil
}

func (f *fakeSvc) History(context.Context, domain.HistoryQuery) ([]domain.Prediction, error) {
	return nil, nil
}

func (f *fakeSvc) Model() domain.ModelInfo { return domain.ModelInfo{} }

func decode(t *testing.T, s string) []batch.Result {
	t.Helper()
	var out []batch.Result
	for _, line := range strings.Split(strings.TrimSpace(s), "\n") {
		var r batch.Result
		if err := json.Unmarshal([]byte(line), &r); err != nil {
			t.Fatalf("decode %q: %v", line, err)
		}
		out = append(out, r)
	}
	return out
}

func items(texts ...string) []batch.Item {
	out := make([]batch.Item, len(texts))
	for i, s := range texts {
		out[i] = batch.Item{Line: i + 1, Text: s}
	}
	return out
}

func TestRun_KeepsInputOrder(t *testing.T) {
	svc := &fakeSvc{}
	in := items("good", "bad", "good day", "meh", "so good", "awful", "good")

	var buf bytes.Buffer
	st, err := batch.New(svc, batch.Config{Chunk: 2, Workers: 3, UserID: "u1"}).Run(context.Background(), in, &buf)
	if err != nil {
		t.Fatalf("run: %v", err)
	}
	if st.Items != 7 || st.OK != 7 || st.Failed != 0 || st.Chunks != 4 {
		t.Fatalf("stats = %+v", st)
	}
	if svc.calls != 4 {
		t.Fatalf("calls = %d", svc.calls)
	}

	got := decode(t, buf.String())
	for i, r := range got {
		if r.Line != i+1 || r.Text != in[i].Text {
			t.Fatalf("row %d = %+v", i, r)
		}
		if r.BatchID != "b-u1" {
			t.Fatalf("batch id = %q", r.BatchID)
		}
	}
	if got[0].Label != "positive" || got[1].Label != "negative" {
		t.Fatalf("labels = %s %s", got[0].Label, got[1].Label)
	}
}

func TestRun_FailedChunkIsReported(t *testing.T) {
	svc := &fakeSvc{fail: "boom"}
	in := items("good", "boom", "good", "bad")

	var buf bytes.Buffer
	st, err := batch.New(svc, batch.Config{Chunk: 2}).Run(context.Background(), in, &buf)
	if err != nil {
		t.Fatalf("run: %v", err)
	}
	if st.OK != 2 || st.Failed != 2 {
		t.Fatalf("stats = %+v", st)
	}
	got := decode(t, buf.String())
	if got[0].Code != "validation" || got[1].Code != "validation" || got[2].Error != "" {
		t.Fatalf("rows = %+v", got)
	}
}

func TestRun_ZeroScoreIsWritten(t *testing.T) {
	svc := &fakeSvc{fail: "boom"}
	var buf bytes.Buffer
	if _, err := batch.New(svc, batch.Config{Chunk: 1}).Run(context.Background(), items("flat", "boom"), &buf); err != nil {
		t.Fatalf("run: %v", err)
	}
	lines := strings.Split(strings.TrimSpace(buf.String()), "\n")
	if len(lines) != 2 {
		t.Fatalf("lines = %q", lines)
	}
	if !strings.Contains(lines[0], `"score":0`) {
		t.Fatalf("zero score dropped: %s", lines[0])
	}
	if strings.Contains(lines[1], `"score"`) {
		t.Fatalf("failed row should carry no score: %s", lines[1])
	}
	got := decode(t, buf.String())
	if got[0].Score == nil || *got[0].Score != 0 || got[1].Score != nil {
		t.Fatalf("rows = %+v", got)
	}
}

func TestRun_FailFast(t *testing.T) {
	svc := &fakeSvc{fail: "boom"}
	var buf bytes.Buffer
	_, err := batch.New(svc, batch.Config{Chunk: 1, FailFast: true}).Run(context.Background(), items("good", "boom"), &buf)
	if !perr.IsValidation(err) {
		t.Fatalf("err = %v", err)
	}
	if buf.Len() != 0 {
		t.Fatalf("wrote %q on failure", buf.String())
	}
}

func TestRead(t *testing.T) {
	cases := []struct {
		name   string
		format string
		in     string
		want   []batch.Item
		code   perr.ErrorCode
	}{
		{"lines", batch.FormatLines, "one\n\ntwo\r\n", []batch.Item{{Line: 1, Text: "one"}, {Line: 3, Text: "two"}}, 0},
		{"jsonl", batch.FormatJSONL, `{"text":"a"}` + "\n" + `{"text":""}`, []batch.Item{{Line: 1, Text: "a"}, {Line: 2, Text: ""}}, 0},
		{"auto mixes", batch.FormatAuto, "plain\n" + `{"text":"obj"}`, []batch.Item{{Line: 1, Text: "plain"}, {Line: 2, Text: "obj"}}, 0},
		{"lines keep braces", batch.FormatLines, `{"text":"x"}`, []batch.Item{{Line: 1, Text: `{"text":"x"}`}}, 0},
		{"bad json", batch.FormatJSONL, "{nope", nil, perr.ErrorCodeJSON},
		{"missing text", batch.FormatJSONL, `{"body":"x"}`, nil, perr.ErrorCodeValidation},
		{"unknown format", "csv", "a", nil, perr.ErrorCodeInvalidArgument},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			got, err := batch.Read(strings.NewReader(tc.in), tc.format)
			if tc.want == nil {
				if err == nil || perr.CodeOf(err) != tc.code {
					t.Fatalf("err = %v, want code %s", err, tc.code)
				}
				return
			}
			if err != nil {
				t.Fatalf("read: %v", err)
			}
			if len(got) != len(tc.want) {
				t.Fatalf("got %+v", got)
			}
			for i := range got {
				if got[i] != tc.want[i] {
					t.Fatalf("item %d = %+v, want %+v", i, got[i], tc.want[i])
				}
			}
		})
	}
}
