package config

import (
	"testing"

	perr "sentimentd/internal/platform/errors"
	kit "sentimentd/internal/platform/testkit"
)

type classifierBlock struct {
	Kind           string   `koanf:"kind"`
	Labels         []string `koanf:"labels"`
	SequenceLength int      `koanf:"sequence_length"`
}

const sampleYAML = `
text_classifier:
  kind: linear
  labels: [negative, positive]
  sequence_length: 50
text_preprocessor:
  language: english
  stem: false
`

func TestLoadFile(t *testing.T) {
	path := kit.WriteFile(t, "config.yaml", sampleYAML)

	f, err := LoadFile(path, "")
	if err != nil {
		t.Fatalf("LoadFile: %v", err)
	}
	if f.Path() != path || !f.Has("text_preprocessor.language") {
		t.Fatalf("unexpected document: path=%q", f.Path())
	}

	var tc classifierBlock
	if err := f.Unmarshal("text_classifier", &tc); err != nil {
		t.Fatalf("Unmarshal: %v", err)
	}
	if tc.Kind != "linear" || tc.SequenceLength != 50 || len(tc.Labels) != 2 || tc.Labels[1] != "positive" {
		t.Fatalf("decoded = %+v", tc)
	}
}

func TestLoadFileEnvOverride(t *testing.T) {
	path := kit.WriteFile(t, "config.yaml", sampleYAML)
	t.Setenv("SENTIMENTD_TEXT_CLASSIFIER__KIND", "remote")

	f, err := LoadFile(path, "SENTIMENTD_")
	if err != nil {
		t.Fatalf("LoadFile: %v", err)
	}
	var tc classifierBlock
	if err := f.Unmarshal("text_classifier", &tc); err != nil {
		t.Fatalf("Unmarshal: %v", err)
	}
	if tc.Kind != "remote" {
		t.Fatalf("env override ignored, kind = %q", tc.Kind)
	}
	if tc.SequenceLength != 50 {
		t.Fatalf("file value lost, sequence_length = %d", tc.SequenceLength)
	}
}

func TestLoadFileMissing(t *testing.T) {
	_, err := LoadFile(t.TempDir()+"/nope.yaml", "")
	if !perr.IsConfiguration(err) {
		t.Fatalf("want configuration error, got %v", err)
	}
}
