// Package inspect checks that a vocabulary and a linear model artifact belong together
package inspect

import (
	"fmt"

	"sentimentd/internal/core/decision"
	"sentimentd/internal/core/inference"
	"sentimentd/internal/core/vocab"
)

// Input names the artifacts and the settings they will be served with
type Input struct {
	VocabPath string
	ModelPath string
	Labels    []string
	// SequenceLength is the configured width, 0 means take the model's
	SequenceLength int
	Threshold      float64
}

// VocabSummary describes the vocabulary file
type VocabSummary struct {
	Path     string `json:"path"`
	Size     int    `json:"size"`
	NumWords int    `json:"num_words"`
	MaxIndex int32  `json:"max_index"`
}

// ModelSummary describes the model artifact
type ModelSummary struct {
	Path           string `json:"path"`
	Kind           string `json:"kind"`
	SequenceLength int    `json:"sequence_length"`
	Outputs        int    `json:"outputs"`
	Rows           int    `json:"rows"`
}

// Report is the JSON summary; OK is false when any problem was found
type Report struct {
	OK       bool          `json:"ok"`
	Vocab    *VocabSummary `json:"vocab,omitempty"`
	Model    *ModelSummary `json:"model,omitempty"`
	Labels   []string      `json:"labels,omitempty"`
	Problems []string      `json:"problems,omitempty"`
}

func (r *Report) problem(format string, a ...any) {
	r.Problems = append(r.Problems, fmt.Sprintf(format, a...))
}

// Run loads both artifacts and cross checks them; load failures are reported, not returned
func Run(in Input) Report {
	var rep Report

	v, err := vocab.Load(in.VocabPath)
	if err != nil {
		rep.problem("vocabulary: %v", err)
	} else {
		rep.Vocab = &VocabSummary{Path: in.VocabPath, Size: v.Size(), NumWords: v.NumWords(), MaxIndex: v.MaxIndex()}
	}

	a, err := inference.LoadArtifact(in.ModelPath)
	if err == nil {
		_, err = inference.NewLinear(a)
	}
	if err != nil {
		rep.problem("model: %v", err)
	} else {
		rep.Model = &ModelSummary{
			Path:           in.ModelPath,
			Kind:           string(inference.KindLinear),
			SequenceLength: a.SequenceLength,
			Outputs:        a.Outputs,
			Rows:           len(a.Weights),
		}
	}

	if rep.Model != nil {
		if rep.Vocab != nil && int(rep.Vocab.MaxIndex) >= rep.Model.Rows {
			rep.problem("vocabulary index %d is outside the model's %d embedding rows", rep.Vocab.MaxIndex, rep.Model.Rows)
		}
		if in.SequenceLength > 0 && in.SequenceLength != rep.Model.SequenceLength {
			rep.problem("configured sequence length %d does not match the model's %d", in.SequenceLength, rep.Model.SequenceLength)
		}
		if _, err := decision.New(in.Labels, rep.Model.Outputs, in.Threshold); err != nil {
			rep.problem("labels: %v", err)
		} else {
			rep.Labels = append([]string(nil), in.Labels...)
		}
	}

	rep.OK = len(rep.Problems) == 0
	return rep
}
