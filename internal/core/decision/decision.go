// Package decision turns model scores into labels
package decision

import (
	"strings"

	perr "sentimentd/internal/platform/errors"
)

// DefaultThreshold is the binary cut point
const DefaultThreshold = 0.5

// ScoredLabel is the decided label and the score that selected it
type ScoredLabel struct {
	Label string  `json:"label"`
	Score float64 `json:"score"`
}

// Policy maps one score row onto a label
type Policy interface {
	Decide(row []float64) (ScoredLabel, error)
	Labels() []string
	// Outputs is the row width the policy reads
	Outputs() int
}

// Binary reads a single sigmoid probability
type Binary struct {
	labels    [2]string
	threshold float64
}

// NewBinary needs exactly two labels, negative first; threshold 0 means DefaultThreshold
func NewBinary(labels []string, threshold float64) (*Binary, error) {
	if err := checkLabels(labels); err != nil {
		return nil, err
	}
	if len(labels) != 2 {
		return nil, perr.Configurationf("binary policy needs exactly 2 labels, got %d", len(labels))
	}
	if threshold == 0 {
		threshold = DefaultThreshold
	}
	if threshold < 0 || threshold > 1 {
		return nil, perr.Configurationf("threshold %v is outside [0,1]", threshold)
	}
	return &Binary{labels: [2]string{labels[0], labels[1]}, threshold: threshold}, nil
}

// Decide returns labels[1] when the score reaches the threshold
func (b *Binary) Decide(row []float64) (ScoredLabel, error) {
	if len(row) != 1 {
		return ScoredLabel{}, perr.Inferencef("binary policy reads 1 score, got %d", len(row))
	}
	p := row[0]
	if p >= b.threshold {
		return ScoredLabel{Label: b.labels[1], Score: p}, nil
	}
	return ScoredLabel{Label: b.labels[0], Score: p}, nil
}

func (b *Binary) Labels() []string   { return []string{b.labels[0], b.labels[1]} }
func (b *Binary) Outputs() int       { return 1 }
func (b *Binary) Threshold() float64 { return b.threshold }

// Argmax picks the highest scoring label; ties go to the lowest index
type Argmax struct {
	labels []string
}

// NewArgmax needs at least two labels, one per output
func NewArgmax(labels []string) (*Argmax, error) {
	if err := checkLabels(labels); err != nil {
		return nil, err
	}
	if len(labels) < 2 {
		return nil, perr.Configurationf("argmax policy needs at least 2 labels, got %d", len(labels))
	}
	return &Argmax{labels: append([]string(nil), labels...)}, nil
}

func (a *Argmax) Decide(row []float64) (ScoredLabel, error) {
	if len(row) != len(a.labels) {
		return ScoredLabel{}, perr.Inferencef("argmax policy reads %d scores, got %d", len(a.labels), len(row))
	}
	best := 0
	for i := 1; i < len(row); i++ {
		if row[i] > row[best] {
			best = i
		}
	}
	return ScoredLabel{Label: a.labels[best], Score: row[best]}, nil
}

func (a *Argmax) Labels() []string { return append([]string(nil), a.labels...) }
func (a *Argmax) Outputs() int     { return len(a.labels) }

// New picks Binary for a single output model and Argmax otherwise
func New(labels []string, outputs int, threshold float64) (Policy, error) {
	switch {
	case outputs == 1:
		return NewBinary(labels, threshold)
	case outputs < 1:
		return nil, perr.Configurationf("model outputs %d must be positive", outputs)
	case len(labels) != outputs:
		return nil, perr.Configurationf("%d labels for a model with %d outputs", len(labels), outputs)
	}
	return NewArgmax(labels)
}

func checkLabels(labels []string) error {
	seen := make(map[string]struct{}, len(labels))
	for i, l := range labels {
		if strings.TrimSpace(l) == "" {
			return perr.Configurationf("label %d is empty", i)
		}
		if _, dup := seen[l]; dup {
			return perr.Configurationf("label %q appears twice", l)
		}
		seen[l] = struct{}{}
	}
	return nil
}
