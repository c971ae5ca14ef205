// Package vocab maps normalized text to the fixed width integer sequences the model reads
package vocab

import (
	"fmt"
	"strings"

	perr "sentimentd/internal/platform/errors"
)

// Sequence is one encoded text, left padded with 0
type Sequence []int32

// Pad is the index of padding and of every unknown token
const Pad int32 = 0

// Vocabulary is immutable after construction and safe for concurrent use
type Vocabulary struct {
	index    map[string]int32
	numWords int
	maxIndex int32
}

// New validates index and builds a Vocabulary
// numWords > 0 caps usable indices to [1, numWords), as the tokenizer did at training time
func New(index map[string]int32, numWords int) (*Vocabulary, error) {
	if len(index) == 0 {
		return nil, perr.Configurationf("vocabulary is empty")
	}
	if numWords < 0 {
		return nil, perr.Configurationf("num_words %d is negative", numWords)
	}
	v := &Vocabulary{index: make(map[string]int32, len(index)), numWords: numWords}
	for tok, idx := range index {
		if tok == "" || strings.ContainsAny(tok, " \t\n") {
			return nil, perr.Configurationf("token %q is not a single word", tok)
		}
		if idx <= Pad {
			return nil, perr.Configurationf("token %q has index %d, indices start at 1", tok, idx)
		}
		v.index[tok] = idx
		if idx > v.maxIndex {
			v.maxIndex = idx
		}
	}
	return v, nil
}

// Lookup returns the index of tok, Pad when unknown or outside num_words
func (v *Vocabulary) Lookup(tok string) int32 {
	idx, ok := v.index[tok]
	if !ok {
		return Pad
	}
	if v.numWords > 0 && int(idx) >= v.numWords {
		return Pad
	}
	return idx
}

// Size is the number of tokens in the file, before the num_words cap
func (v *Vocabulary) Size() int { return len(v.index) }

// NumWords is the cap the tokenizer was trained with, 0 means none
func (v *Vocabulary) NumWords() int { return v.numWords }

// MaxIndex is the largest index Encode can produce
func (v *Vocabulary) MaxIndex() int32 {
	if v.numWords > 0 && int(v.maxIndex) >= v.numWords {
		return int32(v.numWords - 1)
	}
	return v.maxIndex
}

// Encode maps each whitespace token of text to its index and fits the result to length
// shorter sequences are left padded with Pad; longer ones keep their last length tokens
func (v *Vocabulary) Encode(text string, length int) (Sequence, error) {
	if length <= 0 {
		return nil, perr.Preprocessingf("sequence length %d must be positive", length)
	}
	toks := strings.Fields(text)
	if len(toks) > length {
		toks = toks[len(toks)-length:]
	}
	seq := make(Sequence, length)
	off := length - len(toks)
	for i, tok := range toks {
		seq[off+i] = v.Lookup(tok)
	}
	return seq, nil
}

// EncodeBatch encodes texts in order; the first failure names the item
func (v *Vocabulary) EncodeBatch(texts []string, length int) ([]Sequence, error) {
	out := make([]Sequence, len(texts))
	for i, t := range texts {
		seq, err := v.Encode(t, length)
		if err != nil {
			return nil, perr.WithField(err, fmt.Sprintf("texts[%d]", i))
		}
		out[i] = seq
	}
	return out, nil
}
