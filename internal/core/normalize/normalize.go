// Package normalize turns raw text into the token stream the vocabulary was built from
// Pipeline order
// 1 optional Unicode fold NFKD, drop combining and format marks, width fold
// 2 lower case
// 3 replace mentions and links, then runs of non alphanumerics, with a space
// 4 split on whitespace
// 5 drop stopwords of the configured language
// 6 optional Snowball stem of each surviving token
// 7 join with single spaces
package normalize

import (
	"regexp"
	"strings"
	"sync"
	"unicode"

	perr "sentimentd/internal/platform/errors"

	"github.com/kljensen/snowball"
	"golang.org/x/text/runes"
	"golang.org/x/text/transform"
	"golang.org/x/text/unicode/norm"
	"golang.org/x/text/width"
)

// mentions and links go first; in a single alternation with the class below
// a leading space would pull the @ into the class run and leak the handle
var (
	handles = regexp.MustCompile(`@\S+|https?:\S+|http?:\S`)
	nonWord = regexp.MustCompile(`[^A-Za-z0-9]+`)
)

// Options selects the language dependent steps
type Options struct {
	// Language names both the stopword list and the stemmer, default english
	Language string
	// Stem enables Snowball stemming
	Stem bool
	// Fold maps accented and fullwidth letters to ASCII before stripping
	Fold bool
}

// Normalizer is immutable and safe for concurrent use
type Normalizer struct {
	opt  Options
	stop map[string]struct{}
}

// pool of fold chains, transform.Chain is stateful
var foldPool = sync.Pool{
	New: func() any {
		return transform.Chain(
			norm.NFKD,
			runes.Remove(runes.In(unicode.Mn)),
			runes.Remove(runes.In(unicode.Cf)),
			width.Fold,
		)
	},
}

// New builds a Normalizer, failing with a configuration error when the language has no stopword list or stemmer
func New(opt Options) (*Normalizer, error) {
	if opt.Language == "" {
		opt.Language = "english"
	}
	opt.Language = strings.ToLower(strings.TrimSpace(opt.Language))

	stop, err := Stopwords(opt.Language)
	if err != nil {
		return nil, err
	}
	if opt.Stem {
		if _, err := snowball.Stem("probe", opt.Language, true); err != nil {
			return nil, perr.Configurationf("no stemmer for language %q", opt.Language)
		}
	}
	return &Normalizer{opt: opt, stop: stop}, nil
}

// Options returns the options the normalizer was built with
func (n *Normalizer) Options() Options { return n.opt }

// Normalize is total and pure; text made only of noise or stopwords yields ""
func (n *Normalizer) Normalize(text string) string {
	if text == "" {
		return ""
	}
	if n.opt.Fold {
		text = fold(text)
	}
	text = strings.ToLower(text)
	text = handles.ReplaceAllString(text, " ")
	text = nonWord.ReplaceAllString(text, " ")

	fields := strings.Fields(text)
	kept := fields[:0]
	for _, tok := range fields {
		if _, ok := n.stop[tok]; ok {
			continue
		}
		if n.opt.Stem {
			tok = n.stem(tok)
			// a stem can land on a stopword ("ares" -> "are")
			if _, ok := n.stop[tok]; ok {
				continue
			}
		}
		kept = append(kept, tok)
	}
	return strings.Join(kept, " ")
}

func (n *Normalizer) stem(tok string) string {
	s, err := snowball.Stem(tok, n.opt.Language, true)
	if err != nil || s == "" {
		return tok
	}
	return s
}

func fold(s string) string {
	tr := foldPool.Get().(transform.Transformer)
	out, _, err := transform.String(tr, strings.ToValidUTF8(s, ""))
	tr.Reset()
	foldPool.Put(tr)
	if err != nil {
		return s
	}
	return out
}
