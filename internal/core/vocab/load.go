package vocab

import (
	"bytes"
	"encoding/json"
	"os"
	"path/filepath"
	"strings"

	perr "sentimentd/internal/platform/errors"

	"gopkg.in/yaml.v3"
)

// document is the native file shape, in JSON or YAML
type document struct {
	NumWords int              `json:"num_words" yaml:"num_words"`
	Tokens   map[string]int32 `json:"tokens"    yaml:"tokens"`
}

// kerasTokenizer is the output of Tokenizer.to_json(); word_index is itself a JSON string
type kerasTokenizer struct {
	ClassName string `json:"class_name"`
	Config    struct {
		NumWords  *int   `json:"num_words"`
		WordIndex string `json:"word_index"`
	} `json:"config"`
}

// Load reads a vocabulary by extension
// .json holds a Keras tokenizer export, a {num_words, tokens} document or a plain {token: index} object
// .yaml and .yml hold a {num_words, tokens} document
func Load(path string) (*Vocabulary, error) {
	raw, err := os.ReadFile(path)
	if err != nil {
		return nil, perr.Wrapf(err, perr.ErrorCodeConfiguration, "read vocabulary %s", path)
	}

	var (
		index    map[string]int32
		numWords int
	)
	switch strings.ToLower(filepath.Ext(path)) {
	case ".json":
		index, numWords, err = parseJSON(raw)
	case ".yaml", ".yml":
		var doc document
		err = yaml.Unmarshal(raw, &doc)
		index, numWords = doc.Tokens, doc.NumWords
	default:
		return nil, perr.Configurationf("vocabulary %s: unsupported extension", path)
	}
	if err != nil {
		return nil, perr.Wrapf(err, perr.ErrorCodeConfiguration, "parse vocabulary %s", path)
	}

	v, err := New(index, numWords)
	if err != nil {
		return nil, perr.Wrapf(err, perr.ErrorCodeConfiguration, "vocabulary %s", path)
	}
	return v, nil
}

func parseJSON(raw []byte) (map[string]int32, int, error) {
	var probe map[string]json.RawMessage
	if err := json.Unmarshal(raw, &probe); err != nil {
		return nil, 0, err
	}

	if _, ok := probe["config"]; ok {
		var k kerasTokenizer
		if err := json.Unmarshal(raw, &k); err != nil {
			return nil, 0, err
		}
		var index map[string]int32
		if err := json.Unmarshal([]byte(k.Config.WordIndex), &index); err != nil {
			return nil, 0, perr.Wrap(err, perr.ErrorCodeConfiguration, "keras word_index")
		}
		n := 0
		if k.Config.NumWords != nil {
			n = *k.Config.NumWords
		}
		return index, n, nil
	}

	if _, ok := probe["tokens"]; ok {
		var doc document
		dec := json.NewDecoder(bytes.NewReader(raw))
		dec.DisallowUnknownFields()
		if err := dec.Decode(&doc); err != nil {
			return nil, 0, err
		}
		return doc.Tokens, doc.NumWords, nil
	}

	var index map[string]int32
	if err := json.Unmarshal(raw, &index); err != nil {
		return nil, 0, err
	}
	return index, 0, nil
}
