package config

import (
	"strings"

	"github.com/knadh/koanf/parsers/yaml"
	"github.com/knadh/koanf/providers/env"
	"github.com/knadh/koanf/providers/file"
	"github.com/knadh/koanf/v2"

	perr "sentimentd/internal/platform/errors"
)

// File is a structured YAML config document with environment overrides
// Env keys map onto the tree by stripping envPrefix, lower casing and turning "__" into ".":
// SENTIMENTD_TEXT_CLASSIFIER__LABELS overrides text_classifier.labels
type File struct {
	k    *koanf.Koanf
	path string
}

// LoadFile reads path as YAML and overlays env vars that start with envPrefix
// envPrefix may be empty to skip the env layer
func LoadFile(path, envPrefix string) (*File, error) {
	k := koanf.New(".")
	if err := k.Load(file.Provider(path), yaml.Parser()); err != nil {
		return nil, perr.Wrapf(err, perr.ErrorCodeConfiguration, "load config file %s", path)
	}
	if envPrefix != "" {
		cb := func(s string) string {
			s = strings.ToLower(strings.TrimPrefix(s, envPrefix))
			return strings.ReplaceAll(s, "__", ".")
		}
		if err := k.Load(env.Provider(envPrefix, ".", cb), nil); err != nil {
			return nil, perr.Wrapf(err, perr.ErrorCodeConfiguration, "load env overrides %s*", envPrefix)
		}
	}
	return &File{k: k, path: path}, nil
}

// Path returns the file the document was read from
func (f *File) Path() string { return f.path }

// Has reports whether key exists in the document
func (f *File) Has(key string) bool { return f.k.Exists(key) }

// Unmarshal decodes the subtree at key (empty for the whole document) into out using koanf tags
func (f *File) Unmarshal(key string, out any) error {
	if err := f.k.Unmarshal(key, out); err != nil {
		return perr.Wrapf(err, perr.ErrorCodeConfiguration, "decode %s in %s", key, f.path)
	}
	return nil
}
