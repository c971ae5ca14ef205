package normalize

import (
	"embed"
	"sort"
	"strings"
	"sync"

	perr "sentimentd/internal/platform/errors"

	"gopkg.in/yaml.v3"
)

//go:embed stopwords/*.yaml
var stopwordFS embed.FS

type stopwordFile struct {
	Language string   `yaml:"language"`
	Words    []string `yaml:"words"`
}

var (
	stopOnce sync.Once
	stopSets map[string]map[string]struct{}
	stopErr  error
)

func loadStopwords() {
	entries, err := stopwordFS.ReadDir("stopwords")
	if err != nil {
		stopErr = err
		return
	}
	stopSets = make(map[string]map[string]struct{}, len(entries))
	for _, e := range entries {
		raw, err := stopwordFS.ReadFile("stopwords/" + e.Name())
		if err != nil {
			stopErr = err
			return
		}
		var f stopwordFile
		if err := yaml.Unmarshal(raw, &f); err != nil {
			stopErr = perr.Wrapf(err, perr.ErrorCodeConfiguration, "stopwords %s", e.Name())
			return
		}
		lang := f.Language
		if lang == "" {
			lang = strings.TrimSuffix(e.Name(), ".yaml")
		}
		set := make(map[string]struct{}, len(f.Words))
		for _, w := range f.Words {
			set[strings.ToLower(w)] = struct{}{}
		}
		stopSets[lang] = set
	}
}

// Stopwords returns the embedded stopword set of language
// callers must not mutate the returned map
func Stopwords(language string) (map[string]struct{}, error) {
	stopOnce.Do(loadStopwords)
	if stopErr != nil {
		return nil, stopErr
	}
	set, ok := stopSets[language]
	if !ok {
		return nil, perr.Configurationf("no stopword list for language %q (have %s)", language, strings.Join(Languages(), ", "))
	}
	return set, nil
}

// Languages lists the embedded stopword languages, sorted
func Languages() []string {
	stopOnce.Do(loadStopwords)
	out := make([]string, 0, len(stopSets))
	for lang := range stopSets {
		out = append(out, lang)
	}
	sort.Strings(out)
	return out
}
