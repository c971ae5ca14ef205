package module

import (
	"runtime"
	"slices"
	"strings"
	"time"

	"sentimentd/internal/core/decision"
	"sentimentd/internal/core/inference"
	"sentimentd/internal/core/pipeline"
	"sentimentd/internal/platform/config"
	perr "sentimentd/internal/platform/errors"
	str "sentimentd/internal/platform/strings"
	"sentimentd/internal/services/api/classify/repo"
)

// Options controls model loading, preprocessing, request limits and history
type Options struct {
	// ConfigPath is an optional YAML file read before the environment
	ConfigPath string

	Engine    inference.Config
	VocabPath string
	Labels    []string
	Threshold float64

	Language  string
	Stem      bool
	Fold      bool
	CacheSize int

	MaxTextLength int
	MaxItems      int
	MaxBody       int64
	Timeout       time.Duration

	History string
}

// Defaults returns the options used when neither file nor env set a value
func Defaults() Options {
	return Options{
		Engine: inference.Config{
			Kind:        inference.KindLinear,
			Timeout:     5 * time.Second,
			Outputs:     1,
			MaxInFlight: runtime.GOMAXPROCS(0),
		},
		Labels:        []string{"negative", "positive"},
		Threshold:     decision.DefaultThreshold,
		Language:      "english",
		MaxTextLength: pipeline.DefaultMaxTextLength,
		MaxItems:      256,
		MaxBody:       1 << 20,
		Timeout:       10 * time.Second,
		History:       repo.BackendOff,
	}
}

// fileDoc mirrors the blocks of the classifier YAML file
type fileDoc struct {
	Classifier struct {
		Kind           string        `koanf:"kind"`
		ModelPath      string        `koanf:"model_path"`
		ModelURL       string        `koanf:"model_url"`
		ModelName      string        `koanf:"model_name"`
		ModelTimeout   time.Duration `koanf:"model_timeout"`
		VocabPath      string        `koanf:"vocab_path"`
		SequenceLength int           `koanf:"sequence_length"`
		Outputs        int           `koanf:"outputs"`
		Labels         []string      `koanf:"labels"`
		Threshold      float64       `koanf:"threshold"`
	} `koanf:"text_classifier"`

	Preprocessor struct {
		Language  string `koanf:"language"`
		Stem      *bool  `koanf:"stem"`
		Fold      *bool  `koanf:"fold"`
		CacheSize int    `koanf:"cache_size"`
	} `koanf:"text_preprocessor"`

	API struct {
		MaxTextLength int           `koanf:"max_text_length"`
		MaxItems      int           `koanf:"max_items"`
		MaxInFlight   int           `koanf:"max_inflight"`
		Timeout       time.Duration `koanf:"timeout"`
	} `koanf:"api"`

	Database struct {
		History string `koanf:"history"`
	} `koanf:"database"`
}

// FromConfig layers defaults, the optional CORE_CLASSIFY_CONFIG file and CORE_CLASSIFY_* env values
func FromConfig(cfg config.Conf) (Options, error) {
	cc := cfg.Prefix("CORE_CLASSIFY_")
	o := Defaults()

	o.ConfigPath = cc.MayString("CONFIG", "")
	if o.ConfigPath != "" {
		f, err := config.LoadFile(o.ConfigPath, "SENTIMENTD_")
		if err != nil {
			return o, err
		}
		var doc fileDoc
		if err := f.Unmarshal("", &doc); err != nil {
			return o, err
		}
		if err := o.applyFile(doc); err != nil {
			return o, err
		}
	}

	kind := cc.MayEnum("MODEL_KIND", string(o.Engine.Kind), inference.Kinds()...)
	o.Engine.Kind = inference.Kind(kind)
	o.Engine.Path = cc.MayString("MODEL_PATH", o.Engine.Path)
	o.Engine.URL = cc.MayString("MODEL_URL", o.Engine.URL)
	o.Engine.Model = cc.MayString("MODEL_NAME", o.Engine.Model)
	o.Engine.Timeout = cc.MayDuration("MODEL_TIMEOUT", o.Engine.Timeout)
	o.Engine.Width = cc.MayInt("SEQUENCE_LENGTH", o.Engine.Width)
	o.Engine.Outputs = cc.MayInt("OUTPUTS", o.Engine.Outputs)
	o.Engine.MaxInFlight = cc.MayInt("MAX_INFLIGHT", o.Engine.MaxInFlight)

	bc := cc.Prefix("BREAKER_")
	o.Engine.Breaker = inference.BreakerConfig{
		MinRequests:    uint32(bc.MayInt("MIN_REQUESTS", int(o.Engine.Breaker.MinRequests))),
		FailureRatio:   bc.MayFloat64("FAILURE_RATIO", o.Engine.Breaker.FailureRatio),
		Interval:       bc.MayDuration("INTERVAL", o.Engine.Breaker.Interval),
		OpenFor:        bc.MayDuration("OPEN_FOR", o.Engine.Breaker.OpenFor),
		HalfOpenProbes: uint32(bc.MayInt("HALF_OPEN_PROBES", int(o.Engine.Breaker.HalfOpenProbes))),
	}

	o.VocabPath = cc.MayString("VOCAB_PATH", o.VocabPath)
	o.Labels = cc.MayCSV("LABELS", o.Labels)
	o.Threshold = cc.MayFloat64("THRESHOLD", o.Threshold)

	o.Language = cc.MayString("LANGUAGE", o.Language)
	o.Stem = cc.MayBool("STEM", o.Stem)
	o.Fold = cc.MayBool("FOLD", o.Fold)
	o.CacheSize = cc.MayInt("CACHE_SIZE", o.CacheSize)

	o.MaxTextLength = cc.MayInt("MAX_TEXT_LENGTH", o.MaxTextLength)
	o.MaxItems = cc.MayInt("MAX_ITEMS", o.MaxItems)
	o.MaxBody = int64(cc.MayInt("MAX_BODY", int(o.MaxBody)))
	o.Timeout = cc.MayDuration("TIMEOUT", o.Timeout)

	o.History = cc.MayEnum("HISTORY", o.History, repo.Backends()...)
	return o, nil
}

// applyFile copies the values the document sets
func (o *Options) applyFile(d fileDoc) error {
	c := d.Classifier
	if c.Kind != "" {
		k, err := inference.ParseKind(c.Kind)
		if err != nil {
			return err
		}
		o.Engine.Kind = k
	}
	setString(&o.Engine.Path, c.ModelPath)
	setString(&o.Engine.URL, c.ModelURL)
	setString(&o.Engine.Model, c.ModelName)
	setString(&o.VocabPath, c.VocabPath)
	if c.ModelTimeout > 0 {
		o.Engine.Timeout = c.ModelTimeout
	}
	setInt(&o.Engine.Width, c.SequenceLength)
	setInt(&o.Engine.Outputs, c.Outputs)
	if labels := str.TrimAll(c.Labels); len(labels) > 0 {
		o.Labels = labels
	}
	if c.Threshold > 0 {
		o.Threshold = c.Threshold
	}

	p := d.Preprocessor
	setString(&o.Language, p.Language)
	if p.Stem != nil {
		o.Stem = *p.Stem
	}
	if p.Fold != nil {
		o.Fold = *p.Fold
	}
	setInt(&o.CacheSize, p.CacheSize)

	a := d.API
	setInt(&o.MaxTextLength, a.MaxTextLength)
	setInt(&o.MaxItems, a.MaxItems)
	setInt(&o.Engine.MaxInFlight, a.MaxInFlight)
	if a.Timeout > 0 {
		o.Timeout = a.Timeout
	}

	if h := strings.ToLower(d.Database.History); h != "" {
		if !slices.Contains(repo.Backends(), h) {
			return perr.Configurationf("database.history %q is not one of %s", h, strings.Join(repo.Backends(), ", "))
		}
		o.History = h
	}
	return nil
}

func setString(dst *string, v string) {
	if v != "" {
		*dst = v
	}
}

func setInt(dst *int, v int) {
	if v != 0 {
		*dst = v
	}
}
