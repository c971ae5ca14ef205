// Package config reads prefix scoped settings from the environment
package config

import (
	"net/url"
	"os"
	"strconv"
	"strings"
	"time"

	"sentimentd/internal/platform/logger"
)

// Conf is a prefix scoped view over a key/value source, the process env by default
// New().Prefix("CORE_CLASSIFY_").MayInt("SEQUENCE_LENGTH", 50) reads CORE_CLASSIFY_SEQUENCE_LENGTH
type Conf struct {
	prefix string
	lookup func(string) (string, bool)
}

// New returns a root Conf over the process environment
func New() Conf { return Conf{lookup: os.LookupEnv} }

// FromMap returns a root Conf over a fixed map, handy for tests and CLI flag overlays
func FromMap(m map[string]string) Conf {
	return Conf{lookup: func(k string) (string, bool) {
		v, ok := m[k]
		return v, ok
	}}
}

// Prefix returns a child Conf whose keys gain p
func (c Conf) Prefix(p string) Conf {
	c.prefix += p
	return c
}

// With layers overrides (full keys, prefix included) on top of c
// empty override values are ignored so unset CLI flags fall through
func (c Conf) With(overrides map[string]string) Conf {
	base := c.source()
	c.lookup = func(k string) (string, bool) {
		if v, ok := overrides[k]; ok && strings.TrimSpace(v) != "" {
			return v, true
		}
		return base(k)
	}
	return c
}

// Key returns the fully qualified key
func (c Conf) Key(k string) string { return c.prefix + k }

func (c Conf) source() func(string) (string, bool) {
	if c.lookup == nil {
		return os.LookupEnv
	}
	return c.lookup
}

// raw returns the trimmed value and whether it is non empty
func (c Conf) raw(key string) (string, bool) {
	v, _ := c.source()(c.Key(key))
	v = strings.TrimSpace(v)
	return v, v != ""
}

// Has reports whether key is set to a non empty value
func (c Conf) Has(key string) bool {
	_, ok := c.raw(key)
	return ok
}

func must[T any](c Conf, key, kind string, parse func(string) (T, error)) T {
	s, ok := c.raw(key)
	if !ok {
		logger.Get().Panic().Str("key", c.Key(key)).Msg("missing required env")
	}
	v, err := parse(s)
	if err != nil {
		logger.Get().Panic().Err(err).Str("key", c.Key(key)).Str("value", s).Msgf("invalid %s value", kind)
	}
	return v
}

func may[T any](c Conf, key, kind string, def T, parse func(string) (T, error)) T {
	s, ok := c.raw(key)
	if !ok {
		return def
	}
	v, err := parse(s)
	if err != nil {
		logger.Get().Warn().Str("key", c.Key(key)).Str("value", s).Interface("default", def).
			Msgf("invalid %s; using default", kind)
		return def
	}
	return v
}

func parseString(s string) (string, error) { return s, nil }

func parseURL(s string) (*url.URL, error) {
	u, err := url.Parse(s)
	if err != nil {
		return nil, err
	}
	if !u.IsAbs() {
		return nil, &url.Error{Op: "parse", URL: s, Err: strconv.ErrSyntax}
	}
	return u, nil
}

// MustString panics when key is missing or empty
func (c Conf) MustString(key string) string { return must(c, key, "string", parseString) }

// MustInt panics when key is missing or not an int
func (c Conf) MustInt(key string) int { return must(c, key, "int", strconv.Atoi) }

// MustDuration panics when key is missing or not a duration (250ms, 2s)
func (c Conf) MustDuration(key string) time.Duration {
	return must(c, key, "duration", time.ParseDuration)
}

// MustURL panics when key is missing or not an absolute URL
func (c Conf) MustURL(key string) *url.URL { return must(c, key, "absolute URL", parseURL) }

// Require panics unless every key is set
func (c Conf) Require(keys ...string) {
	for _, k := range keys {
		if !c.Has(k) {
			logger.Get().Panic().Str("key", c.Key(k)).Msg("missing required env")
		}
	}
}

// MayString returns the value or def
func (c Conf) MayString(key, def string) string { return may(c, key, "string", def, parseString) }

// MayInt returns the value or def; invalid values log a warning and fall back
func (c Conf) MayInt(key string, def int) int { return may(c, key, "int", def, strconv.Atoi) }

// MayFloat64 returns the value or def; invalid values log a warning and fall back
func (c Conf) MayFloat64(key string, def float64) float64 {
	return may(c, key, "float64", def, func(s string) (float64, error) { return strconv.ParseFloat(s, 64) })
}

// MayBool returns the value or def; invalid values log a warning and fall back
func (c Conf) MayBool(key string, def bool) bool { return may(c, key, "bool", def, strconv.ParseBool) }

// MayDuration returns the value or def; invalid values log a warning and fall back
func (c Conf) MayDuration(key string, def time.Duration) time.Duration {
	return may(c, key, "duration", def, time.ParseDuration)
}

// MayCSV splits a comma separated value, dropping blanks; def when nothing remains
func (c Conf) MayCSV(key string, def []string) []string {
	s, ok := c.raw(key)
	if !ok {
		return def
	}
	var out []string
	for _, p := range strings.Split(s, ",") {
		if v := strings.TrimSpace(p); v != "" {
			out = append(out, v)
		}
	}
	if len(out) == 0 {
		return def
	}
	return out
}

// MayEnum returns the lower cased value when it is one of allowed, def when unset
// a value outside allowed panics since it is always an operator typo
func (c Conf) MayEnum(key, def string, allowed ...string) string {
	v := strings.ToLower(c.MayString(key, def))
	if v == "" {
		return v
	}
	for _, a := range allowed {
		if v == strings.ToLower(a) {
			return v
		}
	}
	logger.Get().Panic().Str("key", c.Key(key)).Str("value", v).Strs("allowed", allowed).Msg("invalid enum value")
	return ""
}
