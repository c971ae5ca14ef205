package config

import (
	"testing"
	"time"

	kit "sentimentd/internal/platform/testkit"
)

func TestPrefixAndKey(t *testing.T) {
	cc := New().Prefix("CORE_").Prefix("CLASSIFY_")
	if got := cc.Key("LABELS"); got != "CORE_CLASSIFY_LABELS" {
		t.Fatalf("Key() = %q", got)
	}
}

func TestMust(t *testing.T) {
	c := FromMap(map[string]string{
		"APP_NAME":    "  sentimentd ",
		"APP_WORKERS": "8",
		"APP_BAD":     "x",
		"APP_WAIT":    "250ms",
		"APP_URL":     "http://tf-serving:8501",
		"APP_REL":     "/v1/models",
	}).Prefix("APP_")

	if got := c.MustString("NAME"); got != "sentimentd" {
		t.Fatalf("MustString = %q", got)
	}
	if got := c.MustInt("WORKERS"); got != 8 {
		t.Fatalf("MustInt = %d", got)
	}
	if got := c.MustDuration("WAIT"); got != 250*time.Millisecond {
		t.Fatalf("MustDuration = %v", got)
	}
	if got := c.MustURL("URL"); got.Host != "tf-serving:8501" {
		t.Fatalf("MustURL host = %q", got.Host)
	}

	kit.MustPanic(t, func() { _ = c.MustString("MISSING") })
	kit.MustPanic(t, func() { _ = c.MustInt("BAD") })
	kit.MustPanic(t, func() { _ = c.MustURL("REL") })
	kit.MustPanic(t, func() { c.Require("NAME", "MISSING") })
}

func TestMay(t *testing.T) {
	c := FromMap(map[string]string{
		"N":      "12",
		"N_BAD":  "twelve",
		"F":      "0.65",
		"B":      "true",
		"D":      "2s",
		"CSV":    " negative, ,positive ",
		"CSV_WS": " , ",
		"KIND":   "Remote",
	})

	if got := c.MayInt("N", 1); got != 12 {
		t.Fatalf("MayInt = %d", got)
	}
	if got := c.MayInt("N_BAD", 1); got != 1 {
		t.Fatalf("MayInt invalid should fall back, got %d", got)
	}
	if got := c.MayFloat64("F", 0.5); got != 0.65 {
		t.Fatalf("MayFloat64 = %v", got)
	}
	if !c.MayBool("B", false) {
		t.Fatalf("MayBool = false")
	}
	if got := c.MayDuration("D", time.Second); got != 2*time.Second {
		t.Fatalf("MayDuration = %v", got)
	}
	if got := c.MayString("MISSING", "def"); got != "def" {
		t.Fatalf("MayString default = %q", got)
	}

	csv := c.MayCSV("CSV", nil)
	if len(csv) != 2 || csv[0] != "negative" || csv[1] != "positive" {
		t.Fatalf("MayCSV = %#v", csv)
	}
	if got := c.MayCSV("CSV_WS", []string{"d"}); len(got) != 1 || got[0] != "d" {
		t.Fatalf("MayCSV blank = %#v", got)
	}

	if got := c.MayEnum("KIND", "linear", "linear", "remote"); got != "remote" {
		t.Fatalf("MayEnum = %q", got)
	}
	if got := c.MayEnum("UNSET", "linear", "linear", "remote"); got != "linear" {
		t.Fatalf("MayEnum default = %q", got)
	}
	kit.MustPanic(t, func() { _ = c.MayEnum("KIND", "linear", "linear", "onnx") })
}

func TestWithOverlay(t *testing.T) {
	base := FromMap(map[string]string{"CORE_BATCH_WORKERS": "2", "CORE_BATCH_CHUNK": "64"})
	c := base.With(map[string]string{"CORE_BATCH_WORKERS": "6", "CORE_BATCH_CHUNK": " "}).Prefix("CORE_BATCH_")

	if got := c.MayInt("WORKERS", 1); got != 6 {
		t.Fatalf("override WORKERS = %d", got)
	}
	if got := c.MayInt("CHUNK", 1); got != 64 {
		t.Fatalf("blank override should fall through, got %d", got)
	}
}

func TestEnvIsDefaultSource(t *testing.T) {
	t.Setenv("CORE_API_PORT", ":4100")
	if got := New().Prefix("CORE_API_").MayString("PORT", ":4000"); got != ":4100" {
		t.Fatalf("MayString from env = %q", got)
	}
	var zero Conf
	if got := zero.MayString("CORE_API_PORT", ""); got != ":4100" {
		t.Fatalf("zero Conf should read env, got %q", got)
	}
}
