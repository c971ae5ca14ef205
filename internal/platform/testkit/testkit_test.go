package testkit

import (
	"os"
	"testing"
)

var seam = func() string { return "real" }

func TestSwapRestores(t *testing.T) {
	t.Run("inner", func(t *testing.T) {
		Swap(t, &seam, func() string { return "fake" })
		if seam() != "fake" {
			t.Fatalf("swap not applied")
		}
	})
	if seam() != "real" {
		t.Fatalf("seam not restored")
	}
}

func TestWriteFile(t *testing.T) {
	p := WriteFile(t, "vocab.json", `{"great":1}`)
	b, err := os.ReadFile(p)
	if err != nil || string(b) != `{"great":1}` {
		t.Fatalf("read back %q %v", b, err)
	}
}

func TestMustHelpers(t *testing.T) {
	MustPanic(t, func() { panic("boom") })
	MustContain(t, "label=positive score=0.8", "positive")
}
