package strings

import (
	"testing"

	"sentimentd/internal/platform/testkit"
)

func TestIfEmpty(t *testing.T) {
	t.Parallel()

	if got := IfEmpty([]int{1, 2}, []int{9}); len(got) != 2 {
		t.Fatalf("non empty replaced: %v", got)
	}
	if got := IfEmpty(nil, []string{"x"}); len(got) != 1 || got[0] != "x" {
		t.Fatalf("default not used: %v", got)
	}
}

func TestMustPrefix(t *testing.T) {
	t.Parallel()

	for in, want := range map[string]string{
		"classify":    "/classify",
		" /meta/ ":    "/meta",
		"//history//": "/history",
	} {
		if got := MustPrefix(in); got != want {
			t.Fatalf("MustPrefix(%q) = %q want %q", in, got, want)
		}
	}
	testkit.MustPanic(t, func() { MustPrefix(" / ") })
}

func TestClip(t *testing.T) {
	t.Parallel()

	tests := []struct {
		in   string
		n    int
		want string
	}{
		{"short", 10, "short"},
		{"exactly", 7, "exactly"},
		{"héllo wörld", 5, "héllo…"},
		{"anything", 0, "anything"},
	}
	for _, tt := range tests {
		if got := Clip(tt.in, tt.n); got != tt.want {
			t.Fatalf("Clip(%q,%d) = %q want %q", tt.in, tt.n, got, tt.want)
		}
	}
}

func TestTrimAll(t *testing.T) {
	t.Parallel()

	got := TrimAll([]string{" negative ", "", "  ", "positive"})
	if len(got) != 2 || got[0] != "negative" || got[1] != "positive" {
		t.Fatalf("got %q", got)
	}
}
