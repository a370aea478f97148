package logger

import (
	"bytes"
	"os"
	"strings"
	"testing"
)

// capture redirects stdout for the duration of fn and returns what was
// printed. The pipe is not a terminal, so isatty disables colors and the
// output is plain text.
func capture(t *testing.T, fn func()) string {
	t.Helper()
	old := os.Stdout
	r, w, err := os.Pipe()
	if err != nil {
		t.Fatalf("pipe: %v", err)
	}
	os.Stdout = w
	fn()
	w.Close()
	os.Stdout = old

	var buf bytes.Buffer
	buf.ReadFrom(r)
	return buf.String()
}

func TestLevels_PlainOutput(t *testing.T) {
	out := capture(t, func() {
		Info("pipeline", "shortlist ready")
		Success("DB", "opened")
		Warn("policy", "over cap")
		Error("catalog", "load failed")
	})
	for _, want := range []string{
		"INFO [pipeline] shortlist ready",
		" OK  [DB] opened",
		"WARN [policy] over cap",
		"FAIL [catalog] load failed",
	} {
		if !strings.Contains(out, want) {
			t.Fatalf("output %q missing %q", out, want)
		}
	}
	if strings.Contains(out, "\033[") {
		t.Fatal("colors emitted to a non-terminal")
	}
}

func TestBanner(t *testing.T) {
	out := capture(t, func() { Banner("v1.2.3") })
	if !strings.Contains(out, "procur") || !strings.Contains(out, "v1.2.3") {
		t.Fatalf("banner = %q", out)
	}
	out = capture(t, func() { Banner("") })
	if !strings.Contains(out, "dev") {
		t.Fatalf("empty version banner = %q", out)
	}
}

func TestSectionAndStats(t *testing.T) {
	out := capture(t, func() {
		Section("Recommendations")
		Stats("vendors", 5)
	})
	if !strings.Contains(out, "--- Recommendations ---") {
		t.Fatalf("section = %q", out)
	}
	if !strings.Contains(out, "vendors: 5") {
		t.Fatalf("stats = %q", out)
	}
}
