package logger

import (
	"bytes"
	"os"
	"testing"
	"time"
)

// capture enables verbose output into a buffer and restores defaults
// when the test ends.
func capture(t *testing.T, on bool) *bytes.Buffer {
	t.Helper()
	var buf bytes.Buffer
	SetOutput(&buf)
	SetVerbose(on)
	t.Cleanup(func() {
		SetVerbose(false)
		SetOutput(os.Stderr)
		now = time.Now
	})
	return &buf
}

func TestSetVerbose(t *testing.T) {
	capture(t, false)
	if IsVerbose() {
		t.Fatal("verbose should start off")
	}
	SetVerbose(true)
	if !IsVerbose() {
		t.Fatal("verbose should be on")
	}
}

func TestLevels(t *testing.T) {
	tests := []struct {
		name string
		log  func()
		want string
	}{
		{"debug", func() { Debug("chunks=%d", 3) }, "[DEBUG] chunks=3\n"},
		{"info", func() { Info("ingested %s", "cv.pdf") }, "[INFO] ingested cv.pdf\n"},
		{"warn", func() { Warn("skipped %s", "a.exe") }, "[WARN] skipped a.exe\n"},
		{"section", func() { Section("Draft") }, "\n=== Draft ===\n"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			buf := capture(t, true)
			tt.log()
			if got := buf.String(); got != tt.want {
				t.Errorf("got %q, want %q", got, tt.want)
			}
		})
	}
}

func TestQuietWhenNotVerbose(t *testing.T) {
	buf := capture(t, false)
	Debug("x")
	Info("x")
	Warn("x")
	Section("x")
	Fields("x", map[string]any{"a": 1})
	Timed("x")()
	if buf.Len() != 0 {
		t.Errorf("expected no output, got %q", buf.String())
	}
}

func TestFields_SortedKeys(t *testing.T) {
	buf := capture(t, true)
	Fields("retrieved", map[string]any{"k": 8, "hits": 5, "mode": "hybrid"})
	want := "[DEBUG] retrieved hits=5 k=8 mode=hybrid\n"
	if got := buf.String(); got != want {
		t.Errorf("got %q, want %q", got, want)
	}
}

func TestTimed(t *testing.T) {
	buf := capture(t, true)
	start := time.Date(2026, 1, 1, 0, 0, 0, 0, time.UTC)
	calls := 0
	now = func() time.Time {
		calls++
		if calls == 1 {
			return start
		}
		return start.Add(1500 * time.Millisecond)
	}

	Timed("generate")()

	want := "[TIME] generate took 1.5s\n"
	if got := buf.String(); got != want {
		t.Errorf("got %q, want %q", got, want)
	}
}
