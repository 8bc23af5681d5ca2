// Package logger prints pipeline diagnostics for qpro. Output is off
// unless --verbose is given and always goes to stderr, so stdout stays
// clean for drafts, JSON and the MCP stdio transport.
package logger

import (
	"fmt"
	"io"
	"os"
	"sort"
	"strings"
	"sync"
	"time"
)

var (
	mu      sync.RWMutex
	verbose bool
	output  io.Writer = os.Stderr
	now               = time.Now
)

// SetVerbose turns diagnostics on or off.
func SetVerbose(v bool) {
	mu.Lock()
	defer mu.Unlock()
	verbose = v
}

// IsVerbose reports whether diagnostics are on.
func IsVerbose() bool {
	mu.RLock()
	defer mu.RUnlock()
	return verbose
}

// SetOutput redirects diagnostics. Tests use it to capture output.
func SetOutput(w io.Writer) {
	mu.Lock()
	defer mu.Unlock()
	output = w
}

func logf(prefix, format string, args ...any) {
	mu.RLock()
	defer mu.RUnlock()
	if !verbose {
		return
	}
	fmt.Fprintf(output, prefix+format+"\n", args...)
}

// Debug prints a detail line, e.g. chunk counts or prompt sizes.
func Debug(format string, args ...any) { logf("[DEBUG] ", format, args...) }

// Info prints a progress line.
func Info(format string, args ...any) { logf("[INFO] ", format, args...) }

// Warn prints a recoverable problem, e.g. a skipped file or a fallback
// to keyword-only retrieval.
func Warn(format string, args ...any) { logf("[WARN] ", format, args...) }

// Section prints a stage header such as "Ingest" or "Draft".
func Section(name string) { logf("", "\n=== %s ===", name) }

// Fields prints msg followed by key=value pairs sorted by key.
func Fields(msg string, fields map[string]any) {
	if !IsVerbose() {
		return
	}
	keys := make([]string, 0, len(fields))
	for k := range fields {
		keys = append(keys, k)
	}
	sort.Strings(keys)

	var b strings.Builder
	b.WriteString(msg)
	for _, k := range keys {
		fmt.Fprintf(&b, " %s=%v", k, fields[k])
	}
	logf("[DEBUG] ", "%s", b.String())
}

// Timed starts a stopwatch for stage and returns the function that logs
// its duration. Use as: defer logger.Timed("embed")().
func Timed(stage string) func() {
	start := now()
	return func() {
		logf("[TIME] ", "%s took %s", stage, now().Sub(start).Round(time.Millisecond))
	}
}
