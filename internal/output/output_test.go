package output

import (
	"io"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
)

// forceTerminal pins the terminal detection for one test.
func forceTerminal(t *testing.T, isTTY bool) {
	t.Helper()
	original := IsTerminal
	IsTerminal = func(io.Writer) bool { return isTTY }
	t.Cleanup(func() { IsTerminal = original })
}

// TestPlainWhenNotTerminal verifies that piped output carries no ANSI
// escape codes.
func TestPlainWhenNotTerminal(t *testing.T) {
	forceTerminal(t, false)

	var buf strings.Builder
	_, err := Fprintf(&buf, Green, "✓ %s", "python")
	assert.NoError(t, err)
	assert.Equal(t, "✓ python", buf.String())

	buf.Reset()
	_, err = Fprintln(&buf, Red, "✗ docker")
	assert.NoError(t, err)
	assert.Equal(t, "✗ docker\n", buf.String())
}

// TestColoredWhenTerminal verifies that terminal output is wrapped in
// the color's escape codes.
func TestColoredWhenTerminal(t *testing.T) {
	forceTerminal(t, true)

	var buf strings.Builder
	_, err := Fprintf(&buf, Green, "✓ %s", "python")
	assert.NoError(t, err)
	assert.Contains(t, buf.String(), "✓ python")
	assert.Contains(t, buf.String(), "\x1b[")
}
