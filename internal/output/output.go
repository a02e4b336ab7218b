// Package output renders the CLI's user-facing status lines.
//
// Color is applied only when the destination is a terminal, so piping
// preflight into a file or another tool yields plain text. Errors and
// debug logging do not go through this package — they belong to stderr
// and logrus respectively.
package output

import (
	"fmt"
	"io"
	"os"

	"github.com/heroku/color"
	"golang.org/x/term"
)

// Semantic colors used across the CLI. Status lines stay consistent by
// always picking from this fixed set rather than styling ad hoc.
var (
	// Green marks satisfied checks and successful steps.
	Green = color.New(color.FgGreen)

	// Red marks failed checks and fatal problems.
	Red = color.New(color.FgRed)

	// Yellow marks warnings: outdated tools, skipped steps, port
	// conflicts reported by doctor.
	Yellow = color.New(color.FgYellow)

	// Cyan marks informational step headers.
	Cyan = color.New(color.FgCyan)

	// Bold emphasizes identifiers inside otherwise plain lines.
	Bold = color.New(color.Bold)
)

// IsTerminal reports whether the writer is a terminal. It is a variable
// so tests can force either behavior.
var IsTerminal = isTerminal

func isTerminal(w io.Writer) bool {
	if f, ok := w.(*os.File); ok {
		return term.IsTerminal(int(f.Fd()))
	}
	return false
}

// Fprint writes the operands wrapped in the color's ANSI codes when out
// is a terminal, plain otherwise.
func Fprint(out io.Writer, c *color.Color, a ...interface{}) (int, error) {
	if IsTerminal(out) {
		return fmt.Fprint(out, c.Sprint(a...))
	}
	return fmt.Fprint(out, a...)
}

// Fprintln behaves like Fprint with a trailing newline.
func Fprintln(out io.Writer, c *color.Color, a ...interface{}) (int, error) {
	if IsTerminal(out) {
		return fmt.Fprintln(out, c.Sprint(a...))
	}
	return fmt.Fprintln(out, a...)
}

// Fprintf formats according to the format specifier and writes the
// result, colored when out is a terminal.
func Fprintf(out io.Writer, c *color.Color, format string, a ...interface{}) (int, error) {
	if IsTerminal(out) {
		return fmt.Fprint(out, c.Sprintf(format, a...))
	}
	return fmt.Fprintf(out, format, a...)
}
