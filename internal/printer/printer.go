// Package printer writes coloured status lines for the CLI. Everything goes
// to stderr so stdout stays free for rendered documents.
package printer

import (
	"fmt"
	"io"
	"log"
	"os"
	"strings"

	"github.com/fatih/color"
)

var (
	green  = color.New(color.FgGreen)
	yellow = color.New(color.FgYellow)
	red    = color.New(color.FgRed, color.Bold)
	cyan   = color.New(color.FgCyan)
)

// Out is where status lines are written.
var Out io.Writer = os.Stderr

// Success prints a green message with a checkmark prefix
func Success(format string, a ...any) {
	msg := fmt.Sprintf(format, a...)
	if !strings.HasPrefix(msg, "✓") {
		msg = "✓ " + msg
	}
	green.Fprint(Out, msg)
}

// Warning prints a yellow message with a warning prefix
func Warning(format string, a ...any) {
	msg := fmt.Sprintf(format, a...)
	if !strings.HasPrefix(msg, "⚠️") {
		msg = "⚠️  " + msg
	}
	yellow.Fprint(Out, msg)
}

// Step prints a step message with emphasis
func Step(format string, a ...any) {
	cyan.Fprintf(Out, "→ %s", fmt.Sprintf(format, a...))
}

// Error prints title in red followed by an explanation and returns an error
// carrying the title.
func Error(title, explanation string) error {
	red.Fprintf(Out, "%s\n", title)
	if explanation != "" {
		fmt.Fprintf(Out, "%s\n", explanation)
	}
	return fmt.Errorf("%s", title)
}

// Logger returns the logger handed to the binding engine. Quiet discards
// everything.
func Logger(quiet bool) *log.Logger {
	if quiet {
		return log.New(io.Discard, "", 0)
	}
	return log.New(Out, "[loader] ", 0)
}
