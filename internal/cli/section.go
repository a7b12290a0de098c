// Package cli holds the presentation and daemon-liveness helpers shared by
// cmd/almd's subcommands: colorized section output, a trimmed health probe
// for the daemon's own PID file, and a tail reader for its log file.
package cli

import (
	"fmt"
	"io"
	"os"

	"github.com/fatih/color"
)

// SectionWriter prints cobra command output in color-coded sections, the
// way devlog.SectionWriter did for the orchestrator's Up/Down phases, but
// through fatih/color's SprintFunc idiom instead of raw ANSI escapes.
type SectionWriter struct {
	w      io.Writer
	colors bool

	cyan, blue, green, yellow, red func(a ...any) string
}

// NewSectionWriter constructs a SectionWriter. A nil w defaults to stdout.
func NewSectionWriter(w io.Writer, colors bool) *SectionWriter {
	if w == nil {
		w = os.Stdout
	}
	return &SectionWriter{
		w:      w,
		colors: colors,
		cyan:   color.New(color.FgCyan).SprintFunc(),
		blue:   color.New(color.FgBlue).SprintFunc(),
		green:  color.New(color.FgGreen).SprintFunc(),
		yellow: color.New(color.FgYellow).SprintFunc(),
		red:    color.New(color.FgRed).SprintFunc(),
	}
}

func (s *SectionWriter) Section(name string) {
	if s.colors {
		fmt.Fprintf(s.w, "\n-- %s --\n", s.cyan(name))
		return
	}
	fmt.Fprintf(s.w, "\n-- %s --\n", name)
}

func (s *SectionWriter) Info(format string, args ...any) {
	msg := fmt.Sprintf(format, args...)
	if s.colors {
		fmt.Fprintf(s.w, "%s %s\n", s.blue(">"), msg)
		return
	}
	fmt.Fprintf(s.w, "> %s\n", msg)
}

func (s *SectionWriter) Success(format string, args ...any) {
	msg := fmt.Sprintf(format, args...)
	if s.colors {
		fmt.Fprintf(s.w, "%s %s\n", s.green("ok"), msg)
		return
	}
	fmt.Fprintf(s.w, "ok %s\n", msg)
}

func (s *SectionWriter) Warn(format string, args ...any) {
	msg := fmt.Sprintf(format, args...)
	if s.colors {
		fmt.Fprintf(s.w, "%s %s\n", s.yellow("warn"), msg)
		return
	}
	fmt.Fprintf(s.w, "warn %s\n", msg)
}

func (s *SectionWriter) Error(format string, args ...any) {
	msg := fmt.Sprintf(format, args...)
	if s.colors {
		fmt.Fprintf(os.Stderr, "%s %s\n", s.red("error"), msg)
		return
	}
	fmt.Fprintf(os.Stderr, "error %s\n", msg)
}
