package actions

import (
	"fmt"
	"io"
	"strings"

	"github.com/fatih/color"

	"github.com/fyrsmithlabs/secretsguard/internal/checker"
)

// ConsoleReporter prints diagnostics for a terminal. Group contents are
// indented under a bold heading.
type ConsoleReporter struct {
	w     io.Writer
	depth int

	heading *color.Color
	errTag  *color.Color
	loc     *color.Color
}

var _ checker.Reporter = (*ConsoleReporter)(nil)

// NewConsoleReporter creates a ConsoleReporter writing to w. Colour escapes
// are written only when colored is true.
func NewConsoleReporter(w io.Writer, colored bool) *ConsoleReporter {
	r := &ConsoleReporter{
		w:       w,
		heading: color.New(color.Bold),
		errTag:  color.New(color.FgRed, color.Bold),
		loc:     color.New(color.FgCyan),
	}
	for _, c := range []*color.Color{r.heading, r.errTag, r.loc} {
		if colored {
			c.EnableColor()
		} else {
			c.DisableColor()
		}
	}
	return r
}

func (r *ConsoleReporter) indent() string {
	return strings.Repeat("  ", r.depth)
}

func (r *ConsoleReporter) Info(msg string) {
	fmt.Fprintf(r.w, "%s%s\n", r.indent(), msg)
}

// Error prints msg prefixed with its location as file:line:col, 1-indexed.
func (r *ConsoleReporter) Error(msg string, at checker.Annotation) {
	prefix := r.errTag.Sprint("error:")
	if at.File != "" {
		where := at.File
		if at.Line > 0 {
			where = fmt.Sprintf("%s:%d:%d", at.File, at.Line, at.Column+1)
		}
		prefix = r.loc.Sprint(where) + ": " + prefix
	}
	fmt.Fprintf(r.w, "%s%s %s\n", r.indent(), prefix, msg)
}

func (r *ConsoleReporter) StartGroup(label string) {
	fmt.Fprintf(r.w, "%s%s\n", r.indent(), r.heading.Sprint(label))
	r.depth++
}

func (r *ConsoleReporter) EndGroup() {
	if r.depth > 0 {
		r.depth--
	}
}
