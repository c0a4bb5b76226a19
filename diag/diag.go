// Package diag implements the error/warning model of spec §7: loud errors
// that abort a compilation unit and soft warnings that accumulate into a
// message list printed before a successful exit.
package diag

import (
	"fmt"
	"strings"

	"github.com/tide-lang/tidec/lexer"
)

// Severity distinguishes a loud Error from a soft Warning (spec §7).
type Severity int

const (
	Error Severity = iota
	Warning
)

func (s Severity) String() string {
	if s == Warning {
		return "warning"
	}
	return "error"
}

// Diagnostic is one reported message: a file path, position, message, and
// optional explanatory comment (spec §7 "Propagation").
type Diagnostic struct {
	Severity Severity
	Path     string
	Pos      lexer.Pos
	Message  string
	Comment  string
}

func (d *Diagnostic) Error() string { return d.Format("") }

// Format renders the diagnostic the way the driver prints it: file path,
// line, column, a caret-indicated source excerpt (when src is non-empty),
// message, and optional comment.
func (d *Diagnostic) Format(src string) string {
	var sb strings.Builder
	fmt.Fprintf(&sb, "%s:%s: %s: %s", d.Path, d.Pos, d.Severity, d.Message)
	if d.Comment != "" {
		fmt.Fprintf(&sb, " (%s)", d.Comment)
	}
	if src != "" {
		if line := sourceLine(src, d.Pos.Line); line != "" {
			sb.WriteByte('\n')
			sb.WriteString(line)
			sb.WriteByte('\n')
			sb.WriteString(strings.Repeat(" ", max(0, d.Pos.Col-1)))
			sb.WriteByte('^')
		}
	}
	return sb.String()
}

func sourceLine(src string, line int) string {
	lines := strings.Split(src, "\n")
	if line < 1 || line > len(lines) {
		return ""
	}
	return lines[line-1]
}

func max(a, b int) int {
	if a > b {
		return a
	}
	return b
}

// Bag accumulates messages produced across one compilation unit, mirroring
// the "message list" owned by ParserMetadata/TranslateMetadata (spec §5).
type Bag struct {
	Messages []*Diagnostic
}

func (b *Bag) Add(d *Diagnostic) { b.Messages = append(b.Messages, d) }

func (b *Bag) Warnf(path string, pos lexer.Pos, format string, args ...interface{}) {
	b.Add(&Diagnostic{Severity: Warning, Path: path, Pos: pos, Message: fmt.Sprintf(format, args...)})
}

// HasErrors reports whether any accumulated message is a loud Error. Loud
// parse/type/import errors in this compiler are normally returned directly
// rather than accumulated, but the checker (spec §4.2) collects both
// severities into one Bag so the driver can report every error found in a
// single pass instead of stopping at the first one.
func (b *Bag) HasErrors() bool {
	for _, m := range b.Messages {
		if m.Severity == Error {
			return true
		}
	}
	return false
}

func (b *Bag) Warnings() []*Diagnostic {
	var out []*Diagnostic
	for _, m := range b.Messages {
		if m.Severity == Warning {
			out = append(out, m)
		}
	}
	return out
}

func (b *Bag) Errors() []*Diagnostic {
	var out []*Diagnostic
	for _, m := range b.Messages {
		if m.Severity == Error {
			out = append(out, m)
		}
	}
	return out
}
