// Package diag is the Diagnostic Engine (spec §4.7): it collects
// diagnostics as they are raised across every stage, sorts them at flush
// time, and renders each with a three-line source window. Rendering is
// delegated to an injected Formatter so the core never depends on terminal
// capabilities.
package diag

import (
	"fmt"
	"sort"
	"strings"
	"sync"

	"github.com/dekarrin/rosed"

	"github.com/BurntChromium/iona-lang/internal/source"
)

// Severity distinguishes errors (which block stage advancement) from
// warnings (which never do).
type Severity int

const (
	Warning Severity = iota
	Error
)

func (s Severity) String() string {
	if s == Error {
		return "error"
	}
	return "warning"
}

// Code is one of the closed error kinds of spec §7.
type Code string

const (
	CodeLex                 Code = "Lex"
	CodeParse               Code = "Parse"
	CodeNameNotFound        Code = "NameNotFound"
	CodeTypeMismatch        Code = "TypeMismatch"
	CodePermissionMissing   Code = "PermissionMissing"
	CodePurityViolated      Code = "PurityViolated"
	CodeContractFailure     Code = "ContractFailure"
	CodeDeprecatedAlias     Code = "DeprecatedAlias"
	CodeInternalCompilerErr Code = "InternalCompilerError"
)

// Diagnostic is one reported problem.
type Diagnostic struct {
	Severity       Severity
	Code           Code
	PrimarySpan    source.Span
	SecondarySpans []source.Span
	Message        string
	Hint           string
}

// Engine accumulates diagnostics across every stage of a compilation run.
// A single Engine is shared across every file of a CompileAll run (spec
// §5: the module symbol table is the only cross-file synchronization
// boundary, but diagnostics from concurrently-running stages still land
// in the same Engine), so every method guards diags with mu.
type Engine struct {
	files *source.Manager

	mu    sync.Mutex
	diags []Diagnostic
}

// NewEngine returns an Engine that renders snippets from files.
func NewEngine(files *source.Manager) *Engine {
	return &Engine{files: files}
}

// Report appends a diagnostic. It never panics and never blocks a stage by
// itself - callers decide whether to keep going based on HasErrors.
func (e *Engine) Report(d Diagnostic) {
	e.mu.Lock()
	defer e.mu.Unlock()
	e.diags = append(e.diags, d)
}

// Errorf reports an error-severity diagnostic at span.
func (e *Engine) Errorf(code Code, span source.Span, format string, args ...any) {
	e.Report(Diagnostic{Severity: Error, Code: code, PrimarySpan: span, Message: fmt.Sprintf(format, args...)})
}

// Warnf reports a warning-severity diagnostic at span.
func (e *Engine) Warnf(code Code, span source.Span, format string, args ...any) {
	e.Report(Diagnostic{Severity: Warning, Code: code, PrimarySpan: span, Message: fmt.Sprintf(format, args...)})
}

// HasErrors reports whether any error-severity diagnostic has been reported
// so far. The pipeline in package ionac does not gate stages on it: every
// stage runs regardless of earlier errors, and the CLI uses this result to
// choose its exit code.
func (e *Engine) HasErrors() bool {
	e.mu.Lock()
	defer e.mu.Unlock()
	for _, d := range e.diags {
		if d.Severity == Error {
			return true
		}
	}
	return false
}

// Diagnostics returns every diagnostic reported so far, unsorted.
func (e *Engine) Diagnostics() []Diagnostic {
	e.mu.Lock()
	defer e.mu.Unlock()
	out := make([]Diagnostic, len(e.diags))
	copy(out, e.diags)
	return out
}

// Flush sorts diagnostics by (file, primary_span.lo) and returns them. The
// Engine is not reset by Flush; diagnostics keep accumulating across the
// rest of the run until the caller is done with the Engine entirely.
func (e *Engine) Flush() []Diagnostic {
	e.mu.Lock()
	defer e.mu.Unlock()
	sorted := make([]Diagnostic, len(e.diags))
	copy(sorted, e.diags)
	sort.SliceStable(sorted, func(i, j int) bool {
		return sorted[i].PrimarySpan.Before(sorted[j].PrimarySpan)
	})
	return sorted
}

// Formatter renders a single diagnostic to text. The core ships TextFormatter, a
// plain formatter with no color; a CLI wrapper may inject a colorizing one
// without the core ever importing a terminal library.
type Formatter interface {
	Format(d Diagnostic, before, line, after string, lineNo, col int) string
}

// TextFormatter renders diagnostics as the three-line window described in
// spec §4.7, with long messages/hints wrapped to a fixed width via rosed -
// the same Edit(...).Wrap(...) idiom the teacher uses for in-game text.
type TextFormatter struct {
	// WrapWidth is the column width messages/hints are wrapped to. Zero
	// means 80.
	WrapWidth int
}

func (tf TextFormatter) width() int {
	if tf.WrapWidth <= 0 {
		return 80
	}
	return tf.WrapWidth
}

func (tf TextFormatter) Format(d Diagnostic, before, line, after string, lineNo, col int) string {
	var sb strings.Builder

	fmt.Fprintf(&sb, "%s[%s]: %s\n", d.Severity, d.Code, rosed.Edit(d.Message).Wrap(tf.width()).String())

	if lineNo > 0 {
		fmt.Fprintf(&sb, "  --> line %d, col %d\n", lineNo, col)
		if before != "" {
			fmt.Fprintf(&sb, "   | %s\n", before)
		}
		fmt.Fprintf(&sb, "%3d| %s\n", lineNo, line)
		sb.WriteString("   | ")
		for i := 0; i < col-1; i++ {
			sb.WriteByte(' ')
		}
		sb.WriteString("^\n")
		if after != "" {
			fmt.Fprintf(&sb, "   | %s\n", after)
		}
	}

	if d.Hint != "" {
		fmt.Fprintf(&sb, "hint: %s\n", rosed.Edit(d.Hint).Wrap(tf.width()).String())
	}

	return sb.String()
}

// Render flushes every diagnostic and renders it with f, joined by blank
// lines.
func (e *Engine) Render(f Formatter) string {
	var blocks []string
	for _, d := range e.Flush() {
		before, line, after, lineNo, col, ok := e.files.Snippet(d.PrimarySpan)
		if !ok {
			blocks = append(blocks, f.Format(d, "", "", "", 0, 0))
			continue
		}
		blocks = append(blocks, f.Format(d, before, line, after, lineNo, col))
	}
	return strings.Join(blocks, "\n")
}
