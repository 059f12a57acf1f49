// Package diagnostics implements the compiler's single error-reporting
// surface: every phase accumulates Diagnostics into a shared Sink instead of
// returning hard errors, so one invocation can report every independent
// problem it finds rather than stopping at the first.
package diagnostics

import (
	"bytes"
	"encoding/json"
	"fmt"
	"sort"
	"sync"
)

// Severity classifies a Diagnostic. Only Error severities abort bundle
// emission; Warning diagnostics are recorded but never block it.
type Severity string

const (
	SeverityError   Severity = "error"
	SeverityWarning Severity = "warning"
)

// Known machine codes, named so call sites never hand-type the string twice.
const (
	CodeDuplicateName     = "ARC-DUPLICATE-NAME"
	CodePipelineCycle     = "ARC-PIPELINE-CYCLE"
	CodeMissingDependency = "ARC-MISSING-DEPENDENCY"
	CodeDuplicateStepID   = "ARC-DUPLICATE-STEP-ID"
	CodeDuplicateEntry    = "ARC-DUPLICATE-ENTRY"
	CodeDecoratorShape    = "ARC-DECORATOR-SHAPE"
	CodeParseError        = "ARC-PARSE-ERROR"
	CodeTranspileError    = "ARC-TRANSPILE-ERROR"
	CodeIO                = "ARC-IO"
	CodeUnrecognizedKey   = "ARC-UNRECOGNIZED-KEY"
)

// Diagnostic is one reported problem, carrying enough position information
// for both a human-readable line and a machine-readable record.
type Diagnostic struct {
	Severity Severity `json:"severity"`
	Code     string   `json:"code"`
	File     string   `json:"file"`
	Offset   int      `json:"offset"`
	Length   int      `json:"length"`
	Line     int      `json:"line,omitempty"`
	Column   int      `json:"column,omitempty"`
	Message  string   `json:"message"`
}

// String renders the human-readable `file:line:column: severity[CODE]: message`
// form. When Line is unset it renders `file: severity[CODE]: message`; the
// Errorf and Warnf helpers record only the byte offset, never Line/Column.
func (d Diagnostic) String() string {
	if d.Line > 0 {
		return fmt.Sprintf("%s:%d:%d: %s[%s]: %s", d.File, d.Line, d.Column, d.Severity, d.Code, d.Message)
	}
	return fmt.Sprintf("%s: %s[%s]: %s", d.File, d.Severity, d.Code, d.Message)
}

// Sink accumulates Diagnostics from every pipeline phase. It is
// safe to write to concurrently from per-file parallel workers; it imposes
// no ordering across files, but Diagnostics() returns a deterministic
// (file, offset)-sorted view.
type Sink struct {
	mu   sync.Mutex
	list []Diagnostic
}

// NewSink creates an empty Sink.
func NewSink() *Sink {
	return &Sink{}
}

// Add records one Diagnostic.
func (s *Sink) Add(d Diagnostic) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.list = append(s.list, d)
}

// Errorf is a convenience wrapper for Add with SeverityError.
func (s *Sink) Errorf(code, file string, offset, length int, format string, args ...any) {
	s.Add(Diagnostic{
		Severity: SeverityError,
		Code:     code,
		File:     file,
		Offset:   offset,
		Length:   length,
		Message:  fmt.Sprintf(format, args...),
	})
}

// Warnf is a convenience wrapper for Add with SeverityWarning.
func (s *Sink) Warnf(code, file string, offset, length int, format string, args ...any) {
	s.Add(Diagnostic{
		Severity: SeverityWarning,
		Code:     code,
		File:     file,
		Offset:   offset,
		Length:   length,
		Message:  fmt.Sprintf(format, args...),
	})
}

// Diagnostics returns every accumulated Diagnostic sorted by (File, Offset),
// so two runs over the same input print identical output regardless of
// which per-file worker finished first.
func (s *Sink) Diagnostics() []Diagnostic {
	s.mu.Lock()
	defer s.mu.Unlock()
	out := make([]Diagnostic, len(s.list))
	copy(out, s.list)
	sort.SliceStable(out, func(i, j int) bool {
		if out[i].File != out[j].File {
			return out[i].File < out[j].File
		}
		return out[i].Offset < out[j].Offset
	})
	return out
}

// HasErrors reports whether any accumulated Diagnostic has Error severity.
// A non-empty error set aborts bundle emission.
func (s *Sink) HasErrors() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	for _, d := range s.list {
		if d.Severity == SeverityError {
			return true
		}
	}
	return false
}

// Counts returns the number of error and warning diagnostics, for the
// footer line of human-readable output.
func (s *Sink) Counts() (errors, warnings int) {
	for _, d := range s.Diagnostics() {
		if d.Severity == SeverityError {
			errors++
		} else {
			warnings++
		}
	}
	return
}

// WriteText renders the human-readable report: one line per Diagnostic
// followed by a footer line with the counts.
func (s *Sink) WriteText() string {
	var buf bytes.Buffer
	diags := s.Diagnostics()
	for _, d := range diags {
		buf.WriteString(d.String())
		buf.WriteByte('\n')
	}
	errs, warns := s.Counts()
	fmt.Fprintf(&buf, "%d error(s), %d warning(s)\n", errs, warns)
	return buf.String()
}

// WriteJSONL renders the machine-readable diagnostic stream: one JSON
// record per line, in the same (file, offset) order as WriteText.
func (s *Sink) WriteJSONL() ([]byte, error) {
	var buf bytes.Buffer
	enc := json.NewEncoder(&buf)
	for _, d := range s.Diagnostics() {
		if err := enc.Encode(d); err != nil {
			return nil, fmt.Errorf("encode diagnostic: %w", err)
		}
	}
	return buf.Bytes(), nil
}
