// Package diag defines the diagnostics surfaced by the formatter, the
// rule passes, and the linter, plus the two fatal error classes that
// abort formatting of a single input.
package diag

import (
	"fmt"
	"sort"

	"github.com/donaldgifford/hsfmt/internal/token"
)

// Severity ranks a diagnostic.
type Severity int

const (
	// SeverityError marks fatal problems: the input could not be
	// formatted at all.
	SeverityError Severity = iota
	// SeverityWarning marks findings most projects will want to act on.
	SeverityWarning
	// SeverityAdvisory marks findings left to human judgment; the
	// formatter never auto-fixes these.
	SeverityAdvisory
)

// String returns the lowercase severity name.
func (s Severity) String() string {
	switch s {
	case SeverityError:
		return "error"
	case SeverityWarning:
		return "warning"
	case SeverityAdvisory:
		return "advisory"
	}
	return "unknown"
}

// Kind identifies the category of a diagnostic.
type Kind string

const (
	KindEncodingError        Kind = "EncodingError"
	KindParseError           Kind = "ParseError"
	KindNamingViolation      Kind = "NamingViolation"
	KindOperatorDefinition   Kind = "OperatorDefinition"
	KindMissingSignature     Kind = "MissingSignature"
	KindMissingExportList    Kind = "MissingExportList"
	KindMissingImportList    Kind = "MissingImportList"
	KindQualifyCandidate     Kind = "QualifyCandidate"
	KindRecordInSumType      Kind = "RecordInSumType"
	KindUnnecessaryDerive    Kind = "UnnecessaryDerive"
	KindMissingStrictness    Kind = "MissingStrictnessAnnotation"
	KindLongLine             Kind = "LongLine"
	KindTrailingWhitespace   Kind = "TrailingWhitespace"
	KindPointFreeStyle       Kind = "PointFreeStyle"
	KindIdempotenceViolation Kind = "IdempotenceViolation"
)

// Mechanical reports whether the kind belongs to a category the rule
// engine fixes mechanically. Mechanical kinds must not appear when
// re-formatting already formatted text; advisory kinds may persist.
func (k Kind) Mechanical() bool {
	switch k {
	case KindIdempotenceViolation, KindTrailingWhitespace:
		return true
	}
	return false
}

// Replacement is an optional suggested fix: replace the span with Text.
type Replacement struct {
	Span token.Span
	Text string
}

// Diagnostic is a single finding tied to a source span. Line and column
// are carried inside Span (1-based).
type Diagnostic struct {
	Kind     Kind
	Severity Severity
	Span     token.Span
	Message  string
	// Check names the pass or lint check that produced the finding.
	Check string
	// Fix is a suggested replacement, nil when no mechanical fix exists.
	Fix *Replacement
}

// String renders the diagnostic in file-less gcc style:
// line:col: severity: message [Kind].
func (d Diagnostic) String() string {
	return fmt.Sprintf("%d:%d: %s: %s [%s]", d.Span.Line, d.Span.Col, d.Severity, d.Message, d.Kind)
}

// New constructs a diagnostic.
func New(kind Kind, sev Severity, span token.Span, check, format string, args ...any) Diagnostic {
	return Diagnostic{
		Kind:     kind,
		Severity: sev,
		Span:     span,
		Message:  fmt.Sprintf(format, args...),
		Check:    check,
	}
}

// Sort orders diagnostics by source position, then kind. Sorting is
// stable so repeated runs emit findings in the same order.
func Sort(ds []Diagnostic) {
	sort.SliceStable(ds, func(i, j int) bool {
		if ds[i].Span.Offset != ds[j].Span.Offset {
			return ds[i].Span.Offset < ds[j].Span.Offset
		}
		return ds[i].Kind < ds[j].Kind
	})
}

// ParseError is the fatal error for input whose layout cannot be
// recovered (unterminated pragma or comment, unbalanced brackets at the
// trivia level). It aborts formatting of the single input carrying it.
type ParseError struct {
	Span     token.Span
	Expected string
	Msg      string
}

// Error implements the error interface.
func (e *ParseError) Error() string {
	if e.Expected != "" {
		return fmt.Sprintf("parse error at %d:%d: %s (expected %s)", e.Span.Line, e.Span.Col, e.Msg, e.Expected)
	}
	return fmt.Sprintf("parse error at %d:%d: %s", e.Span.Line, e.Span.Col, e.Msg)
}

// Diagnostic converts the error into its diagnostic form.
func (e *ParseError) Diagnostic() Diagnostic {
	return New(KindParseError, SeverityError, e.Span, "parser", "%s", e.Msg)
}

// EncodingError is the fatal error for input that is not valid UTF-8.
type EncodingError struct {
	Offset int
}

// Error implements the error interface.
func (e *EncodingError) Error() string {
	return fmt.Sprintf("input is not valid UTF-8 (first invalid byte at offset %d)", e.Offset)
}

// Diagnostic converts the error into its diagnostic form.
func (e *EncodingError) Diagnostic() Diagnostic {
	return New(KindEncodingError, SeverityError, token.Span{Offset: e.Offset, End: e.Offset}, "lexer",
		"input is not valid UTF-8")
}
