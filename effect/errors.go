// Copyright 2025 The GoGPU Authors
// SPDX-License-Identifier: MIT

package effect

import (
	"errors"
	"fmt"
	"strings"
)

// ErrNotReset is returned when a document that already holds a parse result
// is parsed again without calling Reset.
var ErrNotReset = errors.New("effect: document already parsed; call Reset first")

// ErrorKind categorizes parse errors.
type ErrorKind uint8

const (
	// ErrUnexpectedToken indicates a token other than the one the grammar requires.
	ErrUnexpectedToken ErrorKind = iota

	// ErrUnexpectedEOF indicates the source ended inside a construct.
	ErrUnexpectedEOF

	// ErrInvalidValue indicates a literal that does not convert to the field type.
	ErrInvalidValue

	// ErrIO indicates the source could not be read.
	ErrIO

	// ErrInclude indicates an include file was found but could not be read.
	ErrInclude
)

// String returns a human-readable error kind name.
func (k ErrorKind) String() string {
	switch k {
	case ErrUnexpectedToken:
		return "UnexpectedToken"
	case ErrUnexpectedEOF:
		return "UnexpectedEOF"
	case ErrInvalidValue:
		return "InvalidValue"
	case ErrIO:
		return "IO"
	case ErrInclude:
		return "Include"
	default:
		return "Unknown"
	}
}

// ParseError is a fatal error found while parsing an effect source.
type ParseError struct {
	Kind    ErrorKind
	Message string

	// Expected and Found describe ErrUnexpectedToken and ErrUnexpectedEOF.
	Expected string
	Found    string

	File   string
	Offset int
	Line   int
	Column int

	Err error
}

// Error implements the error interface.
func (e *ParseError) Error() string {
	var sb strings.Builder
	if e.File != "" {
		sb.WriteString(e.File)
		sb.WriteByte(':')
	}
	if e.Line > 0 {
		fmt.Fprintf(&sb, "%d:%d:", e.Line, e.Column)
	}
	if sb.Len() > 0 {
		sb.WriteByte(' ')
	}
	sb.WriteString(e.message())
	return sb.String()
}

func (e *ParseError) message() string {
	msg := e.Message
	if (e.Kind == ErrUnexpectedToken || e.Kind == ErrUnexpectedEOF) && e.Expected != "" {
		found := e.Found
		if found == "" {
			found = "end of file"
		} else {
			found = fmt.Sprintf("%q", found)
		}
		msg = fmt.Sprintf("expected %s, found %s", e.Expected, found)
		if e.Message != "" {
			msg = e.Message + ": " + msg
		}
	}
	if e.Err != nil {
		if msg == "" {
			return e.Err.Error()
		}
		return msg + ": " + e.Err.Error()
	}
	return msg
}

// Unwrap returns the underlying error, if any.
func (e *ParseError) Unwrap() error {
	return e.Err
}

// FormatWithContext returns the error message with the offending source line
// and a caret under the error column.
func (e *ParseError) FormatWithContext(source string) string {
	if source == "" || e.Line == 0 {
		return e.Error()
	}

	lines := strings.Split(source, "\n")
	if e.Line < 1 || e.Line > len(lines) {
		return e.Error()
	}

	line := strings.TrimRight(lines[e.Line-1], "\r")
	col := e.Column
	if col < 1 {
		col = 1
	}
	if col > len(line)+1 {
		col = len(line) + 1
	}

	var sb strings.Builder
	fmt.Fprintf(&sb, "error: %s\n", e.message())
	if e.File != "" {
		fmt.Fprintf(&sb, "  --> %s:%d:%d\n", e.File, e.Line, col)
	} else {
		fmt.Fprintf(&sb, "  --> line %d:%d\n", e.Line, col)
	}
	sb.WriteString("   |\n")
	fmt.Fprintf(&sb, "%3d| %s\n", e.Line, line)
	fmt.Fprintf(&sb, "   | %s^\n", strings.Repeat(" ", col-1))
	return sb.String()
}

// IsParseError reports whether err is a *ParseError of the given kind.
func IsParseError(err error, kind ErrorKind) bool {
	var pe *ParseError
	return errors.As(err, &pe) && pe.Kind == kind
}

// Severity of a diagnostic.
type Severity uint8

const (
	SeverityWarning Severity = iota
	SeverityNote
)

func (s Severity) String() string {
	if s == SeverityNote {
		return "note"
	}
	return "warning"
}

// DiagnosticKind categorizes non-fatal conditions.
type DiagnosticKind uint8

const (
	// DiagUnresolvedReference: a pass names a shader or state that was never declared.
	DiagUnresolvedReference DiagnosticKind = iota

	// DiagDuplicateDefinition: a name was declared twice; the first declaration is kept.
	DiagDuplicateDefinition

	// DiagUnknownField: a state block or pass assigns a field that is not recognized.
	DiagUnknownField

	// DiagUnknownValue: a state field value is not a member of its enumeration.
	DiagUnknownValue

	// DiagUnknownDirective: a preprocessor directive that is not recognized.
	DiagUnknownDirective

	// DiagMissingInclude: an include file could not be found.
	DiagMissingInclude

	// DiagIgnoredStatement: a statement was skipped without effect.
	DiagIgnoredStatement
)

// String returns a human-readable diagnostic kind name.
func (k DiagnosticKind) String() string {
	switch k {
	case DiagUnresolvedReference:
		return "UnresolvedReference"
	case DiagDuplicateDefinition:
		return "DuplicateDefinition"
	case DiagUnknownField:
		return "UnknownField"
	case DiagUnknownValue:
		return "UnknownValue"
	case DiagUnknownDirective:
		return "UnknownDirective"
	case DiagMissingInclude:
		return "MissingInclude"
	case DiagIgnoredStatement:
		return "IgnoredStatement"
	default:
		return "Unknown"
	}
}

// Diagnostic is a non-fatal condition found while parsing. Diagnostics never
// change the parse result.
type Diagnostic struct {
	Severity Severity
	Kind     DiagnosticKind
	Message  string
	File     string
	Offset   int
	Line     int
	Column   int
}

// String renders the diagnostic as file:line:col: severity: message.
func (d Diagnostic) String() string {
	if d.File != "" {
		return fmt.Sprintf("%s:%d:%d: %s: %s", d.File, d.Line, d.Column, d.Severity, d.Message)
	}
	return fmt.Sprintf("%d:%d: %s: %s", d.Line, d.Column, d.Severity, d.Message)
}
