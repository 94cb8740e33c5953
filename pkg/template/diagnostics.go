// Copyright 2024 The Carvel Authors.
// SPDX-License-Identifier: Apache-2.0

package template

import (
	"fmt"
	"strings"

	"carvel.dev/ytpl/pkg/filepos"
)

type Severity int

const (
	SeverityError Severity = iota
	SeverityWarning
	SeverityInfo
)

func (s Severity) String() string {
	switch s {
	case SeverityError:
		return "error"
	case SeverityWarning:
		return "warning"
	case SeverityInfo:
		return "info"
	default:
		return fmt.Sprintf("severity(%d)", int(s))
	}
}

type Diagnostic struct {
	Severity Severity
	Span     filepos.Span
	Message  string
}

func NewErrorDiagnostic(span filepos.Span, msg string, args ...interface{}) Diagnostic {
	return Diagnostic{Severity: SeverityError, Span: span, Message: fmt.Sprintf(msg, args...)}
}

func NewWarningDiagnostic(span filepos.Span, msg string, args ...interface{}) Diagnostic {
	return Diagnostic{Severity: SeverityWarning, Span: span, Message: fmt.Sprintf(msg, args...)}
}

func (d Diagnostic) String() string {
	return fmt.Sprintf("%s: %s: %s", d.Span.AsCompactString(), d.Severity, d.Message)
}

// Diagnostics is an ordered list of messages produced while parsing.
type Diagnostics []Diagnostic

func (ds Diagnostics) HasErrors() bool {
	for _, d := range ds {
		if d.Severity == SeverityError {
			return true
		}
	}
	return false
}

func (ds Diagnostics) Errors() Diagnostics {
	var result Diagnostics
	for _, d := range ds {
		if d.Severity == SeverityError {
			result = append(result, d)
		}
	}
	return result
}

// Error formats diagnostics the way errors are presented to the user:
// one topic line per diagnostic followed by its location.
func (ds Diagnostics) Error() string {
	result := []string{}

	for _, d := range ds {
		var topicLine string
		var otherLines []string

		for i, line := range strings.Split(d.Message, "\n") {
			if i == 0 {
				topicLine = line
			} else {
				otherLines = append(otherLines, line)
			}
		}

		result = append(result, fmt.Sprintf("- %s%s", d.severityPrefix(), topicLine))
		if d.Span.IsKnown() || d.Span.File() != "" {
			result = append(result, "    "+d.Span.AsCompactString())
		}

		if len(otherLines) > 0 {
			result = append(result, []string{"", "    reason:"}...)
			for _, line := range otherLines {
				result = append(result, fmt.Sprintf("     %s", line))
			}
		}
	}

	return strings.Join(result, "\n")
}

func (d Diagnostic) severityPrefix() string {
	if d.Severity == SeverityError {
		return ""
	}
	return d.Severity.String() + ": "
}
