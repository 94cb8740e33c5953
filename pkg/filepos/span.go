// Copyright 2024 The Carvel Authors.
// SPDX-License-Identifier: Apache-2.0

package filepos

import (
	"fmt"
)

// Span is a range of source locations; End is inclusive and may be unknown.
type Span struct {
	Start Position
	End   Position
}

func NewSpan(start, end Position) Span {
	return Span{Start: start, End: end}
}

// NewPointSpan is a span covering a single location.
func NewPointSpan(pos Position) Span {
	return Span{Start: pos, End: pos}
}

func NewUnknownSpan() Span { return Span{} }

func NewUnknownSpanInFile(file string) Span {
	return NewPointSpan(NewUnknownPositionInFile(file))
}

func (s Span) IsKnown() bool { return s.Start.IsKnown() }

func (s Span) File() string { return s.Start.File() }

// WithFile returns a copy of the span whose positions belong to file (when not yet set).
func (s Span) WithFile(file string) Span {
	if s.Start.File() == "" {
		s.Start = s.Start.WithFile(file)
	}
	if s.End.File() == "" {
		s.End = s.End.WithFile(file)
	}
	return s
}

func (s Span) AsCompactString() string {
	if !s.Start.Before(s.End) {
		return s.Start.AsCompactString()
	}
	if s.End.Line() == s.Start.Line() {
		return fmt.Sprintf("%s-%d", s.Start.AsCompactString(), s.End.Col())
	}
	if s.End.Col() > 0 {
		return fmt.Sprintf("%s-%d:%d", s.Start.AsCompactString(), s.End.Line(), s.End.Col())
	}
	return fmt.Sprintf("%s-%d", s.Start.AsCompactString(), s.End.Line())
}

func (s Span) String() string { return s.AsCompactString() }
