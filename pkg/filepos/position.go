// Copyright 2024 The Carvel Authors.
// SPDX-License-Identifier: Apache-2.0

package filepos

import (
	"fmt"
)

type Position struct {
	file  string
	line  int // 1 based
	col   int // 1 based; 0 when unknown
	known bool
}

func NewPosition(line int) Position {
	if line <= 0 {
		panic("Lines are 1 based")
	}
	return Position{line: line, known: true}
}

// NewPositionInFile returns the Position of line "line" and column "col" within the file "file".
// A zero column means the column is not known.
func NewPositionInFile(file string, line, col int) Position {
	p := NewPosition(line)
	p.file = file
	if col > 0 {
		p.col = col
	}
	return p
}

// NewUnknownPosition is equivalent of zero value Position
func NewUnknownPosition() Position {
	return Position{}
}

// NewUnknownPositionInFile produces a Position of a known file at an unknown line.
func NewUnknownPositionInFile(file string) Position {
	return Position{file: file}
}

func (p Position) IsKnown() bool { return p.known }

func (p Position) File() string { return p.file }

func (p Position) Line() int {
	if !p.known {
		panic("Position is unknown")
	}
	return p.line
}

func (p Position) Col() int { return p.col }

func (p Position) WithFile(file string) Position {
	p.file = file
	return p
}

// WithLineOffset moves position down by offset lines; column is kept only when offset is zero.
func (p Position) WithLineOffset(offset int) Position {
	if !p.known {
		panic("Position is unknown")
	}
	if offset < 0 {
		panic("Unexpected line offset")
	}
	if offset > 0 {
		p.col = 0
	}
	p.line += offset
	return p
}

func (p Position) AsString() string {
	return "line " + p.AsCompactString()
}

func (p Position) AsCompactString() string {
	filePrefix := p.file
	if len(filePrefix) > 0 {
		filePrefix += ":"
	}
	switch {
	case !p.known:
		return fmt.Sprintf("%s?", filePrefix)
	case p.col > 0:
		return fmt.Sprintf("%s%d:%d", filePrefix, p.line, p.col)
	default:
		return fmt.Sprintf("%s%d", filePrefix, p.line)
	}
}

func (p Position) As4DigitString() string {
	if p.known {
		return fmt.Sprintf("%4d", p.line)
	}
	return "????"
}

// Before reports whether p is located strictly before other within the same file.
func (p Position) Before(other Position) bool {
	if !p.known || !other.known || p.file != other.file {
		return false
	}
	if p.line != other.line {
		return p.line < other.line
	}
	return p.col < other.col
}
