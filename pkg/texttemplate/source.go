// Copyright 2024 The Carvel Authors.
// SPDX-License-Identifier: Apache-2.0

package texttemplate

import (
	"fmt"
	"strings"
	"unicode"

	"carvel.dev/ytpl/pkg/filepos"
)

// Line is a single line of generated Starlark code.
type Line struct {
	Instruction Instruction
	SourceLine  *SourceLine
}

// SourceLine is the template location a generated line came from.
// Position points at the first character of Content.
type SourceLine struct {
	Position filepos.Position
	Content  string
}

func NewSourceLine(pos filepos.Position, content string) *SourceLine {
	if !pos.IsKnown() {
		panic("Expected source line position to be known")
	}
	return &SourceLine{Position: pos, Content: content}
}

// NewCodeLines splits code into lines starting at pos. Leading whitespace is
// dropped since blocks are delimited by 'end' rather than indentation.
func NewCodeLines(instruction Instruction, pos filepos.Position) []Line {
	var result []Line

	for i, ins := range instruction.Lines() {
		linePos := pos
		if i > 0 {
			linePos = filepos.NewPositionInFile(pos.File(), pos.Line()+i, 1)
		}

		trimmed := strings.TrimLeftFunc(ins.code, unicode.IsSpace)
		trimmedLen := len(ins.code) - len(trimmed)

		switch {
		case ins.codeOffset < 0:
			// fully generated; keep as is
		case ins.codeOffset == 0:
			ins.code = trimmed
			linePos = filepos.NewPositionInFile(linePos.File(), linePos.Line(), linePos.Col()+trimmedLen)
		default:
			// generated prefix followed by user code
			userCode := ins.code[ins.codeOffset:]
			trimmedUserCode := strings.TrimLeftFunc(userCode, unicode.IsSpace)
			linePos = filepos.NewPositionInFile(linePos.File(), linePos.Line(),
				linePos.Col()+len(userCode)-len(trimmedUserCode))
			ins.code = ins.code[:ins.codeOffset] + trimmedUserCode
		}

		content := ins.code
		if ins.codeOffset > 0 {
			content = content[ins.codeOffset:]
		}

		result = append(result, Line{
			Instruction: ins,
			SourceLine:  NewSourceLine(linePos, strings.TrimRightFunc(content, unicode.IsSpace)),
		})
	}

	return result
}

// CodeAsString joins generated lines; line N of the result is Line N.
func CodeAsString(lines []Line) string {
	var result []string
	for _, line := range lines {
		result = append(result, line.Instruction.AsString())
	}
	return strings.Join(result, "\n")
}

func DebugCodeAsString(lines []Line) string {
	result := []string{"src:  tmpl: code: | srccode"}

	for i, line := range lines {
		src := ""
		pos := filepos.NewUnknownPosition()

		if line.SourceLine != nil {
			src = line.SourceLine.Content
			pos = line.SourceLine.Position
		}

		result = append(result, fmt.Sprintf("%s: %4d: %s | %s",
			pos.As4DigitString(), i+1, line.Instruction.AsString(), src))
	}

	return strings.Join(result, "\n")
}
