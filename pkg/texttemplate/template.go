// Copyright 2024 The Carvel Authors.
// SPDX-License-Identifier: Apache-2.0

package texttemplate

import (
	"strings"
	"unicode"

	"carvel.dev/ytpl/pkg/filepos"
	"carvel.dev/ytpl/pkg/template"
)

// Template compiles parsed pieces into a Program.
type Template struct {
	name         string
	instructions *InstructionSet
}

func NewTemplate(name string) *Template {
	return &Template{name: name, instructions: NewInstructionSet()}
}

// Compile returns nil Program when there is nothing to evaluate.
func (e *Template) Compile(rootNode *NodeRoot) (*Program, template.Diagnostics) {
	var diags template.Diagnostics

	items := e.trimSpaces(rootNode.Items)

	code := []Line{}
	texts := []string{}

	for i, node := range items {
		switch typedNode := node.(type) {
		case *NodeText:
			// empty leading and trailing text is not needed to delimit blocks
			if len(typedNode.Content) == 0 && (i == 0 || i == len(items)-1) {
				continue
			}

			code = append(code, Line{
				Instruction: e.instructions.NewWrite(len(texts)),
				SourceLine:  NewSourceLine(typedNode.Position, strings.SplitN(typedNode.Content, "\n", 2)[0]),
			})
			texts = append(texts, typedNode.Content)

		case *NodeCode:
			meta := NodeCodeMeta{typedNode}

			if meta.IsEmpty() {
				diags = append(diags, template.NewWarningDiagnostic(typedNode.Span(), "Empty code block"))
				continue
			}

			codePos := filepos.NewPositionInFile(typedNode.Position.File(),
				typedNode.Position.Line(), typedNode.Position.Col()+len("(@")+meta.CodeOffset())

			if meta.ShouldPrint() {
				code = append(code, NewCodeLines(e.instructions.NewPrint(meta.Code()), codePos)...)
			} else {
				code = append(code, NewCodeLines(e.instructions.NewCode(meta.Code()), codePos)...)
			}
		}
	}

	if len(code) == 0 {
		return nil, diags
	}

	prog := NewProgram(e.name, code, texts, e.instructions)
	return prog, append(diags, prog.Check()...)
}

// CompileScript treats code as a whole Starlark program starting at pos.
func (e *Template) CompileScript(code string, pos filepos.Position) (*Program, template.Diagnostics) {
	if len(strings.TrimSpace(code)) == 0 {
		return nil, nil
	}

	prog := NewProgram(e.name, NewCodeLines(e.instructions.NewCode(code), pos), nil, e.instructions)
	return prog, prog.Check()
}

// trimSpaces applies trim markers to neighbouring text pieces.
func (e *Template) trimSpaces(items []interface{}) []interface{} {
	var result []interface{}

	for _, item := range items {
		if typedItem, ok := item.(*NodeText); ok {
			copied := *typedItem
			result = append(result, &copied)
		} else {
			result = append(result, item)
		}
	}

	for i, item := range result {
		typedNode, ok := item.(*NodeCode)
		if !ok {
			continue
		}
		meta := NodeCodeMeta{typedNode}

		if meta.ShouldTrimSpaceLeft() && i > 0 {
			if typedPrevNode, ok := result[i-1].(*NodeText); ok {
				typedPrevNode.Content = strings.TrimRightFunc(typedPrevNode.Content, unicode.IsSpace)
			}
		}

		if meta.ShouldTrimSpaceRight() && i+1 < len(result) {
			if typedNextNode, ok := result[i+1].(*NodeText); ok {
				trimmed := strings.TrimLeftFunc(typedNextNode.Content, unicode.IsSpace)
				typedNextNode.Position = advancePosition(typedNextNode.Position,
					typedNextNode.Content[:len(typedNextNode.Content)-len(trimmed)])
				typedNextNode.Content = trimmed
			}
		}
	}

	return result
}

func advancePosition(pos filepos.Position, skipped string) filepos.Position {
	line, col := pos.Line(), pos.Col()
	for _, ch := range skipped {
		if ch == '\n' {
			line++
			col = 1
		} else {
			col++
		}
	}
	return filepos.NewPositionInFile(pos.File(), line, col)
}
