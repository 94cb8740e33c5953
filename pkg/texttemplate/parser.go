// Copyright 2024 The Carvel Authors.
// SPDX-License-Identifier: Apache-2.0

package texttemplate

import (
	"strings"

	"carvel.dev/ytpl/pkg/filepos"
	"carvel.dev/ytpl/pkg/template"
)

const frontMatterDelimiter = "---"

type Parser struct{}

var _ template.Parser = &Parser{}

func NewParser() *Parser {
	return &Parser{}
}

// Parse never fails; problems are recorded as diagnostics on the result.
func (p *Parser) Parse(text, sourcePath string, opts template.ParseOpts) *template.CompiledTemplate {
	if len(text) == 0 {
		return template.NewEmptyCompiledTemplate(sourcePath)
	}

	start := filepos.NewPositionInFile(sourcePath, 1, 1)
	tpl := NewTemplate(sourcePath)

	switch opts.Mode {
	case template.ModeScriptOnly:
		prog, diags := tpl.CompileScript(text, start)
		return template.NewCompiledTemplate(sourcePath, asNode(prog), nil, diags)

	case template.ModeFrontMatterAndContent, template.ModeFrontMatterOnly:
		return p.parseWithFrontMatter(tpl, text, sourcePath, opts.Mode)

	default:
		prog, diags := p.parseContent(tpl, text, start)
		return template.NewCompiledTemplate(sourcePath, asNode(prog), nil, diags)
	}
}

func (p *Parser) parseWithFrontMatter(tpl *Template, text, sourcePath string,
	mode template.ParseMode) *template.CompiledTemplate {

	fm, diags := p.splitFrontMatter(text, sourcePath)
	if diags.HasErrors() {
		return template.NewCompiledTemplate(sourcePath, nil, nil, diags)
	}

	if fm == nil {
		if mode == template.ModeFrontMatterOnly {
			diags = append(diags, template.NewErrorDiagnostic(
				filepos.NewPointSpan(filepos.NewPositionInFile(sourcePath, 1, 1)),
				"Expected template to start with front matter delimited by '%s'", frontMatterDelimiter))
			return template.NewCompiledTemplate(sourcePath, nil, nil, diags)
		}
		prog, contentDiags := p.parseContent(tpl, text, filepos.NewPositionInFile(sourcePath, 1, 1))
		return template.NewCompiledTemplate(sourcePath, asNode(prog), nil, contentDiags)
	}

	fmProg, fmDiags := tpl.CompileScript(fm.code, fm.codePos)
	diags = append(diags, fmDiags...)

	if mode == template.ModeFrontMatterOnly {
		return template.NewCompiledTemplate(sourcePath, nil, asNode(fmProg), diags)
	}

	prog, contentDiags := p.parseContent(tpl, fm.content, fm.contentPos)
	diags = append(diags, contentDiags...)

	return template.NewCompiledTemplate(sourcePath, asNode(prog), asNode(fmProg), diags)
}

func (p *Parser) parseContent(tpl *Template, text string, start filepos.Position) (*Program, template.Diagnostics) {
	rootNode, diags := p.ParseNodes(text, start)
	if diags.HasErrors() {
		return nil, diags
	}

	prog, compileDiags := tpl.Compile(rootNode)
	return prog, append(diags, compileDiags...)
}

// ParseNodes splits text into text and code pieces.
func (p *Parser) ParseNodes(data string, start filepos.Position) (*NodeRoot, template.Diagnostics) {
	file := start.File()
	currLine := start.Line()
	currCol := start.Col()

	newPos := func(line, col int) filepos.Position {
		return filepos.NewPositionInFile(file, line, col)
	}

	var lastNode interface{} = &NodeText{Position: start}
	var nodes []interface{}

	var lastChar rune
	var lastPos filepos.Position

	for i, currChar := range data {
		currPos := newPos(currLine, currCol)
		markerChar := currChar

		if lastChar == '(' && currChar == '@' {
			switch typedLastNode := lastNode.(type) {
			case *NodeText:
				typedLastNode.Content = data[typedLastNode.startOffset : i-1]
				nodes = append(nodes, typedLastNode)
				lastNode = &NodeCode{Position: lastPos, startOffset: i + 1}
				markerChar = 0 // '@' of an opening cannot start a closing
			case *NodeCode:
				return nil, p.errorDiags(filepos.NewSpan(lastPos, currPos), "Unexpected code opening '(@'")
			}
		}

		if lastChar == '@' && currChar == ')' {
			switch typedLastNode := lastNode.(type) {
			case *NodeText:
				return nil, p.errorDiags(filepos.NewSpan(lastPos, currPos), "Unexpected code closing '@)'")
			case *NodeCode:
				typedLastNode.Content = data[typedLastNode.startOffset : i-1]
				typedLastNode.EndPosition = currPos
				nodes = append(nodes, typedLastNode)
				lastNode = &NodeText{Position: newPos(currLine, currCol+1), startOffset: i + 1}
				markerChar = 0
			}
		}

		if currChar == '\n' {
			currLine++
			currCol = 1
		} else {
			currCol++
		}

		lastChar = markerChar
		lastPos = currPos
	}

	// close last node
	switch typedLastNode := lastNode.(type) {
	case *NodeText:
		typedLastNode.Content = data[typedLastNode.startOffset:]
		nodes = append(nodes, typedLastNode)
	case *NodeCode:
		return nil, p.errorDiags(filepos.NewPointSpan(typedLastNode.Position), "Missing code closing '@)'")
	}

	return &NodeRoot{Items: nodes}, nil
}

type frontMatter struct {
	code       string
	codePos    filepos.Position
	content    string
	contentPos filepos.Position
}

// splitFrontMatter returns nil when text does not start with a delimiter line.
func (p *Parser) splitFrontMatter(text, sourcePath string) (*frontMatter, template.Diagnostics) {
	lines := strings.SplitAfter(text, "\n")
	if !p.isDelimiterLine(lines[0]) {
		return nil, nil
	}

	offset := len(lines[0])
	codeStart := offset

	for i := 1; i < len(lines); i++ {
		if p.isDelimiterLine(lines[i]) {
			return &frontMatter{
				code:       strings.TrimSuffix(text[codeStart:offset], "\n"),
				codePos:    filepos.NewPositionInFile(sourcePath, 2, 1),
				content:    text[offset+len(lines[i]):],
				contentPos: filepos.NewPositionInFile(sourcePath, i+2, 1),
			}, nil
		}
		offset += len(lines[i])
	}

	return nil, p.errorDiags(filepos.NewPointSpan(filepos.NewPositionInFile(sourcePath, 1, 1)),
		"Missing closing front matter delimiter '%s'", frontMatterDelimiter)
}

func (p *Parser) isDelimiterLine(line string) bool {
	return strings.TrimRight(line, " \t\r\n") == frontMatterDelimiter
}

func (p *Parser) errorDiags(span filepos.Span, msg string, args ...interface{}) template.Diagnostics {
	return template.Diagnostics{template.NewErrorDiagnostic(span, msg, args...)}
}

func asNode(prog *Program) template.Node {
	if prog == nil {
		return nil
	}
	return prog
}
