// Copyright 2024 The Carvel Authors.
// SPDX-License-Identifier: Apache-2.0

package texttemplate

import (
	"fmt"

	"carvel.dev/ytpl/pkg/filepos"
	"carvel.dev/ytpl/pkg/template"
	"github.com/k14s/starlark-go/resolve"
	"github.com/k14s/starlark-go/starlark"
	"github.com/k14s/starlark-go/syntax"
)

func init() {
	resolve.AllowFloat = true
	resolve.AllowSet = true
	resolve.AllowLambda = true
	resolve.AllowNestedDef = true
	resolve.AllowBitwise = true
	resolve.AllowRecursion = true
	resolve.AllowGlobalReassign = true
}

const unnamedProgram = "<template>"

// Program is the compiled form of a template: generated Starlark code
// and the text pieces it writes. Programs are immutable.
type Program struct {
	name         string
	code         []Line
	texts        []string
	instructions *InstructionSet
}

var _ template.Node = &Program{}

func NewProgram(name string, code []Line, texts []string, instructions *InstructionSet) *Program {
	return &Program{name: name, code: code, texts: texts, instructions: instructions}
}

func (p *Program) Code() []Line { return p.code }

func (p *Program) CodeAsString() string { return CodeAsString(p.code) }

func (p *Program) DebugCodeAsString() string { return DebugCodeAsString(p.code) }

// Check reports syntax and static resolution problems without evaluating.
func (p *Program) Check() template.Diagnostics {
	f, err := syntax.Parse(p.filename(), p.CodeAsString(), syntax.BlockScanner)
	if err != nil {
		return p.diagnostics(err)
	}

	// names are only known at evaluation time
	_, err = starlark.FileProgram(f, func(string) bool { return true })
	if err != nil {
		return p.diagnostics(err)
	}

	return nil
}

// Evaluate runs the program against ctx's scopes; on failure ctx's output
// stack is unwound to its depth at entry.
func (p *Program) Evaluate(ctx *template.ExecutionContext) (interface{}, error) {
	outputDepth := ctx.OutputDepth()
	prevEnableOutput := ctx.EnableOutput

	val, err := p.eval(ctx)

	ctx.EnableOutput = prevEnableOutput
	if err != nil {
		ctx.RestoreOutputDepth(outputDepth)
		return nil, err
	}
	return val, nil
}

func (p *Program) eval(ctx *template.ExecutionContext) (resultVal interface{}, resultErr error) {
	// Catch any panics to give a better contextual information
	defer func() {
		if err := recover(); err != nil {
			resultErr = template.NewError(template.ErrEvaluation, p.span(),
				"Unexpected failure").WithCause(fmt.Errorf("%v", err))
		}
	}()

	evalCtx := NewEvaluationCtx(ctx, p)

	predeclared, err := evalCtx.Predeclared()
	if err != nil {
		return nil, err
	}

	f, err := syntax.Parse(p.filename(), p.CodeAsString(), syntax.BlockScanner)
	if err != nil {
		return nil, p.newError(err)
	}

	NewProgramAST(f, p.instructions).Rewrite()

	prog, err := starlark.FileProgram(f, predeclared.Has)
	if err != nil {
		return nil, p.newError(err)
	}

	thread := evalCtx.NewThread()

	globals, err := prog.Init(thread, predeclared)
	if err != nil {
		return nil, evalCtx.NewError(thread, err)
	}

	evalCtx.WriteBack(globals)

	result, found := globals[p.instructions.Result]
	if !found || result == starlark.None {
		return nil, nil
	}
	return result, nil
}

func (p *Program) filename() string {
	if len(p.name) == 0 {
		return unnamedProgram
	}
	return p.name
}

func (p *Program) span() filepos.Span {
	return filepos.NewUnknownSpanInFile(p.name)
}

// spanAt maps a position in generated code back to the template.
func (p *Program) spanAt(pos syntax.Position) filepos.Span {
	if pos.Filename() != p.filename() {
		if pos.Line > 0 && pos.Filename() != unnamedProgram {
			return filepos.NewPointSpan(filepos.NewPositionInFile(pos.Filename(), int(pos.Line), 0))
		}
		return p.span()
	}

	// generated lines may carry no position (e.g. after rewriting)
	if pos.Line <= 0 || int(pos.Line) > len(p.code) {
		return p.span()
	}

	line := p.code[pos.Line-1]
	if line.SourceLine == nil {
		return p.span()
	}

	start := line.SourceLine.Position
	offset := line.Instruction.CodeOffset()

	if offset >= 0 && pos.Col > 0 && int(pos.Col)-1 >= offset && start.Col() > 0 {
		start = filepos.NewPositionInFile(start.File(), start.Line(), start.Col()+int(pos.Col)-1-offset)
	}

	return filepos.NewPointSpan(start)
}
