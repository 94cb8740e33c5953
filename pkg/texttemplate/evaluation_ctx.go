// Copyright 2024 The Carvel Authors.
// SPDX-License-Identifier: Apache-2.0

package texttemplate

import (
	"fmt"
	"strings"

	"carvel.dev/ytpl/pkg/filepos"
	"carvel.dev/ytpl/pkg/template"
	"carvel.dev/ytpl/pkg/template/core"
	"github.com/k14s/starlark-go/starlark"
)

const (
	executionCtxLocalKey = "ytpl.execution_context"
	programLocalKey      = "ytpl.program"
	builtinErrLocalKey   = "ytpl.builtin_error"
)

// EvaluationCtx binds a Program to an ExecutionContext for a single evaluation.
type EvaluationCtx struct {
	ctx  *template.ExecutionContext
	prog *Program

	// EnableOutput values to restore when captures end
	captures []bool
}

func NewEvaluationCtx(ctx *template.ExecutionContext, prog *Program) *EvaluationCtx {
	return &EvaluationCtx{ctx: ctx, prog: prog}
}

func (e *EvaluationCtx) NewThread() *starlark.Thread {
	thread := &starlark.Thread{Name: e.prog.filename(), Print: e.print}
	thread.SetLocal(executionCtxLocalKey, e.ctx)
	thread.SetLocal(programLocalKey, e.prog)
	return thread
}

// Predeclared flattens ctx's scopes (topmost wins over lower frames and
// builtin functions) and adds instruction builtins.
func (e *EvaluationCtx) Predeclared() (starlark.StringDict, error) {
	result := starlark.StringDict{}

	for _, name := range e.ctx.FunctionNames() {
		f, _ := e.ctx.Function(name)
		result[name] = NewStarlarkBuiltin(name, f)
	}

	for _, scope := range e.ctx.Globals() {
		for name, val := range scope {
			starlarkVal, err := ToStarlarkValue(name, val)
			if err != nil {
				return nil, template.NewError(template.ErrConversion, e.prog.span(),
					"Converting global '%s'", name).WithCause(err)
			}
			result[name] = starlarkVal
		}
	}

	instructionBindings := map[string]core.StarlarkFunc{
		e.prog.instructions.Write.Name:        e.tplWrite,
		e.prog.instructions.Print.Name:        e.tplPrint,
		e.prog.instructions.StartCapture.Name: e.tplStartCapture,
		e.prog.instructions.EndCapture.Name:   e.tplEndCapture,
	}

	for name, f := range instructionBindings {
		result[name] = starlark.NewBuiltin(name, core.ErrWrapper(f))
	}

	return result, nil
}

// WriteBack publishes top-level assignments into ctx's top scope.
// Names starting with '_' are private to the template.
func (e *EvaluationCtx) WriteBack(globals starlark.StringDict) {
	if e.ctx.StackDepths().Globals == 0 {
		return
	}
	for _, name := range globals.Keys() {
		if strings.HasPrefix(name, "_") {
			continue
		}
		// cannot fail since a scope is present
		_ = e.ctx.SetValue(name, globals[name])
	}
}

// NewError prefers errors raised by builtins over Starlark's description of them.
func (e *EvaluationCtx) NewError(thread *starlark.Thread, err error) error {
	if builtinErr, ok := thread.Local(builtinErrLocalKey).(error); ok {
		if _, typed := template.AsError(builtinErr); typed {
			return builtinErr
		}
		if evalErr, ok := err.(*starlark.EvalError); ok {
			span, _ := e.prog.evalErrSpan(evalErr)
			return template.NewError(template.ErrEvaluation, span, "Calling builtin").WithCause(builtinErr)
		}
	}
	return e.prog.newError(err)
}

func (e *EvaluationCtx) executionCtx(thread *starlark.Thread) *template.ExecutionContext {
	if ctx, ok := thread.Local(executionCtxLocalKey).(*template.ExecutionContext); ok {
		return ctx
	}
	return e.ctx
}

func (e *EvaluationCtx) print(thread *starlark.Thread, msg string) {
	// strings always convert
	_ = e.executionCtx(thread).Write(e.prog.span(), msg+"\n")
}

// args(textIdx)
func (e *EvaluationCtx) tplWrite(thread *starlark.Thread, _ *starlark.Builtin,
	args starlark.Tuple, kwargs []starlark.Tuple) (starlark.Value, error) {

	if args.Len() != 1 {
		return starlark.None, fmt.Errorf("expected exactly one argument")
	}

	idx, err := core.NewStarlarkValue(args.Index(0)).AsInt64()
	if err != nil {
		return starlark.None, err
	}
	if idx < 0 || int(idx) >= len(e.prog.texts) {
		return starlark.None, fmt.Errorf("expected text index %d to be within %d texts", idx, len(e.prog.texts))
	}

	err = e.executionCtx(thread).Write(e.callerSpan(thread), e.prog.texts[idx])
	if err != nil {
		thread.SetLocal(builtinErrLocalKey, err)
		return starlark.None, err
	}
	return starlark.None, nil
}

// args(value)
func (e *EvaluationCtx) tplPrint(thread *starlark.Thread, _ *starlark.Builtin,
	args starlark.Tuple, kwargs []starlark.Tuple) (starlark.Value, error) {

	if args.Len() != 1 {
		return starlark.None, fmt.Errorf("expected exactly one argument")
	}

	err := e.executionCtx(thread).Write(e.callerSpan(thread), args.Index(0))
	if err != nil {
		thread.SetLocal(builtinErrLocalKey, err)
		return starlark.None, err
	}
	return starlark.None, nil
}

func (e *EvaluationCtx) tplStartCapture(thread *starlark.Thread, _ *starlark.Builtin,
	args starlark.Tuple, kwargs []starlark.Tuple) (starlark.Value, error) {

	ctx := e.executionCtx(thread)

	e.captures = append(e.captures, ctx.EnableOutput)
	ctx.EnableOutput = true
	ctx.PushOutput()

	return starlark.None, nil
}

// args([value]); value, when given, is returned instead of captured text
func (e *EvaluationCtx) tplEndCapture(thread *starlark.Thread, _ *starlark.Builtin,
	args starlark.Tuple, kwargs []starlark.Tuple) (starlark.Value, error) {

	if len(e.captures) == 0 {
		panic("unexpected capture end")
	}

	ctx := e.executionCtx(thread)

	captured, err := ctx.PopOutput()
	if err != nil {
		return starlark.None, err
	}

	ctx.EnableOutput = e.captures[len(e.captures)-1]
	e.captures = e.captures[:len(e.captures)-1]

	switch args.Len() {
	case 0:
		return starlark.String(captured), nil
	case 1:
		return args.Index(0), nil
	default:
		return starlark.None, fmt.Errorf("expected zero or one argument")
	}
}

func (e *EvaluationCtx) callerSpan(thread *starlark.Thread) filepos.Span {
	if thread.CallStackDepth() < 2 {
		return e.prog.span()
	}
	return e.prog.spanAt(thread.CallFrame(1).Pos)
}
