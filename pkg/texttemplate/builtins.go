// Copyright 2024 The Carvel Authors.
// SPDX-License-Identifier: Apache-2.0

package texttemplate

import (
	"fmt"

	"carvel.dev/ytpl/pkg/filepos"
	"carvel.dev/ytpl/pkg/template"
	"carvel.dev/ytpl/pkg/template/core"
	"github.com/k14s/starlark-go/starlark"
)

// NewStarlarkBuiltin exposes a context function to templates. Positional
// arguments are passed through as Starlark values.
func NewStarlarkBuiltin(name string, f template.Function) *starlark.Builtin {
	return starlark.NewBuiltin(name, core.ErrWrapper(func(thread *starlark.Thread, _ *starlark.Builtin,
		args starlark.Tuple, kwargs []starlark.Tuple) (starlark.Value, error) {

		err := core.NoKwargs(kwargs)
		if err != nil {
			return starlark.None, err
		}

		ctx, ok := thread.Local(executionCtxLocalKey).(*template.ExecutionContext)
		if !ok {
			return starlark.None, fmt.Errorf("expected to be called within a template")
		}

		var goArgs []interface{}
		for _, arg := range args {
			goArgs = append(goArgs, arg)
		}

		result, err := f.Invoke(ctx, builtinCallerSpan(thread), goArgs)
		if err != nil {
			if _, typed := template.AsError(err); !typed {
				err = fmt.Errorf("%s: %w", name, err)
			}
			thread.SetLocal(builtinErrLocalKey, err)
			return starlark.None, err
		}

		return core.NewGoValue(result).AsStarlarkValue()
	}))
}

// ToStarlarkValue converts a scope value for use in templates.
func ToStarlarkValue(name string, val interface{}) (starlark.Value, error) {
	switch typedVal := val.(type) {
	case template.Function:
		return NewStarlarkBuiltin(name, typedVal), nil

	case template.Arguments:
		var items starlark.Tuple
		for _, item := range typedVal {
			starlarkItem, err := core.NewGoValue(item).AsStarlarkValue()
			if err != nil {
				return nil, err
			}
			items = append(items, starlarkItem)
		}
		return items, nil

	default:
		return core.NewGoValue(val).AsStarlarkValue()
	}
}

func builtinCallerSpan(thread *starlark.Thread) filepos.Span {
	prog, ok := thread.Local(programLocalKey).(*Program)
	if !ok {
		return filepos.NewUnknownSpan()
	}
	if thread.CallStackDepth() < 2 {
		return prog.span()
	}
	return prog.spanAt(thread.CallFrame(1).Pos)
}
