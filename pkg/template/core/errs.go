// Copyright 2024 The Carvel Authors.
// SPDX-License-Identifier: Apache-2.0

package core

import (
	"fmt"
	"runtime/debug"

	"github.com/k14s/starlark-go/starlark"
)

type StarlarkFunc func(thread *starlark.Thread, f *starlark.Builtin, args starlark.Tuple, kwargs []starlark.Tuple) (starlark.Value, error)

// ErrWrapper recovers from panics inside builtins and prefixes errors with the builtin's name.
func ErrWrapper(wrappedFunc StarlarkFunc) StarlarkFunc {
	return func(thread *starlark.Thread, f *starlark.Builtin, args starlark.Tuple, kwargs []starlark.Tuple) (val starlark.Value, resultErr error) {
		defer func() {
			if err := recover(); err != nil {
				if typedErr, ok := err.(error); ok {
					resultErr = fmt.Errorf("%s: %s (backtrace: %s)", f.Name(), typedErr, debug.Stack())
				} else {
					resultErr = fmt.Errorf("%s: (p) %s (backtrace: %s)", f.Name(), err, debug.Stack())
				}
			}
		}()

		val, err := wrappedFunc(thread, f, args, kwargs)
		if err != nil {
			return val, fmt.Errorf("%s: %w", f.Name(), err)
		}

		return val, nil
	}
}

// NoKwargs rejects keyword arguments for builtins that only take positional ones.
func NoKwargs(kwargs []starlark.Tuple) error {
	if len(kwargs) > 0 {
		return fmt.Errorf("expected no keyword arguments, but was given %d", len(kwargs))
	}
	return nil
}
