// Copyright 2024 The Carvel Authors.
// SPDX-License-Identifier: Apache-2.0

package template

import (
	"errors"
	"fmt"

	"carvel.dev/ytpl/pkg/filepos"
)

// Kinds of failures; match with errors.Is(err, ErrRecursiveInclude).
var (
	ErrInvalidState     = errors.New("invalid state")
	ErrEvaluation       = errors.New("evaluation failed")
	ErrArity            = errors.New("wrong number of arguments")
	ErrConversion       = errors.New("conversion failed")
	ErrEmptyName        = errors.New("empty template name")
	ErrEmptyPath        = errors.New("empty template path")
	ErrConfiguration    = errors.New("missing configuration")
	ErrLoad             = errors.New("loading template failed")
	ErrIncludeParse     = errors.New("included template has errors")
	ErrRecursiveInclude = errors.New("recursive include")
)

// Error is a runtime failure tied to a source location.
type Error struct {
	Kind        error
	Span        filepos.Span
	Msg         string
	Diagnostics Diagnostics
	Err         error
}

var _ error = &Error{}

func NewError(kind error, span filepos.Span, msg string, args ...interface{}) *Error {
	return &Error{Kind: kind, Span: span, Msg: fmt.Sprintf(msg, args...)}
}

// WithCause records the underlying failure.
func (e *Error) WithCause(err error) *Error {
	e.Err = err
	return e
}

func (e *Error) WithDiagnostics(ds Diagnostics) *Error {
	e.Diagnostics = ds
	return e
}

func (e *Error) Error() string {
	msg := e.Msg
	if e.Span.IsKnown() || e.Span.File() != "" {
		msg = e.Span.AsCompactString() + ": " + msg
	}
	if e.Err != nil {
		msg += ": " + e.Err.Error()
	}
	if len(e.Diagnostics) > 0 {
		msg += "\n" + e.Diagnostics.Error()
	}
	return msg
}

func (e *Error) Unwrap() []error {
	var result []error
	if e.Kind != nil {
		result = append(result, e.Kind)
	}
	if e.Err != nil {
		result = append(result, e.Err)
	}
	return result
}

// AsError finds the first *Error within err's chain.
func AsError(err error) (*Error, bool) {
	var tplErr *Error
	if errors.As(err, &tplErr) {
		return tplErr, true
	}
	return nil, false
}
