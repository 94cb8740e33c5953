// Copyright 2024 The Carvel Authors.
// SPDX-License-Identifier: Apache-2.0

package template

import (
	"sort"
	"strings"

	"carvel.dev/ytpl/pkg/filepos"
	"carvel.dev/ytpl/pkg/template/core"
)

// Scope maps identifiers to values.
type Scope map[string]interface{}

// TagKey identifies per-context state owned by a builtin, e.g. "include.in_flight".
// Each key documents the type of value stored under it.
type TagKey string

// ExecutionContext is the mutable state of a rendering session.
// It must not be used by multiple goroutines at once.
type ExecutionContext struct {
	globals     []Scope
	outputs     []*strings.Builder
	sourceFiles []string
	cache       TemplateCache
	tags        map[TagKey]interface{}
	functions   map[string]Function

	// EnableOutput controls whether Write appends to the current output.
	EnableOutput bool

	Loader          Loader
	Parser          Parser
	LoaderParseOpts ParseOpts
	Converter       Converter
	UI              UI
	Observer        Observer
}

type ContextOpt func(*ExecutionContext)

func WithLoader(loader Loader) ContextOpt { return func(c *ExecutionContext) { c.Loader = loader } }
func WithParser(parser Parser) ContextOpt { return func(c *ExecutionContext) { c.Parser = parser } }
func WithUI(ui UI) ContextOpt             { return func(c *ExecutionContext) { c.UI = ui } }

func WithLoaderParseOpts(opts ParseOpts) ContextOpt {
	return func(c *ExecutionContext) { c.LoaderParseOpts = opts }
}

func WithConverter(converter Converter) ContextOpt {
	return func(c *ExecutionContext) { c.Converter = converter }
}

func WithObserver(observer Observer) ContextOpt {
	return func(c *ExecutionContext) { c.Observer = observer }
}

// WithTemplateCache replaces the context's private cache, e.g. with a SyncTemplateCache
// shared by several contexts.
func WithTemplateCache(cache TemplateCache) ContextOpt {
	return func(c *ExecutionContext) { c.cache = cache }
}

func WithFunction(name string, f Function) ContextOpt {
	return func(c *ExecutionContext) { c.SetFunction(name, f) }
}

func NewExecutionContext(opts ...ContextOpt) *ExecutionContext {
	ctx := &ExecutionContext{
		outputs:      []*strings.Builder{{}},
		cache:        NewTemplateCache(),
		tags:         map[TagKey]interface{}{},
		functions:    map[string]Function{},
		EnableOutput: true,
		Converter:    core.Converter{},
		UI:           noopUI{},
		Observer:     NoopObserver{},
	}
	for _, opt := range opts {
		opt(ctx)
	}
	return ctx
}

func (c *ExecutionContext) PushGlobal(scope Scope) {
	if scope == nil {
		scope = Scope{}
	}
	c.globals = append(c.globals, scope)
}

func (c *ExecutionContext) PopGlobal() (Scope, error) {
	if len(c.globals) == 0 {
		return nil, NewError(ErrInvalidState, c.currentSpan(), "Expected a global scope to pop")
	}
	scope := c.globals[len(c.globals)-1]
	c.globals = c.globals[:len(c.globals)-1]
	return scope, nil
}

// Globals returns scope frames from bottom to top.
func (c *ExecutionContext) Globals() []Scope {
	return append([]Scope{}, c.globals...)
}

// Lookup resolves name in the topmost scope that defines it, then in builtin functions.
func (c *ExecutionContext) Lookup(name string) (interface{}, bool) {
	for i := len(c.globals) - 1; i >= 0; i-- {
		if val, found := c.globals[i][name]; found {
			return val, true
		}
	}
	if f, found := c.functions[name]; found {
		return f, true
	}
	return nil, false
}

func (c *ExecutionContext) SetValue(name string, val interface{}) error {
	if len(c.globals) == 0 {
		return NewError(ErrInvalidState, c.currentSpan(), "Expected a global scope to set '%s'", name)
	}
	c.globals[len(c.globals)-1][name] = val
	return nil
}

func (c *ExecutionContext) DeleteValue(name string) {
	if len(c.globals) > 0 {
		delete(c.globals[len(c.globals)-1], name)
	}
}

// TopValue returns the binding of name in the topmost scope only.
func (c *ExecutionContext) TopValue(name string) (interface{}, bool) {
	if len(c.globals) == 0 {
		return nil, false
	}
	val, found := c.globals[len(c.globals)-1][name]
	return val, found
}

func (c *ExecutionContext) SetFunction(name string, f Function) { c.functions[name] = f }

func (c *ExecutionContext) Function(name string) (Function, bool) {
	f, found := c.functions[name]
	return f, found
}

func (c *ExecutionContext) FunctionNames() []string {
	var result []string
	for name := range c.functions {
		result = append(result, name)
	}
	sort.Strings(result)
	return result
}

// PushOutput installs a fresh capturing sink.
func (c *ExecutionContext) PushOutput() {
	c.outputs = append(c.outputs, &strings.Builder{})
}

// PopOutput removes the current sink and returns what was written to it.
// The default sink cannot be popped.
func (c *ExecutionContext) PopOutput() (string, error) {
	if len(c.outputs) <= 1 {
		return "", NewError(ErrInvalidState, c.currentSpan(), "Expected a pushed output to pop")
	}
	out := c.outputs[len(c.outputs)-1]
	c.outputs = c.outputs[:len(c.outputs)-1]
	return out.String(), nil
}

// OutputDepth includes the default sink.
func (c *ExecutionContext) OutputDepth() int { return len(c.outputs) }

// RestoreOutputDepth drops sinks pushed after depth was observed.
func (c *ExecutionContext) RestoreOutputDepth(depth int) {
	if depth < 1 {
		depth = 1
	}
	if len(c.outputs) > depth {
		c.outputs = c.outputs[:depth]
	}
}

// Output returns the contents of the default sink.
func (c *ExecutionContext) Output() string { return c.outputs[0].String() }

// ResetOutput empties the default sink.
func (c *ExecutionContext) ResetOutput() { c.outputs[0].Reset() }

func (c *ExecutionContext) Write(span filepos.Span, val interface{}) error {
	if !c.EnableOutput {
		return nil
	}
	str, err := c.Converter.ToDisplayString(val)
	if err != nil {
		return NewError(ErrConversion, span, "Converting value to text").WithCause(err)
	}
	c.outputs[len(c.outputs)-1].WriteString(str)
	return nil
}

func (c *ExecutionContext) PushSourceFile(path string) {
	c.sourceFiles = append(c.sourceFiles, path)
}

func (c *ExecutionContext) PopSourceFile() error {
	if len(c.sourceFiles) == 0 {
		return NewError(ErrInvalidState, filepos.NewUnknownSpan(), "Expected a source file to pop")
	}
	c.sourceFiles = c.sourceFiles[:len(c.sourceFiles)-1]
	return nil
}

// CurrentSourceFile is the innermost file being executed ("" when none).
func (c *ExecutionContext) CurrentSourceFile() string {
	if len(c.sourceFiles) == 0 {
		return ""
	}
	return c.sourceFiles[len(c.sourceFiles)-1]
}

func (c *ExecutionContext) TemplateCache() TemplateCache { return c.cache }

func (c *ExecutionContext) Tag(key TagKey) (interface{}, bool) {
	val, found := c.tags[key]
	return val, found
}

func (c *ExecutionContext) SetTag(key TagKey, val interface{}) { c.tags[key] = val }

func (c *ExecutionContext) DeleteTag(key TagKey) { delete(c.tags, key) }

// StackDepths is a snapshot of the context's stacks.
type StackDepths struct {
	Globals     int
	Outputs     int
	SourceFiles int
}

func (c *ExecutionContext) StackDepths() StackDepths {
	return StackDepths{
		Globals:     len(c.globals),
		Outputs:     len(c.outputs),
		SourceFiles: len(c.sourceFiles),
	}
}

func (c *ExecutionContext) currentSpan() filepos.Span {
	return filepos.NewUnknownSpanInFile(c.CurrentSourceFile())
}
