// Copyright 2024 The Carvel Authors.
// SPDX-License-Identifier: Apache-2.0

package template

import (
	"time"

	"carvel.dev/ytpl/pkg/filepos"
)

// CompiledTemplate is the immutable result of parsing a template.
// It is safe to evaluate it repeatedly and from several ExecutionContexts.
type CompiledTemplate struct {
	sourcePath  string
	root        Node
	frontMatter Node
	diags       Diagnostics
}

// NewCompiledTemplate is used by front-ends. root and frontMatter may be nil.
func NewCompiledTemplate(sourcePath string, root, frontMatter Node, diags Diagnostics) *CompiledTemplate {
	return &CompiledTemplate{
		sourcePath:  sourcePath,
		root:        root,
		frontMatter: frontMatter,
		diags:       append(Diagnostics{}, diags...),
	}
}

// NewEmptyCompiledTemplate has nothing to evaluate (e.g. parsed from empty text).
func NewEmptyCompiledTemplate(sourcePath string) *CompiledTemplate {
	return &CompiledTemplate{sourcePath: sourcePath}
}

func (t *CompiledTemplate) SourcePath() string       { return t.sourcePath }
func (t *CompiledTemplate) Root() Node               { return t.root }
func (t *CompiledTemplate) FrontMatter() Node        { return t.frontMatter }
func (t *CompiledTemplate) Diagnostics() Diagnostics { return append(Diagnostics{}, t.diags...) }
func (t *CompiledTemplate) HasErrors() bool          { return t.diags.HasErrors() }

// Evaluate runs the template with output suppressed and returns its trailing value.
func (t *CompiledTemplate) Evaluate(ctx *ExecutionContext) (interface{}, error) {
	prevEnableOutput := ctx.EnableOutput
	ctx.EnableOutput = false
	defer func() { ctx.EnableOutput = prevEnableOutput }()

	return t.evaluate(ctx, t.root)
}

// Render runs the template writing into ctx's current output. A non-empty
// trailing value is written after the template's own output.
func (t *CompiledTemplate) Render(ctx *ExecutionContext) error {
	startTime := time.Now()

	err := t.render(ctx)
	ctx.Observer.TemplateRendered(t.sourcePath, time.Since(startTime), err)

	return err
}

func (t *CompiledTemplate) render(ctx *ExecutionContext) error {
	val, err := t.evaluate(ctx, t.root)
	if err != nil {
		return err
	}

	if !ctx.EnableOutput || val == nil {
		return nil
	}

	str, err := ctx.Converter.ToDisplayString(val)
	if err != nil {
		return NewError(ErrConversion, t.span(), "Converting template result to text").WithCause(err)
	}
	if len(str) == 0 {
		return nil
	}
	return ctx.Write(t.span(), str)
}

// EvaluateFrontMatter runs the front matter (if any) with output suppressed;
// its assignments become visible in ctx's top scope.
func (t *CompiledTemplate) EvaluateFrontMatter(ctx *ExecutionContext) (interface{}, error) {
	prevEnableOutput := ctx.EnableOutput
	ctx.EnableOutput = false
	defer func() { ctx.EnableOutput = prevEnableOutput }()

	return t.evaluate(ctx, t.frontMatter)
}

func (t *CompiledTemplate) evaluate(ctx *ExecutionContext, node Node) (resultVal interface{}, resultErr error) {
	if t.HasErrors() {
		return nil, NewError(ErrInvalidState, t.span(),
			"Expected template without errors to be evaluated").WithDiagnostics(t.diags.Errors())
	}

	if node == nil {
		return nil, nil
	}

	if len(t.sourcePath) > 0 {
		ctx.PushSourceFile(t.sourcePath)
		defer func() {
			err := ctx.PopSourceFile()
			if resultErr == nil {
				resultErr = err
			}
		}()
	}

	return node.Evaluate(ctx)
}

// EvaluateWithModel evaluates the template in a fresh context whose only global is model.
func (t *CompiledTemplate) EvaluateWithModel(model map[string]interface{}, opts ...ContextOpt) (interface{}, error) {
	ctx := NewExecutionContext(opts...)

	ctx.PushGlobal(newModelScope(model))
	val, err := t.Evaluate(ctx)
	if _, popErr := ctx.PopGlobal(); err == nil {
		err = popErr
	}

	return val, err
}

// RenderWithModel renders the template in a fresh context whose only global is model.
// Output produced before a failure is returned along with the error.
func (t *CompiledTemplate) RenderWithModel(model map[string]interface{}, opts ...ContextOpt) (string, error) {
	ctx := NewExecutionContext(opts...)

	ctx.PushGlobal(newModelScope(model))
	err := t.Render(ctx)
	if _, popErr := ctx.PopGlobal(); err == nil {
		err = popErr
	}

	return ctx.Output(), err
}

func (t *CompiledTemplate) span() filepos.Span {
	return filepos.NewUnknownSpanInFile(t.sourcePath)
}

func newModelScope(model map[string]interface{}) Scope {
	scope := Scope{}
	for k, v := range model {
		scope[k] = v
	}
	return scope
}
