// Copyright 2024 The Carvel Authors.
// SPDX-License-Identifier: Apache-2.0

package texttemplate_test

import (
	"fmt"
	"strings"
	"testing"

	"carvel.dev/ytpl/pkg/filepos"
	"carvel.dev/ytpl/pkg/template"
	"carvel.dev/ytpl/pkg/template/core"
	"carvel.dev/ytpl/pkg/texttemplate"
	"github.com/k14s/starlark-go/starlark"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func parse(t *testing.T, text string) *template.CompiledTemplate {
	tpl := texttemplate.NewParser().Parse(text, "tpl.txt", template.ParseOpts{})
	require.False(t, tpl.HasErrors(), tpl.Diagnostics().Error())
	return tpl
}

func TestEvaluateSuppressesOutput(t *testing.T) {
	tpl := parse(t, "text(@= 1 @)(@ 5 @)")

	ctx := template.NewExecutionContext()
	val, err := tpl.Evaluate(ctx)
	require.NoError(t, err)

	assert.Equal(t, "5", val.(starlark.Value).String())
	assert.Equal(t, "", ctx.Output())
	assert.True(t, ctx.EnableOutput)
}

func TestRenderWritesBackTopLevelAssignments(t *testing.T) {
	tpl := parse(t, "(@ x = 1 @)(@ _hidden = 2 @)(@ def f(): @)(@ end @)")

	ctx := template.NewExecutionContext()
	ctx.PushGlobal(template.Scope{"untouched": "yes"})
	ctx.PushGlobal(template.Scope{})

	require.NoError(t, tpl.Render(ctx))

	val, found := ctx.TopValue("x")
	require.True(t, found)
	assert.Equal(t, "1", val.(starlark.Value).String())

	_, found = ctx.TopValue("f")
	assert.True(t, found)

	_, found = ctx.TopValue("_hidden")
	assert.False(t, found)

	_, found = ctx.TopValue("untouched")
	assert.False(t, found)
}

func TestRenderWithoutScopeDoesNotWriteBack(t *testing.T) {
	ctx := template.NewExecutionContext()
	require.NoError(t, parse(t, "(@ x = 1 @)ok").Render(ctx))

	assert.Equal(t, "ok", ctx.Output())
	assert.Empty(t, ctx.Globals())
}

func TestTopScopeShadowsLowerScopes(t *testing.T) {
	ctx := template.NewExecutionContext()
	ctx.PushGlobal(template.Scope{"name": "lower", "other": "kept"})
	ctx.PushGlobal(template.Scope{"name": "upper"})

	require.NoError(t, parse(t, "(@= name @) (@= other @)").Render(ctx))
	assert.Equal(t, "upper kept", ctx.Output())
}

func TestArgumentsBecomeTuple(t *testing.T) {
	out, err := parse(t, "(@= len(args) @):(@= args[0] @)(@= args[1] @)").RenderWithModel(
		map[string]interface{}{"args": template.Arguments{"x", 2}})
	require.NoError(t, err)
	assert.Equal(t, "2:x2", out)
}

func TestContextFunctions(t *testing.T) {
	upper := template.FunctionFunc(func(_ *template.ExecutionContext, _ filepos.Span, args []interface{}) (interface{}, error) {
		if len(args) != 1 {
			return nil, fmt.Errorf("expected one argument")
		}
		str, err := core.NewStarlarkValue(args[0].(starlark.Value)).AsString()
		if err != nil {
			return nil, err
		}
		return strings.ToUpper(str), nil
	})

	t.Run("are callable from templates", func(t *testing.T) {
		out, err := parse(t, "(@= upper(name) @)").RenderWithModel(
			map[string]interface{}{"name": "ann"}, template.WithFunction("upper", upper))
		require.NoError(t, err)
		assert.Equal(t, "ANN", out)
	})

	t.Run("are shadowed by scope values", func(t *testing.T) {
		out, err := parse(t, "(@= upper @)").RenderWithModel(
			map[string]interface{}{"upper": "value"}, template.WithFunction("upper", upper))
		require.NoError(t, err)
		assert.Equal(t, "value", out)
	})

	t.Run("report untyped failures with the call site", func(t *testing.T) {
		_, err := parse(t, "line\n(@= upper() @)").RenderWithModel(nil, template.WithFunction("upper", upper))
		require.Error(t, err)
		assert.ErrorIs(t, err, template.ErrEvaluation)
		assert.ErrorContains(t, err, "upper: expected one argument")

		tplErr, ok := template.AsError(err)
		require.True(t, ok)
		assert.Equal(t, 2, tplErr.Span.Start.Line())
	})

	t.Run("pass typed failures through", func(t *testing.T) {
		failing := template.FunctionFunc(func(_ *template.ExecutionContext, span filepos.Span, _ []interface{}) (interface{}, error) {
			return nil, template.NewError(template.ErrLoad, span, "Cannot load")
		})

		_, err := parse(t, "(@ failing() @)").RenderWithModel(nil, template.WithFunction("failing", failing))
		assert.ErrorIs(t, err, template.ErrLoad)
		assert.NotErrorIs(t, err, template.ErrEvaluation)
	})

	t.Run("can be values in scope", func(t *testing.T) {
		out, err := parse(t, "(@= shout(\"hi\") @)").RenderWithModel(
			map[string]interface{}{"shout": template.Function(upper)})
		require.NoError(t, err)
		assert.Equal(t, "HI", out)
	})
}

func TestFailureRestoresOutputState(t *testing.T) {
	tpl := parse(t, "before(@ def f(): @)x(@ 1 + \"a\" @)(@ end @)(@= f() @)after")

	ctx := template.NewExecutionContext()
	ctx.PushGlobal(template.Scope{})

	err := tpl.Render(ctx)
	require.Error(t, err)
	assert.ErrorIs(t, err, template.ErrEvaluation)
	assert.ErrorContains(t, err, "unknown binary op: int + string")

	assert.Equal(t, template.StackDepths{Globals: 1, Outputs: 1, SourceFiles: 0}, ctx.StackDepths())
	assert.True(t, ctx.EnableOutput)
	assert.Equal(t, "before", ctx.Output())
}

func TestEvaluationErrorsPointIntoTemplate(t *testing.T) {
	_, err := parse(t, "a\nb\n  (@= 1 + \"x\" @)").RenderWithModel(nil)
	require.Error(t, err)

	tplErr, ok := template.AsError(err)
	require.True(t, ok)
	assert.Equal(t, "tpl.txt", tplErr.Span.File())
	assert.Equal(t, 3, tplErr.Span.Start.Line())
}

func TestRenderingTemplateWithErrorsFails(t *testing.T) {
	tpl := texttemplate.NewParser().Parse("(@ if @)", "tpl.txt", template.ParseOpts{})
	require.True(t, tpl.HasErrors())

	_, err := tpl.RenderWithModel(nil)
	assert.ErrorIs(t, err, template.ErrInvalidState)

	tplErr, ok := template.AsError(err)
	require.True(t, ok)
	assert.NotEmpty(t, tplErr.Diagnostics)
}

func TestTemplatesAreReusable(t *testing.T) {
	tpl := parse(t, "(@ greeting = \"hi \" + name @)(@= greeting @)")

	for _, name := range []string{"a", "b"} {
		out, err := tpl.RenderWithModel(map[string]interface{}{"name": name})
		require.NoError(t, err)
		assert.Equal(t, "hi "+name, out)
	}
}

func TestSourceFileIsTrackedDuringEvaluation(t *testing.T) {
	var seen string
	current := template.FunctionFunc(func(ctx *template.ExecutionContext, _ filepos.Span, _ []interface{}) (interface{}, error) {
		seen = ctx.CurrentSourceFile()
		return nil, nil
	})

	ctx := template.NewExecutionContext(template.WithFunction("current", current))
	require.NoError(t, parse(t, "(@ current() @)").Render(ctx))

	assert.Equal(t, "tpl.txt", seen)
	assert.Equal(t, "", ctx.CurrentSourceFile())
}
