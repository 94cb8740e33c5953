// Copyright 2024 The Carvel Authors.
// SPDX-License-Identifier: Apache-2.0

package template_test

import (
	"testing"

	"carvel.dev/ytpl/pkg/filepos"
	"carvel.dev/ytpl/pkg/template"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestExecutionContextScopes(t *testing.T) {
	ctx := template.NewExecutionContext(template.WithFunction("f", template.FunctionFunc(nil)))

	_, found := ctx.Lookup("a")
	assert.False(t, found)

	err := ctx.SetValue("a", 1)
	assert.ErrorIs(t, err, template.ErrInvalidState)

	ctx.PushGlobal(template.Scope{"a": 1, "b": 2})
	ctx.PushGlobal(nil)
	require.NoError(t, ctx.SetValue("a", 10))

	val, found := ctx.Lookup("a")
	require.True(t, found)
	assert.Equal(t, 10, val)

	val, found = ctx.Lookup("b")
	require.True(t, found)
	assert.Equal(t, 2, val)

	_, found = ctx.TopValue("b")
	assert.False(t, found)

	_, found = ctx.Lookup("f")
	assert.True(t, found)

	ctx.DeleteValue("a")
	val, _ = ctx.Lookup("a")
	assert.Equal(t, 1, val)

	top, err := ctx.PopGlobal()
	require.NoError(t, err)
	assert.Equal(t, template.Scope{}, top)

	_, err = ctx.PopGlobal()
	require.NoError(t, err)

	_, err = ctx.PopGlobal()
	assert.ErrorIs(t, err, template.ErrInvalidState)
}

func TestExecutionContextOutputs(t *testing.T) {
	ctx := template.NewExecutionContext()
	span := filepos.NewUnknownSpan()

	require.NoError(t, ctx.Write(span, "a"))
	ctx.PushOutput()
	require.NoError(t, ctx.Write(span, "b"))
	ctx.PushOutput()
	require.NoError(t, ctx.Write(span, 3))

	captured, err := ctx.PopOutput()
	require.NoError(t, err)
	assert.Equal(t, "3", captured)

	captured, err = ctx.PopOutput()
	require.NoError(t, err)
	assert.Equal(t, "b", captured)

	_, err = ctx.PopOutput()
	assert.ErrorIs(t, err, template.ErrInvalidState)
	assert.Equal(t, "a", ctx.Output())

	t.Run("writes are dropped when output is disabled", func(t *testing.T) {
		ctx := template.NewExecutionContext()
		ctx.EnableOutput = false
		require.NoError(t, ctx.Write(span, "dropped"))
		assert.Equal(t, "", ctx.Output())
	})

	t.Run("unconvertible values fail", func(t *testing.T) {
		ctx := template.NewExecutionContext()
		err := ctx.Write(span, struct{}{})
		assert.ErrorIs(t, err, template.ErrConversion)
	})

	t.Run("output depth can be restored", func(t *testing.T) {
		ctx := template.NewExecutionContext()
		depth := ctx.OutputDepth()
		ctx.PushOutput()
		ctx.PushOutput()
		ctx.RestoreOutputDepth(depth)
		assert.Equal(t, 1, ctx.OutputDepth())

		ctx.RestoreOutputDepth(0)
		assert.Equal(t, 1, ctx.OutputDepth())
	})
}

func TestExecutionContextSourceFiles(t *testing.T) {
	ctx := template.NewExecutionContext()
	assert.Equal(t, "", ctx.CurrentSourceFile())

	ctx.PushSourceFile("a.txt")
	ctx.PushSourceFile("b.txt")
	assert.Equal(t, "b.txt", ctx.CurrentSourceFile())

	require.NoError(t, ctx.PopSourceFile())
	assert.Equal(t, "a.txt", ctx.CurrentSourceFile())
	require.NoError(t, ctx.PopSourceFile())

	assert.ErrorIs(t, ctx.PopSourceFile(), template.ErrInvalidState)
}

func TestExecutionContextTags(t *testing.T) {
	const key template.TagKey = "test.key"

	ctx := template.NewExecutionContext()
	_, found := ctx.Tag(key)
	assert.False(t, found)

	ctx.SetTag(key, 1)
	val, found := ctx.Tag(key)
	assert.True(t, found)
	assert.Equal(t, 1, val)

	ctx.DeleteTag(key)
	_, found = ctx.Tag(key)
	assert.False(t, found)
}

func TestTemplateCaches(t *testing.T) {
	for _, cache := range []template.TemplateCache{template.NewTemplateCache(), template.NewSyncTemplateCache()} {
		_, found := cache.Get("a")
		assert.False(t, found)

		first := template.NewEmptyCompiledTemplate("a")
		assert.Same(t, first, cache.Add("a", first))

		// first added template wins
		assert.Same(t, first, cache.Add("a", template.NewEmptyCompiledTemplate("a")))

		cache.Add("0", template.NewEmptyCompiledTemplate("0"))

		tpl, found := cache.Get("a")
		require.True(t, found)
		assert.Same(t, first, tpl)
		assert.Equal(t, []string{"0", "a"}, cache.Paths())
	}
}

func TestParseModes(t *testing.T) {
	for _, mode := range []template.ParseMode{template.ModeDefault, template.ModeScriptOnly,
		template.ModeFrontMatterAndContent, template.ModeFrontMatterOnly} {

		parsed, err := template.NewParseModeFromString(mode.String())
		require.NoError(t, err)
		assert.Equal(t, mode, parsed)
	}

	_, err := template.NewParseModeFromString("yaml")
	assert.ErrorContains(t, err, "Unknown parse mode 'yaml'")

	assert.Equal(t, template.ModeDefault, template.ParseOpts{Mode: template.ModeFrontMatterAndContent}.ForInclude().Mode)
	assert.Equal(t, template.ModeScriptOnly, template.ParseOpts{Mode: template.ModeScriptOnly}.ForInclude().Mode)
}

func TestParseOptsCacheKeyIncludesMode(t *testing.T) {
	assert.Equal(t, "a.txt", template.ParseOpts{}.CacheKey("a.txt"))

	keys := map[string]struct{}{}
	for _, mode := range []template.ParseMode{template.ModeDefault, template.ModeScriptOnly,
		template.ModeFrontMatterAndContent, template.ModeFrontMatterOnly} {
		keys[template.ParseOpts{Mode: mode}.CacheKey("a.txt")] = struct{}{}
	}
	assert.Len(t, keys, 4)
}
