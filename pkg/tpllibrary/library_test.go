// Copyright 2024 The Carvel Authors.
// SPDX-License-Identifier: Apache-2.0

package tpllibrary_test

import (
	"testing"

	"carvel.dev/ytpl/pkg/filepos"
	"carvel.dev/ytpl/pkg/files"
	"carvel.dev/ytpl/pkg/template"
	"carvel.dev/ytpl/pkg/tpllibrary"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestRequireVersion(t *testing.T) {
	ctx := template.NewExecutionContext()
	f := tpllibrary.RequireVersion{Current: "0.3.1"}

	_, err := f.Invoke(ctx, filepos.NewUnknownSpan(), []interface{}{"0.3.0"})
	assert.NoError(t, err)

	_, err = f.Invoke(ctx, filepos.NewUnknownSpan(), []interface{}{"0.3.1"})
	assert.NoError(t, err)

	_, err = f.Invoke(ctx, filepos.NewUnknownSpan(), []interface{}{"1.0.0"})
	assert.ErrorContains(t, err, "ytpl version 0.3.1 does not meet the minimum required version 1.0.0")

	_, err = f.Invoke(ctx, filepos.NewUnknownSpan(), []interface{}{"not-a-version"})
	assert.ErrorContains(t, err, "parsing minimum version 'not-a-version'")

	_, err = f.Invoke(ctx, filepos.NewUnknownSpan(), nil)
	assert.ErrorIs(t, err, template.ErrArity)
}

func TestRequireVersionFromTemplate(t *testing.T) {
	ctx := newContext(files.NewMapLoader(nil))

	_, err := render(t, ctx, `(@ require_version("0.0.1") @)ok`)
	require.NoError(t, err)

	ctx.ResetOutput()
	_, err = render(t, ctx, `(@ require_version("999.0.0") @)ok`)
	assert.ErrorIs(t, err, template.ErrEvaluation)
	assert.ErrorContains(t, err, "require_version: ytpl version")
	assert.Equal(t, "", ctx.Output())
}

func TestMarkdown(t *testing.T) {
	out, err := tpllibrary.NewMarkdown().Invoke(template.NewExecutionContext(), filepos.NewUnknownSpan(),
		[]interface{}{"# Title\n\nSome *text*"})
	require.NoError(t, err)
	assert.Equal(t, "<h1 id=\"title\">Title</h1>\n<p>Some <em>text</em></p>\n", out)
}

func TestSanitizeHTML(t *testing.T) {
	out, err := tpllibrary.NewSanitizeHTML().Invoke(template.NewExecutionContext(), filepos.NewUnknownSpan(),
		[]interface{}{`<a href="https://example.com" onclick="steal()">link</a><script>alert(1)</script>`})
	require.NoError(t, err)

	assert.Contains(t, out, `href="https://example.com"`)
	assert.Contains(t, out, "link</a>")
	assert.NotContains(t, out, "onclick")
	assert.NotContains(t, out, "script")
}

func TestSlugify(t *testing.T) {
	out, err := tpllibrary.Slugify{}.Invoke(template.NewExecutionContext(), filepos.NewUnknownSpan(),
		[]interface{}{"Hello World!"})
	require.NoError(t, err)
	assert.Equal(t, "hello-world", out)
}

func TestLibraryFromTemplate(t *testing.T) {
	ctx := newContext(files.NewMapLoader(map[string]string{
		"post": `(@= markdown("## " + args[0]) @)`,
	}))

	out, err := render(t, ctx, `(@= slugify("My Post") @):(@= include("post", "Intro") @)`)
	require.NoError(t, err)
	assert.Equal(t, "my-post:<h2 id=\"intro\">Intro</h2>\n", out)
}
