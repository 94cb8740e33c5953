// Copyright 2024 The Carvel Authors.
// SPDX-License-Identifier: Apache-2.0

package texttemplate_test

import (
	"math/rand"
	"strings"
	"testing"

	"carvel.dev/ytpl/pkg/filepos"
	"carvel.dev/ytpl/pkg/template"
	"carvel.dev/ytpl/pkg/texttemplate"
	fuzz "github.com/google/gofuzz"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParseNodesTracksPositions(t *testing.T) {
	root, diags := texttemplate.NewParser().ParseNodes("ab(@= x @)c", filepos.NewPositionInFile("tpl.txt", 1, 1))
	require.Empty(t, diags)
	require.Len(t, root.Items, 3)

	text := root.Items[0].(*texttemplate.NodeText)
	assert.Equal(t, "ab", text.Content)
	assert.Equal(t, "tpl.txt:1:1", text.Position.AsCompactString())

	code := root.Items[1].(*texttemplate.NodeCode)
	assert.Equal(t, "= x ", code.Content)
	assert.Equal(t, "tpl.txt:1:3", code.Position.AsCompactString())
	assert.Equal(t, "tpl.txt:1:10", code.EndPosition.AsCompactString())

	lastText := root.Items[2].(*texttemplate.NodeText)
	assert.Equal(t, "c", lastText.Content)
	assert.Equal(t, "tpl.txt:1:11", lastText.Position.AsCompactString())

	assert.Equal(t, "abc", root.AsString())
}

func TestParseReportsDiagnostics(t *testing.T) {
	cases := []struct {
		desc string
		text string
		msg  string
		line int
	}{
		{"stray closing", "a\nb @) c", "Unexpected code closing '@)'", 2},
		{"nested opening", "(@ x = 1\n(@ @)", "Unexpected code opening '(@'", 2},
		{"missing closing", "a\n\n(@= x", "Missing code closing '@)'", 3},
		{"syntax error", "a\n(@ if True @)x(@ end @)", "got newline, want ':'", 2},
	}

	for _, tc := range cases {
		t.Run(tc.desc, func(t *testing.T) {
			tpl := texttemplate.NewParser().Parse(tc.text, "tpl.txt", template.ParseOpts{})
			require.True(t, tpl.HasErrors())

			diags := tpl.Diagnostics().Errors()
			require.Len(t, diags, 1)
			assert.Contains(t, diags[0].Message, tc.msg)
			assert.Equal(t, "tpl.txt", diags[0].Span.File())
			assert.Equal(t, tc.line, diags[0].Span.Start.Line())
		})
	}
}

func TestParseWarnsAboutEmptyCodeBlocks(t *testing.T) {
	tpl := texttemplate.NewParser().Parse("a(@ @)b", "tpl.txt", template.ParseOpts{})
	assert.False(t, tpl.HasErrors())

	diags := tpl.Diagnostics()
	require.Len(t, diags, 1)
	assert.Equal(t, template.SeverityWarning, diags[0].Severity)
	assert.Equal(t, "Empty code block", diags[0].Message)

	out, err := tpl.RenderWithModel(nil)
	require.NoError(t, err)
	assert.Equal(t, "ab", out)
}

func TestParseEmptyText(t *testing.T) {
	tpl := texttemplate.NewParser().Parse("", "empty.txt", template.ParseOpts{})
	assert.False(t, tpl.HasErrors())
	assert.Nil(t, tpl.Root())
	assert.Equal(t, "empty.txt", tpl.SourcePath())

	out, err := tpl.RenderWithModel(nil)
	require.NoError(t, err)
	assert.Equal(t, "", out)
}

func TestCompileGeneratesInstructions(t *testing.T) {
	tpl := texttemplate.NewParser().Parse("a(@=   x @)b", "tpl.txt", template.ParseOpts{})
	require.False(t, tpl.HasErrors())

	prog := tpl.Root().(*texttemplate.Program)
	assert.Equal(t, "__ytpl_write(0)\n__ytpl_print((x ))\n__ytpl_write(1)", prog.CodeAsString())

	lines := prog.Code()
	require.Len(t, lines, 3)
	assert.Equal(t, "tpl.txt:1:8", lines[1].SourceLine.Position.AsCompactString())
}

func TestParseFrontMatter(t *testing.T) {
	text := "---\ntitle = \"Hi\"\n---\n# (@= title @)\n"

	t.Run("front matter and content", func(t *testing.T) {
		tpl := texttemplate.NewParser().Parse(text, "page.txt",
			template.ParseOpts{Mode: template.ModeFrontMatterAndContent})
		require.False(t, tpl.HasErrors(), tpl.Diagnostics().Error())
		require.NotNil(t, tpl.FrontMatter())

		ctx := template.NewExecutionContext()
		ctx.PushGlobal(template.Scope{})

		_, err := tpl.EvaluateFrontMatter(ctx)
		require.NoError(t, err)
		assert.Equal(t, "", ctx.Output())

		require.NoError(t, tpl.Render(ctx))
		assert.Equal(t, "# Hi\n", ctx.Output())
	})

	t.Run("content positions account for front matter", func(t *testing.T) {
		tpl := texttemplate.NewParser().Parse("---\nx = 1\n---\n\n(@= missing +  @)", "page.txt",
			template.ParseOpts{Mode: template.ModeFrontMatterAndContent})
		require.True(t, tpl.HasErrors())
		assert.Equal(t, 5, tpl.Diagnostics().Errors()[0].Span.Start.Line())
	})

	t.Run("front matter only", func(t *testing.T) {
		tpl := texttemplate.NewParser().Parse(text, "page.txt",
			template.ParseOpts{Mode: template.ModeFrontMatterOnly})
		require.False(t, tpl.HasErrors())
		assert.Nil(t, tpl.Root())
		assert.NotNil(t, tpl.FrontMatter())
	})

	t.Run("missing front matter is allowed with content", func(t *testing.T) {
		tpl := texttemplate.NewParser().Parse("plain", "page.txt",
			template.ParseOpts{Mode: template.ModeFrontMatterAndContent})
		require.False(t, tpl.HasErrors())
		assert.Nil(t, tpl.FrontMatter())

		out, err := tpl.RenderWithModel(nil)
		require.NoError(t, err)
		assert.Equal(t, "plain", out)
	})

	t.Run("missing front matter is an error when only front matter is expected", func(t *testing.T) {
		tpl := texttemplate.NewParser().Parse("plain", "page.txt",
			template.ParseOpts{Mode: template.ModeFrontMatterOnly})
		require.True(t, tpl.HasErrors())
		assert.Contains(t, tpl.Diagnostics().Error(), "Expected template to start with front matter delimited by '---'")
	})

	t.Run("unterminated front matter", func(t *testing.T) {
		tpl := texttemplate.NewParser().Parse("---\nx = 1\n", "page.txt",
			template.ParseOpts{Mode: template.ModeFrontMatterAndContent})
		require.True(t, tpl.HasErrors())
		assert.Contains(t, tpl.Diagnostics().Error(), "Missing closing front matter delimiter '---'")
	})
}

func TestParseScriptOnly(t *testing.T) {
	tpl := texttemplate.NewParser().Parse("x = 40\ndef inc(v):\n  return v + 1\nend\ninc(inc(x))", "lib.star",
		template.ParseOpts{Mode: template.ModeScriptOnly})
	require.False(t, tpl.HasErrors(), tpl.Diagnostics().Error())

	val, err := tpl.EvaluateWithModel(nil)
	require.NoError(t, err)
	assert.Equal(t, "42", val.(interface{ String() string }).String())
}

func TestParseWithFuzzedText(t *testing.T) {
	fuzzText := fuzz.New().RandSource(rand.NewSource(1)).Funcs(func(s *string, c fuzz.Continue) {
		*s = c.RandString()
		// quotes, escapes and markers would change what the template means
		*s = strings.NewReplacer(`"`, `'`, `\`, `/`, "@", "a", "\n", " ").Replace(*s)
	})

	for i := 0; i < 100; i++ {
		var text string
		fuzzText.Fuzz(&text)

		tpl := texttemplate.NewParser().Parse(text+`(@= "`+text+`" @)`, "fuzz.txt", template.ParseOpts{})
		require.False(t, tpl.HasErrors(), "text: %q\n%s", text, tpl.Diagnostics().Error())

		out, err := tpl.RenderWithModel(nil)
		require.NoError(t, err, "text: %q", text)
		assert.Equal(t, text+text, out)
	}
}
