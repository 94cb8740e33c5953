// Copyright 2024 The Carvel Authors.
// SPDX-License-Identifier: Apache-2.0

package tpllibrary

import (
	"bytes"

	"carvel.dev/ytpl/pkg/filepos"
	"carvel.dev/ytpl/pkg/template"
	"github.com/yuin/goldmark"
	"github.com/yuin/goldmark/extension"
	"github.com/yuin/goldmark/parser"
	"github.com/yuin/goldmark/renderer/html"
)

// Markdown renders GitHub flavored markdown to HTML: markdown(text).
type Markdown struct {
	md goldmark.Markdown
}

var _ template.Function = Markdown{}

func NewMarkdown() Markdown {
	return Markdown{goldmark.New(
		goldmark.WithExtensions(extension.GFM),
		goldmark.WithParserOptions(parser.WithAutoHeadingID()),
		goldmark.WithRendererOptions(html.WithXHTML()),
	)}
}

func (b Markdown) Invoke(ctx *template.ExecutionContext, span filepos.Span, args []interface{}) (interface{}, error) {
	if len(args) != 1 {
		return nil, template.NewError(template.ErrArity, span, "Expected exactly one argument for markdown")
	}

	input, err := stringArg(ctx, span, args[0])
	if err != nil {
		return nil, err
	}

	var buf bytes.Buffer
	if err := b.md.Convert([]byte(input), &buf); err != nil {
		return nil, err
	}

	return buf.String(), nil
}
