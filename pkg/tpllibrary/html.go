// Copyright 2024 The Carvel Authors.
// SPDX-License-Identifier: Apache-2.0

package tpllibrary

import (
	"carvel.dev/ytpl/pkg/filepos"
	"carvel.dev/ytpl/pkg/template"
	"github.com/gosimple/slug"
	"github.com/microcosm-cc/bluemonday"
)

// SanitizeHTML strips unsafe markup from user content: sanitize_html(text).
type SanitizeHTML struct {
	policy *bluemonday.Policy
}

var _ template.Function = SanitizeHTML{}

func NewSanitizeHTML() SanitizeHTML {
	return SanitizeHTML{bluemonday.UGCPolicy()}
}

func (b SanitizeHTML) Invoke(ctx *template.ExecutionContext, span filepos.Span, args []interface{}) (interface{}, error) {
	if len(args) != 1 {
		return nil, template.NewError(template.ErrArity, span, "Expected exactly one argument for sanitize_html")
	}

	input, err := stringArg(ctx, span, args[0])
	if err != nil {
		return nil, err
	}

	return b.policy.Sanitize(input), nil
}

// Slugify makes URL friendly identifiers: slugify("Hello World") == "hello-world".
type Slugify struct{}

var _ template.Function = Slugify{}

func (b Slugify) Invoke(ctx *template.ExecutionContext, span filepos.Span, args []interface{}) (interface{}, error) {
	if len(args) != 1 {
		return nil, template.NewError(template.ErrArity, span, "Expected exactly one argument for slugify")
	}

	input, err := stringArg(ctx, span, args[0])
	if err != nil {
		return nil, err
	}

	return slug.Make(input), nil
}
