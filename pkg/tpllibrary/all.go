// Copyright 2024 The Carvel Authors.
// SPDX-License-Identifier: Apache-2.0

package tpllibrary

import (
	"carvel.dev/ytpl/pkg/template"
)

// Functions returns the builtin library keyed by the name templates use.
func Functions() map[string]template.Function {
	return map[string]template.Function{
		"include":         Include{},
		"require_version": RequireVersion{},
		"markdown":        NewMarkdown(),
		"sanitize_html":   NewSanitizeHTML(),
		"slugify":         Slugify{},
		"to_json":         ToJSON{},
		"to_yaml":         ToYAML{},
		"base64_encode":   Base64{},
		"base64_decode":   Base64{Decode: true},
		"sha256":          Digest{Name: "sha256"},
		"md5":             Digest{Name: "md5"},
	}
}

// Register installs the builtin library into ctx.
func Register(ctx *template.ExecutionContext) {
	for name, f := range Functions() {
		ctx.SetFunction(name, f)
	}
}

// ContextOpts is Register expressed as options for template.NewExecutionContext.
func ContextOpts() []template.ContextOpt {
	var result []template.ContextOpt
	for name, f := range Functions() {
		result = append(result, template.WithFunction(name, f))
	}
	return result
}
