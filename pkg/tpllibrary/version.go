// Copyright 2024 The Carvel Authors.
// SPDX-License-Identifier: Apache-2.0

package tpllibrary

import (
	"fmt"

	"carvel.dev/ytpl/pkg/filepos"
	"carvel.dev/ytpl/pkg/template"
	"carvel.dev/ytpl/pkg/version"
	goversion "github.com/hashicorp/go-version"
)

// RequireVersion fails evaluation when ytpl is older than the given version:
// require_version("0.2.0").
type RequireVersion struct {
	// Current defaults to version.Version
	Current string
}

var _ template.Function = RequireVersion{}

func (b RequireVersion) Invoke(ctx *template.ExecutionContext, span filepos.Span, args []interface{}) (interface{}, error) {
	if len(args) != 1 {
		return nil, template.NewError(template.ErrArity, span, "Expected exactly one argument for require_version")
	}

	val, err := stringArg(ctx, span, args[0])
	if err != nil {
		return nil, err
	}

	userConstraint, err := goversion.NewConstraint(">= " + val)
	if err != nil {
		return nil, fmt.Errorf("parsing minimum version '%s': %w", val, err)
	}

	current := b.Current
	if len(current) == 0 {
		current = version.Version
	}

	currentVersion, err := goversion.NewVersion(current)
	if err != nil {
		return nil, fmt.Errorf("parsing ytpl version '%s': %w", current, err)
	}

	if !userConstraint.Check(currentVersion) {
		return nil, fmt.Errorf("ytpl version %s does not meet the minimum required version %s", current, val)
	}

	return nil, nil
}

func stringArg(ctx *template.ExecutionContext, span filepos.Span, arg interface{}) (string, error) {
	str, err := ctx.Converter.ToDisplayString(arg)
	if err != nil {
		return "", template.NewError(template.ErrConversion, span, "Converting argument to string").WithCause(err)
	}
	return str, nil
}
