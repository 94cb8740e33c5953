// Copyright 2024 The Carvel Authors.
// SPDX-License-Identifier: Apache-2.0

package tpllibrary

import (
	"strings"
	"time"

	"carvel.dev/ytpl/pkg/filepos"
	"carvel.dev/ytpl/pkg/template"
)

// InFlightTag stores map[string]struct{} of logical include names currently executing.
const InFlightTag template.TagKey = "include.in_flight"

// ReportedFailuresTag stores the int count of include failures passed to the Observer.
const ReportedFailuresTag template.TagKey = "include.reported_failures"

// Include renders another template into a captured string:
// include(name, *args). Extra arguments are visible to the included
// template as `args`.
type Include struct{}

var _ template.Function = Include{}

func (i Include) Invoke(ctx *template.ExecutionContext, span filepos.Span, args []interface{}) (interface{}, error) {
	reported := i.reportedFailures(ctx)
	name, result, err := i.invoke(ctx, span, args)
	if err != nil {
		// enclosing includes propagate a nested failure without reporting it again
		if i.reportedFailures(ctx) == reported {
			ctx.Observer.IncludeFailed(name, err)
			ctx.SetTag(ReportedFailuresTag, reported+1)
		}
		return nil, err
	}
	return result, nil
}

func (i Include) invoke(ctx *template.ExecutionContext, span filepos.Span, args []interface{}) (string, string, error) {
	if len(args) == 0 {
		return "", "", template.NewError(template.ErrArity, span,
			"Expected at least one argument (template name) for include")
	}

	name, err := ctx.Converter.ToName(args[0])
	if err != nil {
		return "", "", template.NewError(template.ErrConversion, span,
			"Converting include template name").WithCause(err)
	}
	if len(strings.TrimSpace(name)) == 0 {
		return name, "", template.NewError(template.ErrEmptyName, span,
			"Expected include template name to be non-empty")
	}

	if ctx.Loader == nil {
		return name, "", template.NewError(template.ErrConfiguration, span,
			"Expected template loader to be configured to include '%s'", name)
	}

	path, err := ctx.Loader.GetPath(ctx, span, name)
	if err != nil {
		return name, "", template.NewError(template.ErrEmptyPath, span,
			"Resolving path of template '%s'", name).WithCause(err)
	}
	if len(strings.TrimSpace(path)) == 0 {
		return name, "", template.NewError(template.ErrEmptyPath, span,
			"Expected template '%s' to resolve to a non-empty path", name)
	}

	restoreArgs, err := i.bindArgs(ctx, args[1:])
	if err != nil {
		return name, "", err
	}
	defer restoreArgs()

	compiledTemplate, err := i.compiledTemplate(ctx, span, name, path)
	if err != nil {
		return name, "", err
	}

	inFlight := i.inFlight(ctx)
	if _, found := inFlight[name]; found {
		return name, "", template.NewError(template.ErrRecursiveInclude, span,
			"Expected template '%s' to not include itself (directly or indirectly)", name)
	}

	inFlight[name] = struct{}{}
	defer delete(inFlight, name)

	result, err := i.render(ctx, compiledTemplate)
	return name, result, err
}

// render captures the template's text even when the caller evaluates with output disabled.
func (i Include) render(ctx *template.ExecutionContext, compiledTemplate *template.CompiledTemplate) (result string, resultErr error) {
	prevEnableOutput := ctx.EnableOutput
	ctx.EnableOutput = true
	ctx.PushOutput()

	defer func() {
		ctx.EnableOutput = prevEnableOutput
		captured, err := ctx.PopOutput()
		if resultErr == nil {
			result, resultErr = captured, err
		}
	}()

	return "", compiledTemplate.Render(ctx)
}

func (i Include) compiledTemplate(ctx *template.ExecutionContext, span filepos.Span,
	name, path string) (*template.CompiledTemplate, error) {

	cache := ctx.TemplateCache()
	parseOpts := ctx.LoaderParseOpts.ForInclude()
	cacheKey := parseOpts.CacheKey(path)

	if compiledTemplate, found := cache.Get(cacheKey); found {
		ctx.UI.Debugf("include '%s' -> %s (cache hit)\n", name, path)
		ctx.Observer.TemplateCacheHit(path)
		return compiledTemplate, nil
	}

	if ctx.Parser == nil {
		return nil, template.NewError(template.ErrConfiguration, span,
			"Expected template parser to be configured to include '%s'", name)
	}

	contents, err := ctx.Loader.Load(ctx, span, path)
	if err != nil {
		return nil, template.NewError(template.ErrLoad, span,
			"Loading template '%s' from '%s'", name, path).WithCause(err)
	}
	if contents == nil {
		return nil, template.NewError(template.ErrLoad, span,
			"Expected template '%s' to be loadable from '%s'", name, path)
	}

	startTime := time.Now()
	compiledTemplate := ctx.Parser.Parse(string(contents), path, parseOpts)
	ctx.Observer.TemplateParsed(path, time.Since(startTime), compiledTemplate.Diagnostics())

	if compiledTemplate.HasErrors() {
		return nil, template.NewError(template.ErrIncludeParse, span,
			"Parsing included template '%s'", name).WithDiagnostics(compiledTemplate.Diagnostics().Errors())
	}

	ctx.UI.Debugf("include '%s' -> %s (parsed)\n", name, path)

	return cache.Add(cacheKey, compiledTemplate), nil
}

// bindArgs binds args under template.ArgumentsName in the top scope and
// returns a func restoring the previous binding.
func (i Include) bindArgs(ctx *template.ExecutionContext, args []interface{}) (func(), error) {
	var pushedScope bool
	if ctx.StackDepths().Globals == 0 {
		ctx.PushGlobal(nil)
		pushedScope = true
	}

	prevArgs, hadArgs := ctx.TopValue(template.ArgumentsName)

	err := ctx.SetValue(template.ArgumentsName, append(template.Arguments{}, args...))
	if err != nil {
		return nil, err
	}

	return func() {
		switch {
		case pushedScope:
			_, _ = ctx.PopGlobal()
		case hadArgs:
			_ = ctx.SetValue(template.ArgumentsName, prevArgs)
		default:
			ctx.DeleteValue(template.ArgumentsName)
		}
	}, nil
}

func (i Include) inFlight(ctx *template.ExecutionContext) map[string]struct{} {
	if val, found := ctx.Tag(InFlightTag); found {
		if inFlight, ok := val.(map[string]struct{}); ok {
			return inFlight
		}
	}
	inFlight := map[string]struct{}{}
	ctx.SetTag(InFlightTag, inFlight)
	return inFlight
}

func (i Include) reportedFailures(ctx *template.ExecutionContext) int {
	if val, found := ctx.Tag(ReportedFailuresTag); found {
		if count, ok := val.(int); ok {
			return count
		}
	}
	return 0
}
