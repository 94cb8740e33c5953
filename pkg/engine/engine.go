// Copyright 2024 The Carvel Authors.
// SPDX-License-Identifier: Apache-2.0

package engine

import (
	"fmt"
	"time"

	"carvel.dev/ytpl/pkg/filepos"
	"carvel.dev/ytpl/pkg/template"
	"carvel.dev/ytpl/pkg/template/core"
	"carvel.dev/ytpl/pkg/texttemplate"
	"carvel.dev/ytpl/pkg/tpllibrary"
	"github.com/k14s/starlark-go/starlark"
)

// ValuesName is the global under which templates find the data values.
const ValuesName = "values"

type Opts struct {
	Loader    template.Loader
	ParseOpts template.ParseOpts
	UI        template.UI
	Observer  template.Observer

	// Cache is shared by every render when set; otherwise each render
	// starts with an empty cache.
	Cache template.TemplateCache

	Functions map[string]template.Function
}

// Engine wires the text front-end, the builtin library and a loader
// into execution contexts.
type Engine struct {
	opts   Opts
	parser *texttemplate.Parser
}

func New(opts Opts) *Engine {
	return &Engine{opts: opts, parser: texttemplate.NewParser()}
}

func (e *Engine) NewContext() *template.ExecutionContext {
	opts := append(tpllibrary.ContextOpts(),
		template.WithParser(e.parser),
		template.WithLoaderParseOpts(e.opts.ParseOpts),
	)
	if e.opts.Loader != nil {
		opts = append(opts, template.WithLoader(e.opts.Loader))
	}
	if e.opts.UI != nil {
		opts = append(opts, template.WithUI(e.opts.UI))
	}
	if e.opts.Observer != nil {
		opts = append(opts, template.WithObserver(e.opts.Observer))
	}
	if e.opts.Cache != nil {
		opts = append(opts, template.WithTemplateCache(e.opts.Cache))
	}
	for name, f := range e.opts.Functions {
		opts = append(opts, template.WithFunction(name, f))
	}
	return template.NewExecutionContext(opts...)
}

// Parse compiles text using the engine's parse options.
func (e *Engine) Parse(text, sourcePath string) *template.CompiledTemplate {
	return e.ParseWith(text, sourcePath, e.opts.ParseOpts)
}

func (e *Engine) ParseWith(text, sourcePath string, opts template.ParseOpts) *template.CompiledTemplate {
	startTime := time.Now()
	tpl := e.parser.Parse(text, sourcePath, opts)
	e.observer().TemplateParsed(sourcePath, time.Since(startTime), tpl.Diagnostics())
	return tpl
}

// ParseFile loads name through the engine's loader. Successfully parsed
// templates are kept in the shared cache (if any).
func (e *Engine) ParseFile(name string) (*template.CompiledTemplate, error) {
	if e.opts.Loader == nil {
		return nil, template.NewError(template.ErrConfiguration, filepos.NewUnknownSpan(),
			"Expected template loader to be configured to load '%s'", name)
	}

	ctx := e.NewContext()
	span := filepos.NewUnknownSpan()

	path, err := e.opts.Loader.GetPath(ctx, span, name)
	if err != nil {
		return nil, template.NewError(template.ErrEmptyPath, span, "Resolving path of template '%s'", name).WithCause(err)
	}
	if len(path) == 0 {
		return nil, template.NewError(template.ErrEmptyPath, span, "Expected template '%s' to resolve to a non-empty path", name)
	}

	if e.opts.Cache != nil {
		if tpl, found := e.opts.Cache.Get(e.opts.ParseOpts.CacheKey(path)); found {
			e.observer().TemplateCacheHit(path)
			return tpl, nil
		}
	}

	contents, err := e.opts.Loader.Load(ctx, span, path)
	if err != nil {
		return nil, template.NewError(template.ErrLoad, span, "Loading template '%s' from '%s'", name, path).WithCause(err)
	}
	if contents == nil {
		return nil, template.NewError(template.ErrLoad, span, "Expected template '%s' to be loadable from '%s'", name, path)
	}

	tpl := e.Parse(string(contents), path)
	if e.opts.Cache != nil && !tpl.HasErrors() {
		tpl = e.opts.Cache.Add(e.opts.ParseOpts.CacheKey(path), tpl)
	}
	return tpl, nil
}

// Render runs the front matter (if any) and then the content with values
// bound as ValuesName. Partial output is returned along with an error.
func (e *Engine) Render(tpl *template.CompiledTemplate, values interface{}) (string, error) {
	ctx := e.NewContext()

	err := e.withValues(ctx, values, func() error {
		_, err := tpl.EvaluateFrontMatter(ctx)
		if err != nil {
			return err
		}
		return tpl.Render(ctx)
	})
	return ctx.Output(), err
}

// Eval evaluates tpl with output suppressed and converts its trailing value
// (or the front matter's, when there is no content) into Go data.
func (e *Engine) Eval(tpl *template.CompiledTemplate, values interface{}) (interface{}, error) {
	ctx := e.NewContext()

	var result interface{}

	err := e.withValues(ctx, values, func() error {
		fmVal, err := tpl.EvaluateFrontMatter(ctx)
		if err != nil {
			return err
		}
		result = fmVal

		if tpl.Root() != nil {
			result, err = tpl.Evaluate(ctx)
			if err != nil {
				return err
			}
		}
		return nil
	})
	if err != nil {
		return nil, err
	}

	return asGoValue(result)
}

// RenderFile is ParseFile followed by Render.
func (e *Engine) RenderFile(name string, values interface{}) (string, error) {
	tpl, err := e.ParseFile(name)
	if err != nil {
		return "", err
	}
	return e.Render(tpl, values)
}

func (e *Engine) withValues(ctx *template.ExecutionContext, values interface{}, f func() error) error {
	ctx.PushGlobal(template.Scope{ValuesName: values})

	err := f()
	if _, popErr := ctx.PopGlobal(); err == nil {
		err = popErr
	}
	return err
}

func (e *Engine) observer() template.Observer {
	if e.opts.Observer != nil {
		return e.opts.Observer
	}
	return template.NoopObserver{}
}

func asGoValue(val interface{}) (interface{}, error) {
	if val == nil {
		return nil, nil
	}
	if starlarkVal, ok := val.(starlark.Value); ok {
		result, err := core.NewStarlarkValue(starlarkVal).AsGoValue()
		if err != nil {
			return nil, fmt.Errorf("Converting template value: %s", err)
		}
		return result, nil
	}
	return val, nil
}
