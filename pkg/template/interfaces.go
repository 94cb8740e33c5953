// Copyright 2024 The Carvel Authors.
// SPDX-License-Identifier: Apache-2.0

package template

import (
	"fmt"
	"strings"
	"time"

	"carvel.dev/ytpl/pkg/filepos"
)

// Node is an evaluable tree produced by a front-end. Evaluation may write to
// ctx's current output and returns the tree's trailing value (nil when none).
type Node interface {
	Evaluate(ctx *ExecutionContext) (interface{}, error)
}

// Parser turns template text into a CompiledTemplate. Problems are reported
// as diagnostics on the result, never as errors.
type Parser interface {
	Parse(text, sourcePath string, opts ParseOpts) *CompiledTemplate
}

// Loader resolves include names to canonical paths and loads their contents.
// Load returns nil bytes (or an error) when the template cannot be loaded.
type Loader interface {
	GetPath(ctx *ExecutionContext, span filepos.Span, name string) (string, error)
	Load(ctx *ExecutionContext, span filepos.Span, path string) ([]byte, error)
}

// Converter is the object model contract used by the runtime.
type Converter interface {
	ToDisplayString(val interface{}) (string, error)
	ToName(val interface{}) (string, error)
}

// Function is a builtin callable from templates.
type Function interface {
	Invoke(ctx *ExecutionContext, span filepos.Span, args []interface{}) (interface{}, error)
}

type FunctionFunc func(ctx *ExecutionContext, span filepos.Span, args []interface{}) (interface{}, error)

var _ Function = FunctionFunc(nil)

func (f FunctionFunc) Invoke(ctx *ExecutionContext, span filepos.Span, args []interface{}) (interface{}, error) {
	return f(ctx, span, args)
}

// ArgumentsName is the identifier under which an included template finds
// the positional arguments passed to include (excluding the template name).
const ArgumentsName = "args"

type Arguments []interface{}

type ParseMode int

const (
	ModeDefault ParseMode = iota
	ModeScriptOnly
	ModeFrontMatterAndContent
	ModeFrontMatterOnly
)

var parseModeNames = map[ParseMode]string{
	ModeDefault:               "default",
	ModeScriptOnly:            "script",
	ModeFrontMatterAndContent: "frontmatter",
	ModeFrontMatterOnly:       "frontmatter-only",
}

func (m ParseMode) String() string {
	if name, found := parseModeNames[m]; found {
		return name
	}
	return fmt.Sprintf("mode(%d)", int(m))
}

func (m ParseMode) HasFrontMatter() bool {
	return m == ModeFrontMatterAndContent || m == ModeFrontMatterOnly
}

func NewParseModeFromString(name string) (ParseMode, error) {
	var known []string
	for mode, modeName := range parseModeNames {
		if modeName == name {
			return mode, nil
		}
		known = append(known, modeName)
	}
	return ModeDefault, fmt.Errorf("Unknown parse mode '%s' (known: %s)", name, strings.Join(sortedStrings(known), ", "))
}

type ParseOpts struct {
	Mode ParseMode
}

// ForInclude derives options for parsing an included template: front matter
// delimiters are only honored at the top level.
func (o ParseOpts) ForInclude() ParseOpts {
	result := o
	if result.Mode.HasFrontMatter() {
		result.Mode = ModeDefault
	}
	return result
}

// CacheKey is the TemplateCache key of a template at path parsed with o.
// Templates parsed in ModeDefault are keyed by path alone.
func (o ParseOpts) CacheKey(path string) string {
	if o.Mode == ModeDefault {
		return path
	}
	return path + "\x00" + o.Mode.String()
}

// UI receives debug traces of the runtime.
type UI interface {
	Debugf(string, ...interface{})
}

type noopUI struct{}

func (noopUI) Debugf(string, ...interface{}) {}

// Observer is notified about template lifecycle events (e.g. to export metrics).
type Observer interface {
	TemplateParsed(path string, dur time.Duration, diags Diagnostics)
	TemplateCacheHit(path string)
	TemplateRendered(path string, dur time.Duration, err error)
	// IncludeFailed is called once per failure, by the innermost failing include.
	IncludeFailed(name string, err error)
}

type NoopObserver struct{}

var _ Observer = NoopObserver{}

func (NoopObserver) TemplateParsed(string, time.Duration, Diagnostics) {}
func (NoopObserver) TemplateCacheHit(string)                           {}
func (NoopObserver) TemplateRendered(string, time.Duration, error)     {}
func (NoopObserver) IncludeFailed(string, error)                       {}
