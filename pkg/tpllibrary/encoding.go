// Copyright 2024 The Carvel Authors.
// SPDX-License-Identifier: Apache-2.0

package tpllibrary

import (
	"crypto/md5"
	"crypto/sha256"
	"encoding/base64"
	"fmt"

	"carvel.dev/ytpl/pkg/filepos"
	"carvel.dev/ytpl/pkg/template"
	"carvel.dev/ytpl/pkg/template/core"
	"github.com/goccy/go-json"
	"github.com/k14s/starlark-go/starlark"
	"gopkg.in/yaml.v3"
)

// ToJSON renders a value as compact JSON: to_json({"a": [1]}) == '{"a":[1]}'.
// Dict and struct keys keep their order.
type ToJSON struct{}

var _ template.Function = ToJSON{}

func (b ToJSON) Invoke(ctx *template.ExecutionContext, span filepos.Span, args []interface{}) (interface{}, error) {
	if len(args) != 1 {
		return nil, template.NewError(template.ErrArity, span, "Expected exactly one argument for to_json")
	}

	val, err := goValueArg(span, args[0])
	if err != nil {
		return nil, err
	}

	valBs, err := json.Marshal(val)
	if err != nil {
		return nil, fmt.Errorf("encoding json: %w", err)
	}
	return string(valBs), nil
}

// ToYAML renders a value as a YAML document without the leading separator.
type ToYAML struct{}

var _ template.Function = ToYAML{}

func (b ToYAML) Invoke(ctx *template.ExecutionContext, span filepos.Span, args []interface{}) (interface{}, error) {
	if len(args) != 1 {
		return nil, template.NewError(template.ErrArity, span, "Expected exactly one argument for to_yaml")
	}

	val, err := goValueArg(span, args[0])
	if err != nil {
		return nil, err
	}

	valBs, err := yaml.Marshal(val)
	if err != nil {
		return nil, fmt.Errorf("encoding yaml: %w", err)
	}
	return string(valBs), nil
}

// Base64 encodes (or decodes) strings with standard padding.
type Base64 struct {
	Decode bool
}

var _ template.Function = Base64{}

func (b Base64) Invoke(ctx *template.ExecutionContext, span filepos.Span, args []interface{}) (interface{}, error) {
	if len(args) != 1 {
		return nil, template.NewError(template.ErrArity, span, "Expected exactly one argument for %s", b.name())
	}

	input, err := stringArg(ctx, span, args[0])
	if err != nil {
		return nil, err
	}

	if !b.Decode {
		return base64.StdEncoding.EncodeToString([]byte(input)), nil
	}

	decoded, err := base64.StdEncoding.DecodeString(input)
	if err != nil {
		return nil, fmt.Errorf("decoding base64: %w", err)
	}
	return string(decoded), nil
}

func (b Base64) name() string {
	if b.Decode {
		return "base64_decode"
	}
	return "base64_encode"
}

// Digest returns the hex encoded checksum of a string: sha256(text) or md5(text).
type Digest struct {
	Name string
}

var _ template.Function = Digest{}

func (b Digest) Invoke(ctx *template.ExecutionContext, span filepos.Span, args []interface{}) (interface{}, error) {
	if len(args) != 1 {
		return nil, template.NewError(template.ErrArity, span, "Expected exactly one argument for %s", b.Name)
	}

	input, err := stringArg(ctx, span, args[0])
	if err != nil {
		return nil, err
	}

	switch b.Name {
	case "md5":
		return fmt.Sprintf("%x", md5.Sum([]byte(input))), nil
	case "sha256":
		return fmt.Sprintf("%x", sha256.Sum256([]byte(input))), nil
	default:
		return nil, template.NewError(template.ErrConfiguration, span, "Unknown digest '%s'", b.Name)
	}
}

// goValueArg unwraps Starlark values into ordered maps, slices and scalars.
func goValueArg(span filepos.Span, arg interface{}) (interface{}, error) {
	starlarkVal, ok := arg.(starlark.Value)
	if !ok {
		return arg, nil
	}
	val, err := core.NewStarlarkValue(starlarkVal).AsGoValue()
	if err != nil {
		return nil, template.NewError(template.ErrConversion, span, "Converting argument").WithCause(err)
	}
	return val, nil
}
