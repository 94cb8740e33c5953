// Copyright 2024 The Carvel Authors.
// SPDX-License-Identifier: Apache-2.0

package core

import (
	"fmt"

	"github.com/k14s/starlark-go/starlark"
	"github.com/spf13/cast"
)

// Converter turns evaluated values into text for output
// and into names for loader lookups.
type Converter struct{}

func (Converter) ToDisplayString(val interface{}) (string, error) {
	switch typedVal := val.(type) {
	case nil, starlark.NoneType:
		return "", nil
	case starlark.String:
		return string(typedVal), nil
	case starlark.Value:
		return typedVal.String(), nil
	}

	str, err := cast.ToStringE(val)
	if err != nil {
		return "", fmt.Errorf("cannot display value of type %T", val)
	}
	return str, nil
}

func (Converter) ToName(val interface{}) (string, error) {
	switch typedVal := val.(type) {
	case nil, starlark.NoneType:
		return "", nil
	case starlark.String:
		return string(typedVal), nil
	case starlark.Int, starlark.Float, starlark.Bool:
		return typedVal.(starlark.Value).String(), nil
	case starlark.Value:
		return "", fmt.Errorf("expected a string for a template name, but was %s", typedVal.Type())
	}

	str, err := cast.ToStringE(val)
	if err != nil {
		return "", fmt.Errorf("expected a string for a template name, but was %T", val)
	}
	return str, nil
}
