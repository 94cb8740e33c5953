// Copyright 2024 The Carvel Authors.
// SPDX-License-Identifier: Apache-2.0

package core

import (
	"fmt"

	"carvel.dev/ytpl/pkg/orderedmap"
	"github.com/k14s/starlark-go/starlark"
	"github.com/k14s/starlark-go/starlarkstruct"
)

type StarlarkValueToGoValueConversion interface {
	AsGoValue() interface{}
}

// StarlarkValue converts template results back into plain Go data
// (ordered maps, slices and scalars) suitable for JSON or YAML encoding.
type StarlarkValue struct {
	val starlark.Value
}

func NewStarlarkValue(val starlark.Value) StarlarkValue {
	return StarlarkValue{val}
}

func (e StarlarkValue) AsGoValue() (interface{}, error) {
	return e.asInterface(e.val)
}

func (e StarlarkValue) AsString() (string, error) {
	if typedVal, ok := e.val.(starlark.String); ok {
		return string(typedVal), nil
	}
	return "", fmt.Errorf("expected starlark.String, but was %T", e.val)
}

func (e StarlarkValue) AsInt64() (int64, error) {
	if typedVal, ok := e.val.(starlark.Int); ok {
		i1, ok := typedVal.Int64()
		if ok {
			return i1, nil
		}
		return 0, fmt.Errorf("expected int64 value")
	}
	return 0, fmt.Errorf("expected starlark.Int, but was %T", e.val)
}

func (e StarlarkValue) asInterface(val starlark.Value) (interface{}, error) {
	if obj, ok := val.(StarlarkValueToGoValueConversion); ok {
		return obj.AsGoValue(), nil
	}

	switch typedVal := val.(type) {
	case nil, starlark.NoneType:
		return nil, nil

	case starlark.Bool:
		return bool(typedVal), nil

	case starlark.String:
		return string(typedVal), nil

	case starlark.Int:
		if i1, ok := typedVal.Int64(); ok {
			return i1, nil
		}
		if i2, ok := typedVal.Uint64(); ok {
			return i2, nil
		}
		return typedVal.String(), nil

	case starlark.Float:
		return float64(typedVal), nil

	case *starlark.Dict:
		return e.mappingAsInterface(typedVal.Items())

	case *StarlarkStruct:
		return e.mappingAsInterface(typedVal.Items())

	case *starlarkstruct.Struct:
		var items []starlark.Tuple
		for _, key := range typedVal.AttrNames() {
			v, err := typedVal.Attr(key)
			if err != nil {
				return nil, err
			}
			items = append(items, starlark.Tuple{starlark.String(key), v})
		}
		return e.mappingAsInterface(items)

	case starlark.Iterable:
		return e.iterableAsInterface(typedVal)

	default:
		return nil, fmt.Errorf("unknown type %s for conversion to go value", val.Type())
	}
}

func (e StarlarkValue) mappingAsInterface(items []starlark.Tuple) (interface{}, error) {
	result := orderedmap.NewMap()
	for _, item := range items {
		var key string
		if typedKey, ok := item[0].(starlark.String); ok {
			key = string(typedKey)
		} else {
			key = item[0].String()
		}
		val, err := e.asInterface(item[1])
		if err != nil {
			return nil, err
		}
		result.Set(key, val)
	}
	return result, nil
}

func (e StarlarkValue) iterableAsInterface(iterable starlark.Iterable) (interface{}, error) {
	iter := iterable.Iterate()
	defer iter.Done()

	result := []interface{}{}
	var x starlark.Value
	for iter.Next(&x) {
		val, err := e.asInterface(x)
		if err != nil {
			return nil, err
		}
		result = append(result, val)
	}
	return result, nil
}
