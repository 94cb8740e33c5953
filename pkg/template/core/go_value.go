// Copyright 2024 The Carvel Authors.
// SPDX-License-Identifier: Apache-2.0

package core

import (
	"fmt"
	"reflect"
	"sort"

	"carvel.dev/ytpl/pkg/orderedmap"
	"github.com/k14s/starlark-go/starlark"
	"github.com/spf13/cast"
)

type GoValueToStarlarkValueConversion interface {
	AsStarlarkValue() starlark.Value
}

// GoValue converts host data (e.g. a model decoded from YAML or JSON) into Starlark values.
// Maps keyed by strings become structs so that templates can use attribute access.
type GoValue struct {
	val interface{}
}

func NewGoValue(val interface{}) GoValue {
	return GoValue{val}
}

func (e GoValue) AsStarlarkValue() (starlark.Value, error) {
	return e.asStarlarkValue(e.val)
}

func (e GoValue) asStarlarkValue(val interface{}) (starlark.Value, error) {
	switch typedVal := val.(type) {
	case nil:
		return starlark.None, nil
	case starlark.Value:
		return typedVal, nil
	case GoValueToStarlarkValueConversion:
		return typedVal.AsStarlarkValue(), nil
	case bool:
		return starlark.Bool(typedVal), nil
	case string:
		return starlark.String(typedVal), nil
	case int:
		return starlark.MakeInt(typedVal), nil
	case int64:
		return starlark.MakeInt64(typedVal), nil
	case uint64:
		return starlark.MakeUint64(typedVal), nil
	case float64:
		return starlark.Float(typedVal), nil
	case map[string]interface{}:
		return e.structAsStarlarkValue(typedVal)
	case map[interface{}]interface{}:
		return e.dictAsStarlarkValue(typedVal)
	case *orderedmap.Map:
		return e.orderedMapAsStarlarkValue(typedVal)
	case []interface{}:
		return e.listAsStarlarkValue(typedVal)
	}

	return e.reflectAsStarlarkValue(val)
}

func (e GoValue) reflectAsStarlarkValue(val interface{}) (starlark.Value, error) {
	rval := reflect.ValueOf(val)

	switch rval.Kind() {
	case reflect.Int, reflect.Int8, reflect.Int16, reflect.Int32:
		return starlark.MakeInt64(rval.Int()), nil

	case reflect.Uint, reflect.Uint8, reflect.Uint16, reflect.Uint32:
		return starlark.MakeUint64(rval.Uint()), nil

	case reflect.Float32:
		return starlark.Float(rval.Float()), nil

	case reflect.Slice, reflect.Array:
		var items []interface{}
		for i := 0; i < rval.Len(); i++ {
			items = append(items, rval.Index(i).Interface())
		}
		return e.listAsStarlarkValue(items)

	case reflect.Map:
		if rval.Type().Key().Kind() == reflect.String {
			data := map[string]interface{}{}
			iter := rval.MapRange()
			for iter.Next() {
				data[iter.Key().String()] = iter.Value().Interface()
			}
			return e.structAsStarlarkValue(data)
		}
		data := map[interface{}]interface{}{}
		iter := rval.MapRange()
		for iter.Next() {
			data[iter.Key().Interface()] = iter.Value().Interface()
		}
		return e.dictAsStarlarkValue(data)

	case reflect.Ptr:
		if rval.IsNil() {
			return starlark.None, nil
		}
	}

	// fall back to textual representation for scalars such as time.Time
	str, err := cast.ToStringE(val)
	if err != nil {
		return nil, fmt.Errorf("unknown type %T for conversion to starlark value", val)
	}
	return starlark.String(str), nil
}

func (e GoValue) structAsStarlarkValue(val map[string]interface{}) (starlark.Value, error) {
	var keys []string
	for k := range val {
		keys = append(keys, k)
	}
	sort.Strings(keys)

	data := map[string]starlark.Value{}
	for _, k := range keys {
		v, err := e.asStarlarkValue(val[k])
		if err != nil {
			return nil, fmt.Errorf("converting key '%s': %s", k, err)
		}
		data[k] = v
	}
	return NewStarlarkStruct(keys, data), nil
}

// orderedMapAsStarlarkValue keeps insertion order of keys;
// maps with any non-string key become dicts.
func (e GoValue) orderedMapAsStarlarkValue(val *orderedmap.Map) (starlark.Value, error) {
	var keys []string
	for _, k := range val.Keys() {
		strKey, ok := k.(string)
		if !ok {
			return e.orderedDictAsStarlarkValue(val)
		}
		keys = append(keys, strKey)
	}

	data := map[string]starlark.Value{}
	err := val.IterateErr(func(k, v interface{}) error {
		item, err := e.asStarlarkValue(v)
		if err != nil {
			return fmt.Errorf("converting key '%s': %s", k, err)
		}
		data[k.(string)] = item
		return nil
	})
	if err != nil {
		return nil, err
	}
	return NewStarlarkStruct(keys, data), nil
}

func (e GoValue) orderedDictAsStarlarkValue(val *orderedmap.Map) (starlark.Value, error) {
	result := &starlark.Dict{}
	err := val.IterateErr(func(k, v interface{}) error {
		key, err := e.asStarlarkValue(k)
		if err != nil {
			return err
		}
		value, err := e.asStarlarkValue(v)
		if err != nil {
			return err
		}
		return result.SetKey(key, value)
	})
	if err != nil {
		return nil, err
	}
	return result, nil
}

func (e GoValue) dictAsStarlarkValue(val map[interface{}]interface{}) (starlark.Value, error) {
	result := &starlark.Dict{}
	for k, v := range val {
		key, err := e.asStarlarkValue(k)
		if err != nil {
			return nil, err
		}
		value, err := e.asStarlarkValue(v)
		if err != nil {
			return nil, err
		}
		err = result.SetKey(key, value)
		if err != nil {
			return nil, err
		}
	}
	return result, nil
}

func (e GoValue) listAsStarlarkValue(val []interface{}) (starlark.Value, error) {
	result := []starlark.Value{}
	for _, v := range val {
		item, err := e.asStarlarkValue(v)
		if err != nil {
			return nil, err
		}
		result = append(result, item)
	}
	return starlark.NewList(result), nil
}
