// Copyright 2024 The Carvel Authors.
// SPDX-License-Identifier: Apache-2.0

package core_test

import (
	"testing"

	"carvel.dev/ytpl/pkg/orderedmap"
	"carvel.dev/ytpl/pkg/template/core"
	"github.com/k14s/starlark-go/starlark"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestGoValueRoundTripsModel(t *testing.T) {
	model := map[string]interface{}{
		"name":  "web",
		"port":  8080,
		"tags":  []string{"a", "b"},
		"ratio": float32(0.5),
		"nested": map[string]interface{}{
			"enabled": true,
			"none":    nil,
		},
	}

	val, err := core.NewGoValue(model).AsStarlarkValue()
	require.NoError(t, err)

	st, ok := val.(*core.StarlarkStruct)
	require.True(t, ok, "expected struct, but was %T", val)
	assert.Equal(t, []string{"name", "nested", "port", "ratio", "tags"}, st.AttrNames())

	name, err := st.Attr("name")
	require.NoError(t, err)
	assert.Equal(t, starlark.String("web"), name)

	goVal, err := core.NewStarlarkValue(val).AsGoValue()
	require.NoError(t, err)

	nested := orderedmap.NewMap()
	nested.Set("enabled", true)
	nested.Set("none", nil)

	expected := orderedmap.NewMap()
	expected.Set("name", "web")
	expected.Set("nested", nested)
	expected.Set("port", int64(8080))
	expected.Set("ratio", float64(0.5))
	expected.Set("tags", []interface{}{"a", "b"})
	assert.Equal(t, expected, goVal)
}

func TestGoValueKeepsOrderedMapOrder(t *testing.T) {
	inner := orderedmap.NewMap()
	inner.Set("z", 1)
	inner.Set("a", 2)

	model := orderedmap.NewMap()
	model.Set("second", inner)
	model.Set("first", "x")

	val, err := core.NewGoValue(model).AsStarlarkValue()
	require.NoError(t, err)

	st, ok := val.(*core.StarlarkStruct)
	require.True(t, ok, "expected struct, but was %T", val)
	assert.Equal(t, []string{"second", "first"}, st.AttrNames())

	innerVal, err := st.Attr("second")
	require.NoError(t, err)
	assert.Equal(t, []string{"z", "a"}, innerVal.(*core.StarlarkStruct).AttrNames())

	goVal, err := core.NewStarlarkValue(val).AsGoValue()
	require.NoError(t, err)
	assert.Equal(t, []interface{}{"second", "first"}, goVal.(*orderedmap.Map).Keys())
}

func TestGoValueOrderedMapWithNonStringKeysBecomesDict(t *testing.T) {
	model := orderedmap.NewMap()
	model.Set(1, "one")

	val, err := core.NewGoValue(model).AsStarlarkValue()
	require.NoError(t, err)

	dict, ok := val.(*starlark.Dict)
	require.True(t, ok, "expected dict, but was %T", val)
	assert.Equal(t, 1, dict.Len())
}

func TestGoValueNonStringKeysBecomeDict(t *testing.T) {
	val, err := core.NewGoValue(map[interface{}]interface{}{1: "one"}).AsStarlarkValue()
	require.NoError(t, err)

	dict, ok := val.(*starlark.Dict)
	require.True(t, ok)

	v, found, err := dict.Get(starlark.MakeInt(1))
	require.NoError(t, err)
	require.True(t, found)
	assert.Equal(t, starlark.String("one"), v)
}

func TestGoValuePassesStarlarkValuesThrough(t *testing.T) {
	orig := starlark.Tuple{starlark.MakeInt(1)}
	val, err := core.NewGoValue(orig).AsStarlarkValue()
	require.NoError(t, err)
	assert.Equal(t, orig, val)
}

func TestGoValueRejectsUnknownTypes(t *testing.T) {
	_, err := core.NewGoValue(make(chan int)).AsStarlarkValue()
	assert.ErrorContains(t, err, "unknown type chan int")
}

func TestStarlarkStructIndexAccess(t *testing.T) {
	st := core.NewStarlarkStruct([]string{"a"}, map[string]starlark.Value{"a": starlark.MakeInt(1)})

	v, found, err := st.Get(starlark.String("a"))
	require.NoError(t, err)
	assert.True(t, found)
	assert.Equal(t, starlark.MakeInt(1), v)

	_, _, err = st.Get(starlark.MakeInt(0))
	assert.ErrorContains(t, err, "to be a string")
	assert.Equal(t, "struct(a=1)", st.String())
}
