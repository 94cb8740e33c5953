// Copyright 2024 The Carvel Authors.
// SPDX-License-Identifier: Apache-2.0

package core

import (
	"fmt"
	"strings"

	"github.com/k14s/starlark-go/starlark"
)

// StarlarkStruct exposes string-keyed host maps to templates;
// it supports both attribute (m.key) and index (m["key"]) access.
type StarlarkStruct struct {
	keys []string
	data map[string]starlark.Value
}

func NewStarlarkStruct(keys []string, data map[string]starlark.Value) *StarlarkStruct {
	return &StarlarkStruct{keys: keys, data: data}
}

var _ starlark.Value = (*StarlarkStruct)(nil)
var _ starlark.HasAttrs = (*StarlarkStruct)(nil)
var _ starlark.IterableMapping = (*StarlarkStruct)(nil)
var _ starlark.Sequence = (*StarlarkStruct)(nil)

func (s *StarlarkStruct) String() string {
	var pieces []string
	for _, k := range s.keys {
		pieces = append(pieces, fmt.Sprintf("%s=%s", k, s.data[k].String()))
	}
	return "struct(" + strings.Join(pieces, ", ") + ")"
}

func (s *StarlarkStruct) Type() string          { return "struct" }
func (s *StarlarkStruct) Freeze()               {}
func (s *StarlarkStruct) Truth() starlark.Bool  { return len(s.keys) > 0 }
func (s *StarlarkStruct) Hash() (uint32, error) { return 0, fmt.Errorf("unhashable type: struct") }
func (s *StarlarkStruct) Len() int              { return len(s.keys) }

// returns (nil, nil) if attribute not present
func (s *StarlarkStruct) Attr(name string) (starlark.Value, error) {
	if val, found := s.data[name]; found {
		return val, nil
	}
	return nil, nil
}

// callers must not modify the result.
func (s *StarlarkStruct) AttrNames() []string { return s.keys }

func (s *StarlarkStruct) Get(key starlark.Value) (val starlark.Value, found bool, err error) {
	attr, ok := key.(starlark.String)
	if !ok {
		return nil, false, fmt.Errorf("expected key `%s` to be a string but is a %s", key, key.Type())
	}
	if val, found := s.data[string(attr)]; found {
		return val, true, nil
	}
	return starlark.None, false, nil
}

func (s *StarlarkStruct) Iterate() starlark.Iterator {
	return &StarlarkStructIterator{keys: s.keys}
}

func (s *StarlarkStruct) Items() (items []starlark.Tuple) {
	for _, k := range s.keys {
		items = append(items, starlark.Tuple{starlark.String(k), s.data[k]})
	}
	return
}

type StarlarkStructIterator struct {
	keys []string
	idx  int
}

var _ starlark.Iterator = &StarlarkStructIterator{}

func (s *StarlarkStructIterator) Next(p *starlark.Value) bool {
	if s.idx < len(s.keys) {
		*p = starlark.String(s.keys[s.idx])
		s.idx++
		return true
	}
	return false
}

func (s *StarlarkStructIterator) Done() { /* intentionally blank. */ }
