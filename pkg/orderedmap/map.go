// Copyright 2024 The Carvel Authors.
// SPDX-License-Identifier: Apache-2.0

package orderedmap

import (
	"bytes"
	"fmt"
	"reflect"

	"github.com/goccy/go-json"
	"gopkg.in/yaml.v3"
)

type Map struct {
	items []MapItem
}

type MapItem struct {
	Key   interface{}
	Value interface{}
}

func NewMap() *Map {
	return &Map{}
}

func NewMapWithItems(items []MapItem) *Map {
	return &Map{items}
}

func (m *Map) Set(key, value interface{}) {
	for i, item := range m.items {
		if m.isKeyEq(item.Key, key) {
			item.Value = value
			m.items[i] = item
			return
		}
	}
	m.items = append(m.items, MapItem{key, value})
}

func (m *Map) Get(key interface{}) (interface{}, bool) {
	for _, item := range m.items {
		if m.isKeyEq(item.Key, key) {
			return item.Value, true
		}
	}
	return nil, false
}

func (m *Map) Delete(key interface{}) bool {
	for i, item := range m.items {
		if m.isKeyEq(item.Key, key) {
			m.items = append(m.items[:i], m.items[i+1:]...)
			return true
		}
	}
	return false
}

func (m *Map) isKeyEq(key1, key2 interface{}) bool {
	return reflect.DeepEqual(key1, key2)
}

func (m *Map) Keys() (keys []interface{}) {
	m.Iterate(func(k, _ interface{}) {
		keys = append(keys, k)
	})
	return
}

func (m *Map) Iterate(iterFunc func(k, v interface{})) {
	for _, item := range m.items {
		iterFunc(item.Key, item.Value)
	}
}

func (m *Map) IterateErr(iterFunc func(k, v interface{}) error) error {
	for _, item := range m.items {
		err := iterFunc(item.Key, item.Value)
		if err != nil {
			return err
		}
	}
	return nil
}

func (m *Map) Len() int { return len(m.items) }

// Merge sets copies of other's items into m. Nested maps present on both
// sides are merged recursively; any other value from other replaces m's.
func (m *Map) Merge(other *Map) {
	other.Iterate(func(k, v interface{}) {
		if otherSub, ok := v.(*Map); ok {
			if existing, found := m.Get(k); found {
				if sub, ok := existing.(*Map); ok {
					sub.Merge(otherSub)
					return
				}
			}
		}
		m.Set(k, deepCopy(v))
	})
}

// DeepCopy copies nested maps and slices; other values are shared.
func (m *Map) DeepCopy() *Map {
	return deepCopy(m).(*Map)
}

func deepCopy(val interface{}) interface{} {
	switch typedVal := val.(type) {
	case *Map:
		result := NewMap()
		for _, item := range typedVal.items {
			result.items = append(result.items, MapItem{item.Key, deepCopy(item.Value)})
		}
		return result
	case []interface{}:
		result := make([]interface{}, len(typedVal))
		for i, item := range typedVal {
			result[i] = deepCopy(item)
		}
		return result
	default:
		return val
	}
}

var _ []json.Marshaler = []json.Marshaler{&Map{}}
var _ []yaml.Marshaler = []yaml.Marshaler{&Map{}}

// MarshalJSON keeps key order; keys are formatted as strings.
func (m *Map) MarshalJSON() ([]byte, error) {
	var buf bytes.Buffer
	buf.WriteString("{")

	for i, item := range m.items {
		if i > 0 {
			buf.WriteString(",")
		}

		keyBytes, err := json.Marshal(fmt.Sprintf("%v", item.Key))
		if err != nil {
			return nil, err
		}
		valBytes, err := json.Marshal(item.Value)
		if err != nil {
			return nil, fmt.Errorf("Marshaling value of key '%v': %s", item.Key, err)
		}

		buf.Write(keyBytes)
		buf.WriteString(":")
		buf.Write(valBytes)
	}

	buf.WriteString("}")
	return buf.Bytes(), nil
}

// MarshalYAML keeps key order.
func (m *Map) MarshalYAML() (interface{}, error) {
	node := &yaml.Node{Kind: yaml.MappingNode, Tag: "!!map"}

	for _, item := range m.items {
		keyNode := &yaml.Node{}
		if err := keyNode.Encode(item.Key); err != nil {
			return nil, err
		}
		valNode := &yaml.Node{}
		if err := valNode.Encode(item.Value); err != nil {
			return nil, fmt.Errorf("Marshaling value of key '%v': %s", item.Key, err)
		}
		node.Content = append(node.Content, keyNode, valNode)
	}

	return node, nil
}
